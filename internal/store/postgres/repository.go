package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"aligner-bot/internal/apperr"
	"aligner-bot/internal/models"
	"aligner-bot/internal/store"
)

// Repository persists participants and kudos in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

var _ store.Repository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindParticipant(ctx context.Context, telegramID int64) (*models.Participant, error) {
	var p models.Participant
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.New(apperr.StoreUnavailable, "postgres: find participant", err)
	}
	return &p, nil
}

// CreateParticipant inserts p. The unique index on telegram_id turns a
// concurrent duplicate into a lookup of the winning row.
func (r *Repository) CreateParticipant(ctx context.Context, p models.Participant) (*models.Participant, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	err := r.db.WithContext(ctx).Create(&p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.FindParticipant(ctx, p.TelegramID)
	}
	if err != nil {
		return nil, apperr.New(apperr.StoreUnavailable, "postgres: create participant", err)
	}
	return &p, nil
}

func (r *Repository) ListKudos(ctx context.Context, participantID string) ([]models.Kudo, error) {
	var kudos []models.Kudo
	err := r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at ASC").
		Find(&kudos).Error
	if err != nil {
		return nil, apperr.New(apperr.StoreUnavailable, "postgres: list kudos", err)
	}
	return kudos, nil
}

func (r *Repository) ListKudosForDay(ctx context.Context, participantID, date string) ([]models.Kudo, error) {
	var kudos []models.Kudo
	err := r.db.WithContext(ctx).
		Where("participant_id = ? AND date = ?", participantID, date).
		Order("created_at ASC").
		Find(&kudos).Error
	if err != nil {
		return nil, apperr.New(apperr.StoreUnavailable, "postgres: list kudos for day", err)
	}
	return kudos, nil
}

func (r *Repository) CreateKudo(ctx context.Context, k models.Kudo) (*models.Kudo, error) {
	k.ID = uuid.NewString()
	k.CreatedAt = time.Now()
	if err := r.db.WithContext(ctx).Create(&k).Error; err != nil {
		return nil, apperr.New(apperr.StoreUnavailable, "postgres: create kudo", err)
	}
	return &k, nil
}
