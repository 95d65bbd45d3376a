package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"aligner-bot/internal/models"
	"aligner-bot/internal/store"
)

// Repository is a thread-safe in-process store for local runs and tests.
type Repository struct {
	mu           sync.RWMutex
	participants []models.Participant
	kudos        []models.Kudo

	// Err, when set, is returned by every call.
	Err error
}

var _ store.Repository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) FindParticipant(ctx context.Context, telegramID int64) (*models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, p := range r.participants {
		if p.TelegramID == telegramID {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Repository) CreateParticipant(ctx context.Context, p models.Participant) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	p.ID = "rec" + uuid.NewString()
	p.CreatedAt = time.Now()
	r.participants = append(r.participants, p)
	return &p, nil
}

func (r *Repository) ListKudos(ctx context.Context, participantID string) ([]models.Kudo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []models.Kudo
	for _, k := range r.kudos {
		if k.ParticipantID == participantID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (r *Repository) ListKudosForDay(ctx context.Context, participantID, date string) ([]models.Kudo, error) {
	all, err := r.ListKudos(ctx, participantID)
	if err != nil {
		return nil, err
	}
	return store.FilterByDate(all, date), nil
}

func (r *Repository) CreateKudo(ctx context.Context, k models.Kudo) (*models.Kudo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	k.ID = "rec" + uuid.NewString()
	k.CreatedAt = time.Now()
	r.kudos = append(r.kudos, k)
	return &k, nil
}

// Counts reports how many participants and kudos are stored.
func (r *Repository) Counts() (participants, kudos int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants), len(r.kudos)
}

// SetErr swaps the injected failure under the write lock.
func (r *Repository) SetErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Err = err
}
