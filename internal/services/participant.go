package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"aligner-bot/internal/apperr"
	"aligner-bot/internal/metrics"
	"aligner-bot/internal/models"
	"aligner-bot/internal/sentryutil"
	"aligner-bot/internal/store"
)

// Identity is what Telegram tells us about a user.
type Identity struct {
	TelegramID int64
	Handle     string
	Name       string
}

type ParticipantService struct {
	repo store.Repository
	log  zerolog.Logger
}

func NewParticipantService(repo store.Repository, log zerolog.Logger) *ParticipantService {
	return &ParticipantService{
		repo: repo,
		log:  log.With().Str("component", "participant-service").Logger(),
	}
}

func (s *ParticipantService) Find(ctx context.Context, telegramID int64) (*models.Participant, error) {
	p, err := s.repo.FindParticipant(ctx, telegramID)
	if err != nil {
		reportStoreError(s.log, "find participant", strconv.FormatInt(telegramID, 10), err)
		return nil, fmt.Errorf("find participant %d: %w", telegramID, err)
	}
	return p, nil
}

// Join returns the participant for id, creating it on first call. created
// reports whether this call wrote the record.
func (s *ParticipantService) Join(ctx context.Context, id Identity) (*models.Participant, bool, error) {
	existing, err := s.Find(ctx, id.TelegramID)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, false, err
	}
	if existing != nil {
		metrics.RegistrationsTotal.WithLabelValues("existing").Inc()
		return existing, false, nil
	}

	p, err := s.repo.CreateParticipant(ctx, models.Participant{
		TelegramID: id.TelegramID,
		Handle:     id.Handle,
		Name:       id.Name,
	})
	if err != nil {
		reportStoreError(s.log, "create participant", strconv.FormatInt(id.TelegramID, 10), err)
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("create participant %d: %w", id.TelegramID, err)
	}

	s.log.Info().Int64("telegram_id", id.TelegramID).Str("participant", p.ID).Msg("participant registered")
	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return p, true, nil
}

func reportStoreError(log zerolog.Logger, op, user string, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.StoreUnavailable
	}
	log.Error().Err(err).
		Str("op", op).
		Str("user", user).
		Str("kind", string(kind)).
		Bool("retryable", apperr.Retryable(err)).
		Msg("store operation failed")
	metrics.StoreErrorsTotal.WithLabelValues(op, string(kind)).Inc()
	sentryutil.CaptureError(err, map[string]string{"op": op, "kind": string(kind)})
}
