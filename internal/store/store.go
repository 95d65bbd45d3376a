// Package store defines the repository boundary between the bot and the
// external database holding participants and kudos.
package store

import (
	"context"

	"aligner-bot/internal/models"
)

// Repository is implemented by every storage backend. Lookups that find
// nothing return (nil, nil); remote failures are returned as *apperr.Error.
type Repository interface {
	FindParticipant(ctx context.Context, telegramID int64) (*models.Participant, error)
	CreateParticipant(ctx context.Context, p models.Participant) (*models.Participant, error)
	ListKudos(ctx context.Context, participantID string) ([]models.Kudo, error)
	ListKudosForDay(ctx context.Context, participantID, date string) ([]models.Kudo, error)
	CreateKudo(ctx context.Context, k models.Kudo) (*models.Kudo, error)
}

// FilterByDate keeps the kudos dated date, preserving order.
func FilterByDate(kudos []models.Kudo, date string) []models.Kudo {
	out := make([]models.Kudo, 0, len(kudos))
	for _, k := range kudos {
		if k.Date == date {
			out = append(out, k)
		}
	}
	return out
}
