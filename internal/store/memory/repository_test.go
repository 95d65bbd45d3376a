package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"aligner-bot/internal/models"
)

func TestRepository_ParticipantLookup(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()

	p, err := r.FindParticipant(ctx, 7)
	require.NoError(t, err)
	require.Nil(t, p)

	created, err := r.CreateParticipant(ctx, models.Participant{TelegramID: 7, Handle: "seven", Name: "Seven"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	p, err = r.FindParticipant(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, created.ID, p.ID)
}

func TestRepository_KudosForDay(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()

	for _, k := range []models.Kudo{
		{ParticipantID: "a", RecipientHandle: "x", Date: "2026-10-17"},
		{ParticipantID: "a", RecipientHandle: "y", Date: "2026-10-18"},
		{ParticipantID: "b", RecipientHandle: "z", Date: "2026-10-18"},
		{ParticipantID: "a", RecipientHandle: "w", Date: "2026-10-18"},
	} {
		_, err := r.CreateKudo(ctx, k)
		require.NoError(t, err)
	}

	all, err := r.ListKudos(ctx, "a")
	require.NoError(t, err)
	require.Len(t, all, 3)

	day, err := r.ListKudosForDay(ctx, "a", "2026-10-18")
	require.NoError(t, err)
	require.Equal(t, []string{"y", "w"}, models.RecipientHandles(day))
}

func TestRepository_InjectedError(t *testing.T) {
	r := NewRepository()
	r.SetErr(errors.New("down"))

	_, err := r.FindParticipant(context.Background(), 1)
	require.Error(t, err)
	_, err = r.CreateKudo(context.Background(), models.Kudo{})
	require.Error(t, err)
}
