package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"aligner-bot/internal/apperr"
	"aligner-bot/internal/models"
	"aligner-bot/internal/store/memory"
)

type fixedClock struct{ date string }

func (c *fixedClock) Today() string { return c.date }

func newServices(t *testing.T) (*ParticipantService, *KudosService, *memory.Repository, *fixedClock) {
	t.Helper()
	repo := memory.NewRepository()
	clk := &fixedClock{date: "2026-10-18"}
	log := zerolog.Nop()
	return NewParticipantService(repo, log), NewKudosService(repo, clk, log), repo, clk
}

func TestBegin_NotJoined(t *testing.T) {
	_, kudos, repo, _ := newServices(t)

	res, err := kudos.Begin(context.Background(), 99)
	require.NoError(t, err)
	require.Equal(t, OutcomeNotJoined, res.Outcome)
	require.Empty(t, res.GiverRef)

	_, n := repo.Counts()
	require.Zero(t, n)
}

func TestBegin_ReadyThenCapReached(t *testing.T) {
	ctx := context.Background()
	participants, kudos, repo, _ := newServices(t)

	p, _, err := participants.Join(ctx, Identity{TelegramID: 1, Handle: "u", Name: "U"})
	require.NoError(t, err)

	for _, handle := range []string{"alice", "bob", "carol"} {
		res, err := kudos.Begin(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, OutcomeReady, res.Outcome)
		require.Equal(t, p.ID, res.GiverRef)
		require.Equal(t, "2026-10-18", res.Date)

		given, err := kudos.Give(ctx, res.GiverRef, handle, res.Date)
		require.NoError(t, err)
		require.Equal(t, OutcomeGiven, given.Outcome)
		require.Equal(t, handle, given.Kudo.RecipientHandle)
		require.Equal(t, "2026-10-18", given.Kudo.Date)
	}

	res, err := kudos.Begin(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeCapReached, res.Outcome)
	require.Equal(t, []string{"alice", "bob", "carol"}, res.Recipients)

	_, n := repo.Counts()
	require.Equal(t, 3, n)
}

func TestBegin_OtherDaysDoNotCount(t *testing.T) {
	ctx := context.Background()
	participants, kudos, repo, clk := newServices(t)

	p, _, err := participants.Join(ctx, Identity{TelegramID: 1, Name: "U"})
	require.NoError(t, err)
	for _, d := range []string{"2026-10-17", "2026-10-17", "2026-10-17"} {
		_, err := repo.CreateKudo(ctx, models.Kudo{ParticipantID: p.ID, RecipientHandle: "x", Date: d})
		require.NoError(t, err)
	}

	res, err := kudos.Begin(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeReady, res.Outcome)

	clk.date = "2026-10-17"
	res, err = kudos.Begin(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, OutcomeCapReached, res.Outcome)
}

func TestGive_RechecksCapUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	participants, kudos, repo, _ := newServices(t)

	p, _, err := participants.Join(ctx, Identity{TelegramID: 1, Name: "U"})
	require.NoError(t, err)

	// Five flows all passed Begin with an empty window.
	var wg sync.WaitGroup
	results := make([]Outcome, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := kudos.Give(ctx, p.ID, "h", "2026-10-18")
			require.NoError(t, err)
			results[i] = res.Outcome
		}(i)
	}
	wg.Wait()

	_, n := repo.Counts()
	require.Equal(t, DailyLimit, n)

	given := 0
	for _, o := range results {
		if o == OutcomeGiven {
			given++
		}
	}
	require.Equal(t, DailyLimit, given)
	require.Empty(t, kudos.locks)
}

func TestBegin_StoreFailureIsNotNotFound(t *testing.T) {
	_, kudos, repo, _ := newServices(t)
	repo.SetErr(apperr.New(apperr.StoreUnavailable, "memory", errors.New("down")))

	_, err := kudos.Begin(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, apperr.StoreUnavailable, apperr.KindOf(err))
}

func TestGive_CreateFailure(t *testing.T) {
	_, kudos, repo, _ := newServices(t)
	repo.SetErr(errors.New("down"))

	_, err := kudos.Give(context.Background(), "recX", "alice", "2026-10-18")
	require.Error(t, err)
	_, n := repo.Counts()
	require.Zero(t, n)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	_, kudos, repo, _ := newServices(t)
	for _, d := range []string{"2026-10-16", "2026-10-18"} {
		_, err := repo.CreateKudo(ctx, models.Kudo{ParticipantID: "recA", RecipientHandle: "x", Date: d})
		require.NoError(t, err)
	}

	all, err := kudos.History(ctx, "recA")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
