package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"aligner-bot/internal/metrics"
	"aligner-bot/internal/models"
	"aligner-bot/internal/store"
)

// DailyLimit is how many kudos one participant may give per civil day.
const DailyLimit = 3

type Clock interface {
	Today() string
}

type Outcome int

const (
	OutcomeReady Outcome = iota
	OutcomeNotJoined
	OutcomeCapReached
	OutcomeGiven
)

type BeginResult struct {
	Outcome  Outcome
	GiverRef string
	Date     string
	// Recipients holds today's handles, in ledger order, when the cap is reached.
	Recipients []string
}

type GiveResult struct {
	Outcome    Outcome
	Kudo       *models.Kudo
	Recipients []string
}

type KudosService struct {
	repo  store.Repository
	clock Clock
	log   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*giverLock
}

type giverLock struct {
	mu   sync.Mutex
	refs int
}

func NewKudosService(repo store.Repository, clock Clock, log zerolog.Logger) *KudosService {
	return &KudosService{
		repo:  repo,
		clock: clock,
		log:   log.With().Str("component", "kudos-service").Logger(),
		locks: make(map[string]*giverLock),
	}
}

// Begin checks, in order, that the user has joined and that today's window
// has room. Only an OutcomeReady result carries the giver and date.
func (s *KudosService) Begin(ctx context.Context, telegramID int64) (BeginResult, error) {
	user := strconv.FormatInt(telegramID, 10)

	p, err := s.repo.FindParticipant(ctx, telegramID)
	if err != nil {
		reportStoreError(s.log, "find participant", user, err)
		return BeginResult{}, fmt.Errorf("begin kudos for %d: %w", telegramID, err)
	}
	if p == nil {
		metrics.KudosTotal.WithLabelValues("not_joined").Inc()
		return BeginResult{Outcome: OutcomeNotJoined}, nil
	}

	date := s.clock.Today()
	today, err := s.repo.ListKudosForDay(ctx, p.ID, date)
	if err != nil {
		reportStoreError(s.log, "list kudos for day", user, err)
		return BeginResult{}, fmt.Errorf("begin kudos for %d: %w", telegramID, err)
	}
	if len(today) >= DailyLimit {
		metrics.KudosTotal.WithLabelValues("cap_reached").Inc()
		return BeginResult{
			Outcome:    OutcomeCapReached,
			GiverRef:   p.ID,
			Date:       date,
			Recipients: models.RecipientHandles(today),
		}, nil
	}

	return BeginResult{Outcome: OutcomeReady, GiverRef: p.ID, Date: date}, nil
}

// Give records one kudo from giverRef to handle on date. The day's window is
// re-read under a per-giver lock, so overlapping flows in this process cannot
// push a giver past DailyLimit.
func (s *KudosService) Give(ctx context.Context, giverRef, handle, date string) (GiveResult, error) {
	unlock := s.lock(giverRef)
	defer unlock()

	today, err := s.repo.ListKudosForDay(ctx, giverRef, date)
	if err != nil {
		reportStoreError(s.log, "list kudos for day", giverRef, err)
		return GiveResult{}, fmt.Errorf("give kudo from %s: %w", giverRef, err)
	}
	if len(today) >= DailyLimit {
		metrics.KudosTotal.WithLabelValues("cap_reached").Inc()
		return GiveResult{Outcome: OutcomeCapReached, Recipients: models.RecipientHandles(today)}, nil
	}

	k, err := s.repo.CreateKudo(ctx, models.Kudo{
		ParticipantID:   giverRef,
		RecipientHandle: handle,
		Date:            date,
	})
	if err != nil {
		reportStoreError(s.log, "create kudo", giverRef, err)
		return GiveResult{}, fmt.Errorf("give kudo from %s: %w", giverRef, err)
	}

	s.log.Info().Str("giver", giverRef).Str("recipient", handle).Str("date", date).Msg("kudo recorded")
	metrics.KudosTotal.WithLabelValues("given").Inc()
	return GiveResult{Outcome: OutcomeGiven, Kudo: k}, nil
}

// History returns every kudo the participant has given, oldest first.
func (s *KudosService) History(ctx context.Context, giverRef string) ([]models.Kudo, error) {
	kudos, err := s.repo.ListKudos(ctx, giverRef)
	if err != nil {
		reportStoreError(s.log, "list kudos", giverRef, err)
		return nil, fmt.Errorf("kudos history for %s: %w", giverRef, err)
	}
	return kudos, nil
}

// Today is the current civil date in the kudos timezone.
func (s *KudosService) Today() string {
	return s.clock.Today()
}

func (s *KudosService) lock(giverRef string) func() {
	s.mu.Lock()
	l, ok := s.locks[giverRef]
	if !ok {
		l = &giverLock{}
		s.locks[giverRef] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, giverRef)
		}
		s.mu.Unlock()
	}
}
