package telegram

import (
	"context"
	"sync"
	"time"

	"aligner-bot/internal/metrics"
)

const (
	StateIdle              = ""
	StateAwaitingRecipient = "awaiting_recipient"
)

// UserState is one user's kudos conversation. The chat and thread pin the
// conversation to where /kudo was sent.
type UserState struct {
	State     string
	ChatID    int64
	ThreadID  int
	GiverRef  string
	Date      string
	StartedAt time.Time
}

// StateManager keeps at most one conversation per user. Entries older than
// the TTL read as idle and are removed by Sweep.
type StateManager struct {
	mu    sync.RWMutex
	users map[int64]*UserState
	ttl   time.Duration
	now   func() time.Time
}

func NewStateManager(ttl time.Duration) *StateManager {
	return &StateManager{
		users: make(map[int64]*UserState),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *StateManager) expired(s *UserState, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.StartedAt) > m.ttl
}

func (m *StateManager) Get(userID int64) *UserState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.users[userID]
	if !ok || m.expired(s, m.now()) {
		return &UserState{}
	}
	cp := *s
	return &cp
}

// Set replaces the user's conversation, restarting its TTL.
func (m *StateManager) Set(userID int64, state *UserState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	cp.StartedAt = m.now()
	m.users[userID] = &cp
	metrics.ActiveSessions.Set(float64(len(m.users)))
}

func (m *StateManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	metrics.ActiveSessions.Set(float64(len(m.users)))
}

// Take removes and returns the user's live conversation. Only one of several
// concurrent callers gets ok == true.
func (m *StateManager) Take(userID int64) (*UserState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.users[userID]
	if !ok {
		return nil, false
	}
	delete(m.users, userID)
	metrics.ActiveSessions.Set(float64(len(m.users)))
	if m.expired(s, m.now()) {
		return nil, false
	}
	return s, true
}

func (m *StateManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// Sweep drops expired conversations and returns how many were removed.
func (m *StateManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, s := range m.users {
		if m.expired(s, now) {
			delete(m.users, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.users)))
	return removed
}

// Run sweeps on every tick until ctx is done.
func (m *StateManager) Run(ctx context.Context, interval time.Duration) error {
	if m.ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}
