package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStateManager_TTL(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	m := NewStateManager(15 * time.Minute)
	m.now = func() time.Time { return now }

	m.Set(1, &UserState{State: StateAwaitingRecipient, GiverRef: "rec1"})
	m.Set(2, &UserState{State: StateAwaitingRecipient, GiverRef: "rec2"})
	require.Equal(t, "rec1", m.Get(1).GiverRef)

	now = now.Add(10 * time.Minute)
	m.Set(2, &UserState{State: StateAwaitingRecipient, GiverRef: "rec2"})

	now = now.Add(6 * time.Minute)
	require.Equal(t, StateIdle, m.Get(1).State)
	require.Equal(t, StateAwaitingRecipient, m.Get(2).State)

	_, ok := m.Take(1)
	require.False(t, ok)

	require.Equal(t, 0, m.Sweep())
	require.Equal(t, 1, m.Len())

	now = now.Add(time.Hour)
	require.Equal(t, 1, m.Sweep())
	require.Zero(t, m.Len())
}

func TestStateManager_TakeOnce(t *testing.T) {
	m := NewStateManager(time.Minute)
	m.Set(1, &UserState{State: StateAwaitingRecipient})

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Take(1); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestStateManager_GetReturnsCopy(t *testing.T) {
	m := NewStateManager(0)
	m.Set(1, &UserState{State: StateAwaitingRecipient, Date: "2026-10-18"})
	got := m.Get(1)
	got.Date = "changed"
	require.Equal(t, "2026-10-18", m.Get(1).Date)
}

func TestStateManager_RunStopsOnCancel(t *testing.T) {
	m := NewStateManager(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestCooldown(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	c := NewCooldown(10 * time.Minute)
	c.now = func() time.Time { return now }

	require.True(t, c.Allow())
	require.False(t, c.Allow())
	now = now.Add(10 * time.Minute)
	require.True(t, c.Allow())

	off := NewCooldown(0)
	require.True(t, off.Allow())
	require.True(t, off.Allow())
}
