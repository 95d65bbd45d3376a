package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToday_UsesCivilZone(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)

	// 03:30 UTC on the 19th is still the evening of the 18th in Denver.
	c.Now = func() time.Time { return time.Date(2026, 10, 19, 3, 30, 0, 0, time.UTC) }
	require.Equal(t, "2026-10-18", c.Today())

	c.Now = func() time.Time { return time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC) }
	require.Equal(t, "2026-10-19", c.Today())
}

func TestNew_InvalidZone(t *testing.T) {
	_, err := New("Nowhere/Special")
	require.Error(t, err)
}
