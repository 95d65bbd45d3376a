package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := New(StoreAuthFailed, "airtable: list participants", errors.New("401"))
	wrapped := fmt.Errorf("join: %w", base)

	require.Equal(t, StoreAuthFailed, KindOf(wrapped))
	require.False(t, Retryable(wrapped))
	require.ErrorIs(t, wrapped, base)
}

func TestKindOf_Foreign(t *testing.T) {
	require.Equal(t, Kind(""), KindOf(errors.New("boom")))
	require.Equal(t, Kind(""), KindOf(nil))
}

func TestRetryable(t *testing.T) {
	require.True(t, Retryable(New(StoreUnavailable, "op", nil)))
	require.False(t, Retryable(New(MessageDeliveryFailed, "op", nil)))
}

func TestError_Message(t *testing.T) {
	require.Equal(t, "op: store_unavailable", New(StoreUnavailable, "op", nil).Error())
	require.Equal(t, "op: store_unavailable: timeout", New(StoreUnavailable, "op", errors.New("timeout")).Error())
}
