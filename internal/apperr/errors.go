// Package apperr holds the closed set of failure kinds produced by the store
// and transport adapters.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	StoreUnavailable      Kind = "store_unavailable"
	StoreAuthFailed       Kind = "store_auth_failed"
	MessageDeliveryFailed Kind = "message_delivery_failed"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Retryable reports whether a later attempt may succeed without operator action.
func Retryable(err error) bool {
	return KindOf(err) == StoreUnavailable
}
