package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced user or flight does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a concurrent mutation invalidated an optimistic
	// check; the caller may retry.
	ErrConflict = errors.New("conflict")
	// ErrSoldOut means the flight has no available seats left.
	ErrSoldOut = errors.New("no available seats")
	// ErrStoreUnavailable means a store operation failed or timed out.
	// The operation was rolled back; it is safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEmailTaken means the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials means login failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// InsufficientFundsError reports a wallet that cannot cover the fare,
// carrying both amounts so the caller can present a precise message.
type InsufficientFundsError struct {
	Required int64
	Balance  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: required %d, current %d", e.Required, e.Balance)
}
