package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrResourceUnavailable = errors.New("resource unavailable")
)

var (
	ErrNotHolder   = errors.New("caller is not the reservation holder")
	ErrLockExpired = errors.New("reservation lock has expired")
	ErrTTLExceeded = errors.New("maximum reservation lifetime exceeded")
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrIllegalTransition = errors.New("illegal state transition")
)

// UnavailableError reports which requested resources were not available.
// It unwraps to ErrResourceUnavailable.
type UnavailableError struct {
	Conflicting []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("resource unavailable: %s", strings.Join(e.Conflicting, ", "))
}

func (e *UnavailableError) Unwrap() error {
	return ErrResourceUnavailable
}

// TransitionError reports a state change rejected by the transition table.
// It unwraps to ErrIllegalTransition.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition: %s -> %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
