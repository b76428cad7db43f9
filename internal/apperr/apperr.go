// Package apperr defines the error taxonomy shared by every service.
// Callers match kinds with errors.Is; concrete errors wrap one of the kinds.
package apperr

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means a referenced account or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientBalance means a karma adjustment would drive the balance negative.
	ErrInsufficientBalance = errors.New("insufficient karma balance")

	// ErrAuth covers credential and session failures.
	ErrAuth = errors.New("authentication failed")

	// ErrTransport means the backing store or another remote dependency is unavailable.
	ErrTransport = errors.New("backend unavailable")

	// ErrValidation means caller-supplied input was rejected.
	ErrValidation = errors.New("validation error")
)

// Auth returns an error of kind ErrAuth with a caller-facing message.
func Auth(msg string) error {
	return &kindError{kind: ErrAuth, msg: msg}
}

// NotFound returns an error of kind ErrNotFound with a caller-facing message.
func NotFound(msg string) error {
	return &kindError{kind: ErrNotFound, msg: msg}
}

// Validation returns an error of kind ErrValidation with a caller-facing message.
func Validation(msg string) error {
	return &kindError{kind: ErrValidation, msg: msg}
}

// Transport wraps a backend failure as ErrTransport. Record-not-found and
// errors that already carry a kind pass through unchanged, as do context
// cancellations, so callers can still tell an abandoned call from an outage.
func Transport(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case HasKind(err):
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// HasKind reports whether err already belongs to one of the taxonomy kinds.
func HasKind(err error) bool {
	for _, k := range []error{ErrNotFound, ErrInsufficientBalance, ErrAuth, ErrTransport, ErrValidation} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
