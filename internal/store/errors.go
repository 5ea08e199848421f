package store

import (
	"context"

	"github.com/pkg/errors"
)

// Permanent failures: retrying the same request cannot succeed.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateID       = errors.New("record id already exists")
	ErrTenantRequired    = errors.New("tenant id is required")
	ErrTenantMismatch    = errors.New("record belongs to another tenant")
	ErrInvalidCollection = errors.New("invalid collection name")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrImmutableField    = errors.New("field cannot be changed")
)

// ErrUnavailable marks transient backend failures.
var ErrUnavailable = errors.New("record store unavailable")

// backendError keeps the backend cause reachable while classifying it as ErrUnavailable.
type backendError struct {
	op  string
	err error
}

func (e *backendError) Error() string {
	return "store " + e.op + ": " + e.err.Error()
}

func (e *backendError) Unwrap() []error {
	return []error{ErrUnavailable, e.err}
}

// classify passes permanent errors through and wraps everything else as transient.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		ErrNotFound, ErrDuplicateID, ErrTenantRequired, ErrTenantMismatch,
		ErrInvalidCollection, ErrInvalidRecord, ErrImmutableField, ErrUnavailable,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &backendError{op: op, err: err}
}

// IsTransient reports whether err may succeed when the user resubmits.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// outcome is the metrics label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate"
	case IsTransient(err):
		return "unavailable"
	default:
		return "rejected"
	}
}
