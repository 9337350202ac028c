package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is wrapped by every entity-specific not-found error.
	// Soft-deleted rows are reported the same way as missing ones.
	ErrNotFound = errors.New("not found")

	// ErrTransactionFailure is matched by every TransactionError.
	ErrTransactionFailure = errors.New("transaction failed")
)

var (
	ErrCronJobNotFound       = fmt.Errorf("cron job %w", ErrNotFound)
	ErrPresetProjectNotFound = fmt.Errorf("preset project %w", ErrNotFound)
	ErrProjectNotFound       = fmt.Errorf("project %w", ErrNotFound)
	ErrClientNotFound        = fmt.Errorf("client %w", ErrNotFound)
	ErrDepartmentNotFound    = fmt.Errorf("department %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
)

// ValidationError reports missing or malformed input. No writes are
// attempted when one is returned.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field == "" {
		return msg
	}
	return e.Field + ": " + msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransactionError reports a failed atomic write of an entity graph. Nothing
// of the graph was committed.
type TransactionError struct {
	Graph string
	Err   error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("materialize %s: %s: %v", e.Graph, ErrTransactionFailure, e.Err)
}

func (e *TransactionError) Is(target error) bool { return target == ErrTransactionFailure }

func (e *TransactionError) Unwrap() error { return e.Err }
