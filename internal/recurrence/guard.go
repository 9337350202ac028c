package recurrence

import (
	"errors"
	"time"
)

// ErrStateConflict is matched by every Rejection.
var ErrStateConflict = errors.New("state conflict")

// Rejection is the reason the guard refused an execution attempt.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

// Is makes every Rejection match ErrStateConflict.
func (r *Rejection) Is(target error) bool {
	return target == ErrStateConflict
}

// Guard rejections. The Reason strings are part of the API contract.
var (
	ErrInactiveTemplate          = &Rejection{Reason: "InactiveTemplate"}
	ErrBeforeWindow              = &Rejection{Reason: "BeforeWindow"}
	ErrDuplicateInitialExecution = &Rejection{Reason: "DuplicateInitialExecution"}
)

// GuardState is the slice of a recurring job the guard looks at.
type GuardState struct {
	IsActive  bool
	StartDate time.Time
	LastRun   *time.Time
}

// Check decides whether a materialization attempt is permitted at now.
//
// Because StartDate is immutable and LastRun is only ever set to an instant at
// or after StartDate, the duplicate rule blocks every execution after the
// first successful one. This reproduces the documented behavior and is kept
// as-is until the product owners decide whether each cycle should re-run.
func Check(state GuardState, now time.Time) error {
	if !state.IsActive {
		return ErrInactiveTemplate
	}
	if now.Before(state.StartDate) {
		return ErrBeforeWindow
	}
	if state.LastRun != nil && !state.LastRun.Before(state.StartDate) {
		return ErrDuplicateInitialExecution
	}
	return nil
}
