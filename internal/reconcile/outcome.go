package reconcile

import (
	"agency-portal/internal/domain/access"

	"github.com/google/uuid"
)

// Outcome reports what one event did. The webhook handler logs it and tests
// assert on it.
type Outcome struct {
	EventID    string
	Kind       Kind
	Dropped    bool
	DropReason string
	Transition *TransitionResult
	Alerts     []string
	Activities []string
}

func (o *Outcome) drop(reason string) *Outcome {
	o.Dropped = true
	o.DropReason = reason
	return o
}

// TransitionResult keeps the controller phase and the state-write phase apart:
// the controller may fail while the write still commits, and the write may
// lose a race after the controller succeeded.
type TransitionResult struct {
	ProjectID uuid.UUID
	Trigger   access.Trigger
	From      access.State
	To        access.State

	// Rejected is set when the guard refused the trigger; nothing else ran.
	Rejected error

	ControllerCalled bool
	ControllerErr    error

	Committed bool
}
