package access

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal site control transition")

type Transition struct {
	From    State
	To      State
	Trigger Trigger
}

func (t Transition) IsNoop() bool { return t.From == t.To }

// ChangesLiveness reports whether the deployed site has to be paused or
// unpaused for this transition.
func (t Transition) ChangesLiveness() bool { return t.From.IsLive() != t.To.IsLive() }

// Next evaluates trigger against the current row.
//
// Automatic triggers are narrow: auto-pause only from Live with auto-pause
// enabled, auto-resume only from PausedOverdue. Manual triggers are accepted
// from every state and may be no-ops.
func Next(sc SiteControl, trigger Trigger) (Transition, error) {
	from := sc.State()
	t := Transition{From: from, Trigger: trigger}

	switch trigger {
	case AutoPause:
		if from != Live {
			return t, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, trigger, from)
		}
		if !sc.AutoPauseEnabled {
			return t, fmt.Errorf("%w: %s while auto-pause is disabled", ErrIllegalTransition, trigger)
		}
		t.To = PausedOverdue
	case AutoResume:
		if from != PausedOverdue {
			return t, fmt.Errorf("%w: %s from %s", ErrIllegalTransition, trigger, from)
		}
		t.To = Live
	case ManualPause:
		t.To = PausedManual
	case ManualResume:
		t.To = Live
	default:
		return t, fmt.Errorf("%w: unknown trigger %q", ErrIllegalTransition, trigger)
	}
	return t, nil
}
