package access

// State derives the machine state from the stored columns. A paused row with
// an unknown or missing reason is treated as a manual pause so the engine
// never resumes a site it did not pause.
func (sc SiteControl) State() State {
	if sc.IsLive {
		return Live
	}
	if sc.PausedReason != nil && *sc.PausedReason == ReasonInvoiceOverdue {
		return PausedOverdue
	}
	return PausedManual
}

func (s State) IsLive() bool { return s == Live }

// Columns returns the is_live / paused_reason pair stored for s.
// is_live=true always comes with a null reason.
func (s State) Columns() (bool, *string) {
	switch s {
	case Live:
		return true, nil
	case PausedOverdue:
		r := ReasonInvoiceOverdue
		return false, &r
	default:
		r := ReasonManual
		return false, &r
	}
}
