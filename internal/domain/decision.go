package domain

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonBecameAvailable Reason = "became_available"
	ReasonDateChanged     Reason = "date_changed"
)

type Decision struct {
	ShouldNotify bool
	Reason       Reason
	Next         State
}

// Decide compares a signal against the prior state. Only transitions into
// AVAILABLE, or a moved earliest date while AVAILABLE, are notify-worthy.
func Decide(signal AvailabilitySignal, prior State) Decision {
	decision := Decision{Next: nextState(signal)}

	switch {
	case signal.HasSlot && prior.LastStatus != StatusAvailable:
		decision.ShouldNotify = true
		decision.Reason = ReasonBecameAvailable
	case signal.HasSlot && signal.HasEarliestDate() && signal.EarliestDate != prior.LastSeenEarliestDate:
		decision.ShouldNotify = true
		decision.Reason = ReasonDateChanged
	}

	return decision
}

func nextState(signal AvailabilitySignal) State {
	if !signal.HasSlot {
		return State{LastStatus: StatusNotAvailable}
	}

	return State{
		LastStatus:           StatusAvailable,
		LastSeenEarliestDate: signal.EarliestDate,
	}
}
