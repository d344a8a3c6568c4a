package domain

import "fmt"

type Status string

const (
	StatusUnknown      Status = ""
	StatusAvailable    Status = "AVAILABLE"
	StatusNotAvailable Status = "NOT_AVAILABLE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnknown, StatusAvailable, StatusNotAvailable:
		return true
	default:
		return false
	}
}

// ParseStatus accepts the persisted spelling of a status. The empty string is
// the status before the first successful run.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	if !status.Valid() {
		return StatusUnknown, fmt.Errorf("%w: unknown status %q", ErrStateCorrupt, raw)
	}

	return status, nil
}

// State is the only memory carried between runs. LastSeenEarliestDate is
// empty unless the run that wrote it had a slot.
type State struct {
	LastSeenEarliestDate string
	LastStatus           Status
}

// FreshState is the state of a deployment that has never completed a run.
func FreshState() State {
	return State{}
}

func (s State) IsFresh() bool {
	return s == State{}
}
