package application

import (
	"time"

	"github.com/bnema/slotwatch/internal/domain"
)

// Result is the outcome of one check. State is what the store holds after
// the run; Prior is what it held before.
type Result struct {
	State       domain.State
	Prior       domain.State
	Signal      domain.AvailabilitySignal
	Reason      domain.Reason
	Notified    bool
	WouldNotify bool
	DryRun      bool
	CheckedAt   time.Time
}
