package domain

import "strings"

const (
	fieldEarliestDate      = "earliestDate"
	fieldEarliestSlotLists = "earliestSlotLists"
	fieldUnexpected        = "unexpected_response"
)

// AvailabilitySignal is the normalized result of one poll.
// EarliestDate is empty when the payload carried no usable date.
type AvailabilitySignal struct {
	HasSlot      bool
	EarliestDate string
	RawDetails   map[string]any
}

func (s AvailabilitySignal) HasEarliestDate() bool {
	return s.EarliestDate != ""
}

// Interpret converts a payload into an AvailabilitySignal. Either a non-blank
// earliestDate string or a non-empty earliestSlotLists array marks a slot.
func Interpret(payload Payload) AvailabilitySignal {
	structured, ok := payload.(StructuredPayload)
	if !ok {
		var value any
		if opaque, isOpaque := payload.(OpaquePayload); isOpaque {
			value = opaque.Value
		}
		return AvailabilitySignal{
			RawDetails: map[string]any{fieldUnexpected: value},
		}
	}

	signal := AvailabilitySignal{RawDetails: structured.Fields}

	if date, ok := structured.Fields[fieldEarliestDate].(string); ok && strings.TrimSpace(date) != "" {
		signal.HasSlot = true
		signal.EarliestDate = date
	}

	if slots, ok := structured.Fields[fieldEarliestSlotLists].([]any); ok && len(slots) > 0 {
		signal.HasSlot = true
	}

	return signal
}
