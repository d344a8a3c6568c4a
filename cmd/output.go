package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bnema/slotwatch/internal/adapters/provider"
	"github.com/bnema/slotwatch/internal/application"
	"github.com/bnema/slotwatch/internal/domain"
	"github.com/mattn/go-isatty"
)

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

type stateOutput struct {
	LastSeenEarliestDate *string `json:"last_seen_earliestDate"`
	LastStatus           *string `json:"last_status"`
}

type statusOutput struct {
	Path  string      `json:"path"`
	State stateOutput `json:"state"`
}

type checkOutput struct {
	Status       string      `json:"status"`
	EarliestDate *string     `json:"earliestDate"`
	HasSlot      bool        `json:"hasSlot"`
	Notified     bool        `json:"notified"`
	WouldNotify  bool        `json:"wouldNotify,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	DryRun       bool        `json:"dryRun,omitempty"`
	CheckedAt    time.Time   `json:"checkedAt"`
	Previous     stateOutput `json:"previous"`
	Error        string      `json:"error,omitempty"`
}

type failureOutput struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func toStateOutput(state domain.State) stateOutput {
	var out stateOutput
	if state.LastSeenEarliestDate != "" {
		date := state.LastSeenEarliestDate
		out.LastSeenEarliestDate = &date
	}
	if state.LastStatus != domain.StatusUnknown {
		status := string(state.LastStatus)
		out.LastStatus = &status
	}

	return out
}

func toCheckOutput(result application.Result) checkOutput {
	out := checkOutput{
		Status:      string(result.State.LastStatus),
		HasSlot:     result.Signal.HasSlot,
		Notified:    result.Notified,
		WouldNotify: result.WouldNotify,
		Reason:      string(result.Reason),
		DryRun:      result.DryRun,
		CheckedAt:   result.CheckedAt,
		Previous:    toStateOutput(result.Prior),
	}
	if result.Signal.HasEarliestDate() {
		date := result.Signal.EarliestDate
		out.EarliestDate = &date
	}

	return out
}

// statusLine is the one-line summary cron mails and log scrapers rely on.
func statusLine(status domain.Status, earliestDate string) string {
	label := string(status)
	if label == "" {
		label = "None"
	}
	if earliestDate == "" {
		earliestDate = "None"
	}

	return fmt.Sprintf("Status: %s; earliestDate=%s", label, earliestDate)
}

// describeFetchFailure classifies a benign fetch error for output.
func describeFetchFailure(err error) failureOutput {
	out := failureOutput{Error: err.Error()}

	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		out.StatusCode = statusErr.StatusCode
		out.Body = statusErr.Body
	}
	var bodyErr *provider.BodyError
	if errors.As(err, &bodyErr) {
		out.Body = bodyErr.Body
	}

	switch {
	case provider.IsAuthRejected(err):
		out.Kind = "auth"
	case errors.Is(err, domain.ErrUpstreamStatus):
		out.Kind = "upstream"
	case errors.Is(err, domain.ErrMalformedResponse):
		out.Kind = "malformed"
	default:
		out.Kind = "transport"
	}

	return out
}

// writeFetchFailure prints the failure heading followed by the body excerpt
// on its own line. Transport failures have no body.
func writeFetchFailure(w io.Writer, failure failureOutput) error {
	var err error
	switch failure.Kind {
	case "auth":
		_, err = fmt.Fprintf(w, "Auth blocked/expired: HTTP %d\n", failure.StatusCode)
	case "upstream":
		_, err = fmt.Fprintf(w, "HTTP error: %d\n", failure.StatusCode)
	case "malformed":
		_, err = fmt.Fprintln(w, "Non-JSON response:")
	default:
		_, err = fmt.Fprintf(w, "Request failed: %s\n", failure.Error)
		return err
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, failure.Body)
	return err
}
