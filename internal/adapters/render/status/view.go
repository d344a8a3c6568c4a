package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/slotwatch/internal/application"
	"github.com/bnema/slotwatch/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now       time.Time
	StatePath string
}

type tone int

const (
	tonePlain tone = iota
	toneFaint
	toneNotified
	toneWarning
)

type row struct {
	key   string
	value string
	tone  tone
}

type panel struct {
	title    string
	subtitle string
	status   domain.Status
	rows     []row
}

// RenderResult renders the outcome of one check.
func RenderResult(result application.Result, opts RenderOptions) (string, error) {
	return run(resultPanel(result, opts))
}

// RenderState renders the persisted state as shown by `slotwatch status`.
func RenderState(state domain.State, opts RenderOptions) (string, error) {
	return run(statePanel(state, opts))
}

func resultPanel(result application.Result, opts RenderOptions) panel {
	title := "Slot check"
	if result.DryRun {
		title += " (dry run)"
	}

	rows := []row{
		{key: "earliest date", value: dateLabel(result.Signal.EarliestDate)},
		{key: "previous", value: previousLabel(result.Prior), tone: toneFaint},
		notificationRow(result),
	}
	if checked := checkedLabel(result.CheckedAt, opts.Now); checked != "" {
		rows = append(rows, row{key: "checked", value: checked, tone: toneFaint})
	}
	if _, unexpected := result.Signal.RawDetails["unexpected_response"]; unexpected {
		rows = append(rows, row{key: "response", value: "unexpected shape, treated as no slot", tone: toneWarning})
	}

	return panel{
		title:    title,
		subtitle: opts.StatePath,
		status:   result.State.LastStatus,
		rows:     rows,
	}
}

func statePanel(state domain.State, opts RenderOptions) panel {
	rows := []row{{key: "earliest date", value: dateLabel(state.LastSeenEarliestDate)}}
	if state.IsFresh() {
		rows = []row{{key: "history", value: "no completed run recorded", tone: toneFaint}}
	}

	return panel{
		title:    "Persisted state",
		subtitle: opts.StatePath,
		status:   state.LastStatus,
		rows:     rows,
	}
}

func notificationRow(result application.Result) row {
	switch {
	case result.Notified:
		return row{key: "notification", value: "sent (" + reasonLabel(result.Reason) + ")", tone: toneNotified}
	case result.WouldNotify:
		return row{key: "notification", value: "would send (" + reasonLabel(result.Reason) + ")", tone: toneNotified}
	default:
		return row{key: "notification", value: "not needed", tone: toneFaint}
	}
}

func renderPanel(p panel, s styles) string {
	header := []string{s.title.Render(p.title)}
	if p.subtitle != "" {
		header = append(header, s.subtitle.Render(p.subtitle))
	}

	lines := []string{
		lipgloss.JoinVertical(lipgloss.Left, header...),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render("status"), statusBadge(p.status, s)),
	}
	for _, r := range p.rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(r.key), styleFor(r.tone, s).Render(r.value)))
	}

	return s.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func statusBadge(status domain.Status, s styles) string {
	switch status {
	case domain.StatusAvailable:
		return s.available.Render("● AVAILABLE")
	case domain.StatusNotAvailable:
		return s.notAvailable.Render("○ NOT AVAILABLE")
	default:
		return s.unknown.Render("? unknown")
	}
}

func styleFor(t tone, s styles) lipgloss.Style {
	switch t {
	case toneFaint:
		return s.faint
	case toneNotified:
		return s.notified
	case toneWarning:
		return s.warning
	default:
		return s.value
	}
}

func dateLabel(date string) string {
	if strings.TrimSpace(date) == "" {
		return "none"
	}

	return date
}

func previousLabel(prior domain.State) string {
	if prior.IsFresh() {
		return "first run"
	}

	return fmt.Sprintf("%s, earliest %s", prior.LastStatus, dateLabel(prior.LastSeenEarliestDate))
}

func reasonLabel(reason domain.Reason) string {
	switch reason {
	case domain.ReasonBecameAvailable:
		return "slot became available"
	case domain.ReasonDateChanged:
		return "earliest date changed"
	default:
		return "no reason"
	}
}

func checkedLabel(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}

	label := at.Local().Format("2006-01-02 15:04:05")
	if now.IsZero() || now.Before(at) {
		return label
	}

	return fmt.Sprintf("%s (%s ago)", label, now.Sub(at).Round(time.Second))
}
