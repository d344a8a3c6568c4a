package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title        lipgloss.Style
	subtitle     lipgloss.Style
	key          lipgloss.Style
	value        lipgloss.Style
	faint        lipgloss.Style
	available    lipgloss.Style
	notAvailable lipgloss.Style
	unknown      lipgloss.Style
	notified     lipgloss.Style
	warning      lipgloss.Style
	box          lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:        lipgloss.NewStyle().Bold(true),
		subtitle:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		key:          lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(14),
		value:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		faint:        lipgloss.NewStyle().Faint(true),
		available:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		notAvailable: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		unknown:      lipgloss.NewStyle().Faint(true),
		notified:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		warning:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		box:          lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
	}
}
