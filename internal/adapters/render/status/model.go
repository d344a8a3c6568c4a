package status

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

// model renders a single panel once and quits; the program exists only so
// lipgloss output goes through the same pipeline as the spinner.
type model struct {
	panel  panel
	styles styles
	output string
}

func newModel(p panel) model {
	return model{panel: p, styles: newStyles()}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderPanel(m.panel, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func run(p panel) (string, error) {
	program := tea.NewProgram(
		newModel(p),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := program.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
