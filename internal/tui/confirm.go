package tui

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lsst/lsst/internal/ports"
	"github.com/lsst/lsst/internal/tui/ui"
)

// confirmModel is a yes/no dialog. The answer defaults to no.
type confirmModel struct {
	question  string
	focused   bool // true = yes
	answered  bool
	confirmed bool
	width     int
	keys      ui.KeyMap
	styles    ui.Styles
}

func newConfirmModel(question string, styles ui.Styles) confirmModel {
	return confirmModel{
		question: question,
		width:    ui.DefaultProgressBarWidth,
		keys:     ui.DefaultKeyMap(),
		styles:   styles,
	}
}

// Init implements tea.Model.
func (m confirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 4 {
			m.width = min(msg.Width-4, ui.DefaultWidth)
		}
	case tea.KeyMsg:
		switch {
		case m.keys.IsQuit(msg):
			return m.answer(false)
		case key.Matches(msg, m.keys.Left):
			m.focused = true
		case key.Matches(msg, m.keys.Right):
			m.focused = false
		case key.Matches(msg, m.keys.Select):
			return m.answer(m.focused)
		case key.Matches(msg, m.keys.Accept):
			return m.answer(true)
		case key.Matches(msg, m.keys.Reject):
			return m.answer(false)
		}
	}
	return m, nil
}

func (m confirmModel) answer(yes bool) (tea.Model, tea.Cmd) {
	m.answered = true
	m.confirmed = yes
	return m, tea.Quit
}

// View renders the dialog.
func (m confirmModel) View() string {
	if m.answered {
		reply := "no"
		if m.confirmed {
			reply = "yes"
		}
		return m.question + " " + m.styles.Help.Render(reply) + "\n"
	}

	yes, no := m.styles.Button, m.styles.Button
	if m.focused {
		yes = m.styles.ButtonActive
	} else {
		no = m.styles.ButtonActive
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yes.Render("Yes"), "  ", no.Render("No"))
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(m.width).Render(m.question))
	b.WriteString("\n\n")
	b.WriteString(buttons)
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render("y/n or ←/→ and enter"))
	b.WriteString("\n")
	return b.String()
}

// ConfirmPrompter asks yes/no questions with an interactive dialog.
type ConfirmPrompter struct {
	in     io.Reader
	out    io.Writer
	styles ui.Styles
}

// NewConfirmPrompter creates a prompter reading keys from in.
func NewConfirmPrompter(in io.Reader, out io.Writer, styles ui.Styles) *ConfirmPrompter {
	return &ConfirmPrompter{in: in, out: out, styles: styles}
}

// Confirm returns true only for an explicit yes. A failed terminal
// session counts as no.
func (p *ConfirmPrompter) Confirm(question string) bool {
	program := tea.NewProgram(
		newConfirmModel(question, p.styles),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithoutSignalHandler(),
	)
	final, err := program.Run()
	if err != nil {
		return false
	}
	m, ok := final.(confirmModel)
	return ok && m.answered && m.confirmed
}

var _ ports.Prompter = (*ConfirmPrompter)(nil)
