package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lsst/lsst/internal/tui/ui"
)

// downloadModel is the Bubble Tea model for a single transfer. It reads no
// input; ctrl+c is left to the process's default SIGINT handling.
type downloadModel struct {
	bar     progress.Model
	styles  ui.Styles
	name    string
	total   int64
	percent float64
	detail  string
	done    bool
	err     error
}

func newDownloadModel(styles ui.Styles) downloadModel {
	return downloadModel{
		bar: progress.New(
			progress.WithGradient(ui.GradientStart, ui.GradientEnd),
			progress.WithWidth(ui.DefaultProgressBarWidth),
		),
		styles: styles,
	}
}

// Init initializes the model.
func (m downloadModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.styles = m.styles.WithWidth(msg.Width)
		m.bar.Width = min(msg.Width-4, ui.DefaultProgressBarWidth)
		return m, nil

	case ui.DownloadStartMsg:
		m.name = msg.Name
		m.total = msg.Total
		m.percent = 0
		m.detail = ""
		m.done = false
		m.err = nil
		return m, nil

	case ui.DownloadProgressMsg:
		m.percent = msg.Percent()
		m.detail = msg.Detail
		return m, nil

	case ui.DownloadDoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Err == nil {
			m.percent = 1
		}
		return m, tea.Quit
	}

	return m, nil
}

// View renders the model.
func (m downloadModel) View() string {
	var b strings.Builder

	if m.done {
		if m.err != nil {
			b.WriteString(m.styles.Error.Render(fmt.Sprintf("✗ %s: %v", m.name, m.err)))
		} else {
			b.WriteString(m.styles.Success.Render("✓ " + m.name))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.styles.Title.Render("Downloading " + m.name))
	b.WriteString("\n")
	if m.total > 0 {
		b.WriteString(m.bar.ViewAs(m.percent))
		b.WriteString("\n")
	}
	if m.detail != "" {
		b.WriteString(m.styles.Help.Render(m.detail))
		b.WriteString("\n")
	}

	return b.String()
}
