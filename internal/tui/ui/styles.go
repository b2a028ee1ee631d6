// Package ui provides the shared palette and styles for terminal output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"} // Mauve
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError     = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	ColorText      = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"} // Text
)

// Gradient endpoints for download bars.
const (
	GradientStart = "#89b4fa"
	GradientEnd   = "#a6e3a1"
)

// Styles contains reusable lipgloss styles.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Command highlights a line the operator is expected to type.
	Command lipgloss.Style
	Help    lipgloss.Style
	Panel   lipgloss.Style

	Button       lipgloss.Style
	ButtonActive lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Subtitle: lipgloss.NewStyle().
			Foreground(ColorSecondary),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Error: lipgloss.NewStyle().
			Foreground(ColorError),

		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),

		Command: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText),

		Help: lipgloss.NewStyle().
			Foreground(ColorMuted),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1),

		Button: lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 2),

		ButtonActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1e1e2e")).
			Background(ColorPrimary).
			Padding(0, 2),
	}
}

// PlainStyles returns styles that render text unchanged, for pipes and
// batch runs.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:    plain,
		Subtitle: plain,
		Success:  plain,
		Warning:  plain,
		Error:    plain,
		Info:     plain,
		Command:  plain,
		Help:     plain,
		Panel:    plain,

		Button:       plain,
		ButtonActive: plain.Underline(true),
	}
}

// WithWidth returns styles adapted for a specific terminal width.
func (s Styles) WithWidth(width int) Styles {
	if width > 4 {
		s.Panel = s.Panel.Width(width - 4)
	}
	return s
}
