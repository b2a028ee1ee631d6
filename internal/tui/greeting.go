package tui

import (
	"strings"

	"github.com/lsst/lsst/internal/tui/ui"
)

// RenderGreeting styles the post-install greeting. The first line is the
// headline and indented source lines are highlighted as commands.
func RenderGreeting(text string, styles ui.Styles) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = styles.Title.Render(line)
		case strings.HasPrefix(strings.TrimSpace(line), "source "):
			lines[i] = styles.Command.Render(line)
		case strings.HasPrefix(strings.TrimSpace(line), "http"):
			lines[i] = styles.Info.Render(line)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
