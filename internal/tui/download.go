// Package tui renders attended-mode terminal output: download progress,
// confirmation dialogs and the closing greeting.
package tui

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lsst/lsst/internal/adapters/fetch"
	"github.com/lsst/lsst/internal/tui/ui"
)

// DownloadDisplay renders transfers from the native fetcher as a progress
// bar. One program runs per transfer.
type DownloadDisplay struct {
	out    io.Writer
	styles ui.Styles
	opts   []tea.ProgramOption

	mu   sync.Mutex
	prog *tea.Program
	done chan struct{}
}

// NewDownloadDisplay creates a display writing to out. Extra program options
// are appended to the defaults, which do not read input.
func NewDownloadDisplay(out io.Writer, styles ui.Styles, opts ...tea.ProgramOption) *DownloadDisplay {
	return &DownloadDisplay{
		out:    out,
		styles: styles,
		opts:   opts,
	}
}

// Start launches the program for a new transfer.
func (d *DownloadDisplay) Start(name string, total int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	opts := append([]tea.ProgramOption{
		tea.WithOutput(d.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	}, d.opts...)
	prog := tea.NewProgram(newDownloadModel(d.styles), opts...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = prog.Run()
	}()

	d.prog = prog
	d.done = done
	prog.Send(ui.DownloadStartMsg{Name: name, Total: total})
}

// Update forwards progress to the running program.
func (d *DownloadDisplay) Update(written, total int64, detail string) {
	d.mu.Lock()
	prog := d.prog
	d.mu.Unlock()

	if prog != nil {
		prog.Send(ui.DownloadProgressMsg{Written: written, Total: total, Detail: detail})
	}
}

// Finish ends the transfer and waits for the final frame.
func (d *DownloadDisplay) Finish(err error) {
	d.mu.Lock()
	prog, done := d.prog, d.done
	d.prog, d.done = nil, nil
	d.mu.Unlock()

	if prog == nil {
		return
	}
	prog.Send(ui.DownloadDoneMsg{Err: err})
	<-done
}

var _ fetch.Progress = (*DownloadDisplay)(nil)
