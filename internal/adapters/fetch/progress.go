package fetch

import (
	"context"

	"github.com/lsst/lsst/internal/ports"
)

// LogProgress reports transfers through a logger, once per tenth of the
// payload (or per step bytes when the size is unknown).
type LogProgress struct {
	ctx    context.Context
	logger ports.Logger
	step   int64
	name   string
	next   int64
}

// NewLogProgress creates a log-backed progress sink.
func NewLogProgress(ctx context.Context, logger ports.Logger) *LogProgress {
	return &LogProgress{ctx: ctx, logger: logger, step: 8 << 20}
}

// Start begins tracking a transfer.
func (p *LogProgress) Start(name string, total int64) {
	p.name = name
	p.next = p.stride(total)
	p.logger.Debug(p.ctx, "download started", ports.F("file", name), ports.F("bytes", total))
}

// Update logs when the next threshold is crossed.
func (p *LogProgress) Update(written, total int64, detail string) {
	if written < p.next {
		return
	}
	p.next = written + p.stride(total)
	p.logger.Info(p.ctx, detail, ports.F("file", p.name))
}

// Finish logs the outcome.
func (p *LogProgress) Finish(err error) {
	if err != nil {
		p.logger.Warn(p.ctx, "download failed", ports.F("file", p.name), ports.F("error", err))
		return
	}
	p.logger.Debug(p.ctx, "download finished", ports.F("file", p.name))
}

func (p *LogProgress) stride(total int64) int64 {
	if total > 0 {
		if s := total / 10; s > 0 {
			return s
		}
		return 1
	}
	return p.step
}

var _ Progress = (*LogProgress)(nil)
