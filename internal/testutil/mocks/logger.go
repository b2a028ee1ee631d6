package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/lsst/lsst/internal/ports"
)

// LogEntry is one message captured by Logger.
type LogEntry struct {
	Level   ports.Level
	Message string
	Fields  []ports.Field
}

// Logger records every entry at or above its level.
type Logger struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	fields  []ports.Field
	level   ports.Level
}

// NewLogger creates a recording logger that keeps debug entries.
func NewLogger() *Logger {
	return &Logger{mu: &sync.Mutex{}, entries: &[]LogEntry{}, level: ports.LevelDebug}
}

func (l *Logger) add(level ports.Level, msg string, fields []ports.Field) {
	if level < l.level {
		return
	}
	all := append(append([]ports.Field(nil), l.fields...), fields...)
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, LogEntry{Level: level, Message: msg, Fields: all})
}

// Debug records a debug entry.
func (l *Logger) Debug(_ context.Context, msg string, fields ...ports.Field) {
	l.add(ports.LevelDebug, msg, fields)
}

// Info records an info entry.
func (l *Logger) Info(_ context.Context, msg string, fields ...ports.Field) {
	l.add(ports.LevelInfo, msg, fields)
}

// Warn records a warning entry.
func (l *Logger) Warn(_ context.Context, msg string, fields ...ports.Field) {
	l.add(ports.LevelWarn, msg, fields)
}

// Error records an error entry.
func (l *Logger) Error(_ context.Context, msg string, fields ...ports.Field) {
	l.add(ports.LevelError, msg, fields)
}

// With returns a child sharing the same entry log.
func (l *Logger) With(fields ...ports.Field) ports.Logger {
	return &Logger{
		mu:      l.mu,
		entries: l.entries,
		fields:  append(append([]ports.Field(nil), l.fields...), fields...),
		level:   l.level,
	}
}

// Level returns the minimum recorded level.
func (l *Logger) Level() ports.Level { return l.level }

// SetLevel sets the minimum recorded level.
func (l *Logger) SetLevel(level ports.Level) { l.level = level }

// Entries returns a copy of the recorded entries.
func (l *Logger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(*l.entries))
	copy(out, *l.entries)
	return out
}

// Messages returns the messages recorded at level.
func (l *Logger) Messages(level ports.Level) []string {
	var out []string
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any entry message contains substr.
func (l *Logger) Contains(substr string) bool {
	for _, e := range l.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

var _ ports.Logger = (*Logger)(nil)
