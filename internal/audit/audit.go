// Package audit keeps the operator-facing credit log: one line per provider request
// and outcome. Entries must only ever carry masked identifiers.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxEntries caps how many entries a sink retains and how many List returns.
const MaxEntries = 2000

// Levels
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Entry is one credit log line.
type Entry struct {
	ID      string         `json:"id"`
	TS      time.Time      `json:"ts"`
	Level   string         `json:"level"`
	Source  string         `json:"source"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload"`
}

// Sink stores credit log entries.
type Sink interface {
	Append(ctx context.Context, e Entry) error
	// List returns up to limit most recent entries, oldest first. A zero since
	// disables the time filter; limit <= 0 means MaxEntries.
	List(ctx context.Context, limit int, since time.Time) ([]Entry, error)
	Clear(ctx context.Context) error
	// Trim drops everything but the newest max entries.
	Trim(ctx context.Context, max int) error
}

// Logger writes entries to a sink and never fails the caller.
type Logger struct {
	sink Sink
	now  func() time.Time
}

// NewLogger wraps sink. A nil sink produces a logger that discards everything.
func NewLogger(sink Sink) *Logger {
	return &Logger{sink: sink, now: time.Now}
}

func (l *Logger) Info(ctx context.Context, source, msg string, payload map[string]any) {
	l.write(ctx, LevelInfo, source, msg, payload)
}

func (l *Logger) Warn(ctx context.Context, source, msg string, payload map[string]any) {
	l.write(ctx, LevelWarn, source, msg, payload)
}

func (l *Logger) Error(ctx context.Context, source, msg string, payload map[string]any) {
	l.write(ctx, LevelError, source, msg, payload)
}

func (l *Logger) write(ctx context.Context, level, source, msg string, payload map[string]any) {
	if l == nil || l.sink == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	e := Entry{
		ID:      uuid.NewString(),
		TS:      l.now().UTC(),
		Level:   strings.ToUpper(level),
		Source:  source,
		Message: msg,
		Payload: payload,
	}
	if err := l.sink.Append(ctx, e); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("credit log append failed")
	}
}

// clampLimit normalises a caller-supplied list limit.
func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxEntries {
		return MaxEntries
	}
	return limit
}

// Tail applies the since filter and keeps the newest limit entries of an
// oldest-first slice. Sinks that cannot filter server-side share it.
func Tail(entries []Entry, limit int, since time.Time) []Entry {
	limit = clampLimit(limit)
	out := entries[:0:0]
	for _, e := range entries {
		if !since.IsZero() && e.TS.Before(since) {
			continue
		}
		out = append(out, e)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
