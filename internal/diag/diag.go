// Package diag carries structured diagnostics out of the simulation core.
//
// Nothing in the core returns an error for a data or capability problem.
// Every fallback and every no-op path instead produces a Diagnostic and
// hands it to a Sink. Sinks must never fail or panic.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Level is the severity of a diagnostic.
type Level int

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Code categorizes a diagnostic.
type Code string

const (
	// CodeDataError marks a missing stage, species or catalog entry that was
	// recovered through a safe default.
	CodeDataError Code = "data_error"

	// CodeCapabilityMissing marks an effect skipped because the target or
	// actor lacks the capability it needs.
	CodeCapabilityMissing Code = "capability_missing"

	// CodeInvalidPayload marks an effect skipped because its payload is unset.
	CodeInvalidPayload Code = "invalid_payload"

	// CodeUnimplementedEffect marks an effect type that is declared but has
	// no behavior.
	CodeUnimplementedEffect Code = "unimplemented_effect"

	// CodeInvalidAction marks a target for which no catalog action matched.
	CodeInvalidAction Code = "invalid_action"

	// CodeCooldownNotElapsed marks a watering attempt made too early.
	CodeCooldownNotElapsed Code = "cooldown_not_elapsed"

	// CodeNoTransition marks an interaction that did not change a tile.
	CodeNoTransition Code = "no_transition"

	// CodeEffectFailed marks an effect whose handler returned an error or panicked.
	CodeEffectFailed Code = "effect_failed"
)

// DefaultLevel returns the level a code is reported at.
func (c Code) DefaultLevel() Level {
	switch c {
	case CodeInvalidAction, CodeCooldownNotElapsed:
		return LevelInfo
	case CodeNoTransition:
		return LevelDebug
	default:
		return LevelWarn
	}
}

// Diagnostic is one structured report.
type Diagnostic struct {
	Code    Code
	Level   Level
	Message string

	// Subject names the entity, plant or action the report is about.
	Subject string

	// Details holds additional key/value context.
	Details map[string]string
}

func (d Diagnostic) String() string {
	if d.Subject != "" {
		return fmt.Sprintf("%s [%s] %s: %s", d.Level, d.Code, d.Subject, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Level, d.Code, d.Message)
}

// New creates a diagnostic at the code's default level.
func New(code Code, subject, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:    code,
		Level:   code.DefaultLevel(),
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
	}
}

// With returns a copy of d with an extra detail attached.
func (d Diagnostic) With(key, value string) Diagnostic {
	details := make(map[string]string, len(d.Details)+1)
	for k, v := range d.Details {
		details[k] = v
	}
	details[key] = value
	d.Details = details
	return d
}

// Sink receives diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d Diagnostic)

// Report calls f(d).
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// SlogSink forwards diagnostics to a slog.Logger.
type SlogSink struct {
	Logger *slog.Logger
}

// NewSlogSink returns a sink logging through l, or through slog.Default()
// when l is nil.
func NewSlogSink(l *slog.Logger) *SlogSink {
	return &SlogSink{Logger: l}
}

// Report logs d at the matching slog level.
func (s *SlogSink) Report(d Diagnostic) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := make([]slog.Attr, 0, len(d.Details)+2)
	attrs = append(attrs, slog.String("code", string(d.Code)))
	if d.Subject != "" {
		attrs = append(attrs, slog.String("subject", d.Subject))
	}
	for k, v := range d.Details {
		attrs = append(attrs, slog.String(k, v))
	}
	logger.LogAttrs(context.Background(), slogLevel(d.Level), d.Message, attrs...)
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Recorder collects diagnostics in arrival order.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Report appends d.
func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, d)
}

// All returns a copy of the recorded diagnostics.
func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.items))
	copy(out, r.items)
	return out
}

// Codes returns the recorded codes in order.
func (r *Recorder) Codes() []Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Code, len(r.items))
	for i, d := range r.items {
		out[i] = d.Code
	}
	return out
}

// Has reports whether any recorded diagnostic carries code.
func (r *Recorder) Has(code Code) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.items {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Reset drops all recorded diagnostics.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// Tee reports every diagnostic to each non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(d)
			}
		}
	})
}
