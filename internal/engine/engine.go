package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/diag"
	"github.com/roach88/homestead/internal/world"
)

// Event is the record of one Perform, appended to the event log.
type Event struct {
	Session  string
	Frame    int64
	TargetID string
	ActorID  string

	// Action is empty when nothing matched.
	Action  string
	Tier    Tier
	Applied int
	Skipped int
	Changed bool
}

// EventLog receives one Event per Perform. store.Store implements it.
type EventLog interface {
	AppendEvent(ctx context.Context, ev Event) error
}

// Outcome is the result of one Perform.
type Outcome struct {
	Frame    int64
	TargetID string
	ActorID  string
	Matched  bool
	Tier     Tier
	Report   Report
}

// StepResult is the result of one frame.
type StepResult struct {
	Frame    int64
	Outcomes []Outcome
}

// Engine is the frame driver.
//
// Each frame ticks every growth instance of the world, then drains the
// request queue through Perform, so interactions always see the state of
// the frame they run in.
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Step(), Perform(), Run(): must be called from exactly one goroutine
type Engine struct {
	world    *world.World
	catalog  *catalog.Catalog
	executor *Executor
	frames   *FrameCounter
	queue    *requestQueue
	sink     diag.Sink

	log     EventLog
	session string
}

// Option configures an Engine.
type Option func(*Engine)

// WithExecutor sets the effect executor. The default has no collaborators.
func WithExecutor(x *Executor) Option {
	return func(e *Engine) { e.executor = x }
}

// WithEventLog records every Perform outcome to log under session.
func WithEventLog(log EventLog, session string) Option {
	return func(e *Engine) {
		e.log = log
		e.session = session
	}
}

// WithSink sets the sink for driver diagnostics (unknown entities, no match).
func WithSink(s diag.Sink) Option {
	return func(e *Engine) { e.sink = diag.OrDiscard(s) }
}

// WithFrameCounter resumes numbering from an existing counter.
func WithFrameCounter(c *FrameCounter) Option {
	return func(e *Engine) { e.frames = c }
}

// New creates an Engine over w using the actions of cat.
func New(w *world.World, cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		world:   w,
		catalog: cat,
		frames:  NewFrameCounter(),
		queue:   newRequestQueue(),
		sink:    diag.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.executor == nil {
		e.executor = NewExecutor(WithDiagnostics(e.sink))
	}
	return e
}

// Submit queues an interaction for the next Step.
// Returns false once the engine has been closed.
func (e *Engine) Submit(r Request) bool {
	return e.queue.Enqueue(r)
}

// Pending returns the number of queued requests.
func (e *Engine) Pending() int { return e.queue.Len() }

// Close rejects further submissions.
func (e *Engine) Close() { e.queue.Close() }

// Frame returns the number of the last completed frame.
func (e *Engine) Frame() int64 { return e.frames.Current() }

// Session returns the session id events are recorded under.
func (e *Engine) Session() string { return e.session }

// World returns the simulated world.
func (e *Engine) World() *world.World { return e.world }

// Step runs one frame of dt seconds.
func (e *Engine) Step(ctx context.Context, dt float64) StepResult {
	frame := e.frames.Next()

	for _, g := range e.world.GrowthInstances() {
		g.Tick(dt)
	}

	result := StepResult{Frame: frame}
	for _, r := range e.queue.Drain() {
		target, ok := e.world.Get(r.TargetID)
		if !ok {
			e.sink.Report(diag.New(diag.CodeDataError, r.TargetID, "request for %s", ErrUnknownEntity))
			continue
		}
		var actor world.Entity
		if r.ActorID != "" {
			actor, ok = e.world.Get(r.ActorID)
			if !ok {
				e.sink.Report(diag.New(diag.CodeDataError, r.ActorID, "request actor: %s", ErrUnknownEntity))
			}
		}
		result.Outcomes = append(result.Outcomes, e.perform(ctx, frame, target, actor))
	}
	return result
}

// Perform matches and executes the best action for target immediately,
// outside the frame queue. It is stamped with the last completed frame.
func (e *Engine) Perform(ctx context.Context, target, actor world.Entity) Outcome {
	return e.perform(ctx, e.frames.Current(), target, actor)
}

func (e *Engine) perform(ctx context.Context, frame int64, target, actor world.Entity) Outcome {
	out := Outcome{
		Frame:    frame,
		TargetID: entityID(target),
	}
	if actor != nil {
		out.ActorID = actor.ID()
	}

	tag, visual := world.TagOf(target), world.VisualOf(target)
	m, ok := MatchAction(tag, visual, e.catalog.Actions)
	if !ok {
		e.sink.Report(diag.New(diag.CodeInvalidAction, out.TargetID,
			"no action applies to tag %q visual %q", tag, visual))
		// The hover is cleared even when nothing runs.
		e.executor.clearHover()
	} else {
		out.Matched = true
		out.Tier = m.Tier
		out.Report = e.executor.Execute(m.Action, target, actor)
	}

	slog.Debug("perform",
		"frame", frame,
		"target", out.TargetID,
		"action", out.Report.Action,
		"tier", out.Tier.String(),
	)
	e.record(ctx, out)
	return out
}

func (e *Engine) record(ctx context.Context, out Outcome) {
	if e.log == nil {
		return
	}
	ev := Event{
		Session:  e.session,
		Frame:    out.Frame,
		TargetID: out.TargetID,
		ActorID:  out.ActorID,
		Action:   out.Report.Action,
		Tier:     out.Tier,
		Applied:  len(out.Report.Applied),
		Skipped:  len(out.Report.Skipped),
		Changed:  out.Report.StateChanged,
	}
	if err := e.log.AppendEvent(ctx, ev); err != nil {
		// The simulation keeps running; a lost event is an operator concern.
		slog.Error("failed to record event",
			"frame", ev.Frame,
			"target", ev.TargetID,
			"action", ev.Action,
			"error", err,
		)
	}
}

// Run steps frames frames, taking each delta from clock.
// Returns ctx.Err() if the context is cancelled before all frames ran.
func (e *Engine) Run(ctx context.Context, clock Clock, frames int) error {
	if clock == nil {
		return fmt.Errorf("run: nil clock")
	}
	slog.Info("engine starting", "frames", frames, "session", e.session)

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			slog.Info("engine stopping", "reason", "context cancelled", "frame", e.Frame())
			return ctx.Err()
		default:
		}
		e.Step(ctx, clock.Delta())
	}

	slog.Info("engine stopped", "frame", e.Frame())
	return nil
}
