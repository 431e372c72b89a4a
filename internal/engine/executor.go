package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/diag"
	"github.com/roach88/homestead/internal/world"
)

// SelectionCollaborator owns hover/selection state. The executor clears it
// after every execution.
type SelectionCollaborator interface {
	ClearHover()
}

// EffectOutcome records what happened to one effect.
type EffectOutcome struct {
	Index int
	Kind  catalog.EffectKind

	// Diagnostic is set for skipped effects.
	Diagnostic *diag.Diagnostic
}

// Report is the result of executing one action.
type Report struct {
	Action  string
	Applied []EffectOutcome
	Skipped []EffectOutcome

	// StateChanged is true when a growth effect changed the target's growth state.
	StateChanged bool
}

// Executor applies an action's effects to a target and an actor.
type Executor struct {
	selection    SelectionCollaborator
	audio        world.AudioPlayer
	capabilities *CapabilityRegistry
	sink         diag.Sink
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithSelection sets the selection collaborator.
func WithSelection(s SelectionCollaborator) ExecutorOption {
	return func(x *Executor) { x.selection = s }
}

// WithAudio sets the audio player used when the actor has none of its own.
func WithAudio(a world.AudioPlayer) ExecutorOption {
	return func(x *Executor) { x.audio = a }
}

// WithCapabilities sets the named capability registry.
func WithCapabilities(r *CapabilityRegistry) ExecutorOption {
	return func(x *Executor) { x.capabilities = r }
}

// WithDiagnostics sets the diagnostic sink. The default discards.
func WithDiagnostics(s diag.Sink) ExecutorOption {
	return func(x *Executor) { x.sink = diag.OrDiscard(s) }
}

// NewExecutor creates an executor. Every collaborator is optional; a missing
// one turns the effects that need it into diagnosed skips.
func NewExecutor(opts ...ExecutorOption) *Executor {
	x := &Executor{sink: diag.Discard}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// effectRun is the context one effect handler sees.
type effectRun struct {
	action *catalog.ActionDefinition
	index  int
	effect catalog.EffectDefinition
	target world.Entity
	actor  world.Entity
	report *Report
}

// effectHandler applies one effect. A nil result means applied; otherwise
// the returned diagnostic explains the skip.
type effectHandler func(x *Executor, r *effectRun) *diag.Diagnostic

var effectHandlers = map[catalog.EffectKind]effectHandler{
	catalog.EffectChangeVisual:          (*Executor).changeVisual,
	catalog.EffectChangeTag:             (*Executor).changeTag,
	catalog.EffectPlayActorAnimation:    (*Executor).playActorAnimation,
	catalog.EffectPlayTargetAnimation:   (*Executor).playTargetAnimation,
	catalog.EffectPlaySound:             (*Executor).playSound,
	catalog.EffectApplyStatusEffect:     (*Executor).applyStatusEffect,
	catalog.EffectInvokeNamedCapability: (*Executor).invokeNamedCapability,
	catalog.EffectTriggerGrowthAction:   (*Executor).triggerGrowthAction,
}

// Execute applies action's effects in declaration order:
//  1. a nil action is reported as invalid and nothing runs,
//  2. each effect is dispatched to its handler by kind,
//  3. a handler that reports a problem (or panics) has its effect skipped
//     with a diagnostic carrying the action, effect kind and index,
//  4. the selection collaborator is cleared afterwards in every case.
//
// Effects are independent: one skip never stops the ones after it.
func (x *Executor) Execute(action *catalog.ActionDefinition, target, actor world.Entity) Report {
	defer x.clearHover()

	if action == nil {
		x.sink.Report(diag.New(diag.CodeInvalidAction, entityID(target), "execute called without an action"))
		return Report{}
	}

	report := Report{Action: action.Name}
	slog.Debug("applying effects",
		"action", action.Name,
		"target", entityID(target),
		"effects", len(action.Effects),
	)

	for i, effect := range action.Effects {
		run := &effectRun{
			action: action,
			index:  i,
			effect: effect,
			target: target,
			actor:  actor,
			report: &report,
		}
		outcome := EffectOutcome{Index: i, Kind: effect.Kind}
		if d := x.apply(run); d != nil {
			// Tag the diagnostic so it can be traced back to its effect.
			d = withEffect(*d, action, i, effect)
			x.sink.Report(*d)
			outcome.Diagnostic = d
			report.Skipped = append(report.Skipped, outcome)
			continue
		}
		report.Applied = append(report.Applied, outcome)
	}

	slog.Debug("effects applied",
		"action", action.Name,
		"applied", len(report.Applied),
		"skipped", len(report.Skipped),
	)
	return report
}

// apply runs one effect, converting a handler panic into a diagnostic.
func (x *Executor) apply(r *effectRun) (d *diag.Diagnostic) {
	handler, ok := effectHandlers[r.effect.Kind]
	if !ok {
		return skip(diag.CodeDataError, r.action.Name, "unknown effect type %q", r.effect.Kind)
	}

	// A panicking collaborator skips its effect, never the whole action.
	defer func() {
		if p := recover(); p != nil {
			d = skip(diag.CodeEffectFailed, r.action.Name, "effect panicked: %v", p)
		}
	}()
	return handler(x, r)
}

func (x *Executor) clearHover() {
	if x.selection != nil {
		x.selection.ClearHover()
	}
}

func (x *Executor) changeVisual(r *effectRun) *diag.Diagnostic {
	if r.effect.Visual == "" {
		return skip(diag.CodeInvalidPayload, r.action.Name, "change_visual effect has no visual")
	}
	v, ok := world.Visual(r.target)
	if !ok {
		return skip(diag.CodeCapabilityMissing, entityID(r.target), "target has no visual capability")
	}
	v.SetVisualID(r.effect.Visual)
	return nil
}

func (x *Executor) changeTag(r *effectRun) *diag.Diagnostic {
	if r.effect.Tag == "" {
		return skip(diag.CodeInvalidPayload, r.action.Name, "change_tag effect has no tag")
	}
	t, ok := world.Tags(r.target)
	if !ok {
		return skip(diag.CodeCapabilityMissing, entityID(r.target), "target has no tag capability")
	}
	t.SetTag(r.effect.Tag)
	return nil
}

func (x *Executor) playActorAnimation(r *effectRun) *diag.Diagnostic {
	return x.playAnimation(r, r.actor, "actor")
}

func (x *Executor) playTargetAnimation(r *effectRun) *diag.Diagnostic {
	return x.playAnimation(r, r.target, "target")
}

func (x *Executor) playAnimation(r *effectRun, e world.Entity, role string) *diag.Diagnostic {
	if r.effect.Clip == "" {
		return skip(diag.CodeInvalidPayload, r.action.Name, "%s animation effect has no clip", role)
	}
	a, ok := world.Animation(e)
	if !ok {
		return skip(diag.CodeCapabilityMissing, entityID(e), "%s has no animation capability", role)
	}
	a.Play(r.effect.Clip)
	return nil
}

// playSound plays at the actor's position, through the actor's own audio
// capability when it has one and the executor's player otherwise.
func (x *Executor) playSound(r *effectRun) *diag.Diagnostic {
	if r.effect.Clip == "" {
		return skip(diag.CodeInvalidPayload, r.action.Name, "sound effect has no clip")
	}
	// Without an actor the target is the sound source.
	source := r.actor
	if source == nil {
		source = r.target
	}
	player, ok := world.Audio(source)
	if !ok {
		player = x.audio
	}
	if player == nil {
		return skip(diag.CodeCapabilityMissing, entityID(source), "no audio player available")
	}
	var pos world.Vec2
	if source != nil {
		pos = source.Position()
	}
	player.PlayAt(r.effect.Clip, pos)
	return nil
}

func (x *Executor) applyStatusEffect(r *effectRun) *diag.Diagnostic {
	return skip(diag.CodeUnimplementedEffect, r.action.Name, "status effects are not implemented (status %q)", r.effect.Status)
}

// invokeNamedCapability resolves component.method in three steps, each of
// which can skip the effect:
//  1. the payload must name both a component and a method,
//  2. the target must carry the component,
//  3. the registry must hold a handler for the method.
//
// A handler error is reported as effect_failed.
func (x *Executor) invokeNamedCapability(r *effectRun) *diag.Diagnostic {
	component, method := r.effect.Component, r.effect.Method
	if component == "" || method == "" {
		return skip(diag.CodeInvalidPayload, r.action.Name, "invoke effect needs a component and a method")
	}
	if r.target == nil || !r.target.HasComponent(component) {
		return skip(diag.CodeCapabilityMissing, entityID(r.target), "component %q not found on target", component)
	}
	// A nil registry finds nothing.
	h, ok := x.capabilities.Lookup(component, method)
	if !ok {
		return skip(diag.CodeCapabilityMissing, entityID(r.target), "method %q not found on component %q", method, component)
	}
	if err := h(r.target); err != nil {
		return skip(diag.CodeEffectFailed, entityID(r.target), "%s.%s failed: %v", component, method, err)
	}
	return nil
}

// triggerGrowthAction forwards the action name, and the action's seed, to
// the target's growth instance. On a target without one the effect is a
// no-op: it counts as applied and leaves a debug diagnostic.
func (x *Executor) triggerGrowthAction(r *effectRun) *diag.Diagnostic {
	if r.effect.Action == "" {
		return skip(diag.CodeInvalidPayload, r.action.Name, "growth effect has no action name")
	}
	g, ok := world.Growth(r.target)
	if !ok {
		d := diag.New(diag.CodeCapabilityMissing, entityID(r.target), "target has no growth state")
		d.Level = diag.LevelDebug
		x.sink.Report(*withEffect(d, r.action, r.index, r.effect))
		return nil
	}
	// StateChanged reports growth changes only, not visual or tag edits.
	if g.Interact(r.effect.Action, r.action.Seed) {
		r.report.StateChanged = true
	}
	return nil
}

func skip(code diag.Code, subject, format string, args ...any) *diag.Diagnostic {
	d := diag.New(code, subject, format, args...)
	return &d
}

func withEffect(d diag.Diagnostic, action *catalog.ActionDefinition, index int, effect catalog.EffectDefinition) *diag.Diagnostic {
	d = d.With("action", action.Name).
		With("effect", string(effect.Kind)).
		With("index", fmt.Sprintf("%d", index))
	return &d
}

func entityID(e world.Entity) string {
	if e == nil {
		return "<nil>"
	}
	return e.ID()
}
