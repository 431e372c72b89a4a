package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/compiler"
	"github.com/roach88/homestead/internal/diag"
	"github.com/roach88/homestead/internal/engine"
	"github.com/roach88/homestead/internal/growth"
	"github.com/roach88/homestead/internal/store"
	"github.com/roach88/homestead/internal/world"
)

// Harness holds the state of one scenario execution.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	world   *world.World
	catalog *catalog.Catalog
	diags   *diag.Recorder
	session string

	invocations []string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load and compile the catalog
// 2. Create the tiles and the player
// 3. Execute steps, checking expect clauses
// 4. Save the tiles and read them back with the event log
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, err := compiler.Load(scenario.Catalog...)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	cat := loaded.Catalog

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	session := scenario.Session
	if session == "" {
		session = DefaultSession
	}
	if _, err := st.BeginSession(ctx, session, cat.Hash); err != nil {
		return nil, err
	}

	h := &Harness{
		store:   st,
		world:   world.New(),
		catalog: cat,
		diags:   &diag.Recorder{},
		session: session,
	}

	registry, err := h.capabilities(scenario.Capabilities)
	if err != nil {
		return nil, err
	}
	if err := h.populate(scenario.Tiles); err != nil {
		return nil, err
	}

	h.engine = engine.New(h.world, cat,
		engine.WithExecutor(engine.NewExecutor(
			engine.WithCapabilities(registry),
			engine.WithDiagnostics(h.diags),
		)),
		engine.WithSink(h.diags),
		engine.WithEventLog(st, session),
	)

	result := NewResult()
	result.Issues = catalog.Validate(cat, catalog.ValidateOptions{Capabilities: registry.Names()})

	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(a, result); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	slog.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"steps", len(scenario.Steps),
	)
	return result, nil
}

// capabilities registers a no-op handler per name that records the call.
func (h *Harness) capabilities(names []string) (*engine.CapabilityRegistry, error) {
	registry := engine.NewCapabilityRegistry()
	for _, name := range names {
		component, method, err := engine.ParseCall(name)
		if err != nil {
			return nil, fmt.Errorf("capabilities: %w", err)
		}
		call := name
		err = registry.Register(component, method, func(world.Entity) error {
			h.invocations = append(h.invocations, call)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("capabilities: %w", err)
		}
	}
	return registry, nil
}

func (h *Harness) populate(tiles []TileSpec) error {
	for _, ts := range tiles {
		opts := []growth.Option{growth.WithSink(h.diags)}
		if ts.Species != "" {
			p, ok := h.catalog.Plant(ts.Species)
			if !ok {
				return fmt.Errorf("tile %s: unknown species %q", ts.ID, ts.Species)
			}
			opts = append(opts, growth.WithSpecies(p))
		}

		stage := catalog.StageID(ts.Stage)
		if stage == "" {
			stage = catalog.StageGrass
		}
		t := world.NewTile(world.TileConfig{
			ID:            ts.ID,
			Position:      world.Vec2{X: ts.X, Y: ts.Y},
			Tag:           ts.Tag,
			Stage:         stage,
			Ground:        h.catalog.Ground,
			Visual:        catalog.VisualID(ts.Visual),
			GrowthOptions: opts,
		})
		t.AddComponent(ts.Components...)
		if err := h.world.Add(t); err != nil {
			return fmt.Errorf("tile %s: %w", ts.ID, err)
		}
	}

	actor := world.NewActor(ActorID, world.Vec2{}).
		Attach(world.KindAnimation, world.AnimatorFunc(func(string) {})).
		Attach(world.KindAudio, silentAudio{})
	return h.world.Add(actor)
}

// silentAudio accepts every clip.
type silentAudio struct{}

func (silentAudio) PlayAt(string, world.Vec2) {}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) {
	mark := len(h.diags.All())
	n := index + 1

	var (
		line    string
		tileID  string
		action  *string
		changed *bool
	)

	switch {
	case step.Tick != nil:
		h.engine.Step(ctx, *step.Tick)
		line = fmt.Sprintf("%02d tick %s", n, formatSeconds(*step.Tick))

	case step.Act != "":
		tileID = step.Act
		h.engine.Submit(engine.Request{TargetID: step.Act, ActorID: ActorID})
		sr := h.engine.Step(ctx, 0)
		if len(sr.Outcomes) != 1 {
			result.AddError(fmt.Sprintf("steps[%d]: act %s produced %d outcomes", index, step.Act, len(sr.Outcomes)))
			line = fmt.Sprintf("%02d act %s -> lost", n, step.Act)
			break
		}
		out := sr.Outcomes[0]
		name := out.Report.Action
		c := out.Report.StateChanged
		action, changed = &name, &c
		if out.Matched {
			line = fmt.Sprintf("%02d act %s -> %s (%s) applied=%d skipped=%d changed=%t",
				n, step.Act, name, out.Tier, len(out.Report.Applied), len(out.Report.Skipped), c)
		} else {
			line = fmt.Sprintf("%02d act %s -> no action", n, step.Act)
		}

	case step.Interact != nil:
		tileID = step.Interact.Tile
		var seed *catalog.PlantDefinition
		if step.Interact.Seed != "" {
			if p, ok := h.catalog.Plant(step.Interact.Seed); ok {
				seed = p
			} else {
				result.AddError(fmt.Sprintf("steps[%d]: unknown seed %q", index, step.Interact.Seed))
			}
		}
		c := false
		if t := h.tile(tileID); t != nil {
			c = t.Growth().Interact(step.Interact.Action, seed)
		}
		changed = &c
		line = fmt.Sprintf("%02d interact %s %s", n, tileID, step.Interact.Action)
		if step.Interact.Seed != "" {
			line += " seed=" + step.Interact.Seed
		}
		line += fmt.Sprintf(" -> changed=%t", c)
	}

	result.Trace = append(result.Trace, line+" | "+h.summary())
	for _, d := range h.diags.All()[mark:] {
		result.Trace = append(result.Trace, "    "+d.String())
	}

	if step.Expect != nil {
		if step.Expect.Tile != "" {
			tileID = step.Expect.Tile
		}
		for _, msg := range h.checkExpect(tileID, step.Expect, action, changed) {
			result.AddError(fmt.Sprintf("steps[%d]: %s", index, msg))
		}
	}
}

func (h *Harness) checkExpect(tileID string, e *Expect, action *string, changed *bool) []string {
	t := h.tile(tileID)
	if t == nil {
		return []string{fmt.Sprintf("unknown tile %q", tileID)}
	}

	var errs []string
	errs = append(errs, compareState(tileID, stateOf(t), e.Stage, e.Tag, e.Visual, e.Species, e.Watered)...)
	if e.Action != nil && action != nil && *e.Action != *action {
		errs = append(errs, fmt.Sprintf("%s: action = %q, expected %q", tileID, *action, *e.Action))
	}
	if e.Changed != nil && changed != nil && *e.Changed != *changed {
		errs = append(errs, fmt.Sprintf("%s: changed = %t, expected %t", tileID, *changed, *e.Changed))
	}
	return errs
}

func (h *Harness) tile(id string) *world.Tile {
	e, ok := h.world.Get(id)
	if !ok {
		return nil
	}
	t, _ := e.(*world.Tile)
	return t
}

// collect saves the world, then reads tiles and events back from the store.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	var records []store.TileRecord
	for _, t := range h.world.Tiles() {
		records = append(records, store.RecordTile(t))
	}
	if err := h.store.SaveTiles(ctx, h.session, h.engine.Frame(), records); err != nil {
		return err
	}

	tiles, err := h.store.LoadTiles(ctx, h.session)
	if err != nil {
		return err
	}
	events, err := h.store.ReadEvents(ctx, h.session)
	if err != nil {
		return err
	}

	result.Tiles = tiles
	result.Events = events
	result.Diagnostics = h.diags.All()
	result.Invocations = h.invocations
	return nil
}

// summary renders every tile's state in world order.
func (h *Harness) summary() string {
	tiles := h.world.Tiles()
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		s := stateOf(t)
		parts[i] = fmt.Sprintf("%s stage=%s visual=%s tag=%s species=%s watered=%t",
			t.ID(), s.stage, orDash(s.visual), orDash(s.tag), orDash(s.species), s.watered)
	}
	return strings.Join(parts, "; ")
}

// tileState is the comparable state of a tile.
type tileState struct {
	stage   string
	tag     string
	visual  string
	species string
	watered bool
}

func stateOf(t *world.Tile) tileState {
	g := t.Growth()
	s := tileState{
		stage:   string(g.Stage()),
		tag:     t.Tag(),
		visual:  string(t.VisualID()),
		watered: g.Watered(),
	}
	if p := g.Species(); p != nil {
		s.species = p.Name
	}
	return s
}

func recordState(r store.TileRecord) tileState {
	return tileState{
		stage:   string(r.State.Stage),
		tag:     r.Tag,
		visual:  string(r.Visual),
		species: r.State.Species,
		watered: r.State.Watered,
	}
}

func compareState(id string, got tileState, stage, tag, visual, species *string, watered *bool) []string {
	var errs []string
	check := func(field string, want *string, have string) {
		if want != nil && *want != have {
			errs = append(errs, fmt.Sprintf("%s: %s = %q, expected %q", id, field, have, *want))
		}
	}
	check("stage", stage, got.stage)
	check("tag", tag, got.tag)
	check("visual", visual, got.visual)
	check("species", species, got.species)
	if watered != nil && *watered != got.watered {
		errs = append(errs, fmt.Sprintf("%s: watered = %t, expected %t", id, got.watered, *watered))
	}
	return errs
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
