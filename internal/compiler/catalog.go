package compiler

import (
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/homestead/internal/catalog"
)

// DefaultGroundName names the ground definition when the catalog omits it.
const DefaultGroundName = "Ground"

// Known fields per catalog struct. Anything else is rejected so typos
// surface at load time instead of as silently missing behavior.
var (
	topFields    = fieldSet("ground", "plant", "actions")
	groundFields = fieldSet("name", "stages")
	plantFields  = fieldSet("seed_visual", "stages")
	stageFields  = fieldSet(
		"id", "visual", "watered_visual", "requires_watering", "duration",
		"watering_cooldown", "next_auto", "next_on_water", "next_on_player_action",
		"till", "plant", "water", "harvest",
	)
	actionFields = fieldSet("name", "tag", "visual", "seed", "priority", "effects")
	effectFields = fieldSet("type", "visual", "tag", "clip", "status", "call", "action")
)

func fieldSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// CompileString compiles CUE source into a catalog. filename is used in
// error positions.
func CompileString(src, filename string) (*catalog.Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return CompileCatalog(v)
}

// CompileCatalog parses a CUE value into a Catalog.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the catalog root:
//
//	ground: {name: "Ground", stages: [...]}
//	plant: Rose: {seed_visual: "rose_seed", stages: [...]}
//	actions: [{name: "Till Soil", tag: "Grass", effects: [...]}]
//
// Compilation runs in a fixed order, failing fast on the first error:
//  1. unknown top-level fields are rejected,
//  2. the ground definition is parsed (defaulting its name),
//  3. plants are parsed in declaration order,
//  4. actions are parsed in list order, resolving seeds against step 3,
//  5. the content hash is computed over the result.
//
// Identifiers are NFC-normalized so visually identical names compare equal.
// Plants keep declaration order and actions keep list order; the matcher
// relies on the latter.
func CompileCatalog(v cue.Value) (*catalog.Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("cue", err)
	}
	if err := checkFields(v, "", topFields); err != nil {
		return nil, err
	}

	c := &catalog.Catalog{}

	groundVal := v.LookupPath(cue.ParsePath("ground"))
	if groundVal.Exists() {
		ground, err := parseGround(groundVal)
		if err != nil {
			return nil, err
		}
		c.Ground = ground
	}

	plants, err := parsePlants(v.LookupPath(cue.ParsePath("plant")))
	if err != nil {
		return nil, err
	}
	c.Plants = plants

	// Seeds resolve against c.Plants, so actions come last.
	actions, err := parseActions(v.LookupPath(cue.ParsePath("actions")), c)
	if err != nil {
		return nil, err
	}
	c.Actions = actions

	hash, err := catalog.ComputeHash(c)
	if err != nil {
		return nil, fmt.Errorf("hash catalog: %w", err)
	}
	c.Hash = hash
	return c, nil
}

func parseGround(v cue.Value) (*catalog.PlantDefinition, error) {
	if err := checkFields(v, "ground", groundFields); err != nil {
		return nil, err
	}
	name, err := optionalString(v, "ground", "name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultGroundName
	}
	stages, err := parseStages(v.LookupPath(cue.ParsePath("stages")), "ground.stages")
	if err != nil {
		return nil, err
	}
	return catalog.NewPlant(name, "", stages), nil
}

func parsePlants(v cue.Value) ([]*catalog.PlantDefinition, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError("plant", err)
	}

	var plants []*catalog.PlantDefinition
	seen := make(map[string]bool)
	for iter.Next() {
		name := normalize(iter.Selector().Unquoted())
		field := "plant." + name
		pv := iter.Value()

		if seen[name] {
			return nil, &CompileError{Field: field + ".duplicate", Message: fmt.Sprintf("plant %q defined twice", name), Pos: pv.Pos()}
		}
		seen[name] = true

		if err := checkFields(pv, field, plantFields); err != nil {
			return nil, err
		}
		seedVisual, err := optionalString(pv, field, "seed_visual")
		if err != nil {
			return nil, err
		}
		stages, err := parseStages(pv.LookupPath(cue.ParsePath("stages")), field+".stages")
		if err != nil {
			return nil, err
		}
		plants = append(plants, catalog.NewPlant(name, catalog.VisualID(seedVisual), stages))
	}
	return plants, nil
}

func parseStages(v cue.Value, field string) ([]catalog.StageDefinition, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: field, Message: "stages are required", Pos: v.Pos()}
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(field, err)
	}

	var stages []catalog.StageDefinition
	seen := make(map[catalog.StageID]bool)
	for i := 0; iter.Next(); i++ {
		sv := iter.Value()
		sf := fmt.Sprintf("%s[%d]", field, i)
		stage, err := parseStage(sv, sf)
		if err != nil {
			return nil, err
		}
		if seen[stage.Stage] {
			return nil, &CompileError{
				Field:   sf + ".duplicate",
				Message: fmt.Sprintf("stage %q defined twice", stage.Stage),
				Pos:     sv.Pos(),
			}
		}
		seen[stage.Stage] = true
		stages = append(stages, stage)
	}
	return stages, nil
}

func parseStage(v cue.Value, field string) (catalog.StageDefinition, error) {
	var s catalog.StageDefinition
	if err := checkFields(v, field, stageFields); err != nil {
		return s, err
	}

	id, err := optionalString(v, field, "id")
	if err != nil {
		return s, err
	}
	if id == "" {
		return s, &CompileError{Field: field + ".id", Message: "stage id is required", Pos: v.Pos()}
	}
	s.Stage = catalog.StageID(id)

	strs := []struct {
		name string
		dst  *string
	}{
		{"till", &s.TillSoilAction},
		{"plant", &s.PlantSeedAction},
		{"water", &s.WaterAction},
		{"harvest", &s.HarvestAction},
	}
	for _, f := range strs {
		if *f.dst, err = optionalString(v, field, f.name); err != nil {
			return s, err
		}
	}

	ids := []struct {
		name string
		dst  *catalog.StageID
	}{
		{"next_auto", &s.NextAuto},
		{"next_on_water", &s.NextOnWater},
		{"next_on_player_action", &s.NextOnPlayerAction},
	}
	for _, f := range ids {
		str, err := optionalString(v, field, f.name)
		if err != nil {
			return s, err
		}
		*f.dst = catalog.StageID(str)
	}

	visual, err := optionalString(v, field, "visual")
	if err != nil {
		return s, err
	}
	s.Visual = catalog.VisualID(visual)
	watered, err := optionalString(v, field, "watered_visual")
	if err != nil {
		return s, err
	}
	s.WateredVisual = catalog.VisualID(watered)

	if rw := v.LookupPath(cue.ParsePath("requires_watering")); rw.Exists() {
		if s.RequiresWatering, err = rw.Bool(); err != nil {
			return s, formatCUEError(field+".requires_watering", err)
		}
	}
	if s.Duration, err = optionalSeconds(v, field, "duration"); err != nil {
		return s, err
	}
	if s.WateringCooldown, err = optionalSeconds(v, field, "watering_cooldown"); err != nil {
		return s, err
	}
	return s, nil
}

func parseActions(v cue.Value, c *catalog.Catalog) (*catalog.ActionCatalog, error) {
	actions := &catalog.ActionCatalog{}
	if !v.Exists() {
		return actions, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError("actions", err)
	}

	for i := 0; iter.Next(); i++ {
		av := iter.Value()
		field := fmt.Sprintf("actions[%d]", i)
		a, err := parseAction(av, field, c)
		if err != nil {
			return nil, err
		}
		if _, dup := actions.Named(a.Name); dup {
			return nil, &CompileError{
				Field:   field + ".duplicate",
				Message: fmt.Sprintf("action %q defined twice", a.Name),
				Pos:     av.Pos(),
			}
		}
		actions.Actions = append(actions.Actions, a)
	}
	return actions, nil
}

func parseAction(v cue.Value, field string, c *catalog.Catalog) (*catalog.ActionDefinition, error) {
	if err := checkFields(v, field, actionFields); err != nil {
		return nil, err
	}

	name, err := optionalString(v, field, "name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &CompileError{Field: field + ".name", Message: "action name is required", Pos: v.Pos()}
	}
	a := &catalog.ActionDefinition{Name: name}

	// Target filters. Either may be empty; the matcher decides the tier.
	if a.TargetTag, err = optionalString(v, field, "tag"); err != nil {
		return nil, err
	}
	visual, err := optionalString(v, field, "visual")
	if err != nil {
		return nil, err
	}
	a.TargetVisual = catalog.VisualID(visual)

	seed, err := optionalString(v, field, "seed")
	if err != nil {
		return nil, err
	}
	// A seed must name a plant declared earlier in the catalog.
	if seed != "" {
		p, ok := c.Plant(seed)
		if !ok {
			return nil, &CompileError{
				Field:   field + ".seed",
				Message: fmt.Sprintf("seed %q names no plant (known: %s)", seed, plantNames(c)),
				Pos:     v.LookupPath(cue.ParsePath("seed")).Pos(),
			}
		}
		a.Seed = p
	}

	if pv := v.LookupPath(cue.ParsePath("priority")); pv.Exists() {
		p, err := pv.Int64()
		if err != nil {
			return nil, formatCUEError(field+".priority", err)
		}
		a.Priority = int(p)
	}

	// Effects run in declaration order, so keep it.
	ev := v.LookupPath(cue.ParsePath("effects"))
	if ev.Exists() {
		iter, err := ev.List()
		if err != nil {
			return nil, formatCUEError(field+".effects", err)
		}
		for i := 0; iter.Next(); i++ {
			e, err := parseEffect(iter.Value(), fmt.Sprintf("%s.effects[%d]", field, i), name)
			if err != nil {
				return nil, err
			}
			a.Effects = append(a.Effects, e)
		}
	}
	return a, nil
}

// parseEffect reads one effect. A growth effect without an action forwards
// the name of the action it belongs to.
func parseEffect(v cue.Value, field, actionName string) (catalog.EffectDefinition, error) {
	var e catalog.EffectDefinition
	if err := checkFields(v, field, effectFields); err != nil {
		return e, err
	}

	kind, err := optionalString(v, field, "type")
	if err != nil {
		return e, err
	}
	e.Kind = catalog.EffectKind(kind)
	if !e.Kind.Valid() {
		return e, &CompileError{
			Field:   field + ".type",
			Message: fmt.Sprintf("unknown effect type %q (one of %s)", kind, effectKindList()),
			Pos:     v.Pos(),
		}
	}

	visual, err := optionalString(v, field, "visual")
	if err != nil {
		return e, err
	}
	e.Visual = catalog.VisualID(visual)
	if e.Tag, err = optionalString(v, field, "tag"); err != nil {
		return e, err
	}
	if e.Clip, err = optionalString(v, field, "clip"); err != nil {
		return e, err
	}
	if e.Status, err = optionalString(v, field, "status"); err != nil {
		return e, err
	}
	if e.Action, err = optionalString(v, field, "action"); err != nil {
		return e, err
	}

	call, err := optionalString(v, field, "call")
	if err != nil {
		return e, err
	}
	if call != "" {
		parts := strings.Split(call, ".")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return e, &CompileError{
				Field:   field + ".call",
				Message: fmt.Sprintf("invalid call %q: expected Component.Method", call),
				Pos:     v.LookupPath(cue.ParsePath("call")).Pos(),
			}
		}
		e.Component, e.Method = parts[0], parts[1]
	}

	if e.Kind == catalog.EffectTriggerGrowthAction && e.Action == "" {
		e.Action = actionName
	}
	return e, nil
}

// checkFields rejects labels outside known.
func checkFields(v cue.Value, field string, known map[string]bool) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(fieldOr(field, "catalog"), err)
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if known[label] {
			continue
		}
		return &CompileError{
			Field:   joinField(field, label) + ".unknown",
			Message: fmt.Sprintf("unknown field %q (expected one of %s)", label, strings.Join(sortedLabels(known), ", ")),
			Pos:     iter.Value().Pos(),
		}
	}
	return nil
}

func optionalString(v cue.Value, field, name string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(joinField(field, name), err)
	}
	return normalize(s), nil
}

// optionalSeconds reads a non-negative number of seconds. Both int and
// float literals are accepted.
func optionalSeconds(v cue.Value, field, name string) (float64, error) {
	nv := v.LookupPath(cue.ParsePath(name))
	if !nv.Exists() {
		return 0, nil
	}
	f, err := nv.Float64()
	if err != nil {
		return 0, formatCUEError(joinField(field, name), err)
	}
	if f < 0 {
		return 0, &CompileError{
			Field:   joinField(field, name),
			Message: fmt.Sprintf("must be >= 0, got %v", f),
			Pos:     nv.Pos(),
		}
	}
	return f, nil
}

// normalize applies NFC so identifiers typed with combining marks match
// their precomposed forms.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func plantNames(c *catalog.Catalog) string {
	if len(c.Plants) == 0 {
		return "none"
	}
	names := make([]string, len(c.Plants))
	for i, p := range c.Plants {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func effectKindList() string {
	names := make([]string, len(catalog.EffectKinds))
	for i, k := range catalog.EffectKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func sortedLabels(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinField(field, name string) string {
	if field == "" {
		return name
	}
	return field + "." + name
}

func fieldOr(field, fallback string) string {
	if field == "" {
		return fallback
	}
	return field
}

// leafOf returns the last dotted segment of field, without an index suffix.
func leafOf(field string) string {
	if i := strings.LastIndex(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if i := strings.Index(field, "["); i >= 0 {
		field = field[:i]
	}
	return field
}
