package builder

import (
	"fmt"
	"sort"

	"github.com/lyzr/petrinet/pkg/condition"
	"github.com/lyzr/petrinet/pkg/model"
)

// stepGraph is the per-step sub-graph computed in the first construction
// phase, before any cross-step wiring happens.
type stepGraph struct {
	step        model.IntentStep
	entryTrans  []model.ID // transitions that consume the step's shared entry place (1, or N for choice)
	exits       []model.ID // output places a downstream step can depend on
	isChoice    bool
	isParallel  bool
	branchPlace map[string]model.ID // choice: label -> branch post place
}

// Builder holds the staged, mutable state used while constructing a
// net. Build finalizes the invariants and returns an immutable
// PetriNet.
type Builder struct {
	cfg    Config
	ids    *idGen
	linter *condition.GuardLinter

	places      []model.Place
	transitions []model.Transition
	arcs        []model.Arc

	placeSet map[model.ID]bool
	transSet map[model.ID]bool

	steps map[model.ID]*stepGraph
	order []model.ID

	generatedJoins []model.ID
	events         []model.Event
}

// emit records a construction-time audit event; it is always collected
// (cheap, and the ledger is only ever read if a caller asks for it via
// net.Metadata["diagnostics"]).
func (b *Builder) emit(typ model.EventType, data map[string]any) {
	b.events = append(b.events, model.Event{Type: typ, Data: data})
}

// Build turns an IntentSpec into a PetriNet.
func Build(intent *model.IntentSpec, cfg Config) (*model.PetriNet, error) {
	if len(intent.Steps) == 0 {
		return nil, &model.ConstructionError{Kind: model.ConstructionEmptySpec, Message: "intent has no steps"}
	}

	b := &Builder{
		cfg:      cfg,
		ids:      newIDGen(cfg.NamingStrategy),
		placeSet: make(map[model.ID]bool),
		transSet: make(map[model.ID]bool),
		steps:    make(map[model.ID]*stepGraph, len(intent.Steps)),
	}

	if cfg.ValidateGuards {
		linter, err := condition.NewGuardLinter()
		if err != nil {
			return nil, fmt.Errorf("builder: failed to initialize guard linter: %w", err)
		}
		b.linter = linter
	}

	if err := b.validateUniqueIDs(intent); err != nil {
		return nil, err
	}

	for _, step := range intent.Steps {
		b.order = append(b.order, step.ID)
		sg, err := b.constructStep(step)
		if err != nil {
			return nil, err
		}
		b.steps[step.ID] = sg
	}

	if err := b.wireDependencies(); err != nil {
		return nil, err
	}

	if err := b.completeForkJoins(); err != nil {
		return nil, err
	}

	if b.cfg.OptimizeSequential {
		b.collapseSequentialChains()
	}

	net := &model.PetriNet{
		ID:          model.ID(fmt.Sprintf("net::%s", intent.Name)),
		Name:        intent.Name,
		Places:      b.places,
		Transitions: b.transitions,
		Arcs:        b.arcs,
		Metadata:    map[string]any{},
	}

	initial, err := computeInitialMarking(net)
	if err != nil {
		return nil, err
	}
	net.Initial = initial
	for _, p := range initial.Places() {
		b.emit(model.EventPlaceMarked, map[string]any{"place": string(p), "count": initial.At(p)})
	}
	net.Metadata["sinks"] = net.Sinks()
	net.Metadata["diagnostics"] = b.events
	if cfg.AddDebugMetadata {
		net.Metadata["generated_joins"] = b.generatedJoins
	}

	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("builder produced an invalid net: %w", err)
	}

	return net, nil
}

func (b *Builder) validateUniqueIDs(intent *model.IntentSpec) error {
	seen := make(map[model.ID]bool, len(intent.Steps))
	for _, s := range intent.Steps {
		if seen[s.ID] {
			return &model.ConstructionError{Kind: model.ConstructionDuplicateID, StepID: s.ID, Message: "duplicate step id"}
		}
		seen[s.ID] = true
	}
	for _, s := range intent.Steps {
		for _, dep := range s.Dependencies {
			if !seen[dep] {
				return &model.ConstructionError{Kind: model.ConstructionDanglingReference, StepID: s.ID, Message: fmt.Sprintf("dependency %q does not exist", dep)}
			}
		}
	}
	return nil
}

func (b *Builder) addPlace(id model.ID, name string) model.ID {
	if !b.placeSet[id] {
		b.placeSet[id] = true
		b.places = append(b.places, model.Place{ID: id, Name: name})
	}
	return id
}

func (b *Builder) addTransition(t model.Transition) model.ID {
	if !b.transSet[t.ID] {
		b.transSet[t.ID] = true
		b.transitions = append(b.transitions, t)
	}
	return t.ID
}

func (b *Builder) addArc(source, target model.ID, weight int) {
	if weight <= 0 {
		weight = 1
	}
	b.arcs = append(b.arcs, model.Arc{Source: source, Target: target, Weight: weight})
}

// constructStep builds the sub-graph for one step kind, following the
// per-kind rules, deferring the step's shared entry place to the
// wiring phase (see wireDependencies).
func (b *Builder) constructStep(step model.IntentStep) (*stepGraph, error) {
	switch step.Kind {
	case model.StepAction:
		return b.constructAction(step)
	case model.StepChoice:
		return b.constructChoice(step)
	case model.StepParallel:
		return b.constructParallel(step)
	case model.StepSync:
		return b.constructSync(step)
	default:
		return nil, &model.ConstructionError{Kind: model.ConstructionEmptySpec, StepID: step.ID, Message: fmt.Sprintf("unknown step kind %q", step.Kind)}
	}
}

func (b *Builder) constructAction(step model.IntentStep) (*stepGraph, error) {
	if err := b.checkGuard(step); err != nil {
		return nil, err
	}

	kind := model.KindPlain
	if step.When != "" {
		kind = model.KindChoice
	}

	tID := b.ids.transition(actionTransitionID(step.ID))
	t := model.Transition{ID: tID, Name: string(step.ID), Guard: step.When, Kind: kind}
	b.addTransition(t)

	post := b.addPlace(b.ids.place(postPlaceID(step.ID)), string(step.ID)+" done")
	b.addArc(tID, post, 1)

	return &stepGraph{step: step, entryTrans: []model.ID{tID}, exits: []model.ID{post}}, nil
}

func (b *Builder) constructChoice(step model.IntentStep) (*stepGraph, error) {
	labels, err := condition.StringSlice(step.Attributes, "paths")
	if err != nil {
		return nil, &model.ConstructionError{Kind: model.ConstructionAmbiguousBranches, StepID: step.ID, Message: err.Error()}
	}
	if len(labels) == 0 {
		return nil, &model.ConstructionError{Kind: model.ConstructionAmbiguousBranches, StepID: step.ID, Message: "choice step requires a non-empty 'paths' attribute"}
	}

	sg := &stepGraph{step: step, isChoice: true, branchPlace: make(map[string]model.ID, len(labels))}
	for _, label := range labels {
		tID := b.ids.transition(branchTransitionID(step.ID, label))
		// Branch labels are structural tags ("ok", "fail"), not CEL
		// boolean expressions, so they are not run through the guard
		// linter the way a step's `when` expression is.
		t := model.Transition{ID: tID, Name: fmt.Sprintf("%s:%s", step.ID, label), Guard: label, Kind: model.KindChoice}
		b.addTransition(t)
		b.emit(model.EventChoiceTaken, map[string]any{"transition": string(tID), "label": label})

		post := b.addPlace(b.ids.place(branchPlaceID(step.ID, label)), fmt.Sprintf("%s:%s done", step.ID, label))
		b.addArc(tID, post, 1)

		sg.entryTrans = append(sg.entryTrans, tID)
		sg.exits = append(sg.exits, post)
		sg.branchPlace[label] = post
	}
	return sg, nil
}

func (b *Builder) constructParallel(step model.IntentStep) (*stepGraph, error) {
	branches, err := condition.StringSlice(step.Attributes, "branches")
	if err != nil {
		return nil, &model.ConstructionError{Kind: model.ConstructionAmbiguousBranches, StepID: step.ID, Message: err.Error()}
	}
	if len(branches) < 2 {
		return nil, &model.ConstructionError{
			Kind:    model.ConstructionAmbiguousBranches,
			StepID:  step.ID,
			Message: "parallel step requires an explicit 'branches' attribute naming at least two branches",
		}
	}

	tID := b.ids.transition(actionTransitionID(step.ID))
	t := model.Transition{ID: tID, Name: string(step.ID), Kind: model.KindFork}
	b.addTransition(t)
	b.emit(model.EventForkTaken, map[string]any{"transition": string(tID), "branches": branches})

	// Each branch gets its own place/transition/place: the fork's direct
	// output place, a plain transition named after the branch (so a
	// trace names "pass" or "shoot" as a fired transition rather than
	// only a marked place), and that branch's post-place, which is what
	// downstream steps depend on.
	sg := &stepGraph{step: step, isParallel: true, entryTrans: []model.ID{tID}, branchPlace: make(map[string]model.ID, len(branches))}
	for _, branch := range branches {
		forkOut := b.addPlace(b.ids.place(branchPlaceID(step.ID, branch)), fmt.Sprintf("%s:%s", step.ID, branch))
		b.addArc(tID, forkOut, 1)

		branchT := b.ids.transition(branchTransitionID(step.ID, branch))
		b.addTransition(model.Transition{ID: branchT, Name: branch, Kind: model.KindPlain})
		b.addArc(forkOut, branchT, 1)

		post := b.addPlace(b.ids.place(branchPlaceID(step.ID, branch)+"::done"), fmt.Sprintf("%s:%s done", step.ID, branch))
		b.addArc(branchT, post, 1)

		sg.exits = append(sg.exits, post)
		sg.branchPlace[branch] = post
	}
	return sg, nil
}

func (b *Builder) constructSync(step model.IntentStep) (*stepGraph, error) {
	if len(step.Dependencies) == 0 {
		return nil, &model.ConstructionError{Kind: model.ConstructionUnmatchedFork, StepID: step.ID, Message: "sync step requires at least one dependency"}
	}
	tID := b.ids.transition(actionTransitionID(step.ID))
	t := model.Transition{ID: tID, Name: string(step.ID), Kind: model.KindJoin}
	b.addTransition(t)

	post := b.addPlace(b.ids.place(postPlaceID(step.ID)), string(step.ID)+" done")
	b.addArc(tID, post, 1)

	return &stepGraph{step: step, entryTrans: []model.ID{tID}, exits: []model.ID{post}}, nil
}

func (b *Builder) checkGuard(step model.IntentStep) error {
	return b.checkGuardString(step.When)
}

func (b *Builder) checkGuardString(expr string) error {
	if b.linter == nil || expr == "" {
		return nil
	}
	if err := b.linter.Check(expr); err != nil {
		return &model.ConstructionError{Kind: model.ConstructionInvalidGuard, Message: err.Error()}
	}
	return nil
}

// sortedStepIDs returns step ids in the deterministic order construction
// used, for passes that must iterate the net in a fixed order.
func (b *Builder) sortedStepIDs() []model.ID {
	ids := append([]model.ID(nil), b.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
