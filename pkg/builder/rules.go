package builder

import (
	"fmt"

	"github.com/lyzr/petrinet/pkg/model"
)

// wireDependencies connects every step's shared entry to its resolved
// dependencies. It is itself one function, but performs the work of two
// of the rule
// engine's named passes at once: ordinary dependency wiring (which
// subsumes the k>1 implicit-join case for single-transition steps) and
// the choice-merge rule (delegated to resolveTargets/mergePlaceFor).
func (b *Builder) wireDependencies() error {
	merges := make(map[model.ID]model.ID)  // choice step id -> merge place id
	claimedExit := make(map[model.ID]bool) // single-exit dep id -> its sole exit place already handed to a consumer

	resolveTargets := func(consumer *stepGraph, depID model.ID) []model.ID {
		dep := b.steps[depID]
		if len(dep.exits) == 1 {
			if !claimedExit[depID] {
				claimedExit[depID] = true
				return []model.ID{dep.exits[0]}
			}
			// A second (or later) downstream step also depends on depID.
			// Routing it through the same exit place would give that
			// place more than one consumer, which the projector's
			// single-producer/single-consumer edge rule treats as
			// carrying no causality at all. A dedicated relay place fed
			// by the same producing transition keeps every place at
			// exactly one producer and one consumer.
			relay := b.addPlace(b.ids.place(fanoutPlaceID(depID, consumer.step.ID)), fmt.Sprintf("%s -> %s", depID, consumer.step.ID))
			b.addArc(dep.entryTrans[0], relay, 1)
			return []model.ID{relay}
		}
		if dep.isParallel {
			return append([]model.ID(nil), dep.exits...)
		}
		// Choice dependency with multiple exits: either the consumer's
		// `when` guard matches one branch label directly, or the
		// choice-merge rule applies.
		if consumer.step.When != "" {
			if target, ok := dep.branchPlace[consumer.step.When]; ok {
				return []model.ID{target}
			}
		}
		if existing, ok := merges[depID]; ok {
			return []model.ID{existing}
		}
		merge := b.addPlace(b.ids.place(mergePlaceID(depID)), fmt.Sprintf("%s merged", depID))
		for _, t := range dep.entryTrans {
			b.addArc(t, merge, 1)
		}
		merges[depID] = merge
		return []model.ID{merge}
	}

	for _, stepID := range b.order {
		sg := b.steps[stepID]

		if len(sg.step.Dependencies) == 0 {
			entry := b.addPlace(b.ids.place(prePlaceID(stepID)), string(stepID)+" entry")
			for _, t := range sg.entryTrans {
				b.addArc(entry, t, 1)
			}
			continue
		}

		var allTargets []model.ID
		for _, dep := range sg.step.Dependencies {
			allTargets = append(allTargets, resolveTargets(sg, dep)...)
		}

		if sg.isChoice && len(allTargets) != 1 {
			b.synthesizeChoiceEntry(sg, allTargets)
			continue
		}

		for _, target := range allTargets {
			for _, t := range sg.entryTrans {
				b.addArc(target, t, 1)
			}
		}
		if len(allTargets) > 1 {
			b.upgradeToJoin(sg.entryTrans[0])
		}
	}

	return nil
}

// synthesizeChoiceEntry implements the "implicit join" case of the
// rule engine specifically for choice steps, which need exactly
// one shared entry place for their free-choice sibling transitions.
func (b *Builder) synthesizeChoiceEntry(sg *stepGraph, inputs []model.ID) {
	joinID := b.ids.transition(implicitJoinID(sg.step.ID))
	b.addTransition(model.Transition{
		ID:       joinID,
		Name:     string(sg.step.ID) + " join",
		Kind:     model.KindJoin,
		Metadata: map[string]any{"generated": true},
	})
	b.emit(model.EventJoinTaken, map[string]any{"transition": string(joinID), "inputs": len(inputs)})
	for _, in := range inputs {
		b.addArc(in, joinID, 1)
	}
	pre := b.addPlace(b.ids.place(prePlaceID(sg.step.ID)), string(sg.step.ID)+" entry")
	b.addArc(joinID, pre, 1)
	for _, t := range sg.entryTrans {
		b.addArc(pre, t, 1)
	}
}

// upgradeToJoin sets a plain transition's kind to join once it has
// accumulated more than one distinct input arc; guarded transitions
// keep their choice kind (a choice transition can still receive a
// joined input from multiple upstream branches without losing its
// guard semantics).
func (b *Builder) upgradeToJoin(id model.ID) {
	for i := range b.transitions {
		if b.transitions[i].ID == id && b.transitions[i].Kind == model.KindPlain {
			b.transitions[i].Kind = model.KindJoin
			return
		}
	}
}

// completeForkJoins implements the parallel-join rule: every fork must
// reach exactly one join whose inputs are its branch post-places. If no
// existing wiring consumes a fork's branches, one is synthesized here
// (unless synthesis is disabled, in which case the unmatched fork is
// left for the validator to flag).
func (b *Builder) completeForkJoins() error {
	for _, stepID := range b.order {
		sg := b.steps[stepID]
		if !sg.isParallel {
			continue
		}

		consumed := 0
		for _, p := range sg.exits {
			if len(b.consumersOf(p)) > 0 {
				consumed++
			}
		}

		switch {
		case consumed == len(sg.exits):
			// Already fully joined by an explicit sync step or another
			// multi-dependency consumer.
			continue
		case consumed == 0 && b.cfg.DisableSyncSynthesis:
			// Left unmatched on purpose; validator will report it.
			continue
		case consumed == 0:
			joinID := b.ids.transition(forkJoinID(stepID))
			b.addTransition(model.Transition{
				ID:       joinID,
				Name:     string(stepID) + " generated join",
				Kind:     model.KindJoin,
				Metadata: map[string]any{"generated": true},
			})
			for _, p := range sg.exits {
				b.addArc(p, joinID, 1)
			}
			out := b.addPlace(b.ids.place(postPlaceID(stepID)+"::joined"), string(stepID)+" joined")
			b.addArc(joinID, out, 1)
			b.generatedJoins = append(b.generatedJoins, joinID)
			b.emit(model.EventJoinTaken, map[string]any{"transition": string(joinID), "inputs": len(sg.exits)})
		default:
			return &model.ConstructionError{
				Kind:    model.ConstructionUnmatchedFork,
				StepID:  stepID,
				Message: "fork branches are partially joined: some branch places have a consumer and others do not",
			}
		}
	}
	return nil
}

func (b *Builder) consumersOf(place model.ID) []model.ID {
	var out []model.ID
	for _, a := range b.arcs {
		if a.Source == place {
			out = append(out, a.Target)
		}
	}
	return out
}

func (b *Builder) producersOf(place model.ID) []model.ID {
	var out []model.ID
	for _, a := range b.arcs {
		if a.Target == place {
			out = append(out, a.Source)
		}
	}
	return out
}

// collapseSequentialChains implements the configurable sequential-chain
// optimization: a chain A -> p -> B collapses to A -> B when p has
// exactly one producer and one consumer and no other place references
// it (true by construction once in/out degree are both 1).
func (b *Builder) collapseSequentialChains() {
	changed := true
	for changed {
		changed = false
		for _, p := range b.places {
			producers := b.producersOf(p.ID)
			consumers := b.consumersOf(p.ID)
			if len(producers) != 1 || len(consumers) != 1 {
				continue
			}
			producer, consumer := producers[0], consumers[0]

			var newArcs []model.Arc
			var inWeight, outWeight int
			for _, a := range b.arcs {
				if a.Source == producer && a.Target == p.ID {
					inWeight = a.Weight
					continue
				}
				if a.Source == p.ID && a.Target == consumer {
					outWeight = a.Weight
					continue
				}
				newArcs = append(newArcs, a)
			}
			weight := inWeight
			if outWeight > weight {
				weight = outWeight
			}
			newArcs = append(newArcs, model.Arc{Source: producer, Target: consumer, Weight: weight})
			b.arcs = newArcs

			var newPlaces []model.Place
			for _, pl := range b.places {
				if pl.ID != p.ID {
					newPlaces = append(newPlaces, pl)
				}
			}
			b.places = newPlaces
			delete(b.placeSet, p.ID)

			changed = true
			break
		}
	}
}

// computeInitialMarking implements the initial-marking rule: every
// place with no incoming arcs receives one token; more than one such
// place is an ill-formed spec.
func computeInitialMarking(net *model.PetriNet) (model.Marking, error) {
	hasIncoming := make(map[model.ID]bool, len(net.Places))
	for _, a := range net.Arcs {
		hasIncoming[a.Target] = true
	}

	var entries []model.ID
	for _, p := range net.Places {
		if !hasIncoming[p.ID] {
			entries = append(entries, p.ID)
		}
	}

	if len(entries) > 1 {
		return model.Marking{}, &model.ConstructionError{
			Kind:    model.ConstructionMultipleEntryPoints,
			Message: fmt.Sprintf("net has %d entry places with no producer: %v", len(entries), entries),
		}
	}

	m := model.NewMarking()
	for _, e := range entries {
		m = m.Set(e, 1)
	}
	return m, nil
}
