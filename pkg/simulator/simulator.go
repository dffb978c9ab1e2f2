package simulator

import (
	"context"
	"sort"

	"github.com/lyzr/petrinet/pkg/model"
)

// Simulate runs a deterministic token-firing pass over net, producing a
// Trace; cfg.Mode is not consulted (interactive runs go through
// Stepper). It never returns an error
// for ordinary termination (deadlock, step limit, cancellation are
// Trace-level outcomes); it returns an error only for a genuinely
// malformed initial marking, wrapped as a SimulationFailure.
func Simulate(ctx context.Context, net *model.PetriNet, cfg Config) (*model.Trace, error) {
	if err := checkInitialMarking(net); err != nil {
		return nil, err
	}

	marking := net.Initial
	final := net.DesignatedFinalMarking()
	var events []model.TraceEvent
	var diagnostics []model.Event

	for step := 0; step < int(cfg.MaxSteps); step++ {
		if ctx.Err() != nil {
			return &model.Trace{Events: events, FinalMarking: marking, TerminationReason: model.TerminationCancelled, Diagnostics: diagnostics}, nil
		}

		enabled := net.EnabledTransitions(marking)
		if len(enabled) == 0 {
			reason := model.TerminationDeadlock
			if marking.Equal(final) {
				reason = model.TerminationNormal
			}
			return &model.Trace{Events: events, FinalMarking: marking, TerminationReason: reason, Diagnostics: diagnostics}, nil
		}

		h := mixStep(cfg.Seed, uint64(step))
		chosen := enabled[int(h%uint64(len(enabled)))]

		before := marking
		marking = net.Fire(marking, chosen.ID)

		if cfg.Trace {
			events = append(events, model.TraceEvent{
				Step:            step,
				FiredTransition: chosen.ID,
				MarkingBefore:   before,
				MarkingAfter:    marking,
				EnabledBefore:   enabledIDs(enabled),
			})
			diagnostics = append(diagnostics, firingDiagnostics(net, chosen, marking)...)
		}
	}

	return &model.Trace{Events: events, FinalMarking: marking, TerminationReason: model.TerminationStepLimit, Diagnostics: diagnostics}, nil
}

// firingDiagnostics turns one transition firing into its audit events:
// always a transition.fired record, plus a kind-specific record for
// choice/fork/join transitions, plus one place.marked record per place
// the firing added tokens to.
func firingDiagnostics(net *model.PetriNet, t model.Transition, after model.Marking) []model.Event {
	events := []model.Event{
		{Type: model.EventTransitionFired, Data: map[string]any{"transition": string(t.ID)}},
	}
	switch t.Kind {
	case model.KindChoice:
		events = append(events, model.Event{Type: model.EventChoiceTaken, Data: map[string]any{"transition": string(t.ID)}})
	case model.KindFork:
		events = append(events, model.Event{Type: model.EventForkTaken, Data: map[string]any{"transition": string(t.ID)}})
	case model.KindJoin:
		events = append(events, model.Event{Type: model.EventJoinTaken, Data: map[string]any{"transition": string(t.ID)}})
	}
	for _, a := range net.OutputArcs(t.ID) {
		events = append(events, model.Event{Type: model.EventPlaceMarked, Data: map[string]any{"place": string(a.Target), "count": after.At(a.Target)}})
	}
	return events
}

func enabledIDs(ts []model.Transition) []model.ID {
	ids := make([]model.ID, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func checkInitialMarking(net *model.PetriNet) error {
	net.Index()
	for _, p := range net.Initial.Places() {
		if _, ok := net.PlaceByID(p); !ok {
			return &model.SimulationFailure{
				Kind:    model.SimulationInvalidInitialMarking,
				Message: "initial marking references unknown place " + string(p),
			}
		}
	}
	return nil
}
