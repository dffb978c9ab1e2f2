package simulator

import (
	"context"

	"github.com/lyzr/petrinet/pkg/model"
)

// Stepper drives interactive simulation: the caller pumps Next/Select
// itself rather than the stepper owning a consumer loop.
type Stepper struct {
	net         *model.PetriNet
	marking     model.Marking
	step        int
	events      []model.TraceEvent
	diagnostics []model.Event
	trace       bool
	done        *model.TerminationReason
}

// NewStepper starts an interactive simulation from the net's initial
// marking.
func NewStepper(net *model.PetriNet, trace bool) *Stepper {
	return &Stepper{net: net, marking: net.Initial, trace: trace}
}

// Next returns the transitions enabled at the current marking. An empty
// result means the simulation has terminated; Trace().TerminationReason
// says why.
func (s *Stepper) Next(ctx context.Context) ([]model.Transition, error) {
	if ctx.Err() != nil {
		reason := model.TerminationCancelled
		s.done = &reason
		return nil, ctx.Err()
	}
	if s.done != nil {
		return nil, nil
	}
	enabled := s.net.EnabledTransitions(s.marking)
	if len(enabled) == 0 {
		reason := model.TerminationDeadlock
		if s.marking.Equal(s.net.DesignatedFinalMarking()) {
			reason = model.TerminationNormal
		}
		s.done = &reason
	}
	return enabled, nil
}

// Select fires the caller's chosen transition, which must have been
// present in the most recent Next() result.
func (s *Stepper) Select(ctx context.Context, id model.ID) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !s.net.IsEnabled(s.marking, id) {
		return &model.SimulationFailure{Kind: model.SimulationUnknownTransitionChoice, Message: "transition " + string(id) + " is not enabled"}
	}
	before := s.marking
	s.marking = s.net.Fire(s.marking, id)
	if s.trace {
		s.events = append(s.events, model.TraceEvent{
			Step:            s.step,
			FiredTransition: id,
			MarkingBefore:   before,
			MarkingAfter:    s.marking,
			EnabledBefore:   enabledIDs(s.net.EnabledTransitions(before)),
		})
		if t, ok := s.net.TransitionByID(id); ok {
			s.diagnostics = append(s.diagnostics, firingDiagnostics(s.net, t, s.marking)...)
		}
	}
	s.step++
	return nil
}

// Trace snapshots the interactive run so far into the same Trace shape
// Simulate produces.
func (s *Stepper) Trace() *model.Trace {
	reason := model.TerminationReason("")
	if s.done != nil {
		reason = *s.done
	}
	return &model.Trace{Events: s.events, FinalMarking: s.marking, TerminationReason: reason, Diagnostics: s.diagnostics}
}
