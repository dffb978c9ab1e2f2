package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lyzr/petrinet/pkg/model"
)

// checkStructural runs the structural checks: arc endpoints exist
// (already guaranteed by PetriNet.Validate), every
// transition has at least one input and one output, forks have at
// least two outputs, joins have at least two inputs, and any place fed
// into more than one consumer must route exclusively through
// choice-kind transitions (a genuine free-choice XOR-split) rather than
// racing a choice against a non-choice sibling on the same token.
func checkStructural(net *model.PetriNet) (model.ReportStatus, string) {
	net.Index()
	var violations []string

	for _, t := range net.Transitions {
		ins := net.InputArcs(t.ID)
		outs := net.OutputArcs(t.ID)
		if len(ins) == 0 {
			violations = append(violations, fmt.Sprintf("transition %q has no input", t.ID))
		}
		if len(outs) == 0 {
			violations = append(violations, fmt.Sprintf("transition %q has no output", t.ID))
		}
		if t.Kind == model.KindFork && len(outs) < 2 {
			violations = append(violations, fmt.Sprintf("fork transition %q has fewer than two outputs", t.ID))
		}
		if t.Kind == model.KindJoin && len(ins) < 2 {
			violations = append(violations, fmt.Sprintf("join transition %q has fewer than two inputs", t.ID))
		}
	}

	for _, p := range net.Places {
		consumers := net.ConsumersOf(p.ID)
		if len(consumers) < 2 {
			continue
		}
		for _, cID := range consumers {
			c, ok := net.TransitionByID(cID)
			if ok && c.Kind != model.KindChoice {
				violations = append(violations, fmt.Sprintf(
					"place %q has multiple consumers but %q is not a choice transition (non-free-choice conflict)", p.ID, cID))
			}
		}
	}

	if len(violations) == 0 {
		return model.StatusPass, ""
	}
	sort.Strings(violations)
	return model.StatusFail, strings.Join(violations, "; ")
}
