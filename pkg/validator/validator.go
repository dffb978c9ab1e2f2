package validator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lyzr/petrinet/pkg/model"
)

// Validate runs the structural and bounded-reachability checks over
// net and returns a ValidationReport. It never returns a Go error for a
// structurally unsound or undecidable net — those are the fail and
// inconclusive report statuses, values rather than exceptions.
func Validate(ctx context.Context, net *model.PetriNet, cfg Config) *model.ValidationReport {
	start := time.Now()
	durations := make(map[string]time.Duration)
	report := &model.ValidationReport{CheckDurations: durations}

	if cfg.enabled(model.CheckStructural) {
		t0 := time.Now()
		status, detail := checkStructural(net)
		report.Checks = append(report.Checks, model.CheckOutcome{Check: model.CheckStructural, Status: status, Detail: detail})
		durations[string(model.CheckStructural)] = time.Since(t0)
	}

	needsExploration := cfg.enabled(model.CheckDeadlock) || cfg.enabled(model.CheckReachability) ||
		cfg.enabled(model.CheckLiveness) || cfg.enabled(model.CheckBoundedness)

	var exp exploration
	if needsExploration {
		t0 := time.Now()
		exp = explore(ctx, net, cfg)
		durations["exploration"] = time.Since(t0)
		report.StatesExplored = exp.explored
	}

	if cfg.enabled(model.CheckDeadlock) {
		report.Checks = append(report.Checks, deadlockOutcome(net, exp, report))
	}
	if cfg.enabled(model.CheckReachability) {
		report.Checks = append(report.Checks, reachabilityOutcome(exp))
	}
	if cfg.enabled(model.CheckLiveness) {
		report.Checks = append(report.Checks, livenessOutcome(net, exp))
	}
	if cfg.enabled(model.CheckBoundedness) {
		report.Checks = append(report.Checks, boundednessOutcome(exp))
	}

	if diags, ok := net.Metadata["diagnostics"].([]model.Event); ok {
		report.Diagnostics = diags
	}

	report.Status = overallStatus(report.Checks)
	if exp.cancelled {
		report.Status = model.StatusInconclusive
		report.Hints = append(report.Hints, "validation cancelled before exploration completed")
	}
	report.Elapsed = time.Since(start)
	return report
}

func overallStatus(checks []model.CheckOutcome) model.ReportStatus {
	status := model.StatusPass
	for _, c := range checks {
		switch c.Status {
		case model.StatusFail:
			return model.StatusFail
		case model.StatusInconclusive:
			status = model.StatusInconclusive
		}
	}
	return status
}

func deadlockOutcome(net *model.PetriNet, exp exploration, report *model.ValidationReport) model.CheckOutcome {
	switch {
	case exp.deadlockWitness != nil:
		report.Witness = exp.deadlockWitness
		report.Hints = append(report.Hints, missingJoinHints(net, exp.deadlockWitness.Marking)...)
		return model.CheckOutcome{Check: model.CheckDeadlock, Status: model.StatusFail, Detail: "reachable deadlocked marking found"}
	case !exp.exhausted:
		return model.CheckOutcome{Check: model.CheckDeadlock, Status: model.StatusInconclusive, Detail: "exploration bound reached before a deadlock could be ruled out"}
	default:
		return model.CheckOutcome{Check: model.CheckDeadlock, Status: model.StatusPass}
	}
}

func reachabilityOutcome(exp exploration) model.CheckOutcome {
	switch {
	case exp.foundFinal:
		return model.CheckOutcome{Check: model.CheckReachability, Status: model.StatusPass}
	case !exp.exhausted:
		return model.CheckOutcome{Check: model.CheckReachability, Status: model.StatusInconclusive, Detail: "exploration bound reached before the final marking could be found"}
	default:
		return model.CheckOutcome{Check: model.CheckReachability, Status: model.StatusFail, Detail: "final marking is not reachable"}
	}
}

func livenessOutcome(net *model.PetriNet, exp exploration) model.CheckOutcome {
	var missing []model.ID
	for _, t := range net.Transitions {
		if !exp.enabledSeen[t.ID] {
			missing = append(missing, t.ID)
		}
	}
	if len(missing) == 0 {
		return model.CheckOutcome{Check: model.CheckLiveness, Status: model.StatusPass}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	detail := fmt.Sprintf("never enabled in any explored state: %v", missing)
	if !exp.exhausted {
		return model.CheckOutcome{Check: model.CheckLiveness, Status: model.StatusInconclusive, Detail: detail}
	}
	return model.CheckOutcome{Check: model.CheckLiveness, Status: model.StatusFail, Detail: detail}
}

func boundednessOutcome(exp exploration) model.CheckOutcome {
	switch {
	case exp.boundViolation != "":
		return model.CheckOutcome{Check: model.CheckBoundedness, Status: model.StatusFail, Detail: exp.boundViolation}
	case !exp.exhausted:
		return model.CheckOutcome{Check: model.CheckBoundedness, Status: model.StatusInconclusive, Detail: "exploration bound reached before boundedness could be confirmed"}
	default:
		return model.CheckOutcome{Check: model.CheckBoundedness, Status: model.StatusPass}
	}
}

// missingJoinHints flags sink places left over in a deadlock witness
// that are dangling fork branches: a classic unmatched-fork deadlock.
func missingJoinHints(net *model.PetriNet, witness model.Marking) []string {
	dangling := net.DanglingForkSinks()
	var hints []string
	for _, p := range witness.Places() {
		if dangling[p] {
			hints = append(hints, fmt.Sprintf("place %q has no consumer; a join may be missing for its fork", p))
		}
	}
	return hints
}
