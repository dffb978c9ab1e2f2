package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/lyzr/petrinet/pkg/model"
)

type frontierItem struct {
	marking model.Marking
	path    []model.ID
}

// exploration holds the result of one bounded BFS over the reachability
// graph, shared across the deadlock, reachability, liveness and
// boundedness checks.
type exploration struct {
	explored         int
	exhausted        bool // queue emptied naturally, without hitting a bound
	cancelled        bool
	deadlockWitness  *model.Witness
	foundFinal       bool
	enabledSeen      map[model.ID]bool
	boundViolation   string
	boundPlace       model.ID
	boundMarking     model.Marking
	boundFiringChain []model.ID
}

// explore performs a single bounded breadth-first search: markings are
// canonicalized and hashed for the visited set, and transitions fire in
// a fixed id order so witnesses stay
// reproducible.
func explore(ctx context.Context, net *model.PetriNet, cfg Config) exploration {
	result := exploration{enabledSeen: make(map[model.ID]bool)}
	finalMarking := net.DesignatedFinalMarking()

	visited := map[string]bool{net.Initial.Canonical(): true}
	queue := []frontierItem{{marking: net.Initial}}

	deadline := time.Now().Add(time.Duration(cfg.MaxMillis) * time.Millisecond)

	for len(queue) > 0 {
		if uint32(result.explored) >= cfg.KBound {
			return result
		}
		if ctx.Err() != nil {
			result.cancelled = true
			return result
		}
		if time.Now().After(deadline) {
			return result
		}

		item := queue[0]
		queue = queue[1:]
		result.explored++

		for _, p := range net.Places {
			if n := item.marking.At(p.ID); uint32(n) > cfg.BoundednessBound && result.boundViolation == "" {
				result.boundViolation = fmt.Sprintf("place %q holds %d tokens, exceeding bound %d", p.ID, n, cfg.BoundednessBound)
				result.boundPlace = p.ID
				result.boundMarking = item.marking
				result.boundFiringChain = item.path
			}
		}

		isFinal := item.marking.Equal(finalMarking)
		if isFinal {
			result.foundFinal = true
		}

		enabled := net.EnabledTransitions(item.marking)
		if len(enabled) == 0 {
			if !isFinal && result.deadlockWitness == nil {
				result.deadlockWitness = &model.Witness{
					FiringSequence: item.path,
					Marking:        item.marking,
					ExploredCount:  result.explored,
				}
			}
			continue
		}

		for _, t := range enabled {
			result.enabledSeen[t.ID] = true
			next := net.Fire(item.marking, t.ID)
			canon := next.Canonical()
			if visited[canon] {
				continue
			}
			visited[canon] = true
			path := make([]model.ID, len(item.path)+1)
			copy(path, item.path)
			path[len(item.path)] = t.ID
			queue = append(queue, frontierItem{marking: next, path: path})
		}
	}

	result.exhausted = true
	return result
}
