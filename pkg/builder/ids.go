package builder

import (
	"fmt"

	"github.com/lyzr/petrinet/pkg/model"
)

// idGen synthesizes deterministic ids. In "default" mode ids are a pure
// function of the step id; in "minimal" mode they are a pure function
// of construction order (itself a pure function of step order), so
// identical intents always build byte-identical nets.
type idGen struct {
	strategy  NamingStrategy
	nextPlace int
	nextTrans int
}

func newIDGen(strategy NamingStrategy) *idGen {
	return &idGen{strategy: strategy}
}

func (g *idGen) place(defaultID string) model.ID {
	if g.strategy == NamingMinimal {
		g.nextPlace++
		return model.ID(fmt.Sprintf("p%d", g.nextPlace))
	}
	return model.ID(defaultID)
}

func (g *idGen) transition(defaultID string) model.ID {
	if g.strategy == NamingMinimal {
		g.nextTrans++
		return model.ID(fmt.Sprintf("t%d", g.nextTrans))
	}
	return model.ID(defaultID)
}

func prePlaceID(step model.ID) string    { return fmt.Sprintf("place::%s::pre", step) }
func postPlaceID(step model.ID) string   { return fmt.Sprintf("place::%s::post", step) }
func branchPlaceID(step model.ID, label string) string {
	return fmt.Sprintf("place::%s::branch::%s", step, label)
}
func mergePlaceID(step model.ID) string { return fmt.Sprintf("place::%s::merge", step) }
func fanoutPlaceID(dep, consumer model.ID) string {
	return fmt.Sprintf("place::%s::to::%s", dep, consumer)
}

func actionTransitionID(step model.ID) string { return fmt.Sprintf("transition::%s", step) }
func branchTransitionID(step model.ID, label string) string {
	return fmt.Sprintf("transition::%s::branch::%s", step, label)
}
func implicitJoinID(step model.ID) string { return fmt.Sprintf("transition::%s::join", step) }
func forkJoinID(step model.ID) string     { return fmt.Sprintf("transition::fork::%s::join", step) }
