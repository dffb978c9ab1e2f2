// Package projector lowers a validated PetriNet to a causal DAG of
// transitions: a single-producer/single-consumer edge rule followed by
// parallel-edge dedup and transitive reduction.
package projector

import (
	"sort"

	"github.com/lyzr/petrinet/pkg/model"
)

// Project lowers net to a DAG, or returns a ProjectionError.
func Project(net *model.PetriNet) (*model.DAG, error) {
	if err := net.Validate(); err != nil {
		return nil, &model.ProjectionError{Message: err.Error()}
	}

	nodes := make([]model.DAGNode, 0, len(net.Transitions))
	for _, t := range net.Transitions {
		nodes = append(nodes, model.DAGNode{
			ID:                  t.ID,
			ActionLabel:         actionLabel(t),
			PetriTransitionID:   t.ID,
			PetriTransitionName: t.Name,
		})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	edges := singleProducerConsumerEdges(net)
	edges = dedupEdges(edges)
	edges = transitiveReduce(edges)

	attachIncomingEdges(nodes, edges)

	return &model.DAG{
		Nodes:                 nodes,
		Edges:                 edges,
		DerivedFromPetriNetID: net.ID,
	}, nil
}

func actionLabel(t model.Transition) string {
	if t.Action != "" {
		return t.Action
	}
	if t.Name != "" {
		return t.Name
	}
	return "execute"
}

// singleProducerConsumerEdges implements the edge rule: a place with
// exactly one producer and one consumer yields one causal edge; any
// other fan-in/fan-out yields no edge through that place, since
// choice/fork semantics cannot be expressed as a pure DAG edge.
func singleProducerConsumerEdges(net *model.PetriNet) []model.DAGEdge {
	var edges []model.DAGEdge
	for _, p := range net.Places {
		producers := net.ProducersOf(p.ID)
		consumers := net.ConsumersOf(p.ID)
		if len(producers) == 1 && len(consumers) == 1 {
			edges = append(edges, model.DAGEdge{From: producers[0], To: consumers[0], ViaPlace: []model.ID{p.ID}})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// dedupEdges merges edges that share endpoints, unioning their
// via_place lists.
func dedupEdges(edges []model.DAGEdge) []model.DAGEdge {
	type key struct{ from, to model.ID }
	merged := make(map[key][]model.ID)
	var order []key
	for _, e := range edges {
		k := key{e.From, e.To}
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		merged[k] = append(merged[k], e.ViaPlace...)
	}
	out := make([]model.DAGEdge, 0, len(order))
	for _, k := range order {
		vias := merged[k]
		sort.Slice(vias, func(i, j int) bool { return vias[i] < vias[j] })
		out = append(out, model.DAGEdge{From: k.from, To: k.to, ViaPlace: vias})
	}
	return out
}

// transitiveReduce removes edge a->c whenever a path a -> ... -> c of
// length >= 2 already exists among the remaining edges, iterating in
// lexicographic (from, to) order for deterministic results.
func transitiveReduce(edges []model.DAGEdge) []model.DAGEdge {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	for {
		removedAny := false
		for i, e := range edges {
			rest := make([]model.DAGEdge, 0, len(edges)-1)
			rest = append(rest, edges[:i]...)
			rest = append(rest, edges[i+1:]...)
			if reachableWithout(rest, e.From, e.To) {
				edges = rest
				removedAny = true
				break
			}
		}
		if !removedAny {
			break
		}
	}
	return edges
}

func reachableWithout(edges []model.DAGEdge, from, to model.ID) bool {
	adj := make(map[model.ID][]model.ID)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	visited := map[model.ID]bool{from: true}
	queue := []model.ID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func attachIncomingEdges(nodes []model.DAGNode, edges []model.DAGEdge) {
	byID := make(map[model.ID]int, len(nodes))
	for i, n := range nodes {
		byID[n.ID] = i
	}
	for _, e := range edges {
		idx, ok := byID[e.To]
		if !ok {
			continue
		}
		for _, via := range e.ViaPlace {
			nodes[idx].IncomingEdges = append(nodes[idx].IncomingEdges, model.IncomingEdge{From: e.From, ViaPlace: via})
		}
	}
	for i := range nodes {
		sort.Slice(nodes[i].IncomingEdges, func(a, b int) bool {
			if nodes[i].IncomingEdges[a].From != nodes[i].IncomingEdges[b].From {
				return nodes[i].IncomingEdges[a].From < nodes[i].IncomingEdges[b].From
			}
			return nodes[i].IncomingEdges[a].ViaPlace < nodes[i].IncomingEdges[b].ViaPlace
		})
	}
}
