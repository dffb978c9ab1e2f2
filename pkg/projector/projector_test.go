package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/petrinet/pkg/builder"
	"github.com/lyzr/petrinet/pkg/model"
)

func step(id model.ID, kind model.StepKind, deps ...model.ID) model.IntentStep {
	return model.IntentStep{ID: id, Kind: kind, Dependencies: deps}
}

func edgeSet(edges []model.DAGEdge) map[[2]model.ID]bool {
	out := make(map[[2]model.ID]bool, len(edges))
	for _, e := range edges {
		out[[2]model.ID{e.From, e.To}] = true
	}
	return out
}

func TestProject_LinearPipelineEdgesBeforeReduction(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "pipeline",
		Steps: []model.IntentStep{
			step("lint", model.StepAction),
			step("test", model.StepAction, "lint"),
			step("build", model.StepAction, "lint", "test"),
			step("deploy", model.StepAction, "build"),
		},
	}
	net, err := builder.Build(intent, builder.DefaultConfig())
	require.NoError(t, err)

	raw := singleProducerConsumerEdges(net)
	raw = dedupEdges(raw)

	got := edgeSet(raw)
	want := map[[2]model.ID]bool{
		{"transition::lint", "transition::test"}:  true,
		{"transition::lint", "transition::build"}: true,
		{"transition::test", "transition::build"}: true,
		{"transition::build", "transition::deploy"}: true,
	}
	assert.Equal(t, want, got)
}

func TestProject_LinearPipelineAfterTransitiveReduction(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "pipeline",
		Steps: []model.IntentStep{
			step("lint", model.StepAction),
			step("test", model.StepAction, "lint"),
			step("build", model.StepAction, "lint", "test"),
			step("deploy", model.StepAction, "build"),
		},
	}
	net, err := builder.Build(intent, builder.DefaultConfig())
	require.NoError(t, err)

	dag, err := Project(net)
	require.NoError(t, err)

	got := edgeSet(dag.Edges)
	want := map[[2]model.ID]bool{
		{"transition::lint", "transition::test"}:    true,
		{"transition::test", "transition::build"}:   true,
		{"transition::build", "transition::deploy"}: true,
	}
	assert.Equal(t, want, got)
	assert.Equal(t, net.ID, dag.DerivedFromPetriNetID)
	assert.Len(t, dag.Nodes, 4)
}

func TestProject_ActionLabelFallsBackToName(t *testing.T) {
	intent := &model.IntentSpec{
		Name:  "solo",
		Steps: []model.IntentStep{step("build", model.StepAction)},
	}
	net, err := builder.Build(intent, builder.DefaultConfig())
	require.NoError(t, err)

	dag, err := Project(net)
	require.NoError(t, err)
	require.Len(t, dag.Nodes, 1)
	assert.Equal(t, "build", dag.Nodes[0].ActionLabel)
}

func TestProject_IncomingEdgesCarryViaPlace(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "pipeline",
		Steps: []model.IntentStep{
			step("lint", model.StepAction),
			step("test", model.StepAction, "lint"),
		},
	}
	net, err := builder.Build(intent, builder.DefaultConfig())
	require.NoError(t, err)

	dag, err := Project(net)
	require.NoError(t, err)

	var testNode *model.DAGNode
	for i := range dag.Nodes {
		if dag.Nodes[i].ID == "transition::test" {
			testNode = &dag.Nodes[i]
		}
	}
	require.NotNil(t, testNode)
	require.Len(t, testNode.IncomingEdges, 1)
	assert.Equal(t, model.ID("transition::lint"), testNode.IncomingEdges[0].From)
	assert.Equal(t, model.ID("place::lint::post"), testNode.IncomingEdges[0].ViaPlace)
}

func TestProject_ParallelBranchesShareNoDirectEdge(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "training",
		Steps: []model.IntentStep{
			step("warmup", model.StepAction),
			withAttrs(step("parallel", model.StepParallel, "warmup"), `{"branches":["pass","shoot"]}`),
			step("sync", model.StepSync, "parallel"),
		},
	}
	net, err := builder.Build(intent, builder.DefaultConfig())
	require.NoError(t, err)

	dag, err := Project(net)
	require.NoError(t, err)

	got := edgeSet(dag.Edges)
	// Each branch gets its own fork-output place, so the fork fans out
	// to both branch transitions via distinct single-producer/single-
	// consumer places, and each branch transition feeds the join the
	// same way.
	assert.True(t, got[[2]model.ID{"transition::warmup", "transition::parallel"}])
	assert.True(t, got[[2]model.ID{"transition::parallel", "transition::parallel::branch::pass"}])
	assert.True(t, got[[2]model.ID{"transition::parallel", "transition::parallel::branch::shoot"}])
	assert.True(t, got[[2]model.ID{"transition::parallel::branch::pass", "transition::sync"}])
	assert.True(t, got[[2]model.ID{"transition::parallel::branch::shoot", "transition::sync"}])
	assert.False(t, got[[2]model.ID{"transition::parallel::branch::pass", "transition::parallel::branch::shoot"}])
	assert.False(t, got[[2]model.ID{"transition::parallel::branch::shoot", "transition::parallel::branch::pass"}])
}

func withAttrs(s model.IntentStep, raw string) model.IntentStep {
	s.Attributes = model.Attributes(raw)
	return s
}
