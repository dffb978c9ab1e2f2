package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/petrinet/pkg/model"
)

func step(id model.ID, kind model.StepKind, deps ...model.ID) model.IntentStep {
	return model.IntentStep{ID: id, Kind: kind, Dependencies: deps}
}

func TestBuild_LinearPipelineWithJoin(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "pipeline",
		Steps: []model.IntentStep{
			step("lint", model.StepAction),
			step("test", model.StepAction, "lint"),
			step("build", model.StepAction, "lint", "test"),
			step("deploy", model.StepAction, "build"),
		},
	}

	net, err := Build(intent, DefaultConfig())
	require.NoError(t, err)

	assert.Len(t, net.Transitions, 4)
	// lint::pre, lint::post, test::post, build::post, deploy::post, plus
	// a dedicated relay place for build's second consumer of lint::post
	// (lint also feeds test directly) — see DESIGN.md on the projector's
	// single-producer/single-consumer edge rule.
	assert.Len(t, net.Places, 6)

	buildT, ok := net.TransitionByID("transition::build")
	require.True(t, ok)
	assert.Equal(t, model.KindJoin, buildT.Kind)

	assert.Equal(t, 1, net.Initial.At("place::lint::pre"))
}

func TestBuild_ParallelWithExplicitSync(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "training",
		Steps: []model.IntentStep{
			step("fetch", model.StepAction),
			withAttrs(step("fanout", model.StepParallel, "fetch"), `{"branches":["a","b"]}`),
			step("join", model.StepSync, "fanout"),
		},
	}

	net, err := Build(intent, DefaultConfig())
	require.NoError(t, err)

	forkT, ok := net.TransitionByID("transition::fanout")
	require.True(t, ok)
	assert.Equal(t, model.KindFork, forkT.Kind)

	joinT, ok := net.TransitionByID("transition::join")
	require.True(t, ok)
	assert.Equal(t, model.KindJoin, joinT.Kind)
	assert.Len(t, net.InputArcs(joinT.ID), 2)
}

func TestBuild_UnmatchedForkWithSynthesisDisabled(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "orphan-fork",
		Steps: []model.IntentStep{
			withAttrs(step("fanout", model.StepParallel), `{"branches":["a","b"]}`),
		},
	}

	cfg := DefaultConfig()
	cfg.DisableSyncSynthesis = true
	net, err := Build(intent, cfg)
	require.NoError(t, err)

	sinks := net.Sinks()
	assert.Len(t, sinks, 2)
}

func TestBuild_UnmatchedForkSynthesizesJoinByDefault(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "auto-join",
		Steps: []model.IntentStep{
			withAttrs(step("fanout", model.StepParallel), `{"branches":["a","b"]}`),
		},
	}

	net, err := Build(intent, DefaultConfig())
	require.NoError(t, err)

	sinks := net.Sinks()
	assert.Len(t, sinks, 1)
}

func TestBuild_ChoiceFanOut(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "alerting",
		Steps: []model.IntentStep{
			step("check", model.StepAction),
			withAttrs(step("route", model.StepChoice, "check"), `{"paths":["ok","fail"]}`),
		},
	}

	net, err := Build(intent, DefaultConfig())
	require.NoError(t, err)

	okT, ok := net.TransitionByID("transition::route::branch::ok")
	require.True(t, ok)
	failT, ok := net.TransitionByID("transition::route::branch::fail")
	require.True(t, ok)

	okIn := net.InputArcs(okT.ID)
	failIn := net.InputArcs(failT.ID)
	require.Len(t, okIn, 1)
	require.Len(t, failIn, 1)
	assert.Equal(t, okIn[0].Source, failIn[0].Source)
}

func TestBuild_ChoiceWithMultipleDependenciesSynthesizesSharedEntry(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "two-gate",
		Steps: []model.IntentStep{
			step("start", model.StepAction),
			step("a", model.StepAction, "start"),
			step("b", model.StepAction, "start"),
			withAttrs(step("route", model.StepChoice, "a", "b"), `{"paths":["ok","fail"]}`),
		},
	}

	net, err := Build(intent, DefaultConfig())
	require.NoError(t, err)

	joinT, ok := net.TransitionByID("transition::route::join")
	require.True(t, ok)
	assert.Equal(t, model.KindJoin, joinT.Kind)
	assert.Len(t, net.InputArcs(joinT.ID), 2)
}

func TestBuild_EmptySpecRejected(t *testing.T) {
	_, err := Build(&model.IntentSpec{Name: "empty"}, DefaultConfig())
	require.Error(t, err)

	var cerr *model.ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, model.ConstructionEmptySpec, cerr.Kind)
}

func TestBuild_DanglingDependencyRejected(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "dangling",
		Steps: []model.IntentStep{
			step("deploy", model.StepAction, "missing"),
		},
	}
	_, err := Build(intent, DefaultConfig())
	require.Error(t, err)

	var cerr *model.ConstructionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, model.ConstructionDanglingReference, cerr.Kind)
}

func withAttrs(s model.IntentStep, raw string) model.IntentStep {
	s.Attributes = model.Attributes(raw)
	return s
}

func TestBuild_EmitsConstructionDiagnostics(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "training",
		Steps: []model.IntentStep{
			step("fetch", model.StepAction),
			withAttrs(step("fanout", model.StepParallel, "fetch"), `{"branches":["a","b"]}`),
			step("join", model.StepSync, "fanout"),
		},
	}

	net, err := Build(intent, DefaultConfig())
	require.NoError(t, err)

	diags, ok := net.Metadata["diagnostics"].([]model.Event)
	require.True(t, ok)
	require.NotEmpty(t, diags)

	var sawMarked, sawFork bool
	for _, e := range diags {
		switch e.Type {
		case model.EventPlaceMarked:
			sawMarked = true
		case model.EventForkTaken:
			sawFork = true
		}
		assert.True(t, e.At.IsZero(), "construction-time events must not carry a wall-clock timestamp")
	}
	assert.True(t, sawMarked)
	assert.True(t, sawFork)
}

func TestBuild_EmitsJoinDiagnosticForSynthesizedForkJoin(t *testing.T) {
	intent := &model.IntentSpec{
		Name: "auto-join",
		Steps: []model.IntentStep{
			withAttrs(step("fanout", model.StepParallel), `{"branches":["a","b"]}`),
		},
	}

	net, err := Build(intent, DefaultConfig())
	require.NoError(t, err)

	diags, ok := net.Metadata["diagnostics"].([]model.Event)
	require.True(t, ok)

	var joinCount int
	for _, e := range diags {
		if e.Type == model.EventJoinTaken {
			joinCount++
		}
	}
	assert.Equal(t, 1, joinCount)
}
