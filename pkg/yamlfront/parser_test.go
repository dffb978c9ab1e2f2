package yamlfront

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/petrinet/pkg/model"
)

func TestParse_LinearPipeline(t *testing.T) {
	yml := []byte(`
jobs:
  lint:
    runs-on: ubuntu-latest
    steps: []
  test:
    needs: lint
    runs-on: ubuntu-latest
    steps: []
  build:
    needs: [lint, test]
    runs-on: ubuntu-latest
    steps: []
  deploy:
    needs: build
    runs-on: ubuntu-latest
    steps: []
`)

	spec, err := Parse(yml, "pipeline.yml")
	require.NoError(t, err)
	require.Len(t, spec.Steps, 4)

	build, ok := spec.StepByID("build")
	require.True(t, ok)
	assert.ElementsMatch(t, []model.ID{"lint", "test"}, build.Dependencies)
}

func TestParse_MissingJobsKey(t *testing.T) {
	_, err := Parse([]byte(`name: empty`), "empty.yml")
	require.Error(t, err)

	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ParseMissingJobs, perr.Kind)
}

func TestParse_EmptyDocument(t *testing.T) {
	_, err := Parse([]byte(``), "empty.yml")
	require.Error(t, err)
	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ParseMissingJobs, perr.Kind)
}

func TestParse_MissingDependency(t *testing.T) {
	yml := []byte(`
jobs:
  build:
    needs: [lint]
    steps: []
`)
	_, err := Parse(yml, "bad.yml")
	require.Error(t, err)

	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ParseMissingDependency, perr.Kind)
	assert.Contains(t, perr.FixHint, "Add job 'lint'")
	require.NotEmpty(t, perr.Snippet)
	assert.Contains(t, perr.Snippet, "    needs: [lint]")
}

func TestParse_ReservedKeyword(t *testing.T) {
	yml := []byte(`
jobs:
  on:
    steps: []
`)
	_, err := Parse(yml, "bad.yml")
	require.Error(t, err)

	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ParseReservedKeyword, perr.Kind)
	assert.NotEmpty(t, perr.Snippet)
}

func TestParse_CircularDependency(t *testing.T) {
	yml := []byte(`
jobs:
  a:
    needs: [c]
    steps: []
  b:
    needs: [a]
    steps: []
  c:
    needs: [b]
    steps: []
`)
	_, err := Parse(yml, "cycle.yml")
	require.Error(t, err)

	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, model.ParseCircularDependency, perr.Kind)
	assert.Len(t, perr.Cycle, 3)
	assert.ElementsMatch(t, []model.ID{"a", "b", "c"}, perr.Cycle)
	assert.NotEmpty(t, perr.Snippet)
}

func TestSnippetAround_ClipsToSourceBounds(t *testing.T) {
	text := []byte("one\ntwo\nthree\nfour\nfive")

	assert.Equal(t, []string{"one", "two", "three"}, snippetAround(text, 1))
	assert.Equal(t, []string{"one", "two", "three", "four", "five"}, snippetAround(text, 3))
	assert.Nil(t, snippetAround(text, 0))
}

func TestParse_UnknownTopLevelKeyIsWarning(t *testing.T) {
	yml := []byte(`
mystery: true
jobs:
  lint:
    steps: []
`)
	spec, err := Parse(yml, "warn.yml")
	require.NoError(t, err)
	assert.NotEmpty(t, spec.Warnings)
}

func TestParse_IfBecomesWhenGuard(t *testing.T) {
	yml := []byte(`
jobs:
  deploy:
    if: "github.ref == 'refs/heads/main'"
    steps: []
`)
	spec, err := Parse(yml, "guard.yml")
	require.NoError(t, err)
	deploy, ok := spec.StepByID("deploy")
	require.True(t, ok)
	assert.Equal(t, "github.ref == 'refs/heads/main'", deploy.When)
}
