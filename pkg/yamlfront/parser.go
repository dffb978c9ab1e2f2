// Package yamlfront parses GitHub-Actions-style workflow YAML into an
// IntentSpec. It uses gopkg.in/yaml.v3's Node tree so every diagnostic
// carries an accurate line/column; every failure is returned as a
// *model.ParseError.
package yamlfront

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lyzr/petrinet/pkg/model"
)

var reservedJobIDs = map[string]bool{
	"on": true, "jobs": true, "name": true, "env": true,
	"defaults": true, "permissions": true, "concurrency": true,
}

// rawJob mirrors the subset of a GitHub Actions job this front-end
// cares about; everything else round-trips as raw YAML nodes so
// unrecognized keys can still be reported as warnings.
type rawJob struct {
	Needs    needsList    `yaml:"needs"`
	If       string       `yaml:"if"`
	Strategy *rawStrategy `yaml:"strategy"`
}

// needsList accepts both forms of needs: a single job id or a list.
type needsList []string

func (n *needsList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*n = needsList{node.Value}
		return nil
	}
	return node.Decode((*[]string)(n))
}

type rawStrategy struct {
	Matrix map[string]any `yaml:"matrix"`
}

var knownTopLevelKeys = map[string]bool{
	"jobs": true, "on": true, "name": true, "env": true,
	"defaults": true, "permissions": true, "concurrency": true,
	"run-name": true,
}

var knownJobKeys = map[string]bool{
	"needs": true, "if": true, "strategy": true, "runs-on": true,
	"steps": true, "name": true, "env": true, "timeout-minutes": true,
	"outputs": true, "permissions": true, "container": true,
	"services": true, "with": true, "uses": true, "secrets": true,
	"concurrency": true, "environment": true, "defaults": true,
}

// Parse reads YAML text (with path used only for diagnostic context)
// and returns an IntentSpec where each job becomes one action step.
func Parse(text []byte, path string) (*model.IntentSpec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(text, &root); err != nil {
		return nil, &model.ParseError{
			Kind:    model.ParseMalformedYAML,
			Line:    1,
			Column:  1,
			Context: err.Error(),
			FixHint: "fix the YAML syntax error and retry",
			Snippet: snippetAround(text, 1),
		}
	}

	if len(root.Content) == 0 {
		return nil, missingJobsError(text, 1, 1, "document is empty")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, missingJobsError(text, doc.Line, doc.Column, "top-level document is not a mapping")
	}

	jobsNode, warnings := findTopLevel(doc)

	if jobsNode == nil {
		return nil, missingJobsError(text, doc.Line, doc.Column, "missing required top-level key 'jobs'")
	}
	if jobsNode.Kind != yaml.MappingNode || len(jobsNode.Content) == 0 {
		return nil, missingJobsError(text, jobsNode.Line, jobsNode.Column, "'jobs' must be a non-empty mapping")
	}

	steps, needsLines, stepWarnings, err := parseJobs(jobsNode, text)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, stepWarnings...)

	if err := checkReferences(steps, needsLines, text); err != nil {
		return nil, err
	}
	if err := checkCycles(steps, needsLines, text); err != nil {
		return nil, err
	}

	spec := &model.IntentSpec{
		Name:     pathToName(path),
		Steps:    steps,
		Warnings: warnings,
	}
	return spec, nil
}

// snippetAround returns up to two lines of context on either side of the
// 1-indexed line, clipped to the bounds of text, for ParseError.Snippet.
func snippetAround(text []byte, line int) []string {
	if line < 1 {
		return nil
	}
	lines := strings.Split(string(text), "\n")
	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return nil
	}
	return append([]string(nil), lines[start:end]...)
}

func pathToName(path string) string {
	if path == "" {
		return "workflow"
	}
	return path
}

// findTopLevel walks the document's key/value pairs, returning the
// "jobs" value node and a list of warnings for unknown top-level keys.
func findTopLevel(doc *yaml.Node) (*yaml.Node, []string) {
	var jobs *yaml.Node
	var warnings []string
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		val := doc.Content[i+1]
		if key.Value == "jobs" {
			jobs = val
			continue
		}
		if !knownTopLevelKeys[key.Value] {
			warnings = append(warnings, fmt.Sprintf("unknown top-level key %q at line %d", key.Value, key.Line))
		}
	}
	return jobs, warnings
}

type needsLine struct {
	jobLine int
	needsAt map[string]int // dependency job id -> line of the needs entry
}

func parseJobs(jobsNode *yaml.Node, text []byte) ([]model.IntentStep, map[string]needsLine, []string, error) {
	var steps []model.IntentStep
	needsLines := make(map[string]needsLine)
	var warnings []string

	for i := 0; i+1 < len(jobsNode.Content); i += 2 {
		idNode := jobsNode.Content[i]
		jobNode := jobsNode.Content[i+1]
		jobID := idNode.Value

		if reservedJobIDs[jobID] {
			return nil, nil, nil, &model.ParseError{
				Kind:    model.ParseReservedKeyword,
				Line:    idNode.Line,
				Column:  idNode.Column,
				Context: fmt.Sprintf("job id %q is a reserved keyword", jobID),
				FixHint: fmt.Sprintf("rename job %q to a non-reserved identifier", jobID),
				Snippet: snippetAround(text, idNode.Line),
			}
		}

		var job rawJob
		if err := jobNode.Decode(&job); err != nil {
			return nil, nil, nil, &model.ParseError{
				Kind:    model.ParseMalformedYAML,
				Line:    jobNode.Line,
				Column:  jobNode.Column,
				Context: fmt.Sprintf("job %q: %v", jobID, err),
				Snippet: snippetAround(text, jobNode.Line),
			}
		}

		for _, k := range childKeys(jobNode) {
			if !knownJobKeys[k] {
				warnings = append(warnings, fmt.Sprintf("unknown key %q in job %q", k, jobID))
			}
		}

		nl := needsLine{jobLine: idNode.Line, needsAt: make(map[string]int)}
		needsNode := findChild(jobNode, "needs")
		if needsNode != nil {
			if needsNode.Kind == yaml.ScalarNode {
				nl.needsAt[needsNode.Value] = needsNode.Line
			}
			for _, n := range needsNode.Content {
				nl.needsAt[n.Value] = n.Line
			}
		}
		needsLines[jobID] = nl

		deps := make([]model.ID, 0, len(job.Needs))
		for _, d := range job.Needs {
			deps = append(deps, model.ID(d))
		}

		attrs := stepAttributes(job)

		steps = append(steps, model.IntentStep{
			ID:           model.ID(jobID),
			Kind:         model.StepAction,
			Dependencies: deps,
			When:         job.If,
			Attributes:   attrs,
		})
	}

	// Deterministic order: by id, matching the builder's pure-function
	// requirement on step order (callers may also pass steps already
	// ordered by dependency; the builder does not require topological
	// order, only that ids are unique and deps resolve).
	sort.Slice(steps, func(i, j int) bool { return steps[i].ID < steps[j].ID })

	return steps, needsLines, warnings, nil
}

// stepAttributes surfaces that a job used a strategy.matrix without
// expanding it: full matrix fan-out is out of scope, but recording that
// a job *was* a matrix job costs nothing.
func stepAttributes(job rawJob) model.Attributes {
	if job.Strategy == nil || len(job.Strategy.Matrix) == 0 {
		return nil
	}
	return model.Attributes(`{"matrix":true}`)
}

func childKeys(mapping *yaml.Node) []string {
	var keys []string
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys
}

func findChild(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func missingJobsError(text []byte, line, col int, context string) *model.ParseError {
	return &model.ParseError{
		Kind:    model.ParseMissingJobs,
		Line:    line,
		Column:  col,
		Context: context,
		FixHint: "add a top-level 'jobs:' mapping with at least one job",
		Snippet: snippetAround(text, line),
	}
}

// checkReferences verifies every needs: entry references a known job id.
func checkReferences(steps []model.IntentStep, needsLines map[string]needsLine, text []byte) error {
	known := make(map[string]bool, len(steps))
	for _, s := range steps {
		known[string(s.ID)] = true
	}
	for _, s := range steps {
		for _, dep := range s.Dependencies {
			if !known[string(dep)] {
				line := needsLines[string(s.ID)].needsAt[string(dep)]
				return &model.ParseError{
					Kind:    model.ParseMissingDependency,
					Line:    line,
					Column:  1,
					Context: fmt.Sprintf("job %q needs unknown job %q", s.ID, dep),
					FixHint: fmt.Sprintf("Add job '%s' or remove the reference", dep),
					Snippet: snippetAround(text, line),
				}
			}
		}
	}
	return nil
}

// checkCycles runs iterative DFS keeping an explicit discovery stack; a
// back-edge to a node still on the stack is a cycle.
func checkCycles(steps []model.IntentStep, needsLines map[string]needsLine, text []byte) error {
	deps := make(map[string][]string, len(steps))
	for _, s := range steps {
		ds := make([]string, 0, len(s.Dependencies))
		for _, d := range s.Dependencies {
			ds = append(ds, string(d))
		}
		deps[string(s.ID)] = ds
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(steps))
	parent := make(map[string]string)

	// cycleFrom walks the parent chain from the node that just found a
	// back-edge (cur) up to the gray ancestor it points at (target),
	// which yields the cycle's members in dependency order.
	cycleFrom := func(cur, target string) []string {
		path := []string{cur}
		for cur != target {
			cur = parent[cur]
			path = append(path, cur)
		}
		return path
	}

	var visit func(id string) error
	visit = func(id string) error {
		color[id] = gray
		for _, dep := range deps[id] {
			switch color[dep] {
			case white:
				parent[dep] = id
				if err := visit(dep); err != nil {
					return err
				}
			case gray:
				cycle := cycleFrom(id, dep)
				ids := make([]model.ID, len(cycle))
				for i, c := range cycle {
					ids[i] = model.ID(c)
				}
				line := needsLines[id].needsAt[dep]
				return &model.ParseError{
					Kind:    model.ParseCircularDependency,
					Line:    line,
					Column:  1,
					Context: fmt.Sprintf("circular dependency involving job %q", dep),
					Cycle:   ids,
					Snippet: snippetAround(text, line),
				}
			}
		}
		color[id] = black
		return nil
	}

	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		ids = append(ids, string(s.ID))
	}
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}
