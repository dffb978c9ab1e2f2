package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunSimulate_LinearPipelineReachesNormalTermination(t *testing.T) {
	restoreIOWriters(t)
	var out bytes.Buffer
	stdoutWriter = &out

	path := writeWorkflow(t, linearPipelineYAML)
	code := runSimulate(testCmd(), testApp(), &rootFlags{}, path, 0, 1000)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "termination: normal_termination")
}

func TestRunSimulate_StepLimitStopsEarly(t *testing.T) {
	restoreIOWriters(t)
	var out bytes.Buffer
	stdoutWriter = &out

	path := writeWorkflow(t, linearPipelineYAML)
	code := runSimulate(testCmd(), testApp(), &rootFlags{}, path, 0, 1)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "termination: step_limit")
}

func TestRunSimulate_JSONOutput(t *testing.T) {
	restoreIOWriters(t)
	var out bytes.Buffer
	stdoutWriter = &out

	path := writeWorkflow(t, linearPipelineYAML)
	code := runSimulate(testCmd(), testApp(), &rootFlags{jsonOutput: true}, path, 0, 1000)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), `"termination_reason": "normal_termination"`)
}
