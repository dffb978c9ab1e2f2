package model

import "fmt"

// ParseErrorKind enumerates the ways ParseYAML can fail.
type ParseErrorKind string

const (
	ParseMalformedYAML      ParseErrorKind = "malformed_yaml"
	ParseMissingJobs        ParseErrorKind = "missing_jobs"
	ParseMissingDependency  ParseErrorKind = "missing_dependency"
	ParseReservedKeyword    ParseErrorKind = "reserved_keyword"
	ParseCircularDependency ParseErrorKind = "circular_dependency"
)

// ParseError is the structured diagnostic returned by pkg/yamlfront.
type ParseError struct {
	Kind    ParseErrorKind `json:"kind"`
	Line    int            `json:"line"`
	Column  int            `json:"column"`
	Context string         `json:"context"`
	FixHint string         `json:"fix_hint,omitempty"`
	Snippet []string       `json:"snippet,omitempty"`
	Cycle   []ID           `json:"cycle,omitempty"`
}

func (e *ParseError) Error() string {
	if e.FixHint != "" {
		return fmt.Sprintf("%s at %d:%d: %s (%s)", e.Kind, e.Line, e.Column, e.Context, e.FixHint)
	}
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Column, e.Context)
}

// Code returns the stable machine-readable error code.
func (e *ParseError) Code() string { return "parse_error." + string(e.Kind) }

// ConstructionErrorKind enumerates the ways build_net can fail.
type ConstructionErrorKind string

const (
	ConstructionDuplicateID         ConstructionErrorKind = "duplicate_id"
	ConstructionDanglingReference   ConstructionErrorKind = "dangling_reference"
	ConstructionUnmatchedFork       ConstructionErrorKind = "unmatched_fork"
	ConstructionMultipleEntryPoints ConstructionErrorKind = "multiple_entry_points"
	ConstructionEmptySpec           ConstructionErrorKind = "empty_spec"
	ConstructionInvalidGuard        ConstructionErrorKind = "invalid_guard"
	ConstructionAmbiguousBranches   ConstructionErrorKind = "ambiguous_branches"
)

// ConstructionError is returned by pkg/builder.
type ConstructionError struct {
	Kind    ConstructionErrorKind `json:"kind"`
	StepID  ID                    `json:"step_id,omitempty"`
	Message string                `json:"message"`
}

func (e *ConstructionError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("%s (step %s): %s", e.Kind, e.StepID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Code returns the stable machine-readable error code.
func (e *ConstructionError) Code() string { return "construction_error." + string(e.Kind) }

// SimulationFailureKind enumerates the ways simulate can fail.
type SimulationFailureKind string

const (
	SimulationInvalidInitialMarking   SimulationFailureKind = "invalid_initial_marking"
	SimulationUnknownTransitionChoice SimulationFailureKind = "unknown_transition_id"
)

// SimulationFailure is returned by pkg/simulator for programming errors
// (not for normal termination reasons, which are values on Trace).
type SimulationFailure struct {
	Kind    SimulationFailureKind `json:"kind"`
	Message string                `json:"message"`
}

func (e *SimulationFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Code returns the stable machine-readable error code.
func (e *SimulationFailure) Code() string { return "simulation_failure." + string(e.Kind) }

// ProjectionError is returned by pkg/projector when the source net is
// invalid.
type ProjectionError struct {
	Message string `json:"message"`
}

func (e *ProjectionError) Error() string { return "projection_error: " + e.Message }

// Code returns the stable machine-readable error code.
func (e *ProjectionError) Code() string { return "projection_error" }
