package model

import "encoding/json"

// StepKind enumerates the kinds of IntentStep.
type StepKind string

const (
	StepAction   StepKind = "action"
	StepChoice   StepKind = "choice"
	StepParallel StepKind = "parallel"
	StepSync     StepKind = "sync"
)

// Attributes is a json.RawMessage-backed bag of per-kind step
// attributes ("paths" for choice, "branches" for parallel, arbitrary
// metadata). It is queried with gjson path lookups in
// pkg/condition/attrs.go rather than ad-hoc type assertions.
type Attributes json.RawMessage

// IsEmpty reports whether the attribute bag carries no data.
func (a Attributes) IsEmpty() bool {
	return len(a) == 0
}

// MarshalJSON renders the raw attribute bytes verbatim (or null).
func (a Attributes) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return a, nil
}

// UnmarshalJSON stores the raw attribute bytes verbatim.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	*a = append((*a)[0:0], data...)
	return nil
}

// IntentStep is one causal unit of an IntentSpec.
type IntentStep struct {
	ID           ID         `json:"id"`
	Kind         StepKind   `json:"kind"`
	Description  string     `json:"description,omitempty"`
	Dependencies []ID       `json:"dependencies,omitempty"`
	When         string     `json:"when,omitempty"`
	Attributes   Attributes `json:"attributes,omitempty"`
}

// IntentSpec is the ordered, acyclic set of steps the builder turns
// into a PetriNet.
type IntentSpec struct {
	Name        string       `json:"name"`
	Steps       []IntentStep `json:"steps"`
	OriginText  string       `json:"origin_prompt,omitempty"`
	TemplateID  string       `json:"template_id,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// StepByID returns the step with the given id, if present.
func (s *IntentSpec) StepByID(id ID) (IntentStep, bool) {
	for _, st := range s.Steps {
		if st.ID == id {
			return st, true
		}
	}
	return IntentStep{}, false
}
