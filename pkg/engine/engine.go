// Package engine wires the five subsystems (yamlfront, builder,
// validator, simulator, projector) behind a single facade: text/YAML
// in, net/report/trace/DAG out.
package engine

import (
	"context"

	"github.com/lyzr/petrinet/pkg/builder"
	"github.com/lyzr/petrinet/pkg/model"
	"github.com/lyzr/petrinet/pkg/projector"
	"github.com/lyzr/petrinet/pkg/simulator"
	"github.com/lyzr/petrinet/pkg/validator"
	"github.com/lyzr/petrinet/pkg/yamlfront"
)

// Config bundles the per-subsystem configuration so a caller (notably
// the CLI) can hold one value and thread it through every stage.
type Config struct {
	Build    builder.Config
	Validate validator.Config
	Simulate simulator.Config
}

// DefaultConfig returns the defaults for every subsystem.
func DefaultConfig() Config {
	return Config{
		Build:    builder.DefaultConfig(),
		Validate: validator.DefaultConfig(),
		Simulate: simulator.DefaultConfig(),
	}
}

// ParseYAML turns workflow YAML into an IntentSpec.
func ParseYAML(text []byte, path string) (*model.IntentSpec, error) {
	return yamlfront.Parse(text, path)
}

// BuildNet turns an IntentSpec into a PetriNet.
func BuildNet(intent *model.IntentSpec, cfg builder.Config) (*model.PetriNet, error) {
	return builder.Build(intent, cfg)
}

// Validate runs the structural and bounded-reachability checks over a
// net.
func Validate(ctx context.Context, net *model.PetriNet, cfg validator.Config) *model.ValidationReport {
	return validator.Validate(ctx, net, cfg)
}

// Simulate produces one deterministic firing trace for a net.
func Simulate(ctx context.Context, net *model.PetriNet, cfg simulator.Config) (*model.Trace, error) {
	return simulator.Simulate(ctx, net, cfg)
}

// Project lowers a validated net to a causal DAG.
func Project(net *model.PetriNet) (*model.DAG, error) {
	return projector.Project(net)
}

// Result bundles everything produced from one YAML document, the shape
// the `verify` CLI subcommand needs to report all at once.
type Result struct {
	Intent *model.IntentSpec
	Net    *model.PetriNet
	Report *model.ValidationReport
}

// Verify runs parse -> build -> validate in sequence, stopping at the
// first failure. It is the composite operation behind `petrinet verify`.
func Verify(ctx context.Context, text []byte, path string, cfg Config) (*Result, error) {
	intent, err := ParseYAML(text, path)
	if err != nil {
		return nil, err
	}
	net, err := BuildNet(intent, cfg.Build)
	if err != nil {
		return &Result{Intent: intent}, err
	}
	report := Validate(ctx, net, cfg.Validate)
	return &Result{Intent: intent, Net: net, Report: report}, nil
}
