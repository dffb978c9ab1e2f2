package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lyzr/petrinet/pkg/engine"
	"github.com/lyzr/petrinet/pkg/model"
)

func newSimulateCmd(app *AppContext, root *rootFlags) *cobra.Command {
	var seed uint64
	var maxSteps uint32

	cmd := &cobra.Command{
		Use:   "simulate <workflow.yaml>",
		Short: "Parse, build and run one deterministic firing trace over a workflow's net",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitFunc(runSimulate(cmd, app, root, args[0], seed, maxSteps))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "deterministic firing seed")
	cmd.Flags().Uint32Var(&maxSteps, "max-steps", 1000, "step limit before the simulation is cut off")
	return cmd
}

func runSimulate(cmd *cobra.Command, app *AppContext, root *rootFlags, path string, seed uint64, maxSteps uint32) int {
	runID := uuid.NewString()
	log := app.Logger.WithRunID(runID)

	text, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderrWriter, "reading %s: %v\n", path, err)
		return 3
	}

	intent, err := engine.ParseYAML(text, path)
	if err != nil {
		fmt.Fprintf(stderrWriter, "%v\n", err)
		return 3
	}

	cfg := engine.DefaultConfig()
	net, err := engine.BuildNet(intent, cfg.Build)
	if err != nil {
		fmt.Fprintf(stderrWriter, "%v\n", err)
		return 3
	}

	cfg.Simulate.Seed = seed
	cfg.Simulate.MaxSteps = maxSteps

	trace, err := engine.Simulate(cmd.Context(), net, cfg.Simulate)
	if err != nil {
		var failure *model.SimulationFailure
		if errors.As(err, &failure) {
			fmt.Fprintf(stderrWriter, "%v\n", err)
			return 3
		}
		fmt.Fprintf(stderrWriter, "unexpected error: %v\n", err)
		return 3
	}

	log.Info("simulation complete", "termination", trace.TerminationReason, "events", len(trace.Events))

	if root.jsonOutput {
		enc := json.NewEncoder(stdoutWriter)
		enc.SetIndent("", "  ")
		if err := enc.Encode(trace); err != nil {
			fmt.Fprintf(stderrWriter, "encoding JSON: %v\n", err)
			return 3
		}
	} else {
		printSimulateTable(trace)
	}
	return 0
}

func printSimulateTable(trace *model.Trace) {
	for _, e := range trace.Events {
		fmt.Fprintf(stdoutWriter, "%4d  %s\n", e.Step, e.FiredTransition)
	}
	fmt.Fprintf(stdoutWriter, "termination: %s\n", trace.TerminationReason)
}
