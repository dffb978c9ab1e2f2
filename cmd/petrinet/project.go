package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lyzr/petrinet/pkg/engine"
	"github.com/lyzr/petrinet/pkg/model"
)

func newProjectCmd(app *AppContext, root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project <workflow.yaml>",
		Short: "Parse and build a workflow's net, then project it onto a causal DAG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exitFunc(runProject(app, root, args[0]))
			return nil
		},
	}
	return cmd
}

func runProject(app *AppContext, root *rootFlags, path string) int {
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

	dag, err := engine.Project(net)
	if err != nil {
		fmt.Fprintf(stderrWriter, "%v\n", err)
		return 3
	}

	log.Info("projection complete", "nodes", len(dag.Nodes), "edges", len(dag.Edges))

	if root.jsonOutput {
		enc := json.NewEncoder(stdoutWriter)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dag); err != nil {
			fmt.Fprintf(stderrWriter, "encoding JSON: %v\n", err)
			return 3
		}
	} else {
		printProjectTable(dag)
	}
	return 0
}

func printProjectTable(dag *model.DAG) {
	for _, e := range dag.Edges {
		fmt.Fprintf(stdoutWriter, "%s -> %s\n", e.From, e.To)
	}
}
