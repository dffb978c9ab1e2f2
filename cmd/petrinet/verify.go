package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lyzr/petrinet/pkg/engine"
	"github.com/lyzr/petrinet/pkg/model"
)

var (
	exitFunc     = os.Exit
	stdoutWriter io.Writer = os.Stdout
	stderrWriter io.Writer = os.Stderr
)

func newVerifyCmd(app *AppContext, root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <workflow.yaml> [more.yaml ...]",
		Short: "Parse, build and validate one or more workflows, reporting deadlock/reachability/liveness/boundedness",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				exitFunc(runVerify(cmd, app, root, args[0]))
				return nil
			}
			exitFunc(runVerifyMany(cmd, app, root, args))
			return nil
		},
	}
	return cmd
}

// fileVerification is one file's outcome from the concurrent pass in
// runVerifyMany: either a report, or the error that stopped parse/build
// from reaching validation.
type fileVerification struct {
	path   string
	result *engine.Result
	err    error
}

// runVerifyMany validates several workflow files concurrently — the
// core engine calls share no mutable state, so each file's
// parse/build/validate sequence runs on its own goroutine.
// Results are printed sequentially, in input order, once every
// goroutine finishes. The worst per-file exit code (fail beats
// inconclusive beats pass; a parse/build error beats everything)
// determines the process exit code.
func runVerifyMany(cmd *cobra.Command, app *AppContext, root *rootFlags, paths []string) int {
	outcomes := make([]fileVerification, len(paths))

	g, ctx := errgroup.WithContext(cmd.Context())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			text, err := os.ReadFile(path)
			if err != nil {
				outcomes[i] = fileVerification{path: path, err: err}
				return nil
			}
			result, err := engine.Verify(ctx, text, path, engine.DefaultConfig())
			outcomes[i] = fileVerification{path: path, result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()

	// Exit codes ranked by severity: pass < inconclusive < fail < error.
	severity := map[int]int{0: 0, 2: 1, 1: 2, 3: 3}
	worst := 0
	for _, o := range outcomes {
		fmt.Fprintf(stdoutWriter, "== %s ==\n", o.path)
		code := reportOutcome(app, root, o)
		if severity[code] > severity[worst] {
			worst = code
		}
	}
	return worst
}

func reportOutcome(app *AppContext, root *rootFlags, o fileVerification) int {
	if o.err != nil {
		fmt.Fprintf(stderrWriter, "%v\n", o.err)
		return 3
	}

	app.Logger.WithRunID(uuid.NewString()).Info("validation complete",
		"path", o.path, "status", o.result.Report.Status, "states_explored", o.result.Report.StatesExplored)

	if root.jsonOutput {
		if err := printVerifyJSON(o.result.Report); err != nil {
			fmt.Fprintf(stderrWriter, "encoding JSON: %v\n", err)
			return 3
		}
	} else {
		printVerifyTable(o.result.Report)
	}

	switch o.result.Report.Status {
	case model.StatusPass:
		return 0
	case model.StatusFail:
		return 1
	default:
		return 2
	}
}

func runVerify(cmd *cobra.Command, app *AppContext, root *rootFlags, path string) int {
	text, err := os.ReadFile(path)
	if err != nil {
		return reportOutcome(app, root, fileVerification{path: path, err: err})
	}

	result, err := engine.Verify(cmd.Context(), text, path, engine.DefaultConfig())
	return reportOutcome(app, root, fileVerification{path: path, result: result, err: err})
}

func printVerifyJSON(report *model.ValidationReport) error {
	enc := json.NewEncoder(stdoutWriter)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printVerifyTable(report *model.ValidationReport) {
	fmt.Fprintf(stdoutWriter, "status: %s (explored %d states in %s)\n", report.Status, report.StatesExplored, report.Elapsed)
	for _, c := range report.Checks {
		if c.Detail != "" {
			fmt.Fprintf(stdoutWriter, "  %-13s %-12s %s\n", c.Check, c.Status, c.Detail)
		} else {
			fmt.Fprintf(stdoutWriter, "  %-13s %-12s\n", c.Check, c.Status)
		}
	}
	for _, h := range report.Hints {
		fmt.Fprintf(stdoutWriter, "hint: %s\n", h)
	}
}
