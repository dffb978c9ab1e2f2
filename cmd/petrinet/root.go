package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	jsonOutput bool
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "petrinet",
		Short:         "petrinet turns workflow descriptions into verified, simulatable Petri nets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "emit machine-readable JSON instead of a table")

	cmd.AddCommand(newVerifyCmd(app, flags))
	cmd.AddCommand(newSimulateCmd(app, flags))
	cmd.AddCommand(newProjectCmd(app, flags))

	return cmd
}
