package commands

import (
	"github.com/spf13/cobra"
)

// EnvPrefix prefixes the environment variables read by the run command, as in
// DRIFTSIM_TICK_RATE.
const EnvPrefix = "DRIFTSIM"

// NewRootCmd returns the driftsim command with all its subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:              "driftsim",
		Short:            "Lamport clock drift simulator",
		TraverseChildren: true,
	}

	rootCmd.AddCommand(
		VersionCmd,
		NewRunCmd(),
		NewClusterCmd(),
		NewAnalyzeCmd(),
	)

	return rootCmd
}
