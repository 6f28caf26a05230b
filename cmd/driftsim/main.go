package main

import (
	"context"
	"os"

	cmd "github.com/mosaicnetworks/driftsim/cmd/driftsim/commands"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
