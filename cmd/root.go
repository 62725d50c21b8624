// Package cmd defines and implements the CLI commands for the harvestd executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvestd",
		Short: "A concurrent master-worker scheduler for news harvesting.",
		Long: `harvestd runs a bounded pool of scraping workers over a prioritized
set of news, RSS, and blog tasks, with shared rate limiting, bounded
retries, and per-run statistics.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./harvestd.yaml)")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
