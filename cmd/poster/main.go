// Command poster runs the scheduled persona posting agent.
//
// A scheduler (cron, systemd timer) invokes `poster run` every few minutes.
// Each invocation makes one posting decision and exits: 0 when it skipped,
// posted, or had nothing to post; 1 on a publish failure or any other error.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"poster/pkg/logx"
	"poster/pkg/version"
)

const defaultStateDir = ".poster"

var (
	// Global flags
	configPath string
	stateDir   string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "poster",
	Short: "Scheduled persona posting agent",
	Long: `poster decides once per invocation whether and what to post.

It keeps the persona's mood, energy, and daily quota in a state file, builds a
prompt from the configured persona and slot, asks a generation backend for
text, validates it, falls back to a static pool when needed, and publishes.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logx.SetDebug(true)
		}
	},
}

func init() { //nolint:gochecknoinits // cobra command registration
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: embedded config)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", defaultStateDir, "directory for state, secrets, caches, and history")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(), statusCmd, newHistoryCmd(), secretsCmd, versionCmd)
	rootCmd.Version = version.Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "poster: %v\n", err)
		os.Exit(1)
	}
}
