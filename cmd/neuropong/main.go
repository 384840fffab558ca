// neuropong trains and plays neuro-evolved Pong controllers in the terminal.
//
// Usage:
//
//	neuropong train               - Evolve a population against the tracking opponent
//	neuropong train --watch       - Train inside the TUI
//	neuropong play                - Play against the best saved controller
//	neuropong models              - List saved models
//	neuropong history             - Show recent generations of training runs
//	neuropong browse              - Browse models and runs interactively
//	neuropong config              - Write the effective config to YAML
//
// Global flags:
//
//	--fps <rate>        - Set tick rate (default: 60)
//	--seed <value>      - Set RNG seed for reproducible runs
//	--db <path>         - Set database path (default: from config)
//	--config <path>     - Use a custom config YAML
//	--log-level <lvl>   - debug, info, warn or error
//	--log-file <path>   - Write logs to a file instead of stderr
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagFPS      int
	flagSeed     int64
	flagDBPath   string
	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "neuropong",
	Short: "NeuroPong - evolve Pong players in your terminal",
	Long: `NeuroPong evolves a population of small neural networks that learn
to play Pong against a scripted opponent, then lets you play against
the best of them.

Available commands:
  train    - Run neuro-evolution training
  play     - Play against a trained controller
  models   - List or delete saved models
  history  - Show training history
  browse   - Interactive model and run browser
  config   - Write the effective config to YAML

Examples:
  neuropong train --population 50
  neuropong train --watch --speed 4
  neuropong play
  neuropong play --opponent learned
  neuropong history --limit 20`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to the model database (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")

	// Add subcommands
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(configCmd)
}
