package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/neuropong/internal/config"
)

var (
	flagConfigOut   string
	flagConfigForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the effective configuration to a YAML file",
	Long: `Write the configuration neuropong would run with (defaults, any
--config file and the --db override) as YAML, ready to edit.

By default it writes ~/.neuropong/config.yaml, which every command loads.

Examples:
  neuropong config
  neuropong config --out ./configs/neuropong.yaml
  neuropong config --config ./base.yaml --out ./tuned.yaml --force`,
	Run: runConfig,
}

func init() {
	configCmd.Flags().StringVar(&flagConfigOut, "out", "", "Output path (default ~/.neuropong/config.yaml)")
	configCmd.Flags().BoolVar(&flagConfigForce, "force", false, "Overwrite an existing file")
}

func runConfig(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}

	path := flagConfigOut
	if path == "" {
		path = config.UserConfigPath()
	}
	if path == "" {
		exitf("no home directory; pass --out")
	}
	if _, err := os.Stat(path); err == nil && !flagConfigForce {
		exitf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.WriteYAML(cfg, path); err != nil {
		exitf("%v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}
