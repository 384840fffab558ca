package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/neuropong/internal/platform/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse saved models and training runs",
	Long: `Open an interactive browser over the model database.

Controls:
  Up/Down/j/k  - Scroll
  Tab          - Switch between models and runs
  Q/Esc        - Quit`,
	Run: runBrowse,
}

func runBrowse(_ *cobra.Command, _ []string) {
	store := mustOpenStore()
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rc := runtimeConfig()
	if err := tui.RunBrowser(ctx, store, rc.ScreenW, rc.ScreenH); err != nil {
		store.Close()
		exitf("%v", err)
	}
}
