package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/platform/tui"
	"github.com/vovakirdan/neuropong/internal/pong"
	"github.com/vovakirdan/neuropong/internal/session"
	"github.com/vovakirdan/neuropong/internal/storage"
)

var (
	flagOpponent   string
	flagPlayModel  string
	flagPlaySpeed  int
	flagResetScore bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play against a trained controller",
	Long: `Play Pong against the latest saved controller.

With --opponent human you hold the right paddle. With --opponent learned
the saved controller plays both paddles and you watch.
Without a saved model the controller starts from random weights.

Controls:
  Up/W       - Move paddle up
  Down/S     - Move paddle down
  R          - Reset scores
  P/Esc      - Pause
  Q/Ctrl+C   - Quit

Examples:
  neuropong play
  neuropong play --opponent learned --speed 2
  neuropong play --model champion`,
	Run: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagOpponent, "opponent", string(config.OpponentHuman), "Opponent: human or learned")
	playCmd.Flags().StringVar(&flagPlayModel, "model", "", "Model name to load (default from config)")
	playCmd.Flags().IntVar(&flagPlaySpeed, "speed", 1, "Simulation ticks per frame")
	playCmd.Flags().BoolVar(&flagResetScore, "reset-scores", false, "Reset scores after every point")
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}

	mode := config.OpponentMode(flagOpponent)
	if !mode.Versus() {
		exitf("unknown opponent %q (want human or learned)", flagOpponent)
	}
	cfg.Opponent.Mode = mode
	cfg.Trainer.PopulationSize = 1
	cfg.Trainer.ResetScoresInVersus = flagResetScore
	if flagPlayModel != "" {
		cfg.Storage.ModelName = flagPlayModel
	}

	logger, closeLog, err := newLogger(true)
	if err != nil {
		exitf("%v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := &session.InputFlags{}
	status := tui.NewStatusLog()
	deps := session.Deps{
		Events: pong.MultiSink{status},
		Logger: logger,
		Seed:   flagSeed,
	}
	if mode == config.OpponentHuman {
		deps.Input = input
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
		deps.Loader = storage.NewModelRepo(store, cfg.Storage.ModelName)
	}

	sess, err := session.New(ctx, cfg, deps)
	if err != nil {
		closeLog()
		exitf("%v", err)
	}
	defer sess.Close()

	title := fmt.Sprintf("You vs %s", cfg.Storage.ModelName)
	if mode == config.OpponentLearned {
		title = fmt.Sprintf("%s vs itself", cfg.Storage.ModelName)
	}
	if err := tui.Run(ctx, sess, input, status, tui.Options{
		Runtime:       runtimeConfig(),
		StepsPerFrame: flagPlaySpeed,
		Title:         title,
	}); err != nil {
		logger.Error("play stopped", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
