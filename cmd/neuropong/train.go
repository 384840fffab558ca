package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/platform/tui"
	"github.com/vovakirdan/neuropong/internal/pong"
	"github.com/vovakirdan/neuropong/internal/session"
	"github.com/vovakirdan/neuropong/internal/storage"
	"github.com/vovakirdan/neuropong/internal/telemetry"
)

var (
	flagPopulation int
	flagResume     bool
	flagTicks      uint64
	flagCSV        string
	flagDifficulty string
	flagModel      string
	flagWatch      bool
	flagSpeed      int
	flagNoSave     bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Evolve a population of Pong controllers",
	Long: `Train a population of neural controllers against the tracking opponent.

Every agent whose paddle misses the ball is culled. When a point ends the
episode the fittest survivor seeds the next generation, and every new best
is saved to the model database.

Headless training runs as fast as possible unless --fps is given.
Stop it with Ctrl+C or limit it with --ticks.

Difficulty options:
  easy   - Slow opponent, constant ball speed
  normal - Default opponent
  hard   - Fast opponent, steeper speed ramp
  fixed  - Constant ball speed

Examples:
  neuropong train
  neuropong train --population 100 --ticks 200000
  neuropong train --resume --csv ./runs/gens.csv
  neuropong train --watch --speed 8`,
	Run: runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&flagPopulation, "population", 0, "Population size (default from config)")
	trainCmd.Flags().BoolVar(&flagResume, "resume", false, "Seed the population from the latest saved model")
	trainCmd.Flags().Uint64Var(&flagTicks, "ticks", 0, "Stop after this many ticks (0 = until interrupted)")
	trainCmd.Flags().StringVar(&flagCSV, "csv", "", "Write one CSV row per generation to this file")
	trainCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	trainCmd.Flags().StringVar(&flagModel, "model", "", "Model name to save under (default from config)")
	trainCmd.Flags().BoolVar(&flagWatch, "watch", false, "Show training in the TUI")
	trainCmd.Flags().IntVar(&flagSpeed, "speed", 1, "Simulation ticks per frame with --watch")
	trainCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not save new best models")
}

func runTrain(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitf("%v", err)
	}
	if err := applyTrainFlags(&cfg); err != nil {
		exitf("%v", err)
	}

	logger, closeLog, err := newLogger(flagWatch)
	if err != nil {
		exitf("%v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := train(ctx, cmd, cfg, logger); err != nil {
		closeLog()
		exitf("%v", err)
	}
}

// applyTrainFlags applies the train flags on top of the loaded config.
func applyTrainFlags(cfg *config.Config) error {
	if err := config.ApplyPreset(cfg, config.DifficultyPreset(flagDifficulty)); err != nil {
		return err
	}
	cfg.Opponent.Mode = config.OpponentTracking
	if flagPopulation > 0 {
		cfg.Trainer.PopulationSize = flagPopulation
	}
	if flagCSV != "" {
		cfg.Telemetry.CSVPath = flagCSV
	}
	if flagModel != "" {
		cfg.Storage.ModelName = flagModel
	}
	if flagNoSave {
		cfg.Trainer.SaveOnBest = false
	}
	return cfg.Validate()
}

func train(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *log.Logger) error {
	var (
		sinks    pong.MultiSink
		deps     = session.Deps{Logger: logger, Seed: flagSeed, Resume: flagResume}
		progress = newProgress(logger)
	)
	sinks = append(sinks, progress)

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()

		repo := storage.NewModelRepo(store, cfg.Storage.ModelName)
		deps.Store = repo
		deps.Loader = repo

		recorder := storage.NewGenerationRecorder(store, storage.NewRunID(), logger)
		defer recorder.Close()
		sinks = append(sinks, recorder)
		logger.Info("training run started", "run", recorder.RunID(), "model", repo.Name())
	}

	csvSink, err := telemetry.CreateCSV(cfg.Telemetry.CSVPath, logger)
	if err != nil {
		return err
	}
	if csvSink != nil {
		defer func() {
			if err := csvSink.Close(); err != nil {
				logger.Warn("csv output incomplete", "error", err)
			}
		}()
		sinks = append(sinks, csvSink)
	}

	var status *tui.StatusLog
	if flagWatch {
		status = tui.NewStatusLog()
		sinks = append(sinks, status)
	}
	deps.Events = sinks

	sess, err := session.New(ctx, cfg, deps)
	if err != nil {
		return err
	}

	if flagWatch {
		err = watch(ctx, sess, status)
	} else {
		rate := 0
		if cmd.Flags().Changed("fps") {
			rate = flagFPS
		}
		err = session.NewLoop(sess, session.LoopOptions{
			TickRate: rate,
			MaxTicks: flagTicks,
			Logger:   logger,
		}).Run(ctx)
	}
	if err != nil {
		return err
	}

	progress.print(os.Stdout)
	return nil
}

// watch hosts a training session in the TUI until the user quits.
func watch(ctx context.Context, sess *session.Session, status *tui.StatusLog) error {
	defer sess.Close()
	return tui.Run(ctx, sess, nil, status, tui.Options{
		Runtime:       runtimeConfig(),
		StepsPerFrame: flagSpeed,
		Title:         fmt.Sprintf("Training (population %d)", sess.Config().Trainer.PopulationSize),
	})
}
