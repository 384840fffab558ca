package main

import (
	"errors"
	"testing"

	"github.com/vovakirdan/neuropong/internal/config"
)

func TestApplyTrainFlags(t *testing.T) {
	defer func() {
		flagPopulation, flagCSV, flagDifficulty, flagModel, flagNoSave = 0, "", "", "", false
	}()

	flagPopulation = 12
	flagCSV = "out.csv"
	flagDifficulty = "hard"
	flagModel = "champ"
	flagNoSave = true

	cfg := config.Default()
	cfg.Opponent.Mode = config.OpponentHuman
	if err := applyTrainFlags(&cfg); err != nil {
		t.Fatalf("applyTrainFlags() failed: %v", err)
	}

	if cfg.Opponent.Mode != config.OpponentTracking {
		t.Errorf("Mode = %q, expected tracking", cfg.Opponent.Mode)
	}
	if cfg.Trainer.PopulationSize != 12 {
		t.Errorf("PopulationSize = %d, expected 12", cfg.Trainer.PopulationSize)
	}
	if cfg.Telemetry.CSVPath != "out.csv" || cfg.Storage.ModelName != "champ" {
		t.Errorf("csv=%q model=%q", cfg.Telemetry.CSVPath, cfg.Storage.ModelName)
	}
	if cfg.Trainer.SaveOnBest {
		t.Error("SaveOnBest should be off with --no-save")
	}
	if cfg.Opponent.TrackingGain != 0.95 {
		t.Errorf("TrackingGain = %v, expected the hard preset", cfg.Opponent.TrackingGain)
	}
}

func TestApplyTrainFlagsRejectsUnknownDifficulty(t *testing.T) {
	defer func() { flagDifficulty = "" }()
	flagDifficulty = "nightmare"

	cfg := config.Default()
	err := applyTrainFlags(&cfg)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("applyTrainFlags() = %v, expected ErrInvalidConfig", err)
	}
}
