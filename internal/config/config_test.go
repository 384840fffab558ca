package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := Parse(DefaultYAML())
	if err != nil {
		t.Fatalf("Parse(embedded) failed: %v", err)
	}
	if cfg != Default() {
		t.Errorf("embedded defaults differ from Default():\n%+v\n%+v", cfg, Default())
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestValidateVersusRequiresSinglePopulation(t *testing.T) {
	for _, mode := range []OpponentMode{OpponentHuman, OpponentLearned} {
		cfg := Default()
		cfg.Opponent.Mode = mode
		cfg.Trainer.PopulationSize = 2

		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("mode %s with population 2: Validate() = %v, expected ErrInvalidConfig", mode, err)
		}

		cfg.Trainer.PopulationSize = 1
		if err := cfg.Validate(); err != nil {
			t.Errorf("mode %s with population 1: Validate() = %v", mode, err)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero hidden nodes", func(c *Config) { c.Network.Hidden = 0 }},
		{"negative hidden nodes", func(c *Config) { c.Network.Hidden = -3 }},
		{"wrong input count", func(c *Config) { c.Network.Inputs = 4 }},
		{"single output", func(c *Config) { c.Network.Outputs = 1 }},
		{"empty population", func(c *Config) { c.Trainer.PopulationSize = 0 }},
		{"unknown mode", func(c *Config) { c.Opponent.Mode = "mirror" }},
		{"zero radius", func(c *Config) { c.Ball.Radius = 0 }},
		{"paddle taller than board", func(c *Config) { c.Paddle.Height = 800 }},
		{"mutation rate above one", func(c *Config) { c.Trainer.MinMutationRate = 1.5 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, expected ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadCustomPathPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte("opponent:\n  mode: human\ntrainer:\n  population_size: 1\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Opponent.Mode != OpponentHuman {
		t.Errorf("Mode = %q, expected human", cfg.Opponent.Mode)
	}
	if cfg.Trainer.PopulationSize != 1 {
		t.Errorf("PopulationSize = %d, expected 1", cfg.Trainer.PopulationSize)
	}
	// Untouched sections keep their defaults
	if cfg.Ball.BaseSpeed != 10 || cfg.Trainer.MissBonusDistance != 305 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadMissingCustomPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("expected error for missing custom config")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Trainer.PopulationSize = 12

	if err := WriteYAML(cfg, path); err != nil {
		t.Fatalf("WriteYAML() failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip mismatch:\n%+v\n%+v", loaded, cfg)
	}
}

func TestUserConfigPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := UserConfigPath()
	if filepath.Base(path) != "config.yaml" || filepath.Base(filepath.Dir(path)) != ".neuropong" {
		t.Errorf("UserConfigPath() = %q", path)
	}
}

func TestApplyPreset(t *testing.T) {
	cfg := Default()
	if err := ApplyPreset(&cfg, DifficultyEasy); err != nil {
		t.Fatal(err)
	}
	if cfg.Opponent.TrackingGain != 0.6 || cfg.Ball.SpeedIncrement != 0 {
		t.Errorf("easy preset gave gain=%v increment=%v", cfg.Opponent.TrackingGain, cfg.Ball.SpeedIncrement)
	}

	cfg = Default()
	if err := ApplyPreset(&cfg, DifficultyHard); err != nil {
		t.Fatal(err)
	}
	if cfg.Opponent.TrackingGain != 0.95 || cfg.Ball.SpeedIncrement != 0.5 {
		t.Errorf("hard preset gave gain=%v increment=%v", cfg.Opponent.TrackingGain, cfg.Ball.SpeedIncrement)
	}

	cfg = Default()
	if err := ApplyPreset(&cfg, DifficultyFixed); err != nil {
		t.Fatal(err)
	}
	if cfg.Ball.SpeedIncrement != 0 || cfg.Opponent.TrackingGain != 0.9 {
		t.Errorf("fixed preset gave gain=%v increment=%v", cfg.Opponent.TrackingGain, cfg.Ball.SpeedIncrement)
	}

	if err := ApplyPreset(&cfg, "brutal"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ApplyPreset(brutal) = %v, expected ErrInvalidConfig", err)
	}
}
