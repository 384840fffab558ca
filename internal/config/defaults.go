package config

import (
	_ "embed"
)

//go:embed defaults/neuropong.yaml
var defaultYAML []byte

// Default returns the hard-coded default configuration.
// It mirrors defaults/neuropong.yaml and is the fallback if the embed cannot be parsed.
func Default() Config {
	return Config{
		Board: BoardConfig{
			Width:  1000,
			Height: 720,
		},
		Ball: BallConfig{
			Radius:         12,
			BaseSpeed:      10,
			ServeSpeedX:    5,
			ServeMaxY:      3,
			SpeedIncrement: 0.25,
		},
		Paddle: PaddleConfig{
			Width:  15,
			Height: 100,
			Offset: 10,
			Step:   8,
		},
		Opponent: OpponentConfig{
			Mode:         OpponentTracking,
			TrackingGain: 0.9,
		},
		Network: NetworkConfig{
			Inputs:  6,
			Hidden:  8,
			Outputs: 3,
		},
		Trainer: TrainerConfig{
			PopulationSize:      50,
			MinMutationRate:     0.1,
			MissBonusDistance:   305,
			MissBonus:           1.25,
			ResetScoresInVersus: false,
			SaveOnBest:          true,
		},
		Storage: StorageConfig{
			Path:      "~/.neuropong/neuropong.db",
			ModelName: "default",
		},
	}
}

// DefaultYAML returns the embedded default YAML.
func DefaultYAML() []byte {
	return defaultYAML
}
