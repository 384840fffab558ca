// Package config provides YAML-based session configuration loading and
// difficulty presets for the simulation.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Validate for configuration errors.
// These are fatal at session setup and never retried.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config contains all configuration for a simulation session.
type Config struct {
	Board     BoardConfig     `yaml:"board"`
	Ball      BallConfig      `yaml:"ball"`
	Paddle    PaddleConfig    `yaml:"paddle"`
	Opponent  OpponentConfig  `yaml:"opponent"`
	Network   NetworkConfig   `yaml:"network"`
	Trainer   TrainerConfig   `yaml:"trainer"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// BoardConfig defines the playing field in board pixels.
type BoardConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// BallConfig defines ball geometry and serve behavior.
type BallConfig struct {
	Radius         float64 `yaml:"radius"`
	BaseSpeed      float64 `yaml:"base_speed"`      // Speed restored on every serve
	ServeSpeedX    float64 `yaml:"serve_speed_x"`   // Horizontal serve velocity magnitude
	ServeMaxY      float64 `yaml:"serve_max_y"`     // Serve vertical velocity is -U(0, serve_max_y)
	SpeedIncrement float64 `yaml:"speed_increment"` // Added to speed on every paddle contact, may be 0
}

// PaddleConfig defines paddle geometry shared by agents and the opponent.
type PaddleConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Offset float64 `yaml:"offset"` // Distance from the board edge
	Step   float64 `yaml:"step"`   // Discrete movement per tick
}

// OpponentMode selects what drives the right-hand paddle.
type OpponentMode string

const (
	OpponentTracking OpponentMode = "tracking" // Proportional ball tracking, population trains against it
	OpponentHuman    OpponentMode = "human"    // Keyboard driven, versus mode
	OpponentLearned  OpponentMode = "learned"  // Driven by a second trained controller, versus mode
)

// Versus reports whether the mode plays a fixed agent instead of training a population.
func (m OpponentMode) Versus() bool {
	return m == OpponentHuman || m == OpponentLearned
}

// OpponentConfig defines the right-hand paddle behavior.
type OpponentConfig struct {
	Mode         OpponentMode `yaml:"mode"`
	TrackingGain float64      `yaml:"tracking_gain"`
}

// NetworkConfig defines the controller topology.
type NetworkConfig struct {
	Inputs  int `yaml:"inputs"`
	Hidden  int `yaml:"hidden"`
	Outputs int `yaml:"outputs"`
}

// TrainerConfig defines population size and fitness constants.
type TrainerConfig struct {
	PopulationSize      int     `yaml:"population_size"`
	MinMutationRate     float64 `yaml:"min_mutation_rate"`
	MissBonusDistance   float64 `yaml:"miss_bonus_distance"`
	MissBonus           float64 `yaml:"miss_bonus"`
	ResetScoresInVersus bool    `yaml:"reset_scores_in_versus"`
	SaveOnBest          bool    `yaml:"save_on_best"`
}

// StorageConfig defines where trained models are persisted.
type StorageConfig struct {
	Path      string `yaml:"path"`
	ModelName string `yaml:"model_name"`
}

// TelemetryConfig defines optional per-generation CSV output.
type TelemetryConfig struct {
	CSVPath string `yaml:"csv_path"` // Empty disables CSV output
}

// SensorCount is the length of the sensor vector the engine feeds to controllers.
const SensorCount = 6

// Validate reports configuration errors. It returns nil for a usable config.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Board.Width <= 0 || c.Board.Height <= 0 {
		bad("board must have positive size, got %vx%v", c.Board.Width, c.Board.Height)
	}
	if c.Ball.Radius <= 0 {
		bad("ball radius must be positive, got %v", c.Ball.Radius)
	}
	if c.Ball.BaseSpeed < 0 || c.Ball.SpeedIncrement < 0 {
		bad("ball speeds must not be negative")
	}
	if c.Paddle.Width <= 0 || c.Paddle.Height <= 0 || c.Paddle.Height > c.Board.Height {
		bad("paddle must fit the board, got %vx%v", c.Paddle.Width, c.Paddle.Height)
	}
	if c.Network.Inputs != SensorCount {
		bad("network needs %d inputs for the sensor vector, got %d", SensorCount, c.Network.Inputs)
	}
	if c.Network.Hidden <= 0 {
		bad("network hidden nodes must be positive, got %d", c.Network.Hidden)
	}
	if c.Network.Outputs < 2 {
		bad("network needs at least 2 outputs (up, down), got %d", c.Network.Outputs)
	}
	if c.Trainer.PopulationSize < 1 {
		bad("population size must be at least 1, got %d", c.Trainer.PopulationSize)
	}
	if c.Trainer.MinMutationRate < 0 || c.Trainer.MinMutationRate > 1 {
		bad("min mutation rate must be within [0,1], got %v", c.Trainer.MinMutationRate)
	}

	switch c.Opponent.Mode {
	case OpponentTracking:
	case OpponentHuman, OpponentLearned:
		if c.Trainer.PopulationSize != 1 {
			bad("opponent mode %q requires population size 1, got %d", c.Opponent.Mode, c.Trainer.PopulationSize)
		}
	default:
		bad("unknown opponent mode %q", c.Opponent.Mode)
	}

	return errors.Join(errs...)
}
