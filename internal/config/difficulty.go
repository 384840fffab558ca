package config

import "fmt"

// DifficultyPreset represents a named opponent difficulty.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
	DifficultyFixed  DifficultyPreset = "fixed"
)

// TrackingGainForPreset returns the tracking opponent's gain for a preset.
// A gain of 1 follows the ball perfectly.
func TrackingGainForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.6
	case DifficultyNormal:
		return 0.9
	case DifficultyHard:
		return 0.95
	default:
		return 0.9
	}
}

// ApplyPreset modifies the config based on a difficulty preset.
// An empty preset leaves the config untouched.
func ApplyPreset(cfg *Config, preset DifficultyPreset) error {
	switch preset {
	case "":
		return nil
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		cfg.Opponent.TrackingGain = TrackingGainForPreset(preset)
	case DifficultyFixed:
		cfg.Ball.SpeedIncrement = 0
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, preset)
	}

	// Adjust the speed ramp on top of the gain
	switch preset {
	case DifficultyEasy:
		cfg.Ball.SpeedIncrement = 0
	case DifficultyHard:
		cfg.Ball.SpeedIncrement = 0.5
	}
	return nil
}
