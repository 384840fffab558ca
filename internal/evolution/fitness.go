// Package evolution implements the genetic trainer: a fixed-size population of
// paddle agents that is culled on every rally and regenerated from the fittest
// ancestor at the end of each episode.
package evolution

import "github.com/vovakirdan/neuropong/internal/core"

// Fitness constants used when no configuration overrides them.
const (
	DefaultMissBonusDistance = 305.0
	DefaultMissBonus         = 1.25
	DefaultMinMutationRate   = 0.1
)

// Fitness scores an agent's episode.
type Fitness struct {
	MissBonusDistance float64 // Misses at or under this distance earn the bonus
	MissBonus         float64
}

// DefaultFitness returns the fitness function with the standard constants.
func DefaultFitness() Fitness {
	return Fitness{
		MissBonusDistance: DefaultMissBonusDistance,
		MissBonus:         DefaultMissBonus,
	}
}

// Calculate returns score² + ballsHit, plus the bonus for a close miss.
func (f Fitness) Calculate(ballsHit, score int, missDistance float64) float64 {
	fitness := float64(score*score) + float64(ballsHit)
	if missDistance <= f.MissBonusDistance {
		fitness += f.MissBonus
	}
	return fitness
}

// CalculateFitness scores an episode with the default constants.
func CalculateFitness(ballsHit, score int, missDistance float64) float64 {
	return DefaultFitness().Calculate(ballsHit, score, missDistance)
}

// ClampMutationRate restricts a mutation rate to [minRate, 1].
func ClampMutationRate(n, minRate float64) float64 {
	return core.ClampF(n, minRate, 1)
}
