package evolution

import (
	"github.com/vovakirdan/neuropong/internal/core"
	"github.com/vovakirdan/neuropong/internal/neural"
)

// Agent is a paddle paired with the controller it exclusively owns.
type Agent struct {
	Slot         int // Position in the population, stable across regeneration
	Paddle       core.Box
	Brain        *neural.Controller
	Score        int
	BallsHit     int     // Paddle contacts in the current episode
	Dead         bool    // Culled for the rest of the episode
	MissDistance float64 // |ballY - paddle center| at the last miss, +Inf before the first
}

// Alive reports whether the agent still plays this episode.
func (a *Agent) Alive() bool {
	return !a.Dead
}

// Population is the ordered, fixed-size set of agents.
type Population []*Agent

// Alive returns the agents that have not been culled, in slot order.
func (p Population) Alive() []*Agent {
	alive := make([]*Agent, 0, len(p))
	for _, a := range p {
		if !a.Dead {
			alive = append(alive, a)
		}
	}
	return alive
}

// AliveCount returns the number of agents that have not been culled.
func (p Population) AliveCount() int {
	n := 0
	for _, a := range p {
		if !a.Dead {
			n++
		}
	}
	return n
}

// Leader returns the first live agent, or nil if every agent is dead.
func (p Population) Leader() *Agent {
	for _, a := range p {
		if !a.Dead {
			return a
		}
	}
	return nil
}
