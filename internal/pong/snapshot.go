package pong

import (
	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/core"
)

// AgentView is the render-facing copy of one agent.
type AgentView struct {
	Slot     int
	Paddle   core.Box
	Score    int
	BallsHit int
	Dead     bool
	BrainID  int64
}

// Snapshot is an immutable copy of the board taken after a tick.
// It shares no memory with the engine, so it may cross goroutines.
type Snapshot struct {
	Tick        uint64
	Width       float64
	Height      float64
	Ball        Ball
	Net         Net
	Opponent    Paddle
	Agents      []AgentView
	Alive       int
	Generation  int
	Episodes    int
	BestFitness float64
	Mode        config.OpponentMode
}

// Leader returns the first live agent view, or false if every agent is dead.
func (s Snapshot) Leader() (AgentView, bool) {
	for _, a := range s.Agents {
		if !a.Dead {
			return a, true
		}
	}
	return AgentView{}, false
}

// Snapshot copies the current board.
func (e *Engine) Snapshot() Snapshot {
	s := e.state
	pop := e.trainer.Population()
	snap := Snapshot{
		Tick:       s.Tick,
		Width:      s.Width,
		Height:     s.Height,
		Ball:       s.Ball,
		Net:        s.Net,
		Opponent:   s.Opponent,
		Agents:     make([]AgentView, len(pop)),
		Generation: e.trainer.Generation(),
		Episodes:   e.trainer.Episodes(),
		Mode:       e.cfg.Opponent.Mode,
	}
	for i, a := range pop {
		snap.Agents[i] = AgentView{
			Slot:     a.Slot,
			Paddle:   a.Paddle,
			Score:    a.Score,
			BallsHit: a.BallsHit,
			Dead:     a.Dead,
			BrainID:  a.Brain.ID(),
		}
		if !a.Dead {
			snap.Alive++
		}
	}
	if best := e.trainer.Best(); best != nil {
		snap.BestFitness = best.Fitness
	}
	return snap
}
