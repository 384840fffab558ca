// Package pong implements the frame-stepped physics engine: ball integration,
// wall and paddle collisions, bounce angles, scoring and serves. Agent paddles
// are driven by their neural controllers and the population is managed by the
// evolution trainer.
package pong

import (
	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/core"
)

// Ball is the single ball on the board.
type Ball struct {
	Pos    core.Vec2
	Vel    core.Vec2
	Radius float64
	Speed  float64 // Magnitude applied on paddle contact
	Color  core.Color
}

// Paddle is the opponent paddle on the right side.
type Paddle struct {
	Box   core.Box
	Score int
	Color core.Color
}

// Net is the center line. Presentation only.
type Net struct {
	X, W float64
}

// State is the mutable board owned by the engine.
type State struct {
	Width    float64
	Height   float64
	Ball     Ball
	Net      Net
	Opponent Paddle
	Tick     uint64
}

// AgentSpawn returns the starting box for an agent paddle on the left edge.
func AgentSpawn(cfg config.Config) core.Box {
	return core.Box{
		X: cfg.Paddle.Offset,
		Y: cfg.Board.Height/2 - cfg.Paddle.Height/2,
		W: cfg.Paddle.Width,
		H: cfg.Paddle.Height,
	}
}

// OpponentSpawn returns the starting box for the opponent paddle on the right edge.
func OpponentSpawn(cfg config.Config) core.Box {
	return core.Box{
		X: cfg.Board.Width - (cfg.Paddle.Width + cfg.Paddle.Offset),
		Y: cfg.Board.Height/2 - cfg.Paddle.Height/2,
		W: cfg.Paddle.Width,
		H: cfg.Paddle.Height,
	}
}

// newState builds the opening board: ball at center moving down-right at the serve speed.
func newState(cfg config.Config) *State {
	opponentColor := core.ColorTomato
	if cfg.Opponent.Mode.Versus() {
		opponentColor = core.ColorAquamarine
	}
	return &State{
		Width:  cfg.Board.Width,
		Height: cfg.Board.Height,
		Ball: Ball{
			Pos:    core.Vec2{X: cfg.Board.Width / 2, Y: cfg.Board.Height / 2},
			Vel:    core.Vec2{X: cfg.Ball.ServeSpeedX, Y: cfg.Ball.ServeSpeedX},
			Radius: cfg.Ball.Radius,
			Speed:  cfg.Ball.BaseSpeed,
			Color:  core.ColorSteelBlue,
		},
		Net: Net{X: cfg.Board.Width / 2, W: 2},
		Opponent: Paddle{
			Box:   OpponentSpawn(cfg),
			Color: opponentColor,
		},
	}
}
