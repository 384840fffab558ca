package pong

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/core"
	"github.com/vovakirdan/neuropong/internal/evolution"
	"github.com/vovakirdan/neuropong/internal/neural"
)

// Controller output indices.
const (
	outMoveUp   = 0
	outMoveDown = 1
	outStop     = 2
)

// activation is the output level above which a move fires.
const activation = 0.5

// bounceAngle is the deflection off a paddle hit above or below its center.
const bounceAngle = math.Pi / 4

// Input is the human opponent's intent for one tick.
type Input struct {
	Up   bool
	Down bool
}

// Engine advances the board one frame at a time. It is single-threaded and
// must only be used from the simulation goroutine.
type Engine struct {
	cfg      config.Config
	state    *State
	trainer  *evolution.Trainer
	opponent *neural.Controller // Learned opponent brain, nil in other modes
	sink     Sink
	rng      *rand.Rand

	moving []bool // Per slot: whether the agent moved on the previous tick
}

// NewEngine creates an engine over a trainer-owned population. opponent must be
// non-nil exactly when the opponent mode is learned; the engine takes ownership of it.
func NewEngine(cfg config.Config, trainer *evolution.Trainer, opponent *neural.Controller, sink Sink, rng *rand.Rand) (*Engine, error) {
	if trainer == nil {
		return nil, fmt.Errorf("pong: engine needs a trainer")
	}
	if (cfg.Opponent.Mode == config.OpponentLearned) != (opponent != nil) {
		return nil, fmt.Errorf("pong: learned opponent brain required for mode %q only", cfg.Opponent.Mode)
	}
	if sink == nil {
		sink = MultiSink(nil)
	}
	return &Engine{
		cfg:      cfg,
		state:    newState(cfg),
		trainer:  trainer,
		opponent: opponent,
		sink:     sink,
		rng:      rng,
		moving:   make([]bool, len(trainer.Population())),
	}, nil
}

// State returns the live board. Intended for tests and in-process hosts.
func (e *Engine) State() *State {
	return e.state
}

// Trainer returns the trainer driving the population.
func (e *Engine) Trainer() *evolution.Trainer {
	return e.trainer
}

// Step advances the simulation by one frame.
func (e *Engine) Step(in Input) {
	s := e.state
	s.Tick++
	e.reportSaves()

	b := &s.Ball
	b.Pos = b.Pos.Add(b.Vel)
	if !b.Pos.Finite() || !b.Vel.Finite() {
		panic(fmt.Sprintf("pong: non-finite ball state pos=%+v vel=%+v", b.Pos, b.Vel))
	}

	if b.Pos.Y <= 0 || b.Pos.Y+b.Radius >= s.Height {
		b.Vel.Y = -b.Vel.Y
	}

	e.moveOpponent(in)
	e.moveAgents()

	if e.checkScore() {
		return
	}
	e.collide()
}

// sensors builds the controller input vector for a paddle at paddleX.
// Layout: paddle y, ball x, ball y, ball vx, ball vy, horizontal gap.
func sensors(paddleY, paddleX float64, b Ball) []float64 {
	return []float64{
		paddleY,
		b.Pos.X,
		b.Pos.Y,
		b.Vel.X,
		b.Vel.Y,
		math.Abs(b.Pos.X - paddleX),
	}
}

// mirroredSensors presents the board to the learned opponent as if it played the left side.
func (e *Engine) mirroredSensors() []float64 {
	s := e.state
	mirrored := s.Ball
	mirrored.Pos.X = s.Width - s.Ball.Pos.X
	mirrored.Vel.X = -s.Ball.Vel.X
	paddleX := s.Width - s.Opponent.Box.Right()
	return sensors(s.Opponent.Box.Y, paddleX, mirrored)
}

// decide turns controller outputs into a paddle move, honoring the board bounds.
// It returns the signed step applied, or 0 to stay put.
func (e *Engine) decide(out []float64, box core.Box) float64 {
	step := e.cfg.Paddle.Step
	switch {
	case out[outMoveUp] > activation && box.Y > 0:
		return -step
	case out[outMoveDown] > activation && box.Y < e.state.Height-box.H:
		return step
	default:
		return 0
	}
}

func (e *Engine) moveOpponent(in Input) {
	s := e.state
	op := &s.Opponent.Box
	step := e.cfg.Paddle.Step

	switch e.cfg.Opponent.Mode {
	case config.OpponentTracking:
		op.Y += (s.Ball.Pos.Y - op.CenterY()) * e.cfg.Opponent.TrackingGain
	case config.OpponentHuman:
		if in.Up && op.Y > 0 {
			op.Y -= step
		} else if in.Down && op.Y < s.Height-op.H {
			op.Y += step
		}
	case config.OpponentLearned:
		op.Y += e.decide(e.opponent.Predict(e.mirroredSensors()), *op)
	}
}

func (e *Engine) moveAgents() {
	b := e.state.Ball
	for _, a := range e.trainer.Population() {
		if a.Dead {
			continue
		}
		out := a.Brain.Predict(sensors(a.Paddle.Y, a.Paddle.X, b))
		dy := e.decide(out, a.Paddle)
		switch {
		case dy < 0:
			a.Paddle.Y += dy
			e.moving[a.Slot] = true
			e.sink.Emit(MoveEvent{Tick: e.state.Tick, Slot: a.Slot, Direction: MoveUp})
		case dy > 0:
			a.Paddle.Y += dy
			e.moving[a.Slot] = true
			e.sink.Emit(MoveEvent{Tick: e.state.Tick, Slot: a.Slot, Direction: MoveDown})
		case e.moving[a.Slot]:
			e.moving[a.Slot] = false
			e.sink.Emit(StopEvent{Tick: e.state.Tick, Slot: a.Slot})
		}
	}
}

// checkScore handles the ball leaving either side. It reports whether a point was scored.
func (e *Engine) checkScore() bool {
	s := e.state
	b := &s.Ball
	pop := e.trainer.Population()

	switch {
	case b.Pos.X <= 0:
		s.Opponent.Score++
		e.trainer.OnMiss(b.Pos.Y)
		distance := 0.0
		if leader := pop.Leader(); leader != nil {
			distance = leader.MissDistance
		}
		e.sink.Emit(AIScoreEvent{Tick: s.Tick, Score: s.Opponent.Score})
		e.sink.Emit(MissEvent{Tick: s.Tick, Score: s.Opponent.Score, Distance: distance})
	case b.Pos.X+b.Radius >= s.Width:
		for _, a := range pop.Alive() {
			a.Score++
		}
		if leader := pop.Leader(); leader != nil {
			e.sink.Emit(PlayerScoreEvent{Tick: s.Tick, Slot: leader.Slot, Score: leader.Score})
		}
	default:
		return false
	}

	e.endEpisode()
	e.serve()
	return true
}

func (e *Engine) endEpisode() {
	res := e.trainer.OnEpisodeEnd()
	tick := e.state.Tick
	if res.NewBest {
		best := e.trainer.Best()
		e.sink.Emit(BestFitnessEvent{
			Tick:       tick,
			Fitness:    best.Fitness,
			Generation: best.Generation,
			BrainID:    best.Brain.ID(),
		})
	}
	if res.Regenerated {
		for i := range e.moving {
			e.moving[i] = false
		}
		bestFitness := 0.0
		if best := e.trainer.Best(); best != nil {
			bestFitness = best.Fitness
		}
		e.sink.Emit(GenerationEvent{
			Tick:         tick,
			Generation:   res.Generation,
			Replaced:     res.Replaced,
			Survivors:    res.Alive,
			Fitness:      res.Fitness,
			BestFitness:  bestFitness,
			MutationRate: res.MutationRate,
		})
	}
}

// serve recenters the ball, restores base speed and sends it toward the side
// opposite to its last travel direction with a random upward component.
func (e *Engine) serve() {
	s := e.state
	b := &s.Ball
	b.Speed = e.cfg.Ball.BaseSpeed
	b.Vel.Y = -(e.rng.Float64() * e.cfg.Ball.ServeMaxY)
	b.Vel.X = -core.Sign(b.Vel.X) * e.cfg.Ball.ServeSpeedX
	b.Pos = core.Vec2{X: s.Width / 2, Y: s.Height / 2}
}

// collide tests the ball against the paddles on the side it travels toward.
func (e *Engine) collide() {
	s := e.state
	b := &s.Ball

	if b.Vel.X < 0 {
		var hitters []*evolution.Agent
		for _, a := range e.trainer.Population() {
			if !a.Dead && a.Paddle.TouchesCircle(b.Pos, b.Radius) {
				hitters = append(hitters, a)
			}
		}
		if len(hitters) == 0 {
			return
		}
		culled := e.trainer.OnContact(hitters)
		angle := e.bounce(hitters[0].Paddle, 1)
		e.sink.Emit(ContactEvent{
			Tick:    s.Tick,
			Side:    SideAgents,
			Hitters: len(hitters),
			Culled:  culled,
			Angle:   angle,
			Speed:   b.Speed,
		})
		return
	}

	if s.Opponent.Box.TouchesCircle(b.Pos, b.Radius) {
		angle := e.bounce(s.Opponent.Box, -1)
		e.sink.Emit(ContactEvent{Tick: s.Tick, Side: SideOpponent, Angle: angle, Speed: b.Speed})
	}
}

// bounce deflects the ball off paddle toward dir and ramps its speed. It returns the angle used.
func (e *Engine) bounce(paddle core.Box, dir float64) float64 {
	b := &e.state.Ball
	angle := 0.0
	switch center := paddle.CenterY(); {
	case b.Pos.Y < center:
		angle = -bounceAngle
	case b.Pos.Y > center:
		angle = bounceAngle
	}
	b.Vel.X = dir * b.Speed * math.Cos(angle)
	b.Vel.Y = b.Speed * math.Sin(angle)
	b.Speed += e.cfg.Ball.SpeedIncrement
	return angle
}

// reportSaves turns completed asynchronous saves into events.
func (e *Engine) reportSaves() {
	for _, r := range e.trainer.DrainSaves() {
		if r.Err != nil {
			e.sink.Emit(SaveFailedEvent{
				Tick:       e.state.Tick,
				Fitness:    r.Model.Fitness,
				Generation: r.Model.Generation,
				Err:        r.Err,
			})
			continue
		}
		e.sink.Emit(SavedEvent{Tick: e.state.Tick, Fitness: r.Model.Fitness, Generation: r.Model.Generation})
	}
}

// ResetScores zeroes the opponent and agent scores.
func (e *Engine) ResetScores() {
	e.state.Opponent.Score = 0
	e.trainer.ResetScores()
}

// Close disposes the learned opponent brain. The trainer is closed by its owner.
func (e *Engine) Close() {
	if e.opponent != nil {
		e.opponent.Dispose()
	}
}
