package pong

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/core"
	"github.com/vovakirdan/neuropong/internal/evolution"
	"github.com/vovakirdan/neuropong/internal/neural"
)

const eps = 1e-9

type recorder struct {
	events []Event
}

func (r *recorder) Emit(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) count(match func(Event) bool) int {
	n := 0
	for _, e := range r.events {
		if match(e) {
			n++
		}
	}
	return n
}

func newTestEngine(t *testing.T, seed int64, edit func(*config.Config)) (*Engine, *recorder) {
	t.Helper()
	cfg := config.Default()
	cfg.Trainer.PopulationSize = 3
	if edit != nil {
		edit(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	rng := rand.New(rand.NewSource(seed))
	brains := make([]*neural.Controller, cfg.Trainer.PopulationSize)
	for i := range brains {
		b, err := neural.New(rng, cfg.Network.Inputs, cfg.Network.Hidden, cfg.Network.Outputs)
		if err != nil {
			t.Fatal(err)
		}
		brains[i] = b
	}
	return newEngineWithBrains(t, cfg, rng, brains)
}

func newEngineWithBrains(t *testing.T, cfg config.Config, rng *rand.Rand, brains []*neural.Controller) (*Engine, *recorder) {
	t.Helper()
	tr, err := evolution.New(evolution.OptionsFromConfig(cfg), AgentSpawn(cfg), brains, nil, nil)
	if err != nil {
		t.Fatalf("evolution.New() failed: %v", err)
	}
	rec := &recorder{}
	e, err := NewEngine(cfg, tr, nil, rec, rng)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	t.Cleanup(func() {
		e.Close()
		tr.Close()
	})
	return e, rec
}

// constantBrain always prefers the given output.
func constantBrain(t *testing.T, rng *rand.Rand, preferred int) *neural.Controller {
	t.Helper()
	w := neural.Weights{
		Inputs:  config.SensorCount,
		Hidden:  8,
		Outputs: 3,
		W1:      make([]float64, 8*config.SensorCount),
		B1:      make([]float64, 8),
		W2:      make([]float64, 3*8),
		B2:      make([]float64, 3),
	}
	w.B2[preferred] = 10
	c, err := neural.Restore(rng, w)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestBounceAngles(t *testing.T) {
	tests := []struct {
		name   string
		offset float64 // ball y relative to paddle center
		angle  float64
	}{
		{"center", 0, 0},
		{"above", -20, -math.Pi / 4},
		{"below", 20, math.Pi / 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, rec := newTestEngine(t, 1, nil)
			agent := e.trainer.Population()[0]
			b := &e.state.Ball
			b.Pos = core.Vec2{X: agent.Paddle.Right() + 5, Y: agent.Paddle.CenterY() + tc.offset}
			b.Vel = core.Vec2{X: -5, Y: 0}
			b.Speed = 10

			e.collide()

			wantVX := 10 * math.Cos(tc.angle)
			wantVY := 10 * math.Sin(tc.angle)
			if math.Abs(b.Vel.X-wantVX) > eps || math.Abs(b.Vel.Y-wantVY) > eps {
				t.Errorf("Vel = %+v, expected (%v, %v)", b.Vel, wantVX, wantVY)
			}
			if b.Speed != 10.25 {
				t.Errorf("Speed = %v, expected 10.25", b.Speed)
			}
			if n := rec.count(func(ev Event) bool { _, ok := ev.(ContactEvent); return ok }); n != 1 {
				t.Errorf("got %d contact events, expected 1", n)
			}
		})
	}
}

func TestOpponentBounceSendsBallLeft(t *testing.T) {
	e, _ := newTestEngine(t, 1, nil)
	op := e.state.Opponent.Box
	b := &e.state.Ball
	b.Pos = core.Vec2{X: op.Left() - 5, Y: op.CenterY() + 30}
	b.Vel = core.Vec2{X: 5, Y: 0}
	b.Speed = 10

	e.collide()

	if b.Vel.X >= 0 {
		t.Errorf("Vel.X = %v, expected negative", b.Vel.X)
	}
	if math.Abs(b.Vel.Y-10*math.Sin(math.Pi/4)) > eps {
		t.Errorf("Vel.Y = %v, expected downward 45 degrees", b.Vel.Y)
	}
}

func TestCollisionOnlyChecksSideOfTravel(t *testing.T) {
	e, _ := newTestEngine(t, 1, nil)
	agent := e.trainer.Population()[0]
	b := &e.state.Ball
	// Overlapping the agent paddle but moving away from it
	b.Pos = core.Vec2{X: agent.Paddle.Right() + 5, Y: agent.Paddle.CenterY()}
	b.Vel = core.Vec2{X: 5, Y: 0}

	e.collide()

	if b.Vel.X != 5 {
		t.Errorf("Vel.X = %v, expected ball untouched", b.Vel.X)
	}
	if agent.BallsHit != 0 {
		t.Errorf("BallsHit = %d, expected 0", agent.BallsHit)
	}
}

func TestContactCullsNonHitters(t *testing.T) {
	e, _ := newTestEngine(t, 1, nil)
	pop := e.trainer.Population()
	pop[1].Paddle.Y = 0
	pop[2].Paddle.Y = 0
	b := &e.state.Ball
	b.Pos = core.Vec2{X: pop[0].Paddle.Right() + 5, Y: pop[0].Paddle.CenterY()}
	b.Vel = core.Vec2{X: -5, Y: 0}

	e.collide()

	if pop[0].Dead || pop[0].BallsHit != 1 {
		t.Errorf("hitter Dead=%v BallsHit=%d", pop[0].Dead, pop[0].BallsHit)
	}
	if !pop[1].Dead || !pop[2].Dead {
		t.Error("agents away from the ball should be culled")
	}
}

func TestWallReflection(t *testing.T) {
	e, _ := newTestEngine(t, 1, nil)
	b := &e.state.Ball
	b.Pos = core.Vec2{X: 500, Y: 2}
	b.Vel = core.Vec2{X: 5, Y: -5}

	e.Step(Input{})

	if b.Vel.Y != 5 {
		t.Errorf("top wall: Vel.Y = %v, expected 5", b.Vel.Y)
	}

	b.Pos = core.Vec2{X: 500, Y: e.state.Height - b.Radius - 2}
	b.Vel = core.Vec2{X: 5, Y: 5}

	e.Step(Input{})

	if b.Vel.Y != -5 {
		t.Errorf("bottom wall: Vel.Y = %v, expected -5", b.Vel.Y)
	}
}

func TestMissScoresForOpponentAndServes(t *testing.T) {
	cfg := config.Default()
	cfg.Trainer.PopulationSize = 3
	rng := rand.New(rand.NewSource(7))
	brains := []*neural.Controller{
		constantBrain(t, rng, outStop),
		constantBrain(t, rng, outStop),
		constantBrain(t, rng, outStop),
	}
	e, rec := newEngineWithBrains(t, cfg, rng, brains)
	b := &e.state.Ball
	b.Pos = core.Vec2{X: 3, Y: 100}
	b.Vel = core.Vec2{X: -5, Y: 1}
	b.Speed = 14

	e.Step(Input{})

	if e.state.Opponent.Score != 1 {
		t.Errorf("opponent score = %d, expected 1", e.state.Opponent.Score)
	}
	if n := rec.count(func(ev Event) bool { _, ok := ev.(AIScoreEvent); return ok }); n != 1 {
		t.Errorf("got %d AI score events, expected 1", n)
	}
	var miss MissEvent
	found := false
	for _, ev := range rec.events {
		if m, ok := ev.(MissEvent); ok {
			miss, found = m, true
		}
	}
	if !found || miss.Score != 1 {
		t.Fatalf("MissEvent = %+v (found %v), expected score 1", miss, found)
	}
	// Ball integrates to y=101; the idle leader paddle is centered at 360
	spawn := AgentSpawn(cfg)
	if expected := math.Abs(101 - spawn.CenterY()); miss.Distance != expected {
		t.Errorf("miss distance = %v, expected %v", miss.Distance, expected)
	}
	assertServed(t, e, 1)
	if got := e.trainer.Population().AliveCount(); got != 3 {
		t.Errorf("AliveCount() after episode = %d, expected 3", got)
	}
}

func TestPlayerScoreReportsLeaderScore(t *testing.T) {
	e, rec := newTestEngine(t, 7, nil)
	b := &e.state.Ball
	b.Pos = core.Vec2{X: 990, Y: 100}
	b.Vel = core.Vec2{X: 5, Y: 1}

	e.Step(Input{})

	var got []PlayerScoreEvent
	for _, ev := range rec.events {
		if p, ok := ev.(PlayerScoreEvent); ok {
			got = append(got, p)
		}
	}
	if len(got) != 1 || got[0].Score != 1 {
		t.Fatalf("PlayerScoreEvents = %+v, expected one with score 1", got)
	}
	assertServed(t, e, -1)
}

// assertServed checks the serve invariants: ball at exact center, base speed,
// horizontal direction dir and upward vertical component.
func assertServed(t *testing.T, e *Engine, dir float64) {
	t.Helper()
	b := e.state.Ball
	if b.Pos.X != e.state.Width/2 || b.Pos.Y != e.state.Height/2 {
		t.Errorf("ball at %+v, expected board center", b.Pos)
	}
	if b.Speed != e.cfg.Ball.BaseSpeed {
		t.Errorf("Speed = %v, expected %v", b.Speed, e.cfg.Ball.BaseSpeed)
	}
	if b.Vel.X != dir*e.cfg.Ball.ServeSpeedX {
		t.Errorf("Vel.X = %v, expected %v", b.Vel.X, dir*e.cfg.Ball.ServeSpeedX)
	}
	if b.Vel.Y > 0 || b.Vel.Y < -e.cfg.Ball.ServeMaxY {
		t.Errorf("Vel.Y = %v, expected in [-%v, 0]", b.Vel.Y, e.cfg.Ball.ServeMaxY)
	}
}

func TestServeTreatsZeroVelocityAsPositive(t *testing.T) {
	e, _ := newTestEngine(t, 1, nil)
	e.state.Ball.Vel.X = 0
	e.serve()
	if e.state.Ball.Vel.X != -e.cfg.Ball.ServeSpeedX {
		t.Errorf("Vel.X = %v, expected %v", e.state.Ball.Vel.X, -e.cfg.Ball.ServeSpeedX)
	}
}

func TestMoveAndStopEvents(t *testing.T) {
	cfg := config.Default()
	cfg.Trainer.PopulationSize = 1
	rng := rand.New(rand.NewSource(1))
	e, rec := newEngineWithBrains(t, cfg, rng, []*neural.Controller{constantBrain(t, rng, outMoveUp)})
	agent := e.trainer.Population()[0]

	// 310 / 8 -> the paddle crosses the top edge on the 39th move
	for i := 0; i < 41; i++ {
		e.Step(Input{})
	}

	ups := rec.count(func(ev Event) bool {
		m, ok := ev.(MoveEvent)
		return ok && m.Direction == MoveUp
	})
	stops := rec.count(func(ev Event) bool { _, ok := ev.(StopEvent); return ok })
	if ups != 39 {
		t.Errorf("got %d up moves, expected 39", ups)
	}
	if stops != 1 {
		t.Errorf("got %d stop events, expected 1", stops)
	}
	if agent.Paddle.Y > 0 {
		t.Errorf("paddle Y = %v, expected at or above the top edge", agent.Paddle.Y)
	}
}

func TestHumanOpponentRespectsBounds(t *testing.T) {
	e, _ := newTestEngine(t, 1, func(c *config.Config) {
		c.Opponent.Mode = config.OpponentHuman
		c.Trainer.PopulationSize = 1
	})
	op := &e.state.Opponent.Box
	start := op.Y

	e.moveOpponent(Input{Up: true})
	if op.Y != start-e.cfg.Paddle.Step {
		t.Errorf("Y = %v after up, expected %v", op.Y, start-e.cfg.Paddle.Step)
	}

	op.Y = 0
	e.moveOpponent(Input{Up: true})
	if op.Y != 0 {
		t.Errorf("Y = %v, expected paddle held at the top", op.Y)
	}

	op.Y = e.state.Height - op.H
	e.moveOpponent(Input{Down: true})
	if op.Y != e.state.Height-op.H {
		t.Errorf("Y = %v, expected paddle held at the bottom", op.Y)
	}
}

func TestTrackingOpponentFollowsBall(t *testing.T) {
	e, _ := newTestEngine(t, 1, nil)
	op := &e.state.Opponent.Box
	e.state.Ball.Pos.Y = op.CenterY() + 100

	e.moveOpponent(Input{})

	if math.Abs(op.CenterY()-(e.state.Ball.Pos.Y-10)) > eps {
		t.Errorf("center = %v, expected %v", op.CenterY(), e.state.Ball.Pos.Y-10)
	}
}

func TestLearnedOpponentRequiresBrain(t *testing.T) {
	cfg := config.Default()
	cfg.Opponent.Mode = config.OpponentLearned
	cfg.Trainer.PopulationSize = 1
	rng := rand.New(rand.NewSource(1))
	b, _ := neural.New(rng, 6, 8, 3)
	tr, err := evolution.New(evolution.OptionsFromConfig(cfg), AgentSpawn(cfg), []*neural.Controller{b}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	if _, err := NewEngine(cfg, tr, nil, nil, rng); err == nil {
		t.Error("expected error for learned mode without an opponent brain")
	}

	opponent := constantBrain(t, rng, outMoveDown)
	e, err := NewEngine(cfg, tr, opponent, nil, rng)
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	start := e.state.Opponent.Box.Y
	e.Step(Input{})
	if e.state.Opponent.Box.Y != start+cfg.Paddle.Step {
		t.Errorf("opponent Y = %v, expected %v", e.state.Opponent.Box.Y, start+cfg.Paddle.Step)
	}
	e.Close()
	if !opponent.Disposed() {
		t.Error("Close should dispose the opponent brain")
	}
}

func TestDeterministicWithSameSeed(t *testing.T) {
	a, _ := newTestEngine(t, 42, nil)
	b, _ := newTestEngine(t, 42, nil)

	for i := 0; i < 3000; i++ {
		a.Step(Input{})
		b.Step(Input{})
	}

	if !reflect.DeepEqual(a.Snapshot(), b.Snapshot()) {
		t.Error("engines with the same seed diverged")
	}
}

func TestPopulationInvariantDuringPlay(t *testing.T) {
	e, _ := newTestEngine(t, 5, func(c *config.Config) {
		c.Trainer.PopulationSize = 10
	})

	for i := 0; i < 5000; i++ {
		e.Step(Input{})
		snap := e.Snapshot()
		if len(snap.Agents) != 10 {
			t.Fatalf("tick %d: %d agents, expected 10", i, len(snap.Agents))
		}
		if snap.Alive < 1 || snap.Alive > 10 {
			t.Fatalf("tick %d: %d alive", i, snap.Alive)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	e, _ := newTestEngine(t, 1, nil)
	snap := e.Snapshot()
	snap.Agents[0].Paddle.Y = -100
	snap.Ball.Pos.X = -100

	if e.trainer.Population()[0].Paddle.Y == -100 || e.state.Ball.Pos.X == -100 {
		t.Error("mutating a snapshot changed engine state")
	}
}

func TestCallbacksAdapter(t *testing.T) {
	var player, ai, miss, up, down, stop int
	cb := Callbacks{
		OnPlayerScore: func(s int) { player = s },
		OnAIScore:     func(s int) { ai = s },
		OnMiss:        func(s int) { miss = s },
		OnMoveUp:      func() { up++ },
		OnMoveDown:    func() { down++ },
		OnStop:        func() { stop++ },
	}
	sink := MultiSink{cb, nil, Callbacks{}}

	sink.Emit(PlayerScoreEvent{Score: 2})
	sink.Emit(AIScoreEvent{Score: 3})
	sink.Emit(MissEvent{Score: 3})
	sink.Emit(MoveEvent{Direction: MoveUp})
	sink.Emit(MoveEvent{Direction: MoveDown})
	sink.Emit(StopEvent{})
	sink.Emit(GenerationEvent{})

	if player != 2 || ai != 3 || miss != 3 || up != 1 || down != 1 || stop != 1 {
		t.Errorf("player=%d ai=%d miss=%d up=%d down=%d stop=%d", player, ai, miss, up, down, stop)
	}
}

func TestRenderDrawsBoard(t *testing.T) {
	e, _ := newTestEngine(t, 1, nil)
	dst := core.NewScreen(80, 25)

	Render(e.Snapshot(), dst)

	found := map[rune]bool{}
	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			found[dst.Get(x, y)] = true
		}
	}
	for _, r := range []rune{PaddleChar, BallChar, NetChar} {
		if !found[r] {
			t.Errorf("rendered board missing %q", r)
		}
	}
}
