// Package session wires the engine, the trainer and the external collaborators
// (input, rendering, persistence) into a runnable simulation.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/evolution"
	"github.com/vovakirdan/neuropong/internal/neural"
	"github.com/vovakirdan/neuropong/internal/pong"
)

// ErrClosed is returned by Step after the session has been closed.
var ErrClosed = errors.New("session: closed")

// Deps are the collaborators a session talks to. Every field is optional.
type Deps struct {
	Input  InputProvider         // Human opponent intent
	Render RenderSink            // Receives a snapshot after every tick
	Events pong.Sink             // Receives engine events
	Store  evolution.Persistence // Saves new best models
	Loader ModelLoader           // Starting controller for versus mode and resume
	Logger *log.Logger
	Seed   int64 // 0 picks a time-based seed
	Resume bool  // Seed a training population from Loader as well
}

// Session owns one simulation: the board, the population and the learned
// opponent if any. It is created once, stepped many times and closed once.
type Session struct {
	mu      sync.Mutex
	cfg     config.Config
	engine  *pong.Engine
	trainer *evolution.Trainer
	input   InputProvider
	render  RenderSink
	logger  *log.Logger
	closed  bool
}

// New validates cfg and builds a session. Configuration errors are returned
// wrapping config.ErrInvalidConfig. A missing or unreadable saved model is
// not an error: the session falls back to freshly initialized controllers.
func New(ctx context.Context, cfg config.Config, deps Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("session")

	seed := deps.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var (
		saved   *neural.Weights
		loadErr error
	)
	if cfg.Opponent.Mode.Versus() || deps.Resume {
		saved, loadErr = loadWeights(ctx, cfg, deps.Loader, logger)
	}

	brains, err := seedPopulation(rng, cfg, saved)
	if err != nil {
		return nil, err
	}
	trainer, err := evolution.New(evolution.OptionsFromConfig(cfg), pong.AgentSpawn(cfg), brains, deps.Store, deps.Logger)
	if err != nil {
		for _, b := range brains {
			b.Dispose()
		}
		return nil, fmt.Errorf("session: %w", err)
	}

	var opponent *neural.Controller
	if cfg.Opponent.Mode == config.OpponentLearned {
		if opponent, err = newBrain(rng, cfg, saved); err != nil {
			trainer.Close()
			return nil, err
		}
	}

	engine, err := pong.NewEngine(cfg, trainer, opponent, deps.Events, rng)
	if err != nil {
		trainer.Close()
		if opponent != nil {
			opponent.Dispose()
		}
		return nil, fmt.Errorf("session: %w", err)
	}

	if loadErr != nil && deps.Events != nil {
		deps.Events.Emit(pong.LoadFailedEvent{Err: loadErr})
	}

	logger.Info("session started",
		"mode", cfg.Opponent.Mode,
		"population", cfg.Trainer.PopulationSize,
		"restored", saved != nil,
		"seed", seed,
	)
	return &Session{
		cfg:     cfg,
		engine:  engine,
		trainer: trainer,
		input:   deps.Input,
		render:  deps.Render,
		logger:  logger,
	}, nil
}

// loadWeights fetches the saved model. Any failure, including a model of the
// wrong shape, is logged and yields nil weights with the reason.
// No loader means nothing to load and is not a failure.
func loadWeights(ctx context.Context, cfg config.Config, loader ModelLoader, logger *log.Logger) (*neural.Weights, error) {
	if loader == nil {
		return nil, nil
	}
	w, err := loader.Load(ctx)
	if err != nil {
		logger.Warn("no saved model, starting from random weights", "error", err)
		return nil, fmt.Errorf("session: load model: %w", err)
	}
	if err := w.Validate(); err != nil {
		logger.Warn("saved model is corrupt, starting from random weights", "error", err)
		return nil, fmt.Errorf("session: load model: %w", err)
	}
	if w.Inputs != cfg.Network.Inputs || w.Hidden != cfg.Network.Hidden || w.Outputs != cfg.Network.Outputs {
		saved := fmt.Sprintf("%d-%d-%d", w.Inputs, w.Hidden, w.Outputs)
		want := fmt.Sprintf("%d-%d-%d", cfg.Network.Inputs, cfg.Network.Hidden, cfg.Network.Outputs)
		logger.Warn("saved model topology differs from config, starting from random weights",
			"saved", saved,
			"config", want,
		)
		return nil, fmt.Errorf("session: load model: %w: saved %s, config %s", neural.ErrShapeMismatch, saved, want)
	}
	return &w, nil
}

func newBrain(rng *rand.Rand, cfg config.Config, saved *neural.Weights) (*neural.Controller, error) {
	var (
		c   *neural.Controller
		err error
	)
	if saved != nil {
		c, err = neural.Restore(rng, *saved)
	} else {
		c, err = neural.New(rng, cfg.Network.Inputs, cfg.Network.Hidden, cfg.Network.Outputs)
	}
	if err != nil {
		return nil, fmt.Errorf("session: create controller: %w", err)
	}
	return c, nil
}

// seedPopulation builds one brain per slot. With a saved model, slot 0 holds
// it unchanged and the other slots hold lightly mutated copies.
func seedPopulation(rng *rand.Rand, cfg config.Config, saved *neural.Weights) ([]*neural.Controller, error) {
	n := cfg.Trainer.PopulationSize
	brains := make([]*neural.Controller, 0, n)
	for i := 0; i < n; i++ {
		var (
			b   *neural.Controller
			err error
		)
		switch {
		case saved != nil && i > 0:
			b = brains[0].Copy()
			b.Mutate(cfg.Trainer.MinMutationRate)
		default:
			b, err = newBrain(rng, cfg, saved)
		}
		if err != nil {
			for _, prev := range brains {
				prev.Dispose()
			}
			return nil, err
		}
		brains = append(brains, b)
	}
	return brains, nil
}

// Step runs one tick: read input, advance the engine, hand a snapshot to the
// render sink. It returns ErrClosed once the session is closed.
func (s *Session) Step() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var in pong.Input
	if s.input != nil {
		in = s.input.Input()
	}
	s.engine.Step(in)
	if s.render != nil {
		s.render.Render(s.engine.Snapshot())
	}
	return nil
}

// Snapshot returns a copy of the current board. After Close it returns the zero Snapshot.
func (s *Session) Snapshot() pong.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return pong.Snapshot{}
	}
	return s.engine.Snapshot()
}

// ResetScores zeroes both sides' scores.
func (s *Session) ResetScores() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.engine.ResetScores()
	s.logger.Info("scores reset")
}

// Config returns the session configuration.
func (s *Session) Config() config.Config {
	return s.cfg
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close waits for in-flight saves, disposes every controller and detaches the
// input and render collaborators. Calls after the first are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.engine.Close()
	s.trainer.Close()
	s.input = nil
	s.render = nil
	s.logger.Info("session closed",
		"generation", s.trainer.Generation(),
		"episodes", s.trainer.Episodes(),
	)
}
