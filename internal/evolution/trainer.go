package evolution

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/neuropong/internal/config"
	"github.com/vovakirdan/neuropong/internal/core"
	"github.com/vovakirdan/neuropong/internal/neural"
)

const (
	// saveBuffer bounds the number of unreported save completions.
	saveBuffer = 16
	// DefaultSaveTimeout bounds a single model save.
	DefaultSaveTimeout = 5 * time.Second
)

// Options configures a Trainer.
type Options struct {
	PopulationSize      int
	Versus              bool // Fixed agent vs an opponent: no regeneration, scores persist
	ResetScoresInVersus bool
	SaveOnBest          bool
	MinMutationRate     float64
	Fitness             Fitness
	SaveTimeout         time.Duration // 0 uses DefaultSaveTimeout
}

// OptionsFromConfig derives trainer options from the session config.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		PopulationSize:      cfg.Trainer.PopulationSize,
		Versus:              cfg.Opponent.Mode.Versus(),
		ResetScoresInVersus: cfg.Trainer.ResetScoresInVersus,
		SaveOnBest:          cfg.Trainer.SaveOnBest,
		MinMutationRate:     cfg.Trainer.MinMutationRate,
		Fitness: Fitness{
			MissBonusDistance: cfg.Trainer.MissBonusDistance,
			MissBonus:         cfg.Trainer.MissBonus,
		},
	}
}

// Record is the fittest ancestor seen so far. Brain is a private copy.
type Record struct {
	Brain      *neural.Controller
	Fitness    float64
	Generation int
}

// EpisodeResult summarizes what OnEpisodeEnd did.
type EpisodeResult struct {
	Fitness      float64 // Fitness of the evaluated (fittest live) agent
	Slot         int     // Slot of the evaluated agent
	Alive        int     // Live agents at the end of the episode, before regeneration
	NewBest      bool
	Regenerated  bool
	Replaced     int
	MutationRate float64
	Generation   int
}

// Trainer owns the population and runs selection, culling and regeneration.
// All methods except the save goroutines run on the simulation goroutine.
type Trainer struct {
	opts       Options
	population Population
	spawn      core.Box
	best       *Record
	generation int
	episodes   int

	store  Persistence
	logger *log.Logger
	saves  chan SaveResult
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New creates a trainer over the given brains, one agent per brain.
// The trainer takes ownership of the brains. store may be nil.
func New(opts Options, spawn core.Box, brains []*neural.Controller, store Persistence, logger *log.Logger) (*Trainer, error) {
	if opts.PopulationSize < 1 {
		return nil, fmt.Errorf("evolution: population size must be at least 1, got %d", opts.PopulationSize)
	}
	if len(brains) != opts.PopulationSize {
		return nil, fmt.Errorf("evolution: got %d brains for population of %d", len(brains), opts.PopulationSize)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	t := &Trainer{
		opts:   opts,
		spawn:  spawn,
		store:  store,
		logger: logger.WithPrefix("trainer"),
		saves:  make(chan SaveResult, saveBuffer),
	}
	t.population = make(Population, len(brains))
	for i, b := range brains {
		t.population[i] = t.newAgent(i, b)
	}
	return t, nil
}

// newAgent places brain in slot. An agent that has never missed has an
// infinite miss distance, so it cannot earn the close-miss bonus.
func (t *Trainer) newAgent(slot int, brain *neural.Controller) *Agent {
	return &Agent{
		Slot:         slot,
		Paddle:       t.spawn,
		Brain:        brain,
		MissDistance: math.Inf(1),
	}
}

// Population returns the live population slice. Callers must not keep it across ticks.
func (t *Trainer) Population() Population {
	return t.population
}

// Best returns the fittest ancestor record, or nil if none has been recorded.
func (t *Trainer) Best() *Record {
	return t.best
}

// Generation returns the number of regenerations so far.
func (t *Trainer) Generation() int {
	return t.generation
}

// Episodes returns the number of completed episodes.
func (t *Trainer) Episodes() int {
	return t.episodes
}

// OnMiss records each live agent's distance to the ball at the moment of a miss.
func (t *Trainer) OnMiss(ballY float64) {
	for _, a := range t.population.Alive() {
		a.MissDistance = math.Abs(ballY - a.Paddle.CenterY())
	}
}

// OnContact credits the hitters with a contact and culls every other live agent
// that has not rallied this episode. It returns the number of culled agents.
func (t *Trainer) OnContact(hitters []*Agent) int {
	for _, h := range hitters {
		h.BallsHit++
	}
	culled := 0
	for _, a := range t.population {
		if !a.Dead && a.BallsHit < 1 {
			a.Dead = true
			culled++
		}
	}
	return culled
}

// OnEpisodeEnd scores every live agent, updates the best record and, outside
// versus mode, refills the population from the fittest ancestor.
func (t *Trainer) OnEpisodeEnd() EpisodeResult {
	t.episodes++
	alive := t.population.Alive()
	res := EpisodeResult{Alive: len(alive), Generation: t.generation, Slot: -1}
	if len(alive) == 0 {
		// Culling always spares the hitter, so this only happens on a corrupted population.
		panic("evolution: episode ended with no live agents")
	}

	var evaluated *Agent
	res.Fitness = math.Inf(-1)
	for _, a := range alive {
		f := t.opts.Fitness.Calculate(a.BallsHit, a.Score, a.MissDistance)
		if f > res.Fitness {
			evaluated, res.Fitness = a, f
		}
		a.BallsHit = 0
		if !t.opts.Versus || t.opts.ResetScoresInVersus {
			a.Score = 0
		}
	}
	res.Slot = evaluated.Slot

	bestFitness := 0.0
	if t.best != nil {
		bestFitness = t.best.Fitness
	}
	if len(alive) == 1 && res.Fitness > bestFitness {
		t.recordBest(evaluated, res.Fitness)
		res.NewBest = true
	}

	if t.opts.Versus {
		return res
	}

	ancestor := evaluated.Brain
	if t.best != nil {
		ancestor = t.best.Brain
	}
	res.MutationRate = ClampMutationRate(2-res.Fitness, t.opts.MinMutationRate)

	var replace []*Agent
	if len(alive) == len(t.population) {
		replace = t.population
	} else {
		for _, a := range t.population {
			if a.Dead {
				replace = append(replace, a)
			}
		}
	}

	retired := make([]*neural.Controller, 0, len(replace))
	for _, a := range replace {
		child := ancestor.Copy()
		child.Mutate(res.MutationRate)
		retired = append(retired, a.Brain)
		t.population[a.Slot] = t.newAgent(a.Slot, child)
	}
	for _, b := range retired {
		b.Dispose()
	}

	t.generation++
	res.Regenerated = true
	res.Replaced = len(replace)
	res.Generation = t.generation
	t.logger.Debug("regenerated population",
		"generation", t.generation,
		"replaced", res.Replaced,
		"fitness", res.Fitness,
		"rate", res.MutationRate,
	)
	return res
}

// recordBest replaces the best record with a copy of the agent's brain and
// fires an asynchronous save.
func (t *Trainer) recordBest(a *Agent, fitness float64) {
	if t.best != nil {
		t.best.Brain.Dispose()
	}
	t.best = &Record{
		Brain:      a.Brain.Copy(),
		Fitness:    fitness,
		Generation: t.generation,
	}
	t.logger.Info("new best fitness",
		"fitness", fitness,
		"generation", t.generation,
		"brain", a.Brain.ID(),
	)

	if t.opts.SaveOnBest && t.store != nil {
		t.persist(Model{
			Weights:    t.best.Brain.Weights(),
			Fitness:    fitness,
			Generation: t.generation,
			BrainID:    t.best.Brain.ID(),
		})
	}
}

// persist saves m on its own goroutine. The weights are already a snapshot, so
// later mutation of the population cannot race with the save.
// Each save is bounded by SaveTimeout, so Close never waits on a hung store.
func (t *Trainer) persist(m Model) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.opts.SaveTimeout)
		defer cancel()
		err := t.store.Save(ctx, m)
		if err != nil {
			t.logger.Error("save failed", "fitness", m.Fitness, "error", err)
		} else {
			t.logger.Info("saved model", "fitness", m.Fitness, "generation", m.Generation)
		}
		select {
		case t.saves <- SaveResult{Model: m, Err: err}:
		default:
			// Nobody drained recent results; the log line above is enough
		}
	}()
}

// DrainSaves returns the save completions reported since the last call.
// It never blocks.
func (t *Trainer) DrainSaves() []SaveResult {
	var results []SaveResult
	for {
		select {
		case r := <-t.saves:
			results = append(results, r)
		default:
			return results
		}
	}
}

// ResetScores zeroes every agent's score. Used by the versus "reset" action.
func (t *Trainer) ResetScores() {
	for _, a := range t.population {
		a.Score = 0
	}
}

// Close waits for in-flight saves and disposes every controller the trainer owns.
// It is safe to call more than once.
func (t *Trainer) Close() {
	t.closeOnce.Do(func() {
		t.wg.Wait()
		for _, a := range t.population {
			a.Brain.Dispose()
		}
		if t.best != nil {
			t.best.Brain.Dispose()
		}
	})
}
