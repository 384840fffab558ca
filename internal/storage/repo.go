package storage

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/neuropong/internal/evolution"
	"github.com/vovakirdan/neuropong/internal/neural"
	"github.com/vovakirdan/neuropong/internal/pong"
)

// ModelRepo binds a store to one model name. It saves new best models for the
// trainer and loads the starting controller for a session.
type ModelRepo struct {
	store *Store
	name  string
}

// NewModelRepo creates a repository for models stored under name.
func NewModelRepo(store *Store, name string) *ModelRepo {
	return &ModelRepo{store: store, name: name}
}

// Name returns the model name the repository reads and writes.
func (r *ModelRepo) Name() string {
	return r.name
}

// Save implements evolution.Persistence.
func (r *ModelRepo) Save(ctx context.Context, m evolution.Model) error {
	_, err := r.store.SaveModel(ctx, r.name, ModelRecord{
		Weights:    m.Weights,
		Fitness:    m.Fitness,
		Generation: m.Generation,
		BrainID:    m.BrainID,
	})
	return err
}

// Load returns the weights of the latest model. It wraps ErrModelNotFound
// when nothing has been saved yet.
func (r *ModelRepo) Load(ctx context.Context) (neural.Weights, error) {
	rec, err := r.store.LatestModel(ctx, r.name)
	if err != nil {
		return neural.Weights{}, err
	}
	return rec.Weights, nil
}

// Ensure ModelRepo implements evolution.Persistence
var _ evolution.Persistence = (*ModelRepo)(nil)

// recorderBuffer bounds the generations waiting to be written.
const recorderBuffer = 256

// GenerationRecorder is a pong.Sink that stores every GenerationEvent of one
// training run. Writes happen on a background goroutine so Emit never blocks
// the tick; events beyond the buffer are dropped and counted.
type GenerationRecorder struct {
	store   *Store
	runID   string
	logger  *log.Logger
	queue   chan GenerationRecord
	done    chan struct{}
	dropped atomic.Int64
	once    sync.Once
}

// NewGenerationRecorder starts a recorder for runID. Call Close to flush it.
func NewGenerationRecorder(store *Store, runID string, logger *log.Logger) *GenerationRecorder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &GenerationRecorder{
		store:  store,
		runID:  runID,
		logger: logger.WithPrefix("history"),
		queue:  make(chan GenerationRecord, recorderBuffer),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// RunID returns the run the recorder writes to.
func (r *GenerationRecorder) RunID() string {
	return r.runID
}

// Emit implements pong.Sink.
func (r *GenerationRecorder) Emit(e pong.Event) {
	ev, ok := e.(pong.GenerationEvent)
	if !ok {
		return
	}
	rec := GenerationRecord{
		RunID:          r.runID,
		Generation:     ev.Generation,
		Tick:           ev.Tick,
		EpisodeFitness: ev.Fitness,
		BestFitness:    ev.BestFitness,
		MutationRate:   ev.MutationRate,
		Survivors:      ev.Survivors,
		Replaced:       ev.Replaced,
	}
	select {
	case r.queue <- rec:
	default:
		r.dropped.Add(1)
	}
}

func (r *GenerationRecorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.store.SaveGeneration(ctx, rec); err != nil {
			r.logger.Error("cannot record generation", "generation", rec.Generation, "error", err)
		}
		cancel()
	}
}

// Dropped returns how many generations were discarded because the writer fell behind.
func (r *GenerationRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits for queued writes.
// Emit must not be called after Close.
func (r *GenerationRecorder) Close() {
	r.once.Do(func() {
		close(r.queue)
		<-r.done
		if n := r.dropped.Load(); n > 0 {
			r.logger.Warn("generations dropped", "count", n)
		}
	})
}
