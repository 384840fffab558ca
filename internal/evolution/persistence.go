package evolution

import (
	"context"

	"github.com/vovakirdan/neuropong/internal/neural"
)

// Model is what the trainer hands to the persistence adapter on a new best.
type Model struct {
	Weights    neural.Weights
	Fitness    float64
	Generation int
	BrainID    int64
}

// Persistence stores trained models. Save may be slow; the trainer never waits
// for it inside a tick.
type Persistence interface {
	Save(ctx context.Context, m Model) error
}

// SaveResult reports the completion of an asynchronous save.
type SaveResult struct {
	Model Model
	Err   error
}
