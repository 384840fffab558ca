package session

import (
	"context"
	"sync/atomic"

	"github.com/vovakirdan/neuropong/internal/neural"
	"github.com/vovakirdan/neuropong/internal/pong"
)

// InputProvider supplies the human opponent's intent once per tick.
type InputProvider interface {
	Input() pong.Input
}

// InputFlags is an InputProvider whose flags may be set from any goroutine,
// typically a keyboard handler.
type InputFlags struct {
	up   atomic.Bool
	down atomic.Bool
}

// SetUp sets the move-up flag.
func (f *InputFlags) SetUp(v bool) {
	f.up.Store(v)
}

// SetDown sets the move-down flag.
func (f *InputFlags) SetDown(v bool) {
	f.down.Store(v)
}

// Release clears both flags.
func (f *InputFlags) Release() {
	f.up.Store(false)
	f.down.Store(false)
}

// Input implements InputProvider.
func (f *InputFlags) Input() pong.Input {
	return pong.Input{Up: f.up.Load(), Down: f.down.Load()}
}

// RenderSink receives one snapshot per tick. Implementations must not block.
type RenderSink interface {
	Render(snap pong.Snapshot)
}

// RenderFunc adapts a function to the RenderSink interface.
type RenderFunc func(snap pong.Snapshot)

// Render calls f(snap).
func (f RenderFunc) Render(snap pong.Snapshot) {
	f(snap)
}

// ModelLoader fetches the weights of a previously trained controller.
type ModelLoader interface {
	Load(ctx context.Context) (neural.Weights, error)
}
