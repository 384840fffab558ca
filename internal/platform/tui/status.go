package tui

import (
	"fmt"

	"github.com/vovakirdan/neuropong/internal/pong"
)

// StatusLog is a pong.Sink that keeps the latest noteworthy event as a
// one-line message for the footer. It is used from the Bubble Tea goroutine only.
type StatusLog struct {
	message     string
	generations int
	saveErrors  int
}

// NewStatusLog creates an empty status log.
func NewStatusLog() *StatusLog {
	return &StatusLog{}
}

// Emit implements pong.Sink.
func (l *StatusLog) Emit(e pong.Event) {
	switch ev := e.(type) {
	case pong.BestFitnessEvent:
		l.message = fmt.Sprintf("new best fitness %.2f at generation %d", ev.Fitness, ev.Generation)
	case pong.SavedEvent:
		l.message = fmt.Sprintf("saved model (fitness %.2f)", ev.Fitness)
	case pong.SaveFailedEvent:
		l.saveErrors++
		l.message = fmt.Sprintf("save failed: %v", ev.Err)
	case pong.LoadFailedEvent:
		l.message = fmt.Sprintf("starting from random weights: %v", ev.Err)
	case pong.GenerationEvent:
		l.generations++
	}
}

// Message returns the latest status line.
func (l *StatusLog) Message() string {
	return l.message
}

// SaveErrors returns the number of failed saves seen.
func (l *StatusLog) SaveErrors() int {
	return l.saveErrors
}
