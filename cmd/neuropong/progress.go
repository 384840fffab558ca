package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/neuropong/internal/pong"
)

// progressEvery is how often a generation is logged at info level.
const progressEvery = 25

// progress logs training milestones and keeps totals for the final summary.
type progress struct {
	mu          sync.Mutex
	logger      *log.Logger
	generations int
	bestFitness float64
	bestGen     int
	saves       int
	saveErrors  int
	lastTick    uint64
}

func newProgress(logger *log.Logger) *progress {
	return &progress{logger: logger.WithPrefix("train")}
}

// Emit implements pong.Sink.
func (p *progress) Emit(e pong.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := e.(type) {
	case pong.GenerationEvent:
		p.generations++
		p.lastTick = ev.Tick
		lvl := log.DebugLevel
		if ev.Generation%progressEvery == 0 {
			lvl = log.InfoLevel
		}
		p.logger.Log(lvl, "generation",
			"gen", ev.Generation,
			"fitness", fmt.Sprintf("%.2f", ev.Fitness),
			"best", fmt.Sprintf("%.2f", ev.BestFitness),
			"survivors", ev.Survivors,
			"replaced", ev.Replaced,
			"mutation", fmt.Sprintf("%.3f", ev.MutationRate),
		)
	case pong.BestFitnessEvent:
		p.bestFitness = ev.Fitness
		p.bestGen = ev.Generation
		p.logger.Info("new best", "fitness", fmt.Sprintf("%.2f", ev.Fitness), "gen", ev.Generation, "brain", ev.BrainID)
	case pong.SavedEvent:
		p.saves++
		p.logger.Debug("model saved", "fitness", ev.Fitness, "gen", ev.Generation)
	case pong.SaveFailedEvent:
		p.saveErrors++
		p.logger.Warn("model save failed", "gen", ev.Generation, "error", ev.Err)
	}
}

// print writes the end-of-run summary.
func (p *progress) print(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(w, "Training finished")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-14s tick %d\n", "Last episode", p.lastTick)
	fmt.Fprintf(w, "  %-14s %d\n", "Generations", p.generations)
	if p.bestGen > 0 || p.bestFitness > 0 {
		fmt.Fprintf(w, "  %-14s %.2f (generation %d)\n", "Best fitness", p.bestFitness, p.bestGen)
	} else {
		fmt.Fprintf(w, "  %-14s %s\n", "Best fitness", "none yet")
	}
	fmt.Fprintf(w, "  %-14s %d\n", "Models saved", p.saves)
	if p.saveErrors > 0 {
		fmt.Fprintf(w, "  %-14s %d\n", "Save errors", p.saveErrors)
	}
}
