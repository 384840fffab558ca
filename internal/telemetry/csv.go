// Package telemetry writes per-generation training statistics as CSV.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gocarina/gocsv"

	"github.com/vovakirdan/neuropong/internal/pong"
)

// GenerationRow is one CSV line, written when the population regenerates.
// Rally counters cover the episodes since the previous row.
type GenerationRow struct {
	Generation     int     `csv:"generation"`
	Tick           uint64  `csv:"tick"`
	EpisodeFitness float64 `csv:"episode_fitness"`
	BestFitness    float64 `csv:"best_fitness"`
	MutationRate   float64 `csv:"mutation_rate"`
	Survivors      int     `csv:"survivors"`
	Replaced       int     `csv:"replaced"`
	Contacts       int     `csv:"contacts"`
	Culled         int     `csv:"culled"`
	PlayerPoints   int     `csv:"player_points"`
	Misses         int     `csv:"misses"`
	MaxBallSpeed   float64 `csv:"max_ball_speed"`
}

// CSVSink is a pong.Sink that appends a GenerationRow per GenerationEvent.
type CSVSink struct {
	w             io.Writer
	closer        io.Closer
	logger        *log.Logger
	headerWritten bool
	pending       GenerationRow
	rows          int
	err           error
}

// NewCSVSink writes rows to w. The caller keeps ownership of w.
func NewCSVSink(w io.Writer, logger *log.Logger) *CSVSink {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CSVSink{w: w, logger: logger.WithPrefix("telemetry")}
}

// CreateCSV creates (or truncates) path and returns a sink writing to it.
// Returns nil if path is empty (output disabled).
func CreateCSV(path string, logger *log.Logger) (*CSVSink, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating %s: %w", path, err)
	}
	s := NewCSVSink(f, logger)
	s.closer = f
	return s, nil
}

// Emit implements pong.Sink.
func (s *CSVSink) Emit(e pong.Event) {
	if s == nil {
		return
	}
	switch ev := e.(type) {
	case pong.ContactEvent:
		if ev.Side == pong.SideAgents {
			s.pending.Contacts++
			s.pending.Culled += ev.Culled
		}
		s.pending.MaxBallSpeed = max(s.pending.MaxBallSpeed, ev.Speed)
	case pong.PlayerScoreEvent:
		s.pending.PlayerPoints++
	case pong.MissEvent:
		s.pending.Misses++
	case pong.GenerationEvent:
		row := s.pending
		row.Generation = ev.Generation
		row.Tick = ev.Tick
		row.EpisodeFitness = ev.Fitness
		row.BestFitness = ev.BestFitness
		row.MutationRate = ev.MutationRate
		row.Survivors = ev.Survivors
		row.Replaced = ev.Replaced
		s.pending = GenerationRow{}
		if err := s.write(row); err != nil && s.err == nil {
			// Report once; telemetry never stops the simulation
			s.err = err
			s.logger.Error("telemetry write failed", "error", err)
		}
	}
}

func (s *CSVSink) write(row GenerationRow) error {
	if s.err != nil {
		return s.err
	}
	records := []GenerationRow{row}

	if !s.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, s.w); err != nil {
			return fmt.Errorf("telemetry: writing row: %w", err)
		}
		s.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, s.w); err != nil {
			return fmt.Errorf("telemetry: writing row: %w", err)
		}
	}
	s.rows++
	return nil
}

// Rows returns the number of rows written.
func (s *CSVSink) Rows() int {
	if s == nil {
		return 0
	}
	return s.rows
}

// Err returns the first write error, if any.
func (s *CSVSink) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}

// Close closes the underlying file when the sink created it.
func (s *CSVSink) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ReadCSV parses rows previously written by a CSVSink.
func ReadCSV(r io.Reader) ([]GenerationRow, error) {
	var rows []GenerationRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("telemetry: reading rows: %w", err)
	}
	return rows, nil
}
