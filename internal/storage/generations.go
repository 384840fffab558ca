package storage

import (
	"context"
	"fmt"
	"time"
)

// GenerationRecord is one regeneration of a training run.
type GenerationRecord struct {
	ID             int64
	RunID          string
	Generation     int
	Tick           uint64
	EpisodeFitness float64
	BestFitness    float64
	MutationRate   float64
	Survivors      int
	Replaced       int
	CreatedAt      time.Time
}

// RunSummary contains aggregated statistics for a training run.
type RunSummary struct {
	RunID       string
	Generations int
	BestFitness float64
	AvgFitness  float64
	Started     time.Time
	LastUpdate  time.Time
}

// SaveGeneration records a regeneration.
func (s *Store) SaveGeneration(ctx context.Context, rec GenerationRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations
		 (run_id, generation, tick, episode_fitness, best_fitness, mutation_rate, survivors, replaced)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Generation,
		int64(rec.Tick), //nolint:gosec // tick counts stay far below MaxInt64
		rec.EpisodeFitness,
		rec.BestFitness,
		rec.MutationRate,
		rec.Survivors,
		rec.Replaced,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save generation: %w", err)
	}
	return nil
}

// RecentGenerations returns the latest generations of a run, newest first.
// An empty runID selects across all runs.
func (s *Store) RecentGenerations(ctx context.Context, runID string, limit int) ([]GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, generation, tick, episode_fitness, best_fitness,
		        mutation_rate, survivors, replaced, created_at
		 FROM generations
		 WHERE ? = '' OR run_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		runID, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query generations: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var (
			rec       GenerationRecord
			tick      int64
			createdAt any
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.Generation,
			&tick,
			&rec.EpisodeFitness,
			&rec.BestFitness,
			&rec.MutationRate,
			&rec.Survivors,
			&rec.Replaced,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		rec.Tick = uint64(max(0, tick)) //nolint:gosec // clamped to non-negative
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return records, nil
}

// Runs summarizes every recorded training run, most recent first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, COUNT(*), MAX(best_fitness), AVG(episode_fitness), MIN(created_at), MAX(created_at)
		 FROM generations
		 GROUP BY run_id
		 ORDER BY MAX(id) DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r             RunSummary
			started, last any
		)
		if err := rows.Scan(&r.RunID, &r.Generations, &r.BestFitness, &r.AvgFitness, &started, &last); err != nil {
			return nil, fmt.Errorf("storage: cannot scan run row: %w", err)
		}
		r.Started = parseTime(started)
		r.LastUpdate = parseTime(last)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}
