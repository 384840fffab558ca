package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/neuropong/internal/neural"
)

// ModelRecord is a stored controller snapshot.
type ModelRecord struct {
	ID         int64
	Name       string
	Weights    neural.Weights
	Fitness    float64
	Generation int
	BrainID    int64
	CreatedAt  time.Time
}

// ModelSummary describes the models stored under one name.
type ModelSummary struct {
	Name        string
	Count       int
	BestFitness float64
	Topology    string
	LastSaved   time.Time
}

// SaveModel stores a controller snapshot under name.
// Returns the ID of the inserted record.
func (s *Store) SaveModel(ctx context.Context, name string, rec ModelRecord) (int64, error) {
	if err := rec.Weights.Validate(); err != nil {
		return 0, fmt.Errorf("storage: refusing to save model: %w", err)
	}
	blob, err := json.Marshal(rec.Weights)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot encode weights: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO models (name, inputs, hidden, outputs, weights, fitness, generation, brain_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		name,
		rec.Weights.Inputs,
		rec.Weights.Hidden,
		rec.Weights.Outputs,
		blob,
		rec.Fitness,
		rec.Generation,
		rec.BrainID,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save model: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// LatestModel returns the most recently saved model under name.
// Returns ErrModelNotFound if there is none.
func (s *Store) LatestModel(ctx context.Context, name string) (*ModelRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, weights, fitness, generation, brain_id, created_at
		 FROM models
		 WHERE name = ?
		 ORDER BY id DESC
		 LIMIT 1`,
		name,
	)

	rec, err := scanModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ModelHistory returns up to limit saved snapshots under name, newest first.
func (s *Store) ModelHistory(ctx context.Context, name string, limit int) ([]ModelRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, weights, fitness, generation, brain_id, created_at
		 FROM models
		 WHERE name = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		name, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query models: %w", err)
	}
	defer rows.Close()

	var records []ModelRecord
	for rows.Next() {
		rec, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanModel(row scanner) (*ModelRecord, error) {
	var (
		rec       ModelRecord
		blob      []byte
		createdAt any
	)
	if err := row.Scan(&rec.ID, &rec.Name, &blob, &rec.Fitness, &rec.Generation, &rec.BrainID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("storage: cannot scan model: %w", err)
	}
	if err := json.Unmarshal(blob, &rec.Weights); err != nil {
		return nil, fmt.Errorf("storage: cannot decode weights of model %d: %w", rec.ID, err)
	}
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

// ListModels summarizes every stored model name, most recently saved first.
func (s *Store) ListModels(ctx context.Context) ([]ModelSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, COUNT(*), MAX(fitness), MAX(inputs), MAX(hidden), MAX(outputs), MAX(created_at)
		 FROM models
		 GROUP BY name
		 ORDER BY MAX(id) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list models: %w", err)
	}
	defer rows.Close()

	var summaries []ModelSummary
	for rows.Next() {
		var (
			m                       ModelSummary
			inputs, hidden, outputs int
			lastSaved               any
		)
		if err := rows.Scan(&m.Name, &m.Count, &m.BestFitness, &inputs, &hidden, &outputs, &lastSaved); err != nil {
			return nil, fmt.Errorf("storage: cannot scan summary row: %w", err)
		}
		m.Topology = fmt.Sprintf("%d-%d-%d", inputs, hidden, outputs)
		m.LastSaved = parseTime(lastSaved)
		summaries = append(summaries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return summaries, nil
}

// DeleteModels removes every snapshot stored under name.
// Returns the number of deleted records.
func (s *Store) DeleteModels(ctx context.Context, name string) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM models WHERE name = ?", name)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot delete models: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot count deleted rows: %w", err)
	}
	return n, nil
}
