// Package persistence stores run checkpoints and per-generation history in
// SQLite, so a long search survives process restarts and its trajectory can be
// inspected or exported afterward.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/theoryforge/lagrangia/pkg/errors"
	"github.com/theoryforge/lagrangia/pkg/evolution"
	"github.com/theoryforge/lagrangia/pkg/fitness"
	"github.com/theoryforge/lagrangia/pkg/genome"
	"github.com/theoryforge/lagrangia/pkg/logging"
)

// Store is a SQLite-backed checkpoint and history store. Safe for concurrent
// use; the checkpointing path is called from a background goroutine.
type Store struct {
	db *sql.DB
}

// GenerationRecord is one row of a run's generation history.
type GenerationRecord struct {
	RunID          string  `json:"run_id"`
	Generation     int     `json:"generation"`
	BestFitness    float64 `json:"best_fitness"`
	DeltaC         float64 `json:"delta_c"`
	DeltaAlpha     float64 `json:"delta_alpha"`
	DeltaG         float64 `json:"delta_g"`
	DigitsC        int     `json:"digits_c"`
	DigitsAlpha    int     `json:"digits_alpha"`
	DigitsG        int     `json:"digits_g"`
	Phase          string  `json:"phase"`
	Locked         bool    `json:"locked"`
	Emergency      bool    `json:"emergency"`
	EvalsPerSecond float64 `json:"evals_per_second"`
	CreatedAt      int64   `json:"created_at"`
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "lagrangia.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to open sqlite database")
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to enable WAL mode")
	}

	pragmas := []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=10000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			logging.GetLogger().Warn(context.Background(), "Failed to set pragma %s: %v", pragma, err)
		}
	}

	return s, nil
}

func (s *Store) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS checkpoints (
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		fitness REAL NOT NULL,
		genes TEXT NOT NULL,
		candidate TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, generation)
	);

	CREATE TABLE IF NOT EXISTS generation_history (
		run_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		best_fitness REAL NOT NULL,
		delta_c REAL NOT NULL,
		delta_alpha REAL NOT NULL,
		delta_g REAL NOT NULL,
		digits_c INTEGER NOT NULL,
		digits_alpha INTEGER NOT NULL,
		digits_g INTEGER NOT NULL,
		phase TEXT NOT NULL,
		locked INTEGER NOT NULL,
		emergency INTEGER NOT NULL,
		evals_per_second REAL NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, generation)
	);

	CREATE INDEX IF NOT EXISTS idx_checkpoints_fitness ON checkpoints(run_id, fitness);
	`

	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "failed to initialize schema")
	}
	return nil
}

// SaveBest persists a best-candidate snapshot. Implements the controller's
// checkpointer contract; re-saving the same (run, generation) overwrites.
func (s *Store) SaveBest(ctx context.Context, runID string, generation int, cand fitness.Candidate) error {
	genes, err := json.Marshal(cand.Genes)
	if err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "failed to encode genes")
	}
	full, err := json.Marshal(cand)
	if err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "failed to encode candidate")
	}

	query := `
	INSERT INTO checkpoints (run_id, generation, fitness, genes, candidate, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, generation) DO UPDATE SET
		fitness = excluded.fitness,
		genes = excluded.genes,
		candidate = excluded.candidate,
		created_at = excluded.created_at
	`

	_, err = s.db.ExecContext(ctx, query, runID, generation, cand.Fitness, string(genes), string(full), time.Now().UnixNano())
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to save checkpoint"),
			errors.Fields{"run_id": runID, "generation": generation},
		)
	}
	return nil
}

// BestCheckpoint returns the lowest-fitness checkpoint of a run.
func (s *Store) BestCheckpoint(ctx context.Context, runID string) (fitness.Candidate, error) {
	query := `
	SELECT candidate FROM checkpoints
	WHERE run_id = ?
	ORDER BY fitness ASC, generation DESC
	LIMIT 1
	`

	var encoded string
	err := s.db.QueryRowContext(ctx, query, runID).Scan(&encoded)
	if err == sql.ErrNoRows {
		return fitness.Candidate{}, errors.WithFields(
			errors.New(errors.ResourceNotFound, "no checkpoint for run"),
			errors.Fields{"run_id": runID},
		)
	}
	if err != nil {
		return fitness.Candidate{}, errors.Wrap(err, errors.PersistenceFailed, "failed to load checkpoint")
	}

	var cand fitness.Candidate
	if err := json.Unmarshal([]byte(encoded), &cand); err != nil {
		return fitness.Candidate{}, errors.Wrap(err, errors.PersistenceFailed, "failed to decode checkpoint")
	}
	return cand, nil
}

// LatestGenes returns the genes of the most recent checkpoint of a run, for
// seeding a follow-up session.
func (s *Store) LatestGenes(ctx context.Context, runID string) (genome.Chromosome, error) {
	query := `
	SELECT genes FROM checkpoints
	WHERE run_id = ?
	ORDER BY generation DESC
	LIMIT 1
	`

	var encoded string
	err := s.db.QueryRowContext(ctx, query, runID).Scan(&encoded)
	if err == sql.ErrNoRows {
		return genome.Chromosome{}, errors.WithFields(
			errors.New(errors.ResourceNotFound, "no checkpoint for run"),
			errors.Fields{"run_id": runID},
		)
	}
	if err != nil {
		return genome.Chromosome{}, errors.Wrap(err, errors.PersistenceFailed, "failed to load checkpoint")
	}

	var genes genome.Chromosome
	if err := json.Unmarshal([]byte(encoded), &genes); err != nil {
		return genome.Chromosome{}, errors.Wrap(err, errors.PersistenceFailed, "failed to decode genes")
	}
	return genes, nil
}

// RecordGeneration appends one generation-update row to the history.
func (s *Store) RecordGeneration(ctx context.Context, u evolution.Update) error {
	if u.Best == nil {
		return nil
	}

	query := `
	INSERT INTO generation_history (
		run_id, generation, best_fitness,
		delta_c, delta_alpha, delta_g,
		digits_c, digits_alpha, digits_g,
		phase, locked, emergency, evals_per_second, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, generation) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query,
		u.RunID, u.Generation, u.Best.Fitness,
		u.Best.DeltaC, u.Best.DeltaAlpha, u.Best.DeltaG,
		u.DigitsC, u.DigitsAlpha, u.DigitsG,
		u.Phase.String(), u.Locked, u.Emergency, u.EvalsPerSecond, time.Now().UnixNano(),
	)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.PersistenceFailed, "failed to record generation"),
			errors.Fields{"run_id": u.RunID, "generation": u.Generation},
		)
	}
	return nil
}

// History returns a run's generation records ordered by generation.
func (s *Store) History(ctx context.Context, runID string) ([]GenerationRecord, error) {
	query := `
	SELECT run_id, generation, best_fitness,
		delta_c, delta_alpha, delta_g,
		digits_c, digits_alpha, digits_g,
		phase, locked, emergency, evals_per_second, created_at
	FROM generation_history
	WHERE run_id = ?
	ORDER BY generation ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to query history")
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var r GenerationRecord
		err := rows.Scan(
			&r.RunID, &r.Generation, &r.BestFitness,
			&r.DeltaC, &r.DeltaAlpha, &r.DeltaG,
			&r.DigitsC, &r.DigitsAlpha, &r.DigitsG,
			&r.Phase, &r.Locked, &r.Emergency, &r.EvalsPerSecond, &r.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to scan history row")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to read history rows")
	}

	return records, nil
}

// Runs returns the distinct run IDs present in the history, newest first.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	query := `
	SELECT run_id FROM generation_history
	GROUP BY run_id
	ORDER BY MAX(created_at) DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to query runs")
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to scan run id")
		}
		runs = append(runs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.PersistenceFailed, "failed to read run rows")
	}

	return runs, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.PersistenceFailed, "failed to close store")
	}
	return nil
}
