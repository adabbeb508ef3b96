// Package reportstore archives per-generation report records in SQLite so
// finished runs can be inspected offline. It attaches to a controller as a
// report hook and stays entirely outside the generational state machine.
package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/evolvekit/neat-core/neat"
)

// Store is a SQLite-backed report archive. The zero value is not usable;
// construct with New and call Init before use.
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// New creates an archive over the SQLite database at path. ":memory:" is
// accepted for tests.
func New(path string) *Store {
	return &Store{path: path}
}

// Init opens the database and creates the schema. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveReport upserts one generation's record under the given run
// identifier.
func (s *Store) SaveReport(ctx context.Context, runID string, rec neat.ReportRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO reports (run_id, generation, best_fitness, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			best_fitness = excluded.best_fitness,
			payload = excluded.payload
	`, runID, rec.Generation, rec.BestFitness, payload)
	return err
}

// Reports returns a run's archived records in generation order.
func (s *Store) Reports(ctx context.Context, runID string) ([]neat.ReportRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT payload FROM reports WHERE run_id = ? ORDER BY generation`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []neat.ReportRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec neat.ReportRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode report for run %s: %w", runID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BestFitness returns the highest archived best_fitness for a run; ok is
// false when the run has no records.
func (s *Store) BestFitness(ctx context.Context, runID string) (float64, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, false, err
	}

	var best sql.NullFloat64
	err = db.QueryRowContext(ctx,
		`SELECT MAX(best_fitness) FROM reports WHERE run_id = ?`, runID).Scan(&best)
	if err != nil {
		return 0, false, err
	}
	if !best.Valid {
		return 0, false, nil
	}
	return best.Float64, true, nil
}

// Hook adapts the archive into a report hook: each incoming ReportRecord
// is saved under runID. Attach it with ctrl.ReportHooks().Add.
func (s *Store) Hook(ctx context.Context, runID string) neat.Hook {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("report hook expects 1 argument, got %d", len(args))
		}
		rec, ok := args[0].(neat.ReportRecord)
		if !ok {
			return nil, fmt.Errorf("report hook received %T, want neat.ReportRecord", args[0])
		}
		if err := s.SaveReport(ctx, runID, rec); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reports (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
