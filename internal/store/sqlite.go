package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	source TEXT NOT NULL,
	motifs TEXT NOT NULL,
	records INTEGER NOT NULL,
	mean_gc REAL NOT NULL,
	payload BLOB NOT NULL
)`

// SQLiteStore keeps one row per run with the full result as a JSON blob.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = "seqanalyzer.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, run Run) error {
	if err := validateRun(run); err != nil {
		return err
	}
	payload, err := json.Marshal(run.Result)
	if err != nil {
		return err
	}
	motifs, err := json.Marshal(run.Motifs)
	if err != nil {
		return err
	}
	sum := run.Summary()
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs(id, created_at, source, motifs, records, mean_gc, payload)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET created_at=excluded.created_at, source=excluded.source,
			motifs=excluded.motifs, records=excluded.records, mean_gc=excluded.mean_gc, payload=excluded.payload`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.Source, string(motifs), sum.Records, sum.MeanGC, payload)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Run, error) {
	var (
		run             Run
		created, motifs string
		payload         []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, created_at, source, motifs, payload FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &created, &run.Source, &motifs, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("select run: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Run{}, fmt.Errorf("decode created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(motifs), &run.Motifs); err != nil {
		return Run{}, fmt.Errorf("decode motifs: %w", err)
	}
	if err := json.Unmarshal(payload, &run.Result); err != nil {
		return Run{}, fmt.Errorf("decode payload: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, source, motifs, records, mean_gc FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []RunSummary
	for rows.Next() {
		var (
			sum             RunSummary
			created, motifs string
		)
		if err := rows.Scan(&sum.ID, &created, &sum.Source, &motifs, &sum.Records, &sum.MeanGC); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("decode created_at: %w", err)
		}
		if err := json.Unmarshal([]byte(motifs), &sum.Motifs); err != nil {
			return nil, fmt.Errorf("decode motifs: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
