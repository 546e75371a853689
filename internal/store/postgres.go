package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS seqanalyzer_runs (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	source TEXT NOT NULL,
	motifs JSONB NOT NULL,
	records INTEGER NOT NULL,
	mean_gc DOUBLE PRECISION NOT NULL,
	payload JSONB NOT NULL
)`

// PostgresStore keeps runs in a Postgres table through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPool parses databaseURL, connects and pings. The pool is closed again if
// the ping fails.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgresStore connects to dsn and ensures the runs table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("store: postgres dsn is required")
	}
	pool, err := NewPool(ctx, dsn, 4)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, run Run) error {
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
	_, err = s.pool.Exec(ctx, `INSERT INTO seqanalyzer_runs (id, created_at, source, motifs, records, mean_gc, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET created_at = EXCLUDED.created_at, source = EXCLUDED.source,
			motifs = EXCLUDED.motifs, records = EXCLUDED.records, mean_gc = EXCLUDED.mean_gc, payload = EXCLUDED.payload`,
		run.ID, run.CreatedAt, run.Source, motifs, sum.Records, sum.MeanGC, payload)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Run, error) {
	var (
		run             Run
		motifs, payload []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT id, created_at, source, motifs, payload FROM seqanalyzer_runs WHERE id = $1`, id).
		Scan(&run.ID, &run.CreatedAt, &run.Source, &motifs, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("select run: %w", err)
	}
	run.CreatedAt = run.CreatedAt.UTC()
	if err := json.Unmarshal(motifs, &run.Motifs); err != nil {
		return Run{}, fmt.Errorf("decode motifs: %w", err)
	}
	if err := json.Unmarshal(payload, &run.Result); err != nil {
		return Run{}, fmt.Errorf("decode payload: %w", err)
	}
	return run, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, created_at, source, motifs, records, mean_gc FROM seqanalyzer_runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer rows.Close()
	var out []RunSummary
	for rows.Next() {
		var (
			sum    RunSummary
			motifs []byte
		)
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &sum.Source, &motifs, &sum.Records, &sum.MeanGC); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		if err := json.Unmarshal(motifs, &sum.Motifs); err != nil {
			return nil, fmt.Errorf("decode motifs: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
