// Package store persists analysis runs. Backends: a JSON file, SQLite
// (modernc, pure Go) and Postgres (pgx pool).
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"seqanalyzer/internal/analysis"
)

var (
	// ErrNotFound is returned by Get for an unknown run id.
	ErrNotFound = errors.New("store: run not found")
	// ErrUnknownBackend is returned by Open.
	ErrUnknownBackend = errors.New("store: unknown backend")
)

// Run is one stored analysis.
type Run struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Source    string           `json:"source"`
	Motifs    []string         `json:"motifs"`
	Result    *analysis.Result `json:"result"`
}

// RunSummary is the listing view of a Run.
type RunSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	Motifs    []string  `json:"motifs"`
	Records   int       `json:"records"`
	MeanGC    float64   `json:"mean_gc"`
}

// NewRun stamps a result with a fresh id and the current time.
func NewRun(source string, motifs []string, res *analysis.Result) Run {
	return Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Source:    source,
		Motifs:    motifs,
		Result:    res,
	}
}

// Summary derives the listing view.
func (r Run) Summary() RunSummary {
	s := RunSummary{ID: r.ID, CreatedAt: r.CreatedAt, Source: r.Source, Motifs: r.Motifs}
	if r.Result != nil {
		s.Records = r.Result.Summary.Records
		s.MeanGC = r.Result.Summary.MeanGC
	}
	return s
}

// Store saves and retrieves runs. List returns newest first.
type Store interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	List(ctx context.Context) ([]RunSummary, error)
	Close() error
}

// Open returns the backend named by backend ("json", "sqlite", "postgres").
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch backend {
	case "json":
		return NewJSONStore(dsn), nil
	case "sqlite":
		return NewSQLiteStore(ctx, dsn)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func validateRun(run Run) error {
	if run.ID == "" {
		return errors.New("store: run id is required")
	}
	if run.Result == nil {
		return errors.New("store: run has no result")
	}
	return nil
}
