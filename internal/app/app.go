// Package app holds the wiring shared by the seqanalyzer binaries: logger,
// input loader and run store, all built from one Config.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"seqanalyzer/internal/config"
	"seqanalyzer/internal/logging"
	"seqanalyzer/internal/ncbi"
	"seqanalyzer/internal/source"
	"seqanalyzer/internal/store"
)

// App owns the long-lived resources of one process.
type App struct {
	Config *config.Config
	Logger *log.Logger

	closers []func() error
}

// New builds the logger and logs the non-secret parts of cfg.
func New(cfg *config.Config, verbose bool, prefix string) *App {
	logger, closeLog := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		File:    cfg.LogFile,
		Prefix:  prefix,
	})
	logger.Debug("loaded config",
		"input", cfg.Input,
		"output", cfg.Output,
		"format", cfg.Format,
		"motifs", cfg.Motifs,
		"workers", cfg.Workers,
		"store_backend", cfg.Store.Backend,
		"ncbi_cache_path", cfg.NCBI.CachePath,
		"s3_endpoint", cfg.S3.Endpoint)
	if cfg.NCBI.APIKey != "" {
		logger.Debug("ncbi api key provided in config (not logged)")
	}
	return &App{Config: cfg, Logger: logger, closers: []func() error{closeLog}}
}

// Loader returns a source loader with NCBI access and, when an endpoint is
// configured, S3 access.
func (a *App) Loader() (*source.Loader, error) {
	cfg := a.Config
	cachePath := cfg.NCBI.CachePath
	if cachePath != "" {
		if abs, err := filepath.Abs(cachePath); err == nil {
			cachePath = abs
		}
	}
	ttl := time.Duration(cfg.NCBI.CacheTTLSeconds) * time.Second
	cache := ncbi.NewCache(cachePath, ttl)
	a.Logger.Debug("ncbi cache", "path", cache.Path(), "ttl", ttl)

	l := &source.Loader{NCBI: ncbi.NewClient(cfg.NCBI.APIKey, cfg.NCBI.QPS, cache)}
	g, err := source.NewMinioGetter(cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	if g != nil {
		l.S3 = g
		a.Logger.Debug("s3 input enabled", "endpoint", cfg.S3.Endpoint)
	}
	return l, nil
}

// OpenStore opens the configured run store. It returns (nil, nil) when the
// backend is "none" or empty. The store is closed by Close.
func (a *App) OpenStore(ctx context.Context) (store.Store, error) {
	backend := a.Config.Store.Backend
	if backend == "" || backend == "none" {
		return nil, nil
	}
	s, err := store.Open(ctx, backend, a.Config.Store.DSN)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("run store open", "backend", backend)
	a.closers = append(a.closers, s.Close)
	return s, nil
}

// Close releases everything opened through the App, newest first.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
