package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"seqanalyzer/internal/app"
	"seqanalyzer/internal/config"
	"seqanalyzer/internal/metrics"
	"seqanalyzer/internal/server"
)

func main() {
	if err := newServeCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:          "seqanalyzer-web",
		Short:        "Serve the analysis HTTP API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.ListenAddr = addr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return serve(cfg, verbose)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file (default ./"+config.DefaultFile+" when present)")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable verbose (debug) logging")
	return cmd
}

func serve(cfg *config.Config, verbose bool) error {
	a := app.New(cfg, verbose, "web")
	defer a.Close()
	logger := a.Logger

	s, err := a.OpenStore(context.Background())
	if err != nil {
		logger.Error("failed to open run store", "backend", cfg.Store.Backend, "err", err)
		return err
	}
	if s == nil {
		logger.Warn("run store disabled; save=true requests will be rejected")
	}

	srv := server.New(server.Options{
		Logger:  logger,
		Store:   s,
		Metrics: metrics.New(true),
		Motifs:  cfg.Motifs,
		Workers: cfg.Workers,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.ListenAddr) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "err", err)
		}
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "err", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
