// Package server exposes analysis over HTTP with echo. FASTA is posted as the
// request body (optionally gzip, zstd or lz4 compressed); stored runs are
// read back from the configured store.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"seqanalyzer/internal/analysis"
	"seqanalyzer/internal/fasta"
	"seqanalyzer/internal/metrics"
	"seqanalyzer/internal/store"
)

// DefaultBodyLimit caps uploaded FASTA payloads.
const DefaultBodyLimit = "64M"

// Options configures a Server. Store and Metrics are optional.
type Options struct {
	Logger    *log.Logger
	Store     store.Store
	Metrics   *metrics.Collector
	Motifs    []string
	Workers   int
	BodyLimit string
}

// Server wires the HTTP routes to the analysis pipeline.
type Server struct {
	e       *echo.Echo
	logger  *log.Logger
	store   store.Store
	metrics *metrics.Collector
	motifs  []string
	workers int
}

// New builds the echo instance and registers every route.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	limit := opts.BodyLimit
	if limit == "" {
		limit = DefaultBodyLimit
	}
	s := &Server{
		e:       echo.New(),
		logger:  logger,
		store:   opts.Store,
		metrics: opts.Metrics,
		motifs:  opts.Motifs,
		workers: opts.Workers,
	}
	if s.metrics != nil {
		tracked, err := analysis.NormalizeMotifs(s.motifs)
		if err != nil {
			tracked = []string{analysis.DefaultMotif}
		}
		s.metrics.TrackMotifs(tracked...)
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(Recovery(logger))
	s.e.Use(RequestID())
	s.e.Use(Logger(logger))
	s.e.Use(echomw.BodyLimit(limit))

	s.e.GET("/healthz", s.handleHealth)
	api := s.e.Group("/api")
	api.POST("/analyze", s.handleAnalyze)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	if s.metrics != nil {
		s.e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// AnalyzeResponse is returned by POST /api/analyze. RunID is set only when the
// run was saved.
type AnalyzeResponse struct {
	RunID  string           `json:"run_id,omitempty"`
	Motifs []string         `json:"motifs"`
	Result *analysis.Result `json:"result"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	save, _ := strconv.ParseBool(c.QueryParam("save"))
	if save && s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run storage is disabled")
	}

	motifs := c.QueryParams()["motif"]
	if len(motifs) == 0 {
		motifs = s.motifs
	}
	motifs, err := analysis.NormalizeMotifs(motifs)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	body, _, err := fasta.Decompress(c.Request().Body)
	if err != nil {
		return badInput(err)
	}
	defer body.Close()
	coll, err := fasta.ReadCollection(body)
	if err != nil {
		return badInput(err)
	}

	ctx := c.Request().Context()
	opts := analysis.Options{Workers: s.workers}
	if s.metrics != nil {
		opts.Observer = s.metrics
	}
	res, err := analysis.Analyze(ctx, coll, motifs, opts)
	if err != nil {
		if errors.Is(err, analysis.ErrInvalidMotif) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	s.logger.Debug("analyzed upload", "records", coll.Len(), "motifs", motifs)

	resp := AnalyzeResponse{Motifs: motifs, Result: res}
	if save {
		source := c.QueryParam("source")
		if source == "" {
			source = "upload"
		}
		run := store.NewRun(source, motifs, res)
		if err := s.store.Save(ctx, run); err != nil {
			return err
		}
		resp.RunID = run.ID
		s.logger.Info("run saved", "id", run.ID, "records", coll.Len())
		return c.JSON(http.StatusCreated, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// badInput keeps HTTP errors raised while reading the body (413 from the body
// limit) and reports everything else as a malformed upload.
func badInput(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (s *Server) handleListRuns(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusOK, []store.RunSummary{})
	}
	runs, err := s.store.List(c.Request().Context())
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []store.RunSummary{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	run, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}
