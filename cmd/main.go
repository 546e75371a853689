package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"seqanalyzer/internal/analysis"
	"seqanalyzer/internal/app"
	"seqanalyzer/internal/config"
	"seqanalyzer/internal/fasta"
	"seqanalyzer/internal/metrics"
	"seqanalyzer/internal/report"
	"seqanalyzer/internal/sequence"
	"seqanalyzer/internal/source"
	"seqanalyzer/internal/store"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

type rootFlags struct {
	configPath string
	verbose    bool
	format     string
	workers    int
	out        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		f rootFlags
		a *app.App
	)
	root := &cobra.Command{
		Use:          "seqanalyzer",
		Short:        "GC content and motif analysis for FASTA sequences",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			a = app.New(cfg, f.verbose, "")
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to config file (default ./"+config.DefaultFile+" when present)")
	pf.BoolVar(&f.verbose, "verbose", false, "enable verbose (debug) logging")
	pf.StringVar(&f.format, "format", "", "output format: text or json")
	pf.IntVar(&f.workers, "workers", 0, "records analyzed concurrently (0 = GOMAXPROCS)")
	pf.StringVar(&f.out, "out", "", "write output to this file instead of stdout")

	getApp := func() *app.App { return a }
	root.AddCommand(
		analyzeCmd(getApp),
		gcCmd(getApp),
		motifCmd(getApp),
		fetchCmd(getApp),
		runsCmd(getApp),
		versionCmd(),
	)
	return root
}

// loadConfig merges flags over the config file; flags win when set.
func loadConfig(cmd *cobra.Command, f rootFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = f.format
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("out") {
		cfg.Output = f.out
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "seqanalyzer", version)
		},
	}
}

// inputLocation picks the positional argument, then the configured input.
func inputLocation(a *app.App, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.Config.Input != "" {
		return a.Config.Input, nil
	}
	return "", fmt.Errorf("no input: pass a location or set input in the config")
}

func load(ctx context.Context, a *app.App, args []string) (sequence.Collection, source.Info, error) {
	loc, err := inputLocation(a, args)
	if err != nil {
		return sequence.Collection{}, source.Info{}, err
	}
	loader, err := a.Loader()
	if err != nil {
		return sequence.Collection{}, source.Info{}, err
	}
	coll, info, err := loader.Load(ctx, loc)
	if err != nil {
		a.Logger.Error("failed to load input", "location", loc, "err", err)
		return sequence.Collection{}, info, err
	}
	a.Logger.Info("sequences loaded", "location", info.Location, "kind", info.Kind, "compression", info.Compression, "count", info.Records)
	return coll, info, nil
}

// output opens the configured output file, or returns cmd's stdout.
func output(cmd *cobra.Command, a *app.App) (io.Writer, func() error, error) {
	if a.Config.Output == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(a.Config.Output)
	if err != nil {
		return nil, nil, err
	}
	a.Logger.Debug("writing output", "path", a.Config.Output)
	return f, f.Close, nil
}

func writeOutput(cmd *cobra.Command, a *app.App, fn func(w io.Writer) error) error {
	w, closeFn, err := output(cmd, a)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if a.Config.Output != "" {
		a.Logger.Info("wrote output", "path", a.Config.Output, "format", a.Config.Format)
	}
	return nil
}

func analyzeCmd(getApp func() *app.App) *cobra.Command {
	var (
		motifs      []string
		save        bool
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "analyze [location]",
		Short: "Compute GC content, motif hits and coverage for every record",
		Long: `Location is a FASTA path (optionally .gz, .zst or .lz4), "-" for stdin,
s3://bucket/key or ncbi:ACC1,ACC2.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			ctx := cmd.Context()
			wanted := motifs
			if !cmd.Flags().Changed("motif") {
				wanted = a.Config.Motifs
			}
			promFile := metricsFile
			if !cmd.Flags().Changed("metrics-file") {
				promFile = a.Config.MetricsFile
			}

			coll, info, err := load(ctx, a, args)
			if err != nil {
				return err
			}

			opts := analysis.Options{Workers: a.Config.Workers}
			var col *metrics.Collector
			if promFile != "" {
				col = metrics.New(false)
				opts.Observer = col
			}
			runMotifs, err := analysis.NormalizeMotifs(wanted)
			if err != nil {
				return err
			}
			res, err := analysis.Analyze(ctx, coll, runMotifs, opts)
			if err != nil {
				return err
			}
			a.Logger.Info("analysis finished", "records", res.Summary.Records, "residues", res.Summary.TotalResidues, "mean_gc", res.Summary.MeanGC, "hits", res.Summary.HitsByMotif)

			if col != nil {
				if err := col.WriteTextfile(promFile); err != nil {
					a.Logger.Warn("failed to write metrics file", "path", promFile, "err", err)
				} else {
					a.Logger.Debug("wrote metrics file", "path", promFile)
				}
			}

			if save {
				s, err := a.OpenStore(ctx)
				if err != nil {
					return err
				}
				if s == nil {
					return fmt.Errorf("--save needs a store backend, got %q", a.Config.Store.Backend)
				}
				run := store.NewRun(info.Location, runMotifs, res)
				if err := s.Save(ctx, run); err != nil {
					return err
				}
				a.Logger.Info("run saved", "id", run.ID, "backend", a.Config.Store.Backend)
			}

			return writeOutput(cmd, a, func(w io.Writer) error {
				return report.Result(w, a.Config.Format, res)
			})
		},
	}
	cmd.Flags().StringArrayVar(&motifs, "motif", nil, "motif to search for (repeatable, default ATG)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the run to the configured store")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path")
	return cmd
}

func gcCmd(getApp func() *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "gc [location]",
		Short: "Report the GC fraction of every record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			coll, _, err := load(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			results := analysis.ComputeGC(coll)
			return writeOutput(cmd, a, func(w io.Writer) error {
				return report.GC(w, a.Config.Format, results)
			})
		},
	}
}

func motifCmd(getApp func() *app.App) *cobra.Command {
	var motif string
	cmd := &cobra.Command{
		Use:   "motif [location]",
		Short: "Report every (overlapping) occurrence of one motif",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			if err := analysis.ValidateMotif(motif); err != nil {
				return err
			}
			coll, _, err := load(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			hits, err := analysis.FindMotif(coll, motif)
			if err != nil {
				return err
			}
			return writeOutput(cmd, a, func(w io.Writer) error {
				return report.Motif(w, a.Config.Format, motif, hits)
			})
		},
	}
	cmd.Flags().StringVar(&motif, "motif", analysis.DefaultMotif, "motif to search for")
	return cmd
}

func fetchCmd(getApp func() *app.App) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "fetch <location>",
		Short: "Write any input location back out as plain FASTA",
		Long:  "Useful to save ncbi: or s3:// input locally, or to decompress and rewrap a file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			coll, _, err := load(cmd.Context(), a, args)
			if err != nil {
				return err
			}
			return writeOutput(cmd, a, func(w io.Writer) error {
				return fasta.Write(w, width, coll.Records()...)
			})
		},
	}
	cmd.Flags().IntVar(&width, "width", fasta.DefaultLineWidth, "residues per line (0 = one line per sequence)")
	return cmd
}

func runsCmd(getApp func() *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored analysis runs",
	}
	openStore := func(ctx context.Context, a *app.App) (store.Store, error) {
		s, err := a.OpenStore(ctx)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, fmt.Errorf("no store backend configured")
		}
		return s, nil
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := getApp()
			s, err := openStore(cmd.Context(), a)
			if err != nil {
				return err
			}
			runs, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd, a, func(w io.Writer) error {
				return report.Runs(w, a.Config.Format, runs)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()
			s, err := openStore(cmd.Context(), a)
			if err != nil {
				return err
			}
			run, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.Logger.Debug("loaded run", "id", run.ID, "source", run.Source, "created_at", run.CreatedAt)
			return writeOutput(cmd, a, func(w io.Writer) error {
				return report.Result(w, a.Config.Format, run.Result)
			})
		},
	})
	return cmd
}
