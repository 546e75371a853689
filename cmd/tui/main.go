package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"seqanalyzer/internal/analysis"
	"seqanalyzer/internal/app"
	"seqanalyzer/internal/config"
	"seqanalyzer/internal/tui"
)

func main() {
	if err := newBrowseCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type browseFlags struct {
	configPath string
	runID      string
	motifs     []string
	verbose    bool
}

func newBrowseCmd() *cobra.Command {
	var f browseFlags
	cmd := &cobra.Command{
		Use:          "seqanalyzer-tui [location]",
		Short:        "Browse analysis results in the terminal",
		Long:         "Analyzes location (same forms as seqanalyzer analyze) or opens a stored run with --run.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			// logs would corrupt the alternate screen unless they go to a file
			if cfg.LogFile == "" {
				cfg.LogLevel = "error"
			}
			a := app.New(cfg, f.verbose, "tui")
			defer a.Close()

			if !cmd.Flags().Changed("motif") {
				f.motifs = cfg.Motifs
			}
			m, err := buildModel(cmd.Context(), a, f, args)
			if err != nil {
				return err
			}
			return tui.Run(m)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to config file (default ./"+config.DefaultFile+" when present)")
	cmd.Flags().StringVar(&f.runID, "run", "", "open a stored run instead of analyzing input")
	cmd.Flags().StringArrayVar(&f.motifs, "motif", nil, "motif to search for (repeatable, default ATG)")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "enable verbose (debug) logging")
	return cmd
}

func buildModel(ctx context.Context, a *app.App, f browseFlags, args []string) (tui.Model, error) {
	if f.runID != "" {
		s, err := a.OpenStore(ctx)
		if err != nil {
			return tui.Model{}, err
		}
		if s == nil {
			return tui.Model{}, fmt.Errorf("no store backend configured")
		}
		run, err := s.Get(ctx, f.runID)
		if err != nil {
			return tui.Model{}, err
		}
		a.Logger.Info("opened stored run", "id", run.ID, "source", run.Source)
		return tui.New(run.Source+" ("+run.CreatedAt.Format("2006-01-02 15:04")+")", nil, run.Result), nil
	}

	loc := a.Config.Input
	if len(args) > 0 {
		loc = args[0]
	}
	if loc == "" {
		return tui.Model{}, fmt.Errorf("no input: pass a location, --run or set input in the config")
	}
	loader, err := a.Loader()
	if err != nil {
		return tui.Model{}, err
	}
	coll, info, err := loader.Load(ctx, loc)
	if err != nil {
		return tui.Model{}, err
	}
	a.Logger.Info("sequences loaded", "location", info.Location, "records", info.Records)
	res, err := analysis.Analyze(ctx, coll, f.motifs, analysis.Options{Workers: a.Config.Workers})
	if err != nil {
		return tui.Model{}, err
	}
	return tui.New(info.Location, coll.Records(), res), nil
}
