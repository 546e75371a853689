package analysis

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"seqanalyzer/internal/sequence"
)

// DefaultMotif is searched when a run names no motif: the ATG start codon.
const DefaultMotif = "ATG"

// MotifResult holds the hits of one motif over every record.
type MotifResult struct {
	Motif string     `json:"motif"`
	Total int        `json:"total"`
	Hits  []MotifHit `json:"hits"`
}

// Summary aggregates a run.
type Summary struct {
	Records       int            `json:"records"`
	TotalResidues int            `json:"total_residues"`
	MeanGC        float64        `json:"mean_gc"`
	HitsByMotif   map[string]int `json:"hits_by_motif"`
}

// Result is the output of Analyze. Every slice is in collection order.
type Result struct {
	GC       []GCResult    `json:"gc"`
	Motifs   []MotifResult `json:"motifs"`
	Coverage []Coverage    `json:"coverage"`
	Summary  Summary       `json:"summary"`
}

// Options tunes Analyze.
type Options struct {
	// Workers bounds the number of records analyzed at once. Zero means GOMAXPROCS.
	Workers  int
	Observer Observer
}

// NormalizeMotifs validates motifs, drops repeats while keeping first-seen
// order and falls back to DefaultMotif when none are given.
func NormalizeMotifs(motifs []string) ([]string, error) {
	if len(motifs) == 0 {
		return []string{DefaultMotif}, nil
	}
	seen := make(map[string]struct{}, len(motifs))
	out := make([]string, 0, len(motifs))
	for _, m := range motifs {
		if err := ValidateMotif(m); err != nil {
			return nil, err
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

// Analyze computes GC content, motif hits and motif coverage for every record.
// Records are processed by at most opts.Workers goroutines; each writes only
// its own index of the result slices. The collection must be fully loaded.
func Analyze(ctx context.Context, records sequence.Collection, motifs []string, opts Options) (*Result, error) {
	obs := opts.Observer
	if obs == nil {
		obs = NoopObserver{}
	}
	start := time.Now()
	res, err := analyze(ctx, records, motifs, opts.Workers)
	obs.ObserveRun(records.Len(), records.TotalResidues(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	for _, m := range res.Motifs {
		obs.ObserveMotif(m.Motif, m.Total)
	}
	return res, nil
}

func analyze(ctx context.Context, records sequence.Collection, motifs []string, workers int) (*Result, error) {
	motifs, err := NormalizeMotifs(motifs)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := records.Len()
	res := &Result{
		GC:       make([]GCResult, n),
		Motifs:   make([]MotifResult, len(motifs)),
		Coverage: make([]Coverage, n),
	}
	for m, motif := range motifs {
		res.Motifs[m] = MotifResult{Motif: motif, Hits: make([]MotifHit, n)}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := records.At(i)
			res.GC[i] = GCResult{ID: r.ID, GCFraction: GCFraction(r.Residues)}
			cov := newCoverageSet()
			for m, motif := range motifs {
				pos := positions(r.Residues, motif)
				res.Motifs[m].Hits[i] = MotifHit{ID: r.ID, Positions: pos}
				cov.add(pos, len(motif))
			}
			res.Coverage[i] = cov.result(r.ID, len(r.Residues))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Summary = summarize(records, res)
	return res, nil
}

func summarize(records sequence.Collection, res *Result) Summary {
	s := Summary{
		Records:       records.Len(),
		TotalResidues: records.TotalResidues(),
		HitsByMotif:   make(map[string]int, len(res.Motifs)),
	}
	var sum float64
	for _, g := range res.GC {
		sum += g.GCFraction
	}
	if len(res.GC) > 0 {
		s.MeanGC = sum / float64(len(res.GC))
	}
	for m := range res.Motifs {
		total := 0
		for _, h := range res.Motifs[m].Hits {
			total += len(h.Positions)
		}
		res.Motifs[m].Total = total
		s.HitsByMotif[res.Motifs[m].Motif] = total
	}
	return s
}
