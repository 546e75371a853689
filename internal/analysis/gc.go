// Package analysis implements the per-record computations over a loaded
// sequence collection: GC content and literal motif search. Every function here
// is a pure transform of its input and safe to call from several goroutines on
// the same Collection.
package analysis

import "seqanalyzer/internal/sequence"

// GCResult is the GC fraction of one record.
type GCResult struct {
	ID         string  `json:"id"`
	GCFraction float64 `json:"gc_fraction"`
}

// Percent returns the GC content as a percentage.
func (r GCResult) Percent() float64 { return r.GCFraction * 100 }

// GCFraction returns the share of residues equal to G or C, ignoring case.
// Other symbols (N, IUPAC codes, gaps) count towards the length only. An empty
// string yields 0.
func GCFraction(residues string) float64 {
	if len(residues) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(residues); i++ {
		switch residues[i] {
		case 'G', 'g', 'C', 'c':
			gc++
		}
	}
	return float64(gc) / float64(len(residues))
}

// ComputeGC returns one GCResult per record, in collection order.
func ComputeGC(records sequence.Collection) []GCResult {
	out := make([]GCResult, records.Len())
	records.Each(func(i int, r sequence.Record) bool {
		out[i] = GCResult{ID: r.ID, GCFraction: GCFraction(r.Residues)}
		return true
	})
	return out
}
