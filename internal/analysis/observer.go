package analysis

import "time"

// Observer receives metrics from Analyze. Implementations must be safe for
// concurrent use when runs overlap.
type Observer interface {
	// ObserveRun is called once per run; err is nil on success.
	ObserveRun(records, residues int, d time.Duration, err error)
	// ObserveMotif is called once per motif of a successful run.
	ObserveMotif(motif string, hits int)
}

// NoopObserver discards everything.
type NoopObserver struct{}

func (NoopObserver) ObserveRun(int, int, time.Duration, error) {}
func (NoopObserver) ObserveMotif(string, int) {}
