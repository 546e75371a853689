// Package metrics exports analysis runs as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seqanalyzer/internal/analysis"
)

var _ analysis.Observer = (*Collector)(nil)

// Collector implements analysis.Observer on its own registry.
type Collector struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	runLatency  prometheus.Histogram
	records     prometheus.Counter
	residues    prometheus.Counter
	motifHits   *prometheus.CounterVec
	lastRecords prometheus.Gauge
	// tracked is the allowed motif label set; nil allows every motif.
	tracked map[string]struct{}
}

// OtherMotif is the motif label for hits on motifs outside the tracked set.
const OtherMotif = "other"

// New registers the seqanalyzer metrics. withProcess adds the Go runtime and
// process collectors, which only make sense for long-running servers.
func New(withProcess bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seqanalyzer_runs_total",
			Help: "Analysis runs by outcome",
		}, []string{"status"}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seqanalyzer_run_duration_seconds",
			Help:    "Wall time of analysis runs",
			Buckets: prometheus.DefBuckets,
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seqanalyzer_records_analyzed_total",
			Help: "Records analyzed by successful runs",
		}),
		residues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seqanalyzer_residues_analyzed_total",
			Help: "Residues analyzed by successful runs",
		}),
		motifHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seqanalyzer_motif_hits_total",
			Help: "Motif occurrences found",
		}, []string{"motif"}),
		lastRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seqanalyzer_last_run_records",
			Help: "Record count of the most recent successful run",
		}),
	}
	c.registry.MustRegister(c.runs, c.runLatency, c.records, c.residues, c.motifHits, c.lastRecords)
	if withProcess {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

func (c *Collector) ObserveRun(records, residues int, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.runs.WithLabelValues(status).Inc()
	c.runLatency.Observe(d.Seconds())
	if err != nil {
		return
	}
	c.records.Add(float64(records))
	c.residues.Add(float64(residues))
	c.lastRecords.Set(float64(records))
}

func (c *Collector) ObserveMotif(motif string, hits int) {
	if c.tracked != nil {
		if _, ok := c.tracked[motif]; !ok {
			motif = OtherMotif
		}
	}
	c.motifHits.WithLabelValues(motif).Add(float64(hits))
}

// TrackMotifs restricts the motif label to the given motifs; hits on any other
// motif are counted under OtherMotif. Call it before the collector is shared.
func (c *Collector) TrackMotifs(motifs ...string) {
	c.tracked = make(map[string]struct{}, len(motifs))
	for _, m := range motifs {
		c.tracked[m] = struct{}{}
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
