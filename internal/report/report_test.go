package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqanalyzer/internal/analysis"
	"seqanalyzer/internal/sequence"
	"seqanalyzer/internal/store"
)

func sampleResult(t *testing.T) *analysis.Result {
	t.Helper()
	c := sequence.NewCollection([]sequence.Record{
		{ID: "seq1", Residues: "GCGC"},
		{ID: "seq2", Residues: "AAAAA"},
	})
	res, err := analysis.Analyze(context.Background(), c, []string{"AA"}, analysis.Options{Workers: 2})
	require.NoError(t, err)
	return res
}

func TestResultText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Result(&buf, FormatText, sampleResult(t)))
	out := buf.String()
	assert.Contains(t, out, "records: 2  residues: 9  mean GC: 50.00%")
	assert.Contains(t, out, "motif AA: 4 hits")
	assert.Contains(t, out, "seq1")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "Coverage%")
}

func TestResultJSON(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult(t)
	require.NoError(t, Result(&buf, FormatJSON, res))
	var back analysis.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, *res, back)
}

func TestGCAndMotif(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GC(&buf, FormatText, []analysis.GCResult{{ID: "x", GCFraction: 0.5}}))
	assert.Contains(t, buf.String(), "0.5000")
	assert.Contains(t, buf.String(), "50.00")

	buf.Reset()
	hits := []analysis.MotifHit{{ID: "x", Positions: []int{0, 1, 2}}, {ID: "y", Positions: []int{}}}
	require.NoError(t, Motif(&buf, FormatText, "AA", hits))
	assert.Contains(t, buf.String(), "0,1,2")
	assert.Contains(t, buf.String(), "Positions (AA)")

	buf.Reset()
	require.NoError(t, Motif(&buf, FormatJSON, "AA", hits))
	assert.JSONEq(t, `{"motif":"AA","hits":[{"id":"x","positions":[0,1,2]},{"id":"y","positions":[]}]}`, buf.String())
}

func TestRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Runs(&buf, FormatText, nil))
	assert.Equal(t, "no stored runs\n", buf.String())

	buf.Reset()
	require.NoError(t, Runs(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	runs := []store.RunSummary{{
		ID:        "abc",
		CreatedAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Source:    "in.fasta",
		Motifs:    []string{"ATG", "TAA"},
		Records:   3,
		MeanGC:    0.25,
	}}
	require.NoError(t, Runs(&buf, FormatText, runs))
	assert.Contains(t, buf.String(), "2024-05-06 07:08:09")
	assert.Contains(t, buf.String(), "ATG,TAA")
	assert.Contains(t, buf.String(), "25.00")
}

func TestUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Result(&buf, "xml", &analysis.Result{}))
	assert.Error(t, Runs(&buf, "yaml", nil))
}
