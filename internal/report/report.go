// Package report renders analysis results as indented JSON or as text tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"seqanalyzer/internal/analysis"
	"seqanalyzer/internal/store"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func checkFormat(format string) error {
	switch format {
	case FormatText, FormatJSON:
		return nil
	}
	return fmt.Errorf("report: unknown format %q", format)
}

func pct(f float64) string { return strconv.FormatFloat(f*100, 'f', 2, 64) }

func joinPositions(pos []int) string {
	if len(pos) == 0 {
		return "-"
	}
	parts := make([]string, len(pos))
	for i, p := range pos {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// Result writes the full output of an analysis run.
func Result(w io.Writer, format string, res *analysis.Result) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		return writeJSON(w, res)
	}

	s := res.Summary
	fmt.Fprintf(w, "records: %d  residues: %d  mean GC: %s%%\n", s.Records, s.TotalResidues, pct(s.MeanGC))
	for _, m := range res.Motifs {
		fmt.Fprintf(w, "motif %s: %d hits\n", m.Motif, m.Total)
	}

	headers := []string{"ID", "GC%"}
	for _, m := range res.Motifs {
		headers = append(headers, m.Motif)
	}
	headers = append(headers, "Coverage%")
	t := newTable(headers...)
	for i, g := range res.GC {
		row := []string{g.ID, pct(g.GCFraction)}
		for _, m := range res.Motifs {
			row = append(row, strconv.Itoa(len(m.Hits[i].Positions)))
		}
		row = append(row, pct(res.Coverage[i].Fraction))
		t.Row(row...)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// GC writes one line per record.
func GC(w io.Writer, format string, results []analysis.GCResult) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		return writeJSON(w, results)
	}
	t := newTable("ID", "GC fraction", "GC%")
	for _, g := range results {
		t.Row(g.ID, strconv.FormatFloat(g.GCFraction, 'f', 4, 64), pct(g.GCFraction))
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// Motif writes the 0-based hit positions of a single motif.
func Motif(w io.Writer, format, motif string, hits []analysis.MotifHit) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		return writeJSON(w, struct {
			Motif string              `json:"motif"`
			Hits  []analysis.MotifHit `json:"hits"`
		}{motif, hits})
	}
	t := newTable("ID", "Hits", "Positions ("+motif+")")
	for _, h := range hits {
		t.Row(h.ID, strconv.Itoa(len(h.Positions)), joinPositions(h.Positions))
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

// Runs lists stored runs.
func Runs(w io.Writer, format string, runs []store.RunSummary) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		if runs == nil {
			runs = []store.RunSummary{}
		}
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no stored runs")
		return err
	}
	t := newTable("ID", "Created", "Source", "Motifs", "Records", "Mean GC%")
	for _, r := range runs {
		t.Row(r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, strings.Join(r.Motifs, ","), strconv.Itoa(r.Records), pct(r.MeanGC))
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}
