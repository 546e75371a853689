package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"seqanalyzer/internal/analysis"
	"seqanalyzer/internal/sequence"
)

func testModel(t *testing.T) Model {
	t.Helper()
	recs := []sequence.Record{
		{ID: "V1", Description: "V1 test variant", Residues: strings.Repeat("ATG", 50)},
		{ID: "V2", Residues: "GGCC"},
	}
	res, err := analysis.Analyze(context.Background(), sequence.NewCollection(recs), []string{"ATG", "GG"}, analysis.Options{})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return New("test run", recs, res)
}

func key(s string) tea.KeyMsg {
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCycleMode(t *testing.T) {
	m := testModel(t)
	if m.currentMode != modeResidues {
		t.Fatalf("expected initial mode residues, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeHits {
		t.Fatalf("expected hits, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeSummary {
		t.Fatalf("expected summary, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeResidues {
		t.Fatalf("expected residues, got %v", m.currentMode)
	}
}

func TestBuildRightLinesWrap(t *testing.T) {
	m := testModel(t)
	m.width = 120
	m.height = 40
	lines := m.buildRightLines(m.entries[0])
	// header plus 150 residues wrapped at 74 columns
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), lines)
	}
	if lines[1] != strings.Repeat("ATG", 50)[:74] {
		t.Fatalf("unexpected first chunk %q", lines[1])
	}
}

func TestBuildRightLinesHits(t *testing.T) {
	m := testModel(t)
	m.width = 120
	m.height = 40
	m.currentMode = modeHits
	lines := m.buildRightLines(m.entries[1])
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "ATG: 0 hits") || !strings.Contains(joined, "GG: 1 hits") {
		t.Fatalf("unexpected hit lines: %q", lines)
	}
	if lines[len(lines)-1] != "0" {
		t.Fatalf("expected GG position line, got %q", lines[len(lines)-1])
	}

	lines = m.buildRightLines(m.entries[0])
	if len(lines) < 3 {
		t.Fatalf("expected wrapped ATG positions, got %q", lines)
	}
}

func TestNoResiduesForStoredRun(t *testing.T) {
	res := &analysis.Result{
		GC:       []analysis.GCResult{{ID: "x", GCFraction: 0.5}},
		Coverage: []analysis.Coverage{{ID: "x", Covered: 3, Fraction: 0.25}},
		Summary:  analysis.Summary{Records: 1},
	}
	m := New("stored", nil, res)
	m.width = 120
	lines := m.buildRightLines(m.entries[0])
	if len(lines) != 1 || !strings.Contains(lines[0], "No residues available") {
		t.Fatalf("unexpected lines %q", lines)
	}
	if m.entries[0].length != 12 {
		t.Fatalf("expected length derived from coverage, got %d", m.entries[0].length)
	}
}

func TestUpdateKeys(t *testing.T) {
	var tm tea.Model = testModel(t)
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	tm, _ = tm.Update(key("3"))
	if got := tm.(Model).currentMode; got != modeSummary {
		t.Fatalf("expected summary after '3', got %v", got)
	}
	tm, _ = tm.Update(key("tab"))
	if got := tm.(Model).currentMode; got != modeResidues {
		t.Fatalf("expected residues after tab, got %v", got)
	}
	tm, _ = tm.Update(key("h"))
	if !tm.(Model).showHelp {
		t.Fatal("expected help to be shown")
	}
	if !strings.Contains(tm.View(), "Total Records: 2") {
		t.Fatal("help modal missing record count")
	}
	_, cmd := tm.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestView(t *testing.T) {
	m := testModel(t)
	if m.View() != "Loading..." {
		t.Fatal("expected loading view before the first resize")
	}
	tm, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	v := tm.View()
	for _, want := range []string{"V1 test variant", "Mode: Residues", "1/2 records"} {
		if !strings.Contains(v, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestStoredRunLengthWithoutHits(t *testing.T) {
	res := &analysis.Result{
		GC:       []analysis.GCResult{{ID: "x", GCFraction: 1}, {ID: "y"}},
		Coverage: []analysis.Coverage{{ID: "x", Length: 9}, {ID: "y", Length: 4, Covered: 2, Fraction: 0.5}},
		Motifs:   []analysis.MotifResult{{Motif: "ATG", Hits: []analysis.MotifHit{{ID: "x"}, {ID: "y", Positions: []int{1}}}}},
		Summary:  analysis.Summary{Records: 2},
	}
	m := New("stored", nil, res)
	if m.entries[0].length != 9 || m.entries[1].length != 4 {
		t.Fatalf("lengths = %d, %d", m.entries[0].length, m.entries[1].length)
	}
}
