// Package tui is a terminal browser for analysis results: a filterable record
// list on the left and residues, motif hits or the run summary on the right.
package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"seqanalyzer/internal/analysis"
	"seqanalyzer/internal/sequence"
)

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#10B981")
	accentColor    = lipgloss.Color("#F59E0B")
	surfaceColor   = lipgloss.Color("#1F2937")
	textColor      = lipgloss.Color("#F3F4F6")
	mutedColor     = lipgloss.Color("#9CA3AF")
	borderColor    = lipgloss.Color("#374151")
)

var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	labelStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	valueStyle   = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
)

type motifHits struct {
	motif     string
	positions []int
}

// entry is one record joined with its results.
type entry struct {
	id          string
	description string
	residues    string
	length      int
	gc          float64
	coverage    analysis.Coverage
	hits        []motifHits
}

func (e entry) totalHits() int {
	n := 0
	for _, h := range e.hits {
		n += len(h.positions)
	}
	return n
}

type listItem struct {
	e entry
}

func (i listItem) FilterValue() string { return i.e.id }

func (i listItem) Title() string { return i.e.id }

func (i listItem) Description() string {
	return fmt.Sprintf("GC: %.2f%%    hits: %d", i.e.gc*100, i.e.totalHits())
}

type mode int

const (
	modeResidues mode = iota
	modeHits
	modeSummary
	modeCount
)

func (m mode) String() string {
	switch m {
	case modeResidues:
		return "Residues"
	case modeHits:
		return "Motif hits"
	case modeSummary:
		return "Summary"
	default:
		return "Unknown"
	}
}

// Model is the bubbletea model.
type Model struct {
	list          list.Model
	entries       []entry
	summary       analysis.Summary
	title         string
	currentMode   mode
	showHelp      bool
	width         int
	height        int
	selectedIndex int
}

// New builds a model from an analysis result. records may be nil (a stored run
// keeps no residues); otherwise it must be the collection res was computed on.
func New(title string, records []sequence.Record, res *analysis.Result) Model {
	entries := make([]entry, len(res.GC))
	for i, g := range res.GC {
		e := entry{id: g.ID, gc: g.GCFraction}
		if i < len(res.Coverage) {
			e.coverage = res.Coverage[i]
		}
		if len(records) == len(res.GC) {
			e.description = records[i].Description
			e.residues = records[i].Residues
			e.length = records[i].Len()
		} else if e.coverage.Length > 0 {
			e.length = e.coverage.Length
		} else if e.coverage.Fraction > 0 {
			// runs saved before lengths were stored
			e.length = int(float64(e.coverage.Covered)/e.coverage.Fraction + 0.5)
		}
		for _, m := range res.Motifs {
			e.hits = append(e.hits, motifHits{motif: m.Motif, positions: m.Hits[i].Positions})
		}
		entries[i] = e
	}

	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = listItem{e: e}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	return Model{
		list:        l,
		entries:     entries,
		summary:     res.Summary,
		title:       title,
		currentMode: modeResidues,
	}
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) cycleMode() Model {
	m.currentMode = (m.currentMode + 1) % modeCount
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetWidth(msg.Width / 3)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h":
			m.showHelp = !m.showHelp
			return m, nil
		case "tab":
			return m.cycleMode(), nil
		case "1":
			m.currentMode = modeResidues
			return m, nil
		case "2":
			m.currentMode = modeHits
			return m, nil
		case "3":
			m.currentMode = modeSummary
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.selectedIndex = m.list.Index()
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpModal()
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.renderLeftPanel(), m.renderRightPanel())
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderLeftPanel() string {
	return containerStyle.
		Width(m.width/3 - 2).
		Height(m.height - 4).
		Render(m.list.View())
}

func (m Model) contentWidth() int {
	w := m.width*2/3 - 6
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) renderRightPanel() string {
	panel := containerStyle.Width(m.width*2/3 - 2).Height(m.height - 4)

	if m.currentMode == modeSummary {
		return panel.Render(strings.Join(m.summaryLines(), "\n"))
	}
	if len(m.entries) == 0 {
		return panel.Render("No records available")
	}
	sel, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return panel.Render("No record selected")
	}
	e := sel.e

	header := e.id
	if e.description != "" && e.description != e.id {
		header = e.description
	}
	meta := labelStyle.Render("GC: ") + valueStyle.Render(fmt.Sprintf("%.2f%%", e.gc*100)) +
		labelStyle.Render("    Length: ") + valueStyle.Render(strconv.Itoa(e.length)) +
		labelStyle.Render("    Coverage: ") + valueStyle.Render(fmt.Sprintf("%.2f%%", e.coverage.Fraction*100))

	body := lipgloss.JoinVertical(lipgloss.Left, m.buildRightLines(e)...)
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(header), meta, "", body))
}

// buildRightLines renders the selected record for the current mode, wrapped to
// the right panel width.
func (m Model) buildRightLines(e entry) []string {
	width := m.contentWidth()
	switch m.currentMode {
	case modeHits:
		if len(e.hits) == 0 {
			return []string{labelStyle.Render("No motifs searched")}
		}
		var lines []string
		for _, h := range e.hits {
			lines = append(lines, sectionStyle.Render(fmt.Sprintf("%s: %d hits", h.motif, len(h.positions))))
			if len(h.positions) == 0 {
				continue
			}
			words := make([]string, len(h.positions))
			for i, p := range h.positions {
				words[i] = strconv.Itoa(p)
			}
			lines = append(lines, wrapWords(words, width)...)
		}
		return lines
	case modeSummary:
		return m.summaryLines()
	default:
		if e.residues == "" {
			return []string{labelStyle.Render("No residues available")}
		}
		return append([]string{sectionStyle.Render("Residues:")}, chunk(e.residues, width)...)
	}
}

func (m Model) summaryLines() []string {
	s := m.summary
	lines := []string{
		sectionStyle.Render(m.title),
		"",
		labelStyle.Render("Records:  ") + valueStyle.Render(strconv.Itoa(s.Records)),
		labelStyle.Render("Residues: ") + valueStyle.Render(strconv.Itoa(s.TotalResidues)),
		labelStyle.Render("Mean GC:  ") + valueStyle.Render(fmt.Sprintf("%.2f%%", s.MeanGC*100)),
		"",
		sectionStyle.Render("Hits by motif:"),
	}
	motifs := make([]string, 0, len(s.HitsByMotif))
	for k := range s.HitsByMotif {
		motifs = append(motifs, k)
	}
	sort.Strings(motifs)
	for _, k := range motifs {
		lines = append(lines, fmt.Sprintf("  %s  %d", k, s.HitsByMotif[k]))
	}
	return lines
}

func chunk(s string, width int) []string {
	var out []string
	for len(s) > width {
		out = append(out, s[:width])
		s = s[width:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func wrapWords(words []string, width int) []string {
	var (
		out []string
		sb  strings.Builder
	)
	for _, w := range words {
		if sb.Len() > 0 && sb.Len()+2+len(w) > width {
			out = append(out, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(w)
	}
	if sb.Len() > 0 {
		out = append(out, sb.String())
	}
	return out
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf("%d/%d records", m.selectedIndex+1, len(m.entries))
	center := "Mode: " + m.currentMode.String()
	right := "Press 'h' for help, 'q' to quit"

	spacing := m.width - len(left) - len(center) - len(right) - 6
	var content string
	if spacing > 0 {
		ls := spacing / 2
		content = left + strings.Repeat(" ", ls) + center + strings.Repeat(" ", spacing-ls) + right
	} else {
		content = left + " | " + center
	}
	return statusBarStyle.Width(m.width).Render(content)
}

func (m Model) renderHelpModal() string {
	help := `seqanalyzer - Help

Navigation:
  up/down, j/k   Navigate list
  /              Filter records

View Modes:
  1              Residues
  2              Motif hits
  3              Run summary
  tab            Next mode

General:
  h              Toggle this help
  q, Ctrl+C      Quit

Current Mode: ` + m.currentMode.String() + `
Total Records: ` + strconv.Itoa(len(m.entries)) + "\n"

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60).
		Render(help)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
