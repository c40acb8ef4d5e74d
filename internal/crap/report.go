package crap

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

// Report styles (package-level for consistent terminal output).
var (
	crapHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	crapBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	crapBadStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	crapGoodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	crapLabelStyle  = lipgloss.NewStyle().Bold(true)
	crapMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Column widths keep the table inside 80 columns.
const (
	maxCallableWidth = 28
	maxFileWidth     = 22
)

// WriteJSON writes the CRAP report as formatted JSON.
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteText writes the CRAP report as human-readable styled text.
func WriteText(w io.Writer, report *Report) error {
	if len(report.Scores) == 0 {
		fmt.Fprintln(w, crapMutedStyle.Render("No callables analyzed."))
		return nil
	}

	// Sort by CRAP score descending for display.
	sorted := make([]Score, len(report.Scores))
	copy(sorted, report.Scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CRAP > sorted[j].CRAP
	})

	threshold := report.Summary.CRAPThreshold
	rows := make([][]string, 0, len(sorted))
	for _, s := range sorted {
		marker := ""
		if s.CRAP >= threshold {
			marker = " *"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%.1f%s", s.CRAP, marker),
			fmt.Sprintf("%d", s.Complexity),
			fmt.Sprintf("%.1f%%", s.LineCoverage),
			runewidth.Truncate(s.Callable, maxCallableWidth, "..."),
			shortenPath(fmt.Sprintf("%s:%d", s.File, s.Line)),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(crapBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return crapHeaderStyle
			}
			// Color CRAP score column based on threshold.
			if col == 0 && row >= 0 && row < len(sorted) {
				if sorted[row].CRAP >= threshold {
					return crapBadStyle
				}
				return crapGoodStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("CRAP", "COMP", "COVERAGE", "CALLABLE", "FILE").
		Rows(rows...)

	fmt.Fprintln(w, t)

	// Summary.
	fmt.Fprintln(w)
	fmt.Fprintln(w, crapHeaderStyle.Render("--- Summary ---"))
	if report.Source != "" {
		fmt.Fprintf(w, "%s  %s\n", crapLabelStyle.Render("Coverage source:"), report.Source)
	}
	fmt.Fprintf(w, "%s  %d\n", crapLabelStyle.Render("Callables analyzed:"), report.Summary.TotalCallables)
	fmt.Fprintf(w, "%s  %.1f\n", crapLabelStyle.Render("Avg complexity:"), report.Summary.AvgComplexity)
	fmt.Fprintf(w, "%s  %.1f%%\n", crapLabelStyle.Render("Avg line coverage:"), report.Summary.AvgLineCoverage)
	fmt.Fprintf(w, "%s  %.1f\n", crapLabelStyle.Render("Avg CRAP score:"), report.Summary.AvgCRAP)
	fmt.Fprintf(w, "%s  %.0f\n", crapLabelStyle.Render("CRAP threshold:"), threshold)

	craploadStr := fmt.Sprintf("%d", report.Summary.CRAPload)
	if report.Summary.CRAPload > 0 {
		craploadStr = crapBadStyle.Render(craploadStr) + crapMutedStyle.Render(" (callables at or above threshold)")
	}
	fmt.Fprintf(w, "%s  %s\n", crapLabelStyle.Render("CRAPload:"), craploadStr)

	// Worst offenders.
	if len(report.Summary.WorstCRAP) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, crapHeaderStyle.Render(
			fmt.Sprintf("--- Worst Offenders (top %d by CRAP) ---", len(report.Summary.WorstCRAP))))
		for i, s := range report.Summary.WorstCRAP {
			score := fmt.Sprintf("%.1f", s.CRAP)
			if s.CRAP >= threshold {
				score = crapBadStyle.Render(score)
			} else {
				score = crapGoodStyle.Render(score)
			}
			fmt.Fprintf(w, "  %d. %s  %s  %s\n",
				i+1, score, s.Callable,
				crapMutedStyle.Render(fmt.Sprintf("(%s:%d)", s.File, s.Line)))
		}
	}

	return nil
}

// shortenPath keeps the tail of a long path so the FILE column stays
// narrow.
func shortenPath(path string) string {
	if runewidth.StringWidth(path) <= maxFileWidth {
		return path
	}
	tail := []rune(path)
	for len(tail) > 0 && runewidth.StringWidth(string(tail))+3 > maxFileWidth {
		tail = tail[1:]
	}
	return "..." + string(tail)
}
