package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/unbound-force/testgen/internal/feedback"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Column budget: 80 cols total. Borders take 4, padding 6 for three
// columns, which leaves 70 for content.
const (
	tableWidth  = 76
	maxName     = 40
	maxScenario = 10
	maxExpected = 20
)

// WriteText writes the run report as human-readable styled text to the
// writer. Output uses lipgloss for color and formatting when the output
// is a TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, run *Run) error {
	s := DefaultStyles()

	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", run.Output)))
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    root %s", run.Metadata.Root)))

	if len(run.Records) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No test cases generated."))
	} else {
		fmt.Fprintln(w)
		fmt.Fprintln(w, recordTable(run.Records, s))
	}

	if f := run.Feedback; f != nil {
		fmt.Fprintln(w)
		writeFeedback(w, f, s)
	}
	if run.CRAP != nil {
		fmt.Fprintf(w, "%s%d of %d at or above %.0f\n",
			s.SummaryLabel.Render("CRAPload:"), run.CRAP.CRAPload,
			run.CRAP.TotalCallables, run.CRAP.CRAPThreshold)
	}

	if len(run.Excluded) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Fail.Render("Excluded:"))
		for _, e := range run.Excluded {
			fmt.Fprintf(w, "    %s %s\n", truncate(e.Name, maxName), s.Muted.Render("("+e.Reason+")"))
		}
	}
	writeWarnings(w, run.Metadata.Warnings, s)

	fmt.Fprintf(w, "\n%s\n",
		s.Header.Render(fmt.Sprintf(
			"%d test case(s) generated for %d callable(s)",
			len(run.Records), run.Callables)))
	return nil
}

func recordTable(records []RecordSummary, s Styles) *table.Table {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		expected := r.Expected
		if r.Observed != "" {
			expected = "returns " + r.Observed
		}
		rows = append(rows, []string{
			truncate(r.Name, maxName),
			truncate(string(r.Scenario), maxScenario),
			truncate(expected, maxExpected),
		})
	}

	return table.New().
		Width(tableWidth).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 1 && row >= 0 && row < len(records) {
				return s.ScenarioStyle(records[row].Scenario)
			}
			return s.TableCell
		}).
		Headers("TEST", "SCENARIO", "EXPECTS").
		Rows(rows...)
}

func writeFeedback(w io.Writer, f *Feedback, s Styles) {
	state := s.Pass.Render(string(f.State))
	if f.State == feedback.StateAborted {
		state = s.Fail.Render(string(f.State))
	}
	fmt.Fprintf(w, "%s%s after %d iteration(s)\n", s.SummaryLabel.Render("Feedback:"), state, f.Iterations)
	if f.Error != "" {
		fmt.Fprintf(w, "%s%s\n", s.SummaryLabel.Render(""), s.Muted.Render(f.Error))
	}
	if n := len(f.Coverage); n > 0 {
		first, last := f.Coverage[0], f.Coverage[n-1]
		fmt.Fprintf(w, "%s%d/%d locations (%.1f%%), baseline %.1f%%\n",
			s.SummaryLabel.Render("Coverage:"), last.Covered, last.Total, last.Percentage, first.Percentage)
	}
	if len(f.Failures) > 0 {
		fmt.Fprintf(w, "%s%d test case(s) did not pass\n", s.SummaryLabel.Render("Failures:"), len(f.Failures))
	}
	if len(f.Discarded) > 0 {
		fmt.Fprintf(w, "%s%d targeted case(s) covered nothing new\n", s.SummaryLabel.Render("Discarded:"), len(f.Discarded))
	}
	if f.Pending > 0 {
		fmt.Fprintf(w, "%s%d targeted case(s) left at the iteration ceiling\n", s.SummaryLabel.Render("Pending:"), f.Pending)
	}
}

func writeWarnings(w io.Writer, warnings []string, s Styles) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.SubHeader.Render("Warnings:"))
	for _, warning := range warnings {
		fmt.Fprintln(w, s.Muted.Render("    "+truncate(warning, tableWidth-4)))
	}
}

// WriteAnalysisText writes the callable model as a table.
func WriteAnalysisText(w io.Writer, descs []taxonomy.CallableDescriptor, meta taxonomy.Metadata) error {
	s := DefaultStyles()

	if len(descs) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No callables found."))
	} else {
		rows := make([][]string, 0, len(descs))
		guards := 0
		for i := range descs {
			d := &descs[i]
			guards += len(d.Guards)
			rows = append(rows, []string{
				truncate(d.DisplayName(), 24),
				truncate(signature(d), 22),
				fmt.Sprintf("%d", len(d.Guards)),
				truncate(d.Location(), 18),
			})
		}
		t := table.New().
			Width(tableWidth).
			Border(lipgloss.NormalBorder()).
			BorderStyle(s.Border).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return s.TableHeader
				}
				return s.TableCell
			}).
			Headers("CALLABLE", "SIGNATURE", "GUARDS", "LOCATION").
			Rows(rows...)
		fmt.Fprintln(w, t)
		fmt.Fprintf(w, "\n%s\n", s.Header.Render(fmt.Sprintf(
			"%d callable(s) analyzed, %d guard(s) recognized", len(descs), guards)))
	}
	writeWarnings(w, meta.Warnings, s)
	return nil
}

// signature renders "(a, b=1) -> int", prefixed with "async" for
// coroutines.
func signature(d *taxonomy.CallableDescriptor) string {
	names := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		name := p.Name
		switch p.Kind {
		case taxonomy.ParamVarPositional:
			name = "*" + name
		case taxonomy.ParamVarKeyword:
			name = "**" + name
		}
		if p.HasDefault {
			name += "=" + p.Default
		}
		names = append(names, name)
	}
	sig := "(" + strings.Join(names, ", ") + ")"
	if d.ReturnHint != "" {
		sig += " -> " + d.ReturnHint
	}
	if d.IsAsync {
		sig = "async " + sig
	}
	return sig
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
