package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== generated_tests.py ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// HappyPath through Targeted color-code test case scenarios.
	HappyPath lipgloss.Style
	Boundary  lipgloss.Style
	Exception lipgloss.Style
	Targeted  lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// SummaryValue styles summary line values.
	SummaryValue lipgloss.Style

	// Pass styles a converged feedback loop.
	Pass lipgloss.Style

	// Fail styles an aborted loop and excluded test cases.
	Fail lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		HappyPath: lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		Boundary:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Exception: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Targeted:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(20),
		SummaryValue: lipgloss.NewStyle(),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// ScenarioStyle returns the style for a test case scenario.
func (s Styles) ScenarioStyle(scenario taxonomy.Scenario) lipgloss.Style {
	switch scenario {
	case taxonomy.ScenarioHappyPath:
		return s.HappyPath
	case taxonomy.ScenarioBoundary:
		return s.Boundary
	case taxonomy.ScenarioException:
		return s.Exception
	case taxonomy.ScenarioTargeted:
		return s.Targeted
	default:
		return s.Muted
	}
}
