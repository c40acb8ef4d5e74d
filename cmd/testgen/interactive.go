package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/unbound-force/testgen/internal/pipeline"
	"github.com/unbound-force/testgen/internal/report"
)

// maxExpects is the widest EXPECTS cell before truncation.
const maxExpects = 40

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	ToggleView key.Binding
	Quit       key.Binding
	Help       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.ToggleView, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.ToggleView, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	ToggleView: key.NewBinding(key.WithKeys("tab", "s"), key.WithHelp("tab", "cases/source")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// suiteModel is the Bubble Tea model for browsing a generated suite.
// It switches between the test case tables and the emitted source.
type suiteModel struct {
	viewport   viewport.Model
	help       help.Model
	keys       keyMap
	ready      bool
	showSource bool
	cases      string
	source     string
}

func newSuiteModel(res *pipeline.Result) suiteModel {
	return suiteModel{
		help:   help.New(),
		keys:   defaultKeyMap,
		cases:  renderSuiteContent(res.Report),
		source: renderSourceContent(res.Report.Output, res.Source),
	}
}

// renderSuiteContent lists the test cases of run grouped by callable.
func renderSuiteContent(run *report.Run) string {
	var sb strings.Builder
	styles := report.DefaultStyles()

	sb.WriteString(titleStyle.Render(
		fmt.Sprintf("testgen: %d test case(s) for %d callable(s)",
			len(run.Records), run.Callables)))
	sb.WriteString("\n\n")

	if len(run.Records) == 0 {
		sb.WriteString(statusStyle.Render("No test cases generated."))
		sb.WriteString("\n")
		return sb.String()
	}

	var order []string
	groups := make(map[string][]report.RecordSummary)
	for _, r := range run.Records {
		if _, ok := groups[r.Callable]; !ok {
			order = append(order, r.Callable)
		}
		groups[r.Callable] = append(groups[r.Callable], r)
	}

	for _, callable := range order {
		records := groups[callable]
		sb.WriteString(styles.Header.Render(fmt.Sprintf("=== %s ===", callable)))
		sb.WriteString("\n")

		rows := make([][]string, 0, len(records))
		for _, r := range records {
			expects := r.Expected
			if r.Observed != "" {
				expects = "returns " + r.Observed
			}
			if r.IsAsync {
				expects += " (async)"
			}
			rows = append(rows, []string{
				r.Name,
				string(r.Scenario),
				runewidth.Truncate(expects, maxExpects, "..."),
			})
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(styles.Border).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return styles.TableHeader
				}
				if col == 1 && row >= 0 && row < len(records) {
					return styles.ScenarioStyle(records[row].Scenario)
				}
				return lipgloss.NewStyle()
			}).
			Headers("TEST", "SCENARIO", "EXPECTS").
			Rows(rows...)

		sb.WriteString(t.String())
		sb.WriteString("\n\n")
	}

	if f := run.Feedback; f != nil {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("Feedback loop %s after %d iteration(s)", f.State, f.Iterations)))
		sb.WriteString("\n")
	}
	for _, w := range run.Metadata.Warnings {
		sb.WriteString(statusStyle.Render("warning: " + w))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderSourceContent shows the emitted module with line numbers.
func renderSourceContent(path string, src []byte) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(path))
	sb.WriteString("\n\n")

	lines := strings.Split(strings.TrimSuffix(string(src), "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("%*d ", width, i+1)))
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m suiteModel) content() string {
	if m.showSource {
		return m.source
	}
	return m.cases
}

func (m suiteModel) Init() tea.Cmd {
	return nil
}

func (m suiteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.ToggleView):
			m.showSource = !m.showSource
			if m.ready {
				m.viewport.SetContent(m.content())
				m.viewport.GotoTop()
			}
			return m, nil
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m suiteModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveGenerate launches the Bubble Tea TUI for browsing a
// generated suite.
func runInteractiveGenerate(res *pipeline.Result) error {
	p := tea.NewProgram(newSuiteModel(res), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
