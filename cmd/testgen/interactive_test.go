package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unbound-force/testgen/internal/feedback"
	"github.com/unbound-force/testgen/internal/pipeline"
	"github.com/unbound-force/testgen/internal/report"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

func sampleRun() *report.Run {
	return &report.Run{
		Output:    "generated_tests.py",
		Callables: 2,
		Records: []report.RecordSummary{
			{Name: "test_double_happy_path", Callable: "double", Scenario: taxonomy.ScenarioHappyPath, Expected: "returns int", Observed: "84"},
			{Name: "test_double_x_raises_valueerror", Callable: "double", Scenario: taxonomy.ScenarioException, Expected: "raises ValueError"},
			{Name: "test_fetch_happy_path", Callable: "Client.fetch", Scenario: taxonomy.ScenarioHappyPath, Expected: "returns value", IsAsync: true},
		},
	}
}

func TestRenderSuiteContent_EmptyRun(t *testing.T) {
	content := renderSuiteContent(&report.Run{})
	if !strings.Contains(content, "0 test case(s) for 0 callable(s)") {
		t.Errorf("expected title with zero counts, got:\n%s", content)
	}
	if !strings.Contains(content, "No test cases generated.") {
		t.Errorf("expected empty-suite message, got:\n%s", content)
	}
}

func TestRenderSuiteContent_GroupsByCallable(t *testing.T) {
	content := renderSuiteContent(sampleRun())

	if !strings.Contains(content, "3 test case(s) for 2 callable(s)") {
		t.Errorf("expected title with counts, got:\n%s", content)
	}
	if strings.Count(content, "=== double ===") != 1 {
		t.Errorf("expected one header for double, got:\n%s", content)
	}
	if !strings.Contains(content, "=== Client.fetch ===") {
		t.Errorf("expected header for Client.fetch, got:\n%s", content)
	}
	if strings.Index(content, "=== double ===") > strings.Index(content, "=== Client.fetch ===") {
		t.Error("expected callables in order of first appearance")
	}
	for _, want := range []string{"test_double_x_raises_valueerror", "raises ValueError", "returns 84", "returns value (async)"} {
		if !strings.Contains(content, want) {
			t.Errorf("expected content to contain %q, got:\n%s", want, content)
		}
	}
	if strings.Contains(content, "returns int") {
		t.Error("expected the observed value to replace the classified outcome")
	}
}

func TestRenderSuiteContent_ExpectsTruncation(t *testing.T) {
	run := &report.Run{
		Callables: 1,
		Records: []report.RecordSummary{
			{Name: "test_build_happy_path", Callable: "build", Scenario: taxonomy.ScenarioHappyPath,
				Expected: "returns " + strings.Repeat("x", 60)},
		},
	}
	content := renderSuiteContent(run)
	if strings.Contains(content, strings.Repeat("x", 60)) {
		t.Error("expected long outcome to be truncated")
	}
	if !strings.Contains(content, "...") {
		t.Error("expected truncation marker")
	}
}

func TestRenderSuiteContent_FeedbackAndWarnings(t *testing.T) {
	run := sampleRun()
	run.Feedback = &report.Feedback{State: feedback.StateConverged, Iterations: 2}
	run.Metadata.Warnings = []string{"broken.py:1:9: syntax error"}

	content := renderSuiteContent(run)
	if !strings.Contains(content, "Feedback loop converged after 2 iteration(s)") {
		t.Errorf("expected feedback line, got:\n%s", content)
	}
	if !strings.Contains(content, "warning: broken.py:1:9: syntax error") {
		t.Errorf("expected warning line, got:\n%s", content)
	}
}

func TestRenderSourceContent_LineNumbers(t *testing.T) {
	var src strings.Builder
	for i := 1; i <= 10; i++ {
		src.WriteString("line\n")
	}
	content := renderSourceContent("out/generated_tests.py", []byte(src.String()))

	if !strings.Contains(content, "out/generated_tests.py") {
		t.Errorf("expected path in title, got:\n%s", content)
	}
	if !strings.Contains(content, " 1 line\n") || !strings.Contains(content, "10 line\n") {
		t.Errorf("expected right-aligned line numbers, got:\n%s", content)
	}
	if strings.Contains(content, "11 ") {
		t.Error("expected no line for the trailing newline")
	}
}

func TestSuiteModel_ToggleAndQuit(t *testing.T) {
	res := &pipeline.Result{
		Report: sampleRun(),
		Source: []byte("# Generated by testgen. Do not edit by hand.\nimport pytest\n"),
	}
	m := newSuiteModel(res)

	if got := m.View(); got != "Initializing..." {
		t.Errorf("expected placeholder before sizing, got %q", got)
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(suiteModel)
	if !m.ready {
		t.Fatal("expected model to be ready after a window size message")
	}
	if !strings.Contains(m.View(), "test_double_happy_path") {
		t.Errorf("expected test cases in the initial view, got:\n%s", m.View())
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(suiteModel)
	if !m.showSource || !strings.Contains(m.View(), "import pytest") {
		t.Errorf("expected source view after tab, got:\n%s", m.View())
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = updated.(suiteModel)
	if m.showSource {
		t.Error("expected s to toggle back to the test cases")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected q to quit")
	}
}
