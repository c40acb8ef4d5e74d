// Package report provides output formatters for testgen run and
// analysis results in JSON and human-readable text formats.
package report

import (
	"encoding/json"
	"io"

	"github.com/unbound-force/testgen/internal/crap"
	"github.com/unbound-force/testgen/internal/feedback"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// SchemaVersion is the version of the JSON report layout.
const SchemaVersion = "1.0.0"

// Run is the outcome of one generate run as shown in reports.
type Run struct {
	Metadata taxonomy.Metadata `json:"metadata"`

	// Output is the path of the written test file.
	Output string `json:"output"`

	// Callables is the number of callables analyzed.
	Callables int `json:"callables"`

	Records  []RecordSummary      `json:"records"`
	Excluded []taxonomy.Exclusion `json:"excluded"`

	// Feedback is nil when the feedback loop was disabled.
	Feedback *Feedback `json:"feedback,omitempty"`

	// CRAP scores the analyzed callables against the coverage the
	// generated suite reached. Nil without feedback.
	CRAP *crap.Summary `json:"crap,omitempty"`
}

// RecordSummary is one emitted test case.
type RecordSummary struct {
	Name       string            `json:"name"`
	Target     string            `json:"target"`
	Callable   string            `json:"callable"`
	Scenario   taxonomy.Scenario `json:"scenario"`
	Expected   string            `json:"expected"`
	IsAsync    bool              `json:"is_async"`
	TargetLine int               `json:"target_line,omitempty"`

	// Observed is the repr of the result seen during execution.
	Observed string `json:"observed,omitempty"`
}

// Feedback summarizes a feedback loop run.
type Feedback struct {
	State      feedback.State      `json:"state"`
	Iterations int                 `json:"iterations"`
	Coverage   []IterationCoverage `json:"coverage"`
	Failures   []Failure           `json:"failures"`
	Discarded  []string            `json:"discarded"`
	Pending    int                 `json:"pending"`
	Error      string              `json:"error,omitempty"`
}

// IterationCoverage is the coverage snapshot of one iteration.
type IterationCoverage struct {
	Iteration  int     `json:"iteration"`
	Covered    int     `json:"covered"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Failure is a test case excluded because it did not pass.
type Failure struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
}

// Summarize converts records into their report form. observed may be
// nil.
func Summarize(records []taxonomy.TestCaseRecord, observed map[string]string) []RecordSummary {
	out := make([]RecordSummary, 0, len(records))
	for _, r := range records {
		out = append(out, RecordSummary{
			Name:       r.Name,
			Target:     r.Target,
			Callable:   r.Callable,
			Scenario:   r.Scenario,
			Expected:   r.Expected.String(),
			IsAsync:    r.IsAsync,
			TargetLine: r.TargetLine,
			Observed:   observed[r.Name],
		})
	}
	return out
}

// NewFeedback converts a loop result into its report form.
func NewFeedback(res *feedback.Result) *Feedback {
	f := &Feedback{
		State:      res.State,
		Iterations: res.Iterations,
		Coverage:   make([]IterationCoverage, 0, len(res.Reports)),
		Failures:   make([]Failure, 0, len(res.Failures)),
		Discarded:  append([]string{}, res.Discarded...),
		Pending:    res.Pending,
	}
	for _, r := range res.Reports {
		ic := IterationCoverage{Iteration: r.Iteration, Covered: r.CoveredCount(), Total: r.TotalCount()}
		if ic.Total > 0 {
			ic.Percentage = 100 * float64(ic.Covered) / float64(ic.Total)
		}
		f.Coverage = append(f.Coverage, ic)
	}
	for _, e := range res.Failures {
		f.Failures = append(f.Failures, Failure{Name: e.Name, Status: string(e.Status), Output: e.Output})
	}
	if res.Err != nil {
		f.Error = res.Err.Error()
	}
	return f
}

// JSONReport is the top-level JSON output structure of a run.
type JSONReport struct {
	Version string `json:"version"`
	*Run
}

// WriteJSON writes the run report as formatted JSON to the writer.
func WriteJSON(w io.Writer, run *Run) error {
	r := *run
	if r.Records == nil {
		r.Records = []RecordSummary{}
	}
	if r.Excluded == nil {
		r.Excluded = []taxonomy.Exclusion{}
	}
	if r.Metadata.Warnings == nil {
		r.Metadata.Warnings = []string{}
	}
	return encode(w, JSONReport{Version: SchemaVersion, Run: &r})
}

// AnalysisReport is the JSON output of the analyze command.
type AnalysisReport struct {
	Version   string                        `json:"version"`
	Metadata  taxonomy.Metadata             `json:"metadata"`
	Callables []taxonomy.CallableDescriptor `json:"callables"`
}

// WriteAnalysisJSON writes the callable model as formatted JSON.
func WriteAnalysisJSON(w io.Writer, descs []taxonomy.CallableDescriptor, meta taxonomy.Metadata) error {
	if descs == nil {
		descs = []taxonomy.CallableDescriptor{}
	}
	if meta.Warnings == nil {
		meta.Warnings = []string{}
	}
	return encode(w, AnalysisReport{Version: SchemaVersion, Metadata: meta, Callables: descs})
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
