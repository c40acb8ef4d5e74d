// Package sandbox runs candidate test cases under line and branch
// instrumentation and reports their outcome and coverage.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Sandbox executes test case records. A Sandbox is scoped to one
// generation run: Start it once, Run any number of batches, then
// Close it.
type Sandbox interface {
	// Start checks that the execution environment is usable. It
	// returns an *UnavailableError when it is not.
	Start(ctx context.Context) error

	// Run executes every record and returns one result per record, in
	// order. Per-record failures are reported in the results; the
	// error is reserved for failures of the whole batch.
	Run(ctx context.Context, records []taxonomy.TestCaseRecord) ([]CaseResult, error)

	// Close releases the resources acquired by Start.
	Close() error
}

// Status is the outcome of one executed record.
type Status string

// Status constants.
const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusTimeout Status = "timeout"
	StatusCrashed Status = "crashed"
)

// CaseResult is the outcome and coverage of one record.
type CaseResult struct {
	Name     string
	Status   Status
	Duration time.Duration

	// Output is the tail of the combined test runner output, kept for
	// records that did not pass.
	Output string

	// Coverage maps slash-separated paths relative to the source root
	// to their measurement.
	Coverage map[string]FileCoverage

	// Observed is the repr of the returned value when the record
	// returned a simple value.
	Observed    string
	HasObserved bool
}

// Err returns the *ExecutionError of a record that did not pass, or
// nil.
func (r CaseResult) Err() error {
	if r.Status == StatusPassed {
		return nil
	}
	return &ExecutionError{Name: r.Name, Status: r.Status, Output: r.Output}
}

// ExecutionError reports a record that failed, timed out, or crashed.
// The record is excluded from the suite.
type ExecutionError struct {
	Name   string
	Status Status
	Output string
	Err    error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("test case %s %s", e.Name, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// UnavailableError reports an execution environment that cannot run
// tests at all.
type UnavailableError struct {
	Tool string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("sandbox unavailable: %s: %v", e.Tool, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
