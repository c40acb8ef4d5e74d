package crap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/unbound-force/testgen/internal/sandbox"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Options configures CRAP analysis.
type Options struct {
	// CoverageJSON is the path to a coverage.py JSON report.
	// If empty, one is generated by running the project's tests.
	CoverageJSON string

	// CRAPThreshold is the threshold for flagging a callable as
	// "crappy". Default: 15.
	CRAPThreshold float64

	// MaxCRAPload causes a non-zero exit if CRAPload exceeds this.
	// Zero means no limit (report-only).
	MaxCRAPload int

	// Python is the interpreter that runs pytest and coverage.
	// Default: python3.
	Python string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		CRAPThreshold: 15,
		Python:        "python3",
	}
}

func (o Options) withDefaults() Options {
	if o.CRAPThreshold <= 0 {
		o.CRAPThreshold = 15
	}
	if o.Python == "" {
		o.Python = "python3"
	}
	return o
}

// Analyze computes CRAP scores for descs, whose files are relative to
// root, using the coverage of the project's own pytest suite.
func Analyze(ctx context.Context, descs []taxonomy.CallableDescriptor, root string, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	// Step 1: Generate a coverage report if none was provided.
	report := opts.CoverageJSON
	if report == "" {
		var err error
		report, err = generateCoverageJSON(ctx, root, opts.Python)
		if err != nil {
			return nil, fmt.Errorf("generating coverage: %w", err)
		}
		defer os.Remove(report)
	} else {
		report = filepath.Clean(report)
		info, err := os.Stat(report)
		if err != nil {
			return nil, fmt.Errorf("coverage report %q: %w", report, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("coverage report %q is a directory, not a file", report)
		}
	}

	// Step 2: Parse per-file coverage and join with complexity.
	files, err := sandbox.ParseCoverageFile(report, root)
	if err != nil {
		return nil, fmt.Errorf("parsing coverage report: %w", err)
	}
	return FromFiles(descs, files, opts), nil
}

// generateCoverageJSON runs the project's tests under coverage.py in
// root and exports the data as JSON. Both files live in the temp dir
// to avoid clobbering a .coverage file in the user's tree.
func generateCoverageJSON(ctx context.Context, root, python string) (string, error) {
	dataFile, err := os.CreateTemp("", "testgen-coverage-*.data")
	if err != nil {
		return "", fmt.Errorf("creating temp coverage data file: %w", err)
	}
	dataPath := dataFile.Name()
	dataFile.Close()
	defer os.Remove(dataPath)

	jsonFile, err := os.CreateTemp("", "testgen-coverage-*.json")
	if err != nil {
		return "", fmt.Errorf("creating temp coverage report: %w", err)
	}
	jsonPath := jsonFile.Name()
	jsonFile.Close()

	run := exec.CommandContext(ctx, python, "-m", "coverage", "run", "--branch",
		"--data-file="+dataPath, "-m", "pytest", "-q", "-p", "no:cacheprovider")
	run.Dir = root
	if output, err := run.CombinedOutput(); err != nil && !testsFailed(err) {
		os.Remove(jsonPath)
		return "", fmt.Errorf("pytest failed: %s\n%s", err, string(output))
	}

	export := exec.CommandContext(ctx, python, "-m", "coverage", "json",
		"--data-file="+dataPath, "-o", jsonPath)
	export.Dir = root
	if output, err := export.CombinedOutput(); err != nil {
		os.Remove(jsonPath)
		return "", fmt.Errorf("coverage json failed: %s\n%s", err, string(output))
	}
	return jsonPath, nil
}

// testsFailed reports whether err is pytest's "some tests failed"
// exit status. Failing tests still produce coverage data.
func testsFailed(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 1
}
