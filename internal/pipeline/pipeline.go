// Package pipeline runs one generation: discovery, analysis, base
// generation, the coverage feedback loop, and emission of the test
// file.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/unbound-force/testgen/internal/analysis"
	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/crap"
	"github.com/unbound-force/testgen/internal/emit"
	"github.com/unbound-force/testgen/internal/feedback"
	"github.com/unbound-force/testgen/internal/generate"
	"github.com/unbound-force/testgen/internal/report"
	"github.com/unbound-force/testgen/internal/sandbox"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// DefaultOutput is the test file written when no output path is given.
const DefaultOutput = "generated_tests.py"

// Options configures a run.
type Options struct {
	// Path is the Python file or directory to generate tests for.
	Path string

	// Output is the test file to write. Default: DefaultOutput.
	Output string

	// Config is the effective configuration. If nil, the file found
	// next to Path is loaded, or the defaults when there is none.
	Config *config.TestgenConfig

	// Verbose adds description comments to the emitted tests.
	Verbose bool

	// Version is recorded in the report metadata.
	Version string

	// Sandbox overrides the pytest sandbox of the feedback loop.
	Sandbox sandbox.Sandbox

	// Logger receives progress and warnings. Nil discards.
	Logger *charmlog.Logger
}

// Result is the outcome of a run.
type Result struct {
	Descriptors []taxonomy.CallableDescriptor
	Suite       *taxonomy.Suite

	// Feedback is nil when the loop was disabled.
	Feedback *feedback.Result

	// Source is the emitted test module as written to Output.
	Source []byte

	Report *report.Run
}

// Run generates the test file for opts.Path. Configuration errors,
// failed discovery, and failure to write the output are returned;
// everything else degrades to warnings in the report.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.Logger
	if log == nil {
		log = charmlog.New(io.Discard)
	}
	if opts.Output == "" {
		opts.Output = DefaultOutput
	}

	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.Load(config.Find(opts.Path))
		if err != nil {
			return nil, err
		}
	}

	lr, ar, err := analysis.LoadAndAnalyze(ctx, opts.Path, cfg, analysis.Options{
		IncludePrivate: cfg.Generation.IncludePrivate,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering sources: %w", err)
	}
	var warnings []string
	warn := func(msg string, err error) {
		log.Warn(msg, "err", err)
		warnings = append(warnings, msg+": "+err.Error())
	}
	for _, perr := range ar.ParseErrors {
		log.Warn("skipping malformed source", "err", perr)
		warnings = append(warnings, perr.Error())
	}
	descs := ar.Callables
	log.Debug("analyzed sources", "units", len(lr.Units), "callables", len(descs), "duration", ar.Duration)

	gen := generate.New(descs, generate.Options{Config: cfg})
	suite := taxonomy.NewSuite()
	for _, r := range gen.Base(suite) {
		suite.Add(r)
	}
	log.Debug("generated base suite", "records", suite.Len())

	res := &Result{Descriptors: descs, Suite: suite}
	status := "Status: unrefined (feedback disabled)"
	var observed map[string]string
	if cfg.Feedback.Enabled {
		sb := opts.Sandbox
		if sb == nil {
			sb = sandbox.NewPytest(sandbox.PytestOptions{
				Root:        lr.Root,
				Python:      cfg.Feedback.Python,
				CaseTimeout: cfg.Feedback.CaseTimeout,
				Descriptors: descs,
				AsyncStyle:  cfg.Emit.AsyncStyle,
				Logger:      log,
			})
		}
		loop := feedback.New(descs, gen, sb, feedback.Options{
			MaxIterations: cfg.Feedback.MaxIterations,
			Logger:        log,
		})
		fres, err := loop.Run(ctx, suite)
		if err != nil {
			return nil, err
		}
		res.Feedback = fres
		res.Suite = fres.Suite
		observed = fres.Observed
		status = feedbackStatus(fres)
		if fres.State == feedback.StateAborted {
			warnings = append(warnings, "feedback loop aborted, suite is unrefined: "+fres.Err.Error())
		}
	}
	for _, gap := range gen.Gaps() {
		warn("synthesis gap", gap)
	}

	records := res.Suite.Records()
	src, err := emit.Render(records, descs, emit.Options{
		Verbose:    opts.Verbose,
		AsyncStyle: cfg.Emit.AsyncStyle,
		Status:     status,
		Observed:   observed,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering tests: %w", err)
	}
	if len(cfg.Emit.Formatter) > 0 {
		formatted, err := emit.Format(ctx, src, cfg.Emit.Formatter)
		if err != nil {
			warn("formatter failed, writing unformatted source", err)
		} else {
			src = formatted
		}
	}
	res.Source = src

	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(opts.Output, src, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", opts.Output, err)
	}
	log.Info("wrote tests", "path", opts.Output, "tests", len(records))

	res.Report = &report.Run{
		Metadata: taxonomy.Metadata{
			RunID:          uuid.NewString(),
			TestgenVersion: opts.Version,
			Root:           lr.Root,
			Timestamp:      start,
			Duration:       time.Since(start),
			Warnings:       warnings,
		},
		Output:    opts.Output,
		Callables: len(descs),
		Records:   report.Summarize(records, observed),
		Excluded:  res.Suite.Exclusions(),
	}
	if fres := res.Feedback; fres != nil {
		res.Report.Feedback = report.NewFeedback(fres)
		if final := fres.Final(); final != nil {
			summary := crap.FromCoverageReport(descs, final, crap.DefaultOptions()).Summary
			res.Report.CRAP = &summary
		}
	}
	return res, nil
}

// feedbackStatus is the status line of the emitted file.
func feedbackStatus(res *feedback.Result) string {
	if res.State == feedback.StateAborted {
		return "Status: unrefined (feedback loop aborted)"
	}
	final := res.Final()
	if res.Pending > 0 {
		return fmt.Sprintf("Status: refined by coverage feedback (stopped at the %d iteration ceiling with %d targeted case(s) pending, %d/%d locations covered)",
			res.Iterations, res.Pending, final.CoveredCount(), final.TotalCount())
	}
	return fmt.Sprintf("Status: refined by coverage feedback (converged after %d iteration(s), %d/%d locations covered)",
		res.Iterations, final.CoveredCount(), final.TotalCount())
}
