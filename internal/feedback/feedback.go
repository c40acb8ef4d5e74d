// Package feedback runs the coverage feedback loop: it executes the
// candidate suite in a sandbox, measures per-callable coverage, and
// asks the generator for records aimed at what was missed until
// coverage stops growing.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"io"

	charmlog "github.com/charmbracelet/log"

	"github.com/unbound-force/testgen/internal/generate"
	"github.com/unbound-force/testgen/internal/sandbox"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// State is a state of the feedback loop.
type State string

// State constants.
const (
	StateGenerating State = "generating"
	StateExecuting  State = "executing"
	StateMeasuring  State = "measuring"
	StateConverged  State = "converged"
	StateAborted    State = "aborted"
)

// Options configures the loop.
type Options struct {
	// MaxIterations bounds the number of targeted generation rounds.
	// Default: 5.
	MaxIterations int

	// Logger receives state transitions and exclusions. Nil discards.
	Logger *charmlog.Logger
}

// Result is the outcome of one loop run.
type Result struct {
	// Suite is the refined suite, or the input suite when the loop
	// aborted.
	Suite *taxonomy.Suite

	// Reports holds the baseline report followed by one report per
	// iteration.
	Reports []*taxonomy.CoverageReport

	Iterations int
	State      State

	// Failures are the records excluded because they did not pass.
	Failures []*sandbox.ExecutionError

	// Discarded names the targeted records that covered nothing new.
	Discarded []string

	// Observed maps passing record names to the repr of their result.
	Observed map[string]string

	// Pending counts the targeted candidates left unexecuted because
	// the iteration ceiling ended the run while coverage still grew.
	// A second run over Suite would add them.
	Pending int

	// Err explains an aborted run.
	Err error
}

// Final returns the last coverage report, or nil.
func (r *Result) Final() *taxonomy.CoverageReport {
	if len(r.Reports) == 0 {
		return nil
	}
	return r.Reports[len(r.Reports)-1]
}

// Loop owns the execution cache of one generation run.
type Loop struct {
	descs []taxonomy.CallableDescriptor
	gen   *generate.Generator
	sb    sandbox.Sandbox
	opts  Options
	log   *charmlog.Logger

	executed map[string]sandbox.CaseResult
}

// New returns a loop over descs that draws targeted records from gen
// and executes them in sb.
func New(descs []taxonomy.CallableDescriptor, gen *generate.Generator, sb sandbox.Sandbox, opts Options) *Loop {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 5
	}
	log := opts.Logger
	if log == nil {
		log = charmlog.New(io.Discard)
	}
	return &Loop{
		descs:    descs,
		gen:      gen,
		sb:       sb,
		opts:     opts,
		log:      log,
		executed: make(map[string]sandbox.CaseResult),
	}
}

// Run refines suite. The input suite is not modified. Only context
// cancellation is returned as an error; a sandbox that cannot start
// yields a Result in StateAborted carrying the input suite.
func (l *Loop) Run(ctx context.Context, suite *taxonomy.Suite) (*Result, error) {
	res := &Result{Suite: suite, Observed: make(map[string]string)}

	if err := l.sb.Start(ctx); err != nil {
		return l.abort(ctx, res, suite, err)
	}
	defer func() {
		if err := l.sb.Close(); err != nil {
			l.log.Warn("closing sandbox", "err", err)
		}
	}()

	work := suite.Clone()
	l.transition(StateExecuting, 0)
	if err := l.execute(ctx, work, work.Records(), res); err != nil {
		return l.abort(ctx, res, suite, err)
	}
	l.transition(StateMeasuring, 0)
	report, _ := l.measure(work, 0, nil)
	res.Reports = append(res.Reports, report)

	ceiling := true
	for res.Iterations < l.opts.MaxIterations {
		l.transition(StateGenerating, res.Iterations+1)
		var batch []taxonomy.TestCaseRecord
		for _, r := range l.gen.Targeted(report, work) {
			if stored, ok := work.Add(r); ok {
				batch = append(batch, stored)
			}
		}
		if len(batch) == 0 {
			l.log.Debug("no new candidates")
			ceiling = false
			break
		}
		res.Iterations++

		l.transition(StateExecuting, res.Iterations)
		if err := l.execute(ctx, work, batch, res); err != nil {
			return l.abort(ctx, res, suite, err)
		}

		l.transition(StateMeasuring, res.Iterations)
		next, discarded := l.measure(work, res.Iterations, batch)
		for _, name := range discarded {
			work.Exclude(name, "covered nothing new")
		}
		res.Discarded = append(res.Discarded, discarded...)
		res.Reports = append(res.Reports, next)

		gained := len(next.NewlyCovered(report))
		l.log.Debug("iteration measured", "iteration", res.Iterations,
			"covered", next.CoveredCount(), "total", next.TotalCount(), "new", gained)
		report = next
		if gained == 0 {
			ceiling = false
			break
		}
	}
	if ceiling {
		res.Pending = len(l.gen.Targeted(report, work))
		if res.Pending > 0 {
			l.log.Info("iteration ceiling reached with candidates pending",
				"max_iterations", l.opts.MaxIterations, "pending", res.Pending)
		}
	}

	l.transition(StateConverged, res.Iterations)
	res.State = StateConverged
	res.Suite = work
	for _, r := range work.Records() {
		if c, ok := l.executed[cacheKey(r)]; ok && c.HasObserved {
			res.Observed[r.Name] = c.Observed
		}
	}
	return res, nil
}

func (l *Loop) abort(ctx context.Context, res *Result, suite *taxonomy.Suite, err error) (*Result, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	l.transition(StateAborted, res.Iterations)
	var unavailable *sandbox.UnavailableError
	if errors.As(err, &unavailable) {
		l.log.Warn("sandbox unavailable, keeping the unrefined suite", "err", err)
	} else {
		l.log.Warn("feedback loop aborted, keeping the unrefined suite", "err", err)
	}
	return &Result{
		Suite:      suite,
		Iterations: res.Iterations,
		State:      StateAborted,
		Observed:   map[string]string{},
		Err:        err,
	}, nil
}

func (l *Loop) transition(s State, iteration int) {
	l.log.Debug("feedback state", "state", s, "iteration", iteration)
}

// execute runs the records without a cached result and excludes the
// ones that did not pass.
func (l *Loop) execute(ctx context.Context, suite *taxonomy.Suite, records []taxonomy.TestCaseRecord, res *Result) error {
	var pending []taxonomy.TestCaseRecord
	for _, r := range records {
		if _, ok := l.executed[cacheKey(r)]; !ok {
			pending = append(pending, r)
		}
	}
	if len(pending) > 0 {
		results, err := l.sb.Run(ctx, pending)
		if err != nil {
			return fmt.Errorf("executing %d test cases: %w", len(pending), err)
		}
		if len(results) != len(pending) {
			return fmt.Errorf("sandbox returned %d results for %d test cases", len(results), len(pending))
		}
		for i, r := range pending {
			l.executed[cacheKey(r)] = results[i]
		}
	}

	for _, r := range records {
		c := l.executed[cacheKey(r)]
		err := c.Err()
		if err == nil {
			continue
		}
		var execErr *sandbox.ExecutionError
		if errors.As(err, &execErr) {
			res.Failures = append(res.Failures, execErr)
		}
		l.log.Warn("excluding test case", "name", r.Name, "status", c.Status)
		suite.Exclude(r.Name, string(c.Status))
	}
	return nil
}

func cacheKey(r taxonomy.TestCaseRecord) string {
	return r.Name + "|" + r.Fingerprint()
}
