package feedback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/testgen/internal/analysis"
	"github.com/unbound-force/testgen/internal/feedback"
	"github.com/unbound-force/testgen/internal/generate"
	"github.com/unbound-force/testgen/internal/loader"
	"github.com/unbound-force/testgen/internal/sandbox"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// pickSource has a branch on mode == 7 that no synthesized typical or
// boundary value enters.
const pickSource = `def pick(mode: int) -> int:
    if mode == 7:
        return 1
    return 0
`

// fakeSandbox simulates executing pick: line 3 runs only for mode 7.
type fakeSandbox struct {
	startErr error
	runErr   error

	// blind ignores arguments and always reports the else path.
	blind bool

	// fail names records reported as failed.
	fail map[string]bool

	started, closed int
	executed        []string
}

func (f *fakeSandbox) Start(context.Context) error {
	f.started++
	return f.startErr
}

func (f *fakeSandbox) Close() error {
	f.closed++
	return nil
}

func (f *fakeSandbox) Run(_ context.Context, records []taxonomy.TestCaseRecord) ([]sandbox.CaseResult, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	out := make([]sandbox.CaseResult, 0, len(records))
	for _, r := range records {
		f.executed = append(f.executed, r.Name)
		if f.fail[r.Name] {
			out = append(out, sandbox.CaseResult{Name: r.Name, Status: sandbox.StatusFailed, Output: "AssertionError"})
			continue
		}
		enters := !f.blind && len(r.Args) == 1 && r.Args[0].Value.Literal == "7"
		fc := sandbox.FileCoverage{ExecutedLines: []int{1, 2}}
		if enters {
			fc.ExecutedLines = append(fc.ExecutedLines, 3)
			fc.MissingLines = []int{4}
			fc.ExecutedBranches = [][2]int{{2, 3}}
			fc.MissingBranches = [][2]int{{2, 4}}
		} else {
			fc.ExecutedLines = append(fc.ExecutedLines, 4)
			fc.MissingLines = []int{3}
			fc.ExecutedBranches = [][2]int{{2, 4}}
			fc.MissingBranches = [][2]int{{2, 3}}
		}
		res := sandbox.CaseResult{Name: r.Name, Status: sandbox.StatusPassed, Coverage: map[string]sandbox.FileCoverage{"pick.py": fc}}
		if r.Scenario == taxonomy.ScenarioHappyPath {
			res.Observed, res.HasObserved = "0", true
		}
		out = append(out, res)
	}
	return out, nil
}

func setup(t *testing.T) ([]taxonomy.CallableDescriptor, *generate.Generator, *taxonomy.Suite) {
	t.Helper()
	unit := loader.SourceUnit{Path: "pick.py", Module: "pick", Content: []byte(pickSource)}
	res, err := analysis.Analyze(context.Background(), []loader.SourceUnit{unit}, analysis.Options{})
	require.NoError(t, err)
	gen := generate.New(res.Callables, generate.Options{})
	suite := taxonomy.NewSuite()
	for _, r := range gen.Base(suite) {
		suite.Add(r)
	}
	return res.Callables, gen, suite
}

func names(records []taxonomy.TestCaseRecord) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func TestRun_TargetsUncoveredBranch(t *testing.T) {
	descs, gen, suite := setup(t)
	sb := &fakeSandbox{}
	res, err := feedback.New(descs, gen, sb, feedback.Options{}).Run(context.Background(), suite)
	require.NoError(t, err)

	assert.Equal(t, feedback.StateConverged, res.State)
	assert.Equal(t, 1, res.Iterations)
	assert.Contains(t, names(res.Suite.Records()), "test_pick_mode_targets_line_3")
	assert.Empty(t, res.Discarded)
	assert.Equal(t, res.Final().TotalCount(), res.Final().CoveredCount())
	assert.Equal(t, 1, sb.started)
	assert.Equal(t, 1, sb.closed)

	// The input suite is left untouched.
	assert.NotContains(t, names(suite.Records()), "test_pick_mode_targets_line_3")
}

func TestRun_Idempotent(t *testing.T) {
	descs, gen, suite := setup(t)
	first, err := feedback.New(descs, gen, &fakeSandbox{}, feedback.Options{}).Run(context.Background(), suite)
	require.NoError(t, err)

	second, err := feedback.New(descs, gen, &fakeSandbox{}, feedback.Options{}).Run(context.Background(), first.Suite)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Iterations)
	assert.Equal(t, feedback.StateConverged, second.State)
	assert.Equal(t, names(first.Suite.Records()), names(second.Suite.Records()))
}

func TestRun_DiscardsRecordsAddingNothing(t *testing.T) {
	descs, gen, suite := setup(t)
	res, err := feedback.New(descs, gen, &fakeSandbox{blind: true}, feedback.Options{}).Run(context.Background(), suite)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, []string{"test_pick_mode_targets_line_3"}, res.Discarded)
	assert.Equal(t, suite.Len(), res.Suite.Len())
	assert.True(t, res.Suite.IsExcluded("test_pick_mode_targets_line_3"))

	again, err := feedback.New(descs, gen, &fakeSandbox{blind: true}, feedback.Options{}).Run(context.Background(), res.Suite)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Iterations)
}

func TestRun_MonotonicAndBounded(t *testing.T) {
	descs, gen, suite := setup(t)
	res, err := feedback.New(descs, gen, &fakeSandbox{}, feedback.Options{MaxIterations: 3}).Run(context.Background(), suite)
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Iterations, 3)
	require.Len(t, res.Reports, res.Iterations+1)
	for i := 1; i < len(res.Reports); i++ {
		assert.GreaterOrEqual(t, res.Reports[i].CoveredCount(), res.Reports[i-1].CoveredCount())
	}
}

func TestRun_ExcludesFailures(t *testing.T) {
	descs, gen, suite := setup(t)
	sb := &fakeSandbox{fail: map[string]bool{"test_pick_happy_path": true}}
	res, err := feedback.New(descs, gen, sb, feedback.Options{}).Run(context.Background(), suite)
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "test_pick_happy_path", res.Failures[0].Name)
	assert.Equal(t, sandbox.StatusFailed, res.Failures[0].Status)
	assert.True(t, res.Suite.IsExcluded("test_pick_happy_path"))
	assert.NotContains(t, res.Observed, "test_pick_happy_path")
}

func TestRun_ExecutesEachRecordOnce(t *testing.T) {
	descs, gen, suite := setup(t)
	sb := &fakeSandbox{}
	_, err := feedback.New(descs, gen, sb, feedback.Options{}).Run(context.Background(), suite)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, name := range sb.executed {
		seen[name]++
	}
	for name, n := range seen {
		assert.Equal(t, 1, n, "%s executed %d times", name, n)
	}
}

func TestRun_Observed(t *testing.T) {
	descs, gen, suite := setup(t)
	res, err := feedback.New(descs, gen, &fakeSandbox{}, feedback.Options{}).Run(context.Background(), suite)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"test_pick_happy_path": "0"}, res.Observed)
}

func TestRun_AbortsWhenUnavailable(t *testing.T) {
	descs, gen, suite := setup(t)
	sb := &fakeSandbox{startErr: &sandbox.UnavailableError{Tool: "python3 -m pytest", Err: errors.New("not found")}}
	res, err := feedback.New(descs, gen, sb, feedback.Options{}).Run(context.Background(), suite)
	require.NoError(t, err)

	assert.Equal(t, feedback.StateAborted, res.State)
	assert.Same(t, suite, res.Suite)
	var unavailable *sandbox.UnavailableError
	assert.True(t, errors.As(res.Err, &unavailable))
	assert.Equal(t, 0, sb.closed)
}

func TestRun_AbortsOnBatchFailure(t *testing.T) {
	descs, gen, suite := setup(t)
	sb := &fakeSandbox{runErr: errors.New("render failed")}
	res, err := feedback.New(descs, gen, sb, feedback.Options{}).Run(context.Background(), suite)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateAborted, res.State)
	assert.Same(t, suite, res.Suite)
	assert.Equal(t, 1, sb.closed)
}

func TestRun_ContextCancelled(t *testing.T) {
	descs, gen, suite := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sb := &fakeSandbox{runErr: context.Canceled}
	_, err := feedback.New(descs, gen, sb, feedback.Options{}).Run(ctx, suite)
	assert.ErrorIs(t, err, context.Canceled)
}

// routeSource has two branches. Its fake coverage reveals line 5 only
// once a record has entered the first one.
const routeSource = `def route(mode: int) -> int:
    if mode == 7:
        return 1
    if mode == 9:
        return 2
    return 0
`

type routeSandbox struct{}

func (routeSandbox) Start(context.Context) error {
	return nil
}

func (routeSandbox) Close() error {
	return nil
}

func (routeSandbox) Run(_ context.Context, records []taxonomy.TestCaseRecord) ([]sandbox.CaseResult, error) {
	out := make([]sandbox.CaseResult, 0, len(records))
	for _, r := range records {
		fc := sandbox.FileCoverage{ExecutedLines: []int{1, 2}, MissingLines: []int{3}}
		if len(r.Args) == 1 && r.Args[0].Value.Literal == "7" {
			fc = sandbox.FileCoverage{ExecutedLines: []int{1, 2, 3}, MissingLines: []int{5}}
		}
		out = append(out, sandbox.CaseResult{Name: r.Name, Status: sandbox.StatusPassed, Coverage: map[string]sandbox.FileCoverage{"route.py": fc}})
	}
	return out, nil
}

func setupRoute(t *testing.T) ([]taxonomy.CallableDescriptor, *generate.Generator, *taxonomy.Suite) {
	t.Helper()
	unit := loader.SourceUnit{Path: "route.py", Module: "route", Content: []byte(routeSource)}
	res, err := analysis.Analyze(context.Background(), []loader.SourceUnit{unit}, analysis.Options{})
	require.NoError(t, err)
	gen := generate.New(res.Callables, generate.Options{})
	suite := taxonomy.NewSuite()
	for _, r := range gen.Base(suite) {
		suite.Add(r)
	}
	return res.Callables, gen, suite
}

func TestRun_CeilingReportsPending(t *testing.T) {
	descs, gen, suite := setupRoute(t)
	res, err := feedback.New(descs, gen, routeSandbox{}, feedback.Options{MaxIterations: 1}).Run(context.Background(), suite)
	require.NoError(t, err)

	assert.Equal(t, feedback.StateConverged, res.State)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 1, res.Pending)
	assert.Contains(t, names(res.Suite.Records()), "test_route_mode_targets_line_3")

	// A second run picks up what the ceiling left behind.
	again, err := feedback.New(descs, gen, routeSandbox{}, feedback.Options{MaxIterations: 1}).Run(context.Background(), res.Suite)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Iterations)
	assert.Equal(t, []string{"test_route_mode_targets_line_5"}, again.Discarded)
	assert.Zero(t, again.Pending)
}

func TestRun_NoPendingWhenConvergedBeforeCeiling(t *testing.T) {
	descs, gen, suite := setupRoute(t)
	res, err := feedback.New(descs, gen, routeSandbox{}, feedback.Options{MaxIterations: 2}).Run(context.Background(), suite)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, []string{"test_route_mode_targets_line_5"}, res.Discarded)
	assert.Zero(t, res.Pending)

	// Reaching the ceiling with nothing left to target reports none.
	descs, gen, suite = setup(t)
	res, err = feedback.New(descs, gen, &fakeSandbox{}, feedback.Options{MaxIterations: 1}).Run(context.Background(), suite)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
	assert.Zero(t, res.Pending)
}
