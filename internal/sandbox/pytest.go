package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/unbound-force/testgen/internal/emit"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// probeModule is the file name of the rendered candidate suite.
const probeModule = "test_testgen_probe.py"

// maxOutput bounds the runner output kept per failing record.
const maxOutput = 4096

// PytestOptions configures a Pytest sandbox.
type PytestOptions struct {
	// Root is the source root placed on PYTHONPATH and measured.
	Root string

	// Python is the interpreter. Default: python3.
	Python string

	// CaseTimeout bounds the execution of one record. Default: 10s.
	CaseTimeout time.Duration

	// Descriptors are the targets records refer to.
	Descriptors []taxonomy.CallableDescriptor

	// AsyncStyle is passed to the renderer.
	AsyncStyle string

	// Logger receives per-record debug output. Nil discards it.
	Logger *charmlog.Logger
}

// Pytest runs each record as its own pytest invocation under
// coverage.py, in a private temporary directory.
type Pytest struct {
	opts PytestOptions
	dir  string
}

// NewPytest returns a sandbox running records with pytest and
// coverage.py.
func NewPytest(opts PytestOptions) *Pytest {
	if opts.Python == "" {
		opts.Python = "python3"
	}
	if abs, err := filepath.Abs(opts.Root); err == nil {
		opts.Root = abs
	}
	if opts.CaseTimeout <= 0 {
		opts.CaseTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = charmlog.New(io.Discard)
	}
	return &Pytest{opts: opts}
}

// Start verifies that pytest and coverage.py are importable and
// creates the working directory.
func (p *Pytest) Start(ctx context.Context) error {
	for _, tool := range []string{"pytest", "coverage"} {
		cmd := exec.CommandContext(ctx, p.opts.Python, "-m", tool, "--version")
		if out, err := cmd.CombinedOutput(); err != nil {
			msg := strings.TrimSpace(string(out))
			if msg != "" {
				err = fmt.Errorf("%w: %s", err, lastLine(msg))
			}
			return &UnavailableError{Tool: p.opts.Python + " -m " + tool, Err: err}
		}
	}
	dir, err := os.MkdirTemp("", "testgen-sandbox-*")
	if err != nil {
		return &UnavailableError{Tool: "temp dir", Err: err}
	}
	p.dir = dir
	return nil
}

// Close removes the working directory.
func (p *Pytest) Close() error {
	if p.dir == "" {
		return nil
	}
	err := os.RemoveAll(p.dir)
	p.dir = ""
	return err
}

// Run renders records into one probe module and executes each record
// separately so that its coverage is measured in isolation.
func (p *Pytest) Run(ctx context.Context, records []taxonomy.TestCaseRecord) ([]CaseResult, error) {
	if p.dir == "" {
		return nil, errors.New("sandbox not started")
	}
	src, err := emit.Render(records, p.opts.Descriptors, emit.Options{AsyncStyle: p.opts.AsyncStyle, Probe: true})
	if err != nil {
		return nil, fmt.Errorf("rendering candidate suite: %w", err)
	}
	module := filepath.Join(p.dir, probeModule)
	if err := os.WriteFile(module, src, 0o644); err != nil {
		return nil, fmt.Errorf("writing candidate suite: %w", err)
	}

	results := make([]CaseResult, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := p.runCase(ctx, module, i, rec.Name)
		p.opts.Logger.Debug("case executed", "name", rec.Name, "status", res.Status, "duration", res.Duration)
		results = append(results, res)
	}
	return results, nil
}

func (p *Pytest) runCase(ctx context.Context, module string, i int, name string) CaseResult {
	res := CaseResult{Name: name}
	data := filepath.Join(p.dir, fmt.Sprintf(".coverage-%d", i))
	report := filepath.Join(p.dir, fmt.Sprintf("coverage-%d.json", i))
	observe := filepath.Join(p.dir, fmt.Sprintf("observe-%d.json", i))
	defer func() {
		os.Remove(data)
		os.Remove(report)
		os.Remove(observe)
	}()

	caseCtx, cancel := context.WithTimeout(ctx, p.opts.CaseTimeout)
	defer cancel()

	start := time.Now()
	out, err := p.python(caseCtx, observe,
		"-m", "coverage", "run", "--branch",
		"--source="+p.opts.Root,
		"--data-file="+data,
		"-m", "pytest", "-q", "-p", "no:cacheprovider",
		module+"::"+name,
	)
	res.Duration = time.Since(start)
	res.Status = status(caseCtx, err)
	if res.Status != StatusPassed {
		res.Output = tail(out, maxOutput)
		return res
	}

	if out, err := p.python(ctx, "", "-m", "coverage", "json", "--data-file="+data, "-o", report); err != nil {
		// A passing record that imports nothing measurable leaves no data.
		p.opts.Logger.Debug("no coverage data", "name", name, "output", lastLine(string(out)))
	} else if cov, err := ParseCoverageFile(report, p.opts.Root); err == nil {
		res.Coverage = cov
	}

	if raw, err := os.ReadFile(observe); err == nil {
		var obs struct {
			Name string `json:"name"`
			Repr string `json:"repr"`
		}
		if json.Unmarshal(raw, &obs) == nil && obs.Name == name {
			res.Observed = obs.Repr
			res.HasObserved = true
		}
	}
	return res
}

func (p *Pytest) python(ctx context.Context, observe string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.opts.Python, args...)
	cmd.Dir = p.opts.Root
	cmd.Env = append(os.Environ(),
		"PYTHONPATH="+pythonPath(p.opts.Root),
		"PYTHONDONTWRITEBYTECODE=1",
	)
	if observe != "" {
		cmd.Env = append(cmd.Env, emit.ObserveEnv+"="+observe)
	}
	cmd.WaitDelay = time.Second
	return cmd.CombinedOutput()
}

// status maps the runner exit to a record status. pytest exits 1 when
// a test failed and with other codes on collection or internal errors.
func status(ctx context.Context, err error) Status {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StatusTimeout
	}
	if err == nil {
		return StatusPassed
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) && exit.ExitCode() == 1 {
		return StatusFailed
	}
	return StatusCrashed
}

func pythonPath(root string) string {
	if existing := os.Getenv("PYTHONPATH"); existing != "" {
		return root + string(os.PathListSeparator) + existing
	}
	return root
}

func tail(out []byte, n int) string {
	s := strings.TrimSpace(string(out))
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

var _ Sandbox = (*Pytest)(nil)
