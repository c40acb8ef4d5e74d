package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/unbound-force/testgen/internal/analysis"
	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/crap"
	"github.com/unbound-force/testgen/internal/pipeline"
	"github.com/unbound-force/testgen/internal/report"
	"github.com/unbound-force/testgen/internal/sandbox"
	"github.com/unbound-force/testgen/internal/scaffold"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "testgen",
		Short: "testgen generates pytest suites from Python source",
		Long: `testgen analyzes Python functions and methods, synthesizes
argument values from type hints and guard conditions, and writes a
pytest module covering the happy path, boundaries, and the exceptions
each guard raises. Executing the suite under coverage drives further
test cases at the branches left uncovered.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newCrapCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newSchemaCmd())
	return root
}

func validateFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
	}
	return nil
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// overrides holds the configuration flags set on the command line.
// Nil fields were not given and leave the configuration alone.
type overrides struct {
	maxIterations  *int
	caseTimeout    *time.Duration
	python         *string
	includePrivate *bool
	noFeedback     bool
}

// loadConfig reads the configuration file (explicit, or the one next
// to path) and applies the command-line overrides.
func loadConfig(path, explicit string, o overrides) (*config.TestgenConfig, error) {
	cfgPath := explicit
	if cfgPath == "" {
		cfgPath = config.Find(path)
	} else if _, err := os.Stat(cfgPath); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if o.maxIterations != nil {
		cfg.Feedback.MaxIterations = *o.maxIterations
	}
	if o.caseTimeout != nil {
		cfg.Feedback.CaseTimeout = *o.caseTimeout
	}
	if o.python != nil {
		cfg.Feedback.Python = *o.python
	}
	if o.includePrivate != nil {
		cfg.Generation.IncludePrivate = *o.includePrivate
	}
	if o.noFeedback {
		cfg.Feedback.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// generateParams holds the parsed flags for the generate command.
type generateParams struct {
	path        string
	output      string
	format      string
	configPath  string
	verbose     bool
	interactive bool
	overrides   overrides
	sandbox     sandbox.Sandbox
	stdout      io.Writer
	stderr      io.Writer
}

// runGenerate is the extracted, testable body of the generate command.
func runGenerate(ctx context.Context, p generateParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}
	if p.interactive && !isTTYWriter(p.stdout) {
		return fmt.Errorf("--interactive requires a terminal")
	}
	cfg, err := loadConfig(p.path, p.configPath, p.overrides)
	if err != nil {
		return err
	}
	if p.verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}

	logger.Info("generating tests", "path", p.path)
	res, err := pipeline.Run(ctx, pipeline.Options{
		Path:    p.path,
		Output:  p.output,
		Config:  cfg,
		Verbose: p.verbose,
		Version: version,
		Sandbox: p.sandbox,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if p.interactive {
		return runInteractiveGenerate(res)
	}

	switch p.format {
	case "json":
		return report.WriteJSON(p.stdout, res.Report)
	default:
		return report.WriteText(p.stdout, res.Report)
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		p              generateParams
		maxIterations  int
		caseTimeout    time.Duration
		python         string
		includePrivate bool
	)

	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate a pytest module for a Python file or directory",
		Long: `Analyze the Python sources under path and write a pytest module
with happy-path, boundary, and exception test cases for every public
function and method.

Unless --no-feedback is given, the suite is executed under coverage
and refined with test cases aimed at the branches left uncovered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.path = args[0]
			flags := cmd.Flags()
			if flags.Changed("max-iterations") {
				p.overrides.maxIterations = &maxIterations
			}
			if flags.Changed("case-timeout") {
				p.overrides.caseTimeout = &caseTimeout
			}
			if flags.Changed("python") {
				p.overrides.python = &python
			}
			if flags.Changed("include-private") {
				p.overrides.includePrivate = &includePrivate
			}
			p.stdout = cmd.OutOrStdout()
			p.stderr = cmd.ErrOrStderr()
			return runGenerate(cmd.Context(), p)
		},
	}

	cmd.Flags().StringVarP(&p.output, "output", "o", pipeline.DefaultOutput,
		"path of the generated test module")
	cmd.Flags().StringVar(&p.format, "format", "text",
		"report format: text or json")
	cmd.Flags().StringVar(&p.configPath, "config", "",
		"configuration file (default: .testgen.yaml next to path)")
	cmd.Flags().BoolVarP(&p.verbose, "verbose", "v", false,
		"describe each test case in a comment and log debug output")
	cmd.Flags().BoolVarP(&p.interactive, "interactive", "i", false,
		"browse the generated suite in a TUI")
	cmd.Flags().BoolVar(&p.overrides.noFeedback, "no-feedback", false,
		"skip the coverage feedback loop")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0,
		"maximum feedback iterations (default from config: 5)")
	cmd.Flags().DurationVar(&caseTimeout, "case-timeout", 0,
		"timeout per executed test case (default from config: 10s)")
	cmd.Flags().StringVar(&python, "python", "",
		"Python interpreter with pytest and coverage (default from config: python3)")
	cmd.Flags().BoolVar(&includePrivate, "include-private", false,
		"include callables whose name starts with an underscore")

	return cmd
}

// analyzeParams holds the parsed flags for the analyze command.
type analyzeParams struct {
	path           string
	format         string
	function       string
	includePrivate bool
	stdout         io.Writer
	stderr         io.Writer
}

// runAnalyze is the extracted, testable body of the analyze command.
func runAnalyze(ctx context.Context, p analyzeParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}
	cfg, err := loadConfig(p.path, "", overrides{})
	if err != nil {
		return err
	}

	start := time.Now()
	logger.Info("analyzing sources", "path", p.path)
	lr, ar, err := analysis.LoadAndAnalyze(ctx, p.path, cfg, analysis.Options{
		IncludePrivate: p.includePrivate || cfg.Generation.IncludePrivate,
		FunctionFilter: p.function,
	})
	if err != nil {
		return err
	}

	meta := taxonomy.Metadata{
		RunID:          uuid.NewString(),
		TestgenVersion: version,
		Root:           lr.Root,
		Timestamp:      start,
		Duration:       time.Since(start),
	}
	for _, perr := range ar.ParseErrors {
		logger.Warn("skipping malformed source", "err", perr)
		meta.Warnings = append(meta.Warnings, perr.Error())
	}

	if len(ar.Callables) == 0 {
		if p.function != "" {
			return fmt.Errorf("callable %q not found under %q", p.function, p.path)
		}
		logger.Warn("no callables found to analyze")
	}
	logger.Info("analysis complete", "callables", len(ar.Callables))

	switch p.format {
	case "json":
		return report.WriteAnalysisJSON(p.stdout, ar.Callables, meta)
	default:
		return report.WriteAnalysisText(p.stdout, ar.Callables, meta)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var p analyzeParams

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Print the callable model of Python sources",
		Long: `Analyze a Python file or directory and print each callable with
its signature, resolved parameter types, and the guard conditions
recognized in its body.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.path = args[0]
			p.stdout = cmd.OutOrStdout()
			p.stderr = cmd.ErrOrStderr()
			return runAnalyze(cmd.Context(), p)
		},
	}

	cmd.Flags().StringVarP(&p.function, "function", "f", "",
		"analyze a single callable by name (default: all)")
	cmd.Flags().StringVar(&p.format, "format", "text",
		"output format: text or json")
	cmd.Flags().BoolVar(&p.includePrivate, "include-private", false,
		"include callables whose name starts with an underscore")

	return cmd
}

// crapParams holds the parsed flags for the crap command.
type crapParams struct {
	path   string
	format string
	opts   crap.Options
	stdout io.Writer
	stderr io.Writer
}

// runCrap is the extracted, testable body of the crap command.
func runCrap(ctx context.Context, p crapParams) error {
	if err := validateFormat(p.format); err != nil {
		return err
	}
	cfg, err := loadConfig(p.path, "", overrides{})
	if err != nil {
		return err
	}
	if p.opts.Python == "" {
		p.opts.Python = cfg.Feedback.Python
	}

	lr, ar, err := analysis.LoadAndAnalyze(ctx, p.path, cfg, analysis.Options{
		IncludePrivate: cfg.Generation.IncludePrivate,
	})
	if err != nil {
		return err
	}
	for _, perr := range ar.ParseErrors {
		logger.Warn("skipping malformed source", "err", perr)
	}

	logger.Info("computing CRAP scores", "root", lr.Root)
	rpt, err := crap.Analyze(ctx, ar.Callables, lr.Root, p.opts)
	if err != nil {
		return err
	}
	logger.Info("analysis complete", "callables", len(rpt.Scores))

	if err := writeCrapReport(p.stdout, p.format, rpt); err != nil {
		return err
	}
	printCISummary(p.stderr, rpt, p.opts.MaxCRAPload)
	return checkCIThresholds(rpt, p.opts.MaxCRAPload)
}

// writeCrapReport outputs the CRAP report in the requested format.
func writeCrapReport(w io.Writer, format string, rpt *crap.Report) error {
	switch format {
	case "json":
		return crap.WriteJSON(w, rpt)
	default:
		return crap.WriteText(w, rpt)
	}
}

// printCISummary prints a one-line CI summary when a CRAPload limit
// is set.
func printCISummary(w io.Writer, rpt *crap.Report, maxCrapload int) {
	if maxCrapload <= 0 {
		return
	}
	status := "PASS"
	if rpt.Exceeds(maxCrapload) {
		status = "FAIL"
	}
	fmt.Fprintf(w, "CRAPload: %d/%d (%s)\n", rpt.Summary.CRAPload, maxCrapload, status)
}

// checkCIThresholds returns an error if the CRAPload limit is exceeded.
func checkCIThresholds(rpt *crap.Report, maxCrapload int) error {
	if rpt.Exceeds(maxCrapload) {
		return fmt.Errorf("CRAPload %d exceeds maximum %d",
			rpt.Summary.CRAPload, maxCrapload)
	}
	return nil
}

func newCrapCmd() *cobra.Command {
	var p crapParams

	cmd := &cobra.Command{
		Use:   "crap [path]",
		Short: "Compute CRAP scores for Python callables",
		Long: `Compute CRAP (Change Risk Anti-Patterns) scores by combining
cyclomatic complexity with line coverage. Reports per-callable
CRAP scores and the project's CRAPload (count of callables above
the threshold).

If no coverage report is provided, runs 'coverage run -m pytest'
and 'coverage json' in the source tree.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.path = args[0]
			p.stdout = cmd.OutOrStdout()
			p.stderr = cmd.ErrOrStderr()
			return runCrap(cmd.Context(), p)
		},
	}

	defaults := crap.DefaultOptions()
	cmd.Flags().StringVar(&p.format, "format", "text",
		"output format: text or json")
	cmd.Flags().StringVar(&p.opts.CoverageJSON, "coverage-json", "",
		"path to a coverage.py JSON report (default: run the tests)")
	cmd.Flags().Float64Var(&p.opts.CRAPThreshold, "crap-threshold", defaults.CRAPThreshold,
		"CRAP score threshold for flagging callables")
	cmd.Flags().IntVar(&p.opts.MaxCRAPload, "max-crapload", 0,
		"fail if CRAPload exceeds this (0 = no limit)")
	cmd.Flags().StringVar(&p.opts.Python, "python", "",
		"Python interpreter with pytest and coverage (default from config: python3)")

	return cmd
}

// initParams holds the parsed flags for the init command.
type initParams struct {
	targetDir string
	force     bool
	stdout    io.Writer
}

func runInit(p initParams) error {
	_, err := scaffold.Run(scaffold.Options{
		TargetDir: p.targetDir,
		Force:     p.force,
		Version:   version,
		Stdout:    p.stdout,
	})
	return err
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a .testgen.yaml in the current directory",
		Long: `Write a .testgen.yaml with the default configuration and a
requirements file listing the Python tools the feedback loop runs.
Existing files are left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			return runInit(initParams{
				targetDir: dir,
				force:     force,
				stdout:    cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var analysisSchema bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for testgen report output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of testgen generate --format=json output. With --analysis,
print the schema of testgen analyze --format=json instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema := report.Schema
			if analysisSchema {
				schema = report.AnalysisSchema
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), schema)
			return err
		},
	}

	cmd.Flags().BoolVar(&analysisSchema, "analysis", false,
		"print the analyze output schema")
	return cmd
}
