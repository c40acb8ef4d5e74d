// Package config loads the .testgen.yaml configuration file and
// supplies defaults for every setting.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the analyzed root.
const FileName = ".testgen.yaml"

// TestgenConfig is the full configuration of a testgen run.
type TestgenConfig struct {
	Discovery      DiscoveryConfig      `yaml:"discovery"`
	Generation     GenerationConfig     `yaml:"generation"`
	Classification ClassificationConfig `yaml:"classification"`
	Feedback       FeedbackConfig       `yaml:"feedback"`
	Emit           EmitConfig           `yaml:"emit"`
}

// DiscoveryConfig controls which source files are analyzed.
type DiscoveryConfig struct {
	// Include, when non-empty, restricts analysis to matching paths.
	Include []string `yaml:"include"`

	// Exclude skips matching paths. Patterns use filepath.Match syntax
	// plus the "dir/**" prefix form.
	Exclude []string `yaml:"exclude"`

	// Timeout bounds the directory walk. Zero disables the bound.
	Timeout time.Duration `yaml:"timeout"`
}

// GenerationConfig controls scenario synthesis.
type GenerationConfig struct {
	// MaxBoundaryCases caps boundary test cases per callable.
	MaxBoundaryCases int `yaml:"max_boundary_cases"`

	// IncludePrivate also analyzes callables whose name starts with
	// an underscore.
	IncludePrivate bool `yaml:"include_private"`
}

// ClassificationConfig holds the confidence thresholds used to pick a
// success assertion.
type ClassificationConfig struct {
	Thresholds ThresholdConfig `yaml:"thresholds"`
}

// ThresholdConfig holds confidence thresholds on a 0-100 scale.
type ThresholdConfig struct {
	// Typed is the confidence at or above which an isinstance
	// assertion is emitted.
	Typed int `yaml:"typed"`

	// Value is the confidence at or above which a not-None assertion
	// is emitted. Below it the test only checks the call completes.
	Value int `yaml:"value"`
}

// FeedbackConfig controls the coverage feedback loop.
type FeedbackConfig struct {
	Enabled       bool          `yaml:"enabled"`
	MaxIterations int           `yaml:"max_iterations"`
	CaseTimeout   time.Duration `yaml:"case_timeout"`

	// Python is the interpreter used to run pytest and coverage.
	Python string `yaml:"python"`
}

// EmitConfig controls the rendered test file.
type EmitConfig struct {
	// Formatter is a command that reads Python source on stdin and
	// writes formatted source to stdout. Empty disables formatting.
	Formatter []string `yaml:"formatter"`

	// AsyncStyle is "asyncio" (asyncio.run) or "pytest-asyncio".
	AsyncStyle string `yaml:"async_style"`
}

// Async style constants.
const (
	AsyncStyleAsyncio       = "asyncio"
	AsyncStylePytestAsyncio = "pytest-asyncio"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *TestgenConfig {
	return &TestgenConfig{
		Discovery: DiscoveryConfig{
			Exclude: []string{
				"tests/**",
				"test/**",
				"test_*.py",
				"*_test.py",
				"conftest.py",
				"setup.py",
				"venv/**",
				"__pycache__/**",
				"build/**",
				"dist/**",
			},
			Timeout: 30 * time.Second,
		},
		Generation: GenerationConfig{
			MaxBoundaryCases: 8,
		},
		Classification: ClassificationConfig{
			Thresholds: ThresholdConfig{Typed: 70, Value: 40},
		},
		Feedback: FeedbackConfig{
			Enabled:       true,
			MaxIterations: 5,
			CaseTimeout:   10 * time.Second,
			Python:        "python3",
		},
		Emit: EmitConfig{
			Formatter:  []string{"black", "-q", "-"},
			AsyncStyle: AsyncStyleAsyncio,
		},
	}
}

// Load reads the configuration at path on top of DefaultConfig. An
// empty path or a missing file yields the defaults.
func Load(path string) (*TestgenConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Find returns the path of the configuration file for root: the file
// in root itself, or in root's directory when root is a file.
func Find(root string) string {
	dir := root
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		dir = filepath.Dir(root)
	}
	return filepath.Join(dir, FileName)
}

// Validate checks value ranges.
func (c *TestgenConfig) Validate() error {
	if c.Generation.MaxBoundaryCases < 0 {
		return fmt.Errorf("generation.max_boundary_cases must be >= 0, got %d", c.Generation.MaxBoundaryCases)
	}
	if c.Feedback.MaxIterations < 0 || (c.Feedback.Enabled && c.Feedback.MaxIterations == 0) {
		return fmt.Errorf("feedback.max_iterations must be >= 1, got %d (set feedback.enabled: false to skip refinement)", c.Feedback.MaxIterations)
	}
	if c.Feedback.CaseTimeout < 0 {
		return fmt.Errorf("feedback.case_timeout must be >= 0, got %s", c.Feedback.CaseTimeout)
	}
	t := c.Classification.Thresholds
	if t.Typed < 0 || t.Typed > 100 || t.Value < 0 || t.Value > 100 {
		return fmt.Errorf("classification thresholds must be within 0-100")
	}
	if t.Value > t.Typed {
		return fmt.Errorf("classification.thresholds.value (%d) must not exceed typed (%d)", t.Value, t.Typed)
	}
	switch c.Emit.AsyncStyle {
	case AsyncStyleAsyncio, AsyncStylePytestAsyncio:
	default:
		return fmt.Errorf("emit.async_style must be %q or %q, got %q",
			AsyncStyleAsyncio, AsyncStylePytestAsyncio, c.Emit.AsyncStyle)
	}
	return nil
}
