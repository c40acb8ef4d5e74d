// Package analysis builds the callable model of a Python source tree.
// It parses each source unit with tree-sitter, extracts functions,
// methods and async functions with their parameters and recognized
// guard conditions, and resolves simple single-tree inheritance.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/loader"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Options configures the analysis behavior.
type Options struct {
	// IncludePrivate includes callables whose name starts with an
	// underscore. __init__ is always included.
	IncludePrivate bool

	// FunctionFilter limits the result to callables whose name or
	// display name equals it. Empty means all callables.
	FunctionFilter string
}

// Result is the callable model of one source tree.
type Result struct {
	// Callables are ordered by unit path, then source order. Inherited
	// descriptors follow the subclass's own methods.
	Callables []taxonomy.CallableDescriptor

	// ParseErrors lists the units skipped because they are malformed.
	ParseErrors []*ParseError

	Duration time.Duration
}

// Lookup returns the descriptor with the given ID.
func (r *Result) Lookup(id string) (*taxonomy.CallableDescriptor, bool) {
	for i := range r.Callables {
		if r.Callables[i].ID == id {
			return &r.Callables[i], true
		}
	}
	return nil, false
}

// Analyze builds descriptors for every unit. A malformed unit is
// recorded in Result.ParseErrors and does not stop analysis of the
// others. Only context cancellation is returned as an error.
func Analyze(ctx context.Context, units []loader.SourceUnit, opts Options) (*Result, error) {
	start := time.Now()

	var modules []*moduleModel
	res := &Result{}
	for _, unit := range units {
		mod, err := parseUnit(ctx, unit)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				res.ParseErrors = append(res.ParseErrors, perr)
				continue
			}
			return nil, fmt.Errorf("analyzing %s: %w", unit.Path, err)
		}
		modules = append(modules, mod)
	}

	idx := newClassIndex(modules)
	for _, mod := range modules {
		for _, e := range mod.entries {
			if e.function != nil {
				res.add(*e.function, opts)
				continue
			}
			for _, c := range e.class.flatten() {
				for _, m := range c.methods {
					res.add(m, opts)
				}
				for _, m := range idx.inherited(c) {
					res.add(m, opts)
				}
			}
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}

// LoadAndAnalyze is a convenience function that discovers the sources
// under path and analyzes them.
func LoadAndAnalyze(ctx context.Context, path string, cfg *config.TestgenConfig, opts Options) (*loader.Result, *Result, error) {
	lr, err := loader.Load(ctx, path, loader.Options{Config: cfg})
	if err != nil {
		return nil, nil, err
	}
	res, err := Analyze(ctx, lr.Units, opts)
	if err != nil {
		return nil, nil, err
	}
	return lr, res, nil
}

func (r *Result) add(d taxonomy.CallableDescriptor, opts Options) {
	if !visible(d.Name, opts.IncludePrivate) {
		return
	}
	if opts.FunctionFilter != "" && d.Name != opts.FunctionFilter && d.DisplayName() != opts.FunctionFilter {
		return
	}
	r.Callables = append(r.Callables, d)
}

// visible reports whether a callable is analyzed: dunders other than
// __init__ never are, single-underscore names only with includePrivate.
func visible(name string, includePrivate bool) bool {
	if name == "__init__" {
		return true
	}
	if len(name) > 4 && name[:2] == "__" && name[len(name)-2:] == "__" {
		return false
	}
	if name != "" && name[0] == '_' {
		return includePrivate
	}
	return true
}
