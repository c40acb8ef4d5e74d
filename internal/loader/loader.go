// Package loader discovers the Python source units of an analyzed
// tree and reads them into memory.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/unbound-force/testgen/internal/config"
)

// SourceUnit is one analyzable Python file.
type SourceUnit struct {
	// Path is the file path relative to Result.Root, slash-separated.
	Path string `json:"path"`

	// Module is the dotted import path of the file, e.g. "shop.cart".
	// Package __init__.py files map to the package path.
	Module string `json:"module"`

	// Content is the full file content.
	Content []byte `json:"-"`
}

// Result holds the discovered units.
type Result struct {
	// Root is the absolute directory module paths are relative to.
	// When a single file was loaded it is the file's directory, or the
	// parent of the package for a package __init__.py.
	Root string

	// Units are sorted by Path.
	Units []SourceUnit

	// Skipped lists unreadable and generated files, relative to Root,
	// and an __init__.py at Root itself, which no module name reaches.
	Skipped []string
}

// Options configures a Load invocation.
type Options struct {
	// Config provides include/exclude patterns and the walk timeout.
	// If nil, DefaultConfig() is used.
	Config *config.TestgenConfig
}

// Load discovers Python files under path. A file path loads exactly
// that file, bypassing the include/exclude filters.
//
// If the configured discovery timeout is non-zero the walk is bounded
// by that deadline, and a context.DeadlineExceeded error is returned
// when it is hit.
func Load(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}

	if !info.IsDir() {
		if !isPython(abs) {
			return nil, fmt.Errorf("%q is not a Python source file", path)
		}
		content, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		root, rel := filepath.Dir(abs), filepath.Base(abs)
		if rel == "__init__.py" && filepath.Dir(root) != root {
			rel = filepath.Base(root) + "/" + rel
			root = filepath.Dir(root)
		}
		return &Result{
			Root:  root,
			Units: []SourceUnit{{Path: rel, Module: ModuleName(rel), Content: content}},
		}, nil
	}

	timeout := opts.Config.Discovery.Timeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := &Result{Root: abs}
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("source discovery timed out after %s: %w", timeout, ctxErr)
		}
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(abs, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && skipDir(p, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isPython(p) || !Filter(rel, opts.Config) {
			return nil
		}
		if rel == "__init__.py" {
			res.Skipped = append(res.Skipped, rel)
			return nil
		}

		content, readErr := os.ReadFile(p)
		if readErr != nil {
			res.Skipped = append(res.Skipped, rel)
			return nil //nolint:nilerr
		}
		if IsGenerated(content) {
			res.Skipped = append(res.Skipped, rel)
			return nil
		}

		res.Units = append(res.Units, SourceUnit{
			Path:    rel,
			Module:  ModuleName(rel),
			Content: content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// ModuleName converts a slash-separated relative .py path to a dotted
// module path. A top-level __init__.py has none and yields "".
func ModuleName(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".py")
	if rel == "__init__" {
		return ""
	}
	rel = strings.TrimSuffix(rel, "/__init__")
	return strings.ReplaceAll(rel, "/", ".")
}

func isPython(path string) bool {
	return strings.HasSuffix(path, ".py")
}

// skipDir reports whether a directory cannot contain analyzable
// sources: hidden directories, bytecode caches, and virtualenvs.
func skipDir(path, base string) bool {
	if strings.HasPrefix(base, ".") || base == "__pycache__" || base == "node_modules" {
		return true
	}
	if _, err := os.Stat(filepath.Join(path, "pyvenv.cfg")); err == nil {
		return true
	}
	return false
}
