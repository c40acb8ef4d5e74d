package loader

import (
	"path/filepath"
	"strings"

	"github.com/unbound-force/testgen/internal/config"
)

// Filter returns true if the given relative path should be analyzed,
// based on the discovery include/exclude patterns in cfg.
//
// Logic:
//  1. If include patterns are set, the file must match at least one.
//  2. If the file matches any exclude pattern, it is excluded.
//  3. Otherwise, the file is included.
func Filter(rel string, cfg *config.TestgenConfig) bool {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	discovery := cfg.Discovery
	rel = filepath.ToSlash(rel)

	if len(discovery.Include) > 0 {
		matched := false
		for _, pattern := range discovery.Include {
			if matchGlob(pattern, rel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, pattern := range discovery.Exclude {
		if matchGlob(pattern, rel) {
			return false
		}
	}

	return true
}

// matchGlob matches a path against a glob pattern. It supports
// filepath.Match syntax and "dir/**" prefix patterns. Patterns without
// a separator also match the base name.
func matchGlob(pattern, rel string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}

	matched, err := filepath.Match(pattern, rel)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	if !strings.Contains(pattern, "/") {
		matched, err = filepath.Match(pattern, filepath.Base(rel))
		return err == nil && matched
	}

	return false
}
