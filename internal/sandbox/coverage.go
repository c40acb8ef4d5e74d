package sandbox

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileCoverage is the coverage.py measurement of one source file.
// Branch arcs are [from, to] pairs; a negative destination is an exit
// from the enclosing code object.
type FileCoverage struct {
	ExecutedLines    []int    `json:"executed_lines"`
	MissingLines     []int    `json:"missing_lines"`
	ExecutedBranches [][2]int `json:"executed_branches"`
	MissingBranches  [][2]int `json:"missing_branches"`
}

type coverageJSON struct {
	Files map[string]FileCoverage `json:"files"`
}

// ParseCoverage decodes a coverage.py JSON report. Keys of the result
// are slash-separated paths relative to root; files outside root are
// dropped.
func ParseCoverage(r io.Reader, root string) (map[string]FileCoverage, error) {
	var doc coverageJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding coverage report: %w", err)
	}
	out := make(map[string]FileCoverage, len(doc.Files))
	for name, fc := range doc.Files {
		rel, ok := relative(name, root)
		if !ok {
			continue
		}
		out[rel] = fc
	}
	return out, nil
}

// ParseCoverageFile is ParseCoverage over the file at path.
func ParseCoverageFile(path, root string) (map[string]FileCoverage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCoverage(f, root)
}

func relative(name, root string) (string, bool) {
	if !filepath.IsAbs(name) {
		rel := filepath.ToSlash(filepath.Clean(name))
		return rel, !strings.HasPrefix(rel, "../")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
