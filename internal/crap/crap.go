// Package crap computes CRAP (Change Risk Anti-Patterns) scores for
// Python callables by combining cyclomatic complexity with line
// coverage.
//
// The CRAP formula: CRAP(m) = comp^2 * (1 - cov/100)^3 + comp
// where comp = cyclomatic complexity and cov = coverage percentage.
//
// A CRAPload is the count of callables with a CRAP score at or above
// a given threshold (default 15).
package crap

import (
	"math"
	"sort"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Score holds the CRAP score for a single callable.
type Score struct {
	// Module is the dotted module path.
	Module string `json:"module"`

	// Callable is the display name (e.g., "add" or "Cart.add_item").
	Callable string `json:"callable"`

	// File is the source file path relative to the analyzed root.
	File string `json:"file"`

	// Line is the line number of the def statement.
	Line int `json:"line"`

	// Complexity is the cyclomatic complexity.
	Complexity int `json:"complexity"`

	// LineCoverage is the line coverage percentage (0-100).
	LineCoverage float64 `json:"line_coverage"`

	CRAP float64 `json:"crap"`
}

// Summary holds aggregate statistics for a CRAP report.
type Summary struct {
	TotalCallables  int     `json:"total_callables"`
	AvgComplexity   float64 `json:"avg_complexity"`
	AvgLineCoverage float64 `json:"avg_line_coverage"`
	AvgCRAP         float64 `json:"avg_crap"`
	CRAPload        int     `json:"crapload"`
	CRAPThreshold   float64 `json:"crap_threshold"`
	WorstCRAP       []Score `json:"worst_crap"`
}

// Report is the complete CRAP analysis output.
type Report struct {
	// Source names where coverage came from: "pytest" for the
	// project's own tests, "generated" for the generated suite.
	Source  string  `json:"source"`
	Scores  []Score `json:"scores"`
	Summary Summary `json:"summary"`
}

// Coverage sources.
const (
	SourcePytest    = "pytest"
	SourceGenerated = "generated"
)

// Formula computes CRAP(m) = comp^2 * (1 - cov/100)^3 + comp.
// comp is cyclomatic complexity (>= 1).
// coveragePct is line coverage as a percentage (0-100).
func Formula(complexity int, coveragePct float64) float64 {
	comp := float64(complexity)
	uncov := 1.0 - coveragePct/100.0
	return comp*comp*math.Pow(uncov, 3) + comp
}

// Exceeds reports whether the CRAPload is above limit. A limit of
// zero means no limit.
func (r *Report) Exceeds(limit int) bool {
	return limit > 0 && r.Summary.CRAPload > limit
}

// score builds the Score of d for the given coverage percentage.
func score(d *taxonomy.CallableDescriptor, pct float64) Score {
	comp := d.Complexity
	if comp < 1 {
		comp = 1
	}
	return Score{
		Module:       d.Module,
		Callable:     d.DisplayName(),
		File:         d.File,
		Line:         d.StartLine,
		Complexity:   comp,
		LineCoverage: pct,
		CRAP:         Formula(comp, pct),
	}
}

// buildSummary computes aggregate statistics from the scores.
func buildSummary(scores []Score, opts Options) Summary {
	if len(scores) == 0 {
		return Summary{
			CRAPThreshold: opts.CRAPThreshold,
			WorstCRAP:     []Score{},
		}
	}

	var totalComp, totalCov, totalCRAP float64
	crapload := 0
	for _, s := range scores {
		totalComp += float64(s.Complexity)
		totalCov += s.LineCoverage
		totalCRAP += s.CRAP
		if s.CRAP >= opts.CRAPThreshold {
			crapload++
		}
	}

	n := float64(len(scores))

	// Worst offenders: sort by CRAP descending, take top 5.
	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CRAP > sorted[j].CRAP
	})
	worst := sorted
	if len(worst) > 5 {
		worst = worst[:5]
	}

	return Summary{
		TotalCallables:  len(scores),
		AvgComplexity:   totalComp / n,
		AvgLineCoverage: totalCov / n,
		AvgCRAP:         totalCRAP / n,
		CRAPload:        crapload,
		CRAPThreshold:   opts.CRAPThreshold,
		WorstCRAP:       worst,
	}
}
