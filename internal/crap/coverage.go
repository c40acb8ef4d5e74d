package crap

import (
	"github.com/unbound-force/testgen/internal/sandbox"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// LineCoverage returns the percentage of the executable lines within
// [start, end] that fc reports as executed. Lines coverage.py does not
// list are not executable. A range with no executable lines is 0%.
func LineCoverage(fc sandbox.FileCoverage, start, end int) float64 {
	within := func(line int) bool { return line >= start && line <= end }
	var covered, total int
	for _, line := range fc.ExecutedLines {
		if within(line) {
			covered++
			total++
		}
	}
	for _, line := range fc.MissingLines {
		if within(line) {
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return 100.0 * float64(covered) / float64(total)
}

// FromFiles scores descs against per-file coverage.py data keyed by
// root-relative path. A file without data was never executed.
// Inherited descriptors share their defining class's lines and are
// not scored twice.
func FromFiles(descs []taxonomy.CallableDescriptor, files map[string]sandbox.FileCoverage, opts Options) *Report {
	opts = opts.withDefaults()
	scores := make([]Score, 0, len(descs))
	for i := range descs {
		d := &descs[i]
		if d.InheritedFrom != "" {
			continue
		}
		pct := 0.0
		if fc, ok := files[d.File]; ok {
			pct = LineCoverage(fc, d.StartLine, d.EndLine)
		}
		scores = append(scores, score(d, pct))
	}
	return &Report{Source: SourcePytest, Scores: scores, Summary: buildSummary(scores, opts)}
}

// FromCoverageReport scores descs against the coverage a generated
// suite reached. Only line locations count; branch arcs are ignored
// so both sources measure the same thing.
func FromCoverageReport(descs []taxonomy.CallableDescriptor, report *taxonomy.CoverageReport, opts Options) *Report {
	opts = opts.withDefaults()
	scores := make([]Score, 0, len(descs))
	for i := range descs {
		d := &descs[i]
		if d.InheritedFrom != "" {
			continue
		}
		var cc taxonomy.CallableCoverage
		if report != nil {
			cc = report.Callables[d.ID]
		}
		scores = append(scores, score(d, lineShare(cc)))
	}
	return &Report{Source: SourceGenerated, Scores: scores, Summary: buildSummary(scores, opts)}
}

func lineShare(cc taxonomy.CallableCoverage) float64 {
	var covered, total int
	for _, loc := range cc.Executed {
		if !loc.IsBranch() {
			covered++
			total++
		}
	}
	for _, loc := range cc.Missing {
		if !loc.IsBranch() {
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return 100.0 * float64(covered) / float64(total)
}
