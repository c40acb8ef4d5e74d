package feedback

import (
	"github.com/unbound-force/testgen/internal/sandbox"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// measure builds the coverage report of the passing records in suite.
// Records of batch that add no location beyond what the other records
// cover are returned as discarded and left out of the report.
func (l *Loop) measure(suite *taxonomy.Suite, iteration int, batch []taxonomy.TestCaseRecord) (*taxonomy.CoverageReport, []string) {
	inBatch := make(map[string]bool, len(batch))
	for _, r := range batch {
		inBatch[r.Name] = true
	}

	executed := make(map[string]map[taxonomy.Location]bool)
	total := make(map[string]map[taxonomy.Location]bool)
	covered := make(map[taxonomy.Location]bool)

	merge := func(c sandbox.CaseResult) {
		l.attribute(c.Coverage, func(id string, loc taxonomy.Location, hit bool) {
			if total[id] == nil {
				total[id] = make(map[taxonomy.Location]bool)
				executed[id] = make(map[taxonomy.Location]bool)
			}
			total[id][loc] = true
			if hit {
				executed[id][loc] = true
				covered[loc] = true
			}
		})
	}

	records := suite.Records()
	for _, r := range records {
		if !inBatch[r.Name] {
			merge(l.executed[cacheKey(r)])
		}
	}

	var discarded []string
	for _, r := range records {
		if !inBatch[r.Name] {
			continue
		}
		c := l.executed[cacheKey(r)]
		adds := false
		l.attribute(c.Coverage, func(_ string, loc taxonomy.Location, hit bool) {
			if hit && !covered[loc] {
				adds = true
			}
		})
		if !adds {
			discarded = append(discarded, r.Name)
			continue
		}
		merge(c)
	}
	return taxonomy.NewCoverageReport(iteration, executed, total), discarded
}

// attribute calls fn for every location of cov that falls inside a
// descriptor's line range. Inherited descriptors share the lines of
// their defining class and are skipped.
func (l *Loop) attribute(cov map[string]sandbox.FileCoverage, fn func(id string, loc taxonomy.Location, hit bool)) {
	for i := range l.descs {
		d := &l.descs[i]
		if d.InheritedFrom != "" {
			continue
		}
		fc, ok := cov[d.File]
		if !ok {
			continue
		}
		within := func(line int) bool { return line >= d.StartLine && line <= d.EndLine }
		for _, line := range fc.ExecutedLines {
			if within(line) {
				fn(d.ID, taxonomy.LineLocation(d.File, line), true)
			}
		}
		for _, line := range fc.MissingLines {
			if within(line) {
				fn(d.ID, taxonomy.LineLocation(d.File, line), false)
			}
		}
		for _, arc := range fc.ExecutedBranches {
			if within(arc[0]) {
				fn(d.ID, taxonomy.BranchLocation(d.File, arc[0], arc[1]), true)
			}
		}
		for _, arc := range fc.MissingBranches {
			if within(arc[0]) {
				fn(d.ID, taxonomy.BranchLocation(d.File, arc[0], arc[1]), false)
			}
		}
	}
}
