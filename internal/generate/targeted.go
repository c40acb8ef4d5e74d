package generate

import (
	"fmt"
	"sort"

	"github.com/unbound-force/testgen/internal/synth"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Targeted returns records aimed at the locations report left
// uncovered. For every recognized condition whose block or skip arc
// was missed, it binds a value that enters or skips the condition.
// Boundary values beyond the per-callable cap are offered as well.
// Records the suite has already attempted are not returned.
func (g *Generator) Targeted(report *taxonomy.CoverageReport, suite *taxonomy.Suite) []taxonomy.TestCaseRecord {
	var c collector
	for i := range g.descs {
		d := &g.descs[i]
		missing := report.Uncovered(d.ID)
		if len(missing) == 0 {
			continue
		}
		gaps := newGapSet(missing)

		for _, cond := range conditionsOf(d) {
			p, ok := d.Param(cond.Parameter)
			if !ok || p.IsVariadic() {
				continue
			}
			if gaps.enters(cond) {
				if v, ok := synth.Satisfy(p, cond); ok {
					c.add(suite, g.targetedRecord(d, p, v, cond.BodyStart, fmt.Sprintf("enter %q", cond.String())))
				}
			}
			if gaps.skips(cond) {
				if v, ok := synth.Violate(p, cond); ok {
					c.add(suite, g.targetedRecord(d, p, v, cond.Line, fmt.Sprintf("skip %q", cond.String())))
				}
			}
		}

		boundary := g.boundaries(d)
		if len(boundary) > g.opts.MaxBoundaryCases {
			for _, r := range boundary[g.opts.MaxBoundaryCases:] {
				c.add(suite, r)
			}
		}
	}
	return c.records
}

func (g *Generator) targetedRecord(d *taxonomy.CallableDescriptor, p taxonomy.Parameter, v taxonomy.ValueSpec, line int, purpose string) taxonomy.TestCaseRecord {
	tag := fmt.Sprintf("%s_targets_line_%d", p.Name, line)
	r := g.record(d, taxonomy.ScenarioTargeted, tag, g.argsWith(d, p.Name, v))
	r.TargetLine = line
	r.Description = fmt.Sprintf("Pass %s=%s to %s at line %d.", p.Name, v.Literal, purpose, line)
	return r
}

// conditionsOf returns guards and branches in source order.
func conditionsOf(d *taxonomy.CallableDescriptor) []taxonomy.Guard {
	out := make([]taxonomy.Guard, 0, len(d.Guards)+len(d.Branches))
	out = append(out, d.Guards...)
	out = append(out, d.Branches...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// gapSet indexes the missing locations of one callable by line.
type gapSet struct {
	lines map[int]bool
	arcs  map[int][]int
}

func newGapSet(missing []taxonomy.Location) gapSet {
	s := gapSet{lines: make(map[int]bool), arcs: make(map[int][]int)}
	for _, loc := range missing {
		from, to := loc.Lines()
		if loc.IsBranch() {
			s.arcs[from] = append(s.arcs[from], to)
		} else {
			s.lines[from] = true
		}
	}
	return s
}

// enters reports whether the block of cond was never executed.
func (s gapSet) enters(cond taxonomy.Guard) bool {
	for line := cond.BodyStart; line <= cond.BodyEnd; line++ {
		if s.lines[line] {
			return true
		}
	}
	for _, to := range s.arcs[cond.Line] {
		if to >= cond.BodyStart && to <= cond.BodyEnd {
			return true
		}
	}
	return false
}

// skips reports whether the arc past the block of cond was never
// taken.
func (s gapSet) skips(cond taxonomy.Guard) bool {
	for _, to := range s.arcs[cond.Line] {
		if to < cond.BodyStart || to > cond.BodyEnd {
			return true
		}
	}
	return false
}
