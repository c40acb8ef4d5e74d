package taxonomy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Location is a coverage instrumentation point, qualified by file:
// "cart.py:L12" for a line and "cart.py:B12>14" for a branch arc.
type Location string

// LineLocation returns the location of a source line.
func LineLocation(file string, line int) Location {
	return Location(fmt.Sprintf("%s:L%d", file, line))
}

// BranchLocation returns the location of a branch arc. A negative
// destination denotes an exit from the enclosing callable.
func BranchLocation(file string, from, to int) Location {
	return Location(fmt.Sprintf("%s:B%d>%d", file, from, to))
}

// Lines returns the line of a line location, or the source and
// destination lines of a branch arc. to is 0 for line locations and
// both are 0 when the location is malformed.
func (l Location) Lines() (from, to int) {
	s := string(l)
	i := strings.LastIndexByte(s, ':')
	if i < 0 || i+1 >= len(s) {
		return 0, 0
	}
	kind, rest := s[i+1], s[i+2:]
	switch kind {
	case 'L':
		n, err := strconv.Atoi(rest)
		if err != nil {
			return 0, 0
		}
		return n, 0
	case 'B':
		a, b, ok := strings.Cut(rest, ">")
		if !ok {
			return 0, 0
		}
		from, err1 := strconv.Atoi(a)
		to, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return from, to
	}
	return 0, 0
}

// IsBranch reports whether l is a branch arc.
func (l Location) IsBranch() bool {
	i := strings.LastIndexByte(string(l), ':')
	return i >= 0 && i+1 < len(l) && l[i+1] == 'B'
}

// CallableCoverage holds the executed and missing locations of one
// callable. Both slices are sorted.
type CallableCoverage struct {
	Executed []Location `json:"executed"`
	Missing  []Location `json:"missing"`
}

// Total returns the number of executable locations.
func (c CallableCoverage) Total() int {
	return len(c.Executed) + len(c.Missing)
}

// Percentage returns executed locations as a percentage of the total.
func (c CallableCoverage) Percentage() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(len(c.Executed)) / float64(c.Total()) * 100
}

// CoverageReport is the coverage snapshot of one feedback iteration.
// A report is never modified after NewCoverageReport returns it.
type CoverageReport struct {
	Iteration int                         `json:"iteration"`
	Callables map[string]CallableCoverage `json:"callables"`
}

// NewCoverageReport freezes per-callable location sets into a report.
func NewCoverageReport(iteration int, executed, total map[string]map[Location]bool) *CoverageReport {
	r := &CoverageReport{Iteration: iteration, Callables: make(map[string]CallableCoverage, len(total))}
	for id, locs := range total {
		var cc CallableCoverage
		for loc := range locs {
			if executed[id][loc] {
				cc.Executed = append(cc.Executed, loc)
			} else {
				cc.Missing = append(cc.Missing, loc)
			}
		}
		sortLocations(cc.Executed)
		sortLocations(cc.Missing)
		r.Callables[id] = cc
	}
	return r
}

// Covered returns the set of executed locations across all callables.
func (r *CoverageReport) Covered() map[Location]bool {
	out := make(map[Location]bool)
	if r == nil {
		return out
	}
	for _, cc := range r.Callables {
		for _, loc := range cc.Executed {
			out[loc] = true
		}
	}
	return out
}

// CoveredCount returns the number of executed locations.
func (r *CoverageReport) CoveredCount() int {
	return len(r.Covered())
}

// TotalCount returns the number of executable locations.
func (r *CoverageReport) TotalCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, cc := range r.Callables {
		n += cc.Total()
	}
	return n
}

// NewlyCovered returns the locations executed in r but not in prev,
// sorted. A nil prev treats every executed location as new.
func (r *CoverageReport) NewlyCovered(prev *CoverageReport) []Location {
	before := prev.Covered()
	var out []Location
	for loc := range r.Covered() {
		if !before[loc] {
			out = append(out, loc)
		}
	}
	sortLocations(out)
	return out
}

// Uncovered returns the missing locations of one callable.
func (r *CoverageReport) Uncovered(id string) []Location {
	if r == nil {
		return nil
	}
	return r.Callables[id].Missing
}

func sortLocations(locs []Location) {
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
}
