package taxonomy

import (
	"fmt"
	"sort"
)

// Exclusion records why a test case was dropped from the emitted suite.
type Exclusion struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Suite is the ordered, append-only set of generated test cases.
// Excluded records stay in the sequence so their names and
// fingerprints are never reused.
type Suite struct {
	records   []TestCaseRecord
	names     map[string]bool
	attempted map[string]bool
	excluded  map[string]string
}

// NewSuite returns an empty suite.
func NewSuite() *Suite {
	return &Suite{
		names:     make(map[string]bool),
		attempted: make(map[string]bool),
		excluded:  make(map[string]string),
	}
}

// Add appends r, suffixing its name with _2, _3, ... on collision.
// It returns the stored record and false when a record with the same
// fingerprint was already attempted.
func (s *Suite) Add(r TestCaseRecord) (TestCaseRecord, bool) {
	fp := r.Fingerprint()
	if s.attempted[fp] {
		return TestCaseRecord{}, false
	}
	s.attempted[fp] = true
	r.Name = s.uniqueName(r.Name)
	s.names[r.Name] = true
	s.records = append(s.records, r)
	return r, true
}

// Attempted reports whether a record with the same fingerprint was
// ever added.
func (s *Suite) Attempted(r TestCaseRecord) bool {
	return s.attempted[r.Fingerprint()]
}

// Exclude marks a record as dropped from emission.
func (s *Suite) Exclude(name, reason string) {
	if s.names[name] {
		s.excluded[name] = reason
	}
}

// IsExcluded reports whether the named record was excluded.
func (s *Suite) IsExcluded(name string) bool {
	_, ok := s.excluded[name]
	return ok
}

// Records returns the records that are not excluded, in insertion
// order.
func (s *Suite) Records() []TestCaseRecord {
	out := make([]TestCaseRecord, 0, len(s.records))
	for _, r := range s.records {
		if _, ok := s.excluded[r.Name]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// All returns every record including excluded ones.
func (s *Suite) All() []TestCaseRecord {
	return append([]TestCaseRecord(nil), s.records...)
}

// Len returns the number of records that are not excluded.
func (s *Suite) Len() int {
	return len(s.records) - len(s.excluded)
}

// Exclusions returns the excluded records sorted by name.
func (s *Suite) Exclusions() []Exclusion {
	out := make([]Exclusion, 0, len(s.excluded))
	for name, reason := range s.excluded {
		out = append(out, Exclusion{Name: name, Reason: reason})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clone returns an independent copy of the suite.
func (s *Suite) Clone() *Suite {
	c := NewSuite()
	c.records = append(c.records, s.records...)
	for k, v := range s.names {
		c.names[k] = v
	}
	for k, v := range s.attempted {
		c.attempted[k] = v
	}
	for k, v := range s.excluded {
		c.excluded[k] = v
	}
	return c
}

func (s *Suite) uniqueName(name string) string {
	if !s.names[name] {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !s.names[candidate] {
			return candidate
		}
	}
}
