// Package synth produces representative argument values for a
// parameter from its resolved type and the guard conditions recorded
// on it.
package synth

import (
	"fmt"
	"math"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// UnresolvedTypeError reports a parameter whose annotation names a
// class the synthesizer cannot construct. It is a coverage gap, not a
// failure: the parameter receives a placeholder value.
type UnresolvedTypeError struct {
	Param string
	Type  string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("parameter %s: cannot synthesize values of type %s, using placeholder", e.Param, e.Type)
}

// Synthesis is the ordered set of values for one parameter: the
// typical value first, then boundary values, then one invalid value
// per guard the synthesizer could trip.
type Synthesis struct {
	Specs []taxonomy.ValueSpec

	// Gap is set when the parameter type gave too little information.
	Gap error
}

// Typical returns the first value.
func (s Synthesis) Typical() taxonomy.ValueSpec {
	return s.Specs[0]
}

// Tagged returns the values carrying any of the given tags, in order.
func (s Synthesis) Tagged(tags ...taxonomy.ValueTag) []taxonomy.ValueSpec {
	var out []taxonomy.ValueSpec
	for _, v := range s.Specs {
		for _, t := range tags {
			if v.Tag == t {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// Synthesize returns the values for p. Guards on other parameters are
// ignored. It never fails; Specs always holds at least the typical
// value.
func Synthesize(p taxonomy.Parameter, guards []taxonomy.Guard) Synthesis {
	var own []taxonomy.Guard
	for _, g := range guards {
		if g.Parameter == p.Name {
			own = append(own, g)
		}
	}

	var s Synthesis
	base, informed := typical(p.Type)
	if p.Type.Kind == taxonomy.KindUnresolved {
		s.Gap = &UnresolvedTypeError{Param: p.Name, Type: p.Type.Name}
	}

	seen := make(map[string]bool)
	add := func(v taxonomy.ValueSpec, tag taxonomy.ValueTag) {
		if seen[v.Literal] {
			return
		}
		seen[v.Literal] = true
		v.Tag = tag
		s.Specs = append(s.Specs, v)
	}

	add(settle(p, base, own), taxonomy.TagTypical)

	if informed {
		for _, v := range boundaries(p.Type, own) {
			if accepted(v, own) {
				add(v, v.Tag)
			}
		}
	}

	if p.Type.Kind != taxonomy.KindBoolean {
		for _, g := range own {
			v, ok := Satisfy(p, g)
			if !ok {
				continue
			}
			v.Violates = g.String()
			add(v, taxonomy.TagInvalid)
		}
	}
	return s
}

// accepted reports whether v decidably passes every guard.
func accepted(v taxonomy.ValueSpec, guards []taxonomy.Guard) bool {
	for _, g := range guards {
		if tripped, known := evaluate(g, v); tripped || !known {
			return false
		}
	}
	return true
}

// settle moves the typical value to the nearest value that passes every
// guard. When no candidate passes, the base value is kept and the
// generated happy path expects the guard's exception.
func settle(p taxonomy.Parameter, base taxonomy.ValueSpec, guards []taxonomy.Guard) taxonomy.ValueSpec {
	if accepted(base, guards) {
		return base
	}

	var candidates []taxonomy.ValueSpec
	for _, g := range guards {
		if v, ok := Violate(p, g); ok {
			candidates = append(candidates, v)
		}
	}
	if base.Numeric {
		float := p.Type.Name == "float"
		for _, g := range guards {
			if g.Measure != taxonomy.MeasureValue || g.Threshold == nil || g.Threshold.Kind != taxonomy.KindNumeric {
				continue
			}
			t := g.Threshold.Number
			for _, n := range []float64{t - 1, t, t + 1} {
				candidates = append(candidates, numberValue(n, float || g.Threshold.IsFloat))
			}
		}
	}

	best := -1
	for i, c := range candidates {
		if !accepted(c, guards) {
			continue
		}
		if best < 0 || (base.Numeric && c.Numeric && closer(c, candidates[best], base)) {
			best = i
		}
	}
	if best < 0 {
		return base
	}
	return candidates[best]
}

func closer(a, b, to taxonomy.ValueSpec) bool {
	return math.Abs(a.Number-to.Number) < math.Abs(b.Number-to.Number)
}

// boundaries returns the boundary values of t before guard filtering.
func boundaries(t taxonomy.TypeInfo, guards []taxonomy.Guard) []taxonomy.ValueSpec {
	var out []taxonomy.ValueSpec
	tag := func(v taxonomy.ValueSpec, low bool) {
		v.Tag = taxonomy.TagBoundaryHigh
		if low {
			v.Tag = taxonomy.TagBoundaryLow
		}
		out = append(out, v)
	}

	switch t.Kind {
	case taxonomy.KindNumeric:
		float := t.Name == "float"
		found := false
		for _, g := range guards {
			if g.Measure != taxonomy.MeasureValue || g.Threshold == nil || g.Threshold.Kind != taxonomy.KindNumeric {
				continue
			}
			found = true
			th := g.Threshold.Number
			for _, n := range []float64{th - 1, th, th + 1} {
				tag(numberValue(n, float || g.Threshold.IsFloat), n < th)
			}
		}
		if !found {
			tag(numberValue(0, float), true)
			if float {
				tag(numberValue(sentinelFloat, true), false)
			} else {
				tag(numberValue(sentinelInt, false), false)
			}
		}
	case taxonomy.KindString, taxonomy.KindCollection:
		tag(empty(t), true)
		for _, g := range guards {
			if g.Measure != taxonomy.MeasureLen || g.Threshold == nil {
				continue
			}
			th := int(g.Threshold.Number)
			for _, n := range []int{th - 1, th, th + 1} {
				if v, ok := sized(t, n); ok {
					tag(v, n < th)
				}
			}
		}
	case taxonomy.KindBoolean:
		tag(boolValue(false), true)
	}

	if t.Optional && t.Kind != taxonomy.KindNone {
		tag(noneValue(), true)
	}
	return out
}
