package synth

import (
	"strings"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Trips reports whether passing v makes the condition of g true. A
// value whose effect on g cannot be decided statically, such as None
// against an ordering comparison, never trips.
func Trips(g taxonomy.Guard, v taxonomy.ValueSpec) bool {
	tripped, known := evaluate(g, v)
	return tripped && known
}

// evaluate decides the condition of g for v. known is false when the
// comparison would raise in Python or depends on runtime state.
func evaluate(g taxonomy.Guard, v taxonomy.ValueSpec) (tripped, known bool) {
	switch g.Operator {
	case taxonomy.OpIsNone:
		return v.IsNone, g.Measure == taxonomy.MeasureValue
	case taxonomy.OpIsNotNone:
		return !v.IsNone, g.Measure == taxonomy.MeasureValue
	}

	if g.Measure == taxonomy.MeasureLen {
		if v.IsNone || v.Kind == taxonomy.KindNumeric || v.Kind == taxonomy.KindBoolean {
			return false, false
		}
		switch g.Operator {
		case taxonomy.OpTruthy:
			return v.Length > 0, true
		case taxonomy.OpFalsy:
			return v.Length == 0, true
		}
		if g.Threshold == nil {
			return false, false
		}
		return compareNumbers(float64(v.Length), g.Operator, g.Threshold.Number), true
	}

	switch g.Operator {
	case taxonomy.OpTruthy:
		return v.Truthy, true
	case taxonomy.OpFalsy:
		return !v.Truthy, true
	}
	if g.Threshold == nil {
		return false, false
	}

	ordering := g.Operator != taxonomy.OpEq && g.Operator != taxonomy.OpNotEq
	switch g.Threshold.Kind {
	case taxonomy.KindNumeric, taxonomy.KindBoolean:
		if !v.Numeric {
			if ordering {
				return false, false
			}
			return g.Operator == taxonomy.OpNotEq, true
		}
		return compareNumbers(v.Number, g.Operator, g.Threshold.Number), true
	case taxonomy.KindString:
		if v.Kind != taxonomy.KindString {
			if ordering {
				return false, false
			}
			return g.Operator == taxonomy.OpNotEq, true
		}
		return compareStrings(unquote(v.Literal), g.Operator, unquote(g.Threshold.Text)), true
	}
	return false, false
}

func compareNumbers(a float64, op taxonomy.GuardOp, b float64) bool {
	switch op {
	case taxonomy.OpLess:
		return a < b
	case taxonomy.OpLessEq:
		return a <= b
	case taxonomy.OpEq:
		return a == b
	case taxonomy.OpNotEq:
		return a != b
	case taxonomy.OpGreater:
		return a > b
	case taxonomy.OpGreaterEq:
		return a >= b
	}
	return false
}

func compareStrings(a string, op taxonomy.GuardOp, b string) bool {
	c := strings.Compare(a, b)
	switch op {
	case taxonomy.OpLess:
		return c < 0
	case taxonomy.OpLessEq:
		return c <= 0
	case taxonomy.OpEq:
		return c == 0
	case taxonomy.OpNotEq:
		return c != 0
	case taxonomy.OpGreater:
		return c > 0
	case taxonomy.OpGreaterEq:
		return c >= 0
	}
	return false
}

// Satisfy returns a value of p's type that makes the condition of g
// true. For a guard this is the value that reaches the raise.
func Satisfy(p taxonomy.Parameter, g taxonomy.Guard) (taxonomy.ValueSpec, bool) {
	return solve(p.Type, g, true)
}

// Violate returns a value of p's type that makes the condition of g
// false, skipping the guarded block.
func Violate(p taxonomy.Parameter, g taxonomy.Guard) (taxonomy.ValueSpec, bool) {
	return solve(p.Type, g, false)
}

func solve(t taxonomy.TypeInfo, g taxonomy.Guard, want bool) (taxonomy.ValueSpec, bool) {
	v, ok := candidate(t, g, want)
	if !ok {
		return taxonomy.ValueSpec{}, false
	}
	if tripped, known := evaluate(g, v); !known || tripped != want {
		return taxonomy.ValueSpec{}, false
	}
	return v, true
}

// candidate picks the value that decides g the wanted way. The result
// is checked by solve.
func candidate(t taxonomy.TypeInfo, g taxonomy.Guard, want bool) (taxonomy.ValueSpec, bool) {
	op := g.Operator
	if !want {
		op = negate(op)
	}

	switch op {
	case taxonomy.OpIsNone:
		return noneValue(), true
	case taxonomy.OpIsNotNone:
		return present(t), true
	}

	if g.Measure == taxonomy.MeasureLen {
		switch op {
		case taxonomy.OpTruthy:
			return sized(t, 3)
		case taxonomy.OpFalsy:
			return sized(t, 0)
		}
		if g.Threshold == nil {
			return taxonomy.ValueSpec{}, false
		}
		n := int(g.Threshold.Number)
		return sized(t, n+offset(op))
	}

	switch op {
	case taxonomy.OpTruthy:
		return present(t), true
	case taxonomy.OpFalsy:
		return empty(t), true
	}
	if g.Threshold == nil {
		return taxonomy.ValueSpec{}, false
	}

	th := g.Threshold
	switch th.Kind {
	case taxonomy.KindNumeric:
		float := th.IsFloat || t.Name == "float"
		return numberValue(th.Number+float64(offset(op)), float), true
	case taxonomy.KindBoolean:
		b := th.Number != 0
		if op == taxonomy.OpNotEq {
			b = !b
		}
		switch op {
		case taxonomy.OpEq, taxonomy.OpNotEq:
			return boolValue(b), true
		}
	case taxonomy.KindString:
		s := unquote(th.Text)
		switch op {
		case taxonomy.OpEq:
			return stringValue(s), true
		case taxonomy.OpNotEq:
			if s == typicalString {
				return stringValue("other"), true
			}
			return stringValue(typicalString), true
		}
	}
	return taxonomy.ValueSpec{}, false
}

// offset is the distance from the threshold of the nearest operand
// that makes a comparison with op true.
func offset(op taxonomy.GuardOp) int {
	switch op {
	case taxonomy.OpLess:
		return -1
	case taxonomy.OpGreater, taxonomy.OpNotEq:
		return 1
	}
	return 0
}

// negate returns the operator whose condition is the complement of op.
func negate(op taxonomy.GuardOp) taxonomy.GuardOp {
	switch op {
	case taxonomy.OpLess:
		return taxonomy.OpGreaterEq
	case taxonomy.OpLessEq:
		return taxonomy.OpGreater
	case taxonomy.OpGreater:
		return taxonomy.OpLessEq
	case taxonomy.OpGreaterEq:
		return taxonomy.OpLess
	case taxonomy.OpEq:
		return taxonomy.OpNotEq
	case taxonomy.OpNotEq:
		return taxonomy.OpEq
	case taxonomy.OpIsNone:
		return taxonomy.OpIsNotNone
	case taxonomy.OpIsNotNone:
		return taxonomy.OpIsNone
	case taxonomy.OpTruthy:
		return taxonomy.OpFalsy
	case taxonomy.OpFalsy:
		return taxonomy.OpTruthy
	}
	return op
}
