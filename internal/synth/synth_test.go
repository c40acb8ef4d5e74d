package synth_test

import (
	"errors"
	"testing"

	"github.com/unbound-force/testgen/internal/synth"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

func param(name, hint string) taxonomy.Parameter {
	return taxonomy.Parameter{Name: name, Hint: hint, Type: taxonomy.ResolveHint(hint), Kind: taxonomy.ParamPositional}
}

func guard(p string, op taxonomy.GuardOp, threshold string, number float64) taxonomy.Guard {
	g := taxonomy.Guard{Parameter: p, Measure: taxonomy.MeasureValue, Operator: op, Exception: "ValueError"}
	if threshold != "" {
		g.Threshold = &taxonomy.Literal{Kind: taxonomy.KindNumeric, Text: threshold, Number: number}
	}
	return g
}

func literals(specs []taxonomy.ValueSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Literal
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSynthesize_Unguarded(t *testing.T) {
	tests := []struct {
		hint string
		want []string
	}{
		{"int", []string{"42", "0", "2147483647"}},
		{"float", []string{"3.14", "0.0", "1e+09"}},
		{"str", []string{`"sample"`, `""`}},
		{"bool", []string{"True", "False"}},
		{"list[int]", []string{"[1, 2, 3]", "[]"}},
		{"dict", []string{`{"key": "value"}`, "{}"}},
		{"set", []string{"{1, 2, 3}", "set()"}},
		{"tuple", []string{"(1, 2, 3)", "()"}},
		{"None", []string{"None"}},
		{"Optional[int]", []string{"42", "0", "2147483647", "None"}},
		{"", []string{"None"}},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			got := synth.Synthesize(param("x", tt.hint), nil)
			if !equal(literals(got.Specs), tt.want) {
				t.Errorf("Synthesize(%q) = %v, want %v", tt.hint, literals(got.Specs), tt.want)
			}
			if got.Specs[0].Tag != taxonomy.TagTypical {
				t.Errorf("first value tag = %s, want typical", got.Specs[0].Tag)
			}
			if len(got.Tagged(taxonomy.TagInvalid)) != 0 {
				t.Error("invalid values produced without a guard")
			}
		})
	}
}

func TestSynthesize_LessThanGuard(t *testing.T) {
	g := guard("price", taxonomy.OpLess, "0", 0)
	got := synth.Synthesize(param("price", "float"), []taxonomy.Guard{g})

	invalid := got.Tagged(taxonomy.TagInvalid)
	if len(invalid) != 1 {
		t.Fatalf("expected 1 invalid value, got %d", len(invalid))
	}
	if invalid[0].Number >= 0 {
		t.Errorf("invalid value %s is not below the threshold", invalid[0].Literal)
	}
	if invalid[0].Violates != "price < 0" {
		t.Errorf("Violates = %q, want %q", invalid[0].Violates, "price < 0")
	}
	if got.Typical().Literal != "3.14" {
		t.Errorf("typical = %s, want 3.14", got.Typical().Literal)
	}
	for _, b := range got.Tagged(taxonomy.TagBoundaryLow, taxonomy.TagBoundaryHigh) {
		if synth.Trips(g, b) {
			t.Errorf("boundary %s trips the guard", b.Literal)
		}
	}
	if want := []string{"0.0", "1.0"}; !equal(literals(got.Tagged(taxonomy.TagBoundaryHigh)), want) {
		t.Errorf("high boundaries = %v, want %v", literals(got.Tagged(taxonomy.TagBoundaryHigh)), want)
	}
}

func TestSynthesize_LessEqGuard(t *testing.T) {
	g := guard("quantity", taxonomy.OpLessEq, "0", 0)
	got := synth.Synthesize(param("quantity", "int"), []taxonomy.Guard{g})
	want := []string{"42", "1", "0"}
	if !equal(literals(got.Specs), want) {
		t.Errorf("Synthesize = %v, want %v", literals(got.Specs), want)
	}
	if got.Specs[2].Tag != taxonomy.TagInvalid {
		t.Errorf("last value tag = %s, want invalid", got.Specs[2].Tag)
	}
}

func TestSynthesize_TypicalMovesInsideGuard(t *testing.T) {
	g := guard("n", taxonomy.OpGreater, "10", 10)
	got := synth.Synthesize(param("n", "int"), []taxonomy.Guard{g})
	if got.Typical().Literal != "10" {
		t.Errorf("typical = %s, want 10", got.Typical().Literal)
	}
	if synth.Trips(g, got.Typical()) {
		t.Error("typical value trips the guard")
	}
}

func TestSynthesize_BooleanNeverInvalid(t *testing.T) {
	g := taxonomy.Guard{Parameter: "flag", Measure: taxonomy.MeasureValue, Operator: taxonomy.OpTruthy, Exception: "RuntimeError"}
	got := synth.Synthesize(param("flag", "bool"), []taxonomy.Guard{g})
	if want := []string{"False"}; !equal(literals(got.Specs), want) {
		t.Errorf("Synthesize = %v, want %v", literals(got.Specs), want)
	}
}

func TestSynthesize_LenGuard(t *testing.T) {
	g := taxonomy.Guard{
		Parameter: "name",
		Measure:   taxonomy.MeasureLen,
		Operator:  taxonomy.OpLess,
		Threshold: &taxonomy.Literal{Kind: taxonomy.KindNumeric, Text: "3", Number: 3},
		Exception: "ValueError",
	}
	got := synth.Synthesize(param("name", "str"), []taxonomy.Guard{g})
	want := []string{`"sample"`, `"aaa"`, `"aaaa"`, `"aa"`}
	if !equal(literals(got.Specs), want) {
		t.Errorf("Synthesize = %v, want %v", literals(got.Specs), want)
	}
}

func TestSynthesize_NoneGuard(t *testing.T) {
	g := guard("user", taxonomy.OpIsNone, "", 0)
	got := synth.Synthesize(param("user", "Optional[str]"), []taxonomy.Guard{g})
	invalid := got.Tagged(taxonomy.TagInvalid)
	if len(invalid) != 1 || !invalid[0].IsNone {
		t.Fatalf("invalid = %v, want [None]", literals(invalid))
	}
	for _, b := range got.Tagged(taxonomy.TagBoundaryLow) {
		if b.IsNone {
			t.Error("None boundary kept although it trips the guard")
		}
	}
}

func TestSynthesize_UnannotatedGuard(t *testing.T) {
	g := guard("x", taxonomy.OpLess, "0", 0)
	got := synth.Synthesize(param("x", ""), []taxonomy.Guard{g})
	want := []string{"0", "-1"}
	if !equal(literals(got.Specs), want) {
		t.Errorf("Synthesize = %v, want %v", literals(got.Specs), want)
	}
}

func TestSynthesize_UnresolvedType(t *testing.T) {
	got := synth.Synthesize(param("item", "Item"), nil)
	var gap *synth.UnresolvedTypeError
	if !errors.As(got.Gap, &gap) {
		t.Fatalf("Gap = %v, want *UnresolvedTypeError", got.Gap)
	}
	if gap.Type != "Item" {
		t.Errorf("Type = %q, want Item", gap.Type)
	}
	if want := []string{"None"}; !equal(literals(got.Specs), want) {
		t.Errorf("Synthesize = %v, want %v", literals(got.Specs), want)
	}
}

func TestSatisfyViolate(t *testing.T) {
	str := func(text string) *taxonomy.Literal {
		return &taxonomy.Literal{Kind: taxonomy.KindString, Text: text}
	}
	tests := []struct {
		name    string
		param   taxonomy.Parameter
		guard   taxonomy.Guard
		satisfy string
		violate string
	}{
		{"less", param("x", "int"), guard("x", taxonomy.OpLess, "5", 5), "4", "5"},
		{"less-eq", param("x", "int"), guard("x", taxonomy.OpLessEq, "5", 5), "5", "6"},
		{"greater", param("x", "int"), guard("x", taxonomy.OpGreater, "5", 5), "6", "5"},
		{"greater-eq", param("x", "int"), guard("x", taxonomy.OpGreaterEq, "5", 5), "5", "4"},
		{"eq", param("x", "int"), guard("x", taxonomy.OpEq, "5", 5), "5", "6"},
		{"not-eq", param("x", "int"), guard("x", taxonomy.OpNotEq, "5", 5), "6", "5"},
		{"is-not-none", param("x", "Optional[int]"), guard("x", taxonomy.OpIsNotNone, "", 0), "42", "None"},
		{"falsy", param("x", "list"), guard("x", taxonomy.OpFalsy, "", 0), "[]", "[1, 2, 3]"},
		{"string-eq", param("role", "str"),
			taxonomy.Guard{Parameter: "role", Measure: taxonomy.MeasureValue, Operator: taxonomy.OpEq, Threshold: str(`'admin'`)},
			`"admin"`, `"sample"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := synth.Satisfy(tt.param, tt.guard)
			if !ok || s.Literal != tt.satisfy {
				t.Errorf("Satisfy = %q, %v; want %q", s.Literal, ok, tt.satisfy)
			}
			if !synth.Trips(tt.guard, s) {
				t.Errorf("satisfying value %s does not trip %s", s.Literal, tt.guard)
			}
			v, ok := synth.Violate(tt.param, tt.guard)
			if !ok || v.Literal != tt.violate {
				t.Errorf("Violate = %q, %v; want %q", v.Literal, ok, tt.violate)
			}
			if synth.Trips(tt.guard, v) {
				t.Errorf("violating value %s trips %s", v.Literal, tt.guard)
			}
		})
	}
}

func TestTrips_UndecidableComparison(t *testing.T) {
	g := guard("x", taxonomy.OpLess, "0", 0)
	none := synth.Synthesize(param("x", "None"), nil).Typical()
	if synth.Trips(g, none) {
		t.Error("None against an ordering comparison must not trip")
	}
}
