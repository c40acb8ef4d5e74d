// Package taxonomy defines the callable model, synthesized values, test
// case records, coverage snapshots, and stable ID generation shared by
// every stage of a testgen run.
package taxonomy

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TypeKind is the closed set of parameter type variants the
// synthesizer understands.
type TypeKind string

// Type kind constants.
const (
	KindNumeric     TypeKind = "numeric"
	KindString      TypeKind = "string"
	KindBoolean     TypeKind = "boolean"
	KindCollection  TypeKind = "collection"
	KindNone        TypeKind = "none"
	KindUnannotated TypeKind = "unannotated"
	KindUnresolved  TypeKind = "unresolved"
)

// TypeInfo is the resolved type of a parameter or return hint.
type TypeInfo struct {
	// Kind is the variant used to pick a synthesis policy.
	Kind TypeKind `json:"kind"`

	// Name is the concrete type name: int, float, str, bool, list,
	// dict, set, tuple, None, or the unknown class name when Kind is
	// unresolved. Empty for unannotated parameters.
	Name string `json:"name,omitempty"`

	// Optional is set for Optional[X] and X | None annotations.
	Optional bool `json:"optional,omitempty"`
}

// ParamKind describes how a parameter is bound at a call site.
type ParamKind string

// Parameter kind constants.
const (
	ParamPositionalOnly ParamKind = "positional_only"
	ParamPositional     ParamKind = "positional"
	ParamKeywordOnly    ParamKind = "keyword_only"
	ParamVarPositional  ParamKind = "var_positional"
	ParamVarKeyword     ParamKind = "var_keyword"
)

// Parameter is one declared parameter of a callable.
type Parameter struct {
	Name string `json:"name"`

	// Hint is the raw annotation text, empty when unannotated.
	Hint string `json:"hint,omitempty"`

	// Type is the resolved variant of Hint, falling back to the
	// literal type of Default.
	Type TypeInfo `json:"type"`

	// Default is the raw default value source text.
	Default    string `json:"default,omitempty"`
	HasDefault bool   `json:"has_default,omitempty"`

	Kind ParamKind `json:"kind"`
}

// IsVariadic reports whether the parameter collects extra arguments.
func (p Parameter) IsVariadic() bool {
	return p.Kind == ParamVarPositional || p.Kind == ParamVarKeyword
}

// Measure is the quantity a guard compares.
type Measure string

// Measure constants.
const (
	MeasureValue Measure = "value"
	MeasureLen   Measure = "len"
)

// GuardOp is the comparison shape of a recognized condition.
type GuardOp string

// Guard operator constants. The last four carry no threshold.
const (
	OpLess      GuardOp = "<"
	OpLessEq    GuardOp = "<="
	OpEq        GuardOp = "=="
	OpNotEq     GuardOp = "!="
	OpGreater   GuardOp = ">"
	OpGreaterEq GuardOp = ">="
	OpIsNone    GuardOp = "is None"
	OpIsNotNone GuardOp = "is not None"
	OpTruthy    GuardOp = "truthy"
	OpFalsy     GuardOp = "falsy"
)

// Flip returns the operator with its operands swapped, so that
// "0 > x" can be stored as "x < 0".
func (op GuardOp) Flip() GuardOp {
	switch op {
	case OpLess:
		return OpGreater
	case OpLessEq:
		return OpGreaterEq
	case OpGreater:
		return OpLess
	case OpGreaterEq:
		return OpLessEq
	}
	return op
}

// Compares reports whether the operator takes a threshold operand.
func (op GuardOp) Compares() bool {
	switch op {
	case OpLess, OpLessEq, OpEq, OpNotEq, OpGreater, OpGreaterEq:
		return true
	}
	return false
}

// Literal is a constant operand found in a guard condition.
type Literal struct {
	// Kind is numeric, string, or boolean.
	Kind TypeKind `json:"kind"`

	// Text is the literal as written in source, e.g. "0", "-1.5",
	// "'admin'", "True".
	Text string `json:"text"`

	// Number is the numeric value for numeric and boolean literals.
	Number float64 `json:"number,omitempty"`

	// IsFloat is set when the literal was written with a fraction or
	// exponent.
	IsFloat bool `json:"is_float,omitempty"`
}

// Guard is a recognized condition on a single parameter. When
// Exception is set the condition immediately precedes a raise of that
// type; otherwise it is a plain branch condition.
type Guard struct {
	Parameter string   `json:"parameter"`
	Measure   Measure  `json:"measure"`
	Operator  GuardOp  `json:"operator"`
	Threshold *Literal `json:"threshold,omitempty"`
	Exception string   `json:"exception,omitempty"`

	// Line is the line of the condition. BodyStart and BodyEnd bound
	// the guarded block.
	Line      int `json:"line"`
	BodyStart int `json:"body_start"`
	BodyEnd   int `json:"body_end"`
}

// String renders the condition in source form.
func (g Guard) String() string {
	subject := g.Parameter
	if g.Measure == MeasureLen {
		subject = "len(" + g.Parameter + ")"
	}
	switch g.Operator {
	case OpTruthy:
		return subject
	case OpFalsy:
		return "not " + subject
	case OpIsNone, OpIsNotNone:
		return subject + " " + string(g.Operator)
	}
	threshold := ""
	if g.Threshold != nil {
		threshold = g.Threshold.Text
	}
	return fmt.Sprintf("%s %s %s", subject, g.Operator, threshold)
}

// CallableDescriptor is the immutable model of one analyzable
// function, method, or async function.
type CallableDescriptor struct {
	// ID is a stable identifier derived from file and qualified name.
	ID string `json:"id"`

	// Module is the dotted import path, e.g. "shop.cart".
	Module string `json:"module"`

	// File is the source path relative to the analyzed root.
	File string `json:"file"`

	// QualifiedName is module.Class.name or module.name.
	QualifiedName string `json:"qualified_name"`

	Name string `json:"name"`

	// Class is the owning class for methods, empty for functions.
	// Nested classes are dotted ("Outer.Inner").
	Class string `json:"class,omitempty"`

	// InheritedFrom names the defining base class when this descriptor
	// was produced by inheritance resolution.
	InheritedFrom string `json:"inherited_from,omitempty"`

	// Params excludes the implicit self or cls of methods.
	Params []Parameter `json:"params"`

	ReturnHint string   `json:"return_hint,omitempty"`
	ReturnType TypeInfo `json:"return_type"`
	Docstring  string   `json:"docstring,omitempty"`
	Decorators []string `json:"decorators,omitempty"`

	IsAsync bool `json:"is_async"`

	// IsMethod is set for methods invoked on an instance.
	IsMethod bool `json:"is_method"`

	// IsStatic is set for staticmethod and classmethod members, which
	// are invoked on the class.
	IsStatic bool `json:"is_static,omitempty"`

	// IsConstructor is set for __init__, which is invoked as Class(...).
	IsConstructor bool `json:"is_constructor,omitempty"`

	// Guards are conditions immediately preceding a raise.
	Guards []Guard `json:"guards"`

	// Branches are recognized conditions that do not raise.
	Branches []Guard `json:"branches,omitempty"`

	// ReturnsValue is set when the body contains a return with a value
	// or a yield.
	ReturnsValue bool `json:"returns_value"`

	StartLine  int `json:"start_line"`
	EndLine    int `json:"end_line"`
	Complexity int `json:"complexity"`
}

// Exceptions returns the distinct exception types of the recorded
// guards in source order.
func (d *CallableDescriptor) Exceptions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range d.Guards {
		if g.Exception == "" || seen[g.Exception] {
			continue
		}
		seen[g.Exception] = true
		out = append(out, g.Exception)
	}
	return out
}

// Param returns the named parameter.
func (d *CallableDescriptor) Param(name string) (Parameter, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// GuardsOn returns the recorded guards that test the named parameter.
func (d *CallableDescriptor) GuardsOn(param string) []Guard {
	var out []Guard
	for _, g := range d.Guards {
		if g.Parameter == param {
			out = append(out, g)
		}
	}
	return out
}

// DisplayName is the short name used in test names and reports:
// "Class.method" for methods, "func" for functions.
func (d *CallableDescriptor) DisplayName() string {
	if d.Class != "" {
		return d.Class + "." + d.Name
	}
	return d.Name
}

// Location returns the file:line position of the declaration.
func (d *CallableDescriptor) Location() string {
	return fmt.Sprintf("%s:%d", d.File, d.StartLine)
}

// ValueTag is the purpose of a synthesized value.
type ValueTag string

// Value tag constants.
const (
	TagTypical      ValueTag = "typical"
	TagBoundaryLow  ValueTag = "boundary_low"
	TagBoundaryHigh ValueTag = "boundary_high"
	TagInvalid      ValueTag = "invalid"
)

// IsBoundary reports whether the tag is one of the boundary tags.
func (t ValueTag) IsBoundary() bool {
	return t == TagBoundaryLow || t == TagBoundaryHigh
}

// ValueSpec is one synthesized argument value.
type ValueSpec struct {
	Tag ValueTag `json:"tag"`

	// Literal is the value as Python source text.
	Literal string `json:"literal"`

	Kind TypeKind `json:"kind"`

	// Violates is the condition an invalid value is chosen to trip.
	Violates string `json:"violates,omitempty"`

	// Facts used to evaluate guards against the value.
	Number  float64 `json:"-"`
	Numeric bool    `json:"-"`
	Length  int     `json:"-"`
	IsNone  bool    `json:"-"`
	Truthy  bool    `json:"-"`
}

// Binding pairs a parameter with the value passed for it.
type Binding struct {
	Param string    `json:"param"`
	Kind  ParamKind `json:"kind"`
	Value ValueSpec `json:"value"`
}

// OutcomeKind is the shape of an expected result.
type OutcomeKind string

// Outcome kind constants.
const (
	OutcomeReturnsValue  OutcomeKind = "returns_value"
	OutcomeReturnsNone   OutcomeKind = "returns_none"
	OutcomeReturnsType   OutcomeKind = "returns_type"
	OutcomeCompletes     OutcomeKind = "completes"
	OutcomeEqualsLiteral OutcomeKind = "equals_literal"
	OutcomeRaises        OutcomeKind = "raises"
)

// Outcome is the expected result of invoking a test case target.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`

	// Exception is set for OutcomeRaises.
	Exception string `json:"exception,omitempty"`

	// Type is set for OutcomeReturnsType.
	Type string `json:"type,omitempty"`

	// Literal is set for OutcomeEqualsLiteral.
	Literal string `json:"literal,omitempty"`
}

// String renders the outcome for reports and descriptions.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeRaises:
		return "raises " + o.Exception
	case OutcomeReturnsType:
		return "returns " + o.Type
	case OutcomeEqualsLiteral:
		return "returns " + o.Literal
	case OutcomeReturnsNone:
		return "returns None"
	case OutcomeReturnsValue:
		return "returns a value"
	}
	return "completes"
}

// Signal represents a single piece of evidence contributing to the
// confidence that a callable returns a meaningful value.
type Signal struct {
	// Source identifies the signal type ("return_hint", "docstring",
	// "naming", "contradiction").
	Source string `json:"source"`

	// Weight is the numeric contribution to the confidence score.
	// Can be negative.
	Weight int `json:"weight"`

	// Reasoning explains why this signal was applied.
	Reasoning string `json:"reasoning,omitempty"`
}

// Classification is the success assertion chosen for a callable,
// with the confidence score and the signals behind it.
type Classification struct {
	Outcome    Outcome  `json:"outcome"`
	Confidence int      `json:"confidence"`
	Signals    []Signal `json:"signals"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// Scenario classifies why a test case exists.
type Scenario string

// Scenario constants.
const (
	ScenarioHappyPath Scenario = "happy_path"
	ScenarioBoundary  Scenario = "boundary"
	ScenarioException Scenario = "exception"
	ScenarioTargeted  Scenario = "targeted"
)

// TestCaseRecord is one generated test scenario.
type TestCaseRecord struct {
	// Name is unique within a Suite.
	Name string `json:"name"`

	// Target is the ID of the CallableDescriptor under test. It is a
	// lookup key only.
	Target string `json:"target"`

	// Callable is the display name of the target.
	Callable string `json:"callable"`

	Scenario Scenario `json:"scenario"`

	// Args are bound in declaration order.
	Args []Binding `json:"args"`

	// Constructor holds the arguments used to build the owning
	// instance when the target is a bound method.
	Constructor []Binding `json:"constructor,omitempty"`

	Expected Outcome `json:"expected"`
	IsAsync  bool    `json:"is_async"`

	Description string `json:"description,omitempty"`

	// TargetLine is the source line a targeted case aims at.
	TargetLine int `json:"target_line,omitempty"`
}

// Fingerprint identifies the scenario independent of its name, so the
// same inputs are never generated twice.
func (r TestCaseRecord) Fingerprint() string {
	var b strings.Builder
	b.WriteString(r.Target)
	for _, c := range r.Constructor {
		fmt.Fprintf(&b, "|c:%s=%s", c.Param, c.Value.Literal)
	}
	for _, a := range r.Args {
		fmt.Fprintf(&b, "|%s=%s", a.Param, a.Value.Literal)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("tc-%x", hash[:6])
}

// Metadata holds run metadata.
type Metadata struct {
	RunID          string        `json:"run_id"`
	TestgenVersion string        `json:"testgen_version"`
	Root           string        `json:"root"`
	Timestamp      time.Time     `json:"-"`
	Duration       time.Duration `json:"-"`
	Warnings       []string      `json:"warnings"`
}

// MarshalJSON customizes JSON encoding to use duration_ms and
// ISO 8601 timestamp.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type Alias Metadata
	ts := ""
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(&struct {
		Alias
		DurationMS int64  `json:"duration_ms"`
		Timestamp  string `json:"timestamp,omitempty"`
	}{
		Alias:      Alias(m),
		DurationMS: m.Duration.Milliseconds(),
		Timestamp:  ts,
	})
}

// GenerateID produces a stable, deterministic ID for a callable from
// its file and qualified name. The ID is a sha256 hash truncated to 8
// hex characters, prefixed with "cd-".
func GenerateID(file, qualifiedName string) string {
	input := fmt.Sprintf("%s:%s", file, qualifiedName)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("cd-%x", hash[:4])
}
