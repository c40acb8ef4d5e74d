package synth

import (
	"math"
	"strconv"
	"strings"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Sample values used when nothing constrains a parameter.
const (
	typicalInt    = 42
	typicalFloat  = 3.14
	sentinelInt   = 2147483647
	sentinelFloat = 1e9
	typicalString = "sample"
)

func numberValue(v float64, float bool) taxonomy.ValueSpec {
	return taxonomy.ValueSpec{
		Literal: formatNumber(v, float),
		Kind:    taxonomy.KindNumeric,
		Number:  v,
		Numeric: true,
		Truthy:  v != 0,
	}
}

// formatNumber renders v as a Python int or float literal.
func formatNumber(v float64, float bool) string {
	if !float && v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func boolValue(b bool) taxonomy.ValueSpec {
	v := taxonomy.ValueSpec{Literal: "False", Kind: taxonomy.KindBoolean, Numeric: true}
	if b {
		v.Literal = "True"
		v.Number = 1
		v.Truthy = true
	}
	return v
}

func stringValue(s string) taxonomy.ValueSpec {
	return taxonomy.ValueSpec{
		Literal: quote(s),
		Kind:    taxonomy.KindString,
		Length:  len(s),
		Truthy:  s != "",
	}
}

// textValue is stringValue for str and bytes parameters.
func textValue(t taxonomy.TypeInfo, s string) taxonomy.ValueSpec {
	v := stringValue(s)
	if t.Name == "bytes" {
		v.Literal = "b" + v.Literal
	}
	return v
}

func noneValue() taxonomy.ValueSpec {
	return taxonomy.ValueSpec{Literal: "None", Kind: taxonomy.KindNone, IsNone: true}
}

// collectionValue builds a collection of the named type holding n
// elements. Names other than dict, set and tuple produce a list.
func collectionValue(name string, n int) taxonomy.ValueSpec {
	v := taxonomy.ValueSpec{Kind: taxonomy.KindCollection, Length: n, Truthy: n > 0}
	items := make([]string, n)
	for i := range items {
		switch name {
		case "dict":
			items[i] = quote("k"+strconv.Itoa(i)) + ": " + strconv.Itoa(i)
		default:
			items[i] = strconv.Itoa(i + 1)
		}
	}
	body := strings.Join(items, ", ")
	switch name {
	case "dict":
		v.Literal = "{" + body + "}"
		if n == 1 {
			v.Literal = `{"key": "value"}`
		}
	case "set":
		v.Literal = "{" + body + "}"
		if n == 0 {
			v.Literal = "set()"
		}
	case "tuple":
		if n == 1 {
			body += ","
		}
		v.Literal = "(" + body + ")"
	default:
		v.Literal = "[" + body + "]"
	}
	return v
}

// typicalCollection is the representative non-empty collection.
func typicalCollection(name string) taxonomy.ValueSpec {
	if name == "dict" {
		return collectionValue(name, 1)
	}
	return collectionValue(name, 3)
}

// sized returns a value of type t with the given length, or false when
// the type has no length.
func sized(t taxonomy.TypeInfo, n int) (taxonomy.ValueSpec, bool) {
	if n < 0 {
		return taxonomy.ValueSpec{}, false
	}
	switch t.Kind {
	case taxonomy.KindCollection:
		return collectionValue(t.Name, n), true
	case taxonomy.KindString, taxonomy.KindUnannotated, taxonomy.KindUnresolved:
		return textValue(t, strings.Repeat("a", n)), true
	}
	return taxonomy.ValueSpec{}, false
}

// typical returns the representative value of t. ok is false when the
// type carries too little information and the placeholder was used.
func typical(t taxonomy.TypeInfo) (v taxonomy.ValueSpec, ok bool) {
	switch t.Kind {
	case taxonomy.KindNumeric:
		if t.Name == "float" {
			return numberValue(typicalFloat, true), true
		}
		return numberValue(typicalInt, false), true
	case taxonomy.KindString:
		return textValue(t, typicalString), true
	case taxonomy.KindBoolean:
		return boolValue(true), true
	case taxonomy.KindCollection:
		return typicalCollection(t.Name), true
	case taxonomy.KindNone:
		return noneValue(), true
	}
	return noneValue(), false
}

// empty returns the falsy value of t.
func empty(t taxonomy.TypeInfo) taxonomy.ValueSpec {
	switch t.Kind {
	case taxonomy.KindNumeric:
		return numberValue(0, t.Name == "float")
	case taxonomy.KindString:
		return textValue(t, "")
	case taxonomy.KindBoolean:
		return boolValue(false)
	case taxonomy.KindCollection:
		return collectionValue(t.Name, 0)
	}
	return noneValue()
}

// present returns a truthy, non-None value of t, falling back to a
// string for types without a typical value.
func present(t taxonomy.TypeInfo) taxonomy.ValueSpec {
	if v, ok := typical(t); ok && !v.IsNone {
		return v
	}
	return stringValue(typicalString)
}

// quote renders s as a double-quoted Python string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// unquote decodes a simple Python string literal. Prefixes and escape
// sequences other than \" and \\ are kept as written.
func unquote(lit string) string {
	s := strings.TrimLeft(lit, "rRuUbBfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			s = s[len(q) : len(s)-len(q)]
			break
		}
	}
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\'`, `'`)
	return strings.ReplaceAll(s, `\\`, `\`)
}
