package taxonomy

import (
	"strconv"
	"strings"
)

// ResolveHint maps a Python annotation to a TypeInfo. Unknown names
// resolve to KindUnresolved carrying the name.
func ResolveHint(hint string) TypeInfo {
	hint = strings.TrimSpace(hint)
	hint = strings.Trim(hint, `"'`)
	if hint == "" {
		return TypeInfo{Kind: KindUnannotated}
	}

	if inner, ok := unwrap(hint, "Optional"); ok {
		ti := ResolveHint(inner)
		ti.Optional = true
		return ti
	}
	if inner, ok := unwrap(hint, "Union"); ok {
		return resolveUnion(splitTopLevel(inner, ','))
	}
	if parts := splitTopLevel(hint, '|'); len(parts) > 1 {
		return resolveUnion(parts)
	}

	base := hint
	if i := strings.IndexByte(base, '['); i >= 0 {
		base = base[:i]
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[i+1:]
	}
	ti, ok := hintMap[base]
	if !ok {
		return TypeInfo{Kind: KindUnresolved, Name: base}
	}
	return ti
}

// LiteralType infers a TypeInfo from a default value's source text.
func LiteralType(text string) TypeInfo {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return TypeInfo{Kind: KindUnannotated}
	case text == "True" || text == "False":
		return TypeInfo{Kind: KindBoolean, Name: "bool"}
	case text == "None":
		return TypeInfo{Kind: KindUnannotated, Optional: true}
	case strings.HasPrefix(text, "["):
		return TypeInfo{Kind: KindCollection, Name: "list"}
	case strings.HasPrefix(text, "("):
		return TypeInfo{Kind: KindCollection, Name: "tuple"}
	case text == "{}" || strings.HasPrefix(text, "{") && strings.Contains(text, ":"):
		return TypeInfo{Kind: KindCollection, Name: "dict"}
	case strings.HasPrefix(text, "{"):
		return TypeInfo{Kind: KindCollection, Name: "set"}
	case isStringLiteral(text):
		return TypeInfo{Kind: KindString, Name: "str"}
	}
	if _, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64); err == nil {
		return TypeInfo{Kind: KindNumeric, Name: "int"}
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
		return TypeInfo{Kind: KindNumeric, Name: "float"}
	}
	return TypeInfo{Kind: KindUnannotated}
}

var hintMap = map[string]TypeInfo{
	// numeric
	"int":     {Kind: KindNumeric, Name: "int"},
	"float":   {Kind: KindNumeric, Name: "float"},
	"Decimal": {Kind: KindNumeric, Name: "float"},

	// string
	"str":   {Kind: KindString, Name: "str"},
	"bytes": {Kind: KindString, Name: "bytes"},

	"bool": {Kind: KindBoolean, Name: "bool"},

	// collection
	"list":     {Kind: KindCollection, Name: "list"},
	"List":     {Kind: KindCollection, Name: "list"},
	"Sequence": {Kind: KindCollection, Name: "list"},
	"Iterable": {Kind: KindCollection, Name: "list"},
	"dict":     {Kind: KindCollection, Name: "dict"},
	"Dict":     {Kind: KindCollection, Name: "dict"},
	"Mapping":  {Kind: KindCollection, Name: "dict"},
	"set":      {Kind: KindCollection, Name: "set"},
	"Set":      {Kind: KindCollection, Name: "set"},
	"tuple":    {Kind: KindCollection, Name: "tuple"},
	"Tuple":    {Kind: KindCollection, Name: "tuple"},

	"None": {Kind: KindNone, Name: "None"},

	// no usable information
	"Any":    {Kind: KindUnannotated},
	"object": {Kind: KindUnannotated},
}

func resolveUnion(parts []string) TypeInfo {
	optional := false
	var rest []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "None" {
			optional = true
			continue
		}
		rest = append(rest, p)
	}
	if len(rest) == 0 {
		return TypeInfo{Kind: KindNone, Name: "None"}
	}
	// The first member drives synthesis.
	ti := ResolveHint(rest[0])
	ti.Optional = ti.Optional || optional
	return ti
}

func unwrap(hint, name string) (string, bool) {
	for _, prefix := range []string{name + "[", "typing." + name + "["} {
		if strings.HasPrefix(hint, prefix) && strings.HasSuffix(hint, "]") {
			return hint[len(prefix) : len(hint)-1], true
		}
	}
	return "", false
}

// splitTopLevel splits s on sep outside of brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

func isStringLiteral(text string) bool {
	t := strings.TrimLeft(text, "rbuRBUfF")
	return len(t) >= 2 && (t[0] == '"' || t[0] == '\'') && t[len(t)-1] == t[0]
}
