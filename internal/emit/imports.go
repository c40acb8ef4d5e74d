package emit

import (
	"sort"
	"strings"
)

// importSet collects plain imports and from-imports.
type importSet struct {
	plain map[string]bool
	names map[string]map[string]bool
}

func newImportSet() *importSet {
	return &importSet{plain: make(map[string]bool), names: make(map[string]map[string]bool)}
}

func (s *importSet) add(stmt string) {
	s.plain[stmt] = true
}

// from records "from module import name", aliased when local differs
// from name.
func (s *importSet) from(module, name, local string) {
	if s.names[module] == nil {
		s.names[module] = make(map[string]bool)
	}
	if local != "" && local != name {
		name += " as " + local
	}
	s.names[module][name] = true
}

// write renders plain imports, a blank line, then from-imports, each
// sorted.
func (s *importSet) write(b *strings.Builder) {
	for _, stmt := range sortedKeys(s.plain) {
		b.WriteString(stmt + "\n")
	}
	if len(s.names) == 0 {
		return
	}
	if len(s.plain) > 0 {
		b.WriteString("\n")
	}
	for _, module := range sortedKeys(s.names) {
		names := make([]string, 0, len(s.names[module]))
		for n := range s.names[module] {
			names = append(names, n)
		}
		sort.Strings(names)
		b.WriteString("from " + module + " import " + strings.Join(names, ", ") + "\n")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// probeHelper records the repr of simple results for the feedback
// loop.
const probeHelper = `def _testgen_observe(name, value):
    import json
    import math
    import os

    path = os.environ.get("` + ObserveEnv + `")
    if not path:
        return
    if value is not None and type(value) not in (bool, int, float, str):
        return
    if isinstance(value, float) and not math.isfinite(value):
        return
    text = repr(value)
    if len(text) > 200:
        return
    with open(path, "w") as fh:
        json.dump({"name": name, "repr": text}, fh)
`
