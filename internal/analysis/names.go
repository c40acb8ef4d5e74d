package analysis

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// moduleNames is the set of names bound at module scope: definitions,
// imports and assignments. Anything importable from the module by name
// is in it, barring names introduced through a star import.
type moduleNames struct {
	bound map[string]bool
	star  bool
}

// collectNames gathers the module-scope names of a parsed module.
// Conditional and try blocks at module level are included.
func collectNames(root *sitter.Node, src []byte) moduleNames {
	n := moduleNames{bound: make(map[string]bool)}
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "function_definition", "class_definition":
			if name := node.ChildByFieldName("name"); name != nil {
				n.bound[content(name, src)] = true
			}
			return
		case "lambda":
			return
		case "import_statement":
			for i := 0; i < int(node.NamedChildCount()); i++ {
				n.bindImport(node.NamedChild(i), src, true)
			}
			return
		case "import_from_statement":
			module := node.ChildByFieldName("module_name")
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if module != nil && child.StartByte() == module.StartByte() {
					continue
				}
				if child.Type() == "wildcard_import" {
					n.star = true
					continue
				}
				n.bindImport(child, src, false)
			}
			return
		case "assignment":
			n.bindTarget(node.ChildByFieldName("left"), src)
			return
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(root)
	return n
}

// bindImport records the local name an import clause binds. A plain
// "import a.b" binds only "a".
func (n moduleNames) bindImport(node *sitter.Node, src []byte, plain bool) {
	switch node.Type() {
	case "aliased_import":
		if alias := node.ChildByFieldName("alias"); alias != nil {
			n.bound[content(alias, src)] = true
		}
	case "dotted_name":
		name := content(node, src)
		if plain {
			name = strings.SplitN(name, ".", 2)[0]
		}
		n.bound[name] = true
	}
}

func (n moduleNames) bindTarget(node *sitter.Node, src []byte) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "identifier":
		n.bound[content(node, src)] = true
	case "pattern_list", "tuple_pattern", "list_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			n.bindTarget(node.NamedChild(i), src)
		}
	}
}

// exception returns the name a test module can import the raised
// exception under. Exceptions reached through a local, a parameter or
// an attribute of self or cls have no importable name and widen to
// Exception, which pytest.raises matches for every subclass.
func (n moduleNames) exception(raised string) string {
	if raised == "" || taxonomy.IsBuiltinException(raised) {
		return raised
	}
	root := strings.SplitN(raised, ".", 2)[0]
	if n.bound[root] {
		return raised
	}
	if n.star && root != "" && root != "self" && root != "cls" && unicode.IsUpper([]rune(root)[0]) {
		return raised
	}
	return "Exception"
}
