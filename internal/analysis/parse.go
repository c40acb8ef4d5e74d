package analysis

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/unbound-force/testgen/internal/loader"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// moduleModel is the parsed content of one source unit. Everything is
// copied out of the syntax tree so the tree can be closed.
type moduleModel struct {
	unit    loader.SourceUnit
	entries []entry
}

// entry is a module-level function or class, in source order.
type entry struct {
	function *taxonomy.CallableDescriptor
	class    *classModel
}

type classModel struct {
	module string
	file   string

	// name is dotted for nested classes ("Outer.Inner").
	name  string
	bases []string

	// methods holds the descriptors of every method defined in the
	// class body, private ones included. defined also records
	// properties and other members that shadow inherited methods.
	methods []taxonomy.CallableDescriptor
	defined map[string]bool
	nested  []*classModel
}

// flatten returns the class followed by its nested classes, depth first.
func (c *classModel) flatten() []*classModel {
	out := []*classModel{c}
	for _, n := range c.nested {
		out = append(out, n.flatten()...)
	}
	return out
}

// parseUnit parses one source unit. It returns a *ParseError when the
// source is syntactically malformed.
func parseUnit(ctx context.Context, unit loader.SourceUnit) (*moduleModel, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, unit.Content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{Path: unit.Path, Line: 1, Column: 1, Reason: "empty syntax tree"}
	}
	if root.HasError() {
		return nil, newParseError(unit.Path, root)
	}

	b := &builder{unit: unit, src: unit.Content, names: collectNames(root, unit.Content)}
	mod := &moduleModel{unit: unit}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		def, decorators := unwrapDecorated(node, b.src)
		switch def.Type() {
		case "function_definition":
			d := b.callable(def, decorators, nil)
			mod.entries = append(mod.entries, entry{function: &d})
		case "class_definition":
			mod.entries = append(mod.entries, entry{class: b.class(def, "")})
		}
	}
	return mod, nil
}

type builder struct {
	unit  loader.SourceUnit
	src   []byte
	names moduleNames
}

// class builds the model of a class_definition. outer is the dotted
// name of the enclosing class for nested classes.
func (b *builder) class(node *sitter.Node, outer string) *classModel {
	name := content(node.ChildByFieldName("name"), b.src)
	if outer != "" {
		name = outer + "." + name
	}
	c := &classModel{
		module:  b.unit.Module,
		file:    b.unit.Path,
		name:    name,
		bases:   superclasses(node.ChildByFieldName("superclasses"), b.src),
		defined: make(map[string]bool),
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return c
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		def, decorators := unwrapDecorated(body.NamedChild(i), b.src)
		switch def.Type() {
		case "function_definition":
			method := content(def.ChildByFieldName("name"), b.src)
			c.defined[method] = true
			if isProperty(decorators) {
				continue
			}
			c.methods = append(c.methods, b.callable(def, decorators, c))
		case "class_definition":
			c.nested = append(c.nested, b.class(def, name))
		case "expression_statement":
			// Class attributes such as "handler = other_function" shadow
			// inherited methods of the same name.
			if a := def.NamedChild(0); a != nil && a.Type() == "assignment" {
				if left := a.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
					c.defined[content(left, b.src)] = true
				}
			}
		}
	}
	return c
}

// callable builds the descriptor of a function_definition. owner is
// nil for module-level functions.
func (b *builder) callable(node *sitter.Node, decorators []string, owner *classModel) taxonomy.CallableDescriptor {
	name := content(node.ChildByFieldName("name"), b.src)
	d := taxonomy.CallableDescriptor{
		Module:     b.unit.Module,
		File:       b.unit.Path,
		Name:       name,
		Decorators: decorators,
		IsAsync:    isAsync(node),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
	}

	implicit := 0
	if owner != nil {
		d.Class = owner.name
		switch {
		case hasDecorator(decorators, "staticmethod"):
			d.IsStatic = true
		case hasDecorator(decorators, "classmethod"):
			d.IsStatic = true
			implicit = 1
		default:
			d.IsMethod = true
			implicit = 1
		}
		d.IsConstructor = name == "__init__"
		if d.IsConstructor {
			d.IsMethod = false
		}
	}

	d.Params = parameters(node.ChildByFieldName("parameters"), b.src, implicit)

	if rt := node.ChildByFieldName("return_type"); rt != nil {
		d.ReturnHint = content(rt, b.src)
		d.ReturnType = taxonomy.ResolveHint(d.ReturnHint)
	} else {
		d.ReturnType = taxonomy.TypeInfo{Kind: taxonomy.KindUnannotated}
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		d.Docstring = docstring(body, b.src)
		names := make(map[string]bool, len(d.Params))
		for _, p := range d.Params {
			if !p.IsVariadic() {
				names[p.Name] = true
			}
		}
		d.Guards, d.Branches = conditions(body, b.src, names)
		for i := range d.Guards {
			d.Guards[i].Exception = b.names.exception(d.Guards[i].Exception)
		}
		d.Complexity = complexity(body)
		d.ReturnsValue = returnsValue(body)
	} else {
		d.Complexity = 1
	}

	d.QualifiedName = qualify(d.Module, d.Class, d.Name)
	d.ID = taxonomy.GenerateID(d.File, d.QualifiedName)
	return d
}

func qualify(module, class, name string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{module, class, name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// unwrapDecorated returns the definition inside a decorated_definition
// together with its decorator names. Other nodes are returned as is.
func unwrapDecorated(node *sitter.Node, src []byte) (*sitter.Node, []string) {
	if node.Type() != "decorated_definition" {
		return node, nil
	}
	var decorators []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		expr := child.NamedChild(0)
		if expr == nil {
			continue
		}
		if expr.Type() == "call" {
			expr = expr.ChildByFieldName("function")
		}
		decorators = append(decorators, content(expr, src))
	}
	def := node.ChildByFieldName("definition")
	if def == nil {
		return node, decorators
	}
	return def, decorators
}

func hasDecorator(decorators []string, name string) bool {
	for _, d := range decorators {
		if d == name {
			return true
		}
	}
	return false
}

// isProperty reports whether the member is accessed as an attribute
// rather than called.
func isProperty(decorators []string) bool {
	for _, d := range decorators {
		if d == "property" || d == "cached_property" || d == "functools.cached_property" ||
			strings.HasSuffix(d, ".setter") || strings.HasSuffix(d, ".getter") || strings.HasSuffix(d, ".deleter") {
			return true
		}
	}
	return false
}

func isAsync(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "async":
			return true
		case "def":
			return false
		}
	}
	return false
}

// superclasses returns the simple names of the listed base classes.
func superclasses(args *sitter.Node, src []byte) []string {
	if args == nil {
		return nil
	}
	var bases []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "subscript" {
			arg = arg.ChildByFieldName("value")
		}
		if arg == nil {
			continue
		}
		switch arg.Type() {
		case "identifier":
			if name := content(arg, src); name != "object" {
				bases = append(bases, name)
			}
		case "attribute":
			bases = append(bases, content(arg.ChildByFieldName("attribute"), src))
		}
	}
	return bases
}

// docstring returns the text of a leading string statement in body.
func docstring(body *sitter.Node, src []byte) string {
	first := firstStatement(body)
	if first == nil || first.Type() != "expression_statement" {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Type() != "string" {
		return ""
	}
	raw := strings.TrimLeft(content(str, src), "rRuUbB")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			raw = raw[len(q) : len(raw)-len(q)]
			break
		}
	}
	return strings.TrimSpace(raw)
}

// firstStatement returns the first named child of a block that is not
// a comment.
func firstStatement(block *sitter.Node) *sitter.Node {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

func content(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(src)
}
