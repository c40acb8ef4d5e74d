package analysis

import sitter "github.com/smacker/go-tree-sitter"

// decisionNodes are the syntax nodes that add a path through a
// Python function body.
var decisionNodes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
	"conditional_expression": true,
	"boolean_operator":       true,
	"if_clause":              true,
	"case_clause":            true,
}

// complexity returns the cyclomatic complexity of a function body:
// one plus the number of decision points, nested functions included.
func complexity(body *sitter.Node) int {
	n := 1
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if decisionNodes[node.Type()] {
			n++
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(body)
	return n
}

// returnsValue reports whether a body returns a value or yields,
// ignoring nested function and class bodies.
func returnsValue(body *sitter.Node) bool {
	var walk func(node *sitter.Node) bool
	walk = func(node *sitter.Node) bool {
		switch node.Type() {
		case "function_definition", "class_definition", "lambda":
			return false
		case "yield":
			return true
		case "return_statement":
			if node.NamedChildCount() > 0 {
				return true
			}
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if walk(node.NamedChild(i)) {
				return true
			}
		}
		return false
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if walk(body.NamedChild(i)) {
			return true
		}
	}
	return false
}
