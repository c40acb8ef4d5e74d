package analysis

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// conditions scans a function body for if/elif conditions over the
// given parameters. A condition whose block starts with a raise is a
// guard; any other recognized condition is a branch. Nested function
// and class bodies are not scanned.
func conditions(body *sitter.Node, src []byte, params map[string]bool) (guards, branches []taxonomy.Guard) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition", "class_definition", "lambda":
			return
		case "if_statement", "elif_clause":
			cond := n.ChildByFieldName("condition")
			block := n.ChildByFieldName("consequence")
			if cond != nil && block != nil {
				found := recognize(cond, src, params)
				exc := raisedException(block, src)
				for i := range found {
					found[i].Line = int(cond.StartPoint().Row) + 1
					found[i].BodyStart = int(block.StartPoint().Row) + 1
					found[i].BodyEnd = int(block.EndPoint().Row) + 1
					found[i].Exception = exc
				}
				if exc != "" {
					guards = append(guards, found...)
				} else {
					branches = append(branches, found...)
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		walk(body.NamedChild(i))
	}
	return guards, branches
}

// raisedException returns the exception type raised by the first
// statement of block, or "" when it is not a raise.
func raisedException(block *sitter.Node, src []byte) string {
	stmt := firstStatement(block)
	if stmt == nil || stmt.Type() != "raise_statement" {
		return ""
	}
	expr := stmt.NamedChild(0)
	if expr == nil {
		return ""
	}
	if expr.Type() == "call" {
		expr = expr.ChildByFieldName("function")
	}
	if expr == nil {
		return ""
	}
	switch expr.Type() {
	case "identifier", "attribute":
		return content(expr, src)
	}
	return ""
}

// recognize maps a condition to guards. Unrecognized shapes yield nil.
func recognize(cond *sitter.Node, src []byte, params map[string]bool) []taxonomy.Guard {
	cond = unparen(cond)
	if cond == nil {
		return nil
	}
	switch cond.Type() {
	case "identifier":
		if name := content(cond, src); params[name] {
			return []taxonomy.Guard{{Parameter: name, Measure: taxonomy.MeasureValue, Operator: taxonomy.OpTruthy}}
		}
	case "not_operator":
		arg := unparen(cond.ChildByFieldName("argument"))
		if arg == nil {
			return nil
		}
		if arg.Type() == "identifier" && params[content(arg, src)] {
			return []taxonomy.Guard{{Parameter: content(arg, src), Measure: taxonomy.MeasureValue, Operator: taxonomy.OpFalsy}}
		}
		if name, ok := lenOf(arg, src, params); ok {
			return []taxonomy.Guard{{Parameter: name, Measure: taxonomy.MeasureLen, Operator: taxonomy.OpFalsy}}
		}
	case "boolean_operator":
		op := content(cond.ChildByFieldName("operator"), src)
		if op != "or" {
			return nil
		}
		left := recognize(cond.ChildByFieldName("left"), src, params)
		right := recognize(cond.ChildByFieldName("right"), src, params)
		return append(left, right...)
	case "comparison_operator":
		if g, ok := comparison(cond, src, params); ok {
			return []taxonomy.Guard{g}
		}
	}
	return nil
}

// comparison recognizes a two-operand comparison between a parameter
// (or len of a parameter) and a literal, in either order.
func comparison(cond *sitter.Node, src []byte, params map[string]bool) (taxonomy.Guard, bool) {
	if cond.NamedChildCount() != 2 {
		return taxonomy.Guard{}, false
	}
	var opParts []string
	for i := 0; i < int(cond.ChildCount()); i++ {
		if child := cond.Child(i); !child.IsNamed() {
			opParts = append(opParts, content(child, src))
		}
	}
	op := strings.Join(strings.Fields(strings.Join(opParts, " ")), " ")
	left := unparen(cond.NamedChild(0))
	right := unparen(cond.NamedChild(1))

	if op == "is" || op == "is not" {
		subject := left
		if left.Type() == "none" {
			subject = right
		} else if right.Type() != "none" {
			return taxonomy.Guard{}, false
		}
		if subject.Type() != "identifier" || !params[content(subject, src)] {
			return taxonomy.Guard{}, false
		}
		gop := taxonomy.OpIsNone
		if op == "is not" {
			gop = taxonomy.OpIsNotNone
		}
		return taxonomy.Guard{Parameter: content(subject, src), Measure: taxonomy.MeasureValue, Operator: gop}, true
	}

	gop := taxonomy.GuardOp(op)
	if !gop.Compares() {
		return taxonomy.Guard{}, false
	}

	if g, ok := subjectVsLiteral(left, right, gop, src, params); ok {
		return g, true
	}
	return subjectVsLiteral(right, left, gop.Flip(), src, params)
}

func subjectVsLiteral(subject, other *sitter.Node, op taxonomy.GuardOp, src []byte, params map[string]bool) (taxonomy.Guard, bool) {
	lit, ok := literal(other, src)
	if !ok {
		return taxonomy.Guard{}, false
	}
	if subject.Type() == "identifier" && params[content(subject, src)] {
		return taxonomy.Guard{Parameter: content(subject, src), Measure: taxonomy.MeasureValue, Operator: op, Threshold: lit}, true
	}
	if name, ok := lenOf(subject, src, params); ok && lit.Kind == taxonomy.KindNumeric && !lit.IsFloat {
		return taxonomy.Guard{Parameter: name, Measure: taxonomy.MeasureLen, Operator: op, Threshold: lit}, true
	}
	return taxonomy.Guard{}, false
}

// lenOf matches len(param).
func lenOf(n *sitter.Node, src []byte, params map[string]bool) (string, bool) {
	if n == nil || n.Type() != "call" || content(n.ChildByFieldName("function"), src) != "len" {
		return "", false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() != 1 {
		return "", false
	}
	arg := args.NamedChild(0)
	if arg.Type() != "identifier" || !params[content(arg, src)] {
		return "", false
	}
	return content(arg, src), true
}

// literal decodes a numeric, string, or boolean constant.
func literal(n *sitter.Node, src []byte) (*taxonomy.Literal, bool) {
	if n == nil {
		return nil, false
	}
	text := content(n, src)
	switch n.Type() {
	case "integer":
		v, err := parseInt(text)
		if err != nil {
			return nil, false
		}
		return &taxonomy.Literal{Kind: taxonomy.KindNumeric, Text: text, Number: v}, true
	case "float":
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return nil, false
		}
		return &taxonomy.Literal{Kind: taxonomy.KindNumeric, Text: text, Number: v, IsFloat: true}, true
	case "true":
		return &taxonomy.Literal{Kind: taxonomy.KindBoolean, Text: text, Number: 1}, true
	case "false":
		return &taxonomy.Literal{Kind: taxonomy.KindBoolean, Text: text, Number: 0}, true
	case "string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "interpolation" {
				return nil, false
			}
		}
		return &taxonomy.Literal{Kind: taxonomy.KindString, Text: text}, true
	case "unary_operator":
		if content(n.ChildByFieldName("operator"), src) != "-" {
			return nil, false
		}
		inner, ok := literal(n.ChildByFieldName("argument"), src)
		if !ok || inner.Kind != taxonomy.KindNumeric {
			return nil, false
		}
		return &taxonomy.Literal{Kind: taxonomy.KindNumeric, Text: "-" + inner.Text, Number: -inner.Number, IsFloat: inner.IsFloat}, true
	}
	return nil, false
}

func parseInt(text string) (float64, error) {
	v, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
	return float64(v), err
}

func unparen(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" && n.NamedChildCount() == 1 {
		n = n.NamedChild(0)
	}
	return n
}
