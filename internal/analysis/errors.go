package analysis

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParseError reports a syntactically malformed source unit.
type ParseError struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Reason string `json:"reason"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Reason)
}

// newParseError locates the first error or missing node under root.
func newParseError(path string, root *sitter.Node) *ParseError {
	bad := firstError(root)
	if bad == nil {
		return &ParseError{Path: path, Line: 1, Column: 1, Reason: "syntax error"}
	}
	reason := "syntax error"
	if bad.IsMissing() {
		reason = fmt.Sprintf("missing %q", bad.Type())
	}
	p := bad.StartPoint()
	return &ParseError{Path: path, Line: int(p.Row) + 1, Column: int(p.Column) + 1, Reason: reason}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
