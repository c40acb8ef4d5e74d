package analysis

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// parameters extracts the declared parameters in order, skipping the
// first implicit ones (self or cls).
func parameters(list *sitter.Node, src []byte, implicit int) []taxonomy.Parameter {
	if list == nil {
		return nil
	}

	var params []taxonomy.Parameter
	kind := taxonomy.ParamPositional
	for i := 0; i < int(list.NamedChildCount()); i++ {
		node := list.NamedChild(i)
		switch node.Type() {
		case "positional_separator":
			// Everything declared so far is positional-only.
			for j := range params {
				if params[j].Kind == taxonomy.ParamPositional {
					params[j].Kind = taxonomy.ParamPositionalOnly
				}
			}
			continue
		case "keyword_separator":
			kind = taxonomy.ParamKeywordOnly
			continue
		case "comment":
			continue
		}

		p, ok := parameter(node, src, kind)
		if !ok {
			continue
		}
		if p.Kind == taxonomy.ParamVarPositional {
			kind = taxonomy.ParamKeywordOnly
		}
		params = append(params, p)
	}

	if implicit > len(params) {
		implicit = len(params)
	}
	return params[implicit:]
}

// parameter decodes one parameter node. kind is the binding kind
// implied by its position.
func parameter(node *sitter.Node, src []byte, kind taxonomy.ParamKind) (taxonomy.Parameter, bool) {
	p := taxonomy.Parameter{Kind: kind}

	switch node.Type() {
	case "identifier":
		p.Name = content(node, src)
	case "typed_parameter":
		inner := node.NamedChild(0)
		if inner == nil {
			return p, false
		}
		p.Hint = content(node.ChildByFieldName("type"), src)
		switch inner.Type() {
		case "list_splat_pattern":
			p.Name = splatName(inner, src)
			p.Kind = taxonomy.ParamVarPositional
		case "dictionary_splat_pattern":
			p.Name = splatName(inner, src)
			p.Kind = taxonomy.ParamVarKeyword
		default:
			p.Name = content(inner, src)
		}
	case "default_parameter":
		p.Name = content(node.ChildByFieldName("name"), src)
		p.Default = content(node.ChildByFieldName("value"), src)
		p.HasDefault = true
	case "typed_default_parameter":
		p.Name = content(node.ChildByFieldName("name"), src)
		p.Hint = content(node.ChildByFieldName("type"), src)
		p.Default = content(node.ChildByFieldName("value"), src)
		p.HasDefault = true
	case "list_splat_pattern":
		p.Name = splatName(node, src)
		p.Kind = taxonomy.ParamVarPositional
	case "dictionary_splat_pattern":
		p.Name = splatName(node, src)
		p.Kind = taxonomy.ParamVarKeyword
	default:
		return p, false
	}
	if p.Name == "" {
		return p, false
	}

	p.Type = taxonomy.ResolveHint(p.Hint)
	if p.Hint == "" && p.HasDefault {
		p.Type = taxonomy.LiteralType(p.Default)
	}
	if p.Default == "None" {
		p.Type.Optional = true
	}
	return p, true
}

func splatName(node *sitter.Node, src []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "identifier" {
			return content(child, src)
		}
	}
	return ""
}
