package classify

import (
	"strings"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// returnKeywords declare a result in a docstring.
var returnKeywords = []string{"return", "returns:", ":return", ":rtype", "yields"}

// noneKeywords declare the absence of a result.
var noneKeywords = []string{"returns none", "return none", "returns nothing", "does not return"}

// maxDocstringWeight is the maximum weight for docstring signals.
const maxDocstringWeight = 15

// AnalyzeDocstringSignal looks for result declarations in a docstring.
func AnalyzeDocstringSignal(doc string) taxonomy.Signal {
	if doc == "" {
		return taxonomy.Signal{}
	}
	text := strings.ToLower(doc)

	for _, kw := range noneKeywords {
		if strings.Contains(text, kw) {
			return taxonomy.Signal{
				Source:    "docstring",
				Weight:    -maxDocstringWeight,
				Reasoning: "docstring contains \"" + kw + "\"",
			}
		}
	}
	for _, kw := range returnKeywords {
		if strings.Contains(text, kw) {
			return taxonomy.Signal{
				Source:    "docstring",
				Weight:    maxDocstringWeight,
				Reasoning: "docstring contains \"" + kw + "\" declaring a result",
			}
		}
	}
	return taxonomy.Signal{}
}

// maxHintWeight is the weight of a concrete return annotation.
const maxHintWeight = 30

// optionalHintPenalty applies when the annotation admits None.
const optionalHintPenalty = 20

// AnalyzeReturnHintSignal scores the return annotation.
func AnalyzeReturnHintSignal(t taxonomy.TypeInfo) taxonomy.Signal {
	switch {
	case t.Kind == taxonomy.KindUnannotated:
		return taxonomy.Signal{}
	case t.Optional:
		return taxonomy.Signal{
			Source:    "return_hint",
			Weight:    -optionalHintPenalty,
			Reasoning: "return annotation admits None",
		}
	case t.Kind == taxonomy.KindUnresolved:
		return taxonomy.Signal{
			Source:    "return_hint",
			Weight:    maxHintWeight / 2,
			Reasoning: "return annotation names class " + t.Name,
		}
	}
	return taxonomy.Signal{
		Source:    "return_hint",
		Weight:    maxHintWeight,
		Reasoning: "return annotation is " + t.Name,
	}
}
