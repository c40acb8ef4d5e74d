// Package classify decides which success assertion a generated test
// makes about a callable's result, using weighted confidence scoring
// over the return hint, the docstring, and the callable's name.
package classify

import (
	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// Options configures the classification engine.
type Options struct {
	// Config is the testgen configuration. If nil, defaults are used.
	Config *config.TestgenConfig
}

// Classify returns the success assertion for a callable.
//
// Constructors assert the instance type. Callables whose body never
// returns a value assert None. Otherwise signals are scored and the
// score picks between a type check, a not-None check, and a plain
// call that only has to complete.
func Classify(d *taxonomy.CallableDescriptor, opts Options) taxonomy.Classification {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}

	if d.IsConstructor {
		return taxonomy.Classification{
			Outcome:    taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsType, Type: lastSegment(d.Class)},
			Confidence: 100,
			Signals:    []taxonomy.Signal{},
			Reasoning:  "constructor returns an instance of its class",
		}
	}
	if !d.ReturnsValue || d.ReturnType.Kind == taxonomy.KindNone {
		return taxonomy.Classification{
			Outcome:    taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsNone},
			Confidence: 100,
			Signals:    []taxonomy.Signal{},
			Reasoning:  "body never returns a value",
		}
	}

	signals := []taxonomy.Signal{
		AnalyzeReturnHintSignal(d.ReturnType),
		AnalyzeDocstringSignal(d.Docstring),
		AnalyzeNamingSignal(d.Name),
	}
	return ComputeScore(signals, typeName(d.ReturnType), opts.Config)
}

// typeName returns the isinstance target for a return type, or ""
// when no builtin type can be asserted.
func typeName(t taxonomy.TypeInfo) string {
	if t.Optional {
		return ""
	}
	switch t.Kind {
	case taxonomy.KindNumeric:
		if t.Name == "float" {
			// Python functions annotated float routinely return ints.
			return "(int, float)"
		}
		return t.Name
	case taxonomy.KindString, taxonomy.KindBoolean, taxonomy.KindCollection:
		return t.Name
	}
	return ""
}

func lastSegment(dotted string) string {
	for i := len(dotted) - 1; i >= 0; i-- {
		if dotted[i] == '.' {
			return dotted[i+1:]
		}
	}
	return dotted
}
