package classify

import (
	"strings"

	"github.com/unbound-force/testgen/internal/taxonomy"
)

// valuePrefixes are name prefixes of callables whose result is their
// purpose.
var valuePrefixes = []string{
	"get_", "compute_", "calculate_", "calc_", "build_", "make_",
	"create_", "parse_", "find_", "load_", "fetch_", "read_",
	"to_", "as_", "is_", "has_", "can_", "count_", "format_",
	"render_", "convert_", "generate_",
}

// sideEffectPrefixes are name prefixes of callables run for their
// effect rather than their result.
var sideEffectPrefixes = []string{
	"log_", "print_", "debug_", "trace_", "notify_", "emit_",
	"send_", "set_", "save_", "write_", "delete_", "handle_", "run_",
}

// maxNamingWeight is the maximum weight for naming convention signals.
const maxNamingWeight = 10

// AnalyzeNamingSignal checks the callable name against Python naming
// conventions.
func AnalyzeNamingSignal(name string) taxonomy.Signal {
	lower := strings.ToLower(strings.TrimLeft(name, "_"))

	for _, prefix := range sideEffectPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return taxonomy.Signal{
				Source:    "naming",
				Weight:    -maxNamingWeight,
				Reasoning: "name prefix " + prefix + "* suggests the call is made for its effect",
			}
		}
	}
	for _, prefix := range valuePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return taxonomy.Signal{
				Source:    "naming",
				Weight:    maxNamingWeight,
				Reasoning: "name prefix " + prefix + "* suggests the result is the contract",
			}
		}
	}

	return taxonomy.Signal{}
}
