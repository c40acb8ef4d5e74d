package classify

import (
	"fmt"

	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

// baseConfidence is the neutral starting point for confidence
// scoring.
const baseConfidence = 50

// maxContradictionPenalty is the penalty applied when positive and
// negative signals are both present.
const maxContradictionPenalty = 20

// ComputeScore computes the confidence score from a set of signals,
// applies the contradiction penalty, clamps to 0-100, and picks the
// success assertion. typeName is the isinstance target, empty when the
// result type cannot be asserted.
func ComputeScore(signals []taxonomy.Signal, typeName string, cfg *config.TestgenConfig) taxonomy.Classification {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	score := baseConfidence
	hasPositive := false
	hasNegative := false

	for _, s := range signals {
		if s.Weight == 0 && s.Source == "" {
			continue
		}
		score += s.Weight
		if s.Weight > 0 {
			hasPositive = true
		}
		if s.Weight < 0 {
			hasNegative = true
		}
	}

	contradictionApplied := false
	if hasPositive && hasNegative {
		score -= maxContradictionPenalty
		contradictionApplied = true
		signals = append(signals, taxonomy.Signal{
			Source:    "contradiction",
			Weight:    -maxContradictionPenalty,
			Reasoning: "positive and negative evidence both present",
		})
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	typed := cfg.Classification.Thresholds.Typed
	value := cfg.Classification.Thresholds.Value

	var outcome taxonomy.Outcome
	var reasoning string
	switch {
	case score >= typed && typeName != "":
		outcome = taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsType, Type: typeName}
		reasoning = fmt.Sprintf("confidence %d >= %d (typed threshold)", score, typed)
	case score >= value:
		outcome = taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsValue}
		reasoning = fmt.Sprintf("confidence %d >= %d (value threshold)", score, value)
	default:
		outcome = taxonomy.Outcome{Kind: taxonomy.OutcomeCompletes}
		reasoning = fmt.Sprintf("confidence %d < %d (value threshold)", score, value)
	}
	if contradictionApplied {
		reasoning += "; contradiction penalty applied"
	}

	filtered := make([]taxonomy.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Source != "" {
			filtered = append(filtered, s)
		}
	}

	return taxonomy.Classification{
		Outcome:    outcome,
		Confidence: score,
		Signals:    filtered,
		Reasoning:  reasoning,
	}
}
