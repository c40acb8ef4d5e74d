package analysis_test

import (
	"context"
	"os"
	"testing"

	"github.com/unbound-force/testgen/internal/analysis"
	"github.com/unbound-force/testgen/internal/loader"
)

func BenchmarkAnalyze(b *testing.B) {
	var units []loader.SourceUnit
	for _, rel := range []string{"shop/cart.py", "shop/inventory.py"} {
		data, err := os.ReadFile(testdataPath(rel))
		if err != nil {
			b.Fatalf("reading fixture: %v", err)
		}
		units = append(units, loader.SourceUnit{Path: rel, Module: loader.ModuleName(rel), Content: data})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := analysis.Analyze(context.Background(), units, analysis.Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
