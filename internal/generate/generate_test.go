package generate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/testgen/internal/analysis"
	"github.com/unbound-force/testgen/internal/generate"
	"github.com/unbound-force/testgen/internal/loader"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

const cartSource = `class ShoppingCart:
    def __init__(self):
        self.total = 0.0

    def add_item(self, item_name: str, quantity: int, price: float) -> float:
        """Add an item and return the new cart total."""
        if quantity <= 0:
            raise ValueError("quantity must be positive")
        if price < 0:
            raise ValueError("price cannot be negative")
        self.total += quantity * price
        return self.total
`

func describe(t *testing.T, src string) []taxonomy.CallableDescriptor {
	t.Helper()
	unit := loader.SourceUnit{Path: "mod.py", Module: "mod", Content: []byte(src)}
	res, err := analysis.Analyze(context.Background(), []loader.SourceUnit{unit}, analysis.Options{})
	require.NoError(t, err)
	require.Empty(t, res.ParseErrors)
	return res.Callables
}

func byScenario(records []taxonomy.TestCaseRecord, s taxonomy.Scenario) []taxonomy.TestCaseRecord {
	var out []taxonomy.TestCaseRecord
	for _, r := range records {
		if r.Scenario == s {
			out = append(out, r)
		}
	}
	return out
}

func arg(t *testing.T, r taxonomy.TestCaseRecord, name string) taxonomy.ValueSpec {
	t.Helper()
	for _, b := range r.Args {
		if b.Param == name {
			return b.Value
		}
	}
	t.Fatalf("record %s has no argument %s", r.Name, name)
	return taxonomy.ValueSpec{}
}

func forCallable(records []taxonomy.TestCaseRecord, callable string) []taxonomy.TestCaseRecord {
	var out []taxonomy.TestCaseRecord
	for _, r := range records {
		if r.Callable == callable {
			out = append(out, r)
		}
	}
	return out
}

func TestBase_AddItemScenario(t *testing.T) {
	descs := describe(t, cartSource)
	records := forCallable(generate.New(descs, generate.Options{}).Base(taxonomy.NewSuite()), "ShoppingCart.add_item")

	happy := byScenario(records, taxonomy.ScenarioHappyPath)
	require.Len(t, happy, 1)
	assert.Equal(t, "test_add_item_happy_path", happy[0].Name)
	assert.Equal(t, []string{"item_name", "quantity", "price"}, params(happy[0]))
	assert.Positive(t, arg(t, happy[0], "quantity").Number)
	assert.Positive(t, arg(t, happy[0], "price").Number)
	assert.Equal(t, taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsType, Type: "(int, float)"}, happy[0].Expected)
	assert.Empty(t, happy[0].Constructor)

	exceptions := byScenario(records, taxonomy.ScenarioException)
	require.Len(t, exceptions, 2)
	assert.Equal(t, "test_add_item_quantity_raises_valueerror", exceptions[0].Name)
	assert.Equal(t, "0", arg(t, exceptions[0], "quantity").Literal)
	assert.Equal(t, "test_add_item_price_raises_valueerror", exceptions[1].Name)
	assert.Equal(t, -1.0, arg(t, exceptions[1], "price").Number)
	for _, r := range exceptions {
		assert.Equal(t, taxonomy.Outcome{Kind: taxonomy.OutcomeRaises, Exception: "ValueError"}, r.Expected)
		assert.Len(t, r.Args, 3)
	}

	for _, r := range byScenario(records, taxonomy.ScenarioBoundary) {
		assert.NotEqual(t, taxonomy.OutcomeRaises, r.Expected.Kind, r.Name)
	}
}

func params(r taxonomy.TestCaseRecord) []string {
	var out []string
	for _, b := range r.Args {
		out = append(out, b.Param)
	}
	return out
}

func TestBase_ConstructorRecord(t *testing.T) {
	descs := describe(t, cartSource)
	records := forCallable(generate.New(descs, generate.Options{}).Base(nil), "ShoppingCart.__init__")
	require.Len(t, records, 1)
	assert.Equal(t, "test_shoppingcart_happy_path", records[0].Name)
	assert.Equal(t, taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsType, Type: "ShoppingCart"}, records[0].Expected)
}

func TestBase_LessThanGuardYieldsOneExceptionRecord(t *testing.T) {
	descs := describe(t, `def withdraw(amount: int) -> int:
    if amount < 10:
        raise ArithmeticError("too small")
    return amount
`)
	records := generate.New(descs, generate.Options{}).Base(nil)
	exceptions := byScenario(records, taxonomy.ScenarioException)
	require.Len(t, exceptions, 1)
	assert.Less(t, arg(t, exceptions[0], "amount").Number, 10.0)
	assert.Equal(t, "ArithmeticError", exceptions[0].Expected.Exception)
}

func TestBase_AsyncWithoutParameters(t *testing.T) {
	descs := describe(t, `async def ping():
    return "pong"
`)
	records := generate.New(descs, generate.Options{}).Base(nil)
	require.Len(t, records, 1)
	assert.Equal(t, taxonomy.ScenarioHappyPath, records[0].Scenario)
	assert.True(t, records[0].IsAsync)
	assert.Empty(t, records[0].Args)
}

func TestBase_UnrecognizedGuardYieldsNoExceptionRecord(t *testing.T) {
	descs := describe(t, `def pick(color: str) -> str:
    if color in ("red", "blue"):
        raise ValueError(color)
    return color
`)
	require.Empty(t, descs[0].Guards)
	records := generate.New(descs, generate.Options{}).Base(nil)
	assert.Empty(t, byScenario(records, taxonomy.ScenarioException))
}

func TestBase_BoundaryCap(t *testing.T) {
	descs := describe(t, `def mix(a: int, b: int, c: str, d: list) -> int:
    return a
`)
	records := generate.New(descs, generate.Options{MaxBoundaryCases: 3}).Base(nil)
	boundary := byScenario(records, taxonomy.ScenarioBoundary)
	require.Len(t, boundary, 3)
	for _, r := range boundary {
		varied := 0
		for _, b := range r.Args {
			if b.Value.Tag != taxonomy.TagTypical {
				varied++
			}
		}
		assert.Equal(t, 1, varied, "%s varies more than one parameter", r.Name)
	}
	assert.Equal(t, "test_mix_a_boundary_low", boundary[0].Name)
	assert.Equal(t, "test_mix_a_boundary_high", boundary[1].Name)
}

func TestBase_SkipsAttempted(t *testing.T) {
	descs := describe(t, cartSource)
	gen := generate.New(descs, generate.Options{})
	suite := taxonomy.NewSuite()
	for _, r := range gen.Base(suite) {
		_, ok := suite.Add(r)
		require.True(t, ok)
	}
	assert.Empty(t, gen.Base(suite))
}

func TestBase_Deterministic(t *testing.T) {
	descs := describe(t, cartSource)
	first := generate.New(descs, generate.Options{}).Base(nil)
	second := generate.New(descs, generate.Options{}).Base(nil)
	assert.Equal(t, first, second)
}

func TestGaps_UnresolvedType(t *testing.T) {
	descs := describe(t, `def ship(order: Order) -> bool:
    return True
`)
	gen := generate.New(descs, generate.Options{})
	gen.Base(nil)
	require.Len(t, gen.Gaps(), 1)
	assert.True(t, strings.Contains(gen.Gaps()[0].Error(), "Order"))
}

const chooseSource = `def choose(mode: int) -> int:
    if mode > 50:
        return 1
    return 0
`

func TestTargeted_EntersUncoveredBranch(t *testing.T) {
	descs := describe(t, chooseSource)
	d := descs[0]
	require.Len(t, d.Branches, 1)

	executed := map[string]map[taxonomy.Location]bool{d.ID: {
		taxonomy.LineLocation("mod.py", 2): true,
		taxonomy.LineLocation("mod.py", 4): true,
	}}
	total := map[string]map[taxonomy.Location]bool{d.ID: {
		taxonomy.LineLocation("mod.py", 2): true,
		taxonomy.LineLocation("mod.py", 3): true,
		taxonomy.LineLocation("mod.py", 4): true,
	}}
	report := taxonomy.NewCoverageReport(1, executed, total)

	gen := generate.New(descs, generate.Options{})
	suite := taxonomy.NewSuite()
	for _, r := range gen.Base(suite) {
		suite.Add(r)
	}

	targeted := gen.Targeted(report, suite)
	require.Len(t, targeted, 1)
	r := targeted[0]
	assert.Equal(t, "test_choose_mode_targets_line_3", r.Name)
	assert.Equal(t, taxonomy.ScenarioTargeted, r.Scenario)
	assert.Equal(t, 3, r.TargetLine)
	assert.Equal(t, "51", arg(t, r, "mode").Literal)

	suite.Add(r)
	assert.Empty(t, gen.Targeted(report, suite))
}

func TestTargeted_SkipArc(t *testing.T) {
	descs := describe(t, `def clamp(level: int) -> int:
    if level < 100:
        level = 100
    return level
`)
	d := descs[0]
	report := taxonomy.NewCoverageReport(1,
		map[string]map[taxonomy.Location]bool{d.ID: {taxonomy.BranchLocation("mod.py", 2, 3): true}},
		map[string]map[taxonomy.Location]bool{d.ID: {
			taxonomy.BranchLocation("mod.py", 2, 3): true,
			taxonomy.BranchLocation("mod.py", 2, 4): true,
		}},
	)
	targeted := generate.New(descs, generate.Options{}).Targeted(report, nil)
	require.Len(t, targeted, 1)
	assert.Equal(t, "100", arg(t, targeted[0], "level").Literal)
	assert.Equal(t, 2, targeted[0].TargetLine)
}

func TestTargeted_NoGapsNoRecords(t *testing.T) {
	descs := describe(t, chooseSource)
	gen := generate.New(descs, generate.Options{})
	assert.Empty(t, gen.Targeted(nil, nil))
	assert.Empty(t, gen.Targeted(taxonomy.NewCoverageReport(1, nil, nil), nil))
}
