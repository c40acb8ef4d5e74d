package emit_test

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/emit"
	"github.com/unbound-force/testgen/internal/taxonomy"
)

func fixtures() ([]taxonomy.TestCaseRecord, []taxonomy.CallableDescriptor) {
	ctor := taxonomy.CallableDescriptor{ID: "cd-ctor", Module: "shop.cart", File: "shop/cart.py", Name: "__init__", Class: "ShoppingCart", IsConstructor: true}
	add := taxonomy.CallableDescriptor{
		ID: "cd-add", Module: "shop.cart", File: "shop/cart.py", Name: "add_item", Class: "ShoppingCart", IsMethod: true,
		Params: []taxonomy.Parameter{{Name: "quantity", Kind: taxonomy.ParamPositional}},
	}
	ping := taxonomy.CallableDescriptor{ID: "cd-ping", Module: "shop.net", File: "shop/net.py", Name: "ping", IsAsync: true}
	scale := taxonomy.CallableDescriptor{ID: "cd-scale", Module: "shop.util", File: "shop/util.py", Name: "scale", Class: "Math", IsStatic: true}

	quantity := func(lit string) []taxonomy.Binding {
		return []taxonomy.Binding{{Param: "quantity", Kind: taxonomy.ParamPositional, Value: taxonomy.ValueSpec{Literal: lit}}}
	}
	records := []taxonomy.TestCaseRecord{
		{Name: "test_add_item_happy_path", Target: "cd-add", Args: quantity("42"),
			Expected: taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsType, Type: "(int, float)"}, Description: "Call ShoppingCart.add_item with typical values."},
		{Name: "test_ping_happy_path", Target: "cd-ping", IsAsync: true,
			Expected: taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsValue}},
		{Name: "test_add_item_quantity_raises_valueerror", Target: "cd-add", Args: quantity("0"),
			Expected: taxonomy.Outcome{Kind: taxonomy.OutcomeRaises, Exception: "ValueError"}},
		{Name: "test_shoppingcart_happy_path", Target: "cd-ctor",
			Expected: taxonomy.Outcome{Kind: taxonomy.OutcomeReturnsType, Type: "ShoppingCart"}},
		{Name: "test_scale_happy_path", Target: "cd-scale",
			Args:     []taxonomy.Binding{{Param: "x", Kind: taxonomy.ParamPositionalOnly, Value: taxonomy.ValueSpec{Literal: "3.14"}}},
			Expected: taxonomy.Outcome{Kind: taxonomy.OutcomeRaises, Exception: "ScaleError"}},
	}
	return records, []taxonomy.CallableDescriptor{ctor, add, ping, scale}
}

const wantModule = `# Generated by testgen. Do not edit by hand.
# Refinement: converged after 2 iterations

import asyncio
import pytest

from shop.cart import ShoppingCart
from shop.net import ping
from shop.util import Math, ScaleError


# shop/cart.py


def test_add_item_happy_path():
    obj = ShoppingCart()
    result = obj.add_item(quantity=42)
    assert isinstance(result, (int, float))


def test_add_item_quantity_raises_valueerror():
    obj = ShoppingCart()
    with pytest.raises(ValueError):
        obj.add_item(quantity=0)


def test_shoppingcart_happy_path():
    result = ShoppingCart()
    assert isinstance(result, ShoppingCart)


# shop/net.py


def test_ping_happy_path():
    result = asyncio.run(ping())
    assert result is not None


# shop/util.py


def test_scale_happy_path():
    with pytest.raises(ScaleError):
        Math.scale(3.14)
`

func TestRender_Module(t *testing.T) {
	records, descs := fixtures()
	got, err := emit.Render(records, descs, emit.Options{Status: "Refinement: converged after 2 iterations"})
	require.NoError(t, err)
	if diff := cmp.Diff(wantModule, string(got)); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_Deterministic(t *testing.T) {
	records, descs := fixtures()
	first, err := emit.Render(records, descs, emit.Options{Verbose: true})
	require.NoError(t, err)
	second, err := emit.Render(records, descs, emit.Options{Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_Verbose(t *testing.T) {
	records, descs := fixtures()
	got, err := emit.Render(records[:1], descs, emit.Options{Verbose: true})
	require.NoError(t, err)
	assert.Contains(t, string(got),
		"# Call ShoppingCart.add_item with typical values. Expects returns (int, float).\ndef test_add_item_happy_path():")
}

func TestRender_PytestAsyncio(t *testing.T) {
	records, descs := fixtures()
	got, err := emit.Render(records[1:2], descs, emit.Options{AsyncStyle: config.AsyncStylePytestAsyncio})
	require.NoError(t, err)
	src := string(got)
	assert.Contains(t, src, "@pytest.mark.asyncio\nasync def test_ping_happy_path():\n    result = await ping()\n")
	assert.NotContains(t, src, "import asyncio")
}

func TestRender_ObservedLiterals(t *testing.T) {
	records, descs := fixtures()
	observed := map[string]string{
		"test_add_item_happy_path":                 "42.0",
		"test_ping_happy_path":                     "'pong'",
		"test_add_item_quantity_raises_valueerror": "0",
	}
	got, err := emit.Render(records[:3], descs, emit.Options{Observed: observed})
	require.NoError(t, err)
	src := string(got)
	assert.Contains(t, src, "assert result == pytest.approx(42.0)")
	assert.Contains(t, src, "assert result == 'pong'")
	assert.Contains(t, src, "with pytest.raises(ValueError):")
}

func TestRender_Probe(t *testing.T) {
	records, descs := fixtures()
	got, err := emit.Render(records[:1], descs, emit.Options{Probe: true})
	require.NoError(t, err)
	src := string(got)
	assert.Contains(t, src, "def _testgen_observe(name, value):")
	assert.Contains(t, src, `_testgen_observe("test_add_item_happy_path", result)`)
	assert.Contains(t, src, emit.ObserveEnv)
}

func TestRender_CompletesIsBareCall(t *testing.T) {
	d := taxonomy.CallableDescriptor{ID: "cd-log", Module: "app", File: "app.py", Name: "log_event"}
	rec := taxonomy.TestCaseRecord{Name: "test_log_event_happy_path", Target: "cd-log", Expected: taxonomy.Outcome{Kind: taxonomy.OutcomeCompletes}}
	got, err := emit.Render([]taxonomy.TestCaseRecord{rec}, []taxonomy.CallableDescriptor{d}, emit.Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(got), "def test_log_event_happy_path():\n    log_event()\n"))
}

func TestRender_EqualsLiteralForms(t *testing.T) {
	d := taxonomy.CallableDescriptor{ID: "cd-f", Module: "app", File: "app.py", Name: "f"}
	tests := []struct {
		literal string
		want    string
	}{
		{"True", "assert result is True"},
		{"None", "assert result is None"},
		{"7", "assert result == 7"},
		{"0.5", "assert result == pytest.approx(0.5)"},
	}
	for _, tt := range tests {
		rec := taxonomy.TestCaseRecord{Name: "test_f", Target: "cd-f", Expected: taxonomy.Outcome{Kind: taxonomy.OutcomeEqualsLiteral, Literal: tt.literal}}
		got, err := emit.Render([]taxonomy.TestCaseRecord{rec}, []taxonomy.CallableDescriptor{d}, emit.Options{})
		require.NoError(t, err)
		assert.Contains(t, string(got), tt.want)
	}
}

func TestRender_UnknownTarget(t *testing.T) {
	rec := taxonomy.TestCaseRecord{Name: "test_x", Target: "cd-missing"}
	_, err := emit.Render([]taxonomy.TestCaseRecord{rec}, nil, emit.Options{})
	assert.ErrorContains(t, err, "cd-missing")
}

func TestFormat(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	got, err := emit.Format(context.Background(), []byte("x = 1\n"), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(got))

	_, err = emit.Format(context.Background(), []byte("x = 1\n"), nil)
	assert.Error(t, err)

	_, err = emit.Format(context.Background(), []byte("x = 1\n"), []string{"testgen-no-such-formatter"})
	assert.Error(t, err)
}
