package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/unbound-force/testgen/internal/config"
	"github.com/unbound-force/testgen/internal/loader"
)

// extractTree writes the files of a txtar fixture into a temp dir.
func extractTree(t *testing.T, name string) string {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	dir := t.TempDir()
	for _, f := range ar.Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, f.Data, 0o644))
	}
	return dir
}

func paths(res *loader.Result) []string {
	var out []string
	for _, u := range res.Units {
		out = append(out, u.Path)
	}
	return out
}

func TestLoad_DefaultDiscovery(t *testing.T) {
	dir := extractTree(t, "tree.txtar")

	res, err := loader.Load(context.Background(), dir, loader.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"shop/__init__.py",
		"shop/cart.py",
		"shop/pricing/rules.py",
	}, paths(res))
	assert.Equal(t, "shop", res.Units[0].Module)
	assert.Equal(t, "shop.cart", res.Units[1].Module)
	assert.Equal(t, "shop.pricing.rules", res.Units[2].Module)
	assert.Contains(t, string(res.Units[1].Content), "class Cart")
	assert.Equal(t, []string{"generated_tests.py", "shop/models_pb2.py"}, res.Skipped)
}

func TestLoad_IncludeRestricts(t *testing.T) {
	dir := extractTree(t, "tree.txtar")
	cfg := config.DefaultConfig()
	cfg.Discovery.Include = []string{"shop/pricing/**"}

	res, err := loader.Load(context.Background(), dir, loader.Options{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, []string{"shop/pricing/rules.py"}, paths(res))
}

func TestLoad_SingleFileBypassesFilters(t *testing.T) {
	dir := extractTree(t, "tree.txtar")

	res, err := loader.Load(context.Background(), filepath.Join(dir, "shop", "test_rules.py"), loader.Options{})
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	assert.Equal(t, "test_rules.py", res.Units[0].Path)
	assert.Equal(t, "test_rules", res.Units[0].Module)
	assert.Equal(t, filepath.Join(dir, "shop"), res.Root)
}

func TestLoad_SinglePackageInit(t *testing.T) {
	dir := extractTree(t, "tree.txtar")

	res, err := loader.Load(context.Background(), filepath.Join(dir, "shop", "__init__.py"), loader.Options{})
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	assert.Equal(t, "shop/__init__.py", res.Units[0].Path)
	assert.Equal(t, "shop", res.Units[0].Module)
	assert.Equal(t, dir, res.Root)
}

func TestLoad_PackageRootInitSkipped(t *testing.T) {
	dir := extractTree(t, "tree.txtar")

	res, err := loader.Load(context.Background(), filepath.Join(dir, "shop"), loader.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"cart.py", "pricing/rules.py"}, paths(res))
	assert.Equal(t, "cart", res.Units[0].Module)
	assert.Equal(t, []string{"__init__.py", "models_pb2.py"}, res.Skipped)
	for _, u := range res.Units {
		assert.NotEmpty(t, u.Module, u.Path)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := extractTree(t, "tree.txtar")

	_, err := loader.Load(context.Background(), filepath.Join(dir, "missing"), loader.Options{})
	assert.Error(t, err)

	_, err = loader.Load(context.Background(), filepath.Join(dir, "README.md"), loader.Options{})
	assert.Error(t, err)
}

func TestLoad_Timeout(t *testing.T) {
	dir := extractTree(t, "tree.txtar")
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := loader.Load(ctx, dir, loader.Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "app", loader.ModuleName("app.py"))
	assert.Equal(t, "pkg.sub.mod", loader.ModuleName("pkg/sub/mod.py"))
	assert.Equal(t, "pkg.sub", loader.ModuleName("pkg/sub/__init__.py"))
	assert.Equal(t, "", loader.ModuleName("__init__.py"))
}

func TestIsGenerated(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"testgen header", "# Generated by testgen. Do not edit by hand.\n\nimport pytest\n", true},
		{"after shebang and coding", "#!/usr/bin/env python\n# -*- coding: utf-8 -*-\n# Code generated by tool. DO NOT EDIT.\n", true},
		{"plain module", "import os\n", false},
		{"header after code", "x = 1\n# Generated by testgen.\n", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, loader.IsGenerated([]byte(tt.content)))
		})
	}
}
