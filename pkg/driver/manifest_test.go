package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestFile)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name: shapes
entry: main.json
sources:
  - "*.json"
  - "lib/*.json"
dependencies:
  geometry: ../geometry
  colors:
    git: https://example.com/colors.git
    rev: v1.2.0
    sources: "trees/*.json"
options:
  division_scale: 12
  suggestions: 0
  auto_imports: ["system inline", "math"]
  forbidden_imports: [reflect]
  trace: 2
  trace_values: [width]
  log_calls: true
`)

	manifest, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "shapes", manifest.Name)
	assert.Equal(t, "main.json", manifest.Entry)
	assert.Equal(t, []string{"*.json", "lib/*.json"}, manifest.Sources)
	assert.Equal(t, []string{"geometry", "colors"}, manifest.DependencyOrder)
	assert.Equal(t, &DependencySpec{Path: "../geometry"}, manifest.Dependencies["geometry"])
	assert.Equal(t, &DependencySpec{
		Git:     "https://example.com/colors.git",
		Rev:     "v1.2.0",
		Sources: []string{"trees/*.json"},
	}, manifest.Dependencies["colors"])

	opts := manifest.Options
	assert.Equal(t, 12, opts.DivisionScale)
	require.NotNil(t, opts.Suggestions)
	assert.Equal(t, 0, *opts.Suggestions)
	assert.Equal(t, []string{"system inline", "math"}, opts.AutoImports)
	assert.Equal(t, []string{"reflect"}, opts.ForbiddenImports)
	assert.Equal(t, 2, opts.Trace)
	assert.Equal(t, []string{"width"}, opts.TraceValues)
	assert.True(t, opts.LogCalls)
	assert.False(t, opts.LogResolve)
	assert.Equal(t, dir, manifest.Dir())
}

func TestLoadManifestValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
dependencies:
  neither: {}
  both:
    path: ./both
    git: https://example.com/both.git
  pinned:
    path: ./pinned
    rev: main
options:
  division_scale: 101
  suggestions: -1
  trace: 4
`)

	_, err := LoadManifest(path)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, []string{
		"name must be provided",
		"entry must be provided",
		"options.division_scale must be between 0 and 100, got 101",
		"options.suggestions must not be negative, got -1",
		"options.trace must be between 0 and 3, got 4",
		"dependencies.neither: must specify path or git",
		"dependencies.both: path dependencies cannot also specify git",
		"dependencies.pinned: rev applies only to git dependencies",
	}, verr.Issues)
	assert.True(t, strings.HasPrefix(err.Error(), "manifest validation failed:\n- name must be provided"))
}

func TestLoadManifestRejectsUnknownFields(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "name: x\nentry: main.json\nversion: 1\n")
	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field version not found")
}

func TestLoadManifestEmpty(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "")
	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestLoadManifestDuplicateDependency(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "name: x\nentry: main.json\ndependencies:\n  a: ./a\n  a: ./b\n")
	_, err := LoadManifest(path)
	require.Error(t, err)
}

func TestFindManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "name: test\nentry: main.json\n")
	child := filepath.Join(root, "src", "app")
	require.NoError(t, os.MkdirAll(child, 0o755))

	found, err := FindManifest(child)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ManifestFile), found)
}

func TestFindManifestMissing(t *testing.T) {
	_, err := FindManifest(t.TempDir())
	assert.ErrorIs(t, err, ErrManifestNotFound)
}
