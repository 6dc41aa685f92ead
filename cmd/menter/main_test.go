package main

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fortio.org/log"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/driver"
)

type harness struct {
	stdin  *strings.Reader
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func runCLI(t *testing.T, stdin string, args ...string) (int, *harness) {
	t.Helper()
	h := &harness{stdin: strings.NewReader(stdin)}
	c := &cli{stdin: h.stdin, stdout: &h.stdout, stderr: &h.stderr}
	return c.run(args), h
}

func writeTree(t *testing.T, path string, root *ast.Root) {
	t.Helper()
	data, err := json.Marshal(root)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = wt.Add(filepath.ToSlash(rel))
		return err
	})
	require.NoError(t, err)
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "Menter", Email: "menter@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
}

func TestVersionAndHelp(t *testing.T) {
	code, h := runCLI(t, "", "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, cliToolVersion+"\n", h.stdout.String())

	code, h = runCLI(t, "")
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "Usage:")
}

func TestRunFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.json")
	writeTree(t, file, ast.Prog(
		ast.Assign(ast.ID("xs"), ast.Arr(ast.Int(1), ast.Int(2))),
		ast.Bin("*", ast.ID("xs"), ast.Int(3)),
	))

	code, h := runCLI(t, "", "run", file)
	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "[3, 6]\n", h.stdout.String())

	code, h = runCLI(t, "", file, "--json")
	require.Equal(t, 0, code, h.stderr.String())
	assert.JSONEq(t, "[3, 6]", h.stdout.String())
}

func TestRunJSONKeepsKeyOrder(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.json")
	writeTree(t, file, ast.Prog(ast.Obj(
		ast.Entry(ast.ID("zeta"), ast.Int(1)),
		ast.Entry(ast.ID("alpha"), ast.Str("two")),
	)))
	code, h := runCLI(t, "", "run", "--json", file)
	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "{\n  \"zeta\": 1,\n  \"alpha\": \"two\"\n}\n", h.stdout.String())
}

func TestRunProjectWithDependencies(t *testing.T) {
	workspace := t.TempDir()
	project := filepath.Join(workspace, "app")
	writeTree(t, filepath.Join(workspace, "shapes", "square.json"), ast.Prog(
		ast.Fn("area", []string{"s"}, ast.Bin("*", ast.ID("s"), ast.ID("s"))),
		ast.Export("shapes", "area"),
	))
	colors := filepath.Join(workspace, "colors")
	writeTree(t, filepath.Join(colors, "palette.json"), ast.Prog(
		ast.Assign(ast.ID("red"), ast.Str("#f00")),
		ast.Export("colors", "red"),
	))
	initGitRepo(t, colors)
	writeTree(t, filepath.Join(project, "main.json"), ast.Prog(
		ast.Import("shapes"),
		ast.Import("colors"),
		ast.Method(ast.ID("system"), "print", ast.Path("colors", "red")),
		ast.Method(ast.ID("shapes"), "area", ast.Int(4)),
	))
	manifest := `
name: app
entry: main.json
dependencies:
  shapes: ../shapes
  colors:
    git: ../colors
options:
  auto_imports: [system]
`
	require.NoError(t, os.WriteFile(filepath.Join(project, driver.ManifestFile), []byte(manifest), 0o600))

	code, h := runCLI(t, "", "run", project)
	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "#f00\n16\n", h.stdout.String())

	chdir(t, filepath.Join(project))
	code, h = runCLI(t, "", "run")
	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "#f00\n16\n", h.stdout.String())
}

func TestRunWithoutManifest(t *testing.T) {
	chdir(t, t.TempDir())
	code, h := runCLI(t, "", "run")
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "menter.yml not found")
}

func TestRunReportsExecutionErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.json")
	writeTree(t, file, ast.Prog(
		ast.Assign(ast.ID("value"), ast.Int(1)),
		ast.ID("valeu"),
	))
	code, h := runCLI(t, "", "run", file)
	assert.Equal(t, 1, code)
	stderr := h.stderr.String()
	assert.Contains(t, stderr, "Cannot resolve symbol 'valeu'")
	assert.Contains(t, stderr, "Global symbols:")
}

func TestRunFlagErrors(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":    {"run", "--nope"},
		"missing value":   {"run", "--break"},
		"bad trace":       {"run", "--trace=x"},
		"trace too large": {"run", "--trace", "9", "main.json"},
		"extra argument":  {"run", "a.json", "b.json"},
	}
	dir := t.TempDir()
	writeTree(t, filepath.Join(dir, "main.json"), ast.Prog(ast.Int(1)))
	chdir(t, dir)
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			code, h := runCLI(t, "", args...)
			assert.Equal(t, 1, code)
			assert.NotEmpty(t, h.stderr.String())
		})
	}
}

func TestRunWithBreakpoint(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.json")
	writeTree(t, file, ast.Prog(
		ast.Assign(ast.ID("x"), ast.Int(1)),
		ast.Assign(ast.ID("y"), ast.Bin("+", ast.ID("x"), ast.Int(1))),
		ast.ID("y"),
	))
	code, h := runCLI(t, "symbols\nresume\n", "run", "--break", "y = x + 1", file)
	require.Equal(t, 0, code, h.stderr.String())
	out := h.stdout.String()
	assert.Contains(t, out, ">>> y = x + 1")
	assert.Contains(t, out, "x (number) = 1")
	assert.True(t, strings.HasSuffix(out, "2\n"), out)
}

func TestLogFlagsAreStripped(t *testing.T) {
	prev := log.GetLogLevel()
	t.Cleanup(func() { log.SetLogLevel(prev) })

	c := &cli{}
	rest := c.applyLogFlags([]string{"-v", "run", "-q", "main.json"})
	assert.Equal(t, []string{"run", "main.json"}, rest)
	assert.Equal(t, log.Error, log.GetLogLevel())
}

func TestDumpAST(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.json")
	writeTree(t, file, ast.Prog(ast.Assign(ast.ID("x"), ast.Bin("+", ast.Int(1), ast.Int(2)))))

	code, h := runCLI(t, "", "ast", "--code", file)
	require.Equal(t, 0, code, h.stderr.String())
	assert.Equal(t, "x = 1 + 2\n", h.stdout.String())

	code, h = runCLI(t, "", "ast", file)
	require.Equal(t, 0, code, h.stderr.String())
	assert.Contains(t, h.stdout.String(), "Assignment")

	code, _ = runCLI(t, "", "ast")
	assert.Equal(t, 1, code)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
