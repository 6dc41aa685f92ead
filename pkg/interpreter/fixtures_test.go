package interpreter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

// fixtureManifest is the expect.yml of a fixture directory. Every other
// *.json file in the directory is a serialized source named after the file.
type fixtureManifest struct {
	Description string   `yaml:"description"`
	Entry       string   `yaml:"entry"`
	Setup       []string `yaml:"setup"`
	Options     struct {
		AutoImports      []string `yaml:"autoImports"`
		ForbiddenImports []string `yaml:"forbiddenImports"`
		DivisionScale    int      `yaml:"divisionScale"`
	} `yaml:"options"`
	Expect struct {
		Result *string  `yaml:"result"`
		Stdout []string `yaml:"stdout"`
		Error  *struct {
			Kind    string `yaml:"kind"`
			Message string `yaml:"message"`
		} `yaml:"error"`
	} `yaml:"expect"`
}

func TestFixtures(t *testing.T) {
	root := filepath.Join("testdata", "fixtures")
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("reading fixtures: %v", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		t.Run(entry.Name(), func(t *testing.T) {
			runFixture(t, dir)
		})
	}
}

func runFixture(t *testing.T, dir string) {
	t.Helper()
	manifest := readManifest(t, dir)
	entry := manifest.Entry
	if entry == "" {
		entry = "module.json"
	}

	var stdout bytes.Buffer
	interp, err := New(Options{
		AutoImports:      manifest.Options.AutoImports,
		ForbiddenImports: manifest.Options.ForbiddenImports,
		DivisionScale:    manifest.Options.DivisionScale,
		Output:           &stdout,
	})
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	var value *runtime.Value
	for _, file := range append(manifest.Setup, entry) {
		if _, err = interp.Load(sourceName(file), readModule(t, filepath.Join(dir, file))); err != nil {
			break
		}
	}
	if err == nil {
		value, err = interp.Run(sourceName(entry))
	}

	if want := manifest.Expect.Error; want != nil {
		if err == nil {
			t.Fatalf("expected %s error, got result %s", want.Kind, runtime.Display(value))
		}
		execErr, ok := runtime.AsExecutionError(err)
		if !ok {
			t.Fatalf("expected execution error, got %v", err)
		}
		if want.Kind != "" && execErr.Kind.String() != want.Kind {
			t.Fatalf("expected %s error, got %s: %s", want.Kind, execErr.Kind, execErr.Message)
		}
		if !strings.Contains(execErr.Message, want.Message) {
			t.Fatalf("expected error message to contain %q, got %q", want.Message, execErr.Message)
		}
		return
	}
	if err != nil {
		t.Fatalf("evaluation error: %v", err)
	}
	if manifest.Expect.Result != nil {
		if diff := cmp.Diff(*manifest.Expect.Result, runtime.Display(value)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	}
	if manifest.Expect.Stdout != nil {
		got := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
		if stdout.Len() == 0 {
			got = []string{}
		}
		if diff := cmp.Diff(manifest.Expect.Stdout, got); diff != "" {
			t.Fatalf("stdout mismatch (-want +got):\n%s", diff)
		}
	}
}

func sourceName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ".mtr"
}

func readManifest(t *testing.T, dir string) fixtureManifest {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "expect.yml"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest fixtureManifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		t.Fatalf("parse manifest %s: %v", dir, err)
	}
	return manifest
}

func readModule(t *testing.T, path string) *ast.Root {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read module %s: %v", path, err)
	}
	root, err := ast.DecodeRoot(data)
	if err != nil {
		t.Fatalf("decode module %s: %v", path, err)
	}
	return root
}
