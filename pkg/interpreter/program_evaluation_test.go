package interpreter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/driver"
	"menter/interpreter-go/pkg/runtime"
)

func TestInterpreterEvaluateProgramSuccess(t *testing.T) {
	dep := &driver.Source{
		Name: "dep/provide",
		Root: ast.Prog(
			ast.Fn("provide", nil, ast.Ret(ast.Str("dep"))),
			ast.Export("dep", "provide"),
		),
	}
	main := &driver.Source{
		Name: "main",
		Root: ast.Prog(
			ast.Import("dep"),
			ast.Fn("shout", nil, ast.Ret(ast.Bin("+", ast.Method(ast.ID("dep"), "provide"), ast.Str("!")))),
			ast.CallExpr(ast.ID("shout")),
		),
	}
	program := &driver.Program{Name: "app", Entry: main, Sources: []*driver.Source{dep, main}}

	interp, _ := newTestInterpreter(t, Options{})
	value, err := interp.EvaluateProgram(program)
	if err != nil {
		t.Fatalf("EvaluateProgram error: %v", err)
	}
	if got := runtime.Display(value); got != "dep!" {
		t.Fatalf("expected dep!, got %s", got)
	}
	ctx, ok := interp.Context("dep/provide")
	if !ok || !ctx.Evaluated() {
		t.Fatalf("expected dependency to be evaluated before the entry")
	}
}

func TestInterpreterEvaluateProgramSkipsUnreachedSources(t *testing.T) {
	unused := &driver.Source{
		Name: "unused",
		Root: ast.Prog(ast.Method(ast.ID("system"), "print", ast.Str("unused ran"))),
	}
	main := &driver.Source{Name: "main", Root: ast.Prog(ast.Int(1))}
	interp, out := newTestInterpreter(t, Options{AutoImports: []string{"system"}})
	if _, err := interp.EvaluateProgram(&driver.Program{Entry: main, Sources: []*driver.Source{unused, main}}); err != nil {
		t.Fatalf("EvaluateProgram error: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestInterpreterEvaluateProgramErrors(t *testing.T) {
	interp, _ := newTestInterpreter(t, Options{})
	_, err := interp.EvaluateProgram(&driver.Program{})
	expectError(t, err, runtime.ErrImport, "Program has no entry source")

	main := &driver.Source{Name: "main", Root: ast.Prog(ast.Import("missing"))}
	interp, _ = newTestInterpreter(t, Options{})
	_, err = interp.EvaluateProgram(&driver.Program{Entry: main})
	expectError(t, err, runtime.ErrImport, "Could not find module 'missing'")
}

func TestOptionsFromManifest(t *testing.T) {
	zero := 0
	got := OptionsFromManifest(driver.OptionsSpec{
		DivisionScale:    8,
		Suggestions:      &zero,
		AutoImports:      []string{"math"},
		ForbiddenImports: []string{"reflect"},
		Trace:            1,
		TraceValues:      []string{"x"},
		LogResolve:       true,
	})
	want := Options{
		DivisionScale:    8,
		AutoImports:      []string{"math"},
		ForbiddenImports: []string{"reflect"},
		Trace:            1,
		TraceValues:      []string{"x"},
		LogResolve:       true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
