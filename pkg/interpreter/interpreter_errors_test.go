package interpreter

import (
	"errors"
	"strings"
	"testing"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

func containsAll(s string, fragments ...string) bool {
	for _, f := range fragments {
		if !strings.Contains(s, f) {
			return false
		}
	}
	return true
}

func TestCallingNonFunction(t *testing.T) {
	_, err := evalProgram(t,
		ast.Assign(ast.ID("n"), ast.Int(3)),
		ast.CallExpr(ast.ID("n")),
	)
	expectError(t, err, runtime.ErrTypeMismatch, "Value is not a function [3]")
}

func TestDivisionByZeroIsTypeMismatch(t *testing.T) {
	_, err := evalProgram(t, ast.Bin("/", ast.Int(1), ast.Int(0)))
	expectError(t, err, runtime.ErrTypeMismatch, "Division by zero")
}

func TestErrorCarriesStackTrace(t *testing.T) {
	inner := ast.Fn("inner", nil, ast.ID("missing"))
	outer := ast.Fn("outer", nil, ast.CallExpr(ast.ID("inner")))
	_, err := evalProgram(t,
		inner,
		outer,
		ast.Assign(ast.ID("visible"), ast.Int(9)),
		ast.CallExpr(ast.ID("outer")),
	)
	execErr := expectError(t, err, runtime.ErrUnresolvedSymbol, "Cannot resolve symbol 'missing'")
	if !execErr.HasTrace() {
		t.Fatalf("expected a stack trace")
	}
	if !containsAll(execErr.Trace, "inner", "outer", "Global symbols:", "visible") {
		t.Fatalf("unexpected trace:\n%s", execErr.Trace)
	}
	if !strings.HasPrefix(err.Error(), execErr.Message+"\n") {
		t.Fatalf("expected Error() to start with the message, got %q", err.Error())
	}
}

func TestNativeErrorsAreWrapped(t *testing.T) {
	interp, _ := newTestInterpreter(t, Options{})
	boom := errors.New("host failure")
	interp.RegisterNative("host", "fail", func(_ *runtime.CallContext, _ []*runtime.Value) (*runtime.Value, error) {
		return nil, boom
	})
	_, err := interp.Evaluate("host.mtr", ast.Prog(
		ast.NativeFn("fail"),
		ast.Export("host", "fail"),
		ast.CallExpr(ast.ID("fail")),
	))
	execErr := expectError(t, err, runtime.ErrNative, "host failure")
	if !errors.Is(execErr, boom) {
		t.Fatalf("expected the host error to stay in the chain")
	}
}

func TestNativeDeclarationOnlyAtTopLevel(t *testing.T) {
	interp, _ := newTestInterpreter(t, Options{})
	interp.RegisterNative("main", "f", func(_ *runtime.CallContext, _ []*runtime.Value) (*runtime.Value, error) {
		return runtime.Empty(), nil
	})
	_, err := interp.Evaluate("main", ast.Prog(
		ast.Fn("wrapper", nil, ast.NativeFn("f")),
		ast.CallExpr(ast.ID("wrapper")),
	))
	expectError(t, err, runtime.ErrNative, "Native functions can only be declared in the global context")
}

func TestBreakOutsideLoop(t *testing.T) {
	_, err := evalProgram(t, ast.Brk())
	expectError(t, err, runtime.ErrInvalidControl, "Unexpected break outside of a loop in main")

	_, err = evalProgram(t,
		ast.Fn("f", nil, ast.Cont()),
		ast.CallExpr(ast.ID("f")),
	)
	expectError(t, err, runtime.ErrInvalidControl, "Unexpected continue outside of a loop in function [f]")
}

func TestForLoopVariableCountMismatch(t *testing.T) {
	_, err := evalProgram(t,
		ast.For([]string{"a", "b", "c"}, ast.Obj(ast.Entry(ast.ID("k"), ast.Int(1))), ast.ID("a")),
	)
	expectError(t, err, runtime.ErrInvalidControl, "Expected 3 variables, but got 2")
}

func TestUnknownSourceIsImportError(t *testing.T) {
	interp, _ := newTestInterpreter(t, Options{})
	_, err := interp.Run("nowhere")
	expectError(t, err, runtime.ErrImport, "No source named nowhere has been loaded")
}

func TestInvalidImportStatement(t *testing.T) {
	_, err := ParseImport("import a b c d")
	if runtime.KindOf(err) != runtime.ErrImport {
		t.Fatalf("expected import error, got %v", err)
	}
}
