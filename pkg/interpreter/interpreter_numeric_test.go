package interpreter

import (
	"fmt"
	"testing"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

func TestNumericOperators(t *testing.T) {
	cases := []struct {
		name string
		expr ast.Node
		want string
	}{
		{"Division", ast.Bin("/", ast.Int(1), ast.Int(4)), "0.25"},
		{"Remainder", ast.Bin("%", ast.Int(7), ast.Int(3)), "1"},
		{"Power", ast.Bin("^^", ast.Int(2), ast.Int(10)), "1024"},
		{"NegativePower", ast.Bin("^^", ast.Int(2), ast.Int(-2)), "0.25"},
		{"Factorial", ast.Postfix("!", ast.Int(20)), "2432902008176640000"},
		{"Shift", ast.Bin("<<", ast.Int(1), ast.Int(70)), "1180591620717411303424"},
		{"Negation", ast.Prefix("-", ast.Num("2.5")), "-2.5"},
		{"Repeat", ast.Bin("*", ast.Str("ab"), ast.Int(3)), "ababab"},
		{"Concatenate", ast.Bin("+", ast.Str("n="), ast.Num("1.0")), "n=1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectDisplay(t, tc.want, tc.expr)
		})
	}
}

func TestNumericDiagnostics(t *testing.T) {
	cases := []struct {
		name string
		expr ast.Node
		msg  string
	}{
		{"DivisionByZero", ast.Bin("/", ast.Int(4), ast.Int(0)), "Division by zero"},
		{"RemainderByZero", ast.Bin("%", ast.Int(4), ast.Int(0)), "Division by zero"},
		{"NegativeShift", ast.Bin("<<", ast.Int(1), ast.Int(-1)), "shift amount must be a non-negative whole number, got -1"},
		{"FractionalFactorial", ast.Postfix("!", ast.Num("1.5")), "factorial requires a non-negative whole number, got 1.5"},
		{"BitwiseFraction", ast.Bin("&", ast.Num("1.5"), ast.Int(1)), "1.5 is not a whole number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := evalProgram(t, tc.expr)
			expectError(t, err, runtime.ErrTypeMismatch, tc.msg)
		})
	}
}

func TestDivisionScaleOption(t *testing.T) {
	interp, _ := newTestInterpreter(t, Options{DivisionScale: 3})
	v, err := interp.Evaluate("main", ast.Prog(ast.Bin("/", ast.Int(2), ast.Int(3))))
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if got := runtime.Display(v); got != "0.667" {
		t.Fatalf("expected 0.667, got %s", got)
	}
}

func TestDivisionScaleIsPerInterpreter(t *testing.T) {
	coarse, _ := newTestInterpreter(t, Options{DivisionScale: 3})
	fine, _ := newTestInterpreter(t, Options{DivisionScale: 5})
	plain, _ := newTestInterpreter(t, Options{})

	twoThirds := ast.Prog(ast.Bin("/", ast.Int(2), ast.Int(3)))
	cases := []struct {
		interp *Interpreter
		want   string
	}{
		{fine, "0.66667"},
		{coarse, "0.667"},
		{plain, "0.66666666666666666667"},
		{fine, "0.66667"},
	}
	for idx, tc := range cases {
		v, err := tc.interp.Evaluate(fmt.Sprintf("main%d", idx), twoThirds)
		if err != nil {
			t.Fatalf("case %d: evaluation failed: %v", idx, err)
		}
		if got := runtime.Display(v); got != tc.want {
			t.Fatalf("case %d: expected %s, got %s", idx, tc.want, got)
		}
	}

	v, err := coarse.Evaluate("avg", ast.Prog(ast.Method(ast.Arr(ast.Int(1), ast.Int(2), ast.Int(2)), "avg")))
	if err != nil {
		t.Fatalf("avg failed: %v", err)
	}
	if got := runtime.Display(v); got != "1.667" {
		t.Fatalf("expected 1.667, got %s", got)
	}
}

func TestStringRepetitionLimit(t *testing.T) {
	_, err := evalProgram(t, ast.Bin("*", ast.Str("ab"), ast.Num("10000000000000000000")))
	expectError(t, err, runtime.ErrTypeMismatch, "exceeds the")
}
