package operators

import (
	"strings"
	"testing"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

func num(n int64) *runtime.Value { return runtime.NewInt(n) }

func str(s string) *runtime.Value { return runtime.NewString(s) }

func arr(items ...*runtime.Value) *runtime.Value { return runtime.NewArray(items...) }

func obj(pairs ...any) *runtime.Value {
	m := runtime.NewOrderedMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.SetString(pairs[i].(string), pairs[i+1].(*runtime.Value))
	}
	return runtime.NewObject(m)
}

func evalOp(t *testing.T, symbol string, fixity ast.Fixity, args ...*runtime.Value) *runtime.Value {
	t.Helper()
	out, err := Default().Evaluate(nil, symbol, fixity, args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", symbol, err)
	}
	return out
}

func TestInfixOperators(t *testing.T) {
	cases := []struct {
		symbol string
		left   *runtime.Value
		right  *runtime.Value
		want   string
	}{
		{"+", num(1), num(2), "3"},
		{"+", str("a"), num(1), "a1"},
		{"+", num(1), str("a"), "1a"},
		{"-", num(1), num(3), "-2"},
		{"*", str("ab"), num(3), "ababab"},
		{"/", num(1), num(4), "0.25"},
		{"%", num(-7), num(3), "-1"},
		{"%%", num(-7), num(3), "2"},
		{"%%", num(-5), num(-3), "1"},
		{"%%", num(5), num(-3), "2"},
		{"^^", num(2), num(8), "256"},
		{"^", num(2), num(3), "8"},
		{"^", runtime.NewBoolean(true), runtime.NewBoolean(true), "false"},
		{"&", num(6), num(3), "2"},
		{"|", num(6), num(3), "7"},
		{"<<", num(1), num(4), "16"},
		{">>", num(16), num(2), "4"},
		{"<", num(1), num(2), "true"},
		{">=", str("a"), str("b"), "false"},
		{"==", arr(num(1)), arr(num(1)), "true"},
		{"!=", num(1), str("1"), "true"},
		{"?", runtime.Empty(), num(5), "5"},
		{"?", num(4), num(5), "4"},
		{"::", arr(num(1)), arr(num(2)), "[1, 2]"},
		{"::", arr(num(1)), num(2), "[1, 2]"},
		{"::", num(0), arr(num(1)), "[0, 1]"},
		{"::", num(1), num(2), "[1, 2]"},
		{"::", obj("a", num(1)), obj("a", num(2), "b", num(3)), "{a: 2, b: 3}"},
	}
	for _, tc := range cases {
		got := runtime.Display(evalOp(t, tc.symbol, ast.FixityInfix, tc.left, tc.right))
		if got != tc.want {
			t.Fatalf("%s %s %s: expected %s, got %s", runtime.Display(tc.left), tc.symbol, runtime.Display(tc.right), tc.want, got)
		}
	}
}

func TestUnaryOperators(t *testing.T) {
	if got := runtime.Display(evalOp(t, "-", ast.FixityPrefix, num(3))); got != "-3" {
		t.Fatalf("negation: got %s", got)
	}
	if got := runtime.Display(evalOp(t, "!", ast.FixityPostfix, num(5))); got != "120" {
		t.Fatalf("factorial: got %s", got)
	}
	if got := runtime.Display(evalOp(t, "+", ast.FixityPrefix, str(" 12.50 "))); got != "12.5" {
		t.Fatalf("numeric conversion: got %s", got)
	}
	if got := runtime.Display(evalOp(t, "~", ast.FixityPrefix, num(5))); got != "-6" {
		t.Fatalf("bitwise not: got %s", got)
	}
	if got := runtime.Display(evalOp(t, "!", ast.FixityPrefix, runtime.NewBoolean(false))); got != "true" {
		t.Fatalf("not: got %s", got)
	}
}

func TestIncrementMutatesCell(t *testing.T) {
	cell := num(1)
	old := evalOp(t, "++", ast.FixityPostfix, cell)
	if runtime.Display(old) != "1" || runtime.Display(cell) != "2" {
		t.Fatalf("postfix ++: returned %s, cell %s", old, cell)
	}
	updated := evalOp(t, "--", ast.FixityPrefix, cell)
	if updated != cell || runtime.Display(cell) != "1" {
		t.Fatalf("prefix --: returned %s, cell %s", updated, cell)
	}
}

func TestBroadcast(t *testing.T) {
	sum := evalOp(t, "+", ast.FixityInfix, obj("a", num(1), "b", num(2)), obj("a", num(10), "b", num(20)))
	if got := runtime.Display(sum); got != "{a: 11, b: 22}" {
		t.Fatalf("map+map: got %s", got)
	}
	scaled := evalOp(t, "*", ast.FixityInfix, arr(num(1), num(2), num(3)), num(2))
	if got := runtime.Display(scaled); got != "[2, 4, 6]" {
		t.Fatalf("array*scalar: got %s", got)
	}
	left := evalOp(t, "-", ast.FixityInfix, num(10), arr(num(1), num(2)))
	if got := runtime.Display(left); got != "[9, 8]" {
		t.Fatalf("scalar-array: got %s", got)
	}
	neg := evalOp(t, "-", ast.FixityPrefix, arr(num(1), arr(num(2))))
	if got := runtime.Display(neg); got != "[-1, [-2]]" {
		t.Fatalf("nested prefix broadcast: got %s", got)
	}
	_, err := Default().Evaluate(nil, "+", ast.FixityInfix, []*runtime.Value{obj("a", num(1)), obj("b", num(1))})
	if err == nil || !strings.Contains(err.Error(), "same keys") {
		t.Fatalf("expected key mismatch error, got %v", err)
	}
}

func TestTypeMismatchNamesCombinations(t *testing.T) {
	_, err := Default().Evaluate(nil, "-", ast.FixityInfix, []*runtime.Value{str("a"), num(1)})
	if err == nil {
		t.Fatalf("expected type mismatch")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "No matching type combination found for a (string) - 1 (number)") {
		t.Fatalf("unexpected message %q", msg)
	}
	if !strings.Contains(msg, "Available combination: number - number") {
		t.Fatalf("expected combinations in %q", msg)
	}
}

func TestArityAndDivisionErrors(t *testing.T) {
	op, ok := Default().Find("+", ast.FixityInfix)
	if !ok {
		t.Fatalf("expected + operator")
	}
	if _, err := op.Evaluate(nil, []*runtime.Value{num(1)}); err == nil || err.Error() != "Operator + requires 2 arguments, but 1 were given" {
		t.Fatalf("unexpected arity error %v", err)
	}
	if _, err := Default().Evaluate(nil, "/", ast.FixityInfix, []*runtime.Value{num(1), num(0)}); err == nil || err.Error() != "Division by zero" {
		t.Fatalf("expected division by zero, got %v", err)
	}
}

func TestStringRepetitionBounds(t *testing.T) {
	huge, err := runtime.ParseNumber("10000000000000000000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Default().Evaluate(nil, "*", ast.FixityInfix, []*runtime.Value{str("ab"), huge})
	if err == nil || !strings.Contains(err.Error(), "exceeds the") {
		t.Fatalf("expected repetition limit error, got %v", err)
	}
	_, err = Default().Evaluate(nil, "*", ast.FixityInfix, []*runtime.Value{num(maxRepeatLength/2 + 1), str("ab")})
	if err == nil {
		t.Fatalf("expected repetition one past the limit to fail")
	}
	if got := runtime.Display(evalOp(t, "*", ast.FixityInfix, str(""), huge)); got != "" {
		t.Fatalf("empty string repetition: got %q", got)
	}
	if _, err := Default().Evaluate(nil, "*", ast.FixityInfix, []*runtime.Value{str("a"), num(-1)}); err == nil {
		t.Fatalf("expected negative repetition to fail")
	}
}

func TestTableOrdering(t *testing.T) {
	ops := Default().Operators()
	for i := 1; i < len(ops); i++ {
		if ops[i-1].Precedence < ops[i].Precedence {
			t.Fatalf("operators out of order: %s before %s", ops[i-1], ops[i])
		}
	}
	if _, ok := Default().Find("=", ast.FixityInfix); !ok {
		t.Fatalf("expected assignment operator to be registered")
	}
}
