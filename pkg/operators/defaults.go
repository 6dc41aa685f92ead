package operators

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

var (
	tAny      = runtime.TypeAny
	tNumber   = runtime.KindNumber.String()
	tString   = runtime.KindString.String()
	tBoolean  = runtime.KindBoolean.String()
	tCustom   = runtime.KindCustomType.String()
	tFunction = runtime.KindFunction.String()
)

var one = decimal.NewFromInt(1)

func types(names ...string) [][]string {
	out := make([][]string, len(names))
	for i, name := range names {
		out[i] = []string{name}
	}
	return out
}

func numeric1(fn func(d decimal.Decimal) (decimal.Decimal, error)) Action {
	return Action{Types: types(tNumber), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		d, _ := args[0].Number()
		out, err := fn(d)
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(out), nil
	}}
}

func numeric2(fn func(a, b decimal.Decimal) (decimal.Decimal, error)) Action {
	return Action{Types: types(tNumber, tNumber), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		a, _ := args[0].Number()
		b, _ := args[1].Number()
		out, err := fn(a, b)
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(out), nil
	}}
}

// scaled2 is numeric2 for operations that round to the caller's division
// scale.
func scaled2(fn func(a, b decimal.Decimal, scale int32) (decimal.Decimal, error)) Action {
	return Action{Types: types(tNumber, tNumber), Apply: func(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		a, _ := args[0].Number()
		b, _ := args[1].Number()
		out, err := fn(a, b, call.DivisionScale())
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(out), nil
	}}
}

func whole2(fn func(a, b *big.Int) (*big.Int, error)) Action {
	return numeric2(func(a, b decimal.Decimal) (decimal.Decimal, error) {
		x, err := runtime.WholeNumber(a)
		if err != nil {
			return decimal.Zero, err
		}
		y, err := runtime.WholeNumber(b)
		if err != nil {
			return decimal.Zero, err
		}
		out, err := fn(x, y)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromBigInt(out, 0), nil
	})
}

func boolean2(fn func(a, b bool) bool) Action {
	return Action{Types: types(tBoolean, tBoolean), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		a, _ := args[0].Bool()
		b, _ := args[1].Bool()
		return runtime.NewBoolean(fn(a, b)), nil
	}}
}

func comparison(test func(c int) bool) []Action {
	apply := func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		c, err := runtime.Compare(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return runtime.NewBoolean(test(c)), nil
	}
	return []Action{
		{Types: types(tNumber, tNumber), Apply: apply},
		{Types: types(tString, tString), Apply: apply},
		{Types: types(tBoolean, tBoolean), Apply: apply},
		{Types: types(tCustom, tCustom), Apply: apply},
	}
}

// step returns the increment (or decrement) actions. Postfix forms return the
// previous value, prefix forms the updated cell.
func step(delta decimal.Decimal, postfix bool) Action {
	return Action{Types: types(tNumber), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		cell := args[0]
		d, _ := cell.Number()
		previous := cell.Copy()
		cell.Inherit(runtime.NewNumber(d.Add(delta)))
		if postfix {
			return previous, nil
		}
		return cell, nil
	}}
}

// maxRepeatLength caps the byte length of a repeated string.
const maxRepeatLength = 1 << 28

func repeat(s string, count decimal.Decimal) (*runtime.Value, error) {
	if !count.IsInteger() || count.Sign() < 0 {
		return nil, fmt.Errorf("string repetition requires a non-negative whole number, got %s", count.String())
	}
	if s == "" {
		return runtime.NewString(""), nil
	}
	if count.GreaterThan(decimal.NewFromInt(int64(maxRepeatLength / len(s)))) {
		return nil, fmt.Errorf("string repetition of %d bytes by %s exceeds the %d byte limit", len(s), count.String(), maxRepeatLength)
	}
	return runtime.NewString(strings.Repeat(s, int(count.IntPart()))), nil
}

func remainder(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, fmt.Errorf("Division by zero")
	}
	return a.Mod(b), nil
}

// concat implements ::. Arrays append or prepend, objects merge or push, two
// plain values form a pair.
func concat(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	left, right := args[0], args[1]
	leftMap, leftIsMap := left.Map()
	rightMap, rightIsMap := right.Map()
	switch {
	case leftIsMap && rightIsMap:
		out := leftMap.Clone()
		if leftMap.IsArray() && rightMap.IsArray() {
			for _, v := range rightMap.Values() {
				out.Push(v)
			}
			return runtime.NewObject(out), nil
		}
		rightMap.Range(func(k, v *runtime.Value) bool {
			out.Set(k, v)
			return true
		})
		return runtime.NewObject(out), nil
	case leftIsMap:
		out := leftMap.Clone()
		out.Push(right)
		return runtime.NewObject(out), nil
	case rightIsMap && rightMap.IsArray():
		return runtime.NewArray(append([]*runtime.Value{left}, rightMap.Values()...)...), nil
	case rightIsMap:
		out := runtime.NewOrderedMap()
		out.Push(left)
		rightMap.Range(func(k, v *runtime.Value) bool {
			out.Set(k, v)
			return true
		})
		return runtime.NewObject(out), nil
	default:
		return runtime.NewArray(left, right), nil
	}
}

func pipe(symbol string) Action {
	return Action{Types: types(tAny, tFunction), Apply: func(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		return call.Call(symbol, args[1], args[0])
	}}
}

func infix(symbol string, precedence int, actions ...Action) *Operator {
	return &Operator{Symbol: symbol, Precedence: precedence, Fixity: ast.FixityInfix, Actions: actions}
}

func prefix(symbol string, precedence int, actions ...Action) *Operator {
	return &Operator{Symbol: symbol, Precedence: precedence, Fixity: ast.FixityPrefix, Actions: actions}
}

func postfix(symbol string, precedence int, actions ...Action) *Operator {
	return &Operator{Symbol: symbol, Precedence: precedence, Fixity: ast.FixityPostfix, Actions: actions}
}

// Default returns a table holding the standard Menter operators.
func Default() *Table {
	t := NewTable()

	t.Add(postfix("++", 150, step(one, true)))
	t.Add(postfix("--", 150, step(one.Neg(), true)))
	t.Add(postfix("!", 150, numeric1(runtime.Factorial)))

	t.Add(prefix("++", 140, step(one, false)))
	t.Add(prefix("--", 140, step(one.Neg(), false)))
	t.Add(prefix("+", 140,
		numeric1(func(d decimal.Decimal) (decimal.Decimal, error) { return d, nil }),
		Action{Types: types(tString), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
			s, _ := args[0].Str()
			return runtime.ParseNumber(strings.TrimSpace(s))
		}},
	))
	t.Add(prefix("-", 140, numeric1(func(d decimal.Decimal) (decimal.Decimal, error) { return d.Neg(), nil })))
	t.Add(prefix("!", 140, Action{Types: types(tBoolean), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		b, _ := args[0].Bool()
		return runtime.NewBoolean(!b), nil
	}}))
	t.Add(prefix("~", 140, numeric1(func(d decimal.Decimal) (decimal.Decimal, error) {
		n, err := runtime.WholeNumber(d)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromBigInt(new(big.Int).Not(n), 0), nil
	})))

	t.Add(infix("^^", 130, scaled2(runtime.Power)))

	t.Add(infix("*", 120,
		numeric2(func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Mul(b), nil }),
		Action{Types: types(tString, tNumber), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
			s, _ := args[0].Str()
			n, _ := args[1].Number()
			return repeat(s, n)
		}},
		Action{Types: types(tNumber, tString), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
			n, _ := args[0].Number()
			s, _ := args[1].Str()
			return repeat(s, n)
		}},
	))
	t.Add(infix("/", 120, scaled2(runtime.Divide)))
	t.Add(infix("%", 120, numeric2(remainder)))
	t.Add(infix("%%", 120, numeric2(func(a, b decimal.Decimal) (decimal.Decimal, error) {
		r, err := remainder(a, b)
		if err != nil {
			return decimal.Zero, err
		}
		if r.Sign() < 0 {
			r = r.Add(b.Abs())
		}
		return r, nil
	})))

	concatStrings := func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewString(runtime.Display(args[0]) + runtime.Display(args[1])), nil
	}
	t.Add(infix("+", 110,
		numeric2(func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Add(b), nil }),
		Action{Types: types(tString, tAny), Apply: concatStrings},
		Action{Types: types(tAny, tString), Apply: concatStrings},
	))
	t.Add(infix("-", 110, numeric2(func(a, b decimal.Decimal) (decimal.Decimal, error) { return a.Sub(b), nil })))

	t.Add(infix("::", 105, Action{Types: types(tAny, tAny), Apply: concat}))

	t.Add(infix("<<", 100, whole2(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() < 0 || !b.IsInt64() {
			return nil, fmt.Errorf("shift amount must be a non-negative whole number, got %s", b.String())
		}
		return new(big.Int).Lsh(a, uint(b.Int64())), nil
	})))
	t.Add(infix(">>", 100, whole2(func(a, b *big.Int) (*big.Int, error) {
		if b.Sign() < 0 || !b.IsInt64() {
			return nil, fmt.Errorf("shift amount must be a non-negative whole number, got %s", b.String())
		}
		return new(big.Int).Rsh(a, uint(b.Int64())), nil
	})))

	t.Add(infix("<", 90, comparison(func(c int) bool { return c < 0 })...))
	t.Add(infix("<=", 90, comparison(func(c int) bool { return c <= 0 })...))
	t.Add(infix(">", 90, comparison(func(c int) bool { return c > 0 })...))
	t.Add(infix(">=", 90, comparison(func(c int) bool { return c >= 0 })...))

	t.Add(infix("==", 80, Action{Types: types(tAny, tAny), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewBoolean(runtime.Equal(args[0], args[1])), nil
	}}))
	t.Add(infix("!=", 80, Action{Types: types(tAny, tAny), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewBoolean(!runtime.Equal(args[0], args[1])), nil
	}}))

	t.Add(infix("&", 70,
		whole2(func(a, b *big.Int) (*big.Int, error) { return new(big.Int).And(a, b), nil }),
		boolean2(func(a, b bool) bool { return a && b }),
	))
	t.Add(infix("^", 60,
		scaled2(runtime.Power),
		boolean2(func(a, b bool) bool { return a != b }),
	))
	t.Add(infix("|", 50,
		whole2(func(a, b *big.Int) (*big.Int, error) { return new(big.Int).Or(a, b), nil }),
		boolean2(func(a, b bool) bool { return a || b }),
	))

	t.Add(infix("&&", 40, boolean2(func(a, b bool) bool { return a && b })))
	t.Add(infix("||", 30, boolean2(func(a, b bool) bool { return a || b })))

	t.Add(infix("?", 20, Action{Types: types(tAny, tAny), Apply: func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		if args[0].IsEmpty() {
			return args[1], nil
		}
		return args[0], nil
	}}))

	t.Add(infix("=", 10))
	t.Add(infix("|>", 5, pipe("|>")))
	t.Add(infix(">|", 5, pipe(">|")))
	t.Add(infix("->", 0))

	return t
}
