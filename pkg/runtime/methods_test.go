package runtime

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

// hostInvoker calls native functions and bound methods without an interpreter.
type hostInvoker struct{}

func (hostInvoker) Invoke(call *CallContext, name string, fn *Value, args []*Value) (*Value, error) {
	switch fn.Kind() {
	case KindNativeFunction:
		return fn.Payload().(*NativeFunction).Impl(call, args)
	case KindValueFunction:
		return fn.Payload().(*Method).Impl(call, fn.Receiver(), args)
	}
	return nil, fmt.Errorf("%s: cannot call %s", name, fn.Type())
}

func testCall() *CallContext {
	return &CallContext{Global: NewGlobalContext("test"), Invoker: hostInvoker{}}
}

func callMethod(t *testing.T, receiver *Value, name string, args ...*Value) *Value {
	t.Helper()
	method := receiver.Access(NewString(name))
	if method == nil {
		t.Fatalf("no method %s on %s", name, receiver.Type())
	}
	out, err := testCall().Call(name, method, args...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func nativeBinary(op func(a, b decimal.Decimal) decimal.Decimal) *Value {
	return NewNative("op", func(_ *CallContext, args []*Value) (*Value, error) {
		a, _ := args[0].Number()
		b, _ := args[1].Number()
		return NewNumber(op(a, b)), nil
	})
}

func ints(values ...int64) *Value {
	items := make([]*Value, len(values))
	for i, v := range values {
		items[i] = NewInt(v)
	}
	return NewArray(items...)
}

func TestFoldIncludesEveryElementWithAccumulator(t *testing.T) {
	minus := nativeBinary(decimal.Decimal.Sub)
	if got := Display(callMethod(t, ints(1, 2, 3, 4), "foldl", NewInt(10), minus)); got != "0" {
		t.Fatalf("foldl: expected 0, got %s", got)
	}
	if got := Display(callMethod(t, ints(1, 2, 3, 4), "foldr", NewInt(10), minus)); got != "0" {
		t.Fatalf("foldr: expected 0, got %s", got)
	}
	if got := Display(callMethod(t, ints(1, 2, 3, 4), "reduce", minus)); got != "-8" {
		t.Fatalf("reduce: expected -8, got %s", got)
	}
	if got := callMethod(t, ints(), "reduce", minus); !got.IsEmpty() {
		t.Fatalf("reduce of empty array should be null, got %s", got)
	}
}

func TestArrayMethods(t *testing.T) {
	cases := []struct {
		name string
		recv *Value
		args []*Value
		want string
	}{
		{"size", ints(1, 2, 3), nil, "3"},
		{"sum", ints(1, 2, 3), nil, "6"},
		{"avg", ints(1, 2), nil, "1.5"},
		{"max", ints(3, 9, 1), nil, "9"},
		{"min", ints(3, 9, 1), nil, "1"},
		{"head", ints(4, 5), nil, "4"},
		{"tail", ints(4, 5, 6), nil, "[5, 6]"},
		{"sort", ints(3, 1, 2), nil, "[1, 2, 3]"},
		{"distinct", ints(1, 1, 2, 1), nil, "[1, 2]"},
		{"join", ints(1, 2), []*Value{NewString("-"), NewString("<"), NewString(">")}, "<1-2>"},
		{"frequency", ints(2, 1, 2), nil, "{2: 2, 1: 1}"},
		{"contains", ints(1, 2), []*Value{NewInt(2)}, "true"},
		{"containsKey", ints(1, 2), []*Value{NewInt(5)}, "false"},
		{"cross", ints(1, 2), []*Value{ints(3)}, "[[1, 3], [2, 3]]"},
		{"keys", obj("a", NewInt(1), "b", NewInt(2)), nil, "[a, b]"},
		{"values", obj("a", NewInt(1), "b", NewInt(2)), nil, "[1, 2]"},
		{"entries", obj("a", NewInt(1)), nil, "[{key: a, value: 1}]"},
	}
	for _, tc := range cases {
		if got := Display(callMethod(t, tc.recv, tc.name, tc.args...)); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestSortWithComparator(t *testing.T) {
	desc := NewNative("desc", func(_ *CallContext, args []*Value) (*Value, error) {
		c, err := Compare(args[1], args[0])
		return NewInt(int64(c)), err
	})
	if got := Display(callMethod(t, ints(1, 3, 2), "sort", desc)); got != "[3, 2, 1]" {
		t.Fatalf("expected descending order, got %s", got)
	}
	byKey := callMethod(t, obj("b", NewInt(1), "a", NewInt(2)), "sortKey")
	if got := Display(byKey); got != "{a: 2, b: 1}" {
		t.Fatalf("expected key order, got %s", got)
	}
}

func TestPushPopMutateReceiver(t *testing.T) {
	arr := ints(1)
	callMethod(t, arr, "push", NewInt(2))
	if got := Display(arr); got != "[1, 2]" {
		t.Fatalf("expected [1, 2], got %s", got)
	}
	if popped := callMethod(t, arr, "pop"); Display(popped) != "2" {
		t.Fatalf("expected 2 popped, got %s", popped)
	}
	if got := Display(arr); got != "[1]" {
		t.Fatalf("expected [1], got %s", got)
	}
}

func TestMapAndFilterPreserveShape(t *testing.T) {
	double := NewNative("double", func(_ *CallContext, args []*Value) (*Value, error) {
		d, _ := args[0].Number()
		return NewNumber(d.Mul(decimal.NewFromInt(2))), nil
	})
	odd := NewNative("odd", func(_ *CallContext, args []*Value) (*Value, error) {
		d, _ := args[0].Number()
		return NewBoolean(d.Mod(decimal.NewFromInt(2)).Equal(decimal.NewFromInt(1))), nil
	})
	if got := Display(callMethod(t, ints(1, 2, 3), "map", double)); got != "[2, 4, 6]" {
		t.Fatalf("map: got %s", got)
	}
	if got := Display(callMethod(t, ints(1, 2, 3), "filter", odd)); got != "[1, 3]" {
		t.Fatalf("filter on array should reindex, got %s", got)
	}
	if got := Display(callMethod(t, obj("a", NewInt(1), "b", NewInt(2)), "filter", odd)); got != "{a: 1}" {
		t.Fatalf("filter on map should keep keys, got %s", got)
	}
}

func TestRemoveAndRetainKeys(t *testing.T) {
	m := obj("a", NewInt(1), "b", NewInt(2), "c", NewInt(3))
	callMethod(t, m, "removeKey", NewString("b"))
	if got := Display(m); got != "{a: 1, c: 3}" {
		t.Fatalf("removeKey: got %s", got)
	}
	callMethod(t, m, "retainKey", NewString("c"))
	if got := Display(m); got != "{c: 3}" {
		t.Fatalf("retainKey: got %s", got)
	}
	callMethod(t, m, "rename", NewString("c"), NewString("d"))
	if got := Display(m); got != "{d: 3}" {
		t.Fatalf("rename: got %s", got)
	}
}

func TestStringMethods(t *testing.T) {
	s := NewString("Hello World")
	cases := []struct {
		name string
		args []*Value
		want string
	}{
		{"size", nil, "11"},
		{"charAt", []*Value{NewInt(4)}, "o"},
		{"toUpperCase", nil, "HELLO WORLD"},
		{"startsWith", []*Value{NewString("Hell")}, "true"},
		{"matches", []*Value{NewString("H.*d")}, "true"},
		{"matches", []*Value{NewString("World")}, "false"},
		{"replaceAll", []*Value{NewString("o"), NewString("0")}, "Hell0 W0rld"},
		{"split", []*Value{NewString(" ")}, "[Hello, World]"},
		{"equalsIgnoreCase", []*Value{NewString("hello world")}, "true"},
	}
	for _, tc := range cases {
		if got := Display(callMethod(t, s, tc.name, tc.args...)); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
	if got := Display(callMethod(t, NewString("a,b,,"), "split", NewString(","))); got != "[a, b]" {
		t.Fatalf("split should drop trailing empties, got %s", got)
	}
}

func TestRegexFlags(t *testing.T) {
	r, err := CompileRegex("hello", "i")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := callMethod(t, NewRegex(r), "matches", NewString("HeLLo")); !got.IsTrue() {
		t.Fatalf("expected case insensitive match")
	}
	if got := callMethod(t, NewString("HELLO"), "matches", NewRegex(r)); !got.IsTrue() {
		t.Fatalf("expected string.matches to honour regex flags")
	}
}

func TestCommonMethods(t *testing.T) {
	if got := Display(callMethod(t, NewInt(1), "type")); got != "number" {
		t.Fatalf("type: got %s", got)
	}
	if got := callMethod(t, Empty(), "isNull"); !got.IsTrue() {
		t.Fatalf("expected null to report isNull")
	}
	var seen []string
	collect := NewNative("collect", func(_ *CallContext, args []*Value) (*Value, error) {
		seen = append(seen, Display(args[0]))
		return args[0], nil
	})
	last := callMethod(t, obj("a", NewInt(1), "b", NewInt(2)), "forEach", collect)
	if Display(last) != "2" || len(seen) != 2 || seen[0] != "1" {
		t.Fatalf("forEach should pass values and return the last result, got %v / %s", seen, last)
	}
	it := callMethod(t, NewString("ab"), "iterator")
	if first := callMethod(t, it, "next"); Display(first) != "a" {
		t.Fatalf("expected first char, got %s", first)
	}
	if more := callMethod(t, it, "hasNext"); !more.IsTrue() {
		t.Fatalf("expected a second element")
	}
}

func TestAccessFallsBackToKeys(t *testing.T) {
	m := obj("name", NewString("menter"))
	if got := m.Access(NewString("name")); Display(got) != "menter" {
		t.Fatalf("expected key lookup, got %v", got)
	}
	if got := m.Access(NewString("nope")); got != nil {
		t.Fatalf("expected miss, got %v", got)
	}
	if !m.Create(NewString("child"), Empty(), false) {
		t.Fatalf("expected create on object to succeed")
	}
	if child, _ := m.Map(); child.Values()[1].Kind() != KindObject {
		t.Fatalf("non-final create should produce an empty object")
	}
	if NewInt(3).Create(NewString("x"), Empty(), true) {
		t.Fatalf("numbers cannot hold keys")
	}
}
