package runtime

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func num(t *testing.T, text string) *Value {
	t.Helper()
	v, err := ParseNumber(text)
	if err != nil {
		t.Fatalf("parse %q: %v", text, err)
	}
	return v
}

func obj(pairs ...any) *Value {
	m := NewOrderedMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.SetString(pairs[i].(string), pairs[i+1].(*Value))
	}
	return NewObject(m)
}

func TestNumberNormalization(t *testing.T) {
	if got := Display(num(t, "1.500")); got != "1.5" {
		t.Fatalf("expected 1.5, got %s", got)
	}
	if !Equal(num(t, "2.0"), NewInt(2)) {
		t.Fatalf("expected 2.0 == 2")
	}
	if got := Display(num(t, "100")); got != "100" {
		t.Fatalf("expected 100, got %s", got)
	}
}

func TestDivideUsesScale(t *testing.T) {
	got, err := Divide(decimal.NewFromInt(1), decimal.NewFromInt(3), DefaultDivisionScale)
	if err != nil {
		t.Fatalf("divide: %v", err)
	}
	if got.String() != "0.33333333333333333333" {
		t.Fatalf("unexpected quotient %s", got.String())
	}
	got, err = Divide(decimal.NewFromInt(2), decimal.NewFromInt(3), 2)
	if err != nil || got.String() != "0.67" {
		t.Fatalf("expected 0.67 at scale 2, got %s (%v)", got.String(), err)
	}
	if _, err := Divide(decimal.NewFromInt(1), decimal.Zero, DefaultDivisionScale); err == nil || err.Error() != "Division by zero" {
		t.Fatalf("expected division by zero error, got %v", err)
	}
	if err := ValidateDivisionScale(MaxDivisionScale + 1); err == nil {
		t.Fatalf("expected out of range scale to be rejected")
	}
	if err := ValidateDivisionScale(0); err != nil {
		t.Fatalf("scale 0 should be accepted: %v", err)
	}
}

func TestCallContextDivisionScale(t *testing.T) {
	var missing *CallContext
	if got := missing.DivisionScale(); got != DefaultDivisionScale {
		t.Fatalf("nil context: expected %d, got %d", DefaultDivisionScale, got)
	}
	if got := (&CallContext{}).DivisionScale(); got != DefaultDivisionScale {
		t.Fatalf("zero scale: expected %d, got %d", DefaultDivisionScale, got)
	}
	if got := (&CallContext{Scale: 4}).DivisionScale(); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}

func TestPowerAndFactorial(t *testing.T) {
	p, err := Power(decimal.NewFromInt(2), decimal.NewFromInt(10), DefaultDivisionScale)
	if err != nil || p.String() != "1024" {
		t.Fatalf("expected 1024, got %s (%v)", p.String(), err)
	}
	p, err = Power(decimal.NewFromInt(2), decimal.NewFromInt(-2), DefaultDivisionScale)
	if err != nil || Display(NewNumber(p)) != "0.25" {
		t.Fatalf("expected 0.25, got %s (%v)", p.String(), err)
	}
	if _, err := Power(decimal.NewFromInt(-1), decimal.RequireFromString("0.5"), DefaultDivisionScale); err == nil {
		t.Fatalf("expected error for imaginary result")
	}
	f, err := Factorial(decimal.NewFromInt(20))
	if err != nil || f.String() != "2432902008176640000" {
		t.Fatalf("unexpected factorial %s (%v)", f.String(), err)
	}
	if _, err := Factorial(decimal.RequireFromString("1.5")); err == nil {
		t.Fatalf("expected factorial of fraction to fail")
	}
}

func TestDisplay(t *testing.T) {
	cases := []struct {
		value *Value
		want  string
	}{
		{Empty(), "null"},
		{NewBoolean(true), "true"},
		{NewString("hi"), "hi"},
		{NewArray(NewInt(1), NewInt(2), NewString("x")), "[1, 2, x]"},
		{obj("a", NewInt(1), "b", NewArray()), "{a: 1, b: []}"},
		{NewNative("print", nil), "<<native function>>"},
		{NewIterator(SliceIterator(nil)), "<<iterator>>"},
	}
	for _, tc := range cases {
		if got := Display(tc.value); got != tc.want {
			t.Fatalf("display: expected %q, got %q", tc.want, got)
		}
	}
}

func TestDisplayCircularReference(t *testing.T) {
	self := obj()
	m, _ := self.Map()
	m.SetString("me", self)
	got := Display(self)
	if !strings.HasPrefix(got, "{me: <circular-reference-object@") {
		t.Fatalf("unexpected circular display %q", got)
	}
}

func TestEqualIsStructural(t *testing.T) {
	a := obj("x", NewArray(NewInt(1), NewInt(2)), "y", NewString("s"))
	b := obj("x", NewArray(NewInt(1), NewInt(2)), "y", NewString("s"))
	if !Equal(a, b) {
		t.Fatalf("expected structural equality")
	}
	if Equal(NewInt(1), NewString("1")) {
		t.Fatalf("values of different types must differ")
	}
	fn := NewNative("f", nil)
	if Equal(fn, NewNative("f", nil)) {
		t.Fatalf("distinct functions must differ")
	}
	if !Equal(fn, fn.Copy()) {
		t.Fatalf("copies of one function must be equal")
	}
}

func TestCompare(t *testing.T) {
	cmpOf := func(a, b *Value) int {
		t.Helper()
		c, err := Compare(a, b)
		if err != nil {
			t.Fatalf("compare: %v", err)
		}
		return c
	}
	if cmpOf(NewInt(1), NewInt(2)) >= 0 {
		t.Fatalf("expected 1 < 2")
	}
	if cmpOf(NewString("b"), NewString("a")) <= 0 {
		t.Fatalf("expected b > a")
	}
	if cmpOf(NewBoolean(false), NewBoolean(true)) >= 0 {
		t.Fatalf("expected false < true")
	}
	if cmpOf(NewArray(NewInt(1)), NewArray(NewInt(1), NewInt(2))) >= 0 {
		t.Fatalf("expected smaller object first")
	}
	if _, err := Compare(NewInt(1), NewString("x")); err == nil {
		t.Fatalf("expected number/string compare to fail")
	}
}

func TestTruthinessAndSize(t *testing.T) {
	falsy := []*Value{Empty(), NewBoolean(false), NewInt(0), NewString(""), NewArray()}
	for _, v := range falsy {
		if v.IsTrue() {
			t.Fatalf("expected %s to be false", v)
		}
	}
	if NewString("héllo").Size() != 5 {
		t.Fatalf("expected size in characters")
	}
}

func TestIsType(t *testing.T) {
	if !IsType("native_function", "function") {
		t.Fatalf("native functions are functions")
	}
	if !IsType("string", TypeAny) {
		t.Fatalf("any matches every type")
	}
	if IsType("string", "number") {
		t.Fatalf("string is not a number")
	}
}

func TestInheritKeepsCellIdentity(t *testing.T) {
	cell := NewInt(1)
	alias := cell
	cell.Inherit(NewString("changed"))
	if got, _ := alias.Str(); got != "changed" {
		t.Fatalf("expected alias to observe new contents, got %s", alias)
	}
}

func TestOrderedMapArrayDetection(t *testing.T) {
	arr := NewArray(NewString("a"), NewString("b"))
	m, _ := arr.Map()
	if !m.IsArray() {
		t.Fatalf("expected array")
	}
	m.Push(NewString("c"))
	if got := Display(arr); got != "[a, b, c]" {
		t.Fatalf("unexpected push result %s", got)
	}
	m.Delete(NewInt(0))
	if m.IsArray() {
		t.Fatalf("map with a gap at 0 is not an array")
	}
	keys := make([]string, 0)
	for _, k := range m.Keys() {
		keys = append(keys, Display(k))
	}
	if diff := cmp.Diff([]string{"1", "2"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	m.Set(num(t, "1.0"), NewString("B"))
	if got, _ := m.Get(NewInt(1)); Display(got) != "B" {
		t.Fatalf("numeric keys must compare by value")
	}

	negative := NewOrderedMap()
	negative.Set(NewInt(-1), NewString("x"))
	negative.Set(NewInt(0), NewString("y"))
	negative.Set(NewInt(2), NewString("z"))
	if negative.IsArray() {
		t.Fatalf("keys -1, 0, 2 do not form an array")
	}
	if got := Display(NewObject(negative)); strings.HasPrefix(got, "[") {
		t.Fatalf("map with a negative key must display as an object, got %s", got)
	}
}

func TestMakeIterator(t *testing.T) {
	it, err := MakeIterator(obj("a", NewInt(1)))
	if err != nil {
		t.Fatalf("iterator: %v", err)
	}
	iter, _ := it.Iterator()
	pair, ok := iter.Next()
	if !ok || Display(pair) != "[a, 1]" {
		t.Fatalf("expected key/value pair, got %v", pair)
	}
	if _, ok := iter.Next(); ok {
		t.Fatalf("expected exhausted iterator")
	}
	if _, err := MakeIterator(NewInt(3)); err == nil || err.Error() != "[number] is not iterable." {
		t.Fatalf("expected not iterable error, got %v", err)
	}
}

func TestMarshalJSONKeepsOrder(t *testing.T) {
	v := obj("z", NewInt(1), "a", NewArray(NewBoolean(true), Empty()), "k", NewString("x"))
	data, err := MarshalJSON(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"z":1,"a":[true,null],"k":"x"}`
	if string(data) != want {
		t.Fatalf("expected %s, got %s", want, data)
	}
}
