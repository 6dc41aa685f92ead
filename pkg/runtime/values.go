package runtime

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"menter/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindString
	KindBoolean
	KindRegex
	KindObject
	KindFunction
	KindValueFunction
	KindNativeFunction
	KindReflectiveFunction
	KindIterator
	KindCustomType
	KindHostType
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindRegex:
		return "regex"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindValueFunction:
		return "value_function"
	case KindNativeFunction:
		return "native_function"
	case KindReflectiveFunction:
		return "reflective_function"
	case KindIterator:
		return "iterator"
	case KindCustomType:
		return "custom_type"
	case KindHostType:
		return "type"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// TypeAny matches every kind in type checks.
const TypeAny = "any"

// IsType reports whether a type name satisfies an expected type name. "any"
// on either side matches, and "function" matches every callable kind.
func IsType(actual, expected string) bool {
	if expected == actual || expected == TypeAny || actual == TypeAny {
		return true
	}
	if expected == KindFunction.String() {
		switch actual {
		case KindValueFunction.String(), KindNativeFunction.String(), KindReflectiveFunction.String():
			return true
		}
	}
	return false
}

// Value is the mutable cell every binding and container slot refers to.
// Several names may share one cell, so reassigning through Inherit is
// visible through all of them.
type Value struct {
	kind    Kind
	payload any

	// closure records where a function value was defined.
	closure *Closure
	// receiver is the value a value function was accessed on.
	receiver *Value
}

// Closure is the capture attached to function values created by declarations
// and function literals.
type Closure struct {
	Context *GlobalContext
	Frame   *Frame
}

// Function is a closure over Menter code.
type Function struct {
	Params []string
	Body   ast.Node
	// Context is the global context the function was declared in.
	Context *GlobalContext
}

// NativeFunc is a host function callable from Menter code.
type NativeFunc func(call *CallContext, args []*Value) (*Value, error)

// NativeFunction wraps a NativeFunc with a name used for display and traces.
type NativeFunction struct {
	Name string
	Impl NativeFunc
}

// MethodFunc is a built-in method implementation receiving its receiver.
type MethodFunc func(call *CallContext, self *Value, args []*Value) (*Value, error)

// Method is a built-in method value before it is bound to a receiver.
type Method struct {
	Name string
	Impl MethodFunc
}

// Regex is a compiled regular expression literal.
type Regex struct {
	Pattern string
	Flags   string
	Re      *regexp.Regexp
}

//-----------------------------------------------------------------------------
// Constructors
//-----------------------------------------------------------------------------

func Empty() *Value {
	return &Value{kind: KindEmpty}
}

func NewNumber(d decimal.Decimal) *Value {
	return &Value{kind: KindNumber, payload: normalizeNumber(d)}
}

func NewInt(n int64) *Value {
	return &Value{kind: KindNumber, payload: decimal.NewFromInt(n)}
}

func NewString(s string) *Value {
	return &Value{kind: KindString, payload: s}
}

func NewBoolean(b bool) *Value {
	return &Value{kind: KindBoolean, payload: b}
}

func NewRegex(r *Regex) *Value {
	return &Value{kind: KindRegex, payload: r}
}

func NewObject(m *OrderedMap) *Value {
	if m == nil {
		m = NewOrderedMap()
	}
	return &Value{kind: KindObject, payload: m}
}

// NewArray builds an array-like object with keys 0..n-1.
func NewArray(items ...*Value) *Value {
	m := NewOrderedMap()
	for i, item := range items {
		if item == nil {
			item = Empty()
		}
		m.Set(NewInt(int64(i)), item)
	}
	return NewObject(m)
}

// NewStringArray is a convenience for lists of names.
func NewStringArray(items []string) *Value {
	values := make([]*Value, len(items))
	for i, item := range items {
		values[i] = NewString(item)
	}
	return NewArray(values...)
}

func NewFunction(fn *Function) *Value {
	return &Value{kind: KindFunction, payload: fn}
}

func NewNative(name string, impl NativeFunc) *Value {
	return &Value{kind: KindNativeFunction, payload: &NativeFunction{Name: name, Impl: impl}}
}

// NewBoundMethod binds a built-in method to its receiver.
func NewBoundMethod(method *Method, receiver *Value) *Value {
	return &Value{kind: KindValueFunction, payload: method, receiver: receiver}
}

func NewIterator(it *Iterator) *Value {
	return &Value{kind: KindIterator, payload: it}
}

func NewCustom(instance *CustomInstance) *Value {
	return &Value{kind: KindCustomType, payload: instance}
}

func NewHostType(desc *TypeDescriptor) *Value {
	return &Value{kind: KindHostType, payload: desc}
}

// NewHostMethod wraps a host type method so it can be called like a function.
func NewHostMethod(method *HostMethod, receiver *Value) *Value {
	return &Value{kind: KindReflectiveFunction, payload: method, receiver: receiver}
}

//-----------------------------------------------------------------------------
// Accessors
//-----------------------------------------------------------------------------

func (v *Value) Kind() Kind {
	if v == nil {
		return KindEmpty
	}
	return v.kind
}

// Type returns the user visible type name.
func (v *Value) Type() string {
	if v == nil {
		return KindEmpty.String()
	}
	return v.kind.String()
}

func (v *Value) IsEmpty() bool {
	return v == nil || v.kind == KindEmpty
}

// IsFunction reports whether the value is any kind of callable.
func (v *Value) IsFunction() bool {
	switch v.Kind() {
	case KindFunction, KindValueFunction, KindNativeFunction, KindReflectiveFunction:
		return true
	}
	return false
}

func (v *Value) Payload() any {
	if v == nil {
		return nil
	}
	return v.payload
}

func (v *Value) Number() (decimal.Decimal, bool) {
	switch v.Kind() {
	case KindNumber:
		return v.payload.(decimal.Decimal), true
	case KindCustomType:
		inst := v.payload.(*CustomInstance)
		if inst.Type.Numeric != nil {
			return inst.Type.Numeric(inst.Data)
		}
	}
	return decimal.Zero, false
}

func (v *Value) Str() (string, bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.payload.(string), true
}

func (v *Value) Bool() (bool, bool) {
	if v.Kind() != KindBoolean {
		return false, false
	}
	return v.payload.(bool), true
}

func (v *Value) Map() (*OrderedMap, bool) {
	if v.Kind() != KindObject {
		return nil, false
	}
	return v.payload.(*OrderedMap), true
}

func (v *Value) Function() (*Function, bool) {
	if v.Kind() != KindFunction {
		return nil, false
	}
	return v.payload.(*Function), true
}

func (v *Value) Iterator() (*Iterator, bool) {
	if v.Kind() != KindIterator {
		return nil, false
	}
	return v.payload.(*Iterator), true
}

func (v *Value) Custom() (*CustomInstance, bool) {
	if v.Kind() != KindCustomType {
		return nil, false
	}
	return v.payload.(*CustomInstance), true
}

func (v *Value) RegexValue() (*Regex, bool) {
	if v.Kind() != KindRegex {
		return nil, false
	}
	return v.payload.(*Regex), true
}

// Closure returns the capture tag of a function value.
func (v *Value) Closure() *Closure {
	if v == nil {
		return nil
	}
	return v.closure
}

// SetClosure tags a function value with its defining context and frame.
func (v *Value) SetClosure(c *Closure) {
	v.closure = c
}

// Receiver returns the value a method was accessed on, if any.
func (v *Value) Receiver() *Value {
	if v == nil {
		return nil
	}
	return v.receiver
}

//-----------------------------------------------------------------------------
// Mutation
//-----------------------------------------------------------------------------

// Inherit overwrites this cell with the payload and tags of other. The cell
// identity is kept, so every alias observes the new contents.
func (v *Value) Inherit(other *Value) {
	if other == nil {
		other = Empty()
	}
	v.kind = other.kind
	v.payload = other.payload
	v.closure = other.closure
	v.receiver = other.receiver
}

// Copy returns a new cell holding the same payload and tags.
func (v *Value) Copy() *Value {
	out := Empty()
	out.Inherit(v)
	return out
}

// Clear turns the cell into the empty value.
func (v *Value) Clear() {
	v.kind = KindEmpty
	v.payload = nil
	v.closure = nil
	v.receiver = nil
}

// SetMap replaces the cell contents with the given map.
func (v *Value) SetMap(m *OrderedMap) {
	v.Clear()
	v.kind = KindObject
	v.payload = m
}

func (v *Value) String() string {
	return Display(v) + " (" + v.Type() + ")"
}
