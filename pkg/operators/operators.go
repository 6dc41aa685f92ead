package operators

import (
	"fmt"
	"sort"
	"strings"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

// Apply computes the result of one type action. Operands are the live value
// cells, so mutating operators such as ++ can update them in place.
type Apply func(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error)

// Action accepts one combination of operand types. Types holds the accepted
// type names per operand position; "any" matches every value.
type Action struct {
	Types [][]string
	Apply Apply
}

// Accepts reports whether the operand types satisfy this action.
func (a Action) Accepts(args []*runtime.Value) bool {
	if len(a.Types) != len(args) {
		return false
	}
	for idx, accepted := range a.Types {
		matched := false
		for _, typ := range accepted {
			if runtime.IsType(args[idx].Type(), typ) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (a Action) describe(symbol string, fixity ast.Fixity) string {
	first := func(i int) string {
		if i < len(a.Types) && len(a.Types[i]) > 0 {
			return a.Types[i][0]
		}
		return runtime.TypeAny
	}
	switch fixity {
	case ast.FixityPrefix:
		return symbol + first(0)
	case ast.FixityPostfix:
		return first(0) + symbol
	default:
		return first(0) + " " + symbol + " " + first(1)
	}
}

// Operator is a named operator with a precedence, a fixity and its type
// actions. Operators without actions are handled by the evaluator itself.
type Operator struct {
	Symbol     string
	Precedence int
	Fixity     ast.Fixity
	Actions    []Action
}

// Arity is the number of operands implied by the fixity.
func (o *Operator) Arity() int {
	if o.Fixity == ast.FixityInfix {
		return 2
	}
	return 1
}

func (o *Operator) String() string {
	switch o.Fixity {
	case ast.FixityPrefix:
		return fmt.Sprintf("%s (%d r)", o.Symbol, o.Precedence)
	case ast.FixityPostfix:
		return fmt.Sprintf("%s (%d l)", o.Symbol, o.Precedence)
	default:
		return fmt.Sprintf("%s (%d l r)", o.Symbol, o.Precedence)
	}
}

// Evaluate dispatches to the first action accepting the operands. When none
// does and an operand is an object, the operator is broadcast over its values.
func (o *Operator) Evaluate(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if len(args) != o.Arity() {
		return nil, fmt.Errorf("Operator %s requires %d argument%s, but %d were given", o.Symbol, o.Arity(), plural(o.Arity()), len(args))
	}
	if len(o.Actions) == 0 {
		return nil, fmt.Errorf("Operator %s cannot be evaluated directly", o.Symbol)
	}
	return o.dispatch(call, args)
}

func (o *Operator) dispatch(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	for _, action := range o.Actions {
		if action.Accepts(args) {
			return action.Apply(call, args)
		}
	}
	if len(args) == 1 {
		if m, ok := args[0].Map(); ok {
			return o.broadcast(m, func(v *runtime.Value) (*runtime.Value, error) {
				return o.dispatch(call, []*runtime.Value{v})
			})
		}
		return nil, fmt.Errorf("No matching type found for %s on %s\nAvailable types: %s", o.Symbol, args[0], o.combinations())
	}

	left, right := args[0], args[1]
	leftMap, leftIsMap := left.Map()
	rightMap, rightIsMap := right.Map()
	switch {
	case leftIsMap && rightIsMap:
		if leftMap.Len() != rightMap.Len() {
			return nil, fmt.Errorf("Both objects must have the same size, but was: %d != %d", leftMap.Len(), rightMap.Len())
		}
		for _, key := range leftMap.Keys() {
			if !rightMap.Has(key) {
				return nil, fmt.Errorf("Both objects must contain the same keys, but was: %s %s %s", keyList(leftMap), o.Symbol, keyList(rightMap))
			}
		}
		out := runtime.NewOrderedMap()
		var err error
		leftMap.Range(func(key, value *runtime.Value) bool {
			other, _ := rightMap.Get(key)
			var combined *runtime.Value
			combined, err = o.dispatch(call, []*runtime.Value{value, other})
			if err != nil {
				return false
			}
			out.Set(key, combined)
			return true
		})
		if err != nil {
			return nil, err
		}
		return runtime.NewObject(out), nil
	case leftIsMap:
		return o.broadcast(leftMap, func(v *runtime.Value) (*runtime.Value, error) {
			return o.dispatch(call, []*runtime.Value{v, right})
		})
	case rightIsMap:
		return o.broadcast(rightMap, func(v *runtime.Value) (*runtime.Value, error) {
			return o.dispatch(call, []*runtime.Value{left, v})
		})
	}
	return nil, fmt.Errorf("No matching type combination found for %s %s %s\nAvailable combination%s: %s", left, o.Symbol, right, plural(len(o.Actions)), o.combinations())
}

func (o *Operator) broadcast(m *runtime.OrderedMap, apply func(*runtime.Value) (*runtime.Value, error)) (*runtime.Value, error) {
	out := runtime.NewOrderedMap()
	var err error
	m.Range(func(key, value *runtime.Value) bool {
		var mapped *runtime.Value
		mapped, err = apply(value)
		if err != nil {
			return false
		}
		out.Set(key, mapped)
		return true
	})
	if err != nil {
		return nil, err
	}
	return runtime.NewObject(out), nil
}

func (o *Operator) combinations() string {
	if len(o.Actions) == 0 {
		return "none"
	}
	parts := make([]string, len(o.Actions))
	for i, action := range o.Actions {
		parts[i] = action.describe(o.Symbol, o.Fixity)
	}
	return strings.Join(parts, ", ")
}

func keyList(m *runtime.OrderedMap) string {
	keys := m.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = runtime.Display(k)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Table is the set of operators known to an interpreter.
type Table struct {
	operators []*Operator
}

func NewTable() *Table {
	return &Table{}
}

// Add registers an operator, replacing one with the same symbol and fixity.
func (t *Table) Add(op *Operator) {
	for i, existing := range t.operators {
		if existing.Symbol == op.Symbol && existing.Fixity == op.Fixity {
			t.operators[i] = op
			return
		}
	}
	t.operators = append(t.operators, op)
	sort.SliceStable(t.operators, func(i, j int) bool {
		a, b := t.operators[i], t.operators[j]
		if a.Precedence != b.Precedence {
			return a.Precedence > b.Precedence
		}
		return len(a.Symbol) > len(b.Symbol)
	})
}

// Find looks up an operator by symbol and fixity.
func (t *Table) Find(symbol string, fixity ast.Fixity) (*Operator, bool) {
	for _, op := range t.operators {
		if op.Symbol == symbol && op.Fixity == fixity {
			return op, true
		}
	}
	return nil, false
}

// Operators lists the registered operators, highest precedence first.
func (t *Table) Operators() []*Operator {
	out := make([]*Operator, len(t.operators))
	copy(out, t.operators)
	return out
}

// Evaluate finds the operator and applies it.
func (t *Table) Evaluate(call *runtime.CallContext, symbol string, fixity ast.Fixity, args []*runtime.Value) (*runtime.Value, error) {
	op, ok := t.Find(symbol, fixity)
	if !ok {
		return nil, fmt.Errorf("Unknown %s operator %s", fixity, symbol)
	}
	return op.Evaluate(call, args)
}
