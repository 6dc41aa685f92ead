package interpreter

import (
	"fmt"
	"strings"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

const (
	keyExtends = "$extends"
	keyFields  = "$fields"
	keyInit    = "$init"
)

func (i *Interpreter) evaluateArguments(args []ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) ([]*runtime.Value, error) {
	values := make([]*runtime.Value, len(args))
	for idx, a := range args {
		v, err := i.evalValue(a, g, throwIfMissing, frame)
		if err != nil {
			return nil, err
		}
		values[idx] = v
	}
	return values, nil
}

// evaluateFunctionCall calls the callee. A dotted callee is resolved as one
// access chain so the receiver object is bound as self.
func (i *Interpreter) evaluateFunctionCall(call *ast.FunctionCall, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	if chain, ok := call.Callee.(*ast.Access); ok && len(chain.Steps) > 1 {
		steps := make([]ast.Node, 0, len(chain.Steps)+1)
		steps = append(steps, chain.Steps...)
		steps = append(steps, ast.NewCall(call.Args))
		return i.resolve(call, steps, throwIfMissing, g, frame)
	}
	callee, err := i.evalValue(call.Callee, g, throwIfMissing, frame)
	if err != nil {
		return nil, err
	}
	args, err := i.evaluateArguments(call.Args, g, frame)
	if err != nil {
		return nil, err
	}
	return i.callFunction(callee, args, g, frame, ast.Code(call.Callee), nil)
}

func (i *Interpreter) evaluateConstructorCall(call *ast.ConstructorCall, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	return i.construct(call.Callee, call.Args, g, frame)
}

// construct implements "new callee(args)". Host types build a custom instance;
// functions run with an args object mapping parameter names to arguments.
func (i *Interpreter) construct(calleeNode ast.Node, argNodes []ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	callee, err := i.evalValue(calleeNode, g, throwIfMissing, frame)
	if err != nil {
		return nil, err
	}
	args, err := i.evaluateArguments(argNodes, g, frame)
	if err != nil {
		return nil, err
	}
	if callee.Kind() == runtime.KindHostType {
		desc := callee.Payload().(*runtime.TypeDescriptor)
		instance, err := desc.Instantiate(i.callContext(g, frame), args)
		if err != nil {
			return nil, frame.Wrap(g, runtime.ErrConstruction, err)
		}
		return instance, nil
	}
	if !callee.IsFunction() {
		return nil, frame.Errorf(g, runtime.ErrConstruction, "Constructor call is not a function or a class: %s", ast.Code(calleeNode))
	}
	argsObject := constructorArgs(callee, args)
	return i.callFunction(callee, args, g, frame, ast.Code(calleeNode), func(local *runtime.Frame) {
		local.PutOnTop("args", argsObject)
	})
}

func constructorArgs(callee *runtime.Value, args []*runtime.Value) *runtime.Value {
	fn, ok := callee.Function()
	if !ok {
		return runtime.NewArray(args...)
	}
	m := runtime.NewOrderedMap()
	for idx, name := range fn.Params {
		if idx < len(args) {
			m.SetString(name, args[idx])
		}
	}
	return runtime.NewObject(m)
}

//-----------------------------------------------------------------------------
// Operators
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateOperatorExpression(expr *ast.OperatorExpression, g *runtime.GlobalContext, mode symbolMode, frame *runtime.Frame) (*runtime.Value, error) {
	op, ok := i.operators.Find(expr.Operator, expr.Fixity)
	if !ok {
		return nil, frame.Errorf(g, runtime.ErrTypeMismatch, "Unknown %s operator %s", expr.Fixity, expr.Operator)
	}
	if len(expr.Operands) != op.Arity() {
		return nil, frame.Errorf(g, runtime.ErrArity, "Operator %s requires %d arguments, but %d were given", op.Symbol, op.Arity(), len(expr.Operands))
	}

	if expr.Fixity == ast.FixityInfix && (op.Symbol == "&&" || op.Symbol == "||") {
		left, err := i.evalValue(expr.Operands[0], g, throwIfMissing, frame)
		if err != nil {
			return nil, err
		}
		if b, isBool := left.Bool(); isBool && b == (op.Symbol == "||") {
			return runtime.NewBoolean(b), nil
		}
		right, err := i.evalValue(expr.Operands[1], g, throwIfMissing, frame)
		if err != nil {
			return nil, err
		}
		return i.applyOperator(op.Symbol, op.Fixity, []*runtime.Value{left, right}, g, frame)
	}

	operandMode := throwIfMissing
	if expr.Fixity == ast.FixityPrefix && (op.Symbol == "++" || op.Symbol == "--") {
		operandMode = createNew
	}
	operands := make([]*runtime.Value, len(expr.Operands))
	for idx, operand := range expr.Operands {
		v, err := i.evalValue(operand, g, operandMode, frame)
		if err != nil {
			return nil, err
		}
		operands[idx] = v
	}
	return i.applyOperator(op.Symbol, op.Fixity, operands, g, frame)
}

func (i *Interpreter) applyOperator(symbol string, fixity ast.Fixity, args []*runtime.Value, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	out, err := i.operators.Evaluate(i.callContext(g, frame), symbol, fixity, args)
	if err != nil {
		return nil, frame.Wrap(g, runtime.ErrTypeMismatch, err)
	}
	return out, nil
}

// evaluateOperatorFunction turns an operator into a native function value.
func (i *Interpreter) evaluateOperatorFunction(fn *ast.OperatorFunction, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	op, ok := i.operators.Find(fn.Operator, fn.Fixity)
	if !ok {
		return nil, frame.Errorf(g, runtime.ErrTypeMismatch, "Unknown %s operator %s", fn.Fixity, fn.Operator)
	}
	name := fmt.Sprintf("operator %s (%s)", op.Symbol, op.Fixity)
	return runtime.NewNative(name, func(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		return op.Evaluate(call, args)
	}), nil
}

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

// evaluateParenthesis yields the value of a single element and a list
// otherwise.
func (i *Interpreter) evaluateParenthesis(paren *ast.Parenthesis, g *runtime.GlobalContext, mode symbolMode, frame *runtime.Frame) (*runtime.Value, error) {
	if len(paren.Elements) == 1 {
		return i.evalValue(paren.Elements[0], g, mode, frame)
	}
	values, err := i.evaluateArguments(paren.Elements, g, frame)
	if err != nil {
		return nil, err
	}
	for idx, v := range values {
		values[idx] = v.Copy()
	}
	return runtime.NewArray(values...), nil
}

// evaluateArrayLiteral evaluates every element with self bound to the array
// under construction.
func (i *Interpreter) evaluateArrayLiteral(arr *ast.ArrayLiteral, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	result := runtime.NewArray()
	m, _ := result.Map()
	for idx, element := range arr.Elements {
		local := frame.Fork()
		local.PutSelf(result)
		v, err := i.evalValue(element, g, throwIfMissing, local)
		if err != nil {
			return nil, err
		}
		m.Set(runtime.NewInt(int64(idx)), v.Copy())
	}
	return result, nil
}

// evaluateMapLiteral builds an object in three passes: inherited and declared
// fields, then the remaining entries with self bound, then $init.
func (i *Interpreter) evaluateMapLiteral(lit *ast.MapLiteral, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	result := runtime.NewObject(nil)
	m, _ := result.Map()

	var initNode ast.Node
	for _, entry := range lit.Entries {
		switch specialKey(entry.Key) {
		case keyExtends:
			if err := i.extendObject(m, entry.Value, g, frame); err != nil {
				return nil, err
			}
		case keyFields:
			if err := copyFields(m, entry.Value, g, frame); err != nil {
				return nil, err
			}
		case keyInit:
			initNode = entry.Value
		}
	}

	for _, entry := range lit.Entries {
		if specialKey(entry.Key) != "" {
			continue
		}
		local := frame.Fork()
		local.PutSelf(result)
		key, err := i.mapKey(entry.Key, g, local)
		if err != nil {
			return nil, err
		}
		if s, ok := key.Str(); ok && strings.HasPrefix(s, "$") {
			key = runtime.NewString(strings.TrimPrefix(s, "$"))
		}
		v, err := i.evalValue(entry.Value, g, throwIfMissing, local)
		if err != nil {
			return nil, err
		}
		m.Set(key, v.Copy())
	}

	if initNode != nil {
		local := frame.Fork()
		local.PutSelf(result)
		init, err := i.evalValue(initNode, g, throwIfMissing, local)
		if err != nil {
			return nil, err
		}
		if _, err := i.callFunction(init, nil, g, local, keyInit, func(fnFrame *runtime.Frame) {
			fnFrame.PutSelf(result)
		}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// specialKey returns the construction key an entry uses, or "".
func specialKey(key ast.Node) string {
	var name string
	switch k := key.(type) {
	case *ast.Identifier:
		name = k.Name
	case *ast.StringLiteral:
		name = k.Value
	}
	switch name {
	case keyExtends, keyFields, keyInit:
		return name
	}
	return ""
}

func (i *Interpreter) mapKey(key ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	switch k := key.(type) {
	case *ast.Identifier:
		return runtime.NewString(k.Name), nil
	case ast.Literal:
		return i.evalValue(k, g, throwIfMissing, frame)
	}
	v, err := i.evalValue(key, g, throwIfMissing, frame)
	if err != nil {
		return nil, err
	}
	return runtime.NewString(runtime.Display(v)), nil
}

// extendObject copies the entries of every $extends source into m, later
// sources overriding earlier ones.
func (i *Interpreter) extendObject(m *runtime.OrderedMap, node ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) error {
	sources := []ast.Node{node}
	if arr, ok := node.(*ast.ArrayLiteral); ok {
		sources = arr.Elements
	}
	for _, source := range sources {
		base, err := i.evaluateExtendsSource(source, g, frame)
		if err != nil {
			return err
		}
		baseMap, ok := base.Map()
		if !ok {
			return frame.Errorf(g, runtime.ErrConstruction, "Invalid $extends value, expected an object: %s", base.Type())
		}
		baseMap.Range(func(key, value *runtime.Value) bool {
			m.Set(key, value)
			return true
		})
	}
	return nil
}

// evaluateExtendsSource evaluates a call written in an $extends entry as a
// constructor call.
func (i *Interpreter) evaluateExtendsSource(source ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	switch s := source.(type) {
	case *ast.FunctionCall:
		return i.construct(s.Callee, s.Args, g, frame)
	case *ast.Access:
		if n := len(s.Steps); n > 1 {
			if call, ok := s.Steps[n-1].(*ast.Call); ok {
				var callee ast.Node = ast.NewAccess(s.Steps[:n-1])
				if n == 2 {
					callee = s.Steps[0]
				}
				return i.construct(callee, call.Args, g, frame)
			}
		}
	}
	return i.evalValue(source, g, throwIfMissing, frame)
}

// copyFields copies the listed names out of the args binding.
func copyFields(m *runtime.OrderedMap, node ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) error {
	list, ok := node.(*ast.ArrayLiteral)
	if !ok {
		return frame.Errorf(g, runtime.ErrConstruction, "Invalid $fields value, expected a list of identifiers: %s", ast.Code(node))
	}
	var argsMap *runtime.OrderedMap
	if args, found := frame.Get("args"); found {
		argsMap, _ = args.Map()
	}
	for _, element := range list.Elements {
		id, ok := element.(*ast.Identifier)
		if !ok {
			return frame.Errorf(g, runtime.ErrConstruction, "Invalid $fields value, expected a list of identifiers: %s", ast.Code(node))
		}
		var value *runtime.Value
		if argsMap != nil {
			value, ok = argsMap.GetString(id.Name)
		}
		if argsMap == nil || !ok {
			return frame.Errorf(g, runtime.ErrConstruction, "Invalid $fields value, field not found in args: %s", id.Name)
		}
		m.SetString(id.Name, value.Copy())
	}
	return nil
}
