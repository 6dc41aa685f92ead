package interpreter

import (
	"fmt"
	"strings"

	"fortio.org/log"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateSequence(body []ast.Node, g *runtime.GlobalContext, mode symbolMode, frame *runtime.Frame) (completion, error) {
	result := normal(nil)
	for _, stmt := range body {
		var err error
		result, err = i.eval(stmt, g, mode, frame)
		if err != nil {
			return completion{}, err
		}
		if result.abrupt() {
			return result, nil
		}
	}
	return result, nil
}

// evaluateConditional runs the first branch whose condition is true. All
// branches share one forked frame.
func (i *Interpreter) evaluateConditional(cond *ast.Conditional, g *runtime.GlobalContext, frame *runtime.Frame) (completion, error) {
	local := frame.Fork()
	for _, branch := range cond.Branches {
		if branch.Condition == nil {
			return i.eval(branch.Body, g, throwIfMissing, local)
		}
		test, err := i.evalValue(branch.Condition, g, throwIfMissing, local)
		if err != nil {
			return completion{}, err
		}
		if test.IsTrue() {
			return i.eval(branch.Body, g, throwIfMissing, local)
		}
	}
	return normal(nil), nil
}

func (i *Interpreter) evaluateReturn(stmt *ast.ReturnStatement, g *runtime.GlobalContext, frame *runtime.Frame) (completion, error) {
	value := runtime.Empty()
	if stmt.Argument != nil {
		v, err := i.evalValue(stmt.Argument, g, throwIfMissing, frame)
		if err != nil {
			return completion{}, err
		}
		value = v
	}
	return completion{value: value, flow: flowReturn}, nil
}

// loopBody evaluates one pass. It reports whether the loop has to stop and
// the completion to hand outward when it does.
func (i *Interpreter) loopBody(body ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) (completion, bool, error) {
	result, err := i.eval(body, g, throwIfMissing, frame)
	if err != nil {
		return completion{}, true, err
	}
	switch result.flow {
	case flowBreak:
		return normal(nil), true, nil
	case flowReturn:
		return result, true, nil
	case flowContinue:
		return normal(nil), false, nil
	}
	return result, false, nil
}

func (i *Interpreter) evaluateForLoop(loop *ast.ForLoop, g *runtime.GlobalContext, frame *runtime.Frame) (completion, error) {
	iterable, err := i.evalValue(loop.Iterable, g, throwIfMissing, frame)
	if err != nil {
		return completion{}, err
	}
	itValue, err := runtime.MakeIterator(iterable)
	if err != nil {
		return completion{}, frame.Wrap(g, runtime.ErrInvalidControl, err)
	}
	it, ok := itValue.Iterator()
	if !ok {
		return completion{}, frame.Errorf(g, runtime.ErrInvalidControl, "Iterator element did not provide iterable")
	}

	last := normal(nil)
	for {
		element, ok := it.Next()
		if !ok {
			return last, nil
		}
		local := frame.Fork()
		if err := bindLoopVariables(loop.Variables, element, local); err != nil {
			return completion{}, frame.Wrap(g, runtime.ErrInvalidControl, err)
		}
		result, stop, err := i.loopBody(loop.Body, g, local)
		if err != nil {
			return completion{}, err
		}
		if stop {
			return result, nil
		}
		last = result
	}
}

// bindLoopVariables binds the loop variables of one iteration. An array
// element is spread over as many variables; a key/value pair bound to a single
// variable yields the value.
func bindLoopVariables(names []string, element *runtime.Value, frame *runtime.Frame) error {
	if m, ok := element.Map(); ok && m.IsArray() {
		items := m.Values()
		switch {
		case len(items) == len(names):
			for idx, name := range names {
				frame.PutOnTop(name, items[idx].Copy())
			}
			return nil
		case len(items) == 2 && len(names) == 1:
			frame.PutOnTop(names[0], items[1].Copy())
			return nil
		}
		return fmt.Errorf("Expected %d variables, but got %d for iterator element: %s", len(names), len(items), runtime.Display(element))
	}
	if len(names) == 1 {
		frame.PutOnTop(names[0], element.Copy())
		return nil
	}
	return fmt.Errorf("Iterator element is %s but expected object: %s", element.Type(), runtime.Display(element))
}

// evaluateWhileLoop reuses one forked frame for every pass.
func (i *Interpreter) evaluateWhileLoop(loop *ast.WhileLoop, g *runtime.GlobalContext, frame *runtime.Frame) (completion, error) {
	local := frame.Fork()
	last := normal(nil)
	for {
		cond, err := i.evalValue(loop.Condition, g, throwIfMissing, local)
		if err != nil {
			return completion{}, err
		}
		proceed, ok := cond.Bool()
		if !ok {
			return completion{}, local.Errorf(g, runtime.ErrInvalidControl, "While condition is not a boolean: %s", runtime.Display(cond))
		}
		if !proceed {
			return last, nil
		}
		result, stop, err := i.loopBody(loop.Body, g, local)
		if err != nil {
			return completion{}, err
		}
		if stop {
			return result, nil
		}
		last = result
	}
}

//-----------------------------------------------------------------------------
// Assignment and declarations
//-----------------------------------------------------------------------------

func (i *Interpreter) evaluateAssignment(assign *ast.Assignment, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	if hint, isCall := assignmentCallHint(assign.Target); isCall {
		return nil, frame.Errorf(g, runtime.ErrInvalidControl, "Cannot assign to %s\n%s", ast.Code(assign.Target), hint)
	}
	value, err := i.evalValue(assign.Value, g, throwIfMissing, frame)
	if err != nil {
		return nil, err
	}
	target, err := i.evalValue(assign.Target, g, createIfMissing, frame)
	if err != nil {
		return nil, err
	}
	if assign.Operator != "" && assign.Operator != "=" && !target.IsEmpty() {
		combined, err := i.applyOperator(assign.Operator, ast.FixityInfix, []*runtime.Value{target, value}, g, frame)
		if err != nil {
			return nil, err
		}
		target.Inherit(combined)
	} else {
		target.Inherit(value)
	}
	if target.IsFunction() && target.Closure() == nil {
		target.SetClosure(&runtime.Closure{Context: g, Frame: frame})
	}
	if i.opts.LogAssignments {
		log.Infof("assignment: [%s] = [%s]", ast.Code(assign.Target), runtime.Display(target))
	}
	return target, nil
}

// assignmentCallHint reports whether target is a call and explains what was
// probably meant.
func assignmentCallHint(target ast.Node) (string, bool) {
	switch t := target.(type) {
	case *ast.FunctionCall:
		return "Assignments are not allowed on function calls. Try removing the parentheses.", true
	case *ast.Access:
		if len(t.Steps) == 0 {
			return "", false
		}
		call, ok := t.Steps[len(t.Steps)-1].(*ast.Call)
		if !ok {
			return "", false
		}
		params := make([]string, len(call.Args))
		for idx, a := range call.Args {
			params[idx] = ast.Code(a)
		}
		receiver := ast.Code(ast.NewAccess(t.Steps[:len(t.Steps)-1]))
		return fmt.Sprintf("To define a function on an object, use the '->' arrow syntax: %s = (%s) -> { ... }", receiver, strings.Join(params, ", ")), true
	}
	return "", false
}

func (i *Interpreter) functionValue(params []string, body ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) *runtime.Value {
	fn := runtime.NewFunction(&runtime.Function{Params: params, Body: body, Context: g})
	fn.SetClosure(&runtime.Closure{Context: g, Frame: frame})
	return fn
}

func (i *Interpreter) evaluateFunctionDeclaration(decl *ast.FunctionDeclaration, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	var fn *runtime.Value
	if decl.Native {
		if !frame.IsRoot() {
			return nil, frame.Errorf(g, runtime.ErrNative, "Native functions can only be declared in the global context")
		}
		candidates := make([]string, 0, len(g.Modules)+1)
		for _, m := range g.Modules {
			candidates = append(candidates, m.Name)
		}
		candidates = append(candidates, g.Source)
		impl, ok := i.lookupNative(candidates, decl.Name)
		if !ok {
			return nil, frame.Errorf(g, runtime.ErrNative, "Native function [%s] not found using candidates: [%s]", decl.Name, strings.Join(candidates, ", "))
		}
		fn = runtime.NewNative(decl.Name, impl)
	} else {
		fn = i.functionValue(decl.Params, decl.Body, g, frame)
	}
	target, err := i.resolve(decl, []ast.Node{ast.NewIdentifier(decl.Name)}, createIfMissing, g, frame)
	if err != nil {
		return nil, err
	}
	target.Inherit(fn)
	return target, nil
}
