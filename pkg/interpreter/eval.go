package interpreter

import (
	"strings"

	"fortio.org/log"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

// flow is the control signal a completed evaluation carries outward.
type flow int

const (
	flowNormal flow = iota
	flowReturn
	flowBreak
	flowContinue
)

func (f flow) String() string {
	switch f {
	case flowReturn:
		return "return"
	case flowBreak:
		return "break"
	case flowContinue:
		return "continue"
	default:
		return "normal"
	}
}

// completion is the result of evaluating a node. Sequences stop at the first
// abrupt completion, loops consume break and continue, and function calls
// consume return.
type completion struct {
	value *runtime.Value
	flow  flow
}

func normal(v *runtime.Value) completion {
	if v == nil {
		v = runtime.Empty()
	}
	return completion{value: v}
}

// loopSignal reports a break or continue that escaped every loop.
func (c completion) loopSignal() bool {
	return c.flow == flowBreak || c.flow == flowContinue
}

func (c completion) abrupt() bool {
	return c.flow != flowNormal
}

// symbolMode controls what resolution does with missing symbols.
type symbolMode int

const (
	throwIfMissing symbolMode = iota
	createIfMissing
	// createNew replaces an existing binding with a fresh copy before use.
	createNew
)

func (m symbolMode) creates() bool {
	return m == createIfMissing || m == createNew
}

// eval evaluates one node. Every node except sequences is recorded on the
// stack trace while it runs.
func (i *Interpreter) eval(node ast.Node, g *runtime.GlobalContext, mode symbolMode, frame *runtime.Frame) (completion, error) {
	if node == nil {
		return normal(nil), nil
	}
	if _, isSeq := node.(ast.Sequence); !isSeq {
		depth := frame.Trace().Push(g.Source, node)
		defer frame.Trace().PopTo(depth)
	}
	if d := i.opts.Debugger; d != nil && d.shouldHalt(node) {
		if err := i.breakpointReached(node, g, frame); err != nil {
			return completion{}, err
		}
	}
	style := i.opts.Trace
	if style == 1 || style == 2 {
		log.Infof("%s%s", traceIndent(frame), ast.Code(node))
	}
	result, err := i.evalNode(node, g, mode, frame)
	if err != nil {
		return completion{}, err
	}
	if style >= 2 {
		log.Infof("%s%s -> %s", traceIndent(frame), ast.Code(node), runtime.Display(result.value))
	}
	return result, nil
}

func traceIndent(frame *runtime.Frame) string {
	return strings.Repeat("  ", frame.Trace().Depth())
}

// evalValue evaluates an expression whose control signal does not matter.
func (i *Interpreter) evalValue(node ast.Node, g *runtime.GlobalContext, mode symbolMode, frame *runtime.Frame) (*runtime.Value, error) {
	result, err := i.eval(node, g, mode, frame)
	if err != nil {
		return nil, err
	}
	return result.value, nil
}

func (i *Interpreter) evalNode(node ast.Node, g *runtime.GlobalContext, mode symbolMode, frame *runtime.Frame) (completion, error) {
	switch n := node.(type) {
	case *ast.Root:
		return i.evaluateSequence(n.Body, g, mode, frame)
	case *ast.Block:
		return i.evaluateSequence(n.Body, g, mode, frame)
	case *ast.Conditional:
		return i.evaluateConditional(n, g, frame)
	case *ast.ForLoop:
		return i.evaluateForLoop(n, g, frame)
	case *ast.WhileLoop:
		return i.evaluateWhileLoop(n, g, frame)
	case *ast.ReturnStatement:
		return i.evaluateReturn(n, g, frame)
	case *ast.BreakStatement:
		return completion{value: runtime.Empty(), flow: flowBreak}, nil
	case *ast.ContinueStatement:
		return completion{value: runtime.Empty(), flow: flowContinue}, nil
	case *ast.ImportStatement, *ast.ExportStatement:
		return completion{}, frame.Errorf(g, runtime.ErrImport, "Import and export statements are only allowed at the top level of a source")
	}
	v, err := i.evaluateExpression(node, g, mode, frame)
	if err != nil {
		return completion{}, err
	}
	return normal(v), nil
}

func (i *Interpreter) evaluateExpression(node ast.Node, g *runtime.GlobalContext, mode symbolMode, frame *runtime.Frame) (*runtime.Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		v, err := runtime.ParseNumber(n.Value)
		if err != nil {
			return nil, frame.Wrap(g, runtime.ErrTypeMismatch, err)
		}
		return v, nil
	case *ast.StringLiteral:
		return runtime.NewString(n.Value), nil
	case *ast.BooleanLiteral:
		return runtime.NewBoolean(n.Value), nil
	case *ast.NullLiteral:
		return runtime.Empty(), nil
	case *ast.RegexLiteral:
		re, err := runtime.CompileRegex(n.Pattern, n.Flags)
		if err != nil {
			return nil, frame.Wrap(g, runtime.ErrTypeMismatch, err)
		}
		return runtime.NewRegex(re), nil
	case *ast.Identifier:
		return i.resolve(node, []ast.Node{n}, mode, g, frame)
	case *ast.Access:
		return i.resolve(node, n.Steps, mode, g, frame)
	case *ast.Index, *ast.Call:
		return nil, frame.Errorf(g, runtime.ErrInternal, "%s step outside of an access chain", node.NodeType())
	case *ast.FunctionCall:
		return i.evaluateFunctionCall(n, g, frame)
	case *ast.ConstructorCall:
		return i.evaluateConstructorCall(n, g, frame)
	case *ast.OperatorExpression:
		return i.evaluateOperatorExpression(n, g, mode, frame)
	case *ast.OperatorFunction:
		return i.evaluateOperatorFunction(n, g, frame)
	case *ast.Assignment:
		return i.evaluateAssignment(n, g, frame)
	case *ast.Parenthesis:
		return i.evaluateParenthesis(n, g, mode, frame)
	case *ast.ArrayLiteral:
		return i.evaluateArrayLiteral(n, g, frame)
	case *ast.MapLiteral:
		return i.evaluateMapLiteral(n, g, frame)
	case *ast.FunctionDeclaration:
		return i.evaluateFunctionDeclaration(n, g, frame)
	case *ast.FunctionLiteral:
		return i.functionValue(n.Params, n.Body, g, frame), nil
	default:
		return nil, frame.Errorf(g, runtime.ErrInternal, "unsupported node type: %s", node.NodeType())
	}
}
