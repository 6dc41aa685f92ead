package interpreter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

// coreModule is a built-in module whose exported functions are all natives.
type coreModule struct {
	name      string
	functions map[string]runtime.NativeFunc
}

func (m coreModule) source() string {
	return m.name + ".mtr"
}

// tree builds the source of the module: one native declaration per function
// followed by the export statement.
func (m coreModule) tree() *ast.Root {
	names := make([]string, 0, len(m.functions))
	for name := range m.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	body := make([]ast.Node, 0, len(names)+1)
	for _, name := range names {
		body = append(body, ast.NativeFn(name))
	}
	body = append(body, ast.Export(m.name, names...))
	return ast.Prog(body...)
}

func (i *Interpreter) coreModules() []coreModule {
	return []coreModule{
		{name: "system", functions: map[string]runtime.NativeFunc{
			"print":              i.nativePrint,
			"getVariable":        nativeGetVariable,
			"setVariable":        nativeSetVariable,
			"removeVariable":     nativeRemoveVariable,
			"callFunctionByName": nativeCallFunctionByName,
			"getImports":         nativeGetImports,
		}},
		{name: "reflect", functions: map[string]runtime.NativeFunc{
			"inherit": nativeInherit,
			"access":  nativeAccess,
			"type":    nativeType,
		}},
		{name: "math", functions: map[string]runtime.NativeFunc{
			"range":    nativeRange,
			"space":    nativeSpace,
			"toNumber": nativeToNumber,
			"round":    nativeRound,
			"floor":    unaryNumber("floor", decimal.Decimal.Floor),
			"ceil":     unaryNumber("ceil", decimal.Decimal.Ceil),
			"abs":      unaryNumber("abs", decimal.Decimal.Abs),
			"sqrt":     floatFunction("sqrt", math.Sqrt),
			"sin":      floatFunction("sin", math.Sin),
			"cos":      floatFunction("cos", math.Cos),
			"tan":      floatFunction("tan", math.Tan),
		}},
		{name: "debug", functions: map[string]runtime.NativeFunc{
			"stackTraceValues": nativeStackTraceValues,
			"trace":            i.nativeTrace,
		}},
	}
}

// loadCoreModules registers the natives and evaluates the module sources so
// that user code can import them like any other module.
func (i *Interpreter) loadCoreModules() error {
	saved := i.opts
	i.opts.Trace = 0
	i.opts.LogResolve, i.opts.LogAssignments, i.opts.LogCalls = false, false, false
	i.opts.Debugger = nil
	defer func() { i.opts = saved }()

	for _, module := range i.coreModules() {
		for name, fn := range module.functions {
			i.RegisterNative(module.name, name, fn)
		}
		g, err := i.load(module.source(), module.tree(), false)
		if err != nil {
			return fmt.Errorf("core module %s: %w", module.name, err)
		}
		if _, err := i.evaluateContext(g); err != nil {
			return fmt.Errorf("core module %s: %w", module.name, err)
		}
	}
	return nil
}

func argAt(args []*runtime.Value, idx int) *runtime.Value {
	if idx < len(args) && args[idx] != nil {
		return args[idx]
	}
	return runtime.Empty()
}

func expectArgs(name string, args []*runtime.Value, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return fmt.Errorf("%s() expects %d argument(s), but %d were given", name, min, len(args))
		}
		return fmt.Errorf("%s() expects %d to %d arguments, but %d were given", name, min, max, len(args))
	}
	return nil
}

func stringArg(name string, args []*runtime.Value, idx int) (string, error) {
	s, ok := argAt(args, idx).Str()
	if !ok {
		return "", fmt.Errorf("%s() expects a string as argument %d, got %s", name, idx+1, argAt(args, idx).Type())
	}
	return s, nil
}

func numberArg(name string, args []*runtime.Value, idx int) (decimal.Decimal, error) {
	d, ok := argAt(args, idx).Number()
	if !ok {
		return decimal.Zero, fmt.Errorf("%s() expects a number as argument %d, got %s", name, idx+1, argAt(args, idx).Type())
	}
	return d, nil
}

//-----------------------------------------------------------------------------
// system
//-----------------------------------------------------------------------------

func (i *Interpreter) nativePrint(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	out := call.Output
	if out == nil {
		out = i.opts.Output
	}
	parts := make([]string, len(args))
	for idx, a := range args {
		parts[idx] = runtime.Display(a)
	}
	if _, err := fmt.Fprintln(out, strings.Join(parts, " ")); err != nil {
		return nil, err
	}
	return runtime.Empty(), nil
}

// lookupCaller finds a symbol as the calling code would see it.
func lookupCaller(call *runtime.CallContext, name string) (*runtime.Value, bool) {
	if call.Frame != nil {
		if v, ok := call.Frame.Get(name); ok {
			return v, true
		}
	}
	if call.Global != nil {
		return call.Global.Variable(name)
	}
	return nil, false
}

func nativeGetVariable(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("getVariable", args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg("getVariable", args, 0)
	if err != nil {
		return nil, err
	}
	v, ok := lookupCaller(call, name)
	if !ok {
		return runtime.Empty(), nil
	}
	return v, nil
}

func nativeSetVariable(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("setVariable", args, 2, 2); err != nil {
		return nil, err
	}
	name, err := stringArg("setVariable", args, 0)
	if err != nil {
		return nil, err
	}
	value := args[1].Copy()
	switch {
	case call.Frame != nil:
		call.Frame.Put(name, value)
	case call.Global != nil:
		call.Global.SetVariable(name, value)
	default:
		return nil, fmt.Errorf("setVariable() has no context to write %s to", name)
	}
	return value, nil
}

func nativeRemoveVariable(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("removeVariable", args, 1, 1); err != nil {
		return nil, err
	}
	name, err := stringArg("removeVariable", args, 0)
	if err != nil {
		return nil, err
	}
	removed := false
	if call.Frame != nil {
		removed = call.Frame.Remove(name)
	}
	if call.Global != nil {
		if _, ok := call.Global.Variable(name); ok {
			call.Global.RemoveVariable(name)
			removed = true
		}
	}
	return runtime.NewBoolean(removed), nil
}

// nativeCallFunctionByName calls the function bound to a name. Arguments are
// passed as an array or as the remaining arguments.
func nativeCallFunctionByName(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("callFunctionByName() expects a function name")
	}
	name, err := stringArg("callFunctionByName", args, 0)
	if err != nil {
		return nil, err
	}
	fn, ok := lookupCaller(call, name)
	if !ok {
		return nil, fmt.Errorf("callFunctionByName(): no function named [%s]", name)
	}
	rest := args[1:]
	if len(rest) == 1 {
		if m, isMap := rest[0].Map(); isMap && m.IsArray() {
			rest = m.Values()
		}
	}
	return call.Call(name, fn, rest...)
}

// nativeGetImports maps every import of the calling context to an object of
// the symbols its module exports.
func nativeGetImports(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("getImports", args, 0, 0); err != nil {
		return nil, err
	}
	out := runtime.NewOrderedMap()
	if call.Global == nil {
		return runtime.NewObject(out), nil
	}
	for _, imp := range call.Global.Imports {
		module, ok := imp.Module()
		if !ok {
			continue
		}
		symbols := runtime.NewOrderedMap()
		for _, name := range module.Symbols {
			if v, found := module.Lookup(name); found {
				symbols.SetString(name, v)
			}
		}
		key := imp.AliasOrName()
		if imp.Inline {
			key = module.Name
		}
		out.SetString(key, runtime.NewObject(symbols))
	}
	return runtime.NewObject(out), nil
}

//-----------------------------------------------------------------------------
// reflect
//-----------------------------------------------------------------------------

func nativeInherit(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("inherit", args, 2, 2); err != nil {
		return nil, err
	}
	args[0].Inherit(args[1])
	return args[0], nil
}

func nativeAccess(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("access", args, 2, 2); err != nil {
		return nil, err
	}
	if v := args[0].Access(args[1]); v != nil {
		return v, nil
	}
	return runtime.Empty(), nil
}

func nativeType(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("type", args, 1, 1); err != nil {
		return nil, err
	}
	return runtime.NewString(args[0].Type()), nil
}

//-----------------------------------------------------------------------------
// math
//-----------------------------------------------------------------------------

// nativeRange lists the numbers, or single characters, from start to end
// inclusive. The sequence descends when start is greater than end.
func nativeRange(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("range", args, 2, 3); err != nil {
		return nil, err
	}
	step := decimal.NewFromInt(1)
	if len(args) == 3 {
		s, err := numberArg("range", args, 2)
		if err != nil {
			return nil, err
		}
		step = s.Abs()
	}
	if step.IsZero() {
		return nil, fmt.Errorf("range() expects a non-zero step size")
	}

	if start, ok := args[0].Number(); ok {
		end, ok := args[1].Number()
		if !ok {
			return nil, fmt.Errorf("range() expects 2 numbers or 2 one-character strings")
		}
		var items []*runtime.Value
		if start.GreaterThan(end) {
			for n := start; n.GreaterThanOrEqual(end); n = n.Sub(step) {
				items = append(items, runtime.NewNumber(n))
			}
		} else {
			for n := start; n.LessThanOrEqual(end); n = n.Add(step) {
				items = append(items, runtime.NewNumber(n))
			}
		}
		return runtime.NewArray(items...), nil
	}

	startText, okStart := args[0].Str()
	endText, okEnd := args[1].Str()
	if !okStart || !okEnd {
		return nil, fmt.Errorf("range() expects 2 numbers or 2 one-character strings")
	}
	from, to := []rune(startText), []rune(endText)
	if len(from) != 1 || len(to) != 1 {
		return nil, fmt.Errorf("range() expects 2 one-character strings")
	}
	if !step.IsInteger() {
		return nil, fmt.Errorf("range() over characters expects a whole step size")
	}
	delta := rune(step.IntPart())
	var items []*runtime.Value
	if from[0] > to[0] {
		for r := from[0]; r >= to[0]; r -= delta {
			items = append(items, runtime.NewString(string(r)))
		}
	} else {
		for r := from[0]; r <= to[0]; r += delta {
			items = append(items, runtime.NewString(string(r)))
		}
	}
	return runtime.NewArray(items...), nil
}

// nativeSpace returns count evenly spaced numbers from start to end.
func nativeSpace(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("space", args, 3, 3); err != nil {
		return nil, err
	}
	start, err := numberArg("space", args, 0)
	if err != nil {
		return nil, err
	}
	end, err := numberArg("space", args, 1)
	if err != nil {
		return nil, err
	}
	countNumber, err := numberArg("space", args, 2)
	if err != nil {
		return nil, err
	}
	if !countNumber.IsInteger() || countNumber.Sign() <= 0 {
		return nil, fmt.Errorf("space() expects a positive whole count, got %s", countNumber.String())
	}
	count := countNumber.IntPart()
	if count == 1 {
		return runtime.NewArray(runtime.NewNumber(start)), nil
	}
	width, err := runtime.Divide(end.Sub(start), decimal.NewFromInt(count-1), call.DivisionScale())
	if err != nil {
		return nil, err
	}
	items := make([]*runtime.Value, count)
	for idx := int64(0); idx < count; idx++ {
		items[idx] = runtime.NewNumber(start.Add(width.Mul(decimal.NewFromInt(idx))))
	}
	items[count-1] = runtime.NewNumber(end)
	return runtime.NewArray(items...), nil
}

func nativeToNumber(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("toNumber", args, 1, 1); err != nil {
		return nil, err
	}
	v := args[0]
	switch v.Kind() {
	case runtime.KindNumber:
		return v, nil
	case runtime.KindBoolean:
		if b, _ := v.Bool(); b {
			return runtime.NewInt(1), nil
		}
		return runtime.NewInt(0), nil
	case runtime.KindString:
		s, _ := v.Str()
		return runtime.ParseNumber(strings.TrimSpace(s))
	}
	return nil, fmt.Errorf("toNumber() cannot convert a value of type %s", v.Type())
}

func nativeRound(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("round", args, 1, 2); err != nil {
		return nil, err
	}
	d, err := numberArg("round", args, 0)
	if err != nil {
		return nil, err
	}
	places := decimal.Zero
	if len(args) == 2 {
		if places, err = numberArg("round", args, 1); err != nil {
			return nil, err
		}
	}
	return runtime.NewNumber(d.Round(int32(places.IntPart()))), nil
}

func unaryNumber(name string, op func(decimal.Decimal) decimal.Decimal) runtime.NativeFunc {
	return func(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		if err := expectArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		d, err := numberArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(op(d)), nil
	}
}

// floatFunction evaluates op in float64 and rounds to the division scale.
func floatFunction(name string, op func(float64) float64) runtime.NativeFunc {
	return func(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
		if err := expectArgs(name, args, 1, 1); err != nil {
			return nil, err
		}
		d, err := numberArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		f := op(d.InexactFloat64())
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%s(%s) is not a real number", name, d.String())
		}
		return runtime.NewNumber(decimal.NewFromFloat(f).Round(call.DivisionScale())), nil
	}
}

//-----------------------------------------------------------------------------
// debug
//-----------------------------------------------------------------------------

// nativeStackTraceValues replaces the symbols printed with every stack trace.
func nativeStackTraceValues(call *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if call.Frame == nil {
		return nil, fmt.Errorf("stackTraceValues() requires a calling frame")
	}
	names := make([]string, len(args))
	for idx, a := range args {
		names[idx] = runtime.Display(a)
	}
	call.Frame.Trace().DebugValues = names
	return runtime.Empty(), nil
}

// nativeTrace switches evaluation logging. With one argument a flag is
// toggled; with two it is set. The "interpreter" flag takes a trace style.
func (i *Interpreter) nativeTrace(_ *runtime.CallContext, args []*runtime.Value) (*runtime.Value, error) {
	if err := expectArgs("trace", args, 1, 2); err != nil {
		return nil, err
	}
	flag, err := stringArg("trace", args, 0)
	if err != nil {
		return nil, err
	}
	if flag == "interpreter" {
		if len(args) != 2 {
			return nil, fmt.Errorf("trace(\"interpreter\") expects a style between 0 and %d", maxTraceStyle)
		}
		style, err := numberArg("trace", args, 1)
		if err != nil {
			return nil, err
		}
		n := int(style.IntPart())
		if n < 0 || n > maxTraceStyle {
			return nil, fmt.Errorf("trace style must be between 0 and %d, got %d", maxTraceStyle, n)
		}
		i.opts.Trace = n
		return runtime.Empty(), nil
	}

	var target *bool
	switch flag {
	case "resolve":
		target = &i.opts.LogResolve
	case "assignments":
		target = &i.opts.LogAssignments
	case "calls":
		target = &i.opts.LogCalls
	default:
		return nil, fmt.Errorf("Unknown debugger flag: %s", flag)
	}
	if len(args) == 2 {
		*target = args[1].IsTrue()
	} else {
		*target = !*target
	}
	return runtime.NewBoolean(*target), nil
}
