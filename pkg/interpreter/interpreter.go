package interpreter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/log"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/operators"
	"menter/interpreter-go/pkg/runtime"
)

// Options configures an interpreter. The zero value is usable; New fills in
// defaults for unset fields.
type Options struct {
	// DivisionScale is the number of decimal places kept by division and
	// negative powers.
	DivisionScale int
	// Suggestions caps the "did you mean" candidates of unresolved symbols.
	Suggestions int
	// ForbiddenImports are module names user sources may not import.
	ForbiddenImports []string
	// AutoImports are import statements ("math", "math as m", "system inline")
	// added to every user source.
	AutoImports []string
	// Trace selects the evaluation trace style: 0 off, 1 top-down code,
	// 2 top-down code and result, 3 bottom-up code and result.
	Trace          int
	LogResolve     bool
	LogAssignments bool
	LogCalls       bool
	// TraceValues names symbols printed with their values in every stack trace.
	TraceValues []string
	Debugger    *Debugger
	Output      io.Writer
}

const (
	defaultSuggestions = 3
	maxTraceStyle      = 3
)

// Interpreter evaluates Menter syntax trees.
type Interpreter struct {
	opts      Options
	operators *operators.Table
	natives   map[string]map[string]runtime.NativeFunc
	types     map[string]*runtime.GlobalContext
	contexts  []*runtime.GlobalContext
	// evaluating guards against re-entering a context while its imports run.
	evaluating map[*runtime.GlobalContext]bool
}

// New returns an interpreter with the core modules loaded.
func New(opts Options) (*Interpreter, error) {
	if opts.DivisionScale == 0 {
		opts.DivisionScale = runtime.DefaultDivisionScale
	}
	if err := runtime.ValidateDivisionScale(opts.DivisionScale); err != nil {
		return nil, err
	}
	if opts.Suggestions == 0 {
		opts.Suggestions = defaultSuggestions
	}
	if opts.Suggestions < 0 {
		return nil, fmt.Errorf("suggestions must not be negative, got %d", opts.Suggestions)
	}
	if opts.Trace < 0 || opts.Trace > maxTraceStyle {
		return nil, fmt.Errorf("trace style must be between 0 and %d, got %d", maxTraceStyle, opts.Trace)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	interp := &Interpreter{
		opts:       opts,
		operators:  operators.Default(),
		natives:    make(map[string]map[string]runtime.NativeFunc),
		types:      make(map[string]*runtime.GlobalContext),
		evaluating: make(map[*runtime.GlobalContext]bool),
	}
	if err := interp.loadCoreModules(); err != nil {
		return nil, err
	}
	return interp, nil
}

// MustNew is New for callers with static options.
func MustNew(opts Options) *Interpreter {
	interp, err := New(opts)
	if err != nil {
		panic(err)
	}
	return interp
}

// Options returns the active configuration.
func (i *Interpreter) Options() Options {
	return i.opts
}

// Operators exposes the operator table so hosts can add operators.
func (i *Interpreter) Operators() *operators.Table {
	return i.operators
}

// Contexts returns the loaded global contexts in load order.
func (i *Interpreter) Contexts() []*runtime.GlobalContext {
	out := make([]*runtime.GlobalContext, len(i.contexts))
	copy(out, i.contexts)
	return out
}

// Context finds a loaded context by source name.
func (i *Interpreter) Context(source string) (*runtime.GlobalContext, bool) {
	for idx := len(i.contexts) - 1; idx >= 0; idx-- {
		if i.contexts[idx].Source == source {
			return i.contexts[idx], true
		}
	}
	return nil, false
}

//-----------------------------------------------------------------------------
// Loading and linking
//-----------------------------------------------------------------------------

// Load registers a user source. Its imports are linked by Link.
func (i *Interpreter) Load(source string, root *ast.Root) (*runtime.GlobalContext, error) {
	return i.load(source, root, true)
}

func (i *Interpreter) load(source string, root *ast.Root, user bool) (*runtime.GlobalContext, error) {
	g := runtime.NewGlobalContext(source)
	g.Frame().Trace().DebugValues = append([]string(nil), i.opts.TraceValues...)
	var forbidden []string
	if user {
		forbidden = i.opts.ForbiddenImports
	}
	if err := g.CollectDeclarations(root, forbidden); err != nil {
		return nil, err
	}
	if user {
		for _, statement := range i.opts.AutoImports {
			imp, err := ParseImport(statement)
			if err != nil {
				return nil, err
			}
			g.AddImport(imp)
		}
	}
	i.contexts = append(i.contexts, g)
	log.LogVf("loaded %s: %d module(s), %d import(s)", source, len(g.Modules), len(g.Imports))
	return g, nil
}

// ParseImport reads an auto import statement such as "math as m" or
// "import system inline".
func ParseImport(statement string) (*runtime.Import, error) {
	fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(statement), ";"))
	if len(fields) > 0 && fields[0] == "import" {
		fields = fields[1:]
	}
	switch {
	case len(fields) == 1:
		return runtime.NewImport(fields[0], "", false), nil
	case len(fields) == 2 && fields[1] == "inline":
		return runtime.NewImport(fields[0], "", true), nil
	case len(fields) == 3 && fields[1] == "as":
		return runtime.NewImport(fields[0], fields[2], false), nil
	}
	return nil, runtime.NewError(runtime.ErrImport, "Invalid import statement: %s", statement)
}

// FindModule returns the most recently loaded module with the given name.
func (i *Interpreter) FindModule(name string) (*runtime.Module, bool) {
	for idx := len(i.contexts) - 1; idx >= 0; idx-- {
		modules := i.contexts[idx].Modules
		for m := len(modules) - 1; m >= 0; m-- {
			if modules[m].Name == name {
				return modules[m], true
			}
		}
	}
	return nil, false
}

// ModuleNames lists every module name once, in load order.
func (i *Interpreter) ModuleNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, g := range i.contexts {
		for _, m := range g.Modules {
			if !seen[m.Name] {
				seen[m.Name] = true
				names = append(names, m.Name)
			}
		}
	}
	return names
}

// Link resolves the imports of every loaded context.
func (i *Interpreter) Link() error {
	for _, g := range i.contexts {
		if err := g.ResolveImports(i); err != nil {
			return err
		}
	}
	return nil
}

// Run evaluates a loaded context after its dependencies and returns the value
// of its last statement.
func (i *Interpreter) Run(source string) (*runtime.Value, error) {
	g, ok := i.Context(source)
	if !ok {
		return nil, runtime.NewError(runtime.ErrImport, "No source named %s has been loaded", source)
	}
	if err := i.Link(); err != nil {
		return nil, err
	}
	return i.evaluateContext(g)
}

// RunAll evaluates every loaded context not yet evaluated, in dependency order.
func (i *Interpreter) RunAll() error {
	if err := i.Link(); err != nil {
		return err
	}
	for _, g := range i.contexts {
		if g.Evaluated() {
			continue
		}
		if _, err := i.evaluateContext(g); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate loads, links and runs one source.
func (i *Interpreter) Evaluate(source string, root *ast.Root) (*runtime.Value, error) {
	if _, err := i.Load(source, root); err != nil {
		return nil, err
	}
	return i.Run(source)
}

func (i *Interpreter) evaluateContext(g *runtime.GlobalContext) (*runtime.Value, error) {
	if g.Evaluated() || i.evaluating[g] {
		return runtime.Empty(), nil
	}
	i.evaluating[g] = true
	defer delete(i.evaluating, g)
	for _, dep := range g.Dependencies() {
		if _, err := i.evaluateContext(dep); err != nil {
			return nil, err
		}
	}
	log.LogVf("evaluating %s", g.Source)
	g.MarkEvaluated()
	return i.evaluateRoot(g, g.Body)
}

// EvaluateInContextOf runs additional statements inside an already loaded
// context, as an interactive session does. Import and export statements are
// collected and linked first.
func (i *Interpreter) EvaluateInContextOf(source string, root *ast.Root) (*runtime.Value, error) {
	g, ok := i.Context(source)
	if !ok {
		return nil, runtime.NewError(runtime.ErrImport, "No source named %s has been loaded", source)
	}
	extra := runtime.NewGlobalContext(source)
	if err := extra.CollectDeclarations(root, i.opts.ForbiddenImports); err != nil {
		return nil, err
	}
	for _, imp := range extra.Imports {
		if !g.AddImport(imp) {
			return nil, runtime.NewError(runtime.ErrImport, "Duplicate import name: %s in %s", imp.AliasOrName(), source)
		}
	}
	for _, m := range extra.Modules {
		g.AddModule(m.Name, m.Symbols)
	}
	if err := i.RunAll(); err != nil {
		return nil, err
	}
	return i.evaluateRoot(g, extra.Body)
}

func (i *Interpreter) evaluateRoot(g *runtime.GlobalContext, root *ast.Root) (*runtime.Value, error) {
	frame := g.Frame()
	result, err := i.eval(root, g, throwIfMissing, frame)
	if err != nil {
		return nil, err
	}
	if result.loopSignal() {
		return nil, frame.Errorf(g, runtime.ErrInvalidControl, "Unexpected %s outside of a loop in %s", result.flow, g.Source)
	}
	return result.value, nil
}

// Symbols returns the variables of a loaded context, sorted by name.
func (i *Interpreter) Symbols(source string) (*runtime.Value, bool) {
	g, ok := i.Context(source)
	if !ok {
		return nil, false
	}
	return g.SymbolsObject(), true
}

//-----------------------------------------------------------------------------
// Natives and host types
//-----------------------------------------------------------------------------

// RegisterNative makes fn available to "native name()" declarations in
// sources that export module, or that are named module.
func (i *Interpreter) RegisterNative(module, name string, fn runtime.NativeFunc) {
	funcs, ok := i.natives[module]
	if !ok {
		funcs = make(map[string]runtime.NativeFunc)
		i.natives[module] = funcs
	}
	funcs[name] = fn
}

func (i *Interpreter) lookupNative(candidates []string, name string) (runtime.NativeFunc, bool) {
	for _, module := range candidates {
		if fn, ok := i.natives[module][name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// RegisterType exposes a host type as an exported symbol of its module, so
// "import module" followed by "new module.Name(...)" constructs instances.
func (i *Interpreter) RegisterType(desc *runtime.TypeDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	g, ok := i.types[desc.Module]
	if !ok {
		g = runtime.NewGlobalContext(desc.Module)
		g.AddModule(desc.Module, nil)
		g.MarkEvaluated()
		i.types[desc.Module] = g
		i.contexts = append(i.contexts, g)
	}
	g.SetVariable(desc.Name, runtime.NewHostType(desc))
	g.Modules[0].AddSymbol(desc.Name)
	return nil
}

// Invoke implements runtime.Invoker for built-in methods calling back into
// Menter functions.
func (i *Interpreter) Invoke(call *runtime.CallContext, name string, fn *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	g, frame := call.Global, call.Frame
	if g == nil {
		if len(i.contexts) == 0 {
			return nil, fmt.Errorf("cannot call %s: no context loaded", name)
		}
		g = i.contexts[len(i.contexts)-1]
	}
	if frame == nil {
		frame = g.Frame()
	}
	return i.callFunction(fn, args, g, frame, name, nil)
}

// CallFunction calls a function value from host code.
func (i *Interpreter) CallFunction(source string, fn *runtime.Value, args ...*runtime.Value) (*runtime.Value, error) {
	g, ok := i.Context(source)
	if !ok {
		return nil, runtime.NewError(runtime.ErrImport, "No source named %s has been loaded", source)
	}
	return i.callFunction(fn, args, g, g.Frame(), "<host>", nil)
}

func (i *Interpreter) callContext(g *runtime.GlobalContext, frame *runtime.Frame) *runtime.CallContext {
	return &runtime.CallContext{
		Global:  g,
		Frame:   frame,
		Invoker: i,
		Output:  i.opts.Output,
		Scale:   int32(i.opts.DivisionScale),
	}
}
