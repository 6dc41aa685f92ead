package runtime

import (
	"fmt"
	"sort"
	"strings"

	"menter/interpreter-go/pkg/ast"
)

// GlobalContext holds one loaded source: its variables, the modules it
// exports and the modules it imports.
type GlobalContext struct {
	Source    string
	Variables map[string]*Value
	Modules   []*Module
	Imports   []*Import
	// Body is the evaluable program with import and export statements removed.
	Body *ast.Root

	frame     *Frame
	evaluated bool
}

func NewGlobalContext(source string) *GlobalContext {
	g := &GlobalContext{
		Source:    source,
		Variables: make(map[string]*Value),
	}
	g.frame = NewRootFrame(g.Variables)
	return g
}

// Frame returns the root frame whose only scope is Variables.
func (g *GlobalContext) Frame() *Frame {
	return g.frame
}

// Variable looks up a global variable.
func (g *GlobalContext) Variable(name string) (*Value, bool) {
	v, ok := g.Variables[name]
	return v, ok
}

func (g *GlobalContext) SetVariable(name string, v *Value) {
	g.Variables[name] = v
}

func (g *GlobalContext) RemoveVariable(name string) {
	delete(g.Variables, name)
}

// VariableNames returns the variable names in sorted order.
func (g *GlobalContext) VariableNames() []string {
	names := make([]string, 0, len(g.Variables))
	for name := range g.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SymbolsObject exposes the variables as an object value, keys sorted.
func (g *GlobalContext) SymbolsObject() *Value {
	m := NewOrderedMap()
	for _, name := range g.VariableNames() {
		m.SetString(name, g.Variables[name])
	}
	return NewObject(m)
}

func (g *GlobalContext) Evaluated() bool { return g.evaluated }

func (g *GlobalContext) MarkEvaluated() { g.evaluated = true }

// AddModule registers an exported module on this context.
func (g *GlobalContext) AddModule(name string, symbols []string) *Module {
	m := &Module{Name: name, Context: g, Symbols: append([]string(nil), symbols...)}
	g.Modules = append(g.Modules, m)
	return m
}

// CollectDeclarations splits import and export statements out of a program.
// It rejects duplicate module names, duplicate import names and forbidden
// imports. The remaining statements become Body.
func (g *GlobalContext) CollectDeclarations(root *ast.Root, forbidden []string) error {
	if root == nil {
		root = ast.NewRoot(nil)
	}
	forbiddenSet := make(map[string]bool, len(forbidden))
	for _, name := range forbidden {
		forbiddenSet[name] = true
	}
	body := make([]ast.Node, 0, len(root.Body))
	for _, stmt := range root.Body {
		switch s := stmt.(type) {
		case *ast.ImportStatement:
			if forbiddenSet[s.Name] {
				return NewError(ErrImport, "Import is forbidden: %s", s.Name)
			}
			imp := NewImport(s.Name, s.Alias, s.Inline)
			for _, existing := range g.Imports {
				if existing.AliasOrName() == imp.AliasOrName() {
					return NewError(ErrImport, "Duplicate import name: %s in %s", imp.AliasOrName(), g.Source)
				}
			}
			g.Imports = append(g.Imports, imp)
		case *ast.ExportStatement:
			for _, existing := range g.Modules {
				if existing.Name == s.Module {
					return NewError(ErrImport, "Duplicate module name: %s in %s", s.Module, g.Source)
				}
			}
			g.AddModule(s.Module, s.Symbols)
		default:
			body = append(body, stmt)
		}
	}
	g.Body = ast.NewRoot(body)
	return nil
}

// AddImport adds an import unless one with the same name already exists.
func (g *GlobalContext) AddImport(imp *Import) bool {
	for _, existing := range g.Imports {
		if existing.AliasOrName() == imp.AliasOrName() {
			return false
		}
	}
	g.Imports = append(g.Imports, imp)
	return true
}

// ModuleFinder locates modules by name during linking.
type ModuleFinder interface {
	FindModule(name string) (*Module, bool)
	ModuleNames() []string
}

// ResolveImports links every unresolved import. Resolved imports are skipped,
// so calling it again is harmless.
func (g *GlobalContext) ResolveImports(finder ModuleFinder) error {
	for _, imp := range g.Imports {
		if _, ok := imp.Module(); ok {
			continue
		}
		module, ok := finder.FindModule(imp.Name)
		if !ok {
			return NewError(ErrImport, "Could not find module '%s'. Modules available: [%s]", imp.Name, strings.Join(finder.ModuleNames(), ", "))
		}
		imp.Resolve(module)
	}
	return nil
}

// Dependencies returns the contexts this one imports from.
func (g *GlobalContext) Dependencies() []*GlobalContext {
	var out []*GlobalContext
	for _, imp := range g.Imports {
		if m, ok := imp.Module(); ok && m.Context != g {
			out = append(out, m.Context)
		}
	}
	return out
}

func (g *GlobalContext) String() string {
	return fmt.Sprintf("GlobalContext[%s]", g.Source)
}

// Module is a named export: a set of symbols of one global context.
type Module struct {
	Name    string
	Context *GlobalContext
	Symbols []string
}

// Exports reports whether the module exports symbol.
func (m *Module) Exports(symbol string) bool {
	for _, s := range m.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Lookup returns the value of an exported symbol.
func (m *Module) Lookup(symbol string) (*Value, bool) {
	if !m.Exports(symbol) {
		return nil, false
	}
	return m.Context.Variable(symbol)
}

// AddSymbol extends the exported symbols.
func (m *Module) AddSymbol(symbol string) {
	if !m.Exports(symbol) {
		m.Symbols = append(m.Symbols, symbol)
	}
}

// importState is either unresolved or resolved to a module.
type importState interface {
	isImportState()
}

type unresolvedImport struct{}

func (unresolvedImport) isImportState() {}

type resolvedImport struct {
	module *Module
}

func (resolvedImport) isImportState() {}

// Import is an import declaration of a global context.
type Import struct {
	Name   string
	Alias  string
	Inline bool

	state importState
}

func NewImport(name, alias string, inline bool) *Import {
	return &Import{Name: name, Alias: alias, Inline: inline, state: unresolvedImport{}}
}

func (i *Import) AliasOrName() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Name
}

// Module returns the linked module once resolved.
func (i *Import) Module() (*Module, bool) {
	if r, ok := i.state.(resolvedImport); ok {
		return r.module, true
	}
	return nil, false
}

func (i *Import) Resolve(m *Module) {
	i.state = resolvedImport{module: m}
}

func (i *Import) String() string {
	switch {
	case i.Inline:
		return "import " + i.Name + " inline"
	case i.Alias != "":
		return "import " + i.Name + " as " + i.Alias
	default:
		return "import " + i.Name
	}
}
