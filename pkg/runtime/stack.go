package runtime

import (
	"fmt"
	"sort"
	"strings"

	"menter/interpreter-go/pkg/ast"
)

const (
	traceSymbolLimit = 20
	traceCodeLimit   = 120
)

// StackFrame records one evaluated node.
type StackFrame struct {
	Context  string
	Function string
	Node     ast.Node
}

// Label is the "context.function" text shown in traces.
func (s StackFrame) Label() string {
	if s.Function == "" {
		return s.Context
	}
	return s.Context + "." + s.Function
}

// StackTrace is shared by a frame and everything forked from it.
type StackTrace struct {
	frames  []StackFrame
	pending string
	// DebugValues names symbols whose values are printed with every trace.
	DebugValues []string
}

func NewStackTrace() *StackTrace {
	return &StackTrace{}
}

// EnterFunction names the function the next pushed frame belongs to.
func (s *StackTrace) EnterFunction(name string) {
	s.pending = name
}

// Push records a node and returns the depth to restore with PopTo. Frames
// inherit the function name of the frame below them until a new function is
// entered.
func (s *StackTrace) Push(context string, node ast.Node) int {
	depth := len(s.frames)
	function := s.pending
	s.pending = ""
	if function == "" && depth > 0 {
		function = s.frames[depth-1].Function
	}
	s.frames = append(s.frames, StackFrame{Context: context, Function: function, Node: node})
	return depth
}

func (s *StackTrace) PopTo(depth int) {
	if depth >= 0 && depth < len(s.frames) {
		s.frames = s.frames[:depth]
	}
}

func (s *StackTrace) Depth() int {
	return len(s.frames)
}

// Frames returns a copy, outermost first.
func (s *StackTrace) Frames() []StackFrame {
	out := make([]StackFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

// FormatTrace renders the active frames (innermost last) followed by the
// visible local and global symbols.
func (f *Frame) FormatTrace(global *GlobalContext) string {
	var b strings.Builder
	frames := f.trace.Frames()
	width := 0
	for _, frame := range frames {
		if n := len(frame.Label()); n > width {
			width = n
		}
	}
	for _, frame := range frames {
		fmt.Fprintf(&b, "\tin [%-*s] at %s\n", width, frame.Label(), shortCode(frame.Node))
	}

	var globals map[string]*Value
	if global != nil {
		globals = global.Variables
	}
	locals := make(map[string]*Value)
	for name, v := range f.Snapshot() {
		if g, ok := globals[name]; ok && g == v {
			continue
		}
		locals[name] = v
	}
	b.WriteString("\tLocal symbols:  ")
	b.WriteString(describeSymbols(locals))
	if globals != nil {
		b.WriteString("\n\tGlobal symbols: ")
		b.WriteString(describeSymbols(globals))
	}
	if len(f.trace.DebugValues) > 0 {
		parts := make([]string, 0, len(f.trace.DebugValues))
		for _, name := range f.trace.DebugValues {
			v, ok := f.Get(name)
			if !ok && globals != nil {
				v, ok = globals[name]
			}
			if ok {
				parts = append(parts, name+" = "+Display(v))
			} else {
				parts = append(parts, name+" = <unresolved>")
			}
		}
		b.WriteString("\n\tDebugger symbols: ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}

func describeSymbols(symbols map[string]*Value) string {
	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	truncated := false
	if len(names) > traceSymbolLimit {
		names = names[:traceSymbolLimit]
		truncated = true
	}
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " (" + symbols[name].Type() + ")"
	}
	out := strings.Join(parts, ", ")
	if truncated {
		out += ", ..."
	}
	return out
}

func shortCode(node ast.Node) string {
	if node == nil {
		return "<unknown>"
	}
	code := strings.Join(strings.Fields(ast.Code(node)), " ")
	if len(code) > traceCodeLimit {
		code = code[:traceCodeLimit] + "..."
	}
	return code
}

// Errorf creates an execution error carrying the current stack trace.
func (f *Frame) Errorf(global *GlobalContext, kind ErrorKind, format string, args ...any) *ExecutionError {
	return &ExecutionError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Trace:   f.FormatTrace(global),
	}
}

// Wrap attaches the current stack trace to err. Errors that already carry a
// trace pass through unchanged.
func (f *Frame) Wrap(global *GlobalContext, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	if execErr, ok := AsExecutionError(err); ok {
		if execErr.HasTrace() {
			return err
		}
		return &ExecutionError{Kind: execErr.Kind, Message: execErr.Message, Trace: f.FormatTrace(global), Cause: execErr.Cause}
	}
	return &ExecutionError{Kind: kind, Message: err.Error(), Trace: f.FormatTrace(global), Cause: err}
}
