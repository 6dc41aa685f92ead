package runtime

import (
	"sort"
)

// Frame provides lexical scoping for Menter evaluation. It is a stack of
// symbol maps, searched innermost first. Forking copies the list of maps and
// pushes a fresh one, so bindings created inside a fork stay there while
// existing bindings are still reachable (and updatable) from it.
type Frame struct {
	scopes []map[string]*Value
	trace  *StackTrace
	root   bool
}

// NewRootFrame creates the outermost frame of a global context. Its only map
// is the context's variable table, so top level bindings become globals.
func NewRootFrame(globals map[string]*Value) *Frame {
	return &Frame{
		scopes: []map[string]*Value{globals},
		trace:  NewStackTrace(),
		root:   true,
	}
}

// Fork derives a nested frame sharing the stack trace.
func (f *Frame) Fork() *Frame {
	scopes := make([]map[string]*Value, len(f.scopes), len(f.scopes)+1)
	copy(scopes, f.scopes)
	scopes = append(scopes, make(map[string]*Value))
	return &Frame{scopes: scopes, trace: f.trace}
}

// ForkFunction starts an empty frame for a function body. Only the stack
// trace is shared with the caller.
func (f *Frame) ForkFunction() *Frame {
	return &Frame{
		scopes: []map[string]*Value{make(map[string]*Value)},
		trace:  f.trace,
	}
}

// IsRoot reports whether this is the frame of a global context.
func (f *Frame) IsRoot() bool {
	return f.root
}

// Trace returns the shared stack trace.
func (f *Frame) Trace() *StackTrace {
	return f.trace
}

// Get retrieves a binding, searching outward through the scopes.
func (f *Frame) Get(name string) (*Value, bool) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if v, ok := f.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *Frame) Has(name string) bool {
	_, ok := f.Get(name)
	return ok
}

// Put updates the innermost existing binding of name, or creates one in the
// innermost scope.
func (f *Frame) Put(name string, v *Value) {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if _, ok := f.scopes[i][name]; ok {
			f.scopes[i][name] = v
			return
		}
	}
	f.PutOnTop(name, v)
}

// PutOnTop binds name in the innermost scope, shadowing outer bindings.
func (f *Frame) PutOnTop(name string, v *Value) {
	f.scopes[len(f.scopes)-1][name] = v
}

// PutAll applies Put for every entry.
func (f *Frame) PutAll(symbols map[string]*Value) {
	for name, v := range symbols {
		f.Put(name, v)
	}
}

// PutSelf binds self. A visible self is kept reachable as super.
func (f *Frame) PutSelf(v *Value) {
	if existing, ok := f.Get("self"); ok {
		f.PutOnTop("super", existing)
	}
	f.PutOnTop("self", v)
}

// Scopes exposes the maps, innermost last.
func (f *Frame) Scopes() []map[string]*Value {
	return f.scopes
}

// Snapshot merges all scopes, inner bindings winning.
func (f *Frame) Snapshot() map[string]*Value {
	out := make(map[string]*Value)
	for _, scope := range f.scopes {
		for k, v := range scope {
			out[k] = v
		}
	}
	return out
}

// Keys returns the visible names in sorted order.
func (f *Frame) Keys() []string {
	snapshot := f.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Remove deletes the innermost binding of name and reports whether one existed.
func (f *Frame) Remove(name string) bool {
	for i := len(f.scopes) - 1; i >= 0; i-- {
		if _, ok := f.scopes[i][name]; ok {
			delete(f.scopes[i], name)
			return true
		}
	}
	return false
}
