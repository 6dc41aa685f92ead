package runtime

import (
	"fmt"
	"io"
)

// Invoker calls function values. The interpreter implements it so that
// built-in methods such as map or sort can call back into Menter code.
type Invoker interface {
	Invoke(call *CallContext, name string, fn *Value, args []*Value) (*Value, error)
}

// CallContext is handed to native functions and methods.
type CallContext struct {
	Global  *GlobalContext
	Frame   *Frame
	Invoker Invoker
	Output  io.Writer

	// Scale is the number of fractional digits division keeps. Zero selects
	// DefaultDivisionScale.
	Scale int32
}

// DivisionScale returns the scale division and rounding should use for this
// call.
func (c *CallContext) DivisionScale() int32 {
	if c == nil || c.Scale <= 0 {
		return DefaultDivisionScale
	}
	return c.Scale
}

// Call invokes fn with args through the interpreter.
func (c *CallContext) Call(name string, fn *Value, args ...*Value) (*Value, error) {
	if c == nil || c.Invoker == nil {
		return nil, fmt.Errorf("cannot call %s: no interpreter attached", name)
	}
	return c.Invoker.Invoke(c, name, fn, args)
}

// ParamCount returns the declared parameter count of a closure. Other
// callables report false.
func ParamCount(fn *Value) (int, bool) {
	f, ok := fn.Function()
	if !ok {
		return 0, false
	}
	return len(f.Params), true
}

func arg(args []*Value, i int) *Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return Empty()
}

func requireArgs(name string, args []*Value, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s requires %d argument(s), but %d were given", name, n, len(args))
	}
	return nil
}
