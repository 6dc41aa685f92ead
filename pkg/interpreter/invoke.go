package interpreter

import (
	"strings"

	"fortio.org/log"

	"menter/interpreter-go/pkg/runtime"
)

// callFunction is the single dispatch point for every callable kind. Menter
// functions run in the context they were defined in; natives and methods see
// the calling context g. prepare, when set, runs on the fresh frame of a Menter
// function before any symbol is bound, which is how self and args are injected.
func (i *Interpreter) callFunction(fn *runtime.Value, args []*runtime.Value, g *runtime.GlobalContext, frame *runtime.Frame, name string, prepare func(*runtime.Frame)) (*runtime.Value, error) {
	if !fn.IsFunction() {
		return nil, frame.Errorf(g, runtime.ErrTypeMismatch, "Value is not a function [%s]", runtime.Display(fn))
	}
	if i.opts.LogCalls {
		log.Infof("calling function [%s] with parameters [%s]", name, displayList(args))
	}
	call := i.callContext(g, frame)

	var (
		out *runtime.Value
		err error
	)
	switch fn.Kind() {
	case runtime.KindFunction:
		ctx := g
		if c := fn.Closure(); c != nil && c.Context != nil {
			ctx = c.Context
		}
		return i.callMenterFunction(fn, args, ctx, frame, name, prepare)
	case runtime.KindNativeFunction:
		out, err = fn.Payload().(*runtime.NativeFunction).Impl(call, args)
	case runtime.KindValueFunction:
		if fn.Receiver() == nil {
			return nil, frame.Errorf(g, runtime.ErrTypeMismatch, "Function [%s] cannot be called without a base value to execute on", name)
		}
		out, err = fn.Payload().(*runtime.Method).Impl(call, fn.Receiver(), args)
	case runtime.KindReflectiveFunction:
		out, err = fn.Payload().(*runtime.HostMethod).Invoke(call, fn.Receiver(), args)
	}
	if err != nil {
		return nil, frame.Wrap(g, runtime.ErrNative, err)
	}
	if out == nil {
		out = runtime.Empty()
	}
	return out, nil
}

// callMenterFunction runs a closure body. The new frame receives, in order,
// the prepared symbols, the variables of the defining context, the captured
// frame and finally the parameters, so parameters always win.
func (i *Interpreter) callMenterFunction(fn *runtime.Value, args []*runtime.Value, ctx *runtime.GlobalContext, frame *runtime.Frame, name string, prepare func(*runtime.Frame)) (*runtime.Value, error) {
	f, _ := fn.Function()
	if len(args) != len(f.Params) {
		return nil, frame.Errorf(ctx, runtime.ErrArity, "Function [%s] requires %d arguments, but %d were given", runtime.Display(fn), len(f.Params), len(args))
	}
	local := frame.ForkFunction()
	if prepare != nil {
		prepare(local)
	}
	defining := f.Context
	if defining == nil {
		defining = ctx
	}
	local.PutAll(defining.Variables)
	if c := fn.Closure(); c != nil && c.Frame != nil {
		local.PutAll(c.Frame.Snapshot())
	}
	for idx, param := range f.Params {
		local.PutOnTop(param, args[idx].Copy())
	}

	frame.Trace().EnterFunction(name)
	result, err := i.eval(f.Body, ctx, throwIfMissing, local)
	if err != nil {
		return nil, err
	}
	if result.loopSignal() {
		return nil, frame.Errorf(ctx, runtime.ErrInvalidControl, "Unexpected %s outside of a loop in function [%s]", result.flow, name)
	}
	return result.value.Copy(), nil
}

func displayList(values []*runtime.Value) string {
	parts := make([]string, len(values))
	for idx, v := range values {
		parts[idx] = runtime.Display(v)
	}
	return strings.Join(parts, ", ")
}
