package interpreter

import (
	"fortio.org/log"

	"menter/interpreter-go/pkg/driver"
	"menter/interpreter-go/pkg/runtime"
)

// OptionsFromManifest maps the options block of menter.yml onto interpreter
// options. Host-only fields (Debugger, Output) are left unset.
func OptionsFromManifest(spec driver.OptionsSpec) Options {
	opts := Options{
		DivisionScale:    spec.DivisionScale,
		ForbiddenImports: append([]string(nil), spec.ForbiddenImports...),
		AutoImports:      append([]string(nil), spec.AutoImports...),
		Trace:            spec.Trace,
		TraceValues:      append([]string(nil), spec.TraceValues...),
		LogResolve:       spec.LogResolve,
		LogAssignments:   spec.LogAssignments,
		LogCalls:         spec.LogCalls,
	}
	if spec.Suggestions != nil {
		opts.Suggestions = *spec.Suggestions
	}
	return opts
}

// EvaluateProgram loads every source of program, then runs the entry after
// the sources it depends on. Sources the entry does not reach are not run.
func (i *Interpreter) EvaluateProgram(program *driver.Program) (*runtime.Value, error) {
	if program == nil || program.Entry == nil {
		return nil, runtime.NewError(runtime.ErrImport, "Program has no entry source")
	}
	for _, src := range program.Sources {
		if _, err := i.Load(src.Name, src.Root); err != nil {
			return nil, err
		}
	}
	if _, ok := i.Context(program.Entry.Name); !ok {
		if _, err := i.Load(program.Entry.Name, program.Entry.Root); err != nil {
			return nil, err
		}
	}
	log.LogVf("program %s: running %s with %d source(s)", program.Name, program.Entry.Name, len(program.Sources))
	return i.Run(program.Entry.Name)
}
