package interpreter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kr/pretty"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

// DebugAction is what the user chose at a halted node.
type DebugAction int

const (
	// ActionResume continues until the next halt.
	ActionResume DebugAction = iota
	// ActionSymbols prints the visible symbols and waits for another action.
	ActionSymbols
	// ActionStack prints the stack trace and waits for another action.
	ActionStack
	// ActionResumeAll continues and never halts again.
	ActionResumeAll
)

func (a DebugAction) String() string {
	switch a {
	case ActionResume:
		return "resume"
	case ActionSymbols:
		return "symbols"
	case ActionStack:
		return "stack"
	case ActionResumeAll:
		return "resume all"
	default:
		return fmt.Sprintf("DebugAction(%d)", int(a))
	}
}

// ActionSource supplies debugger actions. io.EOF resumes the rest of the run.
type ActionSource interface {
	NextAction() (DebugAction, error)
}

// Debugger halts evaluation before nodes and asks its ActionSource what to
// do. A node halts when Step is set, or when its code matches a breakpoint.
type Debugger struct {
	Breakpoints []string
	Step        bool
	Actions     ActionSource
	Output      io.Writer

	disabled bool
}

// NewDebugger halts on the given breakpoints and reads actions from source.
func NewDebugger(source ActionSource, breakpoints ...string) *Debugger {
	d := &Debugger{Actions: source}
	for _, bp := range breakpoints {
		d.AddBreakpoint(bp)
	}
	return d
}

// AddBreakpoint registers code to halt at. Whitespace is not significant.
func (d *Debugger) AddBreakpoint(code string) {
	d.Breakpoints = append(d.Breakpoints, normalizeCode(code))
}

func normalizeCode(code string) string {
	return strings.Join(strings.Fields(code), " ")
}

func (d *Debugger) shouldHalt(node ast.Node) bool {
	if d.disabled || d.Actions == nil {
		return false
	}
	if _, isSeq := node.(ast.Sequence); isSeq {
		return false
	}
	if d.Step {
		return true
	}
	if len(d.Breakpoints) == 0 {
		return false
	}
	code := normalizeCode(ast.Code(node))
	for _, bp := range d.Breakpoints {
		if bp == code {
			return true
		}
	}
	return false
}

// breakpointReached blocks until the action source resumes evaluation.
func (i *Interpreter) breakpointReached(node ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) error {
	d := i.opts.Debugger
	out := d.Output
	if out == nil {
		out = i.opts.Output
	}
	fmt.Fprintf(out, ">>> %s [resume, symbols, stack, resume all]\n", normalizeCode(ast.Code(node)))
	for {
		action, err := d.Actions.NextAction()
		if errors.Is(err, io.EOF) {
			d.disabled = true
			return nil
		}
		if err != nil {
			return frame.Wrap(g, runtime.ErrInternal, fmt.Errorf("debugger: %w", err))
		}
		switch action {
		case ActionResume:
			return nil
		case ActionResumeAll:
			d.disabled = true
			return nil
		case ActionSymbols:
			fmt.Fprintln(out, describeFrame(frame))
		case ActionStack:
			fmt.Fprintln(out, frame.FormatTrace(g))
		default:
			fmt.Fprintf(out, "unknown debugger action %s\n", action)
		}
	}
}

// describeFrame lists the visible symbols with their values. Host payloads are
// dumped in full.
func describeFrame(frame *runtime.Frame) string {
	snapshot := frame.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		v := snapshot[name]
		if custom, ok := v.Custom(); ok {
			fmt.Fprintf(&b, "%s (%s) = %# v\n", name, v.Type(), pretty.Formatter(custom.Data))
			continue
		}
		fmt.Fprintf(&b, "%s (%s) = %s\n", name, v.Type(), runtime.Display(v))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// ConsoleActions reads one action per line: "resume" or "r", "symbols" or
// "s", "stack", "st", "trace" or "stacktrace", and "resume all" or "ra".
// Unrecognized lines are reported and skipped.
type ConsoleActions struct {
	scanner *bufio.Scanner
	prompt  io.Writer
}

func NewConsoleActions(in io.Reader, prompt io.Writer) *ConsoleActions {
	return &ConsoleActions{scanner: bufio.NewScanner(in), prompt: prompt}
}

func (c *ConsoleActions) NextAction() (DebugAction, error) {
	for c.scanner.Scan() {
		action, ok := ParseDebugAction(c.scanner.Text())
		if ok {
			return action, nil
		}
		if c.prompt != nil {
			fmt.Fprintf(c.prompt, "unknown action %q, expected resume, symbols, stack or resume all\n", strings.TrimSpace(c.scanner.Text()))
		}
	}
	if err := c.scanner.Err(); err != nil {
		return ActionResume, err
	}
	return ActionResume, io.EOF
}

// ParseDebugAction maps console input to an action.
func ParseDebugAction(line string) (DebugAction, bool) {
	switch strings.ToLower(strings.Join(strings.Fields(line), " ")) {
	case "resume", "r", "":
		return ActionResume, true
	case "symbols", "s":
		return ActionSymbols, true
	case "stack", "st", "trace", "stacktrace":
		return ActionStack, true
	case "resume all", "ra":
		return ActionResumeAll, true
	}
	return ActionResume, false
}

// ChannelActions receives actions from a channel. A closed channel resumes
// the rest of the run.
type ChannelActions <-chan DebugAction

func (c ChannelActions) NextAction() (DebugAction, error) {
	action, ok := <-c
	if !ok {
		return ActionResume, io.EOF
	}
	return action, nil
}
