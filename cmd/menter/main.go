package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fortio.org/log"
	"github.com/kr/pretty"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/driver"
	"menter/interpreter-go/pkg/interpreter"
	"menter/interpreter-go/pkg/runtime"
)

const cliToolVersion = "menter-cli 0.0.0-dev"

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type runFlags struct {
	json        bool
	debug       bool
	breakpoints []string
	trace       int
	traceSet    bool
	target      string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	return c.run(args)
}

func (c *cli) run(args []string) int {
	args = c.applyLogFlags(args)
	if len(args) == 0 {
		c.printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h", "help":
		c.printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(c.stdout, cliToolVersion)
		return 0
	case "run":
		return c.runEntry(args[1:])
	case "ast":
		return c.dumpAST(args[1:])
	default:
		return c.runEntry(args)
	}
}

// applyLogFlags consumes -v and -q wherever they appear.
func (c *cli) applyLogFlags(args []string) []string {
	rest := args[:0:0]
	for _, arg := range args {
		switch arg {
		case "-v", "--verbose":
			log.SetLogLevel(log.Verbose)
		case "-q", "--quiet":
			log.SetLogLevel(log.Error)
		default:
			rest = append(rest, arg)
		}
	}
	return rest
}

func parseRunFlags(args []string) (*runFlags, error) {
	flags := &runFlags{}
	for idx := 0; idx < len(args); idx++ {
		arg := args[idx]
		switch {
		case arg == "--json":
			flags.json = true
		case arg == "--debug":
			flags.debug = true
		case arg == "--break" || arg == "--trace":
			if idx+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			idx++
			if err := flags.set(arg, args[idx]); err != nil {
				return nil, err
			}
		case strings.HasPrefix(arg, "--break=") || strings.HasPrefix(arg, "--trace="):
			name, value, _ := strings.Cut(arg, "=")
			if err := flags.set(name, value); err != nil {
				return nil, err
			}
		case strings.HasPrefix(arg, "-") && arg != "-":
			return nil, fmt.Errorf("unknown flag %s", arg)
		default:
			if flags.target != "" {
				return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(args[idx:], " "))
			}
			flags.target = arg
		}
	}
	return flags, nil
}

func (f *runFlags) set(name, value string) error {
	switch name {
	case "--break":
		f.breakpoints = append(f.breakpoints, value)
	case "--trace":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("--trace expects a number, got %q", value)
		}
		f.trace = n
		f.traceSet = true
	}
	return nil
}

func (c *cli) runEntry(args []string) int {
	flags, err := parseRunFlags(args)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	program, err := loadProgram(flags.target)
	if err != nil {
		if errors.Is(err, driver.ErrManifestNotFound) {
			fmt.Fprintln(c.stderr, "menter run requires a source file or a project (menter.yml not found)")
			return 1
		}
		fmt.Fprintf(c.stderr, "failed to load program: %v\n", err)
		return 1
	}

	opts := interpreter.OptionsFromManifest(program.Options)
	opts.Output = c.stdout
	if flags.traceSet {
		opts.Trace = flags.trace
	}
	if flags.debug || len(flags.breakpoints) > 0 {
		debugger := interpreter.NewDebugger(interpreter.NewConsoleActions(c.stdin, c.stdout), flags.breakpoints...)
		debugger.Step = flags.debug && len(flags.breakpoints) == 0
		debugger.Output = c.stdout
		opts.Debugger = debugger
	}
	interp, err := interpreter.New(opts)
	if err != nil {
		fmt.Fprintf(c.stderr, "invalid options: %v\n", err)
		return 1
	}

	value, err := interp.EvaluateProgram(program)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	return c.printResult(value, flags.json)
}

func (c *cli) printResult(value *runtime.Value, asJSON bool) int {
	if asJSON {
		data, err := runtime.MarshalJSONIndent(value, "  ")
		if err != nil {
			fmt.Fprintf(c.stderr, "failed to encode result: %v\n", err)
			return 1
		}
		fmt.Fprintln(c.stdout, string(data))
		return 0
	}
	if value != nil && !value.IsEmpty() {
		fmt.Fprintln(c.stdout, runtime.Display(value))
	}
	return 0
}

// loadProgram accepts a tree file, a project directory, a manifest path, or
// nothing (the nearest menter.yml above the working directory).
func loadProgram(target string) (*driver.Program, error) {
	var manifestPath string
	switch {
	case target == "":
		found, err := driver.FindManifest(".")
		if err != nil {
			return nil, err
		}
		manifestPath = found
	case strings.HasSuffix(target, ".yml") || strings.HasSuffix(target, ".yaml"):
		manifestPath = target
	default:
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			manifestPath = filepath.Join(target, driver.ManifestFile)
			break
		}
		src, err := driver.LoadFile(target)
		if err != nil {
			return nil, err
		}
		return &driver.Program{Name: src.Name, Entry: src, Sources: []*driver.Source{src}}, nil
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return driver.LoadProgram(manifest)
}

func (c *cli) dumpAST(args []string) int {
	code := false
	var files []string
	for _, arg := range args {
		if arg == "--code" {
			code = true
			continue
		}
		files = append(files, arg)
	}
	if len(files) == 0 {
		fmt.Fprintln(c.stderr, "menter ast requires at least one tree file")
		return 1
	}
	for _, file := range files {
		src, err := driver.LoadFile(file)
		if err != nil {
			fmt.Fprintln(c.stderr, err)
			return 1
		}
		for _, node := range src.Root.Body {
			if code {
				fmt.Fprintln(c.stdout, ast.Code(node))
				continue
			}
			fmt.Fprintf(c.stdout, "%# v\n", pretty.Formatter(node))
		}
	}
	return 0
}

func (c *cli) printUsage() {
	fmt.Fprintln(c.stderr, "Usage:")
	fmt.Fprintln(c.stderr, "  menter run [--json] [--debug] [--break <code>] [--trace <0-3>] [target]")
	fmt.Fprintln(c.stderr, "  menter <file.json | dir | menter.yml>")
	fmt.Fprintln(c.stderr, "  menter ast [--code] <file.json> ...")
	fmt.Fprintln(c.stderr, "  menter --version")
	fmt.Fprintln(c.stderr, "Global flags: -v (verbose logging), -q (errors only)")
}
