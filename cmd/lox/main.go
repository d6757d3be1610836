// Command lox runs, checks and inspects Lox programs and hosts an
// interactive REPL.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	lox "github.com/brauliobz/crafting-interpreters"
)

const appName = "lox"

// version is overridden at link time (-ldflags "-X main.version=...").
var version = "dev"

// Exit codes follow sysexits(3).
const (
	exitOK      = 0
	exitUsage   = 64
	exitCompile = 65
	exitRuntime = 70
	exitIO      = 74
)

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(a.run(os.Args[1:]))
}

func (a *app) run(args []string) int {
	if len(args) < 1 {
		a.usage(a.stderr)
		return exitUsage
	}

	cmd := args[0]
	switch cmd {
	case "run":
		return a.cmdRun(args[1:])
	case "repl":
		return a.cmdRepl(args[1:])
	case "check":
		return a.cmdCheck(args[1:])
	case "ast":
		return a.cmdAST(args[1:])
	case "tokens":
		return a.cmdTokens(args[1:])
	case "version":
		fmt.Fprintln(a.stdout, version)
		return exitOK
	case "-h", "--help", "help":
		a.usage(a.stdout)
		return exitOK
	default:
		fmt.Fprintf(a.stderr, "%s: unknown command %q\n", appName, cmd)
		a.usage(a.stderr)
		return exitUsage
	}
}

func (a *app) usage(w io.Writer) {
	fmt.Fprintf(w, `Lox %s

Usage:
  %s run [flags] <file.lox | ->      Run a script ("-" reads stdin).
  %s repl [flags]                    Start the REPL.
  %s check [flags] [path ...]        Scan, parse and resolve files without running them.
  %s ast [-resolve] <file.lox>       Print the syntax tree as S-expressions.
  %s tokens <file.lox>               Print the token stream.
  %s version                         Print the version.

Common flags:
  -config <file>      YAML config (default $%s or ~/%s)
  -log-level <level>  debug, info, warn or error
  -max-depth <n>      maximum call depth
`, version, appName, appName, appName, appName, appName, appName, configEnv, configFileName)
}

// -----------------------------------------------------------------------------
// shared flags & setup
// -----------------------------------------------------------------------------

type commonFlags struct {
	config   string
	logLevel string
	maxDepth int
}

func (a *app) newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	c := &commonFlags{}
	fs.StringVar(&c.config, "config", "", "path to a YAML config file")
	fs.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.IntVar(&c.maxDepth, "max-depth", 0, "maximum call depth")
	return fs, c
}

// setup loads the config file and applies flag overrides.
func (a *app) setup(c *commonFlags) (Config, []lox.Option, error) {
	path, required := c.config, c.config != ""
	if path == "" {
		path, required = configPath()
	}
	cfg, err := LoadConfig(path, required)
	if err != nil {
		return cfg, nil, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if c.maxDepth > 0 {
		cfg.MaxCallDepth = c.maxDepth
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	logger := newLogger(a.stderr, level)
	logger.Debug("config loaded", "path", path, "max_call_depth", cfg.MaxCallDepth)
	opts := []lox.Option{
		lox.WithMaxCallDepth(cfg.MaxCallDepth),
		lox.WithLogger(logger),
	}
	return cfg, opts, nil
}

func (a *app) readSource(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(b), nil
}

// exitCode maps a pipeline error to the process exit status.
func exitCode(err error) int {
	var ce *lox.CompileError
	if errors.As(err, &ce) {
		return exitCompile
	}
	return exitRuntime
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func (a *app) cmdRun(args []string) int {
	fs, common := a.newFlagSet("run")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(a.stderr, "usage: %s run [flags] <file.lox | ->\n", appName)
		return exitUsage
	}
	_, opts, err := a.setup(common)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return exitUsage
	}

	file := fs.Arg(0)
	src, err := a.readSource(file)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return exitIO
	}

	ip := lox.NewInterpreter(a.stdout, opts...)
	if err := ip.Run(src); err != nil {
		fmt.Fprint(a.stderr, lox.WrapErrorWithName(err, file, src).Error())
		return exitCode(err)
	}
	return exitOK
}

// -----------------------------------------------------------------------------
// ast / tokens
// -----------------------------------------------------------------------------

func (a *app) cmdAST(args []string) int {
	fs := flag.NewFlagSet("ast", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	resolve := fs.Bool("resolve", false, "annotate references with their resolved depth (name@depth)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(a.stderr, "usage: %s ast [-resolve] <file.lox>\n", appName)
		return exitUsage
	}
	file := fs.Arg(0)
	src, err := a.readSource(file)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return exitIO
	}

	prog, err := lox.ParseSource(src)
	if err == nil && *resolve {
		err = lox.Resolve(prog)
	}
	if err != nil {
		fmt.Fprint(a.stderr, lox.WrapErrorWithName(err, file, src).Error())
		return exitCompile
	}
	if len(prog) > 0 {
		fmt.Fprintln(a.stdout, lox.FormatAST(prog))
	}
	return exitOK
}

func (a *app) cmdTokens(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(a.stderr, "usage: %s tokens <file.lox>\n", appName)
		return exitUsage
	}
	file := args[0]
	src, err := a.readSource(file)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return exitIO
	}
	toks, err := lox.ScanTokens(src)
	if err != nil {
		fmt.Fprint(a.stderr, lox.WrapErrorWithName(err, file, src).Error())
		return exitCompile
	}
	for _, t := range toks {
		fmt.Fprintf(a.stdout, "%d:%d\t%s\t%s\n", t.Line, t.Col+1, t.Type, t.Lexeme)
	}
	return exitOK
}
