// interpreter.go: public API surface of the Lox interpreter.
//
// OVERVIEW
// ========
// An Interpreter is a stateful evaluator bound to an output sink. It owns:
//
//   - Global: the root environment. Natives (clock) are bound here, and every
//     top-level `var`/`fun` lands here. It persists across calls, so a host
//     can feed a program one statement (or one REPL line) at a time.
//   - a stack of live environments: envs[0] is Global and the last element is
//     the innermost scope of whatever is executing right now. Blocks push a
//     child of the current top; calls push a child of the callee's closure.
//   - a persistent Resolver whose global scope tracks what Global holds, used
//     by Run to annotate each new program before it executes.
//
// ENTRY POINTS
// ------------
//   - Execute(stmt) / Evaluate(expr): run one already-resolved node in the
//     current environment.
//   - Interpret(prog): execute a resolved program, stopping at the first error.
//   - Run(src): scan → parse → resolve → interpret.
//   - Call(fn, args): apply a function value from Go.
//
// ERRORS
// ------
// Compile errors come back as *CompileError, evaluation failures as
// *RuntimeError, impossible states as *InternalError. None of these methods
// panic on bad input. Use WrapErrorWithSource to render a caret snippet.
//
// CONCURRENCY
// -----------
// An Interpreter is not safe for concurrent use. Separate Interpreters share
// nothing.
package lox

import (
	"errors"
	"io"
	"log/slog"
)

// DefaultMaxCallDepth bounds nested calls before StackOverflow is raised.
const DefaultMaxCallDepth = 1024

// Interpreter executes Lox programs. Construct with NewInterpreter.
type Interpreter struct {
	Global *Env

	envs     []*Env
	out      io.Writer
	logger   *slog.Logger
	maxDepth int
	depth    int
	natives  bool
	resolver *Resolver
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithMaxCallDepth sets the call-depth limit. Values below 1 are ignored.
func WithMaxCallDepth(n int) Option {
	return func(ip *Interpreter) {
		if n > 0 {
			ip.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for debug records (calls, stack overflows,
// native registration).
func WithLogger(l *slog.Logger) Option {
	return func(ip *Interpreter) {
		if l != nil {
			ip.logger = l
		}
	}
}

// WithNatives controls whether the default natives are bound in Global.
// Enabled by default.
func WithNatives(enabled bool) Option {
	return func(ip *Interpreter) {
		ip.natives = enabled
	}
}

// NewInterpreter returns an interpreter that writes `print` output to out.
// A nil out discards output.
func NewInterpreter(out io.Writer, opts ...Option) *Interpreter {
	if out == nil {
		out = io.Discard
	}
	ip := &Interpreter{
		Global:   NewEnv(nil),
		out:      out,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxDepth: DefaultMaxCallDepth,
		natives:  true,
		resolver: NewResolver(),
	}
	for _, opt := range opts {
		opt(ip)
	}
	ip.envs = []*Env{ip.Global}
	if ip.natives {
		for _, n := range defaultNatives() {
			ip.registerNative(n)
		}
	}
	return ip
}

// Execute runs one statement in the current environment. Expression
// statements yield the expression's value; other statements yield Nil.
func (ip *Interpreter) Execute(s Stmt) (Value, error) {
	v, err := ip.exec(s)
	return v, ip.topLevel(err)
}

// Evaluate evaluates one expression in the current environment.
func (ip *Interpreter) Evaluate(e Expr) (Value, error) {
	v, err := ip.eval(e)
	return v, ip.topLevel(err)
}

// Interpret executes a resolved program statement by statement, stopping at
// the first error.
func (ip *Interpreter) Interpret(prog Program) error {
	for _, s := range prog {
		if _, err := ip.Execute(s); err != nil {
			return err
		}
	}
	return nil
}

// Run scans, parses, resolves and interprets src against the persistent
// global state. Errors are returned unrendered.
func (ip *Interpreter) Run(src string) error {
	prog, err := ip.Compile(src)
	if err != nil {
		return err
	}
	return ip.Interpret(prog)
}

// Compile scans, parses and resolves src against this interpreter's globals
// without executing it.
func (ip *Interpreter) Compile(src string) (Program, error) {
	prog, err := ParseSource(src)
	if err != nil {
		return nil, err
	}
	if err := ip.resolver.Resolve(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// EvalExpr resolves and evaluates a single parsed expression at the top
// level. REPLs use it to echo bare expressions.
func (ip *Interpreter) EvalExpr(e Expr) (Value, error) {
	stmt := &ExprStmt{Expr: e}
	if err := ip.resolver.Resolve(Program{stmt}); err != nil {
		return NilValue, err
	}
	return ip.Evaluate(e)
}

// Call applies fn (a function or native value) to args from Go.
func (ip *Interpreter) Call(fn Value, args []Value) (Value, error) {
	v, err := ip.call(fn, "", args)
	return v, ip.topLevel(err)
}

// RegisterNative binds a host function under name in Global and makes the
// name known to the resolver.
func (ip *Interpreter) RegisterNative(name string, arity int, impl NativeImpl) {
	ip.registerNative(&NativeFunction{Name: name, Arity: arity, Impl: impl})
}

// Globals lists the names bound in Global.
func (ip *Interpreter) Globals() []string { return ip.Global.Names() }

//// END_OF_PUBLIC

func (ip *Interpreter) registerNative(n *NativeFunction) {
	ip.Global.Define(n.Name, NativeVal(n))
	ip.resolver.Declare(n.Name)
	ip.logger.Debug("native registered", slog.String("name", n.Name), slog.Int("arity", n.Arity))
}

// topLevel converts a return signal that escaped every call boundary into an
// internal error.
func (ip *Interpreter) topLevel(err error) error {
	if err == nil {
		return nil
	}
	var rs *returnSignal
	if errors.As(err, &rs) {
		return ice("return outside of a function reached the top level")
	}
	return err
}
