// errors.go: the error taxonomy shared by every stage, plus caret-snippet
// rendering for user-facing diagnostics.
//
// What this file does
// -------------------
// Every failure in the pipeline is an ordinary Go `error` of one of three
// concrete types:
//
//   - *InternalError: an impossible state inside the interpreter itself
//     (a bug). Always fatal to the current run.
//   - *CompileError: detected while scanning, parsing or resolving. The Kind
//     field tells which rule was broken (UnexpectedCharacter, ExpectedToken,
//     ReturnOutsideFunction, ...). Line/Col locate the offending token.
//   - *RuntimeError: detected while evaluating (DivisionByZero, TypeMismatch,
//     UndefinedVariable, StackOverflow, ...).
//
// A fourth, unexported type, *returnSignal, travels through the same error
// channel to unwind a `return` statement up to its call boundary. It is not a
// failure: callFunction converts it back into a Value. If one ever reaches the
// top level it is reported as an *InternalError.
//
// Callers distinguish kinds with errors.As:
//
//	var rt *lox.RuntimeError
//	if errors.As(err, &rt) && rt.Kind == lox.DivisionByZero { ... }
//
// The rendering entry point is `WrapErrorWithSource`, which turns a compile or
// runtime error into a Python-style snippet with a caret:
//
//	PARSE ERROR at 2:9: expected RightParen, found Semicolon
//
//	   1 | var x = 1;
//	   2 | print (x;
//	     |         ^
//
// Line is 1-based; Col is stored 0-based and rendered 1-based.
package lox

import (
	"errors"
	"fmt"
	"strings"
)

/* ===========================
   INTERNAL ERRORS
   =========================== */

// InternalError reports a bug in the interpreter (ICE).
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "INTERNAL ERROR: " + e.Msg }

func ice(format string, args ...any) error {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

/* ===========================
   COMPILE ERRORS
   =========================== */

// CompileErrorKind enumerates scanning, parsing and resolution failures.
type CompileErrorKind int

const (
	UnexpectedCharacter CompileErrorKind = iota
	UnterminatedString
	ExpectedToken
	InvalidLiteral
	ExpectedNameAfterVar
	ExpectedSemicolonAfterVarDecl
	ReturnOutsideFunction
	InvalidAssignmentTarget
	TooManyArguments
	SelfReferenceInInitializer
	TooDeeplyNested
	SyntaxError
)

var compileKindNames = [...]string{
	UnexpectedCharacter:           "UnexpectedCharacter",
	UnterminatedString:            "UnterminatedString",
	ExpectedToken:                 "ExpectedToken",
	InvalidLiteral:                "InvalidLiteral",
	ExpectedNameAfterVar:          "ExpectedNameAfterVar",
	ExpectedSemicolonAfterVarDecl: "ExpectedSemicolonAfterVarDecl",
	ReturnOutsideFunction:         "ReturnOutsideFunction",
	InvalidAssignmentTarget:       "InvalidAssignmentTarget",
	TooManyArguments:              "TooManyArguments",
	SelfReferenceInInitializer:    "SelfReferenceInInitializer",
	TooDeeplyNested:               "TooDeeplyNested",
	SyntaxError:                   "SyntaxError",
}

func (k CompileErrorKind) String() string {
	if k >= 0 && int(k) < len(compileKindNames) {
		return compileKindNames[k]
	}
	return fmt.Sprintf("CompileErrorKind(%d)", int(k))
}

// CompileError is a failure detected before evaluation starts.
//
// Expected/Found are set for ExpectedToken ("Semicolon", "end of input") and
// InvalidLiteral ("number", the offending lexeme). Msg carries the text for
// the remaining kinds.
type CompileError struct {
	Kind     CompileErrorKind
	Line     int
	Col      int
	Expected string
	Found    string
	Msg      string

	eof       bool // caused by running out of input
	resolving bool // raised by the resolver rather than the parser
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.header(), e.Line, e.Col+1, e.message())
}

func (e *CompileError) header() string {
	switch e.Kind {
	case UnexpectedCharacter, UnterminatedString:
		return "LEXICAL ERROR"
	}
	if e.resolving {
		return "RESOLVE ERROR"
	}
	return "PARSE ERROR"
}

func (e *CompileError) message() string {
	switch e.Kind {
	case ExpectedToken:
		return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
	case InvalidLiteral:
		return fmt.Sprintf("invalid %s literal %q", e.Expected, e.Found)
	case ExpectedNameAfterVar:
		return "expected variable name after 'var'"
	case ExpectedSemicolonAfterVarDecl:
		return "expected ';' after variable declaration"
	case ReturnOutsideFunction:
		return "'return' outside of a function"
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

// IsIncomplete reports whether err is a compile error caused by reaching the
// end of input (unterminated string, unclosed block, missing ';' at EOF).
// Interactive front-ends use it to ask for a continuation line.
func IsIncomplete(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.eof
}

/* ===========================
   RUNTIME ERRORS
   =========================== */

// RuntimeErrorKind enumerates evaluation failures.
type RuntimeErrorKind int

const (
	DivisionByZero RuntimeErrorKind = iota
	TypeMismatch
	UndefinedVariable
	UndefinedFunction
	InvalidOperator
	NumberOfArgumentsMismatch
	StackOverflow
)

var runtimeKindNames = [...]string{
	DivisionByZero:            "DivisionByZero",
	TypeMismatch:              "TypeMismatch",
	UndefinedVariable:         "UndefinedVariable",
	UndefinedFunction:         "UndefinedFunction",
	InvalidOperator:           "InvalidOperator",
	NumberOfArgumentsMismatch: "NumberOfArgumentsMismatch",
	StackOverflow:             "StackOverflow",
}

func (k RuntimeErrorKind) String() string {
	if k >= 0 && int(k) < len(runtimeKindNames) {
		return runtimeKindNames[k]
	}
	return fmt.Sprintf("RuntimeErrorKind(%d)", int(k))
}

// RuntimeError is a failure raised during evaluation. Only the fields that
// belong to Kind are populated:
//
//	TypeMismatch               Expected, Got
//	UndefinedVariable          Name
//	UndefinedFunction          Name
//	InvalidOperator            Op, Left, Right
//	NumberOfArgumentsMismatch  Arity, Name, Args
//
// Line is 0 when no source position is known.
type RuntimeError struct {
	Kind RuntimeErrorKind
	Line int
	Col  int

	Name     string
	Expected string
	Got      string
	Op       TokenType
	Left     string
	Right    string
	Arity    int
	Args     int
}

func (e *RuntimeError) Error() string {
	if e.Line <= 0 {
		return "RUNTIME ERROR: " + e.message()
	}
	return fmt.Sprintf("RUNTIME ERROR at %d:%d: %s", e.Line, e.Col+1, e.message())
}

func (e *RuntimeError) message() string {
	switch e.Kind {
	case DivisionByZero:
		return "division by zero"
	case TypeMismatch:
		return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
	case UndefinedVariable:
		return fmt.Sprintf("undefined variable '%s'", e.Name)
	case UndefinedFunction:
		return fmt.Sprintf("undefined function '%s'", e.Name)
	case InvalidOperator:
		return fmt.Sprintf("invalid operator '%s' for %s and %s", e.Op.Symbol(), e.Left, e.Right)
	case NumberOfArgumentsMismatch:
		return fmt.Sprintf("%s expects %d argument(s), got %d", e.Name, e.Arity, e.Args)
	case StackOverflow:
		return "stack overflow"
	}
	return e.Kind.String()
}

// at stamps a position onto a runtime error that does not have one yet.
func at(err error, line, col int) error {
	var rt *RuntimeError
	if errors.As(err, &rt) && rt.Line == 0 {
		rt.Line, rt.Col = line, col
	}
	return err
}

/* ===========================
   CONTROL FLOW
   =========================== */

// returnSignal unwinds a `return` statement to the nearest call boundary.
type returnSignal struct {
	value Value
}

func (r *returnSignal) Error() string { return "return signal escaped its function" }

/* ===========================
   RENDERING
   =========================== */

// WrapErrorWithSource returns an error augmented with a caret-annotated snippet
// of the provided source. It recognizes compile and runtime errors and leaves
// other errors untouched.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source name (file path or
// "<repl>") added to the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &renderedError{cause: err, text: prettyErrorStringLabeled(src, ce.header(), srcName, ce.Line, ce.Col+1, ce.message())}
	}
	var rt *RuntimeError
	if errors.As(err, &rt) && rt.Line > 0 {
		return &renderedError{cause: err, text: prettyErrorStringLabeled(src, "RUNTIME ERROR", srcName, rt.Line, rt.Col+1, rt.message())}
	}
	return err
}

// renderedError keeps the original error reachable through errors.As/Is.
type renderedError struct {
	cause error
	text  string
}

func (e *renderedError) Error() string { return e.text }
func (e *renderedError) Unwrap() error { return e.cause }

// prettyErrorStringLabeled builds a Python-like snippet with a header and a caret.
// It shows at most one previous and one next line when available.
// Coordinates are treated as 1-based and clamped to the source bounds.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
