package lox

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func mustContain(t *testing.T, s, sub string) {
	t.Helper()
	if !strings.Contains(s, sub) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", sub, s)
	}
}

func mustRuntimeAtLine(t *testing.T, msg string, line int) {
	t.Helper()
	want := "RUNTIME ERROR at " + strconv.Itoa(line) + ":"
	if !strings.Contains(msg, want) {
		t.Fatalf("expected runtime error to report line %d\n--- output ---\n%s", line, msg)
	}
}

func Test_ErrorWrap_Parse_ShowsCaretAndContext(t *testing.T) {
	src := "var x = 1;\nprint (x;"
	_, err := ParseSource(src)
	if err == nil {
		t.Fatalf("expected parse error, got nil")
	}
	msg := WrapErrorWithSource(err, src).Error()

	mustContain(t, msg, "PARSE ERROR at 2:9: expected RightParen, found Semicolon")
	mustContain(t, msg, "   1 | var x = 1;")
	mustContain(t, msg, "   2 | print (x;")
	mustContain(t, msg, "     |         ^")
}

func Test_ErrorWrap_Lex_ShowsCaretAndContext(t *testing.T) {
	src := "var ok = 1;\nvar bad = $;\nprint ok;"
	_, err := ScanTokens(src)
	msg := WrapErrorWithName(err, "demo.lox", src).Error()

	mustContain(t, msg, "LEXICAL ERROR in demo.lox at 2:11: unexpected character '$'")
	mustContain(t, msg, "   1 | var ok = 1;")
	mustContain(t, msg, "   3 | print ok;")
	mustContain(t, msg, "     |           ^")
}

func Test_ErrorWrap_Runtime_ReportsLine(t *testing.T) {
	src := "var a = 1;\n\nprint a / 0;"
	err := NewInterpreter(nil).Run(src)
	msg := WrapErrorWithSource(err, src).Error()
	mustRuntimeAtLine(t, msg, 3)
	mustContain(t, msg, "division by zero")

	var rt *RuntimeError
	if !errors.As(WrapErrorWithSource(err, src), &rt) || rt.Kind != DivisionByZero {
		t.Fatalf("wrapped error must still unwrap to *RuntimeError")
	}
}

func Test_ErrorWrap_LeavesOtherErrorsAlone(t *testing.T) {
	plain := errors.New("plain")
	if WrapErrorWithSource(plain, "x") != plain {
		t.Fatalf("non-pipeline errors should pass through")
	}
	noPos := &RuntimeError{Kind: StackOverflow}
	if WrapErrorWithSource(noPos, "x") != error(noPos) {
		t.Fatalf("runtime errors without a position should pass through")
	}
}

func Test_Errors_Messages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&CompileError{Kind: ExpectedToken, Line: 1, Col: 0, Expected: "Semicolon", Found: "end of input"},
			"PARSE ERROR at 1:1: expected Semicolon, found end of input"},
		{&CompileError{Kind: InvalidLiteral, Line: 2, Col: 3, Expected: "number", Found: "1x"},
			`PARSE ERROR at 2:4: invalid number literal "1x"`},
		{&CompileError{Kind: ExpectedNameAfterVar, Line: 1, Col: 4},
			"PARSE ERROR at 1:5: expected variable name after 'var'"},
		{&CompileError{Kind: ReturnOutsideFunction, Line: 1},
			"PARSE ERROR at 1:1: 'return' outside of a function"},
		{&CompileError{Kind: UnterminatedString, Line: 1, Msg: "string was not terminated"},
			"LEXICAL ERROR at 1:1: string was not terminated"},
		{&RuntimeError{Kind: TypeMismatch, Expected: "number", Got: "string", Line: 1, Col: 6},
			"RUNTIME ERROR at 1:7: type mismatch: expected number, got string"},
		{&RuntimeError{Kind: UndefinedVariable, Name: "x"},
			"RUNTIME ERROR: undefined variable 'x'"},
		{&RuntimeError{Kind: UndefinedFunction, Name: "g"},
			"RUNTIME ERROR: undefined function 'g'"},
		{&RuntimeError{Kind: NumberOfArgumentsMismatch, Arity: 1, Name: "f", Args: 2},
			"RUNTIME ERROR: f expects 1 argument(s), got 2"},
		{&RuntimeError{Kind: StackOverflow}, "RUNTIME ERROR: stack overflow"},
		{ice("previous token unavailable"), "INTERNAL ERROR: previous token unavailable"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("got  %q\nwant %q", got, c.want)
		}
	}
}

func Test_Errors_At_OnlyStampsMissingPositions(t *testing.T) {
	err := at(&RuntimeError{Kind: DivisionByZero}, 3, 4)
	var rt *RuntimeError
	errors.As(err, &rt)
	if rt.Line != 3 || rt.Col != 4 {
		t.Fatalf("position not stamped: %+v", rt)
	}
	at(err, 9, 9)
	if rt.Line != 3 || rt.Col != 4 {
		t.Fatalf("existing position overwritten: %+v", rt)
	}
	if at(nil, 1, 1) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func Test_Errors_IsIncomplete(t *testing.T) {
	if IsIncomplete(nil) || IsIncomplete(errors.New("x")) {
		t.Fatalf("only compile errors can be incomplete")
	}
	_, err := ParseSource("fun f() {")
	if !IsIncomplete(err) || !IsIncomplete(WrapErrorWithSource(err, "fun f() {")) {
		t.Fatalf("open block should be incomplete: %v", err)
	}
}
