package lox

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// --- helpers ---------------------------------------------------------------

func runSrc(t *testing.T, src string, opts ...Option) string {
	t.Helper()
	var out bytes.Buffer
	ip := NewInterpreter(&out, opts...)
	if err := ip.Run(src); err != nil {
		t.Fatalf("Run error: %v\nsource:\n%s", err, src)
	}
	return out.String()
}

func wantOutput(t *testing.T, src, want string, opts ...Option) {
	t.Helper()
	if diff := cmp.Diff(want, runSrc(t, src, opts...)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s\nsource:\n%s", diff, src)
	}
}

func wantRuntimeError(t *testing.T, src string, kind RuntimeErrorKind, opts ...Option) *RuntimeError {
	t.Helper()
	ip := NewInterpreter(nil, opts...)
	err := ip.Run(src)
	var rt *RuntimeError
	if !errors.As(err, &rt) {
		t.Fatalf("want *RuntimeError(%v) for %q, got %v", kind, src, err)
	}
	if rt.Kind != kind {
		t.Fatalf("want %v for %q, got %v (%v)", kind, src, rt.Kind, err)
	}
	return rt
}

// runDynamic interprets src without resolving it, so every reference is
// looked up by walking the environment chain.
func runDynamic(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	ip := NewInterpreter(&out)
	prog := mustParse(t, src)
	if err := ip.Interpret(prog); err != nil {
		t.Fatalf("Interpret error: %v\nsource:\n%s", err, src)
	}
	return out.String()
}

// --- scoping ---------------------------------------------------------------

func Test_Interpreter_Shadowing(t *testing.T) {
	wantOutput(t, "var a=1; { var a=2; print a; } print a;", "2\n1\n")
}

func Test_Interpreter_Redeclaration_ReplacesBinding(t *testing.T) {
	wantOutput(t, "var a = 1; var a = 2; print a;", "2\n")
	wantOutput(t, "var a = 1; var a = a + 1; print a;", "2\n")
	wantOutput(t, "{ var a = 1; var a = 3; print a; }", "3\n")
}

func Test_Interpreter_Block_PopsScopeOnError(t *testing.T) {
	var out bytes.Buffer
	ip := NewInterpreter(&out)
	if err := ip.Run("{ var inner = 1; print 1/0; }"); err == nil {
		t.Fatalf("want division error")
	}
	if len(ip.envs) != 1 || ip.current() != ip.Global {
		t.Fatalf("environment stack not unwound: %d frames", len(ip.envs))
	}
	err := ip.Run("print inner;")
	var rt *RuntimeError
	if !errors.As(err, &rt) || rt.Kind != UndefinedVariable {
		t.Fatalf("block binding leaked into globals: %v", err)
	}
}

func Test_Interpreter_ClosureSeesDeclarationScope(t *testing.T) {
	src := `
var a = "global";
{
  fun show() { print a; }
  show();
  var a = "block";
  show();
}`
	wantOutput(t, src, "global\nglobal\n")
}

// --- closures ----------------------------------------------------------------

func Test_Interpreter_Closures_IndependentCounters(t *testing.T) {
	src := `
fun makeCounter() {
  var i = 0;
  fun count() { i = i + 1; print i; }
  return count;
}
var c1 = makeCounter();
var c2 = makeCounter();
c1(); c1();
c2(); c2();`
	wantOutput(t, src, "1\n2\n1\n2\n")
}

func Test_Interpreter_Closures_ShareCapturedEnvironment(t *testing.T) {
	src := `
fun pair() {
  var n = 0;
  fun inc() { n = n + 1; }
  fun get() { return n; }
  inc(); inc();
  return get;
}
print pair()();`
	wantOutput(t, src, "2\n")
}

func Test_Interpreter_Closures_OutliveTheirBlock(t *testing.T) {
	src := `
var f;
{
  var captured = "kept";
  fun g() { return captured; }
  f = g;
}
print f();`
	wantOutput(t, src, "kept\n")
}

// --- operators -----------------------------------------------------------------

func Test_Interpreter_ShortCircuit(t *testing.T) {
	wantOutput(t, `var a=true; var b = a and (a = "x"); print a;`, "x\n")
	wantOutput(t, `var a=false; var b = a and (a="x"); print a;`, "false\n")
	wantOutput(t, `var a=true; var b = a or (a = "x"); print a; print b;`, "true\ntrue\n")
	wantOutput(t, `var a=nil; var b = a or (a = "x"); print a; print b;`, "x\ntrue\n")
}

func Test_Interpreter_Logical_ReturnBooleans(t *testing.T) {
	wantOutput(t, `print 1 and "two"; print nil or "y"; print nil or false; print 0 and nil;`,
		"true\ntrue\nfalse\nfalse\n")
}

func Test_Interpreter_Truthiness(t *testing.T) {
	src := `
if (0) print "0 truthy";
if ("") print "empty truthy";
if ("s") print "s truthy";
if (true) print "true truthy";
if (false) print "false truthy"; else print "false falsy";
if (nil) print "nil truthy"; else print "nil falsy";`
	wantOutput(t, src, "0 truthy\nempty truthy\ns truthy\ntrue truthy\nfalse falsy\nnil falsy\n")

	for _, v := range []Value{Num(0), Str(""), Str("x"), Bool(true)} {
		if !Truthy(v) {
			t.Fatalf("%v should be truthy", v)
		}
	}
	for _, v := range []Value{Bool(false), NilValue} {
		if Truthy(v) {
			t.Fatalf("%v should be falsy", v)
		}
	}
}

func Test_Interpreter_Arithmetic_And_Strings(t *testing.T) {
	wantOutput(t, `print 1 + 2 * 3; print (1 + 2) * 3; print 7 / 2; print 1 / 3; print -4 - -6;`,
		"7\n9\n3.5\n0.3333333333333333\n2\n")
	wantOutput(t, `print "foo" + "bar"; print "a" + "" + "b";`, "foobar\nab\n")
}

func Test_Interpreter_Comparison_And_Equality(t *testing.T) {
	wantOutput(t, `print 1 < 2; print 2 <= 2; print 3 > 4; print 4 >= 5;`, "true\ntrue\nfalse\nfalse\n")
	wantOutput(t, `print 1 == 1; print 1 == "1"; print nil == nil; print nil == false; print "a" != "b";`,
		"true\nfalse\ntrue\nfalse\ntrue\n")
	wantOutput(t, `fun f() {} print f == f; var g = f; print g == f;`, "true\ntrue\n")
	wantOutput(t, `
fun make() { fun inner() {} return inner; }
print make() == make();`, "false\n")
	wantOutput(t, `print clock == clock;`, "true\n")
}

func Test_Interpreter_DivisionByZero(t *testing.T) {
	rt := wantRuntimeError(t, "print 1/0;", DivisionByZero)
	if rt.Line != 1 || rt.Col != 7 {
		t.Fatalf("position %d:%d, want 1:7", rt.Line, rt.Col)
	}
	wantRuntimeError(t, "var z = 0; print 5 / (z * 2);", DivisionByZero)
}

func Test_Interpreter_InvalidOperator(t *testing.T) {
	rt := wantRuntimeError(t, `print "a" + 1;`, InvalidOperator)
	if rt.Op != Plus || rt.Left != "string" || rt.Right != "number" {
		t.Fatalf("unexpected details %+v", rt)
	}
	if !strings.Contains(rt.Error(), "invalid operator '+' for string and number") {
		t.Fatalf("message: %v", rt)
	}
	wantRuntimeError(t, `print 1 < "a";`, InvalidOperator)
	wantRuntimeError(t, `print "a" < "b";`, InvalidOperator)
	wantRuntimeError(t, `print nil - 1;`, InvalidOperator)
	wantRuntimeError(t, `print true * false;`, InvalidOperator)
}

func Test_Interpreter_Unary_TypeMismatch(t *testing.T) {
	rt := wantRuntimeError(t, `print -"a";`, TypeMismatch)
	if rt.Expected != "number" || rt.Got != "string" {
		t.Fatalf("unexpected details %+v", rt)
	}
	rt = wantRuntimeError(t, `print !1;`, TypeMismatch)
	if rt.Expected != "boolean" || rt.Got != "number" {
		t.Fatalf("unexpected details %+v", rt)
	}
	wantOutput(t, `print !false; print -(-3);`, "true\n3\n")
}

// --- variables -----------------------------------------------------------------

func Test_Interpreter_UndefinedVariable(t *testing.T) {
	rt := wantRuntimeError(t, "print x;", UndefinedVariable)
	if rt.Name != "x" {
		t.Fatalf("name %q", rt.Name)
	}
	rt = wantRuntimeError(t, "x = 1;", UndefinedVariable)
	if rt.Name != "x" || rt.Line != 1 || rt.Col != 0 {
		t.Fatalf("unexpected details %+v", rt)
	}
}

func Test_Interpreter_GlobalsDeclaredAfterUse(t *testing.T) {
	wantOutput(t, `fun f() { return later; } var later = "ok"; print f();`, "ok\n")
}

// --- control flow ----------------------------------------------------------------

func Test_Interpreter_DanglingElse(t *testing.T) {
	wantOutput(t, `if(true) if(false) print "A"; else print "B";`, "B\n")
	wantOutput(t, `if(false) if(true) print "A"; else print "B";`, "")
}

func Test_Interpreter_While(t *testing.T) {
	wantOutput(t, `var i = 0; while (i < 3) { print i; i = i + 1; }`, "0\n1\n2\n")
}

func Test_Interpreter_For_MatchesHandWrittenWhile(t *testing.T) {
	cases := []struct{ loop, while string }{
		{
			"for (var i = 0; i < 3; i = i + 1) { print i; }",
			"{ var i = 0; while (i < 3) { { print i; } i = i + 1; } }",
		},
		{
			"var n = 0; for (; n < 2;) { print n; n = n + 1; }",
			"var n = 0; { while (n < 2) { { print n; n = n + 1; } } }",
		},
		{
			`fun f() { for (var i = 10;; i = i - 3) { if (i < 0) return i; print i; } } print f();`,
			`fun f() { { var i = 10; while (true) { { if (i < 0) return i; print i; } i = i - 3; } } } print f();`,
		},
		{
			`var fs = nil; for (var i = 0; i < 2; i = i + 1) { fun g() { return i; } fs = g; } print fs();`,
			`var fs = nil; { var i = 0; while (i < 2) { { fun g() { return i; } fs = g; } i = i + 1; } } print fs();`,
		},
	}
	for _, c := range cases {
		got, want := runSrc(t, c.loop), runSrc(t, c.while)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("for/while traces differ (-while +for):\n%s\nfor: %s", diff, c.loop)
		}
	}
}

func Test_Interpreter_LoopVariable_ScopedToLoop(t *testing.T) {
	ip := NewInterpreter(nil)
	if err := ip.Run("for (var i = 0; i < 1; i = i + 1) {}"); err != nil {
		t.Fatal(err)
	}
	if _, ok := ip.Global.Get("i"); ok {
		t.Fatalf("loop variable leaked into globals")
	}
}

// --- functions -----------------------------------------------------------------

func Test_Interpreter_Fib(t *testing.T) {
	wantOutput(t, `fun fib(n){ if (n>=2) return fib(n-1)+fib(n-2); else return n; } print fib(10);`, "55\n")
}

func Test_Interpreter_Return_Values(t *testing.T) {
	wantOutput(t, `fun f() { return; } print f();`, "Nil\n")
	wantOutput(t, `fun f() { print "body"; } print f();`, "body\nNil\n")
	wantOutput(t, `fun f() { while (true) { { return 5; } } } print f();`, "5\n")
	wantOutput(t, `fun f(n) { if (n > 0) { return "pos"; } return "non-pos"; } print f(1); print f(0);`,
		"pos\nnon-pos\n")
}

func Test_Interpreter_Arguments_EvaluatedLeftToRight(t *testing.T) {
	src := `
var i = 0;
fun next() { i = i + 1; return i; }
fun show(a, b, c) { print a; print b; print c; }
show(next(), next(), next());`
	wantOutput(t, src, "1\n2\n3\n")
}

func Test_Interpreter_ArityMismatch(t *testing.T) {
	rt := wantRuntimeError(t, "fun f(a) {} f(1, 2);", NumberOfArgumentsMismatch)
	if rt.Arity != 1 || rt.Name != "f" || rt.Args != 2 {
		t.Fatalf("want (1, f, 2), got (%d, %s, %d)", rt.Arity, rt.Name, rt.Args)
	}
	if rt.Line != 1 || rt.Col != 18 {
		t.Fatalf("position %d:%d, want the closing paren 1:18", rt.Line, rt.Col)
	}
	rt = wantRuntimeError(t, "clock(1);", NumberOfArgumentsMismatch)
	if rt.Arity != 0 || rt.Name != "clock" || rt.Args != 1 {
		t.Fatalf("native arity details %+v", rt)
	}
}

func Test_Interpreter_UndefinedFunction_And_NotCallable(t *testing.T) {
	rt := wantRuntimeError(t, "nope(1);", UndefinedFunction)
	if rt.Name != "nope" {
		t.Fatalf("name %q", rt.Name)
	}
	rt = wantRuntimeError(t, `var a = "str"; a();`, TypeMismatch)
	if rt.Expected != "function" || rt.Got != "string" {
		t.Fatalf("unexpected details %+v", rt)
	}
	wantRuntimeError(t, `fun f() { return 1; } f()();`, TypeMismatch)
}

func Test_Interpreter_StackOverflow(t *testing.T) {
	wantRuntimeError(t, "fun f(){f();} f();", StackOverflow)
	wantRuntimeError(t, "fun f(){f();} f();", StackOverflow, WithMaxCallDepth(16))

	// Exactly at the limit is fine.
	src := "fun d(n){ if (n == 0) return 0; return d(n-1); } print d(%s);"
	wantOutput(t, strings.Replace(src, "%s", "9", 1), "0\n", WithMaxCallDepth(10))
	wantRuntimeError(t, strings.Replace(src, "%s", "10", 1), StackOverflow, WithMaxCallDepth(10))

	// The interpreter stays usable afterwards.
	ip := NewInterpreter(nil, WithMaxCallDepth(8))
	_ = ip.Run("fun f(){f();} f();")
	if ip.depth != 0 || len(ip.envs) != 1 {
		t.Fatalf("state not unwound: depth=%d frames=%d", ip.depth, len(ip.envs))
	}
}

// --- resolver vs dynamic lookup ------------------------------------------------

func Test_Interpreter_ResolvedAndDynamicLookupsAgree(t *testing.T) {
	programs := []string{
		"var a=1; { var a=2; print a; } print a;",
		`fun fib(n){ if (n>=2) return fib(n-1)+fib(n-2); else return n; } print fib(10);`,
		`fun makeCounter() { var i = 0; fun count() { i = i + 1; print i; } return count; }
		 var c1 = makeCounter(); var c2 = makeCounter(); c1(); c1(); c2();`,
		`var x = "outer"; fun f() { var x = "inner"; { x = x + "!"; print x; } } f(); print x;`,
		`for (var i = 0; i < 3; i = i + 1) { var sq = i * i; print sq; }`,
		`fun f() { return later; } var later = "late"; print f();`,
		`var a = 0; fun bump() { a = a + 1; } bump(); bump(); print a;`,
	}
	for _, src := range programs {
		if diff := cmp.Diff(runDynamic(t, src), runSrc(t, src)); diff != "" {
			t.Fatalf("resolved and dynamic runs differ (-dynamic +resolved):\n%s\nsource:\n%s", diff, src)
		}
	}
}

// --- display ---------------------------------------------------------------------

func Test_Interpreter_Print_DisplayForms(t *testing.T) {
	wantOutput(t, `print nil; print true; print false; print 20; print 0.5; print -3.25; print "raw text";`,
		"Nil\ntrue\nfalse\n20\n0.5\n-3.25\nraw text\n")
	wantOutput(t, `fun f() {} print f; print clock;`, "fun f\nnative fun clock\n")
}

// --- host API --------------------------------------------------------------------

func Test_Interpreter_Execute_And_Evaluate(t *testing.T) {
	var out bytes.Buffer
	ip := NewInterpreter(&out)
	v, err := ip.Evaluate(&Binary{Left: &Literal{Value: Num(1)}, Op: Plus, Right: &Literal{Value: Num(2)}})
	if err != nil || !Equal(v, Num(3)) {
		t.Fatalf("Evaluate = %v, %v", v, err)
	}
	v, err = ip.Execute(&ExprStmt{Expr: &Literal{Value: Str("s")}})
	if err != nil || !Equal(v, Str("s")) {
		t.Fatalf("Execute = %v, %v", v, err)
	}
	if _, err := ip.Execute(&PrintStmt{Expr: &Literal{Value: Num(4)}}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "4\n" {
		t.Fatalf("output %q", out.String())
	}
}

func Test_Interpreter_ReturnAtTopLevel_IsInternalError(t *testing.T) {
	ip := NewInterpreter(nil)
	_, err := ip.Execute(&ReturnStmt{})
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("want *InternalError, got %v", err)
	}
}

func Test_Interpreter_Call_FromGo(t *testing.T) {
	ip := NewInterpreter(nil)
	if err := ip.Run("fun add(a, b) { return a + b; }"); err != nil {
		t.Fatal(err)
	}
	fn, ok := ip.Global.Get("add")
	if !ok {
		t.Fatal("add not defined")
	}
	v, err := ip.Call(fn, []Value{Num(1), Num(2)})
	if err != nil || !Equal(v, Num(3)) {
		t.Fatalf("Call = %v, %v", v, err)
	}
	_, err = ip.Call(Num(1), nil)
	var rt *RuntimeError
	if !errors.As(err, &rt) || rt.Kind != TypeMismatch {
		t.Fatalf("calling a number: %v", err)
	}
}

func Test_Interpreter_RegisterNative(t *testing.T) {
	var out bytes.Buffer
	ip := NewInterpreter(&out)
	ip.RegisterNative("double", 1, func(_ *Interpreter, args []Value) (Value, error) {
		if args[0].Tag != VTNum {
			return NilValue, &RuntimeError{Kind: TypeMismatch, Expected: "number", Got: args[0].Tag.String()}
		}
		return Num(args[0].Data.(float64) * 2), nil
	})
	ip.RegisterNative("apply", 2, func(ip *Interpreter, args []Value) (Value, error) {
		return ip.Call(args[0], args[1:])
	})
	src := `
print double(21);
fun inc(x) { return x + 1; }
print apply(inc, 41);
{ print double(1); }`
	if err := ip.Run(src); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("42\n42\n2\n", out.String()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	err := ip.Run(`double("x");`)
	var rt *RuntimeError
	if !errors.As(err, &rt) || rt.Kind != TypeMismatch || rt.Line != 1 {
		t.Fatalf("native errors get the call position: %v", err)
	}
}

func Test_Interpreter_RegisterNative_ReplacementIsADistinctValue(t *testing.T) {
	var out bytes.Buffer
	ip := NewInterpreter(&out)
	if err := ip.Run("var old = clock; print old == clock;"); err != nil {
		t.Fatal(err)
	}
	ip.RegisterNative("clock", 0, func(_ *Interpreter, _ []Value) (Value, error) {
		return Num(0), nil
	})
	if err := ip.Run("print old == clock; print clock == clock;"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("true\nfalse\ntrue\n", out.String()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func Test_Interpreter_Clock(t *testing.T) {
	saved := clockNow
	t.Cleanup(func() { clockNow = saved })
	clockNow = func() time.Time { return time.Unix(10, 500000000) }
	wantOutput(t, "print clock();", "10.5\n")
}

func Test_Interpreter_WithNatives_Disabled(t *testing.T) {
	wantRuntimeError(t, "print clock;", UndefinedVariable, WithNatives(false))
}

func Test_Interpreter_WithLogger_RecordsCalls(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	runSrc(t, "fun f() {} f();", WithLogger(logger))
	for _, want := range []string{"msg=\"native registered\" name=clock", "msg=call function=f depth=1"} {
		if !strings.Contains(logs.String(), want) {
			t.Fatalf("log missing %q:\n%s", want, logs.String())
		}
	}
}

func Test_Interpreter_Run_ReportsCompileErrors(t *testing.T) {
	ip := NewInterpreter(nil)
	err := ip.Run("print ;")
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Kind != ExpectedToken {
		t.Fatalf("want ExpectedToken, got %v", err)
	}
}

func Test_Interpreter_PersistentState_AcrossRuns(t *testing.T) {
	var out bytes.Buffer
	ip := NewInterpreter(&out)
	for _, line := range []string{"var n = 1;", "fun inc() { n = n + 1; }", "inc();", "print n;"} {
		if err := ip.Run(line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}
	if out.String() != "2\n" {
		t.Fatalf("output %q", out.String())
	}
}
