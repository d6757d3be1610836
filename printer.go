// printer.go: display forms for values and a debugging dump of the AST.
//
// FormatValue is what `print` writes:
//
//	nil       Nil
//	booleans  true / false
//	numbers   shortest decimal form: 20, 0.5, -3.25 (NaN, +Inf, -Inf)
//	strings   raw contents, no quotes
//	functions fun <name>
//	natives   native fun <name>
//
// FormatAST renders a Program as indented S-expressions, one top-level
// statement per line. Resolved references carry their depth as name@depth.
package lox

import (
	"math"
	"strconv"
	"strings"
)

/* ---------- globals & tiny helpers ---------- */

var EnableColor = false // REPL-only; tests can leave this false

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorBlue  = "\033[34m"
)

func colorize(s, c string) string {
	if !EnableColor {
		return s
	}
	return c + s + colorReset
}

// Red colors s when EnableColor is set.
func Red(s string) string { return colorize(s, colorRed) }

// Blue colors s when EnableColor is set.
func Blue(s string) string { return colorize(s, colorBlue) }

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

/* ---------- small writer with indentation ---------- */

type out struct {
	b     *strings.Builder
	depth int
}

func (o *out) write(s string) { o.b.WriteString(s) }
func (o *out) nl()            { o.b.WriteByte('\n') }
func (o *out) pad() {
	for i := 0; i < o.depth; i++ {
		o.b.WriteString("  ")
	}
}
func (o *out) withIndent(fn func()) { o.depth++; fn(); o.depth-- }

/* ---------- values ---------- */

// FormatValue returns the display form of v.
func FormatValue(v Value) string {
	switch v.Tag {
	case VTNil:
		return "Nil"
	case VTBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case VTNum:
		return formatNumber(v.Data.(float64))
	case VTStr:
		return v.Data.(string)
	case VTFun:
		return "fun " + v.Data.(*Function).Decl.Name
	case VTNative:
		return "native fun " + v.Data.(*NativeFunction).Name
	case VTObject:
		return "<object>"
	}
	return "<" + v.Tag.String() + ">"
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

/* ---------- AST ---------- */

// FormatAST pretty-prints a parsed (and optionally resolved) program.
func FormatAST(prog Program) string {
	var b strings.Builder
	p := pp{out: out{b: &b}}
	for i, s := range prog {
		p.stmt(s)
		if i < len(prog)-1 {
			p.out.nl()
		}
	}
	return b.String()
}

// FormatExpr renders a single expression the way FormatAST does.
func FormatExpr(e Expr) string {
	var b strings.Builder
	p := pp{out: out{b: &b}}
	p.expr(e)
	return b.String()
}

type pp struct {
	out out
}

func (p *pp) write(s string) { p.out.write(s) }

// body writes each statement on its own indented line.
func (p *pp) body(stmts []Stmt) {
	p.out.withIndent(func() {
		for _, s := range stmts {
			p.out.nl()
			p.out.pad()
			p.stmt(s)
		}
	})
}

func (p *pp) stmt(s Stmt) {
	switch n := s.(type) {
	case *ExprStmt:
		p.write("(expr ")
		p.expr(n.Expr)
		p.write(")")
	case *PrintStmt:
		p.write("(print ")
		p.expr(n.Expr)
		p.write(")")
	case *VarStmt:
		p.write("(var " + n.Name)
		if n.Init != nil {
			p.write(" ")
			p.expr(n.Init)
		}
		p.write(")")
	case *BlockStmt:
		p.write("(block")
		p.body(n.Stmts)
		p.write(")")
	case *IfStmt:
		p.write("(if ")
		p.expr(n.Cond)
		branches := []Stmt{n.Then}
		if n.Else != nil {
			branches = append(branches, n.Else)
		}
		p.body(branches)
		p.write(")")
	case *WhileStmt:
		p.write("(while ")
		p.expr(n.Cond)
		p.body([]Stmt{n.Body})
		p.write(")")
	case *FunStmt:
		p.write("(fun " + n.Decl.Name + " (" + strings.Join(n.Decl.Params, " ") + ")")
		p.body(n.Decl.Body)
		p.write(")")
	case *ReturnStmt:
		p.write("(return")
		if n.Value != nil {
			p.write(" ")
			p.expr(n.Value)
		}
		p.write(")")
	default:
		p.write("<?>")
	}
}

func (p *pp) expr(e Expr) {
	switch n := e.(type) {
	case *Literal:
		if n.Value.Tag == VTStr {
			p.write(quoteString(n.Value.Data.(string)))
			return
		}
		if n.Value.Tag == VTNil {
			p.write("nil")
			return
		}
		p.write(FormatValue(n.Value))
	case *Identifier:
		p.write(refName(n.Name, n.Depth))
	case *Assignment:
		p.write("(= " + refName(n.Name, n.Depth) + " ")
		p.expr(n.Value)
		p.write(")")
	case *Unary:
		p.write("(" + n.Op.Symbol() + " ")
		p.expr(n.Operand)
		p.write(")")
	case *Binary:
		p.write("(" + n.Op.Symbol() + " ")
		p.expr(n.Left)
		p.write(" ")
		p.expr(n.Right)
		p.write(")")
	case *Grouping:
		p.write("(group ")
		p.expr(n.Inner)
		p.write(")")
	case *Call:
		p.write("(call ")
		p.expr(n.Callee)
		for _, a := range n.Args {
			p.write(" ")
			p.expr(a)
		}
		p.write(")")
	default:
		p.write("<?>")
	}
}

func refName(name string, depth int) string {
	if depth == Unresolved {
		return name
	}
	return name + "@" + strconv.Itoa(depth)
}
