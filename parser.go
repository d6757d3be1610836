// parser.go: recursive-descent parser for Lox.
//
// OVERVIEW
// --------
// The parser consumes the token slice produced by the scanner (see
// scanner.go) and builds the typed AST defined in ast.go. There is one method
// per grammar level, lowest precedence first:
//
//	program     → declaration* EOF
//	declaration → funDecl | varDecl | statement
//	funDecl     → "fun" IDENT "(" params? ")" block
//	varDecl     → "var" IDENT ( "=" expression )? ";"
//	statement   → exprStmt | forStmt | ifStmt | printStmt
//	            | returnStmt | whileStmt | block
//	forStmt     → "for" "(" ( varDecl | exprStmt | ";" ) expression? ";"
//	              expression? ")" statement
//	ifStmt      → "if" "(" expression ")" statement ( "else" statement )?
//
//	expression  → assignment
//	assignment  → IDENT "=" assignment | logic_or
//	logic_or    → logic_and ( "or" logic_and )*
//	logic_and   → equality ( "and" equality )*
//	equality    → comparison ( ( "!=" | "==" ) comparison )*
//	comparison  → term ( ( ">" | ">=" | "<" | "<=" ) term )*
//	term        → factor ( ( "-" | "+" ) factor )*
//	factor      → unary ( ( "/" | "*" ) unary )*
//	unary       → ( "!" | "-" ) unary | call
//	call        → primary ( "(" arguments? ")" )*
//	primary     → NUMBER | STRING | "true" | "false" | "nil"
//	            | IDENT | "(" expression ")"
//
// Notes
//   - Argument and parameter lists are comma separated, with no trailing comma,
//     and hold at most maxArgs entries.
//   - A trailing `else` binds to the nearest unmatched `if` (ifStmt parses its
//     else greedily).
//   - `for` is desugared here into
//     { init; while (cond ?? true) { body; incr; } }
//     so later stages never see a for loop.
//   - `return` is legal only while funDepth > 0; funDepth is restored by a
//     deferred decrement so a failing body cannot leave it skewed.
//   - Recursion depth is capped at maxNesting (TooDeeplyNested).
//   - Every failure is returned as *CompileError; the parser never panics on
//     malformed input. Failures caused by running out of tokens are marked so
//     IsIncomplete reports true.
package lox

import (
	"fmt"
	"strconv"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// maxArgs caps argument and parameter lists.
const maxArgs = 256

// maxNesting bounds the recursion of the descent itself, so pathological
// input yields TooDeeplyNested instead of exhausting the goroutine stack.
const maxNesting = 4 * maxScopeDepth

// Parse builds a Program from a token slice (as returned by Scan).
func Parse(tokens []Token) (Program, error) {
	p := newParser(tokens)
	return p.program()
}

// ParseExpr parses tokens as exactly one expression followed by EOF. REPLs
// use it to echo the value of a bare expression.
func ParseExpr(tokens []Token) (Expr, error) {
	p := newParser(tokens)
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.expected("end of input")
	}
	return e, nil
}

// ParseSource scans and parses src.
func ParseSource(src string) (Program, error) {
	toks, err := ScanTokens(src)
	if err != nil {
		return nil, err
	}
	return Parse(toks)
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
///////////////////////////// PRIVATE IMPLEMENTATION ///////////////////////////
////////////////////////////////////////////////////////////////////////////////

type parser struct {
	toks     []Token
	i        int
	funDepth int // > 0 while parsing a function body
	nesting  int
}

func newParser(tokens []Token) *parser {
	if n := len(tokens); n == 0 || tokens[n-1].Type != EOF {
		// Callers may hand in a hand-built slice without the EOF sentinel.
		end := Token{Type: EOF, Line: 1}
		if n > 0 {
			last := tokens[n-1]
			end.Line, end.Col, end.Offset = last.Line, last.Col+len(last.Lexeme), last.End()
		}
		tokens = append(append([]Token(nil), tokens...), end)
	}
	return &parser{toks: tokens}
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == EOF }
func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) prev() (Token, error) {
	if p.i == 0 || p.i > len(p.toks) {
		return Token{}, ice("previous token unavailable at index %d", p.i)
	}
	return p.toks[p.i-1], nil
}

func (p *parser) check(t TokenType) bool { return p.peek().Type == t }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

// need consumes a token of type t or fails with ExpectedToken.
func (p *parser) need(t TokenType) (Token, error) {
	if p.match(t) {
		return p.prev()
	}
	return Token{}, p.expected(t.String())
}

// needOr consumes a token of type t or fails with a specific kind.
func (p *parser) needOr(t TokenType, kind CompileErrorKind) (Token, error) {
	if p.match(t) {
		return p.prev()
	}
	return Token{}, p.errAt(p.peek(), kind, "")
}

func (p *parser) expected(what string) error {
	g := p.peek()
	e := p.errAt(g, ExpectedToken, "").(*CompileError)
	e.Expected = what
	e.Found = foundText(g)
	return e
}

func (p *parser) errAt(t Token, kind CompileErrorKind, msg string) error {
	return &CompileError{Kind: kind, Line: t.Line, Col: t.Col, Msg: msg, eof: t.Type == EOF}
}

// enter guards one level of recursion; pair it with a deferred leave.
func (p *parser) enter() error {
	if p.nesting >= maxNesting {
		e := p.errAt(p.peek(), TooDeeplyNested, fmt.Sprintf("nesting deeper than %d", maxNesting)).(*CompileError)
		e.eof = false // more input cannot fix it
		return e
	}
	p.nesting++
	return nil
}

func (p *parser) leave() { p.nesting-- }

func foundText(t Token) string {
	if t.Type == EOF {
		return "end of input"
	}
	return t.Type.String()
}

// ───────────────────────── program / declarations ───────────────────────────

func (p *parser) program() (Program, error) {
	var stmts Program
	for !p.atEnd() {
		s, err := p.declaration()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (p *parser) declaration() (Stmt, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	switch {
	case p.match(Var):
		return p.varDecl()
	case p.match(Fun):
		return p.funDecl()
	case p.check(Class):
		return nil, p.errAt(p.peek(), SyntaxError, "classes are not supported")
	}
	return p.statement()
}

func (p *parser) varDecl() (Stmt, error) {
	name, err := p.needOr(Ident, ExpectedNameAfterVar)
	if err != nil {
		return nil, err
	}
	var init Expr
	if p.match(EqualSign) {
		if init, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.needOr(Semicolon, ExpectedSemicolonAfterVarDecl); err != nil {
		return nil, err
	}
	return &VarStmt{Name: name.Lexeme, Init: init, Line: name.Line, Col: name.Col}, nil
}

func (p *parser) funDecl() (Stmt, error) {
	name, err := p.need(Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(LeftParen); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(RightParen) {
		for {
			if len(params) == maxArgs {
				return nil, p.errAt(p.peek(), TooManyArguments, fmt.Sprintf("can't have more than %d parameters", maxArgs))
			}
			param, err := p.need(Ident)
			if err != nil {
				return nil, err
			}
			params = append(params, param.Lexeme)
			if !p.match(Comma) {
				break
			}
		}
	}
	if _, err := p.need(RightParen); err != nil {
		return nil, err
	}
	if _, err := p.need(LeftBrace); err != nil {
		return nil, err
	}

	p.funDepth++
	defer func() { p.funDepth-- }()

	body, err := p.blockBody()
	if err != nil {
		return nil, err
	}
	return &FunStmt{Decl: &FunctionDecl{Name: name.Lexeme, Params: params, Body: body, Line: name.Line}}, nil
}

// ───────────────────────────── statements ──────────────────────────────────

func (p *parser) statement() (Stmt, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	switch {
	case p.match(Print):
		return p.printStmt()
	case p.match(LeftBrace):
		open, err := p.prev()
		if err != nil {
			return nil, err
		}
		body, err := p.blockBody()
		if err != nil {
			return nil, err
		}
		return &BlockStmt{Stmts: body, Line: open.Line, Col: open.Col}, nil
	case p.match(If):
		return p.ifStmt()
	case p.match(While):
		return p.whileStmt()
	case p.match(For):
		return p.forStmt()
	case p.match(Return):
		return p.returnStmt()
	}
	return p.exprStmt()
}

// blockBody parses declarations up to and including the closing '}'. The
// opening '{' has already been consumed.
func (p *parser) blockBody() ([]Stmt, error) {
	var stmts []Stmt
	for !p.check(RightBrace) && !p.atEnd() {
		s, err := p.declaration()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.need(RightBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) printStmt() (Stmt, error) {
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(Semicolon); err != nil {
		return nil, err
	}
	return &PrintStmt{Expr: e}, nil
}

func (p *parser) exprStmt() (Stmt, error) {
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(Semicolon); err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: e}, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	cond, err := p.parenCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.statement()
	if err != nil {
		return nil, err
	}
	var els Stmt
	if p.match(Else) {
		if els, err = p.statement(); err != nil {
			return nil, err
		}
	}
	return &IfStmt{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	cond, err := p.parenCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body}, nil
}

func (p *parser) parenCondition() (Expr, error) {
	if _, err := p.need(LeftParen); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RightParen); err != nil {
		return nil, err
	}
	return cond, nil
}

// forStmt desugars `for (init; cond; incr) body` into
//
//	{ init; while (cond) { body; incr; } }
//
// with cond defaulting to `true`.
func (p *parser) forStmt() (Stmt, error) {
	kw, err := p.prev()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(LeftParen); err != nil {
		return nil, err
	}

	var init Stmt
	switch {
	case p.match(Semicolon):
	case p.match(Var):
		init, err = p.varDecl()
	default:
		init, err = p.exprStmt()
	}
	if err != nil {
		return nil, err
	}

	var cond Expr
	if !p.check(Semicolon) {
		if cond, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.need(Semicolon); err != nil {
		return nil, err
	}

	var incr Expr
	if !p.check(RightParen) {
		if incr, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.need(RightParen); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if cond == nil {
		cond = &Literal{Value: Bool(true)}
	}
	loopBody := []Stmt{body}
	if incr != nil {
		loopBody = append(loopBody, &ExprStmt{Expr: incr})
	}
	var outer []Stmt
	if init != nil {
		outer = append(outer, init)
	}
	outer = append(outer, &WhileStmt{Cond: cond, Body: &BlockStmt{Stmts: loopBody, Line: kw.Line, Col: kw.Col}})
	return &BlockStmt{Stmts: outer, Line: kw.Line, Col: kw.Col}, nil
}

func (p *parser) returnStmt() (Stmt, error) {
	kw, err := p.prev()
	if err != nil {
		return nil, err
	}
	if p.funDepth == 0 {
		return nil, p.errAt(kw, ReturnOutsideFunction, "")
	}
	var value Expr
	if !p.check(Semicolon) {
		if value, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.need(Semicolon); err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: value, Line: kw.Line}, nil
}

// ───────────────────────────── expressions ─────────────────────────────────

func (p *parser) expression() (Expr, error) { return p.assignment() }

func (p *parser) assignment() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	target, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.match(EqualSign) {
		return target, nil
	}
	eq, err := p.prev()
	if err != nil {
		return nil, err
	}
	id, ok := target.(*Identifier)
	if !ok {
		return nil, p.errAt(eq, InvalidAssignmentTarget, "invalid assignment target")
	}
	rvalue, err := p.assignment()
	if err != nil {
		return nil, err
	}
	return &Assignment{Name: id.Name, Depth: Unresolved, Value: rvalue, Line: id.Line, Col: id.Col}, nil
}

// binaryLevel parses a left-associative chain `next (op next)*`.
func (p *parser) binaryLevel(next func() (Expr, error), ops ...TokenType) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for p.match(ops...) {
		op, err := p.prev()
		if err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &Binary{Left: left, Op: op.Type, Right: right, Line: op.Line, Col: op.Col}
	}
	return left, nil
}

func (p *parser) or() (Expr, error)  { return p.binaryLevel(p.and, Or) }
func (p *parser) and() (Expr, error) { return p.binaryLevel(p.equality, And) }
func (p *parser) equality() (Expr, error) {
	return p.binaryLevel(p.comparison, BangEqual, EqualEqual)
}
func (p *parser) comparison() (Expr, error) {
	return p.binaryLevel(p.term, Greater, GreaterEqual, Less, LessEqual)
}
func (p *parser) term() (Expr, error)   { return p.binaryLevel(p.factor, Minus, Plus) }
func (p *parser) factor() (Expr, error) { return p.binaryLevel(p.unary, Slash, Star) }

func (p *parser) unary() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	if !p.match(Bang, Minus) {
		return p.call()
	}
	op, err := p.prev()
	if err != nil {
		return nil, err
	}
	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: op.Type, Operand: operand, Line: op.Line, Col: op.Col}, nil
}

// call parses a primary followed by any number of argument lists, so
// curried calls like f()() nest left to right.
func (p *parser) call() (Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.match(LeftParen) {
		args, err := p.arguments()
		if err != nil {
			return nil, err
		}
		closing, err := p.need(RightParen)
		if err != nil {
			return nil, err
		}
		e = &Call{Callee: e, Args: args, Line: closing.Line, Col: closing.Col}
	}
	return e, nil
}

func (p *parser) arguments() ([]Expr, error) {
	var args []Expr
	if p.check(RightParen) {
		return args, nil
	}
	for {
		if len(args) == maxArgs {
			return nil, p.errAt(p.peek(), TooManyArguments, fmt.Sprintf("can't have more than %d arguments", maxArgs))
		}
		a, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.match(Comma) {
			return args, nil
		}
	}
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch t.Type {
	case False:
		p.i++
		return &Literal{Value: Bool(false)}, nil
	case True:
		p.i++
		return &Literal{Value: Bool(true)}, nil
	case Nil:
		p.i++
		return &Literal{Value: NilValue}, nil
	case Number:
		p.i++
		f, err := strconv.ParseFloat(t.Lexeme, 64)
		if err != nil {
			e := p.errAt(t, InvalidLiteral, "").(*CompileError)
			e.Expected, e.Found = "number", t.Lexeme
			return nil, e
		}
		return &Literal{Value: Num(f)}, nil
	case String:
		p.i++
		if len(t.Lexeme) < 2 {
			return nil, ice("string token without quotes: %q", t.Lexeme)
		}
		return &Literal{Value: Str(t.Lexeme[1 : len(t.Lexeme)-1])}, nil
	case Ident:
		p.i++
		return &Identifier{Name: t.Lexeme, Depth: Unresolved, Line: t.Line, Col: t.Col}, nil
	case LeftParen:
		p.i++
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RightParen); err != nil {
			return nil, err
		}
		return &Grouping{Inner: inner}, nil
	case This, Super:
		return nil, p.errAt(t, SyntaxError, fmt.Sprintf("'%s' is not supported", t.Lexeme))
	}
	return nil, p.expected("expression")
}
