// ast.go: statement and expression nodes produced by the parser.
//
// Both Stmt and Expr are closed sets: the unexported marker methods keep
// other packages from adding variants, and every consumer (resolver,
// interpreter, printer) switches over the concrete pointer types.
//
// Nodes are immutable after parsing with one exception: the Depth field of
// *Identifier and *Assignment, which only the resolver writes.
//
//	Statements                      Expressions
//	----------                      -----------
//	*ExprStmt   expr;               *Identifier  name
//	*PrintStmt  print expr;         *Literal     123 "s" true nil
//	*VarStmt    var name [= init];  *Unary       -x  !x
//	*BlockStmt  { stmts }           *Binary      a op b  (incl. and/or)
//	*IfStmt     if (c) s [else s]   *Grouping    (e)
//	*WhileStmt  while (c) s         *Assignment  name = e
//	*FunStmt    fun name(p) { }     *Call        callee(args)
//	*ReturnStmt return [expr];
package lox

// Unresolved is the Depth of a reference the resolver did not bind to any
// scope; the interpreter looks such names up dynamically.
const Unresolved = -1

// Program is the root of the AST: top-level statements in source order.
type Program []Stmt

// Stmt is a statement node.
type Stmt interface {
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	exprNode()
}

// ───────────────────────────── statements ─────────────────────────────

type ExprStmt struct {
	Expr Expr
}

type PrintStmt struct {
	Expr Expr
}

// VarStmt declares Name in the current scope. Init is nil when omitted.
type VarStmt struct {
	Name string
	Init Expr
	Line int
	Col  int
}

// BlockStmt; Line/Col locate the opening '{' (or the `for` keyword of a
// desugared loop).
type BlockStmt struct {
	Stmts []Stmt
	Line  int
	Col   int
}

// IfStmt; Else is nil when there is no else branch.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

type WhileStmt struct {
	Cond Expr
	Body Stmt
}

// FunStmt wraps a shared declaration. The same *FunctionDecl backs every
// closure created from this statement.
type FunStmt struct {
	Decl *FunctionDecl
}

// ReturnStmt; Value is nil for a bare `return;`.
type ReturnStmt struct {
	Value Expr
	Line  int
}

// FunctionDecl is created once by the parser and shared by pointer.
type FunctionDecl struct {
	Name   string
	Params []string
	Body   []Stmt
	Line   int
}

func (*ExprStmt) stmtNode()   {}
func (*PrintStmt) stmtNode()  {}
func (*VarStmt) stmtNode()    {}
func (*BlockStmt) stmtNode()  {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*FunStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}

// ───────────────────────────── expressions ────────────────────────────

// Identifier references a variable. Depth is the number of scopes to skip
// (0 = innermost), or Unresolved.
type Identifier struct {
	Name  string
	Depth int
	Line  int
	Col   int
}

// Literal holds a Nil, Bool, Number or String value.
type Literal struct {
	Value Value
}

type Unary struct {
	Op      TokenType
	Operand Expr
	Line    int
	Col     int
}

// Binary covers arithmetic, comparison, equality and the logical and/or.
type Binary struct {
	Left  Expr
	Op    TokenType
	Right Expr
	Line  int
	Col   int
}

type Grouping struct {
	Inner Expr
}

// Assignment stores Value into the existing binding Name.
type Assignment struct {
	Name  string
	Depth int
	Value Expr
	Line  int
	Col   int
}

type Call struct {
	Callee Expr
	Args   []Expr
	Line   int // position of the closing ')'
	Col    int
}

func (*Identifier) exprNode() {}
func (*Literal) exprNode()    {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Grouping) exprNode()   {}
func (*Assignment) exprNode() {}
func (*Call) exprNode()       {}
