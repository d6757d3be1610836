// resolver.go: static scope resolution.
//
// The resolver walks a parsed Program once, before evaluation, and writes the
// Depth field of every *Identifier and *Assignment: the number of scopes to
// skip (0 = innermost) to reach the binding the name refers to. Names that no
// enclosing scope declares at that point keep Depth == Unresolved and are
// looked up dynamically at run time (globals declared after use, natives
// registered late).
//
// Scope layout mirrors the interpreter's environment layout exactly:
//
//	global scope     ↔ Interpreter.Global (seeded with native names)
//	block { }        ↔ NewEnv(current) per block execution
//	function call    ↔ NewEnv(closure), holding the parameters; the body's
//	                   statements run directly in that frame
//
// The walk visits nodes in the same order the interpreter executes them, so a
// name is visible only after its `var` statement.
//
// A Resolver keeps its global scope between calls to Resolve, which lets a
// REPL resolve one line at a time against the accumulated globals.
package lox

import "fmt"

// maxScopeDepth bounds the scope stack.
const maxScopeDepth = 4096

// Resolver annotates variable references with their static depth.
type Resolver struct {
	scopes []map[string]bool // name → fully initialized
}

// NewResolver returns a resolver whose global scope pre-declares globals.
func NewResolver(globals ...string) *Resolver {
	g := make(map[string]bool, len(globals))
	for _, name := range globals {
		g[name] = true
	}
	return &Resolver{scopes: []map[string]bool{g}}
}

// Resolve annotates prog in place. On error the AST may be partially
// annotated and should not be executed.
func (r *Resolver) Resolve(prog Program) error {
	// A failed run can leave inner scopes behind.
	r.scopes = r.scopes[:1]
	for _, s := range prog {
		if err := r.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// Declare adds name to the global scope as an initialized binding.
func (r *Resolver) Declare(name string) { r.scopes[0][name] = true }

// Resolve annotates prog with a fresh resolver that knows the default
// natives.
func Resolve(prog Program) error {
	return NewResolver(nativeNames()...).Resolve(prog)
}

//// END_OF_PUBLIC

func (r *Resolver) push(line, col int) error {
	if len(r.scopes) >= maxScopeDepth {
		return &CompileError{Kind: TooDeeplyNested, Line: line, Col: col,
			Msg: fmt.Sprintf("scopes nested deeper than %d", maxScopeDepth), resolving: true}
	}
	r.scopes = append(r.scopes, make(map[string]bool))
	return nil
}

func (r *Resolver) pop() { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) global() bool { return len(r.scopes) == 1 }

func (r *Resolver) declare(name string) { r.scopes[len(r.scopes)-1][name] = false }
func (r *Resolver) define(name string)  { r.scopes[len(r.scopes)-1][name] = true }

// depth returns how many scopes out name is bound, or Unresolved.
func (r *Resolver) depth(name string) int {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			return len(r.scopes) - 1 - i
		}
	}
	return Unresolved
}

func (r *Resolver) stmts(list []Stmt) error {
	for _, s := range list {
		if err := r.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) stmt(s Stmt) error {
	switch n := s.(type) {
	case *ExprStmt:
		return r.expr(n.Expr)
	case *PrintStmt:
		return r.expr(n.Expr)
	case *VarStmt:
		// Redeclaring a global keeps the old binding visible to the
		// initializer, as the interpreter does.
		_, redeclared := r.scopes[len(r.scopes)-1][n.Name]
		if !(r.global() && redeclared) {
			r.declare(n.Name)
		}
		if n.Init != nil {
			if err := r.expr(n.Init); err != nil {
				return err
			}
		}
		r.define(n.Name)
		return nil
	case *BlockStmt:
		if err := r.push(n.Line, n.Col); err != nil {
			return err
		}
		defer r.pop()
		return r.stmts(n.Stmts)
	case *IfStmt:
		if err := r.expr(n.Cond); err != nil {
			return err
		}
		if err := r.stmt(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			return r.stmt(n.Else)
		}
		return nil
	case *WhileStmt:
		if err := r.expr(n.Cond); err != nil {
			return err
		}
		return r.stmt(n.Body)
	case *FunStmt:
		r.define(n.Decl.Name)
		return r.function(n.Decl)
	case *ReturnStmt:
		if n.Value != nil {
			return r.expr(n.Value)
		}
		return nil
	}
	return ice("resolver: unknown statement %T", s)
}

func (r *Resolver) function(d *FunctionDecl) error {
	if err := r.push(d.Line, 0); err != nil {
		return err
	}
	defer r.pop()
	for _, p := range d.Params {
		r.define(p)
	}
	return r.stmts(d.Body)
}

func (r *Resolver) expr(e Expr) error {
	switch n := e.(type) {
	case *Literal:
		return nil
	case *Identifier:
		if err := r.initialized(n.Name, "read", n.Line, n.Col); err != nil {
			return err
		}
		n.Depth = r.depth(n.Name)
		return nil
	case *Assignment:
		if err := r.expr(n.Value); err != nil {
			return err
		}
		if err := r.initialized(n.Name, "assign", n.Line, n.Col); err != nil {
			return err
		}
		n.Depth = r.depth(n.Name)
		return nil
	case *Unary:
		return r.expr(n.Operand)
	case *Binary:
		if err := r.expr(n.Left); err != nil {
			return err
		}
		return r.expr(n.Right)
	case *Grouping:
		return r.expr(n.Inner)
	case *Call:
		if err := r.expr(n.Callee); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := r.expr(a); err != nil {
				return err
			}
		}
		return nil
	}
	return ice("resolver: unknown expression %T", e)
}

// initialized rejects a use of a local whose `var` initializer is still being
// resolved. At run time that name is not bound yet in its own frame.
func (r *Resolver) initialized(name, use string, line, col int) error {
	if r.global() {
		return nil
	}
	if ready, ok := r.scopes[len(r.scopes)-1][name]; ok && !ready {
		return &CompileError{Kind: SelfReferenceInInitializer, Line: line, Col: col,
			Msg: fmt.Sprintf("can't %s local variable '%s' in its own initializer", use, name), resolving: true}
	}
	return nil
}
