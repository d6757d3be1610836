// interpreter_exec.go: PRIVATE: statement execution and the call engine.
//
//   - exec/eval dispatch over the closed Stmt/Expr sets.
//   - Blocks run in a fresh child of the current environment and pop it on
//     every exit path.
//   - Calls run in a fresh child of the callee's closure. Arguments are
//     evaluated left to right before the frame exists.
//   - `return` travels as *returnSignal through the error channel and is
//     turned back into a Value in callFunction; nothing else catches it.
//   - Call depth is bounded by maxDepth; exceeding it raises StackOverflow
//     instead of exhausting the Go stack.
//
// No exported identifiers here. The public facade lives in interpreter.go.
package lox

import (
	"errors"
	"fmt"
	"log/slog"
)

////////////////////////////////////////////////////////////////////////////////
//                               ENVIRONMENT STACK
////////////////////////////////////////////////////////////////////////////////

func (ip *Interpreter) current() *Env { return ip.envs[len(ip.envs)-1] }

func (ip *Interpreter) push(e *Env) { ip.envs = append(ip.envs, e) }

func (ip *Interpreter) pop() { ip.envs = ip.envs[:len(ip.envs)-1] }

////////////////////////////////////////////////////////////////////////////////
//                                  STATEMENTS
////////////////////////////////////////////////////////////////////////////////

func (ip *Interpreter) exec(s Stmt) (Value, error) {
	switch n := s.(type) {
	case *ExprStmt:
		return ip.eval(n.Expr)

	case *PrintStmt:
		v, err := ip.eval(n.Expr)
		if err != nil {
			return NilValue, err
		}
		if _, err := fmt.Fprintln(ip.out, FormatValue(v)); err != nil {
			return NilValue, fmt.Errorf("print: %w", err)
		}
		return NilValue, nil

	case *VarStmt:
		v := NilValue
		if n.Init != nil {
			var err error
			if v, err = ip.eval(n.Init); err != nil {
				return NilValue, err
			}
		}
		ip.current().Define(n.Name, v)
		return NilValue, nil

	case *BlockStmt:
		return NilValue, ip.execBlock(n.Stmts, NewEnv(ip.current()))

	case *IfStmt:
		c, err := ip.eval(n.Cond)
		if err != nil {
			return NilValue, err
		}
		switch {
		case Truthy(c):
			_, err = ip.exec(n.Then)
		case n.Else != nil:
			_, err = ip.exec(n.Else)
		}
		return NilValue, err

	case *WhileStmt:
		for {
			c, err := ip.eval(n.Cond)
			if err != nil {
				return NilValue, err
			}
			if !Truthy(c) {
				return NilValue, nil
			}
			if _, err := ip.exec(n.Body); err != nil {
				return NilValue, err
			}
		}

	case *FunStmt:
		ip.current().Define(n.Decl.Name, FunVal(&Function{Decl: n.Decl, Closure: ip.current()}))
		return NilValue, nil

	case *ReturnStmt:
		v := NilValue
		if n.Value != nil {
			var err error
			if v, err = ip.eval(n.Value); err != nil {
				return NilValue, err
			}
		}
		return NilValue, &returnSignal{value: v}
	}
	return NilValue, ice("exec: unknown statement %T", s)
}

// execBlock runs stmts with env as the innermost scope. env is popped before
// returning, whether or not a statement failed.
func (ip *Interpreter) execBlock(stmts []Stmt, env *Env) error {
	ip.push(env)
	defer ip.pop()
	for _, s := range stmts {
		if _, err := ip.exec(s); err != nil {
			return err
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
//                                  EXPRESSIONS
////////////////////////////////////////////////////////////////////////////////

func (ip *Interpreter) eval(e Expr) (Value, error) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, nil
	case *Grouping:
		return ip.eval(n.Inner)
	case *Identifier:
		return ip.lookup(n)
	case *Assignment:
		v, err := ip.eval(n.Value)
		if err != nil {
			return NilValue, err
		}
		if !ip.assign(n.Name, n.Depth, v) {
			return NilValue, &RuntimeError{Kind: UndefinedVariable, Name: n.Name, Line: n.Line, Col: n.Col}
		}
		return v, nil
	case *Unary:
		return ip.evalUnary(n)
	case *Binary:
		return ip.evalBinary(n)
	case *Call:
		return ip.evalCall(n)
	}
	return NilValue, ice("eval: unknown expression %T", e)
}

// get reads name at the resolved depth, or by walking the chain when the
// resolver left it unresolved.
func (ip *Interpreter) get(name string, depth int) (Value, bool) {
	if depth == Unresolved {
		return ip.current().Get(name)
	}
	return ip.current().GetAt(depth, name)
}

func (ip *Interpreter) assign(name string, depth int, v Value) bool {
	if depth == Unresolved {
		return ip.current().Assign(name, v)
	}
	return ip.current().AssignAt(depth, name, v)
}

func (ip *Interpreter) lookup(n *Identifier) (Value, error) {
	v, ok := ip.get(n.Name, n.Depth)
	if !ok {
		return NilValue, &RuntimeError{Kind: UndefinedVariable, Name: n.Name, Line: n.Line, Col: n.Col}
	}
	return v, nil
}

////////////////////////////////////////////////////////////////////////////////
//                                     CALLS
////////////////////////////////////////////////////////////////////////////////

func (ip *Interpreter) evalCall(n *Call) (Value, error) {
	var callee Value
	name := ""
	if id, ok := n.Callee.(*Identifier); ok {
		v, found := ip.get(id.Name, id.Depth)
		if !found {
			return NilValue, &RuntimeError{Kind: UndefinedFunction, Name: id.Name, Line: id.Line, Col: id.Col}
		}
		callee, name = v, id.Name
	} else {
		var err error
		if callee, err = ip.eval(n.Callee); err != nil {
			return NilValue, err
		}
	}

	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := ip.eval(a)
		if err != nil {
			return NilValue, err
		}
		args = append(args, v)
	}

	v, err := ip.call(callee, name, args)
	return v, at(err, n.Line, n.Col)
}

// call applies callee to already-evaluated arguments. name is the identifier
// used at the call site, if any; it only feeds error messages.
func (ip *Interpreter) call(callee Value, name string, args []Value) (Value, error) {
	switch callee.Tag {
	case VTFun:
		return ip.callFunction(callee.Data.(*Function), args)
	case VTNative:
		nf := callee.Data.(*NativeFunction)
		if len(args) != nf.Arity {
			return NilValue, &RuntimeError{Kind: NumberOfArgumentsMismatch, Arity: nf.Arity, Name: nf.Name, Args: len(args)}
		}
		return nf.Impl(ip, args)
	}
	if name == "" {
		name = callee.Tag.String()
	}
	return NilValue, &RuntimeError{Kind: TypeMismatch, Expected: "function", Got: callee.Tag.String(), Name: name}
}

func (ip *Interpreter) callFunction(f *Function, args []Value) (Value, error) {
	d := f.Decl
	if len(args) != len(d.Params) {
		return NilValue, &RuntimeError{Kind: NumberOfArgumentsMismatch, Arity: len(d.Params), Name: d.Name, Args: len(args)}
	}
	if ip.depth >= ip.maxDepth {
		ip.logger.Debug("stack overflow", slog.String("function", d.Name), slog.Int("depth", ip.depth))
		return NilValue, &RuntimeError{Kind: StackOverflow}
	}
	ip.depth++
	defer func() { ip.depth-- }()
	ip.logger.Debug("call", slog.String("function", d.Name), slog.Int("depth", ip.depth))

	frame := NewEnv(f.Closure)
	for i, p := range d.Params {
		frame.Define(p, args[i])
	}
	ip.push(frame)
	defer ip.pop()

	for _, s := range d.Body {
		if _, err := ip.exec(s); err != nil {
			var rs *returnSignal
			if errors.As(err, &rs) {
				return rs.value, nil
			}
			return NilValue, err
		}
	}
	return NilValue, nil
}
