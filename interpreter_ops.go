// interpreter_ops.go: PRIVATE: unary, binary and logical operators.
//
// Typing rules (no implicit coercion anywhere):
//
//	-x            number
//	!x            boolean
//	a + b         number+number or string+string
//	a - * / b     number, number; division by 0 is an error
//	< <= > >=     number, number
//	== !=         any two values (Equal)
//	and / or      any two values, short-circuit, result is a boolean
//
// Unary type errors are TypeMismatch; binary ones are InvalidOperator.
package lox

func (ip *Interpreter) evalUnary(n *Unary) (Value, error) {
	v, err := ip.eval(n.Operand)
	if err != nil {
		return NilValue, err
	}
	switch n.Op {
	case Minus:
		if v.Tag != VTNum {
			return NilValue, &RuntimeError{Kind: TypeMismatch, Expected: VTNum.String(), Got: v.Tag.String(), Line: n.Line, Col: n.Col}
		}
		return Num(-v.Data.(float64)), nil
	case Bang:
		if v.Tag != VTBool {
			return NilValue, &RuntimeError{Kind: TypeMismatch, Expected: VTBool.String(), Got: v.Tag.String(), Line: n.Line, Col: n.Col}
		}
		return Bool(!v.Data.(bool)), nil
	}
	return NilValue, ice("unary operator %s", n.Op)
}

func (ip *Interpreter) evalBinary(n *Binary) (Value, error) {
	if n.Op == And || n.Op == Or {
		return ip.evalLogical(n)
	}
	l, err := ip.eval(n.Left)
	if err != nil {
		return NilValue, err
	}
	r, err := ip.eval(n.Right)
	if err != nil {
		return NilValue, err
	}
	v, err := binaryOp(n.Op, l, r)
	return v, at(err, n.Line, n.Col)
}

// evalLogical evaluates the right operand only when the left one does not
// decide the result.
func (ip *Interpreter) evalLogical(n *Binary) (Value, error) {
	l, err := ip.eval(n.Left)
	if err != nil {
		return NilValue, err
	}
	lt := Truthy(l)
	if n.Op == And && !lt {
		return Bool(false), nil
	}
	if n.Op == Or && lt {
		return Bool(true), nil
	}
	r, err := ip.eval(n.Right)
	if err != nil {
		return NilValue, err
	}
	return Bool(Truthy(r)), nil
}

func binaryOp(op TokenType, l, r Value) (Value, error) {
	switch op {
	case EqualEqual:
		return Bool(Equal(l, r)), nil
	case BangEqual:
		return Bool(!Equal(l, r)), nil
	case Plus:
		if l.Tag == VTStr && r.Tag == VTStr {
			return Str(l.Data.(string) + r.Data.(string)), nil
		}
	}

	if l.Tag != VTNum || r.Tag != VTNum {
		return NilValue, invalidOperator(op, l, r)
	}
	a, b := l.Data.(float64), r.Data.(float64)
	switch op {
	case Plus:
		return Num(a + b), nil
	case Minus:
		return Num(a - b), nil
	case Star:
		return Num(a * b), nil
	case Slash:
		if b == 0 {
			return NilValue, &RuntimeError{Kind: DivisionByZero}
		}
		return Num(a / b), nil
	case Less:
		return Bool(a < b), nil
	case LessEqual:
		return Bool(a <= b), nil
	case Greater:
		return Bool(a > b), nil
	case GreaterEqual:
		return Bool(a >= b), nil
	}
	return NilValue, invalidOperator(op, l, r)
}

func invalidOperator(op TokenType, l, r Value) error {
	return &RuntimeError{Kind: InvalidOperator, Op: op, Left: l.Tag.String(), Right: r.Tag.String()}
}
