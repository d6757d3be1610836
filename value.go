// value.go: the runtime value model.
//
// Value is a small tagged sum. The tag says which payload Data holds:
//
//	VTNil     nil
//	VTBool    bool
//	VTNum     float64
//	VTStr     string
//	VTFun     *Function        (user closure)
//	VTNative  *NativeFunction  (host function)
//	VTObject  nil              (reserved; no language construct creates it)
//
// Values are copied freely; functions share their declaration and closure
// environment through the pointers they carry.
package lox

// ValueTag enumerates all runtime kinds a Value may hold.
type ValueTag int

const (
	VTNil ValueTag = iota
	VTBool
	VTNum
	VTStr
	VTFun
	VTNative
	VTObject
)

var valueTagNames = [...]string{
	VTNil:    "nil",
	VTBool:   "boolean",
	VTNum:    "number",
	VTStr:    "string",
	VTFun:    "function",
	VTNative: "native function",
	VTObject: "object",
}

func (t ValueTag) String() string {
	if t >= 0 && int(t) < len(valueTagNames) {
		return valueTagNames[t]
	}
	return "unknown"
}

// Value is the universal runtime carrier used by the interpreter.
type Value struct {
	Tag  ValueTag
	Data any
}

// NilValue is the singleton nil Value.
var NilValue = Value{Tag: VTNil}

// Primitive constructors for convenience.
func Bool(b bool) Value        { return Value{Tag: VTBool, Data: b} }
func Num(f float64) Value      { return Value{Tag: VTNum, Data: f} }
func Str(s string) Value       { return Value{Tag: VTStr, Data: s} }
func FunVal(f *Function) Value { return Value{Tag: VTFun, Data: f} }
func NativeVal(n *NativeFunction) Value {
	return Value{Tag: VTNative, Data: n}
}

// String renders the display form (see FormatValue).
func (v Value) String() string { return FormatValue(v) }

// Function is a user-defined closure: a shared declaration plus the
// environment that was current when its `fun` statement executed.
type Function struct {
	Decl    *FunctionDecl
	Closure *Env
}

// NativeImpl is the host implementation of a native function. args has
// exactly Arity elements.
type NativeImpl func(ip *Interpreter, args []Value) (Value, error)

// NativeFunction is a function implemented in Go.
type NativeFunction struct {
	Name  string
	Arity int
	Impl  NativeImpl
}

// Truthy reports the truthiness of v: only false and nil are falsy.
func Truthy(v Value) bool {
	switch v.Tag {
	case VTNil:
		return false
	case VTBool:
		return v.Data.(bool)
	default:
		return true
	}
}

// Equal is structural equality without coercion. Functions are equal when
// they wrap the same declaration and the same captured environment; natives
// are equal only to themselves.
func Equal(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNil, VTObject:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTNum:
		return a.Data.(float64) == b.Data.(float64)
	case VTStr:
		return a.Data.(string) == b.Data.(string)
	case VTFun:
		fa, fb := a.Data.(*Function), b.Data.(*Function)
		return fa.Decl == fb.Decl && fa.Closure == fb.Closure
	case VTNative:
		return a.Data.(*NativeFunction) == b.Data.(*NativeFunction)
	}
	return false
}
