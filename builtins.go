package lox

import "time"

// clockNow is the time source behind `clock()`.
var clockNow = time.Now

// defaultNatives are bound in the global environment of every interpreter
// created with natives enabled, and pre-declared in the resolver's global
// scope.
func defaultNatives() []*NativeFunction {
	return []*NativeFunction{
		{
			Name:  "clock",
			Arity: 0,
			Impl: func(_ *Interpreter, _ []Value) (Value, error) {
				return Num(float64(clockNow().UnixNano()) / 1e9), nil
			},
		},
	}
}

// nativeNames lists the names of defaultNatives.
func nativeNames() []string {
	ns := defaultNatives()
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Name
	}
	return out
}
