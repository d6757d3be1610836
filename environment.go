package lox

// Env is a lexical environment frame with a parent link. Lookups walk
// parent-ward. A new Env is created for the program's globals, for every
// block and for every function call.
//
// Closures hold *Env pointers, never copies, so an Env stays alive (and
// mutable) for as long as any Function value can still reach it.
type Env struct {
	parent *Env
	table  map[string]Value
}

// NewEnv creates a new lexical frame with the given parent (which may be nil).
func NewEnv(parent *Env) *Env { return &Env{parent: parent, table: make(map[string]Value)} }

// Parent returns the enclosing frame, or nil for the global frame.
func (e *Env) Parent() *Env { return e.parent }

// Define binds name to v in the current frame, shadowing any outer binding.
// Redefining a name in the same frame overwrites it.
func (e *Env) Define(name string, v Value) {
	e.table[name] = v
}

// Get returns the value of the nearest binding of name.
func (e *Env) Get(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.table[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Assign updates the nearest existing binding of name to v. It reports false
// when no frame binds name; it never creates a binding.
func (e *Env) Assign(name string, v Value) bool {
	for f := e; f != nil; f = f.parent {
		if _, ok := f.table[name]; ok {
			f.table[name] = v
			return true
		}
	}
	return false
}

// Ancestor returns the frame depth levels out (0 = e), or nil when the chain
// is shorter than that.
func (e *Env) Ancestor(depth int) *Env {
	f := e
	for i := 0; i < depth && f != nil; i++ {
		f = f.parent
	}
	return f
}

// GetAt reads name from exactly the frame depth levels out.
func (e *Env) GetAt(depth int, name string) (Value, bool) {
	f := e.Ancestor(depth)
	if f == nil {
		return Value{}, false
	}
	v, ok := f.table[name]
	return v, ok
}

// AssignAt writes name in exactly the frame depth levels out, if bound there.
func (e *Env) AssignAt(depth int, name string, v Value) bool {
	f := e.Ancestor(depth)
	if f == nil {
		return false
	}
	if _, ok := f.table[name]; !ok {
		return false
	}
	f.table[name] = v
	return true
}

// Names returns the names bound directly in this frame.
func (e *Env) Names() []string {
	out := make([]string, 0, len(e.table))
	for k := range e.table {
		out = append(out, k)
	}
	return out
}
