package object

import "sort"

// Environment binds names to values for one scope. outer links to the
// enclosing scope; closures hold a pointer to the environment they were
// created in, so later writes to it are visible to them.
type Environment struct {
	header
	store map[string]Object
	outer *Environment
}

func NewEnvironment() *Environment {
	s := make(map[string]Object)
	return &Environment{store: s}
}

// NewEnclosedEnvironment creates the scope of a function call, with the
// function's captured environment as outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Get resolves name from the innermost scope outward.
func (e *Environment) Get(name string) (Object, bool) {
	obj, ok := e.store[name]
	if !ok && e.outer != nil {
		obj, ok = e.outer.Get(name)
	}
	return obj, ok
}

// Set binds name in this scope only, shadowing any outer binding.
func (e *Environment) Set(name string, val Object) {
	e.store[name] = val
}

func (e *Environment) Outer() *Environment { return e.outer }

// Names returns the names bound in this scope, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.store))
	for name := range e.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Environment) each(fn func(name string, val Object)) {
	for name, val := range e.store {
		fn(name, val)
	}
}
