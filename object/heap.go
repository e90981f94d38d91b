package object

import (
	"fmt"
	"log/slog"

	"monkey/ast"
)

// header is the collector bookkeeping embedded in every value that lives
// on the heap. Booleans, null and builtins have none: they are permanent.
type header struct {
	marked  bool
	tracked bool
	freed   bool
}

func (h *header) gcHeader() *header { return h }

type collectable interface {
	gcHeader() *header
	release()
}

func (i *Integer) release() {}
func (s *String) release()  {}
func (e *Error) release()   {}

func (ao *Array) release() { ao.Elements = nil }

func (h *Hash) release() {
	h.pairs = nil
	h.size = 0
}

func (f *Function) release() {
	f.Parameters = nil
	f.Body = nil
	f.Env = nil
}

func (rv *ReturnValue) release() { rv.Value = nil }

func (e *Environment) release() {
	e.store = nil
	e.outer = nil
}

// HeapStats are cumulative over the life of a Heap.
type HeapStats struct {
	Live      int    // values currently registered
	Allocated uint64 // values ever registered
	Freed     uint64 // values reclaimed by Collect
	Cycles    int
}

// Heap is the registry of every value and environment the evaluator
// allocates. Nothing is reclaimed until the host calls Collect.
type Heap struct {
	Logger *slog.Logger

	objects   []collectable
	allocated uint64
	freed     uint64
	cycles    int
}

func NewHeap() *Heap {
	return &Heap{Logger: slog.Default()}
}

// Track registers obj with the heap and returns it. Registering a value
// twice is a no-op, and permanent values are ignored.
func (h *Heap) Track(obj Object) Object {
	if c, ok := obj.(collectable); ok {
		h.track(c)
	}
	return obj
}

func (h *Heap) track(c collectable) {
	hd := c.gcHeader()
	if hd.freed {
		panic(fmt.Sprintf("object: %T used after it was collected", c))
	}
	if hd.tracked {
		return
	}
	hd.tracked = true
	h.objects = append(h.objects, c)
	h.allocated++
}

// Freed reports whether obj was reclaimed by a collection.
func (h *Heap) Freed(obj interface{}) bool {
	c, ok := obj.(collectable)
	return ok && c.gcHeader().freed
}

func (h *Heap) Stats() HeapStats {
	return HeapStats{
		Live:      len(h.objects),
		Allocated: h.allocated,
		Freed:     h.freed,
		Cycles:    h.cycles,
	}
}

func (h *Heap) NewInteger(value int64) *Integer {
	i := &Integer{Value: value}
	h.track(i)
	return i
}

func (h *Heap) NewString(value string) *String {
	s := &String{Value: value}
	h.track(s)
	return s
}

func (h *Heap) NewArray(elements []Object) *Array {
	a := &Array{Elements: elements}
	h.track(a)
	return a
}

func (h *Heap) NewHash() *Hash {
	hash := NewHash()
	h.track(hash)
	return hash
}

func (h *Heap) NewFunction(params []*ast.Identifier, body *ast.BlockStatement, env *Environment) *Function {
	f := &Function{Parameters: params, Body: body, Env: env}
	h.track(f)
	return f
}

func (h *Heap) NewReturnValue(value Object) *ReturnValue {
	rv := &ReturnValue{Value: value}
	h.track(rv)
	return rv
}

// NewError formats the message once, where the error originates.
func (h *Heap) NewError(format string, a ...interface{}) *Error {
	e := &Error{Message: fmt.Sprintf(format, a...)}
	h.track(e)
	return e
}

// NewEnvironment allocates a scope enclosed by outer, which may be nil.
func (h *Heap) NewEnvironment(outer *Environment) *Environment {
	env := NewEnclosedEnvironment(outer)
	h.track(env)
	return env
}
