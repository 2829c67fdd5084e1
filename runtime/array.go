package runtime

// Array is a handle to an engine array.
type Array struct {
	ref *Ref
}

// Value returns a as a Value.
func (a Array) Value() Value {
	return refValue(KindArray, a.ref)
}

// Ref returns the underlying reference.
func (a Array) Ref() *Ref {
	return a.ref
}

// ToObject reinterprets the array as an Object.
func (a Array) ToObject() Object {
	return Object{ref: a.ref}
}

// Clone returns a handle with its own reference.
func (a Array) Clone() Array {
	return Array{ref: a.ref.Clone()}
}

// Drop releases the reference.
func (a Array) Drop() {
	a.ref.Drop()
}

// Get returns the element at i. Holes and indices past the end are
// undefined.
func (a Array) Get(i uint32) (Value, error) {
	return a.ToObject().Get(i)
}

// Set writes the element at i, growing the array as needed.
func (a Array) Set(i uint32, v any) error {
	return a.ToObject().Set(i, v)
}

// Len returns the array length.
func (a Array) Len() (int, error) {
	return a.ToObject().Len()
}

// Push appends v at index Len().
func (a Array) Push(v any) error {
	n, err := a.Len()
	if err != nil {
		return err
	}
	return a.ToObject().Set(n, v)
}

// Elements iterates over indices 0 to Len()-1. The length is read when
// Next is first called.
func (a Array) Elements() *Elements {
	return &Elements{arr: a, n: -1}
}

// Elements is a lazy iteration over an array.
type Elements struct {
	arr Array
	i   int
	n   int
	cur Value
	err error
}

// Next advances to the next element and reports whether there is one.
func (e *Elements) Next() bool {
	if e.err != nil {
		return false
	}
	if e.n < 0 {
		n, err := e.arr.Len()
		if err != nil {
			e.err = err
			return false
		}
		e.n = n
	}
	if e.i >= e.n {
		return false
	}
	v, err := e.arr.ToObject().Get(e.i)
	if err != nil {
		e.err = err
		return false
	}
	e.cur = v
	e.i++
	return true
}

// Index returns the index of the current element.
func (e *Elements) Index() int { return e.i - 1 }

// Value returns the current element.
func (e *Elements) Value() Value { return e.cur }

// Err returns the error that stopped the iteration, if any.
func (e *Elements) Err() error { return e.err }

// ElementsInto collects every element of a converted to T.
func ElementsInto[T any](a Array) ([]T, error) {
	c := a.ref.context()
	var out []T
	it := a.Elements()
	for it.Next() {
		v, err := Into[T](c, it.Value())
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, it.Err()
}
