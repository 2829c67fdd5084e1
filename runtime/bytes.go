package runtime

// Bytes is a handle to an engine byte buffer (an ArrayBuffer).
type Bytes struct {
	ref *Ref
}

// Value returns b as a Value.
func (b Bytes) Value() Value {
	return refValue(KindBytes, b.ref)
}

// Ref returns the underlying reference.
func (b Bytes) Ref() *Ref {
	return b.ref
}

// ToObject reinterprets the buffer as an Object.
func (b Bytes) ToObject() Object {
	return Object{ref: b.ref}
}

// Clone returns a handle with its own reference.
func (b Bytes) Clone() Bytes {
	return Bytes{ref: b.ref.Clone()}
}

// Drop releases the reference.
func (b Bytes) Drop() {
	b.ref.Drop()
}

// ToSlice returns a copy of the buffer contents.
func (b Bytes) ToSlice() []byte {
	var out []byte
	_ = b.ref.frame(func(c *Context, idx int) error {
		data, ok := c.heap.BytesAt(idx)
		if !ok {
			panic("runtime: bytes handle does not refer to a buffer")
		}
		out = data
		return nil
	})
	return out
}
