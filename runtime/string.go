package runtime

import (
	"bytes"

	"github.com/wippyai/js-runtime/engine"
	"github.com/wippyai/js-runtime/errors"
)

// String is a handle to an engine string. Engine strings are UTF-16 and
// may contain unpaired surrogates; their byte form is CESU-8.
type String struct {
	ref *Ref
}

// Value returns s as a Value.
func (s String) Value() Value {
	return refValue(KindString, s.ref)
}

// Ref returns the underlying reference.
func (s String) Ref() *Ref {
	return s.ref
}

// Clone returns a handle with its own reference.
func (s String) Clone() String {
	return String{ref: s.ref.Clone()}
}

// Drop releases the reference.
func (s String) Drop() {
	s.ref.Drop()
}

// String converts the string to UTF-8. It fails if the string holds an
// unpaired surrogate.
func (s String) String() (string, error) {
	out, ok := engine.DecodeCESU8(s.Bytes())
	if !ok {
		return "", errors.FromJSConversion("string", "String")
	}
	return out, nil
}

// Bytes returns the CESU-8 encoding of the string.
func (s String) Bytes() []byte {
	var out []byte
	_ = s.ref.frame(func(c *Context, idx int) error {
		b, ok := c.heap.StringBytesAt(idx)
		if !ok {
			panic("runtime: string handle does not refer to a string")
		}
		out = b
		return nil
	})
	return out
}

// BytesWithNul is Bytes with a trailing nul byte.
func (s String) BytesWithNul() []byte {
	return append(s.Bytes(), 0)
}

// Equal reports whether the string's CESU-8 bytes equal other, which may be
// a String, a Go string or a byte slice.
func (s String) Equal(other any) bool {
	switch o := other.(type) {
	case String:
		return bytes.Equal(s.Bytes(), o.Bytes())
	case string:
		return bytes.Equal(s.Bytes(), []byte(o))
	case []byte:
		return bytes.Equal(s.Bytes(), o)
	}
	return false
}
