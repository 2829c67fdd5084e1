package runtime

import (
	"github.com/wippyai/js-runtime/engine"
)

// Kind is the type of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindFunction
	KindArray
	KindObject
	KindBytes
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindFunction:  "function",
	KindArray:     "array",
	KindObject:    "object",
	KindBytes:     "buffer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a JavaScript value as seen by the host. The zero Value is
// undefined. Primitives are held inline; strings, functions, arrays,
// objects and byte buffers hold a Ref into the stash.
type Value struct {
	kind Kind
	b    bool
	n    float64
	ref  *Ref
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{} }

// Null returns null.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// Number returns a number value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Kind returns the type of v.
func (v Value) Kind() Kind { return v.kind }

// TypeName returns the JavaScript-facing name of the value's type.
func (v Value) TypeName() string { return v.kind.String() }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }

// IsNullish reports whether v is null or undefined.
func (v Value) IsNullish() bool { return v.kind == KindUndefined || v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// AsNumber returns the number payload.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (String, bool) {
	if v.kind != KindString {
		return String{}, false
	}
	return String{ref: v.ref}, true
}

func (v Value) AsFunction() (Function, bool) {
	if v.kind != KindFunction {
		return Function{}, false
	}
	return Function{ref: v.ref}, true
}

func (v Value) AsArray() (Array, bool) {
	if v.kind != KindArray {
		return Array{}, false
	}
	return Array{ref: v.ref}, true
}

func (v Value) AsBytes() (Bytes, bool) {
	if v.kind != KindBytes {
		return Bytes{}, false
	}
	return Bytes{ref: v.ref}, true
}

// AsObject returns v as an Object. Functions, arrays and byte buffers are
// objects too.
func (v Value) AsObject() (Object, bool) {
	switch v.kind {
	case KindObject, KindFunction, KindArray, KindBytes:
		return Object{ref: v.ref}, true
	}
	return Object{}, false
}

// Ref returns the stash reference of a reference-kind value, or nil.
func (v Value) Ref() *Ref {
	return v.ref
}

// Clone returns a value with its own stash slot. Primitives are returned
// unchanged.
func (v Value) Clone() Value {
	if v.ref != nil {
		v.ref = v.ref.Clone()
	}
	return v
}

// Drop releases the stash slot of a reference-kind value.
func (v Value) Drop() {
	v.ref.Drop()
}

func refValue(kind Kind, r *Ref) Value {
	return Value{kind: kind, ref: r}
}

func (c *Context) pushValue(v Value) {
	h := c.heap
	switch v.kind {
	case KindUndefined:
		h.PushUndefined()
	case KindNull:
		h.PushNull()
	case KindBoolean:
		h.PushBool(v.b)
	case KindNumber:
		h.PushNumber(v.n)
	default:
		v.ref.push(h)
	}
}

// popValue pops the top of the stack. Symbols, bigints and other values
// with no host kind become undefined.
func (c *Context) popValue() Value {
	h := c.heap
	switch h.KindAt(-1) {
	case engine.KindNull:
		h.Pop()
		return Null()
	case engine.KindBoolean:
		return Bool(h.Pop().ToBoolean())
	case engine.KindNumber:
		return Number(h.Pop().ToFloat())
	case engine.KindString:
		return refValue(KindString, c.popRef())
	case engine.KindFunction:
		return refValue(KindFunction, c.popRef())
	case engine.KindArray:
		return refValue(KindArray, c.popRef())
	case engine.KindBytes:
		return refValue(KindBytes, c.popRef())
	case engine.KindObject:
		return refValue(KindObject, c.popRef())
	default:
		h.Pop()
		return Undefined()
	}
}

func (c *Context) popRef() *Ref {
	return newRef(c.heap, c.heap.PopRef())
}

// Values is an ordered list of call arguments or results.
type Values []Value

// Len returns the number of values.
func (vs Values) Len() int { return len(vs) }

// Get returns the value at i, or undefined past the end.
func (vs Values) Get(i int) Value {
	if i < 0 || i >= len(vs) {
		return Undefined()
	}
	return vs[i]
}

// Unpack converts the values into targets, which must be pointers. Extra
// values are ignored and missing ones are converted from undefined. A
// trailing *Variadic[T] target takes every remaining value.
func (vs Values) Unpack(c *Context, targets ...any) error {
	for i, target := range targets {
		if rest, ok := target.(variadicTarget); ok && i == len(targets)-1 {
			var tail Values
			if i < len(vs) {
				tail = vs[i:]
			}
			return rest.fill(c, tail)
		}
		if err := c.into(vs.Get(i), target); err != nil {
			return err
		}
	}
	return nil
}

// Variadic collects the trailing arguments of a call. As an argument to
// Call it is flattened into separate arguments.
type Variadic[T any] []T

type variadicTarget interface {
	fill(c *Context, vs Values) error
}

type variadicArgs interface {
	flatten() []any
}

func (v *Variadic[T]) fill(c *Context, vs Values) error {
	out := make(Variadic[T], len(vs))
	for i, val := range vs {
		if err := c.into(val, &out[i]); err != nil {
			return err
		}
	}
	*v = out
	return nil
}

func (v Variadic[T]) flatten() []any {
	out := make([]any, len(v))
	for i, x := range v {
		out[i] = x
	}
	return out
}

func (vs Values) flatten() []any {
	out := make([]any, len(vs))
	for i, x := range vs {
		out[i] = x
	}
	return out
}
