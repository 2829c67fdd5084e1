package engine

import (
	"math"
	"reflect"

	"github.com/dop251/goja"

	"github.com/wippyai/js-runtime/errors"
)

// Kind classifies an engine value for the host.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindFunction
	KindArray
	KindBytes
	KindObject
	// KindOther covers values with no host representation (symbols, bigints).
	KindOther
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindFunction:  "function",
	KindArray:     "array",
	KindBytes:     "buffer",
	KindObject:    "object",
	KindOther:     "other",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var arrayBufferType = reflect.TypeOf(goja.ArrayBuffer{})

// KindOf classifies v. Objects are tested in order: function, array,
// ArrayBuffer, then plain object.
func KindOf(v goja.Value) Kind {
	switch {
	case v == nil || goja.IsUndefined(v):
		return KindUndefined
	case goja.IsNull(v):
		return KindNull
	}

	if obj, ok := v.(*goja.Object); ok {
		if _, ok := goja.AssertFunction(obj); ok {
			return KindFunction
		}
		if obj.ClassName() == "Array" {
			return KindArray
		}
		if obj.ExportType() == arrayBufferType {
			return KindBytes
		}
		return KindObject
	}

	switch {
	case goja.IsString(v):
		return KindString
	case goja.IsNumber(v):
		return KindNumber
	case goja.IsBigInt(v):
		return KindOther
	}
	if _, ok := v.Export().(bool); ok {
		return KindBoolean
	}
	return KindOther
}

// KindAt classifies the value at idx.
func (h *Heap) KindAt(idx int) Kind {
	return KindOf(h.Get(idx))
}

// BytesAt returns a copy of the ArrayBuffer contents at idx.
func (h *Heap) BytesAt(idx int) ([]byte, bool) {
	obj, ok := h.Get(idx).(*goja.Object)
	if !ok || obj.ExportType() != arrayBufferType {
		return nil, false
	}
	buf, ok := obj.Export().(goja.ArrayBuffer)
	if !ok {
		return nil, false
	}
	data := buf.Bytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// helpers are small script functions for operations goja has no public
// Go API for.
type helpers struct {
	has  goja.Callable
	keys goja.Callable
}

const helperSource = `({
	has: function (o, k) { return k in o; },
	keys: function* (o) { for (var k in o) yield k; }
})`

func (h *Heap) initHelpers() {
	prg := goja.MustCompile("<helpers>", helperSource, true)
	v, err := h.vm.RunProgram(prg)
	if err != nil {
		panic("engine: helpers: " + err.Error())
	}
	obj := v.(*goja.Object)
	h.helpers.has, _ = goja.AssertFunction(obj.Get("has"))
	h.helpers.keys, _ = goja.AssertFunction(obj.Get("keys"))
}

func (h *Heap) mustCall(fn goja.Callable, this goja.Value, args ...goja.Value) goja.Value {
	v, err := fn(this, args...)
	if err != nil {
		panic(h.rethrowable(err))
	}
	return v
}

func (h *Heap) toObject(v goja.Value) *goja.Object {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		panic(h.vm.NewTypeError("cannot read properties of %s", KindOf(v)))
	}
	return v.ToObject(h.vm)
}

func (h *Heap) getProp(target, key goja.Value) goja.Value {
	obj := h.toObject(target)
	var v goja.Value
	if sym, ok := key.(*goja.Symbol); ok {
		v = obj.GetSymbol(sym)
	} else {
		v = obj.Get(key.String())
	}
	if v == nil {
		return goja.Undefined()
	}
	return v
}

func (h *Heap) putProp(target, key, value goja.Value) {
	obj := h.toObject(target)
	var err error
	if sym, ok := key.(*goja.Symbol); ok {
		err = obj.SetSymbol(sym, value)
	} else {
		err = obj.Set(key.String(), value)
	}
	if err != nil {
		panic(h.rethrowable(err))
	}
}

// GetProp reads a property of the value at objIdx.
// Stack: [... key] -> [... value].
func (h *Heap) GetProp(objIdx int) *errors.Error {
	target := h.Get(objIdx)
	return h.Protect(1, 1, func() {
		key := h.Pop()
		h.Push(h.getProp(target, key))
	})
}

// PutProp writes a property of the value at objIdx.
// Stack: [... key value] -> [...].
func (h *Heap) PutProp(objIdx int) *errors.Error {
	target := h.Get(objIdx)
	return h.Protect(2, 0, func() {
		value := h.Pop()
		key := h.Pop()
		h.putProp(target, key, value)
	})
}

// DelProp deletes a property of the value at objIdx. Deleting a missing
// property succeeds.
// Stack: [... key] -> [...].
func (h *Heap) DelProp(objIdx int) *errors.Error {
	target := h.Get(objIdx)
	return h.Protect(1, 0, func() {
		key := h.Pop()
		obj := h.toObject(target)
		var err error
		if sym, ok := key.(*goja.Symbol); ok {
			err = obj.DeleteSymbol(sym)
		} else {
			err = obj.Delete(key.String())
		}
		if err != nil {
			panic(h.rethrowable(err))
		}
	})
}

// HasProp reports whether the value at objIdx has the property, own or
// inherited.
// Stack: [... key] -> [...].
func (h *Heap) HasProp(objIdx int) (bool, *errors.Error) {
	target := h.Get(objIdx)
	var found bool
	err := h.Protect(1, 0, func() {
		key := h.Pop()
		found = h.mustCall(h.helpers.has, goja.Undefined(), h.toObject(target), key).ToBoolean()
	})
	return found, err
}

// PropertyDescriptor is the engine form of Object.defineProperty's
// descriptor. Nil values and FLAG_NOT_SET flags are absent attributes.
type PropertyDescriptor struct {
	Value        goja.Value
	Getter       goja.Value
	Setter       goja.Value
	Writable     goja.Flag
	Enumerable   goja.Flag
	Configurable goja.Flag
}

// DefProp defines a property of the value at objIdx.
// Stack: [... key] -> [...].
func (h *Heap) DefProp(objIdx int, desc PropertyDescriptor) *errors.Error {
	target := h.Get(objIdx)
	return h.Protect(1, 0, func() {
		key := h.Pop()
		obj := h.toObject(target)
		accessor := desc.Getter != nil || desc.Setter != nil
		if accessor && (desc.Value != nil || desc.Writable != goja.FLAG_NOT_SET) {
			panic(h.vm.NewTypeError("invalid descriptor: cannot mix value or writable with accessors"))
		}

		sym, isSym := key.(*goja.Symbol)
		var err error
		switch {
		case accessor && isSym:
			err = obj.DefineAccessorPropertySymbol(sym, desc.Getter, desc.Setter, desc.Configurable, desc.Enumerable)
		case accessor:
			err = obj.DefineAccessorProperty(key.String(), desc.Getter, desc.Setter, desc.Configurable, desc.Enumerable)
		case isSym:
			err = obj.DefineDataPropertySymbol(sym, desc.Value, desc.Writable, desc.Configurable, desc.Enumerable)
		default:
			err = obj.DefineDataProperty(key.String(), desc.Value, desc.Writable, desc.Configurable, desc.Enumerable)
		}
		if err != nil {
			panic(h.rethrowable(err))
		}
	})
}

// Length returns floor(ToNumber(v.length)) for the value at idx. Missing,
// non-numeric, negative and out-of-range lengths are 0.
func (h *Heap) Length(idx int) (int, *errors.Error) {
	target := h.Get(idx)
	var n float64
	err := h.Protect(0, 0, func() {
		n = h.getProp(target, h.vm.ToValue("length")).ToFloat()
	})
	if err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(n) || n <= 0 || n >= math.MaxInt:
		return 0, nil
	}
	return int(math.Floor(n)), nil
}

// CoerceString replaces the value at idx with its ToString coercion. The
// replacement is always a string: goja hands numbers back from ToString
// unchanged, so those are formatted here.
func (h *Heap) CoerceString(idx int) *errors.Error {
	abs := h.index(idx)
	v := h.stack[abs]
	var s goja.Value
	if err := h.Protect(0, 0, func() {
		s = v.ToString()
		if _, ok := s.(goja.String); !ok {
			s = h.vm.ToValue(s.String())
		}
	}); err != nil {
		return err
	}
	h.Replace(abs, s)
	return nil
}

// CoerceNumber returns ToNumber of the value at idx. It may be NaN.
func (h *Heap) CoerceNumber(idx int) (float64, *errors.Error) {
	v := h.Get(idx)
	var n float64
	err := h.Protect(0, 0, func() {
		n = v.ToFloat()
	})
	return n, err
}

// CoerceBoolean returns ToBoolean of the value at idx.
func (h *Heap) CoerceBoolean(idx int) bool {
	v := h.Get(idx)
	return v != nil && v.ToBoolean()
}

// PushEnum pushes an enumerator over the enumerable string keys of the
// value at idx, in for-in order.
func (h *Heap) PushEnum(idx int) *errors.Error {
	target := h.Get(idx)
	return h.Protect(0, 1, func() {
		h.Push(h.mustCall(h.helpers.keys, goja.Undefined(), target))
	})
}

// EnumNext advances the enumerator at enumIdx. When a key is available it
// pushes the key, and the property value read from the object at objIdx if
// withValue is set, and reports true. Keys deleted before they are reached
// are skipped.
func (h *Heap) EnumNext(enumIdx, objIdx int, withValue bool) (bool, *errors.Error) {
	iter := h.Get(enumIdx)
	target := h.Get(objIdx)

	var key, value goja.Value
	more := false
	err := h.Protect(0, 0, func() {
		it := h.toObject(iter)
		next, ok := goja.AssertFunction(it.Get("next"))
		if !ok {
			panic(h.vm.NewTypeError("enumerator has no next method"))
		}
		res := h.toObject(h.mustCall(next, it))
		if res.Get("done").ToBoolean() {
			return
		}
		more = true
		key = res.Get("value")
		if withValue {
			value = h.getProp(target, key)
		}
	})
	if err != nil || !more {
		return false, err
	}

	h.Push(key)
	if withValue {
		h.Push(value)
	}
	return true, nil
}
