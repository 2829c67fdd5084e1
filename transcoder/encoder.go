package transcoder

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/wippyai/js-runtime/errors"
	"github.com/wippyai/js-runtime/runtime"
)

// Encoder converts Go values into engine values.
type Encoder struct {
	compiler *Compiler
}

// NewEncoder returns an Encoder using c for type plans. A nil c uses the
// package's shared compiler.
func NewEncoder(c *Compiler) *Encoder {
	if c == nil {
		c = defaultCompiler
	}
	return &Encoder{compiler: c}
}

// Encode converts v. The result is owned by the caller: values passed in as
// runtime.Value or handles are cloned rather than shared.
func (e *Encoder) Encode(ctx *runtime.Context, v any) (runtime.Value, error) {
	if v == nil {
		return runtime.Null(), nil
	}
	rv := reflect.ValueOf(v)
	ct, err := e.compiler.Compile(rv.Type())
	if err != nil {
		return runtime.Value{}, err
	}
	return e.encode(ctx, rv, ct, nil)
}

func (e *Encoder) encode(ctx *runtime.Context, rv reflect.Value, ct *CompiledType, path []string) (runtime.Value, error) {
	switch ct.Kind {
	case KindBool:
		return runtime.Bool(rv.Bool()), nil
	case KindInt:
		return runtime.Number(float64(rv.Int())), nil
	case KindUint:
		return runtime.Number(float64(rv.Uint())), nil
	case KindFloat:
		return runtime.Number(rv.Float()), nil
	case KindString:
		s, _ := ctx.CreateString(rv.String())
		return s.Value(), nil
	case KindValue:
		return e.encodeValue(ctx, rv, path)
	case KindVariant:
		return e.encodeVariant(ctx, rv.Interface().(Variant))
	case KindBytes:
		if rv.IsNil() {
			return runtime.Null(), nil
		}
		b, _ := ctx.CreateBytes(rv.Bytes())
		return b.Value(), nil
	case KindPointer:
		if rv.IsNil() {
			return runtime.Null(), nil
		}
		return e.encode(ctx, rv.Elem(), ct.Elem, path)
	case KindInterface:
		if rv.IsNil() {
			return runtime.Null(), nil
		}
		elem := rv.Elem()
		dyn, err := e.compiler.Compile(elem.Type())
		if err != nil {
			return runtime.Value{}, withPath(errors.Convert(err), path)
		}
		return e.encode(ctx, elem, dyn, path)
	case KindSlice:
		if rv.IsNil() {
			return runtime.Null(), nil
		}
		return e.encodeArray(ctx, rv, ct, path)
	case KindArray:
		return e.encodeArray(ctx, rv, ct, path)
	case KindMap:
		if rv.IsNil() {
			return runtime.Null(), nil
		}
		return e.encodeMap(ctx, rv, ct, path)
	case KindStruct:
		return e.encodeStruct(ctx, rv, ct, path)
	}
	return runtime.Value{}, unsupported(rv.Type(), path)
}

func (e *Encoder) encodeValue(ctx *runtime.Context, rv reflect.Value, path []string) (runtime.Value, error) {
	x := rv.Interface()
	if tv, ok := x.(runtime.ToValuer); ok {
		v, err := tv.ToValue(ctx)
		if err != nil {
			return runtime.Value{}, withPath(errors.Convert(err), path)
		}
		return v, nil
	}
	v, err := ctx.ToValue(x)
	if err != nil {
		return runtime.Value{}, withPath(errors.Convert(err), path)
	}
	return v.Clone(), nil
}

func (e *Encoder) encodeVariant(ctx *runtime.Context, v Variant) (runtime.Value, error) {
	if v.Value.IsUndefined() {
		s, _ := ctx.CreateString(v.Name)
		return s.Value(), nil
	}
	obj := ctx.CreateObject()
	if err := obj.Set(v.Name, v.Value); err != nil {
		obj.Drop()
		return runtime.Value{}, err
	}
	return obj.Value(), nil
}

func (e *Encoder) encodeArray(ctx *runtime.Context, rv reflect.Value, ct *CompiledType, path []string) (runtime.Value, error) {
	arr := ctx.CreateArray()
	for i := 0; i < rv.Len(); i++ {
		v, err := e.encode(ctx, rv.Index(i), ct.Elem, append(path, strconv.Itoa(i)))
		if err == nil {
			err = arr.Set(uint32(i), v)
			v.Drop()
		}
		if err != nil {
			arr.Drop()
			return runtime.Value{}, err
		}
	}
	return arr.Value(), nil
}

func (e *Encoder) encodeMap(ctx *runtime.Context, rv reflect.Value, ct *CompiledType, path []string) (runtime.Value, error) {
	type entry struct {
		key   string
		value reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: mapKey(iter.Key()), value: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	obj := ctx.CreateObject()
	for _, ent := range entries {
		v, err := e.encode(ctx, ent.value, ct.Elem, append(path, ent.key))
		if err == nil {
			err = obj.Set(ent.key, v)
			v.Drop()
		}
		if err != nil {
			obj.Drop()
			return runtime.Value{}, err
		}
	}
	return obj.Value(), nil
}

func (e *Encoder) encodeStruct(ctx *runtime.Context, rv reflect.Value, ct *CompiledType, path []string) (runtime.Value, error) {
	obj := ctx.CreateObject()
	for _, f := range ct.Fields {
		fv := rv.FieldByIndex(f.Index)
		if f.OmitEmpty && fv.IsZero() {
			continue
		}
		v, err := e.encode(ctx, fv, f.Type, append(path, f.Name))
		if err == nil {
			err = obj.Set(f.Name, v)
			v.Drop()
		}
		if err != nil {
			obj.Drop()
			return runtime.Value{}, err
		}
	}
	return obj.Value(), nil
}

func mapKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	default:
		return strconv.FormatUint(k.Uint(), 10)
	}
}
