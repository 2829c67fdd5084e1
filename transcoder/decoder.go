package transcoder

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/wippyai/js-runtime/errors"
	"github.com/wippyai/js-runtime/runtime"
)

// Decoder converts engine values into Go values.
type Decoder struct {
	compiler *Compiler
}

// NewDecoder returns a Decoder using c for type plans. A nil c uses the
// package's shared compiler.
func NewDecoder(c *Compiler) *Decoder {
	if c == nil {
		c = defaultCompiler
	}
	return &Decoder{compiler: c}
}

// Decode stores v into out, which must be a non-nil pointer.
//
// Booleans, numbers and strings follow the runtime's coercion rules.
// Objects decode into structs and maps, arrays into slices and arrays,
// and byte buffers into []byte. Null and undefined leave pointers, maps
// and slices nil. Struct fields with no matching property are left as
// they are.
func (d *Decoder) Decode(ctx *runtime.Context, v runtime.Value, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.FromJSConversion(v.TypeName(), fmt.Sprintf("%T", out))
	}
	ct, err := d.compiler.Compile(rv.Type().Elem())
	if err != nil {
		return err
	}
	return d.decode(ctx, v, rv.Elem(), ct, nil)
}

func (d *Decoder) decode(ctx *runtime.Context, v runtime.Value, rv reflect.Value, ct *CompiledType, path []string) error {
	switch ct.Kind {
	case KindValue, KindBool, KindInt, KindUint, KindFloat, KindString:
		if err := ctx.Scan(v, rv.Addr().Interface()); err != nil {
			return withPath(errors.Convert(err), path)
		}
		return nil
	case KindVariant:
		return d.decodeVariant(ctx, v, rv, path)
	case KindBytes:
		return d.decodeBytes(ctx, v, rv, path)
	case KindPointer:
		if v.IsNullish() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return d.decode(ctx, v, rv.Elem(), ct.Elem, path)
	case KindInterface:
		return d.decodeInterface(ctx, v, rv, path)
	case KindSlice:
		if v.IsNullish() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		return d.decodeSlice(ctx, v, rv, ct, path)
	case KindArray:
		return d.decodeArray(ctx, v, rv, ct, path)
	case KindMap:
		if v.IsNullish() {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		return d.decodeMap(ctx, v, rv, ct, path)
	case KindStruct:
		return d.decodeStruct(ctx, v, rv, ct, path)
	}
	return withPath(errors.FromJSConversion(v.TypeName(), rv.Type().String()), path)
}

func mismatch(v runtime.Value, t reflect.Type, path []string) error {
	return withPath(errors.FromJSConversion(v.TypeName(), t.String()), path)
}

// release drops a temporary value unless decoding stored it.
func release(v runtime.Value, ct *CompiledType) {
	if !ct.retains() {
		v.Drop()
	}
}

func (d *Decoder) decodeBytes(ctx *runtime.Context, v runtime.Value, rv reflect.Value, path []string) error {
	if v.IsNullish() {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	if b, ok := v.AsBytes(); ok {
		rv.SetBytes(b.ToSlice())
		return nil
	}
	arr, ok := v.AsArray()
	if !ok {
		return mismatch(v, rv.Type(), path)
	}
	out := reflect.MakeSlice(rv.Type(), 0, 0)
	it := arr.Elements()
	for it.Next() {
		var b uint8
		if err := ctx.Scan(it.Value(), &b); err != nil {
			return withPath(errors.Convert(err), append(path, strconv.Itoa(it.Index())))
		}
		out = reflect.Append(out, reflect.ValueOf(b).Convert(rv.Type().Elem()))
	}
	if err := it.Err(); err != nil {
		return err
	}
	rv.Set(out)
	return nil
}

func (d *Decoder) decodeSlice(ctx *runtime.Context, v runtime.Value, rv reflect.Value, ct *CompiledType, path []string) error {
	arr, ok := v.AsArray()
	if !ok {
		return mismatch(v, rv.Type(), path)
	}
	n, err := arr.Len()
	if err != nil {
		return err
	}
	out := reflect.MakeSlice(rv.Type(), n, n)
	it := arr.Elements()
	for it.Next() {
		i := it.Index()
		if i >= n {
			break
		}
		err := d.decode(ctx, it.Value(), out.Index(i), ct.Elem, append(path, strconv.Itoa(i)))
		release(it.Value(), ct.Elem)
		if err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	rv.Set(out)
	return nil
}

func (d *Decoder) decodeArray(ctx *runtime.Context, v runtime.Value, rv reflect.Value, ct *CompiledType, path []string) error {
	arr, ok := v.AsArray()
	if !ok {
		return mismatch(v, rv.Type(), path)
	}
	n, err := arr.Len()
	if err != nil {
		return err
	}
	if n > rv.Len() {
		return withPath(errors.FromJSConversion(v.TypeName(), rv.Type().String()).
			Contextf("%d elements do not fit in %d", n, rv.Len()), path)
	}
	rv.Set(reflect.Zero(rv.Type()))
	it := arr.Elements()
	for it.Next() {
		i := it.Index()
		err := d.decode(ctx, it.Value(), rv.Index(i), ct.Elem, append(path, strconv.Itoa(i)))
		release(it.Value(), ct.Elem)
		if err != nil {
			return err
		}
	}
	return it.Err()
}

func (d *Decoder) decodeMap(ctx *runtime.Context, v runtime.Value, rv reflect.Value, ct *CompiledType, path []string) error {
	obj, ok := v.AsObject()
	if !ok {
		return mismatch(v, rv.Type(), path)
	}
	out := reflect.MakeMap(rv.Type())

	props := obj.Properties()
	defer props.Close()
	for props.Next() {
		key := reflect.New(ct.Key.GoType).Elem()
		err := ctx.Scan(props.Key(), key.Addr().Interface())
		props.Key().Drop()
		if err != nil {
			props.Value().Drop()
			return withPath(errors.Convert(err), path)
		}

		elem := reflect.New(ct.Elem.GoType).Elem()
		err = d.decode(ctx, props.Value(), elem, ct.Elem, append(path, mapKey(key)))
		release(props.Value(), ct.Elem)
		if err != nil {
			return err
		}
		out.SetMapIndex(key, elem)
	}
	if err := props.Err(); err != nil {
		return err
	}
	rv.Set(out)
	return nil
}

func (d *Decoder) decodeStruct(ctx *runtime.Context, v runtime.Value, rv reflect.Value, ct *CompiledType, path []string) error {
	obj, ok := v.AsObject()
	if !ok {
		return mismatch(v, rv.Type(), path)
	}
	for _, f := range ct.Fields {
		fv, err := obj.Get(f.Name)
		if err != nil {
			return withPath(errors.Convert(err), append(path, f.Name))
		}
		if fv.IsUndefined() {
			continue
		}
		err = d.decode(ctx, fv, rv.FieldByIndex(f.Index), f.Type, append(path, f.Name))
		release(fv, f.Type)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeVariant(ctx *runtime.Context, v runtime.Value, rv reflect.Value, path []string) error {
	var out Variant
	switch v.Kind() {
	case runtime.KindString:
		if err := ctx.Scan(v, &out.Name); err != nil {
			return withPath(errors.Convert(err), path)
		}
	case runtime.KindObject:
		obj, _ := v.AsObject()
		props := obj.Properties()
		defer props.Close()
		if !props.Next() {
			if err := props.Err(); err != nil {
				return err
			}
			return withPath(errors.FromJSConversion("object", "Variant").
				WithContext("expected a single key"), path)
		}
		if err := ctx.Scan(props.Key(), &out.Name); err != nil {
			return withPath(errors.Convert(err), path)
		}
		out.Value = props.Value()
		if props.Next() {
			out.Value.Drop()
			return withPath(errors.FromJSConversion("object", "Variant").
				WithContext("expected a single key"), path)
		}
		if err := props.Err(); err != nil {
			out.Value.Drop()
			return err
		}
	default:
		return withPath(errors.FromJSConversion(v.TypeName(), "Variant"), path)
	}
	rv.Set(reflect.ValueOf(out))
	return nil
}

func (d *Decoder) decodeInterface(ctx *runtime.Context, v runtime.Value, rv reflect.Value, path []string) error {
	x, err := d.decodeAny(ctx, v, path)
	if err != nil {
		return err
	}
	if x == nil {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	xv := reflect.ValueOf(x)
	if !xv.Type().AssignableTo(rv.Type()) {
		return mismatch(v, rv.Type(), path)
	}
	rv.Set(xv)
	return nil
}

// decodeAny converts v to plain Go data: nil, bool, float64, string,
// []byte, []any and map[string]any. Functions are returned as
// runtime.Function.
func (d *Decoder) decodeAny(ctx *runtime.Context, v runtime.Value, path []string) (any, error) {
	switch v.Kind() {
	case runtime.KindUndefined, runtime.KindNull:
		return nil, nil
	case runtime.KindBoolean:
		b, _ := v.AsBool()
		return b, nil
	case runtime.KindNumber:
		n, _ := v.AsNumber()
		return n, nil
	case runtime.KindString:
		s, _ := v.AsString()
		str, err := s.String()
		if err != nil {
			return nil, withPath(errors.Convert(err), path)
		}
		return str, nil
	case runtime.KindBytes:
		b, _ := v.AsBytes()
		return b.ToSlice(), nil
	case runtime.KindFunction:
		f, _ := v.AsFunction()
		return f.Clone(), nil
	case runtime.KindArray:
		arr, _ := v.AsArray()
		out := []any{}
		it := arr.Elements()
		for it.Next() {
			x, err := d.decodeAny(ctx, it.Value(), append(path, strconv.Itoa(it.Index())))
			it.Value().Drop()
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, it.Err()
	}

	obj, _ := v.AsObject()
	out := map[string]any{}
	props := obj.Properties()
	defer props.Close()
	for props.Next() {
		var key string
		err := ctx.Scan(props.Key(), &key)
		props.Key().Drop()
		if err != nil {
			props.Value().Drop()
			return nil, withPath(errors.Convert(err), path)
		}
		x, err := d.decodeAny(ctx, props.Value(), append(path, key))
		props.Value().Drop()
		if err != nil {
			return nil, err
		}
		out[key] = x
	}
	return out, props.Err()
}
