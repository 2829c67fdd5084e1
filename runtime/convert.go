package runtime

import (
	"fmt"
	"math"
	"reflect"

	"github.com/wippyai/js-runtime/errors"
)

// ToValuer is implemented by Go types that convert themselves to a Value.
type ToValuer interface {
	ToValue(c *Context) (Value, error)
}

// FromValuer is implemented by conversion targets that decode themselves.
// The method is called on the pointer passed to Into or Unpack.
type FromValuer interface {
	FromValue(c *Context, v Value) error
}

// handle is implemented by Object, Function, Array, String and Bytes.
type handle interface {
	Value() Value
}

// ToValue converts a Go value to a Value. Supported inputs are nil (null),
// Value, the handle types, ToValuer, bool, every integer and float kind,
// string and []byte, along with named types over those kinds and pointers
// to any of them (nil pointers are null).
func (c *Context) ToValue(x any) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, nil
	case handle:
		return v.Value(), nil
	}
	if err := c.pushAny(x); err != nil {
		return Value{}, err
	}
	return c.popValue(), nil
}

// pushAny pushes the engine form of x. Primitives go straight to the stack
// without passing through the stash.
func (c *Context) pushAny(x any) error {
	h := c.heap
	switch v := x.(type) {
	case nil:
		h.PushNull()
	case Value:
		c.pushValue(v)
	case handle:
		c.pushValue(v.Value())
	case ToValuer:
		val, err := v.ToValue(c)
		if err != nil {
			return err
		}
		c.pushValue(val)
	case bool:
		h.PushBool(v)
	case string:
		h.PushString(v)
	case []byte:
		h.PushBytes(v)
	case float64:
		h.PushNumber(v)
	case int:
		h.PushNumber(float64(v))
	default:
		return c.pushReflect(reflect.ValueOf(x))
	}
	return nil
}

func (c *Context) pushReflect(rv reflect.Value) error {
	h := c.heap
	switch rv.Kind() {
	case reflect.Bool:
		h.PushBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.PushNumber(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h.PushNumber(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		h.PushNumber(rv.Float())
	case reflect.String:
		h.PushString(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return errors.ToJSConversion(rv.Type().String(), "value")
		}
		h.PushBytes(rv.Bytes())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			h.PushNull()
			return nil
		}
		return c.pushAny(rv.Elem().Interface())
	default:
		return errors.ToJSConversion(rv.Type().String(), "value")
	}
	return nil
}

// Into converts v to T. Booleans, numbers and strings use the engine's
// coercion rules; handle types require a value of that kind.
func Into[T any](c *Context, v Value) (T, error) {
	var out T
	if err := c.into(v, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Scan converts v into target, which must be a non-nil pointer. It
// follows the same rules as Into.
func (c *Context) Scan(v Value, target any) error {
	return c.into(v, target)
}

func (c *Context) into(v Value, target any) error {
	switch p := target.(type) {
	case *Value:
		*p = v
	case *bool:
		*p = c.CoerceBoolean(v)
	case *float64:
		n, err := c.CoerceNumber(v)
		if err != nil {
			return err
		}
		*p = n
	case *string:
		s, err := c.coerceGoString(v)
		if err != nil {
			return err
		}
		*p = s
	case *String:
		s, err := c.CoerceString(v)
		if err != nil {
			return err
		}
		*p = s
	case *Object:
		o, ok := v.AsObject()
		if !ok {
			return errors.FromJSConversion(v.TypeName(), "Object")
		}
		*p = o
	case *Function:
		f, ok := v.AsFunction()
		if !ok {
			return errors.FromJSConversion(v.TypeName(), "Function")
		}
		*p = f
	case *Array:
		a, ok := v.AsArray()
		if !ok {
			return errors.FromJSConversion(v.TypeName(), "Array")
		}
		*p = a
	case *Bytes:
		b, ok := v.AsBytes()
		if !ok {
			return errors.FromJSConversion(v.TypeName(), "Bytes")
		}
		*p = b
	case *[]byte:
		b, ok := v.AsBytes()
		if !ok {
			return errors.FromJSConversion(v.TypeName(), "[]byte")
		}
		*p = b.ToSlice()
	case *any:
		*p = v
	case FromValuer:
		return p.FromValue(c, v)
	default:
		return c.intoReflect(v, target)
	}
	return nil
}

func (c *Context) intoReflect(v Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.FromJSConversion(v.TypeName(), fmt.Sprintf("%T", target))
	}
	elem := rv.Elem()

	switch elem.Kind() {
	case reflect.Bool:
		elem.SetBool(c.CoerceBoolean(v))
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := c.CoerceNumber(v)
		if err != nil {
			return err
		}
		elem.SetInt(saturateInt(n, elem.Type().Bits()))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := c.CoerceNumber(v)
		if err != nil {
			return err
		}
		elem.SetUint(saturateUint(n, elem.Type().Bits()))
		return nil
	case reflect.Float32, reflect.Float64:
		n, err := c.CoerceNumber(v)
		if err != nil {
			return err
		}
		elem.SetFloat(n)
		return nil
	case reflect.String:
		s, err := c.coerceGoString(v)
		if err != nil {
			return err
		}
		elem.SetString(s)
		return nil
	case reflect.Pointer:
		if v.IsNullish() {
			elem.Set(reflect.Zero(elem.Type()))
			return nil
		}
		ptr := reflect.New(elem.Type().Elem())
		if err := c.into(v, ptr.Interface()); err != nil {
			return err
		}
		elem.Set(ptr)
		return nil
	}
	return errors.FromJSConversion(v.TypeName(), elem.Type().String())
}

func (c *Context) coerceGoString(v Value) (string, error) {
	s, err := c.CoerceString(v)
	if err != nil {
		return "", err
	}
	defer s.Drop()
	return s.String()
}

// saturateInt truncates n toward zero and clamps it to a signed integer of
// the given width. NaN is 0.
func saturateInt(n float64, bits int) int64 {
	if math.IsNaN(n) {
		return 0
	}
	limit := math.Ldexp(1, bits-1)
	switch {
	case n >= limit:
		return int64(uint64(1)<<(bits-1) - 1)
	case n < -limit:
		return -int64(uint64(1) << (bits - 1))
	}
	return int64(n)
}

// saturateUint is saturateInt for unsigned integers.
func saturateUint(n float64, bits int) uint64 {
	if math.IsNaN(n) || n <= 0 {
		return 0
	}
	if n >= math.Ldexp(1, bits) {
		if bits == 64 {
			return math.MaxUint64
		}
		return uint64(1)<<bits - 1
	}
	return uint64(n)
}
