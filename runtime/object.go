package runtime

import (
	"github.com/dop251/goja"

	"github.com/wippyai/js-runtime/engine"
	"github.com/wippyai/js-runtime/errors"
)

// Object is a handle to an engine object. Keys may be any value ToValue
// accepts; they follow the engine's property key rules, so 123 and "123"
// name the same property.
type Object struct {
	ref *Ref
}

// Value returns o as a Value.
func (o Object) Value() Value {
	return refValue(KindObject, o.ref)
}

// Ref returns the underlying reference.
func (o Object) Ref() *Ref {
	return o.ref
}

// Clone returns a handle with its own reference.
func (o Object) Clone() Object {
	return Object{ref: o.ref.Clone()}
}

// Drop releases the reference.
func (o Object) Drop() {
	o.ref.Drop()
}

// Get reads a property. A missing property is undefined.
func (o Object) Get(key any) (Value, error) {
	var v Value
	err := o.ref.frame(func(c *Context, idx int) error {
		if err := c.pushAny(key); err != nil {
			return err
		}
		if err := c.heap.GetProp(idx); err != nil {
			return err
		}
		v = c.popValue()
		return nil
	})
	return v, err
}

// GetInto reads a property and converts it to T.
func GetInto[T any](o Object, key any) (T, error) {
	v, err := o.Get(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return Into[T](o.ref.context(), v)
}

// Set writes a property.
func (o Object) Set(key, value any) error {
	return o.ref.frame(func(c *Context, idx int) error {
		if err := c.pushAny(key); err != nil {
			return err
		}
		if err := c.pushAny(value); err != nil {
			return err
		}
		if err := c.heap.PutProp(idx); err != nil {
			return err
		}
		return nil
	})
}

// Remove deletes a property. Removing a missing property succeeds.
func (o Object) Remove(key any) error {
	return o.ref.frame(func(c *Context, idx int) error {
		if err := c.pushAny(key); err != nil {
			return err
		}
		if err := c.heap.DelProp(idx); err != nil {
			return err
		}
		return nil
	})
}

// ContainsKey reports whether the object has the property, own or
// inherited.
func (o Object) ContainsKey(key any) (bool, error) {
	var found bool
	err := o.ref.frame(func(c *Context, idx int) error {
		if err := c.pushAny(key); err != nil {
			return err
		}
		ok, err := c.heap.HasProp(idx)
		if err != nil {
			return err
		}
		found = ok
		return nil
	})
	return found, err
}

// Len returns floor(ToNumber(o.length)), or 0 when that is not a
// non-negative number.
func (o Object) Len() (int, error) {
	var n int
	err := o.ref.frame(func(c *Context, idx int) error {
		l, err := c.heap.Length(idx)
		if err != nil {
			return err
		}
		n = l
		return nil
	})
	return n, err
}

// CallProp calls the method stored under key with o as `this`.
func (o Object) CallProp(key any, args ...any) (Value, error) {
	var v Value
	err := o.ref.frame(func(c *Context, idx int) error {
		h := c.heap
		if err := c.pushAny(key); err != nil {
			return err
		}
		if err := h.GetProp(idx); err != nil {
			return err
		}
		if !h.IsCallable(-1) {
			return errors.NotAFunction()
		}
		h.Dup(idx)
		n, err := c.pushArgs(args)
		if err != nil {
			return err
		}
		if err := h.CallMethod(n); err != nil {
			return err
		}
		v = c.popValue()
		return nil
	})
	return v, err
}

// DefineProp defines a property from a descriptor.
func (o Object) DefineProp(key any, desc PropertyDescriptor) error {
	return o.ref.frame(func(c *Context, idx int) error {
		ed, err := desc.engine(c)
		if err != nil {
			return err
		}
		if err := c.pushAny(key); err != nil {
			return err
		}
		if err := c.heap.DefProp(idx, ed); err != nil {
			return err
		}
		return nil
	})
}

// Properties enumerates the enumerable string-keyed properties of o, own
// then inherited, in the engine's for-in order.
func (o Object) Properties() *Properties {
	return &Properties{obj: o}
}

// engineValue converts x to a raw engine value without touching the stash.
func (c *Context) engineValue(x any) (goja.Value, error) {
	if err := c.pushAny(x); err != nil {
		return nil, err
	}
	return c.heap.Pop(), nil
}

// PropertyDescriptor describes a property for DefineProp. Attributes that
// are never set keep the engine's defaults, which are false for a new
// property.
type PropertyDescriptor struct {
	writable     goja.Flag
	enumerable   goja.Flag
	configurable goja.Flag
	value        any
	hasValue     bool
	getter       *Function
	setter       *Function
}

// NewPropertyDescriptor returns a descriptor with no attributes set.
func NewPropertyDescriptor() PropertyDescriptor {
	return PropertyDescriptor{}
}

func flag(b bool) goja.Flag {
	if b {
		return goja.FLAG_TRUE
	}
	return goja.FLAG_FALSE
}

// Enumerable sets whether the property shows up during enumeration.
func (d PropertyDescriptor) Enumerable(b bool) PropertyDescriptor {
	d.enumerable = flag(b)
	return d
}

// Configurable sets whether the property can be deleted or redefined.
func (d PropertyDescriptor) Configurable(b bool) PropertyDescriptor {
	d.configurable = flag(b)
	return d
}

// Writable sets whether assignment changes the value. It cannot be
// combined with a getter or setter.
func (d PropertyDescriptor) Writable(b bool) PropertyDescriptor {
	d.writable = flag(b)
	return d
}

// Value makes this a data property holding v.
func (d PropertyDescriptor) Value(v any) PropertyDescriptor {
	d.value, d.hasValue = v, true
	d.getter, d.setter = nil, nil
	return d
}

// Getter makes this an accessor property read through get.
func (d PropertyDescriptor) Getter(get Function) PropertyDescriptor {
	d.value, d.hasValue = nil, false
	d.getter, d.setter = &get, nil
	return d
}

// Setter makes this an accessor property written through set.
func (d PropertyDescriptor) Setter(set Function) PropertyDescriptor {
	d.value, d.hasValue = nil, false
	d.getter, d.setter = nil, &set
	return d
}

// GetterSetter makes this an accessor property with both functions.
func (d PropertyDescriptor) GetterSetter(get, set Function) PropertyDescriptor {
	d.value, d.hasValue = nil, false
	d.getter, d.setter = &get, &set
	return d
}

func (d PropertyDescriptor) engine(c *Context) (engine.PropertyDescriptor, error) {
	ed := engine.PropertyDescriptor{
		Writable:     d.writable,
		Enumerable:   d.enumerable,
		Configurable: d.configurable,
	}
	var err error
	if d.hasValue {
		if ed.Value, err = c.engineValue(d.value); err != nil {
			return ed, err
		}
	}
	if d.getter != nil {
		if ed.Getter, err = c.engineValue(*d.getter); err != nil {
			return ed, err
		}
	}
	if d.setter != nil {
		if ed.Setter, err = c.engineValue(*d.setter); err != nil {
			return ed, err
		}
	}
	return ed, nil
}

// Properties is a lazy enumeration of an object's properties. Each call
// to Next advances the engine's enumerator by one step.
//
//	props := obj.Properties()
//	defer props.Close()
//	for props.Next() {
//		fmt.Println(props.Key(), props.Value())
//	}
//	if err := props.Err(); err != nil { ... }
type Properties struct {
	obj   Object
	enum  *Ref
	key   Value
	value Value
	err   error
	done  bool
}

// Next advances to the next property and reports whether there is one.
func (p *Properties) Next() bool {
	if p.done {
		return false
	}
	err := p.obj.ref.frame(func(c *Context, idx int) error {
		h := c.heap
		if p.enum == nil {
			if err := h.PushEnum(idx); err != nil {
				return err
			}
			p.enum = c.popRef()
		}
		p.enum.push(h)
		more, err := h.EnumNext(-1, idx, true)
		if err != nil {
			return err
		}
		if !more {
			p.Close()
			return nil
		}
		p.value = c.popValue()
		p.key = c.popValue()
		return nil
	})
	if err != nil {
		p.err = err
		p.Close()
	}
	return !p.done
}

// Key returns the current property key, always a string.
func (p *Properties) Key() Value { return p.key }

// Value returns the current property value.
func (p *Properties) Value() Value { return p.value }

// Err returns the error that stopped the enumeration, if any.
func (p *Properties) Err() error { return p.err }

// Close ends the enumeration and releases the engine enumerator.
func (p *Properties) Close() {
	p.done = true
	if p.enum != nil {
		p.enum.Drop()
		p.enum = nil
	}
}

// TypedProperties is Properties with keys and values converted to K and V.
type TypedProperties[K, V any] struct {
	props *Properties
	key   K
	value V
	err   error
}

// PropertiesInto enumerates o like Properties, converting each pair.
// Enumeration stops at the first conversion error.
func PropertiesInto[K, V any](o Object) *TypedProperties[K, V] {
	return &TypedProperties[K, V]{props: o.Properties()}
}

func (t *TypedProperties[K, V]) Next() bool {
	if t.err != nil || !t.props.Next() {
		return false
	}
	c := t.props.obj.ref.context()
	key, err := Into[K](c, t.props.Key())
	if err != nil {
		t.err = err
		t.props.Close()
		return false
	}
	value, err := Into[V](c, t.props.Value())
	if err != nil {
		t.err = err
		t.props.Close()
		return false
	}
	t.key, t.value = key, value
	return true
}

func (t *TypedProperties[K, V]) Key() K   { return t.key }
func (t *TypedProperties[K, V]) Value() V { return t.value }

func (t *TypedProperties[K, V]) Err() error {
	if t.err != nil {
		return t.err
	}
	return t.props.Err()
}

func (t *TypedProperties[K, V]) Close() { t.props.Close() }
