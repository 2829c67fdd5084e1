package runtime

import (
	"github.com/wippyai/js-runtime/engine"
	"github.com/wippyai/js-runtime/errors"
)

// Invocation is what a host callback receives: the nested Context for the
// call, the `this` value and the arguments.
type Invocation struct {
	Ctx  *Context
	This Value
	Args Values
}

// Callback is a Go function callable from script. Its result is converted
// with ToValue; a nil result is undefined. A returned error is thrown into
// the script as an error object, and comes back to the host unchanged if
// the script does not catch it.
type Callback func(inv Invocation) (any, error)

// Function is a handle to a callable engine value.
type Function struct {
	ref *Ref
}

// CreateFunction wraps fn as a script function.
func (c *Context) CreateFunction(fn Callback) Function {
	c.heap.PushFunction(hostFunc(fn))
	return Function{ref: c.popRef()}
}

// CreateFunctionMut is CreateFunction for callbacks that must not run
// re-entrantly. A call made while fn is already running fails with a
// recursive callback error.
func (c *Context) CreateFunctionMut(fn Callback) Function {
	c.heap.PushFunctionMut(hostFunc(fn))
	return Function{ref: c.popRef()}
}

func hostFunc(fn Callback) engine.HostFunc {
	return func(h *engine.Heap, nargs int) error {
		ctx := nested(h)
		args := make(Values, nargs)
		for i := nargs - 1; i >= 0; i-- {
			args[i] = ctx.popValue()
		}
		this := ctx.popValue()

		ret, err := fn(Invocation{Ctx: ctx, This: this, Args: args})
		if err != nil {
			return err
		}
		if ret == nil {
			h.PushUndefined()
			return nil
		}
		return ctx.pushAny(ret)
	}
}

// Value returns f as a Value.
func (f Function) Value() Value {
	return refValue(KindFunction, f.ref)
}

// Ref returns the underlying reference.
func (f Function) Ref() *Ref {
	return f.ref
}

// ToObject reinterprets the function as an Object.
func (f Function) ToObject() Object {
	return Object{ref: f.ref}
}

// Clone returns a handle with its own reference.
func (f Function) Clone() Function {
	return Function{ref: f.ref.Clone()}
}

// Drop releases the reference.
func (f Function) Drop() {
	f.ref.Drop()
}

// Call calls f with an undefined `this`. Values and Variadic arguments are
// spread into separate arguments.
func (f Function) Call(args ...any) (Value, error) {
	return f.CallMethod(nil, args...)
}

// CallMethod calls f with the given `this`. A nil this is undefined.
func (f Function) CallMethod(this any, args ...any) (v Value, err error) {
	c := f.ref.context()
	h := c.heap
	h.AssertStack(0, func() {
		base := h.Top()
		f.ref.push(h)
		if this == nil {
			h.PushUndefined()
		} else if err = c.pushAny(this); err != nil {
			h.SetTop(base)
			return
		}
		n, perr := c.pushArgs(args)
		if perr != nil {
			h.SetTop(base)
			err = perr
			return
		}
		if cerr := h.CallMethod(n); cerr != nil {
			err = cerr
			return
		}
		v = c.popValue()
	})
	return v, err
}

// CallNew calls f as a constructor.
func (f Function) CallNew(args ...any) (v Value, err error) {
	c := f.ref.context()
	h := c.heap
	h.AssertStack(0, func() {
		base := h.Top()
		f.ref.push(h)
		n, perr := c.pushArgs(args)
		if perr != nil {
			h.SetTop(base)
			err = perr
			return
		}
		if nerr := h.New(n); nerr != nil {
			err = nerr
			return
		}
		v = c.popValue()
	})
	return v, err
}

// CallWithSettings is Call with settings in force while f runs, so a call
// made from the host can be cancelled like Exec.
func (f Function) CallWithSettings(settings ExecSettings, args ...any) (Value, error) {
	var (
		v   Value
		err error
	)
	h := f.ref.context().heap
	if e := h.WithExecSettings(settings, func() *errors.Error {
		v, err = f.Call(args...)
		return nil
	}); e != nil {
		return Value{}, e
	}
	return v, err
}

// CallInto calls f and converts the result to T.
func CallInto[T any](f Function, args ...any) (T, error) {
	v, err := f.Call(args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Into[T](f.ref.context(), v)
}

func (c *Context) pushArgs(args []any) (int, error) {
	n := 0
	for _, arg := range args {
		if spread, ok := arg.(variadicArgs); ok {
			m, err := c.pushArgs(spread.flatten())
			if err != nil {
				return 0, err
			}
			n += m
			continue
		}
		if err := c.pushAny(arg); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}
