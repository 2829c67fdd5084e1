package engine

import (
	stderrors "errors"

	"github.com/dop251/goja"

	"github.com/wippyai/js-runtime/errors"
)

// InterruptedName is the error name reported for cancelled executions.
const InterruptedName = "InterruptedError"

// errorBox carries a host error through the engine as a hidden property of
// the thrown error object.
type errorBox struct {
	err *errors.Error
}

// Protect runs fn with the top nargs stack values as its inputs. Engine
// throws raised inside fn are caught and returned as *errors.Error, in which
// case the stack is cut back to its height before the inputs were pushed.
// On success the inputs are replaced by the top nrets values fn left,
// padded with undefined if it left fewer.
//
// Panics that are not engine throws propagate unchanged.
func (h *Heap) Protect(nargs, nrets int, fn func()) (err *errors.Error) {
	base := len(h.stack) - nargs
	if base < 0 {
		panic("engine: protect with more inputs than stack values")
	}

	defer func() {
		if x := recover(); x != nil {
			e := h.errorFromPanic(x)
			if e == nil {
				panic(x)
			}
			h.SetTop(base)
			err = e
		}
	}()

	if ex := h.vm.Try(fn); ex != nil {
		h.SetTop(base)
		return h.errorFromValue(ex.Value())
	}

	h.settle(base, nrets)
	return nil
}

// settle leaves exactly nrets values above base, keeping the topmost ones.
func (h *Heap) settle(base, nrets int) {
	top := len(h.stack)
	if top < base {
		Fatal("protected call consumed values below its base: height %d, base %d", top, base)
		return
	}
	have := top - base
	if have > nrets {
		copy(h.stack[base:], h.stack[top-nrets:top])
		h.SetTop(base + nrets)
		return
	}
	h.SetTop(base + nrets)
}

// errorFromPanic maps a recovered panic value to an error if it is an
// engine throw or a host *errors.Error. It returns nil for anything else.
func (h *Heap) errorFromPanic(x any) *errors.Error {
	switch v := x.(type) {
	case *errors.Error:
		return v
	case *goja.Exception:
		return h.errorFromValue(v.Value())
	case *goja.InterruptedError:
		h.noteInterrupt(v)
		return interruptedError(v)
	case *goja.StackOverflowError:
		return errors.Runtime(errors.CodeRangeError, "RangeError", "Maximum call stack size exceeded")
	case goja.Value:
		return h.errorFromValue(v)
	}
	return nil
}

// ErrorFromGo maps an error returned by a goja API into the taxonomy.
func (h *Heap) ErrorFromGo(err error) *errors.Error {
	if err == nil {
		return nil
	}
	var ie *goja.InterruptedError
	if stderrors.As(err, &ie) {
		h.noteInterrupt(ie)
		return interruptedError(ie)
	}
	var so *goja.StackOverflowError
	if stderrors.As(err, &so) {
		return errors.Runtime(errors.CodeRangeError, "RangeError", "Maximum call stack size exceeded")
	}
	var ex *goja.Exception
	if stderrors.As(err, &ex) {
		return h.errorFromValue(ex.Value())
	}
	return errors.Convert(err)
}

func interruptedError(ie *goja.InterruptedError) *errors.Error {
	e := errors.Runtime(errors.CodeError, InterruptedName, "")
	if v, ok := ie.Value().(string); ok && v != "" {
		e.Context = []string{v}
	}
	return e
}

// IsInterrupted reports whether err is a cancellation error.
func IsInterrupted(err error) bool {
	var e *errors.Error
	return stderrors.As(err, &e) && e.Kind == errors.KindRuntime && e.Name == InterruptedName
}

// errorFromValue recovers the host error attached to a thrown value, or
// describes the value as a runtime error.
func (h *Heap) errorFromValue(v goja.Value) *errors.Error {
	obj, ok := v.(*goja.Object)
	if !ok {
		return errors.Runtime(errors.CodeError, "", "")
	}

	if hidden := obj.GetSymbol(h.errSym); hidden != nil {
		if box, ok := hidden.Export().(*errorBox); ok && box.err != nil {
			return box.err
		}
	}

	name := h.stringProp(obj, "name")
	message := h.stringProp(obj, "message")
	return errors.Runtime(h.errorCode(obj), name, message)
}

func (h *Heap) stringProp(obj *goja.Object, key string) string {
	var out string
	_ = h.vm.Try(func() {
		if v := obj.Get(key); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
			out = v.String()
		}
	})
	return out
}

// errorCode finds the most specific builtin error class in obj's prototype chain.
func (h *Heap) errorCode(obj *goja.Object) errors.RuntimeErrorCode {
	for code := errors.CodeEvalError; code <= errors.CodeURIError; code++ {
		ctor := h.ctors[code]
		if ctor == nil {
			continue
		}
		proto, _ := ctor.Get("prototype").(*goja.Object)
		for p := obj.Prototype(); p != nil && proto != nil; p = p.Prototype() {
			if p == proto {
				return code
			}
		}
	}
	return errors.CodeError
}

// NewError builds the engine error object for err: an instance of the mapped
// builtin class with its name and message set, carrying err in a hidden
// property so it round-trips through script code unchanged.
func (h *Heap) NewError(err *errors.Error) *goja.Object {
	var args []goja.Value
	if msg, ok := err.RuntimeMessage(); ok {
		args = append(args, h.vm.ToValue(msg))
	}

	var obj *goja.Object
	if ctor := h.ctors[err.RuntimeCode()]; ctor != nil {
		obj, _ = h.vm.New(ctor, args...)
	}
	if obj == nil {
		obj = h.vm.NewObject()
		if len(args) > 0 {
			_ = obj.Set("message", args[0])
		}
	}

	_ = obj.Set("name", err.RuntimeName())
	_ = obj.DefineDataPropertySymbol(h.errSym, h.vm.ToValue(&errorBox{err: err}),
		goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
	return obj
}

// ThrowError throws the engine error object for err. It must be called
// from inside Protect or a native function.
func (h *Heap) ThrowError(err *errors.Error) {
	panic(h.NewError(err))
}
