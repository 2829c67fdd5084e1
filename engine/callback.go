package engine

import (
	"fmt"
	"runtime"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/errors"
	"github.com/wippyai/js-runtime/resource"
)

// HostFunc is the engine-level callback signature. On entry the stack holds
// [this arg1 .. argN] above the caller's values; nargs is N. On success the
// function leaves its return value on top of the stack. Anything else it
// leaves is discarded.
type HostFunc func(h *Heap, nargs int) error

type callback struct {
	fn      HostFunc
	mutable bool
}

// PushFunction pushes a script function that dispatches to fn.
func (h *Heap) PushFunction(fn HostFunc) {
	h.pushCallback(fn, false)
}

// PushFunctionMut is PushFunction for callbacks that must not be re-entered.
// A nested call while fn is running fails with a recursive callback error.
func (h *Heap) PushFunctionMut(fn HostFunc) {
	h.pushCallback(fn, true)
}

func (h *Heap) pushCallback(fn HostFunc, mutable bool) {
	view := h.callbacks
	if mutable {
		view = h.mutables
	}

	handle, err := view.TryInsert(&callback{fn: fn, mutable: mutable})
	if err != nil {
		panic(fmt.Sprintf("engine: callback table: %v", err))
	}

	obj := h.vm.ToValue(h.trampoline(handle, mutable)).(*goja.Object)

	// The table entry lives as long as the function object.
	table := h.table
	runtime.AddCleanup(obj, func(handle resource.Handle) {
		if _, ok := table.Remove(handle); ok {
			Logger().Debug("callback finalized", zap.Uint32("handle", uint32(handle)))
		}
	}, handle)

	debugf("callback registered: handle=%d mutable=%v", handle, mutable)
	h.Push(obj)
}

// CallbackCount returns the number of live callbacks.
func (h *Heap) CallbackCount() int {
	return h.callbacks.Len() + h.mutables.Len()
}

func (h *Heap) trampoline(handle resource.Handle, mutable bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		view := h.callbacks
		if mutable {
			view = h.mutables
		}
		cb, ok := view.Get(handle)
		if !ok {
			h.ThrowError(errors.External(errors.Message("callback has been released")))
		}

		if mutable {
			if !h.table.TryBorrow(handle) {
				h.ThrowError(errors.RecursiveMutCallback())
			}
			defer h.table.ReturnBorrow(handle)
		}

		guard := h.Guard()
		h.Push(call.This)
		for _, arg := range call.Arguments {
			h.Push(arg)
		}

		err := h.invoke(cb.fn, len(call.Arguments))

		if p := h.pending; p != nil {
			h.pending = nil
			guard.Release()
			panic(p)
		}

		if e := errors.Convert(err); e != nil {
			guard.Release()
			h.ThrowError(e)
		}

		ret := goja.Undefined()
		if h.Top() > guard.Height() {
			ret = h.Get(-1)
		}
		guard.Release()
		return ret
	}
}

// invoke runs fn with the heap marked as nested. Panics other than
// uncatchable engine errors are fatal: a host callback that panics leaves
// the heap in an unknown state.
func (h *Heap) invoke(fn HostFunc, nargs int) (err error) {
	h.depth++
	defer func() {
		h.depth--
		if x := recover(); x != nil {
			switch x.(type) {
			case *goja.InterruptedError, *goja.StackOverflowError:
				panic(x)
			}
			Fatal("host callback panicked: %v", x)
		}
	}()
	return fn(h, nargs)
}

// noteInterrupt records an interrupt seen by a nested call so the enclosing
// trampoline rethrows it even if the host callback swallows the error.
func (h *Heap) noteInterrupt(ie *goja.InterruptedError) {
	if h.depth > 0 {
		h.pending = ie
	}
}

// Nested reports whether the heap is currently inside a host callback.
func (h *Heap) Nested() bool {
	return h.depth > 0
}
