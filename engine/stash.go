package engine

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/wippyai/js-runtime/resource"
)

// The stash pins engine values the host refers to by key. Keys come from the
// heap's resource table, so stash entries, callbacks and user data share one
// key space and one set of lifecycle events.

// PopRef pops the top value into a new stash slot and returns its key.
// It panics when the key space is exhausted.
func (h *Heap) PopRef() uint32 {
	v := h.Pop()
	key, err := h.stash.TryInsert(v)
	if err != nil {
		panic(fmt.Sprintf("engine: stash: %v", err))
	}
	return uint32(key)
}

// PushRef pushes the value stored under key. It panics on an unknown key.
func (h *Heap) PushRef(key uint32) {
	h.Push(h.Deref(key))
}

// Deref returns the value stored under key without touching the stack.
func (h *Heap) Deref(key uint32) goja.Value {
	v, ok := h.stash.Get(resource.Handle(key))
	if !ok {
		panic(fmt.Sprintf("engine: stash key %d is not live", key))
	}
	return v
}

// CloneRef stores the value under key in a second, independent slot.
func (h *Heap) CloneRef(key uint32) uint32 {
	h.PushRef(key)
	return h.PopRef()
}

// DropRef releases a stash slot. Dropping an unknown key is a no-op, so a
// late GC cleanup after Close does nothing.
func (h *Heap) DropRef(key uint32) {
	h.stash.Remove(resource.Handle(key))
}

// RefCount returns the number of live stash slots.
func (h *Heap) RefCount() int {
	return h.stash.Len()
}
