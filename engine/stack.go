package engine

import (
	"fmt"

	"github.com/dop251/goja"
)

// The value stack. Indices are absolute from the bottom when non-negative
// and relative to the top when negative (-1 is the top).

// Top returns the current stack height.
func (h *Heap) Top() int {
	return len(h.stack)
}

// SetTop truncates the stack or pads it with undefined to height n.
func (h *Heap) SetTop(n int) {
	if n < 0 {
		panic(fmt.Sprintf("engine: invalid stack height %d", n))
	}
	for len(h.stack) < n {
		h.stack = append(h.stack, goja.Undefined())
	}
	clear(h.stack[n:])
	h.stack = h.stack[:n]
}

func (h *Heap) index(idx int) int {
	abs := idx
	if idx < 0 {
		abs = len(h.stack) + idx
	}
	if abs < 0 || abs >= len(h.stack) {
		panic(fmt.Sprintf("engine: stack index %d out of range (height %d)", idx, len(h.stack)))
	}
	return abs
}

// Push pushes an engine value. nil is pushed as undefined.
func (h *Heap) Push(v goja.Value) {
	if v == nil {
		v = goja.Undefined()
	}
	h.stack = append(h.stack, v)
}

func (h *Heap) PushUndefined() { h.Push(goja.Undefined()) }
func (h *Heap) PushNull()      { h.Push(goja.Null()) }

func (h *Heap) PushBool(b bool) {
	h.Push(h.vm.ToValue(b))
}

func (h *Heap) PushNumber(f float64) {
	h.Push(h.vm.ToValue(f))
}

func (h *Heap) PushString(s string) {
	h.Push(h.vm.ToValue(s))
}

// PushBytes pushes a new ArrayBuffer holding a copy of b.
func (h *Heap) PushBytes(b []byte) {
	data := make([]byte, len(b))
	copy(data, b)
	h.Push(h.vm.ToValue(h.vm.NewArrayBuffer(data)))
}

func (h *Heap) PushObject() {
	h.Push(h.vm.NewObject())
}

func (h *Heap) PushArray() {
	h.Push(h.vm.NewArray())
}

func (h *Heap) PushGlobal() {
	h.Push(h.vm.GlobalObject())
}

// Get returns the value at idx without removing it.
func (h *Heap) Get(idx int) goja.Value {
	return h.stack[h.index(idx)]
}

// Replace overwrites the value at idx.
func (h *Heap) Replace(idx int, v goja.Value) {
	if v == nil {
		v = goja.Undefined()
	}
	h.stack[h.index(idx)] = v
}

// Dup pushes a copy of the value at idx.
func (h *Heap) Dup(idx int) {
	h.Push(h.Get(idx))
}

// Remove deletes the value at idx, shifting the values above it down.
func (h *Heap) Remove(idx int) {
	i := h.index(idx)
	copy(h.stack[i:], h.stack[i+1:])
	h.stack[len(h.stack)-1] = nil
	h.stack = h.stack[:len(h.stack)-1]
}

// Pop removes and returns the top value.
func (h *Heap) Pop() goja.Value {
	if len(h.stack) == 0 {
		panic("engine: pop from empty stack")
	}
	v := h.stack[len(h.stack)-1]
	h.stack[len(h.stack)-1] = nil
	h.stack = h.stack[:len(h.stack)-1]
	return v
}

// PopN removes the top n values and returns them bottom first.
func (h *Heap) PopN(n int) []goja.Value {
	if n > len(h.stack) {
		panic(fmt.Sprintf("engine: pop %d from stack of height %d", n, len(h.stack)))
	}
	base := len(h.stack) - n
	out := make([]goja.Value, n)
	copy(out, h.stack[base:])
	h.SetTop(base)
	return out
}

// AssertStack runs fn and panics unless the stack height changed by exactly delta.
func (h *Heap) AssertStack(delta int, fn func()) {
	before := len(h.stack)
	fn()
	if got := len(h.stack) - before; got != delta {
		panic(fmt.Sprintf("engine: stack changed by %d, expected %d", got, delta))
	}
}

// StackGuard records a stack height and restores it on Release.
type StackGuard struct {
	h   *Heap
	top int
}

// Guard records the current stack height.
func (h *Heap) Guard() StackGuard {
	return StackGuard{h: h, top: len(h.stack)}
}

// Release trims values pushed since the guard was taken. A stack below the
// recorded height means something popped values it did not own.
func (g StackGuard) Release() {
	if n := len(g.h.stack); n < g.top {
		Fatal("stack guard underflow: height %d below recorded %d", n, g.top)
		return
	}
	g.h.SetTop(g.top)
}

// Height returns the recorded height.
func (g StackGuard) Height() int {
	return g.top
}
