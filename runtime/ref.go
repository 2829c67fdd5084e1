package runtime

import (
	goruntime "runtime"

	"github.com/wippyai/js-runtime/engine"
)

// Ref pins one engine value in the heap's stash. Handles (Object, Function,
// Array, String, Bytes) share their Ref when copied; Clone makes an
// independent one.
//
// A Ref belongs to the heap it was created on. Pushing it onto another
// heap panics, as does any use after Drop. Refs that become unreachable
// without being dropped release their slot when the garbage collector
// finds them.
type Ref struct {
	heap    *engine.Heap
	key     uint32
	dropped bool
	cleanup goruntime.Cleanup
}

type refSlot struct {
	heap *engine.Heap
	key  uint32
}

func releaseSlot(s refSlot) {
	s.heap.DropRef(s.key)
}

func newRef(h *engine.Heap, key uint32) *Ref {
	r := &Ref{heap: h, key: key}
	r.cleanup = goruntime.AddCleanup(r, releaseSlot, refSlot{heap: h, key: key})
	return r
}

// Key returns the stash key.
func (r *Ref) Key() uint32 {
	return r.key
}

// Clone pins the same engine value in a new slot. Dropping either Ref
// leaves the other usable.
func (r *Ref) Clone() *Ref {
	r.live()
	return newRef(r.heap, r.heap.CloneRef(r.key))
}

// Drop releases the stash slot. Dropping twice is a no-op.
func (r *Ref) Drop() {
	if r == nil || r.dropped {
		return
	}
	r.dropped = true
	r.cleanup.Stop()
	r.heap.DropRef(r.key)
}

// Dropped reports whether Drop has been called.
func (r *Ref) Dropped() bool {
	return r.dropped
}

func (r *Ref) live() {
	if r == nil {
		panic("runtime: use of nil reference")
	}
	if r.dropped {
		panic("runtime: use of dropped reference")
	}
}

func (r *Ref) push(h *engine.Heap) {
	r.live()
	if r.heap != h {
		panic("runtime: reference used with a context of a different heap")
	}
	h.PushRef(r.key)
}

// context returns a Context over the heap the Ref belongs to. Handles carry
// only their Ref, so their methods run through this.
func (r *Ref) context() *Context {
	r.live()
	return nested(r.heap)
}

// frame pushes the referenced value, runs fn with its absolute stack index
// and trims whatever fn left above it. fn popping below its frame is fatal.
func (r *Ref) frame(fn func(c *Context, idx int) error) error {
	c := r.context()
	h := c.heap
	guard := h.Guard()
	r.push(h)
	defer guard.Release()
	return fn(c, guard.Height())
}
