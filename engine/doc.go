// Package engine implements the stack protocol between host code and the
// goja JavaScript engine.
//
// A Heap owns one goja runtime and the host-side state attached to it.
// Host code talks to the engine through a value stack, in the style of
// embeddable interpreters with a C API:
//
//	h := engine.New()
//	h.PushGlobal()
//	h.PushString("answer")
//	h.PushNumber(42)
//	if err := h.PutProp(-3); err != nil {
//	    return err
//	}
//	h.Pop()
//
// # Stack Discipline
//
// Every operation documents its stack effect. AssertStack checks an
// expected height delta, and a StackGuard restores a recorded height on
// Release. Popping below a guard's height is an invariant violation and is
// reported through the fatal handler.
//
// # Protected Calls
//
// goja raises script exceptions by panicking. Protect runs a function in a
// boundary that catches those panics, converts them to *errors.Error and
// cuts the stack back below the consumed inputs. Host panics that are not
// engine throws pass through unchanged.
//
// # Stash
//
// Values the host holds on to are pinned in the stash, a resource table
// keyed by uint32. PopRef pins the top value, PushRef pushes it back,
// DropRef releases it.
//
// # Callbacks
//
// PushFunction wraps a HostFunc in a script function. The closure is boxed
// in the heap's callback table and the script function holds only its
// handle; a GC cleanup releases the entry when the function object is
// collected. Errors returned by host functions are thrown into the script
// as error objects that carry the original *errors.Error, so it comes back
// out unchanged if the script does not catch it.
//
// # Cancellation
//
// Exec runs with ExecSettings. A cancel predicate is polled from a watcher
// goroutine that interrupts the engine. Interrupts are uncatchable by
// script code and are rethrown by the trampoline even if a host callback
// swallows them.
package engine
