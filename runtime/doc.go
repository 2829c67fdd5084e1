// Package runtime is the high-level API for embedding JavaScript.
//
// # Quick Start
//
//	ctx := runtime.New()
//	defer ctx.Close()
//
//	add := ctx.CreateFunction(func(inv runtime.Invocation) (any, error) {
//	    var a, b float64
//	    if err := inv.Args.Unpack(inv.Ctx, &a, &b); err != nil {
//	        return nil, err
//	    }
//	    return a + b, nil
//	})
//	globals := ctx.Globals()
//	globals.Set("add", add)
//
//	n, err := runtime.ExecInto[int](ctx, "add(4, 5)", "", runtime.ExecSettings{})
//	fmt.Println(n) // 9
//
// # Values and Handles
//
// A Value is undefined, null, a boolean, a number, or a reference to an
// engine string, function, array, object or byte buffer. References are
// held through a Ref, which pins the engine value until Drop is called or
// the Ref becomes unreachable. The handle types (String, Function, Array,
// Object, Bytes) wrap a Ref; arrays, functions and buffers are objects
// too, and ToObject gives the Object view.
//
// Go values convert with Context.ToValue and Into:
//
//	Go Type               Engine Type
//	──────────────────────────────────
//	nil, nil pointer      null
//	bool                  boolean
//	ints, uints, floats   number
//	string                string
//	[]byte                ArrayBuffer
//	handles, Value        themselves
//
// Into coerces numbers, strings and booleans the way the engine does;
// integer targets truncate and saturate, and NaN becomes 0. Structs, maps
// and slices are handled by the transcoder package.
//
// # Host Functions
//
// CreateFunction wraps a Callback. An error returned from a callback is
// thrown into the script; if the script lets it escape, the host gets the
// original error back. CreateFunctionMut rejects re-entrant calls.
//
// RegisterHost and RegisterFunc bind ordinary Go functions through
// reflection:
//
//	type Math struct{}
//
//	func (Math) Namespace() string         { return "math2" }
//	func (Math) Add(a, b int) int          { return a + b }
//	func (Math) Div(a, b float64) (float64, error) { ... }
//
//	ctx.RegisterHost(Math{}) // math2.add(1, 2), math2.div(1, 2)
//
// # Cancellation
//
// Exec takes ExecSettings with an optional Cancel predicate, polled while
// the script runs. CancelAfter and CancelOnContext build common
// predicates. A cancelled script returns an error named InterruptedError
// that scripts cannot catch.
//
// # Thread Safety
//
// A Context is not safe for concurrent use. All handles derived from it
// must be used on the goroutine that owns it.
package runtime
