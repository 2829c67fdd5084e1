// Package jsruntime embeds a JavaScript engine in Go programs.
//
// Scripts run on goja behind a small value stack, in the style of the
// Duktape C API: operations push and pop values, and values the host wants
// to keep across calls are pinned in a stash and referenced by integer key.
// The runtime package wraps that protocol in typed handles.
//
// # Architecture Overview
//
//	jsruntime/           Root package with version information
//	├── runtime/         High-level API: contexts, values, handles, host functions
//	├── engine/          Value stack, stash, protected calls and callbacks over goja
//	├── transcoder/      Conversion between Go structs, maps and slices and script values
//	├── resource/        Handle table for stashed values, callbacks and user data
//	├── errors/          Structured error types shared by every layer
//	└── cmd/run/         Command line runner, REPL and interactive caller
//
// # Quick Start
//
//	ctx := runtime.New()
//	defer ctx.Close()
//
//	ctx.RegisterFunc("greet", func(name string) string {
//	    return "Hello, " + name + "!"
//	})
//
//	s, err := runtime.ExecInto[string](ctx, `greet("World")`, "", runtime.ExecSettings{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(s) // "Hello, World!"
//
// # Structured Data
//
//	type Point struct {
//	    X int `js:"x"`
//	    Y int `js:"y"`
//	}
//
//	v, _ := transcoder.Encode(ctx, Point{1, 2})
//	defer v.Drop()
//	p, _ := transcoder.DecodeAs[Point](ctx, v)
//
// # Thread Safety
//
// A Context and everything derived from it belong to one goroutine.
// Independent contexts share nothing and may run in parallel.
package jsruntime

// Version is the release of this module.
const Version = "0.4.0"
