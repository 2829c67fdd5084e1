// Package transcoder converts structured Go data to and from engine
// values.
//
// The runtime package converts scalars and handles; this package adds
// structs, maps, slices, arrays and enum variants on top of it:
//
//	Go Type               Engine Type
//	──────────────────────────────────
//	struct                object (fields in declaration order)
//	map[K]V               object (keys sorted)
//	[]T, [N]T             array
//	[]byte                ArrayBuffer
//	nil pointer/map/slice null
//	Variant               "name" or { name: payload }
//	any                   decoded to nil, bool, float64, string,
//	                      []byte, []any or map[string]any
//
// # Struct Tags
//
// Field names come from the js tag, falling back to the Go field name:
//
//	type User struct {
//	    Name  string `js:"name"`
//	    Email string `js:"email,omitempty"`
//	    Token string `js:"-"`
//	}
//
// Exported embedded structs without a tag have their fields promoted.
//
// # Type Compilation
//
// A Compiler builds one CompiledType per Go type, holding the field list
// and element plans, and caches it. Encode and Decode share a package-level
// compiler; NewEncoder and NewDecoder accept a private one.
//
// # Ownership
//
// Encode returns a value owned by the caller. Temporary values created
// while decoding are dropped, except those stored in runtime.Value or
// handle fields of the output.
//
// # Thread Safety
//
// Compiler is safe for concurrent use. Encoding and decoding touch the
// engine and must run on the goroutine that owns the Context.
package transcoder
