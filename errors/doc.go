// Package errors provides structured error types for the js-runtime library.
//
// Every fallible operation returns *Error. The Kind says what went wrong and
// the Context stack records where, growing as the error propagates outward:
//
//	err := errors.New(errors.KindFromJSConversion).
//		Types("number", "Function").
//		Context("function expected").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotAFunction()
//	err := errors.Runtime(errors.CodeRangeError, "", "index out of range")
//
// Context is never replaced. WithContext returns a copy with one more entry:
//
//	return errors.FromJSConversion("null", "Object").WithContext("reading config")
//
// When an *Error crosses into script code it becomes a native error object
// whose class, name and message come from RuntimeCode, RuntimeName and
// RuntimeMessage. Host errors can control all three by implementing
// RuntimeError and wrapping themselves with External.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
