package errors

import (
	"fmt"
	"strings"
)

// Kind categorizes the error
type Kind string

const (
	KindToJSConversion       Kind = "to_js_conversion"   // Go value -> engine value
	KindFromJSConversion     Kind = "from_js_conversion" // engine value -> Go value
	KindRuntime              Kind = "runtime"            // raised inside the engine
	KindRecursiveMutCallback Kind = "recursive_mut_callback"
	KindNotAFunction         Kind = "not_a_function"
	KindExternal             Kind = "external" // host-defined payload
)

// RuntimeErrorCode is the prototypical JavaScript error class of a runtime error.
type RuntimeErrorCode uint8

const (
	CodeError RuntimeErrorCode = iota
	CodeEvalError
	CodeRangeError
	CodeReferenceError
	CodeSyntaxError
	CodeTypeError
	CodeURIError
)

var codeNames = [...]string{
	CodeError:          "Error",
	CodeEvalError:      "EvalError",
	CodeRangeError:     "RangeError",
	CodeReferenceError: "ReferenceError",
	CodeSyntaxError:    "SyntaxError",
	CodeTypeError:      "TypeError",
	CodeURIError:       "URIError",
}

// String returns the constructor name of the error class.
func (c RuntimeErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "Error"
}

// ParseCode maps a constructor name back to its code. Unknown names map to CodeError.
func ParseCode(name string) RuntimeErrorCode {
	for i, n := range codeNames {
		if n == name {
			return RuntimeErrorCode(i)
		}
	}
	return CodeError
}

// RuntimeError is implemented by host errors that know how to present
// themselves as JavaScript errors.
type RuntimeError interface {
	error
	// Code is the error class used to construct the engine-side object.
	Code() RuntimeErrorCode
	// Name becomes the `name` property.
	Name() string
	// Message is appended to the context when building the `message` property.
	Message() (string, bool)
}

// Error is the structured error type returned by every fallible operation.
type Error struct {
	Cause    error
	External RuntimeError
	Kind     Kind
	Name     string
	From     string
	To       string
	Context  []string
	Code     RuntimeErrorCode
}

// Error renders the context (innermost first) followed by the kind description.
func (e *Error) Error() string {
	var b strings.Builder

	for _, c := range e.Context {
		b.WriteString(c)
		b.WriteString(": ")
	}

	switch e.Kind {
	case KindToJSConversion:
		fmt.Fprintf(&b, "error converting %s to JavaScript %s", e.From, e.To)
	case KindFromJSConversion:
		fmt.Fprintf(&b, "error converting JavaScript %s to %s", e.From, e.To)
	case KindRuntime:
		fmt.Fprintf(&b, "JavaScript runtime error (%s)", e.runtimeName())
	case KindRecursiveMutCallback:
		b.WriteString("mutable callback called recursively")
	case KindNotAFunction:
		b.WriteString("tried to call a non-function")
	case KindExternal:
		if e.External != nil {
			b.WriteString(e.External.Error())
		} else {
			b.WriteString("external error")
		}
	default:
		b.WriteString(string(e.Kind))
	}

	if e.Cause != nil && e.Kind != KindExternal {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	if e.External != nil {
		return e.External
	}
	return nil
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// WithContext returns a copy of e with ctx appended to its context stack.
func (e *Error) WithContext(ctx string) *Error {
	cp := *e
	cp.Context = make([]string, len(e.Context), len(e.Context)+1)
	copy(cp.Context, e.Context)
	cp.Context = append(cp.Context, ctx)
	return &cp
}

// Contextf is WithContext with formatting.
func (e *Error) Contextf(format string, args ...any) *Error {
	return e.WithContext(fmt.Sprintf(format, args...))
}

// RuntimeCode is the error class used when this error crosses into script code.
func (e *Error) RuntimeCode() RuntimeErrorCode {
	switch e.Kind {
	case KindToJSConversion, KindFromJSConversion, KindNotAFunction:
		return CodeTypeError
	case KindExternal:
		if e.External != nil {
			return e.External.Code()
		}
	case KindRuntime:
		return e.Code
	}
	return CodeError
}

// RuntimeName is the `name` property used when this error crosses into script code.
func (e *Error) RuntimeName() string {
	return e.runtimeName()
}

func (e *Error) runtimeName() string {
	switch e.Kind {
	case KindExternal:
		if e.External != nil {
			return e.External.Name()
		}
	case KindRuntime:
		if e.Name != "" {
			return e.Name
		}
	}
	return e.RuntimeCode().String()
}

// RuntimeMessage is the `message` property used when this error crosses into
// script code. It is the context joined by ": " followed by the external
// message, if any. Returns false when there is nothing to say.
func (e *Error) RuntimeMessage() (string, bool) {
	parts := make([]string, 0, len(e.Context)+1)
	parts = append(parts, e.Context...)
	if e.Kind == KindExternal && e.External != nil {
		if msg, ok := e.External.Message(); ok {
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ": "), true
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(kind Kind) *Builder {
	return &Builder{
		err: Error{
			Kind: kind,
		},
	}
}

// Code sets the runtime error class
func (b *Builder) Code(code RuntimeErrorCode) *Builder {
	b.err.Code = code
	return b
}

// Name sets the runtime error name
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Types sets the source and target type names of a conversion
func (b *Builder) Types(from, to string) *Builder {
	b.err.From = from
	b.err.To = to
	return b
}

// Context appends a context message
func (b *Builder) Context(msg string, args ...any) *Builder {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	b.err.Context = append(b.err.Context, msg)
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	err := b.err
	return &err
}

// Convenience constructors for common error patterns

// ToJSConversion creates an error for a Go value that could not become an engine value.
func ToJSConversion(from, to string) *Error {
	return &Error{
		Kind: KindToJSConversion,
		From: from,
		To:   to,
	}
}

// FromJSConversion creates an error for an engine value that could not become the requested Go type.
func FromJSConversion(from, to string) *Error {
	return &Error{
		Kind: KindFromJSConversion,
		From: from,
		To:   to,
	}
}

// Runtime creates an error raised inside the engine. An empty message adds no context.
func Runtime(code RuntimeErrorCode, name, message string) *Error {
	if name == "" {
		name = code.String()
	}
	err := &Error{
		Kind: KindRuntime,
		Code: code,
		Name: name,
	}
	if message != "" {
		err.Context = []string{message}
	}
	return err
}

// RecursiveMutCallback creates the reentrancy violation error.
func RecursiveMutCallback() *Error {
	return &Error{Kind: KindRecursiveMutCallback}
}

// NotAFunction creates the error for calling a non-callable value.
func NotAFunction() *Error {
	return &Error{Kind: KindNotAFunction}
}

// External wraps a host-defined error payload.
func External(err RuntimeError) *Error {
	return &Error{
		Kind:     KindExternal,
		External: err,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(kind Kind, cause error, context string) *Error {
	err := &Error{
		Kind:  kind,
		Cause: cause,
	}
	if context != "" {
		err.Context = []string{context}
	}
	return err
}

// Message is a RuntimeError carrying only a message, with code Error.
type Message string

func (m Message) Error() string { return string(m) }
func (m Message) Code() RuntimeErrorCode { return CodeError }
func (m Message) Name() string { return CodeError.String() }
func (m Message) Message() (string, bool) { return string(m), m != "" }

// Custom is a RuntimeError with an explicit class, name and optional message.
type Custom struct {
	Class RuntimeErrorCode
	Label string
	Text  string
}

func (c *Custom) Error() string {
	if c.Text == "" {
		return c.Name()
	}
	return c.Name() + ": " + c.Text
}

func (c *Custom) Code() RuntimeErrorCode { return c.Class }

func (c *Custom) Name() string {
	if c.Label == "" {
		return c.Class.String()
	}
	return c.Label
}

func (c *Custom) Message() (string, bool) { return c.Text, c.Text != "" }

// Convert turns an arbitrary error into *Error. *Error values pass through,
// RuntimeError values become external errors, anything else becomes an
// external Message error with the error text.
func Convert(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	if re, ok := err.(RuntimeError); ok {
		return External(re)
	}
	e := External(Message(err.Error()))
	e.Cause = err
	return e
}

// AddContext converts err and appends msg to its context. A nil err stays nil.
func AddContext(err error, msg string) error {
	if err == nil {
		return nil
	}
	return Convert(err).WithContext(msg)
}
