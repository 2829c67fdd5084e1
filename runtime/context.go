package runtime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/engine"
	"github.com/wippyai/js-runtime/errors"
)

// Context is a JavaScript engine instance. A root Context, created with
// New, owns its heap and releases it on Close. Host callbacks receive a
// nested Context that shares the heap of the context that created the
// function; closing it does nothing.
//
// A Context and every handle derived from it must be used from one
// goroutine at a time.
type Context struct {
	heap *engine.Heap
	root bool
}

type config struct {
	engine []engine.Option
}

// Option configures a Context.
type Option func(*config)

// WithMaxCallStackSize limits script recursion depth.
func WithMaxCallStackSize(n int) Option {
	return func(c *config) {
		c.engine = append(c.engine, engine.WithMaxCallStackSize(n))
	}
}

// WithoutGlobals removes the named properties from the global object.
func WithoutGlobals(names ...string) Option {
	return func(c *config) {
		c.engine = append(c.engine, engine.WithoutGlobals(names...))
	}
}

// WithStashKeySpace limits the number of live references, callbacks and
// user data entries. Mostly useful in tests.
func WithStashKeySpace(n uint32) Option {
	return func(c *config) {
		c.engine = append(c.engine, engine.WithStashKeySpace(n))
	}
}

// WithLogger sets the logger used by the engine and this package.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.engine = append(c.engine, engine.WithLogger(l))
	}
}

// ExecSettings controls a single Exec call.
type ExecSettings = engine.ExecSettings

// CallFrame describes an active script frame.
type CallFrame = engine.CallFrame

// CancelAfter returns a cancel predicate that fires once d has elapsed.
func CancelAfter(d time.Duration) func() bool {
	return engine.CancelAfter(d)
}

// CancelOnContext returns a cancel predicate that fires once ctx is done.
func CancelOnContext(ctx context.Context) func() bool {
	return engine.CancelOnContext(ctx)
}

// New creates a root Context.
func New(opts ...Option) *Context {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &Context{heap: engine.New(cfg.engine...), root: true}
	logger().Debug("context created")
	return c
}

func nested(h *engine.Heap) *Context {
	return &Context{heap: h}
}

// Heap exposes the engine heap for code that works with the stack
// protocol directly.
func (c *Context) Heap() *engine.Heap {
	return c.heap
}

// IsRoot reports whether c owns its heap.
func (c *Context) IsRoot() bool {
	return c.root
}

// Close releases the heap of a root Context: every reference, callback and
// stored user data value. Values implementing resource.Dropper are dropped.
// Closing a nested Context is a no-op.
func (c *Context) Close() error {
	if !c.root {
		return nil
	}
	if err := c.heap.Close(); err != nil {
		return errors.Wrap(errors.KindExternal, err, "close context")
	}
	logger().Debug("context closed")
	return nil
}

// Globals returns the global object.
func (c *Context) Globals() Object {
	c.heap.PushGlobal()
	return Object{ref: c.popRef()}
}

// Compile compiles source into a function that runs it in the global scope
// and returns its completion value. An empty name is "input". Syntax errors
// are runtime errors with code SyntaxError.
func (c *Context) Compile(source, name string) (Function, error) {
	if err := c.heap.Compile(source, name); err != nil {
		return Function{}, err
	}
	return Function{ref: c.popRef()}, nil
}

// Exec compiles and runs source. The cancel predicate in settings, if any,
// applies only to this call. A cancelled script fails with a runtime error
// named InterruptedError.
func (c *Context) Exec(source, name string, settings ExecSettings) (Value, error) {
	if err := c.heap.Exec(source, name, settings); err != nil {
		return Value{}, err
	}
	return c.popValue(), nil
}

// ExecInto runs source and converts its completion value to T.
func ExecInto[T any](c *Context, source, name string, settings ExecSettings) (T, error) {
	v, err := c.Exec(source, name, settings)
	if err != nil {
		var zero T
		return zero, err
	}
	return Into[T](c, v)
}

// SetUserData stores v under key, returning the value it replaced. The
// replaced value now belongs to the caller.
func (c *Context) SetUserData(key string, v any) (any, bool) {
	return c.heap.SetUserData(key, v)
}

// GetUserData returns the value stored under key if it is a T.
func GetUserData[T any](c *Context, key string) (T, bool) {
	v, ok := c.heap.UserData(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// RemoveUserData removes the value stored under key and hands it to the
// caller.
func (c *Context) RemoveUserData(key string) (any, bool) {
	return c.heap.RemoveUserData(key)
}

// CreateString creates an engine string.
func (c *Context) CreateString(s string) (String, error) {
	c.heap.PushString(s)
	return String{ref: c.popRef()}, nil
}

// CreateBytes creates a byte buffer holding a copy of b.
func (c *Context) CreateBytes(b []byte) (Bytes, error) {
	c.heap.PushBytes(b)
	return Bytes{ref: c.popRef()}, nil
}

// CreateObject creates an empty object.
func (c *Context) CreateObject() Object {
	c.heap.PushObject()
	return Object{ref: c.popRef()}
}

// CreateArray creates an empty array.
func (c *Context) CreateArray() Array {
	c.heap.PushArray()
	return Array{ref: c.popRef()}
}

// Pair is a key and value for CreateObjectFromPairs.
type Pair struct {
	Key   any
	Value any
}

// CreateObjectFromPairs creates an object with the given properties, set
// in order.
func (c *Context) CreateObjectFromPairs(pairs []Pair) (Object, error) {
	obj := c.CreateObject()
	for _, p := range pairs {
		if err := obj.Set(p.Key, p.Value); err != nil {
			obj.Drop()
			return Object{}, err
		}
	}
	return obj, nil
}

// CreateObjectFrom creates an object from a map. Go map order is random, so
// properties are set in an unspecified order.
func CreateObjectFrom[K comparable, V any](c *Context, m map[K]V) (Object, error) {
	pairs := make([]Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	return c.CreateObjectFromPairs(pairs)
}

// CoerceString applies ToString. It can run script code and so can fail.
func (c *Context) CoerceString(v Value) (String, error) {
	c.pushValue(v)
	if err := c.heap.CoerceString(-1); err != nil {
		c.heap.Pop()
		return String{}, err
	}
	return String{ref: c.popRef()}, nil
}

// CoerceNumber applies ToNumber. The result may be NaN.
func (c *Context) CoerceNumber(v Value) (float64, error) {
	if n, ok := v.AsNumber(); ok {
		return n, nil
	}
	c.pushValue(v)
	defer c.heap.Pop()
	n, err := c.heap.CoerceNumber(-1)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CoerceBoolean applies ToBoolean, which never fails.
func (c *Context) CoerceBoolean(v Value) bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.b
	}
	c.pushValue(v)
	defer c.heap.Pop()
	return c.heap.CoerceBoolean(-1)
}

// CallstackEntry describes the active script frame at level: -1 is the
// innermost frame, -2 its caller and so on.
func (c *Context) CallstackEntry(level int) (CallFrame, bool) {
	return c.heap.CallstackEntry(level)
}
