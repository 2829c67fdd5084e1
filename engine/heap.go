package engine

import (
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/errors"
	"github.com/wippyai/js-runtime/resource"
)

// Heap is one engine instance plus the host-side state attached to it:
// the value stack, the stash of pinned values, the callback table, user
// data and the execution control block.
//
// A Heap is confined to one goroutine. The stash and callback tables are
// safe for the GC cleanups that release unreachable entries.
type Heap struct {
	vm        *goja.Runtime
	table     *resource.UnifiedTable
	stash     *resource.Typed[goja.Value]
	callbacks *resource.Typed[*callback]
	mutables  *resource.Typed[*callback]
	userData  map[string]resource.Handle
	errSym    *goja.Symbol
	helpers   helpers
	ctors     [errors.CodeURIError + 1]*goja.Object
	stack     []goja.Value
	exec      execControl
	depth     int
	pending   *goja.InterruptedError
	closeOnce sync.Once
	closed    bool
}

type config struct {
	maxCallStackSize int
	keySpace         uint32
	stripGlobals     []string
	logger           *zap.Logger
}

// Option configures a Heap.
type Option func(*config)

// WithMaxCallStackSize limits script recursion depth. Exceeding it raises an
// uncatchable stack overflow.
func WithMaxCallStackSize(n int) Option {
	return func(c *config) {
		c.maxCallStackSize = n
	}
}

// WithoutGlobals removes the named properties from the global object after
// the engine is initialized.
func WithoutGlobals(names ...string) Option {
	return func(c *config) {
		c.stripGlobals = append(c.stripGlobals, names...)
	}
}

// WithStashKeySpace limits stash and callback keys to [1, n].
func WithStashKeySpace(n uint32) Option {
	return func(c *config) {
		c.keySpace = n
	}
}

// WithLogger sets the process-wide engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// DefaultStripGlobals lists the introspection globals removed by default.
// goja exposes none, so the list is empty; embedders add their own with
// WithoutGlobals.
var DefaultStripGlobals []string

// New creates a heap. It is the only way engine instances are constructed.
func New(opts ...Option) *Heap {
	cfg := config{stripGlobals: append([]string(nil), DefaultStripGlobals...)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger != nil {
		SetLogger(cfg.logger)
	}

	var tableOpts []resource.BackendOption
	if cfg.keySpace > 0 {
		tableOpts = append(tableOpts, resource.WithKeySpace(cfg.keySpace))
	}
	table := resource.NewTable(tableOpts...)

	h := &Heap{
		vm:        goja.New(),
		table:     table,
		stash:     resource.NewTyped[goja.Value](table, resource.TypeStashValue),
		callbacks: resource.NewTyped[*callback](table, resource.TypeCallback),
		mutables:  resource.NewTyped[*callback](table, resource.TypeCallbackMut),
		userData:  make(map[string]resource.Handle),
		errSym:    goja.NewSymbol("jsruntime.error"),
		stack:     make([]goja.Value, 0, 16),
	}
	if cfg.maxCallStackSize > 0 {
		h.vm.SetMaxCallStackSize(cfg.maxCallStackSize)
	}

	h.initHelpers()

	global := h.vm.GlobalObject()
	for code := errors.CodeError; code <= errors.CodeURIError; code++ {
		if ctor, ok := global.Get(code.String()).(*goja.Object); ok {
			h.ctors[code] = ctor
		}
	}
	for _, name := range cfg.stripGlobals {
		_ = global.Delete(name)
	}

	if debugEnabled() {
		table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
			Logger().Debug("heap resource",
				zap.Stringer("event", e.Type),
				zap.Uint32("handle", uint32(e.Handle)),
				zap.Uint32("type", e.TypeID))
		}))
	}

	Logger().Debug("heap created", zap.Strings("stripped_globals", cfg.stripGlobals))
	return h
}

// VM returns the underlying goja runtime.
func (h *Heap) VM() *goja.Runtime {
	return h.vm
}

// Table returns the resource table backing the stash, callbacks and user data.
func (h *Heap) Table() *resource.UnifiedTable {
	return h.table
}

// Closed reports whether Close has been called.
func (h *Heap) Closed() bool {
	return h.closed
}

// Close releases the stash, the callback table and user data. Payloads
// implementing resource.Dropper are dropped. Close is idempotent. A heap
// cannot be closed from inside one of its host callbacks.
func (h *Heap) Close() error {
	if h.Nested() {
		return errors.External(errors.Message("heap closed from inside a host callback"))
	}
	var err error
	h.closeOnce.Do(func() {
		h.closed = true
		h.stack = nil
		h.userData = nil
		err = h.table.Close()
		Logger().Debug("heap closed")
	})
	return err
}
