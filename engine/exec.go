package engine

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/errors"
)

// DefaultSourceName is used for compiled code given no name.
const DefaultSourceName = "input"

// CancelledMessage is the context of the error returned by a cancelled execution.
const CancelledMessage = "script execution cancelled"

// PollInterval is how often a running execution checks its cancel predicate.
var PollInterval = 10 * time.Millisecond

// ExecSettings controls a single execution.
type ExecSettings struct {
	// Cancel is polled from a separate goroutine while the script runs.
	// Returning true interrupts the script at the next instruction boundary.
	// Host callbacks are never interrupted mid-call.
	Cancel func() bool
}

// CancelAfter returns a predicate that reports true once d has elapsed.
func CancelAfter(d time.Duration) func() bool {
	deadline := time.Now().Add(d)
	return func() bool {
		return !time.Now().Before(deadline)
	}
}

// CancelOnContext returns a predicate that reports true once ctx is done.
func CancelOnContext(ctx context.Context) func() bool {
	return func() bool {
		return ctx.Err() != nil
	}
}

type execControl struct {
	mu     sync.Mutex
	cancel func() bool
}

func (c *execControl) swap(cancel func() bool) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.cancel
	c.cancel = cancel
	return prev
}

func (c *execControl) cancelled() bool {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	return cancel != nil && cancel()
}

// Compile compiles source and pushes a function that runs it in the global
// scope and returns its completion value.
func (h *Heap) Compile(source, name string) *errors.Error {
	prg, err := h.compile(source, name)
	if err != nil {
		return err
	}

	fn := h.vm.ToValue(func(goja.FunctionCall) goja.Value {
		v, err := h.vm.RunProgram(prg)
		if err != nil {
			panic(h.rethrowable(err))
		}
		return v
	})
	h.Push(fn)
	return nil
}

func (h *Heap) compile(source, name string) (*goja.Program, *errors.Error) {
	if name == "" {
		name = DefaultSourceName
	}
	prg, err := goja.Compile(name, source, false)
	if err != nil {
		return nil, errors.Runtime(errors.CodeSyntaxError, "SyntaxError", err.Error())
	}
	return prg, nil
}

// rethrowable converts an error from a nested goja call into something a
// native function can panic with. Uncatchable errors stay uncatchable.
func (h *Heap) rethrowable(err error) any {
	var ie *goja.InterruptedError
	if stderrors.As(err, &ie) {
		return ie
	}
	var so *goja.StackOverflowError
	if stderrors.As(err, &so) {
		return so
	}
	var ex *goja.Exception
	if stderrors.As(err, &ex) {
		return ex
	}
	return h.NewError(errors.Convert(err))
}

// Exec compiles and runs source, pushing its completion value. The cancel
// predicate in settings is active only for the duration of the call.
func (h *Heap) Exec(source, name string, settings ExecSettings) *errors.Error {
	prg, err := h.compile(source, name)
	if err != nil {
		return err
	}

	return h.WithExecSettings(settings, func() *errors.Error {
		v, runErr := h.vm.RunProgram(prg)
		if runErr != nil {
			return h.ErrorFromGo(runErr)
		}
		h.Push(v)
		return nil
	})
}

// WithExecSettings installs settings for the duration of fn. A cancel
// predicate gets a watcher goroutine that interrupts the engine when the
// predicate reports true. The watcher is joined and the interrupt flag
// cleared before returning, whatever fn's outcome.
//
// Settings without a cancel predicate leave an enclosing execution's
// predicate in force, so a nested Exec stays cancellable.
func (h *Heap) WithExecSettings(settings ExecSettings, fn func() *errors.Error) *errors.Error {
	if settings.Cancel == nil {
		return fn()
	}

	prev := h.exec.swap(settings.Cancel)
	defer h.exec.swap(prev)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if h.exec.cancelled() {
					Logger().Debug("interrupting script", zap.Duration("poll", PollInterval))
					h.vm.Interrupt(CancelledMessage)
					return
				}
			}
		}
	}()

	err := fn()
	close(stop)
	wg.Wait()
	h.vm.ClearInterrupt()
	return err
}

// Call calls the function below nargs arguments with an undefined this.
// Stack: [func arg1 .. argN] -> [result]. On error the inputs are consumed
// and nothing is pushed.
func (h *Heap) Call(nargs int) *errors.Error {
	vals := h.PopN(nargs + 1)
	return h.call(vals[0], goja.Undefined(), vals[1:])
}

// CallMethod is Call with an explicit this.
// Stack: [func this arg1 .. argN] -> [result].
func (h *Heap) CallMethod(nargs int) *errors.Error {
	vals := h.PopN(nargs + 2)
	return h.call(vals[0], vals[1], vals[2:])
}

func (h *Heap) call(fn, this goja.Value, args []goja.Value) *errors.Error {
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return errors.NotAFunction()
	}
	res, err := callable(this, args...)
	if err != nil {
		return h.ErrorFromGo(err)
	}
	h.Push(res)
	return nil
}

// New calls the constructor below nargs arguments.
// Stack: [ctor arg1 .. argN] -> [object].
func (h *Heap) New(nargs int) *errors.Error {
	vals := h.PopN(nargs + 1)
	obj, err := h.vm.New(vals[0], vals[1:]...)
	if err != nil {
		return h.ErrorFromGo(err)
	}
	h.Push(obj)
	return nil
}

// IsCallable reports whether the value at idx can be called.
func (h *Heap) IsCallable(idx int) bool {
	_, ok := goja.AssertFunction(h.Get(idx))
	return ok
}

// CallFrame describes one active script frame.
type CallFrame struct {
	Function string
	Source   string
	Line     int
	Column   int
}

// CallstackEntry describes the active frame at level, where -1 is the
// innermost frame, -2 its caller and so on. It reports false for
// non-negative levels and levels deeper than the stack.
func (h *Heap) CallstackEntry(level int) (CallFrame, bool) {
	if level >= 0 {
		return CallFrame{}, false
	}
	frames := h.vm.CaptureCallStack(0, nil)
	i := -level - 1
	if i >= len(frames) {
		return CallFrame{}, false
	}
	f := frames[i]
	pos := f.Position()
	return CallFrame{
		Function: f.FuncName(),
		Source:   f.SrcName(),
		Line:     pos.Line,
		Column:   pos.Column,
	}, true
}
