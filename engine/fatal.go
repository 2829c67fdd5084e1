package engine

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

// FatalHandler is invoked when the host layer detects a broken invariant it
// cannot recover from: a stack guard underflow or a host callback panic.
// A handler must not return normally; if it does, the caller panics with
// the message.
type FatalHandler func(msg string)

var fatalHandler atomic.Pointer[FatalHandler]

func defaultFatal(msg string) {
	Logger().Error("fatal engine error", zap.String("msg", msg))
	fmt.Fprintf(os.Stderr, "jsruntime: fatal: %s\n", msg)
	os.Exit(1)
}

// SetFatalHandler installs h as the process-wide fatal handler and returns
// the previous one. A nil h restores the default, which logs and exits.
func SetFatalHandler(h FatalHandler) FatalHandler {
	var prev FatalHandler = defaultFatal
	if p := fatalHandler.Load(); p != nil {
		prev = *p
	}
	if h == nil {
		fatalHandler.Store(nil)
	} else {
		fatalHandler.Store(&h)
	}
	return prev
}

// Fatal reports an unrecoverable error through the installed handler.
func Fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	h := FatalHandler(defaultFatal)
	if p := fatalHandler.Load(); p != nil {
		h = *p
	}
	h(msg)
	panic("fatal handler returned: " + msg)
}
