package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/js-runtime/engine"
)

// SetLogger sets the logger shared by this package and the engine. A nil
// logger disables logging.
func SetLogger(l *zap.Logger) {
	engine.SetLogger(l)
}

func logger() *zap.Logger {
	return engine.Logger().Named("runtime")
}
