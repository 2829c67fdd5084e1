package transcoder

import (
	"github.com/wippyai/js-runtime/runtime"
)

var (
	defaultCompiler = NewCompiler()
	defaultEncoder  = NewEncoder(defaultCompiler)
	defaultDecoder  = NewDecoder(defaultCompiler)
)

// Encode converts v with the shared compiler.
func Encode(ctx *runtime.Context, v any) (runtime.Value, error) {
	return defaultEncoder.Encode(ctx, v)
}

// Decode stores v into out with the shared compiler.
func Decode(ctx *runtime.Context, v runtime.Value, out any) error {
	return defaultDecoder.Decode(ctx, v, out)
}

// DecodeAs decodes v into a new T.
func DecodeAs[T any](ctx *runtime.Context, v runtime.Value) (T, error) {
	var out T
	err := defaultDecoder.Decode(ctx, v, &out)
	return out, err
}
