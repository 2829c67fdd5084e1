package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/js-runtime/runtime"
)

// console is the script-visible console object.
type console struct {
	out    io.Writer
	errOut io.Writer
}

func newConsole(out, errOut io.Writer) *console {
	return &console{out: out, errOut: errOut}
}

func (*console) Namespace() string { return "console" }

func (c *console) Log(inv runtime.Invocation)   { c.print(c.out, inv) }
func (c *console) Info(inv runtime.Invocation)  { c.print(c.out, inv) }
func (c *console) Warn(inv runtime.Invocation)  { c.print(c.errOut, inv) }
func (c *console) Error(inv runtime.Invocation) { c.print(c.errOut, inv) }

func (c *console) print(w io.Writer, inv runtime.Invocation) {
	parts := make([]string, inv.Args.Len())
	for i, arg := range inv.Args {
		if s, ok := arg.AsString(); ok {
			parts[i], _ = s.String()
			continue
		}
		parts[i] = formatValue(inv.Ctx, arg)
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}

// formatValue renders v for display. Objects and arrays go through
// JSON.stringify when it is available.
func formatValue(c *runtime.Context, v runtime.Value) string {
	switch v.Kind() {
	case runtime.KindUndefined:
		return "undefined"
	case runtime.KindFunction:
		return "[function]"
	case runtime.KindBytes:
		b, _ := v.AsBytes()
		return fmt.Sprintf("ArrayBuffer(%d)", len(b.ToSlice()))
	case runtime.KindObject, runtime.KindArray, runtime.KindString:
		if s, ok := stringify(c, v); ok {
			return s
		}
	}
	s, err := runtime.Into[string](c, v)
	if err != nil {
		return fmt.Sprintf("<%s>", v.TypeName())
	}
	return s
}

func stringify(c *runtime.Context, v runtime.Value) (string, bool) {
	globals := c.Globals()
	defer globals.Drop()
	json, err := runtime.GetInto[runtime.Object](globals, "JSON")
	if err != nil {
		return "", false
	}
	defer json.Drop()
	out, err := json.CallProp("stringify", v)
	if err != nil {
		return "", false
	}
	s, err := runtime.Into[string](c, out)
	out.Drop()
	return s, err == nil
}
