package runtime

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/js-runtime/errors"
)

type mathHost struct {
	calls int
}

func (*mathHost) Namespace() string { return "math2" }

func (m *mathHost) Add(a, b int) int {
	m.calls++
	return a + b
}

func (*mathHost) Div(a, b float64) (float64, error) {
	if b == 0 {
		return 0, stderrors.New("division by zero")
	}
	return a / b, nil
}

func (*mathHost) Sum(nums ...float64) float64 {
	var total float64
	for _, n := range nums {
		total += n
	}
	return total
}

func (*mathHost) HTTPStatus(code int) string {
	if code == 200 {
		return "ok"
	}
	return "other"
}

type explicitHost struct{}

func (explicitHost) Namespace() string { return "ex" }

func (explicitHost) Register() map[string]any {
	return map[string]any{
		"hello": func(name string) string { return "hello " + name },
	}
}

func (explicitHost) Hidden() int { return 1 }

func TestHost_RegisterHost(t *testing.T) {
	c := New()
	defer c.Close()

	host := &mathHost{}
	if err := c.RegisterHost(host); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		src  string
		want float64
	}{
		{"math2.add(1, 2)", 3},
		{"math2.div(9, 3)", 3},
		{"math2.sum()", 0},
		{"math2.sum(1, 2, 3.5)", 6.5},
		{"math2.add('4', 5)", 9},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ExecInto[float64](c, tt.src, "", ExecSettings{})
			if err != nil || got != tt.want {
				t.Fatalf("got %v, %v; want %v", got, err, tt.want)
			}
		})
	}
	if host.calls != 2 {
		t.Fatalf("add called %d times, want 2", host.calls)
	}

	s, err := ExecInto[string](c, "math2.httpStatus(200)", "", ExecSettings{})
	if err != nil || s != "ok" {
		t.Fatalf("httpStatus = %q, %v", s, err)
	}
	if has, _ := ExecInto[bool](c, "'namespace' in math2", "", ExecSettings{}); has {
		t.Fatal("Namespace should not be exported")
	}

	_, err = c.Exec("math2.div(1, 0)", "", ExecSettings{})
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division error, got %v", err)
	}
}

func TestHost_ExplicitRegistrar(t *testing.T) {
	c := New()
	defer c.Close()

	if err := c.RegisterHost(explicitHost{}); err != nil {
		t.Fatal(err)
	}
	s, err := ExecInto[string](c, "ex.hello('js')", "", ExecSettings{})
	if err != nil || s != "hello js" {
		t.Fatalf("hello = %q, %v", s, err)
	}
	if has, _ := ExecInto[bool](c, "'hidden' in ex", "", ExecSettings{}); has {
		t.Fatal("only registered functions should be exported")
	}
}

func TestHost_RegisterFunc(t *testing.T) {
	c := New()
	defer c.Close()

	var seen int
	if err := c.RegisterFunc("args", func(inv Invocation, first int) int {
		seen = inv.Args.Len()
		return first * 2
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterFunc("noop", func(*Context) {}); err != nil {
		t.Fatal(err)
	}
	if err := c.RegisterFunc("raw", func(inv Invocation) (any, error) {
		return inv.Args.Len(), nil
	}); err != nil {
		t.Fatal(err)
	}

	n, err := ExecInto[int](c, "args(21, 'x', 'y')", "", ExecSettings{})
	if err != nil || n != 42 || seen != 3 {
		t.Fatalf("args = %d (%d args), %v", n, seen, err)
	}
	v, err := c.Exec("noop()", "", ExecSettings{})
	if err != nil || !v.IsUndefined() {
		t.Fatalf("noop = %s, %v", v.TypeName(), err)
	}
	if n, _ := ExecInto[int](c, "raw(1, 2)", "", ExecSettings{}); n != 2 {
		t.Fatalf("raw = %d", n)
	}
}

func TestHost_InvalidFunctions(t *testing.T) {
	c := New()
	defer c.Close()

	tests := []struct {
		name string
		fn   any
	}{
		{"not a function", 42},
		{"nil func", (func())(nil)},
		{"three results", func() (int, int, error) { return 0, 0, nil }},
		{"second result not error", func() (int, int) { return 0, 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.RegisterFunc("bad", tt.fn)
			if e := asError(t, err); e.Kind != errors.KindToJSConversion {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	if err := c.RegisterFunc("", func() {}); err == nil {
		t.Fatal("empty name should be rejected")
	}
}

func TestHost_ArgumentError(t *testing.T) {
	c := New()
	defer c.Close()

	if err := c.RegisterFunc("keys", func(o Object) int { return 0 }); err != nil {
		t.Fatal(err)
	}
	_, err := c.Exec("keys(1)", "", ExecSettings{})
	e := asError(t, err)
	if e.Kind != errors.KindFromJSConversion || !strings.Contains(err.Error(), "argument 1") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHost_ToLowerCamel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"GetValue", "getValue"},
		{"HTTPGet", "httpGet"},
		{"ID", "id"},
		{"A", "a"},
		{"already", "already"},
		{"Add", "add"},
	}
	for _, tt := range tests {
		if got := toLowerCamel(tt.in); got != tt.want {
			t.Errorf("toLowerCamel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
