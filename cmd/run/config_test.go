package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wippyai/js-runtime/runtime"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
timeout: 250ms
max_call_stack_size: 64
disable_globals: [eval]
log_level: debug
globals:
  greeting: hello
  limits:
    max: 3
    names: [a, b]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := cfg.timeout(); d != 250*time.Millisecond {
		t.Fatalf("timeout = %v", d)
	}

	ctx, err := cfg.newContext()
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	s, err := runtime.ExecInto[string](ctx,
		`greeting + ":" + limits.max + ":" + limits.names.join("") + ":" + typeof eval`,
		"", runtime.ExecSettings{})
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello:3:ab:undefined" {
		t.Fatalf("got %q", s)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "timeout: [1"},
		{"bad timeout", "timeout: soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file should fail")
	}
	if cfg, err := LoadConfig(""); err != nil || cfg.Timeout != "" {
		t.Fatalf("empty path = %+v, %v", cfg, err)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger(false, "loud"); err == nil {
		t.Fatal("unknown level should fail")
	}
	for _, level := range []string{"", "debug", "error"} {
		if _, err := newLogger(false, level); err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
	}
}

func TestConsoleAndFormat(t *testing.T) {
	ctx := runtime.New()
	defer ctx.Close()

	var out, errOut bytes.Buffer
	if err := ctx.RegisterHost(newConsole(&out, &errOut)); err != nil {
		t.Fatal(err)
	}
	_, err := ctx.Exec(`
		console.log("a", 1, { b: [true, null] });
		console.error("bad", undefined);
	`, "", runtime.ExecSettings{})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "a 1 {\"b\":[true,null]}\n" {
		t.Fatalf("stdout = %q", got)
	}
	if got := errOut.String(); got != "bad undefined\n" {
		t.Fatalf("stderr = %q", got)
	}

	tests := []struct {
		src  string
		want string
	}{
		{"undefined", "undefined"},
		{"null", "null"},
		{"1.5", "1.5"},
		{"'s'", `"s"`},
		{"[1, 'x']", `[1,"x"]`},
		{"(function () {})", "[function]"},
		{"new ArrayBuffer(4)", "ArrayBuffer(4)"},
	}
	for _, tt := range tests {
		v, err := ctx.Exec(tt.src, "", runtime.ExecSettings{})
		if err != nil {
			t.Fatal(err)
		}
		if got := formatValue(ctx, v); got != tt.want {
			t.Errorf("format(%s) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestIncomplete(t *testing.T) {
	ctx := runtime.New()
	defer ctx.Close()

	tests := []struct {
		src  string
		want bool
	}{
		{"1 + 1", false},
		{"function f() {", true},
		{"[1, 2,", true},
		{"1 +* 2", false},
	}
	for _, tt := range tests {
		if got := incomplete(ctx, tt.src); got != tt.want {
			t.Errorf("incomplete(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
