package engine

import (
	"math"
	"testing"

	"github.com/dop251/goja"

	"github.com/wippyai/js-runtime/errors"
)

func TestProps_GetPutDelHas(t *testing.T) {
	h := New()
	defer h.Close()

	h.PushObject()

	h.PushString("a")
	h.PushNumber(123)
	if err := h.PutProp(-3); err != nil {
		t.Fatal(err)
	}
	h.PushNumber(123)
	h.PushString("a")
	if err := h.PutProp(-3); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key  goja.Value
		want string
	}{
		{h.vm.ToValue("a"), "123"},
		{h.vm.ToValue(123), "a"},
		{h.vm.ToValue("123"), "a"},
	}
	for _, tt := range tests {
		h.Push(tt.key)
		if err := h.GetProp(-2); err != nil {
			t.Fatal(err)
		}
		if got := h.Pop().String(); got != tt.want {
			t.Errorf("get %v = %q, want %q", tt.key, got, tt.want)
		}
	}

	h.PushString("missing")
	if err := h.GetProp(-2); err != nil {
		t.Fatal(err)
	}
	if h.KindAt(-1) != KindUndefined {
		t.Fatal("missing property should read as undefined")
	}
	h.Pop()

	h.PushString("toString")
	found, err := h.HasProp(-2)
	if err != nil || !found {
		t.Fatalf("HasProp should see inherited properties: %v %v", found, err)
	}

	h.PushString("a")
	if err := h.DelProp(-2); err != nil {
		t.Fatal(err)
	}
	h.PushString("a")
	if found, _ := h.HasProp(-2); found {
		t.Fatal("property should be gone")
	}
	h.PushString("a")
	if err := h.DelProp(-2); err != nil {
		t.Fatalf("deleting a missing property should succeed: %v", err)
	}
	if h.Top() != 1 {
		t.Fatalf("stack leaked: %d", h.Top())
	}
}

func TestProps_SymbolKeys(t *testing.T) {
	h := New()
	defer h.Close()

	sym := goja.NewSymbol("tag")
	h.PushObject()
	h.Push(sym)
	h.PushString("v")
	if err := h.PutProp(-3); err != nil {
		t.Fatal(err)
	}
	h.Push(sym)
	if err := h.GetProp(-2); err != nil {
		t.Fatal(err)
	}
	if got := h.Pop().String(); got != "v" {
		t.Fatalf("symbol property = %q", got)
	}
}

func TestProps_Errors(t *testing.T) {
	h := New()
	defer h.Close()

	h.PushUndefined()
	h.PushString("x")
	err := h.GetProp(-2)
	if err == nil || err.RuntimeCode() != errors.CodeTypeError {
		t.Fatalf("reading from undefined should be a TypeError, got %v", err)
	}
	if h.Top() != 1 {
		t.Fatal("key should be consumed on error")
	}

	if err := h.Exec("({get boom() { throw new RangeError('no'); }})", "", ExecSettings{}); err != nil {
		t.Fatal(err)
	}
	h.PushString("boom")
	err = h.GetProp(-2)
	if err == nil || err.Code != errors.CodeRangeError {
		t.Fatalf("getter throw should surface, got %v", err)
	}

	if err := h.Exec("Object.freeze({a: 1})", "", ExecSettings{}); err != nil {
		t.Fatal(err)
	}
	h.PushString("a")
	h.PushNumber(2)
	if err := h.PutProp(-3); err == nil {
		t.Fatal("writing a frozen property should fail")
	}
}

func TestProps_DefProp(t *testing.T) {
	h := New()
	defer h.Close()

	h.PushObject()

	h.PushString("fixed")
	err := h.DefProp(-2, PropertyDescriptor{
		Value:        h.vm.ToValue(123),
		Writable:     goja.FLAG_FALSE,
		Enumerable:   goja.FLAG_TRUE,
		Configurable: goja.FLAG_FALSE,
	})
	if err != nil {
		t.Fatal(err)
	}

	h.PushFunction(func(h *Heap, nargs int) error {
		h.PushNumber(24)
		return nil
	})
	getter := h.Pop()
	h.PushString("computed")
	if err := h.DefProp(-2, PropertyDescriptor{Getter: getter}); err != nil {
		t.Fatal(err)
	}
	h.PushString("computed")
	if err := h.GetProp(-2); err != nil {
		t.Fatal(err)
	}
	if got := h.Pop().ToInteger(); got != 24 {
		t.Fatalf("getter returned %d", got)
	}

	h.PushString("bad")
	err = h.DefProp(-2, PropertyDescriptor{Getter: getter, Value: h.vm.ToValue(1)})
	if err == nil || err.RuntimeCode() != errors.CodeTypeError {
		t.Fatalf("mixed descriptor should be rejected, got %v", err)
	}
}

func TestProps_Length(t *testing.T) {
	h := New()
	defer h.Close()

	tests := []struct {
		src  string
		want int
	}{
		{"[1, 2, 3]", 3},
		{"'hello'", 5},
		{"({})", 0},
		{"({length: 4.9})", 4},
		{"({length: -2})", 0},
		{"({length: 'x'})", 0},
		{"({length: Infinity})", 0},
		{"({length: 1e300})", 0},
		{"({length: undefined})", 0},
		{"Object.create(null)", 0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if err := h.Exec(tt.src, "", ExecSettings{}); err != nil {
				t.Fatal(err)
			}
			got, err := h.Length(-1)
			h.Pop()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("Length = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProps_Coerce(t *testing.T) {
	h := New()
	defer h.Close()

	h.PushNumber(12.5)
	if err := h.CoerceString(-1); err != nil {
		t.Fatal(err)
	}
	if h.KindAt(-1) != KindString || h.Get(-1).String() != "12.5" {
		t.Fatal("CoerceString did not replace the value")
	}

	n, err := h.CoerceNumber(-1)
	if err != nil || n != 12.5 {
		t.Fatalf("CoerceNumber = %v, %v", n, err)
	}

	h.PushString("abc")
	n, _ = h.CoerceNumber(-1)
	if !math.IsNaN(n) {
		t.Fatalf("expected NaN, got %v", n)
	}

	if !h.CoerceBoolean(-1) {
		t.Fatal("non-empty string is truthy")
	}
	h.PushString("")
	if h.CoerceBoolean(-1) {
		t.Fatal("empty string is falsy")
	}

	if err := h.Exec("({toString: function() { throw new Error('nope'); }})", "", ExecSettings{}); err != nil {
		t.Fatal(err)
	}
	if err := h.CoerceString(-1); err == nil {
		t.Fatal("throwing toString should surface as an error")
	}
}

func TestProps_CoerceStringOfNumbers(t *testing.T) {
	h := New()
	defer h.Close()

	tests := []struct {
		src  string
		want string
	}{
		{"42", "42"},
		{"-7", "-7"},
		{"12.5", "12.5"},
		{"1/0", "Infinity"},
		{"true", "true"},
		{"null", "null"},
		{"undefined", "undefined"},
		{"({toString: function() { return 7; }})", "7"},
		{"({toString: function() { return 0.25; }})", "0.25"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if err := h.Exec(tt.src, "", ExecSettings{}); err != nil {
				t.Fatal(err)
			}
			defer h.Pop()
			if err := h.CoerceString(-1); err != nil {
				t.Fatal(err)
			}
			if h.KindAt(-1) != KindString {
				t.Fatalf("kind = %s, want string", h.KindAt(-1))
			}
			if got, ok := h.StringBytesAt(-1); !ok || string(got) != tt.want {
				t.Fatalf("CoerceString = %q, %v; want %q", got, ok, tt.want)
			}
		})
	}
}

func TestProps_GetMissing(t *testing.T) {
	h := New()
	defer h.Close()

	h.PushObject()
	h.PushString("absent")
	if err := h.GetProp(-2); err != nil {
		t.Fatal(err)
	}
	if h.KindAt(-1) != KindUndefined {
		t.Fatalf("missing property kind = %s, want undefined", h.KindAt(-1))
	}
}

func TestProps_Enum(t *testing.T) {
	h := New()
	defer h.Close()

	if err := h.Exec("({a: 123, 123: 456, 4: 0})", "", ExecSettings{}); err != nil {
		t.Fatal(err)
	}
	if err := h.PushEnum(-1); err != nil {
		t.Fatal(err)
	}

	type kv struct {
		k string
		v int64
	}
	var got []kv
	for {
		more, err := h.EnumNext(-1, -2, true)
		if err != nil {
			t.Fatal(err)
		}
		if !more {
			break
		}
		v := h.Pop().ToInteger()
		k := h.Pop().String()
		got = append(got, kv{k, v})
	}

	want := []kv{{"4", 0}, {"123", 456}, {"a", 123}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if h.Top() != 2 {
		t.Fatalf("stack leaked: %d", h.Top())
	}
}

func TestKindOf(t *testing.T) {
	h := New()
	defer h.Close()

	tests := []struct {
		src  string
		want Kind
	}{
		{"undefined", KindUndefined},
		{"null", KindNull},
		{"true", KindBoolean},
		{"1.5", KindNumber},
		{"'s'", KindString},
		{"(function() {})", KindFunction},
		{"[]", KindArray},
		{"new ArrayBuffer(4)", KindBytes},
		{"({})", KindObject},
		{"new Date(0)", KindObject},
		{"Symbol('x')", KindOther},
		{"10n", KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if err := h.Exec(tt.src, "", ExecSettings{}); err != nil {
				t.Fatal(err)
			}
			if got := KindOf(h.Pop()); got != tt.want {
				t.Fatalf("KindOf = %s, want %s", got, tt.want)
			}
		})
	}
}
