package runtime

import (
	"math"
	"testing"

	"github.com/wippyai/js-runtime/errors"
)

func TestValue_IntoSaturates(t *testing.T) {
	c := New()
	defer c.Close()

	tests := []struct {
		name string
		in   float64
		i8   int8
		u8   uint8
		i64  int64
	}{
		{"zero", 0, 0, 0, 0},
		{"truncate", 2.9, 2, 2, 2},
		{"negative truncate", -2.9, -2, 0, -2},
		{"overflow", 300, 127, 255, 300},
		{"underflow", -300, -128, 0, -300},
		{"nan", math.NaN(), 0, 0, 0},
		{"inf", math.Inf(1), 127, 255, math.MaxInt64},
		{"-inf", math.Inf(-1), -128, 0, math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Number(tt.in)
			if got, _ := Into[int8](c, v); got != tt.i8 {
				t.Errorf("int8 = %d, want %d", got, tt.i8)
			}
			if got, _ := Into[uint8](c, v); got != tt.u8 {
				t.Errorf("uint8 = %d, want %d", got, tt.u8)
			}
			if got, _ := Into[int64](c, v); got != tt.i64 {
				t.Errorf("int64 = %d, want %d", got, tt.i64)
			}
		})
	}
}

func TestValue_IntoCoerces(t *testing.T) {
	c := New()
	defer c.Close()

	s, _ := c.CreateString("42")
	if n, err := Into[int](c, s.Value()); err != nil || n != 42 {
		t.Fatalf("\"42\" as int = %d, %v", n, err)
	}
	if b, _ := Into[bool](c, s.Value()); !b {
		t.Fatal("non-empty string should be truthy")
	}
	if str, _ := Into[string](c, Bool(true)); str != "true" {
		t.Fatalf("true as string = %q", str)
	}
	if str, _ := Into[string](c, Null()); str != "null" {
		t.Fatalf("null as string = %q", str)
	}

	type port uint16
	if p, _ := Into[port](c, Number(8080)); p != 8080 {
		t.Fatalf("named uint = %d", p)
	}
}

func TestValue_IntoPointer(t *testing.T) {
	c := New()
	defer c.Close()

	p, err := Into[*int](c, Null())
	if err != nil || p != nil {
		t.Fatalf("null as *int = %v, %v", p, err)
	}
	p, err = Into[*int](c, Number(7))
	if err != nil || p == nil || *p != 7 {
		t.Fatalf("7 as *int = %v, %v", p, err)
	}

	_, err = Into[map[string]int](c, Number(1))
	if e := asError(t, err); e.Kind != errors.KindFromJSConversion {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValue_ToValue(t *testing.T) {
	c := New()
	defer c.Close()

	type level int
	var nilPtr *string
	str := "s"

	tests := []struct {
		name string
		in   any
		kind Kind
	}{
		{"nil", nil, KindNull},
		{"nil pointer", nilPtr, KindNull},
		{"pointer", &str, KindString},
		{"bool", true, KindBoolean},
		{"int", 3, KindNumber},
		{"named int", level(2), KindNumber},
		{"uint64", uint64(9), KindNumber},
		{"float32", float32(1.5), KindNumber},
		{"string", "x", KindString},
		{"bytes", []byte{1}, KindBytes},
		{"value", Bool(false), KindBoolean},
		{"handle", c.CreateObject(), KindObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.ToValue(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if v.Kind() != tt.kind {
				t.Fatalf("kind = %s, want %s", v.Kind(), tt.kind)
			}
		})
	}

	_, err := c.ToValue(struct{ A int }{1})
	if e := asError(t, err); e.Kind != errors.KindToJSConversion {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = c.ToValue([]int{1})
	if e := asError(t, err); e.Kind != errors.KindToJSConversion {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValue_Kinds(t *testing.T) {
	c := New()
	defer c.Close()

	tests := []struct {
		src  string
		kind Kind
		name string
	}{
		{"undefined", KindUndefined, "undefined"},
		{"null", KindNull, "null"},
		{"false", KindBoolean, "boolean"},
		{"1.5", KindNumber, "number"},
		{"'s'", KindString, "string"},
		{"(function () {})", KindFunction, "function"},
		{"[]", KindArray, "array"},
		{"({})", KindObject, "object"},
		{"new Date(0)", KindObject, "object"},
		{"new ArrayBuffer(3)", KindBytes, "buffer"},
		{"Symbol('s')", KindUndefined, "undefined"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := c.Exec(tt.src, "", ExecSettings{})
			if err != nil {
				t.Fatal(err)
			}
			if v.Kind() != tt.kind || v.TypeName() != tt.name {
				t.Fatalf("kind = %s (%s), want %s", v.Kind(), v.TypeName(), tt.name)
			}
			if _, ok := v.AsObject(); ok != (tt.kind >= KindFunction) {
				t.Fatalf("AsObject ok = %v", ok)
			}
		})
	}
}

func TestValue_Unpack(t *testing.T) {
	c := New()
	defer c.Close()

	args := Values{Number(1), Bool(true)}
	var (
		n    int
		b    bool
		tail string
	)
	if err := args.Unpack(c, &n, &b, &tail); err != nil {
		t.Fatal(err)
	}
	if n != 1 || !b || tail != "undefined" {
		t.Fatalf("unpacked %d %v %q", n, b, tail)
	}
	if !args.Get(5).IsUndefined() || args.Get(-1).Kind() != KindUndefined {
		t.Fatal("out-of-range Get should be undefined")
	}

	var fn Function
	err := args.Unpack(c, &fn)
	if e := asError(t, err); e.From != "number" || e.To != "Function" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValue_CloneAndDrop(t *testing.T) {
	c := New()
	defer c.Close()

	base := c.Heap().RefCount()
	obj := c.CreateObject()
	v := obj.Value()
	dup := v.Clone()
	if got := c.Heap().RefCount() - base; got != 2 {
		t.Fatalf("live refs = %d, want 2", got)
	}
	if dup.Ref().Key() == v.Ref().Key() {
		t.Fatal("clone must have its own slot")
	}

	v.Drop()
	if !v.Ref().Dropped() {
		t.Fatal("Dropped should report true")
	}
	if got := c.Heap().RefCount() - base; got != 1 {
		t.Fatalf("live refs after drop = %d, want 1", got)
	}
	if d, _ := dup.AsObject(); d.Set("still", 1) != nil {
		t.Fatal("clone should stay usable")
	}

	Number(1).Drop()
	Number(1).Clone()

	defer func() {
		if recover() == nil {
			t.Fatal("using a dropped ref should panic")
		}
	}()
	_ = obj.Set("x", 1)
}
