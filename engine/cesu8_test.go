package engine

import (
	"bytes"
	"testing"

	"github.com/dop251/goja"
)

func TestCESU8_Encode(t *testing.T) {
	tests := []struct {
		name  string
		units []uint16
		want  []byte
	}{
		{"empty", nil, []byte{}},
		{"ascii", []uint16{'a', 'b'}, []byte("ab")},
		{"nul", []uint16{0}, []byte{0}},
		{"two byte", []uint16{0xE9}, []byte{0xC3, 0xA9}},
		{"three byte", []uint16{0x20AC}, []byte{0xE2, 0x82, 0xAC}},
		{"pair", []uint16{0xD83D, 0xDE00}, []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}},
		{"lone high", []uint16{0xD800}, []byte{0xED, 0xA0, 0x80}},
		{"lone low", []uint16{'x', 0xDC00}, []byte{'x', 0xED, 0xB0, 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeCESU8(goja.StringFromUTF16(tt.units))
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got % x, want % x", got, tt.want)
			}
		})
	}
}

func TestCESU8_Decode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
		ok   bool
	}{
		{"empty", nil, "", true},
		{"ascii", []byte("hello"), "hello", true},
		{"two byte", []byte{0xC3, 0xA9}, "é", true},
		{"pair", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "\U0001F600", true},
		{"lone high", []byte{0xED, 0xA0, 0x80}, "", false},
		{"lone low", []byte{0xED, 0xB0, 0x80}, "", false},
		{"high then ascii", []byte{0xED, 0xA0, 0x80, 'a'}, "", false},
		{"four byte utf8", []byte{0xF0, 0x9F, 0x98, 0x80}, "", false},
		{"overlong", []byte{0xC0, 0x80}, "", false},
		{"truncated", []byte{0xE2, 0x82}, "", false},
		{"bad continuation", []byte{0xC3, 0x29}, "", false},
		{"stray continuation", []byte{0x80}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeCESU8(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("got %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCESU8_StringBytesAt(t *testing.T) {
	h := New()
	defer h.Close()

	h.PushString("a😀")
	b, ok := h.StringBytesAt(-1)
	if !ok || !bytes.Equal(b, []byte{'a', 0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}) {
		t.Fatalf("StringBytesAt = % x, %v", b, ok)
	}
	s, ok := DecodeCESU8(b)
	if !ok || s != "a😀" {
		t.Fatalf("decode = %q, %v", s, ok)
	}

	h.PushNumber(1)
	if _, ok := h.StringBytesAt(-1); ok {
		t.Fatal("numbers have no string bytes")
	}
}
