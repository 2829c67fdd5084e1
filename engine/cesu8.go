package engine

import (
	"strings"
	"unicode/utf16"

	"github.com/dop251/goja"
)

// Engine strings are UTF-16 and may hold unpaired surrogates. Their byte
// form is CESU-8: every UTF-16 code unit is encoded on its own as a one to
// three byte UTF-8 style sequence, so a surrogate pair takes six bytes.

// EncodeCESU8 returns the CESU-8 encoding of s.
func EncodeCESU8(s goja.String) []byte {
	n := s.Length()
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		c := s.CharAt(i)
		switch {
		case c < 0x80:
			out = append(out, byte(c))
		case c < 0x800:
			out = append(out, 0xC0|byte(c>>6), 0x80|byte(c&0x3F))
		default:
			out = append(out, 0xE0|byte(c>>12), 0x80|byte((c>>6)&0x3F), 0x80|byte(c&0x3F))
		}
	}
	return out
}

// DecodeCESU8 converts CESU-8 to UTF-8. It fails on malformed input and on
// unpaired surrogates, which have no UTF-8 form.
func DecodeCESU8(b []byte) (string, bool) {
	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		r, size := decodeUnit(b[i:])
		if size == 0 {
			return "", false
		}
		i += size
		if utf16.IsSurrogate(r) {
			if r >= 0xDC00 {
				return "", false
			}
			lo, loSize := decodeUnit(b[i:])
			if loSize == 0 || lo < 0xDC00 || lo > 0xDFFF {
				return "", false
			}
			i += loSize
			r = utf16.DecodeRune(r, lo)
		}
		sb.WriteRune(r)
	}
	return sb.String(), true
}

// decodeUnit decodes one code unit. A zero size means malformed input.
func decodeUnit(b []byte) (rune, int) {
	if len(b) == 0 {
		return 0, 0
	}
	c := b[0]
	switch {
	case c < 0x80:
		return rune(c), 1
	case c&0xE0 == 0xC0:
		if len(b) < 2 || !cont(b[1]) {
			return 0, 0
		}
		r := rune(c&0x1F)<<6 | rune(b[1]&0x3F)
		if r < 0x80 {
			return 0, 0
		}
		return r, 2
	case c&0xF0 == 0xE0:
		if len(b) < 3 || !cont(b[1]) || !cont(b[2]) {
			return 0, 0
		}
		r := rune(c&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F)
		if r < 0x800 {
			return 0, 0
		}
		return r, 3
	}
	return 0, 0
}

func cont(b byte) bool {
	return b&0xC0 == 0x80
}

// StringBytesAt returns the CESU-8 bytes of the string at idx.
func (h *Heap) StringBytesAt(idx int) ([]byte, bool) {
	s, ok := h.Get(idx).(goja.String)
	if !ok {
		return nil, false
	}
	return EncodeCESU8(s), true
}
