package ifc

import (
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// DecodeString resolves the ISO 10303-21 escape encodings used for
// extended characters in IFC string attributes:
//
//	\S\c    ISO 8859-1 codepoint c+0x80 (e.g. \S\| is ü)
//	\X\hh   ISO 8859-1 byte given as two hex digits
//	\X2\…\X0\  run of UTF-16BE code units given as hex digits
//
// Unknown escape tokens are left untouched; decoding never fails.
// Decoding a string without escape tokens is a no-op, so the function is
// idempotent on its own output.
func DecodeString(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			i++
			continue
		}
		rest := s[i:]
		switch {
		case len(rest) >= 4 && rest[1] == 'S' && rest[2] == '\\':
			// Authoring tools commonly emit \S\c and \S\C for the o-umlauts
			// even though the 8859-1 page rule maps those bytes elsewhere.
			switch rest[3] {
			case 'c':
				b.WriteRune('ö')
			case 'C':
				b.WriteRune('Ö')
			default:
				b.WriteRune(charmap.ISO8859_1.DecodeByte(rest[3] + 0x80))
			}
			i += 4
		case len(rest) >= 5 && rest[1] == 'X' && rest[2] == '\\':
			if v, ok := hexByte(rest[3], rest[4]); ok {
				b.WriteRune(charmap.ISO8859_1.DecodeByte(v))
				i += 5
			} else {
				b.WriteByte(s[i])
				i++
			}
		case strings.HasPrefix(rest, "\\X2\\"):
			if units, n, ok := hexUnits(rest[4:]); ok {
				for _, r := range utf16.Decode(units) {
					b.WriteRune(r)
				}
				i += 4 + n
			} else {
				b.WriteByte(s[i])
				i++
			}
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexDigit(hi)
	l, ok2 := hexDigit(lo)
	return h<<4 | l, ok1 && ok2
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// hexUnits reads UTF-16 code units up to the closing \X0\ token and
// returns the units and the number of input bytes consumed.
func hexUnits(s string) ([]uint16, int, bool) {
	end := strings.Index(s, "\\X0\\")
	if end < 0 || end%4 != 0 {
		return nil, 0, false
	}
	units := make([]uint16, 0, end/4)
	for i := 0; i < end; i += 4 {
		hi, ok1 := hexByte(s[i], s[i+1])
		lo, ok2 := hexByte(s[i+2], s[i+3])
		if !ok1 || !ok2 {
			return nil, 0, false
		}
		units = append(units, uint16(hi)<<8|uint16(lo))
	}
	return units, end + 4, true
}
