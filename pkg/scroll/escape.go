package scroll

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const hexDigits = "0123456789ABCDEF"

// Escape encodes s the way the browser's global escape() does, so values
// written from Go and from page script are interchangeable. Characters in
// A-Z a-z 0-9 @*_+-./ pass through; other UTF-16 code units become %XX or
// %uXXXX. A byte b that is not part of valid UTF-8 is written as the lone
// low surrogate %uDCbb, which Unescape turns back into b.
func Escape(s string) string {
	var b strings.Builder
	var units []uint16
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			writeUnit(&b, rawByteBase|uint16(s[i]))
			i++
			continue
		}
		units = utf16.AppendRune(units[:0], r)
		for _, u := range units {
			writeUnit(&b, u)
		}
		i += size
	}
	return b.String()
}

// rawByteBase is the surrogate block used to carry bytes that are not
// valid UTF-8.
const rawByteBase = 0xDC00

func writeUnit(b *strings.Builder, u uint16) {
	switch {
	case isUnreserved(u):
		b.WriteByte(byte(u))
	case u < 0x100:
		b.WriteByte('%')
		b.WriteByte(hexDigits[u>>4])
		b.WriteByte(hexDigits[u&0xF])
	default:
		b.WriteString("%u")
		b.WriteByte(hexDigits[u>>12&0xF])
		b.WriteByte(hexDigits[u>>8&0xF])
		b.WriteByte(hexDigits[u>>4&0xF])
		b.WriteByte(hexDigits[u&0xF])
	}
}

// Unescape reverses Escape. Malformed escape sequences are kept literally,
// and Unescape(Escape(s)) == s for every s, including invalid UTF-8.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}
	units := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' {
			if i+6 <= len(s) && s[i+1] == 'u' {
				if v, ok := parseHex(s[i+2 : i+6]); ok {
					units = append(units, v)
					i += 6
					continue
				}
			}
			if i+3 <= len(s) {
				if v, ok := parseHex(s[i+1 : i+3]); ok {
					units = append(units, v)
					i += 3
					continue
				}
			}
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			units = append(units, rawByteBase|uint16(s[i]))
		} else {
			units = utf16.AppendRune(units, r)
		}
		i += size
	}
	return decodeUnits(units)
}

// decodeUnits is utf16.Decode, except that a lone low surrogate in
// 0xDC80-0xDCFF becomes the raw byte it carries.
func decodeUnits(units []uint16) string {
	buf := make([]byte, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case utf16.IsSurrogate(rune(u)) && u < rawByteBase && i+1 < len(units):
			if r := utf16.DecodeRune(rune(u), rune(units[i+1])); r != utf8.RuneError {
				buf = utf8.AppendRune(buf, r)
				i++
				continue
			}
			buf = utf8.AppendRune(buf, utf8.RuneError)
		case u >= rawByteBase|0x80 && u <= rawByteBase|0xFF:
			buf = append(buf, byte(u))
		case utf16.IsSurrogate(rune(u)):
			buf = utf8.AppendRune(buf, utf8.RuneError)
		default:
			buf = utf8.AppendRune(buf, rune(u))
		}
	}
	return string(buf)
}

func isUnreserved(u uint16) bool {
	switch {
	case u >= 'A' && u <= 'Z', u >= 'a' && u <= 'z', u >= '0' && u <= '9':
		return true
	}
	return strings.ContainsRune("@*_+-./", rune(u))
}

func parseHex(s string) (uint16, bool) {
	var v uint16
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, false
		}
		v = v<<4 | uint16(d)
	}
	return v, true
}
