// Package canonical produces the deterministic byte-string serialization a
// provenance signature is computed over.
//
// Canonical bytes MUST be identical for logically-equal field sets, no
// matter how the inputs were assembled. Serialization is the sole binding
// between "what was signed" and "what is displayed": any re-serialization
// drift is a protocol-breaking defect, so the encoder guarantees the
// contract by construction instead of by convention.
package canonical

import (
	"sort"
	"strconv"
)

// Value is one node of the canonical serialization tree.
//
// Only tagged values can be serialized: there is no reflection path and no
// way to smuggle in a type with ambiguous formatting.
type Value interface {
	appendTo(dst []byte) []byte
}

// String serializes as a JSON string: its bytes, escaped.
type String string

// Bool serializes as the literal tokens true or false.
type Bool bool

// Int serializes in base 10 with no locale formatting.
type Int int64

// Map serializes as an object with keys emitted in strict lexicographic
// (byte-wise) order and no insignificant whitespace. Insertion order never
// affects output.
type Map map[string]Value

func (s String) appendTo(dst []byte) []byte { return appendEscaped(dst, string(s)) }

func (b Bool) appendTo(dst []byte) []byte {
	if b {
		return append(dst, "true"...)
	}
	return append(dst, "false"...)
}

func (i Int) appendTo(dst []byte) []byte { return strconv.AppendInt(dst, int64(i), 10) }

func (m Map) appendTo(dst []byte) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dst = append(dst, '{')
	for i, k := range keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendEscaped(dst, k)
		dst = append(dst, ':')
		dst = m[k].appendTo(dst)
	}
	return append(dst, '}')
}

// Marshal renders v to its canonical bytes.
func Marshal(v Value) []byte {
	return v.appendTo(nil)
}

const hexDigits = "0123456789abcdef"

// appendEscaped writes s as a quoted JSON string. Escaping is minimal and
// fixed: backslash, double quote, the short forms for \b \f \n \r \t, and
// \u00XX for the remaining control characters. Everything else, including
// non-ASCII, passes through as raw UTF-8 bytes.
func appendEscaped(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\', c)
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
