// Package encoding provides text encoding utilities for legacy script sources
// and fixed-size name fields of the studio format.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeLegacy converts script or source bytes to UTF-8.
// Valid UTF-8 input is returned unchanged; anything else is read as Windows-1252.
func DecodeLegacy(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return data
	}
	return result
}

// EncodeLegacy converts a UTF-8 string to Windows-1252 bytes.
// Characters with no mapping are replaced by '?'.
func EncodeLegacy(s string) []byte {
	enc := charmap.Windows1252.NewEncoder()
	result, _, err := transform.Bytes(enc, []byte(s))
	if err != nil {
		var b bytes.Buffer
		for _, r := range s {
			if r < utf8.RuneSelf {
				b.WriteRune(r)
			} else if e, ok := charmap.Windows1252.EncodeRune(r); ok {
				b.WriteByte(e)
			} else {
				b.WriteByte('?')
			}
		}
		return b.Bytes()
	}
	return result
}

// NormalizePath converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// FixedString reads a null-terminated name from a fixed-size field.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(DecodeLegacy(data))
}

// PutFixedString writes s into dst, truncating so that at least one
// terminating null byte remains. The rest of dst is zeroed.
func PutFixedString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	if len(dst) == 0 {
		return
	}
	copy(dst[:len(dst)-1], EncodeLegacy(s))
}
