// Package hexkey implements the textual key format used by the CLI's
// export/import lines: 64 uppercase hex characters encoding a 32-byte
// key, parsed case-insensitively.
package hexkey

import (
	"fmt"
	"strings"
)

// KeySize is the length, in bytes, of the keys this package encodes.
const KeySize = 32

// Encode renders key as 64 uppercase hex characters, matching the
// original tool's to_hex table (0-9, A-F).
func Encode(key [KeySize]byte) string {
	var b strings.Builder
	b.Grow(2 * KeySize)
	for _, x := range key {
		fmt.Fprintf(&b, "%02X", x)
	}
	return b.String()
}

// Decode parses a hex-encoded key line. It accepts both upper and lower
// case (the original tool's dehex_half recognizes both), and rejects
// anything that is not exactly 2*KeySize hex digits.
func Decode(s string) ([KeySize]byte, error) {
	var key [KeySize]byte
	if len(s) != 2*KeySize {
		return key, fmt.Errorf("hexkey: wrong length: got %d characters, want %d", len(s), 2*KeySize)
	}
	for i := 0; i < KeySize; i++ {
		hi, ok := dehexDigit(s[2*i])
		if !ok {
			return key, fmt.Errorf("hexkey: invalid hex digit %q at position %d", s[2*i], 2*i)
		}
		lo, ok := dehexDigit(s[2*i+1])
		if !ok {
			return key, fmt.Errorf("hexkey: invalid hex digit %q at position %d", s[2*i+1], 2*i+1)
		}
		key[i] = hi<<4 | lo
	}
	return key, nil
}

func dehexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}
