// Package uid converts raw card identifiers into their canonical text form.
package uid

import "strings"

const (
	// MinLen and MaxLen bound the identifier lengths produced by supported cards.
	MinLen = 4
	MaxLen = 10

	hexDigits = "0123456789ABCDEF"
)

// Token is the canonical form of a card identifier, e.g. "04:A3:2F:9C".
type Token string

// Encode renders each byte as two uppercase hex digits joined by ':'.
func Encode(b []byte) Token {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(b)*3 - 1)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteByte(hexDigits[c>>4])
		sb.WriteByte(hexDigits[c&0x0f])
	}
	return Token(sb.String())
}

// Valid reports whether b has a length a card can produce.
func Valid(b []byte) bool {
	return len(b) >= MinLen && len(b) <= MaxLen
}

// String implements fmt.Stringer.
func (t Token) String() string {
	return string(t)
}
