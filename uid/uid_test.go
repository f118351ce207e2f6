package uid

import (
	"bytes"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		in   []byte
		want Token
	}{
		{[]byte{0x04, 0xA3, 0x2F, 0x9C}, "04:A3:2F:9C"},
		{[]byte{0xAA, 0xBB, 0xCC, 0xDD}, "AA:BB:CC:DD"},
		{[]byte{0x00, 0x01, 0x0a, 0xff}, "00:01:0A:FF"},
		{[]byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}, "04:11:22:33:44:55:66"},
		{[]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, "01:02:03:04:05:06:07:08:09:0A"},
		{[]byte{0x7f}, "7F"},
	}
	for _, tt := range tests {
		if got := Encode(tt.in); got != tt.want {
			t.Errorf("Encode(% x) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef}
	if Encode(b) != Encode(append([]byte(nil), b...)) {
		t.Fatal("equal identifiers produced different tokens")
	}
}

func TestEncodeInjective(t *testing.T) {
	seen := make(map[Token][]byte)
	for i := 0; i < 1<<16; i++ {
		b := []byte{byte(i >> 8), byte(i), 0x5a, 0xa5}
		tok := Encode(b)
		if prev, ok := seen[tok]; ok && !bytes.Equal(prev, b) {
			t.Fatalf("collision: % x and % x both map to %q", prev, b, tok)
		}
		seen[tok] = b
	}
}

func TestValid(t *testing.T) {
	for n := 0; n <= 12; n++ {
		want := n >= 4 && n <= 10
		if got := Valid(make([]byte, n)); got != want {
			t.Errorf("Valid(len %d) = %v, want %v", n, got, want)
		}
	}
}
