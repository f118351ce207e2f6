package reader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSlot(t *testing.T) {
	var s slot
	if _, err := s.take(); !errors.Is(err, ErrTransientRead) {
		t.Errorf("take on empty slot: %v", err)
	}

	s.set([]byte{1, 2, 3, 4}, nil)
	id, err := s.take()
	if err != nil || !bytes.Equal(id, []byte{1, 2, 3, 4}) {
		t.Fatalf("take = % x, %v", id, err)
	}
	if _, err := s.take(); err == nil {
		t.Error("slot not emptied by take")
	}

	s.set([]byte{1, 2}, nil)
	if _, err := s.take(); !errors.Is(err, ErrTransientRead) {
		t.Errorf("short identifier: %v", err)
	}

	s.set(make([]byte, 11), nil)
	if _, err := s.take(); !errors.Is(err, ErrTransientRead) {
		t.Errorf("long identifier: %v", err)
	}
}

func TestDecodeSerialFrame(t *testing.T) {
	frame := []byte{0x02, 0x09, 0x00, 0x04, 0xA3, 0x2F, 0x9C, 0x00, 0x03}
	var xor byte
	for _, b := range frame[1:7] {
		xor ^= b
	}
	frame[7] = xor

	id, ok, err := decodeSerialFrame(frame)
	if !ok || err != nil {
		t.Fatalf("decodeSerialFrame: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(id, []byte{0x04, 0xA3, 0x2F, 0x9C}) {
		t.Errorf("id = % x", id)
	}

	bad := append([]byte(nil), frame...)
	bad[7] ^= 0xff
	if _, ok, err := decodeSerialFrame(bad); !ok || !errors.Is(err, ErrTransientRead) {
		t.Errorf("bad checksum: ok=%v err=%v", ok, err)
	}

	if _, ok, _ := decodeSerialFrame(frame[:5]); ok {
		t.Error("partial frame accepted")
	}
	noise := append([]byte(nil), frame...)
	noise[0] = 0x55
	if _, ok, _ := decodeSerialFrame(noise); ok {
		t.Error("frame without preamble accepted")
	}
}

func TestDecodeWiegandBody(t *testing.T) {
	id, err := decodeWiegandBody("0004A32F9C")
	if err != nil || !bytes.Equal(id, []byte{0x00, 0x04, 0xA3, 0x2F, 0x9C}) {
		t.Errorf("decode = % x, %v", id, err)
	}

	id, err = decodeWiegandBody("4A32F9C")
	if err != nil || !bytes.Equal(id, []byte{0x00, 0x04, 0xA3, 0x2F, 0x9C}) {
		t.Errorf("short body = % x, %v", id, err)
	}

	// 00^04^A3^2F^9C = 0x14
	if _, err := decodeWiegandBody("0004A32F9C14"); err != nil {
		t.Errorf("valid checksum rejected: %v", err)
	}
	if _, err := decodeWiegandBody("0004A32F9C15"); !errors.Is(err, ErrTransientRead) {
		t.Errorf("bad checksum: %v", err)
	}
	if _, err := decodeWiegandBody("00ZZA32F9C"); !errors.Is(err, ErrTransientRead) {
		t.Errorf("non-hex body: %v", err)
	}
}

func TestKeyboardDecode(t *testing.T) {
	tests := []struct {
		format string
		line   string
		want   []byte
		fail   bool
	}{
		{"8h", "04A32F9C", []byte{0x04, 0xA3, 0x2F, 0x9C}, false},
		{"10h", "0004A32F9C", []byte{0x00, 0x04, 0xA3, 0x2F, 0x9C}, false},
		{"", "04A32F9C", nil, true},
		{"10d", "0077803420", []byte{0x04, 0xA3, 0x2F, 0x9C}, false},
		{"h", "4A32F9C", []byte{0x04, 0xA3, 0x2F, 0x9C}, false},
		{"8h", "04A32FZZ", nil, true},
	}
	for _, tt := range tests {
		numDigits, isHex, format := parseKeyboardFormat(tt.format)
		k := &Keyboard{numDigits: numDigits, isHex: isHex, format: format}
		id, err := k.decode(tt.line)
		if tt.fail {
			if !errors.Is(err, ErrTransientRead) {
				t.Errorf("%s %q: err = %v, want transient", tt.format, tt.line, err)
			}
			continue
		}
		if err != nil || !bytes.Equal(id, tt.want) {
			t.Errorf("%s %q = % x, %v; want % x", tt.format, tt.line, id, err, tt.want)
		}
	}
}

func TestParsePipeLine(t *testing.T) {
	ev, ok, err := parsePipeLine("card 04:A3:2F:9C")
	if !ok || err != nil || !bytes.Equal(ev.id, []byte{0x04, 0xA3, 0x2F, 0x9C}) {
		t.Errorf("card line = %+v, %v, %v", ev, ok, err)
	}

	ev, ok, err = parsePipeLine("glitch")
	if !ok || err != nil || !errors.Is(ev.err, ErrTransientRead) {
		t.Errorf("glitch line = %+v, %v, %v", ev, ok, err)
	}

	for _, line := range []string{"", "   ", "# comment"} {
		if _, ok, err := parsePipeLine(line); ok || err != nil {
			t.Errorf("%q: ok=%v err=%v", line, ok, err)
		}
	}
	for _, line := range []string{"card", "card xyz", "rotary 1"} {
		if _, _, err := parsePipeLine(line); err == nil {
			t.Errorf("%q: expected error", line)
		}
	}
}

func TestPipePresentations(t *testing.T) {
	p := newPipe("unused", func() {})

	if p.HasNewCard() {
		t.Fatal("card reported on an idle pipe")
	}

	p.events <- presentation{id: []byte{0xAA, 0xBB, 0xCC, 0xDD}}
	if !p.HasNewCard() {
		t.Fatal("presented card not reported")
	}
	id, err := p.ReadSerial()
	if err != nil || !bytes.Equal(id, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("ReadSerial = % x, %v", id, err)
	}
	p.HaltSession()

	p.events <- presentation{err: ErrTransientRead}
	if !p.HasNewCard() {
		t.Fatal("glitch not reported as presence")
	}
	if _, err := p.ReadSerial(); !errors.Is(err, ErrTransientRead) {
		t.Errorf("ReadSerial after glitch: %v", err)
	}
}

func TestPipeListen(t *testing.T) {
	p := newPipe("unused", func() {})
	p.listen(context.Background(), strings.NewReader("# bench\ncard 04A32F9C\nbogus\nglitch\n"))

	if !p.HasNewCard() {
		t.Fatal("card line not forwarded")
	}
	if id, err := p.ReadSerial(); err != nil || !bytes.Equal(id, []byte{0x04, 0xA3, 0x2F, 0x9C}) {
		t.Errorf("ReadSerial = % x, %v", id, err)
	}
	p.HaltSession()
	if !p.HasNewCard() {
		t.Fatal("glitch line not forwarded")
	}
	if _, err := p.ReadSerial(); !errors.Is(err, ErrTransientRead) {
		t.Errorf("ReadSerial after glitch: %v", err)
	}
}

func TestPipeCloseWithoutWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards")
	p, err := NewPipe(path)
	if err != nil {
		t.Fatalf("NewPipe: %v", err)
	}

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	io.WriteString(w, "card AABBCCDD\n")
	w.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !p.HasNewCard() {
		if time.Now().After(deadline) {
			t.Fatal("card never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener still running after Close")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("pipe not removed: %v", err)
	}
}
