package reader

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
)

const (
	stx = 0x02
	etx = 0x03
)

// Wiegand implements CardReader for Wiegand-to-serial bridges that send
// STX, ten hex digits (optionally two checksum digits), ETX.
type Wiegand struct {
	port serial.Port
	slot
}

// NewWiegand creates a new Wiegand reader on the specified serial port.
func NewWiegand(device string, baud int) (*Wiegand, error) {
	if baud == 0 {
		baud = 9600
	}

	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open serial %s: %v", ErrModuleAbsent, device, err)
	}

	_ = p.SetReadTimeout(50 * time.Millisecond)

	w := &Wiegand{port: p}
	w.flush()
	return w, nil
}

// HasNewCard implements CardReader.HasNewCard.
func (w *Wiegand) HasNewCard() bool {
	first := make([]byte, 1)
	n, err := w.port.Read(first)
	if err != nil || n == 0 {
		return false
	}
	if first[0] != stx {
		w.flush()
		return false
	}

	var body strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := w.port.Read(buf)
		if err != nil || n == 0 {
			// Frame started but never finished.
			w.flush()
			w.set(nil, fmt.Errorf("%w: truncated frame", ErrTransientRead))
			return true
		}
		if buf[0] == etx {
			break
		}
		body.WriteByte(buf[0])
	}

	w.set(decodeWiegandBody(body.String()))
	return true
}

// ReadSerial implements CardReader.ReadSerial.
func (w *Wiegand) ReadSerial() ([]byte, error) {
	return w.take()
}

// HaltSession implements CardReader.HaltSession.
func (w *Wiegand) HaltSession() {
	w.clear()
	w.flush()
}

// Close implements CardReader.Close.
func (w *Wiegand) Close() error {
	if w.port == nil {
		return nil
	}
	return w.port.Close()
}

func (w *Wiegand) flush() {
	if w.port == nil {
		return
	}
	_ = w.port.SetReadTimeout(10 * time.Millisecond)
	defer func() {
		_ = w.port.SetReadTimeout(50 * time.Millisecond)
	}()

	tmp := make([]byte, 64)
	for {
		n, err := w.port.Read(tmp)
		if err != nil || n == 0 {
			return
		}
	}
}

// decodeWiegandBody turns the hex digits between STX and ETX into the five
// identifier bytes, verifying the trailing XOR checksum when present.
func decodeWiegandBody(body string) ([]byte, error) {
	var sum string
	if len(body) == 12 {
		body, sum = body[:10], body[10:]
	}
	if len(body) > 10 {
		return nil, fmt.Errorf("%w: %d digit frame", ErrTransientRead, len(body))
	}
	body = strings.Repeat("0", 10-len(body)) + body

	id, err := hex.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransientRead, err)
	}

	if sum != "" {
		want, err := hex.DecodeString(sum)
		if err != nil {
			return nil, fmt.Errorf("%w: checksum: %v", ErrTransientRead, err)
		}
		var xor byte
		for _, b := range id {
			xor ^= b
		}
		if xor != want[0] {
			return nil, fmt.Errorf("%w: checksum %02x, want %02x", ErrTransientRead, want[0], xor)
		}
	}
	return id, nil
}
