package reader

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/kenshaw/evdev"
)

// Keyboard implements CardReader for USB keyboard-style RFID readers
// that type the card number followed by Enter.
type Keyboard struct {
	device    *evdev.Evdev
	numDigits int  // expected number of digits (0 = any)
	isHex     bool // true for hex input, false for decimal
	format    string
	lines     chan string
	cancel    context.CancelFunc
	slot
}

// NewKeyboard creates a new keyboard reader on the specified input device.
// Format specifies the input format: "10h" (10 hex digits), "10d" (10 decimal), "8h", "8d", etc.
// If format is empty, defaults to "10h".
func NewKeyboard(device string, format string) (*Keyboard, error) {
	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("%w: open evdev %s: %v", ErrModuleAbsent, device, err)
	}

	log.Printf("Opened keyboard device: %s", dev.Name())
	log.Printf("Vendor: 0x%04x, Product: 0x%04x", dev.ID().Vendor, dev.ID().Product)

	numDigits, isHex, format := parseKeyboardFormat(format)
	base := "hex"
	if !isHex {
		base = "decimal"
	}
	log.Printf("Keyboard reader format: %s (%d %s digits)", format, numDigits, base)

	ctx, cancel := context.WithCancel(context.Background())
	k := &Keyboard{
		device:    dev,
		numDigits: numDigits,
		isHex:     isHex,
		format:    format,
		lines:     make(chan string, 1),
		cancel:    cancel,
	}
	go k.collect(ctx)
	return k, nil
}

func parseKeyboardFormat(format string) (numDigits int, isHex bool, normalized string) {
	if format == "" {
		format = "10h"
	}
	format = strings.ToLower(format)

	isHex = true
	if strings.HasSuffix(format, "h") {
		numDigits, _ = strconv.Atoi(strings.TrimSuffix(format, "h"))
	} else if strings.HasSuffix(format, "d") {
		isHex = false
		numDigits, _ = strconv.Atoi(strings.TrimSuffix(format, "d"))
	} else {
		numDigits, _ = strconv.Atoi(format)
	}
	return numDigits, isHex, format
}

// collect turns key presses into lines. A line that arrives while the
// previous one is still pending is dropped.
func (k *Keyboard) collect(ctx context.Context) {
	ch := k.device.Poll(ctx)
	var strbuf string

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			if event == nil {
				log.Printf("Keyboard device closed")
				return
			}
			if _, ok := event.Type.(evdev.KeyType); !ok || event.Value != 1 {
				continue
			}

			if event.Type == evdev.KeyEnter {
				if strbuf != "" {
					select {
					case k.lines <- strbuf:
					default:
					}
				}
				strbuf = ""
				continue
			}
			strbuf += evdev.KeyType(event.Code).String()
		}
	}
}

// HasNewCard implements CardReader.HasNewCard.
func (k *Keyboard) HasNewCard() bool {
	select {
	case line := <-k.lines:
		k.set(k.decode(line))
		return true
	default:
		return false
	}
}

// ReadSerial implements CardReader.ReadSerial.
func (k *Keyboard) ReadSerial() ([]byte, error) {
	return k.take()
}

// HaltSession implements CardReader.HaltSession.
func (k *Keyboard) HaltSession() {
	k.clear()
}

// Close implements CardReader.Close.
func (k *Keyboard) Close() error {
	k.cancel()
	if k.device == nil {
		return nil
	}
	return k.device.Close()
}

// decode converts a typed line into identifier bytes. Hex input keeps every
// digit; decimal input is reduced to a 32-bit card number.
func (k *Keyboard) decode(line string) ([]byte, error) {
	if k.numDigits > 0 && len(line) != k.numDigits {
		return nil, fmt.Errorf("%w: expected %d digits, got %d (%q)", ErrTransientRead, k.numDigits, len(line), line)
	}

	if k.isHex {
		if len(line)%2 == 1 {
			line = "0" + line
		}
		id, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hex badge %q: %v", ErrTransientRead, line, err)
		}
		return id, nil
	}

	number, err := strconv.ParseUint(line, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad decimal badge %q: %v", ErrTransientRead, line, err)
	}
	id := make([]byte, 4)
	binary.BigEndian.PutUint32(id, uint32(number))
	return id, nil
}
