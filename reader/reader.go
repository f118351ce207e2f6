package reader

import (
	"errors"
	"fmt"

	"cardrelay/uid"
)

var (
	// ErrTransientRead marks a card that was seen but whose serial could not be read.
	ErrTransientRead = errors.New("transient card read failure")

	// ErrModuleAbsent is returned by constructors when the reader hardware is missing.
	ErrModuleAbsent = errors.New("card reader not detected")
)

// CardReader is the interface for all card reader implementations.
// Calls are made from a single polling goroutine and must not block for long.
type CardReader interface {
	// HasNewCard reports whether a card has been presented since the last halt.
	HasNewCard() bool

	// ReadSerial returns the raw identifier of the presented card.
	// Failures wrap ErrTransientRead.
	ReadSerial() ([]byte, error)

	// HaltSession ends the current card session so the card can be presented again.
	HaltSession()

	// Close releases any resources held by the reader.
	Close() error
}

// Config holds common configuration for reader implementations.
type Config struct {
	Type     string `yaml:"type"`      // "mfrc522", "serial", "wiegand", "keyboard", "pipe"
	Device   string `yaml:"device"`    // e.g. "/dev/serial0", "/dev/input/event0", "/tmp/cardrelay-cards"
	Baud     int    `yaml:"baud"`      // baud rate for serial devices
	Format   string `yaml:"format"`    // keyboard input format, e.g. "8h", "10d"
	SPIPort  string `yaml:"spi_port"`  // mfrc522 SPI port, e.g. "/dev/spidev0.0" ("" = first)
	ResetPin string `yaml:"reset_pin"` // mfrc522 reset pin, e.g. "GPIO25"
	IRQPin   string `yaml:"irq_pin"`   // mfrc522 IRQ pin, e.g. "GPIO24"
}

// New creates a CardReader based on the provided configuration.
func New(cfg Config) (CardReader, error) {
	switch cfg.Type {
	case "mfrc522", "rc522", "":
		return NewMFRC522(cfg.SPIPort, cfg.ResetPin, cfg.IRQPin)
	case "serial":
		return NewSerial(cfg.Device, cfg.Baud)
	case "wiegand":
		return NewWiegand(cfg.Device, cfg.Baud)
	case "keyboard", "10h-kbd":
		return NewKeyboard(cfg.Device, cfg.Format)
	case "pipe":
		return NewPipe(cfg.Device)
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}

// slot holds one detected card until ReadSerial collects it.
type slot struct {
	present bool
	id      []byte
	err     error
}

func (s *slot) set(id []byte, err error) {
	s.present = true
	s.id = id
	s.err = err
}

func (s *slot) take() ([]byte, error) {
	if !s.present {
		return nil, fmt.Errorf("%w: no card presented", ErrTransientRead)
	}
	id, err := s.id, s.err
	s.clear()

	if err != nil {
		return nil, err
	}
	if !uid.Valid(id) {
		return nil, fmt.Errorf("%w: %d byte identifier", ErrTransientRead, len(id))
	}
	return id, nil
}

func (s *slot) clear() {
	s.present = false
	s.id = nil
	s.err = nil
}
