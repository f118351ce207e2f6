package reader

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/mfrc522"
	"periph.io/x/host/v3"
)

const (
	defaultResetPin = "GPIO25"
	defaultIRQPin   = "GPIO24"

	// mfrc522Poll is how long one HasNewCard call waits for a card in the field.
	mfrc522Poll = 20 * time.Millisecond
)

// MFRC522 implements CardReader for the NXP MFRC522 13.56 MHz reader on SPI.
type MFRC522 struct {
	port spi.PortCloser
	dev  *mfrc522.Dev
	slot
}

// NewMFRC522 opens the reader on spiPort with the given reset and IRQ pins.
func NewMFRC522(spiPort, resetPin, irqPin string) (*MFRC522, error) {
	if resetPin == "" {
		resetPin = defaultResetPin
	}
	if irqPin == "" {
		irqPin = defaultIRQPin
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host: %v", ErrModuleAbsent, err)
	}

	port, err := spireg.Open(spiPort)
	if err != nil {
		return nil, fmt.Errorf("%w: open spi %q: %v", ErrModuleAbsent, spiPort, err)
	}

	rst := gpioreg.ByName(resetPin)
	if rst == nil {
		port.Close()
		return nil, fmt.Errorf("%w: no reset pin %s", ErrModuleAbsent, resetPin)
	}
	irq := gpioreg.ByName(irqPin)
	if irq == nil {
		port.Close()
		return nil, fmt.Errorf("%w: no irq pin %s", ErrModuleAbsent, irqPin)
	}

	dev, err := mfrc522.NewSPI(port, rst, irq)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%w: mfrc522: %v", ErrModuleAbsent, err)
	}
	log.Printf("MFRC522 ready on %q (RST=%s, IRQ=%s)", spiPort, resetPin, irqPin)

	return &MFRC522{port: port, dev: dev}, nil
}

// HasNewCard implements CardReader.HasNewCard. The chip only answers with
// a complete UID, so a present card is read in the same call.
func (m *MFRC522) HasNewCard() bool {
	id, err := m.dev.ReadUID(mfrc522Poll)
	if err != nil || len(id) == 0 {
		return false
	}
	m.set(id, nil)
	return true
}

// ReadSerial implements CardReader.ReadSerial.
func (m *MFRC522) ReadSerial() ([]byte, error) {
	return m.take()
}

// HaltSession implements CardReader.HaltSession.
func (m *MFRC522) HaltSession() {
	m.clear()
	if err := m.dev.Halt(); err != nil {
		log.Printf("MFRC522 halt: %v", err)
	}
}

// Close implements CardReader.Close.
func (m *MFRC522) Close() error {
	if err := m.dev.Halt(); err != nil {
		log.Printf("MFRC522 halt: %v", err)
	}
	return m.port.Close()
}
