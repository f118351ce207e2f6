package reader

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/tarm/serial"
)

// Serial implements CardReader for serial RFID readers using a framed protocol.
// Frame: [0x02][0x09][data x5][checksum][0x03], card number in the last 4 data bytes.
type Serial struct {
	port   *serial.Port
	device string
	slot
}

// NewSerial creates a new serial RFID reader.
func NewSerial(device string, baud int) (*Serial, error) {
	if baud == 0 {
		baud = 115200
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 50 * time.Millisecond,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("%w: open serial %s: %v", ErrModuleAbsent, device, err)
	}

	return &Serial{port: port, device: device}, nil
}

// HasNewCard implements CardReader.HasNewCard.
func (s *Serial) HasNewCard() bool {
	buff := make([]byte, 9)
	n, err := s.port.Read(buff)
	if err != nil || n == 0 {
		return false
	}

	id, ok, err := decodeSerialFrame(buff[:n])
	if !ok {
		return false
	}
	s.set(id, err)
	return true
}

// ReadSerial implements CardReader.ReadSerial.
func (s *Serial) ReadSerial() ([]byte, error) {
	return s.take()
}

// HaltSession implements CardReader.HaltSession. The reader repeats frames
// while a card stays in the field, so pending input is discarded.
func (s *Serial) HaltSession() {
	s.clear()
	if err := s.port.Flush(); err != nil {
		log.Printf("Flush %s: %v", s.device, err)
	}
}

// Close implements CardReader.Close.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

// decodeSerialFrame validates a frame. ok is false when buff is not a frame
// at all; a frame with a bad checksum is reported as a transient read failure.
func decodeSerialFrame(buff []byte) (id []byte, ok bool, err error) {
	if len(buff) != 9 {
		return nil, false, nil
	}
	if !bytes.Equal(buff[0:2], []byte{0x02, 0x09}) || buff[8] != 0x03 {
		return nil, false, nil
	}

	data := buff[1:7]
	xor := data[0]
	for i := 1; i < len(data); i++ {
		xor ^= data[i]
	}
	if xor != buff[7] {
		return nil, true, fmt.Errorf("%w: checksum %02x, want %02x", ErrTransientRead, buff[7], xor)
	}

	return append([]byte(nil), data[2:6]...), true, nil
}
