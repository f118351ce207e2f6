package indicator

import (
	"fmt"
	"io"
	"os"
)

// Neopixel command strings for the external neopixel tool.
const (
	neoConnectionLost = "@2 !150000 001010"
	neoNormalIdle     = "@3 !150000 400000"
	neoDelivered      = "@1 !50000 8000"
	neoFailed         = "@2 !10000 ff"
	neoRepeat         = "@1 !50000 8080"
	neoTerminated     = "@0 010101"
)

// Neopixel implements Indicator using an external neopixel tool via named pipe.
type Neopixel struct {
	pipe       io.WriteCloser
	idleString string
}

// NewNeopixel creates a new Neopixel indicator.
func NewNeopixel(pipePath string) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return newNeopixel(f), nil
}

func newNeopixel(w io.WriteCloser) *Neopixel {
	return &Neopixel{
		pipe:       w,
		idleString: neoNormalIdle,
	}
}

// Idle implements Indicator.Idle.
func (n *Neopixel) Idle() {
	n.write(n.idleString)
}

// Delivered implements Indicator.Delivered. A delivery proves the link is
// up, so the idle pattern returns to normal.
func (n *Neopixel) Delivered(info *ReadInfo) {
	n.idleString = neoNormalIdle
	n.write(neoDelivered)
}

// Failed implements Indicator.Failed.
func (n *Neopixel) Failed(info *ReadInfo) {
	n.write(neoFailed)
}

// Repeat implements Indicator.Repeat.
func (n *Neopixel) Repeat(info *ReadInfo) {
	n.write(neoRepeat)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (n *Neopixel) ConnectionLost() {
	n.idleString = neoConnectionLost
	n.write(neoConnectionLost)
}

// Shutdown implements Indicator.Shutdown.
func (n *Neopixel) Shutdown() {
	n.write(neoTerminated)
}

// Release implements Indicator.Release.
func (n *Neopixel) Release() error {
	if n.pipe == nil {
		return nil
	}
	return n.pipe.Close()
}

func (n *Neopixel) write(s string) {
	if n.pipe != nil {
		n.pipe.Write([]byte(s))
	}
}
