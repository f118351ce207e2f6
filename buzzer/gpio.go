package buzzer

import (
	"fmt"

	"github.com/warthog618/gpio"
)

// GPIO implements Buzzer with memory-mapped GPIO on the Raspberry Pi.
type GPIO struct {
	pin       *gpio.Pin
	activeLow bool
}

// NewGPIO opens the GPIO memory map and sets pin as a silent output.
func NewGPIO(pin int, activeLow bool) (*GPIO, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	g := &GPIO{pin: gpio.NewPin(pin), activeLow: activeLow}
	g.pin.Output()
	g.set(false)
	return g, nil
}

// Play implements Buzzer.Play.
func (g *GPIO) Play(p Pattern) error {
	return play(p, func(on bool) error {
		g.set(on)
		return nil
	})
}

// Release implements Buzzer.Release.
func (g *GPIO) Release() error {
	g.set(false)
	return gpio.Close()
}

func (g *GPIO) set(on bool) {
	if on != g.activeLow {
		g.pin.High()
	} else {
		g.pin.Low()
	}
}
