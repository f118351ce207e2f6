package buzzer

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Line implements Buzzer on a GPIO character device line.
type Line struct {
	line *gpiocdev.Line
}

// NewLine requests pin on chip as an output, initially silent. The line's
// active level is handled by the kernel when activeLow is set.
func NewLine(chip string, pin int, activeLow bool) (*Line, error) {
	if chip == "" {
		chip = "gpiochip0"
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	l, err := gpiocdev.RequestLine(chip, pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", chip, pin, err)
	}
	return &Line{line: l}, nil
}

// Play implements Buzzer.Play.
func (l *Line) Play(p Pattern) error {
	return play(p, func(on bool) error {
		v := 0
		if on {
			v = 1
		}
		return l.line.SetValue(v)
	})
}

// Release implements Buzzer.Release.
func (l *Line) Release() error {
	_ = l.line.SetValue(0)
	return l.line.Close()
}
