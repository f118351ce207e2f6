// Package buzzer gives audible feedback for processed card reads.
package buzzer

import "time"

// Pattern alternates on and off durations, starting with on.
type Pattern []time.Duration

// Patterns for each kind of processed read.
var (
	Accepted = Pattern{120 * time.Millisecond}
	Refused  = Pattern{60 * time.Millisecond, 60 * time.Millisecond, 60 * time.Millisecond, 60 * time.Millisecond, 60 * time.Millisecond}
	Repeat   = Pattern{30 * time.Millisecond}
)

// Buzzer is the interface for all buzzer implementations.
type Buzzer interface {
	// Play sounds p and returns once it has finished.
	Play(p Pattern) error

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for buzzer implementations.
type Config struct {
	Type      string `yaml:"type"`       // "gpiocdev", "gpio", "none"
	Chip      string `yaml:"chip"`       // gpiocdev chip, default "gpiochip0"
	Pin       *int   `yaml:"pin"`        // GPIO line / BCM pin number
	ActiveLow bool   `yaml:"active_low"` // drive low to sound
}

// New creates a Buzzer based on the provided configuration.
func New(cfg Config) (Buzzer, error) {
	if cfg.Pin == nil {
		return &Noop{}, nil
	}

	switch cfg.Type {
	case "gpiocdev", "":
		return NewLine(cfg.Chip, *cfg.Pin, cfg.ActiveLow)
	case "gpio":
		return NewGPIO(*cfg.Pin, cfg.ActiveLow)
	default:
		return &Noop{}, nil
	}
}

// play drives set through p.
func play(p Pattern, set func(on bool) error) error {
	defer set(false)
	for i, d := range p {
		if err := set(i%2 == 0); err != nil {
			return err
		}
		time.Sleep(d)
	}
	return nil
}

// Noop implements Buzzer but does nothing.
type Noop struct{}

// Play implements Buzzer.Play.
func (n *Noop) Play(p Pattern) error {
	return nil
}

// Release implements Buzzer.Release.
func (n *Noop) Release() error {
	return nil
}
