package indicator

import "cardrelay/video"

// Indicator is the interface for status indicator implementations (LEDs, neopixels, etc).
type Indicator interface {
	// Idle sets the indicator to idle/ready state.
	Idle()

	// Delivered signals that the collector accepted a card.
	Delivered(info *ReadInfo)

	// Failed signals that a delivery was rejected or the collector was unreachable.
	Failed(info *ReadInfo)

	// Repeat signals a card suppressed as the one just delivered.
	Repeat(info *ReadInfo)

	// ConnectionLost sets the indicator to connection lost state.
	ConnectionLost()

	// Shutdown sets the indicator to shutdown state.
	Shutdown()

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for indicator implementations.
type Config struct {
	// GPIO LED pins (nil = not configured)
	GreenPin  *uint8 `yaml:"green_pin"`
	YellowPin *uint8 `yaml:"yellow_pin"`
	RedPin    *uint8 `yaml:"red_pin"`

	// Neopixel pipe path (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`

	// Video framebuffer display (true = enabled)
	VideoEnabled bool         `yaml:"video_enabled"`
	Video        video.Config `yaml:"video"`
}

// New creates an Indicator based on the provided configuration.
// Returns a Multi indicator if more than one kind is configured.
func New(cfg Config) (Indicator, error) {
	var indicators []Indicator

	if cfg.GreenPin != nil || cfg.YellowPin != nil || cfg.RedPin != nil {
		gpio, err := NewGPIO(cfg.GreenPin, cfg.YellowPin, cfg.RedPin)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, gpio)
	}

	if cfg.NeopixelPipe != "" {
		neo, err := NewNeopixel(cfg.NeopixelPipe)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, neo)
	}

	if cfg.VideoEnabled {
		if !video.ScreenSupported() {
			return nil, video.ErrScreenNotCompiled
		}
		d, err := video.New(cfg.Video)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, NewVideo(d))
	}

	return Combine(indicators...), nil
}

// Combine returns a single Indicator driving all of inds.
func Combine(inds ...Indicator) Indicator {
	switch len(inds) {
	case 0:
		return &Noop{}
	case 1:
		return inds[0]
	default:
		return &Multi{indicators: inds}
	}
}
