package video

// Status selects the screen shown for a processed card.
type Status int

const (
	StatusIdle Status = iota
	StatusDelivered
	StatusRejected
	StatusUnreachable
	StatusRepeat
	StatusConnectionLost
)

// Config holds video display configuration.
type Config struct {
	Device   string `yaml:"device"`   // framebuffer device, default /dev/fb0
	Rotation int    `yaml:"rotation"` // 0, 90, 180, or 270 degrees
	Font     string `yaml:"font"`     // TrueType font path
}

// look is the background colour and title for a Status.
type look struct {
	title   string
	r, g, b float64
}

var looks = map[Status]look{
	StatusIdle:           {"Ready", 0, 0.5, 0},
	StatusDelivered:      {"Card Sent", 0, 0.7, 0},
	StatusRejected:       {"Rejected", 0.7, 0, 0},
	StatusUnreachable:    {"Not Sent", 0.7, 0, 0},
	StatusRepeat:         {"Already Sent", 0.7, 0.7, 0},
	StatusConnectionLost: {"Connection Lost", 0.5, 0.3, 0},
}

func lookFor(s Status) look {
	if l, ok := looks[s]; ok {
		return l
	}
	return looks[StatusIdle]
}
