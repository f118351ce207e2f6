package indicator

import (
	"cardrelay/video"
)

// VideoIndicator drives a framebuffer display as an Indicator.
type VideoIndicator struct {
	d *video.Display
}

// NewVideo wraps d.
func NewVideo(d *video.Display) *VideoIndicator {
	return &VideoIndicator{d: d}
}

// Idle implements Indicator.Idle.
func (vi *VideoIndicator) Idle() {
	vi.d.Idle()
}

// Delivered implements Indicator.Delivered.
func (vi *VideoIndicator) Delivered(info *ReadInfo) {
	vi.d.Show(video.StatusDelivered, token(info))
}

// Failed implements Indicator.Failed.
func (vi *VideoIndicator) Failed(info *ReadInfo) {
	status := video.StatusRejected
	if info != nil && info.Outcome == "unreachable" {
		status = video.StatusUnreachable
	}
	vi.d.Show(status, token(info))
}

// Repeat implements Indicator.Repeat.
func (vi *VideoIndicator) Repeat(info *ReadInfo) {
	vi.d.Show(video.StatusRepeat, token(info))
}

// ConnectionLost implements Indicator.ConnectionLost.
func (vi *VideoIndicator) ConnectionLost() {
	vi.d.ConnectionLost()
}

// Shutdown implements Indicator.Shutdown.
func (vi *VideoIndicator) Shutdown() {
	vi.d.Shutdown()
}

// Release implements Indicator.Release.
func (vi *VideoIndicator) Release() error {
	return vi.d.Release()
}

func token(info *ReadInfo) string {
	if info == nil {
		return ""
	}
	return info.Token
}
