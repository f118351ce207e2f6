//go:build !screen

package video

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return false
}

// Display is a stub when screen support is not compiled in.
type Display struct{}

// New returns an error when screen support is not compiled in.
func New(cfg Config) (*Display, error) {
	return nil, ErrScreenNotCompiled
}

func (d *Display) Idle()                      {}
func (d *Display) Show(s Status, text string) {}
func (d *Display) ConnectionLost()            {}
func (d *Display) Shutdown()                  {}
func (d *Display) Release() error             { return nil }
