package indicator

// Multi combines multiple Indicator implementations.
type Multi struct {
	indicators []Indicator
}

// Idle implements Indicator.Idle.
func (m *Multi) Idle() {
	for _, ind := range m.indicators {
		ind.Idle()
	}
}

// Delivered implements Indicator.Delivered.
func (m *Multi) Delivered(info *ReadInfo) {
	for _, ind := range m.indicators {
		ind.Delivered(info)
	}
}

// Failed implements Indicator.Failed.
func (m *Multi) Failed(info *ReadInfo) {
	for _, ind := range m.indicators {
		ind.Failed(info)
	}
}

// Repeat implements Indicator.Repeat.
func (m *Multi) Repeat(info *ReadInfo) {
	for _, ind := range m.indicators {
		ind.Repeat(info)
	}
}

// ConnectionLost implements Indicator.ConnectionLost.
func (m *Multi) ConnectionLost() {
	for _, ind := range m.indicators {
		ind.ConnectionLost()
	}
}

// Shutdown implements Indicator.Shutdown.
func (m *Multi) Shutdown() {
	for _, ind := range m.indicators {
		ind.Shutdown()
	}
}

// Release implements Indicator.Release.
func (m *Multi) Release() error {
	var lastErr error
	for _, ind := range m.indicators {
		if err := ind.Release(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
