package main

import (
	"testing"
	"time"

	"cardrelay/buzzer"
	"cardrelay/indicator"
)

type recordingIndicator struct {
	calls []string
}

func (r *recordingIndicator) Idle()                         { r.calls = append(r.calls, "idle") }
func (r *recordingIndicator) Delivered(*indicator.ReadInfo) { r.calls = append(r.calls, "delivered") }
func (r *recordingIndicator) Failed(*indicator.ReadInfo)    { r.calls = append(r.calls, "failed") }
func (r *recordingIndicator) Repeat(*indicator.ReadInfo)    { r.calls = append(r.calls, "repeat") }
func (r *recordingIndicator) ConnectionLost()               { r.calls = append(r.calls, "connection-lost") }
func (r *recordingIndicator) Shutdown()                     { r.calls = append(r.calls, "shutdown") }
func (r *recordingIndicator) Release() error                { return nil }

type recordingBuzzer struct {
	played []buzzer.Pattern
}

func (b *recordingBuzzer) Play(p buzzer.Pattern) error {
	b.played = append(b.played, p)
	return nil
}

func (b *recordingBuzzer) Release() error { return nil }

func TestSignalHalt(t *testing.T) {
	ind := &recordingIndicator{}
	bz := &recordingBuzzer{}
	app := &App{indicator: ind, buzzer: bz}

	app.signalHalt()

	if len(ind.calls) != 1 || ind.calls[0] != "shutdown" {
		t.Errorf("indicator calls = %v, want [shutdown]", ind.calls)
	}
	if len(bz.played) != 1 || !samePattern(bz.played[0], buzzer.Refused) {
		t.Errorf("buzzer played %v, want Refused", bz.played)
	}
}

func samePattern(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
