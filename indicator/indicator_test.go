package indicator

import (
	"strings"
	"testing"
)

type pipeBuffer struct {
	writes []string
	closed bool
}

func (p *pipeBuffer) Write(b []byte) (int, error) {
	p.writes = append(p.writes, string(b))
	return len(b), nil
}

func (p *pipeBuffer) Close() error {
	p.closed = true
	return nil
}

func (p *pipeBuffer) last() string {
	if len(p.writes) == 0 {
		return ""
	}
	return p.writes[len(p.writes)-1]
}

func TestNeopixelIdleTracksConnection(t *testing.T) {
	buf := &pipeBuffer{}
	n := newNeopixel(buf)

	n.Idle()
	if buf.last() != neoNormalIdle {
		t.Errorf("idle = %q, want normal", buf.last())
	}

	n.ConnectionLost()
	n.Idle()
	if buf.last() != neoConnectionLost {
		t.Errorf("idle after connection lost = %q", buf.last())
	}

	n.Delivered(&ReadInfo{Token: "04:A3:2F:9C", Outcome: "delivered"})
	if buf.last() != neoDelivered {
		t.Errorf("delivered = %q", buf.last())
	}
	n.Idle()
	if buf.last() != neoNormalIdle {
		t.Errorf("idle after delivery = %q", buf.last())
	}

	n.Failed(nil)
	if buf.last() != neoFailed {
		t.Errorf("failed = %q", buf.last())
	}
	n.Repeat(nil)
	if buf.last() != neoRepeat {
		t.Errorf("repeat = %q", buf.last())
	}

	if err := n.Release(); err != nil || !buf.closed {
		t.Errorf("Release: %v, closed=%v", err, buf.closed)
	}
}

type recorder struct {
	calls []string
}

func (r *recorder) Idle()                    { r.calls = append(r.calls, "idle") }
func (r *recorder) Delivered(info *ReadInfo) { r.calls = append(r.calls, "delivered") }
func (r *recorder) Failed(info *ReadInfo)    { r.calls = append(r.calls, "failed") }
func (r *recorder) Repeat(info *ReadInfo)    { r.calls = append(r.calls, "repeat") }
func (r *recorder) ConnectionLost()          { r.calls = append(r.calls, "lost") }
func (r *recorder) Shutdown()                { r.calls = append(r.calls, "shutdown") }
func (r *recorder) Release() error           { r.calls = append(r.calls, "release"); return nil }

func TestCombine(t *testing.T) {
	if _, ok := Combine().(*Noop); !ok {
		t.Error("Combine() is not Noop")
	}

	a := &recorder{}
	if Combine(a) != Indicator(a) {
		t.Error("Combine(a) did not return a")
	}

	b := &recorder{}
	m := Combine(a, b)
	m.Delivered(nil)
	m.Failed(nil)
	m.Repeat(nil)
	m.ConnectionLost()
	m.Idle()
	m.Shutdown()
	m.Release()

	want := "delivered failed repeat lost idle shutdown release"
	for _, r := range []*recorder{a, b} {
		if got := strings.Join(r.calls, " "); got != want {
			t.Errorf("calls = %q, want %q", got, want)
		}
	}
}

func TestNewWithNothingConfigured(t *testing.T) {
	ind, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := ind.(*Noop); !ok {
		t.Errorf("New(empty) = %T, want *Noop", ind)
	}
}
