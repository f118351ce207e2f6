package buzzer

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestPlaySequence(t *testing.T) {
	var got []bool
	err := play(Pattern{time.Millisecond, time.Millisecond, time.Millisecond}, func(on bool) error {
		got = append(got, on)
		return nil
	})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	// on, off, on, then the final off from cleanup
	if want := "[true false true false]"; fmt.Sprint(got) != want {
		t.Errorf("states = %v, want %s", got, want)
	}
}

func TestPlayStopsOnError(t *testing.T) {
	fail := errors.New("line gone")
	calls := 0
	err := play(Refused, func(on bool) error {
		calls++
		if on {
			return fail
		}
		return nil
	})
	if !errors.Is(err, fail) {
		t.Errorf("play = %v, want %v", err, fail)
	}
	if calls != 2 {
		t.Errorf("set called %d times, want 2", calls)
	}
}

func TestNewWithoutPin(t *testing.T) {
	b, err := New(Config{Type: "gpiocdev"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := b.(*Noop); !ok {
		t.Errorf("New without pin = %T, want *Noop", b)
	}
}
