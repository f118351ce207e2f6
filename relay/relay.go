// Package relay runs the card polling loop: read, encode, dedupe, deliver.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cardrelay/dedupe"
	"cardrelay/delivery"
	"cardrelay/reader"
	"cardrelay/uid"
)

// Defaults applied to zero Config values.
const (
	DefaultPoll     = 50 * time.Millisecond
	DefaultSkip     = 500 * time.Millisecond
	DefaultDebounce = 1500 * time.Millisecond
)

// Config holds the loop's timing settings.
type Config struct {
	PollMs     int `yaml:"poll_ms"`     // idle wait between reader polls
	SkipMs     int `yaml:"skip_ms"`     // wait after a suppressed repeat
	DebounceMs int `yaml:"debounce_ms"` // wait after a delivery attempt
}

// Timing is Config resolved to durations.
type Timing struct {
	Poll     time.Duration
	Skip     time.Duration
	Debounce time.Duration
}

// TimingFromConfig resolves cfg, applying defaults.
func TimingFromConfig(cfg Config) Timing {
	t := Timing{
		Poll:     time.Duration(cfg.PollMs) * time.Millisecond,
		Skip:     time.Duration(cfg.SkipMs) * time.Millisecond,
		Debounce: time.Duration(cfg.DebounceMs) * time.Millisecond,
	}
	if t.Poll <= 0 {
		t.Poll = DefaultPoll
	}
	if t.Skip <= 0 {
		t.Skip = DefaultSkip
	}
	if t.Debounce <= 0 {
		t.Debounce = DefaultDebounce
	}
	return t
}

// Deliverer makes one delivery attempt for a token.
type Deliverer interface {
	Deliver(ctx context.Context, token uid.Token) delivery.Outcome
}

// Result says what one loop iteration did.
type Result int

const (
	NoCard     Result = iota // nothing presented
	ReadFailed               // card seen, serial unreadable
	Suppressed               // same card as the last delivery
	Attempted                // delivery attempted, see Event.Outcome
)

func (r Result) String() string {
	switch r {
	case NoCard:
		return "no card"
	case ReadFailed:
		return "read failed"
	case Suppressed:
		return "suppressed"
	case Attempted:
		return "attempted"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Event describes one loop iteration.
type Event struct {
	Result  Result
	Token   uid.Token
	Outcome delivery.Outcome // valid only when Result == Attempted
}

// Observer is told about every processed detection (Suppressed or Attempted).
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// Loop ties the reader, gate and delivery client together.
type Loop struct {
	reader    reader.CardReader
	gate      *dedupe.Gate
	client    Deliverer
	timing    Timing
	observers []Observer
}

// New creates a Loop.
func New(r reader.CardReader, gate *dedupe.Gate, client Deliverer, timing Timing, observers ...Observer) *Loop {
	return &Loop{
		reader:    r,
		gate:      gate,
		client:    client,
		timing:    timing,
		observers: observers,
	}
}

// Run polls until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Step(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Step runs one iteration, including its trailing wait.
func (l *Loop) Step(ctx context.Context) Event {
	if !l.reader.HasNewCard() {
		sleep(ctx, l.timing.Poll)
		return Event{Result: NoCard}
	}

	raw, err := l.reader.ReadSerial()
	if err != nil {
		if !errors.Is(err, reader.ErrTransientRead) {
			log.Printf("Read serial: %v", err)
		}
		sleep(ctx, l.timing.Poll)
		return Event{Result: ReadFailed}
	}

	token := uid.Encode(raw)
	fmt.Printf("Card read: %s\n", token)

	if !l.gate.ShouldAttempt(token) {
		fmt.Printf("Card %s already delivered, skipping\n", token)
		ev := Event{Result: Suppressed, Token: token}
		l.reader.HaltSession()
		l.notify(ev)
		sleep(ctx, l.timing.Skip)
		return ev
	}

	outcome := l.client.Deliver(ctx, token)
	if outcome == delivery.Delivered {
		l.gate.RecordDelivered(token)
	}
	fmt.Printf("Card %s: %s\n", token, outcome)

	ev := Event{Result: Attempted, Token: token, Outcome: outcome}
	l.reader.HaltSession()
	l.notify(ev)
	sleep(ctx, l.timing.Debounce)
	return ev
}

func (l *Loop) notify(ev Event) {
	for _, o := range l.observers {
		o.Observe(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
