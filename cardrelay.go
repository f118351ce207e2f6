package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cardrelay/buzzer"
	"cardrelay/dedupe"
	"cardrelay/delivery"
	"cardrelay/indicator"
	"cardrelay/link"
	"cardrelay/mqtt"
	"cardrelay/reader"
	"cardrelay/relay"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	mqtt      *mqtt.Client
	reader    reader.CardReader
	link      link.Link
	indicator indicator.Indicator
	buzzer    buzzer.Buzzer
	loop      *relay.Loop

	mu      sync.Mutex
	showing int // bumped on every shown outcome; stale idle timers compare against it
}

func main() {
	fmt.Printf("cardrelay build %s\n", myBuild)

	cfgfile := flag.String("cfg", "cardrelay.cfg", "Config file")
	once := flag.Bool("once", false, "Process one card and exit")
	flag.Parse()

	cfg, err := LoadConfig(*cfgfile)
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	app := &App{cfg: cfg}

	// Initialize indicator (LEDs, neopixels, display)
	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		log.Fatalf("Init indicator: %v", err)
	}
	app.indicator.ConnectionLost() // Start with connection lost until the first delivery

	app.buzzer, err = buzzer.New(cfg.Buzzer)
	if err != nil {
		log.Fatalf("Init buzzer: %v", err)
	}

	// Missing hardware is fatal; leave the shutdown state showing.
	app.reader, err = reader.New(cfg.Reader)
	if err != nil {
		app.halt("Init reader", err)
	}
	app.link, err = link.New(cfg.Link)
	if err != nil {
		app.halt("Init link", err)
	}

	creds, err := link.ResolveCredentials(cfg.Link)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	guardian := link.NewGuardian(app.link, creds, link.PolicyFromConfig(cfg.Link))
	transport := delivery.NewTCP(time.Duration(cfg.Collector.DialTimeoutMs) * time.Millisecond)
	client := delivery.New(cfg.Collector, guardian, transport)

	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID, mqtt.Handlers{
		OnConnect: func() { app.mqtt.Publish(app.mqtt.Topic("online"), `{"status":"online"}`) },
	})
	if err != nil {
		log.Fatalf("Init MQTT: %v", err)
	}

	app.loop = relay.New(app.reader, dedupe.New(), client, relay.TimingFromConfig(cfg.Timing),
		relay.ObserverFunc(app.observe))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
	go app.pingSender(ctx)

	// Bring the link up before the first card so the first read is not delayed.
	if guardian.EnsureUp(ctx) {
		app.indicator.Idle()
	}

	if *once {
		app.runOnce(ctx)
	} else {
		app.loop.Run(ctx)
	}

	fmt.Println("Shutting down...")
	app.shutdown()
	fmt.Println("Shutdown complete")
}

// runOnce polls until one card has been processed.
func (app *App) runOnce(ctx context.Context) {
	for ctx.Err() == nil {
		ev := app.loop.Step(ctx)
		if ev.Result == relay.Suppressed || ev.Result == relay.Attempted {
			return
		}
	}
}

// observe gives feedback for one processed read. It never affects the loop's decisions.
func (app *App) observe(ev relay.Event) {
	outcome := ev.Outcome.String()
	if ev.Result == relay.Suppressed {
		outcome = "suppressed"
	}
	info := &indicator.ReadInfo{Token: ev.Token.String(), Outcome: outcome}

	app.mu.Lock()
	app.showing++
	gen := app.showing
	pattern := buzzer.Refused
	switch {
	case ev.Result == relay.Suppressed:
		app.indicator.Repeat(info)
		pattern = buzzer.Repeat
	case ev.Outcome == delivery.Delivered:
		app.indicator.Delivered(info)
		pattern = buzzer.Accepted
	case ev.Outcome == delivery.Unreachable:
		app.indicator.ConnectionLost()
		app.indicator.Failed(info)
	default:
		app.indicator.Failed(info)
	}
	app.mu.Unlock()

	if err := app.buzzer.Play(pattern); err != nil {
		log.Printf("Buzzer: %v", err)
	}
	app.mqtt.PublishRead(info.Token, outcome, time.Now())

	time.AfterFunc(time.Duration(app.cfg.HoldSecs)*time.Second, func() {
		app.mu.Lock()
		defer app.mu.Unlock()
		if gen == app.showing {
			app.indicator.Idle()
		}
	})
}

func (app *App) pingSender(ctx context.Context) {
	ticker := time.NewTicker(120 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.mqtt.PublishPing()
		}
	}
}

// halt signals a fatal startup error on the indicator and exits.
func (app *App) halt(what string, err error) {
	app.signalHalt()
	log.Fatalf("%s: %v", what, err)
}

// signalHalt leaves the indicator in its shutdown state and sounds the refusal.
func (app *App) signalHalt() {
	app.indicator.Shutdown()
	if err := app.buzzer.Play(buzzer.Refused); err != nil {
		log.Printf("Buzzer: %v", err)
	}
}

func (app *App) shutdown() {
	app.mu.Lock()
	app.showing++ // cancel pending idle timers
	app.mu.Unlock()

	app.mqtt.Disconnect()
	app.reader.Close()
	app.link.Close()
	app.buzzer.Release()
	app.indicator.Shutdown()
	app.indicator.Release()
}
