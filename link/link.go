// Package link keeps the network link usable before a delivery attempt.
package link

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zalando/go-keyring"
)

// ErrModuleAbsent is returned when the network hardware or its manager is missing.
var ErrModuleAbsent = errors.New("network module not detected")

// State is the link status reported by a Link.
type State int

const (
	Down State = iota
	Up
)

func (s State) String() string {
	if s == Up {
		return "up"
	}
	return "down"
}

// Credentials identify the network to join.
type Credentials struct {
	SSID string
	PSK  string
}

// Link is the interface for network link implementations.
type Link interface {
	// Status reports the current link state. It must not block.
	Status() State

	// Connect issues one connect request and reports the resulting state.
	// It may block while the link is being established.
	Connect(ctx context.Context, creds Credentials) State

	// Identity describes the link's network identity (addresses) for logging.
	Identity() string

	// Close releases any resources held by the link.
	Close() error
}

// Config holds configuration for link implementations.
type Config struct {
	Type           string `yaml:"type"`            // "networkmanager", "static"
	Interface      string `yaml:"interface"`       // e.g. "wlan0", "eth0"
	SSID           string `yaml:"ssid"`            // network to join (networkmanager)
	PSK            string `yaml:"psk"`             // pre-shared key; empty = keyring or open network
	KeyringService string `yaml:"keyring_service"` // OS keyring service holding the PSK, keyed by SSID
	RetryMs        int    `yaml:"retry_ms"`        // delay between connect attempts
	MaxAttempts    int    `yaml:"max_attempts"`    // 0 = retry forever
}

// New creates a Link based on the provided configuration.
func New(cfg Config) (Link, error) {
	switch cfg.Type {
	case "networkmanager", "nm", "wifi":
		return NewNetworkManager(cfg.Interface)
	case "static", "wired", "":
		return NewStatic(cfg.Interface)
	default:
		return nil, fmt.Errorf("unknown link type %q", cfg.Type)
	}
}

// ResolveCredentials returns the configured credentials, looking the PSK up
// in the OS keyring when it is not given inline.
func ResolveCredentials(cfg Config) (Credentials, error) {
	creds := Credentials{SSID: cfg.SSID, PSK: cfg.PSK}
	if creds.PSK != "" || cfg.KeyringService == "" || creds.SSID == "" {
		return creds, nil
	}

	psk, err := keyring.Get(cfg.KeyringService, creds.SSID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			log.Printf("No keyring entry for %s/%s, joining as open network", cfg.KeyringService, creds.SSID)
			return creds, nil
		}
		return creds, fmt.Errorf("keyring lookup %s/%s: %w", cfg.KeyringService, creds.SSID, err)
	}
	creds.PSK = psk
	return creds, nil
}

// PolicyFromConfig builds the reconnect policy described by cfg.
func PolicyFromConfig(cfg Config) Policy {
	p := Policy{
		Interval:    time.Duration(cfg.RetryMs) * time.Millisecond,
		MaxAttempts: cfg.MaxAttempts,
	}
	if p.Interval <= 0 {
		p.Interval = DefaultRetryInterval
	}
	return p
}
