package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardrelay.cfg")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
client_id: door-1
collector:
  host: collector.local
  port: 8080
  path: /api/scan
  response_timeout_ms: 3000
link:
  type: networkmanager
  interface: wlan0
  ssid: lab
  keyring_service: cardrelay
  max_attempts: 5
reader:
  type: mfrc522
  reset_pin: GPIO25
  irq_pin: GPIO24
timing:
  poll_ms: 25
  debounce_ms: 2000
buzzer:
  type: gpiocdev
  pin: 18
indicator:
  green_pin: 17
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ClientID != "door-1" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if cfg.Collector.Host != "collector.local" || cfg.Collector.Port != 8080 || cfg.Collector.Path != "/api/scan" {
		t.Errorf("Collector = %+v", cfg.Collector)
	}
	if cfg.Link.SSID != "lab" || cfg.Link.MaxAttempts != 5 || cfg.Link.KeyringService != "cardrelay" {
		t.Errorf("Link = %+v", cfg.Link)
	}
	if cfg.Reader.Type != "mfrc522" || cfg.Reader.ResetPin != "GPIO25" {
		t.Errorf("Reader = %+v", cfg.Reader)
	}
	if cfg.Timing.PollMs != 25 || cfg.Timing.DebounceMs != 2000 {
		t.Errorf("Timing = %+v", cfg.Timing)
	}
	if cfg.Buzzer.Pin == nil || *cfg.Buzzer.Pin != 18 {
		t.Errorf("Buzzer = %+v", cfg.Buzzer)
	}
	if cfg.Indicator.GreenPin == nil || *cfg.Indicator.GreenPin != 17 {
		t.Errorf("Indicator = %+v", cfg.Indicator)
	}
	if cfg.HoldSecs != 2 {
		t.Errorf("HoldSecs default = %d, want 2", cfg.HoldSecs)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no client id", "collector:\n  host: c\n"},
		{"no collector", "client_id: door-1\n"},
		{"bad port", "client_id: door-1\ncollector:\n  host: c\n  port: 70000\n"},
		{"bad yaml", "client_id: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.cfg")); err == nil {
		t.Error("expected error for missing file")
	}
}
