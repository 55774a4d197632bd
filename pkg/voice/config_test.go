package voice

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Audio.QueueSize != DefaultOutboundQueueSize {
		t.Errorf("queue size %d, want %d", cfg.Audio.QueueSize, DefaultOutboundQueueSize)
	}
	if cfg.Agent.ResponseFormat != "audio" {
		t.Errorf("response format %q, want audio", cfg.Agent.ResponseFormat)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"text response format", func(c *Config) { c.Agent.ResponseFormat = "text" }, false},
		{"missing url", func(c *Config) { c.Server.URL = "" }, true},
		{"zero queue size", func(c *Config) { c.Audio.QueueSize = 0 }, true},
		{"negative queue size", func(c *Config) { c.Audio.QueueSize = -1 }, true},
		{"zero meter interval", func(c *Config) { c.Audio.MeterIntervalMS = 0 }, true},
		{"bad response format", func(c *Config) { c.Agent.ResponseFormat = "video" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigSessionConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = "ws://example.test/voice"
	cfg.Agent.Voice = "charon"
	cfg.Agent.Persona = "answer in haiku"

	sc := cfg.SessionConfig()
	if sc.ServerURL != "ws://example.test/voice" {
		t.Errorf("server url %q", sc.ServerURL)
	}
	if sc.Voice != "charon" {
		t.Errorf("voice %q, want charon", sc.Voice)
	}
	if sc.Persona != "answer in haiku" {
		t.Errorf("persona %q", sc.Persona)
	}
	if sc.ResponseFormat != "audio" {
		t.Errorf("response format %q, want audio", sc.ResponseFormat)
	}
}

func TestGenerateExampleConfig(t *testing.T) {
	example := GenerateExampleConfig()

	for _, want := range []string{"server:", "agent:", "audio:", "url:", "queue_size:"} {
		if !strings.Contains(example, want) {
			t.Errorf("example config missing %q", want)
		}
	}
	if !strings.HasPrefix(example, "#") {
		t.Error("example config missing header comment")
	}
}
