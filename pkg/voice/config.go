package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the voicelink configuration
type Config struct {
	// Server settings
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Agent settings sent with the session setup message
	Agent AgentConfig `yaml:"agent" mapstructure:"agent"`

	// Audio pipeline settings
	Audio AudioConfig `yaml:"audio" mapstructure:"audio"`

	// Advanced settings
	Advanced AdvancedConfig `yaml:"advanced" mapstructure:"advanced"`
}

// ServerConfig holds connection settings
type ServerConfig struct {
	// WebSocket endpoint of the voice agent service
	URL string `yaml:"url" mapstructure:"url"`

	// Dial timeout in seconds
	DialTimeout int `yaml:"dial_timeout" mapstructure:"dial_timeout"`
}

// AgentConfig holds the agent parameters negotiated at session setup
type AgentConfig struct {
	// Voice name the agent should speak with
	Voice string `yaml:"voice" mapstructure:"voice"`

	// System persona / instructions for the agent
	Persona string `yaml:"persona" mapstructure:"persona"`

	// Response format requested from the agent ("audio" or "text")
	ResponseFormat string `yaml:"response_format" mapstructure:"response_format"`
}

// AudioConfig holds audio pipeline settings
type AudioConfig struct {
	// Outbound chunk queue capacity; oldest chunks are dropped when full
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`

	// Volume meter cadence in milliseconds
	MeterIntervalMS int `yaml:"meter_interval_ms" mapstructure:"meter_interval_ms"`

	// Force mock devices instead of real hardware
	MockDevices bool `yaml:"mock_devices" mapstructure:"mock_devices"`
}

// AdvancedConfig holds advanced settings
type AdvancedConfig struct {
	// Debug logging
	DebugLogging bool `yaml:"debug_logging" mapstructure:"debug_logging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "ws://localhost:8765/v1/voice",
			DialTimeout: 10,
		},
		Agent: AgentConfig{
			Voice:          "aoede",
			Persona:        "",
			ResponseFormat: "audio",
		},
		Audio: AudioConfig{
			QueueSize:       DefaultOutboundQueueSize,
			MeterIntervalMS: int(MeterInterval / time.Millisecond),
			MockDevices:     false,
		},
		Advanced: AdvancedConfig{
			DebugLogging: false,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url must be set")
	}
	if c.Audio.QueueSize <= 0 {
		return fmt.Errorf("audio.queue_size must be positive, got %d", c.Audio.QueueSize)
	}
	if c.Audio.MeterIntervalMS <= 0 {
		return fmt.Errorf("audio.meter_interval_ms must be positive, got %d", c.Audio.MeterIntervalMS)
	}
	switch c.Agent.ResponseFormat {
	case "audio", "text":
	default:
		return fmt.Errorf("agent.response_format must be \"audio\" or \"text\", got %q", c.Agent.ResponseFormat)
	}
	return nil
}

// SessionConfig builds the per-session config from the loaded file
func (c *Config) SessionConfig() SessionConfig {
	return SessionConfig{
		ServerURL:      c.Server.URL,
		Voice:          c.Agent.Voice,
		Persona:        c.Agent.Persona,
		ResponseFormat: c.Agent.ResponseFormat,
	}
}

// configPaths returns the paths to check for config files
func configPaths() []string {
	paths := []string{}

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".voicelink.yml"))
	}

	// User config directory
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "voicelink", "config.yml"))
	}

	return paths
}

// LoadConfig loads the configuration from file, falling back to defaults
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	config := DefaultConfig()

	var configFound bool
	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				log.Warn("Failed to read config", "path", path, "error", err)
				continue
			}

			if err := v.Unmarshal(config); err != nil {
				log.Warn("Failed to parse config", "path", path, "error", err)
				continue
			}

			log.Info("Loaded configuration", "path", path)
			configFound = true
			break
		}
	}

	if !configFound {
		log.Debug("No config file found, using defaults")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info("Saved configuration", "path", path)
	return nil
}

// GenerateExampleConfig generates an example configuration file
func GenerateExampleConfig() string {
	config := DefaultConfig()
	config.Agent.Persona = "You are a friendly assistant. Keep answers short."

	data, _ := yaml.Marshal(config)

	header := `# Voicelink Configuration File
#
# Place this file at:
#   - ./.voicelink.yml (project-specific)
#   - ~/.config/voicelink/config.yml (user-wide)
#
# The project-specific config takes precedence over user config.

`

	return header + string(data)
}
