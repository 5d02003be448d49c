package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/BlindEngine/internal/quantum"
	"github.com/AaronLay10/BlindEngine/internal/secrets"
)

type EngineConfig struct {
	Version int `yaml:"version"`
	Engine  struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"engine"`
	Session SessionConfig `yaml:"session"`
	Secrets SecretsConfig `yaml:"secrets"`
	Noise   NoiseConfig   `yaml:"noise"`
	Network struct {
		APIPort int `yaml:"api_port"`
	} `yaml:"network"`
	Postgres PostgresConfig `yaml:"postgres"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Alerts   struct {
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"alerts"`
	Logging struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"logging"`

	dir string
}

// SecretsConfig enables secret kinds. Unset kinds default to enabled.
type SecretsConfig struct {
	R     *bool `yaml:"r"`
	A     *bool `yaml:"a"`
	Theta *bool `yaml:"theta"`
}

// Flags resolves the defaults.
func (s SecretsConfig) Flags() secrets.Flags {
	on := func(b *bool) bool { return b == nil || *b }
	return secrets.Flags{R: on(s.R), A: on(s.A), Theta: on(s.Theta)}
}

type SessionConfig struct {
	Pattern     string   `yaml:"pattern"`
	Inputs      []string `yaml:"inputs"`
	TestRounds  int      `yaml:"test_rounds"`
	Parallelism int      `yaml:"parallelism"`
	Threshold   int      `yaml:"threshold"`
	Seed        uint64   `yaml:"seed"`
}

// NoiseConfig selects the simulated executor's noise model.
// Model is one of none, flip_readout or depolarizing.
type NoiseConfig struct {
	Model       string  `yaml:"model"`
	Probability float64 `yaml:"probability"`
	Node        int     `yaml:"node"`
}

type PostgresConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	URL         string `yaml:"url"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// APIPort returns the configured API port, defaulting to 8080 if not set.
func (c *EngineConfig) APIPort() int {
	if c.Network.APIPort == 0 {
		return 8080
	}
	return c.Network.APIPort
}

// EngineID returns the engine id, defaulting to "default".
func (c *EngineConfig) EngineID() string {
	if c.Engine.ID == "" {
		return "default"
	}
	return c.Engine.ID
}

// PatternPath resolves the pattern path relative to the config file.
func (c *EngineConfig) PatternPath() string {
	p := c.Session.Pattern
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// InputStates parses the configured input states.
func (c *EngineConfig) InputStates() ([]quantum.BasicState, error) {
	states := make([]quantum.BasicState, 0, len(c.Session.Inputs))
	for _, s := range c.Session.Inputs {
		st, err := quantum.ParseState(s)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, nil
}

// Default returns the configuration used when no file is given.
func Default() *EngineConfig {
	cfg := &EngineConfig{Version: 1}
	cfg.applyDefaults()
	return cfg
}

func (c *EngineConfig) applyDefaults() {
	if c.Session.TestRounds == 0 {
		c.Session.TestRounds = 20
	}
	if c.Session.Parallelism == 0 {
		c.Session.Parallelism = 1
	}
	if c.Noise.Model == "" {
		c.Noise.Model = "none"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "blindengine-" + c.EngineID()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *EngineConfig) validate() error {
	if c.Session.TestRounds < 0 {
		return fmt.Errorf("session.test_rounds must be >= 0, got %d", c.Session.TestRounds)
	}
	if c.Session.Threshold < 0 {
		return fmt.Errorf("session.threshold must be >= 0, got %d", c.Session.Threshold)
	}
	switch c.Noise.Model {
	case "none", "flip_readout":
	case "depolarizing":
		if c.Noise.Probability < 0 || c.Noise.Probability > 1 {
			return fmt.Errorf("noise.probability must be in [0,1], got %g", c.Noise.Probability)
		}
	default:
		return fmt.Errorf("unknown noise.model %q", c.Noise.Model)
	}
	if _, err := c.InputStates(); err != nil {
		return fmt.Errorf("session.inputs: %w", err)
	}
	return nil
}

func LoadEngineConfig(path string) (*EngineConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported engine.yaml version: %d", cfg.Version)
	}

	cfg.dir = filepath.Dir(path)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
