// Package config loads the on-disk runtime configuration: provider
// selection, logging, sandbox policy overrides, and agent tuning
// parameters. Config is a pure data loader — out of the runtime's core
// scope per the spec, but every process still needs one, grounded on the
// teacher's config.go/logger.go pairing of yaml.v3 plus godotenv for
// provider keys.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/corvidrun/corvid/internal/chunker"
	"github.com/corvidrun/corvid/internal/compaction"
	"github.com/corvidrun/corvid/internal/continuation"
	"github.com/corvidrun/corvid/internal/sandbox/permission"
	"github.com/corvidrun/corvid/internal/telemetry"
)

// LoggerConfig configures the command-layer slog handler.
//
// Values come from the config file; fields left empty take defaults.
// Mirrors the teacher's LoggerConfig shape.
type LoggerConfig struct {
	Level  string `yaml:"level,omitempty"`
	File   string `yaml:"file,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// SetDefaults applies default values to LoggerConfig.
func (c *LoggerConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "simple"
	}
}

// Validate checks the logger configuration.
func (c *LoggerConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger.level must be one of debug/info/warn/error, got %q", c.Level)
	}
	switch c.Format {
	case "simple", "verbose":
	default:
		return fmt.Errorf("logger.format must be simple or verbose, got %q", c.Format)
	}
	return nil
}

// ProviderConfig selects and configures the LLM backend.
type ProviderConfig struct {
	Name        string  `yaml:"name"` // "anthropic" or "openai"
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"` // usually left empty; resolved from env
	BaseURL     string  `yaml:"base_url,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// SandboxConfig tunes the approval pipeline and execution timeouts.
type SandboxConfig struct {
	Overrides      permission.ConfigOverrides `yaml:"overrides"`
	TimeoutSeconds int                        `yaml:"timeout_seconds,omitempty"`
}

// RunnerConfig tunes the interactive runner's optional persistence.
type RunnerConfig struct {
	HistoryFile  string `yaml:"history_file,omitempty"`
	HistoryStore string `yaml:"history_store,omitempty"` // "json" (default) or "sqlite"
	DebugLogFile string `yaml:"debug_log_file,omitempty"`
}

// Config is the full on-disk runtime configuration.
type Config struct {
	Provider     ProviderConfig      `yaml:"provider"`
	Logger       LoggerConfig        `yaml:"logger"`
	Sandbox      SandboxConfig       `yaml:"sandbox"`
	Runner       RunnerConfig        `yaml:"runner"`
	Observation  compaction.Config   `yaml:"observation"`
	Chunker      chunker.Config      `yaml:"chunker"`
	Continuation continuation.Config `yaml:"continuation"`
	Telemetry    telemetry.Config    `yaml:"telemetry"`
	ProjectRoot  string              `yaml:"project_root,omitempty"`
}

// SetDefaults fills every unset field with the runtime's tuned defaults,
// the same ones the core packages themselves fall back to when a zero
// value is detected, so a config file only needs to name what it's
// overriding.
func (c *Config) SetDefaults() {
	c.Logger.SetDefaults()
	if c.Provider.Name == "" {
		c.Provider.Name = "anthropic"
	}
	if c.Provider.MaxTokens == 0 {
		c.Provider.MaxTokens = 4096
	}
	if c.Sandbox.TimeoutSeconds == 0 {
		c.Sandbox.TimeoutSeconds = 30
	}
	if c.Runner.HistoryFile == "" {
		c.Runner.HistoryFile = ".corvid/history.json"
	}
	if c.Runner.HistoryStore == "" {
		c.Runner.HistoryStore = "json"
	}
	if c.ProjectRoot == "" {
		c.ProjectRoot = "."
	}
	if (c.Observation == compaction.Config{}) {
		c.Observation = compaction.DefaultConfig()
	}
	if (c.Chunker == chunker.Config{}) {
		c.Chunker = chunker.DefaultConfig()
	}
	if (c.Continuation == continuation.Config{}) {
		c.Continuation = continuation.DefaultConfig()
	}
	if c.Telemetry.ServiceName == "" {
		def := telemetry.DefaultConfig()
		c.Telemetry.ServiceName = def.ServiceName
		if c.Telemetry.RingSize == 0 {
			c.Telemetry.RingSize = def.RingSize
		}
	}
}

// Validate checks the configuration for consistency, after defaults have
// been applied.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	switch c.Provider.Name {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("provider.name must be anthropic or openai, got %q", c.Provider.Name)
	}
	switch c.Runner.HistoryStore {
	case "json", "sqlite":
	default:
		return fmt.Errorf("runner.history_store must be json or sqlite, got %q", c.Runner.HistoryStore)
	}
	if c.Sandbox.TimeoutSeconds <= 0 || c.Sandbox.TimeoutSeconds > 300 {
		return fmt.Errorf("sandbox.timeout_seconds must be in (0, 300], got %d", c.Sandbox.TimeoutSeconds)
	}
	return nil
}

// Load reads and parses a YAML config file at path, applying defaults and
// validating the result. A missing path is not an error: Load returns the
// zero Config with defaults applied, matching zero-config operation.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				cfg.SetDefaults()
				return cfg, cfg.Validate()
			}
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads provider API keys from a .env file at path, if present.
// A missing file is not an error — provider keys may already be set in
// the process environment.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ResolveAPIKey returns cfg's explicit API key if set, otherwise the
// provider's conventional environment variable.
func ResolveAPIKey(cfg ProviderConfig) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	switch cfg.Name {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}
