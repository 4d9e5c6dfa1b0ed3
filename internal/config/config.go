// ABOUTME: Configuration loading and parsing for switchboard
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the complete switchboard configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Records   RecordsConfig   `yaml:"records" toml:"records"`
	LLM       LLMConfig       `yaml:"llm" toml:"llm"`
	Dispatch  DispatchConfig  `yaml:"dispatch" toml:"dispatch"`
	Replay    ReplayConfig    `yaml:"replay" toml:"replay"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
}

// DatabaseConfig locates the conversation checkpoint database
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// RecordsConfig locates the member records database used by specialists
type RecordsConfig struct {
	Path string `yaml:"path" toml:"path"`
	// SeedOnStart populates demo data when the records database is empty.
	SeedOnStart bool `yaml:"seed_on_start" toml:"seed_on_start"`

	SearchCacheTTL    time.Duration `yaml:"-" toml:"-"`
	SearchCacheTTLRaw string        `yaml:"search_cache_ttl" toml:"search_cache_ttl"`
}

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

// LLMConfig selects the chat model used by the classifier and specialists
type LLMConfig struct {
	Provider    string   `yaml:"provider" toml:"provider"`
	Model       string   `yaml:"model" toml:"model"`
	APIKey      string   `yaml:"api_key" toml:"api_key"`
	BaseURL     string   `yaml:"base_url" toml:"base_url"`
	Temperature *float64 `yaml:"temperature" toml:"temperature"`
	MaxTokens   int64    `yaml:"max_tokens" toml:"max_tokens"`
}

// Classifier kinds.
const (
	ClassifierLLM     = "llm"
	ClassifierKeyword = "keyword"
)

// DispatchConfig holds turn engine settings
type DispatchConfig struct {
	Classifier string `yaml:"classifier" toml:"classifier"`
	// KeywordFallback is the destination used when no vocabulary matches.
	KeywordFallback string `yaml:"keyword_fallback" toml:"keyword_fallback"`
	MaxSteps        int    `yaml:"max_steps" toml:"max_steps"`

	ClassifyTimeout time.Duration `yaml:"-" toml:"-"`
	HandleTimeout   time.Duration `yaml:"-" toml:"-"`
	CommitTimeout   time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	ClassifyTimeoutRaw string `yaml:"classify_timeout" toml:"classify_timeout"`
	HandleTimeoutRaw   string `yaml:"handle_timeout" toml:"handle_timeout"`
	CommitTimeoutRaw   string `yaml:"commit_timeout" toml:"commit_timeout"`
}

// ReplayConfig bounds the idempotent-retry cache
type ReplayConfig struct {
	MaxEntries int           `yaml:"max_entries" toml:"max_entries"`
	TTL        time.Duration `yaml:"-" toml:"-"`
	TTLRaw     string        `yaml:"ttl" toml:"ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a configuration that runs locally without a model provider.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{HTTPAddr: "127.0.0.1:8080"},
		Database: DatabaseConfig{Path: "./data/switchboard.db"},
		Records: RecordsConfig{
			Path:              "./data/records.db",
			SeedOnStart:       true,
			SearchCacheTTLRaw: "5m",
			SearchCacheTTL:    5 * time.Minute,
		},
		LLM: LLMConfig{Provider: ProviderNone},
		Dispatch: DispatchConfig{
			Classifier:         ClassifierKeyword,
			KeywordFallback:    "tech_support",
			MaxSteps:           6,
			ClassifyTimeoutRaw: "30s",
			HandleTimeoutRaw:   "2m",
			CommitTimeoutRaw:   "10s",
			ClassifyTimeout:    30 * time.Second,
			HandleTimeout:      2 * time.Minute,
			CommitTimeout:      10 * time.Second,
		},
		Replay: ReplayConfig{
			MaxEntries: 1024,
			TTLRaw:     "10m",
			TTL:        10 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Records.Path == "" {
		return fmt.Errorf("records.path is required")
	}
	if c.Records.Path == c.Database.Path {
		return fmt.Errorf("records.path must differ from database.path")
	}

	switch c.LLM.Provider {
	case ProviderNone, "":
		if c.Dispatch.Classifier == ClassifierLLM {
			return fmt.Errorf("dispatch.classifier %q requires an llm.provider", ClassifierLLM)
		}
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %q", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("llm.provider must be one of openai, anthropic, gemini, none (got %q)", c.LLM.Provider)
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 0 || c.LLM.MaxTokens > math.MaxInt32 {
		return fmt.Errorf("llm.max_tokens must be between 0 and %d", math.MaxInt32)
	}

	switch c.Dispatch.Classifier {
	case ClassifierLLM, ClassifierKeyword:
	default:
		return fmt.Errorf("dispatch.classifier must be %q or %q (got %q)", ClassifierLLM, ClassifierKeyword, c.Dispatch.Classifier)
	}
	if c.Dispatch.MaxSteps < 0 {
		return fmt.Errorf("dispatch.max_steps must not be negative")
	}

	if c.Replay.MaxEntries < 0 {
		return fmt.Errorf("replay.max_entries must not be negative")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}

	return nil
}

// ModelEnabled reports whether a chat model provider is configured.
func (c *Config) ModelEnabled() bool {
	return c.LLM.Provider != "" && c.LLM.Provider != ProviderNone
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"records.search_cache_ttl", cfg.Records.SearchCacheTTLRaw, &cfg.Records.SearchCacheTTL},
		{"dispatch.classify_timeout", cfg.Dispatch.ClassifyTimeoutRaw, &cfg.Dispatch.ClassifyTimeout},
		{"dispatch.handle_timeout", cfg.Dispatch.HandleTimeoutRaw, &cfg.Dispatch.HandleTimeout},
		{"dispatch.commit_timeout", cfg.Dispatch.CommitTimeoutRaw, &cfg.Dispatch.CommitTimeout},
		{"replay.ttl", cfg.Replay.TTLRaw, &cfg.Replay.TTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", f.name)
		}
		*f.dst = d
	}

	return nil
}

// DefaultPath returns the config location: $SWITCHBOARD_CONFIG if set,
// otherwise $XDG_CONFIG_HOME/switchboard/switchboard.yaml.
func DefaultPath() string {
	if p := os.Getenv("SWITCHBOARD_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(dir, "switchboard", "switchboard.yaml")
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := Default().Marshal()
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
