// Package config loads termchat settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAPIKey       = "TERMCHAT_API_KEY"
	EnvEndpoint     = "TERMCHAT_ENDPOINT"
	EnvModel        = "TERMCHAT_MODEL"
	EnvSystemPrompt = "TERMCHAT_SYSTEM_PROMPT"
	EnvTimeout      = "TERMCHAT_TIMEOUT"
	EnvLogFile      = "TERMCHAT_LOG_FILE"
	EnvLogLevel     = "TERMCHAT_LOG_LEVEL"
	EnvConfigFile   = "TERMCHAT_CONFIG"
)

// Defaults used when neither the environment nor the file set a value.
const (
	DefaultEndpoint     = "https://api.openai.com/v1/chat/completions"
	DefaultModel        = "gpt-3.5-turbo"
	DefaultSystemPrompt = "You are a helpful assistant"
)

// ErrMissingAPIKey is returned by Validate when no credential is configured.
var ErrMissingAPIKey = fmt.Errorf("missing API key: set %s", EnvAPIKey)

// Config holds all configuration values.
type Config struct {
	// Credential, only ever read from the environment.
	APIKey string

	// Endpoint and conversation
	Endpoint     string
	Model        string
	SystemPrompt string

	// Timeout for one request; zero leaves the transport default.
	Timeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// ConfigFile is the YAML file that was consulted (it may not exist).
	ConfigFile string
}

// fileConfig is the YAML file layout.
type fileConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
	Timeout      string `yaml:"timeout"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`
}

// Load reads configuration. Values resolve in order:
// environment variable > config file > default.
func Load() (Config, error) {
	path := getEnv(EnvConfigFile, defaultConfigPath())

	file, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	timeout, err := parseTimeout(getEnv(EnvTimeout, file.Timeout))
	if err != nil {
		return Config{}, err
	}

	return Config{
		APIKey: os.Getenv(EnvAPIKey),

		Endpoint:     getEnv(EnvEndpoint, orDefault(file.Endpoint, DefaultEndpoint)),
		Model:        getEnv(EnvModel, orDefault(file.Model, DefaultModel)),
		SystemPrompt: getEnv(EnvSystemPrompt, orDefault(file.SystemPrompt, DefaultSystemPrompt)),

		Timeout: timeout,

		LogFile:  getEnv(EnvLogFile, file.LogFile),
		LogLevel: parseLogLevel(getEnv(EnvLogLevel, orDefault(file.LogLevel, "WARN"))),

		ConfigFile: path,
	}, nil
}

// Validate reports settings that make starting a session impossible.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// MaskedAPIKey returns the key with all but the last four characters hidden.
func (c Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return "(not set)"
	}
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", 8) + c.APIKey[len(c.APIKey)-4:]
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "termchat", "config.yaml")
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", s)
	}
	return d, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func orDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
