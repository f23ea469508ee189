// Package config handles configuration, deployment variants and credentials
// for neurovine.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HomeEnv overrides the configuration directory
const HomeEnv = "NEUROVINE_HOME"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`        // Enable word wrap in table cells
}

// Config represents the user configuration
type Config struct {
	// Backend selects the completion provider: gemini, gemini-rest, openai or echo.
	Backend string `json:"backend"`
	// Variant names the deployment variant (persona, greeting and fallbacks).
	// When empty the variants file's default_variant applies.
	Variant string `json:"variant,omitempty"`
	// Model overrides the variant's model when set.
	Model string `json:"model,omitempty"`
	// RequestTimeout bounds one completion call, in seconds.
	RequestTimeout  int            `json:"request_timeout"`
	GeminiBaseURL   string         `json:"gemini_base_url,omitempty"`
	OpenAIBaseURL   string         `json:"openai_base_url,omitempty"`
	LogLevel        string         `json:"log_level"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	Markdown        MarkdownConfig `json:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Backend:         "gemini",
		RequestTimeout:  60,
		LogLevel:        "warn",
		CopyToClipboard: false,
		Markdown:        DefaultMarkdownConfig(),
	}
}

// Timeout returns RequestTimeout as a duration
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// BaseURL returns the configured API host for a backend, if any
func (c Config) BaseURL(backend string) string {
	switch backend {
	case "openai":
		return c.OpenAIBaseURL
	case "gemini", "gemini-rest":
		return c.GeminiBaseURL
	}
	return ""
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".neurovine"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds credentials
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

func pathInConfigDir(name string) (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, name), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	return pathInConfigDir("config.json")
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	return pathInConfigDir("credentials.json")
}

// GetLogPath returns the path of the log file used while the TUI is running
func GetLogPath() (string, error) {
	return pathInConfigDir("neurovine.log")
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
