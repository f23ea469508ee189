package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables read for API keys
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Credentials holds the API keys for the hosted backends
type Credentials struct {
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`
}

// CredentialListItem represents a key in list format
type CredentialListItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// KeyFor returns the API key for a backend
func (c *Credentials) KeyFor(backend string) string {
	if c == nil {
		return ""
	}
	switch backend {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini", "gemini-rest", "":
		return c.GeminiAPIKey
	}
	return ""
}

// LoadCredentials reads API keys from the environment, falling back to the
// credentials file for keys the environment does not set. A missing file is
// not an error.
func LoadCredentials() (*Credentials, error) {
	creds, err := LoadCredentialsFile()
	if err != nil {
		return nil, err
	}

	if key := firstEnv(EnvGeminiAPIKey, EnvGoogleAPIKey); key != "" {
		creds.GeminiAPIKey = key
	}
	if key := firstEnv(EnvOpenAIAPIKey); key != "" {
		creds.OpenAIAPIKey = key
	}

	return creds, nil
}

// LoadCredentialsFile reads only credentials.json, ignoring the
// environment. A missing file yields empty credentials.
func LoadCredentialsFile() (*Credentials, error) {
	path, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds, err := parseCredentials(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return creds, nil
}

// SetKey stores key for a backend name
func (c *Credentials) SetKey(backend, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	switch backend {
	case "gemini", "gemini-rest":
		c.GeminiAPIKey = key
	case "openai":
		c.OpenAIAPIKey = key
	default:
		return fmt.Errorf("backend %q does not use an API key", backend)
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// parseCredentials parses keys from JSON data.
// Supports both dict format {name: value} and list format [{name, value}],
// with names either as the JSON field or the environment variable name.
func parseCredentials(data []byte) (*Credentials, error) {
	var dictFormat map[string]string
	if err := json.Unmarshal(data, &dictFormat); err == nil {
		creds := &Credentials{}
		for name, value := range dictFormat {
			creds.set(name, value)
		}
		return creds, ValidateCredentials(creds)
	}

	var listFormat []CredentialListItem
	if err := json.Unmarshal(data, &listFormat); err == nil {
		creds := &Credentials{}
		for _, item := range listFormat {
			creds.set(item.Name, item.Value)
		}
		return creds, ValidateCredentials(creds)
	}

	return nil, fmt.Errorf("invalid credentials format: expected dict {name: value} or list [{name, value}]")
}

func (c *Credentials) set(name, value string) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(name) {
	case "gemini_api_key", "google_api_key":
		if c.GeminiAPIKey == "" || strings.EqualFold(name, "gemini_api_key") {
			c.GeminiAPIKey = value
		}
	case "openai_api_key":
		c.OpenAIAPIKey = value
	}
}

// SaveCredentials writes the credentials file with owner-only permissions
func SaveCredentials(creds *Credentials) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	if err := ValidateCredentials(creds); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, "credentials.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// ValidateCredentials checks that at least one key is present
func ValidateCredentials(creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("credentials are nil")
	}
	if creds.GeminiAPIKey == "" && creds.OpenAIAPIKey == "" {
		return fmt.Errorf("no API key found: set %s or %s, or add it to credentials.json", EnvGeminiAPIKey, EnvOpenAIAPIKey)
	}
	return nil
}

// MaskKey hides all but the last four characters of a key
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
