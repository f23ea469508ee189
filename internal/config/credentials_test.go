package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvGeminiAPIKey, "")
	t.Setenv(EnvGoogleAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")
}

func TestLoadCredentials_Env(t *testing.T) {
	useTempHome(t)
	clearKeyEnv(t)
	t.Setenv(EnvGoogleAPIKey, "google-key")
	t.Setenv(EnvOpenAIAPIKey, "sk-openai")

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds.KeyFor("gemini") != "google-key" {
		t.Errorf("KeyFor(gemini) = %q", creds.KeyFor("gemini"))
	}
	if creds.KeyFor("gemini-rest") != "google-key" {
		t.Errorf("KeyFor(gemini-rest) = %q", creds.KeyFor("gemini-rest"))
	}
	if creds.KeyFor("openai") != "sk-openai" {
		t.Errorf("KeyFor(openai) = %q", creds.KeyFor("openai"))
	}
	if creds.KeyFor("echo") != "" {
		t.Error("echo backend needs no key")
	}

	t.Setenv(EnvGeminiAPIKey, "gemini-key")
	creds, _ = LoadCredentials()
	if creds.GeminiAPIKey != "gemini-key" {
		t.Errorf("GEMINI_API_KEY should win over GOOGLE_API_KEY, got %q", creds.GeminiAPIKey)
	}
}

func TestLoadCredentials_NoFileNoEnv(t *testing.T) {
	useTempHome(t)
	clearKeyEnv(t)

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds.GeminiAPIKey != "" || creds.OpenAIAPIKey != "" {
		t.Errorf("Expected empty credentials, got %+v", creds)
	}
}

func TestLoadCredentials_FileFormats(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantGemini string
		wantOpenAI string
	}{
		{"dict", `{"gemini_api_key": "g1", "openai_api_key": "o1"}`, "g1", "o1"},
		{"dict env names", `{"GOOGLE_API_KEY": "g2"}`, "g2", ""},
		{"list", `[{"name": "GEMINI_API_KEY", "value": " g3 "}, {"name": "OPENAI_API_KEY", "value": "o3"}]`, "g3", "o3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := useTempHome(t)
			clearKeyEnv(t)
			if err := os.MkdirAll(dir, 0o700); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "credentials.json"), []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}

			creds, err := LoadCredentials()
			if err != nil {
				t.Fatalf("LoadCredentials() error = %v", err)
			}
			if creds.GeminiAPIKey != tt.wantGemini || creds.OpenAIAPIKey != tt.wantOpenAI {
				t.Errorf("creds = %+v", creds)
			}
		})
	}
}

func TestLoadCredentials_EnvOverridesFile(t *testing.T) {
	dir := useTempHome(t)
	clearKeyEnv(t)
	_ = os.MkdirAll(dir, 0o700)
	_ = os.WriteFile(filepath.Join(dir, "credentials.json"), []byte(`{"gemini_api_key":"file"}`), 0o600)
	t.Setenv(EnvGeminiAPIKey, "env")

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds.GeminiAPIKey != "env" {
		t.Errorf("GeminiAPIKey = %q, want env", creds.GeminiAPIKey)
	}
}

func TestLoadCredentialsFile_IgnoresEnv(t *testing.T) {
	dir := useTempHome(t)
	clearKeyEnv(t)
	t.Setenv(EnvOpenAIAPIKey, "env-openai")

	creds, err := LoadCredentialsFile()
	if err != nil {
		t.Fatalf("LoadCredentialsFile() error = %v", err)
	}
	if creds.OpenAIAPIKey != "" || creds.GeminiAPIKey != "" {
		t.Errorf("expected empty credentials without a file, got %+v", creds)
	}

	_ = os.MkdirAll(dir, 0o700)
	_ = os.WriteFile(filepath.Join(dir, "credentials.json"), []byte(`{"gemini_api_key":"file"}`), 0o600)

	creds, err = LoadCredentialsFile()
	if err != nil {
		t.Fatalf("LoadCredentialsFile() error = %v", err)
	}
	if creds.GeminiAPIKey != "file" || creds.OpenAIAPIKey != "" {
		t.Errorf("got %+v, want only the file's gemini key", creds)
	}
}

func TestCredentials_SetKey(t *testing.T) {
	tests := []struct {
		backend string
		key     string
		wantErr bool
		gemini  string
		openai  string
	}{
		{"gemini", " g-key ", false, "g-key", ""},
		{"gemini-rest", "g-key", false, "g-key", ""},
		{"openai", "sk-key", false, "", "sk-key"},
		{"openai", "  ", true, "", ""},
		{"echo", "x", true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.backend+"/"+tt.key, func(t *testing.T) {
			var c Credentials
			err := c.SetKey(tt.backend, tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if c.GeminiAPIKey != tt.gemini || c.OpenAIAPIKey != tt.openai {
				t.Errorf("got %+v", c)
			}
		})
	}
}

func TestParseCredentials_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "key=value"},
		{"no keys", `{"other": "x"}`},
		{"empty list", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseCredentials([]byte(tt.data)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestSaveCredentials(t *testing.T) {
	dir := useTempHome(t)
	clearKeyEnv(t)

	if err := SaveCredentials(&Credentials{}); err == nil {
		t.Error("Expected error saving empty credentials")
	}

	if err := SaveCredentials(&Credentials{GeminiAPIKey: "saved"}); err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}

	creds, _ := LoadCredentials()
	if creds.GeminiAPIKey != "saved" {
		t.Errorf("GeminiAPIKey = %q", creds.GeminiAPIKey)
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":               "(not set)",
		"abc":            "****",
		"AIzaSyExample1": "********ple1",
	}
	for in, want := range tests {
		if got := MaskKey(in); got != want {
			t.Errorf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}
