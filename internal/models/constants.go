// Package models contains model names, endpoints and response types for the
// completion backends.
package models

import "strings"

// Endpoints for the supported providers
const (
	EndpointGeminiAPI = "https://generativelanguage.googleapis.com"
	EndpointOpenAI    = "https://api.openai.com/v1"

	// GeminiAPIVersion is the REST version used by the REST backend.
	GeminiAPIVersion = "v1beta"
)

// Provider names the API family a model belongs to
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderLocal  Provider = "local"
)

// Model describes a model the assistant can be pointed at
type Model struct {
	Name        string
	Provider    Provider
	Description string
}

// Available models
var (
	ModelGemini3FlashPreview = Model{
		Name:        "gemini-3-flash-preview",
		Provider:    ProviderGemini,
		Description: "Fast preview model used by the hosted widget",
	}

	ModelGemini25Flash = Model{
		Name:        "gemini-2.5-flash",
		Provider:    ProviderGemini,
		Description: "Stable fast model",
	}

	ModelGemini25Pro = Model{
		Name:        "gemini-2.5-pro",
		Provider:    ProviderGemini,
		Description: "Stable high quality model",
	}

	ModelGPT4oMini = Model{
		Name:        "gpt-4o-mini",
		Provider:    ProviderOpenAI,
		Description: "OpenAI small model",
	}

	ModelEcho = Model{
		Name:        "echo",
		Provider:    ProviderLocal,
		Description: "Offline echo backend",
	}

	// DefaultModel is the model used when neither the variant nor the
	// configuration names one
	DefaultModel = ModelGemini3FlashPreview
)

// AllModels returns the list of known models
func AllModels() []Model {
	return []Model{
		ModelGemini3FlashPreview,
		ModelGemini25Flash,
		ModelGemini25Pro,
		ModelGPT4oMini,
		ModelEcho,
	}
}

// ModelFromName returns a known model, or an ad-hoc entry whose provider is
// guessed from the name.
func ModelFromName(name string) Model {
	for _, m := range AllModels() {
		if m.Name == name {
			return m
		}
	}

	provider := ProviderOpenAI
	if strings.HasPrefix(name, "gemini") || strings.HasPrefix(name, "models/gemini") {
		provider = ProviderGemini
	}
	return Model{Name: name, Provider: provider}
}

// DefaultHeaders returns the headers sent with REST generate requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "neurovine-assistant/1.0",
	}
}
