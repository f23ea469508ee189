package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neurovine/assistant/internal/chat"
	"github.com/neurovine/assistant/internal/models"
)

// DefaultVariantName is used when the configuration names no variant
const DefaultVariantName = "neurovine"

// DefaultTemperature applies to variants that do not set one
const DefaultTemperature float32 = 0.7

// Variant is a deployment configuration of the assistant: persona
// instruction, greeting, fallback strings, temperature and model.
type Variant struct {
	Name               string   `yaml:"name" json:"name"`
	Description        string   `yaml:"description,omitempty" json:"description,omitempty"`
	SystemInstruction  string   `yaml:"system_instruction,omitempty" json:"system_instruction,omitempty"`
	Greeting           string   `yaml:"greeting" json:"greeting"`
	EmptyReplyFallback string   `yaml:"empty_reply_fallback,omitempty" json:"empty_reply_fallback,omitempty"`
	ErrorFallback      string   `yaml:"error_fallback,omitempty" json:"error_fallback,omitempty"`
	Temperature        *float32 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	Model              string   `yaml:"model,omitempty" json:"model,omitempty"`
}

// VariantConfig stores all variants
type VariantConfig struct {
	Variants       []Variant `yaml:"variants" json:"variants"`
	DefaultVariant string    `yaml:"default_variant,omitempty" json:"default_variant,omitempty"`
}

// Generic fallbacks for user variants that leave them out
const (
	genericEmptyReply = "I didn't get a reply. Please try asking again."
	genericError      = "Something went wrong reaching the assistant. Please try again."
)

func temperature(v float32) *float32 {
	return &v
}

// BuiltinVariants returns the pre-configured variants
func BuiltinVariants() []Variant {
	return []Variant{
		{
			Name:        "neurovine",
			Description: "NeuroVine neural interface assistant",
			SystemInstruction: "You are the NeuroVine Neural Assistant (Year 2080). " +
				"You represent a high-tech BCI company. " +
				"Tone: Professional, visionary, slightly detached but helpful. " +
				"Use terms like 'neural sync', 'synaptic packets', and 'capability access'. " +
				"Highlight that education is now 'access rights'. " +
				"Keep responses concise (max 3 sentences). " +
				"Refer to PLOS ONE and PubMed research if asked about scientific validity.",
			Greeting: "Welcome to NeuroVine Infrastructure. I am your Neural Interface Assistant. " +
				"How can I help you navigate our capability brokerage platform today?",
			EmptyReplyFallback: "Neural link latency detected. Please repeat your query.",
			ErrorFallback:      "Neural sync interrupted. Check your bio-mesh connection.",
			Temperature:        temperature(DefaultTemperature),
			Model:              models.ModelGemini3FlashPreview.Name,
		},
		{
			Name:               "plain",
			Description:        "Neutral assistant without a persona",
			SystemInstruction:  "You are a helpful assistant. Keep answers short and accurate.",
			Greeting:           "Hi! How can I help you today?",
			EmptyReplyFallback: genericEmptyReply,
			ErrorFallback:      genericError,
			Temperature:        temperature(DefaultTemperature),
		},
	}
}

// EffectiveTemperature returns the variant's temperature or the default
func (v Variant) EffectiveTemperature() float32 {
	if v.Temperature == nil {
		return DefaultTemperature
	}
	return *v.Temperature
}

// Profile converts the variant into the controller's profile. A non-empty
// model overrides the variant's own.
func (v Variant) Profile(model string) chat.Profile {
	if model == "" {
		model = v.Model
	}
	if model == "" {
		model = models.DefaultModel.Name
	}
	return chat.Profile{
		Greeting:           v.Greeting,
		SystemInstruction:  v.SystemInstruction,
		Temperature:        v.EffectiveTemperature(),
		Model:              model,
		EmptyReplyFallback: v.EmptyReplyFallback,
		ErrorFallback:      v.ErrorFallback,
	}
}

// withDefaults fills the optional strings of a user variant
func (v Variant) withDefaults() Variant {
	if v.EmptyReplyFallback == "" {
		v.EmptyReplyFallback = genericEmptyReply
	}
	if v.ErrorFallback == "" {
		v.ErrorFallback = genericError
	}
	return v
}

// GetVariantsPaths returns the YAML and JSON variants file paths, in
// lookup order
func GetVariantsPaths() ([]string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(configDir, "variants.yaml"),
		filepath.Join(configDir, "variants.yml"),
		filepath.Join(configDir, "variants.json"),
	}, nil
}

// ParseVariants decodes a variants file. JSON is chosen by the ".json"
// extension, anything else is read as YAML.
func ParseVariants(data []byte, path string) (*VariantConfig, error) {
	var cfg VariantConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse variants: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse variants: %w", err)
		}
	}

	for i, v := range cfg.Variants {
		v = v.withDefaults()
		if err := ValidateVariant(v); err != nil {
			return nil, fmt.Errorf("%s: variant %q: %w", filepath.Base(path), v.Name, err)
		}
		cfg.Variants[i] = v
	}
	return &cfg, nil
}

// LoadVariants loads the built-in variants merged with the user's file
func LoadVariants() (*VariantConfig, error) {
	paths, err := GetVariantsPaths()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read variants: %w", err)
		}

		cfg, err := ParseVariants(data, path)
		if err != nil {
			return nil, err
		}
		cfg.Variants = mergeVariants(BuiltinVariants(), cfg.Variants)
		return cfg, nil
	}

	return &VariantConfig{
		Variants:       BuiltinVariants(),
		DefaultVariant: DefaultVariantName,
	}, nil
}

// SaveVariants writes the user variants as YAML
func SaveVariants(cfg *VariantConfig) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}

	return os.WriteFile(filepath.Join(configDir, "variants.yaml"), data, 0o600)
}

// DefaultName returns the variant used when nothing names one: the file's
// default_variant, else DefaultVariantName.
func (c *VariantConfig) DefaultName() string {
	if c.DefaultVariant != "" {
		return c.DefaultVariant
	}
	return DefaultVariantName
}

// Find returns a variant by name. An empty name selects DefaultName.
func (c *VariantConfig) Find(name string) (Variant, error) {
	if name == "" {
		name = c.DefaultName()
	}
	for _, v := range c.Variants {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("variant '%s' not found (available: %s)", name, strings.Join(c.Names(), ", "))
}

// Names returns the variant names sorted alphabetically
func (c *VariantConfig) Names() []string {
	names := make([]string, len(c.Variants))
	for i, v := range c.Variants {
		names[i] = v.Name
	}
	sort.Strings(names)
	return names
}

func mergeVariants(builtins, custom []Variant) []Variant {
	result := make([]Variant, len(builtins))
	copy(result, builtins)

	for _, cv := range custom {
		found := false
		for i, bv := range result {
			if bv.Name == cv.Name {
				result[i] = cv
				found = true
				break
			}
		}
		if !found {
			result = append(result, cv)
		}
	}

	return result
}

// Validation constants
const (
	MaxNameLength        = 50
	MaxDescriptionLength = 200
	MaxInstructionLength = 32 * 1024 // 32KB
	MaxTemperature       = 2.0
)

// ValidateVariant validates a variant's fields
func ValidateVariant(v Variant) error {
	fieldErrors := make(map[string]string)

	if v.Name == "" {
		fieldErrors["name"] = "name is required"
	} else if len(v.Name) > MaxNameLength {
		fieldErrors["name"] = fmt.Sprintf("name too long (max %d characters)", MaxNameLength)
	} else if !isValidVariantName(v.Name) {
		fieldErrors["name"] = "name must contain only alphanumeric characters, underscores, and hyphens"
	}

	if len(v.Description) > MaxDescriptionLength {
		fieldErrors["description"] = fmt.Sprintf("description too long (max %d characters)", MaxDescriptionLength)
	}

	if len(v.SystemInstruction) > MaxInstructionLength {
		fieldErrors["system_instruction"] = fmt.Sprintf("system instruction too long (max %d characters)", MaxInstructionLength)
	}

	if strings.TrimSpace(v.Greeting) == "" {
		fieldErrors["greeting"] = "greeting is required"
	}
	if strings.TrimSpace(v.EmptyReplyFallback) == "" {
		fieldErrors["empty_reply_fallback"] = "empty reply fallback is required"
	}
	if strings.TrimSpace(v.ErrorFallback) == "" {
		fieldErrors["error_fallback"] = "error fallback is required"
	}

	if v.Temperature != nil && (*v.Temperature < 0 || *v.Temperature > MaxTemperature) {
		fieldErrors["temperature"] = fmt.Sprintf("temperature must be between 0 and %.0f", MaxTemperature)
	}

	if len(fieldErrors) > 0 {
		return fmt.Errorf("validation failed: %v", fieldErrors)
	}

	return nil
}

func isValidVariantName(name string) bool {
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
