// Package config loads the vendor profiles used by the aix command line.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/dispatch"
	"github.com/casualjim/aix/provider/openai"
	"gopkg.in/yaml.v3"
)

// Config is the content of an aix.yaml file.
type Config struct {
	// Default names the profile used when none is selected.
	Default  string              `yaml:"default"`
	Profiles map[string]*Profile `yaml:"profiles"`
	NATS     NATSConfig          `yaml:"nats"`
}

// Profile binds a vendor endpoint to a model.
type Profile struct {
	Access api.Access `yaml:"access"`
	Model  api.Model  `yaml:"model"`
	// System is the instruction sent with every request of the profile.
	System string `yaml:"system"`
	// Stream defaults to true.
	Stream *bool `yaml:"stream"`
}

// Streaming reports whether the profile asks for a streamed response.
func (p *Profile) Streaming() bool {
	return p.Stream == nil || *p.Stream
}

// NATSConfig enables publishing particles to NATS when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// DefaultSubject is the NATS subject prefix used when none is configured.
const DefaultSubject = "aix.particles"

// Load reads and parses the YAML config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, expands environment references and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	cfg.expand()
	cfg.applyPresets()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadWithDefaults loads the first config found in ./aix.yaml, ./configs/aix.yaml,
// ~/.config/aix/aix.yaml and /etc/aix/aix.yaml. Without a config file, profiles are
// derived from the vendor API keys in the environment.
func LoadWithDefaults() (*Config, error) {
	locations := []string{
		"./aix.yaml",
		"./configs/aix.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".config", "aix", "aix.yaml"))
	}
	locations = append(locations, "/etc/aix/aix.yaml")

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return Load(loc)
		}
	}
	return FromEnv(), nil
}

// envProfiles are the profiles FromEnv offers, in order of preference for the default.
var envProfiles = []struct {
	name    string
	key     string
	dialect api.Dialect
	model   string
}{
	{"anthropic", "ANTHROPIC_API_KEY", api.DialectAnthropic, "claude-sonnet-4-5"},
	{"openai", "OPENAI_API_KEY", api.DialectOpenAI, "gpt-4.1"},
	{"gemini", "GEMINI_API_KEY", api.DialectGemini, "gemini-2.5-flash"},
	{"mistral", "MISTRAL_API_KEY", api.DialectMistral, "mistral-large-latest"},
	{"groq", "GROQ_API_KEY", api.DialectGroq, "llama-3.3-70b-versatile"},
	{"deepseek", "DEEPSEEK_API_KEY", api.DialectDeepseek, "deepseek-chat"},
	{"openrouter", "OPENROUTER_API_KEY", api.DialectOpenRouter, "openai/gpt-4.1"},
	{"xai", "XAI_API_KEY", api.DialectXAI, "grok-3"},
}

// FromEnv builds a config with one profile per vendor API key found in the environment,
// plus a local ollama profile.
func FromEnv() *Config {
	cfg := &Config{
		Profiles: make(map[string]*Profile),
		NATS:     NATSConfig{URL: os.Getenv("NATS_URL")},
	}
	for _, p := range envProfiles {
		key := os.Getenv(p.key)
		if key == "" {
			continue
		}
		cfg.Profiles[p.name] = &Profile{
			Access: api.Access{Dialect: p.dialect, APIKey: key},
			Model:  api.Model{ID: p.model},
		}
		if cfg.Default == "" {
			cfg.Default = p.name
		}
	}
	cfg.Profiles["ollama"] = &Profile{
		Access: api.Access{Dialect: api.DialectOllama, Host: os.Getenv("OLLAMA_HOST")},
		Model:  api.Model{ID: "llama3.2"},
	}
	if cfg.Default == "" {
		cfg.Default = "ollama"
	}
	cfg.applyPresets()
	return cfg
}

func (c *Config) applyPresets() {
	for _, p := range c.Profiles {
		if p != nil {
			p.Model = ApplyPreset(p.Access, p.Model)
		}
	}
}

// ApplyPreset fills the Responses API and reasoning effort flags of well known OpenAI
// models. A model that already sets either flag is returned unchanged.
func ApplyPreset(access api.Access, model api.Model) api.Model {
	if access.Dialect != api.DialectOpenAI || model.ResponsesAPI || model.ReasoningEffort != "" {
		return model
	}
	preset, ok := openai.Preset(model.ID)
	if !ok {
		return model
	}
	model.ResponsesAPI = preset.ResponsesAPI
	model.ReasoningEffort = preset.ReasoningEffort
	return model
}

func (c *Config) expand() {
	for _, p := range c.Profiles {
		if p == nil {
			continue
		}
		p.Access.APIKey = ExpandEnv(p.Access.APIKey)
		p.Access.Host = ExpandEnv(p.Access.Host)
		p.Access.OrgID = ExpandEnv(p.Access.OrgID)
		p.Access.ExtraHeaders = ExpandEnvMap(p.Access.ExtraHeaders)
		p.System = ExpandEnv(p.System)
	}
	c.NATS.URL = ExpandEnv(c.NATS.URL)
}

// Validate checks config correctness
func (c *Config) Validate() error {
	for _, name := range c.Names() {
		p := c.Profiles[name]
		if p == nil {
			return fmt.Errorf("profile %s: empty profile", name)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
	}
	if c.Default != "" {
		if _, ok := c.Profiles[c.Default]; !ok {
			return fmt.Errorf("default profile %q is not defined", c.Default)
		}
	}
	return nil
}

// Validate checks a single profile
func (p *Profile) Validate() error {
	if p.Access.Dialect == "" {
		return fmt.Errorf("access.dialect is required")
	}
	if _, ok := dispatch.Lookup(p.Access.Dialect); !ok {
		return &api.DialectNotSupportedError{Dialect: string(p.Access.Dialect)}
	}
	if p.Model.ID == "" {
		return fmt.Errorf("model.id is required")
	}
	return nil
}

// Names returns the profile names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Profile returns the named profile, or the default one when name is empty.
func (c *Config) Profile(name string) (*Profile, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" {
		if len(c.Profiles) == 1 {
			return c.Profiles[c.Names()[0]], nil
		}
		return nil, fmt.Errorf("no profile selected and no default profile configured")
	}
	p, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (have %v)", name, c.Names())
	}
	return p, nil
}
