package api

import "slices"

// Dialect identifies the wire protocol family spoken by a vendor.
type Dialect string

const (
	DialectAnthropic Dialect = "anthropic"
	DialectGemini    Dialect = "gemini"
	DialectOllama    Dialect = "ollama"

	// OpenAI-compatible family. All of these share one wire protocol and differ only in
	// host, auth headers and a handful of unsupported parameters.
	DialectAlibaba    Dialect = "alibaba"
	DialectAzure      Dialect = "azure"
	DialectDeepseek   Dialect = "deepseek"
	DialectGroq       Dialect = "groq"
	DialectLMStudio   Dialect = "lmstudio"
	DialectLocalAI    Dialect = "localai"
	DialectMistral    Dialect = "mistral"
	DialectOpenAI     Dialect = "openai"
	DialectOpenPipe   Dialect = "openpipe"
	DialectOpenRouter Dialect = "openrouter"
	DialectPerplexity Dialect = "perplexity"
	DialectTogetherAI Dialect = "togetherai"
	DialectXAI        Dialect = "xai"
)

// OpenAIFamily lists the dialects that speak the OpenAI chat completions protocol.
var OpenAIFamily = []Dialect{
	DialectAlibaba,
	DialectAzure,
	DialectDeepseek,
	DialectGroq,
	DialectLMStudio,
	DialectLocalAI,
	DialectMistral,
	DialectOpenAI,
	DialectOpenPipe,
	DialectOpenRouter,
	DialectPerplexity,
	DialectTogetherAI,
	DialectXAI,
}

func (d Dialect) String() string {
	return string(d)
}

// IsOpenAIFamily reports whether the dialect speaks the OpenAI chat completions protocol.
func (d Dialect) IsOpenAIFamily() bool {
	return slices.Contains(OpenAIFamily, d)
}

// SafetyLevel is the minimum harm category probability at which Gemini blocks content.
type SafetyLevel string

const (
	SafetyUnspecified   SafetyLevel = "HARM_BLOCK_THRESHOLD_UNSPECIFIED"
	SafetyBlockLowAbove SafetyLevel = "BLOCK_LOW_AND_ABOVE"
	SafetyBlockMedAbove SafetyLevel = "BLOCK_MEDIUM_AND_ABOVE"
	SafetyBlockOnlyHigh SafetyLevel = "BLOCK_ONLY_HIGH"
	SafetyBlockNone     SafetyLevel = "BLOCK_NONE"
	SafetyOff           SafetyLevel = "OFF"
)

// Access carries the endpoint and credential material for one vendor.
// It is owned by the caller and treated as immutable for the duration of a call.
type Access struct {
	Dialect Dialect `json:"dialect" yaml:"dialect"`

	// APIKey is sent the way the dialect expects (bearer token, x-api-key, ...).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// Host overrides the vendor default host. It may include a scheme and a path prefix.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	// OrgID is the OpenAI organization header.
	OrgID string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	// APIVersion is the Azure api-version query parameter or the anthropic-version header.
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`

	// MinSafetyLevel is applied to every Gemini harm category when set.
	MinSafetyLevel SafetyLevel `json:"min_safety_level,omitempty" yaml:"min_safety_level,omitempty"`

	// OllamaJSON asks Ollama to constrain output to JSON.
	OllamaJSON bool `json:"ollama_json,omitempty" yaml:"ollama_json,omitempty"`
	// OllamaNative selects Ollama's /api/chat protocol instead of its OpenAI-compatible endpoint.
	OllamaNative bool `json:"ollama_native,omitempty" yaml:"ollama_native,omitempty"`

	// ExtraHeaders are added to every request after the dialect headers.
	ExtraHeaders map[string]string `json:"extra_headers,omitempty" yaml:"extra_headers,omitempty"`
}
