package api

// Model describes the target model and the capabilities the caller has vouched for.
// Adapters only send a vendor parameter when the corresponding field is set here, so a
// zero Model produces the most conservative request body for every dialect.
type Model struct {
	// ID is the vendor model identifier, e.g. "claude-sonnet-4-5" or "models/gemini-2.5-pro".
	ID string `json:"id" yaml:"id"`

	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	// ResponsesAPI routes OpenAI-family models to the /v1/responses endpoint.
	ResponsesAPI bool `json:"responses_api,omitempty" yaml:"responses_api,omitempty"`
	// ReasoningEffort is forwarded to OpenAI reasoning models ("low", "medium", "high").
	ReasoningEffort string `json:"reasoning_effort,omitempty" yaml:"reasoning_effort,omitempty"`

	// AnthropicThinkingBudget enables extended thinking with the given token budget.
	AnthropicThinkingBudget *int `json:"anthropic_thinking_budget,omitempty" yaml:"anthropic_thinking_budget,omitempty"`

	// GeminiShowThoughts asks Gemini to include thought summaries in the output.
	GeminiShowThoughts bool `json:"gemini_show_thoughts,omitempty" yaml:"gemini_show_thoughts,omitempty"`
	// GeminiThinkingBudget caps the thinking tokens; 0 disables thinking.
	GeminiThinkingBudget *int `json:"gemini_thinking_budget,omitempty" yaml:"gemini_thinking_budget,omitempty"`
}

// UsesGeminiThinking reports whether the request needs Gemini's thinking configuration.
func (m Model) UsesGeminiThinking() bool {
	return m.GeminiShowThoughts || m.GeminiThinkingBudget != nil
}
