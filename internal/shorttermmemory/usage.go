package shorttermmemory

import "github.com/casualjim/aix/particle"

// Usage sums the token counters of every response folded into an aggregator.
type Usage struct {
	InputTokens      int64 `json:"input_tokens"`
	OutputTokens     int64 `json:"output_tokens"`
	ReasoningTokens  int64 `json:"reasoning_tokens,omitempty"`
	CacheReadTokens  int64 `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens int64 `json:"cache_write_tokens,omitempty"`
	// Responses counts the responses that reported usage.
	Responses int `json:"responses"`
}

// Add folds the final usage of one response into u.
func (u *Usage) Add(p particle.Usage) {
	if p.IsZero() {
		return
	}
	u.InputTokens += p.InputTokens
	u.OutputTokens += p.OutputTokens
	u.ReasoningTokens += p.ReasoningTokens
	u.CacheReadTokens += p.CacheReadTokens
	u.CacheWriteTokens += p.CacheWriteTokens
	u.Responses++
}

// AddUsage adds the counters of other to u.
func (u *Usage) AddUsage(other *Usage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.ReasoningTokens += other.ReasoningTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheWriteTokens += other.CacheWriteTokens
	u.Responses += other.Responses
}

// TotalTokens is the sum of input and output tokens.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}
