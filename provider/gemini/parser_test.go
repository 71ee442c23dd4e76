package gemini

import (
	"testing"

	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, model string, events ...string) (*particle.Recorder, provider.Parser) {
	t.Helper()
	rec := particle.NewRecorder()
	p := NewParser(model)
	for _, ev := range events {
		_ = p.ParseEvent(rec, "", []byte(ev))
	}
	return rec, p
}

func TestParser_MergesTextAcrossEvents(t *testing.T) {
	rec, p := feed(t, "models/gemini-2.5-flash",
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hel"}]},"index":0}],"usageMetadata":{"promptTokenCount":4},"modelVersion":"gemini-2.5-flash-001"}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"lo"}]},"index":0}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":2}}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"!"}]},"finishReason":"STOP","index":0}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":3,"totalTokenCount":7}}`,
	)

	assert.True(t, p.Done())
	assert.Equal(t, []particle.Particle{
		particle.ModelName{Name: "gemini-2.5-flash-001"},
		particle.Text{Text: "Hello!"},
		particle.Usage{InputTokens: 4, OutputTokens: 3},
		particle.StopReason{Reason: particle.StopEndTurn, Vendor: "STOP"},
		particle.End{},
	}, rec.Particles())
}

func TestParser_ThoughtsTextAndFunctionCalls(t *testing.T) {
	rec, _ := feed(t, "models/gemini-2.5-pro",
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"hmm","thought":true}]}}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Calling."},{"functionCall":{"name":"lookup","args":{"query":"go"}}}]}}]}`,
		`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"clock"}}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"thoughtsTokenCount":7}}`,
	)

	assert.Equal(t, []particle.Particle{
		particle.ModelName{Name: "gemini-2.5-pro"},
		particle.Reasoning{Text: "hmm"},
		particle.Text{Text: "Calling."},
		particle.ToolCallStart{ID: "call_0", Name: "lookup"},
		particle.ToolCallArgs{ID: "call_0", Fragment: `{"query":"go"}`},
		particle.ToolCallEnd{ToolCall: particle.ToolCall{
			ID: "call_0", Name: "lookup", Arguments: `{"query":"go"}`, Input: map[string]any{"query": "go"},
		}},
		particle.ToolCallStart{ID: "call_1", Name: "clock"},
		particle.ToolCallEnd{ToolCall: particle.ToolCall{
			ID: "call_1", Name: "clock", Arguments: "{}", Input: map[string]any{},
		}},
		particle.Usage{InputTokens: 10, OutputTokens: 12, ReasoningTokens: 7},
		particle.StopReason{Reason: particle.StopToolUse, Vendor: "STOP"},
		particle.End{},
	}, rec.Particles())
}

func TestParser_Deterministic(t *testing.T) {
	events := []string{
		`{"candidates":[{"content":{"parts":[{"text":"a","thought":true,"thoughtSignature":"sig"}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":"b"}]},"finishReason":"MAX_TOKENS"}]}`,
	}
	first, _ := feed(t, "m", events...)
	second, _ := feed(t, "m", events...)
	assert.Equal(t, first.Particles(), second.Particles())
	assert.Contains(t, first.Particles(), particle.Particle(particle.Reasoning{Text: "a", Signature: "sig"}))
	assert.Contains(t, first.Particles(), particle.Particle(particle.StopReason{Reason: particle.StopMaxTokens, Vendor: "MAX_TOKENS"}))
}

func TestParser_VendorIssues(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		code   string
		status int
	}{
		{name: "prompt blocked", event: `{"promptFeedback":{"blockReason":"SAFETY"}}`, code: "SAFETY"},
		{name: "error", event: `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, code: "RESOURCE_EXHAUSTED", status: 429},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, p := feed(t, "m",
				`{"candidates":[{"content":{"parts":[{"text":"lost"}]}}]}`,
				tt.event,
				`{"candidates":[{"content":{"parts":[{"text":"ignored"}]},"finishReason":"STOP"}]}`,
			)
			assert.True(t, p.Done())
			assert.Empty(t, rec.Text())
			issues := rec.Issues()
			require.Len(t, issues, 1)
			assert.Equal(t, particle.IssueVendor, issues[0].Class)
			assert.Equal(t, tt.code, issues[0].Code)
			assert.Equal(t, tt.status, issues[0].HTTPStatus)
			assert.True(t, issues[0].Terminal)
		})
	}
}

func TestParser_MalformedEventIsRecoverable(t *testing.T) {
	rec, p := feed(t, "m",
		`{"candidates":[{"content":{"parts":[{"text":"a"}]}}]}`,
		`{"candidates":[`,
		`{"candidates":[{"content":{"parts":[{"text":"b"}]},"finishReason":"STOP"}]}`,
	)
	assert.True(t, p.Done())
	assert.Equal(t, "ab", rec.Text())
	require.Len(t, rec.Issues(), 1)
	assert.False(t, rec.Issues()[0].Terminal)
}

func TestParser_CompleteWithoutFinishReason(t *testing.T) {
	rec, p := feed(t, "m", `{"candidates":[{"content":{"parts":[{"text":"half"}]}}]}`)

	err := p.Complete(rec)
	require.ErrorIs(t, err, provider.ErrIncomplete)
	assert.Empty(t, rec.Text())
}

func TestParser_ParseFullResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "object",
			body: `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi "},{"text":"there"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":2},"modelVersion":"gemini-2.0-flash"}`,
		},
		{
			name: "array",
			body: `[{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi "}]}}],"modelVersion":"gemini-2.0-flash"},{"candidates":[{"content":{"role":"model","parts":[{"text":"there"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":2,"candidatesTokenCount":2}}]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := particle.NewRecorder()
			p := NewParser("gemini-2.0-flash")
			require.NoError(t, p.ParseFullResponse(rec, []byte(tt.body)))
			assert.Equal(t, []particle.Particle{
				particle.ModelName{Name: "gemini-2.0-flash"},
				particle.Text{Text: "Hi there"},
				particle.Usage{InputTokens: 2, OutputTokens: 2},
				particle.StopReason{Reason: particle.StopEndTurn, Vendor: "STOP"},
				particle.End{},
			}, rec.Particles())
		})
	}
}
