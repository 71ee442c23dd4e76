package particle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/casualjim/aix/api"
	"github.com/stretchr/testify/assert"
)

func TestIssueFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Issue
	}{
		{
			name: "malformed event is not terminal",
			err:  &api.MalformedEventError{Dialect: api.DialectAnthropic, EventName: "content_block_delta", Reason: "bad json"},
			want: Issue{Class: IssueMalformed, Message: `anthropic: malformed event "content_block_delta": bad json`},
		},
		{
			name: "vendor error carries code and status",
			err:  &api.VendorAPIError{Dialect: api.DialectOpenAI, HTTPStatus: 429, Code: "rate_limit_exceeded", Message: "slow down"},
			want: Issue{
				Class:      IssueVendor,
				Code:       "rate_limit_exceeded",
				Message:    "openai error (http 429) [rate_limit_exceeded]: slow down",
				HTTPStatus: 429,
				Terminal:   true,
			},
		},
		{
			name: "wrapped transport error",
			err:  fmt.Errorf("executing: %w", &api.TransportError{Dialect: api.DialectGemini, HTTPStatus: 502, Err: errors.New("bad gateway")}),
			want: Issue{
				Class:      IssueTransport,
				Message:    "executing: gemini transport: http 502: bad gateway",
				HTTPStatus: 502,
				Terminal:   true,
			},
		},
		{
			name: "timeout",
			err:  &api.TransportError{Dialect: api.DialectOllama, Err: context.DeadlineExceeded},
			want: Issue{Class: IssueTimeout, Message: "ollama transport: context deadline exceeded", Terminal: true},
		},
		{
			name: "anything else",
			err:  errors.New("boom"),
			want: Issue{Class: IssueInternal, Message: "boom", Terminal: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IssueFrom(tt.err))
		})
	}
}

func TestReplay_CoversEveryKind(t *testing.T) {
	all := []Particle{
		Text{Text: "hi"},
		Reasoning{Text: "hmm", Signature: "sig"},
		ToolCallStart{ID: "c1", Name: "lookup"},
		ToolCallArgs{ID: "c1", Fragment: `{"q":`},
		ToolCallEnd{ToolCall: ToolCall{ID: "c1", Name: "lookup", Arguments: `{"q":1}`, Input: map[string]any{"q": float64(1)}}},
		Usage{InputTokens: 3, OutputTokens: 4},
		ModelName{Name: "gpt-4o"},
		StopReason{Reason: StopToolUse, Vendor: "tool_calls"},
		End{},
		Issue{Class: IssueVendor, Message: "overloaded", Terminal: true},
		Cancel{Reason: "user"},
	}

	rec := NewRecorder()
	for _, p := range all {
		Replay(rec, p)
	}
	assert.Equal(t, all, rec.Particles())
}

func TestTee(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	tx := Tee(a, b)

	tx.AppendText("hello")
	tx.StartToolCall("c1", "lookup")
	tx.End()

	want := []Kind{KindText, KindToolCallStart, KindEnd}
	assert.Equal(t, want, a.Kinds())
	assert.Equal(t, want, b.Kinds())
	assert.Equal(t, "hello", b.Text())
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.AppendText("a")
	rec.AppendText("b")
	rec.EndToolCall(ToolCall{ID: "1", Name: "x", Arguments: "{}"})
	rec.SetIssue(Issue{Class: IssueMalformed, Message: "m"})

	assert.Equal(t, "ab", rec.Text())
	assert.Equal(t, []ToolCall{{ID: "1", Name: "x", Arguments: "{}"}}, rec.ToolCalls())
	assert.Len(t, rec.Issues(), 1)

	rec.Reset()
	assert.Empty(t, rec.Particles())
}
