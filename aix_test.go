package aix

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/internal/shorttermmemory"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func sse(chunks ...string) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString("data: ")
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	b.WriteString("data: [DONE]\n\n")
	return b.String()
}

var toolCallStream = sse(
	`{"model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_a","type":"function","function":{"name":"clock","arguments":""}}]}}]}`,
	`{"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"tz\":\"UTC\"}"}}]}}]}`,
	`{"model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	`{"model":"gpt-4o","choices":[],"usage":{"prompt_tokens":20,"completion_tokens":8}}`,
)

var answerStream = sse(
	`{"model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":"It is "}}]}`,
	`{"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"noon."}}]}`,
	`{"model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	`{"model":"gpt-4o","choices":[],"usage":{"prompt_tokens":35,"completion_tokens":4}}`,
)

func TestChatGenerate_ToolLoop(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "text/event-stream")
		switch calls.Add(1) {
		case 1:
			assert.Len(t, gjson.GetBytes(body, "messages").Array(), 2)
			_, _ = io.WriteString(w, toolCallStream)
		default:
			msgs := gjson.GetBytes(body, "messages").Array()
			require.Len(t, msgs, 4)
			assert.Equal(t, "call_a", msgs[2].Get("tool_calls.0.id").String())
			assert.Equal(t, "tool", msgs[3].Get("role").String())
			assert.Equal(t, "call_a", msgs[3].Get("tool_call_id").String())
			_, _ = io.WriteString(w, answerStream)
		}
	}))
	t.Cleanup(srv.Close)

	access := api.Access{Dialect: api.DialectOpenAI, Host: srv.URL, APIKey: "sk-test"}
	model := api.Model{ID: "gpt-4o"}
	base := messages.Request{System: []messages.Part{messages.Text("Answer briefly.")}}

	client, err := New(WithTimeout(5 * time.Second))
	require.NoError(t, err)

	conv := shorttermmemory.New()
	conv.AddUser(messages.Text("What time is it?"))

	first := conv.Collect()
	require.NoError(t, client.ChatGenerate(context.Background(), access, model, conv.Request(base), true, first))
	require.NoError(t, first.Err())
	assert.Equal(t, particle.StopToolUse, first.StopReason().Reason)
	toolCalls := first.ToolCalls()
	require.Len(t, toolCalls, 1)
	assert.Equal(t, `{"tz":"UTC"}`, toolCalls[0].Arguments)

	conv.AddToolResults(messages.ToolResult(toolCalls[0].ID, toolCalls[0].Name, "12:00"))

	second := conv.Collect()
	rec := particle.NewRecorder()
	require.NoError(t, client.ChatGenerate(context.Background(), access, model, conv.Request(base), true, particle.Tee(rec, second)))
	assert.Equal(t, "It is noon.", rec.Text())

	assert.Equal(t, 4, conv.Len())
	assert.Equal(t, shorttermmemory.Usage{InputTokens: 55, OutputTokens: 12, Responses: 2}, conv.Usage())
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatGenerate_OllamaNative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"Hel"},"done":false}`+"\n")
		_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"lo"},"done":false}`+"\n")
		_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":4,"eval_count":2}`+"\n")
	}))
	t.Cleanup(srv.Close)

	rec := particle.NewRecorder()
	req := &messages.Request{Turns: []messages.Turn{messages.User(messages.Text("hi"))}}
	err := ChatGenerate(context.Background(),
		api.Access{Dialect: api.DialectOllama, Host: srv.URL, OllamaNative: true},
		api.Model{ID: "llama3.2"}, req, true, rec,
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	assert.Equal(t, "Hello", rec.Text())
	assert.Equal(t, particle.KindEnd, rec.Kinds()[len(rec.Kinds())-1])
}

func TestChatGenerate_DispatchErrors(t *testing.T) {
	req := &messages.Request{Turns: []messages.Turn{messages.User(messages.Text("hi"))}}

	tests := []struct {
		name   string
		access api.Access
		req    *messages.Request
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unknown dialect",
			access: api.Access{Dialect: "cohere"},
			req:    req,
			check: func(t *testing.T, err error) {
				var target *api.DialectNotSupportedError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "cohere", target.Dialect)
			},
		},
		{
			name:   "missing request",
			access: api.Access{Dialect: api.DialectOpenAI},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "chat request is required")
			},
		},
		{
			name:   "unsupported content",
			access: api.Access{Dialect: api.DialectOllama, OllamaNative: true},
			req: &messages.Request{Turns: []messages.Turn{
				messages.User(messages.ImageURL("https://example.test/cat.png")),
			}},
			check: func(t *testing.T, err error) {
				var target *api.UnsupportedContentError
				assert.True(t, errors.As(err, &target))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := particle.NewRecorder()
			err := ChatGenerate(context.Background(), tt.access, api.Model{ID: "m"}, tt.req, true, rec)
			require.Error(t, err)
			tt.check(t, err)

			issues := rec.Issues()
			require.Len(t, issues, 1)
			assert.True(t, issues[0].Terminal)
			assert.Len(t, rec.Particles(), 1, "nothing but the issue is emitted")
		})
	}
}

func TestChatGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	rec := particle.NewRecorder()
	req := &messages.Request{Turns: []messages.Turn{messages.User(messages.Text("hi"))}}
	err := ChatGenerate(context.Background(),
		api.Access{Dialect: api.DialectAnthropic, Host: srv.URL},
		api.Model{ID: "claude-haiku"}, req, true, rec,
		WithTimeout(50*time.Millisecond),
	)
	require.Error(t, err)

	kinds := rec.Kinds()
	require.GreaterOrEqual(t, len(kinds), 2)
	assert.Equal(t, []particle.Kind{particle.KindCancel, particle.KindIssue}, kinds[len(kinds)-2:])
	assert.Equal(t, particle.IssueTimeout, rec.Issues()[0].Class)
}

func TestNew_Options(t *testing.T) {
	client, err := New(WithTimeout(time.Second), WithNoTimeout())
	require.NoError(t, err)
	require.NotNil(t, client)
}
