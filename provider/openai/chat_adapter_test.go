package openai

import (
	"testing"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/casualjim/aix/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type searchArgs struct {
	Query string `json:"query" jsonschema:"required,description=What to search for"`
	Limit int    `json:"limit,omitempty"`
}

func conversation() *messages.Request {
	return &messages.Request{
		System: []messages.Part{messages.Text("Be helpful.")},
		Turns: []messages.Turn{
			messages.User(messages.Text("find go tutorials"), messages.InlineImage("image/jpeg", []byte("jpg"))),
			messages.Assistant(messages.Text("searching"), messages.ToolCall("call_1", "search", `{"query":"go"}`)),
			messages.Tool(messages.ToolResult("call_1", "search", "3 results")),
			messages.User(messages.Document("notes.txt", "text/plain", "prefer video")),
		},
		Tools: []tool.Definition{tool.MustFor[searchArgs](tool.Name("search"), tool.Description("Search the web"))},
	}
}

func TestAdaptChat(t *testing.T) {
	temp := 0.2
	maxTokens := 512
	req := conversation()

	body, err := AdaptChat(api.Access{Dialect: api.DialectOpenAI}, api.Model{ID: "gpt-4o", Temperature: &temp, MaxTokens: &maxTokens}, req, true)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", gjson.GetBytes(body, "model").String())
	assert.True(t, gjson.GetBytes(body, "stream").Bool())
	assert.True(t, gjson.GetBytes(body, "stream_options.include_usage").Bool())
	assert.InDelta(t, 0.2, gjson.GetBytes(body, "temperature").Float(), 0.0001)
	assert.Equal(t, int64(512), gjson.GetBytes(body, "max_completion_tokens").Int())
	assert.False(t, gjson.GetBytes(body, "tool_choice").Exists())

	msgs := gjson.GetBytes(body, "messages").Array()
	require.Len(t, msgs, 5)
	roles := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i] = m.Get("role").String()
	}
	assert.Equal(t, []string{"system", "user", "assistant", "tool", "user"}, roles)

	assert.Equal(t, "find go tutorials", msgs[1].Get("content.0.text").String())
	assert.Equal(t, "data:image/jpeg;base64,anBn", msgs[1].Get("content.1.image_url.url").String())
	assert.Equal(t, "searching", msgs[2].Get("content").String())
	assert.Equal(t, "call_1", msgs[2].Get("tool_calls.0.id").String())
	assert.Equal(t, "search", msgs[2].Get("tool_calls.0.function.name").String())
	assert.Equal(t, `{"query":"go"}`, msgs[2].Get("tool_calls.0.function.arguments").String())
	assert.Equal(t, "call_1", msgs[3].Get("tool_call_id").String())

	assert.Equal(t, "function", gjson.GetBytes(body, "tools.0.type").String())
	assert.Equal(t, "search", gjson.GetBytes(body, "tools.0.function.name").String())
	assert.Equal(t, "string", gjson.GetBytes(body, "tools.0.function.parameters.properties.query.type").String())

	for text := range req.Texts() {
		assert.Contains(t, string(body), text)
	}
}

func TestAdaptChat_DialectQuirks(t *testing.T) {
	maxTokens := 100
	req := &messages.Request{
		Turns:      []messages.Turn{messages.User(messages.Text("hi"))},
		Tools:      []tool.Definition{tool.MustFor[searchArgs](tool.Name("search"))},
		ToolPolicy: messages.ToolPolicy{Choice: messages.ToolChoiceFunction, Function: "search"},
	}

	t.Run("mistral rejects stream options", func(t *testing.T) {
		body, err := AdaptChat(api.Access{Dialect: api.DialectMistral}, api.Model{ID: "m", MaxTokens: &maxTokens}, req, true)
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(body, "stream").Bool())
		assert.False(t, gjson.GetBytes(body, "stream_options").Exists())
		assert.Equal(t, int64(100), gjson.GetBytes(body, "max_tokens").Int())
		assert.Equal(t, "search", gjson.GetBytes(body, "tool_choice.function.name").String())
	})

	t.Run("not streaming", func(t *testing.T) {
		body, err := AdaptChat(api.Access{Dialect: api.DialectGroq}, api.Model{ID: "m"}, req, false)
		require.NoError(t, err)
		assert.False(t, gjson.GetBytes(body, "stream").Exists())
		assert.False(t, gjson.GetBytes(body, "stream_options").Exists())
	})

	t.Run("reasoning effort drops temperature", func(t *testing.T) {
		temp := 1.0
		body, err := AdaptChat(api.Access{Dialect: api.DialectOpenAI}, api.Model{ID: "o3", Temperature: &temp, ReasoningEffort: "high"}, req, false)
		require.NoError(t, err)
		assert.Equal(t, "high", gjson.GetBytes(body, "reasoning_effort").String())
		assert.False(t, gjson.GetBytes(body, "temperature").Exists())
	})

	t.Run("ollama json mode", func(t *testing.T) {
		body, err := AdaptChat(api.Access{Dialect: api.DialectOllama, OllamaJSON: true}, api.Model{ID: "llama3"}, req, true)
		require.NoError(t, err)
		assert.Equal(t, "json_object", gjson.GetBytes(body, "response_format.type").String())
	})
}

func TestAdaptChat_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		req  *messages.Request
		want api.UnsupportedContentError
	}{
		{
			name: "image in system",
			req:  &messages.Request{System: []messages.Part{messages.ImageURL("https://x/y.png")}},
			want: api.UnsupportedContentError{Dialect: api.DialectXAI, PartType: messages.TypeImage, Role: "system"},
		},
		{
			name: "image in assistant turn",
			req:  &messages.Request{Turns: []messages.Turn{messages.Assistant(messages.InlineImage("image/png", []byte{1}))}},
			want: api.UnsupportedContentError{Dialect: api.DialectXAI, PartType: messages.TypeImage, Role: "assistant"},
		},
		{
			name: "tool call in user turn",
			req:  &messages.Request{Turns: []messages.Turn{messages.User(messages.ToolCall("c", "f", ""))}},
			want: api.UnsupportedContentError{Dialect: api.DialectXAI, PartType: messages.TypeToolCall, Role: "user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AdaptChat(api.Access{Dialect: api.DialectXAI}, api.Model{ID: "grok"}, tt.req, false)
			var target *api.UnsupportedContentError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, tt.want, *target)
		})
	}
}
