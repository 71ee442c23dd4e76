package openai

import (
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ChatChunk is one chat completions stream chunk, and the shape of a full response.
type ChatChunk struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage"`
}

// ChatChoice carries Delta when streaming and Message otherwise.
type ChatChoice struct {
	Index        int          `json:"index"`
	Delta        *ChatMessage `json:"delta"`
	Message      *ChatMessage `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

// ChatMessage is an assistant message or message delta. ReasoningContent and Reasoning are
// the two spellings used by compatible vendors for reasoning output.
type ChatMessage struct {
	Role             string         `json:"role"`
	Content          string         `json:"content"`
	ReasoningContent string         `json:"reasoning_content"`
	Reasoning        string         `json:"reasoning"`
	Refusal          string         `json:"refusal"`
	ToolCalls        []ChatToolCall `json:"tool_calls"`
}

// ChatToolCall is a tool call or tool call fragment. Index groups the fragments of one call.
type ChatToolCall struct {
	Index    *int         `json:"index"`
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ChatFunction `json:"function"`
}

// ChatFunction holds the function name and arguments. Arguments are a JSON-encoded string
// per the protocol, but some compatible servers send the object itself.
type ChatFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ArgumentsString returns the arguments as text, whichever way they were encoded.
func (f ChatFunction) ArgumentsString() string {
	if len(f.Arguments) == 0 {
		return ""
	}
	v := gjson.ParseBytes(f.Arguments)
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}

// ChatUsage is the usage object of chat completions.
type ChatUsage struct {
	PromptTokens        int64 `json:"prompt_tokens"`
	CompletionTokens    int64 `json:"completion_tokens"`
	PromptTokensDetails *struct {
		CachedTokens int64 `json:"cached_tokens"`
	} `json:"prompt_tokens_details"`
	CompletionTokensDetails *struct {
		ReasoningTokens int64 `json:"reasoning_tokens"`
	} `json:"completion_tokens_details"`
}

// ResponsesRequest is the body of POST /v1/responses.
type ResponsesRequest struct {
	Model           string              `json:"model"`
	Instructions    string              `json:"instructions,omitempty"`
	Input           []InputItem         `json:"input"`
	Tools           []ResponsesTool     `json:"tools,omitempty"`
	ToolChoice      any                 `json:"tool_choice,omitempty"`
	Stream          bool                `json:"stream,omitempty"`
	Temperature     *float64            `json:"temperature,omitempty"`
	MaxOutputTokens *int                `json:"max_output_tokens,omitempty"`
	Reasoning       *ResponsesReasoning `json:"reasoning,omitempty"`
	Include         []string            `json:"include,omitempty"`
	Store           bool                `json:"store"`
}

// InputItem is a message, a function call or a function call output.
type InputItem struct {
	Type      string         `json:"type"`
	Role      string         `json:"role,omitempty"`
	Content   []InputContent `json:"content,omitempty"`
	CallID    string         `json:"call_id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Arguments string         `json:"arguments,omitempty"`
	Output    *string        `json:"output,omitempty"`
}

// InputContent is input_text, input_image or output_text.
type InputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// ResponsesTool is a flat function tool.
type ResponsesTool struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ResponsesReasoning configures reasoning models.
type ResponsesReasoning struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// NamedTool forces one function.
type NamedTool struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ResponsesEvent is the union of the Responses stream events this package reads.
type ResponsesEvent struct {
	Type        string             `json:"type"`
	OutputIndex int                `json:"output_index"`
	ItemID      string             `json:"item_id"`
	Delta       string             `json:"delta"`
	Item        *OutputItem        `json:"item"`
	Response    *ResponsesResponse `json:"response"`
}

// OutputItem is one entry of a response output.
type OutputItem struct {
	Type             string          `json:"type"`
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	Role             string          `json:"role"`
	Content          []OutputContent `json:"content"`
	Summary          []OutputContent `json:"summary"`
	CallID           string          `json:"call_id"`
	Name             string          `json:"name"`
	Arguments        string          `json:"arguments"`
	EncryptedContent string          `json:"encrypted_content"`
}

// OutputContent is output_text, refusal or summary_text.
type OutputContent struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Refusal string `json:"refusal"`
}

// ResponsesResponse is a response object, in full responses and lifecycle events.
type ResponsesResponse struct {
	ID                string          `json:"id"`
	Model             string          `json:"model"`
	Status            string          `json:"status"`
	Output            []OutputItem    `json:"output"`
	Usage             *ResponsesUsage `json:"usage"`
	IncompleteDetails *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details"`
}

// ResponsesUsage is the usage object of the Responses API.
type ResponsesUsage struct {
	InputTokens        int64 `json:"input_tokens"`
	OutputTokens       int64 `json:"output_tokens"`
	InputTokensDetails *struct {
		CachedTokens int64 `json:"cached_tokens"`
	} `json:"input_tokens_details"`
	OutputTokensDetails *struct {
		ReasoningTokens int64 `json:"reasoning_tokens"`
	} `json:"output_tokens_details"`
}
