package openai

import (
	"fmt"
	"slices"
	"strings"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/pkg/messages"
	json "github.com/goccy/go-json"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/sjson"
)

// noStreamOptions lists the dialects that reject stream_options.
var noStreamOptions = []api.Dialect{
	api.DialectMistral,
	api.DialectPerplexity,
	api.DialectLMStudio,
	api.DialectLocalAI,
}

// AdaptChat maps a normalized request onto a chat completions request body. The messages and
// tools are built with the openai-go parameter types; the vendor extras that differ between
// compatible servers are patched into the encoded body.
func AdaptChat(access api.Access, model api.Model, req *messages.Request, streaming bool) (json.RawMessage, error) {
	dialect := access.Dialect
	msgs, err := chatMessages(dialect, req)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(msgs),
		Model:    openai.F(model.ID),
	}
	if model.Temperature != nil && model.ReasoningEffort == "" {
		params.Temperature = openai.Float(*model.Temperature)
	}

	tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
	for _, def := range req.Tools {
		schema, err := def.SchemaMap()
		if err != nil {
			return nil, fmt.Errorf("failed to convert tool %s to a schema: %w", def.Name, err)
		}
		fn := openai.FunctionDefinitionParam{
			Name:       openai.String(def.Name),
			Parameters: openai.F(shared.FunctionParameters(schema)),
		}
		if strings.TrimSpace(def.Description) != "" {
			fn.Description = openai.String(def.Description)
		}
		tools = append(tools, openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(fn),
		})
	}
	if len(tools) > 0 {
		params.Tools = openai.F(tools)
	}

	body, err := params.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	if streaming {
		if body, err = sjson.SetBytes(body, "stream", true); err != nil {
			return nil, err
		}
		if !slices.Contains(noStreamOptions, dialect) {
			if body, err = sjson.SetBytes(body, "stream_options.include_usage", true); err != nil {
				return nil, err
			}
		}
	}
	if model.MaxTokens != nil {
		field := "max_tokens"
		if dialect == api.DialectOpenAI || dialect == api.DialectAzure {
			field = "max_completion_tokens"
		}
		if body, err = sjson.SetBytes(body, field, *model.MaxTokens); err != nil {
			return nil, err
		}
	}
	if model.ReasoningEffort != "" {
		if body, err = sjson.SetBytes(body, "reasoning_effort", model.ReasoningEffort); err != nil {
			return nil, err
		}
	}
	if len(tools) > 0 && !req.ToolPolicy.IsZero() {
		if body, err = sjson.SetBytes(body, "tool_choice", chatToolChoice(req.ToolPolicy)); err != nil {
			return nil, err
		}
	}
	if dialect == api.DialectOllama && access.OllamaJSON {
		if body, err = sjson.SetBytes(body, "response_format.type", "json_object"); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func chatToolChoice(policy messages.ToolPolicy) any {
	switch policy.Choice {
	case messages.ToolChoiceAny:
		return "required"
	case messages.ToolChoiceNone:
		return "none"
	case messages.ToolChoiceFunction:
		return map[string]any{
			"type":     "function",
			"function": map[string]any{"name": policy.Function},
		}
	default:
		return "auto"
	}
}

func chatMessages(dialect api.Dialect, req *messages.Request) ([]openai.ChatCompletionMessageParamUnion, error) {
	var result []openai.ChatCompletionMessageParamUnion

	if len(req.System) > 0 {
		for _, p := range req.System {
			switch p.(type) {
			case messages.TextPart, messages.DocumentPart:
			default:
				return nil, unsupported(dialect, p, "system")
			}
		}
		result = append(result, openai.SystemMessage(req.SystemText()))
	}

	for _, turn := range req.Turns {
		var (
			msgs []openai.ChatCompletionMessageParamUnion
			err  error
		)
		switch turn.Role {
		case messages.RoleAssistant:
			msgs, err = assistantMessage(dialect, turn)
		default:
			msgs, err = userMessages(dialect, turn)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, msgs...)
	}
	return result, nil
}

// userMessages maps a user or tool turn. Tool results become tool messages; the other
// parts are grouped into user messages between them so that the order is preserved.
func userMessages(dialect api.Dialect, turn messages.Turn) ([]openai.ChatCompletionMessageParamUnion, error) {
	var (
		result []openai.ChatCompletionMessageParamUnion
		parts  []openai.ChatCompletionContentPartUnionParam
	)
	flush := func() {
		if len(parts) > 0 {
			result = append(result, openai.UserMessageParts(parts...))
			parts = nil
		}
	}

	for _, p := range turn.Parts {
		switch p := p.(type) {
		case messages.TextPart:
			if turn.Role == messages.RoleTool {
				return nil, unsupported(dialect, p, string(turn.Role))
			}
			parts = append(parts, openai.TextPart(p.Text))
		case messages.DocumentPart:
			if turn.Role == messages.RoleTool {
				return nil, unsupported(dialect, p, string(turn.Role))
			}
			parts = append(parts, openai.TextPart(p.Fenced()))
		case messages.ImagePart:
			if turn.Role == messages.RoleTool {
				return nil, unsupported(dialect, p, string(turn.Role))
			}
			parts = append(parts, openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.F(openai.ChatCompletionContentPartImageImageURLParam{
					URL: openai.String(p.DataURL()),
				}),
				Type: openai.F(openai.ChatCompletionContentPartImageTypeImageURL),
			})
		case messages.ToolResultPart:
			flush()
			result = append(result, openai.ToolMessage(p.ID, p.Content))
		default:
			return nil, unsupported(dialect, p, string(turn.Role))
		}
	}
	flush()
	return result, nil
}

func assistantMessage(dialect api.Dialect, turn messages.Turn) ([]openai.ChatCompletionMessageParamUnion, error) {
	var (
		text  strings.Builder
		calls []openai.ChatCompletionMessageToolCallParam
	)
	for _, p := range turn.Parts {
		switch p := p.(type) {
		case messages.TextPart:
			text.WriteString(p.Text)
		case messages.ToolCallPart:
			calls = append(calls, openai.ChatCompletionMessageToolCallParam{
				ID:   openai.String(p.ID),
				Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
				Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      openai.String(p.Name),
					Arguments: openai.String(string(p.ArgumentsJSON())),
				}),
			})
		default:
			return nil, unsupported(dialect, p, string(turn.Role))
		}
	}
	if text.Len() == 0 && len(calls) == 0 {
		return nil, nil
	}

	msg := openai.ChatCompletionMessageParam{
		Role: openai.F(openai.ChatCompletionMessageParamRoleAssistant),
	}
	if text.Len() > 0 {
		msg.Content = openai.F[any](text.String())
	}
	if len(calls) > 0 {
		msg.ToolCalls = openai.F[any](calls)
	}
	return []openai.ChatCompletionMessageParamUnion{msg}, nil
}

func unsupported(dialect api.Dialect, p messages.Part, role string) error {
	return &api.UnsupportedContentError{Dialect: dialect, PartType: p.PartType(), Role: role}
}
