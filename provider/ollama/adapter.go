package ollama

import (
	"fmt"
	"strings"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/pkg/messages"
)

// Adapt maps a normalized request onto a native /api/chat request body.
func Adapt(access api.Access, model api.Model, req *messages.Request, streaming bool) (*ChatRequest, error) {
	out := &ChatRequest{
		Model:    model.ID,
		Stream:   streaming,
		Messages: []Message{},
	}
	if access.OllamaJSON {
		out.Format = "json"
	}
	if model.Temperature != nil || model.MaxTokens != nil {
		out.Options = &Options{Temperature: model.Temperature, NumPredict: model.MaxTokens}
	}

	for _, p := range req.System {
		switch p.(type) {
		case messages.TextPart, messages.DocumentPart:
		default:
			return nil, unsupported(p, "system")
		}
	}
	if system := req.SystemText(); system != "" {
		out.Messages = append(out.Messages, Message{Role: "system", Content: system})
	}

	for _, turn := range req.Turns {
		msgs, err := adaptTurn(turn)
		if err != nil {
			return nil, err
		}
		out.Messages = append(out.Messages, msgs...)
	}

	// there is no tool choice; a none policy withholds the tools instead
	if req.ToolPolicy.Choice != messages.ToolChoiceNone {
		for _, def := range req.Tools {
			schema, err := def.SchemaJSON()
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", def.Name, err)
			}
			out.Tools = append(out.Tools, Tool{
				Type:     "function",
				Function: ToolFunction{Name: def.Name, Description: def.Description, Parameters: schema},
			})
		}
	}
	return out, nil
}

func adaptTurn(turn messages.Turn) ([]Message, error) {
	role := "user"
	if turn.Role == messages.RoleAssistant {
		role = "assistant"
	}

	var (
		result []Message
		text   []string
		images []string
		calls  []ToolCall
	)
	flush := func() {
		if len(text) > 0 || len(images) > 0 || len(calls) > 0 {
			result = append(result, Message{
				Role:      role,
				Content:   strings.Join(text, "\n\n"),
				Images:    images,
				ToolCalls: calls,
			})
			text, images, calls = nil, nil, nil
		}
	}

	for _, p := range turn.Parts {
		switch p := p.(type) {
		case messages.TextPart:
			text = append(text, p.Text)
		case messages.DocumentPart:
			if turn.Role == messages.RoleAssistant {
				return nil, unsupported(p, string(turn.Role))
			}
			text = append(text, p.Fenced())
		case messages.ImagePart:
			if turn.Role != messages.RoleUser || !p.IsInline() {
				return nil, unsupported(p, string(turn.Role))
			}
			images = append(images, p.Base64())
		case messages.ToolCallPart:
			if turn.Role != messages.RoleAssistant {
				return nil, unsupported(p, string(turn.Role))
			}
			calls = append(calls, ToolCall{Function: ToolCallFunction{Name: p.Name, Arguments: p.ArgumentsJSON()}})
		case messages.ToolResultPart:
			if turn.Role == messages.RoleAssistant {
				return nil, unsupported(p, string(turn.Role))
			}
			flush()
			result = append(result, Message{Role: "tool", Content: p.Content, ToolName: p.Name})
		default:
			return nil, unsupported(p, string(turn.Role))
		}
	}
	flush()
	return result, nil
}

func unsupported(p messages.Part, role string) error {
	return &api.UnsupportedContentError{Dialect: api.DialectOllama, PartType: p.PartType(), Role: role}
}
