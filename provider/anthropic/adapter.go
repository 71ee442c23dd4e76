package anthropic

import (
	"fmt"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/pkg/messages"
)

const (
	// DefaultMaxTokens is sent when the model does not declare a limit; the field is
	// mandatory for this vendor.
	DefaultMaxTokens = 8192
	// thinkingHeadroom is the room left for the answer when max_tokens has to be raised
	// above the thinking budget.
	thinkingHeadroom = 4096
)

// Adapt maps a normalized request onto a Messages API request body.
func Adapt(model api.Model, req *messages.Request, streaming bool) (*Request, error) {
	out := &Request{
		Model:     model.ID,
		MaxTokens: DefaultMaxTokens,
		Stream:    streaming,
	}
	if model.MaxTokens != nil {
		out.MaxTokens = *model.MaxTokens
	}

	if budget := model.AnthropicThinkingBudget; budget != nil {
		out.Thinking = &Thinking{Type: "enabled", BudgetTokens: *budget}
		if out.MaxTokens <= *budget {
			out.MaxTokens = *budget + thinkingHeadroom
		}
	} else if model.Temperature != nil {
		out.Temperature = model.Temperature
	}

	system, err := adaptSystem(req.System)
	if err != nil {
		return nil, err
	}
	out.System = system

	for _, turn := range req.Turns {
		msg, err := adaptTurn(turn)
		if err != nil {
			return nil, err
		}
		if len(msg.Content) == 0 {
			continue
		}
		if n := len(out.Messages); n > 0 && out.Messages[n-1].Role == msg.Role {
			out.Messages[n-1].Content = append(out.Messages[n-1].Content, msg.Content...)
			continue
		}
		out.Messages = append(out.Messages, msg)
	}
	if out.Messages == nil {
		out.Messages = []Message{}
	}

	for _, def := range req.Tools {
		schema, err := def.SchemaJSON()
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", def.Name, err)
		}
		out.Tools = append(out.Tools, Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: schema,
		})
	}
	if len(out.Tools) > 0 {
		out.ToolChoice = adaptToolPolicy(req.ToolPolicy, out.Thinking != nil)
	}
	return out, nil
}

func adaptSystem(parts []messages.Part) ([]Block, error) {
	var blocks []Block
	for _, p := range parts {
		switch p := p.(type) {
		case messages.TextPart:
			blocks = append(blocks, Block{Type: "text", Text: p.Text})
		case messages.DocumentPart:
			blocks = append(blocks, Block{Type: "text", Text: p.Fenced()})
		default:
			return nil, unsupported(p, "system")
		}
	}
	return blocks, nil
}

func adaptTurn(turn messages.Turn) (Message, error) {
	role := "user"
	if turn.Role == messages.RoleAssistant {
		role = "assistant"
	}
	msg := Message{Role: role}

	for _, p := range turn.Parts {
		var block Block
		switch p := p.(type) {
		case messages.TextPart:
			if p.Text == "" {
				continue
			}
			block = Block{Type: "text", Text: p.Text}
		case messages.ImagePart:
			if turn.Role == messages.RoleAssistant {
				return Message{}, unsupported(p, string(turn.Role))
			}
			block = Block{Type: "image", Source: imageSource(p)}
		case messages.DocumentPart:
			if turn.Role == messages.RoleAssistant {
				return Message{}, unsupported(p, string(turn.Role))
			}
			block = Block{
				Type:   "document",
				Title:  p.Title,
				Source: &Source{Type: "text", MediaType: "text/plain", Data: p.Text},
			}
		case messages.ToolCallPart:
			if turn.Role != messages.RoleAssistant {
				return Message{}, unsupported(p, string(turn.Role))
			}
			block = Block{Type: "tool_use", ID: p.ID, Name: p.Name, Input: p.ArgumentsJSON()}
		case messages.ToolResultPart:
			if turn.Role == messages.RoleAssistant {
				return Message{}, unsupported(p, string(turn.Role))
			}
			block = Block{Type: "tool_result", ToolUseID: p.ID, Content: p.Content, IsError: p.IsError}
		default:
			return Message{}, unsupported(p, string(turn.Role))
		}
		msg.Content = append(msg.Content, block)
	}
	return msg, nil
}

func imageSource(p messages.ImagePart) *Source {
	if !p.IsInline() {
		return &Source{Type: "url", URL: p.URL}
	}
	return &Source{Type: "base64", MediaType: p.MimeType, Data: p.Base64()}
}

// adaptToolPolicy maps the tool policy. Extended thinking only accepts auto and none, so
// forced tool use falls back to auto while thinking is enabled.
func adaptToolPolicy(policy messages.ToolPolicy, thinking bool) *ToolChoice {
	if thinking && (policy.Choice == messages.ToolChoiceAny || policy.Choice == messages.ToolChoiceFunction) {
		return &ToolChoice{Type: "auto"}
	}
	switch policy.Choice {
	case messages.ToolChoiceAny:
		return &ToolChoice{Type: "any"}
	case messages.ToolChoiceNone:
		return &ToolChoice{Type: "none"}
	case messages.ToolChoiceFunction:
		return &ToolChoice{Type: "tool", Name: policy.Function}
	default:
		return &ToolChoice{Type: "auto"}
	}
}

func unsupported(p messages.Part, role string) error {
	return &api.UnsupportedContentError{Dialect: api.DialectAnthropic, PartType: p.PartType(), Role: role}
}
