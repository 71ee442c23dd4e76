package openai

import (
	"fmt"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/pkg/messages"
)

// AdaptResponses maps a normalized request onto a Responses API request body. Nothing is
// stored server side, so reasoning is requested back in encrypted form when enabled.
func AdaptResponses(access api.Access, model api.Model, req *messages.Request, streaming bool) (*ResponsesRequest, error) {
	dialect := access.Dialect
	out := &ResponsesRequest{
		Model:           model.ID,
		Stream:          streaming,
		MaxOutputTokens: model.MaxTokens,
		Input:           []InputItem{},
	}
	if model.ReasoningEffort != "" {
		out.Reasoning = &ResponsesReasoning{Effort: model.ReasoningEffort, Summary: "auto"}
		out.Include = []string{"reasoning.encrypted_content"}
	} else {
		out.Temperature = model.Temperature
	}

	for _, p := range req.System {
		switch p.(type) {
		case messages.TextPart, messages.DocumentPart:
		default:
			return nil, unsupported(dialect, p, "system")
		}
	}
	out.Instructions = req.SystemText()

	for _, turn := range req.Turns {
		items, err := responsesItems(dialect, turn)
		if err != nil {
			return nil, err
		}
		out.Input = append(out.Input, items...)
	}

	for _, def := range req.Tools {
		schema, err := def.SchemaJSON()
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", def.Name, err)
		}
		out.Tools = append(out.Tools, ResponsesTool{
			Type:        "function",
			Name:        def.Name,
			Description: def.Description,
			Parameters:  schema,
		})
	}
	if len(out.Tools) > 0 && !req.ToolPolicy.IsZero() {
		out.ToolChoice = responsesToolChoice(req.ToolPolicy)
	}
	return out, nil
}

func responsesToolChoice(policy messages.ToolPolicy) any {
	switch policy.Choice {
	case messages.ToolChoiceAny:
		return "required"
	case messages.ToolChoiceNone:
		return "none"
	case messages.ToolChoiceFunction:
		return NamedTool{Type: "function", Name: policy.Function}
	default:
		return "auto"
	}
}

func responsesItems(dialect api.Dialect, turn messages.Turn) ([]InputItem, error) {
	role, textType := "user", "input_text"
	if turn.Role == messages.RoleAssistant {
		role, textType = "assistant", "output_text"
	}

	var (
		items   []InputItem
		content []InputContent
	)
	flush := func() {
		if len(content) > 0 {
			items = append(items, InputItem{Type: "message", Role: role, Content: content})
			content = nil
		}
	}

	for _, p := range turn.Parts {
		switch p := p.(type) {
		case messages.TextPart:
			content = append(content, InputContent{Type: textType, Text: p.Text})
		case messages.DocumentPart:
			if turn.Role == messages.RoleAssistant {
				return nil, unsupported(dialect, p, string(turn.Role))
			}
			content = append(content, InputContent{Type: textType, Text: p.Fenced()})
		case messages.ImagePart:
			if turn.Role == messages.RoleAssistant {
				return nil, unsupported(dialect, p, string(turn.Role))
			}
			content = append(content, InputContent{Type: "input_image", ImageURL: p.DataURL()})
		case messages.ToolCallPart:
			if turn.Role != messages.RoleAssistant {
				return nil, unsupported(dialect, p, string(turn.Role))
			}
			flush()
			items = append(items, InputItem{
				Type:      "function_call",
				CallID:    p.ID,
				Name:      p.Name,
				Arguments: string(p.ArgumentsJSON()),
			})
		case messages.ToolResultPart:
			if turn.Role == messages.RoleAssistant {
				return nil, unsupported(dialect, p, string(turn.Role))
			}
			flush()
			output := p.Content
			items = append(items, InputItem{Type: "function_call_output", CallID: p.ID, Output: &output})
		default:
			return nil, unsupported(dialect, p, string(turn.Role))
		}
	}
	flush()
	return items, nil
}
