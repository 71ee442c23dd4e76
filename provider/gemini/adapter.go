package gemini

import (
	"fmt"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/tidwall/sjson"
)

// harmCategories receive the access safety threshold when one is set.
var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// schemaKeywords lists the JSON schema keywords the function declaration schema rejects.
var schemaKeywords = []string{"$schema", "$id", "additionalProperties"}

// Adapt maps a normalized request onto a generateContent request body.
func Adapt(model api.Model, req *messages.Request, minSafety api.SafetyLevel) (*Request, error) {
	out := &Request{Contents: []Content{}}

	if len(req.System) > 0 {
		system := &Content{}
		for _, p := range req.System {
			switch p := p.(type) {
			case messages.TextPart:
				system.Parts = append(system.Parts, Part{Text: p.Text})
			case messages.DocumentPart:
				system.Parts = append(system.Parts, Part{Text: p.Fenced()})
			default:
				return nil, unsupported(p, "system")
			}
		}
		out.SystemInstruction = system
	}

	for _, turn := range req.Turns {
		content, err := adaptTurn(turn)
		if err != nil {
			return nil, err
		}
		if len(content.Parts) == 0 {
			continue
		}
		// roles must alternate
		if n := len(out.Contents); n > 0 && out.Contents[n-1].Role == content.Role {
			out.Contents[n-1].Parts = append(out.Contents[n-1].Parts, content.Parts...)
			continue
		}
		out.Contents = append(out.Contents, content)
	}

	if len(req.Tools) > 0 {
		decls := make([]FunctionDeclaration, 0, len(req.Tools))
		for _, def := range req.Tools {
			schema, err := def.SchemaJSON()
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", def.Name, err)
			}
			for _, kw := range schemaKeywords {
				if schema, err = sjson.DeleteBytes(schema, kw); err != nil {
					return nil, fmt.Errorf("tool %s: %w", def.Name, err)
				}
			}
			decls = append(decls, FunctionDeclaration{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  schema,
			})
		}
		out.Tools = []Tool{{FunctionDeclarations: decls}}
		if !req.ToolPolicy.IsZero() {
			out.ToolConfig = adaptToolPolicy(req.ToolPolicy)
		}
	}

	if minSafety != "" && minSafety != api.SafetyUnspecified {
		for _, category := range harmCategories {
			out.SafetySettings = append(out.SafetySettings, SafetySetting{Category: category, Threshold: string(minSafety)})
		}
	}

	cfg := &GenerationConfig{
		Temperature:     model.Temperature,
		MaxOutputTokens: model.MaxTokens,
		CandidateCount:  1,
	}
	if model.UsesGeminiThinking() {
		cfg.ThinkingConfig = &ThinkingConfig{
			IncludeThoughts: model.GeminiShowThoughts,
			ThinkingBudget:  model.GeminiThinkingBudget,
		}
	}
	out.GenerationConfig = cfg
	return out, nil
}

func adaptTurn(turn messages.Turn) (Content, error) {
	content := Content{Role: "user"}
	if turn.Role == messages.RoleAssistant {
		content.Role = "model"
	}

	for _, p := range turn.Parts {
		switch p := p.(type) {
		case messages.TextPart:
			if p.Text != "" {
				content.Parts = append(content.Parts, Part{Text: p.Text})
			}
		case messages.DocumentPart:
			if turn.Role != messages.RoleUser {
				return Content{}, unsupported(p, string(turn.Role))
			}
			content.Parts = append(content.Parts, Part{Text: p.Fenced()})
		case messages.ImagePart:
			if turn.Role != messages.RoleUser || !p.IsInline() {
				return Content{}, unsupported(p, string(turn.Role))
			}
			content.Parts = append(content.Parts, Part{InlineData: &Blob{MimeType: p.MimeType, Data: p.Base64()}})
		case messages.ToolCallPart:
			if turn.Role != messages.RoleAssistant {
				return Content{}, unsupported(p, string(turn.Role))
			}
			content.Parts = append(content.Parts, Part{FunctionCall: &FunctionCall{Name: p.Name, Args: p.ArgumentsJSON()}})
		case messages.ToolResultPart:
			if turn.Role == messages.RoleAssistant {
				return Content{}, unsupported(p, string(turn.Role))
			}
			response := map[string]any{"name": p.Name, "content": p.Content}
			if p.IsError {
				response = map[string]any{"name": p.Name, "error": p.Content}
			}
			content.Parts = append(content.Parts, Part{FunctionResponse: &FunctionResponse{Name: p.Name, Response: response}})
		default:
			return Content{}, unsupported(p, string(turn.Role))
		}
	}
	return content, nil
}

func adaptToolPolicy(policy messages.ToolPolicy) *ToolConfig {
	cfg := FunctionCallingConfig{Mode: "AUTO"}
	switch policy.Choice {
	case messages.ToolChoiceAny:
		cfg.Mode = "ANY"
	case messages.ToolChoiceNone:
		cfg.Mode = "NONE"
	case messages.ToolChoiceFunction:
		cfg.Mode = "ANY"
		cfg.AllowedFunctionNames = []string{policy.Function}
	}
	return &ToolConfig{FunctionCallingConfig: cfg}
}

func unsupported(p messages.Part, role string) error {
	return &api.UnsupportedContentError{Dialect: api.DialectGemini, PartType: p.PartType(), Role: role}
}
