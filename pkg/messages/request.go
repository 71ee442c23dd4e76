package messages

import (
	"fmt"
	"iter"

	"github.com/casualjim/aix/tool"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool turns carry tool results. Most vendors fold them into a user turn.
	RoleTool Role = "tool"
)

// Turn is one entry of the conversation.
type Turn struct {
	Role  Role
	Parts []Part
}

// User creates a user turn.
func User(parts ...Part) Turn {
	return Turn{Role: RoleUser, Parts: parts}
}

// Assistant creates an assistant turn.
func Assistant(parts ...Part) Turn {
	return Turn{Role: RoleAssistant, Parts: parts}
}

// Tool creates a turn carrying tool results.
func Tool(results ...ToolResultPart) Turn {
	parts := make([]Part, len(results))
	for i, r := range results {
		parts[i] = r
	}
	return Turn{Role: RoleTool, Parts: parts}
}

type turnJSON struct {
	Role  Role              `json:"role"`
	Parts []json.RawMessage `json:"parts"`
}

func (t Turn) MarshalJSON() ([]byte, error) {
	parts := make([]json.RawMessage, len(t.Parts))
	for i, p := range t.Parts {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal part %d: %w", i, err)
		}
		parts[i] = b
	}
	return json.Marshal(turnJSON{Role: t.Role, Parts: parts})
}

func (t *Turn) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	role := gjson.GetBytes(input, "role")
	if !role.Exists() {
		return fmt.Errorf("missing required field 'role'")
	}
	switch r := Role(role.String()); r {
	case RoleUser, RoleAssistant, RoleTool:
		t.Role = r
	default:
		return fmt.Errorf("unknown role %q", r)
	}

	parts := gjson.GetBytes(input, "parts")
	if parts.Exists() && !parts.IsArray() {
		return fmt.Errorf("'parts' must be an array")
	}
	t.Parts = nil
	for idx, pj := range parts.Array() {
		p, err := UnmarshalPart([]byte(pj.Raw))
		if err != nil {
			return fmt.Errorf("part %d: %w", idx, err)
		}
		t.Parts = append(t.Parts, p)
	}
	return nil
}

// ToolChoice constrains whether and which tool the model may call.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceAny      ToolChoice = "any"
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceFunction ToolChoice = "function"
)

// ToolPolicy is the tool choice, plus the function name when Choice is ToolChoiceFunction.
type ToolPolicy struct {
	Choice   ToolChoice `json:"choice,omitempty"`
	Function string     `json:"function,omitempty"`
}

// IsZero reports whether the policy was left to the vendor default.
func (p ToolPolicy) IsZero() bool {
	return p.Choice == ""
}

// Request is the normalized chat-generation request. Adapters read it and never modify it.
type Request struct {
	// System holds the instructions. Only text and document parts are allowed.
	System []Part
	Turns  []Turn

	Tools      []tool.Definition
	ToolPolicy ToolPolicy
}

type requestJSON struct {
	System     []json.RawMessage `json:"system,omitempty"`
	Turns      []Turn            `json:"turns"`
	Tools      []toolJSON        `json:"tools,omitempty"`
	ToolPolicy *ToolPolicy       `json:"tool_policy,omitempty"`
}

type toolJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

func (r Request) MarshalJSON() ([]byte, error) {
	out := requestJSON{Turns: r.Turns}
	if out.Turns == nil {
		out.Turns = []Turn{}
	}
	if !r.ToolPolicy.IsZero() {
		policy := r.ToolPolicy
		out.ToolPolicy = &policy
	}
	for i, p := range r.System {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal system part %d: %w", i, err)
		}
		out.System = append(out.System, b)
	}
	for _, t := range r.Tools {
		schema, err := t.SchemaJSON()
		if err != nil {
			return nil, err
		}
		out.Tools = append(out.Tools, toolJSON{Name: t.Name, Description: t.Description, Parameters: schema})
	}
	return json.Marshal(out)
}

func (r *Request) UnmarshalJSON(input []byte) error {
	var in requestJSON
	if err := json.Unmarshal(input, &in); err != nil {
		return err
	}
	r.System = nil
	for i, raw := range in.System {
		p, err := UnmarshalPart(raw)
		if err != nil {
			return fmt.Errorf("system part %d: %w", i, err)
		}
		r.System = append(r.System, p)
	}
	r.Turns = in.Turns
	r.ToolPolicy = ToolPolicy{}
	if in.ToolPolicy != nil {
		r.ToolPolicy = *in.ToolPolicy
	}
	r.Tools = nil
	for _, t := range in.Tools {
		def, err := tool.FromSchema(t.Name, t.Description, t.Parameters)
		if err != nil {
			return err
		}
		r.Tools = append(r.Tools, def)
	}
	return nil
}

// SystemText concatenates the text of the system parts, rendering documents as fences.
func (r *Request) SystemText() string {
	var s string
	for _, p := range r.System {
		switch p := p.(type) {
		case TextPart:
			s += p.Text
		case DocumentPart:
			s += p.Fenced()
		}
	}
	return s
}

// Texts yields every text carried by the request in order: system text, then the text and
// document parts of each turn, then tool result contents.
func (r *Request) Texts() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, p := range r.System {
			if !yieldText(p, yield) {
				return
			}
		}
		for _, t := range r.Turns {
			for _, p := range t.Parts {
				if !yieldText(p, yield) {
					return
				}
			}
		}
	}
}

func yieldText(p Part, yield func(string) bool) bool {
	switch p := p.(type) {
	case TextPart:
		return yield(p.Text)
	case DocumentPart:
		return yield(p.Text)
	case ToolResultPart:
		return yield(p.Content)
	}
	return true
}
