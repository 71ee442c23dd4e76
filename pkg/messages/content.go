// Package messages defines the normalized chat-generation request: an ordered sequence of
// turns, each made of typed content parts. Every vendor adapter translates from this one
// shape, so it carries the union of what the vendors can express.
package messages

import (
	"encoding/base64"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Part is one typed unit of turn content.
type Part interface {
	// PartType is the discriminator used in JSON and in UnsupportedContentError.
	PartType() string
	part()
}

const (
	TypeText       = "text"
	TypeImage      = "image"
	TypeDocument   = "document"
	TypeToolCall   = "tool_call"
	TypeToolResult = "tool_result"
)

// Text creates a new TextPart.
func Text(text string) TextPart {
	return TextPart{Text: text}
}

// TextPart is plain text.
type TextPart struct {
	Text string   `json:"text"`
	_    struct{} // require keyed usage
}

func (TextPart) part()            {}
func (TextPart) PartType() string { return TypeText }

var textJSON = []byte(`{"type":"text"}`)

func (t TextPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(textJSON, "text", t.Text)
}

func (t *TextPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

// InlineImage creates an ImagePart from raw bytes.
func InlineImage(mimeType string, data []byte) ImagePart {
	return ImagePart{MimeType: mimeType, Data: data}
}

// ImageURL creates an ImagePart that references a remote image.
func ImageURL(url string) ImagePart {
	return ImagePart{URL: url}
}

// ImagePart is an image either carried inline or referenced by URL. Vendors that only
// accept inline data reject URL-only images.
type ImagePart struct {
	MimeType string   `json:"mime_type,omitempty"`
	Data     []byte   `json:"-"`
	URL      string   `json:"url,omitempty"`
	_        struct{} // require keyed usage
}

func (ImagePart) part()            {}
func (ImagePart) PartType() string { return TypeImage }

// Base64 returns the inline data encoded with standard base64.
func (i ImagePart) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// IsInline reports whether the image bytes are carried in the request.
func (i ImagePart) IsInline() bool {
	return len(i.Data) > 0
}

// DataURL renders the image as a data: URL, or returns the remote URL.
func (i ImagePart) DataURL() string {
	if !i.IsInline() {
		return i.URL
	}
	return "data:" + i.MimeType + ";base64," + i.Base64()
}

var imageJSON = []byte(`{"type":"image"}`)

func (i ImagePart) MarshalJSON() ([]byte, error) {
	result := imageJSON
	var err error
	if i.MimeType != "" {
		if result, err = sjson.SetBytes(result, "mime_type", i.MimeType); err != nil {
			return nil, err
		}
	}
	if i.IsInline() {
		if result, err = sjson.SetBytes(result, "data", i.Base64()); err != nil {
			return nil, err
		}
	}
	if i.URL != "" {
		if result, err = sjson.SetBytes(result, "url", i.URL); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (i *ImagePart) UnmarshalJSON(input []byte) error {
	data := gjson.GetBytes(input, "data")
	url := gjson.GetBytes(input, "url")
	if !data.Exists() && !url.Exists() {
		return errors.New("image requires either 'data' or 'url'")
	}
	if data.Exists() {
		decoded, err := base64.StdEncoding.DecodeString(data.String())
		if err != nil {
			return fmt.Errorf("invalid base64 data: %w", err)
		}
		i.Data = decoded
		if !gjson.GetBytes(input, "mime_type").Exists() {
			return errors.New("inline image requires 'mime_type'")
		}
	}
	i.MimeType = gjson.GetBytes(input, "mime_type").String()
	i.URL = url.String()
	return nil
}

// Document creates a new DocumentPart.
func Document(title, mimeType, text string) DocumentPart {
	return DocumentPart{Title: title, MimeType: mimeType, Text: text}
}

// DocumentPart is an attached text document, such as a file the user dropped into the chat.
type DocumentPart struct {
	Title    string   `json:"title,omitempty"`
	MimeType string   `json:"mime_type,omitempty"`
	Text     string   `json:"text"`
	_        struct{} // require keyed usage
}

func (DocumentPart) part()            {}
func (DocumentPart) PartType() string { return TypeDocument }

// Fenced renders the document as a titled markdown code fence, for vendors without a
// native document block.
func (d DocumentPart) Fenced() string {
	title := d.Title
	if title == "" {
		title = "document"
	}
	return fmt.Sprintf("```%s\n%s\n```\n", title, d.Text)
}

var documentJSON = []byte(`{"type":"document"}`)

func (d DocumentPart) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(documentJSON, "text", d.Text)
	if err != nil {
		return nil, err
	}
	if d.Title != "" {
		if result, err = sjson.SetBytes(result, "title", d.Title); err != nil {
			return nil, err
		}
	}
	if d.MimeType != "" {
		if result, err = sjson.SetBytes(result, "mime_type", d.MimeType); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *DocumentPart) UnmarshalJSON(input []byte) error {
	text := gjson.GetBytes(input, "text")
	if !text.Exists() {
		return errors.New("missing required field 'text'")
	}
	d.Text = text.String()
	d.Title = gjson.GetBytes(input, "title").String()
	d.MimeType = gjson.GetBytes(input, "mime_type").String()
	return nil
}

// ToolCall creates a new ToolCallPart. Arguments must be a JSON object or empty.
func ToolCall(id, name, arguments string) ToolCallPart {
	return ToolCallPart{ID: id, Name: name, Arguments: arguments}
}

// ToolCallPart records a tool invocation the assistant made in an earlier turn.
type ToolCallPart struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Arguments string   `json:"arguments"`
	_         struct{} // require keyed usage
}

func (ToolCallPart) part()            {}
func (ToolCallPart) PartType() string { return TypeToolCall }

// ArgumentsJSON returns the arguments as raw JSON, substituting an empty object.
func (t ToolCallPart) ArgumentsJSON() json.RawMessage {
	if t.Arguments == "" {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(t.Arguments)
}

// ArgumentsMap decodes the arguments into a generic object.
func (t ToolCallPart) ArgumentsMap() (map[string]any, error) {
	args := make(map[string]any)
	if err := json.Unmarshal(t.ArgumentsJSON(), &args); err != nil {
		return nil, fmt.Errorf("tool call %s: arguments are not a JSON object: %w", t.Name, err)
	}
	return args, nil
}

var toolCallJSON = []byte(`{"type":"tool_call"}`)

func (t ToolCallPart) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(toolCallJSON, "id", t.ID)
	if err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "name", t.Name); err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "arguments", t.Arguments)
}

func (t *ToolCallPart) UnmarshalJSON(input []byte) error {
	name := gjson.GetBytes(input, "name")
	if !name.Exists() {
		return errors.New("missing required field 'name'")
	}
	t.Name = name.String()
	t.ID = gjson.GetBytes(input, "id").String()
	args := gjson.GetBytes(input, "arguments")
	if args.IsObject() {
		t.Arguments = args.Raw
	} else {
		t.Arguments = args.String()
	}
	return nil
}

// ToolResult creates a new ToolResultPart.
func ToolResult(id, name, content string) ToolResultPart {
	return ToolResultPart{ID: id, Name: name, Content: content}
}

// ToolResultPart carries the output of a tool invocation back to the model.
type ToolResultPart struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Content string   `json:"content"`
	IsError bool     `json:"is_error,omitempty"`
	_       struct{} // require keyed usage
}

func (ToolResultPart) part()            {}
func (ToolResultPart) PartType() string { return TypeToolResult }

var toolResultJSON = []byte(`{"type":"tool_result"}`)

func (t ToolResultPart) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes(toolResultJSON, "id", t.ID)
	if err != nil {
		return nil, err
	}
	if t.Name != "" {
		if result, err = sjson.SetBytes(result, "name", t.Name); err != nil {
			return nil, err
		}
	}
	if result, err = sjson.SetBytes(result, "content", t.Content); err != nil {
		return nil, err
	}
	if t.IsError {
		return sjson.SetBytes(result, "is_error", true)
	}
	return result, nil
}

func (t *ToolResultPart) UnmarshalJSON(input []byte) error {
	id := gjson.GetBytes(input, "id")
	if !id.Exists() {
		return errors.New("missing required field 'id'")
	}
	t.ID = id.String()
	t.Name = gjson.GetBytes(input, "name").String()
	t.Content = gjson.GetBytes(input, "content").String()
	t.IsError = gjson.GetBytes(input, "is_error").Bool()
	return nil
}

// UnmarshalPart decodes a single part using its "type" discriminator.
func UnmarshalPart(input []byte) (Part, error) {
	if !gjson.ValidBytes(input) {
		return nil, fmt.Errorf("invalid json: %s", input)
	}
	tpe := gjson.GetBytes(input, "type").String()
	switch tpe {
	case TypeText:
		var p TextPart
		err := unmarshalInto(&p, input, tpe)
		return p, err
	case TypeImage:
		var p ImagePart
		err := unmarshalInto(&p, input, tpe)
		return p, err
	case TypeDocument:
		var p DocumentPart
		err := unmarshalInto(&p, input, tpe)
		return p, err
	case TypeToolCall:
		var p ToolCallPart
		err := unmarshalInto(&p, input, tpe)
		return p, err
	case TypeToolResult:
		var p ToolResultPart
		err := unmarshalInto(&p, input, tpe)
		return p, err
	default:
		return nil, fmt.Errorf("unknown content part type %q", tpe)
	}
}

type partUnmarshaler interface {
	UnmarshalJSON([]byte) error
}

func unmarshalInto(p partUnmarshaler, input []byte, tpe string) error {
	if err := p.UnmarshalJSON(input); err != nil {
		return fmt.Errorf("invalid %s part: %w", tpe, err)
	}
	return nil
}
