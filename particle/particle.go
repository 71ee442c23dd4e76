package particle

import (
	"context"
	"errors"
	"time"

	"github.com/casualjim/aix/api"
)

// Kind is the discriminator of a particle in its JSON form.
type Kind string

const (
	KindText          Kind = "text"
	KindReasoning     Kind = "reasoning"
	KindToolCallStart Kind = "tool_call_start"
	KindToolCallArgs  Kind = "tool_call_args"
	KindToolCallEnd   Kind = "tool_call_end"
	KindUsage         Kind = "usage"
	KindModelName     Kind = "model"
	KindStopReason    Kind = "stop"
	KindEnd           Kind = "end"
	KindIssue         Kind = "issue"
	KindCancel        Kind = "cancel"
)

// Particle is one normalized unit of a chat-generation response.
type Particle interface {
	Kind() Kind
	particle()
}

// Text is a complete text block.
type Text struct {
	Text string `json:"text"`
}

// Reasoning is a complete reasoning block. Signature is the opaque vendor token that must be
// echoed back with the block on the next turn, when the vendor issues one.
type Reasoning struct {
	Text      string `json:"text"`
	Signature string `json:"signature,omitempty"`
	Redacted  bool   `json:"redacted,omitempty"`
}

// ToolCallStart opens a tool call.
type ToolCallStart struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToolCallArgs is one arguments fragment, in arrival order.
type ToolCallArgs struct {
	ID       string `json:"id"`
	Fragment string `json:"fragment"`
}

// ToolCall is a closed tool call. Arguments is the concatenation of every fragment and
// Input its decoded form, nil when the arguments were not a JSON object.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments string         `json:"arguments"`
	Input     map[string]any `json:"input,omitempty"`
}

// ToolCallEnd closes a tool call.
type ToolCallEnd struct {
	ToolCall
}

// Usage carries token counters. Vendors that report cumulative counters send them more
// than once; the last value wins.
type Usage struct {
	InputTokens      int64         `json:"input_tokens,omitempty"`
	OutputTokens     int64         `json:"output_tokens,omitempty"`
	ReasoningTokens  int64         `json:"reasoning_tokens,omitempty"`
	CacheReadTokens  int64         `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens int64         `json:"cache_write_tokens,omitempty"`
	TimeToFirstToken time.Duration `json:"time_to_first_token,omitempty"`
}

// IsZero reports whether no counter was set.
func (u Usage) IsZero() bool {
	return u == Usage{}
}

// ModelName is the model identifier as reported by the vendor.
type ModelName struct {
	Name string `json:"name"`
}

// Stop is the normalized reason the model stopped generating.
type Stop string

const (
	StopEndTurn   Stop = "end_turn"
	StopMaxTokens Stop = "max_tokens"
	StopToolUse   Stop = "tool_use"
	StopFiltered  Stop = "filtered"
	StopOther     Stop = "other"
)

// StopReason carries the normalized stop reason and the vendor's own value.
type StopReason struct {
	Reason Stop   `json:"reason"`
	Vendor string `json:"vendor,omitempty"`
}

// End marks a completed turn.
type End struct{}

// IssueKind classifies an issue.
type IssueKind string

const (
	IssueMalformed IssueKind = "malformed"
	IssueVendor    IssueKind = "vendor"
	IssueTransport IssueKind = "transport"
	IssueTimeout   IssueKind = "timeout"
	IssueInternal  IssueKind = "internal"
)

// Issue is an error surfaced to the conversation. Terminal issues end the stream.
type Issue struct {
	Class      IssueKind `json:"kind"`
	Code       string    `json:"code,omitempty"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Terminal   bool      `json:"terminal,omitempty"`
}

// Cancel is the terminal signal for an aborted connection.
type Cancel struct {
	Reason string `json:"reason,omitempty"`
}

func (Text) Kind() Kind          { return KindText }
func (Reasoning) Kind() Kind     { return KindReasoning }
func (ToolCallStart) Kind() Kind { return KindToolCallStart }
func (ToolCallArgs) Kind() Kind  { return KindToolCallArgs }
func (ToolCallEnd) Kind() Kind   { return KindToolCallEnd }
func (Usage) Kind() Kind         { return KindUsage }
func (ModelName) Kind() Kind     { return KindModelName }
func (StopReason) Kind() Kind    { return KindStopReason }
func (End) Kind() Kind           { return KindEnd }
func (Issue) Kind() Kind         { return KindIssue }
func (Cancel) Kind() Kind        { return KindCancel }

func (Text) particle()          {}
func (Reasoning) particle()     {}
func (ToolCallStart) particle() {}
func (ToolCallArgs) particle()  {}
func (ToolCallEnd) particle()   {}
func (Usage) particle()         {}
func (ModelName) particle()     {}
func (StopReason) particle()    {}
func (End) particle()           {}
func (Issue) particle()         {}
func (Cancel) particle()        {}

// IssueFrom converts an error into an issue with a human-readable message, classifying the
// error types of the api package.
func IssueFrom(err error) Issue {
	var (
		malformed *api.MalformedEventError
		vendor    *api.VendorAPIError
		transport *api.TransportError
	)
	switch {
	case errors.As(err, &malformed):
		return Issue{Class: IssueMalformed, Message: err.Error()}
	case errors.As(err, &vendor):
		return Issue{
			Class:      IssueVendor,
			Code:       vendor.Code,
			Message:    err.Error(),
			HTTPStatus: vendor.HTTPStatus,
			Terminal:   true,
		}
	case errors.Is(err, context.DeadlineExceeded):
		issue := Issue{Class: IssueTimeout, Message: err.Error(), Terminal: true}
		if errors.As(err, &transport) {
			issue.HTTPStatus = transport.HTTPStatus
		}
		return issue
	case errors.As(err, &transport):
		return Issue{
			Class:      IssueTransport,
			Message:    err.Error(),
			HTTPStatus: transport.HTTPStatus,
			Terminal:   true,
		}
	default:
		return Issue{Class: IssueInternal, Message: err.Error(), Terminal: true}
	}
}
