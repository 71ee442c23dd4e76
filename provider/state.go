package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/slogx"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// BlockKind is the kind of an open block.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockText
	BlockReasoning
	BlockToolCall
)

func (k BlockKind) String() string {
	switch k {
	case BlockText:
		return "text"
	case BlockReasoning:
		return "reasoning"
	case BlockToolCall:
		return "tool_call"
	default:
		return "none"
	}
}

type block struct {
	kind BlockKind
	key  string

	text      strings.Builder
	signature string
	redacted  bool

	id        string
	name      string
	fragments []string
}

// State is the mutable per-connection state of a parser: the open blocks, keyed by a
// vendor-specific block key, and whether the response has ended.
type State struct {
	Dialect api.Dialect

	open    []*block
	stopped bool
	done    bool
}

// ErrIncomplete is reported when a stream closes before the vendor signalled the end of
// the response.
var ErrIncomplete = errors.New("stream ended before the response completed")

// NewState creates the state for one connection of dialect.
func NewState(dialect api.Dialect) State {
	return State{Dialect: dialect}
}

// Done reports whether the response has ended.
func (s *State) Done() bool {
	return s.done
}

// Stopped reports whether the vendor sent its stop reason.
func (s *State) Stopped() bool {
	return s.stopped
}

// Stop emits the stop reason and records that the response is complete apart from
// trailing metadata.
func (s *State) Stop(tx particle.Transmitter, reason particle.Stop, vendor string) {
	tx.SetStopReason(reason, vendor)
	s.stopped = true
}

// Complete ends a stopped response when the stream closes. A stream that closes before the
// stop reason arrived loses its open blocks and ends with a terminal issue.
func (s *State) Complete(tx particle.Transmitter) error {
	if s.done {
		return nil
	}
	if s.stopped {
		s.Finish(tx)
		return nil
	}
	s.open = nil
	s.done = true
	err := &api.TransportError{Dialect: s.Dialect, Err: ErrIncomplete}
	s.issue(tx, err)
	return err
}

// Abort discards every open block without emitting anything.
func (s *State) Abort() {
	s.open = nil
}

func (s *State) find(key string) *block {
	for _, b := range s.open {
		if b.key == key {
			return b
		}
	}
	return nil
}

func (s *State) ensure(key string, kind BlockKind) *block {
	if b := s.find(key); b != nil {
		return b
	}
	b := &block{kind: kind, key: key}
	s.open = append(s.open, b)
	return b
}

// Kind returns the kind of the open block with key, or BlockNone.
func (s *State) Kind(key string) BlockKind {
	if b := s.find(key); b != nil {
		return b.kind
	}
	return BlockNone
}

// HasOpen reports whether any block is open.
func (s *State) HasOpen() bool {
	return len(s.open) > 0
}

// OpenText opens a text block, or returns silently if it is already open.
func (s *State) OpenText(key string) {
	s.ensure(key, BlockText)
}

// AppendText appends a text delta to the block with key, opening it when needed.
func (s *State) AppendText(key, delta string) {
	s.ensure(key, BlockText).text.WriteString(delta)
}

// OpenReasoning opens a reasoning block.
func (s *State) OpenReasoning(key string) {
	s.ensure(key, BlockReasoning)
}

// AppendReasoning appends a reasoning delta to the block with key, opening it when needed.
func (s *State) AppendReasoning(key, delta string) {
	s.ensure(key, BlockReasoning).text.WriteString(delta)
}

// SetSignature records the signature of a reasoning block.
func (s *State) SetSignature(key, signature string) {
	b := s.ensure(key, BlockReasoning)
	b.signature += signature
}

// AppendRedactedReasoning records an encrypted reasoning payload.
func (s *State) AppendRedactedReasoning(key, data string) {
	b := s.ensure(key, BlockReasoning)
	b.redacted = true
	b.text.WriteString(data)
}

// StartToolCall opens a tool-call block. A second start for an open key only fills in the
// id and name when they were missing.
func (s *State) StartToolCall(key, id, name string) {
	b := s.ensure(key, BlockToolCall)
	if b.id == "" {
		b.id = id
	}
	if b.name == "" {
		b.name = name
	}
}

// AppendToolArgs appends an arguments fragment to the tool call with key. Fragments are
// kept as they arrive and only joined when the call closes.
func (s *State) AppendToolArgs(key, fragment string) {
	if fragment == "" {
		s.ensure(key, BlockToolCall)
		return
	}
	b := s.ensure(key, BlockToolCall)
	b.fragments = append(b.fragments, fragment)
}

// Close flushes the block with key, if it is open.
func (s *State) Close(tx particle.Transmitter, key string) {
	idx := slices.IndexFunc(s.open, func(b *block) bool { return b.key == key })
	if idx < 0 {
		return
	}
	b := s.open[idx]
	s.open = slices.Delete(s.open, idx, idx+1)
	s.flush(tx, b)
}

// CloseKind flushes every open block of kind, in first-seen order.
func (s *State) CloseKind(tx particle.Transmitter, kind BlockKind) {
	var keep []*block
	var flush []*block
	for _, b := range s.open {
		if b.kind == kind {
			flush = append(flush, b)
		} else {
			keep = append(keep, b)
		}
	}
	s.open = keep
	for _, b := range flush {
		s.flush(tx, b)
	}
}

// CloseAll flushes every open block in first-seen order.
func (s *State) CloseAll(tx particle.Transmitter) {
	open := s.open
	s.open = nil
	for _, b := range open {
		s.flush(tx, b)
	}
}

// Finish flushes every open block, emits End and marks the response ended.
func (s *State) Finish(tx particle.Transmitter) {
	if s.done {
		return
	}
	s.CloseAll(tx)
	tx.End()
	s.done = true
}

func (s *State) flush(tx particle.Transmitter, b *block) {
	switch b.kind {
	case BlockText:
		if b.text.Len() > 0 {
			tx.AppendText(b.text.String())
		}
	case BlockReasoning:
		if b.text.Len() > 0 || b.signature != "" {
			tx.AppendReasoning(b.text.String(), b.signature, b.redacted)
		}
	case BlockToolCall:
		s.flushToolCall(tx, b)
	}
}

func (s *State) flushToolCall(tx particle.Transmitter, b *block) {
	tx.StartToolCall(b.id, b.name)
	for _, f := range b.fragments {
		tx.AppendToolCallArgs(b.id, f)
	}
	call, err := s.completeToolCall(b.id, b.name, strings.Join(b.fragments, ""))
	tx.EndToolCall(call)
	if err != nil {
		s.issue(tx, err)
	}
}

// EmitToolCall emits a tool call that arrived complete in one piece, as start, one
// arguments fragment and end.
func (s *State) EmitToolCall(tx particle.Transmitter, id, name, arguments string) {
	b := &block{kind: BlockToolCall, id: id, name: name}
	if arguments != "" {
		b.fragments = []string{arguments}
	}
	s.flushToolCall(tx, b)
}

func (s *State) completeToolCall(id, name, arguments string) (particle.ToolCall, error) {
	call := particle.ToolCall{ID: id, Name: name, Arguments: arguments}
	if strings.TrimSpace(arguments) == "" {
		call.Arguments = "{}"
		call.Input = map[string]any{}
		return call, nil
	}
	input := make(map[string]any)
	var err error
	if !gjson.Valid(arguments) || !gjson.Parse(arguments).IsObject() {
		err = fmt.Errorf("not a JSON object")
	} else {
		err = json.Unmarshal([]byte(arguments), &input)
	}
	if err != nil {
		return call, &api.MalformedEventError{
			Dialect: s.Dialect,
			Reason:  fmt.Sprintf("invalid arguments for tool call %s (%s)", name, id),
			Payload: arguments,
			Err:     err,
		}
	}
	call.Input = input
	return call, nil
}

func (s *State) issue(tx particle.Transmitter, err error) {
	slog.Warn("parser issue", slogx.Dialect(s.Dialect), slogx.Error(err))
	tx.SetIssue(particle.IssueFrom(err))
}

// Malformed reports an event that did not match the vendor schema. Parsing continues.
func (s *State) Malformed(tx particle.Transmitter, eventName string, payload []byte, reason string, cause error) error {
	err := &api.MalformedEventError{
		Dialect:   s.Dialect,
		EventName: eventName,
		Reason:    reason,
		Payload:   string(payload),
		Err:       cause,
	}
	s.issue(tx, err)
	return err
}

// Fail reports an in-band vendor error. Open blocks are discarded and the response ends.
func (s *State) Fail(tx particle.Transmitter, status int, code, message string) error {
	err := &api.VendorAPIError{
		Dialect:    s.Dialect,
		HTTPStatus: status,
		Code:       code,
		Message:    message,
	}
	s.open = nil
	s.issue(tx, err)
	s.done = true
	return err
}
