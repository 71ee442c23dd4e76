package anthropic

import (
	"log/slog"
	"strconv"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/slogx"
	"github.com/casualjim/aix/provider"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Parser consumes Messages API responses. Blocks are keyed by their content index.
type Parser struct {
	provider.State

	usage   particle.Usage
	skipped map[int]bool
}

// NewParser creates a parser for one connection.
func NewParser() provider.Parser {
	return &Parser{
		State:   provider.NewState(api.DialectAnthropic),
		skipped: make(map[int]bool),
	}
}

func (p *Parser) ParseEvent(tx particle.Transmitter, eventName string, data []byte) error {
	if p.Done() {
		return nil
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return p.Malformed(tx, eventName, data, "invalid json", err)
	}
	if ev.Type == "" {
		ev.Type = eventName
	}

	switch ev.Type {
	case "message_start":
		if ev.Message == nil {
			return p.Malformed(tx, ev.Type, data, "missing message", nil)
		}
		if ev.Message.Model != "" {
			tx.SetModelName(ev.Message.Model)
		}
		if ev.Message.Usage != nil {
			p.addUsage(tx, ev.Message.Usage)
		}

	case "content_block_start":
		if ev.ContentBlock == nil {
			return p.Malformed(tx, ev.Type, data, "missing content_block", nil)
		}
		p.startBlock(ev.Index, ev.ContentBlock)

	case "content_block_delta":
		if ev.Delta == nil {
			return p.Malformed(tx, ev.Type, data, "missing delta", nil)
		}
		return p.applyDelta(tx, ev.Index, ev.Delta, data)

	case "content_block_stop":
		delete(p.skipped, ev.Index)
		p.Close(tx, key(ev.Index))

	case "message_delta":
		if ev.Delta != nil && ev.Delta.StopReason != "" {
			p.Stop(tx, stopReason(ev.Delta.StopReason), ev.Delta.StopReason)
		}
		if ev.Usage != nil {
			p.addUsage(tx, ev.Usage)
		}

	case "message_stop":
		p.Finish(tx)

	case "error":
		return p.fail(tx, data)

	case "ping":
	default:
		slog.Debug("ignoring anthropic event", slogx.Event(ev.Type))
	}
	return nil
}

func (p *Parser) startBlock(index int, block *Block) {
	k := key(index)
	switch block.Type {
	case "text":
		p.AppendText(k, block.Text)
	case "thinking":
		p.AppendReasoning(k, block.Thinking)
		if block.Signature != "" {
			p.SetSignature(k, block.Signature)
		}
	case "redacted_thinking":
		p.AppendRedactedReasoning(k, block.Data)
	case "tool_use":
		p.StartToolCall(k, block.ID, block.Name)
	default:
		// server tools and future block types carry nothing this layer can represent
		p.skipped[index] = true
		slog.Debug("skipping anthropic content block", slog.String("type", block.Type))
	}
}

func (p *Parser) applyDelta(tx particle.Transmitter, index int, delta *Delta, data []byte) error {
	if p.skipped[index] {
		return nil
	}
	k := key(index)
	kind := p.Kind(k)
	if kind == provider.BlockNone {
		return p.Malformed(tx, "content_block_delta", data, "delta for a block that is not open", nil)
	}

	switch delta.Type {
	case "text_delta":
		p.AppendText(k, delta.Text)
	case "thinking_delta":
		p.AppendReasoning(k, delta.Thinking)
	case "signature_delta":
		p.SetSignature(k, delta.Signature)
	case "input_json_delta":
		p.AppendToolArgs(k, delta.PartialJSON)
	case "citations_delta":
	default:
		return p.Malformed(tx, "content_block_delta", data, "unknown delta type "+strconv.Quote(delta.Type), nil)
	}
	return nil
}

func (p *Parser) addUsage(tx particle.Transmitter, u *Usage) {
	if u.InputTokens > 0 {
		p.usage.InputTokens = u.InputTokens
	}
	if u.CacheReadInputTokens > 0 {
		p.usage.CacheReadTokens = u.CacheReadInputTokens
	}
	if u.CacheCreationInputTokens > 0 {
		p.usage.CacheWriteTokens = u.CacheCreationInputTokens
	}
	p.usage.OutputTokens = u.OutputTokens
	tx.SetUsage(p.usage)
}

func (p *Parser) fail(tx particle.Transmitter, data []byte) error {
	return p.Fail(tx, 0,
		gjson.GetBytes(data, "error.type").String(),
		gjson.GetBytes(data, "error.message").String(),
	)
}

func (p *Parser) ParseFullResponse(tx particle.Transmitter, body []byte) error {
	if !gjson.ValidBytes(body) {
		return p.Malformed(tx, "", body, "invalid json", nil)
	}
	if gjson.GetBytes(body, "type").String() == "error" {
		return p.fail(tx, body)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return p.Malformed(tx, "", body, "invalid message", err)
	}
	if resp.Model != "" {
		tx.SetModelName(resp.Model)
	}
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "tool_use" {
			p.EmitToolCall(tx, block.ID, block.Name, string(block.Input))
			continue
		}
		p.startBlock(i, block)
		p.Close(tx, key(i))
	}
	if resp.Usage != nil {
		p.addUsage(tx, resp.Usage)
	}
	if resp.StopReason != "" {
		p.Stop(tx, stopReason(resp.StopReason), resp.StopReason)
	}
	p.Finish(tx)
	return nil
}

func key(index int) string {
	return strconv.Itoa(index)
}

func stopReason(reason string) particle.Stop {
	switch reason {
	case "end_turn", "stop_sequence":
		return particle.StopEndTurn
	case "max_tokens":
		return particle.StopMaxTokens
	case "tool_use":
		return particle.StopToolUse
	case "refusal":
		return particle.StopFiltered
	default:
		return particle.StopOther
	}
}
