package ollama

import (
	"fmt"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/provider"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const (
	textKey      = "text"
	reasoningKey = "thinking"
)

// Parser consumes native /api/chat responses, one JSON object per line. Tool calls arrive
// complete and are emitted as soon as they are seen.
type Parser struct {
	provider.State

	model string
	calls int
}

// NewParser creates a parser for one connection.
func NewParser() provider.Parser {
	return &Parser{State: provider.NewState(api.DialectOllama)}
}

func (p *Parser) ParseEvent(tx particle.Transmitter, eventName string, data []byte) error {
	if p.Done() {
		return nil
	}
	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return p.Malformed(tx, eventName, data, "invalid json", err)
	}
	return p.apply(tx, &resp)
}

func (p *Parser) apply(tx particle.Transmitter, resp *ChatResponse) error {
	if resp.Error != "" {
		return p.Fail(tx, 0, "", resp.Error)
	}
	if resp.Model != "" && resp.Model != p.model {
		p.model = resp.Model
		tx.SetModelName(resp.Model)
	}

	if msg := resp.Message; msg != nil {
		if msg.Thinking != "" {
			p.AppendReasoning(reasoningKey, msg.Thinking)
		}
		if msg.Content != "" {
			p.Close(tx, reasoningKey)
			p.AppendText(textKey, msg.Content)
		}
		if len(msg.ToolCalls) > 0 {
			// preceding text must reach the sink first
			p.CloseAll(tx)
			for _, call := range msg.ToolCalls {
				var args string
				if len(call.Function.Arguments) > 0 && gjson.ParseBytes(call.Function.Arguments).Type != gjson.Null {
					args = string(call.Function.Arguments)
				}
				p.EmitToolCall(tx, fmt.Sprintf("call_%d", p.calls), call.Function.Name, args)
				p.calls++
			}
		}
	}

	if resp.Done {
		p.CloseAll(tx)
		tx.SetUsage(particle.Usage{InputTokens: resp.PromptEvalCount, OutputTokens: resp.EvalCount})
		reason := stopReason(resp.DoneReason)
		if reason == particle.StopEndTurn && p.calls > 0 {
			reason = particle.StopToolUse
		}
		p.Stop(tx, reason, resp.DoneReason)
		p.Finish(tx)
	}
	return nil
}

func (p *Parser) ParseFullResponse(tx particle.Transmitter, body []byte) error {
	if err := p.ParseEvent(tx, "", body); err != nil {
		return err
	}
	p.Finish(tx)
	return nil
}

func stopReason(reason string) particle.Stop {
	switch reason {
	case "stop", "":
		return particle.StopEndTurn
	case "length":
		return particle.StopMaxTokens
	default:
		return particle.StopOther
	}
}
