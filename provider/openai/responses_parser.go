package openai

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

// ResponsesParser consumes Responses API streams and bodies. Blocks are keyed by output
// index.
type ResponsesParser struct {
	provider.State

	model     string
	toolCalls bool
}

// NewResponsesParser creates a Responses API parser for one connection of dialect.
func NewResponsesParser(dialect api.Dialect) provider.Parser {
	return &ResponsesParser{State: provider.NewState(dialect)}
}

func (p *ResponsesParser) ParseEvent(tx particle.Transmitter, eventName string, data []byte) error {
	if p.Done() {
		return nil
	}

	var ev ResponsesEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return p.Malformed(tx, eventName, data, "invalid json", err)
	}
	if ev.Type == "" {
		ev.Type = eventName
	}
	k := strconv.Itoa(ev.OutputIndex)

	switch ev.Type {
	case "response.created", "response.in_progress":
		if ev.Response != nil {
			p.setModel(tx, ev.Response.Model)
		}

	case "response.output_item.added":
		if ev.Item == nil {
			return p.Malformed(tx, ev.Type, data, "missing item", nil)
		}
		p.openItem(k, ev.Item)

	case "response.output_text.delta", "response.refusal.delta":
		p.AppendText(k, ev.Delta)

	case "response.reasoning_summary_text.delta", "response.reasoning_text.delta":
		p.AppendReasoning(k, ev.Delta)

	case "response.function_call_arguments.delta":
		if p.Kind(k) != provider.BlockToolCall {
			return p.Malformed(tx, ev.Type, data, "arguments for a function call that is not open", nil)
		}
		p.AppendToolArgs(k, ev.Delta)

	case "response.output_item.done":
		if ev.Item != nil && ev.Item.Type == "reasoning" && ev.Item.EncryptedContent != "" {
			p.SetSignature(k, ev.Item.EncryptedContent)
		}
		if ev.Item != nil && ev.Item.Type == "function_call" && p.Kind(k) == provider.BlockNone {
			// the arguments were never streamed
			p.StartToolCall(k, ev.Item.CallID, ev.Item.Name)
			p.AppendToolArgs(k, ev.Item.Arguments)
		}
		p.Close(tx, k)

	case "response.completed", "response.incomplete":
		if ev.Response == nil {
			return p.Malformed(tx, ev.Type, data, "missing response", nil)
		}
		p.complete(tx, ev.Response)

	case "response.failed":
		return p.Fail(tx, 0,
			gjson.GetBytes(data, "response.error.code").String(),
			gjson.GetBytes(data, "response.error.message").String(),
		)

	case "error":
		return p.Fail(tx, 0,
			firstNonEmpty(gjson.GetBytes(data, "code").String(), gjson.GetBytes(data, "error.code").String()),
			firstNonEmpty(gjson.GetBytes(data, "message").String(), gjson.GetBytes(data, "error.message").String()),
		)

	default:
		slog.Debug("ignoring responses event", slogx.Event(ev.Type))
	}
	return nil
}

func (p *ResponsesParser) setModel(tx particle.Transmitter, model string) {
	if model != "" && model != p.model {
		p.model = model
		tx.SetModelName(model)
	}
}

func (p *ResponsesParser) openItem(k string, item *OutputItem) {
	switch item.Type {
	case "message":
		p.OpenText(k)
	case "reasoning":
		p.OpenReasoning(k)
	case "function_call":
		p.toolCalls = true
		p.StartToolCall(k, item.CallID, item.Name)
	default:
		slog.Debug("ignoring responses output item", slog.String("type", item.Type))
	}
}

func (p *ResponsesParser) complete(tx particle.Transmitter, resp *ResponsesResponse) {
	p.setModel(tx, resp.Model)
	p.CloseAll(tx)
	if resp.Usage != nil {
		tx.SetUsage(responsesUsage(resp.Usage))
	}

	switch {
	case resp.IncompleteDetails != nil && resp.IncompleteDetails.Reason != "":
		p.Stop(tx, stopReason(resp.IncompleteDetails.Reason), resp.IncompleteDetails.Reason)
	case p.toolCalls:
		p.Stop(tx, particle.StopToolUse, resp.Status)
	default:
		p.Stop(tx, particle.StopEndTurn, resp.Status)
	}
	p.Finish(tx)
}

func (p *ResponsesParser) ParseFullResponse(tx particle.Transmitter, body []byte) error {
	if !gjson.ValidBytes(body) {
		return p.Malformed(tx, "", body, "invalid json", nil)
	}
	if errObj := gjson.GetBytes(body, "error"); errObj.Exists() && errObj.Type != gjson.Null {
		return p.Fail(tx, 0, errObj.Get("code").String(), errObj.Get("message").String())
	}

	var resp ResponsesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return p.Malformed(tx, "", body, "invalid response", err)
	}
	p.setModel(tx, resp.Model)

	for i := range resp.Output {
		item := &resp.Output[i]
		k := strconv.Itoa(i)
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				p.AppendText(k, firstNonEmpty(c.Text, c.Refusal))
			}
		case "reasoning":
			for _, s := range item.Summary {
				p.AppendReasoning(k, s.Text)
			}
			if item.EncryptedContent != "" {
				p.SetSignature(k, item.EncryptedContent)
			}
		case "function_call":
			p.toolCalls = true
			p.EmitToolCall(tx, item.CallID, item.Name, item.Arguments)
			continue
		}
		p.Close(tx, k)
	}
	p.complete(tx, &resp)
	return nil
}

func responsesUsage(u *ResponsesUsage) particle.Usage {
	usage := particle.Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
	}
	if u.InputTokensDetails != nil {
		usage.CacheReadTokens = u.InputTokensDetails.CachedTokens
	}
	if u.OutputTokensDetails != nil {
		usage.ReasoningTokens = u.OutputTokensDetails.ReasoningTokens
	}
	return usage
}
