package openai

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
	reasoningKey = "reasoning"
)

// ChatParser consumes chat completions responses for any dialect of the OpenAI family.
type ChatParser struct {
	provider.State

	model   string
	usage   bool
	callIDs map[int]string
}

// NewChatParser creates a chat completions parser for one connection of dialect.
func NewChatParser(dialect api.Dialect) provider.Parser {
	return &ChatParser{
		State:   provider.NewState(dialect),
		callIDs: make(map[int]string),
	}
}

func (p *ChatParser) ParseEvent(tx particle.Transmitter, eventName string, data []byte) error {
	if p.Done() {
		return nil
	}
	if !gjson.ValidBytes(data) {
		return p.Malformed(tx, eventName, data, "invalid json", nil)
	}
	if errObj := gjson.GetBytes(data, "error"); errObj.Exists() && errObj.Type != gjson.Null {
		return p.fail(tx, errObj)
	}

	var chunk ChatChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return p.Malformed(tx, eventName, data, "invalid chunk", err)
	}
	p.setModel(tx, chunk.Model)

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		if choice.Delta != nil {
			p.applyDelta(tx, choice.Delta)
		}
		if choice.FinishReason != "" {
			p.CloseAll(tx)
			p.Stop(tx, stopReason(choice.FinishReason), choice.FinishReason)
		}
	}

	if chunk.Usage != nil {
		tx.SetUsage(chatUsage(chunk.Usage))
		p.usage = true
	}
	if p.Stopped() && p.usage {
		p.Finish(tx)
	}
	return nil
}

func (p *ChatParser) setModel(tx particle.Transmitter, model string) {
	if model != "" && model != p.model {
		p.model = model
		tx.SetModelName(model)
	}
}

func (p *ChatParser) applyDelta(tx particle.Transmitter, delta *ChatMessage) {
	reasoning := delta.ReasoningContent
	if reasoning == "" {
		reasoning = delta.Reasoning
	}
	if reasoning != "" {
		p.AppendReasoning(reasoningKey, reasoning)
	}

	content := delta.Content
	if content == "" {
		content = delta.Refusal
	}
	if content != "" {
		// reasoning always precedes the answer
		p.Close(tx, reasoningKey)
		p.AppendText(textKey, content)
	}

	for i, call := range delta.ToolCalls {
		index := i
		if call.Index != nil {
			index = *call.Index
		}
		key := fmt.Sprintf("tool:%d", index)

		// a new id on a known index starts a new call
		if call.ID != "" && p.callIDs[index] != "" && p.callIDs[index] != call.ID {
			p.Close(tx, key)
		}
		if p.Kind(key) == provider.BlockNone {
			id := call.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", index)
			}
			p.callIDs[index] = id
			p.StartToolCall(key, id, call.Function.Name)
		}
		p.AppendToolArgs(key, call.Function.ArgumentsString())
	}
}

func (p *ChatParser) fail(tx particle.Transmitter, errObj gjson.Result) error {
	code := errObj.Get("code").String()
	if code == "" {
		code = errObj.Get("type").String()
	}
	message := errObj.Get("message").String()
	if message == "" && errObj.Type == gjson.String {
		message = errObj.String()
	}
	return p.Fail(tx, int(errObj.Get("status").Int()), code, message)
}

// ParseFullResponse handles a non-streaming response. Tool call entries that share an index
// with, or carry no id after, a previous entry are fragments of that call and are merged.
func (p *ChatParser) ParseFullResponse(tx particle.Transmitter, body []byte) error {
	if !gjson.ValidBytes(body) {
		return p.Malformed(tx, "", body, "invalid json", nil)
	}
	if errObj := gjson.GetBytes(body, "error"); errObj.Exists() && errObj.Type != gjson.Null {
		return p.fail(tx, errObj)
	}

	var resp ChatChunk
	if err := json.Unmarshal(body, &resp); err != nil {
		return p.Malformed(tx, "", body, "invalid response", err)
	}
	p.setModel(tx, resp.Model)

	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil {
		msg := resp.Choices[0].Message
		if r := firstNonEmpty(msg.ReasoningContent, msg.Reasoning); r != "" {
			p.AppendReasoning(reasoningKey, r)
			p.Close(tx, reasoningKey)
		}
		if c := firstNonEmpty(msg.Content, msg.Refusal); c != "" {
			p.AppendText(textKey, c)
			p.Close(tx, textKey)
		}

		var (
			current   string
			lastIndex *int
		)
		for i, call := range msg.ToolCalls {
			merge := current != "" &&
				((call.Index != nil && lastIndex != nil && *call.Index == *lastIndex) || call.ID == "")
			if !merge {
				if current != "" {
					p.Close(tx, current)
				}
				current = fmt.Sprintf("tool:%d", i)
				id := call.ID
				if id == "" {
					id = fmt.Sprintf("call_%d", i)
				}
				p.StartToolCall(current, id, call.Function.Name)
			}
			lastIndex = call.Index
			p.AppendToolArgs(current, call.Function.ArgumentsString())
		}
		if current != "" {
			p.Close(tx, current)
		}
	}

	if resp.Usage != nil {
		tx.SetUsage(chatUsage(resp.Usage))
	}
	if len(resp.Choices) > 0 && resp.Choices[0].FinishReason != "" {
		p.Stop(tx, stopReason(resp.Choices[0].FinishReason), resp.Choices[0].FinishReason)
	}
	p.Finish(tx)
	return nil
}

func chatUsage(u *ChatUsage) particle.Usage {
	usage := particle.Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
	}
	if u.PromptTokensDetails != nil {
		usage.CacheReadTokens = u.PromptTokensDetails.CachedTokens
	}
	if u.CompletionTokensDetails != nil {
		usage.ReasoningTokens = u.CompletionTokensDetails.ReasoningTokens
	}
	return usage
}

func stopReason(reason string) particle.Stop {
	switch reason {
	case "stop", "end_turn", "completed":
		return particle.StopEndTurn
	case "length", "max_output_tokens":
		return particle.StopMaxTokens
	case "tool_calls", "function_call":
		return particle.StopToolUse
	case "content_filter":
		return particle.StopFiltered
	default:
		return particle.StopOther
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
