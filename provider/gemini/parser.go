package gemini

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/provider"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Parser consumes generateContent responses. Every streamed event is a complete response
// object carrying the next parts, so blocks are delimited by a change of part kind.
type Parser struct {
	provider.State

	model     string
	announced bool
	usage     *UsageMetadata

	current provider.BlockKind
	blocks  int
	calls   int
}

// NewParser creates a parser for one connection. The model name is announced when the
// vendor does not report a model version.
func NewParser(model string) provider.Parser {
	return &Parser{
		State: provider.NewState(api.DialectGemini),
		model: strings.TrimPrefix(model, "models/"),
	}
}

func (p *Parser) ParseEvent(tx particle.Transmitter, eventName string, data []byte) error {
	if p.Done() {
		return nil
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return p.Malformed(tx, eventName, data, "invalid json", err)
	}
	return p.apply(tx, &resp)
}

func (p *Parser) apply(tx particle.Transmitter, resp *Response) error {
	if resp.Error != nil {
		return p.Fail(tx, resp.Error.Code, resp.Error.Status, resp.Error.Message)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return p.Fail(tx, 0, resp.PromptFeedback.BlockReason, "prompt blocked: "+resp.PromptFeedback.BlockReason)
	}

	if !p.announced {
		p.announced = true
		if name := strings.TrimPrefix(resp.ModelVersion, "models/"); name != "" {
			tx.SetModelName(name)
		} else if p.model != "" {
			tx.SetModelName(p.model)
		}
	}
	if resp.UsageMetadata != nil {
		p.usage = resp.UsageMetadata
	}
	if len(resp.Candidates) == 0 {
		return nil
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for i := range candidate.Content.Parts {
			p.applyPart(tx, &candidate.Content.Parts[i])
		}
	}

	if candidate.FinishReason != "" {
		p.CloseAll(tx)
		p.current = provider.BlockNone
		if p.usage != nil {
			tx.SetUsage(usage(p.usage))
		}
		reason := stopReason(candidate.FinishReason)
		if reason == particle.StopEndTurn && p.calls > 0 {
			reason = particle.StopToolUse
		}
		p.Stop(tx, reason, candidate.FinishReason)
		p.Finish(tx)
	}
	return nil
}

func (p *Parser) applyPart(tx particle.Transmitter, part *Part) {
	switch {
	case part.FunctionCall != nil:
		p.switchTo(tx, provider.BlockNone)
		id := part.FunctionCall.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", p.calls)
		}
		p.calls++
		var args string
		if len(part.FunctionCall.Args) > 0 && gjson.ParseBytes(part.FunctionCall.Args).Type != gjson.Null {
			args = string(part.FunctionCall.Args)
		}
		p.EmitToolCall(tx, id, part.FunctionCall.Name, args)

	case part.Thought:
		k := p.switchTo(tx, provider.BlockReasoning)
		p.AppendReasoning(k, part.Text)
		if part.ThoughtSignature != "" {
			p.SetSignature(k, part.ThoughtSignature)
		}

	case part.Text != "":
		k := p.switchTo(tx, provider.BlockText)
		p.AppendText(k, part.Text)

	case part.ThoughtSignature != "" && p.current == provider.BlockReasoning:
		p.SetSignature(p.key(), part.ThoughtSignature)

	default:
		slog.Debug("ignoring gemini part")
	}
}

// switchTo closes the open block unless it already has the wanted kind, and returns the key
// of the block to append to.
func (p *Parser) switchTo(tx particle.Transmitter, kind provider.BlockKind) string {
	if p.current == kind && kind != provider.BlockNone {
		return p.key()
	}
	if p.current != provider.BlockNone {
		p.Close(tx, p.key())
		p.blocks++
	}
	p.current = kind
	return p.key()
}

func (p *Parser) key() string {
	return strconv.Itoa(p.blocks)
}

// ParseFullResponse handles a generateContent body. A JSON array of responses, as returned
// by streamGenerateContent without alt=sse, is applied element by element.
func (p *Parser) ParseFullResponse(tx particle.Transmitter, body []byte) error {
	if !gjson.ValidBytes(body) {
		return p.Malformed(tx, "", body, "invalid json", nil)
	}
	parsed := gjson.ParseBytes(body)

	var items []gjson.Result
	if parsed.IsArray() {
		items = parsed.Array()
	} else {
		items = []gjson.Result{parsed}
	}
	for _, item := range items {
		if p.Done() {
			break
		}
		var resp Response
		if err := json.Unmarshal([]byte(item.Raw), &resp); err != nil {
			return p.Malformed(tx, "", []byte(item.Raw), "invalid response", err)
		}
		if err := p.apply(tx, &resp); err != nil {
			return err
		}
	}

	if !p.Done() {
		p.CloseAll(tx)
		if p.usage != nil {
			tx.SetUsage(usage(p.usage))
		}
		p.Finish(tx)
	}
	return nil
}

func usage(u *UsageMetadata) particle.Usage {
	return particle.Usage{
		InputTokens:     u.PromptTokenCount,
		OutputTokens:    u.CandidatesTokenCount + u.ThoughtsTokenCount,
		ReasoningTokens: u.ThoughtsTokenCount,
		CacheReadTokens: u.CachedContentTokenCount,
	}
}

func stopReason(reason string) particle.Stop {
	switch reason {
	case "STOP":
		return particle.StopEndTurn
	case "MAX_TOKENS":
		return particle.StopMaxTokens
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "IMAGE_SAFETY":
		return particle.StopFiltered
	default:
		return particle.StopOther
	}
}
