package shorttermmemory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/messages"
)

// ErrCanceled is returned by Collector.Err when the connection was aborted.
var ErrCanceled = errors.New("response canceled")

// Collect returns a Transmitter that folds one response into an assistant turn. When the
// response ends, the turn is appended to the aggregator and its usage is added. A canceled
// or failed response leaves the aggregator untouched.
func (a *Aggregator) Collect() *Collector {
	return &Collector{agg: a}
}

// Collector is a particle.Transmitter for a single connection.
type Collector struct {
	agg *Aggregator

	mu        sync.Mutex
	parts     []messages.Part
	text      strings.Builder
	reasoning strings.Builder
	usage     particle.Usage
	model     string
	stop      particle.StopReason
	issues    []particle.Issue
	err       error
	ended     bool
}

func (c *Collector) AppendText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text.WriteString(text)
}

func (c *Collector) AppendReasoning(text, _ string, redacted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !redacted {
		c.reasoning.WriteString(text)
	}
}

func (c *Collector) StartToolCall(string, string) {}

func (c *Collector) AppendToolCallArgs(string, string) {}

func (c *Collector) EndToolCall(call particle.ToolCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushText()
	c.parts = append(c.parts, messages.ToolCall(call.ID, call.Name, call.Arguments))
}

func (c *Collector) SetUsage(usage particle.Usage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage = usage
}

func (c *Collector) SetModelName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = name
}

func (c *Collector) SetStopReason(reason particle.Stop, vendor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop = particle.StopReason{Reason: reason, Vendor: vendor}
}

func (c *Collector) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended || c.err != nil {
		return
	}
	c.ended = true
	c.flushText()
	if len(c.parts) > 0 {
		c.agg.Add(messages.Assistant(c.parts...))
	}
	c.agg.usage.Add(c.usage)
}

func (c *Collector) SetIssue(issue particle.Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, issue)
	if issue.Terminal && c.err == nil && !c.ended {
		c.err = fmt.Errorf("%s issue: %s", issue.Class, issue.Message)
	}
}

func (c *Collector) Cancel(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil && !c.ended {
		c.err = fmt.Errorf("%w: %s", ErrCanceled, reason)
	}
}

func (c *Collector) flushText() {
	if c.text.Len() == 0 {
		return
	}
	c.parts = append(c.parts, messages.Text(c.text.String()))
	c.text.Reset()
}

// Ended reports whether the response completed and was committed.
func (c *Collector) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

// Err returns the reason the response did not complete, nil when it ended normally or is
// still streaming.
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Reasoning returns the visible reasoning text. It is kept out of the conversation.
func (c *Collector) Reasoning() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reasoning.String()
}

// Model returns the model name the vendor reported.
func (c *Collector) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// StopReason returns the stop reason of the response.
func (c *Collector) StopReason() particle.StopReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop
}

// Usage returns the final usage of this response.
func (c *Collector) Usage() particle.Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// Issues returns every issue reported on the connection, terminal or not.
func (c *Collector) Issues() []particle.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]particle.Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

// ToolCalls returns the tool calls of the response in emission order.
func (c *Collector) ToolCalls() []messages.ToolCallPart {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []messages.ToolCallPart
	for _, p := range c.parts {
		if tc, ok := p.(messages.ToolCallPart); ok {
			out = append(out, tc)
		}
	}
	return out
}
