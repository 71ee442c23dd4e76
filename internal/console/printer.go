// Package console renders a particle stream on a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/casualjim/aix/particle"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/fogfish/opts"
)

// Printer is a particle.Transmitter that writes a response to a terminal as it streams.
// Text is written as it arrives unless a markdown renderer is configured, in which case
// the text is rendered once the response ends.
type Printer struct {
	w             io.Writer
	label         string
	markdown      *glamour.TermRenderer
	showReasoning bool
	showUsage     bool

	mu        sync.Mutex
	text      strings.Builder
	labeled   bool
	midLine   bool
	reasoning bool
	model     string
	usage     particle.Usage
	stop      particle.StopReason
}

var (
	// WithLabel sets the speaker printed before the response, "Assistant" by default.
	WithLabel = opts.ForName[Printer, string]("label")
	// WithMarkdown renders the final text with a glamour renderer instead of streaming it.
	WithMarkdown = opts.ForName[Printer, *glamour.TermRenderer]("markdown")
	// WithReasoning prints visible reasoning fragments.
	WithReasoning = opts.ForName[Printer, bool]("showReasoning")
	// WithUsage prints the model, stop reason and token counters when the response ends.
	WithUsage = opts.ForName[Printer, bool]("showUsage")
)

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, options ...opts.Option[Printer]) (*Printer, error) {
	p := &Printer{w: w, label: "Assistant"}
	if err := opts.Apply(p, options); err != nil {
		return nil, err
	}
	return p, nil
}

// NewMarkdownRenderer returns a glamour renderer that picks its style from the terminal.
func NewMarkdownRenderer() (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(glamour.WithAutoStyle())
}

func (p *Printer) printLabel() {
	if p.labeled {
		return
	}
	p.labeled = true
	fmt.Fprint(p.w, color.MagentaString(p.label)+": ")
}

func (p *Printer) newline() {
	if p.midLine {
		fmt.Fprintln(p.w)
		p.midLine = false
	}
}

func (p *Printer) AppendText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.markdown != nil {
		p.text.WriteString(text)
		return
	}
	if p.reasoning {
		p.reasoning = false
		p.newline()
	}
	p.printLabel()
	fmt.Fprint(p.w, text)
	p.midLine = !strings.HasSuffix(text, "\n")
}

func (p *Printer) AppendReasoning(text, _ string, redacted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.showReasoning || redacted || text == "" {
		return
	}
	if !p.reasoning {
		p.newline()
		fmt.Fprint(p.w, color.HiBlackString("thinking: "))
		p.reasoning = true
	}
	fmt.Fprint(p.w, color.HiBlackString(text))
	p.midLine = !strings.HasSuffix(text, "\n")
}

func (p *Printer) StartToolCall(string, string) {}

func (p *Printer) AppendToolCallArgs(string, string) {}

func (p *Printer) EndToolCall(call particle.ToolCall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reasoning = false
	p.newline()
	args := strings.ReplaceAll(call.Arguments, ": ", "=")
	fmt.Fprintf(p.w, "%s%s\n", color.YellowString(call.Name), args)
}

func (p *Printer) SetUsage(usage particle.Usage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.usage = usage
}

func (p *Printer) SetModelName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = name
}

func (p *Printer) SetStopReason(reason particle.Stop, vendor string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop = particle.StopReason{Reason: reason, Vendor: vendor}
}

func (p *Printer) End() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.markdown != nil && p.text.Len() > 0 {
		p.newline()
		out, err := p.markdown.Render(p.text.String())
		if err != nil {
			out = p.text.String()
		}
		fmt.Fprint(p.w, color.MagentaString(p.label)+":")
		fmt.Fprintln(p.w, out)
		p.text.Reset()
	}
	p.newline()
	if p.showUsage {
		fmt.Fprintln(p.w, color.HiBlackString(p.summary()))
	}
	p.reset()
}

// reset prepares the printer for the next response.
func (p *Printer) reset() {
	p.text.Reset()
	p.labeled = false
	p.reasoning = false
	p.model = ""
	p.usage = particle.Usage{}
	p.stop = particle.StopReason{}
}

func (p *Printer) summary() string {
	var b strings.Builder
	if p.model != "" {
		fmt.Fprintf(&b, "[%s] ", p.model)
	}
	if p.stop.Reason != "" {
		fmt.Fprintf(&b, "stop=%s ", p.stop.Reason)
	}
	fmt.Fprintf(&b, "in=%d out=%d", p.usage.InputTokens, p.usage.OutputTokens)
	if p.usage.ReasoningTokens > 0 {
		fmt.Fprintf(&b, " reasoning=%d", p.usage.ReasoningTokens)
	}
	if p.usage.CacheReadTokens > 0 {
		fmt.Fprintf(&b, " cached=%d", p.usage.CacheReadTokens)
	}
	if p.usage.TimeToFirstToken > 0 {
		fmt.Fprintf(&b, " ttft=%s", p.usage.TimeToFirstToken.Round(time.Millisecond))
	}
	return b.String()
}

func (p *Printer) SetIssue(issue particle.Issue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.newline()
	if issue.Terminal {
		fmt.Fprintf(p.w, "%s %s\n", color.RedString("Error:"), issue.Message)
		p.reset()
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", color.YellowString("Warning:"), issue.Message)
}

func (p *Printer) Cancel(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.newline()
	fmt.Fprintf(p.w, "%s %s\n", color.RedString("Canceled:"), reason)
	p.reset()
}
