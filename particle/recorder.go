package particle

import (
	"slices"
	"strings"
	"sync"
)

// Recorder is an in-memory Transmitter. It is safe to read while a connection is writing.
type Recorder struct {
	Transmitter

	mu        sync.Mutex
	particles []Particle
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.Transmitter = Emit(r.record)
	return r
}

func (r *Recorder) record(p Particle) {
	r.mu.Lock()
	r.particles = append(r.particles, p)
	r.mu.Unlock()
}

// Particles returns a copy of everything recorded so far.
func (r *Recorder) Particles() []Particle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.particles)
}

// Kinds returns the kind of every recorded particle, in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.particles))
	for i, p := range r.particles {
		kinds[i] = p.Kind()
	}
	return kinds
}

// Text concatenates every recorded text particle.
func (r *Recorder) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	for _, p := range r.particles {
		if t, ok := p.(Text); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ToolCalls returns every closed tool call.
func (r *Recorder) ToolCalls() []ToolCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var calls []ToolCall
	for _, p := range r.particles {
		if end, ok := p.(ToolCallEnd); ok {
			calls = append(calls, end.ToolCall)
		}
	}
	return calls
}

// Issues returns every recorded issue.
func (r *Recorder) Issues() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var issues []Issue
	for _, p := range r.particles {
		if issue, ok := p.(Issue); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

// Reset discards everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.particles = nil
	r.mu.Unlock()
}
