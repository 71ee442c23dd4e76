package particle

import "fmt"

// Transmitter receives the particles of one connection, strictly in emission order. Parsers
// call it only from inside ParseEvent and ParseFullResponse; the transport calls it for the
// terminal transport signals.
type Transmitter interface {
	AppendText(text string)
	AppendReasoning(text, signature string, redacted bool)
	StartToolCall(id, name string)
	AppendToolCallArgs(id, fragment string)
	EndToolCall(call ToolCall)
	SetUsage(usage Usage)
	SetModelName(name string)
	SetStopReason(reason Stop, vendor string)
	End()
	SetIssue(issue Issue)
	Cancel(reason string)
}

// Emit returns a Transmitter that hands every call to fn as a Particle value.
func Emit(fn func(Particle)) Transmitter {
	return emitter(fn)
}

type emitter func(Particle)

func (e emitter) AppendText(text string) { e(Text{Text: text}) }

func (e emitter) AppendReasoning(text, signature string, redacted bool) {
	e(Reasoning{Text: text, Signature: signature, Redacted: redacted})
}

func (e emitter) StartToolCall(id, name string) { e(ToolCallStart{ID: id, Name: name}) }

func (e emitter) AppendToolCallArgs(id, fragment string) {
	e(ToolCallArgs{ID: id, Fragment: fragment})
}

func (e emitter) EndToolCall(call ToolCall) { e(ToolCallEnd{ToolCall: call}) }
func (e emitter) SetUsage(usage Usage)      { e(usage) }
func (e emitter) SetModelName(name string)  { e(ModelName{Name: name}) }

func (e emitter) SetStopReason(reason Stop, vendor string) {
	e(StopReason{Reason: reason, Vendor: vendor})
}

func (e emitter) End()                 { e(End{}) }
func (e emitter) SetIssue(issue Issue) { e(issue) }
func (e emitter) Cancel(reason string) { e(Cancel{Reason: reason}) }

// Replay delivers a particle value to the matching Transmitter method.
func Replay(tx Transmitter, p Particle) {
	switch p := p.(type) {
	case Text:
		tx.AppendText(p.Text)
	case Reasoning:
		tx.AppendReasoning(p.Text, p.Signature, p.Redacted)
	case ToolCallStart:
		tx.StartToolCall(p.ID, p.Name)
	case ToolCallArgs:
		tx.AppendToolCallArgs(p.ID, p.Fragment)
	case ToolCallEnd:
		tx.EndToolCall(p.ToolCall)
	case Usage:
		tx.SetUsage(p)
	case ModelName:
		tx.SetModelName(p.Name)
	case StopReason:
		tx.SetStopReason(p.Reason, p.Vendor)
	case End:
		tx.End()
	case Issue:
		tx.SetIssue(p)
	case Cancel:
		tx.Cancel(p.Reason)
	default:
		// This should never occur, the particle set is closed.
		panic(fmt.Sprintf("unknown particle type: %T", p))
	}
}

// Tee fans every particle out to all the given transmitters, in argument order.
func Tee(txs ...Transmitter) Transmitter {
	return Emit(func(p Particle) {
		for _, tx := range txs {
			Replay(tx, p)
		}
	})
}
