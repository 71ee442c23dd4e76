// Package provider defines the contract shared by the vendor event parsers and the
// per-connection state they are built on.
//
// Design decisions:
//   - One parser instance per connection: all mutable parse state lives in a State value
//     owned by that instance and is never shared.
//   - Blocks, not deltas: text, reasoning and tool-call fragments accumulate in an open
//     block and are flushed as complete particles when the vendor closes the block.
//   - One accumulation policy for every vendor: fragments are appended in arrival order and
//     blocks are flushed in the order they were first seen.
//   - Tool-call arguments are only interpreted as JSON once the call is closed. An empty
//     argument string means an empty object.
//   - Recoverable and fatal errors are distinct: a malformed event is reported as an issue
//     particle and parsing continues, a vendor error is reported and ends the stream.
//
// Key concepts:
//   - Parser: consumes wire events (streaming) or a full body (non-streaming)
//   - State: the block accumulator plus the terminated flag
//
// Example usage:
//
//	p := anthropic.NewParser()
//	for _, ev := range demuxer.Demux(chunk) {
//	    if err := p.ParseEvent(tx, ev.Name, ev.Data); err != nil {
//	        slog.Warn("event rejected", slogx.Error(err))
//	    }
//	    if p.Done() {
//	        break
//	    }
//	}
package provider
