// Package demux splits a vendor response stream into discrete wire events.
//
// A Demuxer is push-driven: the transport hands it every chunk as it arrives and receives
// the events completed by that chunk. Partial frames are buffered across chunks, so the
// resulting event sequence does not depend on where the chunk boundaries fall.
package demux

import "fmt"

// Format names a stream framing.
type Format string

const (
	// FormatNone means the response is one complete JSON document.
	FormatNone Format = ""
	// FormatFastSSE is server-sent events with named frames and a [DONE] sentinel.
	FormatFastSSE Format = "fast-sse"
	// FormatJSONNL is one JSON object per line.
	FormatJSONNL Format = "json-nl"
)

func (f Format) String() string {
	if f == FormatNone {
		return "none"
	}
	return string(f)
}

// Event is one wire event. Name is the SSE event field and is empty for JSON-NL.
type Event struct {
	Name string
	Data []byte
}

// Demuxer turns stream chunks into wire events. A Demuxer is owned by one connection and is
// not safe for concurrent use.
type Demuxer interface {
	// Demux consumes one chunk and returns the events it completed, in order.
	Demux(chunk []byte) []Event
	// Done reports whether the stream signalled its own end. Later chunks are ignored.
	Done() bool
	// Close ends the stream and returns how many buffered bytes belonged to an incomplete
	// frame and were dropped.
	Close() int
}

// New creates a demuxer for format.
func New(format Format) (Demuxer, error) {
	switch format {
	case FormatFastSSE:
		return NewSSE(), nil
	case FormatJSONNL:
		return NewJSONNL(), nil
	default:
		return nil, fmt.Errorf("no demuxer for format %q", format)
	}
}
