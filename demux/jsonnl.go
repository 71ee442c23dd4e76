package demux

import "bytes"

// JSONNL demuxes newline-delimited JSON. Every non-blank line is one event.
type JSONNL struct {
	buf    []byte
	closed bool
}

// NewJSONNL creates a JSON-NL demuxer.
func NewJSONNL() *JSONNL {
	return &JSONNL{}
}

func (j *JSONNL) Demux(chunk []byte) []Event {
	if j.closed {
		return nil
	}
	j.buf = append(j.buf, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(j.buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSpace(j.buf[:idx])
		if len(line) > 0 {
			events = append(events, Event{Data: bytes.Clone(line)})
		}
		j.buf = j.buf[idx+1:]
	}
	return events
}

// Done is always false: JSON-NL streams carry their end marker inside the payload.
func (j *JSONNL) Done() bool {
	return false
}

func (j *JSONNL) Close() int {
	dropped := len(bytes.TrimSpace(j.buf))
	j.buf = nil
	j.closed = true
	return dropped
}
