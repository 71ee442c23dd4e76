package demux

import "bytes"

var doneSentinel = []byte("[DONE]")

// SSE demuxes server-sent events. Frames end on a blank line; the event field names the
// frame and data lines are joined with a newline. Comments, id and retry fields are
// ignored. A [DONE] payload ends the stream without producing an event.
type SSE struct {
	buf []byte

	name    string
	data    []byte
	hasData bool
	done    bool
}

// NewSSE creates an SSE demuxer.
func NewSSE() *SSE {
	return &SSE{}
}

func (s *SSE) Demux(chunk []byte) []Event {
	if s.done {
		return nil
	}
	s.buf = append(s.buf, chunk...)

	var events []Event
	for !s.done {
		idx := bytes.IndexByte(s.buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(s.buf[:idx], []byte{'\r'})
		if ev, ok := s.line(line); ok {
			events = append(events, ev)
		}
		s.buf = s.buf[idx+1:]
	}
	if s.done {
		s.buf = nil
	}
	return events
}

func (s *SSE) line(line []byte) (Event, bool) {
	if len(line) == 0 {
		return s.dispatch()
	}
	if line[0] == ':' {
		return Event{}, false
	}

	field, value, _ := bytes.Cut(line, []byte{':'})
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	switch string(field) {
	case "event":
		s.name = string(value)
	case "data":
		if s.hasData {
			s.data = append(s.data, '\n')
		}
		s.data = append(s.data, value...)
		s.hasData = true
	}
	return Event{}, false
}

func (s *SSE) dispatch() (Event, bool) {
	defer s.reset()
	if !s.hasData {
		return Event{}, false
	}
	if bytes.Equal(s.data, doneSentinel) {
		s.done = true
		return Event{}, false
	}
	return Event{Name: s.name, Data: s.data}, true
}

func (s *SSE) reset() {
	s.name = ""
	s.data = nil
	s.hasData = false
}

func (s *SSE) Done() bool {
	return s.done
}

func (s *SSE) Close() int {
	dropped := len(bytes.TrimSpace(s.buf)) + len(s.data)
	s.buf = nil
	s.reset()
	s.done = true
	return dropped
}
