package demux

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anthropicStream = "event: message_start\r\n" +
	"data: {\"type\":\"message_start\"}\r\n" +
	"\r\n" +
	": keepalive\n" +
	"\n" +
	"event: ping\n" +
	"data: {\"type\": \"ping\"}\n" +
	"\n" +
	"id: 7\n" +
	"retry: 1000\n" +
	"event: content_block_delta\n" +
	"data:{\"a\":1}\n" +
	"data: {\"b\":2}\n" +
	"\n"

func collect(d Demuxer, chunks ...[]byte) []Event {
	var events []Event
	for _, c := range chunks {
		events = append(events, d.Demux(c)...)
	}
	return events
}

// splits returns the stream cut at every boundary, byte by byte, and as a whole.
func splits(stream string) map[string][][]byte {
	out := map[string][][]byte{"whole": {[]byte(stream)}}
	var bytewise [][]byte
	for i := range len(stream) {
		bytewise = append(bytewise, []byte{stream[i]})
	}
	out["bytewise"] = bytewise
	for i := 1; i < len(stream); i += 5 {
		out[fmt.Sprintf("cut-%d", i)] = [][]byte{[]byte(stream[:i]), []byte(stream[i:])}
	}
	return out
}

func TestSSE_Demux(t *testing.T) {
	want := []Event{
		{Name: "message_start", Data: []byte(`{"type":"message_start"}`)},
		{Name: "ping", Data: []byte(`{"type": "ping"}`)},
		{Name: "content_block_delta", Data: []byte("{\"a\":1}\n{\"b\":2}")},
	}

	for name, chunks := range splits(anthropicStream) {
		t.Run(name, func(t *testing.T) {
			d := NewSSE()
			assert.Equal(t, want, collect(d, chunks...))
			assert.False(t, d.Done())
			assert.Zero(t, d.Close())
		})
	}
}

func TestSSE_Done(t *testing.T) {
	stream := "data: {\"choices\":[]}\n\ndata: [DONE]\n\ndata: {\"late\":true}\n\n"

	for name, chunks := range splits(stream) {
		t.Run(name, func(t *testing.T) {
			d := NewSSE()
			events := collect(d, chunks...)
			require.Len(t, events, 1)
			assert.Equal(t, `{"choices":[]}`, string(events[0].Data))
			assert.Empty(t, events[0].Name)
			assert.True(t, d.Done())
			assert.Zero(t, d.Close())
		})
	}
}

func TestSSE_Close_ReportsDroppedBytes(t *testing.T) {
	d := NewSSE()
	events := d.Demux([]byte("data: {\"ok\":1}\n\ndata: {\"partial\""))
	require.Len(t, events, 1)
	assert.Equal(t, len(`data: {"partial"`), d.Close())
	assert.Nil(t, d.Demux([]byte("\n\n")))

	d = NewSSE()
	d.Demux([]byte("data: abc\n"))
	assert.Equal(t, 3, d.Close())
}

func TestSSE_FramesWithoutDataAreSkipped(t *testing.T) {
	d := NewSSE()
	events := d.Demux([]byte("event: ping\n\nevent: named\ndata\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "named", events[0].Name)
	assert.Empty(t, events[0].Data)
}

func TestJSONNL_Demux(t *testing.T) {
	stream := "{\"message\":{\"content\":\"Hel\"}}\n\n  \r\n{\"message\":{\"content\":\"lo\"}}\r\n{\"done\":true}\n"
	want := []Event{
		{Data: []byte(`{"message":{"content":"Hel"}}`)},
		{Data: []byte(`{"message":{"content":"lo"}}`)},
		{Data: []byte(`{"done":true}`)},
	}

	for name, chunks := range splits(stream) {
		t.Run(name, func(t *testing.T) {
			d := NewJSONNL()
			assert.Equal(t, want, collect(d, chunks...))
			assert.False(t, d.Done())
			assert.Zero(t, d.Close())
		})
	}
}

func TestJSONNL_Close_ReportsDroppedBytes(t *testing.T) {
	d := NewJSONNL()
	d.Demux([]byte("{\"a\":1}\n{\"b\":"))
	assert.Equal(t, len(`{"b":`), d.Close())
	assert.Nil(t, d.Demux([]byte("2}\n")))
}

func TestNew(t *testing.T) {
	d, err := New(FormatFastSSE)
	require.NoError(t, err)
	assert.IsType(t, &SSE{}, d)

	d, err = New(FormatJSONNL)
	require.NoError(t, err)
	assert.IsType(t, &JSONNL{}, d)

	_, err = New(FormatNone)
	require.Error(t, err)
	assert.Equal(t, "none", FormatNone.String())
}
