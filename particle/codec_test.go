package particle

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestEnvelope_JSON(t *testing.T) {
	connID := uuid.New()
	var envelopes []Envelope
	tx := Stamp(connID, func(e Envelope) { envelopes = append(envelopes, e) })

	tx.StartToolCall("c1", "lookup")
	tx.EndToolCall(ToolCall{ID: "c1", Name: "lookup", Arguments: `{"q":"go"}`, Input: map[string]any{"q": "go"}})
	tx.SetUsage(Usage{InputTokens: 10, OutputTokens: 2, TimeToFirstToken: 250 * time.Millisecond})
	tx.End()
	require.Len(t, envelopes, 4)

	for i, env := range envelopes {
		assert.Equal(t, uint64(i+1), env.Seq)

		data, err := json.Marshal(env)
		require.NoError(t, err)
		assert.Equal(t, string(env.Particle.Kind()), gjson.GetBytes(data, "type").String())
		assert.Equal(t, connID.String(), gjson.GetBytes(data, "conn_id").String())

		var decoded Envelope
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, env.ConnID, decoded.ConnID)
		assert.Equal(t, env.Seq, decoded.Seq)
		assert.Equal(t, env.Particle, decoded.Particle)
		assert.WithinDuration(t, time.Time(env.Timestamp), time.Time(decoded.Timestamp), time.Millisecond)
	}

	data, err := json.Marshal(envelopes[1])
	require.NoError(t, err)
	assert.Equal(t, "go", gjson.GetBytes(data, "particle.input.q").String())
	assert.Equal(t, "c1", gjson.GetBytes(data, "particle.id").String())
}

func TestEnvelope_UnmarshalJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"invalid json", `{`, "invalid json"},
		{"missing conn id", `{"type":"end","particle":{}}`, "missing required field 'conn_id'"},
		{"bad conn id", `{"type":"end","conn_id":"nope","particle":{}}`, "invalid conn_id"},
		{"missing particle", `{"type":"end","conn_id":"` + uuid.NewString() + `"}`, "missing required field 'particle'"},
		{"unknown type", `{"type":"sparkle","conn_id":"` + uuid.NewString() + `","particle":{}}`, `unknown particle type "sparkle"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env Envelope
			err := env.UnmarshalJSON([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvelope_MarshalJSON_RequiresParticle(t *testing.T) {
	_, err := Envelope{ConnID: uuid.New()}.MarshalJSON()
	require.Error(t, err)
}

func TestEnvelope_IssueClass(t *testing.T) {
	issue := Issue{Class: IssueVendor, Code: "overloaded_error", Message: "Overloaded", HTTPStatus: 529, Terminal: true}
	var p Particle = issue
	assert.Equal(t, KindIssue, p.Kind())

	data, err := json.Marshal(Envelope{ConnID: uuid.New(), Seq: 1, Particle: issue})
	require.NoError(t, err)
	assert.Equal(t, string(KindIssue), gjson.GetBytes(data, "type").String())
	assert.Equal(t, string(IssueVendor), gjson.GetBytes(data, "particle.kind").String())

	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, issue, decoded.Particle)
}
