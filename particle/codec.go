package particle

import (
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var envelopeJSON = []byte(`{}`)

// Envelope stamps a particle with its connection, its position in that connection and the
// time it was emitted. It is the unit published on the wire by out-of-process sinks.
type Envelope struct {
	ConnID    uuid.UUID       `json:"conn_id"`
	Seq       uint64          `json:"seq"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Particle  Particle        `json:"particle"`
}

// Stamp returns a Transmitter that wraps every particle in an Envelope for connID, numbering
// them from 1, and hands it to fn.
func Stamp(connID uuid.UUID, fn func(Envelope)) Transmitter {
	var seq uint64
	return Emit(func(p Particle) {
		seq++
		fn(Envelope{
			ConnID:    connID,
			Seq:       seq,
			Timestamp: strfmt.DateTime(time.Now().UTC()),
			Particle:  p,
		})
	})
}

// MarshalJSON implements custom JSON marshaling for Envelope
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Particle == nil {
		return nil, fmt.Errorf("envelope %s/%d has no particle", e.ConnID, e.Seq)
	}
	result := envelopeJSON

	var err error
	result, err = sjson.SetBytes(result, "type", string(e.Particle.Kind()))
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "conn_id", e.ConnID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "seq", e.Seq)
	if err != nil {
		return nil, err
	}

	if !e.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(e.Particle)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s particle: %w", e.Particle.Kind(), err)
	}
	return sjson.SetRawBytes(result, "particle", body)
}

// UnmarshalJSON implements custom JSON unmarshaling for Envelope
func (e *Envelope) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	connID := gjson.GetBytes(data, "conn_id")
	if !connID.Exists() {
		return fmt.Errorf("missing required field 'conn_id'")
	}
	if err := e.ConnID.UnmarshalText([]byte(connID.String())); err != nil {
		return fmt.Errorf("invalid conn_id: %w", err)
	}

	e.Seq = gjson.GetBytes(data, "seq").Uint()

	if ts := gjson.GetBytes(data, "timestamp"); ts.Exists() {
		parsed, err := strfmt.ParseDateTime(ts.String())
		if err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
		e.Timestamp = parsed
	}

	body := gjson.GetBytes(data, "particle")
	if !body.Exists() {
		return fmt.Errorf("missing required field 'particle'")
	}
	p, err := decodeParticle(Kind(gjson.GetBytes(data, "type").String()), []byte(body.Raw))
	if err != nil {
		return err
	}
	e.Particle = p
	return nil
}

func decodeParticle(kind Kind, body []byte) (Particle, error) {
	switch kind {
	case KindText:
		return decodeAs[Text](kind, body)
	case KindReasoning:
		return decodeAs[Reasoning](kind, body)
	case KindToolCallStart:
		return decodeAs[ToolCallStart](kind, body)
	case KindToolCallArgs:
		return decodeAs[ToolCallArgs](kind, body)
	case KindToolCallEnd:
		return decodeAs[ToolCallEnd](kind, body)
	case KindUsage:
		return decodeAs[Usage](kind, body)
	case KindModelName:
		return decodeAs[ModelName](kind, body)
	case KindStopReason:
		return decodeAs[StopReason](kind, body)
	case KindEnd:
		return End{}, nil
	case KindIssue:
		return decodeAs[Issue](kind, body)
	case KindCancel:
		return decodeAs[Cancel](kind, body)
	default:
		return nil, fmt.Errorf("unknown particle type %q", kind)
	}
}

func decodeAs[T Particle](kind Kind, body []byte) (Particle, error) {
	var p T
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("invalid %s particle: %w", kind, err)
	}
	return p, nil
}
