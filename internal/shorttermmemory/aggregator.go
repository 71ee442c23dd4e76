package shorttermmemory

import (
	"fmt"
	"iter"
	"slices"

	"github.com/casualjim/aix/pkg/messages"
	"github.com/casualjim/aix/pkg/uuidx"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// New creates an aggregator seeded with an existing history.
func New(history ...messages.Turn) *Aggregator {
	return &Aggregator{
		id:    uuidx.New(),
		turns: slices.Clone(history),
	}
}

// Aggregator holds the turns of one conversation and the usage of the responses that
// produced them. It supports fork-join so parallel branches can be merged back in order.
// An Aggregator is not safe for concurrent use; fork it instead.
type Aggregator struct {
	id      uuid.UUID
	turns   []messages.Turn
	initLen int // turn count at fork time
	usage   Usage
}

// ID returns the unique identifier of this aggregator.
func (a *Aggregator) ID() uuid.UUID {
	return a.id
}

// Len returns the total number of turns.
func (a *Aggregator) Len() int {
	return len(a.turns)
}

// TurnLen returns the number of turns added since the aggregator was forked.
func (a *Aggregator) TurnLen() int {
	return len(a.turns) - a.initLen
}

// Turns returns a copy of all turns.
func (a *Aggregator) Turns() []messages.Turn {
	return slices.Clone(a.turns)
}

// TurnsIter returns an iterator over the turns without copying them.
func (a *Aggregator) TurnsIter() iter.Seq[messages.Turn] {
	return slices.Values(a.turns)
}

// Add appends a turn.
func (a *Aggregator) Add(turn messages.Turn) {
	a.turns = append(a.turns, turn)
}

// AddUser appends a user turn made of parts.
func (a *Aggregator) AddUser(parts ...messages.Part) {
	a.Add(messages.User(parts...))
}

// AddToolResults appends a turn carrying tool results.
func (a *Aggregator) AddToolResults(results ...messages.ToolResultPart) {
	a.Add(messages.Tool(results...))
}

// Usage returns the summed usage of every committed response.
func (a *Aggregator) Usage() Usage {
	return a.usage
}

func (a *Aggregator) AddUsage(u *Usage) {
	a.usage.AddUsage(u)
}

// Request returns base with its turns replaced by the aggregated conversation.
func (a *Aggregator) Request(base messages.Request) *messages.Request {
	base.Turns = a.Turns()
	return &base
}

// Fork creates a new aggregator that starts with a copy of the current turns. Only the
// turns added to the fork after this point are carried back by Join.
func (a *Aggregator) Fork() *Aggregator {
	return &Aggregator{
		id:      uuidx.New(),
		turns:   slices.Clone(a.turns),
		initLen: a.Len(),
	}
}

// Join appends the turns b gained since it was forked, and adds its usage.
//
//	original := New(t1, t2)
//	forked := original.Fork()  // [t1 t2], initLen=2
//	original.Add(t3)           // [t1 t2 t3]
//	forked.Add(t4)             // [t1 t2 t4]
//	original.Join(forked)      // [t1 t2 t3 t4]
func (a *Aggregator) Join(b *Aggregator) {
	a.turns = append(a.turns, b.turns[b.initLen:]...)
	a.usage.AddUsage(&b.usage)
}

// Checkpoint creates a snapshot of the current state.
func (a *Aggregator) Checkpoint() Checkpoint {
	return Checkpoint{
		id:      a.id,
		turns:   slices.Clone(a.turns),
		usage:   a.usage,
		initLen: a.initLen,
	}
}

// Checkpoint is an immutable snapshot of an aggregator. It serializes to JSON so a
// conversation can be handed to another process.
type Checkpoint struct {
	id      uuid.UUID
	turns   []messages.Turn
	usage   Usage
	initLen int
}

// ID returns the identifier of the aggregator that created this checkpoint.
func (c *Checkpoint) ID() uuid.UUID {
	return c.id
}

// Turns returns a copy of the turns at checkpoint time.
func (c *Checkpoint) Turns() []messages.Turn {
	return slices.Clone(c.turns)
}

func (c *Checkpoint) Usage() Usage {
	return c.usage
}

// MergeInto appends the turns added after the checkpoint's fork point to other and adds
// the checkpoint's usage. An aggregator without an identity adopts the checkpoint's.
func (c *Checkpoint) MergeInto(other *Aggregator) {
	other.turns = append(other.turns, c.turns[c.initLen:]...)
	other.usage.AddUsage(&c.usage)
	if other.id == uuid.Nil {
		other.id = c.id
	}
}

type checkpointJSON struct {
	ID      string          `json:"id"`
	Turns   []messages.Turn `json:"turns"`
	Usage   Usage           `json:"usage"`
	InitLen int             `json:"init_len"`
}

func (c Checkpoint) MarshalJSON() ([]byte, error) {
	turns := c.turns
	if turns == nil {
		turns = []messages.Turn{}
	}
	return json.Marshal(checkpointJSON{
		ID:      c.id.String(),
		Turns:   turns,
		Usage:   c.usage,
		InitLen: c.initLen,
	})
}

func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var tmp checkpointJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	id, err := uuid.Parse(tmp.ID)
	if err != nil {
		return fmt.Errorf("invalid checkpoint id: %w", err)
	}
	if tmp.InitLen < 0 || tmp.InitLen > len(tmp.Turns) {
		return fmt.Errorf("init_len %d out of range for %d turns", tmp.InitLen, len(tmp.Turns))
	}
	c.id = id
	c.turns = tmp.Turns
	c.usage = tmp.Usage
	c.initLen = tmp.InitLen
	return nil
}
