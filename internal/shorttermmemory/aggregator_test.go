package shorttermmemory

import (
	"testing"

	"github.com/casualjim/aix/pkg/messages"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(text string) messages.Turn {
	return messages.User(messages.Text(text))
}

func assistant(text string) messages.Turn {
	return messages.Assistant(messages.Text(text))
}

func TestAggregator(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		agg := New()
		assert.NotEqual(t, uuid.Nil, agg.ID(), "should have valid ID")
		assert.Empty(t, agg.turns, "should have no turns")
		assert.Equal(t, Usage{}, agg.usage, "should have zero usage")
		assert.Equal(t, 0, agg.initLen, "should have zero initLen")
	})

	t.Run("New copies the history", func(t *testing.T) {
		history := []messages.Turn{user("one"), assistant("two")}
		agg := New(history...)
		history[0] = user("changed")
		require.Equal(t, 2, agg.Len())
		assert.Equal(t, user("one"), agg.Turns()[0])
	})

	t.Run("Turns returns copy", func(t *testing.T) {
		agg := New()
		agg.AddUser(messages.Text("turn 1"))
		agg.AddUser(messages.Text("turn 2"))

		turns := agg.Turns()
		turns = append(turns, user("turn 3"))
		assert.Equal(t, 2, agg.Len(), "original aggregator should be unchanged")
		assert.Len(t, turns, 3)
	})

	t.Run("TurnsIter walks turns in order", func(t *testing.T) {
		agg := New(user("a"), assistant("b"))
		var roles []messages.Role
		for turn := range agg.TurnsIter() {
			roles = append(roles, turn.Role)
		}
		assert.Equal(t, []messages.Role{messages.RoleUser, messages.RoleAssistant}, roles)
	})

	t.Run("AddToolResults appends a tool turn", func(t *testing.T) {
		agg := New()
		agg.AddToolResults(messages.ToolResult("call_0", "clock", "12:00"))
		turns := agg.Turns()
		require.Len(t, turns, 1)
		assert.Equal(t, messages.RoleTool, turns[0].Role)
	})

	t.Run("Request replaces the turns of the base request", func(t *testing.T) {
		agg := New(user("hi"))
		base := messages.Request{
			System: []messages.Part{messages.Text("Be brief.")},
			Turns:  []messages.Turn{user("stale")},
		}
		req := agg.Request(base)
		assert.Equal(t, []messages.Turn{user("hi")}, req.Turns)
		assert.Equal(t, base.System, req.System)
		assert.Equal(t, []messages.Turn{user("stale")}, base.Turns, "base should be unchanged")
	})
}

func TestAggregator_ForkJoin(t *testing.T) {
	t.Run("Fork copies turns", func(t *testing.T) {
		original := New(user("1"), assistant("2"))
		forked := original.Fork()

		assert.NotEqual(t, original.ID(), forked.ID())
		assert.Equal(t, original.Turns(), forked.Turns())
		assert.Equal(t, 2, forked.initLen)
		assert.Equal(t, 0, forked.TurnLen())

		forked.Add(user("3"))
		assert.Equal(t, 2, original.Len(), "original should be unchanged")
		assert.Equal(t, 1, forked.TurnLen())
	})

	t.Run("Join appends only new turns", func(t *testing.T) {
		original := New(user("1"), assistant("2"))
		forked := original.Fork()
		original.Add(user("3"))
		forked.Add(user("4"))

		original.Join(forked)
		assert.Equal(t, []messages.Turn{user("1"), assistant("2"), user("3"), user("4")}, original.Turns())
	})

	t.Run("Join adds usage", func(t *testing.T) {
		original := New()
		original.AddUsage(&Usage{InputTokens: 10, OutputTokens: 5, Responses: 1})
		forked := original.Fork()
		assert.Equal(t, Usage{}, forked.Usage(), "fork starts without usage")
		forked.AddUsage(&Usage{InputTokens: 20, OutputTokens: 7, ReasoningTokens: 3, Responses: 1})

		original.Join(forked)
		assert.Equal(t, Usage{InputTokens: 30, OutputTokens: 12, ReasoningTokens: 3, Responses: 2}, original.Usage())
	})
}

func TestCheckpoint(t *testing.T) {
	t.Run("snapshot is isolated", func(t *testing.T) {
		agg := New(user("1"))
		agg.AddUsage(&Usage{InputTokens: 4, Responses: 1})
		cp := agg.Checkpoint()

		agg.Add(assistant("2"))
		assert.Equal(t, agg.ID(), cp.ID())
		assert.Len(t, cp.Turns(), 1)
		assert.Equal(t, int64(4), cp.Usage().InputTokens)
	})

	t.Run("MergeInto", func(t *testing.T) {
		base := New(user("1"))
		forked := base.Fork()
		forked.Add(assistant("2"))
		forked.AddUsage(&Usage{OutputTokens: 9, Responses: 1})
		cp := forked.Checkpoint()

		target := &Aggregator{}
		cp.MergeInto(target)
		assert.Equal(t, []messages.Turn{assistant("2")}, target.Turns())
		assert.Equal(t, forked.ID(), target.ID(), "adopts the checkpoint identity")
		assert.Equal(t, int64(9), target.Usage().OutputTokens)
	})

	t.Run("JSON", func(t *testing.T) {
		agg := New(user("1"))
		forked := agg.Fork()
		forked.Add(messages.Assistant(messages.Text("calling"), messages.ToolCall("call_0", "clock", "{}")))
		forked.AddUsage(&Usage{InputTokens: 1, OutputTokens: 2, Responses: 1})

		data, err := json.Marshal(forked.Checkpoint())
		require.NoError(t, err)

		var cp Checkpoint
		require.NoError(t, json.Unmarshal(data, &cp))
		assert.Equal(t, forked.ID(), cp.ID())
		assert.Equal(t, forked.Turns(), cp.Turns())
		assert.Equal(t, forked.Usage(), cp.Usage())
		assert.Equal(t, 1, cp.initLen)
	})

	t.Run("JSON errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
			want  string
		}{
			{"bad id", `{"id":"nope","turns":[],"usage":{},"init_len":0}`, "invalid checkpoint id"},
			{"init_len out of range", `{"id":"` + uuid.NewString() + `","turns":[],"usage":{},"init_len":2}`, "out of range"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var cp Checkpoint
				err := json.Unmarshal([]byte(tt.input), &cp)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.want)
			})
		}
	})
}
