package tool

import (
	"strings"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type weatherArgs struct {
	City  string `json:"city" jsonschema:"description=City name"`
	Units string `json:"units,omitempty" jsonschema:"enum=celsius,enum=fahrenheit"`
}

func TestFor(t *testing.T) {
	def, err := For[weatherArgs](Name("get_weather"), Description("Current weather"))
	require.NoError(t, err)

	assert.Equal(t, "get_weather", def.Name)
	assert.Equal(t, "Current weather", def.Description)
	require.NotNil(t, def.Parameters)
	assert.Equal(t, "object", def.Parameters.Type)
	assert.Empty(t, def.Parameters.Version)

	city, ok := def.Parameters.Properties.Get("city")
	require.True(t, ok)
	assert.Equal(t, "string", city.Type)
	assert.Equal(t, "City name", city.Description)
	assert.Contains(t, def.Parameters.Required, "city")
	assert.NotContains(t, def.Parameters.Required, "units")
}

func TestFor_Errors(t *testing.T) {
	t.Run("requires a name", func(t *testing.T) {
		_, err := For[weatherArgs]()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no name")
	})

	t.Run("requires a struct", func(t *testing.T) {
		_, err := For[string](Name("nope"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be a struct")
	})

	t.Run("must panics", func(t *testing.T) {
		assert.Panics(t, func() {
			MustFor[int](Name("nope"))
		})
	})
}

func TestFromSchema(t *testing.T) {
	def, err := FromSchema("lookup", "Look something up", []byte(`{"type":"object","properties":{"key":{"type":"string"}},"required":["key"]}`))
	require.NoError(t, err)
	assert.Equal(t, "lookup", def.Name)
	require.NotNil(t, def.Parameters)
	assert.Equal(t, []string{"key"}, def.Parameters.Required)

	_, err = FromSchema("broken", "", []byte(`{"type":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameters schema")
}

func TestDefinition_Schema(t *testing.T) {
	t.Run("empty object when missing", func(t *testing.T) {
		def := Definition{Name: "ping"}
		m, err := def.SchemaMap()
		require.NoError(t, err)
		assert.Equal(t, "object", m["type"])
	})

	t.Run("preserves property order", func(t *testing.T) {
		props := orderedmap.New[string, *jsonschema.Schema]()
		props.Set("zeta", &jsonschema.Schema{Type: "string"})
		props.Set("alpha", &jsonschema.Schema{Type: "integer"})
		def := Definition{Name: "ordered", Parameters: &jsonschema.Schema{Type: "object", Properties: props}}

		raw, err := def.SchemaJSON()
		require.NoError(t, err)
		assert.Less(t, strings.Index(string(raw), "zeta"), strings.Index(string(raw), "alpha"))
	})
}
