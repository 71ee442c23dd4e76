package tool

import (
	"fmt"
	"reflect"

	"github.com/casualjim/aix/pkg/jsonx"
	"github.com/casualjim/aix/pkg/stdx"
	"github.com/fogfish/opts"
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition declares a function the model may call. The arguments the model produces are
// expected to validate against Parameters, which is always an object schema.
type Definition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

var argumentsReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
	ExpandedStruct:            true,
}

// Option is a type alias for a function that modifies a tool definition.
type Option = opts.Option[Definition]

// Name sets the name the model uses to refer to the tool.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the human readable explanation sent alongside the schema.
var Description = opts.ForName[Definition, string]("Description")

// For creates a definition whose parameter schema is reflected from the struct type T.
// Field names follow the json tags of T, and the jsonschema tags are honored.
//
//	type weatherArgs struct {
//	    City string `json:"city" jsonschema:"description=City name"`
//	}
//	def, err := tool.For[weatherArgs](tool.Name("get_weather"))
func For[T any](options ...Option) (Definition, error) {
	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}

	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		return Definition{}, fmt.Errorf("tool arguments must be a struct, got %v", typ)
	}
	if def.Name == "" {
		return Definition{}, fmt.Errorf("tool for %s has no name", typ)
	}

	schema := argumentsReflector.ReflectFromType(typ)
	schema.Version = ""
	schema.ID = ""
	def.Parameters = schema
	return def, nil
}

// MustFor is like For but panics on error.
func MustFor[T any](options ...Option) Definition {
	return stdx.Must1(For[T](options...))
}

// FromSchema creates a definition from a raw JSON schema document, as found in
// configuration files or MCP tool listings.
func FromSchema(name, description string, schema []byte) (Definition, error) {
	def := Definition{Name: name, Description: description}
	if len(schema) == 0 {
		return def, nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(schema, &s); err != nil {
		return Definition{}, fmt.Errorf("tool %s: invalid parameters schema: %w", name, err)
	}
	def.Parameters = &s
	return def, nil
}

// Schema returns the parameter schema, substituting an empty object schema when the
// tool takes no arguments. Vendors reject tools without an object schema.
func (d Definition) Schema() *jsonschema.Schema {
	if d.Parameters != nil {
		return d.Parameters
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
}

// SchemaMap returns the parameter schema as a generic JSON object, with property order
// preserved from the schema.
func (d Definition) SchemaMap() (map[string]any, error) {
	m, err := jsonx.ToDynamicJSON(d.Schema())
	if err != nil {
		return nil, fmt.Errorf("tool %s: failed to convert schema: %w", d.Name, err)
	}
	return m, nil
}

// SchemaJSON returns the parameter schema serialized as JSON, with the property order
// of the schema preserved.
func (d Definition) SchemaJSON() (json.RawMessage, error) {
	b, err := json.Marshal(d.Schema())
	if err != nil {
		return nil, fmt.Errorf("tool %s: failed to marshal schema: %w", d.Name, err)
	}
	return b, nil
}
