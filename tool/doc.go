/*
Package tool declares the functions a model may call during a chat generation.

A Definition is a name, a description and a JSON schema for the arguments object. The
schema is either reflected from a Go struct:

	type searchArgs struct {
	    Query string `json:"query" jsonschema:"description=What to search for"`
	    Limit int    `json:"limit,omitempty"`
	}

	search := tool.MustFor[searchArgs](
	    tool.Name("search"),
	    tool.Description("Search the knowledge base"),
	)

or loaded from a raw schema document with FromSchema.

Definitions are translated by each vendor adapter into the vendor's tool declaration
(OpenAI function tools, Anthropic input_schema, Gemini functionDeclarations). Executing
the tool is the caller's job: the model's request to call it arrives as tool-call
particles.
*/
package tool
