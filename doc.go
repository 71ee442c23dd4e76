/*
Package aix sends chat generation requests to LLM vendors and delivers their responses as
a normalized stream of particles.

A request is described once, in vendor-neutral terms (messages.Request), and routed by the
dialect of the target endpoint:

  - OpenAI chat completions and every compatible vendor (Azure, Groq, Mistral, OpenRouter,
    xAI, ...), or the OpenAI Responses API when the model asks for it
  - Anthropic Messages
  - Gemini generateContent
  - Ollama, through its native chat API or its OpenAI-compatible endpoint

Whatever the vendor, the response reaches a particle.Transmitter as text and reasoning
fragments, complete tool calls, usage counters, the model name, a stop reason, issues and a
final End or Cancel.

# Basic Usage

	access := api.Access{Dialect: api.DialectAnthropic, APIKey: os.Getenv("ANTHROPIC_API_KEY")}
	model := api.Model{ID: "claude-sonnet-4-5"}
	req := &messages.Request{
		System: []messages.Part{messages.Text("Answer briefly.")},
		Turns:  []messages.Turn{messages.User(messages.Text("What is a monad?"))},
	}

	rec := particle.NewRecorder()
	if err := aix.ChatGenerate(ctx, access, model, req, true, rec, aix.WithTimeout(time.Minute)); err != nil {
		// the error is also on rec as a terminal issue
	}
	fmt.Println(rec.Text())

# Architecture

A call flows through four stages, each replaceable on its own:

	dispatch.Dispatch  builds the HTTP request, the demuxer format and a fresh parser
	transport          performs the request and reads the body
	demux              splits the body into SSE or JSON-NL events
	provider/*         turns vendor events into particles

The dispatch registry is open: dispatch.Register adds a dialect without touching this
package.
*/
package aix
