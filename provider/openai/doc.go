/*
Package openai implements the request adapters and event parsers for the OpenAI protocol
family: the chat completions API spoken by OpenAI and every compatible vendor (Azure,
Groq, Mistral, OpenRouter, xAI, local servers and Ollama's compatibility endpoint), and
OpenAI's Responses API.

# Request adapters

AdaptChat builds the messages and tools with the openai-go parameter types and then patches
the parameters that compatible servers disagree on into the encoded body:

  - stream_options.include_usage is only sent to dialects that accept it
  - max_completion_tokens for OpenAI and Azure, max_tokens for everyone else
  - reasoning_effort replaces temperature for reasoning models
  - response_format json_object for Ollama when JSON output is requested

AdaptResponses builds a Responses API body. Conversations are never stored server side, so
reasoning items are requested back in encrypted form and surface as reasoning signatures.

The choice between the two shapes is made by the router on api.Model.ResponsesAPI alone.

# Event parsers

ChatParser groups streamed tool call fragments by their index and flushes every open block
when a finish_reason arrives. The usage chunk that follows it, when the dialect sends one,
ends the response; otherwise the end of the stream does.

	p := openai.NewChatParser(api.DialectGroq)
	for _, ev := range events {
	    _ = p.ParseEvent(tx, ev.Name, ev.Data)
	}
	_ = p.Complete(tx)

ResponsesParser keys blocks by output index and closes them on response.output_item.done.

Both parsers treat an error object found in a chunk or body as a vendor error that ends the
response.

# Models

GPT4oMini, GPT4o, O1Mini and O1 return descriptors with the capability flags these models
need. Preset looks them up by name.
*/
package openai
