package dispatch

import (
	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/demux"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/casualjim/aix/provider"
	"github.com/casualjim/aix/provider/anthropic"
	"github.com/casualjim/aix/provider/gemini"
	"github.com/casualjim/aix/provider/ollama"
	"github.com/casualjim/aix/provider/openai"
)

func init() {
	Register(api.DialectAnthropic, Anthropic)
	Register(api.DialectGemini, Gemini)
	Register(api.DialectOllama, Ollama)
	for _, d := range api.OpenAIFamily {
		Register(d, OpenAI)
	}
}

func sse(api.Access) demux.Format {
	return demux.FormatFastSSE
}

var Anthropic = Entry{
	Access: func(access api.Access, _ api.Model, _ bool) (Endpoint, error) {
		return anthropicAccess(access)
	},
	Adapt: func(_ api.Access, model api.Model, req *messages.Request, streaming bool) (any, error) {
		return anthropic.Adapt(model, req, streaming)
	},
	Format: sse,
	NewParser: func(api.Access, api.Model) provider.Parser {
		return anthropic.NewParser()
	},
}

var Gemini = Entry{
	Access: geminiAccess,
	Adapt: func(access api.Access, model api.Model, req *messages.Request, _ bool) (any, error) {
		return gemini.Adapt(model, req, access.MinSafetyLevel)
	},
	Format: sse,
	NewParser: func(_ api.Access, model api.Model) provider.Parser {
		return gemini.NewParser(model.ID)
	},
}

// Ollama speaks the chat completions protocol unless the access asks for the native one.
var Ollama = Entry{
	Access: func(access api.Access, _ api.Model, _ bool) (Endpoint, error) {
		return ollamaAccess(access)
	},
	Adapt: func(access api.Access, model api.Model, req *messages.Request, streaming bool) (any, error) {
		if access.OllamaNative {
			return ollama.Adapt(access, model, req, streaming)
		}
		return openai.AdaptChat(access, model, req, streaming)
	},
	Format: func(access api.Access) demux.Format {
		if access.OllamaNative {
			return demux.FormatJSONNL
		}
		return demux.FormatFastSSE
	},
	NewParser: func(access api.Access, _ api.Model) provider.Parser {
		if access.OllamaNative {
			return ollama.NewParser()
		}
		return openai.NewChatParser(api.DialectOllama)
	},
}

// OpenAI serves every OpenAI family dialect. Models flagged for the Responses API use it,
// everything else uses chat completions.
var OpenAI = Entry{
	Access: func(access api.Access, model api.Model, _ bool) (Endpoint, error) {
		if model.ResponsesAPI {
			return openAIAccess(access, model, "/responses")
		}
		return openAIAccess(access, model, "/chat/completions")
	},
	Adapt: func(access api.Access, model api.Model, req *messages.Request, streaming bool) (any, error) {
		if model.ResponsesAPI {
			return openai.AdaptResponses(access, model, req, streaming)
		}
		return openai.AdaptChat(access, model, req, streaming)
	},
	Format: sse,
	NewParser: func(access api.Access, model api.Model) provider.Parser {
		if model.ResponsesAPI {
			return openai.NewResponsesParser(access.Dialect)
		}
		return openai.NewChatParser(access.Dialect)
	},
}
