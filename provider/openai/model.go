package openai

import (
	"github.com/alphadose/haxmap"
	"github.com/casualjim/aix/api"
	"github.com/openai/openai-go"
)

var presets = haxmap.New[string, api.Model]()

func init() {
	for _, m := range []api.Model{GPT4oMini(), GPT4o(), O1Mini(), O1()} {
		presets.Set(m.ID, m)
	}
}

func GPT4oMini() api.Model {
	return Model(string(openai.ChatModelGPT4oMini))
}

func GPT4o() api.Model {
	return Model(string(openai.ChatModelChatgpt4oLatest))
}

func O1Mini() api.Model {
	return Model(string(openai.ChatModelO1Mini))
}

// O1 is served through the Responses API with medium reasoning effort.
func O1() api.Model {
	m := Model(string(openai.ChatModelO1))
	m.ResponsesAPI = true
	m.ReasoningEffort = "medium"
	return m
}

// Model describes an arbitrary OpenAI model with no capability flags set.
func Model(name string) api.Model {
	return api.Model{ID: name}
}

// Preset returns the capability flags known for a model name. Unknown names yield a plain
// descriptor and false.
func Preset(name string) (api.Model, bool) {
	if m, ok := presets.Get(name); ok {
		return m, true
	}
	return Model(name), false
}
