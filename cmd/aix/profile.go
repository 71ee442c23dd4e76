package main

import (
	"fmt"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/internal/config"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/spf13/cobra"
)

// requestFlags override the selected profile.
type requestFlags struct {
	dialect     string
	model       string
	host        string
	apiKey      string
	system      string
	maxTokens   int
	temperature float64
	responses   bool
	noStream    bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.dialect, "dialect", "", "vendor dialect (overrides the profile)")
	fl.StringVarP(&f.model, "model", "m", "", "model id (overrides the profile)")
	fl.StringVar(&f.host, "host", "", "vendor host (overrides the profile)")
	fl.StringVar(&f.apiKey, "api-key", "", "vendor API key (overrides the profile)")
	fl.StringVarP(&f.system, "system", "s", "", "system instruction")
	fl.IntVar(&f.maxTokens, "max-tokens", 0, "maximum output tokens")
	fl.Float64Var(&f.temperature, "temperature", 0, "sampling temperature")
	fl.BoolVar(&f.responses, "responses", false, "use the OpenAI Responses API")
	fl.BoolVar(&f.noStream, "no-stream", false, "request a single JSON response")
}

// target is a resolved profile: where to send the request and how.
type target struct {
	name      string
	access    api.Access
	model     api.Model
	system    string
	streaming bool
	nats      config.NATSConfig
}

func loadConfig(ro *rootOptions) (*config.Config, error) {
	if ro.configPath != "" {
		return config.Load(ro.configPath)
	}
	return config.LoadWithDefaults()
}

func resolve(cmd *cobra.Command, ro *rootOptions, f *requestFlags) (*target, error) {
	cfg, err := loadConfig(ro)
	if err != nil {
		return nil, err
	}

	t := &target{nats: cfg.NATS, streaming: true}
	// a dialect flag without a profile runs without any profile at all
	if f.dialect == "" || ro.profile != "" {
		p, err := cfg.Profile(ro.profile)
		if err != nil {
			return nil, err
		}
		t.name = ro.profile
		if t.name == "" {
			t.name = cfg.Default
		}
		t.access = p.Access
		t.model = p.Model
		t.system = p.System
		t.streaming = p.Streaming()
	}

	fl := cmd.Flags()
	if f.dialect != "" {
		t.access.Dialect = api.Dialect(f.dialect)
	}
	if f.model != "" && f.model != t.model.ID {
		// capability flags vouched for the profile model do not carry over
		t.model.ID = f.model
		t.model.ResponsesAPI = false
		t.model.ReasoningEffort = ""
	}
	if f.host != "" {
		t.access.Host = f.host
	}
	if f.apiKey != "" {
		t.access.APIKey = f.apiKey
	}
	if f.system != "" {
		t.system = f.system
	}
	if fl.Changed("max-tokens") {
		t.model.MaxTokens = &f.maxTokens
	}
	if fl.Changed("temperature") {
		t.model.Temperature = &f.temperature
	}
	t.model = config.ApplyPreset(t.access, t.model)
	if f.responses {
		t.model.ResponsesAPI = true
	}
	if f.noStream {
		t.streaming = false
	}

	if t.access.Dialect == "" {
		return nil, fmt.Errorf("no dialect selected")
	}
	if t.model.ID == "" {
		return nil, fmt.Errorf("no model selected for dialect %s", t.access.Dialect)
	}
	return t, nil
}

// request builds the base request of the target; turns are added by the caller.
func (t *target) request() messages.Request {
	var req messages.Request
	if t.system != "" {
		req.System = []messages.Part{messages.Text(t.system)}
	}
	return req
}
