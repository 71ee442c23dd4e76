package dispatch

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/provider/anthropic"
)

const (
	// AzureAPIVersion is used for Azure chat completions when the access has no version.
	AzureAPIVersion = "2025-04-01-preview"
	// azureResponsesVersion is the only version of the Azure Responses API route.
	azureResponsesVersion = "preview"

	openRouterReferer = "https://github.com/casualjim/aix"
	openRouterTitle   = "aix"
)

var defaultHosts = map[api.Dialect]string{
	api.DialectAnthropic:  "https://api.anthropic.com",
	api.DialectGemini:     "https://generativelanguage.googleapis.com",
	api.DialectOllama:     "http://127.0.0.1:11434",
	api.DialectAlibaba:    "https://dashscope-intl.aliyuncs.com/compatible-mode",
	api.DialectDeepseek:   "https://api.deepseek.com",
	api.DialectGroq:       "https://api.groq.com/openai",
	api.DialectLMStudio:   "http://localhost:1234",
	api.DialectLocalAI:    "http://127.0.0.1:8080",
	api.DialectMistral:    "https://api.mistral.ai",
	api.DialectOpenAI:     "https://api.openai.com",
	api.DialectOpenPipe:   "https://api.openpipe.ai/api",
	api.DialectOpenRouter: "https://openrouter.ai/api",
	api.DialectPerplexity: "https://api.perplexity.ai",
	api.DialectTogetherAI: "https://api.together.xyz",
	api.DialectXAI:        "https://api.x.ai",
}

// localDialects default to plain http when the configured host has no scheme.
var localDialects = []api.Dialect{api.DialectOllama, api.DialectLMStudio, api.DialectLocalAI}

// DefaultHost returns the host used for dialect when the access does not name one.
func DefaultHost(dialect api.Dialect) string {
	return defaultHosts[dialect]
}

func baseURL(access api.Access) (string, error) {
	host := strings.TrimSpace(access.Host)
	if host == "" {
		host = defaultHosts[access.Dialect]
	}
	if host == "" {
		return "", fmt.Errorf("%s: a host is required", access.Dialect)
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		if slices.Contains(localDialects, access.Dialect) {
			host = "http://" + host
		} else {
			host = "https://" + host
		}
	}
	if _, err := url.Parse(host); err != nil {
		return "", fmt.Errorf("%s: invalid host %q: %w", access.Dialect, access.Host, err)
	}
	return strings.TrimRight(host, "/"), nil
}

// joinPath appends path to base, dropping the version prefix when base already ends in it.
func joinPath(base, path string) string {
	if strings.HasSuffix(base, "/v1") && strings.HasPrefix(path, "/v1/") {
		path = strings.TrimPrefix(path, "/v1")
	}
	return base + path
}

func bearer(headers map[string]string, key string) {
	if key != "" {
		headers["Authorization"] = "Bearer " + key
	}
}

// openAIAccess resolves the endpoint for an OpenAI family dialect. apiPath is "/chat/completions"
// or "/responses".
func openAIAccess(access api.Access, model api.Model, apiPath string) (Endpoint, error) {
	base, err := baseURL(access)
	if err != nil {
		return Endpoint{}, err
	}
	headers := make(map[string]string)

	switch access.Dialect {
	case api.DialectAzure:
		if access.APIKey != "" {
			headers["api-key"] = access.APIKey
		}
		if apiPath == "/responses" {
			return Endpoint{
				URL:     base + "/openai/v1/responses?api-version=" + azureResponsesVersion,
				Headers: headers,
			}, nil
		}
		version := access.APIVersion
		if version == "" {
			version = AzureAPIVersion
		}
		return Endpoint{
			URL:     base + "/openai/deployments/" + url.PathEscape(model.ID) + apiPath + "?api-version=" + url.QueryEscape(version),
			Headers: headers,
		}, nil

	case api.DialectPerplexity:
		bearer(headers, access.APIKey)
		return Endpoint{URL: base + apiPath, Headers: headers}, nil

	case api.DialectOpenRouter:
		headers["HTTP-Referer"] = openRouterReferer
		headers["X-Title"] = openRouterTitle

	case api.DialectOpenAI:
		if access.OrgID != "" {
			headers["OpenAI-Organization"] = access.OrgID
		}
	}

	bearer(headers, access.APIKey)
	return Endpoint{URL: joinPath(base, "/v1"+apiPath), Headers: headers}, nil
}

func anthropicAccess(access api.Access) (Endpoint, error) {
	base, err := baseURL(access)
	if err != nil {
		return Endpoint{}, err
	}
	version := access.APIVersion
	if version == "" {
		version = anthropic.Version
	}
	headers := map[string]string{"anthropic-version": version}
	if access.APIKey != "" {
		headers["x-api-key"] = access.APIKey
	}
	return Endpoint{URL: joinPath(base, "/v1/messages"), Headers: headers}, nil
}

// geminiAccess uses v1alpha for the thinking parameters, which v1beta does not accept.
func geminiAccess(access api.Access, model api.Model, streaming bool) (Endpoint, error) {
	base, err := baseURL(access)
	if err != nil {
		return Endpoint{}, err
	}
	version := "v1beta"
	if model.UsesGeminiThinking() {
		version = "v1alpha"
	}
	id := model.ID
	if !strings.HasPrefix(id, "models/") {
		id = "models/" + id
	}
	method := ":generateContent"
	if streaming {
		method = ":streamGenerateContent?alt=sse"
	}

	headers := make(map[string]string)
	if access.APIKey != "" {
		headers["x-goog-api-key"] = access.APIKey
	}
	return Endpoint{URL: base + "/" + version + "/" + id + method, Headers: headers}, nil
}

func ollamaAccess(access api.Access) (Endpoint, error) {
	base, err := baseURL(access)
	if err != nil {
		return Endpoint{}, err
	}
	path := "/v1/chat/completions"
	if access.OllamaNative {
		path = "/api/chat"
	}
	headers := make(map[string]string)
	bearer(headers, access.APIKey)
	return Endpoint{URL: joinPath(base, path), Headers: headers}, nil
}
