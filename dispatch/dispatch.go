package dispatch

import (
	"fmt"
	"net/http"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/demux"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/casualjim/aix/provider"
	json "github.com/goccy/go-json"
)

// HTTPRequest describes the request to send. Body is a vendor wire value.
type HTTPRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    any               `json:"body"`
}

// EncodeBody serializes the body.
func (r HTTPRequest) EncodeBody() ([]byte, error) {
	b, err := json.Marshal(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return b, nil
}

// Call is everything needed to execute one chat generation.
type Call struct {
	Dialect api.Dialect
	Request HTTPRequest
	// DemuxerFormat is demux.FormatNone when the response is a single JSON document.
	DemuxerFormat demux.Format
	// Parser is owned by this call.
	Parser provider.Parser
}

// Streaming reports whether the response has to be demultiplexed.
func (c Call) Streaming() bool {
	return c.DemuxerFormat != demux.FormatNone
}

// Dispatch builds the call for req against the vendor named by access.Dialect.
func Dispatch(access api.Access, model api.Model, req *messages.Request, streaming bool) (Call, error) {
	entry, ok := Lookup(access.Dialect)
	if !ok {
		return Call{}, &api.DialectNotSupportedError{Dialect: string(access.Dialect)}
	}

	endpoint, err := entry.Access(access, model, streaming)
	if err != nil {
		return Call{}, err
	}
	body, err := entry.Adapt(access, model, req, streaming)
	if err != nil {
		return Call{}, err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range endpoint.Headers {
		headers[k] = v
	}
	for k, v := range access.ExtraHeaders {
		headers[k] = v
	}

	call := Call{
		Dialect: access.Dialect,
		Request: HTTPRequest{
			Method:  http.MethodPost,
			URL:     endpoint.URL,
			Headers: headers,
			Body:    body,
		},
		Parser: entry.NewParser(access, model),
	}
	if streaming {
		call.DemuxerFormat = entry.Format(access)
	}
	return call, nil
}
