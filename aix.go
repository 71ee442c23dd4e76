package aix

import (
	"context"
	"fmt"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/dispatch"
	"github.com/casualjim/aix/internal/transport"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/fogfish/opts"
)

// Client runs chat generations against any registered dialect. It is safe for concurrent
// use; every call gets its own parser and demuxer.
type Client struct {
	transport *transport.Client
}

// New creates a Client.
func New(options ...opts.Option[Options]) (*Client, error) {
	var o Options
	if err := opts.Apply(&o, options); err != nil {
		return nil, err
	}

	var topts []opts.Option[transport.Client]
	if o.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(o.httpClient))
	}
	if o.timeout > 0 {
		topts = append(topts, transport.WithTimeout(o.timeout))
	}
	if o.logger != nil {
		topts = append(topts, transport.WithLogger(o.logger))
	}
	tc, err := transport.New(topts...)
	if err != nil {
		return nil, err
	}
	return &Client{transport: tc}, nil
}

// ChatGenerate sends req to the vendor selected by access and streams the normalized
// response into tx.
//
// A request that cannot be expressed in the dialect fails before anything is sent: the
// error is returned and tx receives a single terminal issue. Once the request is sent,
// every outcome reaches tx as particles and the returned error, if any, is the one behind
// the terminal particle.
func (c *Client) ChatGenerate(ctx context.Context, access api.Access, model api.Model, req *messages.Request, streaming bool, tx particle.Transmitter) error {
	if req == nil {
		err := fmt.Errorf("chat request is required")
		tx.SetIssue(particle.IssueFrom(err))
		return err
	}
	call, err := dispatch.Dispatch(access, model, req, streaming)
	if err != nil {
		tx.SetIssue(particle.IssueFrom(err))
		return err
	}
	return c.transport.Execute(ctx, call, tx)
}

// ChatGenerate runs a single chat generation with a Client configured by options.
func ChatGenerate(ctx context.Context, access api.Access, model api.Model, req *messages.Request, streaming bool, tx particle.Transmitter, options ...opts.Option[Options]) error {
	client, err := New(options...)
	if err != nil {
		return err
	}
	return client.ChatGenerate(ctx, access, model, req, streaming, tx)
}
