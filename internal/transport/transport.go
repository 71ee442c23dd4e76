package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/demux"
	"github.com/casualjim/aix/dispatch"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/slogx"
	"github.com/fogfish/opts"
	"github.com/tidwall/gjson"
)

const (
	readBufferSize = 32 * 1024
	// maxErrorBody bounds how much of a failed response is read for the issue message.
	maxErrorBody = 64 * 1024

	ReasonCanceled = "canceled"
	ReasonTimeout  = "timeout"
)

// Client executes dispatch calls.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

var (
	// WithHTTPClient replaces http.DefaultClient.
	WithHTTPClient = opts.ForName[Client, *http.Client]("httpClient")
	// WithTimeout bounds a whole call, including reading the stream.
	WithTimeout = opts.ForName[Client, time.Duration]("timeout")
	WithLogger  = opts.ForName[Client, *slog.Logger]("logger")
)

func New(options ...opts.Option[Client]) (*Client, error) {
	c := &Client{
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	c.logger = c.logger.With(slogx.LoggerName("transport"))
	return c, nil
}

// Execute performs call and delivers every particle to tx. The returned error is the one
// behind the terminal particle, if any; the particles have already been emitted.
func (c *Client) Execute(ctx context.Context, call dispatch.Call, tx particle.Transmitter) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	logger := c.logger.With(slogx.Dialect(call.Dialect))

	body, err := call.Request.EncodeBody()
	if err != nil {
		return c.fail(tx, call.Dialect, 0, err)
	}
	req, err := http.NewRequestWithContext(ctx, call.Request.Method, call.Request.URL, bytes.NewReader(body))
	if err != nil {
		return c.fail(tx, call.Dialect, 0, err)
	}
	for k, v := range call.Request.Headers {
		req.Header.Set(k, v)
	}

	timed := &firstByte{Transmitter: tx, start: time.Now()}
	logger.DebugContext(ctx, "sending request", slog.String("url", call.Request.URL), slog.Bool("streaming", call.Streaming()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.interrupted(ctx, call, tx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.WarnContext(ctx, "vendor returned an error status", slog.Int("status", resp.StatusCode))
		return c.fail(tx, call.Dialect, resp.StatusCode, errors.New(errorMessage(resp.Status, msg)))
	}

	if !call.Streaming() {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.interrupted(ctx, call, tx, err)
		}
		timed.mark()
		if err := call.Parser.ParseFullResponse(timed, data); err != nil && call.Parser.Done() {
			return err
		}
		if !call.Parser.Done() {
			return call.Parser.Complete(timed)
		}
		return nil
	}
	return c.stream(ctx, logger, call, resp.Body, timed)
}

func (c *Client) stream(ctx context.Context, logger *slog.Logger, call dispatch.Call, body io.Reader, tx *firstByte) error {
	d, err := demux.New(call.DemuxerFormat)
	if err != nil {
		return c.fail(tx, call.Dialect, 0, err)
	}

	var terminal error
	buf := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			tx.mark()
			for _, ev := range d.Demux(buf[:n]) {
				if err := call.Parser.ParseEvent(tx, ev.Name, ev.Data); err != nil {
					logger.DebugContext(ctx, "event rejected", slogx.Event(ev.Name), slogx.Error(err))
					if call.Parser.Done() {
						terminal = err
					}
				}
				if call.Parser.Done() {
					break
				}
			}
			if call.Parser.Done() || d.Done() {
				break
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return c.interrupted(ctx, call, tx, readErr)
		}
	}

	if dropped := d.Close(); dropped > 0 {
		logger.WarnContext(ctx, "dropped incomplete trailing data", slog.Int("bytes", dropped))
	}
	if call.Parser.Done() {
		return terminal
	}
	return call.Parser.Complete(tx)
}

// interrupted maps a failure of the request or of reading the body. Context errors end the
// call with a cancel particle and discard whatever the parser has open.
func (c *Client) interrupted(ctx context.Context, call dispatch.Call, tx particle.Transmitter, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		call.Parser.Abort()
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			tx.Cancel(ReasonTimeout)
			terr := &api.TransportError{Dialect: call.Dialect, Err: ctxErr}
			tx.SetIssue(particle.IssueFrom(terr))
			return terr
		}
		tx.Cancel(ReasonCanceled)
		return ctxErr
	}
	call.Parser.Abort()
	return c.fail(tx, call.Dialect, 0, err)
}

func (c *Client) fail(tx particle.Transmitter, dialect api.Dialect, status int, err error) error {
	terr := &api.TransportError{Dialect: dialect, HTTPStatus: status, Err: err}
	c.logger.Warn("call failed", slogx.Dialect(dialect), slogx.Error(terr))
	tx.SetIssue(particle.IssueFrom(terr))
	return terr
}

// errorMessage extracts the vendor message from an error body, falling back to the raw text.
func errorMessage(status string, body []byte) string {
	body = bytes.TrimSpace(body)
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		if parsed.IsArray() {
			parsed = parsed.Get("0")
		}
		for _, path := range []string{"error.message", "message", "error", "detail"} {
			if v := parsed.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return fmt.Sprintf("%s: %s", status, v.String())
			}
		}
	}
	if len(body) == 0 {
		return status
	}
	return fmt.Sprintf("%s: %s", status, strings.TrimSpace(string(body)))
}

// firstByte stamps usage particles with the time between sending the request and receiving
// the first byte of the response.
type firstByte struct {
	particle.Transmitter
	start time.Time
	first time.Duration
}

func (f *firstByte) mark() {
	if f.first == 0 {
		f.first = max(time.Since(f.start), time.Nanosecond)
	}
}

func (f *firstByte) SetUsage(usage particle.Usage) {
	if usage.TimeToFirstToken == 0 {
		usage.TimeToFirstToken = f.first
	}
	f.Transmitter.SetUsage(usage)
}
