package aix

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fogfish/opts"
)

// Options configures how a chat generation is executed.
type Options struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client used to reach the vendor. It defaults to
// http.DefaultClient.
var WithHTTPClient = opts.ForName[Options, *http.Client]("httpClient")

// WithTimeout bounds the whole call, from sending the request to the last byte of the
// stream. When it expires the connection ends with a timeout cancellation.
var WithTimeout = opts.ForName[Options, time.Duration]("timeout")

// WithLogger sets the structured logger. It defaults to slog.Default().
var WithLogger = opts.ForName[Options, *slog.Logger]("logger")

// WithNoTimeout removes a timeout set by an earlier option.
func WithNoTimeout() opts.Option[Options] {
	return opts.Type[Options](func(o *Options) error {
		o.timeout = 0
		return nil
	})
}
