package natsx

import (
	"os"

	"github.com/nats-io/nats.go"
)

// EnvURL names the environment variable consulted when no URL is given.
const EnvURL = "NATS_URL"

// ClientName identifies aix connections in the server's connection list.
const ClientName = "aix"

// Connect opens a NATS connection. An empty url falls back to $NATS_URL and then to
// nats.DefaultURL. The connection is named and compressed unless options override it.
func Connect(url string, options ...nats.Option) (*nats.Conn, error) {
	if url == "" {
		url = os.Getenv(EnvURL)
	}
	if url == "" {
		url = nats.DefaultURL
	}
	options = append([]nats.Option{nats.Name(ClientName), nats.Compression(true)}, options...)
	return nats.Connect(url, options...)
}
