package dispatch

import (
	"github.com/casualjim/aix/api"
	"github.com/casualjim/aix/demux"
	"github.com/casualjim/aix/internal/registry"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/casualjim/aix/provider"
)

// Endpoint is the resolved URL and the vendor headers of a call.
type Endpoint struct {
	URL     string
	Headers map[string]string
}

// Entry is the adapter, demuxer and parser triple of a dialect. Each function receives the
// full access and model so that one entry can serve several API shapes.
type Entry struct {
	Access    func(access api.Access, model api.Model, streaming bool) (Endpoint, error)
	Adapt     func(access api.Access, model api.Model, req *messages.Request, streaming bool) (any, error)
	Format    func(access api.Access) demux.Format
	NewParser func(access api.Access, model api.Model) provider.Parser
}

var Global = registry.New[Entry]()

// Register adds or replaces the entry for dialect.
func Register(dialect api.Dialect, entry Entry) {
	Global.Add(string(dialect), entry)
}

func Lookup(dialect api.Dialect) (Entry, bool) {
	return Global.Get(string(dialect))
}

// Dialects lists the registered dialects in sorted order.
func Dialects() []api.Dialect {
	names := Global.Names()
	dialects := make([]api.Dialect, len(names))
	for i, n := range names {
		dialects[i] = api.Dialect(n)
	}
	return dialects
}
