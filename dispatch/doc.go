/*
Package dispatch selects, for one chat-generation call, the request adapter, stream demuxer
and event parser that match the target vendor.

Dispatch is pure: it describes the HTTP request to make and hands back a fresh parser, but it
performs no I/O. Executing the request is left to the caller (see internal/transport).

	call, err := dispatch.Dispatch(access, model, req, true)
	if err != nil {
	    return err
	}
	body, err := call.Request.EncodeBody()
	// POST body to call.Request.URL with call.Request.Headers, then feed the response
	// through demux.New(call.DemuxerFormat) into call.Parser.

Every dialect is served by one registered Entry. The OpenAI family shares a single entry
that picks the chat completions or the Responses API from the model capability flags, and
the Ollama entry picks its OpenAI compatible endpoint or the native protocol from the access.
Register adds or replaces an entry, which is all it takes to support another vendor.
*/
package dispatch
