// Package transport executes dispatch calls over HTTP.
//
// The client posts the described request, feeds the response body through the demuxer of the
// call and hands every wire event to the call's parser. Failures that happen outside the
// parser are turned into particles as well:
//
//   - a cancelled context discards open blocks and emits one cancel particle
//   - a deadline emits a cancel particle followed by a timeout issue
//   - a non-2xx status or a network failure emits a terminal transport issue
//   - a stream that closes before the vendor signalled the end emits a terminal issue
//
// The time to the first response byte is reported on usage particles that do not carry one.
package transport
