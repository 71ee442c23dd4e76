// Package shorttermmemory keeps the working conversation of a chat session. An Aggregator
// holds the turns exchanged so far and the summed token usage; its Collector is a
// particle.Transmitter that folds one streamed response back into an assistant turn, so the
// next request can be built from the aggregated history.
//
// Aggregators fork and join: a fork starts with a copy of the turns and, when joined, only
// contributes the turns it gained after the fork. Checkpoints are serializable snapshots.
//
// Example usage:
//
//	conv := shorttermmemory.New()
//	conv.AddUser(messages.Text("What time is it?"))
//
//	resp := conv.Collect()
//	if err := aix.ChatGenerate(ctx, access, model, conv.Request(base), true, resp); err != nil {
//	    return err
//	}
//	if err := resp.Err(); err != nil {
//	    return err
//	}
//	for _, call := range resp.ToolCalls() {
//	    conv.AddToolResults(messages.ToolResult(call.ID, call.Name, run(call)))
//	}
package shorttermmemory
