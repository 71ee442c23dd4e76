// Package broker distributes the particles of a connection to consumers that live outside
// the process running the connection. A connection writes to the Transmitter returned by
// Transmitter, which stamps each particle into a particle.Envelope and publishes it on a
// topic; subscribers receive the envelopes and have them replayed into their own
// particle.Transmitter in publish order.
//
// The NATS implementation publishes envelopes as JSON on the subject named by the topic.
// Subscribing to a wildcard subject follows every connection published under it.
//
// Example usage:
//
//	topic := broker.NATS(nc).Topic(ctx, "aix.particles."+convID.String())
//
//	err = aix.ChatGenerate(ctx, access, model, req, true, broker.Transmitter(ctx, topic, connID))
//
// and elsewhere:
//
//	sub, err := broker.NATS(nc).Topic(ctx, "aix.particles.>").Subscribe(ctx, printer)
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe()
package broker
