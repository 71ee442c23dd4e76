// Package particle defines the normalized output of a chat-generation call.
//
// A parser never returns results. It writes particles into a Transmitter as it consumes
// wire events: complete text and reasoning blocks, tool calls (start, argument fragments,
// end), usage counters, the model name, the stop reason, and the terminal signals End,
// Issue and Cancel. The Transmitter has one method per particle kind so that every sink
// covers the whole vocabulary at compile time.
//
// Particles are append-only and ordered. Sinks must process them strictly in emission
// order for a given connection.
//
// The package provides a few sinks and combinators:
//
//   - Emit turns Transmitter calls into Particle values, and Replay does the reverse.
//   - Recorder keeps everything in memory, which is what tests and the CLI use.
//   - Tee fans one stream out to several sinks.
//   - Stamp wraps particles in an Envelope (connection ID, sequence number, timestamp)
//     whose JSON form is what out-of-process sinks publish.
package particle
