// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay tunnels a TCP connection through a line-oriented text
// channel.
//
// A process that can only exchange printable lines with its controller
// (an attached exec session, a console) runs the relay with the text
// channel on stdin/stdout. The controller frames bytes as chunks (see
// package chunk); the relay forwards them to a TCP target and frames the
// target's replies back onto the text channel.
//
// A [Session] runs the whole exchange:
//
//  1. [Handshake] writes the "ready!" command and reads one chunk of
//     key=value lines naming the target (host, port, logPort).
//  2. The session dials the target. Failure to connect is the only fatal
//     error ([ErrConnect]).
//  3. An [Engine] runs two pumps. The inbound pump reads chunks from the
//     text side, writes data chunks to the socket and acknowledges each
//     with "chunk-ok"; a "close!" command stops it. The outbound pump
//     reads the socket in blocks of up to 64 KiB and writes each block as
//     a base64 data chunk.
//  4. When the inbound pump stops, the engine closes the socket to
//     unblock the outbound pump and waits up to [DefaultShutdownGrace]
//     for it. A pump that does not notice is abandoned and reported in
//     the [Summary]; it is never fatal.
//
// The two pumps share only a one-way running flag and the connection,
// which is closed exactly once by whichever side finishes first. Writes
// to the text channel are serialized by the chunk.Writer so that
// acknowledgments and forwarded data never interleave mid-line.
package relay
