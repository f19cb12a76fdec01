// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// textrelay relays one TCP connection over its standard input and
// output. The far side of stdin/stdout is a controller that can only
// exchange lines of text, such as a serial console or an automation
// harness, and textrelay turns those lines into a byte stream to a
// target host.
//
// Startup is a handshake: textrelay writes the "ready!" command and
// reads one bootstrap chunk naming the target. After connecting, data
// chunks from stdin are written to the socket and acknowledged with
// "chunk-ok"; bytes read from the socket are written to stdout as
// base64 data chunks. The relay stops on a "close!" command, at end of
// input, or on SIGINT/SIGTERM.
//
// Diagnostics go to a log file (a temporary one by default) and,
// when the bootstrap names a logPort, to a side TCP connection as JSON
// records. The process exits 1 if the target cannot be reached.
package main
