// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunk frames byte payloads as sequences of printable lines.
//
// A chunk is a run of content lines ended by a terminator. Content lines
// are either alphabet-encoded (see package alphabet) or standard base64;
// the two are told apart by their symbols, since the alphabet shares no
// character with base64. Terminators select the chunk kind:
//
//	$             end of a data chunk
//	$$            end of a command chunk
//	<base64>#     final base64 line of a data chunk
//	<base64>^     final base64 line of a command chunk
//
// Empty lines are ignored and surrounding whitespace is trimmed, so a
// channel that drops trailing blanks does not corrupt the framing.
//
// [Reader] decodes chunks from a [LineSource]. [Writer] encodes data and
// command chunks onto an io.Writer, serializing concurrent callers so that
// two chunks never interleave mid-line. Everything a Writer produces is
// readable by a Reader.
package chunk
