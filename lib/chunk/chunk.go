// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"errors"
	"fmt"
)

// Kind distinguishes forwarded data from control commands.
type Kind int

const (
	// Data chunks carry bytes for the socket.
	Data Kind = iota
	// Command chunks carry a command name.
	Command
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Command:
		return "command"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Chunk is one framed unit read from the text side.
type Chunk struct {
	// Payload is the concatenation of every decoded content line.
	Payload []byte

	// Kind is Command when the chunk ended with "$$" or a "^" line.
	Kind Kind

	// Truncated is set when the source ended before a terminator was
	// seen. Payload holds whatever was accumulated.
	Truncated bool
}

// Empty reports whether the chunk carries no payload.
func (c Chunk) Empty() bool { return len(c.Payload) == 0 }

// Sentinel lines and suffixes.
const (
	DataTerminator    = "$"
	CommandTerminator = "$$"
	DataSuffix        = "#"
	CommandSuffix     = "^"
)

// ErrMalformedLine is returned by ReadChunk when a content line cannot be
// decoded. Only the chunk containing the line is lost.
var ErrMalformedLine = errors.New("chunk: malformed line")

// LineError describes a content line that failed to decode. It matches
// ErrMalformedLine with errors.Is and unwraps to the decode failure.
type LineError struct {
	// Line is the 1-based number of the line within the source.
	Line int
	// Err is the decoding error.
	Err error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("chunk: malformed line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() []error { return []error{ErrMalformedLine, e.Err} }
