// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bytes"
	"strings"
)

// Command is a control message carried in a command chunk.
type Command int

const (
	// CommandUnknown is any command name the relay does not recognize.
	// Unknown commands are logged and ignored.
	CommandUnknown Command = iota
	// CommandReady announces that the relay is waiting for its
	// bootstrap configuration.
	CommandReady
	// CommandChunkOK acknowledges one forwarded data chunk.
	CommandChunkOK
	// CommandClose asks the peer to stop relaying.
	CommandClose
)

// Wire names of the commands.
const (
	ReadyName   = "ready!"
	ChunkOKName = "chunk-ok"
	CloseName   = "close!"
)

var commandNames = map[Command]string{
	CommandReady:   ReadyName,
	CommandChunkOK: ChunkOKName,
	CommandClose:   CloseName,
}

// String returns the wire name, or "unknown".
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCommand identifies the command in a command chunk's payload.
// Names compare case-insensitively and surrounding whitespace is
// ignored.
func ParseCommand(payload []byte) Command {
	name := string(bytes.TrimSpace(payload))
	for command, wireName := range commandNames {
		if strings.EqualFold(name, wireName) {
			return command
		}
	}
	return CommandUnknown
}
