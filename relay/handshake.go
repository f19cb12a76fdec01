// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/textrelay/lib/chunk"
)

// Handshake announces readiness on the text channel and reads the
// bootstrap configuration.
//
// It writes the "ready!" command, reads one chunk, and merges the
// chunk's key=value lines over base. A chunk cut short by the end of
// input is used as received. A malformed chunk, or values that fail
// validation, are logged and leave base in effect: the handshake only
// fails when the text channel itself fails.
func Handshake(reader *chunk.Reader, writer *chunk.Writer, base Config, logger *slog.Logger) (Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := writer.WriteCommand(ReadyName); err != nil {
		return base, fmt.Errorf("relay: writing ready command: %w", err)
	}

	bootstrap, err := reader.ReadChunk()
	if err != nil {
		if errors.Is(err, chunk.ErrMalformedLine) {
			logger.Warn("malformed bootstrap configuration, using defaults", "error", err)
			return base, nil
		}
		return base, fmt.Errorf("relay: reading bootstrap configuration: %w", err)
	}
	if bootstrap.Truncated {
		logger.Warn("text channel closed during handshake",
			"bytes_received", len(bootstrap.Payload),
		)
	}
	if bootstrap.Kind == chunk.Command {
		logger.Warn("bootstrap chunk is a command, decoding it as configuration",
			"payload", string(bootstrap.Payload),
		)
	}

	values := ParseValues(bootstrap.Payload)
	config, err := base.Merge(values)
	if err != nil {
		logger.Warn("invalid bootstrap values ignored", "error", err)
	}
	if len(values) == 0 {
		logger.Warn("empty bootstrap configuration, using defaults")
	}

	logger.Info("bootstrap configuration received",
		"host", config.Host,
		"port", config.Port,
		"log_port", config.LogPort,
	)
	return config, nil
}
