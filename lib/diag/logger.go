// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger returns a structured logger writing to w at level. When w is
// a terminal the output is slog text for people; otherwise it is JSON,
// one record per line, for tooling that tails the log or listens on the
// side connection.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(w) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	if sink, ok := w.(*Sink); ok {
		w = sink.primary
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
