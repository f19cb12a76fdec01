// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/textrelay/lib/chunk"
)

// consoleSource reads lines from a terminal with echo disabled, so chunks
// typed or pasted by the controller are not reflected into its capture
// of stdout.
type consoleSource struct {
	fd int
}

// ReadLine returns io.EOF when the terminal sends end-of-file on an
// empty line.
func (s consoleSource) ReadLine() (string, error) {
	line, err := term.ReadPassword(s.fd)
	if err != nil {
		return "", err
	}
	return string(line), nil
}

// stdinSource picks the line source for the process's standard input.
func stdinSource(stdin *os.File) chunk.LineSource {
	fd := int(stdin.Fd())
	if term.IsTerminal(fd) {
		return consoleSource{fd: fd}
	}
	return chunk.NewBufferedSource(stdin)
}
