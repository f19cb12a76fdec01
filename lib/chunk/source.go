// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// LineSource yields lines from the text side of a relay. ReadLine returns
// the next line without its terminator, or io.EOF when no lines remain.
type LineSource interface {
	ReadLine() (string, error)
}

// BufferedSource reads newline-terminated lines from an io.Reader. Lines
// may be arbitrarily long. A final line without a newline is returned
// before io.EOF, and a trailing carriage return is stripped.
type BufferedSource struct {
	reader *bufio.Reader
}

// NewBufferedSource returns a LineSource reading from r.
func NewBufferedSource(r io.Reader) *BufferedSource {
	return &BufferedSource{reader: bufio.NewReaderSize(r, 64*1024)}
}

func (s *BufferedSource) ReadLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSuffix(line, "\r"), nil
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// LineSourceFunc adapts a function to the LineSource interface.
type LineSourceFunc func() (string, error)

func (f LineSourceFunc) ReadLine() (string, error) { return f() }
