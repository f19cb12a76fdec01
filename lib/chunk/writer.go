// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"bufio"
	"encoding/base64"
	"io"
	"sync"

	"github.com/bureau-foundation/textrelay/lib/alphabet"
)

// LineWidth is the maximum length of an encoded line, excluding any
// suffix. It matches the MIME line length and is a multiple of four, so
// every full base64 line decodes on its own.
const LineWidth = 76

// Writer encodes chunks onto the text side of a relay. It is safe for
// concurrent use: each call holds the writer for exactly one chunk and
// flushes it before returning, so chunks from different goroutines never
// interleave.
type Writer struct {
	mu     sync.Mutex
	out    *bufio.Writer
	buffer []byte
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w)}
}

// WriteCommand writes name as a single "<base64>^" command line.
func (w *Writer) WriteCommand(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buffer = base64.StdEncoding.AppendEncode(w.buffer[:0], []byte(name))
	w.buffer = append(w.buffer, CommandSuffix...)
	w.buffer = append(w.buffer, '\n')
	return w.flush()
}

// WriteData writes data as base64 lines of at most LineWidth characters.
// The last line carries the "#" suffix that ends the chunk.
func (w *Writer) WriteData(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	encoded := base64.StdEncoding.AppendEncode(nil, data)
	w.buffer = appendWrapped(w.buffer[:0], encoded)
	w.buffer = append(w.buffer, DataSuffix...)
	w.buffer = append(w.buffer, '\n')
	return w.flush()
}

// WriteAlphabetData writes data as alphabet-encoded lines followed by a
// "$" terminator. This is the framing used by peers that cannot produce
// base64, and for the bootstrap chunk.
func (w *Writer) WriteAlphabetData(data []byte) error {
	return w.writeAlphabet(data, DataTerminator)
}

// WriteAlphabetCommand writes name as alphabet-encoded lines followed by
// a "$$" terminator.
func (w *Writer) WriteAlphabetCommand(name string) error {
	return w.writeAlphabet([]byte(name), CommandTerminator)
}

func (w *Writer) writeAlphabet(data []byte, terminator string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buffer = appendWrapped(w.buffer[:0], []byte(alphabet.Encode(data)))
	if len(data) > 0 {
		w.buffer = append(w.buffer, '\n')
	}
	w.buffer = append(w.buffer, terminator...)
	w.buffer = append(w.buffer, '\n')
	return w.flush()
}

func (w *Writer) flush() error {
	if _, err := w.out.Write(w.buffer); err != nil {
		return err
	}
	return w.out.Flush()
}

// appendWrapped appends encoded split into LineWidth lines. Every line
// but the last is newline-terminated; the caller finishes the last one.
func appendWrapped(dst, encoded []byte) []byte {
	for len(encoded) > LineWidth {
		dst = append(dst, encoded[:LineWidth]...)
		dst = append(dst, '\n')
		encoded = encoded[LineWidth:]
	}
	return append(dst, encoded...)
}
