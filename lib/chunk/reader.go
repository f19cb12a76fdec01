// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/bureau-foundation/textrelay/lib/alphabet"
)

// Reader decodes chunks from a LineSource. A Reader is not safe for
// concurrent use; each text channel has exactly one reading goroutine.
type Reader struct {
	source LineSource
	line   int

	// suffixEndsData makes a "<base64>#" line end its data chunk.
	suffixEndsData bool
}

// NewReader returns a Reader for input arriving at the relay. A
// "<base64>#" line appends to the current data chunk, which only a "$"
// line (or end of input) ends.
func NewReader(source LineSource) *Reader {
	return &Reader{source: source}
}

// NewOutputReader returns a Reader for the framing Writer produces, in
// which the "#"-suffixed line is the last line of a data chunk. Text-side
// peers use it to decode what the relay sends them.
func NewOutputReader(source LineSource) *Reader {
	return &Reader{source: source, suffixEndsData: true}
}

// Lines returns the number of lines consumed so far.
func (r *Reader) Lines() int { return r.line }

// ReadChunk reads lines until a terminator and returns the decoded chunk.
//
// End of input is not an error: the chunk is returned with Truncated set
// and whatever payload was accumulated. A content line that fails to
// decode yields a *LineError (matching ErrMalformedLine) after the rest
// of its chunk has been discarded. Any other source error is returned
// unchanged.
func (r *Reader) ReadChunk() (Chunk, error) {
	var payload []byte
	for {
		line, err := r.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Chunk{Payload: payload, Kind: Data, Truncated: true}, nil
			}
			return Chunk{}, err
		}

		switch {
		case line == "":
			continue
		case line == DataTerminator:
			return Chunk{Payload: payload, Kind: Data}, nil
		case line == CommandTerminator:
			return Chunk{Payload: payload, Kind: Command}, nil
		case strings.HasSuffix(line, CommandSuffix):
			payload, err = appendBase64(payload, strings.TrimSuffix(line, CommandSuffix))
			if err != nil {
				return Chunk{}, &LineError{Line: r.line, Err: err}
			}
			return Chunk{Payload: payload, Kind: Command}, nil
		case strings.HasSuffix(line, DataSuffix):
			payload, err = appendBase64(payload, strings.TrimSuffix(line, DataSuffix))
			if err != nil {
				if r.suffixEndsData {
					return Chunk{}, &LineError{Line: r.line, Err: err}
				}
				return Chunk{}, r.discardAfter(err)
			}
			if r.suffixEndsData {
				return Chunk{Payload: payload, Kind: Data}, nil
			}
		default:
			payload, err = appendContent(payload, line)
			if err != nil {
				return Chunk{}, r.discardAfter(err)
			}
		}
	}
}

// next returns the next trimmed line.
func (r *Reader) next() (string, error) {
	line, err := r.source.ReadLine()
	if err != nil {
		return "", err
	}
	r.line++
	return strings.TrimSpace(line), nil
}

// discardAfter consumes lines through the end of the chunk holding the
// line that failed with decodeErr, and returns the error to report.
func (r *Reader) discardAfter(decodeErr error) error {
	lineErr := &LineError{Line: r.line, Err: decodeErr}
	if skipErr := r.discard(); skipErr != nil && !errors.Is(skipErr, io.EOF) {
		return skipErr
	}
	return lineErr
}

// discard consumes lines through the end of the current chunk.
func (r *Reader) discard() error {
	for {
		line, err := r.next()
		if err != nil {
			return err
		}
		if r.isTerminator(line) {
			return nil
		}
	}
}

func (r *Reader) isTerminator(line string) bool {
	switch {
	case line == DataTerminator, line == CommandTerminator:
		return true
	case strings.HasSuffix(line, CommandSuffix):
		return true
	case strings.HasSuffix(line, DataSuffix):
		return r.suffixEndsData
	}
	return false
}

// appendContent decodes an unsuffixed content line. A line containing
// any alphabet symbol is alphabet-encoded; anything else is base64.
func appendContent(dst []byte, line string) ([]byte, error) {
	if IsAlphabetLine(line) {
		return alphabet.AppendDecode(dst, line)
	}
	return appendBase64(dst, line)
}

func appendBase64(dst []byte, text string) ([]byte, error) {
	start := len(dst)
	decoded, err := base64.StdEncoding.AppendDecode(dst, []byte(text))
	if err != nil {
		return dst[:start], err
	}
	return decoded, nil
}

// IsAlphabetLine reports whether line should be decoded with the
// alphabet codec rather than base64.
func IsAlphabetLine(line string) bool {
	for i := 0; i < len(line); i++ {
		if alphabet.IsSymbol(line[i]) {
			return true
		}
	}
	return false
}
