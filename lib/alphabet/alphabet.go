// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package alphabet

import (
	"errors"
	"fmt"
)

// Symbols is the 16-symbol alphabet. The index of a symbol is its
// nibble value.
const Symbols = "!%&()*,-.:;<>?@~"

var (
	// ErrInvalidSymbol is returned when a character is not part of the
	// alphabet.
	ErrInvalidSymbol = errors.New("alphabet: invalid symbol")

	// ErrOddLength is returned when encoded text does not consist of
	// whole symbol pairs.
	ErrOddLength = errors.New("alphabet: odd number of symbols")
)

// SymbolError reports the position and value of a character that is not
// part of the alphabet. It matches ErrInvalidSymbol with errors.Is.
type SymbolError struct {
	// Offset is the byte offset of the symbol within the decoded text.
	Offset int
	// Symbol is the offending character.
	Symbol byte
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("alphabet: invalid symbol %q at offset %d", e.Symbol, e.Offset)
}

func (e *SymbolError) Is(target error) bool {
	return target == ErrInvalidSymbol
}

// invalid marks bytes that are not symbols in the reverse table.
const invalid = 0xff

var reverse = func() [256]byte {
	var table [256]byte
	for i := range table {
		table[i] = invalid
	}
	for i := 0; i < len(Symbols); i++ {
		table[Symbols[i]] = byte(i)
	}
	return table
}()

// IsSymbol reports whether c belongs to the alphabet.
func IsSymbol(c byte) bool {
	return reverse[c] != invalid
}

// EncodeByte returns the two symbols for b, high nibble first.
func EncodeByte(b byte) [2]byte {
	return [2]byte{Symbols[b>>4], Symbols[b&0x0f]}
}

// DecodePair returns the byte encoded by the symbols hi and lo.
func DecodePair(hi, lo byte) (byte, error) {
	high := reverse[hi]
	if high == invalid {
		return 0, &SymbolError{Offset: 0, Symbol: hi}
	}
	low := reverse[lo]
	if low == invalid {
		return 0, &SymbolError{Offset: 1, Symbol: lo}
	}
	return high<<4 | low, nil
}

// EncodedLen returns the length of the encoding of n bytes.
func EncodedLen(n int) int { return n * 2 }

// Encode returns the alphabet encoding of data.
func Encode(data []byte) string {
	out := make([]byte, 0, EncodedLen(len(data)))
	for _, b := range data {
		pair := EncodeByte(b)
		out = append(out, pair[0], pair[1])
	}
	return string(out)
}

// Decode decodes text produced by Encode. The input must contain only
// alphabet symbols and have even length.
func Decode(text string) ([]byte, error) {
	return AppendDecode(nil, text)
}

// AppendDecode decodes text and appends the result to dst. On error dst
// is returned unchanged.
func AppendDecode(dst []byte, text string) ([]byte, error) {
	if len(text)%2 != 0 {
		return dst, fmt.Errorf("%w: %d symbols", ErrOddLength, len(text))
	}
	start := len(dst)
	for i := 0; i < len(text); i += 2 {
		b, err := DecodePair(text[i], text[i+1])
		if err != nil {
			var symbolErr *SymbolError
			if errors.As(err, &symbolErr) {
				symbolErr.Offset += i
			}
			return dst[:start], err
		}
		dst = append(dst, b)
	}
	return dst, nil
}
