// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package alphabet

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

func TestSymbolsAreDistinct(t *testing.T) {
	if len(Symbols) != 16 {
		t.Fatalf("alphabet has %d symbols, want 16", len(Symbols))
	}
	seen := make(map[byte]bool)
	for i := 0; i < len(Symbols); i++ {
		if seen[Symbols[i]] {
			t.Fatalf("symbol %q appears twice", Symbols[i])
		}
		seen[Symbols[i]] = true
	}
}

func TestSymbolsAvoidReservedCharacters(t *testing.T) {
	const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="
	const sentinels = "$#^"
	for i := 0; i < len(Symbols); i++ {
		symbol := Symbols[i]
		if strings.IndexByte(base64Alphabet, symbol) >= 0 {
			t.Errorf("symbol %q is also a base64 character", symbol)
		}
		if strings.IndexByte(sentinels, symbol) >= 0 {
			t.Errorf("symbol %q is a chunk sentinel", symbol)
		}
		if strings.IndexByte("\"'` \t\r\n", symbol) >= 0 {
			t.Errorf("symbol %q is a quote or whitespace", symbol)
		}
	}
}

func TestEncodeByteNibbleOrder(t *testing.T) {
	pair := EncodeByte(0x41)
	if pair[0] != Symbols[4] || pair[1] != Symbols[1] {
		t.Fatalf("EncodeByte(0x41) = %q, want %q", pair[:], []byte{Symbols[4], Symbols[1]})
	}
}

func TestEveryByteRoundTrips(t *testing.T) {
	for value := 0; value < 256; value++ {
		pair := EncodeByte(byte(value))
		decoded, err := DecodePair(pair[0], pair[1])
		if err != nil {
			t.Fatalf("DecodePair(%q) for %#x: %v", pair[:], value, err)
		}
		if decoded != byte(value) {
			t.Fatalf("round trip of %#x produced %#x", value, decoded)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	random := rand.New(rand.NewPCG(1, 2))
	for iteration := 0; iteration < 200; iteration++ {
		data := make([]byte, random.IntN(512))
		for i := range data {
			data[i] = byte(random.Uint32())
		}
		encoded := Encode(data)
		if len(encoded) != EncodedLen(len(data)) {
			t.Fatalf("encoded length %d, want %d", len(encoded), EncodedLen(len(data)))
		}
		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("round trip mismatch for %d bytes", len(data))
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantErr    error
		wantOffset int
	}{
		{
			name:    "odd length",
			text:    "!%&",
			wantErr: ErrOddLength,
		},
		{
			name:       "unknown high symbol",
			text:       "!%A!",
			wantErr:    ErrInvalidSymbol,
			wantOffset: 2,
		},
		{
			name:       "unknown low symbol",
			text:       "!%!0",
			wantErr:    ErrInvalidSymbol,
			wantOffset: 3,
		},
		{
			name:       "sentinel is not a symbol",
			text:       "$$",
			wantErr:    ErrInvalidSymbol,
			wantOffset: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Decode(test.text)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("Decode(%q) error = %v, want %v", test.text, err, test.wantErr)
			}
			var symbolErr *SymbolError
			if errors.As(err, &symbolErr) && symbolErr.Offset != test.wantOffset {
				t.Fatalf("offset = %d, want %d", symbolErr.Offset, test.wantOffset)
			}
		})
	}
}

func TestAppendDecodeLeavesDestinationOnError(t *testing.T) {
	prefix := []byte{1, 2, 3}
	result, err := AppendDecode(prefix, Encode([]byte{9})+"!x")
	if err == nil {
		t.Fatal("expected error")
	}
	if !bytes.Equal(result, prefix) {
		t.Fatalf("destination changed to %v", result)
	}
}

func TestIsSymbol(t *testing.T) {
	for i := 0; i < len(Symbols); i++ {
		if !IsSymbol(Symbols[i]) {
			t.Fatalf("IsSymbol(%q) = false", Symbols[i])
		}
	}
	for _, c := range []byte("aZ09+/=$#^ ") {
		if IsSymbol(c) {
			t.Fatalf("IsSymbol(%q) = true", c)
		}
	}
}
