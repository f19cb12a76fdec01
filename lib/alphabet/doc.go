// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package alphabet implements the nibble encoding used for transport-safe
// lines on the text side of a relay.
//
// Every byte becomes two symbols drawn from [Symbols]: the first encodes
// the high nibble, the second the low nibble, each by its position in
// the alphabet. The alphabet avoids digits, quotes, whitespace and the
// chunk sentinels ($, #, ^), and shares no symbol with standard base64
// (including its = padding). A line can therefore be classified as
// alphabet-encoded or base64-encoded from its symbols alone.
package alphabet
