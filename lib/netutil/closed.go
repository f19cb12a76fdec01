// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, use of a closed connection or pipe, broken pipe,
// connection reset or an aborted connection.
//
// During relay shutdown the engine closes the socket out from under a
// blocked read. That read then fails with net.ErrClosed, or with
// ECONNRESET/EPIPE if the peer disconnected first. These are the
// side effects of teardown, not faults, and are matched by kind rather
// than by message text.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	return errors.Is(err, unix.EPIPE) || errors.Is(err, unix.ECONNRESET) || errors.Is(err, unix.ECONNABORTED)
}
