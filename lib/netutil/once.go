// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"net"
	"sync"
)

// CloseOnceConn wraps a net.Conn so that Close takes effect exactly once,
// no matter how many goroutines call it. Later calls return the result
// of the first.
type CloseOnceConn struct {
	net.Conn

	once     sync.Once
	closeErr error
	closed   chan struct{}
}

// NewCloseOnceConn wraps conn.
func NewCloseOnceConn(conn net.Conn) *CloseOnceConn {
	return &CloseOnceConn{Conn: conn, closed: make(chan struct{})}
}

// Close closes the underlying connection on the first call.
func (c *CloseOnceConn) Close() error {
	c.once.Do(func() {
		c.closeErr = c.Conn.Close()
		close(c.closed)
	})
	return c.closeErr
}

// Closed returns a channel that is closed once Close has run.
func (c *CloseOnceConn) Closed() <-chan struct{} { return c.closed }

// IsClosed reports whether Close has been called.
func (c *CloseOnceConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
