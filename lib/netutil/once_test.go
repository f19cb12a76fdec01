// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
)

type countingConn struct {
	net.Conn
	closes atomic.Int32
}

func (c *countingConn) Close() error {
	c.closes.Add(1)
	return c.Conn.Close()
}

func TestCloseOnceConn(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	counting := &countingConn{Conn: client}
	conn := NewCloseOnceConn(counting)
	if conn.IsClosed() {
		t.Fatal("IsClosed before Close")
	}

	var waitGroup sync.WaitGroup
	for range 10 {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			conn.Close()
		}()
	}
	waitGroup.Wait()

	if got := counting.closes.Load(); got != 1 {
		t.Fatalf("underlying Close called %d times, want 1", got)
	}
	if !conn.IsClosed() {
		t.Fatal("IsClosed after Close")
	}
	select {
	case <-conn.Closed():
	default:
		t.Fatal("Closed channel not closed")
	}
}
