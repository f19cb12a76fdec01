// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"
)

// Target is a loopback TCP listener that accepts one connection and
// records everything read from it.
type Target struct {
	listener net.Listener

	accepted chan net.Conn
	done     chan struct{}

	mu         sync.Mutex
	connection net.Conn
	received   []byte
	// changed is closed and replaced whenever received grows.
	changed chan struct{}
}

// ListenTCP starts a Target on 127.0.0.1 with an ephemeral port. The
// listener and any accepted connection are closed when the test ends.
func ListenTCP(t *testing.T) *Target {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenTCP: %v", err)
	}
	target := &Target{
		listener: listener,
		accepted: make(chan net.Conn, 1),
		done:     make(chan struct{}),
		changed:  make(chan struct{}),
	}
	t.Cleanup(func() {
		listener.Close()
		target.mu.Lock()
		defer target.mu.Unlock()
		if target.connection != nil {
			target.connection.Close()
		}
	})

	go func() {
		connection, acceptErr := listener.Accept()
		if acceptErr != nil {
			close(target.done)
			return
		}
		target.mu.Lock()
		target.connection = connection
		target.mu.Unlock()
		target.accepted <- connection

		defer close(target.done)
		buffer := make([]byte, 32*1024)
		for {
			n, readErr := connection.Read(buffer)
			if n > 0 {
				target.mu.Lock()
				target.received = append(target.received, buffer[:n]...)
				close(target.changed)
				target.changed = make(chan struct{})
				target.mu.Unlock()
			}
			if readErr != nil {
				return
			}
		}
	}()
	return target
}

// Host returns the listener's IP address.
func (target *Target) Host() string {
	return target.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listener's port.
func (target *Target) Port() int {
	return target.listener.Addr().(*net.TCPAddr).Port
}

// PortString returns the listener's port in decimal.
func (target *Target) PortString() string {
	return strconv.Itoa(target.Port())
}

// Conn waits for the relay to connect and returns the accepted
// connection. Writes to it reach the relay's socket. Reads belong to the
// Target; use Received or WaitReceived to see what the relay sent.
func (target *Target) Conn(t *testing.T) net.Conn {
	t.Helper()
	return Receive(t, target.accepted, "relay to connect")
}

// Closed returns a channel closed once the accepted connection reports
// EOF or an error (or the listener failed to accept).
func (target *Target) Closed() <-chan struct{} { return target.done }

// Received returns a copy of the bytes read so far.
func (target *Target) Received() []byte {
	target.mu.Lock()
	defer target.mu.Unlock()
	return append([]byte(nil), target.received...)
}

// WaitReceived blocks until at least n bytes have been read from the
// connection and returns everything read so far. It fails the test if
// the connection closes first or Timeout passes.
func (target *Target) WaitReceived(t TB, n int) []byte {
	t.Helper()
	timer := time.NewTimer(Timeout) //nolint:realclock test hang prevention
	defer timer.Stop()

	for {
		target.mu.Lock()
		received := append([]byte(nil), target.received...)
		changed := target.changed
		target.mu.Unlock()
		if len(received) >= n {
			return received
		}

		select {
		case <-changed:
		case <-target.done:
			// The reader may have appended its last bytes just before
			// closing done.
			if final := target.Received(); len(final) >= n {
				return final
			}
			t.Fatalf("waiting for %d bytes: connection closed after %q", n, target.Received())
			return nil
		case <-timer.C:
			t.Fatalf("waiting for %d bytes: have %q after %v", n, received, Timeout)
			return nil
		}
	}
}
