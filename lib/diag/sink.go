// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// ErrClosed is returned when writing to or attaching to a closed Sink.
var ErrClosed = errors.New("diag: sink closed")

// SideWriteTimeout bounds each write to a side connection that supports
// write deadlines. A side listener that stops reading is detached once a
// write exceeds it, so logging never stalls the relay.
const SideWriteTimeout = 250 * time.Millisecond

// deadlineWriter is implemented by net.Conn.
type deadlineWriter interface {
	SetWriteDeadline(t time.Time) error
}

// Sink fans log output out to a primary writer and an optional side
// connection. Writes are serialized. A failing side connection is
// detached and closed; the primary writer's errors are returned to the
// caller.
type Sink struct {
	mu      sync.Mutex
	primary io.Writer
	side    io.WriteCloser
	closers []io.Closer
	closed  bool

	// sideTimeout overrides SideWriteTimeout when positive.
	sideTimeout time.Duration

	// remove is the path of a temporary log file deleted on Close.
	remove string
}

// NewSink returns a Sink writing to w. If w is an io.Closer it is
// closed by Close.
func NewSink(w io.Writer) *Sink {
	sink := &Sink{primary: w}
	if closer, ok := w.(io.Closer); ok {
		sink.closers = append(sink.closers, closer)
	}
	return sink
}

// OpenFile opens path for appending, creating it if necessary.
func OpenFile(path string) (*Sink, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("diag: opening log file: %w", err)
	}
	return NewSink(file), nil
}

// OpenTemp creates a fresh log file in directory (os.TempDir when empty)
// whose name starts with prefix. The file is removed when the Sink is
// closed unless keep is set.
func OpenTemp(directory, prefix string, keep bool) (*Sink, error) {
	file, err := os.CreateTemp(directory, prefix+"*.log")
	if err != nil {
		return nil, fmt.Errorf("diag: creating log file: %w", err)
	}
	sink := NewSink(file)
	if !keep {
		sink.remove = file.Name()
	}
	return sink, nil
}

// Path returns the name of the primary file, or "" when the primary
// writer is not a file.
func (s *Sink) Path() string {
	if file, ok := s.primary.(*os.File); ok {
		return file.Name()
	}
	return ""
}

// Write appends p to the primary writer and the side connection.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	if s.side != nil {
		if err := s.writeSide(p); err != nil {
			s.side.Close()
			s.side = nil
		}
	}
	return s.primary.Write(p)
}

func (s *Sink) writeSide(p []byte) error {
	if conn, ok := s.side.(deadlineWriter); ok {
		timeout := SideWriteTimeout
		if s.sideTimeout > 0 {
			timeout = s.sideTimeout
		}
		//nolint:realclock kernel I/O deadline
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	_, err := s.side.Write(p)
	return err
}

// Attach adds w as the side connection. Only one side connection may be
// attached over the life of the Sink.
func (s *Sink) Attach(w io.WriteCloser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.side != nil {
		return errors.New("diag: side connection already attached")
	}
	s.side = w
	return nil
}

// DialSide connects to address over TCP and attaches the connection.
func (s *Sink) DialSide(ctx context.Context, address string, timeout time.Duration) error {
	dialer := net.Dialer{Timeout: timeout}
	connection, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("diag: connecting side log %s: %w", address, err)
	}
	if err := s.Attach(connection); err != nil {
		connection.Close()
		return err
	}
	return nil
}

// Close closes the side connection and the primary writer. Calls after
// the first return nil.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.side != nil {
		errs = append(errs, s.side.Close())
		s.side = nil
	}
	for _, closer := range s.closers {
		errs = append(errs, closer.Close())
	}
	if s.remove != "" {
		if err := os.Remove(s.remove); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
