// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type failingWriter struct{ closed bool }

func (w *failingWriter) Write(p []byte) (int, error) { return 0, errors.New("side gone") }
func (w *failingWriter) Close() error                { w.closed = true; return nil }

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")
	if err := os.WriteFile(path, []byte("existing\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	sink, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := sink.Write([]byte("appended\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "existing\nappended\n" {
		t.Fatalf("log content = %q", content)
	}
}

func TestOpenTempRemovedOnClose(t *testing.T) {
	directory := t.TempDir()

	sink, err := OpenTemp(directory, "textrelay-", false)
	if err != nil {
		t.Fatalf("OpenTemp: %v", err)
	}
	path := sink.Path()
	if !strings.HasPrefix(filepath.Base(path), "textrelay-") {
		t.Fatalf("unexpected temp path %s", path)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp log still exists after Close: %v", err)
	}

	kept, err := OpenTemp(directory, "textrelay-", true)
	if err != nil {
		t.Fatalf("OpenTemp: %v", err)
	}
	if err := kept.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(kept.Path()); err != nil {
		t.Fatalf("kept log missing: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	sink := NewSink(&bytes.Buffer{})
	if err := sink.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := sink.Write([]byte("late")); !errors.Is(err, ErrClosed) {
		t.Fatalf("Write after Close = %v, want ErrClosed", err)
	}
	if err := sink.Attach(&failingWriter{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Attach after Close = %v, want ErrClosed", err)
	}
}

func TestFailingSideIsDetached(t *testing.T) {
	var primary bytes.Buffer
	sink := NewSink(&primary)
	side := &failingWriter{}
	if err := sink.Attach(side); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	for range 2 {
		if _, err := sink.Write([]byte("line\n")); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if !side.closed {
		t.Fatal("failing side connection was not closed")
	}
	if primary.String() != "line\nline\n" {
		t.Fatalf("primary = %q", primary.String())
	}
	if err := sink.Attach(&failingWriter{}); err != nil {
		t.Fatalf("Attach after detach: %v", err)
	}
}

func TestStalledSideIsDetached(t *testing.T) {
	var primary bytes.Buffer
	sink := NewSink(&primary)
	sink.sideTimeout = 20 * time.Millisecond

	// Nothing ever reads the far end of the pipe, so every write to it
	// blocks until the deadline.
	side, far := net.Pipe()
	defer far.Close()
	if err := sink.Attach(side); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	written := make(chan error, 1)
	go func() {
		_, err := sink.Write([]byte("first\n"))
		written <- err
	}()
	select {
	case err := <-written:
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("Write blocked on a side connection that is not read")
	}

	if _, err := sink.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write after detach: %v", err)
	}
	if primary.String() != "first\nsecond\n" {
		t.Errorf("primary = %q, want both records", primary.String())
	}

	// The detached side was closed.
	far.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:realclock test hang prevention
	if _, err := far.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("far end read error = %v, want io.EOF", err)
	}
}

func TestAttachTwice(t *testing.T) {
	sink := NewSink(io.Discard)
	if err := sink.Attach(&failingWriter{}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := sink.Attach(&failingWriter{}); err == nil {
		t.Fatal("expected error attaching a second side connection")
	}
}

func TestDialSideReceivesRecords(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	lines := make(chan string, 1)
	go func() {
		connection, acceptErr := listener.Accept()
		if acceptErr != nil {
			return
		}
		defer connection.Close()
		scanner := bufio.NewScanner(connection)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	var primary bytes.Buffer
	sink := NewSink(&primary)
	defer sink.Close()
	if err := sink.DialSide(context.Background(), listener.Addr().String(), time.Second); err != nil {
		t.Fatalf("DialSide: %v", err)
	}

	logger := NewLogger(sink, slog.LevelInfo)
	logger.Info("socket read", "bytes", 2)

	var line string
	select {
	case line = <-lines:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("side listener received nothing")
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("side record is not JSON: %q: %v", line, err)
	}
	if record["msg"] != "socket read" || record["bytes"] != float64(2) {
		t.Fatalf("unexpected record %v", record)
	}
	if !strings.Contains(primary.String(), `"msg":"socket read"`) {
		t.Fatalf("primary missing record: %q", primary.String())
	}
}

func TestDialSideUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	address := listener.Addr().String()
	listener.Close()

	sink := NewSink(io.Discard)
	defer sink.Close()
	if err := sink.DialSide(context.Background(), address, time.Second); err == nil {
		t.Fatal("expected error dialing a closed port")
	}
}
