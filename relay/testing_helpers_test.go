// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/bureau-foundation/textrelay/lib/chunk"
	"github.com/bureau-foundation/textrelay/lib/testutil"
)

const waitTimeout = 5 * time.Second

// textPeer plays the controller on the far side of the text channel. The
// relay under test reads what the peer sends through Reader and writes
// through Writer; the peer decodes the relay's output into chunks.
type textPeer struct {
	// Reader and Writer are handed to the relay.
	Reader *chunk.Reader
	Writer *chunk.Writer

	// input encodes chunks onto the relay's text source.
	input *chunk.Writer

	inputPipe  *io.PipeWriter
	outputPipe *io.PipeWriter
	chunks     chan chunk.Chunk
}

func newTextPeer(t *testing.T) *textPeer {
	t.Helper()
	inputReader, inputWriter := io.Pipe()
	outputReader, outputWriter := io.Pipe()

	peer := &textPeer{
		Reader:     chunk.NewReader(chunk.NewBufferedSource(inputReader)),
		Writer:     chunk.NewWriter(outputWriter),
		input:      chunk.NewWriter(inputWriter),
		inputPipe:  inputWriter,
		outputPipe: outputWriter,
		chunks:     make(chan chunk.Chunk, 1024),
	}

	go func() {
		defer close(peer.chunks)
		reader := chunk.NewOutputReader(chunk.NewBufferedSource(outputReader))
		for {
			received, err := reader.ReadChunk()
			if err != nil {
				t.Errorf("relay wrote an undecodable chunk: %v", err)
				return
			}
			if received.Truncated {
				return
			}
			peer.chunks <- received
		}
	}()

	t.Cleanup(func() {
		inputWriter.Close()
		outputWriter.Close()
	})
	return peer
}

// sendLines writes raw lines to the relay's text source.
func (peer *textPeer) sendLines(t *testing.T, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if _, err := io.WriteString(peer.inputPipe, line+"\n"); err != nil {
			t.Fatalf("sending line %q: %v", line, err)
		}
	}
}

// sendData sends data as an alphabet-encoded chunk.
func (peer *textPeer) sendData(t *testing.T, data []byte) {
	t.Helper()
	if err := peer.input.WriteAlphabetData(data); err != nil {
		t.Fatalf("sending data chunk: %v", err)
	}
}

// sendCommand sends name as an alphabet-encoded command chunk.
func (peer *textPeer) sendCommand(t *testing.T, name string) {
	t.Helper()
	if err := peer.input.WriteAlphabetCommand(name); err != nil {
		t.Fatalf("sending command %q: %v", name, err)
	}
}

// closeInput ends the relay's text source.
func (peer *textPeer) closeInput() {
	peer.inputPipe.Close()
}

// next returns the next chunk the relay wrote.
func (peer *textPeer) next(t *testing.T) chunk.Chunk {
	t.Helper()
	return testutil.Receive(t, peer.chunks, "relay output")
}

func (peer *textPeer) expectCommand(t *testing.T, name string) {
	t.Helper()
	received := peer.next(t)
	if received.Kind != chunk.Command || string(received.Payload) != name {
		t.Fatalf("relay wrote (%v, %q), want command %q", received.Kind, received.Payload, name)
	}
}

func (peer *textPeer) expectData(t *testing.T) []byte {
	t.Helper()
	received := peer.next(t)
	if received.Kind != chunk.Data {
		t.Fatalf("relay wrote command %q, want data", received.Payload)
	}
	return received.Payload
}

// finish closes the relay's output and returns every chunk not yet
// consumed. Call it only after the relay has stopped writing.
func (peer *textPeer) finish(t *testing.T) []chunk.Chunk {
	t.Helper()
	peer.outputPipe.Close()
	var rest []chunk.Chunk
	for {
		select {
		case received, ok := <-peer.chunks:
			if !ok {
				return rest
			}
			rest = append(rest, received)
		case <-time.After(waitTimeout): //nolint:realclock test hang prevention
			t.Fatal("relay output did not drain")
		}
	}
}

// tcpPair returns both ends of a loopback TCP connection.
func tcpPair(t *testing.T) (relaySide, targetSide net.Conn) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		connection, acceptErr := listener.Accept()
		if acceptErr != nil {
			close(accepted)
			return
		}
		accepted <- connection
	}()

	relaySide, err = net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	targetSide = testutil.Receive(t, accepted, "relay connection to be accepted")
	t.Cleanup(func() {
		relaySide.Close()
		targetSide.Close()
	})
	return relaySide, targetSide
}

// readExactly reads n bytes from connection within the wait timeout.
func readExactly(t *testing.T, connection net.Conn, n int) []byte {
	t.Helper()
	connection.SetReadDeadline(time.Now().Add(waitTimeout)) //nolint:realclock // kernel I/O deadline
	buffer := make([]byte, n)
	if _, err := io.ReadFull(connection, buffer); err != nil {
		t.Fatalf("reading %d bytes from relay: %v", n, err)
	}
	return buffer
}

// expectEOF asserts the relay closes its end without sending more bytes.
func expectEOF(t *testing.T, connection net.Conn) {
	t.Helper()
	connection.SetReadDeadline(time.Now().Add(waitTimeout)) //nolint:realclock // kernel I/O deadline
	buffer := make([]byte, 1)
	n, err := connection.Read(buffer)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF from relay, got %d bytes, err %v", n, err)
	}
}

// runResult carries an Engine or Session result out of its goroutine.
type runResult struct {
	summary Summary
	err     error
}

func startEngine(t *testing.T, engine *Engine, ctx context.Context, conn net.Conn) <-chan runResult {
	t.Helper()
	results := make(chan runResult, 1)
	go func() {
		summary, err := engine.Run(ctx, conn)
		results <- runResult{summary, err}
	}()
	return results
}

// recordingDialer records dialed addresses and hands out a fixed result.
type recordingDialer struct {
	addresses chan string
	conn      net.Conn
	err       error
}

func newRecordingDialer(conn net.Conn, err error) *recordingDialer {
	return &recordingDialer{addresses: make(chan string, 4), conn: conn, err: err}
}

func (d *recordingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.addresses <- address
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
