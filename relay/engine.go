// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/textrelay/lib/chunk"
	"github.com/bureau-foundation/textrelay/lib/clock"
	"github.com/bureau-foundation/textrelay/lib/netutil"
)

const (
	// DefaultBufferSize is the largest block read from the socket and
	// forwarded as one data chunk.
	DefaultBufferSize = 64 * 1024

	// DefaultShutdownGrace bounds how long the engine waits for the
	// outbound pump after closing the socket.
	DefaultShutdownGrace = 3 * time.Second
)

// StopReason records why a pump stopped.
type StopReason string

const (
	// StopCloseCommand: the text side sent "close!".
	StopCloseCommand StopReason = "close_command"
	// StopTextClosed: the text source reached end of input.
	StopTextClosed StopReason = "text_closed"
	// StopTextError: reading or writing the text channel failed.
	StopTextError StopReason = "text_error"
	// StopSocketClosed: the target closed or reset the connection.
	StopSocketClosed StopReason = "socket_closed"
	// StopSocketError: reading or writing the socket failed.
	StopSocketError StopReason = "socket_error"
	// StopShutdown: the pump noticed the other pump had stopped.
	StopShutdown StopReason = "shutdown"
	// StopCanceled: the context passed to Run was canceled.
	StopCanceled StopReason = "canceled"
	// StopAbandoned: the pump did not stop within the grace period.
	StopAbandoned StopReason = "abandoned"
)

// Summary describes a finished relay run.
type Summary struct {
	// BytesToSocket is the payload forwarded from the text side.
	BytesToSocket int64
	// BytesToText is the payload forwarded from the socket.
	BytesToText int64
	// ChunksToSocket counts data chunks forwarded to the socket.
	ChunksToSocket int64
	// ChunksToText counts data chunks written to the text side.
	ChunksToText int64
	// MalformedChunks counts chunks discarded for bad lines.
	MalformedChunks int64

	// Inbound is why the text-to-socket pump stopped (or StopCanceled).
	Inbound StopReason
	// Outbound is why the socket-to-text pump stopped.
	Outbound StopReason

	// CleanShutdown is false when the outbound pump had to be abandoned.
	CleanShutdown bool
}

// Engine relays one connection through a text channel. Configure the
// exported fields, then call Run once.
type Engine struct {
	// Reader supplies chunks from the text side. Required.
	Reader *chunk.Reader

	// Writer carries chunks to the text side. Required.
	Writer *chunk.Writer

	// Logger receives diagnostics. If nil, slog.Default() is used.
	// Per-chunk events are logged at Debug level.
	Logger *slog.Logger

	// Metrics records traffic. May be nil.
	Metrics *Metrics

	// Clock times the shutdown grace period. If nil, clock.Real().
	Clock clock.Clock

	// ShutdownGrace overrides DefaultShutdownGrace when positive.
	ShutdownGrace time.Duration

	// BufferSize overrides DefaultBufferSize when positive.
	BufferSize int

	started atomic.Bool
}

// traffic accumulates Summary counters from both pumps.
type traffic struct {
	bytesToSocket   atomic.Int64
	bytesToText     atomic.Int64
	chunksToSocket  atomic.Int64
	chunksToText    atomic.Int64
	malformedChunks atomic.Int64
}

// runState is the running flag shared by the pumps. It only ever goes
// from running to stopped.
type runState struct {
	running atomic.Bool
}

func newRunState() *runState {
	state := &runState{}
	state.running.Store(true)
	return state
}

func (s *runState) isRunning() bool { return s.running.Load() }

// stop reports whether this call was the one that stopped the relay.
func (s *runState) stop() bool { return s.running.Swap(false) }

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) clock() clock.Clock {
	if e.Clock != nil {
		return e.Clock
	}
	return clock.Real()
}

func (e *Engine) shutdownGrace() time.Duration {
	if e.ShutdownGrace > 0 {
		return e.ShutdownGrace
	}
	return DefaultShutdownGrace
}

func (e *Engine) bufferSize() int {
	if e.BufferSize > 0 {
		return e.BufferSize
	}
	return DefaultBufferSize
}

// Run relays between the text channel and conn until the inbound pump
// stops or ctx is canceled, then closes conn and gives the outbound pump
// the grace period to finish. conn is closed when Run returns.
//
// Run returns an error only for misuse (missing Reader or Writer, or a
// second call). Pump failures are logged and reported in the Summary.
func (e *Engine) Run(ctx context.Context, conn net.Conn) (Summary, error) {
	if e.Reader == nil || e.Writer == nil {
		return Summary{}, fmt.Errorf("relay: engine requires a Reader and a Writer")
	}
	if !e.started.CompareAndSwap(false, true) {
		conn.Close()
		return Summary{}, ErrAlreadyRun
	}

	connection := netutil.NewCloseOnceConn(conn)
	defer connection.Close()

	state := newRunState()
	counters := &traffic{}
	e.Metrics.setRunning(true)
	defer e.Metrics.setRunning(false)

	inboundDone := make(chan StopReason, 1)
	outboundDone := make(chan StopReason, 1)
	go func() { inboundDone <- e.inbound(state, connection, counters) }()
	go func() { outboundDone <- e.outbound(state, connection, counters) }()

	summary := Summary{CleanShutdown: true}
	select {
	case summary.Inbound = <-inboundDone:
	case <-ctx.Done():
		summary.Inbound = StopCanceled
		e.logger().Info("relay canceled", "error", ctx.Err())
	}

	state.stop()
	if err := connection.Close(); err != nil && !netutil.IsExpectedCloseError(err) {
		e.logger().Warn("closing socket failed", "error", err)
	}

	select {
	case summary.Outbound = <-outboundDone:
	case <-e.clock().After(e.shutdownGrace()):
		summary.Outbound = StopAbandoned
		summary.CleanShutdown = false
		e.logger().Error("socket pump did not stop after socket close, abandoning it",
			"grace", e.shutdownGrace(),
		)
	}

	summary.BytesToSocket = counters.bytesToSocket.Load()
	summary.BytesToText = counters.bytesToText.Load()
	summary.ChunksToSocket = counters.chunksToSocket.Load()
	summary.ChunksToText = counters.chunksToText.Load()
	summary.MalformedChunks = counters.malformedChunks.Load()

	e.logger().Info("relay stopped",
		"inbound", summary.Inbound,
		"outbound", summary.Outbound,
		"bytes_to_socket", summary.BytesToSocket,
		"bytes_to_text", summary.BytesToText,
		"clean_shutdown", summary.CleanShutdown,
	)
	return summary, nil
}

// inbound forwards data chunks from the text side to the socket and
// handles commands.
func (e *Engine) inbound(state *runState, connection net.Conn, counters *traffic) StopReason {
	logger := e.logger().With("origin", "text")

	for state.isRunning() {
		received, err := e.Reader.ReadChunk()
		if !state.isRunning() {
			// The outbound pump stopped the relay while this read was
			// blocked; the chunk has nowhere to go.
			if err == nil && !received.Empty() {
				logger.Info("dropping chunk received after relay stopped",
					"bytes", len(received.Payload),
				)
			}
			return StopShutdown
		}
		if err != nil {
			if errors.Is(err, chunk.ErrMalformedLine) {
				counters.malformedChunks.Add(1)
				e.Metrics.malformedLine()
				logger.Warn("discarding malformed chunk", "error", err)
				continue
			}
			logger.Error("reading text channel failed", "error", err)
			state.stop()
			return StopTextError
		}

		if received.Kind == chunk.Command {
			if e.handleCommand(received.Payload, logger) == CommandClose {
				state.stop()
				return StopCloseCommand
			}
			continue
		}

		if !received.Truncated || !received.Empty() {
			if reason, ok := e.forwardToSocket(state, connection, received, counters, logger); !ok {
				return reason
			}
		}

		if received.Truncated {
			logger.Info("text channel closed")
			state.stop()
			return StopTextClosed
		}
	}
	return StopShutdown
}

// forwardToSocket writes one data chunk to the socket and, for a
// complete chunk, acknowledges it on the text side. It returns false
// with the stop reason when the inbound pump must stop.
func (e *Engine) forwardToSocket(state *runState, connection net.Conn, received chunk.Chunk, counters *traffic, logger *slog.Logger) (StopReason, bool) {
	if len(received.Payload) > 0 {
		if _, err := connection.Write(received.Payload); err != nil {
			wasRunning := state.stop()
			if !wasRunning && netutil.IsExpectedCloseError(err) {
				return StopShutdown, false
			}
			if netutil.IsExpectedCloseError(err) {
				logger.Info("socket closed while forwarding", "error", err)
				return StopSocketClosed, false
			}
			logger.Error("writing socket failed", "error", err)
			return StopSocketError, false
		}
	}
	counters.chunksToSocket.Add(1)
	counters.bytesToSocket.Add(int64(len(received.Payload)))
	e.Metrics.chunk(DirectionToSocket, chunk.Data, len(received.Payload))
	logger.Debug("forwarded chunk to socket", "bytes", len(received.Payload))

	if received.Truncated {
		return "", true
	}
	if err := e.Writer.WriteCommand(ChunkOKName); err != nil {
		logger.Error("writing acknowledgment failed", "error", err)
		state.stop()
		return StopTextError, false
	}
	return "", true
}

// handleCommand interprets a command chunk from the text side.
func (e *Engine) handleCommand(payload []byte, logger *slog.Logger) Command {
	command := ParseCommand(payload)
	e.Metrics.command(command)

	switch command {
	case CommandClose:
		logger.Info("close command received")
	case CommandChunkOK, CommandReady:
		logger.Debug("peer command", "command", command.String())
	default:
		logger.Warn("ignoring unknown command", "command", string(payload))
	}
	return command
}

// outbound forwards socket data to the text side.
func (e *Engine) outbound(state *runState, connection net.Conn, counters *traffic) StopReason {
	logger := e.logger().With("origin", "socket")
	buffer := make([]byte, e.bufferSize())

	for state.isRunning() {
		n, err := connection.Read(buffer)
		if n > 0 {
			if writeErr := e.Writer.WriteData(buffer[:n]); writeErr != nil {
				logger.Error("writing to text channel failed", "error", writeErr)
				state.stop()
				return StopTextError
			}
			counters.chunksToText.Add(1)
			counters.bytesToText.Add(int64(n))
			e.Metrics.chunk(DirectionToText, chunk.Data, n)
			logger.Debug("forwarded socket data", "bytes", n)
		}
		if err == nil {
			continue
		}

		if !netutil.IsExpectedCloseError(err) {
			if state.stop() {
				logger.Error("reading socket failed", "error", err)
				return StopSocketError
			}
			logger.Warn("socket read failed during shutdown", "error", err)
			return StopShutdown
		}
		if !state.stop() {
			// Expected: the engine closed the socket to stop this pump.
			return StopShutdown
		}

		logger.Info("socket closed by target", "error", err)
		if writeErr := e.Writer.WriteCommand(CloseName); writeErr != nil {
			logger.Warn("writing close command failed", "error", writeErr)
		}
		return StopSocketClosed
	}
	return StopShutdown
}
