// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/textrelay/lib/chunk"
	"github.com/bureau-foundation/textrelay/lib/clock"
)

// DefaultConnectTimeout bounds the dial to the target.
const DefaultConnectTimeout = 5 * time.Second

// Dialer opens the target connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Session runs one complete relay: handshake, connect, relay, shutdown.
type Session struct {
	// Reader and Writer are the text channel. Required.
	Reader *chunk.Reader
	Writer *chunk.Writer

	// Base is the configuration the bootstrap chunk is merged over
	// (defaults plus any config file). If nil, DefaultConfig().
	Base *Config

	// Overrides are applied after the bootstrap chunk, typically from
	// EnvironmentOverrides.
	Overrides Values

	// OnConfig is called with the final configuration before the target
	// is dialed. The process uses it to attach the diagnostic side
	// connection. An error is logged and does not stop the session.
	OnConfig func(ctx context.Context, config Config) error

	// Dialer opens the target connection. If nil, a net.Dialer.
	Dialer Dialer

	// ConnectTimeout overrides DefaultConnectTimeout when positive.
	ConnectTimeout time.Duration

	// Logger, Metrics, Clock, ShutdownGrace and BufferSize configure the
	// Engine; see the corresponding Engine fields.
	Logger        *slog.Logger
	Metrics       *Metrics
	Clock         clock.Clock
	ShutdownGrace time.Duration
	BufferSize    int

	started atomic.Bool
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Session) dialer() Dialer {
	if s.Dialer != nil {
		return s.Dialer
	}
	return &net.Dialer{}
}

func (s *Session) connectTimeout() time.Duration {
	if s.ConnectTimeout > 0 {
		return s.ConnectTimeout
	}
	return DefaultConnectTimeout
}

// Run performs the handshake, connects to the configured target and
// relays until the text side closes or sends "close!".
//
// The returned error is a *ConnectError (matching ErrConnect) when the
// target cannot be reached, or a text channel failure during the
// handshake. Everything after a successful connect is reported in the
// Summary.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	if !s.started.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRun
	}
	if s.Reader == nil || s.Writer == nil {
		return Summary{}, fmt.Errorf("relay: session requires a Reader and a Writer")
	}

	logger := s.logger()
	base := DefaultConfig()
	if s.Base != nil {
		base = *s.Base
	}

	config, err := Handshake(s.Reader, s.Writer, base, logger)
	if err != nil {
		return Summary{}, err
	}
	if len(s.Overrides) > 0 {
		overridden, mergeErr := config.Merge(s.Overrides)
		if mergeErr != nil {
			logger.Warn("invalid override values ignored", "error", mergeErr)
		}
		logger.Info("configuration overridden from environment",
			"host", overridden.Host,
			"port", overridden.Port,
		)
		config = overridden
	}

	if s.OnConfig != nil {
		if hookErr := s.OnConfig(ctx, config); hookErr != nil {
			logger.Warn("configuration hook failed", "error", hookErr)
		}
	}

	conn, err := s.connect(ctx, config)
	if err != nil {
		logger.Error("connecting to target failed", "error", err)
		return Summary{}, err
	}
	logger.Info("connected to target", "address", config.Address())

	engine := &Engine{
		Reader:        s.Reader,
		Writer:        s.Writer,
		Logger:        logger,
		Metrics:       s.Metrics,
		Clock:         s.Clock,
		ShutdownGrace: s.ShutdownGrace,
		BufferSize:    s.BufferSize,
	}
	return engine.Run(ctx, conn)
}

func (s *Session) connect(ctx context.Context, config Config) (net.Conn, error) {
	address := config.Address()
	dialContext, cancel := context.WithTimeout(ctx, s.connectTimeout())
	defer cancel()

	conn, err := s.dialer().DialContext(dialContext, "tcp", address)
	if err != nil {
		return nil, &ConnectError{Address: address, Err: err}
	}
	return conn, nil
}
