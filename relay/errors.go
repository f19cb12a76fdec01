// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrConnect is matched by errors returned when the target cannot be
	// reached. It is the only error fatal to a session.
	ErrConnect = errors.New("relay: connect failed")

	// ErrAlreadyRun is returned when a Session or Engine is run twice.
	// A process relays at most one connection.
	ErrAlreadyRun = errors.New("relay: already run")
)

// ConnectError reports a failure to open the target connection.
type ConnectError struct {
	// Address is the host:port that was dialed.
	Address string
	// Err is the dial error.
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("relay: connecting to %s: %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() []error { return []error{ErrConnect, e.Err} }
