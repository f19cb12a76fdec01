// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package diag provides the relay's diagnostic sink: an append-only
// destination for log records that never touches the text channel.
//
// The relay's stdout carries the tunnel protocol, so diagnostics go to a
// file and, optionally, to a side TCP connection that a developer can
// listen on. A [Sink] is opened once at startup, may gain the side
// connection once the bootstrap configuration names its port, and is
// closed once at shutdown. [NewLogger] builds the *slog.Logger every
// relay component writes through.
package diag
