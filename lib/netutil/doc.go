// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds connection helpers shared by the relay: error
// classification for teardown faults and a connection wrapper that
// closes exactly once.
package netutil
