// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds test helpers for the relay packages.
//
// [Receive] and [WaitClosed] bound every wait on a pump goroutine by
// [Timeout], so a stuck relay fails its test instead of hanging the run.
// They are the only wall-clock waits in the tests; the relay's own
// timing goes through package clock.
//
// [ListenTCP] starts a loopback [Target] that accepts one connection and
// records what the relay writes to it.
package testutil
