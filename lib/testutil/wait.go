// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "time"

// Timeout bounds every wait in this package. The waits are for
// goroutines talking over loopback or in-memory pipes, so reaching it
// means a hang.
const Timeout = 5 * time.Second

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// Receive returns the next value from ch. It fails the test if ch is
// closed or nothing arrives within Timeout. what names the awaited
// event in the failure message.
//
//	summary := testutil.Receive(t, results, "relay to stop")
func Receive[T any](t TB, ch <-chan T, what string) T {
	t.Helper()
	timer := time.NewTimer(Timeout) //nolint:realclock test hang prevention
	defer timer.Stop()

	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("waiting for %s: channel closed", what)
		}
		return value
	case <-timer.C:
		t.Fatalf("waiting for %s: nothing after %v", what, Timeout)
	}
	var zero T
	return zero
}

// WaitClosed blocks until ch is closed or yields a value, failing the
// test after Timeout.
func WaitClosed(t TB, ch <-chan struct{}, what string) {
	t.Helper()
	timer := time.NewTimer(Timeout) //nolint:realclock test hang prevention
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("waiting for %s: still open after %v", what, Timeout)
	}
}
