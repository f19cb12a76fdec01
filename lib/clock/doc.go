// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for the relay's
// bounded waits.
//
// Production code holds a Clock and calls After instead of time.After, so
// the shutdown grace period can be driven deterministically in tests:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	engine := &relay.Engine{Clock: fake}
//	// ... start the engine ...
//	fake.WaitForTimers(1)         // engine is waiting on the grace timer
//	fake.Advance(3 * time.Second) // fire it
package clock
