// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only when Advance is called.
// Channels from After fire, in deadline order, once Advance carries the
// clock to their deadline. FakeClock is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []fakeTimer
	changed *sync.Cond
}

type fakeTimer struct {
	due  time.Time
	fire chan time.Time
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{now: initial}
	fake.changed = sync.NewCond(&fake.mu)
	return fake
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives the clock's time when it
// reaches now+d. A non-positive d fires immediately without leaving a
// pending timer.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	fire := make(chan time.Time, 1)
	if d <= 0 {
		fire <- c.now
		return fire
	}
	timer := fakeTimer{due: c.now.Add(d), fire: fire}
	index, _ := slices.BinarySearchFunc(c.timers, timer.due, func(existing fakeTimer, due time.Time) int {
		return existing.due.Compare(due)
	})
	c.timers = slices.Insert(c.timers, index, timer)
	c.changed.Broadcast()
	return fire
}

// Advance moves the clock forward by d, firing every timer now due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	fired := 0
	for _, timer := range c.timers {
		if timer.due.After(c.now) {
			break
		}
		timer.fire <- c.now
		fired++
	}
	c.timers = slices.Delete(c.timers, 0, fired)
	c.changed.Broadcast()
}

// WaitForTimers blocks until n timers are pending. Tests call it before
// Advance so the goroutine under test has registered its wait.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.timers) < n {
		c.changed.Wait()
	}
}

// Pending returns the number of timers that have not fired.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
