/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scheduler

import (
	"sync"
	"time"
)

// DefaultDelay is the coalescing window used when none is configured.
const DefaultDelay = 120 * time.Millisecond

// Coalescer collapses rapid successive triggers into one deferred action.
// Every Trigger cancels the pending run and schedules a new one Delay later,
// so only the last trigger within the window runs the action.
// It is safe for concurrent use. The action runs on a timer goroutine, or on the
// caller's goroutine for Flush.
type Coalescer struct {
	delay  time.Duration
	action func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	stopped bool
	// accounting
	triggers int
	runs     int
}

// New returns a Coalescer running action after delay. delay <= 0 uses DefaultDelay.
func New(delay time.Duration, action func()) *Coalescer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Coalescer{delay: delay, action: action}
}

// Delay returns the coalescing window.
func (c *Coalescer) Delay() time.Duration { return c.delay }

// Trigger (re)schedules the action. It is a no-op after Stop.
func (c *Coalescer) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.triggers++
	c.gen++
	g := c.gen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = true
	c.timer = time.AfterFunc(c.delay, func() { c.fire(g) })
}

func (c *Coalescer) fire(g uint64) {
	c.mu.Lock()
	// A timer that lost the race with a newer Trigger, Flush or Stop does nothing.
	if g != c.gen || !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.runs++
	c.mu.Unlock()
	c.action()
}

// Flush runs a pending action immediately on the caller's goroutine.
// It reports whether anything was pending.
func (c *Coalescer) Flush() bool {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return false
	}
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = false
	c.runs++
	c.mu.Unlock()
	c.action()
	return true
}

// Pending reports whether a run is scheduled.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Stop cancels any pending run and disables further triggers.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.pending = false
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
	}
}

// Stats returns how many triggers were received and how many runs they produced.
func (c *Coalescer) Stats() (triggers, runs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggers, c.runs
}
