// Copyright (c) 2026 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package ctlclock is the time source of the controller. Grace periods are
// measured on a Clock so tests can move time forward by hand.
package ctlclock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Clock is the subset of time operations the controller needs.
type Clock interface {
	Now() time.Time
	Since(time.Time) time.Duration
	WithTimeout(context.Context, time.Duration) (context.Context, context.CancelFunc)
}

// System is the Clock backed by the real time.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (systemClock) WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// Mock is a Clock whose time only moves when Add is called.
type Mock struct {
	mu  sync.Mutex
	now time.Time

	// Pending deadlines, resolved in order by Add.
	timers     []timer
	timerAdded *sync.Cond
}

var _ Clock = (*Mock)(nil)

type timer struct {
	at time.Time
	fn func()
}

// NewMock builds a Mock starting at the current wall time.
func NewMock() *Mock {
	m := &Mock{now: time.Now()}
	m.timerAdded = sync.NewCond(&m.mu)
	return m
}

// Now reports the mock's current time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Since reports the mock time elapsed since t.
func (m *Mock) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

// WithTimeout returns a context that expires with context.DeadlineExceeded
// once the mock has advanced by d. Cancelling it, or its parent, ends it
// with context.Canceled.
func (m *Mock) WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	deadline := m.Now().Add(d)
	inner, cancelInner := context.WithCancel(parent)
	ctx := &deadlineCtx{
		Context:     inner,
		cancelInner: cancelInner,
		done:        make(chan struct{}),
		deadline:    deadline,
	}
	go func() {
		<-inner.Done()
		ctx.cancel(context.Canceled)
	}()

	m.schedule(deadline, func() { ctx.cancel(context.DeadlineExceeded) })
	return ctx, func() { ctx.cancel(context.Canceled) }
}

// AwaitScheduled blocks until at least n deadlines are pending.
func (m *Mock) AwaitScheduled(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.timers) < n {
		m.timerAdded.Wait()
	}
}

// Add moves the mock forward by d, firing every deadline that falls
// within the window in chronological order.
//
// Panics if d is negative.
func (m *Mock) Add(d time.Duration) {
	if d < 0 {
		panic("cannot add negative duration")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sort.Slice(m.timers, func(i, j int) bool {
		return m.timers[i].at.Before(m.timers[j].at)
	})

	end := m.now.Add(d)
	for len(m.timers) > 0 && !m.timers[0].at.After(end) {
		t := m.timers[0]
		m.timers[0] = timer{}
		m.timers = m.timers[1:]
		m.now = t.at

		// Fired callbacks may take the lock to schedule more work.
		m.mu.Unlock()
		t.fn()
		m.mu.Lock()
	}
	m.now = end
}

func (m *Mock) schedule(at time.Time, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timers = append(m.timers, timer{at: at, fn: fn})
	m.timerAdded.Broadcast()
}

type deadlineCtx struct {
	context.Context

	cancelInner context.CancelFunc
	done        chan struct{}
	deadline    time.Time

	mu  sync.Mutex // guards err
	err error
}

func (c *deadlineCtx) Deadline() (time.Time, bool) { return c.deadline, true }
func (c *deadlineCtx) Done() <-chan struct{}       { return c.done }

func (c *deadlineCtx) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *deadlineCtx) cancel(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return
	}
	c.err = err
	close(c.done)
	c.cancelInner()
}
