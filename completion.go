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

package controlpanel

import (
	"context"
	"sync"
)

// Completion carries the outcome of one stop request from the goroutine
// that performs the stop to whoever asked for it.
//
// Exactly one outcome is ever recorded: nil when the server stopped,
// ErrNotRunning when there was nothing to stop, or ErrDisconnected when the
// stop was abandoned without a result. Callers are free to ignore a
// Completion; the producer never blocks on it.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error // written once before done is closed
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// deliver records err as the outcome. It returns ErrAlreadyDelivered if an
// outcome, or an abandonment, was recorded first.
func (c *Completion) deliver(err error) error {
	delivered := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		delivered = true
	})
	if !delivered {
		return ErrAlreadyDelivered
	}
	return nil
}

// abandon closes the Completion without an outcome. Waiters then see
// ErrDisconnected. It is a no-op after deliver.
func (c *Completion) abandon() error {
	return c.deliver(ErrDisconnected)
}

// Done returns a channel that is closed once the outcome is known.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the outcome is known or ctx is done, whichever comes
// first. Waiting again returns the same outcome.
//
// If ctx ends first, Wait returns ctx.Err() and the outcome is still
// available to a later Wait.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	default:
	}

	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
