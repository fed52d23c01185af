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

package ctlevent

import (
	"net"
	"time"
)

// Event is an event emitted by a Controller.
type Event interface {
	event() // Only ctlevent can implement this interface.
}

func (*Started) event()           {}
func (*Exited) event()            {}
func (*StopRequested) event()     {}
func (*Stopped) event()           {}
func (*CompletionDropped) event() {}

// Started is emitted by the serving goroutine once it has tried to bind.
//
// On success Addr is the bound address and the server is already
// reachable through the controller. On failure Err describes why nothing
// was published.
type Started struct {
	Addr net.Addr
	// Address is the address the controller was asked to bind.
	Address string
	Err     error
}

// Exited is emitted when the serving goroutine returns.
//
// Err is nil after a requested stop. It is set when the server stopped on
// its own, when the drain after a stop failed, or when the goroutine
// panicked.
type Exited struct {
	Addr net.Addr
	Err  error
}

// StopRequested is emitted when RequestStop is called.
type StopRequested struct {
	RequestID string

	// Caller is the function that asked for the stop.
	Caller string
}

// Stopped is emitted once a stop request has an outcome.
type Stopped struct {
	RequestID string
	// Addr is nil if the server was not running.
	Addr    net.Addr
	Runtime time.Duration
	// Forced reports that in-flight requests outlived the grace period and
	// were aborted.
	Forced bool
	Err    error
}

// CompletionDropped is emitted when the outcome of a stop request could
// not be handed to its caller.
type CompletionDropped struct {
	RequestID string
	Err       error
}
