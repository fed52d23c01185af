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
	"errors"
	"fmt"
)

var (
	// ErrNotRunning is the outcome of a stop request made while no server
	// was published, including a stop that raced ahead of Start.
	ErrNotRunning = errors.New("controlpanel: server is not running")

	// ErrDisconnected is the outcome of a stop request whose coordinator
	// went away without reporting a result.
	ErrDisconnected = errors.New("controlpanel: stop request abandoned before completion")

	// ErrAlreadyRunning is reported through the event stream when Start is
	// called while a server is already published.
	ErrAlreadyRunning = errors.New("controlpanel: server is already running")

	// ErrAlreadyDelivered is returned to the producer of a Completion that
	// already holds an outcome.
	ErrAlreadyDelivered = errors.New("controlpanel: stop outcome already delivered")
)

// BindError reports that the server could not listen on its address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("controlpanel: bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// StopReason classifies the outcome of a stop request.
type StopReason int

const (
	// StopReasonStopped means the server shut down.
	StopReasonStopped StopReason = iota
	// StopReasonNotRunning means there was no server to stop.
	StopReasonNotRunning
	// StopReasonDisconnected means the outcome was never delivered.
	StopReasonDisconnected
	// StopReasonUnknown covers any other error, such as a cancelled wait.
	StopReasonUnknown
)

// ReasonOf maps the error returned by Completion.Wait to a StopReason.
func ReasonOf(err error) StopReason {
	switch {
	case err == nil:
		return StopReasonStopped
	case errors.Is(err, ErrNotRunning):
		return StopReasonNotRunning
	case errors.Is(err, ErrDisconnected):
		return StopReasonDisconnected
	default:
		return StopReasonUnknown
	}
}

func (r StopReason) String() string {
	switch r {
	case StopReasonStopped:
		return "stopped"
	case StopReasonNotRunning:
		return "not_running"
	case StopReasonDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
