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
	"fmt"
	"io"
	"sync"
)

// ConsoleLogger is a Logger that writes human-readable lines to W.
//
// Use this during development.
type ConsoleLogger struct {
	W io.Writer

	mu sync.Mutex
}

var _ Logger = (*ConsoleLogger)(nil)

func (l *ConsoleLogger) logf(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.W, "[controlpanel] "+msg+"\n", args...)
}

// LogEvent logs the given event to W.
func (l *ConsoleLogger) LogEvent(event Event) {
	switch e := event.(type) {
	case *Started:
		if e.Err != nil {
			l.logf("ERROR\t\tFailed to start on %s: %v", e.Address, e.Err)
		} else {
			l.logf("RUNNING\t%v", e.Addr)
		}
	case *Exited:
		if e.Err != nil {
			l.logf("ERROR\t\tServer on %v exited: %v", e.Addr, e.Err)
		} else {
			l.logf("EXITED\t%v", e.Addr)
		}
	case *StopRequested:
		l.logf("STOP\t\t%s requested by %s", e.RequestID, e.Caller)
	case *Stopped:
		switch {
		case e.Err != nil:
			l.logf("STOP\t\t%s failed: %v", e.RequestID, e.Err)
		case e.Forced:
			l.logf("STOP\t\t%s stopped %v in %s, aborting in-flight requests", e.RequestID, e.Addr, e.Runtime)
		default:
			l.logf("STOP\t\t%s stopped %v in %s", e.RequestID, e.Addr, e.Runtime)
		}
	case *CompletionDropped:
		l.logf("ERROR\t\tCouldn't report outcome of %s: %v", e.RequestID, e.Err)
	}
}
