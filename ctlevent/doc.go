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

// Package ctlevent defines the events a controlpanel.Controller emits and
// the loggers that record them.
//
// # Choosing a Logger
//
// A Controller built without a logger discards its events. Pass one with
// controlpanel.WithLogger:
//
//	log, _ := zap.NewProduction()
//	c := controlpanel.New("127.0.0.1:8081",
//		controlpanel.WithLogger(&ctlevent.ZapLogger{Logger: log}),
//	)
//
// During development, [ConsoleLogger] writes short human-readable lines.
//
// # Writing a Logger
//
// [Event] is a closed union. Implement [Logger] with a type switch over the
// event types declared in event.go.
//
//	func (l *MyLogger) LogEvent(e ctlevent.Event) {
//		switch e := e.(type) {
//		case *ctlevent.Started:
//			// ...
//		}
//	}
//
// Background failures such as a port that is already in use are reported
// only through these events, so production deployments should always
// install a logger.
package ctlevent
