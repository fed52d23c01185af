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

// Package controlpanel runs an HTTP server in the background and stops it
// on request, from any goroutine, including the server's own handlers.
//
// # Starting
//
// New builds a Controller for an address; Start binds and serves on a new
// goroutine and returns at once.
//
//	c := controlpanel.New("127.0.0.1:8081",
//		controlpanel.WithLogger(&ctlevent.ZapLogger{Logger: log}),
//	)
//	c.Start()
//
// Because Start does not wait, a failure to bind has nobody to return to.
// It is reported as a ctlevent.Started event carrying a *BindError.
//
// # Stopping
//
// RequestStop returns a Completion at once and shuts the server down on a
// separate goroutine. In-flight requests get the grace period (one second
// by default, see WithGracePeriod) to finish; whatever is left after that
// is aborted and the stop still succeeds.
//
//	if err := c.RequestStop().Wait(ctx); err != nil {
//		// ErrNotRunning: nothing was published
//	}
//
// A stop that races Start and looks before the server is published reports
// ErrNotRunning; it does not wait for the start, and the start still
// succeeds afterwards. After a successful stop the Controller is empty
// again and may be started anew.
//
// Concurrent stops that find the same server share one shutdown and all
// succeed.
//
// # Stopping from a handler
//
// Handlers run inside the server they would stop, so a graceful stop would
// wait for them. Call Detach before waiting, as StopHandler does:
//
//	func(w http.ResponseWriter, r *http.Request) {
//		controlpanel.Detach(r)
//		err := c.RequestStop().Wait(r.Context())
//		...
//	}
package controlpanel
