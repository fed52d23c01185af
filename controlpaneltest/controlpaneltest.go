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

// Package controlpaneltest runs a controlpanel.Controller in unit tests.
package controlpaneltest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/controlpanel"
	"go.uber.org/controlpanel/ctlevent"
	"go.uber.org/controlpanel/internal/ctllog"
)

// Timeout bounds every wait of the Require helpers.
var Timeout = 5 * time.Second

// TB is a subset of the standard library's testing.TB interface. It's
// satisfied by both *testing.T and *testing.B.
type TB interface {
	Logf(string, ...interface{})
	Errorf(string, ...interface{})
	FailNow()
}

// Controller is a controlpanel.Controller bound to a free loopback port
// whose events are recorded and written to the test log.
type Controller struct {
	*controlpanel.Controller

	tb  TB
	spy *ctllog.Spy
}

// New builds a Controller listening on 127.0.0.1:0. Its events go to the
// test log and are recorded; a WithLogger option among opts is overridden.
func New(tb TB, opts ...controlpanel.Option) *Controller {
	return NewAt(tb, "127.0.0.1:0", opts...)
}

// NewAt is New with an explicit address.
func NewAt(tb TB, addr string, opts ...controlpanel.Option) *Controller {
	spy := new(ctllog.Spy)
	// The spy goes last so an awaited event has already reached the test log.
	logger := ctlevent.Tee(&ctlevent.ConsoleLogger{W: tbWriter{tb}}, spy)

	opts = append(opts[:len(opts):len(opts)], controlpanel.WithLogger(logger))
	return &Controller{
		Controller: controlpanel.New(addr, opts...),
		tb:         tb,
		spy:        spy,
	}
}

// Events returns every event the Controller emitted so far.
func (c *Controller) Events() []ctlevent.Event {
	return c.spy.Events()
}

// AwaitEvent waits for the first event matching match.
func (c *Controller) AwaitEvent(match func(ctlevent.Event) bool) (ctlevent.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	return c.spy.Await(ctx, match)
}

// RequireStart starts the Controller and waits until it serves, failing
// the test if the server could not start.
func (c *Controller) RequireStart() *Controller {
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	from := c.spy.Len()
	c.Start()

	e, err := c.spy.AwaitFrom(ctx, from, func(e ctlevent.Event) bool {
		_, ok := e.(*ctlevent.Started)
		return ok
	})
	if err != nil {
		c.tb.Errorf("controller didn't start within %v: %v", Timeout, err)
		c.tb.FailNow()
		return c
	}
	if started := e.(*ctlevent.Started); started.Err != nil {
		c.tb.Errorf("controller didn't start: %v", started.Err)
		c.tb.FailNow()
	}
	return c
}

// RequireStop stops the Controller, failing the test if the stop does not
// succeed, and waits for the serving goroutine to exit.
func (c *Controller) RequireStop() {
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	from := c.spy.Len()
	if err := c.Stop(ctx); err != nil {
		c.tb.Errorf("controller didn't stop cleanly: %v", err)
		c.tb.FailNow()
		return
	}
	if _, err := c.spy.AwaitFrom(ctx, from, isExited); err != nil {
		c.tb.Errorf("server goroutine didn't exit: %v", err)
		c.tb.FailNow()
	}
}

// URL returns the address of path on the running server.
func (c *Controller) URL(path string) string {
	addr := c.Addr()
	if addr == nil {
		c.tb.Errorf("controller is not running")
		c.tb.FailNow()
		return ""
	}
	return fmt.Sprintf("http://%s%s", addr, path)
}

// Client returns an HTTP client that does not reuse connections, so every
// request observes the current state of the listener.
func Client() *http.Client {
	return &http.Client{
		Timeout:   Timeout,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
}

func isExited(e ctlevent.Event) bool {
	_, ok := e.(*ctlevent.Exited)
	return ok
}

type tbWriter struct{ tb TB }

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Logf("%s", strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
