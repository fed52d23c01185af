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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/controlpanel/ctlevent"
	"go.uber.org/controlpanel/internal/ctlclock"
)

// Option configures a Controller.
type Option interface {
	apply(*options)
}

type options struct {
	grace      time.Duration
	logger     ctlevent.Logger
	clock      ctlclock.Clock
	handler    func(*Controller) http.Handler
	registerer prometheus.Registerer
}

// registry returns where metrics are registered and where /metrics reads
// them from. Without a registerer each Controller gets its own registry.
func (o *options) registry() (prometheus.Registerer, prometheus.Gatherer) {
	if o.registerer == nil {
		reg := prometheus.NewRegistry()
		return reg, reg
	}
	if g, ok := o.registerer.(prometheus.Gatherer); ok {
		return o.registerer, g
	}
	return o.registerer, prometheus.DefaultGatherer
}

type gracePeriodOption time.Duration

func (d gracePeriodOption) apply(o *options) {
	o.grace = time.Duration(d)
}

// WithGracePeriod sets how long a stop waits for in-flight requests before
// aborting them. It defaults to DefaultGracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return gracePeriodOption(d)
}

type loggerOption struct{ logger ctlevent.Logger }

func (l loggerOption) apply(o *options) {
	o.logger = l.logger
}

// WithLogger sets where the Controller reports its events, including
// failures of the background server that have no caller to return to.
func WithLogger(logger ctlevent.Logger) Option {
	if logger == nil {
		logger = ctlevent.NopLogger
	}
	return loggerOption{logger}
}

type handlerOption func(*Controller) http.Handler

func (h handlerOption) apply(o *options) {
	o.handler = h
}

// WithHandler sets the constructor of the server's root handler. It is
// called once, from New, with the Controller being built, so handlers can
// stop the server they run in. It defaults to Routes.
func WithHandler(newHandler func(*Controller) http.Handler) Option {
	return handlerOption(newHandler)
}

type registererOption struct{ reg prometheus.Registerer }

func (r registererOption) apply(o *options) {
	o.registerer = r.reg
}

// WithRegisterer registers the Controller's metrics with reg instead of a
// private registry. Every series carries the Controller's address as the
// "address" label. If reg is also a prometheus.Gatherer, the /metrics
// route serves from it.
func WithRegisterer(reg prometheus.Registerer) Option {
	return registererOption{reg}
}

type clockOption struct{ clock ctlclock.Clock }

func (c clockOption) apply(o *options) {
	o.clock = c.clock
}

// withClock replaces the time source of grace periods.
func withClock(clock ctlclock.Clock) Option {
	return clockOption{clock}
}
