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
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/controlpanel/ctlevent"
	"go.uber.org/controlpanel/internal/ctlclock"
	"go.uber.org/controlpanel/internal/ctlreflect"
	"go.uber.org/controlpanel/internal/slot"
)

// DefaultGracePeriod is how long a stop waits for in-flight requests
// before aborting them.
const DefaultGracePeriod = time.Second

// Controller starts an HTTP server in the background and stops it on
// request.
//
// At most one server is published at a time. All methods are safe for
// concurrent use, including from the handlers of the server the Controller
// runs.
type Controller struct {
	addr     string
	grace    time.Duration
	logger   ctlevent.Logger
	clock    ctlclock.Clock
	metrics  *Metrics
	gatherer prometheus.Gatherer
	handler  http.Handler

	slot slot.Slot[*handle]
}

// New builds a Controller for a server bound to addr, a host:port string.
// Nothing is bound until Start is called.
func New(addr string, opts ...Option) *Controller {
	o := options{
		grace:   DefaultGracePeriod,
		logger:  ctlevent.NopLogger,
		clock:   ctlclock.System,
		handler: Routes,
	}
	for _, opt := range opts {
		opt.apply(&o)
	}

	reg, gatherer := o.registry()
	c := &Controller{
		addr:     addr,
		grace:    o.grace,
		logger:   o.logger,
		clock:    o.clock,
		metrics:  NewMetrics(prometheus.WrapRegistererWith(prometheus.Labels{"address": addr}, reg)),
		gatherer: gatherer,
	}
	c.handler = o.handler(c)
	return c
}

// Address returns the address the Controller was asked to bind.
func (c *Controller) Address() string { return c.addr }

// Start binds the listener and serves on a new goroutine. It does not
// wait for either.
//
// The server becomes visible to RequestStop after the bind succeeds and
// before the first request is accepted. Failures, such as an address that
// is already in use, are reported through the Controller's logger as a
// ctlevent.Started event carrying the error; nothing is published then.
func (c *Controller) Start() {
	go c.run()
}

// RequestStop asks the published server, if any, to shut down gracefully
// and returns at once. The outcome arrives on the returned Completion: nil
// once the server has stopped, ErrNotRunning if no server was published
// when the request was looked at.
//
// RequestStop never waits for a concurrent Start. The stop runs on its own
// goroutine, so a handler of the server being stopped may call it and wait
// for the result; see Detach.
func (c *Controller) RequestStop() *Completion {
	done := newCompletion()
	id := uuid.NewString()
	c.logger.LogEvent(&ctlevent.StopRequested{RequestID: id, Caller: ctlreflect.Caller()})
	go c.stop(id, done)
	return done
}

// Stop requests a stop and waits for its outcome or for ctx to end.
func (c *Controller) Stop(ctx context.Context) error {
	return c.RequestStop().Wait(ctx)
}

// Running reports whether a server is currently published.
func (c *Controller) Running() bool {
	_, ok := c.slot.Load()
	return ok
}

// Addr returns the bound address of the published server, or nil.
func (c *Controller) Addr() net.Addr {
	if h, ok := c.slot.Load(); ok {
		return h.addr
	}
	return nil
}

func (c *Controller) run() {
	var h *handle
	defer func() {
		if r := recover(); r != nil {
			var addr net.Addr
			if h != nil {
				addr = h.addr
				c.unpublish(h)
			}
			c.logger.LogEvent(&ctlevent.Exited{Addr: addr, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	h, err := c.bind()
	if err != nil {
		c.logger.LogEvent(&ctlevent.Started{Address: c.addr, Err: err})
		return
	}
	if !c.slot.CompareAndSwap(nil, h) {
		h.ln.Close()
		c.logger.LogEvent(&ctlevent.Started{Address: c.addr, Err: ErrAlreadyRunning})
		return
	}
	c.metrics.setRunning(true)
	c.logger.LogEvent(&ctlevent.Started{Addr: h.addr, Address: c.addr})

	err = h.serve()
	c.unpublish(h)
	c.logger.LogEvent(&ctlevent.Exited{Addr: h.addr, Err: err})
}

func (c *Controller) bind() (*handle, error) {
	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return nil, &BindError{Addr: c.addr, Err: err}
	}

	reqs := newInflight(c.metrics)
	return &handle{
		srv: &http.Server{
			Handler:           reqs.middleware(c.handler),
			ConnContext:       connContext,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ln:       ln,
		addr:     ln.Addr(),
		reqs:     reqs,
		clock:    c.clock,
		drainErr: make(chan error, 1),
	}, nil
}

// unpublish empties the slot if it still holds h.
func (c *Controller) unpublish(h *handle) {
	if c.slot.CompareAndSwap(h, nil) {
		c.metrics.setRunning(false)
	}
}

func (c *Controller) stop(id string, done *Completion) {
	defer func() {
		if r := recover(); r != nil {
			if done.abandon() == nil {
				c.metrics.observeStop(StopReasonDisconnected, false, 0)
			}
			c.logger.LogEvent(&ctlevent.CompletionDropped{
				RequestID: id,
				Err:       fmt.Errorf("%w: panic: %v", ErrDisconnected, r),
			})
		}
	}()

	begin := c.clock.Now()
	h, ok := c.slot.Load()
	if !ok {
		c.report(done, &ctlevent.Stopped{RequestID: id, Err: ErrNotRunning})
		return
	}

	// The slot lock is not held here; shutdown may take the whole grace
	// period.
	forced := h.stop(c.grace)
	c.unpublish(h)
	c.report(done, &ctlevent.Stopped{
		RequestID: id,
		Addr:      h.addr,
		Runtime:   c.clock.Since(begin),
		Forced:    forced,
	})
}

func (c *Controller) report(done *Completion, e *ctlevent.Stopped) {
	c.logger.LogEvent(e)
	c.metrics.observeStop(ReasonOf(e.Err), e.Forced, e.Runtime)
	if err := done.deliver(e.Err); err != nil {
		c.logger.LogEvent(&ctlevent.CompletionDropped{RequestID: e.RequestID, Err: err})
	}
}
