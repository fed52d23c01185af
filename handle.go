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
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/controlpanel/internal/ctlclock"
	"go.uber.org/multierr"
)

// handle is a running server as seen through the controller's slot.
type handle struct {
	srv   *http.Server
	ln    net.Listener
	addr  net.Addr
	reqs  *inflight
	clock ctlclock.Clock

	stopping atomic.Bool
	stopOnce sync.Once
	forced   bool       // written inside stopOnce
	drainErr chan error // result of http.Server.Shutdown, buffered
}

// serve runs the server on the calling goroutine. After a stop it returns
// only once the drain has finished.
func (h *handle) serve() error {
	err := h.srv.Serve(h.ln)
	if !h.stopping.Load() {
		return multierr.Append(err, h.srv.Close())
	}
	return <-h.drainErr
}

// stop shuts the server down, giving tracked requests up to grace to
// finish. Concurrent and repeated calls share the first call's shutdown
// and all return once it is done. It reports whether requests had to be
// aborted.
//
// The listener is closed before stop returns.
func (h *handle) stop(grace time.Duration) (forced bool) {
	h.stopOnce.Do(func() {
		h.forced = h.shutdown(grace)
	})
	return h.forced
}

func (h *handle) shutdown(grace time.Duration) bool {
	h.stopping.Store(true)
	h.srv.SetKeepAlivesEnabled(false)
	// Serve may already have closed it.
	_ = h.ln.Close()

	drainCtx, cancelDrain := h.clock.WithTimeout(context.Background(), 2*grace)
	go func() {
		defer cancelDrain()
		err := h.srv.Shutdown(drainCtx)
		if err != nil {
			err = multierr.Append(err, h.srv.Close())
		}
		h.drainErr <- err
	}()

	graceCtx, cancel := h.clock.WithTimeout(context.Background(), grace)
	defer cancel()

	select {
	case <-h.reqs.drained():
		return false
	case <-graceCtx.Done():
		h.reqs.abort()
		return true
	}
}
