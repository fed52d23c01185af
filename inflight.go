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
)

type (
	connKey    struct{}
	requestKey struct{}
)

// inflight is the set of requests a graceful stop waits for.
type inflight struct {
	metrics *Metrics

	mu       sync.Mutex
	active   map[*request]struct{}
	draining bool
	aborted  bool
	idle     chan struct{} // closed once draining and active is empty
	idleSent bool
}

func newInflight(m *Metrics) *inflight {
	return &inflight{
		metrics: m,
		active:  make(map[*request]struct{}),
		idle:    make(chan struct{}),
	}
}

// request is one tracked HTTP request.
type request struct {
	set    *inflight
	conn   net.Conn
	cancel context.CancelFunc
	once   sync.Once
}

func (r *request) release() {
	r.once.Do(func() { r.set.remove(r) })
}

// connContext is installed as http.Server.ConnContext so the middleware
// can find the connection of each request.
func connContext(ctx context.Context, c net.Conn) context.Context {
	return context.WithValue(ctx, connKey{}, c)
}

// middleware tracks every request that passes through next.
func (t *inflight) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		req := &request{set: t, cancel: cancel}
		req.conn, _ = ctx.Value(connKey{}).(net.Conn)
		if !t.add(req) {
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		}
		defer req.release()

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, requestKey{}, req)))
	})
}

func (t *inflight) add(r *request) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.aborted {
		return false
	}
	t.active[r] = struct{}{}
	t.metrics.setInflight(len(t.active))
	return true
}

func (t *inflight) remove(r *request) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.active, r)
	t.metrics.setInflight(len(t.active))
	t.notifyLocked()
}

func (t *inflight) notifyLocked() {
	if t.draining && len(t.active) == 0 && !t.idleSent {
		t.idleSent = true
		close(t.idle)
	}
}

// drained returns a channel that is closed once no tracked request
// remains.
func (t *inflight) drained() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.draining = true
	t.notifyLocked()
	return t.idle
}

// abort cancels every tracked request and closes its connection. Requests
// arriving afterwards are refused. It returns how many requests it hit.
func (t *inflight) abort() int {
	t.mu.Lock()
	t.aborted = true
	reqs := make([]*request, 0, len(t.active))
	for r := range t.active {
		reqs = append(reqs, r)
	}
	t.mu.Unlock()

	// Connections go first so a handler woken by its context cannot
	// complete a response.
	for _, r := range reqs {
		if r.conn != nil {
			r.conn.Close()
		}
		r.cancel()
	}
	return len(reqs)
}

func (t *inflight) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

// Detach removes r from the requests a graceful stop waits for.
//
// A handler that stops the server it is running on must call Detach before
// waiting for the stop, or the stop would wait for the handler until the
// grace period runs out. Detached requests are not aborted when the grace
// period expires. Detach is a no-op for requests the controller does not
// track.
func Detach(r *http.Request) {
	if req, ok := r.Context().Value(requestKey{}).(*request); ok {
		req.release()
	}
}
