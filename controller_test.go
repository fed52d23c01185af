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

package controlpanel_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/controlpanel"
	"go.uber.org/controlpanel/controlpaneltest"
	"go.uber.org/controlpanel/ctlevent"
	"golang.org/x/sync/errgroup"
)

func waitCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), controlpaneltest.Timeout)
	t.Cleanup(cancel)
	return ctx
}

func get(t *testing.T, url string) (int, string, error) {
	resp, err := controlpaneltest.Client().Get(url)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b), nil
}

func exitedCount(c *controlpaneltest.Controller) int {
	n := 0
	for _, e := range c.Events() {
		if _, ok := e.(*ctlevent.Exited); ok {
			n++
		}
	}
	return n
}

func TestStartHealthStop(t *testing.T) {
	t.Parallel()

	c := controlpaneltest.New(t).RequireStart()
	require.True(t, c.Running())
	healthURL := c.URL("/health")

	requested := time.Now()
	status, body, err := get(t, healthURL)
	require.NoError(t, err)
	assert.Less(t, time.Since(requested), 50*time.Millisecond, "a started server answers its first health check promptly")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, controlpanel.HealthBody, body)

	stopping := time.Now()
	require.NoError(t, c.Stop(waitCtx(t)))
	assert.Less(t, time.Since(stopping), controlpanel.DefaultGracePeriod, "an idle server stops without using the grace period")

	assert.False(t, c.Running())
	assert.Nil(t, c.Addr())

	e, err := c.AwaitEvent(func(e ctlevent.Event) bool {
		_, ok := e.(*ctlevent.StopRequested)
		return ok
	})
	require.NoError(t, err)
	assert.Equal(t, "go.uber.org/controlpanel_test.TestStartHealthStop", e.(*ctlevent.StopRequested).Caller)

	_, _, err = get(t, healthURL)
	assert.Error(t, err, "listener must be released once the stop succeeded")

	_, err = c.AwaitEvent(func(e ctlevent.Event) bool {
		_, ok := e.(*ctlevent.Exited)
		return ok
	})
	require.NoError(t, err)
}

func TestConcurrentStops(t *testing.T) {
	t.Parallel()

	c := controlpaneltest.New(t).RequireStart()

	const stoppers = 8
	var (
		mu      sync.Mutex
		results []error
	)
	var g errgroup.Group
	for i := 0; i < stoppers; i++ {
		g.Go(func() error {
			err := c.Stop(waitCtx(t))
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
			if err != nil && !errors.Is(err, controlpanel.ErrNotRunning) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
		}
	}
	assert.GreaterOrEqual(t, ok, 1, "at least one stopper must see the stop succeed")

	_, err := c.AwaitEvent(func(e ctlevent.Event) bool {
		_, ok := e.(*ctlevent.Exited)
		return ok
	})
	require.NoError(t, err)
	assert.Equal(t, 1, exitedCount(c), "the server must be shut down exactly once")
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	c := controlpaneltest.New(t)

	err := c.Stop(waitCtx(t))
	assert.ErrorIs(t, err, controlpanel.ErrNotRunning)
	assert.Equal(t, controlpanel.StopReasonNotRunning, controlpanel.ReasonOf(err))

	// The earlier stop must not prevent a later start.
	c.RequireStart()
	assert.True(t, c.Running())
	c.RequireStop()
}

func TestStopRacingStart(t *testing.T) {
	t.Parallel()

	c := controlpaneltest.New(t)
	c.Start()
	err := c.Stop(waitCtx(t))

	if errors.Is(err, controlpanel.ErrNotRunning) {
		// The stop looked before the server was published; the start
		// goes ahead regardless.
		_, err := c.AwaitEvent(func(e ctlevent.Event) bool {
			_, ok := e.(*ctlevent.Started)
			return ok
		})
		require.NoError(t, err)
		c.RequireStop()
		return
	}

	require.NoError(t, err)
	_, err = c.AwaitEvent(func(e ctlevent.Event) bool {
		_, ok := e.(*ctlevent.Exited)
		return ok
	})
	require.NoError(t, err)
}

func TestSequentialStops(t *testing.T) {
	t.Parallel()

	c := controlpaneltest.New(t).RequireStart()
	first := c.Addr()
	c.RequireStop()

	assert.ErrorIs(t, c.Stop(waitCtx(t)), controlpanel.ErrNotRunning,
		"the slot is cleared after a successful stop")

	c.RequireStart()
	require.NotNil(t, c.Addr(), "a new server is published after the restart")
	assert.NotEqual(t, first, c.Addr())
	status, _, err := get(t, c.URL("/health"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	c.RequireStop()
}

func TestStopAbortsSlowRequest(t *testing.T) {
	t.Parallel()

	const grace = 200 * time.Millisecond
	entered := make(chan struct{}, 1)
	c := controlpaneltest.New(t,
		controlpanel.WithGracePeriod(grace),
		controlpanel.WithHandler(func(*controlpanel.Controller) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				entered <- struct{}{}
				select {
				case <-time.After(time.Minute):
				case <-r.Context().Done():
				}
			})
		}),
	).RequireStart()
	url := c.URL("/slow")

	clientErr := make(chan error, 1)
	go func() {
		_, _, err := get(t, url)
		clientErr <- err
	}()
	<-entered

	start := time.Now()
	require.NoError(t, c.Stop(waitCtx(t)))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, grace)
	assert.Less(t, elapsed, grace+2*time.Second)
	assert.Error(t, <-clientErr)

	e, err := c.AwaitEvent(func(e ctlevent.Event) bool {
		_, ok := e.(*ctlevent.Stopped)
		return ok
	})
	require.NoError(t, err)
	assert.True(t, e.(*ctlevent.Stopped).Forced)

	_, err = c.AwaitEvent(func(e ctlevent.Event) bool {
		_, ok := e.(*ctlevent.Exited)
		return ok
	})
	require.NoError(t, err)
}

func TestStopEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("StopsItsOwnServer", func(t *testing.T) {
		t.Parallel()

		c := controlpaneltest.New(t).RequireStart()
		healthURL := c.URL("/health")

		start := time.Now()
		resp, err := controlpaneltest.Client().Post(c.URL("/stop"), "text/plain", nil)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Less(t, time.Since(start), controlpanel.DefaultGracePeriod,
			"the stop must not wait for the request that asked for it")
		assert.False(t, c.Running())

		_, _, err = get(t, healthURL)
		assert.Error(t, err)

		e, err := c.AwaitEvent(func(e ctlevent.Event) bool {
			_, ok := e.(*ctlevent.StopRequested)
			return ok
		})
		require.NoError(t, err)
		// Inlining may prefix the closure with the function it was built in.
		assert.Contains(t, e.(*ctlevent.StopRequested).Caller, "StopHandler.func1")

		_, err = c.AwaitEvent(func(e ctlevent.Event) bool {
			_, ok := e.(*ctlevent.Exited)
			return ok
		})
		require.NoError(t, err)
	})

	t.Run("NotRunning", func(t *testing.T) {
		t.Parallel()

		c := controlpaneltest.New(t)
		rec := httptest.NewRecorder()
		controlpanel.StopHandler(c.Controller).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stop", nil))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("GetNotAllowed", func(t *testing.T) {
		t.Parallel()

		c := controlpaneltest.New(t).RequireStart()
		defer c.RequireStop()

		status, _, err := get(t, c.URL("/stop"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, status)
		assert.True(t, c.Running())
	})
}

func TestStartFailures(t *testing.T) {
	t.Parallel()

	t.Run("AddressInUse", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()

		c := controlpaneltest.NewAt(t, ln.Addr().String())
		c.Start()

		e, err := c.AwaitEvent(func(e ctlevent.Event) bool {
			_, ok := e.(*ctlevent.Started)
			return ok
		})
		require.NoError(t, err)

		var bindErr *controlpanel.BindError
		require.ErrorAs(t, e.(*ctlevent.Started).Err, &bindErr)
		assert.Equal(t, ln.Addr().String(), bindErr.Addr)

		assert.False(t, c.Running())
		assert.ErrorIs(t, c.Stop(waitCtx(t)), controlpanel.ErrNotRunning)
	})

	t.Run("InvalidAddress", func(t *testing.T) {
		t.Parallel()

		c := controlpaneltest.NewAt(t, "not an address")
		c.Start()

		e, err := c.AwaitEvent(func(e ctlevent.Event) bool {
			_, ok := e.(*ctlevent.Started)
			return ok
		})
		require.NoError(t, err)

		var bindErr *controlpanel.BindError
		assert.ErrorAs(t, e.(*ctlevent.Started).Err, &bindErr)
		assert.False(t, c.Running())
	})

	t.Run("AlreadyRunning", func(t *testing.T) {
		t.Parallel()

		c := controlpaneltest.New(t).RequireStart()
		defer c.RequireStop()
		addr := c.Addr()

		c.Start()
		_, err := c.AwaitEvent(func(e ctlevent.Event) bool {
			started, ok := e.(*ctlevent.Started)
			return ok && errors.Is(started.Err, controlpanel.ErrAlreadyRunning)
		})
		require.NoError(t, err)
		assert.Equal(t, addr, c.Addr(), "the first server stays published")
	})
}
