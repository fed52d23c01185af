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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/controlpanel"
	"go.uber.org/controlpanel/ctlevent"
	"go.uber.org/controlpanel/internal/config"
	"go.uber.org/dig"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve until the lifetime ends, a signal arrives or /stop is called",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// serve runs a Controller configured by cfg until ctx ends, the lifetime
// elapses, or the server exits on its own. Logs go to w.
func serve(ctx context.Context, cfg *config.Config, w io.Writer) error {
	c, err := newContainer(cfg, w)
	if err != nil {
		return err
	}
	return c.Invoke(func(a *app) error {
		return a.run(ctx)
	})
}

func newContainer(cfg *config.Config, w io.Writer) (*dig.Container, error) {
	c := dig.New()
	err := multierr.Combine(
		c.Provide(func() *config.Config { return cfg }),
		c.Provide(func(cfg *config.Config) (*zap.Logger, error) {
			return newLogger(cfg.Log, w)
		}),
		c.Provide(newRegistry),
		c.Provide(newWatcher),
		c.Provide(newController),
		c.Provide(newApp),
	)
	if err != nil {
		return nil, fmt.Errorf("build container: %w", err)
	}
	return c, nil
}

// newLogger builds a zap logger writing to w in the configured format.
func newLogger(cfg config.LogConfig, w io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console":
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core).Named("controlpanel"), nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newController(
	cfg *config.Config,
	log *zap.Logger,
	reg *prometheus.Registry,
	w *watcher,
) *controlpanel.Controller {
	return controlpanel.New(cfg.Address,
		controlpanel.WithGracePeriod(cfg.GracePeriod),
		controlpanel.WithRegisterer(reg),
		controlpanel.WithLogger(ctlevent.Tee(&ctlevent.ZapLogger{Logger: log}, w)),
	)
}

// watcher turns Controller events into channels serve can wait on.
type watcher struct {
	startOnce sync.Once
	started   chan error // receives the first start outcome

	exitOnce sync.Once
	exited   chan struct{}
	exitErr  error
}

var _ ctlevent.Logger = (*watcher)(nil)

func newWatcher() *watcher {
	return &watcher{
		started: make(chan error, 1),
		exited:  make(chan struct{}),
	}
}

func (w *watcher) LogEvent(e ctlevent.Event) {
	switch e := e.(type) {
	case *ctlevent.Started:
		w.startOnce.Do(func() { w.started <- e.Err })
	case *ctlevent.Exited:
		w.exitOnce.Do(func() {
			w.exitErr = e.Err
			close(w.exited)
		})
	}
}

type app struct {
	cfg   *config.Config
	log   *zap.Logger
	ctrl  *controlpanel.Controller
	watch *watcher
}

func newApp(cfg *config.Config, log *zap.Logger, ctrl *controlpanel.Controller, w *watcher) *app {
	return &app{cfg: cfg, log: log, ctrl: ctrl, watch: w}
}

func (a *app) run(ctx context.Context) error {
	defer func() {
		// Sync fails on terminals; there is nothing to do about it.
		_ = a.log.Sync()
	}()

	// Start always ends in a Started or an Exited event.
	a.ctrl.Start()
	select {
	case err := <-a.watch.started:
		if err != nil {
			return err
		}
	case <-a.watch.exited:
		return a.watch.exitErr
	}

	var expired <-chan time.Time
	if a.cfg.Lifetime > 0 {
		t := time.NewTimer(a.cfg.Lifetime)
		defer t.Stop()
		expired = t.C
	}

	select {
	case <-a.watch.exited:
		// Stopped through /stop, or Serve failed.
		return a.watch.exitErr
	case <-expired:
		a.log.Info("lifetime elapsed", zap.Duration("lifetime", a.cfg.Lifetime))
	case <-ctx.Done():
		a.log.Info("interrupted")
	}

	return a.shutdown()
}

func (a *app) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*a.cfg.GracePeriod+5*time.Second)
	defer cancel()

	// A stop through /stop may have won the race.
	if err := a.ctrl.Stop(ctx); err != nil && !errors.Is(err, controlpanel.ErrNotRunning) {
		return fmt.Errorf("stop: %w", err)
	}

	select {
	case <-a.watch.exited:
		return a.watch.exitErr
	case <-ctx.Done():
		return fmt.Errorf("server did not exit: %w", ctx.Err())
	}
}
