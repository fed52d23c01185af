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
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a Controller.
// All methods are nil-safe.
type Metrics struct {
	running      prometheus.Gauge
	inflight     prometheus.Gauge
	stops        *prometheus.CounterVec
	forcedStops  prometheus.Counter
	stopDuration prometheus.Histogram
}

// NewMetrics creates the controller collectors and registers them with
// reg. If reg is nil the collectors are created but not registered.
//
// Collectors that are already registered are reused. A Controller wraps
// reg with a constant "address" label, so Controllers sharing a registry
// only share collectors when they were built for the same address.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "controlpanel",
			Subsystem: "server",
			Name:      "running",
			Help:      "1 while a server is published, 0 otherwise",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "controlpanel",
			Subsystem: "server",
			Name:      "inflight_requests",
			Help:      "Requests a graceful stop would wait for",
		}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "controlpanel",
			Subsystem: "server",
			Name:      "stop_requests_total",
			Help:      "Stop requests by outcome",
		}, []string{"outcome"}),
		forcedStops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "controlpanel",
			Subsystem: "server",
			Name:      "forced_stops_total",
			Help:      "Stops that aborted requests after the grace period",
		}),
		stopDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "controlpanel",
			Subsystem: "server",
			Name:      "stop_duration_seconds",
			Help:      "Time from a stop request to its outcome",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}

	if reg != nil {
		m.running = registerOrReuse(reg, m.running).(prometheus.Gauge)
		m.inflight = registerOrReuse(reg, m.inflight).(prometheus.Gauge)
		m.stops = registerOrReuse(reg, m.stops).(*prometheus.CounterVec)
		m.forcedStops = registerOrReuse(reg, m.forcedStops).(prometheus.Counter)
		m.stopDuration = registerOrReuse(reg, m.stopDuration).(prometheus.Histogram)
	}
	return m
}

func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (m *Metrics) setRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
}

func (m *Metrics) setInflight(n int) {
	if m == nil {
		return
	}
	m.inflight.Set(float64(n))
}

func (m *Metrics) observeStop(reason StopReason, forced bool, d time.Duration) {
	if m == nil {
		return
	}
	m.stops.WithLabelValues(reason.String()).Inc()
	if reason != StopReasonStopped {
		return
	}
	if forced {
		m.forcedStops.Inc()
	}
	m.stopDuration.Observe(d.Seconds())
}
