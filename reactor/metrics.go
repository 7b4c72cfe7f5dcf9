/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package reactor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics is optional: a Reactor built with plain New() carries a nil
// *metrics and every call site here is guarded, so the reactor stays
// usable with zero ambient dependency beyond x/sys and logger.
type metrics struct {
	connections prometheus.Gauge
	dispatch    *prometheus.CounterVec
	pollWait    prometheus.Histogram
}

// WithMetrics registers counters/gauges describing the reactor's
// activity (the connections gauge, dispatch_total{kind}, poll_wait_seconds)
// against reg and attaches them to r. It is additive: a Reactor never
// requires this to function.
func (r *Reactor) WithMetrics(reg prometheus.Registerer) error {
	m := &metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eventdispatcher_reactor_connections",
			Help: "Number of connections currently registered with the reactor.",
		}),
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdispatcher_reactor_dispatch_total",
			Help: "Number of hook dispatches by kind.",
		}, []string{"kind"}),
		pollWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventdispatcher_reactor_poll_wait_seconds",
			Help:    "Requested poll(2) wait duration per iteration.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.connections, m.dispatch, m.pollWait} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.met = m
	r.mu.Unlock()

	return nil
}

func (m *metrics) observePollWait(waitMs int) {
	if waitMs < 0 {
		return
	}
	m.pollWait.Observe(time.Duration(waitMs * int(time.Millisecond)).Seconds())
}
