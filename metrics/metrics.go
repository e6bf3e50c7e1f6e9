// Package metrics exposes Prometheus instrumentation for wirerpc servers.
// The dispatch and transport packages know nothing about Prometheus; they
// accept the hooks this package builds.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wirerpc/wirerpc/dispatch"
)

var (
	registerOnce sync.Once

	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatch",
			Name:      "calls_total",
			Help:      "Total dispatched calls.",
		},
		[]string{"method", "outcome"},
	)
	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatch",
			Name:      "call_duration_seconds",
			Help:      "Call dispatch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	notificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatch",
			Name:      "notifications_total",
			Help:      "Total calls dispatched as notifications.",
		},
	)
	batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "wirerpc",
			Subsystem: "dispatch",
			Name:      "batch_size",
			Help:      "Number of calls per batch request.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirerpc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirerpc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

// Register installs the wirerpc collectors on the default Prometheus
// registry. Safe to call any number of times.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			callsTotal,
			callDuration,
			notificationsTotal,
			batchSize,
			httpRequests,
			httpDuration,
		)
	})
}

// DispatchHook returns a dispatch.CallHook recording call counts, outcomes
// and latencies. Invalid calls have no method name and count under
// "(invalid)".
func DispatchHook() dispatch.CallHook {
	Register()
	return func(method string, code int, notification bool, elapsed time.Duration) {
		if method == "" {
			method = "(invalid)"
		}
		callsTotal.WithLabelValues(method, outcome(code)).Inc()
		callDuration.WithLabelValues(method).Observe(elapsed.Seconds())
		if notification {
			notificationsTotal.Inc()
		}
	}
}

// ObserveBatch records the size of one batch request. The signature matches
// the transport batch hook.
func ObserveBatch(size int) {
	Register()
	batchSize.Observe(float64(size))
}

// ObserveHTTP records one HTTP request by status. The signature matches the
// transport HTTP hook.
func ObserveHTTP(status int, elapsed time.Duration) {
	Register()
	label := strconv.Itoa(status)
	httpRequests.WithLabelValues(label).Inc()
	httpDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func outcome(code int) string {
	if code == 0 {
		return "ok"
	}
	return strconv.Itoa(code)
}
