// Package metrics exposes Prometheus instrumentation for the hook
// engine. The host decides where (or whether) to serve the handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookline_dispatches_total",
			Help: "Total number of event dispatches",
		},
		[]string{"event", "verdict"},
	)

	hookExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookline_hook_executions_total",
			Help: "Total number of hook executions by outcome",
		},
		[]string{"hook", "event", "outcome"},
	)

	hookDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookline_hook_duration_seconds",
			Help:    "Hook subprocess runtime in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"hook", "event"},
	)

	hookTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookline_hook_timeouts_total",
			Help: "Total number of hooks killed by the watchdog",
		},
		[]string{"hook"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordDispatch(event, verdict string) {
	dispatchesTotal.WithLabelValues(event, verdict).Inc()
}

func RecordHookExecution(hook, event, outcome string, duration time.Duration, timedOut bool) {
	hookExecutionsTotal.WithLabelValues(hook, event, outcome).Inc()
	hookDuration.WithLabelValues(hook, event).Observe(duration.Seconds())
	if timedOut {
		hookTimeoutsTotal.WithLabelValues(hook).Inc()
	}
}
