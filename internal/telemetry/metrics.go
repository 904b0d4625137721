// Package telemetry holds the Prometheus collectors of the jeep service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// editsTotal counts gated edits by operation and outcome
	editsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jeep_edits_total",
		Help: "Total gated edits by operation and action",
	}, []string{"op", "action"})

	// vetoesTotal counts rejected edits by veto type
	vetoesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jeep_edit_vetoes_total",
		Help: "Total edit vetoes by type",
	}, []string{"type"})

	editDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jeep_edit_duration_seconds",
		Help:    "Edit duration including recomputation and host reporting",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50us to ~100ms
	}, []string{"op"})

	// validPrefix tracks how many steps of an edited history are legal
	validPrefix = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "jeep_history_valid_steps",
		Help:    "Number of legal steps after each edit",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
	})

	submitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jeep_host_submits_total",
		Help: "Scoring records submitted to the host by result",
	}, []string{"result"})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "jeep_sessions_active",
		Help: "Open task sessions",
	})
)

// RecordEdit counts one gated edit and its vetoes.
func RecordEdit(op, action string, vetoTypes ...string) {
	editsTotal.WithLabelValues(op, action).Inc()
	for _, v := range vetoTypes {
		vetoesTotal.WithLabelValues(v).Inc()
	}
}

// ObserveEdit records how long an edit took and how many steps stayed legal.
func ObserveEdit(op string, d time.Duration, validSteps int) {
	editDuration.WithLabelValues(op).Observe(d.Seconds())
	validPrefix.Observe(float64(validSteps))
}

// RecordSubmit counts a host submission.
func RecordSubmit(err error) {
	if err != nil {
		submitsTotal.WithLabelValues("error").Inc()
		return
	}
	submitsTotal.WithLabelValues("ok").Inc()
}

// SessionOpened and SessionClosed track the open session gauge.
func SessionOpened() { sessionsActive.Inc() }

func SessionClosed() { sessionsActive.Dec() }

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
