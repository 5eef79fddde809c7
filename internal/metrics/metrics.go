// Package metrics exposes Prometheus metrics for match settlement.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "imposter"

// Recorder counts settlement outcomes on its own registry
type Recorder struct {
	registry *prometheus.Registry

	settlements *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	duplicates  prometheus.Counter
	failures    prometheus.Counter
	duration    prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	auto := promauto.With(r.registry)

	r.settlements = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Total number of settled matches",
	}, []string{"mode", "outcome"})

	r.rejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejections_total",
		Help:      "Total number of rejected match reports by error code",
	}, []string{"code"})

	r.duplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_total",
		Help:      "Total number of replayed match reports",
	})

	r.failures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "failures_total",
		Help:      "Total number of settlements that failed on the server side",
	})

	r.duration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "settlement_duration_seconds",
		Help:      "Time spent settling a match",
		Buckets:   prometheus.DefBuckets,
	})

	return r
}

func (r *Recorder) Settled(mode string, aborted bool, seconds float64) {
	outcome := "completed"
	if aborted {
		outcome = "aborted"
	}
	r.settlements.WithLabelValues(mode, outcome).Inc()
	r.duration.Observe(seconds)
}

// Rejected counts a rejection. Player-specific codes are reduced to their
// prefix to keep label cardinality bounded.
func (r *Recorder) Rejected(code string) {
	r.rejections.WithLabelValues(codeLabel(code)).Inc()
}

func (r *Recorder) Duplicate() {
	r.duplicates.Inc()
}

func (r *Recorder) Failed() {
	r.failures.Inc()
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func codeLabel(code string) string {
	prefix, _, _ := strings.Cut(code, ":")
	return prefix
}
