// Package metrics exposes Prometheus collectors for the gathering pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	gathererSourcesTotal        *prometheus.CounterVec
	gathererSignalsStoredTotal  *prometheus.CounterVec
	gathererTranscriptionsTotal *prometheus.CounterVec
	gathererRunDurationSeconds  prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times; observation helpers are no-ops until it runs.
func Init() {
	once.Do(func() {
		gathererSourcesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatherer_sources_total",
				Help: "Sources processed, labeled by lane and outcome.",
			},
			[]string{"lane", "outcome"},
		)

		gathererSignalsStoredTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatherer_signals_stored_total",
				Help: "Newly stored signals, labeled by source slug.",
			},
			[]string{"source"},
		)

		gathererTranscriptionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatherer_transcriptions_total",
				Help: "Transcription attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		gathererRunDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatherer_run_duration_seconds",
				Help:    "Histogram of full pipeline run durations.",
				Buckets: []float64{1, 5, 15, 60, 120, 300, 600, 1800},
			},
		)
	})
}

// Handler returns an http.Handler exposing the collectors.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSource increments the per-lane source counter.
func ObserveSource(lane, outcome string) {
	if gathererSourcesTotal == nil {
		return
	}
	gathererSourcesTotal.WithLabelValues(lane, outcome).Inc()
}

// AddSignalsStored records newly stored signals for a source.
func AddSignalsStored(source string, count int) {
	if gathererSignalsStoredTotal == nil || count <= 0 {
		return
	}
	gathererSignalsStoredTotal.WithLabelValues(source).Add(float64(count))
}

// ObserveTranscription increments the transcription counter.
func ObserveTranscription(outcome string) {
	if gathererTranscriptionsTotal == nil {
		return
	}
	gathererTranscriptionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRunDuration records the duration of one pipeline run.
func ObserveRunDuration(d time.Duration) {
	if gathererRunDurationSeconds == nil {
		return
	}
	gathererRunDurationSeconds.Observe(d.Seconds())
}
