package review

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/sprite-ai/crev/internal/review"

var tracer = otel.Tracer(tracerName)

// Review outcomes.
const (
	outcomeCompleted = "completed"
	outcomeRejected  = "rejected"
	outcomeCanceled  = "canceled"
)

var (
	metricReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crev",
		Name:      "reviews_total",
		Help:      "Reviews by outcome (completed, rejected, canceled).",
	}, []string{"outcome"})
	metricNarrativeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crev",
		Name:      "narrative_failures_total",
		Help:      "Narratives degraded to unavailable, by category.",
	}, []string{"category"})
	metricAnalyzerFaults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crev",
		Name:      "analyzer_faults_total",
		Help:      "Analyzer passes that panicked and were replaced by a neutral result.",
	}, []string{"category"})
	metricAnalyzerSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "crev",
		Name:      "analyzer_duration_seconds",
		Help:      "Time spent in each analyzer pass.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"category"})
)

func recordReview(outcome string) {
	metricReviews.WithLabelValues(outcome).Inc()
}

func recordNarrativeFailure(category string) {
	metricNarrativeFailures.WithLabelValues(category).Inc()
}

func recordAnalyzerFault(category string) {
	metricAnalyzerFaults.WithLabelValues(category).Inc()
}

func observeAnalyzer(category string, seconds float64) {
	metricAnalyzerSeconds.WithLabelValues(category).Observe(seconds)
}
