// Package metrics provides Prometheus instrumentation for the moderation
// service: counters for check outcomes and detected violations, a latency
// histogram for the detection pass, and cache effectiveness counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesChecked counts moderation decisions, labeled by outcome:
	// "allowed", "blocked", or "rate_limited".
	MessagesChecked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_messages_checked_total",
		Help: "Total number of messages run through moderation",
	}, []string{"outcome"})

	// ViolationsDetected counts individual detected spans by category.
	ViolationsDetected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_violations_detected_total",
		Help: "Total number of detected violation spans",
	}, []string{"type"})

	// DetectionLatency records the duration of the detection pass.
	DetectionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moderation_detection_latency_seconds",
		Help:    "Detection pass latency in seconds",
		Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
	})

	// SummaryCache counts violation-summary cache lookups by result:
	// "hit" or "miss".
	SummaryCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_summary_cache_total",
		Help: "Violation summary cache lookups",
	}, []string{"result"})

	// AdminAlerts counts admin escalation notifications published.
	AdminAlerts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moderation_admin_alerts_total",
		Help: "Total number of admin escalation alerts",
	})
)

func init() {
	prometheus.MustRegister(
		MessagesChecked,
		ViolationsDetected,
		DetectionLatency,
		SummaryCache,
		AdminAlerts,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
