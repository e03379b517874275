package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalyzeTotal counts analysis requests by outcome
	// (success, not_found, invalid_geometry, error).
	AnalyzeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cattle",
		Subsystem: "monitor",
		Name:      "analyze_total",
		Help:      "Total number of analysis requests, labeled by outcome.",
	}, []string{"result"})

	// AnalyzeDurationSeconds is end-to-end analysis time per request.
	AnalyzeDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cattle",
		Subsystem: "monitor",
		Name:      "analyze_duration_seconds",
		Help:      "End-to-end time to run one geofence analysis.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	// AlertsTriggeredTotal counts triggered alerts by severity.
	AlertsTriggeredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cattle",
		Subsystem: "monitor",
		Name:      "alerts_triggered_total",
		Help:      "Total number of triggered alerts, labeled by severity.",
	}, []string{"severity"})

	// WebhookDeliveryTotal counts webhook dispatch attempts by result
	// (delivered, failed, dropped).
	WebhookDeliveryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cattle",
		Subsystem: "monitor",
		Name:      "webhook_delivery_total",
		Help:      "Total number of webhook deliveries, labeled by result.",
	}, []string{"result"})

	// OverpassQueryTotal counts Overpass feature queries by result
	// (ok, empty, error).
	OverpassQueryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cattle",
		Subsystem: "monitor",
		Name:      "overpass_query_total",
		Help:      "Total number of Overpass feature queries, labeled by result.",
	}, []string{"result"})

	// FeatureCacheTotal counts feature-cache lookups by result (hit, miss).
	FeatureCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cattle",
		Subsystem: "monitor",
		Name:      "feature_cache_total",
		Help:      "Total number of feature cache lookups, labeled by result.",
	}, []string{"result"})

	// PredictorFallbackTotal counts degraded predictor results by predictor.
	PredictorFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cattle",
		Subsystem: "monitor",
		Name:      "predictor_fallback_total",
		Help:      "Total number of predictor results served from a fallback, labeled by predictor.",
	}, []string{"predictor"})
)

// Register registers all collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalyzeTotal,
			AnalyzeDurationSeconds,
			AlertsTriggeredTotal,
			WebhookDeliveryTotal,
			OverpassQueryTotal,
			FeatureCacheTotal,
			PredictorFallbackTotal,
		)
	})
}
