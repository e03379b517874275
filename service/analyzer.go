// Package service runs the analysis pipeline: position lookup, fence
// containment, nearby-feature scan, predictor scoring, alert decision and
// fan-out. Delivery failures never fail a request; only missing data and
// broken geometry surface as errors.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"

	"cattle-monitor-service/ai"
	"cattle-monitor-service/alerts"
	"cattle-monitor-service/geo"
	"cattle-monitor-service/metrics"
	"cattle-monitor-service/models"
	"cattle-monitor-service/sanitize"
)

// TrackingStore provides the latest device fix and the matching geofence.
type TrackingStore interface {
	GetTelemetry(ctx context.Context, deviceID string) (*models.Telemetry, error)
	GetFencePolygon(ctx context.Context, userID, cattleID string) ([]models.RawVertex, error)
}

// FeatureScanner finds map objects inside a fence. Best effort: it returns an
// empty slice instead of an error when the upstream source is unavailable.
type FeatureScanner interface {
	Scan(ctx context.Context, polygon *geo.Polygon) []models.Feature
}

// HealthScorer classifies movement between two fixes.
type HealthScorer interface {
	Predict(current, previous models.GeoPoint) ai.Result
}

// BatteryScorer estimates remaining battery life.
type BatteryScorer interface {
	Predict(voltage, percent float64) ai.Result
}

// AlertSink receives a triggered alert for asynchronous delivery.
type AlertSink interface {
	Dispatch(event models.AlertEvent)
}

// AlertPublisher pushes a triggered alert onto the message bus.
type AlertPublisher interface {
	PublishAlert(event models.AlertEvent) error
}

// AlertBroadcaster pushes a triggered alert to connected WebSocket clients.
type AlertBroadcaster interface {
	BroadcastAlert(event models.AlertEvent)
}

// Analyzer orchestrates one analysis pass for a single animal.
type Analyzer struct {
	store     TrackingStore
	scanner   FeatureScanner
	health    HealthScorer
	battery   BatteryScorer
	webhook   AlertSink
	publisher AlertPublisher
	hub       AlertBroadcaster
}

// NewAnalyzer wires the pipeline. publisher and hub may be nil when the
// message bus or the WebSocket hub is not configured.
func NewAnalyzer(
	store TrackingStore,
	scanner FeatureScanner,
	health HealthScorer,
	battery BatteryScorer,
	webhook AlertSink,
	publisher AlertPublisher,
	hub AlertBroadcaster,
) *Analyzer {
	return &Analyzer{
		store:     store,
		scanner:   scanner,
		health:    health,
		battery:   battery,
		webhook:   webhook,
		publisher: publisher,
		hub:       hub,
	}
}

// Analyze runs the full pipeline for one request. It returns
// models.ErrNotFound when the animal has no recorded position or no assigned
// fence, and geo.ErrInvalidGeometry when the fence boundary cannot form a
// polygon. Scanner and predictor failures degrade the result instead of
// failing it.
func (a *Analyzer) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResponse, error) {
	timer := prometheus.NewTimer(metrics.AnalyzeDurationSeconds)
	defer timer.ObserveDuration()

	outcome := "success"
	defer func() {
		metrics.AnalyzeTotal.WithLabelValues(outcome).Inc()
	}()

	telemetry, err := a.store.GetTelemetry(ctx, req.EntityID)
	if err != nil {
		outcome = classifyOutcome(err)
		return nil, fmt.Errorf("failed to load telemetry for %s: %w", req.EntityID, err)
	}

	rawVertices, err := a.store.GetFencePolygon(ctx, req.UserID, req.EntityID)
	if err != nil {
		outcome = classifyOutcome(err)
		return nil, fmt.Errorf("failed to load geofence for %s: %w", req.EntityID, err)
	}

	polygon, err := geo.BuildPolygon(rawVertices)
	if err != nil {
		outcome = classifyOutcome(err)
		return nil, fmt.Errorf("failed to build fence polygon for %s: %w", req.EntityID, err)
	}

	isSafe := polygon.Contains(telemetry.Current)

	features := []models.Feature{}
	if a.scanner != nil {
		features = a.scanner.Scan(ctx, polygon)
	}

	voltage, percent := telemetry.Voltage, telemetry.Percent
	if req.Voltage != nil && *req.Voltage > 0 {
		voltage = *req.Voltage
	}
	if req.Percent != nil && *req.Percent > 0 {
		percent = *req.Percent
	}

	healthResult := a.health.Predict(telemetry.Current, telemetry.Previous)
	if healthResult.Fallback {
		metrics.PredictorFallbackTotal.WithLabelValues("health").Inc()
		log.WithField("reason", healthResult.Reason).Warn("Health predictor degraded")
	}
	batteryResult := a.battery.Predict(voltage, percent)
	if batteryResult.Fallback {
		metrics.PredictorFallbackTotal.WithLabelValues("battery").Inc()
		log.WithField("reason", batteryResult.Reason).Warn("Battery predictor degraded")
	}

	analysis := models.AIAnalysis{
		HealthStatus:    healthResult.Value,
		BatteryForecast: batteryResult.Value,
	}

	alert := alerts.Decide(isSafe, healthResult.Value, req.EntityID)
	if alert.Triggered {
		a.fanOut(alert, req.EntityID, telemetry.Current, analysis, features)
	}

	response := &models.AnalysisResponse{
		Status:          "success",
		IsSafe:          isSafe,
		Location:        telemetry.Current,
		Alert:           &alert,
		AIAnalysis:      analysis,
		DetectedObjects: features,
	}
	return sanitize.Clean(response).(*models.AnalysisResponse), nil
}

// fanOut delivers a triggered alert to every configured channel. Each channel
// is independent; a dead one never blocks the others or the request.
func (a *Analyzer) fanOut(
	alert models.Alert,
	entityID string,
	location models.GeoPoint,
	analysis models.AIAnalysis,
	features []models.Feature,
) {
	metrics.AlertsTriggeredTotal.WithLabelValues(alert.Severity).Inc()

	event := models.AlertEvent{
		Event:    alerts.EventType(alert),
		Severity: alert.Severity,
		Message:  alert.Message,
		EntityID: entityID,
		Location: location,
		AIAnalysis: models.WebhookAI{
			Health:  analysis.HealthStatus,
			Battery: analysis.BatteryForecast,
		},
		NearbyObjects: features,
	}

	if a.webhook != nil {
		a.webhook.Dispatch(event)
	}
	if a.publisher != nil {
		if err := a.publisher.PublishAlert(event); err != nil {
			log.Warnf("Failed to publish alert for %s: %v", entityID, err)
		}
	}
	if a.hub != nil {
		a.hub.BroadcastAlert(event)
	}
}

func classifyOutcome(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, geo.ErrInvalidGeometry):
		return "invalid_geometry"
	default:
		return "error"
	}
}
