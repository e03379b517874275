// Package alerts decides whether an analysis result warrants an alert.
package alerts

import (
	"fmt"

	"cattle-monitor-service/models"
)

// Alert event types published to the webhook and broker.
const (
	EventGeofenceBreach = "GEOFENCE_BREACH"
	EventHealthAnomaly  = "HEALTH_ANOMALY"
)

// HealthDistress is the only health label the engine reacts to. Any other
// label is treated as unremarkable.
const HealthDistress = "distress"

// Decide combines the containment result and the health signal into an alert.
// Evaluation is by strict priority: a fence breach always wins, then a
// distress signal, then the safe default. Exactly one branch fires.
func Decide(isSafe bool, healthStatus string, entityID string) models.Alert {
	if !isSafe {
		return models.Alert{
			Triggered: true,
			Title:     "Geo-Fence Breach",
			Message:   fmt.Sprintf("Cattle %s is outside the safe zone", entityID),
			Severity:  models.SeverityHigh,
		}
	}

	if healthStatus == HealthDistress {
		return models.Alert{
			Triggered: true,
			Title:     "Health Anomaly",
			Message:   "Unusual movement detected",
			Severity:  models.SeverityMedium,
		}
	}

	return models.Alert{
		Triggered: false,
		Title:     "Safe",
		Message:   "Normal",
		Severity:  models.SeverityLow,
	}
}

// EventType maps a triggered alert to its webhook event name.
func EventType(alert models.Alert) string {
	if alert.Severity == models.SeverityHigh {
		return EventGeofenceBreach
	}
	return EventHealthAnomaly
}
