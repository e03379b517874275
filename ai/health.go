// Package ai hosts the movement and battery predictors. Both are black-box
// scoring functions to the rest of the service: they never return an error,
// they degrade to an explicit Fallback result instead.
package ai

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/golang/geo/s2"

	"cattle-monitor-service/models"
)

// Result is a prediction outcome. Fallback marks a degraded prediction so
// tests and callers can assert on the degradation path instead of guessing
// from the label.
type Result struct {
	Value    string
	Fallback bool
	Reason   string
}

// Ok wraps a successful prediction.
func Ok(value string) Result {
	return Result{Value: value}
}

// Degraded wraps a fallback prediction with the reason it degraded.
func Degraded(value, reason string) Result {
	return Result{Value: value, Fallback: true, Reason: reason}
}

const (
	// HealthUnknown is the fallback label when the model is unavailable.
	HealthUnknown = "Unknown"

	earthRadiusMeters = 6371000.0

	// Collars report roughly every 10 seconds; the stored fixes carry no
	// timestamps, so speed is derived against this interval.
	sampleIntervalSeconds = 10.0
)

// healthModel is the trained movement classifier, reduced to its decision
// threshold: speed above DistressSpeedMS is classified as distress.
type healthModel struct {
	DistressSpeedMS float64 `json:"distress_speed_ms"`
}

// HealthPredictor classifies movement between two fixes.
type HealthPredictor struct {
	model *healthModel
}

// NewHealthPredictor loads the movement model from path. A missing or
// unreadable model is not fatal; predictions degrade to HealthUnknown.
func NewHealthPredictor(path string) *HealthPredictor {
	p := &HealthPredictor{}
	if path == "" {
		return p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("Health model not found at %s, predictions will degrade: %v", path, err)
		return p
	}

	var m healthModel
	if err := json.Unmarshal(data, &m); err != nil || m.DistressSpeedMS <= 0 {
		log.Warnf("Health model at %s is unusable, predictions will degrade: %v", path, err)
		return p
	}

	p.model = &m
	log.Infof("Health model loaded (distress threshold %.2f m/s)", m.DistressSpeedMS)
	return p
}

// Predict classifies the movement between the previous and current fix.
func (p *HealthPredictor) Predict(current, previous models.GeoPoint) Result {
	if p.model == nil {
		return Degraded(HealthUnknown, "model unavailable")
	}

	speed := speedBetween(previous, current)
	if speed > p.model.DistressSpeedMS {
		return Ok("distress")
	}
	return Ok("normal")
}

// speedBetween derives speed in m/s from two fixes assuming the fixed
// reporting interval.
func speedBetween(from, to models.GeoPoint) float64 {
	a := s2.LatLngFromDegrees(from.Lat, from.Lon)
	b := s2.LatLngFromDegrees(to.Lat, to.Lon)
	meters := a.Distance(b).Radians() * earthRadiusMeters
	return meters / sampleIntervalSeconds
}

// String implements fmt.Stringer for log output.
func (r Result) String() string {
	if r.Fallback {
		return fmt.Sprintf("%s (fallback: %s)", r.Value, r.Reason)
	}
	return r.Value
}
