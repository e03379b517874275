package models

import (
	"errors"
	"time"

	geojson "github.com/paulmach/go.geojson"
)

// ErrNotFound is returned when a device position or geofence lookup yields nothing.
var ErrNotFound = errors.New("not found")

// Alert severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Feature kinds. Natural and landuse features keep their OSM tag value
// (tree, water, wood, forest, residential, farmland).
const (
	FeatureBuilding = "building"
	FeatureUnknown  = "unknown"
)

// DefaultFeatureName is used when an OSM feature carries no name tag.
const DefaultFeatureName = "Unnamed Object"

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RawVertex is a polygon vertex as stored upstream. Coordinates may arrive as
// numbers or as quoted strings; vertices that don't parse as finite floats are
// skipped during polygon construction.
type RawVertex struct {
	Lat interface{} `json:"lat"`
	Lon interface{} `json:"lon"`
}

// Feature is a normalized OpenStreetMap object found inside a geofence.
type Feature struct {
	Kind     string   `json:"type"`
	Location GeoPoint `json:"location"`
	Name     string   `json:"name"`
}

// Alert is the outcome of the alert decision. Immutable once constructed.
type Alert struct {
	Triggered bool   `json:"triggered"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
}

type AIAnalysis struct {
	HealthStatus    string `json:"health_status"`
	BatteryForecast string `json:"battery_forecast"`
}

type AnalysisRequest struct {
	EntityID string   `json:"entity_id"`
	UserID   string   `json:"user_id"`
	Voltage  *float64 `json:"voltage,omitempty"`
	Percent  *float64 `json:"percent,omitempty"`
}

type AnalysisResponse struct {
	Status          string     `json:"status"`
	IsSafe          bool       `json:"is_safe"`
	Location        GeoPoint   `json:"location"`
	Alert           *Alert     `json:"alert"`
	AIAnalysis      AIAnalysis `json:"ai_analysis"`
	DetectedObjects []Feature  `json:"detected_objects"`
}

// WebhookAI is the ai_analysis block of the webhook payload.
type WebhookAI struct {
	Health  string `json:"health"`
	Battery string `json:"battery"`
}

// AlertEvent is the fixed webhook payload schema.
type AlertEvent struct {
	Event         string    `json:"event"`
	Severity      string    `json:"severity"`
	Message       string    `json:"message"`
	EntityID      string    `json:"entity_id"`
	Location      GeoPoint  `json:"location"`
	AIAnalysis    WebhookAI `json:"ai_analysis"`
	NearbyObjects []Feature `json:"nearby_objects"`
}

// Telemetry is the latest device fix with battery readings. Previous holds the
// preceding fix when one exists, otherwise it equals Current.
type Telemetry struct {
	Current  GeoPoint
	Previous GeoPoint
	Voltage  float64
	Percent  float64
}

// Geofence is a stored fence. The boundary is kept as a GeoJSON Feature, the
// same storage format the rest of the platform uses for areas.
type Geofence struct {
	ID        uint64           `json:"id"`
	UserID    string           `json:"user_id"`
	Name      string           `json:"name"`
	Enabled   bool             `json:"enabled"`
	CattleIDs []string         `json:"cattle_ids"`
	Boundary  *geojson.Feature `json:"boundary"`
}

// BroadcastMessage wraps data pushed to WebSocket clients.
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
