package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/apex/log"
	geojson "github.com/paulmach/go.geojson"

	"cattle-monitor-service/models"
)

// TrackingService reads collar positions and geofences from MySQL.
type TrackingService struct {
	db *sql.DB
}

func NewTrackingService(db *sql.DB) *TrackingService {
	return &TrackingService{db: db}
}

// GetTelemetry returns the latest fix for a device, with the preceding fix
// when one exists. Returns models.ErrNotFound when the device has never
// reported.
func (s *TrackingService) GetTelemetry(ctx context.Context, deviceID string) (*models.Telemetry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT latitude, longitude, voltage, percent
		FROM device_positions
		WHERE device_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 2`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device positions: %w", err)
	}
	defer rows.Close()

	var fixes []models.Telemetry
	for rows.Next() {
		var t models.Telemetry
		if err := rows.Scan(&t.Current.Lat, &t.Current.Lon, &t.Voltage, &t.Percent); err != nil {
			return nil, fmt.Errorf("failed to scan device position: %w", err)
		}
		fixes = append(fixes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read device positions: %w", err)
	}

	if len(fixes) == 0 {
		return nil, models.ErrNotFound
	}

	telemetry := fixes[0]
	if len(fixes) > 1 {
		telemetry.Previous = fixes[1].Current
	} else {
		// A single fix means no movement history; the health predictor sees
		// zero displacement.
		telemetry.Previous = telemetry.Current
	}
	return &telemetry, nil
}

// GetFencePolygon returns the boundary vertices of the first enabled fence,
// among the user's fences, whose assigned cattle list contains the requested
// animal. Returns models.ErrNotFound when no fence matches.
func (s *TrackingService) GetFencePolygon(ctx context.Context, userID, cattleID string) ([]models.RawVertex, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cattle_ids, boundary
		FROM geofences
		WHERE user_id = ? AND enabled = true
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query geofences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			fenceID       uint64
			cattleIDsJSON sql.NullString
			boundaryJSON  string
		)
		if err := rows.Scan(&fenceID, &cattleIDsJSON, &boundaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan geofence: %w", err)
		}

		if !fenceContains(cattleIDsJSON, cattleID) {
			continue
		}

		vertices, err := boundaryVertices(boundaryJSON)
		if err != nil {
			log.Warnf("Geofence %d has an unreadable boundary, skipping: %v", fenceID, err)
			continue
		}
		return vertices, nil
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read geofences: %w", err)
	}

	return nil, models.ErrNotFound
}

// fenceContains checks the fence's assigned cattle id list.
func fenceContains(cattleIDsJSON sql.NullString, cattleID string) bool {
	if !cattleIDsJSON.Valid {
		return false
	}
	var ids []string
	if err := json.Unmarshal([]byte(cattleIDsJSON.String), &ids); err != nil {
		log.Warnf("Unreadable cattle_ids list: %v", err)
		return false
	}
	for _, id := range ids {
		if id == cattleID {
			return true
		}
	}
	return false
}

// boundaryVertices extracts the outer ring of a stored GeoJSON boundary as
// raw (lat, lon) vertices. GeoJSON positions are [lon, lat].
func boundaryVertices(boundaryJSON string) ([]models.RawVertex, error) {
	feature, err := geojson.UnmarshalFeature([]byte(boundaryJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse boundary feature: %w", err)
	}
	if feature.Geometry == nil || !feature.Geometry.IsPolygon() || len(feature.Geometry.Polygon) == 0 {
		return nil, fmt.Errorf("boundary feature is not a polygon")
	}

	ring := feature.Geometry.Polygon[0]
	vertices := make([]models.RawVertex, 0, len(ring))
	for _, position := range ring {
		if len(position) < 2 {
			continue
		}
		vertices = append(vertices, models.RawVertex{Lat: position[1], Lon: position[0]})
	}

	// GeoJSON rings repeat the first position at the end; the polygon
	// builder closes the ring implicitly.
	if len(vertices) > 1 {
		first, last := vertices[0], vertices[len(vertices)-1]
		if first.Lat == last.Lat && first.Lon == last.Lon {
			vertices = vertices[:len(vertices)-1]
		}
	}

	return vertices, nil
}
