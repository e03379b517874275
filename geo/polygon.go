// Package geo implements planar polygon construction and point containment
// for farm-scale geofences. Coordinates are treated as (x, y) = (lon, lat)
// with no geodesic correction.
package geo

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"cattle-monitor-service/models"
)

// ErrInvalidGeometry is returned when fewer than 3 usable vertices remain
// after discarding vertices that don't parse as finite floats.
var ErrInvalidGeometry = errors.New("polygon requires at least 3 valid vertices")

// Polygon is a closed ring of vertices. The last vertex connects implicitly
// back to the first.
type Polygon struct {
	Vertices []models.GeoPoint
}

// onEdgeEpsilon bounds the collinearity test for boundary points.
const onEdgeEpsilon = 1e-12

// BuildPolygon constructs a polygon from raw stored vertices. Malformed
// vertices are skipped rather than fatal, unless the skips leave fewer than
// 3 points.
func BuildPolygon(vertices []models.RawVertex) (*Polygon, error) {
	clean := make([]models.GeoPoint, 0, len(vertices))
	for _, v := range vertices {
		lat, okLat := parseCoord(v.Lat)
		lon, okLon := parseCoord(v.Lon)
		if !okLat || !okLon {
			continue
		}
		clean = append(clean, models.GeoPoint{Lat: lat, Lon: lon})
	}

	if len(clean) < 3 {
		return nil, ErrInvalidGeometry
	}
	return &Polygon{Vertices: clean}, nil
}

// FromPoints builds a polygon from already-parsed coordinates.
func FromPoints(points []models.GeoPoint) (*Polygon, error) {
	raw := make([]models.RawVertex, len(points))
	for i, p := range points {
		raw[i] = models.RawVertex{Lat: p.Lat, Lon: p.Lon}
	}
	return BuildPolygon(raw)
}

// parseCoord accepts the coordinate encodings seen in stored fences: JSON
// numbers, quoted numbers, and decoded json.Number values. Non-finite values
// are rejected.
func parseCoord(v interface{}) (float64, bool) {
	var f float64
	switch c := v.(type) {
	case float64:
		f = c
	case float32:
		f = float64(c)
	case int:
		f = float64(c)
	case int64:
		f = float64(c)
	case json.Number:
		parsed, err := c.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Contains reports whether p lies inside the polygon, using ray casting on
// the (lon, lat) plane. Points exactly on an edge or vertex count as inside.
func (pg *Polygon) Contains(p models.GeoPoint) bool {
	n := len(pg.Vertices)
	if n < 3 {
		return false
	}

	x, y := p.Lon, p.Lat

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := pg.Vertices[i].Lon, pg.Vertices[i].Lat
		xj, yj := pg.Vertices[j].Lon, pg.Vertices[j].Lat

		if onSegment(x, y, xi, yi, xj, yj) {
			return true
		}

		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// onSegment reports whether (x, y) lies on the segment (x1, y1)-(x2, y2).
func onSegment(x, y, x1, y1, x2, y2 float64) bool {
	cross := (x2-x1)*(y-y1) - (y2-y1)*(x-x1)
	if math.Abs(cross) > onEdgeEpsilon {
		return false
	}
	return x >= math.Min(x1, x2)-onEdgeEpsilon && x <= math.Max(x1, x2)+onEdgeEpsilon &&
		y >= math.Min(y1, y2)-onEdgeEpsilon && y <= math.Max(y1, y2)+onEdgeEpsilon
}

// Centroid returns the vertex-average centroid. Good enough for cache
// bucketing and logging; not an area-weighted centroid.
func (pg *Polygon) Centroid() models.GeoPoint {
	var lat, lon float64
	for _, v := range pg.Vertices {
		lat += v.Lat
		lon += v.Lon
	}
	n := float64(len(pg.Vertices))
	return models.GeoPoint{Lat: lat / n, Lon: lon / n}
}

// BoundingBox returns the polygon's (south, west, north, east) bounds.
func (pg *Polygon) BoundingBox() (latMin, lonMin, latMax, lonMax float64) {
	latMin, lonMin = pg.Vertices[0].Lat, pg.Vertices[0].Lon
	latMax, lonMax = latMin, lonMin
	for _, v := range pg.Vertices[1:] {
		latMin = math.Min(latMin, v.Lat)
		latMax = math.Max(latMax, v.Lat)
		lonMin = math.Min(lonMin, v.Lon)
		lonMax = math.Max(lonMax, v.Lon)
	}
	return
}
