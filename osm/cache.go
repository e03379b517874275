package osm

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang/geo/s2"

	"cattle-monitor-service/geo"
	"cattle-monitor-service/metrics"
	"cattle-monitor-service/models"
)

const (
	// cacheCellLevel buckets each polygon vertex into an S2 cell of roughly
	// 150m across, so fences redrawn by a few meters share a cache entry.
	cacheCellLevel = 16
	// CacheTTL is how long cached scan results are valid.
	CacheTTL = 24 * time.Hour
)

// CachedScanner wraps the Overpass client with a MySQL-backed cache and
// collapses concurrent scans of the same fence into a single upstream query.
// Scan never fails: feature enrichment is best-effort and an upstream error
// degrades to an empty result.
type CachedScanner struct {
	client *Client
	db     *sql.DB

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewCachedScanner creates a scanner. db may be nil, which disables caching
// (every scan hits Overpass).
func NewCachedScanner(client *Client, db *sql.DB) *CachedScanner {
	return &CachedScanner{
		client:   client,
		db:       db,
		inflight: make(map[string]chan struct{}),
	}
}

// CreateCacheTable creates the feature cache table if it doesn't exist.
func (s *CachedScanner) CreateCacheTable() error {
	if s.db == nil {
		return nil
	}
	query := `
		CREATE TABLE IF NOT EXISTS osm_feature_cache (
			id INT AUTO_INCREMENT PRIMARY KEY,
			poly_key VARCHAR(768) NOT NULL,
			features JSON NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL,
			UNIQUE KEY idx_poly_key (poly_key),
			INDEX idx_expires (expires_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create osm_feature_cache table: %w", err)
	}
	log.Println("osm_feature_cache table verified/created")
	return nil
}

// CacheKey derives a canonical key for a fence by snapping every vertex to
// its S2 cell at cacheCellLevel. Identical vertex sets always produce the
// same key; moving a vertex more than one cell produces a new one.
func CacheKey(polygon *geo.Polygon) string {
	tokens := make([]string, 0, len(polygon.Vertices))
	for _, v := range polygon.Vertices {
		cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(v.Lat, v.Lon)).Parent(cacheCellLevel)
		tokens = append(tokens, cell.ToToken())
	}
	return strings.Join(tokens, ":")
}

// Scan returns the features inside the polygon. Cache hits are served from
// MySQL; misses query Overpass with at most one in-flight query per cache
// key, and the freshest result wins the cache slot. Any failure yields an
// empty list, never an error.
func (s *CachedScanner) Scan(ctx context.Context, polygon *geo.Polygon) []models.Feature {
	key := CacheKey(polygon)

	if features, ok := s.getFromCache(key); ok {
		metrics.FeatureCacheTotal.WithLabelValues("hit").Inc()
		return features
	}
	metrics.FeatureCacheTotal.WithLabelValues("miss").Inc()

	// Collapse concurrent misses for the same fence: followers wait for the
	// leader's query and then re-read the cache.
	s.mu.Lock()
	if done, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return []models.Feature{}
		}
		if features, ok := s.getFromCache(key); ok {
			return features
		}
		return []models.Feature{}
	}
	done := make(chan struct{})
	s.inflight[key] = done
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
		close(done)
	}()

	features, err := s.client.QueryFeatures(ctx, polygon)
	if err != nil {
		log.Printf("Overpass lookup failed, returning no features: %v", err)
		metrics.OverpassQueryTotal.WithLabelValues("error").Inc()
		return []models.Feature{}
	}
	if len(features) == 0 {
		metrics.OverpassQueryTotal.WithLabelValues("empty").Inc()
		features = []models.Feature{}
	} else {
		metrics.OverpassQueryTotal.WithLabelValues("ok").Inc()
	}

	s.saveToCache(key, features)
	return features
}

func (s *CachedScanner) getFromCache(key string) ([]models.Feature, bool) {
	if s.db == nil {
		return nil, false
	}

	var featuresJSON string
	err := s.db.QueryRow(`
		SELECT features
		FROM osm_feature_cache
		WHERE poly_key = ? AND expires_at > NOW()
	`, key).Scan(&featuresJSON)

	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("Feature cache read failed: %v", err)
		return nil, false
	}

	var features []models.Feature
	if err := json.Unmarshal([]byte(featuresJSON), &features); err != nil {
		log.Printf("Feature cache entry for %s is unreadable: %v", key, err)
		return nil, false
	}
	if features == nil {
		features = []models.Feature{}
	}
	return features, true
}

// saveToCache upserts the scan result. Last writer wins on refresh.
func (s *CachedScanner) saveToCache(key string, features []models.Feature) {
	if s.db == nil {
		return
	}

	featuresJSON, err := json.Marshal(features)
	if err != nil {
		log.Printf("Failed to marshal features for cache: %v", err)
		return
	}

	_, err = s.db.Exec(`
		INSERT INTO osm_feature_cache (poly_key, features, expires_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			features = VALUES(features),
			expires_at = VALUES(expires_at),
			created_at = NOW()
	`, key, string(featuresJSON), time.Now().Add(CacheTTL))

	if err != nil {
		log.Printf("Warning: failed to cache scan result: %v", err)
	}
}

// CleanExpiredCache removes expired cache entries.
func (s *CachedScanner) CleanExpiredCache() (int64, error) {
	if s.db == nil {
		return 0, nil
	}
	result, err := s.db.Exec("DELETE FROM osm_feature_cache WHERE expires_at < NOW()")
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired cache: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
