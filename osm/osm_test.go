package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cattle-monitor-service/geo"
	"cattle-monitor-service/models"
)

func fencePolygon(t *testing.T) *geo.Polygon {
	t.Helper()
	pg, err := geo.FromPoints([]models.GeoPoint{
		{Lat: 10, Lon: 10},
		{Lat: 10, Lon: 20},
		{Lat: 20, Lon: 20},
		{Lat: 20, Lon: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	return pg
}

func TestClassifyTags(t *testing.T) {
	testCases := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"Building tag wins", map[string]string{"building": "yes"}, "building"},
		{"Building outranks natural", map[string]string{"building": "barn", "natural": "tree"}, "building"},
		{"Natural tree", map[string]string{"natural": "tree"}, "tree"},
		{"Natural water", map[string]string{"natural": "water"}, "water"},
		{"Natural wood", map[string]string{"natural": "wood"}, "wood"},
		{"Natural outranks landuse", map[string]string{"natural": "water", "landuse": "farmland"}, "water"},
		{"Landuse forest", map[string]string{"landuse": "forest"}, "forest"},
		{"Landuse residential", map[string]string{"landuse": "residential"}, "residential"},
		{"Landuse farmland", map[string]string{"landuse": "farmland"}, "farmland"},
		{"Unlisted natural value", map[string]string{"natural": "cliff"}, "unknown"},
		{"Unlisted landuse value", map[string]string{"landuse": "military"}, "unknown"},
		{"No relevant tags", map[string]string{"highway": "path"}, "unknown"},
		{"Nil tags", nil, "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyTags(tc.tags); got != tc.want {
				t.Errorf("ClassifyTags(%v) = %q, want %q", tc.tags, got, tc.want)
			}
		})
	}
}

func TestQueryFeatures(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("data")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"elements": [
				{"type": "node", "id": 1, "lat": 12.3, "lon": 17.4, "tags": {"natural": "tree"}},
				{"type": "way", "id": 2, "center": {"lat": 11.0, "lon": 12.0}, "tags": {"building": "farm", "name": "Old Barn"}},
				{"type": "way", "id": 3, "tags": {"landuse": "farmland"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	features, err := client.QueryFeatures(context.Background(), fencePolygon(t))
	if err != nil {
		t.Fatalf("QueryFeatures() unexpected error: %v", err)
	}

	if !strings.Contains(gotQuery, `poly:"10.000000 10.000000 10.000000 20.000000 20.000000 20.000000 20.000000 10.000000"`) {
		t.Errorf("query is missing the poly filter: %s", gotQuery)
	}
	for _, want := range []string{`"building"`, "tree|water|wood", "forest|residential|farmland", "out center"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query is missing %q: %s", want, gotQuery)
		}
	}

	// Element 3 has no coordinates at all and is dropped.
	if len(features) != 2 {
		t.Fatalf("got %d features, want 2", len(features))
	}

	tree := features[0]
	if tree.Kind != "tree" || tree.Location.Lat != 12.3 || tree.Location.Lon != 17.4 {
		t.Errorf("tree feature = %+v", tree)
	}
	if tree.Name != models.DefaultFeatureName {
		t.Errorf("unnamed feature Name = %q, want %q", tree.Name, models.DefaultFeatureName)
	}

	barn := features[1]
	if barn.Kind != models.FeatureBuilding || barn.Name != "Old Barn" {
		t.Errorf("barn feature = %+v", barn)
	}
	if barn.Location.Lat != 11.0 || barn.Location.Lon != 12.0 {
		t.Errorf("way feature should use its center, got %+v", barn.Location)
	}
}

func TestQueryFeaturesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.QueryFeatures(context.Background(), fencePolygon(t)); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestScanDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer server.Close()

	scanner := NewCachedScanner(NewClient(server.URL), nil)
	features := scanner.Scan(context.Background(), fencePolygon(t))
	if features == nil {
		t.Fatal("Scan must return an empty slice, not nil")
	}
	if len(features) != 0 {
		t.Errorf("Scan() = %v, want empty", features)
	}
}

func TestCacheKey(t *testing.T) {
	pg := fencePolygon(t)
	key1 := CacheKey(pg)
	key2 := CacheKey(fencePolygon(t))
	if key1 != key2 {
		t.Errorf("identical fences must share a cache key: %q != %q", key1, key2)
	}

	moved, err := geo.FromPoints([]models.GeoPoint{
		{Lat: 10, Lon: 10},
		{Lat: 10, Lon: 20},
		{Lat: 20, Lon: 20},
		{Lat: 21, Lon: 10}, // ~111km north of the original vertex
	})
	if err != nil {
		t.Fatal(err)
	}
	if CacheKey(moved) == key1 {
		t.Error("moving a vertex far away must change the cache key")
	}

	if !strings.Contains(key1, ":") {
		t.Errorf("cache key should join one cell token per vertex: %q", key1)
	}
}
