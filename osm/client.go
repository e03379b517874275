// Package osm queries the Overpass API for real-world features inside a
// geofence and normalizes them for the analysis response.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cattle-monitor-service/geo"
	"cattle-monitor-service/models"
)

const (
	// DefaultOverpassURL is the public Overpass API endpoint.
	DefaultOverpassURL = "https://overpass-api.de/api/interpreter"
	// UserAgent identifies the service per OSM usage policy.
	UserAgent = "CattleMonitor/1.0 (cattle-monitor-service)"
	// Overpass asks heavy users to stay around 1 request per second.
	minRequestInterval = time.Second
)

// Tag values the scanner looks for. Buildings match on any building tag.
var (
	naturalKinds = []string{"tree", "water", "wood"}
	landuseKinds = []string{"forest", "residential", "farmland"}
)

// Client is a rate-limited Overpass API client.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	lastRequest   time.Time
	rateLimitLock sync.Mutex
}

// NewClient creates an Overpass client. An empty baseURL selects the public
// endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultOverpassURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// overpassResponse is the wire format of an Overpass reply.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c *Client) enforceRateLimit() {
	c.rateLimitLock.Lock()
	defer c.rateLimitLock.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

// QueryFeatures fetches buildings, selected natural features and selected
// land-use areas whose footprint intersects the polygon.
func (c *Client) QueryFeatures(ctx context.Context, polygon *geo.Polygon) ([]models.Feature, error) {
	c.enforceRateLimit()

	poly := polyFilter(polygon)
	query := fmt.Sprintf(`
[out:json][timeout:25];
(
  nwr["building"](poly:"%s");
  nwr["natural"~"^(%s)$"](poly:"%s");
  nwr["landuse"~"^(%s)$"](poly:"%s");
);
out center;
`,
		poly,
		strings.Join(naturalKinds, "|"), poly,
		strings.Join(landuseKinds, "|"), poly,
	)

	reqURL := fmt.Sprintf("%s?data=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Overpass request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute Overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Overpass returned status %d: %s", resp.StatusCode, string(body))
	}

	var overpassResp overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		return nil, fmt.Errorf("failed to decode Overpass response: %w", err)
	}

	features := make([]models.Feature, 0, len(overpassResp.Elements))
	for _, elem := range overpassResp.Elements {
		location, ok := elementLocation(elem)
		if !ok {
			continue
		}
		features = append(features, models.Feature{
			Kind:     ClassifyTags(elem.Tags),
			Location: location,
			Name:     featureName(elem.Tags),
		})
	}

	return features, nil
}

// polyFilter renders the polygon as an Overpass poly filter: a space
// separated "lat lon" list.
func polyFilter(polygon *geo.Polygon) string {
	parts := make([]string, 0, len(polygon.Vertices))
	for _, v := range polygon.Vertices {
		parts = append(parts, fmt.Sprintf("%f %f", v.Lat, v.Lon))
	}
	return strings.Join(parts, " ")
}

// ClassifyTags maps OSM tags to a feature kind by priority: building wins,
// then the natural tag's value, then the landuse tag's value.
func ClassifyTags(tags map[string]string) string {
	if tags == nil {
		return models.FeatureUnknown
	}
	if tags["building"] != "" {
		return models.FeatureBuilding
	}
	if natural := tags["natural"]; natural != "" && contains(naturalKinds, natural) {
		return natural
	}
	if landuse := tags["landuse"]; landuse != "" && contains(landuseKinds, landuse) {
		return landuse
	}
	return models.FeatureUnknown
}

// elementLocation returns the representative point of an element: the node's
// own coordinates, or the computed center of a way/relation.
func elementLocation(elem overpassElement) (models.GeoPoint, bool) {
	if elem.Lat != 0 || elem.Lon != 0 {
		return models.GeoPoint{Lat: elem.Lat, Lon: elem.Lon}, true
	}
	if elem.Center != nil {
		return models.GeoPoint{Lat: elem.Center.Lat, Lon: elem.Center.Lon}, true
	}
	return models.GeoPoint{}, false
}

func featureName(tags map[string]string) string {
	if name := tags["name"]; name != "" {
		return name
	}
	return models.DefaultFeatureName
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
