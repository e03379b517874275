package geo

import (
	"math"
	"testing"

	"cattle-monitor-service/models"
)

func squareFence() *Polygon {
	pg, err := BuildPolygon([]models.RawVertex{
		{Lat: 10.0, Lon: 10.0},
		{Lat: 10.0, Lon: 20.0},
		{Lat: 20.0, Lon: 20.0},
		{Lat: 20.0, Lon: 10.0},
	})
	if err != nil {
		panic(err)
	}
	return pg
}

func TestBuildPolygon(t *testing.T) {
	testCases := []struct {
		name          string
		vertices      []models.RawVertex
		wantCount     int
		errorExpected bool
	}{
		{
			name: "All numeric vertices",
			vertices: []models.RawVertex{
				{Lat: 10.0, Lon: 10.0},
				{Lat: 10.0, Lon: 20.0},
				{Lat: 20.0, Lon: 20.0},
			},
			wantCount: 3,
		},
		{
			name: "Quoted coordinates are parsed",
			vertices: []models.RawVertex{
				{Lat: "10", Lon: "10"},
				{Lat: "10", Lon: "20"},
				{Lat: "20", Lon: "20"},
				{Lat: "20", Lon: "10"},
			},
			wantCount: 4,
		},
		{
			name: "Malformed vertex is skipped, build still succeeds",
			vertices: []models.RawVertex{
				{Lat: "10", Lon: "10"},
				{Lat: "bad", Lon: "20"},
				{Lat: "20", Lon: "20"},
				{Lat: "20", Lon: "10"},
			},
			wantCount: 3,
		},
		{
			name: "Non-finite vertex is skipped",
			vertices: []models.RawVertex{
				{Lat: 10.0, Lon: 10.0},
				{Lat: math.NaN(), Lon: 20.0},
				{Lat: 20.0, Lon: 20.0},
				{Lat: 20.0, Lon: 10.0},
			},
			wantCount: 3,
		},
		{
			name: "Too few usable vertices",
			vertices: []models.RawVertex{
				{Lat: "10", Lon: "10"},
				{Lat: "bad", Lon: "20"},
				{Lat: "20", Lon: "20"},
			},
			errorExpected: true,
		},
		{
			name:          "Empty input",
			vertices:      nil,
			errorExpected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pg, err := BuildPolygon(tc.vertices)
			if tc.errorExpected {
				if err != ErrInvalidGeometry {
					t.Errorf("BuildPolygon() error = %v, want ErrInvalidGeometry", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildPolygon() unexpected error: %v", err)
			}
			if len(pg.Vertices) != tc.wantCount {
				t.Errorf("BuildPolygon() kept %d vertices, want %d", len(pg.Vertices), tc.wantCount)
			}
		})
	}
}

func TestContains(t *testing.T) {
	pg := squareFence()

	testCases := []struct {
		name  string
		point models.GeoPoint
		want  bool
	}{
		{"Center of fence", models.GeoPoint{Lat: 15, Lon: 15}, true},
		{"Near a corner, still inside", models.GeoPoint{Lat: 10.1, Lon: 10.1}, true},
		{"Origin, far outside", models.GeoPoint{Lat: 0, Lon: 0}, false},
		{"Outside bounding box north", models.GeoPoint{Lat: 25, Lon: 15}, false},
		{"Outside bounding box east", models.GeoPoint{Lat: 15, Lon: 25}, false},
		{"Just outside the west edge", models.GeoPoint{Lat: 15, Lon: 9.999}, false},
		// Boundary semantics are edge-inclusive: a point exactly on the
		// fence line is inside.
		{"Exactly on the west edge", models.GeoPoint{Lat: 15, Lon: 10}, true},
		{"Exactly on the south edge", models.GeoPoint{Lat: 10, Lon: 15}, true},
		{"Exactly on a vertex", models.GeoPoint{Lat: 10, Lon: 10}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pg.Contains(tc.point); got != tc.want {
				t.Errorf("Contains(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestContainsConcavePolygon(t *testing.T) {
	// An L-shaped fence; the notch at the top-right is outside.
	pg, err := BuildPolygon([]models.RawVertex{
		{Lat: 0.0, Lon: 0.0},
		{Lat: 0.0, Lon: 10.0},
		{Lat: 5.0, Lon: 10.0},
		{Lat: 5.0, Lon: 5.0},
		{Lat: 10.0, Lon: 5.0},
		{Lat: 10.0, Lon: 0.0},
	})
	if err != nil {
		t.Fatalf("BuildPolygon() unexpected error: %v", err)
	}

	if !pg.Contains(models.GeoPoint{Lat: 2, Lon: 8}) {
		t.Error("point in the lower arm should be inside")
	}
	if !pg.Contains(models.GeoPoint{Lat: 8, Lon: 2}) {
		t.Error("point in the left arm should be inside")
	}
	if pg.Contains(models.GeoPoint{Lat: 8, Lon: 8}) {
		t.Error("point in the notch should be outside")
	}
}

func TestCentroidAndBoundingBox(t *testing.T) {
	pg := squareFence()

	c := pg.Centroid()
	if c.Lat != 15 || c.Lon != 15 {
		t.Errorf("Centroid() = %v, want (15, 15)", c)
	}

	latMin, lonMin, latMax, lonMax := pg.BoundingBox()
	if latMin != 10 || lonMin != 10 || latMax != 20 || lonMax != 20 {
		t.Errorf("BoundingBox() = (%v, %v, %v, %v), want (10, 10, 20, 20)",
			latMin, lonMin, latMax, lonMax)
	}
}
