package export

import (
	"path/filepath"
	"strings"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mapscene/internal/geodata"
	"github.com/sells-group/mapscene/internal/scene"
)

func attr(t *testing.T, r *shp.Reader, idx int) string {
	t.Helper()
	return strings.TrimSpace(strings.TrimRight(r.Attribute(idx), "\x00"))
}

func TestWriteBuildings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.shp")

	buildings := []scene.BuildingEntity{
		{
			ID:      "bld_1",
			Class:   geodata.ClassHouse,
			Bucket:  "small",
			HeightM: 6,
			Footprint: []geodata.Point{
				geodata.Pt(0, 0), geodata.Pt(10, 0), geodata.Pt(10, 10), geodata.Pt(0, 10),
			},
		},
		{ID: "bld_2", Footprint: []geodata.Point{geodata.Pt(0, 0)}}, // degenerate, skipped
	}
	require.NoError(t, WriteBuildings(path, buildings))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for r.Next() {
		_, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		require.True(t, ok)
		// Ring closed on write.
		assert.Equal(t, poly.Points[0], poly.Points[len(poly.Points)-1])

		assert.Equal(t, "bld_1", attr(t, r, 0))
		assert.Equal(t, "house", attr(t, r, 1))
		assert.Equal(t, "small", attr(t, r, 2))
		count++
	}
	assert.Equal(t, 1, count)
}

func TestWriteRoads_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roads.shp")

	roads := []scene.RoadEntity{
		{
			ID:     "road_1",
			Class:  "residential",
			Name:   "East Street",
			WidthM: 6,
			Path:   []geodata.Point{geodata.Pt(-50, 0), geodata.Pt(50, 0)},
		},
		{ID: "road_2", Path: []geodata.Point{geodata.Pt(0, 0)}}, // degenerate, skipped
	}
	require.NoError(t, WriteRoads(path, roads))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for r.Next() {
		_, shape := r.Shape()
		line, ok := shape.(*shp.PolyLine)
		require.True(t, ok)
		require.Len(t, line.Points, 2)
		assert.Equal(t, -50.0, line.Points[0].X)

		assert.Equal(t, "road_1", attr(t, r, 0))
		assert.Equal(t, "East Street", attr(t, r, 2))
		count++
	}
	assert.Equal(t, 1, count)
}
