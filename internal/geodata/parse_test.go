package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 52.0000, "lon": 13.0000},
    {"type": "node", "id": 2, "lat": 52.0000, "lon": 13.0002},
    {"type": "node", "id": 3, "lat": 52.0002, "lon": 13.0002},
    {"type": "node", "id": 4, "lat": 52.0002, "lon": 13.0000},
    {"type": "node", "id": 10, "lat": 52.0000, "lon": 13.0000},
    {"type": "node", "id": 11, "lat": 52.0010, "lon": 13.0010},
    {"type": "way", "id": 100, "nodes": [1, 2, 3, 4, 1],
     "tags": {"building": "house", "building:levels": "2"}},
    {"type": "way", "id": 101, "nodes": [10, 11],
     "tags": {"highway": "residential", "name": "main   street"}},
    {"type": "way", "id": 102, "nodes": [1, 2, 3, 4, 1],
     "tags": {"leisure": "park"}}
  ]
}`

func TestParseDataset_Basic(t *testing.T) {
	ds := ParseDataset(sampleResponse, 52.0)

	require.Len(t, ds.Buildings, 1)
	require.Len(t, ds.Roads, 1)
	require.Len(t, ds.Areas, 1)

	b := ds.Buildings[0]
	assert.Equal(t, int64(100), b.ID)
	assert.Equal(t, "house", b.RawTag)
	assert.Equal(t, 2.0, b.Levels)
	assert.InDelta(t, 6.0, b.HeightM, 1e-9) // 2 levels
	assert.Greater(t, b.AreaM2, 0.0)

	r := ds.Roads[0]
	assert.Equal(t, "residential", r.Class)
	assert.Equal(t, "Main Street", r.Name) // whitespace collapsed, title-cased
	assert.Equal(t, 6.0, r.WidthM)

	assert.Equal(t, AreaPark, ds.Areas[0].Kind)
	assert.Equal(t, 3, ds.FeatureCount())
}

func TestParseDataset_UnclosedRingIsClosed(t *testing.T) {
	// Building way without the closing node reference still parses.
	raw := `{"elements": [
		{"type": "node", "id": 1, "lat": 52.0, "lon": 13.0},
		{"type": "node", "id": 2, "lat": 52.0, "lon": 13.001},
		{"type": "node", "id": 3, "lat": 52.001, "lon": 13.001},
		{"type": "way", "id": 100, "nodes": [1, 2, 3], "tags": {"building": "yes"}}
	]}`
	ds := ParseDataset(raw, 52.0)
	require.Len(t, ds.Buildings, 1)
}

func TestParseDataset_DegenerateFeaturesSkipped(t *testing.T) {
	raw := `{"elements": [
		{"type": "node", "id": 1, "lat": 52.0, "lon": 13.0},
		{"type": "node", "id": 2, "lat": 52.0, "lon": 13.001},
		{"type": "way", "id": 100, "nodes": [1, 2], "tags": {"building": "yes"}},
		{"type": "way", "id": 101, "nodes": [1], "tags": {"highway": "path"}},
		{"type": "way", "id": 102, "nodes": [1, 99], "tags": {"highway": "path"}}
	]}`
	ds := ParseDataset(raw, 52.0)

	// Two-point building and one-point road are dropped; the road whose
	// missing node reference leaves a single resolvable point too.
	assert.Empty(t, ds.Buildings)
	assert.Empty(t, ds.Roads)
}

func TestParseDataset_MalformedInput(t *testing.T) {
	for _, raw := range []string{
		"",
		"not json",
		"{}",
		`{"elements": []}`,
		`{"elements": "nope"}`,
		`[1, 2, 3]`,
	} {
		ds := ParseDataset(raw, 52.0)
		require.NotNil(t, ds, "input %q", raw)
		assert.Zero(t, ds.FeatureCount(), "input %q", raw)
	}
}

func TestParseDataset_NodesAfterWays(t *testing.T) {
	// Element order is arbitrary: ways may precede their nodes.
	raw := `{"elements": [
		{"type": "way", "id": 100, "nodes": [1, 2], "tags": {"highway": "track"}},
		{"type": "node", "id": 1, "lat": 52.0, "lon": 13.0},
		{"type": "node", "id": 2, "lat": 52.001, "lon": 13.0}
	]}`
	ds := ParseDataset(raw, 52.0)
	require.Len(t, ds.Roads, 1)
	assert.Equal(t, 3.5, ds.Roads[0].WidthM)
}

func TestParseDataset_HeightTag(t *testing.T) {
	raw := `{"elements": [
		{"type": "node", "id": 1, "lat": 52.0, "lon": 13.0},
		{"type": "node", "id": 2, "lat": 52.0, "lon": 13.001},
		{"type": "node", "id": 3, "lat": 52.001, "lon": 13.001},
		{"type": "way", "id": 100, "nodes": [1, 2, 3],
		 "tags": {"building": "tower", "height": "25 m"}}
	]}`
	ds := ParseDataset(raw, 52.0)
	require.Len(t, ds.Buildings, 1)
	assert.InDelta(t, 25.0, ds.Buildings[0].HeightM, 1e-9)
}

func TestAreaKind(t *testing.T) {
	tests := []struct {
		tags map[string]string
		want AreaKind
		ok   bool
	}{
		{map[string]string{"leisure": "park"}, AreaPark, true},
		{map[string]string{"natural": "wood"}, AreaForest, true},
		{map[string]string{"landuse": "forest"}, AreaForest, true},
		{map[string]string{"natural": "water"}, AreaWater, true},
		{map[string]string{"landuse": "farmland"}, AreaFarmland, true},
		{map[string]string{"landuse": "meadow"}, AreaMeadow, true},
		{map[string]string{"landuse": "grass"}, AreaMeadow, true},
		{map[string]string{"amenity": "parking"}, "", false},
	}
	for _, tt := range tests {
		kind, ok := areaKind(tt.tags)
		assert.Equal(t, tt.ok, ok, "%v", tt.tags)
		assert.Equal(t, tt.want, kind, "%v", tt.tags)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "", normalizeName(""))
	assert.Equal(t, "", normalizeName("   "))
	assert.Equal(t, "High Street", normalizeName("high street"))
	assert.Equal(t, "High Street", normalizeName("  high\t street "))
	// Already-capitalized interior letters are preserved.
	assert.Equal(t, "McAllister Way", normalizeName("mcAllister way"))
}
