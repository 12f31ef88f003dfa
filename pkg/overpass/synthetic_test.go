package overpass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mapscene/internal/decoder"
)

func TestSyntheticResponse_Deterministic(t *testing.T) {
	box := BoundingBox(52.0, 13.0, 500)
	assert.Equal(t, SyntheticResponse(box), SyntheticResponse(box))

	other := BoundingBox(48.0, 2.0, 500)
	assert.NotEqual(t, SyntheticResponse(box), SyntheticResponse(other))
}

func TestSyntheticResponse_Parseable(t *testing.T) {
	box := BoundingBox(52.0, 13.0, 500)
	root, ok := decoder.ParseObject(SyntheticResponse(box))
	require.True(t, ok)

	elements := decoder.GetArray(root, "elements")
	require.NotEmpty(t, elements)

	buildings, roads := 0, 0
	for _, el := range elements {
		obj, ok := el.(map[string]any)
		require.True(t, ok)
		if decoder.GetString(obj, "type") != "way" {
			continue
		}
		tags := decoder.GetObject(obj, "tags")
		if decoder.GetString(tags, "building") != "" {
			buildings++
		}
		if decoder.GetString(tags, "highway") != "" {
			roads++
		}
	}

	// The street corridor removes the two middle rows and columns of the
	// 4x4 grid, leaving the four corner pairs.
	assert.Greater(t, buildings, 0)
	assert.Equal(t, 2, roads)
}

func TestSyntheticResponse_GeometryInsideBox(t *testing.T) {
	box := BoundingBox(52.0, 13.0, 500)
	root, ok := decoder.ParseObject(SyntheticResponse(box))
	require.True(t, ok)

	for _, el := range decoder.GetArray(root, "elements") {
		obj := el.(map[string]any)
		if decoder.GetString(obj, "type") != "node" {
			continue
		}
		lat := decoder.GetNumber(obj, "lat")
		lon := decoder.GetNumber(obj, "lon")
		assert.GreaterOrEqual(t, lat, box.South-1e-3)
		assert.LessOrEqual(t, lat, box.North+1e-3)
		assert.GreaterOrEqual(t, lon, box.West-1e-3)
		assert.LessOrEqual(t, lon, box.East+1e-3)
	}
}

func TestSyntheticResponse_StreetNames(t *testing.T) {
	raw := SyntheticResponse(BoundingBox(52.0, 13.0, 500))
	assert.Contains(t, raw, "East Street")
	assert.Contains(t, raw, "North Street")
}
