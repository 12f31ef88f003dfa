package geodata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoint_VectorOps(t *testing.T) {
	p := Pt(3, 4)
	q := Pt(1, 2)

	assert.Equal(t, Pt(4, 6), p.Add(q))
	assert.Equal(t, Pt(2, 2), p.Sub(q))
	assert.Equal(t, Pt(6, 8), p.Scale(2))
	assert.InDelta(t, 5.0, p.Length(), 1e-12)
	assert.InDelta(t, math.Sqrt(8), p.Distance(q), 1e-12)
	assert.InDelta(t, 11.0, p.Dot(q), 1e-12)
	assert.InDelta(t, 2.0, p.Cross(q), 1e-12)
}

func TestPoint_Normalize(t *testing.T) {
	n := Pt(3, 4).Normalize()
	assert.InDelta(t, 0.6, n.X, 1e-12)
	assert.InDelta(t, 0.8, n.Z, 1e-12)

	// Degenerate vector normalizes to zero, not NaN.
	z := Pt(0, 0).Normalize()
	assert.Equal(t, Point{}, z)
}

func TestPoint_Lerp(t *testing.T) {
	a, b := Pt(0, 0), Pt(10, 20)
	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
	assert.Equal(t, Pt(5, 10), a.Lerp(b, 0.5))
}

func TestPoint_BearingDeg(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want float64
	}{
		{"east", Pt(1, 0), 0},
		{"north", Pt(0, 1), 90},
		{"west", Pt(-1, 0), 180},
		{"south", Pt(0, -1), 270},
		{"diagonal", Pt(1, 1), 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.p.BearingDeg(), 1e-9)
		})
	}
}

func TestPoint_Perp(t *testing.T) {
	p := Pt(1, 0)
	assert.Equal(t, Pt(0, 1), p.Perp())
	// Perp is always orthogonal.
	q := Pt(3.7, -2.1)
	assert.InDelta(t, 0, q.Dot(q.Perp()), 1e-12)
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, Point{}, Centroid(nil))

	pts := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}
	assert.Equal(t, Pt(5, 5), Centroid(pts))
}

func TestPolygonContains(t *testing.T) {
	square := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}

	assert.True(t, PolygonContains(square, Pt(5, 5)))
	assert.False(t, PolygonContains(square, Pt(15, 5)))
	assert.False(t, PolygonContains(square, Pt(-1, -1)))

	// Fewer than 3 vertices contains nothing.
	assert.False(t, PolygonContains(square[:2], Pt(5, 5)))
}

func TestPolygonContains_Concave(t *testing.T) {
	// L-shape: the notch is outside even though it is inside the hull.
	l := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 4), Pt(4, 4), Pt(4, 10), Pt(0, 10)}
	assert.True(t, PolygonContains(l, Pt(2, 8)))
	assert.True(t, PolygonContains(l, Pt(8, 2)))
	assert.False(t, PolygonContains(l, Pt(8, 8)))
}

func TestShoelaceArea(t *testing.T) {
	square := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}
	assert.InDelta(t, 100.0, ShoelaceArea(square), 1e-9)

	// Winding direction does not matter.
	reversed := []Point{Pt(0, 10), Pt(10, 10), Pt(10, 0), Pt(0, 0)}
	assert.InDelta(t, 100.0, ShoelaceArea(reversed), 1e-9)

	triangle := []Point{Pt(0, 0), Pt(4, 0), Pt(0, 3)}
	assert.InDelta(t, 6.0, ShoelaceArea(triangle), 1e-9)

	assert.Zero(t, ShoelaceArea(square[:2]))
}
