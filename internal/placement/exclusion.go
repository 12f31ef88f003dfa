package placement

import "github.com/sells-group/mapscene/internal/geodata"

// Exclusion is a region in the local frame that rejects scatter
// candidates.
type Exclusion interface {
	Contains(p geodata.Point) bool
}

// PolygonExclusion rejects points inside a polygon.
type PolygonExclusion struct {
	Vertices []geodata.Point
}

// Contains implements Exclusion.
func (e PolygonExclusion) Contains(p geodata.Point) bool {
	return geodata.PolygonContains(e.Vertices, p)
}

// ExpandPolygon scales a polygon about its centroid by the given factor.
// A factor of 1.2 pads a building footprint by 20% on every side.
func ExpandPolygon(poly []geodata.Point, factor float64) []geodata.Point {
	c := geodata.Centroid(poly)
	out := make([]geodata.Point, len(poly))
	for i, v := range poly {
		out[i] = c.Add(v.Sub(c).Scale(factor))
	}
	return out
}

// OrientedBox rejects points inside a rotated rectangle, used for road
// corridors along each segment.
type OrientedBox struct {
	center   geodata.Point
	axis     geodata.Point // unit vector along the long side
	halfLen  float64
	halfWide float64
}

// NewSegmentBox builds the corridor box around the segment a-b with the
// given total width.
func NewSegmentBox(a, b geodata.Point, width float64) OrientedBox {
	dir := b.Sub(a)
	return OrientedBox{
		center:   a.Lerp(b, 0.5),
		axis:     dir.Normalize(),
		halfLen:  dir.Length() / 2,
		halfWide: width / 2,
	}
}

// Contains implements Exclusion.
func (o OrientedBox) Contains(p geodata.Point) bool {
	rel := p.Sub(o.center)
	along := rel.Dot(o.axis)
	if along < -o.halfLen || along > o.halfLen {
		return false
	}
	across := rel.Dot(o.axis.Perp())
	return across >= -o.halfWide && across <= o.halfWide
}

// BuildExclusions assembles the standard exclusion set for a projected
// dataset: building footprints expanded by footprintPadding, and road
// corridors widened by corridorMargin meters on each side. unitsPerMeter
// converts the meter-denominated road width and margin into the local
// frame; pass 1 for a plain meter frame.
func BuildExclusions(ds *geodata.Dataset, footprintPadding, corridorMargin, unitsPerMeter float64) []Exclusion {
	var out []Exclusion
	for _, b := range ds.Buildings {
		if len(b.LocalFootprint) < 3 {
			continue
		}
		out = append(out, PolygonExclusion{
			Vertices: ExpandPolygon(b.LocalFootprint, footprintPadding),
		})
	}
	for _, r := range ds.Roads {
		width := (r.WidthM + 2*corridorMargin) * unitsPerMeter
		for i := 0; i+1 < len(r.LocalPath); i++ {
			a, b := r.LocalPath[i], r.LocalPath[i+1]
			if a.Distance(b) < 1e-9 {
				continue
			}
			out = append(out, NewSegmentBox(a, b, width))
		}
	}
	return out
}
