// Package projection converts geographic coordinates into the local
// Cartesian scene frame using an equirectangular approximation anchored
// at a per-run origin.
package projection

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/mapscene/internal/geodata"
)

// Projector maps lon/lat onto local XZ meters relative to a fixed origin.
// Every entity in one generation run must share one Projector instance,
// or spatial relationships between entities become inconsistent.
type Projector struct {
	originLat float64
	originLon float64
	scale     float64 // local units per meter
	mPerLon   float64
}

// ErrNoOrigin is returned when a projector is constructed without a
// usable origin. An unset origin is a programmer error and the only
// fatal condition in the core.
var ErrNoOrigin = eris.New("projection: origin not initialized")

// New creates a Projector centered at the given origin. scale is the
// output scale in local units per meter; pass 1 for a plain meter frame.
func New(originLat, originLon, scale float64) (*Projector, error) {
	if originLat == 0 && originLon == 0 {
		return nil, ErrNoOrigin
	}
	if originLat < -90 || originLat > 90 || originLon < -180 || originLon > 180 {
		return nil, eris.Errorf("projection: origin out of range (%f, %f)", originLat, originLon)
	}
	if scale <= 0 {
		scale = 1
	}
	return &Projector{
		originLat: originLat,
		originLon: originLon,
		scale:     scale,
		mPerLon:   geodata.MetersPerDegreeLat * math.Cos(originLat*math.Pi/180),
	}, nil
}

// Origin returns the projector's origin latitude and longitude.
func (p *Projector) Origin() (lat, lon float64) {
	return p.originLat, p.originLon
}

// Project converts a geographic coordinate to the local frame.
func (p *Projector) Project(lat, lon float64) geodata.Point {
	return geodata.Point{
		X: (lon - p.originLon) * p.mPerLon * p.scale,
		Z: (lat - p.originLat) * geodata.MetersPerDegreeLat * p.scale,
	}
}

// ProjectBuilding fills b's local footprint and centroid.
func (p *Projector) ProjectBuilding(b *geodata.Building) {
	b.LocalFootprint = p.projectRing(b.Footprint.LinearRing(0).Coords())
	b.LocalCentroid = geodata.Centroid(b.LocalFootprint)
}

// ProjectRoad fills r's local path and reports whether the road keeps
// at least two valid points. A road that does not must be discarded by
// the caller rather than emitted.
func (p *Projector) ProjectRoad(r *geodata.Road) bool {
	r.LocalPath = p.projectLine(r.Path.Coords())
	if len(r.LocalPath) < 2 {
		zap.L().Debug("projection: dropping road with short projected path",
			zap.Int64("id", r.ID))
		return false
	}
	return true
}

// ProjectArea fills a's local polygon and centroid.
func (p *Projector) ProjectArea(a *geodata.Area) {
	a.LocalPolygon = p.projectRing(a.Polygon.LinearRing(0).Coords())
	a.LocalCentroid = p.Project(a.CentroidLat, a.CentroidLon)
}

// ProjectDataset enriches every entity in the dataset with local-frame
// geometry in a single pass. Roads left with fewer than two valid points
// are discarded rather than emitted.
func (p *Projector) ProjectDataset(ds *geodata.Dataset) {
	for _, b := range ds.Buildings {
		p.ProjectBuilding(b)
	}

	kept := ds.Roads[:0]
	for _, r := range ds.Roads {
		if p.ProjectRoad(r) {
			kept = append(kept, r)
		}
	}
	ds.Roads = kept

	for _, a := range ds.Areas {
		p.ProjectArea(a)
	}
}

// projectRing projects a polygon ring, dropping the duplicated closing
// coordinate.
func (p *Projector) projectRing(coords []geom.Coord) []geodata.Point {
	pts := p.projectCoords(coords)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func (p *Projector) projectLine(coords []geom.Coord) []geodata.Point {
	pts := p.projectCoords(coords)

	// Collapse consecutive duplicates so zero-length segments never
	// reach the placement engine.
	out := pts[:0]
	for i, pt := range pts {
		if i > 0 && pt == out[len(out)-1] {
			continue
		}
		out = append(out, pt)
	}
	return out
}

func (p *Projector) projectCoords(coords []geom.Coord) []geodata.Point {
	pts := make([]geodata.Point, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		pts = append(pts, p.Project(c[1], c[0]))
	}
	return pts
}
