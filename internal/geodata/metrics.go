package geodata

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Degree-to-meter conversion. Longitude shrinks with latitude; latitude
// spacing is treated as constant for the small regions this pipeline
// covers.
const (
	MetersPerDegreeLat = 111320.0
	MetersPerLevel     = 3.0
)

// MetersPerDegreeLon returns the longitudinal meters-per-degree at the
// given latitude.
func MetersPerDegreeLon(latDeg float64) float64 {
	return MetersPerDegreeLat * math.Cos(latDeg*math.Pi/180)
}

// DistanceM returns the approximate ground distance in meters between two
// geographic points, using the equirectangular approximation at lat1.
func DistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	dx := (lon2 - lon1) * MetersPerDegreeLon(lat1)
	dz := (lat2 - lat1) * MetersPerDegreeLat
	return math.Hypot(dx, dz)
}

// Default estimated heights per size bucket, used when the feature carries
// no level count.
var defaultHeights = map[SizeBucket]float64{
	SizeTiny:      4,
	SizeSmall:     6,
	SizeMedium:    8,
	SizeLarge:     10,
	SizeVeryLarge: 13,
	SizeHuge:      16,
}

// ComputeBuildingMetrics fills the derived metric fields of b from its
// immutable footprint. originLat anchors the degree-to-meter scaling for
// the whole run. Footprints with fewer than 3 ring points get zero
// metrics and a Tiny bucket.
func ComputeBuildingMetrics(b *Building, originLat float64) {
	ring := footprintRing(b.Footprint)
	if len(ring) < 3 {
		b.Bucket = SizeTiny
		b.HeightM = defaultHeights[SizeTiny]
		return
	}

	// Shoelace area in square degrees, scaled to square meters with the
	// latitude-corrected constants. The shoelace sum is signed and map
	// data carries no winding guarantee, so take the magnitude.
	b.AreaM2 = math.Abs(b.Footprint.Area()) * MetersPerDegreeLat * MetersPerDegreeLon(originLat)
	b.Bucket = BucketForArea(b.AreaM2)

	pts := ringToMeters(ring, originLat)
	b.OrientationDeg = longestEdgeBearing(pts)
	b.WidthM, b.LengthM = orientedExtents(pts, b.OrientationDeg)

	if b.Levels > 0 {
		b.HeightM = b.Levels * MetersPerLevel
	} else {
		b.HeightM = defaultHeights[b.Bucket]
	}
}

// ComputeAreaMetrics fills the centroid and approximate radius of a.
func ComputeAreaMetrics(a *Area) {
	ring := footprintRing(a.Polygon)
	if len(ring) == 0 {
		return
	}
	var latSum, lonSum float64
	for _, c := range ring {
		lonSum += c[0]
		latSum += c[1]
	}
	n := float64(len(ring))
	a.CentroidLon = lonSum / n
	a.CentroidLat = latSum / n

	for _, c := range ring {
		d := DistanceM(a.CentroidLat, a.CentroidLon, c[1], c[0])
		if d > a.RadiusM {
			a.RadiusM = d
		}
	}
}

// footprintRing returns the outer ring of a polygon, or nil.
func footprintRing(p *geom.Polygon) []geom.Coord {
	if p == nil || p.NumLinearRings() == 0 {
		return nil
	}
	return p.LinearRing(0).Coords()
}

// ringToMeters converts a lon/lat ring to local meter offsets relative to
// its first vertex.
func ringToMeters(ring []geom.Coord, originLat float64) []Point {
	mLon := MetersPerDegreeLon(originLat)
	ref := ring[0]
	pts := make([]Point, len(ring))
	for i, c := range ring {
		pts[i] = Point{
			X: (c[0] - ref[0]) * mLon,
			Z: (c[1] - ref[1]) * MetersPerDegreeLat,
		}
	}
	return pts
}

// longestEdgeBearing returns the bearing in degrees of the longest polygon
// edge.
func longestEdgeBearing(pts []Point) float64 {
	var best float64
	var bearing float64
	n := len(pts)
	for i := 0; i < n; i++ {
		edge := pts[(i+1)%n].Sub(pts[i])
		if l := edge.Length(); l > best {
			best = l
			bearing = edge.BearingDeg()
		}
	}
	return bearing
}

// orientedExtents returns the (width, length) of the footprint measured
// perpendicular to and along the given bearing. Length is always the
// larger extent.
func orientedExtents(pts []Point, bearingDeg float64) (width, length float64) {
	rad := bearingDeg * math.Pi / 180
	axis := Point{math.Cos(rad), math.Sin(rad)}
	perp := axis.Perp()

	minA, maxA := math.Inf(1), math.Inf(-1)
	minP, maxP := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		a := p.Dot(axis)
		q := p.Dot(perp)
		minA = math.Min(minA, a)
		maxA = math.Max(maxA, a)
		minP = math.Min(minP, q)
		maxP = math.Max(maxP, q)
	}
	along := maxA - minA
	across := maxP - minP
	if along >= across {
		return across, along
	}
	return along, across
}

// roadWidths maps highway class to corridor width in meters.
var roadWidths = map[string]float64{
	"motorway":      12,
	"trunk":         10,
	"primary":       9,
	"secondary":     8,
	"tertiary":      7,
	"residential":   6,
	"living_street": 5.5,
	"unclassified":  5,
	"service":       4,
	"track":         3.5,
	"footway":       2,
	"path":          2,
	"pedestrian":    2.5,
	"cycleway":      2,
	"steps":         1.5,
}

var majorRoadClasses = map[string]bool{
	"motorway":  true,
	"trunk":     true,
	"primary":   true,
	"secondary": true,
}

var footpathClasses = map[string]bool{
	"footway":    true,
	"path":       true,
	"pedestrian": true,
	"cycleway":   true,
	"steps":      true,
}

// ComputeRoadMetrics fills the derived width and class flags of r.
func ComputeRoadMetrics(r *Road) {
	if w, ok := roadWidths[r.Class]; ok {
		r.WidthM = w
	} else {
		r.WidthM = 5
	}
	r.IsMajor = majorRoadClasses[r.Class]
	r.IsFootpath = footpathClasses[r.Class]
}
