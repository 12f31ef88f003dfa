package placement

import (
	"math"

	"github.com/sells-group/mapscene/internal/geodata"
)

// IntersectOptions tunes intersection detection.
type IntersectOptions struct {
	ParallelEps   float64 // sine of the angle below which segments count as parallel
	EndpointDist  float64 // max point-to-segment distance for a T-junction
	MinSeparation float64 // intersections closer than this merge into one
}

// DefaultIntersectOptions returns the standard thresholds.
func DefaultIntersectOptions() IntersectOptions {
	return IntersectOptions{
		ParallelEps:   1e-9,
		EndpointDist:  4,
		MinSeparation: 10,
	}
}

// Intersections finds street junction points between all pairs of road
// polylines. Interior crossings come from parametric segment
// intersection; T-junctions from testing each polyline's endpoints
// against every other polyline's segments. Points within MinSeparation
// of each other merge into a single representative before returning.
func Intersections(roads []*geodata.Road, opts IntersectOptions) []geodata.Point {
	f := NewIntersectionFinder(roads, opts)
	for !f.Step(64) {
	}
	return f.Points()
}

// IntersectionFinder scans road pairs incrementally so junction
// detection over large road sets can be spread across bounded steps.
type IntersectionFinder struct {
	roads []*geodata.Road
	opts  IntersectOptions
	i, j  int
	found []geodata.Point
}

// NewIntersectionFinder prepares a pairwise scan over the roads.
func NewIntersectionFinder(roads []*geodata.Road, opts IntersectOptions) *IntersectionFinder {
	return &IntersectionFinder{roads: roads, opts: opts, j: 1}
}

// Step examines at most n road pairs and reports whether the scan is
// complete.
func (f *IntersectionFinder) Step(n int) bool {
	for n > 0 && f.i < len(f.roads) {
		if f.j >= len(f.roads) {
			f.i++
			f.j = f.i + 1
			continue
		}
		a, b := f.roads[f.i].LocalPath, f.roads[f.j].LocalPath
		f.found = append(f.found, crossings(a, b, f.opts)...)
		f.found = append(f.found, endpointJunctions(a, b, f.opts)...)
		f.j++
		n--
	}
	return f.i >= len(f.roads)
}

// Points merges the junctions found so far and returns one
// representative per cluster.
func (f *IntersectionFinder) Points() []geodata.Point {
	return mergeClose(f.found, f.opts.MinSeparation)
}

// endpointJunctions tests each polyline's two endpoints against the
// other polyline's segments, catching T-junctions that never cross
// interior to interior.
func endpointJunctions(a, b []geodata.Point, opts IntersectOptions) []geodata.Point {
	var out []geodata.Point
	out = appendEndpointHits(out, a, b, opts.EndpointDist)
	out = appendEndpointHits(out, b, a, opts.EndpointDist)
	return out
}

func appendEndpointHits(out []geodata.Point, ends, path []geodata.Point, maxDist float64) []geodata.Point {
	if len(ends) < 2 || len(path) < 2 {
		return out
	}
	for _, end := range [2]geodata.Point{ends[0], ends[len(ends)-1]} {
		if pt, ok := nearestOnPath(path, end, maxDist); ok {
			out = append(out, pt)
		}
	}
	return out
}

// crossings returns all interior segment-segment intersections of two
// polylines.
func crossings(a, b []geodata.Point, opts IntersectOptions) []geodata.Point {
	var out []geodata.Point
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if pt, ok := segmentIntersection(a[i], a[i+1], b[j], b[j+1], opts.ParallelEps); ok {
				out = append(out, pt)
			}
		}
	}
	return out
}

// segmentIntersection solves p + t·r = q + u·s for t,u in [0,1].
// The cross product is normalized by |r||s| so eps bounds the sine of
// the angle between the segments regardless of their length.
func segmentIntersection(p1, p2, q1, q2 geodata.Point, eps float64) (geodata.Point, bool) {
	r := p2.Sub(p1)
	s := q2.Sub(q1)
	denom := r.Cross(s)
	norm := r.Length() * s.Length()
	if norm == 0 || math.Abs(denom) < eps*norm {
		return geodata.Point{}, false
	}
	d := q1.Sub(p1)
	t := d.Cross(s) / denom
	u := d.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return geodata.Point{}, false
	}
	return p1.Add(r.Scale(t)), true
}

// nearestOnPath returns the closest point of the polyline to pt when it
// lies within maxDist.
func nearestOnPath(path []geodata.Point, pt geodata.Point, maxDist float64) (geodata.Point, bool) {
	best := maxDist
	var bestPt geodata.Point
	ok := false
	for i := 0; i+1 < len(path); i++ {
		cand := closestOnSegment(path[i], path[i+1], pt)
		if d := cand.Distance(pt); d <= best {
			best = d
			bestPt = cand
			ok = true
		}
	}
	return bestPt, ok
}

// closestOnSegment projects pt onto the segment a-b, clamped to its ends.
func closestOnSegment(a, b, pt geodata.Point) geodata.Point {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-18 {
		return a
	}
	t := pt.Sub(a).Dot(ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}

// mergeClose clusters points within minSep of an existing cluster and
// returns each cluster's centroid.
func mergeClose(pts []geodata.Point, minSep float64) []geodata.Point {
	if len(pts) == 0 {
		return nil
	}
	type cluster struct {
		sum geodata.Point
		n   int
	}
	var clusters []*cluster
	for _, p := range pts {
		merged := false
		for _, c := range clusters {
			rep := c.sum.Scale(1 / float64(c.n))
			if rep.Distance(p) < minSep {
				c.sum = c.sum.Add(p)
				c.n++
				merged = true
				break
			}
		}
		if !merged {
			clusters = append(clusters, &cluster{sum: p, n: 1})
		}
	}
	out := make([]geodata.Point, len(clusters))
	for i, c := range clusters {
		out[i] = c.sum.Scale(1 / float64(c.n))
	}
	return out
}
