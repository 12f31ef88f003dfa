// Package placement implements the spatial layout algorithms: road-path
// resampling, exclusion-zone scattering for secondary entities, and
// street intersection detection. All randomness is drawn from injected
// sources so runs are reproducible.
package placement

import "github.com/sells-group/mapscene/internal/geodata"

// PathPoint is one emitted placement along a resampled path.
type PathPoint struct {
	Position       geodata.Point `json:"position"`
	OrientationDeg float64       `json:"orientation_deg"`
}

// ResamplePath walks a projected polyline at a fixed step length and
// emits a placement with the path-tangent orientation at each step.
// Progress carries over across vertices: a step that overshoots the
// current vertex continues into the next segment with the remaining
// distance. Zero-length segments are skipped. A final remainder shorter
// than minRemainder is dropped instead of being emitted as an undersized
// placement.
func ResamplePath(path []geodata.Point, step, minRemainder float64) []PathPoint {
	if len(path) < 2 || step <= 0 {
		return nil
	}

	var out []PathPoint
	carry := step // distance until the next emission
	lastTangent := geodata.Point{X: 1}

	for i := 0; i+1 < len(path); i++ {
		a, b := path[i], path[i+1]
		segLen := a.Distance(b)
		if segLen < 1e-9 {
			continue
		}
		tangent := b.Sub(a).Normalize()
		lastTangent = tangent

		pos := 0.0
		for segLen-pos >= carry {
			pos += carry
			t := pos / segLen
			out = append(out, PathPoint{
				Position:       a.Lerp(b, t),
				OrientationDeg: tangent.BearingDeg(),
			})
			carry = step
		}
		carry -= segLen - pos
	}

	// Remainder policy: emit the endpoint only when enough path is left.
	remainder := step - carry
	if remainder >= minRemainder && remainder > 1e-9 {
		out = append(out, PathPoint{
			Position:       path[len(path)-1],
			OrientationDeg: lastTangent.BearingDeg(),
		})
	}
	return out
}

// PathLength returns the total polyline length.
func PathLength(path []geodata.Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		total += path[i].Distance(path[i+1])
	}
	return total
}
