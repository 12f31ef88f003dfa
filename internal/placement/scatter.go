package placement

import (
	"math"
	"math/rand/v2"

	"github.com/sells-group/mapscene/internal/geodata"
)

// ScatterOptions configures exclusion-zone scattering.
type ScatterOptions struct {
	Radius    float64 // working radius around the local origin
	CellSize  float64 // jittered-grid cell size
	Jitter    float64 // jitter amplitude as a fraction of the cell size, [0,1]
	Density   float64 // per-candidate survival probability, [0,1]
	MaxPoints int     // per-area cap; 0 means uncapped
}

// Scatterer generates candidate points on a jittered grid inside the
// working radius, rejecting candidates inside any exclusion region and
// thinning survivors by the density probability and the cap. Candidates
// are visited in fixed grid order and every draw comes from the injected
// source, so output is deterministic for a given seed.
type Scatterer struct {
	opts       ScatterOptions
	exclusions []Exclusion
	rng        *rand.Rand

	cells  []geodata.Point // cell centers in visit order
	next   int
	points []geodata.Point
}

// NewScatterer precomputes the candidate grid for the given options.
func NewScatterer(opts ScatterOptions, exclusions []Exclusion, rng *rand.Rand) *Scatterer {
	s := &Scatterer{opts: opts, exclusions: exclusions, rng: rng}
	if opts.Radius <= 0 || opts.CellSize <= 0 {
		return s
	}
	for z := -opts.Radius; z <= opts.Radius; z += opts.CellSize {
		for x := -opts.Radius; x <= opts.Radius; x += opts.CellSize {
			s.cells = append(s.cells, geodata.Point{X: x, Z: z})
		}
	}
	return s
}

// Step processes at most n grid cells and reports whether the scatter is
// complete. It never blocks; a caller embedded in a cooperative scheduler
// invokes it repeatedly.
func (s *Scatterer) Step(n int) bool {
	if n <= 0 {
		return s.next >= len(s.cells)
	}
	end := min(s.next+n, len(s.cells))
	for ; s.next < end; s.next++ {
		s.consider(s.cells[s.next])
	}
	return s.next >= len(s.cells)
}

// Run processes all remaining cells synchronously.
func (s *Scatterer) Run() []geodata.Point {
	s.Step(len(s.cells) - s.next)
	return s.Points()
}

// Points returns the accepted scatter points so far.
func (s *Scatterer) Points() []geodata.Point {
	return s.points
}

func (s *Scatterer) consider(cell geodata.Point) {
	// Jitter draws happen unconditionally to keep the random stream
	// aligned with the grid order regardless of rejections.
	amp := s.opts.Jitter * s.opts.CellSize
	jx := (s.rng.Float64()*2 - 1) * amp
	jz := (s.rng.Float64()*2 - 1) * amp
	cand := geodata.Point{X: cell.X + jx, Z: cell.Z + jz}

	if s.opts.MaxPoints > 0 && len(s.points) >= s.opts.MaxPoints {
		return
	}
	if math.Hypot(cand.X, cand.Z) > s.opts.Radius {
		return
	}
	for _, ex := range s.exclusions {
		if ex.Contains(cand) {
			return
		}
	}
	if s.opts.Density < 1 && s.rng.Float64() >= s.opts.Density {
		return
	}
	s.points = append(s.points, cand)
}
