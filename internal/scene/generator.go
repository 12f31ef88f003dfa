package scene

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mapscene/internal/config"
	"github.com/sells-group/mapscene/internal/geodata"
	"github.com/sells-group/mapscene/internal/placement"
	"github.com/sells-group/mapscene/internal/projection"
	"github.com/sells-group/mapscene/pkg/overpass"
)

// State is the generator's pipeline stage.
type State int

// Pipeline states in order of progression.
const (
	StateIdle State = iota
	StateFetching
	StateParsing
	StateClassifying
	StateProjecting
	StateRoads
	StateIntersections
	StateScattering
	StateDone
	StateCancelled
)

// ErrGenerationInFlight is returned by Start while a run is active. A
// new request never cancels or queues behind the current run; callers
// that want a restart must Cancel first.
var ErrGenerationInFlight = eris.New("scene: generation already in flight")

type fetchOutcome struct {
	result *overpass.Result
	err    error
}

// Generator sequences fetch, decode, classification, projection, and
// placement into one run, amortized across bounded Step increments so a
// host scheduler can interleave generation with other work. It is not
// safe for concurrent Step calls; Cancel may be called from any
// goroutine.
type Generator struct {
	svc *overpass.Service
	cfg config.GenerationConfig

	state     State
	cancelled atomic.Bool

	lat, lon    float64
	seed        uint64
	rng         *rand.Rand
	fetchCh     chan fetchOutcome
	rawResponse string

	ds    *geodata.Dataset
	nbCtx geodata.NeighborhoodContext
	proj  *projection.Projector
	out   *Scene

	// Incremental cursors.
	classIdx     int
	projBldIdx   int
	projRoadIdx  int
	projRoadKept int
	projAreaIdx  int
	roadIdx      int
	finder       *placement.IntersectionFinder
	scatterer    *placement.Scatterer
}

// NewGenerator creates a generator over an explicitly provided fetch
// service.
func NewGenerator(svc *overpass.Service, cfg config.GenerationConfig) *Generator {
	return &Generator{svc: svc, cfg: cfg, state: StateIdle}
}

// State returns the current pipeline stage.
func (g *Generator) State() State { return g.state }

// Scene returns the finished scene, or nil before completion.
func (g *Generator) Scene() *Scene {
	if g.state != StateDone {
		return nil
	}
	return g.out
}

// Cancel requests cooperative cancellation. The run unwinds at its next
// yield point and leaves no partial entity lists behind.
func (g *Generator) Cancel() { g.cancelled.Store(true) }

// Start begins a run centered at (lat, lon). It validates the
// projection origin up front and kicks off the asynchronous fetch, then
// returns; the caller advances the run with Step.
func (g *Generator) Start(ctx context.Context, lat, lon float64) error {
	if g.state != StateIdle && g.state != StateDone && g.state != StateCancelled {
		return ErrGenerationInFlight
	}

	// Origin must be valid before any work happens; this is the one
	// precondition failure the pipeline treats as fatal.
	proj, err := projection.New(lat, lon, g.cfg.OutputScale)
	if err != nil {
		return err
	}

	seed := g.cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	g.lat, g.lon = lat, lon
	g.seed = seed
	g.proj = proj
	g.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	g.cancelled.Store(false)
	g.ds = nil
	g.classIdx, g.roadIdx = 0, 0
	g.projBldIdx, g.projRoadIdx, g.projRoadKept, g.projAreaIdx = 0, 0, 0, 0
	g.finder = nil
	g.scatterer = nil
	g.out = &Scene{
		RunID:     uuid.New().String(),
		OriginLat: lat,
		OriginLon: lon,
		Seed:      seed,
	}

	g.fetchCh = make(chan fetchOutcome, 1)
	ch := g.fetchCh
	g.svc.FetchAsync(ctx, lat, lon, g.cfg.RadiusM, func(res *overpass.Result, err error) {
		ch <- fetchOutcome{result: res, err: err}
	})

	g.state = StateFetching
	zap.L().Info("scene: generation started",
		zap.String("run_id", g.out.RunID),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Float64("radius_m", g.cfg.RadiusM),
		zap.Uint64("seed", seed),
	)
	return nil
}

// Step advances the run by at most n entities and reports whether it has
// finished (done, cancelled, or idle). It never blocks: while the fetch
// is outstanding it returns immediately with done=false.
func (g *Generator) Step(n int) bool {
	if g.state == StateIdle || g.state == StateDone || g.state == StateCancelled {
		return true
	}
	if g.cancelled.Load() {
		g.unwind()
		return true
	}
	if n <= 0 {
		return false
	}

	budget := n
	for budget > 0 {
		switch g.state {
		case StateFetching:
			select {
			case out := <-g.fetchCh:
				g.finishFetch(out)
			default:
				return false // fetch still outstanding; yield
			}
		case StateParsing:
			g.parse()
		case StateClassifying:
			budget = g.classifyStep(budget)
		case StateProjecting:
			budget = g.projectStep(budget)
		case StateRoads:
			budget = g.roadStep(budget)
		case StateIntersections:
			budget = g.intersectStep(budget)
		case StateScattering:
			budget = g.scatterStep(budget)
		case StateDone, StateCancelled:
			return true
		}
		if g.cancelled.Load() {
			g.unwind()
			return true
		}
	}
	return g.state == StateDone
}

// Run drives the generator to completion synchronously, waiting on the
// fetch instead of spinning.
func (g *Generator) Run(ctx context.Context) (*Scene, error) {
	if g.state != StateFetching {
		return nil, eris.New("scene: run not started")
	}

	select {
	case out := <-g.fetchCh:
		g.finishFetch(out)
	case <-ctx.Done():
		g.Cancel()
		g.unwind()
		return nil, eris.Wrap(ctx.Err(), "scene: fetch wait")
	}

	batch := g.cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}
	for !g.Step(batch) {
		if err := ctx.Err(); err != nil {
			g.Cancel()
			g.unwind()
			return nil, eris.Wrap(err, "scene: run")
		}
	}
	if g.state == StateCancelled {
		return nil, eris.New("scene: run cancelled")
	}
	return g.out, nil
}

// unwind discards all partial output so a cancelled run leaves no
// inconsistent entity lists.
func (g *Generator) unwind() {
	if g.out == nil {
		g.state = StateCancelled
		return
	}
	zap.L().Info("scene: generation cancelled", zap.String("run_id", g.out.RunID))
	g.out = nil
	g.ds = nil
	g.finder = nil
	g.scatterer = nil
	g.state = StateCancelled
}

func (g *Generator) finishFetch(out fetchOutcome) {
	if out.err != nil {
		// Only context cancellation reaches here; network failures
		// already fell back to synthetic data inside the service.
		zap.L().Warn("scene: fetch aborted", zap.Error(out.err))
		g.Cancel()
		g.unwind()
		return
	}
	g.out.Synthetic = out.result.Synthetic
	g.rawResponse = out.result.Raw
	g.state = StateParsing
}

func (g *Generator) parse() {
	g.ds = geodata.ParseDataset(g.rawResponse, g.lat)
	g.rawResponse = ""

	// Sparse real data is a quality problem, not an error: top up with
	// the deterministic procedural layout for the same box.
	if !g.out.Synthetic && g.ds.FeatureCount() < g.cfg.MinFeatureCount {
		box := overpass.BoundingBox(g.lat, g.lon, g.cfg.RadiusM)
		extra := geodata.ParseDataset(overpass.SyntheticResponse(box), g.lat)
		g.ds.Buildings = append(g.ds.Buildings, extra.Buildings...)
		g.ds.Roads = append(g.ds.Roads, extra.Roads...)
		g.out.Supplemented = true
		zap.L().Info("scene: sparse data supplemented",
			zap.Int("live_features", g.ds.FeatureCount()-extra.FeatureCount()),
		)
	}

	g.nbCtx = geodata.ComputeContext(g.ds, g.lat, g.lon, g.cfg.ContextRadiusM)
	g.out.Context = g.nbCtx
	g.state = StateClassifying
}

func (g *Generator) classifyStep(budget int) int {
	for budget > 0 && g.classIdx < len(g.ds.Buildings) {
		b := g.ds.Buildings[g.classIdx]
		b.Class = geodata.Classify(b.RawTag, b.Bucket, g.nbCtx, g.rng)
		g.classIdx++
		budget--
	}
	if g.classIdx >= len(g.ds.Buildings) {
		g.state = StateProjecting
	}
	return budget
}

// projectStep enriches entities with local-frame geometry a budgeted
// slice at a time: buildings first (emitted as they are projected), then
// roads with in-place compaction of the ones that survive, then areas.
func (g *Generator) projectStep(budget int) int {
	for budget > 0 && g.projBldIdx < len(g.ds.Buildings) {
		b := g.ds.Buildings[g.projBldIdx]
		g.proj.ProjectBuilding(b)
		g.emitBuilding(b)
		g.projBldIdx++
		budget--
	}
	if g.projBldIdx < len(g.ds.Buildings) {
		return 0
	}

	for budget > 0 && g.projRoadIdx < len(g.ds.Roads) {
		r := g.ds.Roads[g.projRoadIdx]
		if g.proj.ProjectRoad(r) {
			g.ds.Roads[g.projRoadKept] = r
			g.projRoadKept++
		}
		g.projRoadIdx++
		budget--
	}
	if g.projRoadIdx < len(g.ds.Roads) {
		return 0
	}

	for budget > 0 && g.projAreaIdx < len(g.ds.Areas) {
		g.proj.ProjectArea(g.ds.Areas[g.projAreaIdx])
		g.projAreaIdx++
		budget--
	}
	if g.projAreaIdx < len(g.ds.Areas) {
		return 0
	}

	g.ds.Roads = g.ds.Roads[:g.projRoadKept]
	g.state = StateRoads
	return budget
}

func (g *Generator) emitBuilding(b *geodata.Building) {
	mult := g.cfg.BuildingScaleMultiplier
	if mult <= 0 {
		mult = 1
	}
	footprint := b.LocalFootprint
	if mult != 1 {
		footprint = placement.ExpandPolygon(footprint, mult)
	}
	g.out.Buildings = append(g.out.Buildings, BuildingEntity{
		ID:          fmt.Sprintf("bld_%d", b.ID),
		Position:    b.LocalCentroid,
		RotationDeg: b.OrientationDeg,
		Class:       b.Class,
		Bucket:      b.Bucket.String(),
		Footprint:   footprint,
		WidthM:      b.WidthM * mult,
		LengthM:     b.LengthM * mult,
		HeightM:     b.HeightM * mult,
	})
}

func (g *Generator) roadStep(budget int) int {
	u := g.localScale()
	for budget > 0 && g.roadIdx < len(g.ds.Roads) {
		r := g.ds.Roads[g.roadIdx]
		g.out.Roads = append(g.out.Roads, RoadEntity{
			ID:         fmt.Sprintf("road_%d", r.ID),
			Class:      r.Class,
			Name:       r.Name,
			WidthM:     r.WidthM,
			IsFootpath: r.IsFootpath,
			IsMajor:    r.IsMajor,
			Path:       r.LocalPath,
			Placements: placement.ResamplePath(r.LocalPath, g.cfg.RoadStepM*u, g.cfg.MinRemainderM*u),
		})
		g.roadIdx++
		budget--
	}
	if g.roadIdx >= len(g.ds.Roads) {
		g.state = StateIntersections
	}
	return budget
}

// intersectStep scans road pairs under the step budget; when the scan
// completes it emits the merged junctions and arms the scatterer.
func (g *Generator) intersectStep(budget int) int {
	if g.finder == nil {
		u := g.localScale()
		opts := placement.DefaultIntersectOptions()
		opts.EndpointDist *= u
		opts.MinSeparation *= u
		g.finder = placement.NewIntersectionFinder(g.ds.Roads, opts)
	}
	if !g.finder.Step(budget) {
		return 0
	}
	for _, p := range g.finder.Points() {
		g.out.Intersections = append(g.out.Intersections, IntersectionEntity{Position: p})
	}
	g.finder = nil
	g.beginScatter()
	return 0
}

func (g *Generator) beginScatter() {
	u := g.localScale()
	exclusions := placement.BuildExclusions(g.ds, g.cfg.FootprintPadding, g.cfg.CorridorMarginM, u)
	g.scatterer = placement.NewScatterer(placement.ScatterOptions{
		Radius:    g.cfg.RadiusM * u,
		CellSize:  g.cfg.ScatterCellM * u,
		Jitter:    g.cfg.ScatterJitter,
		Density:   g.cfg.TreeDensity,
		MaxPoints: g.cfg.MaxProps,
	}, exclusions, g.rng)
	g.state = StateScattering
}

func (g *Generator) scatterStep(budget int) int {
	done := g.scatterer.Step(budget)
	if !done {
		return 0
	}
	g.emitProps(g.scatterer.Points())
	g.finish()
	return 0
}

// Prop kind selection weights. Forest proximity biases toward trees.
var propKinds = []struct {
	kind   PropKind
	weight int
}{
	{PropTree, 55},
	{PropBush, 20},
	{PropGrass, 15},
	{PropRock, 10},
}

func (g *Generator) emitProps(points []geodata.Point) {
	for i, pt := range points {
		g.out.Props = append(g.out.Props, PropEntity{
			ID:          fmt.Sprintf("prop_%05d", i),
			Kind:        g.drawPropKind(),
			Position:    pt,
			RotationDeg: g.rng.Float64() * 360,
		})
	}
}

func (g *Generator) drawPropKind() PropKind {
	total := 0
	for _, pk := range propKinds {
		w := pk.weight
		if pk.kind == PropTree && g.nbCtx.NearForest {
			w *= 2
		}
		total += w
	}
	draw := g.rng.IntN(total)
	acc := 0
	for _, pk := range propKinds {
		w := pk.weight
		if pk.kind == PropTree && g.nbCtx.NearForest {
			w *= 2
		}
		acc += w
		if draw < acc {
			return pk.kind
		}
	}
	return PropTree
}

func (g *Generator) finish() {
	g.state = StateDone
	zap.L().Info("scene: generation complete",
		zap.String("run_id", g.out.RunID),
		zap.Int("buildings", len(g.out.Buildings)),
		zap.Int("roads", len(g.out.Roads)),
		zap.Int("props", len(g.out.Props)),
		zap.Int("intersections", len(g.out.Intersections)),
	)
	// Entities do not outlive the run on the generator's side; the
	// dataset is released as soon as the scene is assembled.
	g.ds = nil
	g.scatterer = nil
}

// localScale converts meter-denominated configuration into local units
// so placement parameters match the projected geometry.
func (g *Generator) localScale() float64 {
	if g.cfg.OutputScale <= 0 {
		return 1
	}
	return g.cfg.OutputScale
}
