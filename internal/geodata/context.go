package geodata

import "math"

// Context thresholds. Density is buildings per square kilometer within
// the query radius.
const (
	urbanDensityThreshold = 300.0
	proximityRadiusM      = 400.0
)

// ComputeContext builds the neighborhood snapshot for a region centered
// at (lat, lon) with the given radius, from the already-parsed dataset.
// The snapshot is computed once per run and passed read-only into
// classification.
func ComputeContext(ds *Dataset, lat, lon, radiusM float64) NeighborhoodContext {
	var ctx NeighborhoodContext
	if radiusM <= 0 {
		return ctx
	}

	count := 0
	for _, b := range ds.Buildings {
		ring := footprintRing(b.Footprint)
		if len(ring) == 0 {
			continue
		}
		if DistanceM(lat, lon, ring[0][1], ring[0][0]) <= radiusM {
			count++
		}
	}
	areaKm2 := math.Pi * radiusM * radiusM / 1e6
	ctx.BuildingsPerKm2 = float64(count) / areaKm2
	ctx.Urban = ctx.BuildingsPerKm2 >= urbanDensityThreshold

	for _, a := range ds.Areas {
		d := DistanceM(lat, lon, a.CentroidLat, a.CentroidLon)
		// A large area counts as near when its rim comes within reach.
		near := d-a.RadiusM <= proximityRadiusM
		switch a.Kind {
		case AreaWater:
			ctx.NearWater = ctx.NearWater || near
		case AreaForest:
			ctx.NearForest = ctx.NearForest || near
		}
	}

	for _, r := range ds.Roads {
		if !r.IsMajor || r.Path == nil {
			continue
		}
		for _, c := range r.Path.Coords() {
			if DistanceM(lat, lon, c[1], c[0]) <= radiusM {
				ctx.NearMajorRoad = true
				break
			}
		}
		if ctx.NearMajorRoad {
			break
		}
	}

	return ctx
}
