// Package geodata holds the typed model for map-service features
// (buildings, roads, areas), their derived metrics, and the tag/context
// classification that maps raw features onto scene entity types.
package geodata

import (
	"github.com/twpayne/go-geom"
)

// Classification is the scene entity type assigned to a building.
type Classification string

// Building classifications.
const (
	ClassHouse     Classification = "house"
	ClassManor     Classification = "manor"
	ClassChurch    Classification = "church"
	ClassCathedral Classification = "cathedral"
	ClassCastle    Classification = "castle"
	ClassTower     Classification = "tower"
	ClassWarehouse Classification = "warehouse"
	ClassBarn      Classification = "barn"
	ClassShed      Classification = "shed"
	ClassShop      Classification = "shop"
	ClassTavern    Classification = "tavern"
	ClassTownhall  Classification = "townhall"
	ClassRuin      Classification = "ruin"
)

// SizeBucket buckets a building footprint area into one of six steps.
type SizeBucket int

// Size buckets in ascending area order.
const (
	SizeTiny SizeBucket = iota
	SizeSmall
	SizeMedium
	SizeLarge
	SizeVeryLarge
	SizeHuge
)

// Area thresholds in square meters. A footprint below the first threshold
// is Tiny, below the second Small, and so on; at or above the last it is
// Huge.
var sizeThresholds = [...]float64{50, 150, 400, 1000, 2500}

// BucketForArea returns the size bucket for a footprint area in m².
func BucketForArea(areaM2 float64) SizeBucket {
	for i, t := range sizeThresholds {
		if areaM2 < t {
			return SizeBucket(i)
		}
	}
	return SizeHuge
}

// String returns the lowercase bucket name.
func (b SizeBucket) String() string {
	switch b {
	case SizeTiny:
		return "tiny"
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	case SizeVeryLarge:
		return "verylarge"
	default:
		return "huge"
	}
}

// Building is a classified building footprint. Footprint geometry is
// immutable after parsing; derived metrics are computed once and the
// projected fields are populated by the projector in a single pass.
type Building struct {
	ID        int64
	Footprint *geom.Polygon // geographic lon/lat ring

	RawTag string  // value of the building=* tag
	Levels float64 // building:levels, 0 when absent

	// Derived metrics, meters and degrees.
	AreaM2         float64
	WidthM         float64
	LengthM        float64
	OrientationDeg float64
	HeightM        float64
	Bucket         SizeBucket

	Class Classification

	// Populated by the projector.
	LocalFootprint []Point
	LocalCentroid  Point
}

// Road is an ordered road centerline. A road that projects to fewer than
// two valid points is discarded, not emitted.
type Road struct {
	ID   int64
	Path *geom.LineString // geographic lon/lat

	Class string // highway=* tag value
	Name  string

	WidthM     float64
	IsFootpath bool
	IsMajor    bool

	LocalPath []Point
}

// AreaKind categorizes land-use polygons.
type AreaKind string

// Area kinds recognized by the parser.
const (
	AreaPark     AreaKind = "park"
	AreaForest   AreaKind = "forest"
	AreaWater    AreaKind = "water"
	AreaFarmland AreaKind = "farmland"
	AreaMeadow   AreaKind = "meadow"
)

// Area is a land-use polygon such as a park or woodland.
type Area struct {
	ID      int64
	Polygon *geom.Polygon

	Kind AreaKind

	CentroidLat float64
	CentroidLon float64
	RadiusM     float64

	LocalPolygon  []Point
	LocalCentroid Point
}

// Dataset is everything parsed from one map-service response.
type Dataset struct {
	Buildings []*Building
	Roads     []*Road
	Areas     []*Area

	// Synthetic is true when the dataset was generated as a network
	// fallback rather than parsed from a live response.
	Synthetic bool
}

// FeatureCount returns the total number of parsed features.
func (d *Dataset) FeatureCount() int {
	return len(d.Buildings) + len(d.Roads) + len(d.Areas)
}

// NeighborhoodContext is a read-only snapshot of a local region, computed
// once over the parsed dataset and passed immutably into classification.
type NeighborhoodContext struct {
	BuildingsPerKm2 float64
	Urban           bool
	NearWater       bool
	NearForest      bool
	NearMajorRoad   bool
}
