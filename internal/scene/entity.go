// Package scene assembles the final output of a generation run: the
// classified, positioned entity lists consumed by presentation code.
// Positions are local-frame meters; rotations are degrees about the
// vertical axis. Nothing else couples the core to presentation.
package scene

import (
	"github.com/sells-group/mapscene/internal/geodata"
	"github.com/sells-group/mapscene/internal/placement"
)

// PropKind is the type of a scattered secondary entity.
type PropKind string

// Prop kinds.
const (
	PropTree  PropKind = "tree"
	PropBush  PropKind = "bush"
	PropRock  PropKind = "rock"
	PropGrass PropKind = "grass"
)

// BuildingEntity is one positioned, classified building.
type BuildingEntity struct {
	ID          string                 `json:"id"`
	Position    geodata.Point          `json:"position"`
	RotationDeg float64                `json:"rotation_deg"`
	Class       geodata.Classification `json:"class"`
	Bucket      string                 `json:"size_bucket"`
	Footprint   []geodata.Point        `json:"footprint"`
	WidthM      float64                `json:"width_m"`
	LengthM     float64                `json:"length_m"`
	HeightM     float64                `json:"height_m"`
}

// RoadEntity is one road with its resampled placement points.
type RoadEntity struct {
	ID         string                `json:"id"`
	Class      string                `json:"class"`
	Name       string                `json:"name,omitempty"`
	WidthM     float64               `json:"width_m"`
	IsFootpath bool                  `json:"is_footpath"`
	IsMajor    bool                  `json:"is_major"`
	Path       []geodata.Point       `json:"path"`
	Placements []placement.PathPoint `json:"placements"`
}

// PropEntity is one scattered vegetation or ground-cover item.
type PropEntity struct {
	ID          string        `json:"id"`
	Kind        PropKind      `json:"kind"`
	Position    geodata.Point `json:"position"`
	RotationDeg float64       `json:"rotation_deg"`
}

// IntersectionEntity marks a detected street junction.
type IntersectionEntity struct {
	Position geodata.Point `json:"position"`
}

// Scene is the complete output of one generation run. All entities share
// one local frame and die with the run; only the fetch cache persists.
type Scene struct {
	RunID     string  `json:"run_id"`
	OriginLat float64 `json:"origin_lat"`
	OriginLon float64 `json:"origin_lon"`
	Seed      uint64  `json:"seed"`

	Buildings     []BuildingEntity            `json:"buildings"`
	Roads         []RoadEntity                `json:"roads"`
	Props         []PropEntity                `json:"props"`
	Intersections []IntersectionEntity        `json:"intersections"`
	Context       geodata.NeighborhoodContext `json:"context"`

	// Synthetic marks a run fed entirely by the network fallback;
	// Supplemented marks sparse live data topped up procedurally.
	Synthetic    bool `json:"synthetic"`
	Supplemented bool `json:"supplemented"`
}
