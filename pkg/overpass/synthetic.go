package overpass

import (
	"fmt"
	"strings"
)

// Synthetic fallback layout: a gridSize×gridSize block of small
// structures plus two streets crossing at the box center. The output is
// a fixed function of the bounding box, so repeated fallbacks for the
// same region produce identical datasets.
const (
	gridSize        = 4
	buildingHalfDeg = 0.00008 // roughly a 9m half-side at mid latitudes
)

// SyntheticResponse builds a deterministic Overpass-style JSON response
// for the given bounding box.
func SyntheticResponse(box BBox) string {
	var sb strings.Builder
	sb.WriteString(`{"elements":[`)

	cLat := (box.South + box.North) / 2
	cLon := (box.West + box.East) / 2
	spanLat := (box.North - box.South) / 2
	spanLon := (box.East - box.West) / 2

	nodeID := int64(1)
	wayID := int64(100000)
	first := true

	writeNode := func(id int64, lat, lon float64) {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&sb, `{"type":"node","id":%d,"lat":%.7f,"lon":%.7f}`, id, lat, lon)
	}
	writeWay := func(id int64, nodes []int64, tags string) {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(&sb, `{"type":"way","id":%d,"nodes":[%s],"tags":{%s}}`,
			id, strings.Join(ids, ","), tags)
	}

	// Structure grid in the inner half of the box.
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			fLat := (float64(row)/float64(gridSize-1) - 0.5)
			fLon := (float64(col)/float64(gridSize-1) - 0.5)
			lat := cLat + fLat*spanLat
			lon := cLon + fLon*spanLon

			// Leave the crossing streets clear.
			if fLat > -0.12 && fLat < 0.12 {
				continue
			}
			if fLon > -0.12 && fLon < 0.12 {
				continue
			}

			base := nodeID
			writeNode(base, lat-buildingHalfDeg, lon-buildingHalfDeg)
			writeNode(base+1, lat-buildingHalfDeg, lon+buildingHalfDeg)
			writeNode(base+2, lat+buildingHalfDeg, lon+buildingHalfDeg)
			writeNode(base+3, lat+buildingHalfDeg, lon-buildingHalfDeg)
			nodeID += 4

			writeWay(wayID, []int64{base, base + 1, base + 2, base + 3, base},
				`"building":"house"`)
			wayID++
		}
	}

	// Two cross streets through the center.
	h1, h2 := nodeID, nodeID+1
	writeNode(h1, cLat, box.West)
	writeNode(h2, cLat, box.East)
	v1, v2 := nodeID+2, nodeID+3
	writeNode(v1, box.South, cLon)
	writeNode(v2, box.North, cLon)
	nodeID += 4

	writeWay(wayID, []int64{h1, h2}, `"highway":"residential","name":"East Street"`)
	writeWay(wayID+1, []int64{v1, v2}, `"highway":"residential","name":"North Street"`)

	sb.WriteString(`]}`)
	return sb.String()
}
