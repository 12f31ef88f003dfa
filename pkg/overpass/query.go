// Package overpass fetches map vector data from Overpass-compatible
// endpoints with failover, rate limiting, and a TTL cache, falling back
// to a deterministic synthetic dataset when every endpoint fails.
package overpass

import (
	"fmt"
	"math"
)

// BBox is a geographic bounding box in Overpass order.
type BBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

// String renders the box as Overpass "(s,w,n,e)" arguments.
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.South, b.West, b.North, b.East)
}

// metersPerDegreeLat mirrors the geodata constant; duplicated here so the
// fetch layer stays free of model imports.
const metersPerDegreeLat = 111320.0

// BoundingBox computes the box centered at (lat, lon) spanning radiusM
// meters in every direction, with the longitude span widened by the
// latitude correction.
func BoundingBox(lat, lon, radiusM float64) BBox {
	dLat := radiusM / metersPerDegreeLat
	dLon := radiusM / (metersPerDegreeLat * math.Cos(lat*math.Pi/180))
	return BBox{
		South: lat - dLat,
		West:  lon - dLon,
		North: lat + dLat,
		East:  lon + dLon,
	}
}

// queryTemplate requests building, highway, park, and woodland ways plus
// their constituent nodes, as JSON.
const queryTemplate = `[out:json][timeout:%d];
(
  way["building"](%s);
  way["highway"](%s);
  way["leisure"="park"](%s);
  way["natural"="wood"](%s);
);
(._;>;);
out body;`

// BuildQuery renders the Overpass QL query for a bounding box.
func BuildQuery(box BBox, timeoutSecs int) string {
	s := box.String()
	return fmt.Sprintf(queryTemplate, timeoutSecs, s, s, s, s)
}
