package geodata

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/mapscene/internal/decoder"
)

var nameCaser = cases.Title(language.Und, cases.NoLower)

// ParseDataset decodes a raw map-service response and builds the typed
// dataset. Elements may arrive in any order; nodes are indexed in a first
// pass and ways resolved in a second. Malformed input or an absent
// elements array yields an empty dataset, never an error. Degenerate
// features (polygons under 3 points, roads under 2) are skipped
// individually.
func ParseDataset(raw string, originLat float64) *Dataset {
	ds := &Dataset{}

	root, ok := decoder.ParseObject(raw)
	if !ok {
		zap.L().Warn("geodata: response not parseable, returning empty dataset")
		return ds
	}
	elements := decoder.GetArray(root, "elements")
	if len(elements) == 0 {
		return ds
	}

	// First pass: index node coordinates by id.
	nodes := make(map[int64][2]float64)
	for _, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok || decoder.GetString(obj, "type") != "node" {
			continue
		}
		id := int64(decoder.GetNumber(obj, "id"))
		nodes[id] = [2]float64{decoder.GetNumber(obj, "lon"), decoder.GetNumber(obj, "lat")}
	}

	// Second pass: resolve ways against the node index.
	for _, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok || decoder.GetString(obj, "type") != "way" {
			continue
		}
		parseWay(ds, obj, nodes, originLat)
	}

	zap.L().Debug("geodata: parsed dataset",
		zap.Int("buildings", len(ds.Buildings)),
		zap.Int("roads", len(ds.Roads)),
		zap.Int("areas", len(ds.Areas)),
	)
	return ds
}

func parseWay(ds *Dataset, obj map[string]any, nodes map[int64][2]float64, originLat float64) {
	id := int64(decoder.GetNumber(obj, "id"))
	tags := stringTags(decoder.GetObject(obj, "tags"))

	coords := resolveCoords(decoder.GetArray(obj, "nodes"), nodes)

	switch {
	case tags["building"] != "":
		b := parseBuilding(id, coords, tags, originLat)
		if b != nil {
			ds.Buildings = append(ds.Buildings, b)
		}
	case tags["highway"] != "":
		r := parseRoad(id, coords, tags)
		if r != nil {
			ds.Roads = append(ds.Roads, r)
		}
	default:
		kind, ok := areaKind(tags)
		if !ok {
			return
		}
		a := parseArea(id, coords, kind)
		if a != nil {
			ds.Areas = append(ds.Areas, a)
		}
	}
}

// resolveCoords maps a way's node-id list to lon/lat coordinates,
// dropping references to nodes missing from the response.
func resolveCoords(ids []any, nodes map[int64][2]float64) []geom.Coord {
	coords := make([]geom.Coord, 0, len(ids))
	for _, raw := range ids {
		idf, ok := raw.(float64)
		if !ok {
			continue
		}
		ll, ok := nodes[int64(idf)]
		if !ok {
			continue
		}
		coords = append(coords, geom.Coord{ll[0], ll[1]})
	}
	return coords
}

func parseBuilding(id int64, coords []geom.Coord, tags map[string]string, originLat float64) *Building {
	ring := closeRing(coords)
	if len(ring) < 4 { // closed ring: 3 distinct points minimum
		zap.L().Debug("geodata: skipping degenerate building footprint", zap.Int64("id", id))
		return nil
	}
	poly := geom.NewPolygon(geom.XY)
	if _, err := poly.SetCoords([][]geom.Coord{ring}); err != nil {
		zap.L().Debug("geodata: skipping building with invalid ring", zap.Int64("id", id))
		return nil
	}

	b := &Building{
		ID:        id,
		Footprint: poly,
		RawTag:    tags["building"],
	}
	if lv, err := strconv.ParseFloat(tags["building:levels"], 64); err == nil && lv > 0 {
		b.Levels = lv
	}
	ComputeBuildingMetrics(b, originLat)
	if h, err := strconv.ParseFloat(strings.TrimSuffix(tags["height"], " m"), 64); err == nil && h > 0 {
		b.HeightM = h
	}
	return b
}

func parseRoad(id int64, coords []geom.Coord, tags map[string]string) *Road {
	if len(coords) < 2 {
		zap.L().Debug("geodata: skipping degenerate road", zap.Int64("id", id))
		return nil
	}
	line := geom.NewLineString(geom.XY)
	if _, err := line.SetCoords(coords); err != nil {
		zap.L().Debug("geodata: skipping road with invalid path", zap.Int64("id", id))
		return nil
	}

	r := &Road{
		ID:    id,
		Path:  line,
		Class: tags["highway"],
		Name:  normalizeName(tags["name"]),
	}
	ComputeRoadMetrics(r)
	return r
}

func parseArea(id int64, coords []geom.Coord, kind AreaKind) *Area {
	ring := closeRing(coords)
	if len(ring) < 4 {
		zap.L().Debug("geodata: skipping degenerate area", zap.Int64("id", id))
		return nil
	}
	poly := geom.NewPolygon(geom.XY)
	if _, err := poly.SetCoords([][]geom.Coord{ring}); err != nil {
		return nil
	}
	a := &Area{ID: id, Polygon: poly, Kind: kind}
	ComputeAreaMetrics(a)
	return a
}

// closeRing appends the first coordinate when the ring is not closed.
func closeRing(coords []geom.Coord) []geom.Coord {
	if len(coords) < 3 {
		return coords
	}
	first, last := coords[0], coords[len(coords)-1]
	if first[0] != last[0] || first[1] != last[1] {
		coords = append(coords, geom.Coord{first[0], first[1]})
	}
	return coords
}

func areaKind(tags map[string]string) (AreaKind, bool) {
	switch {
	case tags["leisure"] == "park":
		return AreaPark, true
	case tags["natural"] == "wood", tags["landuse"] == "forest":
		return AreaForest, true
	case tags["natural"] == "water", tags["landuse"] == "reservoir", tags["waterway"] != "":
		return AreaWater, true
	case tags["landuse"] == "farmland":
		return AreaFarmland, true
	case tags["landuse"] == "meadow", tags["landuse"] == "grass":
		return AreaMeadow, true
	}
	return "", false
}

func stringTags(obj map[string]any) map[string]string {
	tags := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			tags[k] = s
		}
	}
	return tags
}

// normalizeName trims and title-cases a feature name tag.
func normalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	return nameCaser.String(name)
}
