// Package export writes generated scenes to ESRI shapefiles so layouts
// can be inspected in GIS tooling.
package export

import (
	"math"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mapscene/internal/geodata"
	"github.com/sells-group/mapscene/internal/scene"
)

// WriteBuildings writes building footprints as a POLYGON shapefile with
// class and size attributes.
func WriteBuildings(path string, buildings []scene.BuildingEntity) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrap(err, "export: create buildings shapefile")
	}
	defer w.Close() //nolint:errcheck

	w.SetFields([]shp.Field{
		shp.StringField("ID", 24),
		shp.StringField("CLASS", 16),
		shp.StringField("BUCKET", 12),
		shp.FloatField("HEIGHT_M", 12, 2),
	})

	row := 0
	for _, b := range buildings {
		if len(b.Footprint) < 3 {
			zap.L().Debug("export: skipping building with degenerate footprint",
				zap.String("id", b.ID))
			continue
		}
		w.Write(polygonShape(b.Footprint))
		w.WriteAttribute(row, 0, b.ID)
		w.WriteAttribute(row, 1, string(b.Class))
		w.WriteAttribute(row, 2, b.Bucket)
		w.WriteAttribute(row, 3, b.HeightM)
		row++
	}
	return nil
}

// WriteRoads writes road centerlines as a POLYLINE shapefile.
func WriteRoads(path string, roads []scene.RoadEntity) error {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return eris.Wrap(err, "export: create roads shapefile")
	}
	defer w.Close() //nolint:errcheck

	w.SetFields([]shp.Field{
		shp.StringField("ID", 24),
		shp.StringField("CLASS", 16),
		shp.StringField("NAME", 48),
		shp.FloatField("WIDTH_M", 12, 2),
	})

	row := 0
	for _, r := range roads {
		if len(r.Path) < 2 {
			continue
		}
		w.Write(polylineShape(r.Path))
		w.WriteAttribute(row, 0, r.ID)
		w.WriteAttribute(row, 1, r.Class)
		w.WriteAttribute(row, 2, r.Name)
		w.WriteAttribute(row, 3, r.WidthM)
		row++
	}
	return nil
}

// polygonShape converts a local-frame ring to a closed shapefile
// polygon.
func polygonShape(pts []geodata.Point) *shp.Polygon {
	ring := make([]shp.Point, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, shp.Point{X: p.X, Y: p.Z})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	poly := shp.Polygon(*polyline(ring))
	return &poly
}

func polylineShape(pts []geodata.Point) *shp.PolyLine {
	line := make([]shp.Point, 0, len(pts))
	for _, p := range pts {
		line = append(line, shp.Point{X: p.X, Y: p.Z})
	}
	return polyline(line)
}

func polyline(points []shp.Point) *shp.PolyLine {
	box := shp.Box{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range points {
		box.MinX = math.Min(box.MinX, p.X)
		box.MinY = math.Min(box.MinY, p.Y)
		box.MaxX = math.Max(box.MaxX, p.X)
		box.MaxY = math.Max(box.MaxY, p.Y)
	}
	return &shp.PolyLine{
		Box:       box,
		NumParts:  1,
		NumPoints: int32(len(points)),
		Parts:     []int32{0},
		Points:    points,
	}
}
