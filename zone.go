package zonalstats

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// Zone is one polygon yielded by a PolygonProvider: an identifier plus
// its geometry.
type Zone struct {
	ID      string
	Polygon geom.Polygonal
}

// PolygonProvider streams the zones to be processed. Next returns
// (nil, false) once exhausted; a provider backed by a file (see
// providers/shpzones) is free to stream lazily rather than loading every
// zone up front.
type PolygonProvider interface {
	Next() (*Zone, bool)
}

// RasterProvider supplies the raster data a zone is measured against,
// bounded to a requested extent. Grid returns the provider's native
// grid (its full, un-cropped extent and cell size); Raster returns the
// cell values covering box, snapped outward to the provider's own grid
// lines.
type RasterProvider interface {
	Grid() *Grid
	Raster(box Box) (*Raster[float64], error)
}

// OutputSink receives the result of processing each zone. Write is
// called for a zone that completed successfully; WriteError is called,
// per spec.md §7's policy, for a zone that failed with a reported error
// so that the run as a whole continues past it.
type OutputSink interface {
	Write(id string, stats map[string]float64) error
	WriteError(id string, err error) error
}

// Process runs the zonal-statistics pipeline described in SPEC_FULL.md
// §4.5 ("multi-raster zone driver") over every zone polys yields: shrink
// the values grid to the zone's bounding box, compute a common
// refinement with weights if given, subdivide the refined grid into
// tiles no larger than maxCellsInMemory cells, and for each tile run the
// cell-intersection engine and fold the result into an Accumulator.
// Once every tile of a zone has been folded, stats is evaluated and the
// result (or, on failure, the error) is handed to sink.
//
// Grounded in the teacher's emissions/aep/surrogate.go orchestration
// (createSurrogate -> intersections1/intersections2 -> ToGrid): bound
// grid to shape, find candidate cells, clip, accumulate, emit. A zone
// that fails with InvalidGeometry or OutOfExtent is reported to sink and
// processing continues with the next zone, matching spec.md §7.
func Process(polys PolygonProvider, values RasterProvider, weights RasterProvider, stats []Statistic, maxCellsInMemory int, sink OutputSink) error {
	storeValues := NeedsFrequency(stats)

	for {
		zone, ok := polys.Next()
		if !ok {
			break
		}
		results, err := processZone(zone, values, weights, stats, maxCellsInMemory, storeValues)
		if err != nil {
			logrus.WithError(err).WithField("zone", zone.ID).Warn("zonalstats: zone failed")
			if werr := sink.WriteError(zone.ID, withZone(zone.ID, err)); werr != nil {
				return werr
			}
			continue
		}
		if err := sink.Write(zone.ID, results); err != nil {
			return err
		}
	}
	return nil
}

func processZone(zone *Zone, values, weights RasterProvider, stats []Statistic, maxCellsInMemory int, storeValues bool) (map[string]float64, error) {
	pb := zone.Polygon.Bounds()
	box := Box{XMin: pb.Min.X, YMin: pb.Min.Y, XMax: pb.Max.X, YMax: pb.Max.Y}

	vg := values.Grid().ShrinkToFit(box)
	refined := vg
	if weights != nil {
		wg := weights.Grid().ShrinkToFit(box)
		cg, err := vg.CommonGrid(wg)
		if err != nil {
			return nil, err
		}
		refined = cg
	}

	acc := NewAccumulator(storeValues)
	next := refined.Subdivide(maxCellsInMemory)
	for {
		tile, ok := next()
		if !ok {
			break
		}
		tileBox := tile.Extent()

		coverage, err := Intersect(zone.Polygon, tile.Infinite())
		if err != nil {
			return nil, err
		}

		valRaster, err := values.Raster(tileBox)
		if err != nil {
			return nil, err
		}
		valView, err := NewRasterView(valRaster, tile, nanValue)
		if err != nil {
			return nil, err
		}
		valDense := densify(valView)

		if weights == nil {
			acc.Process(coverage, valDense)
			continue
		}
		wRaster, err := weights.Raster(tileBox)
		if err != nil {
			return nil, err
		}
		wView, err := NewRasterView(wRaster, tile, nanValue)
		if err != nil {
			return nil, err
		}
		acc.ProcessWeighted(coverage, valDense, densify(wView))
	}

	return acc.Results(stats)
}

// nanValue is the nodata sentinel used when reinterpreting a
// RasterProvider's native raster onto a tile grid: a tile cell with no
// backing source cell carries no value and must be skipped by the
// accumulator, matching the package's NaN-is-nodata convention.
var nanValue = math.NaN()

// densify materializes a RasterView into a plain Raster, since
// Accumulator.ProcessWeighted reads dense rasters directly.
func densify(v *RasterView[float64]) *Raster[float64] {
	out := NewRaster[float64](v.Grid())
	for r := 0; r < v.Rows(); r++ {
		for c := 0; c < v.Cols(); c++ {
			out.Set(r, c, v.At(r, c))
		}
	}
	return out
}
