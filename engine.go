package zonalstats

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// cellIdx addresses a cell of a bounded Grid by row and column.
type cellIdx struct{ row, col int }

// Intersect computes, for every cell of grid's bounded extent, the
// fraction of the cell's area covered by poly. Cells entirely outside
// poly are 0; cells entirely inside are 1; cells the polygon boundary
// passes through hold the exact clipped-fragment fraction.
//
// Intersect works on grid.Bounded() only: the ghost margin is not used,
// and boundary points outside the bounded extent are dropped by explicit
// bounds checks (containingCell, clampRow, clampCol). The result covers
// the bounded grid.
//
// Intersect recovers from panics raised by malformed polygon geometry
// (self-intersections, NaN/Inf vertices) deep in the clipping library
// and reports them as InvalidGeometry rather than crashing the caller.
func Intersect(poly geom.Polygonal, grid *InfiniteGrid) (raster *Raster[float64], err error) {
	defer func() {
		if p := recover(); p != nil {
			raster = nil
			err = &Error{Kind: InvalidGeometry, Err: errf("cell intersection: %v", p)}
		}
	}()

	bg := grid.Bounded()
	out := NewRaster[float64](bg)

	pb := poly.Bounds()
	if pb.Empty() {
		return nil, &Error{Kind: InvalidGeometry, Err: errf("polygon has empty bounds")}
	}
	if !finiteBounds(pb) {
		return nil, &Error{Kind: InvalidGeometry, Err: errf("polygon bounds are not finite")}
	}

	rowMin := clampRow(bg, pb.Max.Y)
	rowMax := clampRow(bg, pb.Min.Y)
	colMin := clampCol(bg, pb.Min.X)
	colMax := clampCol(bg, pb.Max.X)
	if rowMax < rowMin || colMax < colMin {
		// Polygon's bounding box doesn't touch the grid at all.
		return out, nil
	}

	boundary := make(map[cellIdx]bool)
	for _, seg := range segmentsOf(poly) {
		for _, c := range traverseSegment(seg, bg) {
			if c.row < rowMin || c.row > rowMax || c.col < colMin || c.col > colMax {
				continue
			}
			boundary[c] = true
		}
	}

	cellArea := bg.dx * bg.dy
	for c := range boundary {
		frag := cellPolygon(bg.CellBox(c.row, c.col)).Intersection(poly)
		cov := frag.Area() / cellArea
		if cov > 1 {
			cov = 1
		}
		out.Set(c.row, c.col, cov)
	}

	floodFill(out, bg, poly, boundary, rowMin, rowMax, colMin, colMax)
	return out, nil
}

// floodFill assigns full (1) or empty (0) coverage to every cell in
// [rowMin,rowMax]x[colMin,colMax] that the boundary traversal did not
// already classify as a boundary cell, by partitioning each row into
// maximal runs between boundary columns and testing one representative
// point per run, per spec.md's horizontal-scanline approach.
func floodFill(out *Raster[float64], bg *Grid, poly geom.Polygonal, boundary map[cellIdx]bool, rowMin, rowMax, colMin, colMax int) {
	for row := rowMin; row <= rowMax; row++ {
		col := colMin
		for col <= colMax {
			if boundary[cellIdx{row, col}] {
				col++
				continue
			}
			runStart := col
			for col <= colMax && !boundary[cellIdx{row, col}] {
				col++
			}
			runEnd := col - 1
			center := bg.CellCenter(row, runStart)
			if center.Within(poly) != geom.Outside {
				for cc := runStart; cc <= runEnd; cc++ {
					out.Set(row, cc, 1)
				}
			}
		}
	}
}

// traverseSegment returns every bounded-grid cell that seg passes
// through, found by walking the parametric crossings of seg with the
// grid's vertical and horizontal lines (a standard supercover DDA) and
// sampling the midpoint of each resulting sub-segment. Cells outside
// bg's extent are omitted.
func traverseSegment(seg Segment, bg *Grid) []cellIdx {
	x0, y0 := seg.A.X, seg.A.Y
	x1, y1 := seg.B.X, seg.B.Y
	dx := x1 - x0
	dy := y1 - y0

	ts := []float64{0, 1}
	if dx != 0 {
		c0 := int(math.Floor((math.Min(x0, x1) - bg.extent.XMin) / bg.dx))
		c1 := int(math.Ceil((math.Max(x0, x1) - bg.extent.XMin) / bg.dx))
		for c := c0; c <= c1; c++ {
			xLine := bg.extent.XMin + float64(c)*bg.dx
			t := (xLine - x0) / dx
			if t > 0 && t < 1 {
				ts = append(ts, t)
			}
		}
	}
	if dy != 0 {
		r0 := int(math.Floor((bg.extent.YMax - math.Max(y0, y1)) / bg.dy))
		r1 := int(math.Ceil((bg.extent.YMax - math.Min(y0, y1)) / bg.dy))
		for r := r0; r <= r1; r++ {
			yLine := bg.extent.YMax - float64(r)*bg.dy
			t := (yLine - y0) / dy
			if t > 0 && t < 1 {
				ts = append(ts, t)
			}
		}
	}
	sort.Float64s(ts)

	var cells []cellIdx
	for i := 0; i+1 < len(ts); i++ {
		if ts[i+1]-ts[i] < 1e-12 {
			continue
		}
		tm := (ts[i] + ts[i+1]) / 2
		px := x0 + tm*dx
		py := y0 + tm*dy
		if row, col, ok := containingCell(bg, px, py); ok {
			cells = append(cells, cellIdx{row, col})
		}
	}
	return cells
}

func containingCell(bg *Grid, x, y float64) (row, col int, ok bool) {
	row, err := bg.GetRow(y)
	if err != nil {
		return 0, 0, false
	}
	col, err = bg.GetColumn(x)
	if err != nil {
		return 0, 0, false
	}
	return row, col, true
}

func clampRow(bg *Grid, y float64) int {
	if y >= bg.extent.YMax {
		return 0
	}
	if y <= bg.extent.YMin {
		return bg.rows - 1
	}
	r, _ := bg.GetRow(y)
	return r
}

func clampCol(bg *Grid, x float64) int {
	if x <= bg.extent.XMin {
		return 0
	}
	if x >= bg.extent.XMax {
		return bg.cols - 1
	}
	c, _ := bg.GetColumn(x)
	return c
}

func finiteBounds(b *geom.Bounds) bool {
	vs := []float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
	for _, v := range vs {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// cellPolygon returns the closed-ring rectangle covered by box, in the
// OGC convention geom.Polygon expects (first point repeated as last).
func cellPolygon(box Box) geom.Polygon {
	return geom.Polygon{{
		{X: box.XMin, Y: box.YMin},
		{X: box.XMax, Y: box.YMin},
		{X: box.XMax, Y: box.YMax},
		{X: box.XMin, Y: box.YMax},
		{X: box.XMin, Y: box.YMin},
	}}
}
