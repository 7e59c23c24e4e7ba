package zonalstats

import (
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// DefaultRelTol is the relative tolerance used to absorb floating-point
// noise when comparing cell sizes and grid origins (grid compatibility,
// shrink-to-fit snapping). It can be overridden by a caller working with
// an unusually fine grid; see SPEC_FULL.md's resolution of the
// tolerance-tuning open question.
var DefaultRelTol = 1e-6

// DefaultCoordTol is the relative tolerance used when mapping a coordinate
// to a row/column index, i.e. deciding whether a point lies close enough
// to a grid line to be treated as exactly on it.
var DefaultCoordTol = 1e-8

// Grid describes an axis-aligned regular grid by its extent and cell
// size. Grid values are immutable. Row 0 is at the top of the extent
// (largest y); column 0 is at the left (smallest x).
type Grid struct {
	extent Box
	dx, dy float64
	rows   int
	cols   int
}

// NewGrid constructs a bounded Grid over extent with cell size dx by dy.
// dx and dy must be positive. The row and column counts are derived from
// the extent, rounding half-away-from-zero with DefaultRelTol slack for
// floating-point noise.
func NewGrid(extent Box, dx, dy float64) (*Grid, error) {
	if dx <= 0 || dy <= 0 {
		return nil, &Error{Kind: InvalidGeometry, Err: errf("grid cell size must be positive, got dx=%g dy=%g", dx, dy)}
	}
	cols := roundHalfAwayFromZero((extent.XMax - extent.XMin) / dx)
	rows := roundHalfAwayFromZero((extent.YMax - extent.YMin) / dy)
	if cols < 1 || rows < 1 {
		return nil, &Error{Kind: InvalidGeometry, Err: errf("grid extent %v too small for cell size dx=%g dy=%g", extent, dx, dy)}
	}
	return &Grid{extent: extent, dx: dx, dy: dy, rows: rows, cols: cols}, nil
}

func roundHalfAwayFromZero(x float64) int {
	if x >= 0 {
		return int(math.Floor(x + 0.5 + DefaultRelTol))
	}
	return -int(math.Floor(-x + 0.5 + DefaultRelTol))
}

// Extent returns the grid's bounding box.
func (g *Grid) Extent() Box { return g.extent }

// Dx returns the cell width.
func (g *Grid) Dx() float64 { return g.dx }

// Dy returns the cell height.
func (g *Grid) Dy() float64 { return g.dy }

// Rows returns the number of rows in the bounded grid.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns in the bounded grid.
func (g *Grid) Cols() int { return g.cols }

// CellBox returns the rectangle covered by cell (r,c).
func (g *Grid) CellBox(r, c int) Box {
	x0 := g.extent.XMin + float64(c)*g.dx
	y1 := g.extent.YMax - float64(r)*g.dy
	return Box{XMin: x0, YMin: y1 - g.dy, XMax: x0 + g.dx, YMax: y1}
}

// CellCenter returns the coordinates of the center of cell (r,c).
func (g *Grid) CellCenter(r, c int) geom.Point {
	b := g.CellBox(r, c)
	return geom.Point{X: (b.XMin + b.XMax) / 2, Y: (b.YMin + b.YMax) / 2}
}

// GetRow returns the row index containing y. Points exactly on an
// interior grid line round toward the upper (smaller-index) row.
// Coordinates outside [YMin, YMax] fail with OutOfExtent.
func (g *Grid) GetRow(y float64) (int, error) {
	if !g.withinAxis(y, g.extent.YMin, g.extent.YMax, g.dy) {
		return 0, &Error{Kind: OutOfExtent, Err: errf("y=%g outside grid extent [%g, %g]", y, g.extent.YMin, g.extent.YMax)}
	}
	r := g.rowFrac(y)
	ri := int(math.Floor(r))
	if float64(ri) == r && ri > 0 {
		// y lies on a grid line: take the row above it.
		ri--
	}
	if ri >= g.rows {
		ri = g.rows - 1
	}
	if ri < 0 {
		ri = 0
	}
	return ri, nil
}

// GetColumn returns the column index containing x, following the same
// tie-breaking and error policy as GetRow.
func (g *Grid) GetColumn(x float64) (int, error) {
	if !g.withinAxis(x, g.extent.XMin, g.extent.XMax, g.dx) {
		return 0, &Error{Kind: OutOfExtent, Err: errf("x=%g outside grid extent [%g, %g]", x, g.extent.XMin, g.extent.XMax)}
	}
	c := g.colFrac(x)
	ci := int(math.Floor(c))
	if float64(ci) == c && ci > 0 {
		// x lies on a grid line: take the column left of it.
		ci--
	}
	if ci >= g.cols {
		ci = g.cols - 1
	}
	if ci < 0 {
		ci = 0
	}
	return ci, nil
}

// rowFrac returns the (possibly fractional) row coordinate of y, snapped
// to an exact integer when y lies on a grid line within tolerance (see
// nudgeDown).
func (g *Grid) rowFrac(y float64) float64 {
	frac := (g.extent.YMax - y) / g.dy
	return nudgeDown(frac)
}

func (g *Grid) colFrac(x float64) float64 {
	frac := (x - g.extent.XMin) / g.dx
	return nudgeDown(frac)
}

// nudgeDown snaps v to the nearest integer when it is within 1e-12
// absolute or DefaultCoordTol relative of it, so that a value landing on
// a grid line up to floating-point noise is treated as exactly on it;
// otherwise v is returned unchanged.
func nudgeDown(v float64) float64 {
	nearest := math.Round(v)
	if floats.EqualWithinAbsOrRel(v, nearest, 1e-12, DefaultCoordTol) {
		return nearest
	}
	return v
}

func (g *Grid) withinAxis(v, min, max, cell float64) bool {
	tol := cell * DefaultCoordTol
	return v >= min-tol && v <= max+tol
}

// ShrinkToFit returns a new Grid whose extent is the smallest aligned
// super-box of box, snapped to this grid's lines. The cell size is
// preserved. ShrinkToFit is idempotent: shrinking an already-snapped box
// returns the same extent.
func (g *Grid) ShrinkToFit(box Box) *Grid {
	x0 := snapDown(box.XMin, g.extent.XMin, g.dx)
	x1 := snapUp(box.XMax, g.extent.XMin, g.dx)
	y0 := snapDown(box.YMin, g.extent.YMin, g.dy)
	y1 := snapUp(box.YMax, g.extent.YMin, g.dy)
	ng := &Grid{extent: Box{XMin: x0, YMin: y0, XMax: x1, YMax: y1}, dx: g.dx, dy: g.dy}
	ng.rows = roundHalfAwayFromZero((y1 - y0) / g.dy)
	ng.cols = roundHalfAwayFromZero((x1 - x0) / g.dx)
	return ng
}

// snapDown finds the grid line at or below v, where grid lines are at
// origin + n*cell for integer n. If v already coincides with a grid line
// within tolerance, that line is returned unchanged (no snap).
func snapDown(v, origin, cell float64) float64 {
	n := (v - origin) / cell
	rounded := math.Round(n)
	if floats.EqualWithinAbsOrRel(n, rounded, 1e-12, DefaultRelTol) {
		return origin + rounded*cell
	}
	return origin + math.Floor(n)*cell
}

// snapUp is the upward-rounding counterpart of snapDown.
func snapUp(v, origin, cell float64) float64 {
	n := (v - origin) / cell
	rounded := math.Round(n)
	if floats.EqualWithinAbsOrRel(n, rounded, 1e-12, DefaultRelTol) {
		return origin + rounded*cell
	}
	return origin + math.Ceil(n)*cell
}

// CompatibleWith reports whether g and other can be combined with
// CommonGrid: the cell sizes must be integer ratios of one another (in
// either direction) on each axis, and the origins must align on the
// finer of the two cell sizes.
func (g *Grid) CompatibleWith(other *Grid) bool {
	if !axisCompatible(g.dx, other.dx) || !axisCompatible(g.dy, other.dy) {
		return false
	}
	fineDx := math.Min(g.dx, other.dx)
	fineDy := math.Min(g.dy, other.dy)
	return alignedOnAxis(g.extent.XMin, other.extent.XMin, fineDx) &&
		alignedOnAxis(g.extent.YMin, other.extent.YMin, fineDy)
}

func axisCompatible(a, b float64) bool {
	ratio := a / b
	if ratio < 1 {
		ratio = 1 / ratio
	}
	return floats.EqualWithinAbsOrRel(ratio, math.Round(ratio), 1e-12, DefaultRelTol)
}

func alignedOnAxis(a, b, fineCell float64) bool {
	n := (a - b) / fineCell
	return floats.EqualWithinAbsOrRel(n, math.Round(n), 1e-12, DefaultRelTol)
}

// CommonGrid returns the grid with the finer cell size on each axis whose
// extent is the union of g's and other's extents, snapped to the finer
// grid lines. CommonGrid requires g.CompatibleWith(other); it fails with
// IncompatibleGrids otherwise. CommonGrid is commutative:
// g.CommonGrid(other) == other.CommonGrid(g).
func (g *Grid) CommonGrid(other *Grid) (*Grid, error) {
	if !g.CompatibleWith(other) {
		return nil, &Error{Kind: IncompatibleGrids, Err: errf("grids with cell size (%g,%g) and (%g,%g) are not compatible", g.dx, g.dy, other.dx, other.dy)}
	}
	fineDx := math.Min(g.dx, other.dx)
	fineDy := math.Min(g.dy, other.dy)
	// Anchor a virtual fine grid at g's origin; compatibility guarantees
	// other's origin lands on this grid's lines too.
	anchor := &Grid{extent: Box{XMin: g.extent.XMin, YMin: g.extent.YMin, XMax: g.extent.XMin + fineDx, YMax: g.extent.YMin + fineDy}, dx: fineDx, dy: fineDy, rows: 1, cols: 1}
	union := g.extent.Union(other.extent)
	return anchor.ShrinkToFit(union), nil
}

// RowOffset returns the absolute offset, in cells, between g's origin row
// and other's, requiring CompatibleWith. The result does not depend on
// which grid it is called on.
func (g *Grid) RowOffset(other *Grid) (int, error) {
	if !g.CompatibleWith(other) {
		return 0, &Error{Kind: IncompatibleGrids, Err: errf("grids are not compatible")}
	}
	fineDy := math.Min(g.dy, other.dy)
	n := (g.extent.YMin - other.extent.YMin) / fineDy
	off := int(math.Round(n))
	if off < 0 {
		off = -off
	}
	return off, nil
}

// ColOffset returns the absolute offset, in cells, between g's origin
// column and other's, requiring CompatibleWith.
func (g *Grid) ColOffset(other *Grid) (int, error) {
	if !g.CompatibleWith(other) {
		return 0, &Error{Kind: IncompatibleGrids, Err: errf("grids are not compatible")}
	}
	fineDx := math.Min(g.dx, other.dx)
	n := (g.extent.XMin - other.extent.XMin) / fineDx
	off := int(math.Round(n))
	if off < 0 {
		off = -off
	}
	return off, nil
}

// Subdivide returns a pull-iterator over sub-grids of g, each sharing g's
// cell size, each with row*col <= maxCells, whose union (non-overlapping)
// equals g. Sub-grids are produced in row-major order from the top-left.
// Call the returned function repeatedly; it returns (nil, false) once
// exhausted. maxCells <= 0 means "no limit" (a single tile is returned).
func (g *Grid) Subdivide(maxCells int) func() (*Grid, bool) {
	if maxCells <= 0 || g.rows*g.cols <= maxCells {
		done := false
		return func() (*Grid, bool) {
			if done {
				return nil, false
			}
			done = true
			return g, true
		}
	}
	// Pick a tile row count so that tileRows*cols <= maxCells, then split
	// columns similarly if a single row is still too large.
	tileCols := g.cols
	if tileCols > maxCells {
		tileCols = maxCells
	}
	tileRows := maxCells / tileCols
	if tileRows < 1 {
		tileRows = 1
	}
	r0 := 0
	c0 := 0
	return func() (*Grid, bool) {
		if r0 >= g.rows {
			return nil, false
		}
		r1 := r0 + tileRows
		if r1 > g.rows {
			r1 = g.rows
		}
		c1 := c0 + tileCols
		if c1 > g.cols {
			c1 = g.cols
		}
		box := Box{
			XMin: g.extent.XMin + float64(c0)*g.dx,
			XMax: g.extent.XMin + float64(c1)*g.dx,
			YMin: g.extent.YMax - float64(r1)*g.dy,
			YMax: g.extent.YMax - float64(r0)*g.dy,
		}
		tile := &Grid{extent: box, dx: g.dx, dy: g.dy, rows: r1 - r0, cols: c1 - c0}
		c0 = c1
		if c0 >= g.cols {
			c0 = 0
			r0 = r1
		}
		return tile, true
	}
}

// Infinite wraps g as an InfiniteGrid: the same extent and cell size,
// padded by one ghost row/column on each side so that boundary-adjacent
// lookups during cell-intersection traversal never need a bounds check.
func (g *Grid) Infinite() *InfiniteGrid {
	return &InfiniteGrid{bounded: g}
}

// InfiniteGrid is a Grid padded by one ghost row/column on each side.
// Visible (bounded) row/col r/c live at infinite index r+1/c+1; index 0
// is the top/left ghost margin, and index Rows()-1/Cols()-1 is the
// bottom/right ghost margin.
type InfiniteGrid struct {
	bounded *Grid
}

// Bounded returns the underlying bounded grid.
func (ig *InfiniteGrid) Bounded() *Grid { return ig.bounded }

// Rows returns 2 + the bounded row count.
func (ig *InfiniteGrid) Rows() int { return ig.bounded.rows + 2 }

// Cols returns 2 + the bounded column count.
func (ig *InfiniteGrid) Cols() int { return ig.bounded.cols + 2 }

// GetRow returns the infinite-grid row index containing y. y above the
// extent yields the top ghost row (0); y below yields the bottom ghost
// row (Rows()-1). Never errors.
func (ig *InfiniteGrid) GetRow(y float64) int {
	bg := ig.bounded
	if y > bg.extent.YMax+bg.dy*DefaultCoordTol {
		return 0
	}
	if y < bg.extent.YMin-bg.dy*DefaultCoordTol {
		return ig.Rows() - 1
	}
	r, err := bg.GetRow(y)
	if err != nil {
		// Floating-point straddle right at the edge; clamp.
		if y >= bg.extent.YMax {
			r = 0
		} else {
			r = bg.rows - 1
		}
	}
	return r + 1
}

// GetColumn is the column counterpart of GetRow.
func (ig *InfiniteGrid) GetColumn(x float64) int {
	bg := ig.bounded
	if x < bg.extent.XMin-bg.dx*DefaultCoordTol {
		return 0
	}
	if x > bg.extent.XMax+bg.dx*DefaultCoordTol {
		return ig.Cols() - 1
	}
	c, err := bg.GetColumn(x)
	if err != nil {
		if x <= bg.extent.XMin {
			c = 0
		} else {
			c = bg.cols - 1
		}
	}
	return c + 1
}
