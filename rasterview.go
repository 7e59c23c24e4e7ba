package zonalstats

import "math"

// RasterView is a read-only view of a source Raster reinterpreted onto a
// finer (or equal), possibly offset target grid via nearest-cell lookup.
// The target cell size must be an integer-multiple refinement of the
// source's on each axis, and the target origin must differ from the
// source origin by a whole number of target cells, so that every source
// grid line is also a target grid line; NewRasterView validates both
// with DefaultRelTol. Out-of-source cells yield the configured nodata value.
type RasterView[T any] struct {
	source *Raster[T]
	target *Grid
	nodata T
	kx, ky int // refinement factors: target cell is 1/kx, 1/ky the size of source's
}

// NewRasterView constructs a view of source reinterpreted onto target.
func NewRasterView[T any](source *Raster[T], target *Grid, nodata T) (*RasterView[T], error) {
	sg := source.grid
	kx := sg.dx / target.dx
	ky := sg.dy / target.dy
	kxi := int(math.Round(kx))
	kyi := int(math.Round(ky))
	if kxi < 1 || !floatsNearInt(kx) {
		return nil, &Error{Kind: InvalidGeometry, Err: errf("RasterView: target dx %g does not evenly refine source dx %g", target.dx, sg.dx)}
	}
	if kyi < 1 || !floatsNearInt(ky) {
		return nil, &Error{Kind: InvalidGeometry, Err: errf("RasterView: target dy %g does not evenly refine source dy %g", target.dy, sg.dy)}
	}
	if !alignedOnAxis(target.extent.XMin, sg.extent.XMin, target.dx) {
		return nil, &Error{Kind: InvalidGeometry, Err: errf("RasterView: target x origin %g does not align to source grid", target.extent.XMin)}
	}
	if !alignedOnAxis(target.extent.YMin, sg.extent.YMin, target.dy) {
		return nil, &Error{Kind: InvalidGeometry, Err: errf("RasterView: target y origin %g does not align to source grid", target.extent.YMin)}
	}
	return &RasterView[T]{source: source, target: target, nodata: nodata, kx: kxi, ky: kyi}, nil
}

func floatsNearInt(v float64) bool {
	return math.Abs(v-math.Round(v)) <= v*DefaultRelTol+1e-12
}

// Grid returns the view's target grid.
func (v *RasterView[T]) Grid() *Grid { return v.target }

// Rows returns the number of rows in the target grid.
func (v *RasterView[T]) Rows() int { return v.target.Rows() }

// Cols returns the number of columns in the target grid.
func (v *RasterView[T]) Cols() int { return v.target.Cols() }

// At returns the source value backing target cell (row, col): the
// source cell whose center contains the target cell's center. Cells
// with no backing source cell (outside the source's extent) return the
// configured nodata value.
func (v *RasterView[T]) At(row, col int) T {
	center := v.target.CellCenter(row, col)
	sr, err := v.source.grid.GetRow(center.Y)
	if err != nil {
		return v.nodata
	}
	sc, err := v.source.grid.GetColumn(center.X)
	if err != nil {
		return v.nodata
	}
	return v.source.At(sr, sc)
}
