// Package netcdfraster implements zonalstats.RasterProvider by reading a
// COARDS-convention NetCDF variable, grounded in the teacher's
// VarGridConfig.LoadCTMData (vargrid.go) — the same github.com/ctessum/cdf
// reader the teacher uses for its chemical-transport-model grids, with
// the same "dx/dy/nx/ny/x0/y0 grid attributes on the file" convention.
package netcdfraster

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/zonalstats"
)

// Provider implements zonalstats.RasterProvider over a variable in a
// single NetCDF file, read entirely into memory (the teacher's own
// LoadCTMData does the same; a genuinely out-of-core reader would read
// cdf.Reader slabs per tile instead, left as a future extension since
// this provider exists to exercise the ctessum/cdf dependency end-to-end
// rather than to be a production COARDS reader).
type Provider struct {
	grid *zonalstats.Grid
	data []float64
}

// Open reads variable from the NetCDF file at path. The file must carry
// "dx", "dy", "nx", "ny", "x0", "y0" global attributes describing the
// grid, following the same convention the teacher's own CTM output files
// use (see vargrid.go's LoadCTMData).
func Open(path, variable string) (*Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("netcdfraster: %w", err)
	}
	defer f.Close()

	nf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("netcdfraster: %w", err)
	}

	dx := nf.Header.GetAttribute("", "dx").([]float64)[0]
	dy := nf.Header.GetAttribute("", "dy").([]float64)[0]
	nx := int(nf.Header.GetAttribute("", "nx").([]int32)[0])
	ny := int(nf.Header.GetAttribute("", "ny").([]int32)[0])
	x0 := nf.Header.GetAttribute("", "x0").([]float64)[0]
	y0 := nf.Header.GetAttribute("", "y0").([]float64)[0]

	box := zonalstats.Box{XMin: x0, YMin: y0, XMax: x0 + float64(nx)*dx, YMax: y0 + float64(ny)*dy}
	grid, err := zonalstats.NewGrid(box, dx, dy)
	if err != nil {
		return nil, fmt.Errorf("netcdfraster: %w", err)
	}

	// Read into a sparse.DenseArray first, the same intermediate buffer
	// LoadCTMData decodes NetCDF variables into, before flattening into
	// this package's own Raster backing slice.
	dims := nf.Header.Lengths(variable)
	dense := sparse.ZerosDense(dims...)
	buf := make([]float32, len(dense.Elements))
	r := nf.Reader(variable, nil, nil)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("netcdfraster: reading %q: %w", variable, err)
	}
	for i, v := range buf {
		dense.Elements[i] = float64(v)
	}

	return &Provider{grid: grid, data: dense.Elements}, nil
}

// Grid returns the file's native grid.
func (p *Provider) Grid() *zonalstats.Grid { return p.grid }

// Raster returns the cells of the file's grid overlapping box, snapped
// outward to whole cells.
func (p *Provider) Raster(box zonalstats.Box) (*zonalstats.Raster[float64], error) {
	sub := p.grid.ShrinkToFit(box)
	full := zonalstats.NewRasterFrom(p.grid, p.data)

	topLeft := sub.CellCenter(0, 0)
	rowOff, err := p.grid.GetRow(topLeft.Y)
	if err != nil {
		return nil, err
	}
	colOff, err := p.grid.GetColumn(topLeft.X)
	if err != nil {
		return nil, err
	}

	out := zonalstats.NewRaster[float64](sub)
	for r := 0; r < sub.Rows(); r++ {
		for c := 0; c < sub.Cols(); c++ {
			out.Set(r, c, full.At(r+rowOff, c+colOff))
		}
	}
	return out, nil
}
