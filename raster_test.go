package zonalstats

import "testing"

func TestRasterSetAt(t *testing.T) {
	g, err := NewGrid(Box{0, 0, 4, 2}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRaster[float64](g)
	if r.Rows() != 2 || r.Cols() != 4 {
		t.Fatalf("Rows/Cols = %d/%d, want 2/4", r.Rows(), r.Cols())
	}
	r.Set(1, 3, 42)
	if got := r.At(1, 3); got != 42 {
		t.Errorf("At(1,3) = %v, want 42", got)
	}
	if got := r.At(0, 0); got != 0 {
		t.Errorf("At(0,0) = %v, want zero value", got)
	}
}

func TestNewRasterFromPanicsOnShapeMismatch(t *testing.T) {
	g, err := NewGrid(Box{0, 0, 4, 2}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("NewRasterFrom with mismatched data length should panic")
		}
	}()
	NewRasterFrom[float64](g, make([]float64, 3))
}

func TestRasterEqual(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 2, 2}, 1, 1)
	a := NewRasterFrom[float64](g, []float64{1, 2, 3, 4})
	b := NewRasterFrom[float64](g, []float64{1, 2, 3, 4})
	eq := func(x, y float64) bool { return x == y }
	if !a.Equal(b, eq) {
		t.Error("identical rasters should be Equal")
	}
	c := NewRasterFrom[float64](g, []float64{1, 2, 3, 5})
	if a.Equal(c, eq) {
		t.Error("rasters differing in one cell should not be Equal")
	}
	g2, _ := NewGrid(Box{0, 0, 4, 4}, 2, 2)
	d := NewRasterFrom[float64](g2, []float64{1, 2, 3, 4})
	if a.Equal(d, eq) {
		t.Error("rasters over different grids should not be Equal")
	}
}

func TestRasterDataSharesBacking(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 2, 2}, 1, 1)
	r := NewRaster[int](g)
	data := r.Data()
	data[0] = 7
	if r.At(0, 0) != 7 {
		t.Error("Data() should return the raster's live backing slice")
	}
}
