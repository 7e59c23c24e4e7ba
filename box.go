package zonalstats

import "math"

// Box is an axis-aligned rectangle in the common planar coordinate space
// shared by all zones and rasters passed to this package.
type Box struct {
	XMin, YMin, XMax, YMax float64
}

// NewBox returns a Box, ordering the coordinates so that XMin <= XMax and
// YMin <= YMax.
func NewBox(x0, y0, x1, y1 float64) Box {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Box{XMin: x0, YMin: y0, XMax: x1, YMax: y1}
}

// Empty returns whether b is inverted (XMax < XMin or YMax < YMin). A box
// with zero width or height is not empty, although its Area is 0.
func (b Box) Empty() bool {
	return b.XMax < b.XMin || b.YMax < b.YMin
}

// Width returns the extent of b along x.
func (b Box) Width() float64 { return b.XMax - b.XMin }

// Height returns the extent of b along y.
func (b Box) Height() float64 { return b.YMax - b.YMin }

// Area returns the area of b, or 0 if b is empty.
func (b Box) Area() float64 {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Intersects reports whether b and b2 share any area or boundary.
func (b Box) Intersects(b2 Box) bool {
	return b.XMin <= b2.XMax && b2.XMin <= b.XMax && b.YMin <= b2.YMax && b2.YMin <= b.YMax
}

// Intersection returns the overlap of b and b2. The result is empty if
// b and b2 do not intersect.
func (b Box) Intersection(b2 Box) Box {
	return Box{
		XMin: math.Max(b.XMin, b2.XMin),
		YMin: math.Max(b.YMin, b2.YMin),
		XMax: math.Min(b.XMax, b2.XMax),
		YMax: math.Min(b.YMax, b2.YMax),
	}
}

// Union returns the smallest Box containing both b and b2.
func (b Box) Union(b2 Box) Box {
	return Box{
		XMin: math.Min(b.XMin, b2.XMin),
		YMin: math.Min(b.YMin, b2.YMin),
		XMax: math.Max(b.XMax, b2.XMax),
		YMax: math.Max(b.YMax, b2.YMax),
	}
}

// Contains reports whether (x,y) lies within b, inclusive of the boundary.
func (b Box) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}
