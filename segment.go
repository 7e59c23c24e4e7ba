package zonalstats

import "github.com/ctessum/geom"

// SegmentOrientation classifies a Segment's direction, per spec.md
// §3/§4.3. The cell-intersection engine (traverseSegment, floodFill) does
// not consult it.
type SegmentOrientation int

const (
	// OrientationHorizontalRight is a segment moving in +x with no
	// change in y.
	OrientationHorizontalRight SegmentOrientation = iota
	// OrientationHorizontalLeft is a segment moving in -x with no
	// change in y.
	OrientationHorizontalLeft
	// OrientationVerticalUp is a segment moving in +y with no change
	// in x.
	OrientationVerticalUp
	// OrientationVerticalDown is a segment moving in -y with no change
	// in x.
	OrientationVerticalDown
	// OrientationAngled is any segment that moves in both x and y.
	OrientationAngled
)

func (o SegmentOrientation) String() string {
	switch o {
	case OrientationHorizontalRight:
		return "horizontal-right"
	case OrientationHorizontalLeft:
		return "horizontal-left"
	case OrientationVerticalUp:
		return "vertical-up"
	case OrientationVerticalDown:
		return "vertical-down"
	default:
		return "angled"
	}
}

// Segment is a directed line segment from A to B, one piece of a
// polygon's boundary.
type Segment struct {
	A, B geom.Point
}

// Orientation classifies s per the five orientations above, using an
// absolute tolerance of 1e-12 to decide whether a coordinate is
// unchanged.
func (s Segment) Orientation() SegmentOrientation {
	dx := s.B.X - s.A.X
	dy := s.B.Y - s.A.Y
	const tol = 1e-12
	switch {
	case abs(dy) <= tol && dx > 0:
		return OrientationHorizontalRight
	case abs(dy) <= tol && dx < 0:
		return OrientationHorizontalLeft
	case abs(dx) <= tol && dy > 0:
		return OrientationVerticalUp
	case abs(dx) <= tol && dy < 0:
		return OrientationVerticalDown
	default:
		return OrientationAngled
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// segmentsOf flattens a Polygonal's rings into directed Segments. geom's
// ring representation repeats the first point as the last (the OGC
// closed-ring convention, e.g. polyClipToPolygon in
// vendor/github.com/ctessum/geom/polygon.go), so consecutive points
// already trace a closed loop.
func segmentsOf(poly geom.Polygonal) []Segment {
	var segs []Segment
	for _, p := range poly.Polygons() {
		for _, ring := range p {
			for i := 0; i+1 < len(ring); i++ {
				segs = append(segs, Segment{A: ring[i], B: ring[i+1]})
			}
		}
	}
	return segs
}
