package zonalstats

import (
	"testing"

	"github.com/ctessum/geom"
)

func TestSegmentOrientation(t *testing.T) {
	cases := []struct {
		name string
		s    Segment
		want SegmentOrientation
	}{
		{"right", Segment{geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 0}}, OrientationHorizontalRight},
		{"left", Segment{geom.Point{X: 1, Y: 0}, geom.Point{X: 0, Y: 0}}, OrientationHorizontalLeft},
		{"up", Segment{geom.Point{X: 0, Y: 0}, geom.Point{X: 0, Y: 1}}, OrientationVerticalUp},
		{"down", Segment{geom.Point{X: 0, Y: 1}, geom.Point{X: 0, Y: 0}}, OrientationVerticalDown},
		{"angled", Segment{geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 1}}, OrientationAngled},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.s.Orientation(); got != c.want {
				t.Errorf("Orientation() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestSegmentOrientationString(t *testing.T) {
	if OrientationAngled.String() != "angled" {
		t.Errorf("String() = %q, want %q", OrientationAngled.String(), "angled")
	}
}

func TestSegmentsOfSquare(t *testing.T) {
	square := geom.Polygon{{
		{X: 0, Y: 0},
		{X: 2, Y: 0},
		{X: 2, Y: 2},
		{X: 0, Y: 2},
		{X: 0, Y: 0},
	}}
	segs := segmentsOf(square)
	if len(segs) != 4 {
		t.Fatalf("segmentsOf square = %d segments, want 4", len(segs))
	}
	want := []SegmentOrientation{
		OrientationHorizontalRight,
		OrientationVerticalUp,
		OrientationHorizontalLeft,
		OrientationVerticalDown,
	}
	for i, s := range segs {
		if got := s.Orientation(); got != want[i] {
			t.Errorf("segment %d orientation = %v, want %v", i, got, want[i])
		}
	}
}
