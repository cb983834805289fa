package geometry

import (
	"math"
	"testing"
)

func TestSegmentLength(t *testing.T) {
	s := Segment{Start: Point{0, 0}, End: Point{3, 4}}
	if got := s.Length(); math.Abs(got-5) > 1e-9 {
		t.Fatalf("Length() = %v, want 5", got)
	}
}

func TestJunctionAngleDeg(t *testing.T) {
	cases := []struct {
		name     string
		in, out  Segment
		wantDeg  float64
		wantTol  float64
	}{
		{
			name:    "straight through",
			in:      Segment{Point{0, 0}, Point{10, 0}},
			out:     Segment{Point{10, 0}, Point{20, 0}},
			wantDeg: 180,
			wantTol: 1e-6,
		},
		{
			name:    "full reversal",
			in:      Segment{Point{0, 0}, Point{10, 0}},
			out:     Segment{Point{10, 0}, Point{0, 0}},
			wantDeg: 0,
			wantTol: 1e-6,
		},
		{
			name:    "right angle",
			in:      Segment{Point{0, 0}, Point{10, 0}},
			out:     Segment{Point{10, 0}, Point{10, 10}},
			wantDeg: 90,
			wantTol: 1e-6,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := JunctionAngleDeg(c.in, c.out)
			if math.Abs(got-c.wantDeg) > c.wantTol {
				t.Errorf("JunctionAngleDeg() = %v, want %v", got, c.wantDeg)
			}
		})
	}
}

func TestContourClosed(t *testing.T) {
	closed := Contour{Segments: []Segment{
		{Point{0, 0}, Point{10, 0}},
		{Point{10, 0}, Point{10, 10}},
		{Point{10, 10}, Point{0, 10}},
		{Point{0, 10}, Point{0, 0.05}},
	}}
	if !closed.Closed() {
		t.Errorf("expected contour to be closed within tolerance")
	}

	open := Contour{Segments: []Segment{
		{Point{0, 0}, Point{10, 0}},
		{Point{10, 0}, Point{10, 10}},
	}}
	if open.Closed() {
		t.Errorf("expected contour to be open")
	}
}

func TestShoelaceAreaSquare(t *testing.T) {
	pts := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if got := ShoelaceArea(pts); math.Abs(got-100) > 1e-9 {
		t.Fatalf("ShoelaceArea() = %v, want 100", got)
	}
	// Reversed winding must give the same unsigned area.
	rev := []Point{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	if got := ShoelaceArea(rev); math.Abs(got-100) > 1e-9 {
		t.Fatalf("ShoelaceArea() reversed = %v, want 100", got)
	}
}

func TestBoundingBoxContains(t *testing.T) {
	outer := BoundingBox{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	inner := BoundingBox{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20}
	if !outer.Contains(inner) {
		t.Errorf("expected outer to contain inner")
	}
	if inner.Contains(outer) {
		t.Errorf("expected inner to not contain outer")
	}
}

func TestTessellateArcQuarterCircle(t *testing.T) {
	pts := TessellateArc(Point{0, 0}, 10, 0, math.Pi/2, 0.1)
	if len(pts) < 2 {
		t.Fatalf("expected at least 2 points, got %d", len(pts))
	}
	first, last := pts[0], pts[len(pts)-1]
	if math.Abs(first.X-10) > 1e-6 || math.Abs(first.Y) > 1e-6 {
		t.Errorf("unexpected first point %+v", first)
	}
	if math.Abs(last.X) > 1e-6 || math.Abs(last.Y-10) > 1e-6 {
		t.Errorf("unexpected last point %+v", last)
	}
}

func TestMergeShortCollinear(t *testing.T) {
	segs := []Segment{
		{Point{0, 0}, Point{5, 0}},
		{Point{5, 0}, Point{5.005, 0}}, // shorter than MergeTolerance
		{Point{5.005, 0}, Point{10, 0}},
	}
	merged := MergeShortCollinear(segs)
	if len(merged) != 2 {
		t.Fatalf("expected 2 segments after merge, got %d", len(merged))
	}
}
