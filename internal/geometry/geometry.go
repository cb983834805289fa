// Package geometry provides the 2D primitives shared by every other
// package in this module: points, segments, and closed/open contours,
// plus the tessellation and measurement helpers that turn raw vector
// primitives into the flat segment lists the rest of the engine works
// with.
package geometry

import "math"

// ClosureTolerance is the distance within which two endpoints are
// considered coincident when detecting contour closure or stitching
// loose primitives together.
const ClosureTolerance = 0.1 // mm

// MergeTolerance is the length below which adjacent collinear segments
// are merged before statistics are computed, to absorb duplicate points
// coming out of a CAD export.
const MergeTolerance = 0.01 // mm

// Point is a 2D coordinate in millimetres.
type Point struct {
	X, Y float64
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Close reports whether a and b coincide within tol millimetres.
func Close(a, b Point, tol float64) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx+dy*dy <= tol*tol
}

// Segment is an ordered pair of points.
type Segment struct {
	Start, End Point
}

// Length returns the straight-line length of the segment in mm.
func (s Segment) Length() float64 {
	return Dist(s.Start, s.End)
}

// Direction returns the segment's heading in radians, measured from the
// positive X axis, increasing counter-clockwise.
func (s Segment) Direction() float64 {
	return math.Atan2(s.End.Y-s.Start.Y, s.End.X-s.Start.X)
}

// JunctionAngleDeg returns the interior angle, in degrees, between a
// segment ending at a shared point and the segment starting there.
// 180° is a straight continuation; 0° is a full reversal.
func JunctionAngleDeg(in, out Segment) float64 {
	d1 := in.Direction()
	d2 := out.Direction()
	delta := d2 - d1
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta < -math.Pi {
		delta += 2 * math.Pi
	}
	// delta is the turn angle; the interior angle is its complement.
	interior := 180.0 - math.Abs(delta)*180.0/math.Pi
	if interior < 0 {
		interior = 0
	}
	if interior > 180 {
		interior = 180
	}
	return interior
}

// Contour is an ordered sequence of segments, implicitly chained
// end-to-start.
type Contour struct {
	Segments []Segment
}

// Length returns the summed length of every segment in the contour.
func (c Contour) Length() float64 {
	var total float64
	for _, s := range c.Segments {
		total += s.Length()
	}
	return total
}

// Closed reports whether the contour's first and last points coincide
// within ClosureTolerance.
func (c Contour) Closed() bool {
	if len(c.Segments) == 0 {
		return false
	}
	first := c.Segments[0].Start
	last := c.Segments[len(c.Segments)-1].End
	return Close(first, last, ClosureTolerance)
}

// Points returns the ordered vertex list implied by the contour's
// segments (one point per segment start, plus the final end point).
func (c Contour) Points() []Point {
	if len(c.Segments) == 0 {
		return nil
	}
	pts := make([]Point, 0, len(c.Segments)+1)
	pts = append(pts, c.Segments[0].Start)
	for _, s := range c.Segments {
		pts = append(pts, s.End)
	}
	return pts
}

// ShoelaceArea returns the unsigned area enclosed by a closed polygon
// described by its ordered vertices, using the shoelace formula. The
// sign of the underlying orientation is discarded: this module
// determines outer/inner by bounding-box containment, not winding.
func ShoelaceArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// BoundingBox is an axis-aligned box described by its corners.
type BoundingBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the box's extent along X.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box's extent along Y.
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

// Area returns the bounding box's enclosed area, a cheap fallback
// estimate of occupied area when a polygon can't be fully resolved.
func (b BoundingBox) Area() float64 { return b.Width() * b.Height() }

// Contains reports whether box b fully contains box other, used to pick
// the outermost contour among several candidates.
func (b BoundingBox) Contains(other BoundingBox) bool {
	return b.MinX <= other.MinX && b.MinY <= other.MinY &&
		b.MaxX >= other.MaxX && b.MaxY >= other.MaxY
}

// BoundsOf computes the bounding box of a set of points. The second
// return value is false for an empty input.
func BoundsOf(pts []Point) (BoundingBox, bool) {
	if len(pts) == 0 {
		return BoundingBox{}, false
	}
	b := BoundingBox{MinX: pts[0].X, MaxX: pts[0].X, MinY: pts[0].Y, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b, true
}

// TessellateArc flattens a circular arc into straight segments whose
// chord error never exceeds toleranceMM. centre/radius/start/end angles
// are in radians; angles increase counter-clockwise from startAngle to
// endAngle (endAngle is normalised forward past startAngle).
func TessellateArc(centre Point, radius, startAngle, endAngle, toleranceMM float64) []Point {
	for endAngle <= startAngle {
		endAngle += 2 * math.Pi
	}
	if radius <= 0 {
		return nil
	}

	var thetaMax float64
	if toleranceMM < radius {
		thetaMax = 2 * math.Acos(1-toleranceMM/radius)
	} else {
		thetaMax = math.Pi / 8
	}

	n := int(math.Ceil((endAngle - startAngle) / thetaMax))
	if n < 1 {
		n = 1
	}

	pts := make([]Point, 0, n+1)
	delta := (endAngle - startAngle) / float64(n)
	for i := 0; i <= n; i++ {
		a := startAngle + float64(i)*delta
		pts = append(pts, Point{
			X: centre.X + radius*math.Cos(a),
			Y: centre.Y + radius*math.Sin(a),
		})
	}
	return pts
}

// MergeShortCollinear merges adjacent segments shorter than
// MergeTolerance into their neighbours, absorbing duplicate points
// coming out of a CAD export before statistics are computed.
func MergeShortCollinear(segs []Segment) []Segment {
	if len(segs) < 2 {
		return segs
	}
	out := make([]Segment, 0, len(segs))
	out = append(out, segs[0])
	for _, s := range segs[1:] {
		last := &out[len(out)-1]
		if s.Length() < MergeTolerance {
			last.End = s.End
			continue
		}
		out = append(out, s)
	}
	return out
}
