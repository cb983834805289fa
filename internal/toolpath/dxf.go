package toolpath

import (
	"fmt"
	"math"

	"github.com/metalforge/sheetcost/internal/geometry"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// DecodeDXF opens a DXF file and turns its modelspace entities into a
// Drawing of already-tessellated Entity chains. Bulge arcs on
// LWPOLYLINE vertices are interpolated the same way a straight arc
// entity is: by chord-tolerance-bounded angular stepping. Entity kinds
// this module doesn't model (TEXT, DIMENSION, INSERT, ...) are skipped;
// the caller still gets every other entity, so a drawing with a few
// unsupported annotation entities is not itself an error.
func DecodeDXF(path string, toleranceMM float64) (Drawing, []Warning, error) {
	d, err := dxf.Open(path)
	if err != nil {
		return Drawing{}, nil, fmt.Errorf("toolpath: open DXF %q: %w", path, err)
	}

	drawing := Drawing{ID: path}
	var warnings []Warning

	for _, ent := range d.Entities() {
		switch e := ent.(type) {
		case *entity.Line:
			drawing.Entities = append(drawing.Entities, Entity{
				Kind:  "LINE",
				Layer: e.Layer().Name(),
				Points: []geometry.Point{
					{X: e.Start[0], Y: e.Start[1]},
					{X: e.End[0], Y: e.End[1]},
				},
				Closed: false,
			})

		case *entity.Circle:
			pts := circlePoints(e.Center[0], e.Center[1], e.Radius, toleranceMM)
			drawing.Entities = append(drawing.Entities, Entity{
				Kind:   "CIRCLE",
				Layer:  e.Layer().Name(),
				Points: pts,
				Closed: true,
			})

		case *entity.Arc:
			startRad := e.Angle[0] * math.Pi / 180
			endRad := e.Angle[1] * math.Pi / 180
			centre := geometry.Point{X: e.Circle.Center[0], Y: e.Circle.Center[1]}
			pts := geometry.TessellateArc(centre, e.Circle.Radius, startRad, endRad, toleranceMM)
			drawing.Entities = append(drawing.Entities, Entity{
				Kind:   "ARC",
				Layer:  e.Layer().Name(),
				Points: pts,
				Closed: false,
			})

		case *entity.LwPolyline:
			pts, closed := lwPolylinePoints(e, toleranceMM)
			drawing.Entities = append(drawing.Entities, Entity{
				Kind:   "LWPOLYLINE",
				Layer:  e.Layer().Name(),
				Points: pts,
				Closed: closed,
			})

		default:
			warnings = append(warnings, Warning{
				Kind:    WarningUnsupportedEntity,
				Message: fmt.Sprintf("skipped unsupported DXF entity %T", ent),
			})
		}
	}

	return drawing, warnings, nil
}

func circlePoints(cx, cy, r, toleranceMM float64) []geometry.Point {
	pts := geometry.TessellateArc(geometry.Point{X: cx, Y: cy}, r, 0, 2*math.Pi, toleranceMM)
	// TessellateArc always closes the loop it's given; a full circle
	// re-visits the start point, which the caller treats as closed, so
	// drop the duplicate trailing vertex.
	if len(pts) > 1 {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// lwPolylinePoints flattens an LWPOLYLINE's vertex/bulge pairs into a
// point chain, expanding bulge (arc) segments the same way the DXF
// format defines them: bulge = tan(included-angle / 4).
func lwPolylinePoints(lw *entity.LwPolyline, toleranceMM float64) ([]geometry.Point, bool) {
	n := len(lw.Vertices)
	if n == 0 {
		return nil, false
	}
	closed := lw.Closed

	limit := n - 1
	if closed {
		limit = n
	}

	pts := make([]geometry.Point, 0, n*2)
	for i := 0; i < limit; i++ {
		v := lw.Vertices[i]
		next := lw.Vertices[(i+1)%n]
		cur := geometry.Point{X: v[0], Y: v[1]}
		nxt := geometry.Point{X: next[0], Y: next[1]}

		var bulge float64
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		if len(pts) == 0 || !geometry.Close(pts[len(pts)-1], cur, 1e-9) {
			pts = append(pts, cur)
		}
		if math.Abs(bulge) > 1e-9 {
			arcPts := bulgeToPoints(cur, nxt, bulge, toleranceMM)
			if len(arcPts) > 2 {
				pts = append(pts, arcPts[1:len(arcPts)-1]...)
			}
		}
		pts = append(pts, nxt)
	}
	return pts, closed
}

// bulgeToPoints expands a single DXF bulge-arc segment into a point
// chain. bulge is tan(theta/4) where theta is the arc's included angle;
// positive bulge sweeps counter-clockwise.
func bulgeToPoints(p1, p2 geometry.Point, bulge, toleranceMM float64) []geometry.Point {
	chord := geometry.Dist(p1, p2)
	if chord < 1e-9 {
		return []geometry.Point{p1, p2}
	}

	theta := 4 * math.Atan(math.Abs(bulge))
	sinHalf := math.Sin(theta / 2)
	if sinHalf < 1e-6 {
		return []geometry.Point{p1, p2}
	}
	radius := chord / (2 * sinHalf)

	chordAngle := math.Atan2(p2.Y-p1.Y, p2.X-p1.X)
	h := radius * math.Cos(theta/2)
	midX, midY := (p1.X+p2.X)/2, (p1.Y+p2.Y)/2
	perp := chordAngle + math.Pi/2
	if bulge < 0 {
		perp = chordAngle - math.Pi/2
	}
	centre := geometry.Point{X: midX + h*math.Cos(perp), Y: midY + h*math.Sin(perp)}

	startAngle := math.Atan2(p1.Y-centre.Y, p1.X-centre.X)
	endAngle := math.Atan2(p2.Y-centre.Y, p2.X-centre.X)
	if bulge > 0 {
		for endAngle <= startAngle {
			endAngle += 2 * math.Pi
		}
		return geometry.TessellateArc(centre, radius, startAngle, endAngle, toleranceMM)
	}
	for endAngle >= startAngle {
		endAngle -= 2 * math.Pi
	}
	pts := geometry.TessellateArc(centre, radius, endAngle, startAngle, toleranceMM)
	// TessellateArc always walks forward; a clockwise bulge needs the
	// chain reversed to preserve p1 -> p2 ordering.
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
	return pts
}
