package toolpath

import (
	"errors"
	"fmt"

	"github.com/metalforge/sheetcost/internal/geometry"
)

// ErrDegenerateGeometry is returned when a drawing contains no
// measurable cut length at all.
var ErrDegenerateGeometry = errors.New("toolpath: degenerate geometry (zero cut length)")

// ExtractOptions configures a single extraction run.
type ExtractOptions struct {
	ToleranceMM      float64  // chord tolerance already applied by the decoder; recorded for the cache key
	IgnoreLayers     []string // defaults to DefaultIgnoreLayers when nil
	MarkingKeywords  []string // defaults to DefaultMarkingKeywords when nil
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.ToleranceMM <= 0 {
		o.ToleranceMM = 0.1
	}
	if o.IgnoreLayers == nil {
		o.IgnoreLayers = DefaultIgnoreLayers
	}
	if o.MarkingKeywords == nil {
		o.MarkingKeywords = DefaultMarkingKeywords
	}
	return o
}

type openEndpoint struct {
	start, end geometry.Point
}

type closedCandidate struct {
	pts []geometry.Point
	box geometry.BoundingBox
}

// Extract tessellates every entity in the drawing, assembles contours
// by endpoint stitching, and computes the ToolpathStats plus the
// per-contour MotionInputs the Motion Planner consumes. It never fails
// on an unclosed outer contour — that is reported as a Warning, and
// stats are still derived from the open path — but a drawing with zero
// cut length is DegenerateGeometry.
func Extract(d Drawing, opts ExtractOptions) (Stats, MotionInputs, []Warning, error) {
	opts = opts.withDefaults()

	var warnings []Warning
	stats := Stats{EntityCounts: map[string]int{}}
	motion := MotionInputs{}

	var allSegments []geometry.Segment
	var allPoints []geometry.Point
	var openEndpoints []openEndpoint

	var closedCandidates []closedCandidate

	contourID := 0
	anyClosed := false

	for _, e := range d.Entities {
		if IsMarkingLayer(e.Layer, opts.MarkingKeywords) {
			stats.EngravingLengthMM += polylineLength(e.Points, e.Closed)
			continue
		}
		if IsLayerIgnored(e.Layer, opts.IgnoreLayers) {
			continue
		}
		if len(e.Points) < 2 {
			continue
		}

		stats.EntityCounts[e.Kind]++

		segs := segmentsFromPoints(e.Points, e.Closed)
		segs = geometry.MergeShortCollinear(segs)
		if len(segs) == 0 {
			continue
		}
		allSegments = append(allSegments, segs...)
		allPoints = append(allPoints, e.Points...)

		motion.Contours = append(motion.Contours, ContourPath{
			ContourID: contourID,
			Closed:    e.Closed,
			Segments:  segs,
		})
		contourID++

		if e.Closed {
			anyClosed = true
			stats.ContourCount++
			box, _ := geometry.BoundsOf(e.Points)
			closedCandidates = append(closedCandidates, closedCandidate{pts: e.Points, box: box})
		} else {
			openEndpoints = append(openEndpoints, openEndpoint{start: e.Points[0], end: e.Points[len(e.Points)-1]})
		}
	}

	stats.ContourCount += countOpenContours(openEndpoints, geometry.ClosureTolerance)
	stats.PierceCount = stats.ContourCount

	for _, s := range allSegments {
		stats.CutLengthMM += s.Length()
	}
	var shortLength float64
	for _, s := range allSegments {
		if l := s.Length(); l < ShortSegmentThresholdMM {
			shortLength += l
		}
	}
	if stats.CutLengthMM > 0 {
		stats.ShortSegmentRatio = shortLength / stats.CutLengthMM
	}

	if stats.CutLengthMM <= 0 {
		return Stats{}, MotionInputs{}, warnings, fmt.Errorf("%w: drawing %q", ErrDegenerateGeometry, d.ID)
	}

	if !anyClosed {
		warnings = append(warnings, Warning{
			Kind:    WarningOpenContour,
			Message: fmt.Sprintf("drawing %q has no closed outer contour; stats derived from open path", d.ID),
		})
	}

	outerIdx, ok := pickOuter(closedCandidates)
	if ok {
		outer := closedCandidates[outerIdx]
		stats.OccupiedAreaMM2 = geometry.ShoelaceArea(outer.pts)
		net := stats.OccupiedAreaMM2
		for i, c := range closedCandidates {
			if i == outerIdx {
				continue
			}
			if outer.box.Contains(c.box) {
				net -= geometry.ShoelaceArea(c.pts)
			}
		}
		if net < 0 {
			net = 0
		}
		stats.NetAreaMM2 = net
	} else if box, ok := geometry.BoundsOf(allPoints); ok {
		stats.OccupiedAreaMM2 = box.Area()
		stats.NetAreaMM2 = stats.OccupiedAreaMM2
	}

	return stats, motion, warnings, nil
}

func polylineLength(pts []geometry.Point, closed bool) float64 {
	var total float64
	for i := 0; i+1 < len(pts); i++ {
		total += geometry.Dist(pts[i], pts[i+1])
	}
	if closed && len(pts) >= 2 {
		total += geometry.Dist(pts[len(pts)-1], pts[0])
	}
	return total
}

func segmentsFromPoints(pts []geometry.Point, closed bool) []geometry.Segment {
	segs := make([]geometry.Segment, 0, len(pts))
	for i := 0; i+1 < len(pts); i++ {
		segs = append(segs, geometry.Segment{Start: pts[i], End: pts[i+1]})
	}
	if closed && len(pts) >= 2 {
		segs = append(segs, geometry.Segment{Start: pts[len(pts)-1], End: pts[0]})
	}
	return segs
}

// pickOuter selects the candidate with the largest bounding-box area,
// the part's outer profile among possibly several closed loops (holes,
// or a disjoint contour such as a separate nested label) on the same
// drawing.
func pickOuter(candidates []closedCandidate) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := 0
	bestArea := candidates[0].box.Area()
	for i := 1; i < len(candidates); i++ {
		a := candidates[i].box.Area()
		if a > bestArea {
			best = i
			bestArea = a
		}
	}
	return best, true
}

// countOpenContours chains loose open paths by shared endpoints and
// returns the number of resulting chains, matching the stitching
// tolerance used for contour closure detection.
func countOpenContours(endpoints []openEndpoint, tolerance float64) int {
	n := len(endpoints)
	if n == 0 {
		return 0
	}
	used := make([]bool, n)
	count := 0
	for i := range endpoints {
		if used[i] {
			continue
		}
		count++
		used[i] = true
		currentEnd := endpoints[i].end
		changed := true
		for changed {
			changed = false
			for j := range endpoints {
				if used[j] {
					continue
				}
				switch {
				case geometry.Close(currentEnd, endpoints[j].start, tolerance):
					used[j] = true
					currentEnd = endpoints[j].end
					changed = true
				case geometry.Close(currentEnd, endpoints[j].end, tolerance):
					used[j] = true
					currentEnd = endpoints[j].start
					changed = true
				}
			}
		}
	}
	return count
}
