// Package motion implements the Motion Planner: a forward/backward
// lookahead pass over a contour's segments that produces a trapezoidal
// per-segment cut time, the same lookahead shape GRBL- and
// Klipper-style CNC controllers use internally. Effective-v_max
// reduction for dense short-segment geometry, and the velocity reset
// to zero at contour boundaries, are both applied per contour, so a
// part with many small holes is never credited with speed it could
// only reach on a long straight run.
package motion

import (
	"math"

	"github.com/metalforge/sheetcost/internal/geometry"
	"github.com/metalforge/sheetcost/internal/model"
	"github.com/metalforge/sheetcost/internal/toolpath"
)

// CornerModel selects which cornering formula bounds junction speed.
// The two models are exclusive; a MachineProfile's UseJunctionDeviation
// flag picks between them.
type CornerModel int

const (
	CornerModelSquareCorner CornerModel = iota
	CornerModelJunctionDeviation
)

// cornerModelFor returns the CornerModel a machine profile selects.
func cornerModelFor(mp model.MachineProfile) CornerModel {
	if mp.UseJunctionDeviation {
		return CornerModelJunctionDeviation
	}
	return CornerModelSquareCorner
}

// SquareCornerSpeedLimit implements the default cornering model:
// 90° -> v_corner_90, 180° (straight) -> 2·v_corner_90 clamped to
// v_max, below 90° the limit tightens toward a 0.2·v_corner_90 floor.
// Angles within 1° of straight are treated as fully unconstrained.
func SquareCornerSpeedLimit(angleDeg, vCorner90, vMax float64) float64 {
	a := math.Max(0, math.Min(180, angleDeg))
	if a >= 179.0 {
		return vMax
	}
	scale := 1.0 + (a-90.0)/90.0
	return math.Min(vMax, vCorner90*math.Max(0.2, scale))
}

// JunctionDeviationSpeedLimit implements the alternative cornering
// model used by Marlin/Klipper-style firmware: the junction speed that
// keeps the path within deviationMM of the ideal corner.
func JunctionDeviationSpeedLimit(angleDeg, deviationMM, aMax, vMax float64) float64 {
	if angleDeg >= 179.0 {
		return vMax
	}
	theta := (180.0 - angleDeg) * math.Pi / 180.0
	halfTheta := theta / 2.0
	if halfTheta < 0.001 {
		return vMax
	}
	sinHalf := math.Sin(halfTheta)
	cosHalf := math.Cos(halfTheta)
	if sinHalf < 0.001 {
		return vMax
	}
	r := deviationMM * sinHalf / (1.0 - cosHalf)
	v := math.Sqrt(aMax * r)
	return math.Min(vMax, v)
}

// junctionSpeedLimit dispatches to the machine profile's selected
// cornering model.
func junctionSpeedLimit(model_ CornerModel, angleDeg float64, mp model.MachineProfile, vMax float64) float64 {
	if model_ == CornerModelJunctionDeviation {
		return JunctionDeviationSpeedLimit(angleDeg, mp.JunctionDeviationMM, mp.MaxAccelMMS2, vMax)
	}
	return SquareCornerSpeedLimit(angleDeg, mp.SquareCornerVelocityMMS, vMax)
}

// EffectiveVMax reduces the nominal feedrate for geometry dense with
// short segments: a machine can't reach full speed between closely
// spaced corners. The floor is 30% of v_max even at short_segment_ratio
// = 1.
func EffectiveVMax(vMax, shortSegmentRatio float64) float64 {
	const k = 0.7
	return math.Max(0.3*vMax, vMax*(1.0-k*shortSegmentRatio))
}

// PlanJunctionSpeeds computes the forward/backward lookahead pass over
// a single contour's segment lengths, returning n+1 planned junction
// velocities (index 0 and n are clamped to zero — a contour always
// starts and stops at rest, since the laser must pierce before cutting
// and the head must stop before retracting).
func PlanJunctionSpeeds(lengths []float64, junctionLimits []float64, vMax, aMax float64) []float64 {
	n := len(lengths)
	if n == 0 {
		return []float64{0}
	}

	v := make([]float64, n+1)
	for k := 1; k < n; k++ {
		reach := math.Sqrt(v[k-1]*v[k-1] + 2*aMax*lengths[k-1])
		v[k] = math.Min(math.Min(reach, junctionLimits[k]), vMax)
	}
	v[n] = 0

	for k := n - 1; k >= 0; k-- {
		reach := math.Sqrt(v[k+1]*v[k+1] + 2*aMax*lengths[k])
		if reach < v[k] {
			v[k] = reach
		}
	}
	return v
}

// SegmentTime computes the trapezoidal (accelerate/cruise/decelerate)
// time to traverse one segment entering at vStart and leaving at vEnd,
// capped at vMax with acceleration aMax.
func SegmentTime(length, vStart, vEnd, vMax, aMax float64) float64 {
	if length <= 0 {
		return 0
	}
	if aMax <= 0 {
		return length / math.Max(1e-9, vMax)
	}

	vPeakSq := aMax*length + 0.5*(vStart*vStart+vEnd*vEnd)
	vPeak := math.Min(vMax, math.Sqrt(math.Max(0, vPeakSq)))
	if vPeak <= 0 {
		return 0
	}

	sAccel := math.Max(0, (vPeak*vPeak-vStart*vStart)/(2*aMax))
	sDecel := math.Max(0, (vPeak*vPeak-vEnd*vEnd)/(2*aMax))
	sCruise := math.Max(0, length-sAccel-sDecel)

	tAccel := (vPeak - vStart) / aMax
	tDecel := (vPeak - vEnd) / aMax
	tCruise := sCruise / vPeak

	return tAccel + tCruise + tDecel
}

// JunctionAnglesDeg derives the junction angle at each internal
// endpoint of a contour's segment chain, plus 0 at both the contour's
// start and end (a contour always begins and ends at rest).
func JunctionAnglesDeg(segs []geometrySegment) []float64 {
	n := len(segs)
	angles := make([]float64, n+1)
	for i := 1; i < n; i++ {
		angles[i] = junctionAngleBetween(segs[i-1], segs[i])
	}
	return angles
}

// geometrySegment is the minimal shape PlanContour needs from a cut
// segment.
type geometrySegment interface {
	Length() float64
	HeadingDeg() float64
}

type segWrapper struct {
	geometry.Segment
}

func (w segWrapper) HeadingDeg() float64 {
	return w.Segment.Direction() * 180.0 / math.Pi
}

func segAdapter(s geometry.Segment) segWrapper {
	return segWrapper{Segment: s}
}

func junctionAngleBetween(in, out geometrySegment) float64 {
	delta := out.HeadingDeg() - in.HeadingDeg()
	for delta > 180 {
		delta -= 360
	}
	for delta < -180 {
		delta += 360
	}
	interior := 180.0 - math.Abs(delta)
	if interior < 0 {
		interior = 0
	}
	if interior > 180 {
		interior = 180
	}
	return interior
}

// ContourResult is one contour's planned cut time.
type ContourResult struct {
	ContourID int
	TimeS     float64
}

// PlanContour runs the full lookahead pipeline — junction angles,
// cornering limits, forward/backward pass, trapezoidal segment times —
// for a single contour, always starting and ending the contour at
// V=0 as a pierced cut must.
func PlanContour(path toolpath.ContourPath, mp model.MachineProfile, vMax float64) ContourResult {
	segs := make([]geometrySegment, len(path.Segments))
	lengths := make([]float64, len(path.Segments))
	for i, s := range path.Segments {
		gs := segAdapter(s)
		segs[i] = gs
		lengths[i] = gs.Length()
	}
	if len(segs) == 0 {
		return ContourResult{ContourID: path.ContourID, TimeS: 0}
	}

	angles := JunctionAnglesDeg(segs)
	cm := cornerModelFor(mp)
	limits := make([]float64, len(angles))
	for i, a := range angles {
		limits[i] = junctionSpeedLimit(cm, a, mp, vMax)
	}
	limits[0] = 0
	limits[len(limits)-1] = 0

	planned := PlanJunctionSpeeds(lengths, limits, vMax, mp.MaxAccelMMS2)

	var total float64
	for i, l := range lengths {
		total += SegmentTime(l, planned[i], planned[i+1], vMax, mp.MaxAccelMMS2)
	}
	return ContourResult{ContourID: path.ContourID, TimeS: total}
}

// PlanSheetCutTime sums every contour's planned time for a sheet's
// motion inputs, applying the short-segment effective-v_max reduction
// per contour (the resolved scope for this engine; see the design
// notes for why per-contour was chosen over pooling across the sheet).
func PlanSheetCutTime(inputs toolpath.MotionInputs, mp model.MachineProfile, vMaxNominal float64) (totalS float64, perContour []ContourResult) {
	for _, c := range inputs.Contours {
		ratio := shortSegmentRatioOf(c)
		vEff := EffectiveVMax(vMaxNominal, ratio)
		r := PlanContour(c, mp, vEff)
		perContour = append(perContour, r)
		totalS += r.TimeS
	}
	return totalS, perContour
}

// EstimatePartCutTime estimates one part instance's cut time from its
// cached aggregate Stats alone, without access to the original
// drawing's segment geometry. The Cost Engine uses this path only for
// parts whose Stats arrive already populated (e.g. from a
// content-addressed cache hit), since those carry no segment geometry;
// parts extracted during the run go through PlanSheetCutTime instead.
// Such a part is treated as a single synthesized cut from rest to rest
// of length cut_length_mm, with
// cornering effects already folded into short_segment_ratio's speed
// derating rather than modeled junction-by-junction.
func EstimatePartCutTime(cutLengthMM, shortSegmentRatio float64, mp model.MachineProfile, vMaxNominal float64) float64 {
	vEff := EffectiveVMax(vMaxNominal, shortSegmentRatio)
	return SegmentTime(cutLengthMM, 0, 0, vEff, mp.MaxAccelMMS2)
}

func shortSegmentRatioOf(c toolpath.ContourPath) float64 {
	var total, short float64
	for _, s := range c.Segments {
		l := segAdapter(s).Length()
		total += l
		if l < toolpath.ShortSegmentThresholdMM {
			short += l
		}
	}
	if total <= 0 {
		return 0
	}
	return short / total
}
