package motion

import (
	"math"
	"testing"

	"github.com/metalforge/sheetcost/internal/geometry"
	"github.com/metalforge/sheetcost/internal/model"
	"github.com/metalforge/sheetcost/internal/toolpath"
)

func defaultProfile() model.MachineProfile {
	return model.MachineProfile{
		MaxAccelMMS2:            2000,
		MaxRapidMMS:             500,
		SquareCornerVelocityMMS: 50,
	}
}

// TestScenarioS1LongStraightLine matches spec scenario S1: a single
// 1000mm open segment, v_max = 5000 mm/s, a_max = 2000 mm/s². The
// segment is too short to reach v_max, so the trapezoidal profile
// collapses to a symmetric triangle: v_peak = sqrt(a_max*L) ≈
// 1414.2 mm/s and t = 2*v_peak/a_max ≈ 1.414s.
func TestScenarioS1LongStraightLine(t *testing.T) {
	path := toolpath.ContourPath{
		ContourID: 0,
		Segments:  []geometry.Segment{{Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 1000, Y: 0}}},
	}
	result := PlanContour(path, defaultProfile(), 5000)
	want := 2 * math.Sqrt(2000*1000) / 2000
	if math.Abs(result.TimeS-want) > 0.01 {
		t.Errorf("cut time = %v, want ~%v", result.TimeS, want)
	}
}

// TestScenarioS2DenseLacyPart matches spec scenario S2: a high
// short_segment_ratio must raise cut time relative to the plain S1
// case scaled to the same effective speed. The timing check uses a
// 10000 mm segment: a 1000 mm rest-to-rest segment at a_max = 2000
// mm/s² peaks at ~1414 mm/s, below both caps, so it would take the same
// time at either speed.
func TestScenarioS2DenseLacyPart(t *testing.T) {
	vMaxEff := EffectiveVMax(5000, 0.5)
	want := 3250.0
	if math.Abs(vMaxEff-want) > 1e-6 {
		t.Fatalf("EffectiveVMax() = %v, want %v", vMaxEff, want)
	}

	path := toolpath.ContourPath{
		ContourID: 0,
		Segments:  []geometry.Segment{{Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 10000, Y: 0}}},
	}
	atFull := PlanContour(path, defaultProfile(), 5000).TimeS
	atEff := PlanContour(path, defaultProfile(), vMaxEff).TimeS
	if atEff <= atFull {
		t.Errorf("reduced effective speed should take longer: atEff=%v atFull=%v", atEff, atFull)
	}
}

func TestSquareCornerSpeedLimitBoundaries(t *testing.T) {
	cases := []struct {
		angle float64
		want  float64
	}{
		{90, 50},   // v_corner_90 exactly
		{170, 50 * (1 + 80.0/90.0)}, // scale 1+(170-90)/90 ≈ 1.889, under v_max so uncapped
		{0, 10},    // floor: 0.2 * v_corner_90
		{180, 5000},
	}
	for _, c := range cases {
		got := SquareCornerSpeedLimit(c.angle, 50, 5000)
		if math.Abs(got-c.want) > 1e-6 {
			t.Errorf("SquareCornerSpeedLimit(%v) = %v, want %v", c.angle, got, c.want)
		}
	}
}

func TestSchedulerMonotonicityVMax(t *testing.T) {
	path := toolpath.ContourPath{
		ContourID: 0,
		Segments: []geometry.Segment{
			{Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 100, Y: 0}},
			{Start: geometry.Point{X: 100, Y: 0}, End: geometry.Point{X: 100, Y: 100}},
		},
	}
	tLow := PlanContour(path, defaultProfile(), 1000).TimeS
	tHigh := PlanContour(path, defaultProfile(), 5000).TimeS
	if tHigh > tLow {
		t.Errorf("raising v_max must never increase cut time: tLow=%v tHigh=%v", tLow, tHigh)
	}
}

func TestSchedulerMonotonicityAMax(t *testing.T) {
	path := toolpath.ContourPath{
		ContourID: 0,
		Segments: []geometry.Segment{
			{Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 100, Y: 0}},
			{Start: geometry.Point{X: 100, Y: 0}, End: geometry.Point{X: 100, Y: 100}},
		},
	}
	lowAccel := defaultProfile()
	lowAccel.MaxAccelMMS2 = 500
	highAccel := defaultProfile()
	highAccel.MaxAccelMMS2 = 4000

	tLow := PlanContour(path, lowAccel, 5000).TimeS
	tHigh := PlanContour(path, highAccel, 5000).TimeS
	if tHigh > tLow {
		t.Errorf("raising a_max must never increase cut time: tLow=%v tHigh=%v", tLow, tHigh)
	}
}

func TestSegmentTimeZeroLength(t *testing.T) {
	if got := SegmentTime(0, 10, 10, 100, 2000); got != 0 {
		t.Errorf("SegmentTime(zero length) = %v, want 0", got)
	}
}

func TestPlanJunctionSpeedsSingleSegment(t *testing.T) {
	v := PlanJunctionSpeeds([]float64{100}, []float64{0, 0}, 5000, 2000)
	if len(v) != 2 || v[0] != 0 || v[1] != 0 {
		t.Errorf("PlanJunctionSpeeds single segment = %v, want [0 0]", v)
	}
}

func TestPlanSheetCutTimeSumsContours(t *testing.T) {
	inputs := toolpath.MotionInputs{Contours: []toolpath.ContourPath{
		{ContourID: 0, Segments: []geometry.Segment{{Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 1000, Y: 0}}}},
		{ContourID: 1, Segments: []geometry.Segment{{Start: geometry.Point{X: 0, Y: 0}, End: geometry.Point{X: 500, Y: 0}}}},
	}}
	total, perContour := PlanSheetCutTime(inputs, defaultProfile(), 5000)
	if len(perContour) != 2 {
		t.Fatalf("expected 2 contour results, got %d", len(perContour))
	}
	sum := perContour[0].TimeS + perContour[1].TimeS
	if math.Abs(total-sum) > 1e-9 {
		t.Errorf("PlanSheetCutTime total = %v, want sum of contours %v", total, sum)
	}
}
