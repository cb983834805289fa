package toolpath

import (
	"errors"
	"math"
	"testing"

	"github.com/metalforge/sheetcost/internal/geometry"
)

func squareEntity(side float64) Entity {
	return Entity{
		Kind: "LWPOLYLINE",
		Points: []geometry.Point{
			{X: 0, Y: 0},
			{X: side, Y: 0},
			{X: side, Y: side},
			{X: 0, Y: side},
		},
		Closed: true,
	}
}

func TestExtractClosedSquare(t *testing.T) {
	d := Drawing{ID: "square", Entities: []Entity{squareEntity(100)}}
	stats, motion, warnings, err := Extract(d, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if stats.ContourCount != 1 || stats.PierceCount != 1 {
		t.Errorf("contour/pierce count = %d/%d, want 1/1", stats.ContourCount, stats.PierceCount)
	}
	if math.Abs(stats.CutLengthMM-400) > 1e-6 {
		t.Errorf("cut length = %v, want 400", stats.CutLengthMM)
	}
	if math.Abs(stats.OccupiedAreaMM2-10000) > 1e-6 {
		t.Errorf("occupied area = %v, want 10000", stats.OccupiedAreaMM2)
	}
	for _, w := range warnings {
		if w.Kind == WarningOpenContour {
			t.Errorf("unexpected open-contour warning for a closed square")
		}
	}
	if len(motion.Contours) != 1 {
		t.Fatalf("expected 1 motion contour, got %d", len(motion.Contours))
	}
}

func TestExtractOpenContourWarning(t *testing.T) {
	d := Drawing{ID: "open", Entities: []Entity{{
		Kind:   "LINE",
		Points: []geometry.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}},
		Closed: false,
	}}}
	stats, _, warnings, err := Extract(d, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if stats.CutLengthMM != 1000 {
		t.Errorf("cut length = %v, want 1000", stats.CutLengthMM)
	}
	found := false
	for _, w := range warnings {
		if w.Kind == WarningOpenContour {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an OpenContour warning")
	}
}

func TestExtractDegenerateGeometry(t *testing.T) {
	d := Drawing{ID: "empty", Entities: nil}
	_, _, _, err := Extract(d, ExtractOptions{})
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestExtractShortSegmentRatio(t *testing.T) {
	// Four 1mm segments (short) plus one 996mm segment: ratio should be 4/1000.
	d := Drawing{ID: "dense", Entities: []Entity{{
		Kind: "LWPOLYLINE",
		Points: []geometry.Point{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 4, Y: 0}, {X: 1000, Y: 0},
		},
		Closed: false,
	}}}
	stats, _, _, err := Extract(d, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := 4.0 / 1000.0
	if math.Abs(stats.ShortSegmentRatio-want) > 1e-6 {
		t.Errorf("short_segment_ratio = %v, want %v", stats.ShortSegmentRatio, want)
	}
}

func TestExtractIgnoresAnnotationLayers(t *testing.T) {
	d := Drawing{ID: "annotated", Entities: []Entity{
		squareEntity(50),
		{
			Kind:   "LINE",
			Layer:  "WYMIARY",
			Points: []geometry.Point{{X: 0, Y: 0}, {X: 500, Y: 0}},
		},
	}}
	stats, _, _, err := Extract(d, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if stats.CutLengthMM != 200 { // just the square's perimeter
		t.Errorf("cut length = %v, want 200 (dimension layer should be ignored)", stats.CutLengthMM)
	}
}

func TestExtractEngravingLayer(t *testing.T) {
	d := Drawing{ID: "marked", Entities: []Entity{
		squareEntity(50),
		{
			Kind:   "LINE",
			Layer:  "grawer-text",
			Points: []geometry.Point{{X: 0, Y: 0}, {X: 30, Y: 0}},
		},
	}}
	stats, _, _, err := Extract(d, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if stats.EngravingLengthMM != 30 {
		t.Errorf("engraving length = %v, want 30", stats.EngravingLengthMM)
	}
	if stats.CutLengthMM != 200 {
		t.Errorf("cut length = %v, want 200 (marking layer excluded from cut length)", stats.CutLengthMM)
	}
}

func TestHashDrawingDeterministic(t *testing.T) {
	d := Drawing{ID: "square", Entities: []Entity{squareEntity(100)}}
	_, motion1, _, err := Extract(d, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	_, motion2, _, err := Extract(d, ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	h1 := HashDrawing(motion1, 0.1)
	h2 := HashDrawing(motion2, 0.1)
	if h1 != h2 {
		t.Errorf("HashDrawing() not deterministic across identical extractions")
	}
}

func TestCountOpenContoursChaining(t *testing.T) {
	eps := []openEndpoint{
		{start: geometry.Point{X: 0, Y: 0}, end: geometry.Point{X: 10, Y: 0}},
		{start: geometry.Point{X: 10, Y: 0}, end: geometry.Point{X: 10, Y: 10}},
		{start: geometry.Point{X: 100, Y: 100}, end: geometry.Point{X: 200, Y: 200}},
	}
	if got := countOpenContours(eps, 0.1); got != 2 {
		t.Errorf("countOpenContours() = %d, want 2", got)
	}
}
