// Package toolpath turns a vector drawing into the flat, ordered
// segment lists the rest of the costing engine works with, plus the
// per-drawing statistics (cut length, pierce count, occupied area)
// that feed the Motion Planner, Sheet Allocator, and Cost Engine.
// Drawing blobs are opaque outside this package: it owns every decoder
// (DXF today; additional formats slot in the same way).
package toolpath

import "github.com/metalforge/sheetcost/internal/geometry"

// ShortSegmentThresholdMM is the length below which a cut segment
// counts toward short_segment_ratio.
const ShortSegmentThresholdMM = 5.0

// Stats is the immutable, per-drawing summary the Stats Cache memoises.
type Stats struct {
	CutLengthMM       float64        `json:"cut_length_mm"`
	EngravingLengthMM float64        `json:"engraving_length_mm"`
	PierceCount       int            `json:"pierce_count"`
	ContourCount      int            `json:"contour_count"`
	ShortSegmentRatio float64        `json:"short_segment_ratio"`
	OccupiedAreaMM2   float64        `json:"occupied_area_mm2"`
	NetAreaMM2        float64        `json:"net_area_mm2"`
	EntityCounts      map[string]int `json:"entity_counts"`
}

// WarningKind enumerates the non-fatal conditions the extractor and
// rate resolver can surface alongside a CostSummary.
type WarningKind string

const (
	WarningOpenContour       WarningKind = "OpenContour"
	WarningUnsupportedEntity WarningKind = "UnsupportedEntity"
	WarningRateSubstituted   WarningKind = "RateSubstituted"
	WarningBufferBelowOne    WarningKind = "BufferBelowOne"
)

// Warning is a non-fatal condition surfaced alongside a run's result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// ContourPath is one contour's tessellated segments, tagged with the
// contour id the Motion Planner uses to reset velocity to zero at
// contour boundaries.
type ContourPath struct {
	ContourID int
	Closed    bool
	Segments  []geometry.Segment
}

// MotionInputs is the optional Tier-2 cache payload: every contour's
// segment list, preserved separately so the Motion Planner can apply
// its forward/backward pass per contour.
type MotionInputs struct {
	Contours []ContourPath
}

// Entity is one decoded drawing primitive, already classified by kind
// and tagged with its source layer so the extractor can apply layer
// filtering (ignored layers, marking/engraving layers) uniformly
// regardless of which file format produced it.
type Entity struct {
	Kind   string // LINE, ARC, CIRCLE or LWPOLYLINE (the kinds DecodeDXF produces)
	Layer  string
	Points []geometry.Point // already-tessellated vertex chain for this entity
	Closed bool             // true for CIRCLE and closed LWPOLYLINE
}

// Drawing is a decoded set of entities ready for extraction.
type Drawing struct {
	ID       string
	Entities []Entity
}
