// Package model holds the data types shared across the costing engine:
// the nesting result the engine consumes, the machine and rate-book
// configuration it reads, and the per-run overrides a caller may supply.
// NestingResult owns its sheets; sheets own their part instances; a part
// instance holds the part's catalogue id by reference, never a
// back-pointer, so the object graph stays acyclic.
package model

import "github.com/metalforge/sheetcost/internal/toolpath"

// SheetMode distinguishes a sheet bought at a fixed size from one cut
// to length off a coil.
type SheetMode string

const (
	FixedSheet   SheetMode = "FIXED_SHEET"
	CutToLength  SheetMode = "CUT_TO_LENGTH"
)

// Rotation is a placement's rotation, in one of the four axis-aligned
// quarter turns nesting ever produces.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Transform is a part instance's placement on its sheet.
type Transform struct {
	XMM      float64  `json:"x_mm"`
	YMM      float64  `json:"y_mm"`
	Rotation Rotation `json:"rotation"`
}

// PartInstance is a single placement of a part on a sheet.
type PartInstance struct {
	PartInstanceID string              `json:"part_instance_id"`
	PartID         string              `json:"part_id"`
	DrawingID      string              `json:"drawing_id"`
	QtyInSheet     int                 `json:"qty_in_sheet"`
	Transform      Transform           `json:"transform"`
	OccupiedAreaMM2 float64            `json:"occupied_area_mm2"`
	Stats          toolpath.Stats      `json:"toolpath_stats"`
}

// Sheet is one consumed sheet of material, carrying every part placed
// on it.
type Sheet struct {
	SheetID               string         `json:"sheet_id"`
	SheetMode             SheetMode      `json:"sheet_mode"`
	MaterialID            string         `json:"material_id"`
	ThicknessMM           float64        `json:"thickness_mm"`
	SheetWidthMM          float64        `json:"sheet_width_mm"`
	SheetLengthNominalMM  float64        `json:"sheet_length_mm_nominal"`
	UsedLengthYMM         float64        `json:"used_length_y_mm"`
	TrimMarginYMM         float64        `json:"trim_margin_y_mm"`
	OccupiedAreaMM2       float64        `json:"occupied_area_mm2"`
	Parts                 []PartInstance `json:"parts"`
}

// SourceType distinguishes which business object a NestingResult or
// JobOverrides record belongs to.
type SourceType string

const (
	SourceOrder     SourceType = "ORDER"
	SourceQuotation SourceType = "QUOTATION"
)

// NestingResult is the output of the external nesting placement
// algorithm: a set of sheets with parts already placed. This engine
// consumes it; it never recomputes placements.
type NestingResult struct {
	SourceType       SourceType `json:"source_type"`
	SourceID         string     `json:"source_id"`
	MachineProfileID string     `json:"machine_profile_id"`
	Sheets           []Sheet    `json:"sheets"`
}

// AllocationModel selects how a sheet's material cost is divided among
// its parts. OccupiedArea is the default, authoritative model;
// LegacyUtilization exists only for backward comparison and must be
// requested explicitly.
type AllocationModel string

const (
	AllocationOccupiedArea      AllocationModel = "OCCUPIED_AREA"
	AllocationLegacyUtilization AllocationModel = "LEGACY_UTILIZATION"
)

// JobOverrides is the closed set of per-run knobs a caller may supply.
// Fields beyond this list require explicit schema evolution, not a
// free-form map.
type JobOverrides struct {
	SourceType              SourceType      `json:"source_type"`
	SourceID                string          `json:"source_id"`
	TechCostPLN             float64         `json:"tech_cost_pln"`
	PackagingCostPLN        float64         `json:"packaging_cost_pln"`
	TransportCostPLN        float64         `json:"transport_cost_pln"`
	OperationalCostPerSheet float64         `json:"operational_cost_per_sheet_pln"`
	IncludePiercing         bool            `json:"include_piercing"`
	IncludeFoilRemoval      *bool           `json:"include_foil_removal,omitempty"`
	IncludePunch            bool            `json:"include_punch"`
	AllocationModel         AllocationModel `json:"allocation_model"`
	BufferFactor            float64         `json:"buffer_factor"`
	MarginPercent           float64         `json:"margin_percent"`
}

// DefaultJobOverrides returns the spec's documented defaults. Callers
// should start from this and override only the fields they care about.
func DefaultJobOverrides(sourceType SourceType, sourceID string) JobOverrides {
	return JobOverrides{
		SourceType:              sourceType,
		SourceID:                sourceID,
		OperationalCostPerSheet: 40,
		IncludePiercing:         true,
		IncludePunch:            false,
		AllocationModel:         AllocationOccupiedArea,
		BufferFactor:            1.25,
	}
}

// MachineProfile carries the kinematic limits of a laser cutting
// machine.
type MachineProfile struct {
	ID                      string  `json:"id"`
	MaxAccelMMS2            float64 `json:"max_accel_mm_s2"`
	MaxRapidMMS             float64 `json:"max_rapid_mm_s"`
	SquareCornerVelocityMMS float64 `json:"square_corner_velocity_mm_s"`
	JunctionDeviationMM     float64 `json:"junction_deviation_mm,omitempty"`
	UseJunctionDeviation    bool    `json:"use_junction_deviation"`
}
