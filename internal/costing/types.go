// Package costing implements the Cost Engine (component X) and the
// Costing Facade (component I) that drives it: given a NestingResult,
// a MachineProfile, a rate book, and the caller's JobOverrides, it
// produces a CostSummary carrying both pricing variants and a full
// per-part attribution that sums exactly to each variant's total.
package costing

import "fmt"

// ErrorKind classifies a fatal costing failure.
type ErrorKind string

const (
	ErrInvalidInput       ErrorKind = "INVALID_INPUT"
	ErrRateMissing        ErrorKind = "RATE_MISSING"
	ErrStatsMissing       ErrorKind = "STATS_MISSING"
	ErrDegenerateGeometry ErrorKind = "DEGENERATE_GEOMETRY"
	ErrInvariantViolation ErrorKind = "INVARIANT_VIOLATION"
)

// Error is the engine's single fatal-error shape; every failure path
// carries a Kind so callers can branch without string matching, and
// the offending SheetID when one is known.
type Error struct {
	Kind    ErrorKind
	SheetID string
	Message string
}

func (e *Error) Error() string {
	if e.SheetID != "" {
		return fmt.Sprintf("costing: %s (sheet %s): %s", e.Kind, e.SheetID, e.Message)
	}
	return fmt.Sprintf("costing: %s: %s", e.Kind, e.Message)
}

// JobCosts are the per-run charges added once to each variant's total
// and distributed across parts proportionally to material+cut cost.
type JobCosts struct {
	TechCostPLN      float64 `json:"tech_cost_pln"`
	PackagingCostPLN float64 `json:"packaging_cost_pln"`
	TransportCostPLN float64 `json:"transport_cost_pln"`
}

// Total sums a JobCosts record.
func (j JobCosts) Total() float64 {
	return j.TechCostPLN + j.PackagingCostPLN + j.TransportCostPLN
}

// SheetBreakdownA is Variant A's (price-list) per-sheet breakdown.
type SheetBreakdownA struct {
	SheetID     string  `json:"sheet_id"`
	Material    float64 `json:"material"`
	Cut         float64 `json:"cut"`
	Pierce      float64 `json:"pierce"`
	Foil        float64 `json:"foil"`
	Punch       float64 `json:"punch"`
	Operational float64 `json:"operational"`
	Total       float64 `json:"total"`
}

// SheetBreakdownB is Variant B's (time-based) per-sheet breakdown.
type SheetBreakdownB struct {
	SheetID      string  `json:"sheet_id"`
	Material     float64 `json:"material"`
	Laser        float64 `json:"laser"`
	Punch        float64 `json:"punch"`
	Operational  float64 `json:"operational"`
	Total        float64 `json:"total"`
	CutTimeS     float64 `json:"cut_time_s"`
	PierceTimeS  float64 `json:"pierce_time_s"`
	FoilTimeS    float64 `json:"foil_time_s"`
	BilledTimeS  float64 `json:"billed_time_s"`
}

// VariantA is the price-list variant's complete result.
type VariantA struct {
	TotalPLN float64           `json:"total_pln"`
	Sheets   []SheetBreakdownA `json:"sheets"`
	JobCosts JobCosts          `json:"job_costs"`
}

// VariantB is the time-based variant's complete result.
type VariantB struct {
	TotalPLN float64           `json:"total_pln"`
	Sheets   []SheetBreakdownB `json:"sheets"`
	JobCosts JobCosts          `json:"job_costs"`
}

// PartAttribution is one part instance's full cost attribution across
// both variants.
type PartAttribution struct {
	PartInstanceID string  `json:"part_instance_id"`
	Material       float64 `json:"material"`
	CutA           float64 `json:"cut_a"`
	CutB           float64 `json:"cut_b"`
	PierceA        float64 `json:"pierce_a"`
	PierceB        float64 `json:"pierce_b"`
	FoilA          float64 `json:"foil_a"`
	FoilB          float64 `json:"foil_b"`
	PunchA         float64 `json:"punch_a"`
	PunchB         float64 `json:"punch_b"`
	Operational    float64 `json:"operational"`
	TotalA         float64 `json:"total_a"`
	TotalB         float64 `json:"total_b"`
}

// Summary is the engine's complete output for one NestingResult.
type Summary struct {
	AllocationModel  string                     `json:"allocation_model"`
	BufferFactor     float64                    `json:"buffer_factor"`
	MachineProfileID string                     `json:"machine_profile_id"`
	VariantA         VariantA                   `json:"variant_a"`
	VariantB         VariantB                   `json:"variant_b"`
	PerPart          map[string]PartAttribution `json:"per_part"`
	Warnings         []string                   `json:"warnings,omitempty"`
}
