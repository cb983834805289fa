// Package rates implements the Rate Resolver: a (material_id,
// thickness_mm) keyed book of cutting, piercing, foil-removal, and
// material prices, with a bounded nearest-thickness fallback when the
// exact pair is not stocked.
package rates

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/metalforge/sheetcost/internal/toolpath"
)

// ErrRateMissing is returned when no entry for a material exists at
// all, or the nearest available thickness falls outside tolerance.
var ErrRateMissing = errors.New("rates: no applicable rate")

// DefaultThicknessTolerance is the default ±20% band within which a
// nearby thickness may substitute for an exact miss.
const DefaultThicknessTolerance = 0.20

// DefaultFoilThresholdMM is the thickness ceiling, for a stainless-like
// material, below which foil removal auto-enables.
const DefaultFoilThresholdMM = 5.0

// FoilCostForm selects how a FoilRemoval entry's CostValue is
// expressed.
type FoilCostForm string

const (
	FoilCostPerMinute FoilCostForm = "PER_MINUTE"
	FoilCostPerM2     FoilCostForm = "PER_M2"
	FoilCostPerMeter  FoilCostForm = "PER_METER"
)

// FoilRemoval is the rate book's protective-foil removal entry for one
// material/thickness combination.
type FoilRemoval struct {
	SpeedMMin float64
	CostForm  FoilCostForm
	CostValue float64
}

// Entry is one (material_id, thickness_mm) rate-book row.
type Entry struct {
	MaterialID    string
	ThicknessMM   float64
	DensityKGM3   float64
	PricePerM2    float64
	PricePerKG    float64
	PricedByKG    bool
	CutFeedrateMMin       float64
	CutPricePerMeterPLN   float64
	MachineRatePLNPerHour float64
	PierceTimeS           float64
	PierceCostPLN         float64
	StainlessLike         bool
	FoilRemoval           *FoilRemoval
	PunchCostPerPunch     float64
}

// Key identifies one rate-book row.
type Key struct {
	MaterialID  string
	ThicknessMM float64
}

// Book is the in-memory Rate Resolver. It is read-mostly configuration
// loaded once per process and shared across costing runs.
type Book struct {
	entries           map[Key]Entry
	thicknessTolerance float64
	foilThresholdMM    float64
}

// NewBook constructs an empty Book with the given tolerance band (0
// selects DefaultThicknessTolerance) and foil threshold (0 selects
// DefaultFoilThresholdMM).
func NewBook(thicknessTolerance, foilThresholdMM float64) *Book {
	if thicknessTolerance <= 0 {
		thicknessTolerance = DefaultThicknessTolerance
	}
	if foilThresholdMM <= 0 {
		foilThresholdMM = DefaultFoilThresholdMM
	}
	return &Book{
		entries:            make(map[Key]Entry),
		thicknessTolerance: thicknessTolerance,
		foilThresholdMM:    foilThresholdMM,
	}
}

// Add inserts or overwrites a rate-book entry, keyed by its own
// material id and thickness.
func (b *Book) Add(e Entry) {
	b.entries[Key{MaterialID: e.MaterialID, ThicknessMM: e.ThicknessMM}] = e
}

// Len reports the number of loaded entries.
func (b *Book) Len() int {
	return len(b.entries)
}

// Resolve looks up the rate for (materialID, thicknessMM): exact match
// first, then the nearest thickness for the same material within
// ±tolerance, carrying a WarningRateSubstituted. Failures wrap
// ErrRateMissing via fmt.Errorf so callers can match it with errors.Is.
func (b *Book) Resolve(materialID string, thicknessMM float64) (Entry, []toolpath.Warning, error) {
	if e, ok := b.entries[Key{MaterialID: materialID, ThicknessMM: thicknessMM}]; ok {
		return e, nil, nil
	}

	var candidates []Entry
	for k, e := range b.entries {
		if k.MaterialID == materialID {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return Entry{}, nil, fmt.Errorf("%w: material %q has no entries", ErrRateMissing, materialID)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return math.Abs(candidates[i].ThicknessMM-thicknessMM) < math.Abs(candidates[j].ThicknessMM-thicknessMM)
	})
	nearest := candidates[0]
	tolerance := thicknessMM * b.thicknessTolerance
	if math.Abs(nearest.ThicknessMM-thicknessMM) > tolerance {
		return Entry{}, nil, fmt.Errorf("%w: material %q thickness %.2fmm has no entry within %.0f%% of nearest %.2fmm",
			ErrRateMissing, materialID, thicknessMM, b.thicknessTolerance*100, nearest.ThicknessMM)
	}

	warning := toolpath.Warning{
		Kind: toolpath.WarningRateSubstituted,
		Message: fmt.Sprintf("rates: substituted %.2fmm rate for requested %.2fmm (material %q)",
			nearest.ThicknessMM, thicknessMM, materialID),
	}
	return nearest, []toolpath.Warning{warning}, nil
}

// FoilApplicable reports whether foil removal should auto-enable for
// this entry, absent an explicit job override: the material must be
// marked stainless-like, carry a FoilRemoval entry, and the entry's
// thickness must not exceed the book's foil threshold.
func (b *Book) FoilApplicable(e Entry) bool {
	return e.StainlessLike && e.FoilRemoval != nil && e.ThicknessMM <= b.foilThresholdMM
}
