// Package allocation implements the Sheet Allocator: the 94% rule for
// deciding a cut-to-length sheet's billable area, the sheet's total
// material cost, and the division of that cost across the parts placed
// on it. Allocation never looks at cut time or rates for any other
// surcharge — it is purely an area-and-price computation, grounded the
// same way the rest of this engine separates concerns by component.
package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/metalforge/sheetcost/internal/model"
)

// FullSheetThreshold is the minimum used_ratio at which a CUT_TO_LENGTH
// sheet is billed as if it were a full FIXED_SHEET: the remaining strip
// is assumed too small to reuse and is scrapped.
const FullSheetThreshold = 0.94

// EffectiveAreaMM2 computes the sheet area billed for material cost,
// applying the 94% rule for CUT_TO_LENGTH sheets.
func EffectiveAreaMM2(sheet model.Sheet) float64 {
	if sheet.SheetMode != model.CutToLength {
		return sheet.SheetWidthMM * sheet.SheetLengthNominalMM
	}
	if sheet.SheetLengthNominalMM <= 0 {
		return sheet.SheetWidthMM * sheet.SheetLengthNominalMM
	}
	usedRatio := sheet.UsedLengthYMM / sheet.SheetLengthNominalMM
	if usedRatio >= FullSheetThreshold {
		return sheet.SheetWidthMM * sheet.SheetLengthNominalMM
	}
	return sheet.SheetWidthMM * (sheet.UsedLengthYMM + sheet.TrimMarginYMM)
}

// MaterialPricing is the resolved price for one (material, thickness)
// pair: exactly one of PricePerM2 or PricePerKG is set, mirroring the
// rate book's mutually-exclusive pricing fields.
type MaterialPricing struct {
	DensityKGM3 float64
	PricePerM2  float64
	PricePerKG  float64
	PricedByKG  bool
}

// SheetMaterialCost computes the total material cost of a sheet given
// its resolved pricing, in PLN.
func SheetMaterialCost(sheet model.Sheet, pricing MaterialPricing) (float64, error) {
	areaMM2 := EffectiveAreaMM2(sheet)
	areaM2 := areaMM2 / 1_000_000

	if pricing.PricedByKG {
		thicknessM := sheet.ThicknessMM / 1000.0
		massKG := areaM2 * thicknessM * pricing.DensityKGM3
		return massKG * pricing.PricePerKG, nil
	}
	if pricing.PricePerM2 > 0 {
		return areaM2 * pricing.PricePerM2, nil
	}
	return 0, fmt.Errorf("allocation: no usable price for material %q thickness %.2fmm", sheet.MaterialID, sheet.ThicknessMM)
}

// PartMaterialCost is one part instance's share of a sheet's material
// cost.
type PartMaterialCost struct {
	PartInstanceID string
	CostPLN        float64
}

// AllocateOccupiedArea divides sheetCost across parts in proportion to
// each instance's total occupied area (occupied_area_mm2 · qty), the
// default and recommended model: parts with holes are not artificially
// cheapened, and sheet-space usage is billed fairly.
func AllocateOccupiedArea(sheetCostPLN float64, parts []model.PartInstance) []PartMaterialCost {
	var totalOccupied float64
	for _, p := range parts {
		totalOccupied += p.OccupiedAreaMM2 * float64(p.QtyInSheet)
	}
	out := make([]PartMaterialCost, len(parts))
	if totalOccupied <= 0 {
		for i, p := range parts {
			out[i] = PartMaterialCost{PartInstanceID: p.PartInstanceID, CostPLN: 0}
		}
		return out
	}
	for i, p := range parts {
		share := (p.OccupiedAreaMM2 * float64(p.QtyInSheet)) / totalOccupied
		out[i] = PartMaterialCost{PartInstanceID: p.PartInstanceID, CostPLN: sheetCostPLN * share}
	}
	rebalance(out, sheetCostPLN)
	return out
}

// AllocateLegacyUtilization divides sheetCost using the legacy
// utilization-factor model, retained for backward comparison only: a
// poorly utilized sheet inflates every part's share by the same
// factor, unlike the occupied-area model.
func AllocateLegacyUtilization(sheetCostPLN float64, sheet model.Sheet, parts []model.PartInstance) []PartMaterialCost {
	areaUsed := EffectiveAreaMM2(sheet)

	var totalOccupied float64
	for _, p := range parts {
		totalOccupied += p.OccupiedAreaMM2 * float64(p.QtyInSheet)
	}
	utilization := 0.0
	if areaUsed > 0 {
		utilization = totalOccupied / areaUsed
	}
	if utilization <= 0 {
		utilization = 0.01
	}

	costPerMM2 := 0.0
	if areaUsed > 0 {
		costPerMM2 = sheetCostPLN / areaUsed
	}

	out := make([]PartMaterialCost, len(parts))
	for i, p := range parts {
		base := p.OccupiedAreaMM2 * costPerMM2
		out[i] = PartMaterialCost{PartInstanceID: p.PartInstanceID, CostPLN: (base / utilization) * float64(p.QtyInSheet)}
	}
	rebalance(out, sheetCostPLN)
	return out
}

// Allocate dispatches to the requested allocation model.
func Allocate(model_ model.AllocationModel, sheetCostPLN float64, sheet model.Sheet, parts []model.PartInstance) ([]PartMaterialCost, error) {
	switch model_ {
	case model.AllocationOccupiedArea, "":
		return AllocateOccupiedArea(sheetCostPLN, parts), nil
	case model.AllocationLegacyUtilization:
		return AllocateLegacyUtilization(sheetCostPLN, sheet, parts), nil
	default:
		return nil, fmt.Errorf("allocation: unknown allocation model %q", model_)
	}
}

// rebalance assigns the rounding residue left after proportional
// division to the largest-area part, so the allocated total matches
// sheetCostPLN exactly rather than merely within tolerance.
func rebalance(costs []PartMaterialCost, sheetCostPLN float64) {
	if len(costs) == 0 {
		return
	}
	var sum float64
	for _, c := range costs {
		sum += c.CostPLN
	}
	residue := sheetCostPLN - sum
	if residue == 0 {
		return
	}
	largest := 0
	for i := 1; i < len(costs); i++ {
		if costs[i].CostPLN > costs[largest].CostPLN {
			largest = i
		}
	}
	costs[largest].CostPLN += residue
}

// MaterialDensities is the fallback density table (kg/m³) keyed by
// material-family substring, used when a rate-book entry omits an
// explicit density.
var MaterialDensities = map[string]float64{
	"S235":    7850,
	"S355":    7850,
	"DC01":    7850,
	"DC04":    7850,
	"HARDOX":  7850,
	"1.4301":  7900,
	"1.4404":  7900,
	"1.4541":  7900,
	"INOX":    7900,
	"AL":      2700,
	"ALU":     2700,
	"5754":    2700,
	"6061":    2700,
	"CU":      8960,
	"BRASS":   8500,
	"DEFAULT": 7850,
}

// DefaultDensityFor resolves a density for materialID by substring
// match against MaterialDensities, falling back to steel density when
// no family is recognized. Keys are checked longest-first so, e.g.,
// "ALUMINIUM" does not fall through to the bare "AL" prefix by chance
// of map iteration order.
func DefaultDensityFor(materialID string) float64 {
	upper := strings.ToUpper(materialID)
	keys := make([]string, 0, len(MaterialDensities))
	for k := range MaterialDensities {
		if k != "DEFAULT" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		if strings.Contains(upper, k) {
			return MaterialDensities[k]
		}
	}
	return MaterialDensities["DEFAULT"]
}
