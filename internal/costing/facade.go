package costing

import (
	"context"
	"fmt"

	"github.com/metalforge/sheetcost/internal/allocation"
	"github.com/metalforge/sheetcost/internal/model"
	"github.com/metalforge/sheetcost/internal/motion"
	"github.com/metalforge/sheetcost/internal/rates"
	"github.com/metalforge/sheetcost/internal/statscache"
	"github.com/metalforge/sheetcost/internal/toolpath"
)

// OccupiedAreaTolerance is the maximum allowed discrepancy between a
// sheet's recorded occupied_area_mm2 and the sum of its parts' before
// the run fails with InvariantViolation.
const OccupiedAreaTolerance = 1.0

// DrawingFetcher retrieves a drawing's geometry by id, used only when
// a part instance arrives without cached toolpath stats.
type DrawingFetcher interface {
	Fetch(ctx context.Context, drawingID string) (toolpath.Drawing, error)
}

// Facade is the Costing Facade (component I): it wires the Motion
// Planner, Sheet Allocator, and Rate Resolver together into one
// deterministic pass over a NestingResult.
type Facade struct {
	RateBook        *rates.Book
	StatsCache      statscache.Cache
	Drawings        DrawingFetcher
	ExtractOptions  toolpath.ExtractOptions
}

// NewFacade constructs a Facade with the given collaborators. Drawings
// may be nil if every part instance is guaranteed to already carry
// stats.
func NewFacade(rateBook *rates.Book, cache statscache.Cache, drawings DrawingFetcher) *Facade {
	return &Facade{RateBook: rateBook, StatsCache: cache, Drawings: drawings}
}

// Cost computes a full Summary for nesting against mp and overrides.
// It checks ctx for cancellation between sheets, so a caller can abort
// a large multi-sheet job cleanly.
func (f *Facade) Cost(ctx context.Context, nesting model.NestingResult, mp model.MachineProfile, overrides model.JobOverrides) (Summary, []toolpath.Warning, error) {
	if overrides.BufferFactor <= 0 {
		overrides.BufferFactor = 1.25
	}

	summary := Summary{
		AllocationModel:  string(overrides.AllocationModel),
		BufferFactor:     overrides.BufferFactor,
		MachineProfileID: nesting.MachineProfileID,
		PerPart:          make(map[string]PartAttribution),
	}
	if summary.AllocationModel == "" {
		summary.AllocationModel = string(model.AllocationOccupiedArea)
	}

	var warnings []toolpath.Warning
	if overrides.BufferFactor < 1.0 {
		warnings = append(warnings, toolpath.Warning{
			Kind:    toolpath.WarningBufferBelowOne,
			Message: fmt.Sprintf("buffer_factor %.3f is below 1.0", overrides.BufferFactor),
		})
	}

	jobCosts := JobCosts{
		TechCostPLN:      overrides.TechCostPLN,
		PackagingCostPLN: overrides.PackagingCostPLN,
		TransportCostPLN: overrides.TransportCostPLN,
	}
	summary.VariantA.JobCosts = jobCosts
	summary.VariantB.JobCosts = jobCosts

	type partJobBasis struct {
		partInstanceID string
		basisA         float64
		basisB         float64
	}
	var jobBases []partJobBasis

	for _, sheet := range nesting.Sheets {
		select {
		case <-ctx.Done():
			return Summary{}, warnings, ctx.Err()
		default:
		}

		freshMotionInputs, extractWarnings, err := f.resolvePartStats(ctx, sheet)
		if err != nil {
			return Summary{}, warnings, err
		}
		warnings = append(warnings, extractWarnings...)

		if err := checkOccupiedAreaInvariant(sheet); err != nil {
			return Summary{}, warnings, err
		}

		bdA, bdB, parts, sheetWarnings, err := f.costSheet(sheet, mp, overrides, freshMotionInputs)
		if err != nil {
			return Summary{}, warnings, err
		}
		warnings = append(warnings, sheetWarnings...)

		summary.VariantA.Sheets = append(summary.VariantA.Sheets, bdA)
		summary.VariantA.TotalPLN += bdA.Total
		summary.VariantB.Sheets = append(summary.VariantB.Sheets, bdB)
		summary.VariantB.TotalPLN += bdB.Total

		for _, p := range parts {
			summary.PerPart[p.PartInstanceID] = p
			jobBases = append(jobBases, partJobBasis{
				partInstanceID: p.PartInstanceID,
				basisA:         p.Material + p.CutA,
				basisB:         p.Material + p.CutB,
			})
		}
	}

	summary.VariantA.TotalPLN += jobCosts.Total()
	summary.VariantB.TotalPLN += jobCosts.Total()

	var totalBasisA, totalBasisB float64
	for _, jb := range jobBases {
		totalBasisA += jb.basisA
		totalBasisB += jb.basisB
	}
	for _, jb := range jobBases {
		p := summary.PerPart[jb.partInstanceID]
		if totalBasisA > 0 {
			p.TotalA = p.Material + p.CutA + p.PierceA + p.FoilA + p.PunchA + p.Operational + jobCosts.Total()*(jb.basisA/totalBasisA)
		} else {
			p.TotalA = p.Material + p.CutA + p.PierceA + p.FoilA + p.PunchA + p.Operational
		}
		if totalBasisB > 0 {
			p.TotalB = p.Material + p.CutB + p.PierceB + p.FoilB + p.PunchB + p.Operational + jobCosts.Total()*(jb.basisB/totalBasisB)
		} else {
			p.TotalB = p.Material + p.CutB + p.PierceB + p.FoilB + p.PunchB + p.Operational
		}
		summary.PerPart[jb.partInstanceID] = p
	}

	if overrides.MarginPercent != 0 {
		applyMargin(&summary, overrides.MarginPercent)
	}

	for _, w := range warnings {
		summary.Warnings = append(summary.Warnings, w.Message)
	}
	return summary, warnings, nil
}

// applyMargin marks up both variants' totals and every part's
// attribution by the same factor, so the per-part totals continue to
// sum exactly to each variant's total after margin is applied.
func applyMargin(summary *Summary, marginPercent float64) {
	factor := 1.0 + marginPercent/100.0
	summary.VariantA.TotalPLN *= factor
	summary.VariantB.TotalPLN *= factor
	for id, p := range summary.PerPart {
		p.TotalA *= factor
		p.TotalB *= factor
		summary.PerPart[id] = p
	}
}

// resolvePartStats fills in any part instance whose Stats is still the
// zero value by fetching its drawing and running the Toolpath
// Extractor, memoizing the result in the Stats Cache by content hash.
// A part with a genuinely empty drawing (Stats legitimately all-zero)
// is indistinguishable from "not yet computed" in this representation;
// callers that need that distinction should populate Stats from T
// before handing the NestingResult to the Facade.
//
// It also returns the freshly extracted MotionInputs for each such
// part, keyed by part instance id: costSheet uses these to run the
// Motion Planner's detailed per-segment lookahead instead of the
// aggregate Stats-only estimate, matching the original system's
// default of preferring detailed motion planning whenever the
// geometry is actually available. A part whose Stats already arrived
// pre-populated (e.g. served from the Stats Cache upstream of the
// Facade) has no entry here, since only cached Stats survive that
// path, not the segment geometry that produced them.
//
// The Toolpath Extractor's warnings for those parts (e.g. OpenContour)
// are returned as well, for the Facade to collect into the run's
// warnings.
func (f *Facade) resolvePartStats(ctx context.Context, sheet model.Sheet) (map[string]toolpath.MotionInputs, []toolpath.Warning, error) {
	var freshMotionInputs map[string]toolpath.MotionInputs
	var warnings []toolpath.Warning
	for i := range sheet.Parts {
		p := &sheet.Parts[i]
		if !isZeroStats(p.Stats) {
			continue
		}
		if f.Drawings == nil {
			return nil, nil, &Error{Kind: ErrStatsMissing, SheetID: sheet.SheetID, Message: fmt.Sprintf("part %s has no stats and no drawing fetcher configured", p.PartInstanceID)}
		}
		drawing, err := f.Drawings.Fetch(ctx, p.DrawingID)
		if err != nil {
			return nil, nil, &Error{Kind: ErrStatsMissing, SheetID: sheet.SheetID, Message: fmt.Sprintf("fetch drawing %s: %v", p.DrawingID, err)}
		}
		stats, inputs, extractWarnings, err := toolpath.Extract(drawing, f.ExtractOptions)
		if err != nil {
			return nil, nil, &Error{Kind: ErrDegenerateGeometry, SheetID: sheet.SheetID, Message: fmt.Sprintf("extract drawing %s: %v", p.DrawingID, err)}
		}
		warnings = append(warnings, extractWarnings...)
		p.Stats = stats
		if freshMotionInputs == nil {
			freshMotionInputs = make(map[string]toolpath.MotionInputs)
		}
		freshMotionInputs[p.PartInstanceID] = inputs
		if f.StatsCache != nil {
			key := toolpath.HashDrawing(inputs, f.ExtractOptions.ToleranceMM)
			if _, hit, _ := f.StatsCache.Get(ctx, key); !hit {
				_ = f.StatsCache.Put(ctx, key, stats)
			}
		}
	}
	return freshMotionInputs, warnings, nil
}

func isZeroStats(s toolpath.Stats) bool {
	return s.CutLengthMM == 0 && s.PierceCount == 0 && s.ContourCount == 0 && s.OccupiedAreaMM2 == 0
}

func checkOccupiedAreaInvariant(sheet model.Sheet) error {
	var sum float64
	for _, p := range sheet.Parts {
		sum += p.OccupiedAreaMM2 * float64(p.QtyInSheet)
	}
	if sheet.OccupiedAreaMM2 > 0 && abs(sum-sheet.OccupiedAreaMM2) > OccupiedAreaTolerance {
		return &Error{
			Kind:    ErrInvariantViolation,
			SheetID: sheet.SheetID,
			Message: fmt.Sprintf("sum of part occupied areas %.2f does not match sheet occupied area %.2f", sum, sheet.OccupiedAreaMM2),
		}
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// costSheet computes both variants' breakdowns for one sheet plus its
// parts' per-variant attribution (job-level charges excluded; the
// Facade adds those after every sheet has been costed). motionInputs
// carries the fresh per-contour segment geometry for any part that was
// just extracted this run, keyed by part instance id; parts absent
// from it fall back to the aggregate Stats-only estimate.
func (f *Facade) costSheet(sheet model.Sheet, mp model.MachineProfile, overrides model.JobOverrides, motionInputs map[string]toolpath.MotionInputs) (SheetBreakdownA, SheetBreakdownB, []PartAttribution, []toolpath.Warning, error) {
	entry, rateWarnings, err := f.RateBook.Resolve(sheet.MaterialID, sheet.ThicknessMM)
	if err != nil {
		return SheetBreakdownA{}, SheetBreakdownB{}, nil, nil, &Error{Kind: ErrRateMissing, SheetID: sheet.SheetID, Message: err.Error()}
	}

	includeFoil := entry.StainlessLike && f.RateBook.FoilApplicable(entry)
	if overrides.IncludeFoilRemoval != nil {
		includeFoil = *overrides.IncludeFoilRemoval
	}

	pricing := allocation.MaterialPricing{
		DensityKGM3: entry.DensityKGM3,
		PricePerM2:  entry.PricePerM2,
		PricePerKG:  entry.PricePerKG,
		PricedByKG:  entry.PricedByKG,
	}
	sheetMaterialCost, err := allocation.SheetMaterialCost(sheet, pricing)
	if err != nil {
		return SheetBreakdownA{}, SheetBreakdownB{}, nil, nil, &Error{Kind: ErrInvalidInput, SheetID: sheet.SheetID, Message: err.Error()}
	}

	materialCosts, err := allocation.Allocate(overrides.AllocationModel, sheetMaterialCost, sheet, sheet.Parts)
	if err != nil {
		return SheetBreakdownA{}, SheetBreakdownB{}, nil, nil, &Error{Kind: ErrInvalidInput, SheetID: sheet.SheetID, Message: err.Error()}
	}
	materialByPart := make(map[string]float64, len(materialCosts))
	for _, mc := range materialCosts {
		materialByPart[mc.PartInstanceID] = mc.CostPLN
	}

	var totalCutLengthM, totalPierces float64
	for _, p := range sheet.Parts {
		totalCutLengthM += p.Stats.CutLengthMM * float64(p.QtyInSheet) / 1000.0
		totalPierces += float64(p.Stats.PierceCount * p.QtyInSheet)
	}

	cutCostA := totalCutLengthM * entry.CutPricePerMeterPLN
	var pierceCostA float64
	if overrides.IncludePiercing {
		pierceCostA = totalPierces * entry.PierceCostPLN
	}
	var foilCostA float64
	if includeFoil && entry.FoilRemoval != nil {
		foilCostA = foilCostForVariantA(*entry.FoilRemoval, totalCutLengthM, allocation.EffectiveAreaMM2(sheet)/1_000_000)
	}
	var punchCostA float64
	if overrides.IncludePunch {
		punchCostA = totalPierces * entry.PunchCostPerPunch
	}
	operational := overrides.OperationalCostPerSheet

	bdA := SheetBreakdownA{
		SheetID:     sheet.SheetID,
		Material:    sheetMaterialCost,
		Cut:         cutCostA,
		Pierce:      pierceCostA,
		Foil:        foilCostA,
		Punch:       punchCostA,
		Operational: operational,
	}
	bdA.Total = bdA.Material + bdA.Cut + bdA.Pierce + bdA.Foil + bdA.Punch + bdA.Operational

	vMax := entry.CutFeedrateMMin * 1000.0 / 60.0
	var cutTimeS float64
	for _, p := range sheet.Parts {
		var t float64
		if inputs, ok := motionInputs[p.PartInstanceID]; ok && len(inputs.Contours) > 0 {
			t, _ = motion.PlanSheetCutTime(inputs, mp, vMax)
		} else {
			t = motion.EstimatePartCutTime(p.Stats.CutLengthMM, p.Stats.ShortSegmentRatio, mp, vMax)
		}
		cutTimeS += t * float64(p.QtyInSheet)
	}
	var pierceTimeS float64
	if overrides.IncludePiercing {
		pierceTimeS = totalPierces * entry.PierceTimeS
	}
	var foilTimeS float64
	if includeFoil && entry.FoilRemoval != nil && entry.FoilRemoval.SpeedMMin > 0 {
		foilTimeS = totalCutLengthM / entry.FoilRemoval.SpeedMMin * 60
	}
	rawTimeS := cutTimeS + pierceTimeS + foilTimeS
	billedTimeS := rawTimeS * overrides.BufferFactor
	laserCost := billedTimeS / 3600.0 * entry.MachineRatePLNPerHour
	var punchCostB float64
	if overrides.IncludePunch {
		punchCostB = totalPierces * entry.PunchCostPerPunch
	}

	bdB := SheetBreakdownB{
		SheetID:     sheet.SheetID,
		Material:    sheetMaterialCost,
		Laser:       laserCost,
		Punch:       punchCostB,
		Operational: operational,
		CutTimeS:    cutTimeS,
		PierceTimeS: pierceTimeS,
		FoilTimeS:   foilTimeS,
		BilledTimeS: billedTimeS,
	}
	bdB.Total = bdB.Material + bdB.Laser + bdB.Punch + bdB.Operational

	var totalOccupied float64
	for _, p := range sheet.Parts {
		totalOccupied += p.OccupiedAreaMM2 * float64(p.QtyInSheet)
	}

	// Variant B bills cut, pierce, and foil time through one shared
	// laser_cost pool; split it into per-component PLN by each
	// component's share of raw_time_s before attributing to parts, so
	// the same cut/pierce/foil ratios used for Variant A apply here too.
	cutComponentB := laserCostShare(cutTimeS, rawTimeS, bdB.Laser)
	pierceComponentB := laserCostShare(pierceTimeS, rawTimeS, bdB.Laser)
	foilComponentB := laserCostShare(foilTimeS, rawTimeS, bdB.Laser)

	parts := make([]PartAttribution, 0, len(sheet.Parts))
	for _, p := range sheet.Parts {
		qty := float64(p.QtyInSheet)
		partCutLengthM := p.Stats.CutLengthMM * qty / 1000.0
		cutRatio := 0.0
		if totalCutLengthM > 0 {
			cutRatio = partCutLengthM / totalCutLengthM
		}
		pierceRatio := 0.0
		if totalPierces > 0 {
			pierceRatio = float64(p.Stats.PierceCount) * qty / totalPierces
		} else {
			pierceRatio = cutRatio
		}
		occupiedRatio := 0.0
		if totalOccupied > 0 {
			occupiedRatio = (p.OccupiedAreaMM2 * qty) / totalOccupied
		}

		parts = append(parts, PartAttribution{
			PartInstanceID: p.PartInstanceID,
			Material:       materialByPart[p.PartInstanceID],
			CutA:           bdA.Cut * cutRatio,
			CutB:           cutComponentB * cutRatio,
			PierceA:        bdA.Pierce * pierceRatio,
			PierceB:        pierceComponentB * pierceRatio,
			FoilA:          bdA.Foil * cutRatio,
			FoilB:          foilComponentB * cutRatio,
			PunchA:         bdA.Punch * pierceRatio,
			PunchB:         bdB.Punch * pierceRatio,
			Operational:    operational * occupiedRatio,
		})
	}

	return bdA, bdB, parts, rateWarnings, nil
}

func laserCostShare(componentTimeS, rawTimeS, laserCost float64) float64 {
	if rawTimeS <= 0 {
		return 0
	}
	return laserCost * (componentTimeS / rawTimeS)
}

func foilCostForVariantA(f rates.FoilRemoval, cutLengthM, areaUsedM2 float64) float64 {
	switch f.CostForm {
	case rates.FoilCostPerM2:
		return areaUsedM2 * f.CostValue
	case rates.FoilCostPerMinute:
		if f.SpeedMMin <= 0 {
			return 0
		}
		return (cutLengthM / f.SpeedMMin) * f.CostValue
	default: // rates.FoilCostPerMeter
		return cutLengthM * f.CostValue
	}
}
