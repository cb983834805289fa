// Package nesting provides a deliberately minimal guillotine-style
// placer used to build model.NestingResult fixtures for tests and
// demos. It is not the production nesting engine: the costing engine
// never re-derives placement, it only consumes a NestingResult handed
// to it by whatever system actually nests (CAM software, a dedicated
// nesting service, or this placer in a test).
package nesting

import (
	"sort"

	"github.com/google/uuid"
	"github.com/metalforge/sheetcost/internal/model"
	"github.com/metalforge/sheetcost/internal/toolpath"
)

// PartSpec is one part to place: its bounding-box footprint, quantity,
// and its toolpath stats (carried through unchanged into the
// resulting PartInstance, exactly as a real nesting system would pass
// through stats computed once by the Toolpath Extractor).
type PartSpec struct {
	PartID     string
	DrawingID  string
	WidthMM    float64
	HeightMM   float64
	Qty        int
	Stats      toolpath.Stats
}

// SheetSpec is one available stock sheet size for a given material and
// thickness. Quantity bounds how many sheets of this size may be used.
type SheetSpec struct {
	MaterialID  string
	ThicknessMM float64
	WidthMM     float64
	LengthMM    float64
	Quantity    int
}

// Placer packs PartSpecs onto SheetSpecs using a best-area-fit
// guillotine packer with free-rectangle splitting, the same algorithm
// shape CAM nesting software uses, simplified to a single rotation
// fallback (try unrotated, then 90°) and no grain constraints.
type Placer struct {
	KerfMM float64
}

// NewPlacer constructs a Placer with the given kerf allowance.
func NewPlacer(kerfMM float64) *Placer {
	return &Placer{KerfMM: kerfMM}
}

// Place packs parts onto sheets, largest-area-first, consuming sheets
// from sheetSpecs in the order given. It returns the resulting
// NestingResult plus any parts (by PartSpec, with Qty reduced to the
// unplaced remainder) that did not fit on any available sheet.
func (pl *Placer) Place(sourceType model.SourceType, sourceID string, parts []PartSpec, sheets []SheetSpec) (model.NestingResult, []PartSpec) {
	expanded := expandByQty(parts)
	sort.Slice(expanded, func(i, j int) bool {
		return expanded[i].WidthMM*expanded[i].HeightMM > expanded[j].WidthMM*expanded[j].HeightMM
	})

	stockPool := expandSheetsByQty(sheets)
	result := model.NestingResult{SourceType: sourceType, SourceID: sourceID}

	remaining := expanded
	for len(remaining) > 0 && len(stockPool) > 0 {
		stock := stockPool[0]
		stockPool = stockPool[1:]

		sheet, unplaced := pl.packOneSheet(stock, remaining)
		if len(sheet.Parts) > 0 {
			result.Sheets = append(result.Sheets, sheet)
		}
		remaining = unplaced
	}

	return result, collapseByQty(remaining)
}

func expandByQty(parts []PartSpec) []PartSpec {
	var out []PartSpec
	for _, p := range parts {
		for i := 0; i < p.Qty; i++ {
			cp := p
			cp.Qty = 1
			out = append(out, cp)
		}
	}
	return out
}

func expandSheetsByQty(sheets []SheetSpec) []SheetSpec {
	var out []SheetSpec
	for _, s := range sheets {
		for i := 0; i < s.Quantity; i++ {
			cp := s
			cp.Quantity = 1
			out = append(out, cp)
		}
	}
	return out
}

func collapseByQty(parts []PartSpec) []PartSpec {
	counts := make(map[string]int)
	order := make([]string, 0)
	byID := make(map[string]PartSpec)
	for _, p := range parts {
		if _, ok := counts[p.PartID]; !ok {
			order = append(order, p.PartID)
			byID[p.PartID] = p
		}
		counts[p.PartID]++
	}
	out := make([]PartSpec, 0, len(order))
	for _, id := range order {
		p := byID[id]
		p.Qty = counts[id]
		out = append(out, p)
	}
	return out
}

// packOneSheet greedily places as many remaining parts as fit onto one
// stock sheet, normal orientation first, falling back to a 90°
// rotation.
func (pl *Placer) packOneSheet(stock SheetSpec, parts []PartSpec) (model.Sheet, []PartSpec) {
	sheet := model.Sheet{
		SheetID:              uuid.New().String(),
		SheetMode:            model.FixedSheet,
		MaterialID:           stock.MaterialID,
		ThicknessMM:          stock.ThicknessMM,
		SheetWidthMM:         stock.WidthMM,
		SheetLengthNominalMM: stock.LengthMM,
	}

	packer := newPacker(stock.WidthMM, stock.LengthMM, pl.KerfMM)
	var unplaced []PartSpec

	var totalOccupied float64
	for _, part := range parts {
		ok, x, y, rotated := packer.insertBestOrientation(part.WidthMM, part.HeightMM)
		if !ok {
			unplaced = append(unplaced, part)
			continue
		}

		rotation := model.Rotate0
		if rotated {
			rotation = model.Rotate90
		}
		occupied := part.WidthMM * part.HeightMM
		totalOccupied += occupied

		sheet.Parts = append(sheet.Parts, model.PartInstance{
			PartInstanceID:  uuid.New().String(),
			PartID:          part.PartID,
			DrawingID:       part.DrawingID,
			QtyInSheet:      1,
			Transform:       model.Transform{XMM: x, YMM: y, Rotation: rotation},
			OccupiedAreaMM2: occupied,
			Stats:           part.Stats,
		})
	}
	sheet.OccupiedAreaMM2 = totalOccupied
	return sheet, unplaced
}
