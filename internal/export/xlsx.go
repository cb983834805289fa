// Package export writes a costing.Summary out as a multi-sheet Excel
// workbook: one sheet for the job-level totals, one for the per-sheet
// breakdown of both variants, and one for the full per-part
// attribution — the same three-tier shape a production costing tool
// hands back to a quoting clerk.
package export

import (
	"fmt"
	"sort"

	"github.com/metalforge/sheetcost/internal/costing"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Summary"
	sheetSheets   = "Sheets"
	sheetPerPart  = "Parts"
)

// WriteXLSX renders summary as an Excel workbook at path.
func WriteXLSX(path string, summary costing.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, summary); err != nil {
		return fmt.Errorf("export: summary sheet: %w", err)
	}
	if err := writeSheetsSheet(f, summary); err != nil {
		return fmt.Errorf("export: sheets sheet: %w", err)
	}
	if err := writePartsSheet(f, summary); err != nil {
		return fmt.Errorf("export: parts sheet: %w", err)
	}

	f.SetActiveSheet(0)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: remove default sheet: %w", err)
	}
	return f.SaveAs(path)
}

func writeSummarySheet(f *excelize.File, summary costing.Summary) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}
	rows := [][2]interface{}{
		{"Allocation model", summary.AllocationModel},
		{"Buffer factor", summary.BufferFactor},
		{"Machine profile", summary.MachineProfileID},
		{"", ""},
		{"Variant A total (PLN)", summary.VariantA.TotalPLN},
		{"Variant B total (PLN)", summary.VariantB.TotalPLN},
		{"", ""},
		{"Tech cost (PLN)", summary.VariantA.JobCosts.TechCostPLN},
		{"Packaging cost (PLN)", summary.VariantA.JobCosts.PackagingCostPLN},
		{"Transport cost (PLN)", summary.VariantA.JobCosts.TransportCostPLN},
	}
	for i, row := range rows {
		r := i + 1
		if err := f.SetCellValue(sheetSummary, cellRef(1, r), row[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetSummary, cellRef(2, r), row[1]); err != nil {
			return err
		}
	}
	if len(summary.Warnings) > 0 {
		base := len(rows) + 2
		if err := f.SetCellValue(sheetSummary, cellRef(1, base), "Warnings"); err != nil {
			return err
		}
		for i, w := range summary.Warnings {
			if err := f.SetCellValue(sheetSummary, cellRef(1, base+1+i), w); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheetSummary, "A", "A", 28)
}

var sheetsHeader = []string{
	"Sheet ID", "Material A", "Cut A", "Pierce A", "Foil A", "Punch A", "Operational A", "Total A",
	"Material B", "Laser B", "Punch B", "Operational B", "Total B", "Billed Time (s)",
}

func writeSheetsSheet(f *excelize.File, summary costing.Summary) error {
	if _, err := f.NewSheet(sheetSheets); err != nil {
		return err
	}
	if err := writeHeaderRow(f, sheetSheets, sheetsHeader); err != nil {
		return err
	}

	bByID := make(map[string]costing.SheetBreakdownB, len(summary.VariantB.Sheets))
	for _, b := range summary.VariantB.Sheets {
		bByID[b.SheetID] = b
	}

	for i, a := range summary.VariantA.Sheets {
		r := i + 2
		b := bByID[a.SheetID]
		values := []interface{}{
			a.SheetID, a.Material, a.Cut, a.Pierce, a.Foil, a.Punch, a.Operational, a.Total,
			b.Material, b.Laser, b.Punch, b.Operational, b.Total, b.BilledTimeS,
		}
		if err := writeRow(f, sheetSheets, r, values); err != nil {
			return err
		}
	}
	return nil
}

var partsHeader = []string{
	"Part Instance ID", "Material", "Cut A", "Pierce A", "Foil A", "Punch A", "Total A",
	"Cut B", "Pierce B", "Foil B", "Punch B", "Total B",
}

func writePartsSheet(f *excelize.File, summary costing.Summary) error {
	if _, err := f.NewSheet(sheetPerPart); err != nil {
		return err
	}
	if err := writeHeaderRow(f, sheetPerPart, partsHeader); err != nil {
		return err
	}

	ids := make([]string, 0, len(summary.PerPart))
	for id := range summary.PerPart {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		p := summary.PerPart[id]
		r := i + 2
		values := []interface{}{
			p.PartInstanceID, p.Material, p.CutA, p.PierceA, p.FoilA, p.PunchA, p.TotalA,
			p.CutB, p.PierceB, p.FoilB, p.PunchB, p.TotalB,
		}
		if err := writeRow(f, sheetPerPart, r, values); err != nil {
			return err
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	return writeRow(f, sheet, 1, values)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, v := range values {
		if err := f.SetCellValue(sheet, cellRef(i+1, row), v); err != nil {
			return err
		}
	}
	return nil
}

// cellRef converts a 1-indexed (col, row) pair into an A1-style cell
// reference.
func cellRef(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Sprintf("A%d", row)
	}
	return name
}
