package export

import (
	"path/filepath"
	"testing"

	"github.com/metalforge/sheetcost/internal/costing"
	"github.com/xuri/excelize/v2"
)

func sampleSummary() costing.Summary {
	return costing.Summary{
		AllocationModel:  "OCCUPIED_AREA",
		BufferFactor:     1.25,
		MachineProfileID: "laser-1",
		VariantA: costing.VariantA{
			TotalPLN: 123.45,
			Sheets:   []costing.SheetBreakdownA{{SheetID: "sheet-1", Material: 50, Cut: 10, Total: 60}},
		},
		VariantB: costing.VariantB{
			TotalPLN: 150,
			Sheets:   []costing.SheetBreakdownB{{SheetID: "sheet-1", Material: 50, Laser: 80, Total: 130}},
		},
		PerPart: map[string]costing.PartAttribution{
			"p1": {PartInstanceID: "p1", Material: 25, CutA: 5, TotalA: 30, TotalB: 35},
		},
		Warnings: []string{"buffer_factor 0.800 is below 1.0"},
	}
}

func TestWriteXLSXProducesAllSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cost-summary.xlsx")
	if err := WriteXLSX(path, sampleSummary()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := map[string]bool{sheetSummary: false, sheetSheets: false, sheetPerPart: false}
	for _, s := range sheets {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected sheet %q to exist, got sheets %v", name, sheets)
		}
	}
	if len(sheets) != 3 {
		t.Errorf("expected exactly 3 sheets (default sheet removed), got %v", sheets)
	}
}

func TestWriteXLSXSheetsRowContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cost-summary.xlsx")
	if err := WriteXLSX(path, sampleSummary()); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	v, err := f.GetCellValue(sheetSheets, "A2")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if v != "sheet-1" {
		t.Errorf("A2 = %q, want sheet-1", v)
	}

	partID, err := f.GetCellValue(sheetPerPart, "A2")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if partID != "p1" {
		t.Errorf("Parts A2 = %q, want p1", partID)
	}
}
