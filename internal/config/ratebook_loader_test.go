package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `material_id,thickness_mm,price_per_m2,cut_price_per_meter_pln,machine_rate_pln_h,pierce_cost_pln,stainless,foil_speed_mmin,foil_cost_form,foil_cost_value
S235,3,50,1.2,300,0.5,false,,,
1.4301,2,90,2.0,350,0.8,true,15,PER_METER,0.2
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRateBookCSV(t *testing.T) {
	path := writeTemp(t, "rates.csv", sampleCSV)

	result := LoadRateBookCSV(path)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Book.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", result.Book.Len())
	}

	e, _, err := result.Book.Resolve("S235", 3)
	if err != nil {
		t.Fatalf("Resolve(S235,3) error = %v", err)
	}
	if e.PricePerM2 != 50 || e.CutPricePerMeterPLN != 1.2 {
		t.Errorf("S235 entry = %+v, want price_per_m2=50 cut_price=1.2", e)
	}

	foil, _, err := result.Book.Resolve("1.4301", 2)
	if err != nil {
		t.Fatalf("Resolve(1.4301,2) error = %v", err)
	}
	if !foil.StainlessLike || foil.FoilRemoval == nil || foil.FoilRemoval.SpeedMMin != 15 {
		t.Errorf("1.4301 entry = %+v, want stainless with foil removal", foil)
	}
}

func TestLoadRateBookCSVMissingRequiredColumns(t *testing.T) {
	path := writeTemp(t, "rates.csv", "foo,bar\n1,2\n")
	result := LoadRateBookCSV(path)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for missing material_id/thickness_mm columns")
	}
}

func TestLoadRateBookCSVSkipsBadRows(t *testing.T) {
	data := "material_id,thickness_mm,price_per_m2\nS235,3,50\n,5,60\nAL,,70\n"
	path := writeTemp(t, "rates.csv", data)

	result := LoadRateBookCSV(path)
	if result.Book.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (two malformed rows skipped)", result.Book.Len())
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %d: %v", len(result.Errors), result.Errors)
	}
}

func TestLoadRateBookCSVWarnsOnDuplicate(t *testing.T) {
	data := "material_id,thickness_mm,price_per_m2\nS235,3,50\nS235,3,55\n"
	path := writeTemp(t, "rates.csv", data)

	result := LoadRateBookCSV(path)
	if result.Book.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", result.Book.Len())
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "duplicate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a duplicate-rate warning, got %v", result.Warnings)
	}
	e, _, _ := result.Book.Resolve("S235", 3)
	if e.PricePerM2 != 55 {
		t.Errorf("PricePerM2 = %v, want 55 (later row should win)", e.PricePerM2)
	}
}

func TestLoadRateBookCSVFillsMissingDensity(t *testing.T) {
	data := "material_id,thickness_mm,price_per_kg,priced_by_kg\n1.4301,2,20,true\nAL,2,15,true\n"
	path := writeTemp(t, "rates.csv", data)

	result := LoadRateBookCSV(path)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	inox, _, err := result.Book.Resolve("1.4301", 2)
	if err != nil {
		t.Fatalf("Resolve(1.4301,2) error = %v", err)
	}
	if inox.DensityKGM3 != 7900 {
		t.Errorf("1.4301 density = %v, want 7900 (stainless default)", inox.DensityKGM3)
	}

	alu, _, err := result.Book.Resolve("AL", 2)
	if err != nil {
		t.Fatalf("Resolve(AL,2) error = %v", err)
	}
	if alu.DensityKGM3 != 2700 {
		t.Errorf("AL density = %v, want 2700 (aluminium default)", alu.DensityKGM3)
	}
}

func TestLoadRateBookCSVMissingFile(t *testing.T) {
	result := LoadRateBookCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for a missing file")
	}
}

func TestDetectColumnsCaseInsensitiveAliases(t *testing.T) {
	m := detectColumns([]string{"Material", "Gauge", "Price_M2"})
	if m.materialID != 0 || m.thicknessMM != 1 || m.pricePerM2 != 2 {
		t.Errorf("detectColumns = %+v, want {0,1,2,...}", m)
	}
}
