package config

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/metalforge/sheetcost/internal/allocation"
	"github.com/metalforge/sheetcost/internal/rates"
	"github.com/xuri/excelize/v2"
)

// LoadResult holds the outcome of loading a rate book: the populated
// Book plus any rows that were skipped and why, since a price-list
// export from another system often carries a few malformed rows that
// shouldn't abort the whole load.
type LoadResult struct {
	Book     *rates.Book
	Warnings []string
	Errors   []string
}

// columnMapping maps a rate-book column role to its index in a row.
// -1 means the column was not found.
type columnMapping struct {
	materialID, thicknessMM, densityKGM3                       int
	pricePerM2, pricePerKG, pricedByKG                         int
	cutFeedrateMMin, cutPricePerMeterPLN, machineRatePLNPerHour int
	pierceTimeS, pierceCostPLN, stainlessLike                  int
	foilSpeedMMin, foilCostForm, foilCostValue, punchCostPerPunch int
}

// headerAliases maps canonical rate-book column names to their
// accepted header spellings (all lowercase, trimmed).
var headerAliases = map[string][]string{
	"material_id":              {"material_id", "material", "grade", "material id"},
	"thickness_mm":             {"thickness_mm", "thickness", "gauge", "thickness (mm)"},
	"density_kg_m3":            {"density_kg_m3", "density"},
	"price_per_m2":             {"price_per_m2", "price_m2", "price/m2", "material_price_m2"},
	"price_per_kg":             {"price_per_kg", "price_kg", "price/kg"},
	"priced_by_kg":             {"priced_by_kg", "by_weight", "billed_by_kg"},
	"cut_feedrate_mmin":        {"cut_feedrate_mmin", "cut_feedrate", "feedrate_m_min"},
	"cut_price_per_meter_pln":  {"cut_price_per_meter_pln", "cut_price_m", "price_per_meter"},
	"machine_rate_pln_h":       {"machine_rate_pln_h", "machine_rate", "hourly_rate"},
	"pierce_time_s":            {"pierce_time_s", "pierce_time"},
	"pierce_cost_pln":          {"pierce_cost_pln", "pierce_cost", "price_per_pierce"},
	"stainless_like":           {"stainless_like", "stainless", "is_stainless"},
	"foil_speed_mmin":          {"foil_speed_mmin", "foil_speed"},
	"foil_cost_form":           {"foil_cost_form", "foil_cost_unit"},
	"foil_cost_value":          {"foil_cost_value", "foil_cost", "foil_price"},
	"punch_cost_per_punch":     {"punch_cost_per_punch", "punch_cost"},
}

func detectColumns(header []string) columnMapping {
	m := columnMapping{
		materialID: -1, thicknessMM: -1, densityKGM3: -1,
		pricePerM2: -1, pricePerKG: -1, pricedByKG: -1,
		cutFeedrateMMin: -1, cutPricePerMeterPLN: -1, machineRatePLNPerHour: -1,
		pierceTimeS: -1, pierceCostPLN: -1, stainlessLike: -1,
		foilSpeedMMin: -1, foilCostForm: -1, foilCostValue: -1, punchCostPerPunch: -1,
	}
	for i, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				switch role {
				case "material_id":
					setIfUnset(&m.materialID, i)
				case "thickness_mm":
					setIfUnset(&m.thicknessMM, i)
				case "density_kg_m3":
					setIfUnset(&m.densityKGM3, i)
				case "price_per_m2":
					setIfUnset(&m.pricePerM2, i)
				case "price_per_kg":
					setIfUnset(&m.pricePerKG, i)
				case "priced_by_kg":
					setIfUnset(&m.pricedByKG, i)
				case "cut_feedrate_mmin":
					setIfUnset(&m.cutFeedrateMMin, i)
				case "cut_price_per_meter_pln":
					setIfUnset(&m.cutPricePerMeterPLN, i)
				case "machine_rate_pln_h":
					setIfUnset(&m.machineRatePLNPerHour, i)
				case "pierce_time_s":
					setIfUnset(&m.pierceTimeS, i)
				case "pierce_cost_pln":
					setIfUnset(&m.pierceCostPLN, i)
				case "stainless_like":
					setIfUnset(&m.stainlessLike, i)
				case "foil_speed_mmin":
					setIfUnset(&m.foilSpeedMMin, i)
				case "foil_cost_form":
					setIfUnset(&m.foilCostForm, i)
				case "foil_cost_value":
					setIfUnset(&m.foilCostValue, i)
				case "punch_cost_per_punch":
					setIfUnset(&m.punchCostPerPunch, i)
				}
			}
		}
	}
	return m
}

func setIfUnset(field *int, i int) {
	if *field == -1 {
		*field = i
	}
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func cellFloat(row []string, idx int) float64 {
	v, _ := strconv.ParseFloat(cell(row, idx), 64)
	return v
}

func cellBool(row []string, idx int) bool {
	switch strings.ToLower(cell(row, idx)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseRow builds a rates.Entry from one data row, or an error message
// if the row is unusable (missing material id or thickness).
func parseRow(row []string, m columnMapping, rowLabel string) (rates.Entry, string) {
	materialID := cell(row, m.materialID)
	if materialID == "" {
		return rates.Entry{}, fmt.Sprintf("%s: missing material id", rowLabel)
	}
	thickness := cellFloat(row, m.thicknessMM)
	if thickness <= 0 {
		return rates.Entry{}, fmt.Sprintf("%s: missing or invalid thickness for material %q", rowLabel, materialID)
	}

	e := rates.Entry{
		MaterialID:            materialID,
		ThicknessMM:           thickness,
		DensityKGM3:           cellFloat(row, m.densityKGM3),
		PricePerM2:            cellFloat(row, m.pricePerM2),
		PricePerKG:            cellFloat(row, m.pricePerKG),
		PricedByKG:            cellBool(row, m.pricedByKG),
		CutFeedrateMMin:       cellFloat(row, m.cutFeedrateMMin),
		CutPricePerMeterPLN:   cellFloat(row, m.cutPricePerMeterPLN),
		MachineRatePLNPerHour: cellFloat(row, m.machineRatePLNPerHour),
		PierceTimeS:           cellFloat(row, m.pierceTimeS),
		PierceCostPLN:         cellFloat(row, m.pierceCostPLN),
		StainlessLike:         cellBool(row, m.stainlessLike),
		PunchCostPerPunch:     cellFloat(row, m.punchCostPerPunch),
	}

	if e.DensityKGM3 <= 0 {
		e.DensityKGM3 = allocation.DefaultDensityFor(materialID)
	}

	if speed := cellFloat(row, m.foilSpeedMMin); speed > 0 {
		e.FoilRemoval = &rates.FoilRemoval{
			SpeedMMin: speed,
			CostForm:  rates.FoilCostForm(strings.ToUpper(cell(row, m.foilCostForm))),
			CostValue: cellFloat(row, m.foilCostValue),
		}
		if e.FoilRemoval.CostForm == "" {
			e.FoilRemoval.CostForm = rates.FoilCostPerMeter
		}
	}

	return e, ""
}

// importFromRows is the shared load logic for both CSV and XLSX rate
// books: detect the header, map its columns, and parse every
// remaining row into a rates.Book entry.
func importFromRows(rows [][]string, rowPrefix string, thicknessTolerance, foilThresholdMM float64) LoadResult {
	result := LoadResult{Book: rates.NewBook(thicknessTolerance, foilThresholdMM)}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "rate book is empty")
		return result
	}

	mapping := detectColumns(rows[0])
	if mapping.materialID == -1 || mapping.thicknessMM == -1 {
		result.Errors = append(result.Errors, "rate book header is missing required material_id/thickness_mm columns")
		return result
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		entry, errMsg := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if result.Book.Len() > 0 {
			if _, _, err := result.Book.Resolve(entry.MaterialID, entry.ThicknessMM); err == nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: duplicate rate for %s @ %.2fmm, overwriting", rowLabel, entry.MaterialID, entry.ThicknessMM))
			}
		}
		result.Book.Add(entry)
	}
	return result
}

// LoadRateBookCSV loads a rate book from a CSV file using the Rate
// Resolver's default thickness tolerance and foil threshold. Delimiter
// is assumed to be a comma.
func LoadRateBookCSV(path string) LoadResult {
	return LoadRateBookCSVWithTolerance(path, 0, 0)
}

// LoadRateBookCSVWithTolerance loads a rate book from a CSV file,
// carrying the given thickness tolerance and foil threshold into the
// resulting rates.Book (0 selects the Rate Resolver's defaults).
func LoadRateBookCSVWithTolerance(path string, thicknessTolerance, foilThresholdMM float64) LoadResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{Book: rates.NewBook(thicknessTolerance, foilThresholdMM), Errors: []string{fmt.Sprintf("cannot open rate book: %v", err)}}
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return LoadResult{Book: rates.NewBook(thicknessTolerance, foilThresholdMM), Errors: []string{fmt.Sprintf("cannot read rate book CSV: %v", err)}}
	}
	return importFromRows(records, "Line", thicknessTolerance, foilThresholdMM)
}

// LoadRateBookXLSX loads a rate book from the first sheet of an Excel
// workbook using the Rate Resolver's default thickness tolerance and
// foil threshold.
func LoadRateBookXLSX(path string) LoadResult {
	return LoadRateBookXLSXWithTolerance(path, 0, 0)
}

// LoadRateBookXLSXWithTolerance loads a rate book from the first sheet
// of an Excel workbook, carrying the given thickness tolerance and
// foil threshold into the resulting rates.Book.
func LoadRateBookXLSXWithTolerance(path string, thicknessTolerance, foilThresholdMM float64) LoadResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return LoadResult{Book: rates.NewBook(thicknessTolerance, foilThresholdMM), Errors: []string{fmt.Sprintf("cannot open rate book workbook: %v", err)}}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return LoadResult{Book: rates.NewBook(thicknessTolerance, foilThresholdMM), Errors: []string{"rate book workbook has no sheets"}}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return LoadResult{Book: rates.NewBook(thicknessTolerance, foilThresholdMM), Errors: []string{fmt.Sprintf("cannot read rate book sheet: %v", err)}}
	}
	return importFromRows(rows, "Row", thicknessTolerance, foilThresholdMM)
}
