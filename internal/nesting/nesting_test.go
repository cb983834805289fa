package nesting

import (
	"testing"

	"github.com/metalforge/sheetcost/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceSingleSheetSinglePart(t *testing.T) {
	pl := NewPlacer(0)
	parts := []PartSpec{{PartID: "A", WidthMM: 500, HeightMM: 300, Qty: 1}}
	sheets := []SheetSpec{{MaterialID: "S235", ThicknessMM: 3, WidthMM: 1000, LengthMM: 600, Quantity: 1}}

	result, unplaced := pl.Place(model.SourceOrder, "ord-1", parts, sheets)

	require.Empty(t, unplaced)
	require.Len(t, result.Sheets, 1)
	require.Len(t, result.Sheets[0].Parts, 1)
	assert.Equal(t, "A", result.Sheets[0].Parts[0].PartID)
	assert.Equal(t, 150000.0, result.Sheets[0].OccupiedAreaMM2)
}

func TestPlaceExpandsQuantity(t *testing.T) {
	pl := NewPlacer(0)
	parts := []PartSpec{{PartID: "A", WidthMM: 200, HeightMM: 100, Qty: 3}}
	sheets := []SheetSpec{{MaterialID: "S235", ThicknessMM: 3, WidthMM: 1000, LengthMM: 1000, Quantity: 1}}

	result, unplaced := pl.Place(model.SourceOrder, "ord-1", parts, sheets)

	require.Empty(t, unplaced)
	require.Len(t, result.Sheets, 1)
	assert.Len(t, result.Sheets[0].Parts, 3)
}

func TestPlaceOverflowsToSecondSheet(t *testing.T) {
	pl := NewPlacer(0)
	// Each part occupies roughly half of a 1000x1000 sheet; three of them
	// cannot all fit on one sheet, forcing a second.
	parts := []PartSpec{{PartID: "A", WidthMM: 900, HeightMM: 500, Qty: 3}}
	sheets := []SheetSpec{{MaterialID: "S235", ThicknessMM: 3, WidthMM: 1000, LengthMM: 1000, Quantity: 2}}

	result, unplaced := pl.Place(model.SourceOrder, "ord-1", parts, sheets)

	require.Empty(t, unplaced)
	require.Len(t, result.Sheets, 2)
}

func TestPlaceUnplacedWhenNoSheetFits(t *testing.T) {
	pl := NewPlacer(0)
	parts := []PartSpec{{PartID: "TooBig", WidthMM: 5000, HeightMM: 5000, Qty: 1}}
	sheets := []SheetSpec{{MaterialID: "S235", ThicknessMM: 3, WidthMM: 1000, LengthMM: 1000, Quantity: 1}}

	result, unplaced := pl.Place(model.SourceOrder, "ord-1", parts, sheets)

	assert.Empty(t, result.Sheets)
	require.Len(t, unplaced, 1)
	assert.Equal(t, 1, unplaced[0].Qty)
}

func TestPlaceRotatesPartThatOnlyFitsRotated(t *testing.T) {
	pl := NewPlacer(0)
	// A 960x100 part is too wide for a 200mm-wide sheet in its given
	// orientation, but fits once rotated 90 degrees into the narrow strip.
	sheets := []SheetSpec{{MaterialID: "S235", ThicknessMM: 3, WidthMM: 200, LengthMM: 1000, Quantity: 1}}
	parts := []PartSpec{{PartID: "A", WidthMM: 960, HeightMM: 100, Qty: 1}}

	result, unplaced := pl.Place(model.SourceOrder, "ord-1", parts, sheets)
	require.Empty(t, unplaced)
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, model.Rotate90, result.Sheets[0].Parts[0].Transform.Rotation)
}

func TestPlaceHonorsKerfAllowance(t *testing.T) {
	pl := NewPlacer(5)
	// Two 500x500 parts plus 5mm kerf each leave no room for a second
	// part on a 1000x1000 sheet once the first consumes its kerf margin.
	parts := []PartSpec{{PartID: "A", WidthMM: 500, HeightMM: 500, Qty: 2}}
	sheets := []SheetSpec{{MaterialID: "S235", ThicknessMM: 3, WidthMM: 1000, LengthMM: 1000, Quantity: 1}}

	result, unplaced := pl.Place(model.SourceOrder, "ord-1", parts, sheets)

	require.Len(t, unplaced, 1)
	assert.Equal(t, 1, unplaced[0].Qty)
	require.Len(t, result.Sheets, 1)
	assert.Len(t, result.Sheets[0].Parts, 1)
}
