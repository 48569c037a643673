package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"itbuddy-api/internal/models"
)

func TestClassifySheet(t *testing.T) {
	tests := []struct {
		name     string
		category string
		site     *string
		status   string
	}{
		{"Oakdale Printers", models.CategoryPrinter, strp("Oakdale"), models.StatusActive},
		{"HRSNC Computers", models.CategoryComputer, strp("Holden"), models.StatusActive},
		{"Holden iPads", models.CategoryIPad, strp("Holden"), models.StatusActive},
		{"Tablets", models.CategoryIPad, nil, models.StatusActive},
		{"Cameras ORSNC", models.CategoryCamera, strp("Oakdale"), models.StatusActive},
		{"Business Office Phones", models.CategoryPhone, strp("Business Office"), models.StatusActive},
		{"IT Office Network", models.CategoryNetwork, strp("IT Office"), models.StatusActive},
		{"Splashtop Licenses", models.CategoryOther, nil, models.StatusActive},
		{"Other Equipment", models.CategoryOther, nil, models.StatusActive},
		{"Retired Holden Computers", models.CategoryComputer, strp("Holden"), models.StatusRetired},
		{"RETIRED PRINTERS", models.CategoryPrinter, nil, models.StatusRetired},
		{"Misc Devices", models.CategoryComputer, nil, models.StatusActive},
		{"Sheet1", models.CategoryComputer, nil, models.StatusActive},
		// first matching keyword group wins over later ones
		{"Printer Network Closet", models.CategoryPrinter, nil, models.StatusActive},
		{"Phone Room Network Gear", models.CategoryNetwork, nil, models.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ClassifySheet(tt.name)
			assert.Equal(t, tt.category, meta.Category)
			assert.Equal(t, tt.status, meta.Status)
			if tt.site == nil {
				assert.Nil(t, meta.Site)
			} else {
				if assert.NotNil(t, meta.Site) {
					assert.Equal(t, *tt.site, *meta.Site)
				}
			}
		})
	}
}

func TestFindHeaderRow(t *testing.T) {
	t.Run("header under banner rows", func(t *testing.T) {
		grid := [][]Cell{
			{text("Oakdale Rehab & Skilled Nursing")},
			{text("Inventory as of June")},
			{text("Name"), text("Serial Number"), text("Model"), text("RAM")},
			{text("FRONT-DESK-01"), text("SN100"), text("OptiPlex"), text("16GB")},
		}
		assert.Equal(t, 2, FindHeaderRow(grid))
	})

	t.Run("no recognizable header falls back to first row", func(t *testing.T) {
		grid := [][]Cell{
			{text("alpha"), text("beta")},
			{text("gamma"), text("delta")},
		}
		assert.Equal(t, 0, FindHeaderRow(grid))
	})

	t.Run("tie keeps the lowest index", func(t *testing.T) {
		grid := [][]Cell{
			{text("Name"), text("Serial Number")},
			{text("Model"), text("RAM")},
		}
		assert.Equal(t, 0, FindHeaderRow(grid))
	})

	t.Run("only the first four rows are scanned", func(t *testing.T) {
		grid := [][]Cell{
			{text("x")},
			{text("x")},
			{text("x")},
			{text("x")},
			{text("Name"), text("Serial Number"), text("Model")},
		}
		assert.Equal(t, 0, FindHeaderRow(grid))
	})

	t.Run("empty grid", func(t *testing.T) {
		assert.Equal(t, 0, FindHeaderRow(nil))
	})
}

func strp(s string) *string { return &s }

func text(s string) Cell { return Cell{Kind: CellText, Text: s} }

func num(f float64) Cell { return Cell{Kind: CellNumber, Number: f} }
