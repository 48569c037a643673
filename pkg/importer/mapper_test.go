package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itbuddy-api/internal/models"
)

func entry(header string, c Cell) rowEntry { return rowEntry{header: header, cell: c} }

func TestMapRowAliases(t *testing.T) {
	meta := SheetMeta{Category: models.CategoryComputer, Status: models.StatusActive}

	t.Run("first non-blank alias wins for name", func(t *testing.T) {
		row := Row{
			entry("User", Cell{}),
			entry("Location", text("Front Desk")),
			entry("Notes", text("spare")),
		}
		a := MapRow(row, meta)
		require.NotNil(t, a.Name)
		assert.Equal(t, "Front Desk", *a.Name)
		// notes still maps independently
		require.NotNil(t, a.Notes)
		assert.Equal(t, "spare", *a.Notes)
	})

	t.Run("make and model aliases", func(t *testing.T) {
		row := Row{
			entry("Machine Brand", text("Dell")),
			entry("Machine Type", text("OptiPlex 7090")),
		}
		a := MapRow(row, meta)
		require.NotNil(t, a.Make)
		assert.Equal(t, "Dell", *a.Make)
		require.NotNil(t, a.Model)
		assert.Equal(t, "OptiPlex 7090", *a.Model)
	})

	t.Run("header matching is case-insensitive and trimmed", func(t *testing.T) {
		row := Row{
			entry("  SERIAL NUMBER ", text("SN123")),
			entry("Asset Number", num(123)),
		}
		a := MapRow(row, meta)
		require.NotNil(t, a.SerialNumber)
		assert.Equal(t, "SN123", *a.SerialNumber)
		require.NotNil(t, a.AssetNumber)
		assert.Equal(t, "123", *a.AssetNumber)
	})
}

func TestMapRowSheetDefaultsAndOverrides(t *testing.T) {
	site := "Holden"
	meta := SheetMeta{Category: models.CategoryPrinter, Site: &site, Status: models.StatusActive}

	t.Run("sheet meta supplies defaults", func(t *testing.T) {
		a := MapRow(Row{entry("Name", text("HP LaserJet"))}, meta)
		assert.Equal(t, models.CategoryPrinter, a.Category)
		require.NotNil(t, a.Site)
		assert.Equal(t, "Holden", *a.Site)
		assert.Equal(t, models.StatusActive, a.Status)
	})

	t.Run("site column overrides the sheet site", func(t *testing.T) {
		a := MapRow(Row{
			entry("Name", text("HP LaserJet")),
			entry("Site", text("Oakdale")),
		}, meta)
		require.NotNil(t, a.Site)
		assert.Equal(t, "Oakdale", *a.Site)
	})

	t.Run("status column overrides by retired substring", func(t *testing.T) {
		a := MapRow(Row{
			entry("Name", text("HP LaserJet")),
			entry("Status", text("Retired 2023")),
		}, meta)
		assert.Equal(t, models.StatusRetired, a.Status)

		a = MapRow(Row{
			entry("Name", text("HP LaserJet")),
			entry("Status", text("in service")),
		}, meta)
		assert.Equal(t, models.StatusActive, a.Status)
	})
}

func TestMapRowExtraCapture(t *testing.T) {
	meta := SheetMeta{Category: models.CategoryComputer, Status: models.StatusActive}

	t.Run("unknown columns kept in column order with original header text", func(t *testing.T) {
		row := Row{
			entry("Name", text("PC-01")),
			entry("MAC Address", text("aa:bb:cc")),
			entry("Monitor Size", num(27)),
			entry("Docking Station", Cell{}),
		}
		a := MapRow(row, meta)
		require.Len(t, a.Extra, 2)
		assert.Equal(t, "MAC Address", a.Extra[0].Key)
		assert.Equal(t, "aa:bb:cc", a.Extra[0].Value)
		assert.Equal(t, "Monitor Size", a.Extra[1].Key)
		assert.Equal(t, float64(27), a.Extra[1].Value)
	})

	t.Run("computer name is doubled into the bag", func(t *testing.T) {
		row := Row{
			entry("Computer Name", text("NURSE-03")),
			entry("Serial Number", text("SN9")),
		}
		a := MapRow(row, meta)
		v, ok := a.Extra.Get("Computer Name")
		require.True(t, ok)
		assert.Equal(t, "NURSE-03", v)
	})

	t.Run("date-kind extras render ISO", func(t *testing.T) {
		row := Row{
			entry("Last Audit", Cell{Kind: CellDate, Date: mustDate(t, "2023-09-01")}),
		}
		a := MapRow(row, meta)
		v, ok := a.Extra.Get("Last Audit")
		require.True(t, ok)
		assert.Equal(t, "2023-09-01", v)
	})
}

func TestHasData(t *testing.T) {
	assert.False(t, HasData(models.Asset{Category: models.CategoryComputer, Status: models.StatusActive}))

	name := "PC-01"
	assert.True(t, HasData(models.Asset{Name: &name}))

	var extra models.ExtraMap
	extra.Set("Room", "114")
	assert.True(t, HasData(models.Asset{Extra: extra}))
}

func TestMapSheet(t *testing.T) {
	site := "Oakdale"
	meta := SheetMeta{Category: models.CategoryPrinter, Site: &site, Status: models.StatusActive}

	rs := RawSheet{
		Name: "Oakdale Printers",
		Grid: [][]Cell{
			{text("Oakdale printer inventory")},
			{text("User"), text("Serial Number"), text("Price"), text("Room")},
			{text("Jane Doe"), text("SN123"), text("$450"), num(12)},
			{Cell{}, Cell{}, Cell{}, Cell{}},
			{text("Bob Roe"), text("SN124"), Cell{}, Cell{}},
		},
	}

	rows := MapSheet(rs, FindHeaderRow(rs.Grid), meta)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, models.CategoryPrinter, first.Category)
	require.NotNil(t, first.Site)
	assert.Equal(t, "Oakdale", *first.Site)
	assert.Equal(t, models.StatusActive, first.Status)
	require.NotNil(t, first.Name)
	assert.Equal(t, "Jane Doe", *first.Name)
	require.NotNil(t, first.SerialNumber)
	assert.Equal(t, "SN123", *first.SerialNumber)
	require.NotNil(t, first.Price)
	assert.Equal(t, "450", first.Price.String())
	v, ok := first.Extra.Get("Room")
	require.True(t, ok)
	assert.Equal(t, float64(12), v)

	second := rows[1]
	require.NotNil(t, second.SerialNumber)
	assert.Equal(t, "SN124", *second.SerialNumber)
	assert.Nil(t, second.Price)
	assert.Empty(t, second.Extra)
}

func TestMapSheetHeaderBeyondGrid(t *testing.T) {
	rs := RawSheet{Name: "Empty", Grid: nil}
	assert.Nil(t, MapSheet(rs, 0, SheetMeta{Category: models.CategoryComputer, Status: models.StatusActive}))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, ok := parseTextDate(s)
	require.True(t, ok)
	return parsed
}
