package importer

import (
	"bytes"
	"fmt"

	"github.com/tealeg/xlsx/v3"

	"itbuddy-api/internal/models"
)

// standardFields fixes the exporter's header labels and column order. The
// labels round-trip: every one of them is a known column on re-import.
var standardFields = []struct {
	label string
	get   func(a models.Asset) any
}{
	{"Name", func(a models.Asset) any { return strPtr(a.Name) }},
	{"Site", func(a models.Asset) any { return strPtr(a.Site) }},
	{"Status", func(a models.Asset) any { return a.Status }},
	{"Make", func(a models.Asset) any { return strPtr(a.Make) }},
	{"Model", func(a models.Asset) any { return strPtr(a.Model) }},
	{"OS", func(a models.Asset) any { return strPtr(a.OS) }},
	{"RAM", func(a models.Asset) any { return strPtr(a.RAM) }},
	{"Serial Number", func(a models.Asset) any { return strPtr(a.SerialNumber) }},
	{"Asset Number", func(a models.Asset) any { return strPtr(a.AssetNumber) }},
	{"Purchased", func(a models.Asset) any { return strPtr(a.Purchased) }},
	{"Price", func(a models.Asset) any {
		if a.Price == nil {
			return ""
		}
		return a.Price.InexactFloat64()
	}},
	{"Install Date", func(a models.Asset) any { return strPtr(a.InstallDate) }},
	{"Warranty Expires", func(a models.Asset) any { return strPtr(a.WarrantyExpires) }},
	{"Notes", func(a models.Asset) any { return strPtr(a.Notes) }},
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// BuildWorkbook renders an owner's assets as one workbook with a sheet per
// category. Header rows carry the standard labels followed by every extension
// key observed across the category's records, in first-seen order. Sheet
// names honor the 31-character tab limit.
func BuildWorkbook(assets []models.Asset) ([]byte, error) {
	type group struct {
		category string
		rows     []models.Asset
	}
	var groups []*group
	index := map[string]*group{}
	for _, a := range assets {
		cat := a.Category
		if cat == "" {
			cat = models.CategoryOther
		}
		g, ok := index[cat]
		if !ok {
			g = &group{category: cat}
			index[cat] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, a)
	}

	f := xlsx.NewFile()
	for _, g := range groups {
		var extraKeys []string
		seen := map[string]bool{}
		for _, a := range g.rows {
			for _, field := range a.Extra {
				if !seen[field.Key] {
					seen[field.Key] = true
					extraKeys = append(extraKeys, field.Key)
				}
			}
		}

		sheetName := g.category
		if len(sheetName) > 31 {
			sheetName = sheetName[:31]
		}
		sh, err := f.AddSheet(sheetName)
		if err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", sheetName, err)
		}

		header := sh.AddRow()
		for _, field := range standardFields {
			header.AddCell().SetString(field.label)
		}
		for _, key := range extraKeys {
			header.AddCell().SetString(key)
		}

		for _, a := range g.rows {
			row := sh.AddRow()
			for _, field := range standardFields {
				setCell(row.AddCell(), field.get(a))
			}
			for _, key := range extraKeys {
				v, ok := a.Extra.Get(key)
				if !ok {
					row.AddCell().SetString("")
					continue
				}
				setCell(row.AddCell(), v)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(c *xlsx.Cell, v any) {
	switch val := v.(type) {
	case float64:
		c.SetFloat(val)
	case string:
		c.SetString(val)
	default:
		c.SetString(fmt.Sprint(val))
	}
}
