package importer

import (
	"strings"

	"itbuddy-api/internal/models"
)

// SheetMeta is what the classifier infers from a sheet's tab name.
type SheetMeta struct {
	Category string
	Site     *string
	Status   string
}

// categoryKeywords maps sheet-name substrings to categories. Order matters:
// a name like "Phone Room Network Gear" must classify by the first matching
// group, and anything unmatched defaults to Computer.
var categoryKeywords = []struct {
	terms    []string
	category string
}{
	{[]string{"printer"}, models.CategoryPrinter},
	{[]string{"ipad", "tablet"}, models.CategoryIPad},
	{[]string{"camera"}, models.CategoryCamera},
	{[]string{"network"}, models.CategoryNetwork},
	{[]string{"phone"}, models.CategoryPhone},
	{[]string{"splashtop", "other"}, models.CategoryOther},
}

// siteAliases maps sheet-name substrings to canonical site labels.
var siteAliases = []struct {
	terms []string
	site  string
}{
	{[]string{"holden", "hrsnc"}, "Holden"},
	{[]string{"oakdale", "orsnc"}, "Oakdale"},
	{[]string{"business office"}, "Business Office"},
	{[]string{"it office"}, "IT Office"},
}

// headerVocabulary is the set of labels that mark a row as a header row.
// Matching is by equality or substring on the trimmed lower-cased cell text.
var headerVocabulary = []string{
	"notes", "user", "previous owner", "location", "name",
	"machine brand", "brand", "make", "type", "machine type", "model",
	"os", "ram", "serial number", "serial", "asset number",
	"purchased", "price", "install date", "warranty expires",
	"computer name", "first", "last",
	"number", "phone number", "mac address", "switch", "port", "ip",
	"cost", "date received", "device id", "model number", "room",
}

// ClassifySheet derives category, site, and status from the sheet name alone.
func ClassifySheet(name string) SheetMeta {
	n := strings.ToLower(name)

	meta := SheetMeta{Category: models.CategoryComputer, Status: models.StatusActive}
	for _, group := range categoryKeywords {
		if containsAny(n, group.terms) {
			meta.Category = group.category
			break
		}
	}
	for _, alias := range siteAliases {
		if containsAny(n, alias.terms) {
			site := alias.site
			meta.Site = &site
			break
		}
	}
	if strings.Contains(n, "retired") {
		meta.Status = models.StatusRetired
	}
	return meta
}

// FindHeaderRow scores the first four rows of the grid against the header
// vocabulary and returns the index of the strictly best-scoring row. Ties keep
// the lowest index; an all-zero scan falls back to row 0. This tolerates
// sheets with up to three banner rows above the real header.
func FindHeaderRow(grid [][]Cell) int {
	bestRow, bestScore := 0, 0
	limit := len(grid)
	if limit > 4 {
		limit = 4
	}
	for i := 0; i < limit; i++ {
		score := 0
		for _, cell := range grid[i] {
			if cell.IsBlank() {
				continue
			}
			s := strings.ToLower(strings.TrimSpace(cell.Display()))
			for _, term := range headerVocabulary {
				if s == term || strings.Contains(s, term) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestRow = i
		}
	}
	return bestRow
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
