package importer

import (
	"strings"

	"itbuddy-api/internal/models"
)

// knownColumns are headers consumed by the standard fields; anything else is
// captured into the extension bag keyed by its original header text.
var knownColumns = map[string]bool{
	"notes": true, "user": true, "previous owner": true, "location": true,
	"name": true, "site": true, "status": true,
	"machine brand": true, "brand": true, "make": true,
	"type": true, "machine type": true, "model": true,
	"os": true, "ram": true,
	"serial number": true, "serial": true,
	"asset number": true,
	"purchased":    true, "price": true, "install date": true, "warranty expires": true,
	"computer name": true,
}

// fieldAliases is the declarative header-alias table: target field to the
// ordered list of accepted headers. The first alias with a non-blank value
// wins, so a single column can satisfy different fields on different sheets.
var fieldAliases = map[string][]string{
	"name":             {"name", "user", "location", "notes", "previous owner"},
	"site":             {"site"},
	"status":           {"status"},
	"make":             {"machine brand", "brand", "make"},
	"model":            {"type", "machine type", "model"},
	"os":               {"os"},
	"ram":              {"ram"},
	"serial_number":    {"serial number", "serial"},
	"asset_number":     {"asset number"},
	"notes":            {"notes"},
	"purchased":        {"purchased"},
	"price":            {"price"},
	"install_date":     {"install date"},
	"warranty_expires": {"warranty expires"},
}

// rowEntry is one cell of a data row together with the header above it.
type rowEntry struct {
	header string
	cell   Cell
}

// Row is one data row keyed by header text, in column order.
type Row []rowEntry

// resolve returns the first non-blank cell under any of the field's aliases.
// Header comparison is case-insensitive and trimmed.
func (r Row) resolve(field string) (Cell, bool) {
	for _, alias := range fieldAliases[field] {
		for _, e := range r {
			if strings.ToLower(strings.TrimSpace(e.header)) == alias && !e.cell.IsBlank() {
				return e.cell, true
			}
		}
	}
	return Cell{}, false
}

func (r Row) resolveString(field string) *string {
	cell, ok := r.resolve(field)
	if !ok {
		return nil
	}
	s := strings.TrimSpace(cell.Display())
	if s == "" {
		return nil
	}
	return &s
}

// MapRow converts one raw data row into a normalized asset record using the
// sheet-level classification for category, site, and status defaults.
func MapRow(row Row, meta SheetMeta) models.Asset {
	var extra models.ExtraMap
	for _, e := range row {
		lk := strings.ToLower(strings.TrimSpace(e.header))
		if lk == "" || knownColumns[lk] || e.cell.IsBlank() {
			continue
		}
		switch e.cell.Kind {
		case CellNumber:
			extra.Set(e.header, e.cell.Number)
		default:
			extra.Set(e.header, e.cell.Display())
		}
	}
	// Computer Name is doubled into the bag on purpose: exports from the prior
	// system carry the column and round-trips must reproduce it.
	if cn := row.resolveStringExact("computer name"); cn != nil {
		extra.Set("Computer Name", *cn)
	}

	a := models.Asset{
		Category:        meta.Category,
		Name:            row.resolveString("name"),
		Site:            meta.Site,
		Status:          meta.Status,
		Make:            row.resolveString("make"),
		Model:           row.resolveString("model"),
		OS:              row.resolveString("os"),
		RAM:             row.resolveString("ram"),
		SerialNumber:    row.resolveString("serial_number"),
		AssetNumber:     row.resolveString("asset_number"),
		Notes:           row.resolveString("notes"),
		Extra:           extra,
	}
	if site := row.resolveString("site"); site != nil {
		a.Site = site
	}
	if status := row.resolveString("status"); status != nil {
		if strings.Contains(strings.ToLower(*status), models.StatusRetired) {
			a.Status = models.StatusRetired
		} else {
			a.Status = models.StatusActive
		}
	}
	if cell, ok := row.resolve("purchased"); ok {
		a.Purchased = NormalizeDate(cell)
	}
	if cell, ok := row.resolve("price"); ok {
		a.Price = NormalizePrice(cell)
	}
	if cell, ok := row.resolve("install_date"); ok {
		a.InstallDate = NormalizeDate(cell)
	}
	if cell, ok := row.resolve("warranty_expires"); ok {
		a.WarrantyExpires = NormalizeDate(cell)
	}
	return a
}

// resolveStringExact matches one literal header with no alias indirection.
func (r Row) resolveStringExact(header string) *string {
	for _, e := range r {
		if strings.ToLower(strings.TrimSpace(e.header)) == header && !e.cell.IsBlank() {
			s := strings.TrimSpace(e.cell.Display())
			if s != "" {
				return &s
			}
		}
	}
	return nil
}

// HasData reports whether the record carries anything worth storing. Rows
// failing this are dropped before they reach the pipeline's output.
func HasData(a models.Asset) bool {
	return a.Name != nil || a.SerialNumber != nil || a.Make != nil ||
		a.Model != nil || a.OS != nil || a.RAM != nil ||
		a.AssetNumber != nil || a.Price != nil ||
		a.Purchased != nil || a.InstallDate != nil || a.WarrantyExpires != nil ||
		a.Notes != nil || len(a.Extra) > 0
}

// MapSheet maps every data row under the detected header row, dropping rows
// with no usable data.
func MapSheet(rs RawSheet, headerIdx int, meta SheetMeta) []models.Asset {
	if headerIdx >= len(rs.Grid) {
		return nil
	}
	headerRow := rs.Grid[headerIdx]
	headers := make([]string, len(headerRow))
	for j, cell := range headerRow {
		headers[j] = strings.TrimSpace(cell.Display())
	}

	var out []models.Asset
	for i := headerIdx + 1; i < len(rs.Grid); i++ {
		row := make(Row, 0, len(headers))
		for j, cell := range rs.Grid[i] {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			row = append(row, rowEntry{header: headers[j], cell: cell})
		}
		a := MapRow(row, meta)
		if HasData(a) {
			out = append(out, a)
		}
	}
	return out
}
