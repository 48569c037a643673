package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// serialEpoch is the spreadsheet serial-date epoch: numeric date cells count
// days from December 30 1899.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order when a date arrives as text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"January 2, 2006",
	"Jan 2, 2006",
	"2-Jan-2006",
	"2-Jan-06",
}

// NormalizeDate converts a raw cell to an ISO date string. Anything that fails
// to parse, or that normalizes to a year before 1970, becomes nil. Date cells
// sometimes hold non-date placeholders (such as signed offset expressions)
// that a naive converter would turn into a prehistoric or sign-prefixed ISO
// string.
func NormalizeDate(c Cell) *string {
	var t time.Time
	switch c.Kind {
	case CellDate:
		t = c.Date
	case CellNumber:
		days := time.Duration(c.Number * 24 * float64(time.Hour))
		t = serialEpoch.Add(days)
	case CellText:
		parsed, ok := parseTextDate(strings.TrimSpace(c.Text))
		if !ok {
			return nil
		}
		t = parsed
	default:
		return nil
	}

	if t.Year() < 1970 {
		return nil
	}
	iso := t.Format("2006-01-02")
	if strings.HasPrefix(iso, "+") || strings.HasPrefix(iso, "-") {
		return nil
	}
	return &iso
}

func parseTextDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizePrice parses a price cell, stripping currency symbols and thousands
// separators from text values. Non-numeric or negative results become nil.
func NormalizePrice(c Cell) *decimal.Decimal {
	var d decimal.Decimal
	switch c.Kind {
	case CellNumber:
		d = decimal.NewFromFloat(c.Number)
	case CellText:
		cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(c.Text))
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}
	if d.IsNegative() {
		return nil
	}
	return &d
}

// ScrubDate is the persistence-boundary guard: any date string that still
// begins with a sign prefix is coerced to nil before it can reach storage.
// Redundant with NormalizeDate's stricter check, and kept that way.
func ScrubDate(s *string) *string {
	if s == nil {
		return nil
	}
	if strings.HasPrefix(*s, "+") || strings.HasPrefix(*s, "-") {
		return nil
	}
	return s
}
