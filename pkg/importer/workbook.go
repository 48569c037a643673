package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"
)

// ErrWorkbookParse marks a payload that could not be decoded as a spreadsheet
// container. It is terminal for the whole upload; no partial results follow.
var ErrWorkbookParse = errors.New("workbook parse failed")

// CellKind tags the value carried by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDate
)

// Cell is one raw spreadsheet cell. Exactly one of Text, Number, or Date is
// meaningful, selected by Kind.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Date   time.Time
}

// IsBlank reports whether the cell holds no usable value.
func (c Cell) IsBlank() bool { return c.Kind == CellEmpty }

// Display renders the cell as text for header matching and extension capture.
// Dates render as ISO dates, numbers without trailing zeros.
func (c Cell) Display() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		return c.Date.Format("2006-01-02")
	default:
		return ""
	}
}

// RawSheet is one worksheet: its tab name and a rectangular grid of cells.
type RawSheet struct {
	Name string
	Grid [][]Cell
}

// ReadWorkbook decodes an uploaded spreadsheet into its sheets. Any decode
// failure wraps ErrWorkbookParse with the underlying decoder message.
func ReadWorkbook(data []byte) ([]RawSheet, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkbookParse, err)
	}

	sheets := make([]RawSheet, 0, len(f.Sheets))
	for _, sh := range f.Sheets {
		grid := make([][]Cell, 0, sh.MaxRow)
		for i := 0; i < sh.MaxRow; i++ {
			row, err := sh.Row(i)
			if err != nil {
				break
			}
			cells := make([]Cell, sh.MaxCol)
			for j := 0; j < sh.MaxCol; j++ {
				cells[j] = convertCell(row.GetCell(j))
			}
			grid = append(grid, cells)
		}
		sheets = append(sheets, RawSheet{Name: sh.Name, Grid: grid})
	}
	return sheets, nil
}

func convertCell(c *xlsx.Cell) Cell {
	if c == nil {
		return Cell{}
	}
	if c.IsTime() {
		if t, err := c.GetTime(false); err == nil {
			return Cell{Kind: CellDate, Date: t}
		}
	}
	if c.Type() == xlsx.CellTypeNumeric {
		if f, err := c.Float(); err == nil {
			return Cell{Kind: CellNumber, Number: f}
		}
	}
	s := strings.TrimSpace(c.String())
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}
