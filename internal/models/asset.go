package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset categories form a closed set. Undetected sheets fall back to Computer.
const (
	CategoryComputer = "Computer"
	CategoryPrinter  = "Printer"
	CategoryPhone    = "Phone"
	CategoryIPad     = "iPad"
	CategoryCamera   = "Camera"
	CategoryNetwork  = "Network"
	CategoryOther    = "Other"
)

// Categories lists every valid asset category in display order.
var Categories = []string{
	CategoryComputer, CategoryPrinter, CategoryPhone,
	CategoryIPad, CategoryCamera, CategoryNetwork, CategoryOther,
}

// ValidCategory reports whether c is one of the closed category set.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

const (
	StatusActive  = "active"
	StatusRetired = "retired"
)

// Asset is the canonical normalized representation of one inventory item.
// Every asset belongs to exactly one owner; all queries are owner-scoped.
// Date fields hold ISO dates (YYYY-MM-DD) or nil.
type Asset struct {
	ID              int64            `json:"id"`
	OwnerID         uuid.UUID        `json:"owner_id"`
	Category        string           `json:"category"`
	Name            *string          `json:"name"`
	Site            *string          `json:"site"`
	Status          string           `json:"status"`
	Make            *string          `json:"make"`
	Model           *string          `json:"model"`
	OS              *string          `json:"os"`
	RAM             *string          `json:"ram"`
	SerialNumber    *string          `json:"serial_number"`
	AssetNumber     *string          `json:"asset_number"`
	AssignedTo      *string          `json:"assigned_to"`
	Purchased       *string          `json:"purchased"`
	Price           *decimal.Decimal `json:"price"`
	InstallDate     *string          `json:"install_date"`
	WarrantyExpires *string          `json:"warranty_expires"`
	Notes           *string          `json:"notes"`
	Extra           ExtraMap         `json:"extra"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// AssetPreview is the narrow projection returned by the asset-number lookup
// used by the onboarding flow.
type AssetPreview struct {
	AssetNumber *string `json:"asset_number"`
	AssignedTo  *string `json:"assigned_to"`
	Name        *string `json:"name"`
	Site        *string `json:"site"`
	Notes       *string `json:"notes"`
	Make        *string `json:"make"`
	Model       *string `json:"model"`
	Category    string  `json:"category"`
}

// UpdateAssetRequest carries a partial asset update; nil fields are untouched.
type UpdateAssetRequest struct {
	Category        *string          `json:"category,omitempty"`
	Name            *string          `json:"name,omitempty"`
	Site            *string          `json:"site,omitempty"`
	Status          *string          `json:"status,omitempty"`
	Make            *string          `json:"make,omitempty"`
	Model           *string          `json:"model,omitempty"`
	OS              *string          `json:"os,omitempty"`
	RAM             *string          `json:"ram,omitempty"`
	SerialNumber    *string          `json:"serial_number,omitempty"`
	AssetNumber     *string          `json:"asset_number,omitempty"`
	AssignedTo      *string          `json:"assigned_to,omitempty"`
	Purchased       *string          `json:"purchased,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	InstallDate     *string          `json:"install_date,omitempty"`
	WarrantyExpires *string          `json:"warranty_expires,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
	Extra           ExtraMap         `json:"extra,omitempty"`
}

// ExtraField is one spreadsheet column that did not match a standard field.
// Value is restricted to string or float64; date cells are rendered as ISO
// strings before they land here.
type ExtraField struct {
	Key   string
	Value any
}

// ExtraMap is the per-asset extension bag. It preserves first-seen key order,
// which the exporter relies on when building extension columns.
type ExtraMap []ExtraField

// Get returns the value for key and whether it was present.
func (m ExtraMap) Get(key string) (any, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value for key, appending the key when new.
func (m *ExtraMap) Set(key string, value any) {
	for i, f := range *m {
		if f.Key == key {
			(*m)[i].Value = value
			return
		}
	}
	*m = append(*m, ExtraField{Key: key, Value: value})
}

// MarshalJSON renders the bag as a JSON object in insertion order.
func (m ExtraMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the document.
func (m *ExtraMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("extra: expected JSON object, got %v", tok)
	}

	out := ExtraMap{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("extra: non-string key %v", keyTok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		switch v := raw.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return err
			}
			out = append(out, ExtraField{Key: key, Value: f})
		case string:
			out = append(out, ExtraField{Key: key, Value: v})
		case nil:
			// blank values never enter the bag
		default:
			out = append(out, ExtraField{Key: key, Value: fmt.Sprint(v)})
		}
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return err
	}
	*m = out
	return nil
}

// Value implements driver.Valuer so the bag can be stored as JSONB.
// An empty bag is stored as NULL, never as {}.
func (m ExtraMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB columns.
func (m *ExtraMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("extra: cannot scan %T", value)
	}
	return m.UnmarshalJSON(data)
}
