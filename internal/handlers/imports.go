package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"itbuddy-api/internal/auth"
	"itbuddy-api/internal/models"
	"itbuddy-api/pkg/importer"
)

// ImportsHandler handles spreadsheet import and export operations
type ImportsHandler struct {
	DB       *sql.DB
	Importer *importer.Importer
	MaxBytes int64
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(db *sql.DB, imp *importer.Importer) *ImportsHandler {
	return &ImportsHandler{
		DB:       db,
		Importer: imp,
		MaxBytes: 20 << 20, // 20 MB
	}
}

// sheetChoice is the operator's per-sheet decision sent back with the commit:
// deselect a sheet entirely or override its detected category.
type sheetChoice struct {
	Name     string  `json:"name"`
	Selected bool    `json:"selected"`
	Category *string `json:"category,omitempty"`
}

// PreviewUpload parses an uploaded workbook and returns the detected sheets
// with their classifications and mapped rows. Nothing is written.
func (h *ImportsHandler) PreviewUpload(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readWorkbookFile(w, r)
	if !ok {
		return
	}

	sheets, err := importer.Parse(data)
	if err != nil {
		writeImportError(w, err)
		return
	}
	if len(sheets) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_FAILED",
			"details": "workbook contains no usable rows",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sheets": sheets})
}

// CommitUpload parses the workbook, applies the operator's sheet choices from
// the optional "sheets" form field, and upserts the selected rows.
func (h *ImportsHandler) CommitUpload(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readWorkbookFile(w, r)
	if !ok {
		return
	}

	var choices []sheetChoice
	if raw := r.FormValue("sheets"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &choices); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "VALIDATION_FAILED",
				"details": "sheets field is not valid JSON: " + err.Error(),
			})
			return
		}
		for _, c := range choices {
			if c.Category != nil && !models.ValidCategory(*c.Category) {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":   "VALIDATION_FAILED",
					"details": "unknown category override: " + *c.Category,
				})
				return
			}
		}
	}

	sheets, err := importer.Parse(data)
	if err != nil {
		writeImportError(w, err)
		return
	}

	records := selectRecords(sheets, choices)
	if len(records) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_FAILED",
			"details": "no sheets selected or no usable rows",
		})
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())
	email := auth.EmailFromContext(r.Context())

	sum, err := h.Importer.Upsert(r.Context(), ownerID, email, records)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "STORAGE_FAILED",
			"details": err.Error(),
			"data":    sum, // may include the batch that did commit
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// selectRecords flattens the parsed sheets into one record slice, honoring
// the operator's selection flags and category overrides. With no choices at
// all, every detected sheet goes in as classified.
func selectRecords(sheets []importer.SheetInfo, choices []sheetChoice) []models.Asset {
	byName := make(map[string]sheetChoice, len(choices))
	for _, c := range choices {
		byName[c.Name] = c
	}

	var records []models.Asset
	for _, sheet := range sheets {
		category := sheet.Category
		if c, ok := byName[sheet.Name]; ok {
			if !c.Selected {
				continue
			}
			if c.Category != nil {
				category = *c.Category
			}
		}
		for _, rec := range sheet.Rows {
			rec.Category = category
			records = append(records, rec)
		}
	}
	return records
}

// DownloadInventory streams the owner's whole inventory as an xlsx workbook,
// one sheet per category.
func (h *ImportsHandler) DownloadInventory(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())

	rows, err := h.DB.QueryContext(r.Context(), `
		SELECT id, owner_id, category, name, site, status, make, model, os, ram,
		       serial_number, asset_number, assigned_to, purchased, price, install_date,
		       warranty_expires, notes, extra, created_at, updated_at
		FROM assets WHERE owner_id = $1
		ORDER BY category, id`, ownerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		var price decimal.NullDecimal
		if err := rows.Scan(
			&a.ID, &a.OwnerID, &a.Category, &a.Name, &a.Site, &a.Status, &a.Make, &a.Model, &a.OS, &a.RAM,
			&a.SerialNumber, &a.AssetNumber, &a.AssignedTo, &a.Purchased, &price, &a.InstallDate,
			&a.WarrantyExpires, &a.Notes, &a.Extra, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if price.Valid {
			a.Price = &price.Decimal
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if len(assets) == 0 {
		http.Error(w, "no assets to export", http.StatusNotFound)
		return
	}

	out, err := importer.BuildWorkbook(assets)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.xlsx"`)
	if _, err := w.Write(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// readWorkbookFile pulls the uploaded .xlsx out of the multipart form. On
// failure it writes the error response and returns ok=false.
func (h *ImportsHandler) readWorkbookFile(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_FAILED",
			"details": "content-type must be multipart/form-data",
		})
		return nil, false
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_FAILED",
			"details": "invalid multipart form: " + err.Error(),
		})
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_FAILED",
			"details": "file is required: " + err.Error(),
		})
		return nil, false
	}
	defer file.Close()

	if !isXLSX(header) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_FAILED",
			"details": "only .xlsx files are accepted",
		})
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "VALIDATION_FAILED",
			"details": "read upload: " + err.Error(),
		})
		return nil, false
	}
	return data, true
}

func writeImportError(w http.ResponseWriter, err error) {
	if errors.Is(err, importer.ErrWorkbookParse) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "PARSE_FAILED",
			"details": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error":   "IMPORT_FAILED",
		"details": err.Error(),
	})
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	name := strings.ToLower(h.Filename)
	return strings.HasSuffix(name, ".xlsx")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
