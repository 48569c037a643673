package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"itbuddy-api/internal/auth"
	"itbuddy-api/internal/models"
)

const assetColumns = `id, owner_id, category, name, site, status, make, model, os, ram,
	serial_number, asset_number, assigned_to, purchased, price, install_date,
	warranty_expires, notes, extra, created_at, updated_at`

// scanAsset scans a full asset row; extra arguments are appended after the
// asset columns (e.g. a window count).
func scanAsset(rows interface{ Scan(...interface{}) error }, a *models.Asset, extra ...interface{}) error {
	var price decimal.NullDecimal
	dest := []interface{}{
		&a.ID, &a.OwnerID, &a.Category, &a.Name, &a.Site, &a.Status, &a.Make, &a.Model, &a.OS, &a.RAM,
		&a.SerialNumber, &a.AssetNumber, &a.AssignedTo, &a.Purchased, &price, &a.InstallDate,
		&a.WarrantyExpires, &a.Notes, &a.Extra, &a.CreatedAt, &a.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	if price.Valid {
		a.Price = &price.Decimal
	}
	return nil
}

// listAssets handles asset listing with filters and pagination
func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	ownerID := auth.UserIDFromContext(r.Context())

	// Cap limit at 100 as specified in requirements
	if params.limit > 100 {
		params.limit = 100
	}

	clauses := []string{}
	args := []interface{}{}
	arg := 1

	// owner filter - use context value instead of query param
	clauses = append(clauses, fmt.Sprintf("owner_id = $%d", arg))
	args = append(args, ownerID)
	arg++

	// optional category filter
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		clauses = append(clauses, fmt.Sprintf("category = $%d", arg))
		args = append(args, category)
		arg++
	}

	// optional site filter
	if site := strings.TrimSpace(r.URL.Query().Get("site")); site != "" {
		clauses = append(clauses, fmt.Sprintf("site = $%d", arg))
		args = append(args, site)
		arg++
	}

	// optional status filter
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		clauses = append(clauses, fmt.Sprintf("status = $%d", arg))
		args = append(args, status)
		arg++
	}

	// optional text search across name, assigned user and serial
	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR assigned_to ILIKE $%d OR serial_number ILIKE $%d)", arg, arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}

	whereClause := ""
	if len(clauses) > 0 {
		whereClause = " WHERE " + strings.Join(clauses, " AND ")
	}

	// Build the main query with COUNT(*) OVER() to get total count
	sqlStr := fmt.Sprintf(`
		SELECT %s,
		       COUNT(*) OVER() as total_count
		FROM assets%s`, assetColumns, whereClause)

	allowedSort := map[string]string{
		"id":          "id",
		"name":        "name",
		"category":    "category",
		"site":        "site",
		"assigned_to": "assigned_to",
		"created_at":  "created_at",
		"updated_at":  "updated_at",
	}
	sqlStr += buildOrderBy(params.sort, allowedSort)
	sqlStr += fmt.Sprintf(" LIMIT %d OFFSET %d", params.limit, params.offset)

	q := dbFrom(r.Context(), s.DB)
	rows, err := q.QueryContext(r.Context(), sqlStr, args...)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	assets := []interface{}{}
	var totalCount int
	for rows.Next() {
		var a models.Asset
		if err := scanAsset(rows, &a, &totalCount); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		assets = append(assets, a)
	}

	sendListResponse(w, assets, totalCount, params)
}

// getAsset handles getting a single asset by ID
func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	var a models.Asset
	q := dbFrom(r.Context(), s.DB)
	row := q.QueryRowContext(r.Context(), fmt.Sprintf(`
		SELECT %s FROM assets WHERE id = $1 AND owner_id = $2`, assetColumns), id, ownerID)
	err := scanAsset(row, &a)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// updateAsset handles updating an existing asset
func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	var req models.UpdateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	type set struct {
		sql string
		val interface{}
	}
	sets := make([]set, 0, 16)
	arg := 1

	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			http.Error(w, "invalid category", 400)
			return
		}
		sets = append(sets, set{fmt.Sprintf("category = $%d", arg), *req.Category})
		arg++
	}
	if req.Name != nil {
		sets = append(sets, set{fmt.Sprintf("name = $%d", arg), nullIfEmpty(req.Name)})
		arg++
	}
	if req.Site != nil {
		sets = append(sets, set{fmt.Sprintf("site = $%d", arg), nullIfEmpty(req.Site)})
		arg++
	}
	if req.Status != nil {
		sets = append(sets, set{fmt.Sprintf("status = $%d", arg), *req.Status})
		arg++
	}
	if req.Make != nil {
		sets = append(sets, set{fmt.Sprintf("make = $%d", arg), nullIfEmpty(req.Make)})
		arg++
	}
	if req.Model != nil {
		sets = append(sets, set{fmt.Sprintf("model = $%d", arg), nullIfEmpty(req.Model)})
		arg++
	}
	if req.OS != nil {
		sets = append(sets, set{fmt.Sprintf("os = $%d", arg), nullIfEmpty(req.OS)})
		arg++
	}
	if req.RAM != nil {
		sets = append(sets, set{fmt.Sprintf("ram = $%d", arg), nullIfEmpty(req.RAM)})
		arg++
	}
	if req.SerialNumber != nil {
		sets = append(sets, set{fmt.Sprintf("serial_number = $%d", arg), nullIfEmpty(req.SerialNumber)})
		arg++
	}
	if req.AssetNumber != nil {
		sets = append(sets, set{fmt.Sprintf("asset_number = $%d", arg), nullIfEmpty(req.AssetNumber)})
		arg++
	}
	if req.AssignedTo != nil {
		sets = append(sets, set{fmt.Sprintf("assigned_to = $%d", arg), nullIfEmpty(req.AssignedTo)})
		arg++
	}
	if req.Purchased != nil {
		sets = append(sets, set{fmt.Sprintf("purchased = $%d", arg), nullIfEmpty(req.Purchased)})
		arg++
	}
	if req.Price != nil {
		sets = append(sets, set{fmt.Sprintf("price = $%d", arg), *req.Price})
		arg++
	}
	if req.InstallDate != nil {
		sets = append(sets, set{fmt.Sprintf("install_date = $%d", arg), nullIfEmpty(req.InstallDate)})
		arg++
	}
	if req.WarrantyExpires != nil {
		sets = append(sets, set{fmt.Sprintf("warranty_expires = $%d", arg), nullIfEmpty(req.WarrantyExpires)})
		arg++
	}
	if req.Notes != nil {
		sets = append(sets, set{fmt.Sprintf("notes = $%d", arg), nullIfEmpty(req.Notes)})
		arg++
	}
	if req.Extra != nil {
		sets = append(sets, set{fmt.Sprintf("extra = $%d", arg), req.Extra})
		arg++
	}

	if len(sets) == 0 {
		http.Error(w, "no fields to update", 400)
		return
	}

	args := make([]interface{}, 0, len(sets)+2)
	sqlStr := "UPDATE assets SET updated_at = now(), "
	for i, sset := range sets {
		if i > 0 {
			sqlStr += ", "
		}
		sqlStr += sset.sql
		args = append(args, sset.val)
	}
	sqlStr += fmt.Sprintf(" WHERE id = $%d AND owner_id = $%d RETURNING %s", len(args)+1, len(args)+2, assetColumns)
	args = append(args, id, ownerID)

	q := dbFrom(r.Context(), s.DB)
	var out models.Asset
	row := q.QueryRowContext(r.Context(), sqlStr, args...)
	if err := scanAsset(row, &out); err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// deleteAsset handles deleting an asset
func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	q := dbFrom(r.Context(), s.DB)
	res, err := q.ExecContext(r.Context(), `DELETE FROM assets WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// previewAsset looks up a compact asset card by its asset number.
// Numbers stored with leading zeros or exported as floats ("0123", "123.0")
// still resolve: a second lookup runs with the integer-normalized form.
func (s *Server) previewAsset(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserIDFromContext(r.Context())
	assetNumber := strings.TrimSpace(r.URL.Query().Get("asset_number"))
	if assetNumber == "" {
		http.Error(w, "asset_number is required", 400)
		return
	}

	q := dbFrom(r.Context(), s.DB)
	candidates := []string{assetNumber}
	if f, err := strconv.ParseFloat(assetNumber, 64); err == nil {
		if norm := strconv.FormatInt(int64(f), 10); norm != assetNumber {
			candidates = append(candidates, norm)
		}
	}

	for _, cand := range candidates {
		var p models.AssetPreview
		err := q.QueryRowContext(r.Context(), `
			SELECT asset_number, assigned_to, name, site, notes, make, model, category
			FROM assets WHERE asset_number = $1 AND owner_id = $2
			LIMIT 1`, cand, ownerID).
			Scan(&p.AssetNumber, &p.AssignedTo, &p.Name, &p.Site, &p.Notes, &p.Make, &p.Model, &p.Category)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	// Not found is not an error for a lookup card; the client shows "no match".
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte("null")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
