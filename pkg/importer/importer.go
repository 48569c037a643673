package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"itbuddy-api/internal/models"
)

// SheetInfo is one detected worksheet presented to the operator before the
// upload is committed. Selected and Category are both operator-editable.
type SheetInfo struct {
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Site     *string        `json:"site"`
	Status   string         `json:"status"`
	Selected bool           `json:"selected"`
	Rows     []models.Asset `json:"rows"`
}

// Parse runs the read, classify, and map stages over an uploaded workbook.
// Sheets yielding zero usable rows are skipped, not reported as errors; a
// decode failure aborts the whole upload with ErrWorkbookParse.
func Parse(data []byte) ([]SheetInfo, error) {
	raw, err := ReadWorkbook(data)
	if err != nil {
		return nil, err
	}

	var sheets []SheetInfo
	for _, rs := range raw {
		meta := ClassifySheet(rs.Name)
		rows := MapSheet(rs, FindHeaderRow(rs.Grid), meta)
		if len(rows) == 0 {
			continue
		}
		sheets = append(sheets, SheetInfo{
			Name:     rs.Name,
			Category: meta.Category,
			Site:     meta.Site,
			Status:   meta.Status,
			Selected: true,
			Rows:     rows,
		})
	}
	return sheets, nil
}

// UsageTracker is notified after a successful upload. Calls are fire and
// forget; failures are never surfaced.
type UsageTracker interface {
	TrackUpload(email string)
}

// UpsertSummary reports what one committed upload did.
type UpsertSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// Importer reconciles mapped records against an owner's stored assets and
// writes the result.
type Importer struct {
	pool    *pgxpool.Pool
	tracker UsageTracker
}

// New creates an Importer over the given pool.
func New(pool *pgxpool.Pool) *Importer {
	return &Importer{pool: pool}
}

// SetTracker installs the optional usage-tracking collaborator.
func (imp *Importer) SetTracker(t UsageTracker) { imp.tracker = t }

const insertAssetSQL = `
	INSERT INTO assets (owner_id, category, name, site, status, make, model, os, ram,
	                    serial_number, asset_number, purchased, price, install_date,
	                    warranty_expires, notes, extra)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

// Notes are deliberately absent from the update: the onboarding approval flow
// appends to them, and a re-import must not wipe that history.
const updateAssetSQL = `
	UPDATE assets
	SET category = $1, name = $2, site = $3, status = $4, make = $5, model = $6,
	    os = $7, ram = $8, serial_number = $9, asset_number = $10, purchased = $11,
	    price = $12, install_date = $13, warranty_expires = $14, extra = $15,
	    updated_at = now()
	WHERE id = $16 AND owner_id = $17`

// Upsert writes one upload's worth of selected, mapped records for an owner.
//
// Records whose serial number matches a stored record are updates; everything
// else, including rows with no serial number at all, inserts. Two concurrent
// uploads can therefore both insert the same serial; that race is accepted
// rather than locked away. Inserts and updates go out as two independent
// batches with no cross-batch rollback: a batch that committed stays
// committed even when the other one fails.
func (imp *Importer) Upsert(ctx context.Context, ownerID uuid.UUID, email string, records []models.Asset) (UpsertSummary, error) {
	var sum UpsertSummary
	if len(records) == 0 {
		return sum, nil
	}

	bySerial, err := imp.loadSerials(ctx, ownerID)
	if err != nil {
		return sum, fmt.Errorf("load existing assets: %w", err)
	}

	type pendingUpdate struct {
		id  int64
		rec models.Asset
	}
	var inserts []models.Asset
	var updates []pendingUpdate

	for _, rec := range records {
		rec.Purchased = ScrubDate(rec.Purchased)
		rec.InstallDate = ScrubDate(rec.InstallDate)
		rec.WarrantyExpires = ScrubDate(rec.WarrantyExpires)

		if rec.SerialNumber != nil && *rec.SerialNumber != "" {
			if id, ok := bySerial[*rec.SerialNumber]; ok {
				updates = append(updates, pendingUpdate{id: id, rec: rec})
				continue
			}
		}
		inserts = append(inserts, rec)
	}

	if len(inserts) > 0 {
		batch := &pgx.Batch{}
		for _, rec := range inserts {
			batch.Queue(insertAssetSQL,
				ownerID, rec.Category, rec.Name, rec.Site, rec.Status,
				rec.Make, rec.Model, rec.OS, rec.RAM,
				rec.SerialNumber, rec.AssetNumber, rec.Purchased, rec.Price,
				rec.InstallDate, rec.WarrantyExpires, rec.Notes, rec.Extra)
		}
		if err := imp.sendBatch(ctx, batch); err != nil {
			return sum, fmt.Errorf("insert batch: %w", err)
		}
		sum.Inserted = len(inserts)
	}

	if len(updates) > 0 {
		batch := &pgx.Batch{}
		for _, u := range updates {
			batch.Queue(updateAssetSQL,
				u.rec.Category, u.rec.Name, u.rec.Site, u.rec.Status,
				u.rec.Make, u.rec.Model, u.rec.OS, u.rec.RAM,
				u.rec.SerialNumber, u.rec.AssetNumber, u.rec.Purchased,
				u.rec.Price, u.rec.InstallDate, u.rec.WarrantyExpires, u.rec.Extra,
				u.id, ownerID)
		}
		if err := imp.sendBatch(ctx, batch); err != nil {
			return sum, fmt.Errorf("update batch: %w", err)
		}
		sum.Updated = len(updates)
	}

	if imp.tracker != nil {
		go imp.tracker.TrackUpload(email)
	}
	return sum, nil
}

func (imp *Importer) loadSerials(ctx context.Context, ownerID uuid.UUID) (map[string]int64, error) {
	rows, err := imp.pool.Query(ctx,
		`SELECT id, serial_number FROM assets WHERE owner_id = $1 AND serial_number IS NOT NULL`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySerial := make(map[string]int64)
	for rows.Next() {
		var id int64
		var serial string
		if err := rows.Scan(&id, &serial); err != nil {
			return nil, err
		}
		bySerial[serial] = id
	}
	return bySerial, rows.Err()
}

func (imp *Importer) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := imp.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
