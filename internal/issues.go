package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"itbuddy-api/internal/auth"
	"itbuddy-api/internal/models"
)

const incidentColumns = `id, owner_id, task_number, source, onboarding_session_id, title,
	description, reported_by, status, priority, screen, date_due, date_completed,
	created_at, updated_at`

func scanIncident(row interface{ Scan(...interface{}) error }, in *models.Incident, extra ...interface{}) error {
	dest := []interface{}{
		&in.ID, &in.OwnerID, &in.TaskNumber, &in.Source, &in.OnboardingSessionID, &in.Title,
		&in.Description, &in.ReportedBy, &in.Status, &in.Priority, &in.Screen, &in.DateDue,
		&in.DateCompleted, &in.CreatedAt, &in.UpdatedAt,
	}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

// listIncidents handles listing incidents, newest first
func (s *Server) listIncidents(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	ownerID := auth.UserIDFromContext(r.Context())

	clauses := []string{"owner_id = $1"}
	args := []interface{}{ownerID}
	arg := 2

	if status := r.URL.Query().Get("status"); status != "" {
		clauses = append(clauses, fmt.Sprintf("status = $%d", arg))
		args = append(args, status)
		arg++
	}
	if params.q != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}

	sqlStr := fmt.Sprintf(`
		SELECT %s,
		       COUNT(*) OVER() as total_count
		FROM incidents WHERE `, incidentColumns)
	for i, c := range clauses {
		if i > 0 {
			sqlStr += " AND "
		}
		sqlStr += c
	}

	allowedSort := map[string]string{
		"id":          "id",
		"task_number": "task_number",
		"status":      "status",
		"priority":    "priority",
		"date_due":    "date_due",
		"created_at":  "created_at",
		"updated_at":  "updated_at",
	}
	if params.sort == "" {
		params.sort = "-created_at"
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

	incidents := []interface{}{}
	var totalCount int
	for rows.Next() {
		var in models.Incident
		if err := scanIncident(rows, &in, &totalCount); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		incidents = append(incidents, in)
	}

	sendListResponse(w, incidents, totalCount, params)
}

// createIncident creates a new incident. The AI backend is asked for a short
// title; a backend failure leaves the title null rather than failing the
// request.
func (s *Server) createIncident(w http.ResponseWriter, r *http.Request) {
	var req models.CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.Description == "" {
		http.Error(w, "description is required", 400)
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())
	title := s.Backend.Summarize(r.Context(), req.Description)

	q := dbFrom(r.Context(), s.DB)
	var in models.Incident
	row := q.QueryRowContext(r.Context(), fmt.Sprintf(`
		INSERT INTO incidents (owner_id, task_number, title, description, reported_by, status)
		VALUES ($1, (SELECT COALESCE(MAX(task_number), 0) + 1 FROM incidents WHERE owner_id = $1), $2, $3, $4, $5)
		RETURNING %s`, incidentColumns),
		ownerID, title, req.Description, nullIfEmpty(req.ReportedBy), models.IncidentOpen)
	if err := scanIncident(row, &in); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(in); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// getIncident returns one incident together with its updates, oldest first
func (s *Server) getIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	q := dbFrom(r.Context(), s.DB)
	var in models.Incident
	row := q.QueryRowContext(r.Context(), fmt.Sprintf(`
		SELECT %s FROM incidents WHERE id = $1 AND owner_id = $2`, incidentColumns), id, ownerID)
	if err := scanIncident(row, &in); err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}

	updates, err := s.fetchIncidentUpdates(r, in.ID, ownerID, "ASC")
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]interface{}{"incident": in, "updates": updates}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// patchIncident applies a partial update. Moving to resolved stamps
// date_completed with today's date.
func (s *Server) patchIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	var req models.PatchIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}

	type set struct {
		sql string
		val interface{}
	}
	sets := make([]set, 0, 8)
	arg := 1

	if req.Status != nil {
		sets = append(sets, set{fmt.Sprintf("status = $%d", arg), *req.Status})
		arg++
		if *req.Status == models.IncidentResolved {
			sets = append(sets, set{fmt.Sprintf("date_completed = $%d", arg), time.Now().UTC().Format("2006-01-02")})
			arg++
		}
	}
	if req.Priority != nil {
		sets = append(sets, set{fmt.Sprintf("priority = $%d", arg), nullIfEmpty(req.Priority)})
		arg++
	}
	if req.Screen != nil {
		sets = append(sets, set{fmt.Sprintf("screen = $%d", arg), nullIfEmpty(req.Screen)})
		arg++
	}
	if req.Title != nil {
		sets = append(sets, set{fmt.Sprintf("title = $%d", arg), nullIfEmpty(req.Title)})
		arg++
	}
	if req.ReportedBy != nil {
		sets = append(sets, set{fmt.Sprintf("reported_by = $%d", arg), nullIfEmpty(req.ReportedBy)})
		arg++
	}
	if req.DateDue != nil {
		sets = append(sets, set{fmt.Sprintf("date_due = $%d", arg), nullIfEmpty(req.DateDue)})
		arg++
	}

	if len(sets) == 0 {
		http.Error(w, "no fields to update", 400)
		return
	}

	args := make([]interface{}, 0, len(sets)+2)
	sqlStr := "UPDATE incidents SET updated_at = now(), "
	for i, sset := range sets {
		if i > 0 {
			sqlStr += ", "
		}
		sqlStr += sset.sql
		args = append(args, sset.val)
	}
	sqlStr += fmt.Sprintf(" WHERE id = $%d AND owner_id = $%d RETURNING %s", len(args)+1, len(args)+2, incidentColumns)
	args = append(args, id, ownerID)

	q := dbFrom(r.Context(), s.DB)
	var out models.Incident
	row := q.QueryRowContext(r.Context(), sqlStr, args...)
	if err := scanIncident(row, &out); err != nil {
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

// deleteIncident removes an incident and its updates. Updates go first to
// satisfy the foreign key.
func (s *Server) deleteIncident(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	q := dbFrom(r.Context(), s.DB)
	if _, err := q.ExecContext(r.Context(),
		`DELETE FROM incident_updates WHERE incident_id = $1 AND owner_id = $2`, id, ownerID); err != nil {
		http.Error(w, "updates delete failed: "+err.Error(), 500)
		return
	}

	res, err := q.ExecContext(r.Context(), `DELETE FROM incidents WHERE id = $1 AND owner_id = $2`, id, ownerID)
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

// listIncidentUpdates returns the updates for an incident, newest first
func (s *Server) listIncidentUpdates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	var incidentID int64
	q := dbFrom(r.Context(), s.DB)
	err := q.QueryRowContext(r.Context(),
		`SELECT id FROM incidents WHERE id = $1 AND owner_id = $2`, id, ownerID).Scan(&incidentID)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	updates, err := s.fetchIncidentUpdates(r, incidentID, ownerID, "DESC")
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"updates": updates}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// createIncidentUpdate appends a progress note. An "approach" update moves
// the incident to in_progress, a "resolved" update resolves it.
func (s *Server) createIncidentUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	var req struct {
		Type string `json:"type"`
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	switch req.Type {
	case "note", "approach", "resolved":
	default:
		http.Error(w, "type must be note, approach or resolved", 400)
		return
	}

	q := dbFrom(r.Context(), s.DB)
	var up models.IncidentUpdate
	err := q.QueryRowContext(r.Context(), `
		INSERT INTO incident_updates (incident_id, owner_id, type, note)
		SELECT id, owner_id, $3, $4 FROM incidents WHERE id = $1 AND owner_id = $2
		RETURNING id, incident_id, owner_id, type, note, created_at`,
		id, ownerID, req.Type, req.Note).
		Scan(&up.ID, &up.IncidentID, &up.OwnerID, &up.Type, &up.Note, &up.CreatedAt)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	var newStatus string
	switch req.Type {
	case "resolved":
		newStatus = models.IncidentResolved
	case "approach":
		newStatus = models.IncidentInProgress
	}
	if newStatus != "" {
		sqlStr := `UPDATE incidents SET status = $3, updated_at = now() WHERE id = $1 AND owner_id = $2`
		args := []interface{}{id, ownerID, newStatus}
		if newStatus == models.IncidentResolved {
			sqlStr = `UPDATE incidents SET status = $3, date_completed = $4, updated_at = now() WHERE id = $1 AND owner_id = $2`
			args = append(args, time.Now().UTC().Format("2006-01-02"))
		}
		if _, err := q.ExecContext(r.Context(), sqlStr, args...); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"update": up}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) fetchIncidentUpdates(r *http.Request, incidentID int64, ownerID interface{}, order string) ([]models.IncidentUpdate, error) {
	q := dbFrom(r.Context(), s.DB)
	rows, err := q.QueryContext(r.Context(), fmt.Sprintf(`
		SELECT id, incident_id, owner_id, type, note, created_at
		FROM incident_updates
		WHERE incident_id = $1 AND owner_id = $2
		ORDER BY created_at %s, id %s`, order, order), incidentID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := []models.IncidentUpdate{}
	for rows.Next() {
		var up models.IncidentUpdate
		if err := rows.Scan(&up.ID, &up.IncidentID, &up.OwnerID, &up.Type, &up.Note, &up.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, up)
	}
	return updates, rows.Err()
}
