package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"

	"itbuddy-api/internal/auth"
	"itbuddy-api/internal/models"
)

// Display labels for the wizard's role and site slugs. Unknown slugs pass
// through unchanged.
var roleLabels = map[string]string{
	"executive":       "Executive",
	"business_office": "Business Office",
	"admissions":      "Admissions",
	"hr":              "Human Resources",
	"don_adon":        "DON / ADON",
	"social_services": "Social Services / Case Mgr",
	"activities":      "Activities",
	"sdc":             "SDC",
	"home_health":     "Home Healthcare",
	"maintenance":     "Maintenance",
	"kitchen":         "Kitchen / Food Services",
	"concierge":       "Concierge",
	"it":              "IT",
	"clinical_floor":  "CNA / Floor Clinical",
}

var siteLabels = map[string]string{
	"holden":          "Holden",
	"oakdale":         "Oakdale",
	"business_office": "Business Office",
	"it_office":       "IT Office",
}

func roleLabel(slug string) string {
	if l, ok := roleLabels[slug]; ok {
		return l
	}
	return slug
}

func siteLabel(slug string) string {
	if l, ok := siteLabels[slug]; ok {
		return l
	}
	return slug
}

// listOnboarding lists the owner's wizard sessions, newest first.
func (s *Server) listOnboarding(w http.ResponseWriter, r *http.Request) {
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
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d)", arg, arg))
		args = append(args, "%"+params.q+"%")
		arg++
	}

	sqlStr := `
		SELECT id, owner_id, first_name, last_name, role, site, start_date,
		       next_asset_number, computer_name, notes, login_id, systems,
		       computer_type, status, completed_at, created_at, updated_at,
		       COUNT(*) OVER() as total_count
		FROM onboarding_sessions WHERE `
	for i, c := range clauses {
		if i > 0 {
			sqlStr += " AND "
		}
		sqlStr += c
	}

	allowedSort := map[string]string{
		"id":         "id",
		"start_date": "start_date",
		"status":     "status",
		"created_at": "created_at",
		"updated_at": "updated_at",
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

	sessions := []interface{}{}
	var totalCount int
	for rows.Next() {
		var sess models.OnboardingSession
		if err := rows.Scan(&sess.ID, &sess.OwnerID, &sess.FirstName, &sess.LastName,
			&sess.Role, &sess.Site, &sess.StartDate, &sess.NextAssetNumber,
			&sess.ComputerName, &sess.Notes, &sess.LoginID, &sess.Systems,
			&sess.ComputerType, &sess.Status, &sess.CompletedAt,
			&sess.CreatedAt, &sess.UpdatedAt, &totalCount); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		sessions = append(sessions, sess)
	}

	sendListResponse(w, sessions, totalCount, params)
}

// createOnboarding persists a wizard session and auto-creates a linked
// incident so the new hire shows up in the task feed.
func (s *Server) createOnboarding(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.Hire.FirstName == "" || req.Hire.LastName == "" {
		http.Error(w, "hire first and last name are required", 400)
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())
	q := dbFrom(r.Context(), s.DB)

	var sessionID int64
	err := q.QueryRowContext(r.Context(), `
		INSERT INTO onboarding_sessions
			(owner_id, first_name, last_name, role, site, start_date, next_asset_number,
			 computer_name, notes, login_id, systems, computer_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'in_progress')
		RETURNING id`,
		ownerID, req.Hire.FirstName, req.Hire.LastName, req.Hire.Role, req.Hire.Site,
		nullIfEmpty(&req.Hire.StartDate), req.Hire.NextAssetNumber, req.Hire.ComputerName,
		req.Hire.Notes, req.LoginID, pq.StringArray(req.Systems), req.ComputerType).
		Scan(&sessionID)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	fullName := req.Hire.FirstName + " " + req.Hire.LastName
	title := "New hire onboarding: " + fullName
	description := fmt.Sprintf("%s at %s", roleLabel(req.Hire.Role), siteLabel(req.Hire.Site))
	if req.Hire.StartDate != "" {
		description += ", starting " + req.Hire.StartDate
	}
	description += ". Login: " + req.LoginID
	if req.Hire.Notes != "" {
		description += "\n\nNotes: " + req.Hire.Notes
	}

	_, err = q.ExecContext(r.Context(), `
		INSERT INTO incidents (owner_id, task_number, source, onboarding_session_id, title, description, status)
		VALUES ($1, (SELECT COALESCE(MAX(task_number), 0) + 1 FROM incidents WHERE owner_id = $1),
		        'onboarding', $2, $3, $4, $5)`,
		ownerID, sessionID, title, description, models.IncidentInProgress)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"id": sessionID}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// patchOnboarding updates a session's status. Completing the checklist also
// resolves the linked incident.
func (s *Server) patchOnboarding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := auth.UserIDFromContext(r.Context())

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.Status == "" {
		http.Error(w, "status is required", 400)
		return
	}

	q := dbFrom(r.Context(), s.DB)
	res, err := q.ExecContext(r.Context(), `
		UPDATE onboarding_sessions
		SET status = $3,
		    completed_at = CASE WHEN $3 = 'complete' THEN now() ELSE NULL END,
		    updated_at = now()
		WHERE id = $1 AND owner_id = $2`, id, ownerID, req.Status)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if req.Status == "complete" {
		if _, err := q.ExecContext(r.Context(), `
			UPDATE incidents SET status = $3, updated_at = now()
			WHERE onboarding_session_id = $1 AND owner_id = $2`,
			id, ownerID, models.IncidentResolved); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"success": true}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// approveOnboarding assigns the hire's chosen asset: sets assigned_to, the
// computer name and site, and appends the assignment note to any notes
// already on the asset.
func (s *Server) approveOnboarding(w http.ResponseWriter, r *http.Request) {
	var req models.ApproveOnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	if req.Hire.NextAssetNumber == "" {
		http.Error(w, "no asset number provided", 400)
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())
	q := dbFrom(r.Context(), s.DB)

	var assetID int64
	var notes *string
	err := q.QueryRowContext(r.Context(), `
		SELECT id, notes FROM assets WHERE asset_number = $1 AND owner_id = $2 LIMIT 1`,
		req.Hire.NextAssetNumber, ownerID).Scan(&assetID, &notes)
	if err == sql.ErrNoRows {
		http.Error(w, fmt.Sprintf("asset #%s not found", req.Hire.NextAssetNumber), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	startDate := req.Hire.StartDate
	if startDate == "" {
		startDate = "TBD"
	}
	assignNote := fmt.Sprintf("Assigned to %s %s (%s) — Start date: %s",
		req.Hire.FirstName, req.Hire.LastName, roleLabel(req.Hire.Role), startDate)
	if notes != nil && *notes != "" {
		assignNote = *notes + "\n" + assignNote
	}

	_, err = q.ExecContext(r.Context(), `
		UPDATE assets SET assigned_to = $3, name = $4, site = $5, notes = $6, updated_at = now()
		WHERE id = $1 AND owner_id = $2`,
		assetID, ownerID,
		req.Hire.FirstName+" "+req.Hire.LastName,
		nullIfEmpty(&req.Hire.ComputerName),
		siteLabel(req.Hire.Site),
		assignNote)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"success": true}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
