package internal

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"itbuddy-api/internal/auth"
)

// queryTasks answers a natural-language question about the owner's tasks.
func (s *Server) queryTasks(w http.ResponseWriter, r *http.Request) {
	s.runNLQuery(w, r, "tasks")
}

// queryInventory answers a natural-language question about the owner's assets.
func (s *Server) queryInventory(w http.ResponseWriter, r *http.Request) {
	s.runNLQuery(w, r, "inventory")
}

// runNLQuery asks the backend to translate the question into SQL, substitutes
// the caller's id for the {user_id} placeholder, and executes the statement.
// Only a single SELECT is ever run; anything else is rejected.
func (s *Server) runNLQuery(w http.ResponseWriter, r *http.Request, target string) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", 400)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		http.Error(w, "question is required", 400)
		return
	}

	ownerID := auth.UserIDFromContext(r.Context())

	generatedSQL, err := s.Backend.GenerateSQL(r.Context(), question, target)
	if err != nil {
		http.Error(w, "AI query requires the backend to be running", http.StatusServiceUnavailable)
		return
	}

	safeSQL := strings.ReplaceAll(generatedSQL, "{user_id}", ownerID.String())
	safeSQL = strings.TrimSpace(safeSQL)
	for strings.HasSuffix(safeSQL, ";") {
		safeSQL = strings.TrimSpace(strings.TrimSuffix(safeSQL, ";"))
	}

	if !isReadOnlySelect(safeSQL) {
		writeQueryError(w, "generated query was not a read-only select", generatedSQL, 400)
		return
	}

	rows, err := s.Pool.Query(r.Context(), safeSQL)
	if err != nil {
		writeQueryError(w, err.Error(), generatedSQL, 500)
		return
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			writeQueryError(w, err.Error(), generatedSQL, 500)
			return
		}
		record := make(map[string]interface{}, len(fields))
		for i, fd := range fields {
			record[string(fd.Name)] = values[i]
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, err.Error(), generatedSQL, 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"results": results,
		"sql":     generatedSQL,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// isReadOnlySelect accepts a single SELECT (or WITH ... SELECT) statement.
// Embedded semicolons mean multiple statements and are rejected outright.
func isReadOnlySelect(sqlStr string) bool {
	if strings.Contains(sqlStr, ";") {
		return false
	}
	head := strings.ToLower(strings.TrimSpace(sqlStr))
	return strings.HasPrefix(head, "select") || strings.HasPrefix(head, "with")
}

func writeQueryError(w http.ResponseWriter, msg, generatedSQL string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": msg,
		"sql":   generatedSQL,
	})
}

// askBackend proxies the request body to the AI backend's ask endpoint,
// passing the response through untouched.
func (s *Server) askBackend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), 400)
		return
	}

	data, status, err := s.Backend.Ask(r.Context(), body)
	if err != nil {
		http.Error(w, "backend unavailable: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// trackClick records a usage event for the signed-in user. Always answers ok;
// the notification itself is fire and forget.
func (s *Server) trackClick(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())
	if email != "" {
		go s.Backend.TrackUpload(email)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"ok": true}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
