package internal

import (
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itbuddy-api/internal/backend"
)

var incidentRowColumns = []string{
	"id", "owner_id", "task_number", "source", "onboarding_session_id", "title",
	"description", "reported_by", "status", "priority", "screen", "date_due", "date_completed",
	"created_at", "updated_at",
}

var updateRowColumns = []string{"id", "incident_id", "owner_id", "type", "note", "created_at"}

func incidentValues(ownerID uuid.UUID, status string, extra ...driver.Value) []driver.Value {
	now := time.Now()
	vals := []driver.Value{
		int64(3), ownerID, int64(12), nil, nil, "Printer jam in room 4",
		"printer in room 4 is jammed again", "Jane Doe", status, nil, nil, nil, nil,
		now, now,
	}
	return append(vals, extra...)
}

func titleBackend(t *testing.T, title string) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"title": title})
	}))
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL)
}

// deadBackend points at a closed port so Summarize degrades to a nil title.
func deadBackend() *backend.Client {
	return backend.NewClient("http://127.0.0.1:1")
}

func TestListIncidents(t *testing.T) {
	srv, mock := newMockServer(t)
	ownerID := uuid.New()

	rows := sqlmock.NewRows(append(incidentRowColumns, "total_count")).
		AddRow(incidentValues(ownerID, "open", 1)...)
	mock.ExpectQuery("FROM incidents WHERE owner_id = \\$1 AND status = \\$2").
		WithArgs(ownerID, "open").
		WillReturnRows(rows)

	w := httptest.NewRecorder()
	srv.listIncidents(w, authedRequest("GET", "/issues?status=open", "", ownerID))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []map[string]interface{} `json:"items"`
		Total int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, float64(12), resp.Items[0]["task_number"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIncident(t *testing.T) {
	ownerID := uuid.New()

	t.Run("requires description", func(t *testing.T) {
		srv, _ := newMockServer(t)
		srv.Backend = deadBackend()

		w := httptest.NewRecorder()
		srv.createIncident(w, authedRequest("POST", "/issues", `{"description":""}`, ownerID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stores the generated title and next task number", func(t *testing.T) {
		srv, mock := newMockServer(t)
		srv.Backend = titleBackend(t, "Printer jam in room 4")

		mock.ExpectQuery(regexp.QuoteMeta("(SELECT COALESCE(MAX(task_number), 0) + 1 FROM incidents WHERE owner_id = $1)")).
			WithArgs(ownerID, "Printer jam in room 4", "printer in room 4 is jammed again", "Jane Doe", "open").
			WillReturnRows(sqlmock.NewRows(incidentRowColumns).AddRow(incidentValues(ownerID, "open")...))

		w := httptest.NewRecorder()
		srv.createIncident(w, authedRequest("POST", "/issues",
			`{"description":"printer in room 4 is jammed again","reported_by":"Jane Doe"}`, ownerID))

		require.Equal(t, http.StatusCreated, w.Code)
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Printer jam in room 4", got["title"])
		assert.Equal(t, float64(12), got["task_number"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("backend outage leaves the title null", func(t *testing.T) {
		srv, mock := newMockServer(t)
		srv.Backend = deadBackend()

		mock.ExpectQuery("INSERT INTO incidents").
			WithArgs(ownerID, nil, "server room too hot", nil, "open").
			WillReturnRows(sqlmock.NewRows(incidentRowColumns).
				AddRow(int64(4), ownerID, int64(13), nil, nil, nil,
					"server room too hot", nil, "open", nil, nil, nil, nil,
					time.Now(), time.Now()))

		w := httptest.NewRecorder()
		srv.createIncident(w, authedRequest("POST", "/issues", `{"description":"server room too hot"}`, ownerID))

		require.Equal(t, http.StatusCreated, w.Code)
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Nil(t, got["title"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetIncident(t *testing.T) {
	ownerID := uuid.New()

	t.Run("returns incident with updates oldest first", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectQuery("FROM incidents WHERE id = \\$1 AND owner_id = \\$2").
			WithArgs("3", ownerID).
			WillReturnRows(sqlmock.NewRows(incidentRowColumns).AddRow(incidentValues(ownerID, "open")...))
		mock.ExpectQuery("ORDER BY created_at ASC, id ASC").
			WithArgs(int64(3), ownerID).
			WillReturnRows(sqlmock.NewRows(updateRowColumns).
				AddRow(int64(1), int64(3), ownerID, "note", "called the vendor", time.Now()))

		req := withURLParam(authedRequest("GET", "/issues/3", "", ownerID), "id", "3")
		w := httptest.NewRecorder()
		srv.getIncident(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			Incident map[string]interface{}   `json:"incident"`
			Updates  []map[string]interface{} `json:"updates"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, float64(3), got.Incident["id"])
		require.Len(t, got.Updates, 1)
		assert.Equal(t, "called the vendor", got.Updates[0]["note"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectQuery("FROM incidents WHERE id = \\$1 AND owner_id = \\$2").
			WithArgs("99", ownerID).
			WillReturnRows(sqlmock.NewRows(incidentRowColumns))

		req := withURLParam(authedRequest("GET", "/issues/99", "", ownerID), "id", "99")
		w := httptest.NewRecorder()
		srv.getIncident(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPatchIncident(t *testing.T) {
	ownerID := uuid.New()
	today := time.Now().UTC().Format("2006-01-02")

	t.Run("resolving stamps date_completed", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE incidents SET updated_at = now(), status = $1, date_completed = $2 WHERE id = $3 AND owner_id = $4")).
			WithArgs("resolved", today, "3", ownerID).
			WillReturnRows(sqlmock.NewRows(incidentRowColumns).AddRow(incidentValues(ownerID, "resolved")...))

		req := withURLParam(authedRequest("PATCH", "/issues/3", `{"status":"resolved"}`, ownerID), "id", "3")
		w := httptest.NewRecorder()
		srv.patchIncident(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		srv, _ := newMockServer(t)
		req := withURLParam(authedRequest("PATCH", "/issues/3", `{}`, ownerID), "id", "3")
		w := httptest.NewRecorder()
		srv.patchIncident(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteIncident(t *testing.T) {
	ownerID := uuid.New()

	t.Run("updates go first, then the incident", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM incident_updates WHERE incident_id = $1 AND owner_id = $2")).
			WithArgs("3", ownerID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM incidents WHERE id = $1 AND owner_id = $2")).
			WithArgs("3", ownerID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		req := withURLParam(authedRequest("DELETE", "/issues/3", "", ownerID), "id", "3")
		w := httptest.NewRecorder()
		srv.deleteIncident(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing incident is 404", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectExec("DELETE FROM incident_updates").
			WithArgs("99", ownerID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM incidents").
			WithArgs("99", ownerID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		req := withURLParam(authedRequest("DELETE", "/issues/99", "", ownerID), "id", "99")
		w := httptest.NewRecorder()
		srv.deleteIncident(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateIncidentUpdate(t *testing.T) {
	ownerID := uuid.New()
	today := time.Now().UTC().Format("2006-01-02")

	t.Run("rejects unknown type", func(t *testing.T) {
		srv, _ := newMockServer(t)
		req := withURLParam(authedRequest("POST", "/issues/3/updates", `{"type":"escalated","note":"x"}`, ownerID), "id", "3")
		w := httptest.NewRecorder()
		srv.createIncidentUpdate(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("plain note leaves status alone", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectQuery("INSERT INTO incident_updates").
			WithArgs("3", ownerID, "note", "called the vendor").
			WillReturnRows(sqlmock.NewRows(updateRowColumns).
				AddRow(int64(1), int64(3), ownerID, "note", "called the vendor", time.Now()))

		req := withURLParam(authedRequest("POST", "/issues/3/updates", `{"type":"note","note":"called the vendor"}`, ownerID), "id", "3")
		w := httptest.NewRecorder()
		srv.createIncidentUpdate(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("approach moves the incident to in_progress", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectQuery("INSERT INTO incident_updates").
			WithArgs("3", ownerID, "approach", "swapping the fuser").
			WillReturnRows(sqlmock.NewRows(updateRowColumns).
				AddRow(int64(2), int64(3), ownerID, "approach", "swapping the fuser", time.Now()))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE incidents SET status = $3, updated_at = now()")).
			WithArgs("3", ownerID, "in_progress").
			WillReturnResult(sqlmock.NewResult(0, 1))

		req := withURLParam(authedRequest("POST", "/issues/3/updates", `{"type":"approach","note":"swapping the fuser"}`, ownerID), "id", "3")
		w := httptest.NewRecorder()
		srv.createIncidentUpdate(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("resolved closes the incident with a completion date", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectQuery("INSERT INTO incident_updates").
			WithArgs("3", ownerID, "resolved", "fuser replaced").
			WillReturnRows(sqlmock.NewRows(updateRowColumns).
				AddRow(int64(3), int64(3), ownerID, "resolved", "fuser replaced", time.Now()))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE incidents SET status = $3, date_completed = $4, updated_at = now()")).
			WithArgs("3", ownerID, "resolved", today).
			WillReturnResult(sqlmock.NewResult(0, 1))

		req := withURLParam(authedRequest("POST", "/issues/3/updates", `{"type":"resolved","note":"fuser replaced"}`, ownerID), "id", "3")
		w := httptest.NewRecorder()
		srv.createIncidentUpdate(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing incident is 404", func(t *testing.T) {
		srv, mock := newMockServer(t)
		mock.ExpectQuery("INSERT INTO incident_updates").
			WithArgs("99", ownerID, "note", "x").
			WillReturnRows(sqlmock.NewRows(updateRowColumns))

		req := withURLParam(authedRequest("POST", "/issues/99/updates", `{"type":"note","note":"x"}`, ownerID), "id", "99")
		w := httptest.NewRecorder()
		srv.createIncidentUpdate(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
