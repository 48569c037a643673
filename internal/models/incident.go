package models

import (
	"time"

	"github.com/google/uuid"
)

// Incident statuses.
const (
	IncidentOpen       = "open"
	IncidentPending    = "pending"
	IncidentInProgress = "in_progress"
	IncidentResolved   = "resolved"
)

// Incident is one tracked IT issue or task.
type Incident struct {
	ID                  int64     `json:"id"`
	OwnerID             uuid.UUID `json:"owner_id"`
	TaskNumber          int64     `json:"task_number"`
	Source              *string   `json:"source,omitempty"`
	OnboardingSessionID *int64    `json:"onboarding_session_id,omitempty"`
	Title               *string   `json:"title"`
	Description         string    `json:"description"`
	ReportedBy          *string   `json:"reported_by"`
	Status              string    `json:"status"`
	Priority            *string   `json:"priority"`
	Screen              *string   `json:"screen"`
	DateDue             *string   `json:"date_due"`
	DateCompleted       *string   `json:"date_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// IncidentUpdate is one progress note attached to an incident. Type is one of
// "note", "approach", or "resolved"; approach and resolved advance the parent
// incident's status.
type IncidentUpdate struct {
	ID         int64     `json:"id"`
	IncidentID int64     `json:"incident_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Type       string    `json:"type"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateIncidentRequest is the POST /issues body.
type CreateIncidentRequest struct {
	Description string  `json:"description"`
	ReportedBy  *string `json:"reported_by,omitempty"`
}

// PatchIncidentRequest carries a partial incident update.
type PatchIncidentRequest struct {
	Status     *string `json:"status,omitempty"`
	Priority   *string `json:"priority,omitempty"`
	Screen     *string `json:"screen,omitempty"`
	Title      *string `json:"title,omitempty"`
	ReportedBy *string `json:"reported_by,omitempty"`
	DateDue    *string `json:"date_due,omitempty"`
}
