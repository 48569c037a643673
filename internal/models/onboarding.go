package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OnboardingSession records one run of the new-hire wizard.
type OnboardingSession struct {
	ID              int64          `json:"id"`
	OwnerID         uuid.UUID      `json:"owner_id"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	Role            string         `json:"role"`
	Site            string         `json:"site"`
	StartDate       *string        `json:"start_date"`
	NextAssetNumber string         `json:"next_asset_number"`
	ComputerName    string         `json:"computer_name"`
	Notes           string         `json:"notes"`
	LoginID         string         `json:"login_id"`
	Systems         pq.StringArray `json:"systems"`
	ComputerType    string         `json:"computer_type"`
	Status          string         `json:"status"`
	CompletedAt     *time.Time     `json:"completed_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// NewHire is the wizard's form payload.
type NewHire struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Role            string `json:"role"`
	Site            string `json:"site"`
	StartDate       string `json:"startDate"`
	NextAssetNumber string `json:"nextAssetNumber"`
	ComputerName    string `json:"computerName"`
	Notes           string `json:"notes"`
}

// CreateOnboardingRequest is the POST /onboarding body.
type CreateOnboardingRequest struct {
	Hire         NewHire  `json:"hire"`
	LoginID      string   `json:"loginId"`
	Systems      []string `json:"systems"`
	ComputerType string   `json:"computerType"`
}

// ApproveOnboardingRequest is the POST /onboarding/approve body. Approval
// assigns the chosen asset to the new hire and appends an assignment note.
type ApproveOnboardingRequest struct {
	Hire NewHire `json:"hire"`
}
