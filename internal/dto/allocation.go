package dto

import "github.com/familyidiomas/rota-api/internal/models"

// SolveRequest asks for a new allocation run over the loaded dataset.
// Policy and seed are optional; the configured defaults apply when omitted.
type SolveRequest struct {
	Policy string `json:"policy" validate:"omitempty,oneof=single-teacher-hard single-teacher-fill-all soft-workload hard-workload double-weighted-workload"`
	Seed   *int64 `json:"seed" validate:"omitempty"`
}

// SolveAcceptedResponse acknowledges an enqueued run.
type SolveAcceptedResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
	Policy string `json:"policy"`
	Seed   int64  `json:"seed"`
}

// UploadResponse summarizes an ingested spreadsheet.
type UploadResponse struct {
	Sessions int      `json:"sessions,omitempty"`
	Groups   int      `json:"groups,omitempty"`
	Teachers int      `json:"teachers,omitempty"`
	Findings []string `json:"findings"`
}

// RunListQuery filters run history.
type RunListQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=pending running completed no_solution failed"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ExportQuery selects the download format of a rotation.
type ExportQuery struct {
	Format       string `form:"format" validate:"omitempty,oneof=xlsx csv pdf"`
	UnfilledOnly bool   `form:"unfilledOnly"`
}

// RotationResponse wraps a materialized rotation for API consumers.
type RotationResponse struct {
	RunID       string                `json:"runId"`
	Status      string                `json:"status"`
	Policy      string                `json:"policy"`
	Attempts    int                   `json:"attempts"`
	Seed        int64                 `json:"seed"`
	Assignments []models.Assignment   `json:"assignments"`
	Sessions    []models.ClassSession `json:"sessions"`
	Unfilled    []models.ClassSession `json:"unfilled"`
	Findings    []string              `json:"findings,omitempty"`
}

// NewRotationResponse maps the domain rotation onto the API shape.
func NewRotationResponse(rotation *models.Rotation) RotationResponse {
	return RotationResponse{
		RunID:       rotation.RunID,
		Status:      string(rotation.Status),
		Policy:      rotation.Policy,
		Attempts:    rotation.Attempts,
		Seed:        rotation.Seed,
		Assignments: rotation.Assignments,
		Sessions:    rotation.Sessions,
		Unfilled:    rotation.Unfilled,
		Findings:    rotation.Findings,
	}
}
