package models

import "time"

// SolveRunStatus tracks a solve run through its lifecycle.
type SolveRunStatus string

const (
	SolveRunPending    SolveRunStatus = "pending"
	SolveRunRunning    SolveRunStatus = "running"
	SolveRunCompleted  SolveRunStatus = "completed"
	SolveRunNoSolution SolveRunStatus = "no_solution"
	SolveRunFailed     SolveRunStatus = "failed"
)

// SolveRun is the audit record for one allocation request, covering every
// policy attempt it made.
type SolveRun struct {
	ID            string         `db:"id" json:"id"`
	Status        SolveRunStatus `db:"status" json:"status"`
	Policy        string         `db:"policy" json:"policy"`
	Attempts      int            `db:"attempts" json:"attempts"`
	Seed          int64          `db:"seed" json:"seed"`
	SeedExplicit  bool           `db:"seed_explicit" json:"seed_explicit"`
	DurationMS    int64          `db:"duration_ms" json:"duration_ms"`
	TotalSessions int            `db:"total_sessions" json:"total_sessions"`
	TotalGroups   int            `db:"total_groups" json:"total_groups"`
	TotalTeachers int            `db:"total_teachers" json:"total_teachers"`
	AssignedCount int            `db:"assigned_count" json:"assigned_count"`
	UnfilledCount int            `db:"unfilled_count" json:"unfilled_count"`
	Error         *string        `db:"error" json:"error,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Assignment is one solved (teacher, group) pair.
type Assignment struct {
	RunID   string `db:"run_id" json:"-"`
	Teacher string `db:"teacher" json:"teacher"`
	Group   string `db:"group_name" json:"group"`
}

// SolveRunFilter captures listing options for run history.
type SolveRunFilter struct {
	Status   SolveRunStatus
	Page     int
	PageSize int
}

// Pagination describes a paged collection in API responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
