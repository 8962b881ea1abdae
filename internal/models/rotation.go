package models

import "time"

// Rotation is the materialized outcome of a solve run: the merged session
// rows, the solved assignment pairs, the subset still unfilled and the
// integrity findings gathered before the solve.
type Rotation struct {
	RunID       string         `json:"run_id"`
	Status      SolveRunStatus `json:"status"`
	Policy      string         `json:"policy"`
	Attempts    int            `json:"attempts"`
	Seed        int64          `json:"seed"`
	Assignments []Assignment   `json:"assignments"`
	Sessions    []ClassSession `json:"sessions"`
	Unfilled    []ClassSession `json:"unfilled"`
	Findings    []string       `json:"findings,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}
