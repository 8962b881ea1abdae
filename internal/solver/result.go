package solver

import (
	"sort"

	"github.com/familyidiomas/rota-api/internal/models"
)

// Solution is the materialized outcome of one solve attempt. Zero rows is a
// valid outcome, not an error: it is the signal that the caller should retry
// under the relaxed fallback policy.
type Solution struct {
	Status      SolveStatus         `json:"status"`
	Policy      Policy              `json:"policy"`
	Seed        int64               `json:"seed"`
	Assignments []models.Assignment `json:"assignments"`
}

// Empty reports whether the solve produced no assignment rows.
func (s *Solution) Empty() bool {
	return s == nil || len(s.Assignments) == 0
}

// Extract emits one row per (teacher, group) variable that solved to 1,
// sorted by group then teacher for a stable table.
func Extract(m *Model, raw *RawSolution, policy Policy, seed int64) *Solution {
	sol := &Solution{
		Status: raw.Status,
		Policy: policy,
		Seed:   seed,
	}
	for _, key := range m.AssignmentKeys() {
		id, _ := m.AssignVar(key.Teacher, key.Group)
		if raw.True(id) {
			sol.Assignments = append(sol.Assignments, models.Assignment{
				Teacher: key.Teacher,
				Group:   key.Group,
			})
		}
	}
	sort.Slice(sol.Assignments, func(i, j int) bool {
		if sol.Assignments[i].Group != sol.Assignments[j].Group {
			return sol.Assignments[i].Group < sol.Assignments[j].Group
		}
		return sol.Assignments[i].Teacher < sol.Assignments[j].Teacher
	})
	return sol
}

// MergeBack folds solved assignments onto the session rows: the continuity
// history shifts one step and the assigned teacher becomes the current one.
// It returns the merged rows plus the subset still unfilled. Inputs are not
// mutated; a subsequent pass re-feeds the merged rows with assignments
// pinned.
func MergeBack(sessions []models.ClassSession, assignments []models.Assignment) (merged, unfilled []models.ClassSession) {
	byGroup := make(map[string]string, len(assignments))
	for _, a := range assignments {
		byGroup[a.Group] = a.Teacher
	}

	merged = make([]models.ClassSession, len(sessions))
	for i, s := range sessions {
		row := s
		row.PriorTeacher = s.LastTeacher
		if teacher, ok := byGroup[s.Group]; ok {
			row.Teacher = teacher
		}
		row.LastTeacher = row.Teacher
		merged[i] = row
		if !row.Assigned() {
			unfilled = append(unfilled, row)
		}
	}
	return merged, unfilled
}
