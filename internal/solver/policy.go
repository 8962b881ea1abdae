package solver

import "fmt"

// Policy selects which rule set and objective shape a solve compiles.
// The variants mirror the rotation policies the academy actually runs.
type Policy string

const (
	// PolicySingleTeacherHard assigns at most one teacher per group with hard
	// continuity avoidance and no workload terms.
	PolicySingleTeacherHard Policy = "single-teacher-hard"
	// PolicySingleTeacherFillAll forces every group covered and every teacher
	// to receive at least one session.
	PolicySingleTeacherFillAll Policy = "single-teacher-fill-all"
	// PolicySoftWorkload penalizes deviation from each teacher's target load
	// instead of bounding it.
	PolicySoftWorkload Policy = "soft-workload"
	// PolicyHardWorkload bounds each teacher's weighted load inside
	// [target-deltaLow, target+deltaHigh].
	PolicyHardWorkload Policy = "hard-workload"
	// PolicyDoubleWeightedWorkload is the relaxed fallback: soft workload with
	// doubled deviation weights.
	PolicyDoubleWeightedWorkload Policy = "double-weighted-workload"
)

// ParsePolicy validates a policy name from configuration or a request.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicySingleTeacherHard, PolicySingleTeacherFillAll,
		PolicySoftWorkload, PolicyHardWorkload, PolicyDoubleWeightedWorkload:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown solve policy %q", s)
}

// FillAll reports whether every group must receive exactly one teacher.
func (p Policy) FillAll() bool {
	return p == PolicySingleTeacherFillAll
}

// HardContinuity reports whether recent historical teachers are zeroed out
// instead of penalized.
func (p Policy) HardContinuity() bool {
	return p == PolicySingleTeacherHard || p == PolicySingleTeacherFillAll
}

// HardWorkload reports whether workload is enforced as hard bounds.
func (p Policy) HardWorkload() bool {
	return p == PolicyHardWorkload
}

// SoftWorkload reports whether workload deviation enters the objective.
func (p Policy) SoftWorkload() bool {
	return p == PolicySoftWorkload || p == PolicyDoubleWeightedWorkload
}

// DeviationMultiplier scales the workload deviation weight. The fallback
// policy doubles it so load balance dominates once hard bounds proved
// infeasible.
func (p Policy) DeviationMultiplier() float64 {
	if p == PolicyDoubleWeightedWorkload {
		return 2
	}
	return 1
}
