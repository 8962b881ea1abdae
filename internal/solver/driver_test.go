package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familyidiomas/rota-api/internal/models"
)

// These tests exercise the full pipeline against the real GLPK backend on
// deliberately tiny rosters.

func solve(t *testing.T, sessions []models.ClassSession, teachers []models.Teacher, opts Options) *Solution {
	t.Helper()
	sol, err := NewEngine(nil).SolveOnce(context.Background(), sessions, teachers, opts)
	require.NoError(t, err)
	require.NotNil(t, sol)
	return sol
}

func TestSolveDoubleBookingWithSingleAvailableTeacher(t *testing.T) {
	// Three groups meet Monday 08:00 at the same unit. Only T1 works Mondays,
	// so T1 covers at most one and the rest stay unfilled.
	teachers := []models.Teacher{
		testTeacher("T1"),
		testTeacher("T2", func(tc *models.Teacher) {
			tc.Days[models.Segunda] = models.Unavailable
		}),
	}
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "08:00:00"),
		testSession("G2", models.Segunda, "08:00:00"),
		testSession("G3", models.Segunda, "08:00:00"),
	}

	sol := solve(t, sessions, teachers, hardOptions())
	require.Len(t, sol.Assignments, 1)
	assert.Equal(t, "T1", sol.Assignments[0].Teacher)
}

func TestSolveModeEligibility(t *testing.T) {
	// An online-only teacher never takes an in-person session.
	teachers := []models.Teacher{
		testTeacher("WEB", func(tc *models.Teacher) { tc.InPerson = false }),
	}
	sessions := []models.ClassSession{testSession("G1", models.Segunda, "08:00:00")}

	sol := solve(t, sessions, teachers, hardOptions())
	assert.True(t, sol.Empty())
}

func TestSolveHardContinuityAvoidance(t *testing.T) {
	// G1's most recent teacher is T1; under the hard policy T1's variable is
	// zeroed, so T2 gets the group.
	teachers := []models.Teacher{testTeacher("T1"), testTeacher("T2")}
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "08:00:00", func(s *models.ClassSession) { s.LastTeacher = "T1" }),
	}

	sol := solve(t, sessions, teachers, hardOptions())
	require.Len(t, sol.Assignments, 1)
	assert.Equal(t, "T2", sol.Assignments[0].Teacher)
}

func TestSolveHardWorkloadBounds(t *testing.T) {
	// Target 6 with bounds [target-4, target] keeps T1's weighted load
	// between 2 and 6.
	teachers := []models.Teacher{
		testTeacher("T1", func(tc *models.Teacher) { tc.TargetLoad = 6 }),
	}
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "08:00:00"),
		testSession("G2", models.Segunda, "10:00:00"),
		testSession("G3", models.Terca, "08:00:00"),
		testSession("G4", models.Terca, "10:00:00"),
		testSession("G5", models.Quarta, "08:00:00"),
		testSession("G6", models.Quarta, "10:00:00"),
		testSession("G7", models.Quinta, "08:00:00"),
		testSession("G8", models.Quinta, "10:00:00"),
	}

	opts := hardOptions()
	opts.Policy = PolicyHardWorkload
	sol := solve(t, sessions, teachers, opts)

	load := 0
	for range sol.Assignments {
		load++
	}
	assert.GreaterOrEqual(t, load, 2)
	assert.LessOrEqual(t, load, 6)
}

func TestSolveIdempotentForSameSeed(t *testing.T) {
	teachers := []models.Teacher{testTeacher("T1"), testTeacher("T2"), testTeacher("T3")}
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "08:00:00"),
		testSession("G2", models.Segunda, "08:00:00"),
		testSession("G3", models.Terca, "09:00:00"),
		testSession("G4", models.Terca, "09:00:00"),
		testSession("G5", models.Quarta, "10:00:00"),
	}

	opts := hardOptions()
	opts.Seed = 7

	first := solve(t, sessions, teachers, opts)
	second := solve(t, sessions, teachers, opts)
	assert.Equal(t, first.Assignments, second.Assignments)
}

func TestSolveMinimumGap(t *testing.T) {
	// 30 minutes between two in-person groups is under the minimum gap, so
	// one teacher cannot take both.
	teachers := []models.Teacher{testTeacher("T1"), testTeacher("T2")}
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "09:00:00"),
		testSession("G2", models.Segunda, "09:30:00"),
	}

	sol := solve(t, sessions, teachers, hardOptions())
	byGroup := assignedTeachers(sol)
	require.Len(t, byGroup, 2)
	assert.NotEqual(t, byGroup["G1"], byGroup["G2"])
}

func TestSolveImpossibleGapWithNarrowWindow(t *testing.T) {
	// A 15-minute window no longer covers the listed gaps: a 25-minute pair
	// fits one teacher, a 30-minute pair still does not.
	teachers := []models.Teacher{
		testTeacher("T1", func(tc *models.Teacher) { tc.TimeSlots["09:25:00"] = true }),
	}
	opts := hardOptions()
	opts.MinGapMinutes = 15

	sol := solve(t, []models.ClassSession{
		testSession("G1", models.Segunda, "09:00:00"),
		testSession("G2", models.Segunda, "09:25:00"),
	}, teachers, opts)
	byGroup := assignedTeachers(sol)
	require.Len(t, byGroup, 2)
	assert.Equal(t, "T1", byGroup["G1"])
	assert.Equal(t, "T1", byGroup["G2"])

	sol = solve(t, []models.ClassSession{
		testSession("G1", models.Segunda, "09:00:00"),
		testSession("G2", models.Segunda, "09:30:00"),
	}, teachers, opts)
	assert.Len(t, assignedTeachers(sol), 1)
}

func TestSolveCrossUnitAdjacency(t *testing.T) {
	// Both sessions fall before noon at different units; the same teacher
	// cannot travel between sites within a half-day.
	teachers := []models.Teacher{testTeacher("T1"), testTeacher("T2")}
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "08:00:00"),
		testSession("G2", models.Segunda, "11:00:00", func(s *models.ClassSession) { s.Unit = "Jardim" }),
	}

	sol := solve(t, sessions, teachers, hardOptions())
	byGroup := assignedTeachers(sol)
	require.Len(t, byGroup, 2)
	assert.NotEqual(t, byGroup["G1"], byGroup["G2"])
}

func TestSolveConditionalAvailabilityActivates(t *testing.T) {
	// T1 is only conditionally available on Monday. Filling the group is
	// worth more than the activation penalty, so the solver switches the
	// indicator on.
	teachers := []models.Teacher{
		testTeacher("T1", func(tc *models.Teacher) {
			tc.Days[models.Segunda] = models.Conditional
		}),
	}
	sessions := []models.ClassSession{testSession("G1", models.Segunda, "08:00:00")}

	sol := solve(t, sessions, teachers, hardOptions())
	require.Len(t, sol.Assignments, 1)
	assert.Equal(t, "T1", sol.Assignments[0].Teacher)
}

func TestSolvePreAssignmentPinned(t *testing.T) {
	teachers := []models.Teacher{testTeacher("T1"), testTeacher("T2")}
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "08:00:00", func(s *models.ClassSession) { s.Teacher = "T2" }),
	}

	sol := solve(t, sessions, teachers, hardOptions())
	require.Len(t, sol.Assignments, 1)
	assert.Equal(t, "T2", sol.Assignments[0].Teacher)
}

func TestSolveSoftWorkloadStillFills(t *testing.T) {
	// Soft policy: deviation from target is penalized but never blocks
	// filling the roster.
	teachers := []models.Teacher{
		testTeacher("T1", func(tc *models.Teacher) { tc.TargetLoad = 5 }),
	}
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "08:00:00"),
		testSession("G2", models.Terca, "09:00:00"),
	}

	opts := hardOptions()
	opts.Policy = PolicyDoubleWeightedWorkload
	sol := solve(t, sessions, teachers, opts)
	assert.Len(t, sol.Assignments, 2)
}

func TestSolveInfeasibleHardBoundsComeBackEmpty(t *testing.T) {
	// Target 6 with a floor of 2 cannot be met by a single unit-weight
	// group, so the hard policy finds nothing and the caller falls back.
	teachers := []models.Teacher{
		testTeacher("T1", func(tc *models.Teacher) { tc.TargetLoad = 6 }),
	}
	sessions := []models.ClassSession{testSession("G1", models.Segunda, "08:00:00")}

	opts := hardOptions()
	opts.Policy = PolicyHardWorkload
	sol := solve(t, sessions, teachers, opts)
	assert.True(t, sol.Empty())
}

func TestMergeBackShiftsContinuityHistory(t *testing.T) {
	sessions := []models.ClassSession{
		testSession("G1", models.Segunda, "08:00:00", func(s *models.ClassSession) {
			s.LastTeacher = "OLD"
			s.PriorTeacher = "OLDER"
		}),
		testSession("G2", models.Terca, "09:00:00"),
	}
	assignments := []models.Assignment{{Teacher: "NEW", Group: "G1"}}

	merged, unfilled := MergeBack(sessions, assignments)
	require.Len(t, merged, 2)
	assert.Equal(t, "NEW", merged[0].Teacher)
	assert.Equal(t, "NEW", merged[0].LastTeacher)
	assert.Equal(t, "OLD", merged[0].PriorTeacher)

	require.Len(t, unfilled, 1)
	assert.Equal(t, "G2", unfilled[0].Group)
	// Inputs stay untouched.
	assert.Equal(t, models.UnassignedSentinel, sessions[1].Teacher)
}
