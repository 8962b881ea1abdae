package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familyidiomas/rota-api/internal/models"
	appErrors "github.com/familyidiomas/rota-api/pkg/errors"
)

func TestNewModelEmptyInputs(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA")}
	sessions := []models.ClassSession{testSession("KIDS_1", models.Segunda, "08:00:00")}

	_, err := NewModel(BuildIndex(nil, teachers))
	assert.True(t, appErrors.Is(err, appErrors.ErrEmptyInput))

	_, err = NewModel(BuildIndex(sessions, nil))
	assert.True(t, appErrors.Is(err, appErrors.ErrEmptyInput))
}

func TestNewModelBuildsFullGrid(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA"), testTeacher("BRUNO")}
	sessions := []models.ClassSession{
		testSession("KIDS_1", models.Segunda, "08:00:00"),
		testSession("KIDS_1", models.Quarta, "08:00:00"),
		testSession("TEENS_2", models.Terca, "14:00:00"),
	}

	m, err := NewModel(BuildIndex(sessions, teachers))
	require.NoError(t, err)

	// Recurrences of KIDS_1 share one variable, so the grid is 2x2.
	assert.Len(t, m.Vars, 4)

	monday, ok := m.AssignVar("ANA", "KIDS_1")
	require.True(t, ok)
	wednesday, ok := m.AssignVar("ANA", "KIDS_1")
	require.True(t, ok)
	assert.Equal(t, monday, wednesday)
}

func TestModelVariableOrderIsDeterministic(t *testing.T) {
	teachers := []models.Teacher{testTeacher("CLARA"), testTeacher("ANA"), testTeacher("BRUNO")}
	sessions := []models.ClassSession{
		testSession("B_GROUP", models.Segunda, "08:00:00"),
		testSession("A_GROUP", models.Terca, "09:00:00"),
	}

	m, err := NewModel(BuildIndex(sessions, teachers))
	require.NoError(t, err)

	keys := m.AssignmentKeys()
	require.Len(t, keys, 6)
	assert.Equal(t, AssignKey{Teacher: "ANA", Group: "A_GROUP"}, keys[0])
	assert.Equal(t, AssignKey{Teacher: "ANA", Group: "B_GROUP"}, keys[1])
	assert.Equal(t, AssignKey{Teacher: "BRUNO", Group: "A_GROUP"}, keys[2])
}

func TestFinalizeObjectiveCombinesTerms(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA")}
	sessions := []models.ClassSession{testSession("KIDS_1", models.Segunda, "08:00:00")}

	m, err := NewModel(BuildIndex(sessions, teachers))
	require.NoError(t, err)

	id, _ := m.AssignVar("ANA", "KIDS_1")
	m.AddObjectiveTerm(id, -100)
	m.AddObjectiveTerm(id, 5)
	m.FinalizeObjective()

	require.Len(t, m.Objective, 1)
	assert.Equal(t, id, m.Objective[0].Var)
	assert.Equal(t, float64(-95), m.Objective[0].Coef)
}

func TestBuildIndexSlots(t *testing.T) {
	sessions := []models.ClassSession{
		testSession("KIDS_1", models.Segunda, "08:00:00"),
		testSession("TEENS_2", models.Segunda, "08:00:00"),
		testSession("TEENS_2", models.Segunda, "08:00:00"), // duplicate row
		testSession("MBA_3", models.Segunda, "09:00:00"),
	}
	idx := BuildIndex(sessions, []models.Teacher{testTeacher("ANA")})

	slot := models.SlotKey{Weekday: models.Segunda, Time: "08:00:00"}
	assert.Equal(t, []string{"KIDS_1", "TEENS_2"}, idx.GroupsBySlot[slot])
	assert.Equal(t, []string{"KIDS_1", "MBA_3", "TEENS_2"}, idx.Groups)
	assert.Len(t, idx.InPersonByDay[models.Segunda], 4)
}

func TestGroupWeightDefaultsToOne(t *testing.T) {
	sessions := []models.ClassSession{
		testSession("KIDS_1", models.Segunda, "08:00:00", func(s *models.ClassSession) { s.WeeklyCount = 0 }),
		testSession("MBA_3", models.Terca, "09:00:00", func(s *models.ClassSession) { s.WeeklyCount = 12 }),
	}
	idx := BuildIndex(sessions, []models.Teacher{testTeacher("ANA")})
	assert.Equal(t, 1, idx.GroupWeight("KIDS_1"))
	assert.Equal(t, 12, idx.GroupWeight("MBA_3"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("double-weighted-workload")
	require.NoError(t, err)
	assert.Equal(t, PolicyDoubleWeightedWorkload, p)
	assert.Equal(t, float64(2), p.DeviationMultiplier())

	_, err = ParsePolicy("best-effort")
	assert.Error(t, err)
}
