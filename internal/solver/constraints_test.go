package solver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/familyidiomas/rota-api/internal/models"
)

func compiledNames(t *testing.T, sessions []models.ClassSession, teachers []models.Teacher, opts Options) []string {
	t.Helper()
	m, err := Compile(BuildIndex(sessions, teachers), opts, nil)
	require.NoError(t, err)
	names := make([]string, len(m.Constraints))
	for i, c := range m.Constraints {
		names[i] = c.Name
	}
	return names
}

func hasPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestCompilePinsPreAssignedGroups(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA"), testTeacher("BRUNO")}
	sessions := []models.ClassSession{
		testSession("KIDS_1", models.Segunda, "08:00:00", func(s *models.ClassSession) { s.Teacher = "ANA" }),
		testSession("TEENS_2", models.Terca, "14:00:00"),
	}

	names := compiledNames(t, sessions, teachers, hardOptions())
	assert.True(t, hasPrefix(names, "pin[KIDS_1]"))
	assert.False(t, hasPrefix(names, "pin[TEENS_2]"))
}

func TestCompileSkipsPinForUnknownTeacher(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA")}
	sessions := []models.ClassSession{
		testSession("KIDS_1", models.Segunda, "08:00:00", func(s *models.ClassSession) { s.Teacher = "GHOST" }),
	}

	names := compiledNames(t, sessions, teachers, hardOptions())
	assert.False(t, hasPrefix(names, "pin["))
}

func TestCompileZeroesIneligibleModes(t *testing.T) {
	teachers := []models.Teacher{
		testTeacher("ONLINE_ONLY", func(tc *models.Teacher) { tc.InPerson = false }),
	}
	sessions := []models.ClassSession{testSession("KIDS_1", models.Segunda, "08:00:00")}

	names := compiledNames(t, sessions, teachers, hardOptions())
	assert.True(t, hasPrefix(names, "mode[ONLINE_ONLY,KIDS_1]"))
}

func TestCompileZeroesUnknownCapabilityLabels(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA")}
	sessions := []models.ClassSession{
		testSession("ESP_1", models.Segunda, "08:00:00", func(s *models.ClassSession) { s.Modality = "Espanhol" }),
	}

	// "Espanhol" has no column in ANA's capability table, so the variable is
	// zeroed conservatively.
	names := compiledNames(t, sessions, teachers, hardOptions())
	assert.True(t, hasPrefix(names, "capability[ANA,ESP_1]"))
}

func TestCompileHonorsExplicitExclusions(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA"), testTeacher("BRUNO")}
	sessions := []models.ClassSession{
		testSession("KIDS_1", models.Segunda, "08:00:00", func(s *models.ClassSession) { s.Excluded = []string{"BRUNO"} }),
	}

	names := compiledNames(t, sessions, teachers, hardOptions())
	assert.True(t, hasPrefix(names, "excluded[BRUNO,KIDS_1]"))
	assert.False(t, hasPrefix(names, "excluded[ANA,"))
}

func TestCompileIntensiveEligibility(t *testing.T) {
	teachers := []models.Teacher{
		testTeacher("LIGHT", func(tc *models.Teacher) { tc.Intensive = false }),
	}
	sessions := []models.ClassSession{
		testSession("MBA_3", models.Segunda, "08:00:00", func(s *models.ClassSession) { s.WeeklyCount = 10 }),
	}

	names := compiledNames(t, sessions, teachers, hardOptions())
	assert.True(t, hasPrefix(names, "intensive[LIGHT,MBA_3]"))
}

func TestCompileContinuityHardVersusSoft(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA"), testTeacher("BRUNO")}
	sessions := []models.ClassSession{
		testSession("KIDS_1", models.Segunda, "08:00:00", func(s *models.ClassSession) {
			s.LastTeacher = "ANA"
			s.PriorTeacher = "BRUNO"
		}),
	}

	hard := compiledNames(t, sessions, teachers, hardOptions())
	assert.True(t, hasPrefix(hard, "continuity[ANA,KIDS_1]"))
	assert.True(t, hasPrefix(hard, "continuity[BRUNO,KIDS_1]"))
	assert.False(t, hasPrefix(hard, "flex["))

	soft := hardOptions()
	soft.Policy = PolicySoftWorkload
	softNames := compiledNames(t, sessions, teachers, soft)
	assert.True(t, hasPrefix(softNames, "flex[ANA,KIDS_1]"))
	assert.False(t, hasPrefix(softNames, "continuity["))
}

func TestCompileWorkloadForms(t *testing.T) {
	teachers := []models.Teacher{
		testTeacher("ANA", func(tc *models.Teacher) { tc.TargetLoad = 6 }),
		testTeacher("NO_TARGET"),
	}
	sessions := []models.ClassSession{testSession("KIDS_1", models.Segunda, "08:00:00")}

	hard := hardOptions()
	hard.Policy = PolicyHardWorkload
	hardNames := compiledNames(t, sessions, teachers, hard)
	assert.True(t, hasPrefix(hardNames, "load[ANA]"))
	assert.False(t, hasPrefix(hardNames, "load[NO_TARGET]"))
	assert.False(t, hasPrefix(hardNames, "dev["))

	soft := hardOptions()
	soft.Policy = PolicyDoubleWeightedWorkload
	softNames := compiledNames(t, sessions, teachers, soft)
	assert.True(t, hasPrefix(softNames, "dev[ANA]"))
	assert.False(t, hasPrefix(softNames, "load["))
}

func TestCompileFillAllCoverage(t *testing.T) {
	teachers := []models.Teacher{testTeacher("ANA")}
	sessions := []models.ClassSession{testSession("KIDS_1", models.Segunda, "08:00:00")}

	opts := hardOptions()
	opts.Policy = PolicySingleTeacherFillAll
	m, err := Compile(BuildIndex(sessions, teachers), opts, nil)
	require.NoError(t, err)

	var cover, minload *Constraint
	for i := range m.Constraints {
		switch m.Constraints[i].Name {
		case "cover[KIDS_1]":
			cover = &m.Constraints[i]
		case "minload[ANA]":
			minload = &m.Constraints[i]
		}
	}
	require.NotNil(t, cover)
	assert.Equal(t, BoundFixed, cover.Kind)
	require.NotNil(t, minload)
	assert.Equal(t, BoundLower, minload.Kind)
}

func TestCompileImpossibleGapListBeyondWindow(t *testing.T) {
	// With the gap window narrowed below the {10,20,30,40,50} list, listed
	// gaps stay forbidden while unlisted gaps above the window pass.
	teachers := []models.Teacher{
		testTeacher("ANA", func(tc *models.Teacher) { tc.TimeSlots["09:25:00"] = true }),
	}
	sessions := []models.ClassSession{
		testSession("ADULT_3", models.Segunda, "09:25:00"),
		testSession("KIDS_1", models.Segunda, "09:00:00"),
		testSession("TEENS_2", models.Segunda, "09:30:00"),
	}
	opts := hardOptions()
	opts.MinGapMinutes = 15

	names := compiledNames(t, sessions, teachers, opts)
	assert.True(t, hasPrefix(names, "gap[KIDS_1,TEENS_2|30m]"))
	assert.True(t, hasPrefix(names, "gap[ADULT_3,TEENS_2|5m]"))
	assert.False(t, hasPrefix(names, "gap[ADULT_3,KIDS_1"))
}
