package solver

import (
	"time"

	"github.com/familyidiomas/rota-api/internal/models"
)

// Test fixtures. Teachers start fully permissive and are narrowed per case.

func testSession(group string, day models.Weekday, clock string, mutate ...func(*models.ClassSession)) models.ClassSession {
	start, err := time.Parse("15:04:05", clock)
	if err != nil {
		panic(err)
	}
	s := models.ClassSession{
		Group:       group,
		Weekday:     day,
		Time:        clock,
		Start:       start,
		Mode:        models.ModeInPerson,
		Unit:        "Satélite",
		WeeklyCount: 1,
		Teacher:     models.UnassignedSentinel,
	}
	for _, fn := range mutate {
		fn(&s)
	}
	return s
}

func testTeacher(name string, mutate ...func(*models.Teacher)) models.Teacher {
	t := models.Teacher{
		Name:      name,
		Days:      map[models.Weekday]models.Availability{},
		TimeSlots: map[string]bool{},
		Online:    true,
		InPerson:  true,
		Units:     map[string]bool{"Satélite": true, "Jardim": true, "Vicentina": true},
		Intensive: true,
	}
	for _, d := range models.SchoolWeek {
		t.Days[d] = models.Available
	}
	for hour := 7; hour <= 21; hour++ {
		t.TimeSlots[time.Date(0, 1, 1, hour, 0, 0, 0, time.UTC).Format("15:04:05")] = true
		t.TimeSlots[time.Date(0, 1, 1, hour, 30, 0, 0, time.UTC).Format("15:04:05")] = true
	}
	for _, fn := range mutate {
		fn(&t)
	}
	return t
}

func hardOptions() Options {
	opts := DefaultOptions()
	opts.Policy = PolicySingleTeacherHard
	opts.Seed = 42
	return opts
}

func assignedTeachers(sol *Solution) map[string]string {
	out := make(map[string]string, len(sol.Assignments))
	for _, a := range sol.Assignments {
		out[a.Group] = a.Teacher
	}
	return out
}
