package solver

import (
	"sort"

	"github.com/familyidiomas/rota-api/internal/models"
)

// Index holds the lookup maps a solve needs, built once so the constraint
// compiler never rescans the session slice. All slices are sorted to keep
// compilation order deterministic.
type Index struct {
	Sessions []models.ClassSession
	Teachers []models.Teacher

	TeacherNames  []string
	TeacherByName map[string]models.Teacher

	Groups          []string
	SessionsByGroup map[string][]models.ClassSession

	GroupsBySlot  map[models.SlotKey][]string
	SessionsByDay map[models.Weekday][]models.ClassSession
	InPersonByDay map[models.Weekday][]models.ClassSession
}

// BuildIndex precomputes every lookup used during constraint compilation.
func BuildIndex(sessions []models.ClassSession, teachers []models.Teacher) *Index {
	idx := &Index{
		Sessions:        sessions,
		Teachers:        teachers,
		TeacherByName:   make(map[string]models.Teacher, len(teachers)),
		SessionsByGroup: make(map[string][]models.ClassSession),
		GroupsBySlot:    make(map[models.SlotKey][]string),
		SessionsByDay:   make(map[models.Weekday][]models.ClassSession),
		InPersonByDay:   make(map[models.Weekday][]models.ClassSession),
	}

	for _, t := range teachers {
		if _, ok := idx.TeacherByName[t.Name]; ok {
			continue
		}
		idx.TeacherByName[t.Name] = t
		idx.TeacherNames = append(idx.TeacherNames, t.Name)
	}
	sort.Strings(idx.TeacherNames)

	slotSeen := make(map[models.SlotKey]map[string]struct{})
	for _, s := range sessions {
		if _, ok := idx.SessionsByGroup[s.Group]; !ok {
			idx.Groups = append(idx.Groups, s.Group)
		}
		idx.SessionsByGroup[s.Group] = append(idx.SessionsByGroup[s.Group], s)
		idx.SessionsByDay[s.Weekday] = append(idx.SessionsByDay[s.Weekday], s)
		if s.Mode == models.ModeInPerson {
			idx.InPersonByDay[s.Weekday] = append(idx.InPersonByDay[s.Weekday], s)
		}

		slot := s.Slot()
		if slotSeen[slot] == nil {
			slotSeen[slot] = make(map[string]struct{})
		}
		if _, ok := slotSeen[slot][s.Group]; !ok {
			slotSeen[slot][s.Group] = struct{}{}
			idx.GroupsBySlot[slot] = append(idx.GroupsBySlot[slot], s.Group)
		}
	}
	sort.Strings(idx.Groups)
	for slot := range idx.GroupsBySlot {
		sort.Strings(idx.GroupsBySlot[slot])
	}

	return idx
}

// GroupWeight returns the weekly session count a group contributes to a
// teacher's load. Recurrences share one decision variable, so the weight is
// taken from the group's first row.
func (idx *Index) GroupWeight(group string) int {
	rows := idx.SessionsByGroup[group]
	if len(rows) == 0 {
		return 0
	}
	if rows[0].WeeklyCount > 0 {
		return rows[0].WeeklyCount
	}
	return 1
}

// Days returns the sorted weekdays that actually carry sessions.
func (idx *Index) Days() []models.Weekday {
	var days []models.Weekday
	for _, d := range models.SchoolWeek {
		if len(idx.SessionsByDay[d]) > 0 {
			days = append(days, d)
		}
	}
	return days
}
