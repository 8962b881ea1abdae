package roster

import (
	"io"
	"strings"
	"time"

	"github.com/familyidiomas/rota-api/internal/models"
)

// ReadTeachers parses the teacher capability sheet. Beyond the fixed columns
// (TEACHER, MEDIA, ONLINE, PRESENCIAL, INTENSIVO and the weekdays), headers
// are classified by shape: clock-shaped headers become time slots, headers
// naming a known physical unit become unit eligibility, and every remaining
// column is a capability label (modality, category or ESTAGIO_<n> stage).
func ReadTeachers(r io.Reader, filename string, units []string) ([]models.Teacher, error) {
	t, err := readTable(r, filename)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColTeacherName, ColTargetLoad); err != nil {
		return nil, err
	}

	unitSet := make(map[string]bool, len(units))
	for _, u := range units {
		unitSet[u] = true
	}

	weekdaySet := make(map[string]models.Weekday, len(models.SchoolWeek))
	for _, d := range models.SchoolWeek {
		weekdaySet[string(d)] = d
	}

	fixed := map[string]bool{
		ColTeacherName: true,
		ColTargetLoad:  true,
		ColOnline:      true,
		ColInPerson:    true,
		ColIntensive:   true,
	}

	teachers := make([]models.Teacher, 0, len(t.rows))
	for _, row := range t.rows {
		name := t.cell(row, ColTeacherName)
		if name == "" {
			continue
		}

		teacher := models.Teacher{
			Name:       name,
			Days:       make(map[models.Weekday]models.Availability),
			TimeSlots:  make(map[string]bool),
			Units:      make(map[string]bool),
			Capability: make(map[string]bool),
		}

		target, _ := parseFloatCell(t.cell(row, ColTargetLoad))
		teacher.TargetLoad = int(target)
		teacher.Online = flagCell(t.cell(row, ColOnline))
		teacher.InPerson = flagCell(t.cell(row, ColInPerson))
		teacher.Intensive = flagCell(t.cell(row, ColIntensive))

		for _, header := range t.headers {
			header = strings.TrimSpace(header)
			if header == "" || fixed[header] {
				continue
			}
			value := t.cell(row, header)

			if day, ok := weekdaySet[header]; ok {
				raw, _ := parseFloatCell(value)
				teacher.Days[day] = models.ParseAvailability(raw)
				continue
			}
			if clock, ok := parseClockHeader(header); ok {
				teacher.TimeSlots[clock] = flagCell(value)
				continue
			}
			if unitSet[header] {
				teacher.Units[header] = flagCell(value)
				continue
			}
			teacher.Capability[header] = flagCell(value)
		}

		teachers = append(teachers, teacher)
	}
	return teachers, nil
}

// flagCell reads the sheet's 0/1 capability encoding; anything above zero
// counts as set.
func flagCell(s string) bool {
	f, err := parseFloatCell(s)
	return err == nil && f > 0
}

// parseClockHeader normalizes a clock-shaped column header to HH:MM:SS.
func parseClockHeader(header string) (string, bool) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if parsed, err := time.Parse(layout, header); err == nil {
			return parsed.Format("15:04:05"), true
		}
	}
	return "", false
}
