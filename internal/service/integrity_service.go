package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/familyidiomas/rota-api/internal/models"
)

// IntegrityService inspects a normalized roster against the teacher table
// and produces human-readable findings. Findings are reported data, never
// errors: a solve still runs over inconsistent input and simply risks the
// empty-result path.
type IntegrityService struct {
	logger *zap.Logger
}

// NewIntegrityService constructs an IntegrityService.
func NewIntegrityService(logger *zap.Logger) *IntegrityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrityService{logger: logger}
}

// Check runs every integrity rule and returns the combined findings.
func (s *IntegrityService) Check(sessions []models.ClassSession, teachers []models.Teacher) []string {
	byName := make(map[string]models.Teacher, len(teachers))
	for _, t := range teachers {
		byName[t.Name] = t
	}

	var findings []string
	findings = append(findings, s.checkDuplicateSessions(sessions)...)
	findings = append(findings, s.checkWeekdayLabels(sessions)...)
	findings = append(findings, s.checkKnownTeachers(sessions, byName)...)
	findings = append(findings, s.checkKnownTimes(sessions, teachers)...)
	findings = append(findings, s.checkKnownLabels(sessions, teachers)...)
	findings = append(findings, s.checkPreAssignmentFeasibility(sessions, byName)...)

	for _, f := range findings {
		s.logger.Warn("integrity finding", zap.String("finding", f))
	}
	return findings
}

// checkDuplicateSessions flags repeated (group, weekday, time) rows.
func (s *IntegrityService) checkDuplicateSessions(sessions []models.ClassSession) []string {
	type key struct {
		group string
		slot  models.SlotKey
	}
	seen := make(map[key]int)
	var findings []string
	for _, row := range sessions {
		k := key{group: row.Group, slot: row.Slot()}
		seen[k]++
		if seen[k] == 2 {
			findings = append(findings, fmt.Sprintf("grupo %q duplicado em %s %s", row.Group, row.Weekday, row.Time))
		}
	}
	return findings
}

func (s *IntegrityService) checkWeekdayLabels(sessions []models.ClassSession) []string {
	var findings []string
	flagged := make(map[models.Weekday]bool)
	for _, row := range sessions {
		if !row.Weekday.Valid() && !flagged[row.Weekday] {
			flagged[row.Weekday] = true
			findings = append(findings, fmt.Sprintf("dia da semana %q não reconhecido (grupo %q)", row.Weekday, row.Group))
		}
	}
	return findings
}

// checkKnownTeachers flags pre-assigned teachers absent from the teacher
// table.
func (s *IntegrityService) checkKnownTeachers(sessions []models.ClassSession, byName map[string]models.Teacher) []string {
	missing := make(map[string][]string)
	for _, row := range sessions {
		if !row.Assigned() {
			continue
		}
		if _, ok := byName[row.Teacher]; !ok {
			missing[row.Teacher] = appendUnique(missing[row.Teacher], row.Group)
		}
	}
	return formatByName(missing, "teacher %q não consta na tabela de professores (grupos: %s)")
}

// checkKnownTimes flags session clock times that no teacher-table column
// covers.
func (s *IntegrityService) checkKnownTimes(sessions []models.ClassSession, teachers []models.Teacher) []string {
	known := make(map[string]bool)
	for _, t := range teachers {
		for clock := range t.TimeSlots {
			known[clock] = true
		}
	}
	missing := make(map[string][]string)
	for _, row := range sessions {
		if !known[row.Time] {
			missing[row.Time] = appendUnique(missing[row.Time], row.Group)
		}
	}
	return formatByName(missing, "horario %q sem coluna na tabela de professores (grupos: %s)")
}

// checkKnownLabels flags modality, category and stage labels with no
// capability column anywhere in the teacher table.
func (s *IntegrityService) checkKnownLabels(sessions []models.ClassSession, teachers []models.Teacher) []string {
	known := make(map[string]bool)
	for _, t := range teachers {
		for label := range t.Capability {
			known[label] = true
		}
	}
	missing := make(map[string][]string)
	for _, row := range sessions {
		for _, label := range []string{row.Modality, row.Category, row.Stage} {
			if label != "" && !known[label] {
				missing[label] = appendUnique(missing[label], row.Group)
			}
		}
	}
	return formatByName(missing, "label %q sem coluna na tabela de professores (grupos: %s)")
}

// checkPreAssignmentFeasibility flags pre-assigned teachers scheduled on a
// day or time their availability forbids.
func (s *IntegrityService) checkPreAssignmentFeasibility(sessions []models.ClassSession, byName map[string]models.Teacher) []string {
	var findings []string
	for _, row := range sessions {
		if !row.Assigned() {
			continue
		}
		teacher, ok := byName[row.Teacher]
		if !ok {
			continue
		}
		if teacher.DayAvailability(row.Weekday) == models.Unavailable {
			findings = append(findings, fmt.Sprintf("teacher %q pré-alocado em %s, dia não permitido (grupo %q)", row.Teacher, row.Weekday, row.Group))
		}
		if !teacher.AllowsTime(row.Time) {
			findings = append(findings, fmt.Sprintf("teacher %q pré-alocado às %s, horário não permitido (grupo %q)", row.Teacher, row.Time, row.Group))
		}
	}
	return findings
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func formatByName(byKey map[string][]string, format string) []string {
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	findings := make([]string, 0, len(keys))
	for _, k := range keys {
		findings = append(findings, fmt.Sprintf(format, k, strings.Join(byKey[k], ", ")))
	}
	return findings
}
