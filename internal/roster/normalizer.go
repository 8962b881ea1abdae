package roster

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/familyidiomas/rota-api/internal/models"
)

// everydayExpansion is what the EVERYDAY literal stands for in the sheet.
const everydayExpansion = "2ª ● 3ª ● 4ª ● 5ª ● 6ª"

var dayLabels = map[string]models.Weekday{
	"2ª":       models.Segunda,
	"3ª":       models.Terca,
	"4ª":       models.Quarta,
	"5ª":       models.Quinta,
	"6ª":       models.Sexta,
	"Saturday": models.Sabado,
	"SEGUNDA":  models.Segunda,
	"TERÇA":    models.Terca,
	"QUARTA":   models.Quarta,
	"QUINTA":   models.Quinta,
	"SEXTA":    models.Sexta,
	"SÁBADO":   models.Sabado,
}

// Normalize expands raw rotation rows into one ClassSession per atomic
// weekday+time occurrence. Data defects come back as human-readable
// findings; they never abort the normalization, a solve over inconsistent
// data simply risks the empty-result path.
func Normalize(rows []RawSessionRow) ([]models.ClassSession, []string) {
	var sessions []models.ClassSession
	var findings []string

	for _, raw := range rows {
		if strings.TrimSpace(raw.GroupName) == "" {
			continue
		}

		days := strings.ReplaceAll(raw.Days, "EVERYDAY", everydayExpansion)

		// DOUBLE and Saturday-Triple blocks repeat the slot at one-hour
		// increments before the day field is split.
		repeats := 1
		if strings.Contains(days, "Triple") {
			repeats = 3
		} else if strings.Contains(days, "DOUBLE") {
			repeats = 2
		}

		start, err := parseClock(raw.Time)
		if err != nil {
			findings = append(findings, fmt.Sprintf("grupo %q: horario %q inválido", raw.GroupName, raw.Time))
			continue
		}

		base := models.ClassSession{
			Group:        strings.TrimSpace(raw.GroupName),
			Mode:         normalizeStatus(raw.Status),
			Unit:         strings.TrimSpace(raw.Unit),
			Modality:     strings.TrimSpace(raw.Modality),
			Category:     strings.TrimSpace(raw.Category),
			Stage:        normalizeStage(raw.Stage),
			WeeklyCount:  raw.WeeklyCount,
			Teacher:      normalizeName(raw.Teacher),
			LastTeacher:  normalizeName(raw.LastTeacher),
			PriorTeacher: normalizeName(raw.PriorTeacher),
			Excluded:     splitNames(raw.Excluded),
		}

		weekdays, bad := splitDays(days)
		for _, label := range bad {
			findings = append(findings, fmt.Sprintf("grupo %q: dia da semana %q não reconhecido", base.Group, label))
		}

		for _, day := range weekdays {
			for i := 0; i < repeats; i++ {
				s := base
				s.Weekday = day
				s.Start = start.Add(time.Duration(i) * time.Hour)
				s.Time = s.Start.Format("15:04:05")
				sessions = append(sessions, s)
			}
		}
	}

	return sessions, findings
}

// splitDays tokenizes the day field: bullet and comma separated, DOUBLE and
// -Triple markers stripped, glued ordinal runs like "2ª3ª" split apart.
// The rewrites run sequentially: "-Triple" only becomes a removable token
// once the surrounding spaces of "Saturday - Triple" are gone.
func splitDays(field string) ([]models.Weekday, []string) {
	cleaned := strings.ReplaceAll(field, "●", ",")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "DOUBLE", ",")
	cleaned = strings.ReplaceAll(cleaned, "-Triple", "")
	cleaned = strings.ReplaceAll(cleaned, "ª", "ª,")

	var days []models.Weekday
	var bad []string
	for _, token := range strings.Split(cleaned, ",") {
		if token == "" {
			continue
		}
		day, ok := dayLabels[token]
		if !ok {
			bad = append(bad, token)
			continue
		}
		days = append(days, day)
	}
	return days, bad
}

func normalizeStatus(status string) models.DeliveryMode {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case string(models.ModeOnline):
		return models.ModeOnline
	default:
		// Blank status means in person.
		return models.ModeInPerson
	}
}

// normalizeStage turns a bare numeric stage into the ESTAGIO_<n> label the
// teacher table's columns use. Non-numeric labels pass through.
func normalizeStage(stage string) string {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return ""
	}
	if n, err := strconv.Atoi(stage); err == nil {
		return fmt.Sprintf("ESTAGIO_%d", n)
	}
	return stage
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.UnassignedSentinel
	}
	return name
}

func splitNames(field string) []string {
	var names []string
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part != "" && part != models.UnassignedSentinel {
			names = append(names, part)
		}
	}
	return names
}

// parseClock accepts the sheet's HH:MM:SS times, tolerating HH:MM.
func parseClock(clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	if t, err := time.Parse("15:04:05", clock); err == nil {
		return t, nil
	}
	return time.Parse("15:04", clock)
}
