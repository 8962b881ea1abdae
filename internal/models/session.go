package models

import "time"

// Weekday is the canonical Portuguese weekday label used across the roster,
// the teacher table and every export.
type Weekday string

const (
	Segunda Weekday = "SEGUNDA"
	Terca   Weekday = "TERÇA"
	Quarta  Weekday = "QUARTA"
	Quinta  Weekday = "QUINTA"
	Sexta   Weekday = "SEXTA"
	Sabado  Weekday = "SÁBADO"
)

// WorkWeek is Monday through Friday, the expansion of the EVERYDAY literal.
var WorkWeek = []Weekday{Segunda, Terca, Quarta, Quinta, Sexta}

// SchoolWeek is every weekday the academy schedules, Saturday included.
var SchoolWeek = []Weekday{Segunda, Terca, Quarta, Quinta, Sexta, Sabado}

// Valid reports whether the label is one of the canonical weekdays.
func (d Weekday) Valid() bool {
	switch d {
	case Segunda, Terca, Quarta, Quinta, Sexta, Sabado:
		return true
	}
	return false
}

// DeliveryMode is the session status column, ONLINE or PRESENCIAL.
type DeliveryMode string

const (
	ModeOnline   DeliveryMode = "ONLINE"
	ModeInPerson DeliveryMode = "PRESENCIAL"
)

// UnassignedSentinel marks a session without a current teacher in the sheet.
const UnassignedSentinel = "-"

// SlotKey identifies a weekly meeting slot. Double-booking rules group
// sessions by this key, never by group identity.
type SlotKey struct {
	Weekday Weekday
	Time    string
}

// ClassSession is one atomic weekday+time occurrence of a group, produced by
// the roster normalizer. (Group, Weekday, Time) is unique; duplicates are an
// upstream data defect surfaced by the integrity report.
type ClassSession struct {
	Group        string       `json:"group"`   // nome grupo
	Weekday      Weekday      `json:"weekday"` // dias da semana, normalized
	Time         string       `json:"time"`    // horario, HH:MM:SS
	Start        time.Time    `json:"-"`       // parsed clock for gap arithmetic
	Mode         DeliveryMode `json:"mode"`    // status
	Unit         string       `json:"unit"`    // unidade
	Modality     string       `json:"modality"`
	Category     string       `json:"category"` // grupo
	Stage        string       `json:"stage"`    // ESTAGIO_<n> form
	WeeklyCount  int          `json:"weekly_count"`
	Teacher      string       `json:"teacher"`       // current assignment or "-"
	LastTeacher  string       `json:"last_teacher"`  // ultimo_professor
	PriorTeacher string       `json:"prior_teacher"` // penultimo_professor
	Excluded     []string     `json:"excluded,omitempty"`
}

// Assigned reports whether the session already names a teacher.
func (s ClassSession) Assigned() bool {
	return s.Teacher != "" && s.Teacher != UnassignedSentinel
}

// BeforeNoon reports the half-day period used by cross-unit adjacency.
func (s ClassSession) BeforeNoon() bool {
	return s.Start.Hour() < 12
}

// Slot returns the session's weekly meeting slot key.
func (s ClassSession) Slot() SlotKey {
	return SlotKey{Weekday: s.Weekday, Time: s.Time}
}
