package models

// Availability is the ternary weekday availability state. The source sheet
// encodes it as 0 / 0.5 / 1; it is normalized to an enum on ingestion to
// avoid float-equality bugs.
type Availability int

const (
	Unavailable Availability = iota
	Conditional
	Available
)

// ParseAvailability maps the sheet's numeric encoding to the enum.
func ParseAvailability(raw float64) Availability {
	switch {
	case raw >= 1:
		return Available
	case raw > 0:
		return Conditional
	default:
		return Unavailable
	}
}

// Teacher is a schedulable resource with its capability flags.
type Teacher struct {
	Name       string                   `json:"name"` // TEACHER column
	Days       map[Weekday]Availability `json:"days"`
	TimeSlots  map[string]bool          `json:"time_slots"` // HH:MM:SS -> allowed
	Online     bool                     `json:"online"`
	InPerson   bool                     `json:"in_person"`
	Units      map[string]bool          `json:"units"`
	Capability map[string]bool          `json:"capability"` // modality/category/stage labels
	Intensive  bool                     `json:"intensive"`
	TargetLoad int                      `json:"target_load"` // MEDIA column
}

// DayAvailability returns the teacher's state for a weekday, defaulting to
// Unavailable when the sheet never mentioned the day.
func (t Teacher) DayAvailability(day Weekday) Availability {
	if t.Days == nil {
		return Unavailable
	}
	return t.Days[day]
}

// AllowsTime reports whether the teacher's time-slot column permits the
// given HH:MM:SS clock time. Missing columns count as not allowed; the
// integrity report surfaces them separately.
func (t Teacher) AllowsTime(clock string) bool {
	return t.TimeSlots != nil && t.TimeSlots[clock]
}

// HasCapability performs a checked lookup of a modality/category/stage
// label. The second return value is false when the label has no matching
// column in the teacher table at all.
func (t Teacher) HasCapability(label string) (allowed, known bool) {
	if t.Capability == nil {
		return false, false
	}
	allowed, known = t.Capability[label]
	return allowed, known
}

// AllowsUnit reports whether the teacher may work at the physical unit.
func (t Teacher) AllowsUnit(unit string) bool {
	return t.Units != nil && t.Units[unit]
}

// AllowsMode reports delivery-mode eligibility.
func (t Teacher) AllowsMode(mode DeliveryMode) bool {
	if mode == ModeOnline {
		return t.Online
	}
	return t.InPerson
}
