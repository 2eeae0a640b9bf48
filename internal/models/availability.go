package models

import "time"

// Weekday vocabulary inherited from the legacy system, Sunday-first. The
// exact strings and ordering are part of the external contract; consumers
// match on them rather than on enums.
var WeekdayNames = [7]string{"DOMINGO", "LUNES", "MARTES", "MIERCOLES", "JUEVES", "VIERNES", "SABADO"}

// WeekdayName maps a date to its legacy weekday string.
func WeekdayName(t time.Time) string {
	return WeekdayNames[int(t.Weekday())]
}

// OperatingDaysFor expands a frequency into its weekday list. CUSTOM takes
// the supplied list verbatim; the caller validates it is non-empty.
func OperatingDaysFor(freq Frequency, custom []string) []string {
	switch freq {
	case FrequencyDaily:
		return append([]string(nil), WeekdayNames[:]...)
	case FrequencyWeekdays:
		return append([]string(nil), WeekdayNames[1:6]...)
	case FrequencyWeekends:
		return []string{WeekdayNames[6], WeekdayNames[0]}
	default:
		return append([]string(nil), custom...)
	}
}

// AssignmentKind identifies which schedule governs a unit on a day.
type AssignmentKind string

const (
	KindExceptional AssignmentKind = "EXCEPTIONAL"
	KindPermanent   AssignmentKind = "PERMANENT"
	KindFree        AssignmentKind = "FREE"
)

// AvailabilityResult answers "can unit U take assignment type T on date(s) D".
// Conflicts force Permitted=false; warnings are advisory and accompany a
// permitted result.
type AvailabilityResult struct {
	Permitted bool     `json:"permitted"`
	Warnings  []string `json:"warnings"`
	Conflicts []string `json:"conflicts"`
}

// DayResolution is the derived answer to "what governs unit U on date D".
// It is never persisted; callers always recompute it from the assignment
// tables to avoid staleness.
type DayResolution struct {
	Kind                  AssignmentKind         `json:"assignment_type"`
	PermanentAssignment   *PermanentAssignment   `json:"permanent_assignment,omitempty"`
	ExceptionalAssignment *ExceptionalAssignment `json:"exceptional_assignment,omitempty"`
	Details               string                 `json:"details"`
}

// BusyDay is one occupied day inside a range scan.
type BusyDay struct {
	Date    time.Time      `json:"date"`
	Kind    AssignmentKind `json:"type"`
	Details string         `json:"details"`
}

// RangeAvailability buckets a scanned date range into free and busy days.
type RangeAvailability struct {
	FreeDays []time.Time `json:"free_days"`
	BusyDays []BusyDay   `json:"busy_days"`
	Summary  string      `json:"summary"`
}
