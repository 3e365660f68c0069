package attendance

import (
	"fmt"
	"time"
)

// Status is the derived daily attendance state for an employee.
type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Late"
	StatusAbsent  Status = "Absent"
	StatusLeave   Status = "Leave"
)

// KnownStatus reports whether s is one of the recognized status values.
func KnownStatus(s Status) bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusLeave:
		return true
	default:
		return false
	}
}

// Ledger date and time-of-day formats. Dates are day-first to match the
// roster and report conventions.
const (
	DateLayout     = "02/01/2006"
	TimeLayout     = "15:04"
	MonthKeyLayout = "January_2006"
)

// Event is a raw recognition event handed off by the sensor process through
// the mailbox. It is consumed during reconciliation and never stored.
type Event struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name,omitempty"`
	Timestamp  string `json:"timestamp"`
	UniqueID   string `json:"unique_id"`
	Status     string `json:"status,omitempty"`
}

// observedAtLayouts are the timestamp shapes the sensor is known to emit.
var observedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ObservedAt parses the event timestamp. The sensor emits ISO-8601 with or
// without a zone offset; zoneless values are taken as local time.
func (e Event) ObservedAt() (time.Time, error) {
	for _, layout := range observedAtLayouts {
		if t, err := time.ParseInLocation(layout, e.Timestamp, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", e.Timestamp)
}

// Entry is one attendance mark. At most one entry may exist per
// (EmployeeID, Date) pair; entries are immutable once written.
type Entry struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	EntryTime  string `json:"entry_time"`
	Status     Status `json:"status"`
}

// FormatDate renders a calendar date in ledger form (DD/MM/YYYY).
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ParseDate parses a ledger-form date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// MonthKey names the month partition a timestamp falls in, e.g. "March_2026".
// Monthly tables and report artifacts are keyed by it.
func MonthKey(t time.Time) string { return t.Format(MonthKeyLayout) }
