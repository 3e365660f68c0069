package normalize

import (
	"fmt"
	"time"

	"attendance_engine/internal/attendance"
)

// Options control batch normalization. The zero value is the live path:
// every event in the backlog is considered regardless of age.
type Options struct {
	// StalenessWindow drops events observed longer ago than this. Zero
	// disables the filter. The enhanced path uses it to avoid replaying a
	// stale backlog after an outage.
	StalenessWindow time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Result is a validated, batch-unique sequence of events plus the reasons
// anything was dropped.
type Result struct {
	Events     []attendance.Event
	Invalid    []string
	Duplicates []string
	Stale      []string
}

// Batch validates and deduplicates a raw batch. Events missing an employee
// id or correlation id are dropped; within the batch the first occurrence of
// a correlation id wins. No side effects.
func Batch(events []attendance.Event, opts Options) Result {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var res Result
	seen := make(map[string]bool, len(events))
	for i, ev := range events {
		if ev.EmployeeID == "" || ev.UniqueID == "" {
			res.Invalid = append(res.Invalid, fmt.Sprintf("entry %d: missing employee_id or unique_id", i+1))
			continue
		}
		if seen[ev.UniqueID] {
			res.Duplicates = append(res.Duplicates, fmt.Sprintf("%s (unique_id %s)", ev.EmployeeID, ev.UniqueID))
			continue
		}
		seen[ev.UniqueID] = true

		if opts.StalenessWindow > 0 {
			observed, err := ev.ObservedAt()
			if err != nil {
				// An unverifiable age cannot pass the staleness gate.
				res.Stale = append(res.Stale, fmt.Sprintf("%s: %v", ev.EmployeeID, err))
				continue
			}
			if age := now().Sub(observed); age > opts.StalenessWindow {
				res.Stale = append(res.Stale, fmt.Sprintf("%s: event is %s old", ev.EmployeeID, age.Round(time.Second)))
				continue
			}
		}

		res.Events = append(res.Events, ev)
	}
	return res
}
