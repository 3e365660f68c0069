package classify

import (
	"fmt"
	"log"
	"time"

	"attendance_engine/internal/attendance"
)

// Policy is the fixed-threshold arrival rule. Times are minutes since
// midnight. Arriving at or before the grace deadline is Present; after it,
// Late. Absent is never assigned here: it is the implied state of a roster
// employee with no entry, surfaced only by full-roster reporting.
type Policy struct {
	OfficeStart   int
	GraceDeadline int
}

// DefaultPolicy is a 09:00 office start with a 15 minute grace window.
func DefaultPolicy() Policy {
	return Policy{OfficeStart: 9 * 60, GraceDeadline: 9*60 + 15}
}

// ParsePolicy builds a Policy from "HH:MM" strings.
func ParsePolicy(officeStart, graceDeadline string) (Policy, error) {
	start, err := parseMinutes(officeStart)
	if err != nil {
		return Policy{}, fmt.Errorf("office start: %w", err)
	}
	deadline, err := parseMinutes(graceDeadline)
	if err != nil {
		return Policy{}, fmt.Errorf("grace deadline: %w", err)
	}
	if deadline < start {
		return Policy{}, fmt.Errorf("grace deadline %s precedes office start %s", graceDeadline, officeStart)
	}
	return Policy{OfficeStart: start, GraceDeadline: deadline}, nil
}

func parseMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Classify applies the fixed rule to an arrival time.
func (p Policy) Classify(arrival time.Time) attendance.Status {
	if arrival.Hour()*60+arrival.Minute() <= p.GraceDeadline {
		return attendance.StatusPresent
	}
	return attendance.StatusLate
}

// LateMinutes is how many minutes past office start the arrival is, floored
// at zero. Used as a model feature.
func (p Policy) LateMinutes(arrival time.Time) int {
	late := arrival.Hour()*60 + arrival.Minute() - p.OfficeStart
	if late < 0 {
		return 0
	}
	return late
}

// Classifier decides Present/Late for an arrival. A statistical model, when
// configured and loadable, overrides the fixed rule; any model failure falls
// back to the rule so classification never blocks attendance marking.
type Classifier struct {
	policy Policy
	model  *Model
}

// New builds a Classifier. An empty modelPath means rule-only. A model that
// fails to load is logged and ignored.
func New(policy Policy, modelPath string) *Classifier {
	c := &Classifier{policy: policy}
	if modelPath == "" {
		return c
	}
	model, err := LoadModel(modelPath)
	if err != nil {
		log.Printf("classify: model %s unavailable, using fixed rule: %v", modelPath, err)
		return c
	}
	log.Printf("classify: loaded model %s", modelPath)
	c.model = model
	return c
}

// Policy exposes the active fixed rule.
func (c *Classifier) Policy() Policy { return c.policy }

// Classify returns the status for an arrival time.
func (c *Classifier) Classify(arrival time.Time) attendance.Status {
	if c.model != nil {
		status, err := c.model.Predict(c.policy.LateMinutes(arrival), arrival.Hour(), arrival.Minute())
		if err == nil && attendance.KnownStatus(status) {
			return status
		}
		if err != nil {
			log.Printf("classify: model prediction failed, using fixed rule: %v", err)
		}
	}
	return c.policy.Classify(arrival)
}

// Close releases model resources, if any.
func (c *Classifier) Close() {
	if c.model != nil {
		c.model.Close()
		c.model = nil
	}
}
