package attendance

import (
	"testing"
	"time"
)

func TestObservedAtAcceptsSensorShapes(t *testing.T) {
	cases := []string{
		"2024-01-01T09:20:00",
		"2024-01-01T09:20:00.123456",
		"2024-01-01T09:20:00Z",
		"2024-01-01T09:20:00.123456789+05:00",
	}
	for _, ts := range cases {
		ev := Event{Timestamp: ts}
		got, err := ev.ObservedAt()
		if err != nil {
			t.Errorf("ObservedAt(%q): %v", ts, err)
			continue
		}
		if got.Hour() != 9 || got.Minute() != 20 {
			t.Errorf("ObservedAt(%q) = %v, want 09:20", ts, got)
		}
	}
}

func TestObservedAtRejectsGarbage(t *testing.T) {
	for _, ts := range []string{"", "yesterday", "01/01/2024 09:20"} {
		if _, err := (Event{Timestamp: ts}).ObservedAt(); err == nil {
			t.Errorf("ObservedAt(%q) should fail", ts)
		}
	}
}

func TestDateRoundTripAndMonthKey(t *testing.T) {
	day := time.Date(2026, time.March, 5, 9, 10, 0, 0, time.Local)
	formatted := FormatDate(day)
	if formatted != "05/03/2026" {
		t.Fatalf("FormatDate = %q, want 05/03/2026", formatted)
	}
	parsed, err := ParseDate(formatted)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !parsed.Equal(time.Date(2026, time.March, 5, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("ParseDate = %v", parsed)
	}
	if key := MonthKey(day); key != "March_2026" {
		t.Fatalf("MonthKey = %q, want March_2026", key)
	}
}

func TestKnownStatus(t *testing.T) {
	for _, s := range []Status{StatusPresent, StatusLate, StatusAbsent, StatusLeave} {
		if !KnownStatus(s) {
			t.Errorf("KnownStatus(%q) = false", s)
		}
	}
	if KnownStatus(Status("Bogus")) || KnownStatus(Status("")) {
		t.Error("unknown statuses must not be accepted")
	}
}
