package ledger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"attendance_engine/internal/attendance"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(id, date string) attendance.Entry {
	return attendance.Entry{
		EmployeeID: id,
		Name:       "Employee " + id,
		Date:       date,
		EntryTime:  "09:20",
		Status:     attendance.StatusLate,
	}
}

func TestMarkAtMostOncePerDay(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	committed, _, err := s.Mark(ctx, entry("E1", "01/01/2024"))
	if err != nil {
		t.Fatal(err)
	}
	if !committed {
		t.Fatal("first mark should commit")
	}

	committed, reason, err := s.Mark(ctx, entry("E1", "01/01/2024"))
	if err != nil {
		t.Fatal(err)
	}
	if committed || reason != ReasonAlreadyMarked {
		t.Fatalf("second mark should be rejected, got committed=%v reason=%q", committed, reason)
	}

	// A different day for the same employee is a fresh key.
	committed, _, err = s.Mark(ctx, entry("E1", "02/01/2024"))
	if err != nil {
		t.Fatal(err)
	}
	if !committed {
		t.Fatal("next-day mark should commit")
	}
}

func TestMarkConcurrentSameKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			committed, _, err := s.Mark(ctx, entry("E1", "01/01/2024"))
			if err != nil {
				t.Error(err)
				return
			}
			results <- committed
		}()
	}
	wg.Wait()
	close(results)

	commits := 0
	for committed := range results {
		if committed {
			commits++
		}
	}
	if commits != 1 {
		t.Fatalf("exactly one racing mark must commit, got %d", commits)
	}
}

func TestClearToday(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"E1", "E2"} {
		if _, _, err := s.Mark(ctx, entry(id, "01/01/2024")); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := s.Mark(ctx, entry("E1", "02/01/2024")); err != nil {
		t.Fatal(err)
	}

	removed, err := s.ClearToday(ctx, "01/01/2024")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	removed, err = s.ClearToday(ctx, "01/01/2024")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Fatalf("clear should be idempotent, got %d", removed)
	}

	// The other day survives and the key is reusable after the clear.
	left, err := s.EntriesFor(ctx, "02/01/2024")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 {
		t.Fatalf("expected other day untouched, got %v", left)
	}
	committed, _, err := s.Mark(ctx, entry("E1", "01/01/2024"))
	if err != nil {
		t.Fatal(err)
	}
	if !committed {
		t.Fatal("cleared day should accept a fresh mark")
	}
}

func TestEntriesForMonth(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, d := range []string{"01/01/2024", "15/01/2024", "01/02/2024"} {
		if _, _, err := s.Mark(ctx, entry("E1", d)); err != nil {
			t.Fatal(err)
		}
	}
	jan, err := s.EntriesForMonth(ctx, "January_2024")
	if err != nil {
		t.Fatal(err)
	}
	if len(jan) != 2 {
		t.Fatalf("expected 2 January entries, got %d", len(jan))
	}
	feb, err := s.EntriesForMonth(ctx, "February_2024")
	if err != nil {
		t.Fatal(err)
	}
	if len(feb) != 1 {
		t.Fatalf("expected 1 February entry, got %d", len(feb))
	}
}

func TestLegacyCSVBlocksDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	csvPath := filepath.Join(t.TempDir(), "attendance_log.csv")
	body := "Employee ID,Name,Date,Entry_Time,Status\nE1,Alice,01/01/2024,09:05,Present\n"
	if err := os.WriteFile(csvPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	s.AddLegacySource(NewSource(csvPath))

	committed, reason, err := s.Mark(ctx, entry("E1", "01/01/2024"))
	if err != nil {
		t.Fatal(err)
	}
	if committed || reason != ReasonAlreadyMarked {
		t.Fatalf("legacy entry must block the mark, got committed=%v reason=%q", committed, reason)
	}

	committed, _, err = s.Mark(ctx, entry("E2", "01/01/2024"))
	if err != nil {
		t.Fatal(err)
	}
	if !committed {
		t.Fatal("employee absent from legacy copy should commit")
	}
}

func TestLegacyMissingFileIgnored(t *testing.T) {
	s := openTestStore(t)
	s.AddLegacySource(NewSource(filepath.Join(t.TempDir(), "gone.csv")))
	s.AddLegacySource(NewSource(filepath.Join(t.TempDir(), "gone.xlsx")))
	committed, _, err := s.Mark(context.Background(), entry("E1", "01/01/2024"))
	if err != nil {
		t.Fatal(err)
	}
	if !committed {
		t.Fatal("missing legacy files must not block marking")
	}
}

func TestSummaryFor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	e := entry("E1", "01/01/2024")
	e.Status = attendance.StatusPresent
	e.EntryTime = "08:55"
	if _, _, err := s.Mark(ctx, e); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Mark(ctx, entry("E2", "01/01/2024")); err != nil {
		t.Fatal(err)
	}
	sum, err := s.SummaryFor(ctx, "01/01/2024")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Present != 1 || sum.Late != 1 || sum.Total != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}
