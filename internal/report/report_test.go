package report

import (
	"os"
	"testing"

	"github.com/xuri/excelize/v2"

	"attendance_engine/internal/attendance"
)

func monthEntries() []attendance.Entry {
	return []attendance.Entry{
		{EmployeeID: "E1", Name: "Alice", Date: "01/01/2024", EntryTime: "08:55", Status: attendance.StatusPresent},
		{EmployeeID: "E2", Name: "Bob", Date: "01/01/2024", EntryTime: "09:20", Status: attendance.StatusLate},
		{EmployeeID: "E1", Name: "Alice", Date: "02/01/2024", EntryTime: "09:30", Status: attendance.StatusLate},
	}
}

func TestWriteMonthlyArtifacts(t *testing.T) {
	dir := t.TempDir()
	roster := map[string]string{"E1": "Alice", "E2": "Bob"}
	if err := WriteMonthly(dir, "January_2024", monthEntries(), roster, 2); err != nil {
		t.Fatal(err)
	}
	for _, path := range Artifacts(dir, "January_2024") {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected artifact %s: %v", path, err)
		}
	}

	f, err := excelize.OpenFile(RawPath(dir, "January_2024"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Employee ID" || rows[1][0] != "E1" || rows[1][4] != "Present" {
		t.Fatalf("unexpected raw rows %v", rows[:2])
	}
}

func TestWideReportTotals(t *testing.T) {
	dir := t.TempDir()
	if err := WriteMonthly(dir, "January_2024", monthEntries(), map[string]string{}, 2); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(WidePath(dir, "January_2024"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	// Header: Employee ID, Name, 2 date columns, 4 totals.
	if len(rows[0]) != 8 {
		t.Fatalf("unexpected header width %d: %v", len(rows[0]), rows[0])
	}
	// Alice: Present on the 1st, Late on the 2nd.
	alice := rows[1]
	if alice[0] != "E1" || alice[2] != "Present" || alice[3] != "Late" {
		t.Fatalf("unexpected Alice row %v", alice)
	}
	if alice[4] != "1" || alice[5] != "1" {
		t.Fatalf("unexpected Alice totals %v", alice[4:])
	}
}

func TestRemoveArtifacts(t *testing.T) {
	dir := t.TempDir()
	if err := WriteMonthly(dir, "January_2024", monthEntries(), map[string]string{}, 2); err != nil {
		t.Fatal(err)
	}
	removed, err := RemoveArtifacts(dir, "January_2024")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 3 {
		t.Fatalf("expected 3 removed artifacts, got %v", removed)
	}
	removed, err = RemoveArtifacts(dir, "January_2024")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 0 {
		t.Fatalf("second removal should find nothing, got %v", removed)
	}
}

func TestLeaveSummarySheet(t *testing.T) {
	dir := t.TempDir()
	roster := map[string]string{"E1": "Alice", "E2": "Bob"}
	entries := []attendance.Entry{
		{EmployeeID: "E1", Name: "Alice", Date: "01/01/2024", EntryTime: "09:30", Status: attendance.StatusLate},
		{EmployeeID: "E1", Name: "Alice", Date: "02/01/2024", EntryTime: "09:40", Status: attendance.StatusLate},
	}
	if err := WriteMonthly(dir, "January_2024", entries, roster, 2); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(LeavePath(dir, "January_2024"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 roster rows, got %d", len(rows))
	}
	if rows[1][2] != "2" || rows[1][3] != "1" {
		t.Fatalf("expected 2 lates / 1 leave for Alice, got %v", rows[1])
	}
	if rows[2][2] != "0" || rows[2][3] != "0" {
		t.Fatalf("expected zero-filled Bob row, got %v", rows[2])
	}
}
