package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"attendance_engine/internal/attendance"
	"attendance_engine/internal/leave"
)

// Derived report artifacts for one month partition. The raw table mirrors
// the ledger rows; the wide report pivots them into one column per day with
// per-employee totals; the leave summary applies the lates-to-leave rule.
// All are regenerated from the ledger, never read back as ground truth.

func RawPath(dir, monthKey string) string {
	return filepath.Join(dir, fmt.Sprintf("Attendance_Raw_%s.xlsx", monthKey))
}

func WidePath(dir, monthKey string) string {
	return filepath.Join(dir, fmt.Sprintf("Attendance_Report_%s.xlsx", monthKey))
}

func LeavePath(dir, monthKey string) string {
	return filepath.Join(dir, fmt.Sprintf("Leave_Summary_%s.xlsx", monthKey))
}

// Artifacts lists every derived file tied to a month partition.
func Artifacts(dir, monthKey string) []string {
	return []string{RawPath(dir, monthKey), WidePath(dir, monthKey), LeavePath(dir, monthKey)}
}

// RemoveArtifacts deletes the month's derived files. Missing files are
// skipped; the removed paths are returned.
func RemoveArtifacts(dir, monthKey string) ([]string, error) {
	var removed []string
	for _, path := range Artifacts(dir, monthKey) {
		err := os.Remove(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("report: remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// WriteMonthly regenerates all three artifacts for a month from the given
// ledger entries. Each file is written to a temp file and renamed into
// place so a half-written table never replaces a complete one.
func WriteMonthly(dir, monthKey string, entries []attendance.Entry, roster map[string]string, latesToLeave int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: prepare %s: %w", dir, err)
	}
	if err := writeRaw(RawPath(dir, monthKey), entries); err != nil {
		return err
	}
	if err := writeWide(WidePath(dir, monthKey), entries); err != nil {
		return err
	}
	return writeLeave(LeavePath(dir, monthKey), leave.Summarize(entries, roster, latesToLeave))
}

func writeRaw(path string, entries []attendance.Entry) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	setRow(f, sheet, 1, "Employee ID", "Name", "Date", "Entry_Time", "Status")
	for i, e := range entries {
		setRow(f, sheet, i+2, e.EmployeeID, e.Name, e.Date, e.EntryTime, string(e.Status))
	}
	return saveAtomic(f, path)
}

func writeLeave(path string, rows []leave.Summary) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	setRow(f, sheet, 1, "Employee ID", "Name", "Total_Lates", "Total_Leaves")
	for i, r := range rows {
		setRow(f, sheet, i+2, r.EmployeeID, r.Name, r.TotalLates, r.TotalLeaves)
	}
	return saveAtomic(f, path)
}

// writeWide pivots entries into one column per day plus status totals.
func writeWide(path string, entries []attendance.Entry) error {
	type empKey struct{ id, name string }

	dates := map[string]time.Time{}
	marks := map[empKey]map[string]attendance.Status{}
	var emps []empKey
	for _, e := range entries {
		if _, ok := dates[e.Date]; !ok {
			if t, err := attendance.ParseDate(e.Date); err == nil {
				dates[e.Date] = t
			}
		}
		k := empKey{e.EmployeeID, e.Name}
		if marks[k] == nil {
			marks[k] = map[string]attendance.Status{}
			emps = append(emps, k)
		}
		marks[k][e.Date] = e.Status
	}

	ordered := make([]string, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return dates[ordered[i]].Before(dates[ordered[j]]) })
	sort.Slice(emps, func(i, j int) bool { return emps[i].id < emps[j].id })

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []any{"Employee ID", "Name"}
	for _, d := range ordered {
		header = append(header, dates[d].Format("January 2, 2006"))
	}
	header = append(header, "Total Present", "Total Late", "Total Absent", "Total Leaves")
	setRow(f, sheet, 1, header...)

	for i, k := range emps {
		row := []any{k.id, k.name}
		totals := map[attendance.Status]int{}
		for _, d := range ordered {
			status, ok := marks[k][d]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, string(status))
			totals[status]++
		}
		row = append(row,
			totals[attendance.StatusPresent],
			totals[attendance.StatusLate],
			totals[attendance.StatusAbsent],
			totals[attendance.StatusLeave])
		setRow(f, sheet, i+2, row...)
	}
	return saveAtomic(f, path)
}

func setRow(f *excelize.File, sheet string, row int, values ...any) {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			continue
		}
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func saveAtomic(f *excelize.File, path string) error {
	defer f.Close()
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.xlsx")
	if err != nil {
		return fmt.Errorf("report: temp file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	if err := f.SaveAs(tmpName); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("report: replace %s: %w", path, err)
	}
	return nil
}
