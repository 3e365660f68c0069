package ledger

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source is a read-only legacy ledger copy consulted during the duplicate
// check. Sources exist for the migration window away from ad hoc file
// scanning; a missing file means no entries, not an error.
type Source interface {
	Name() string
	Marked(employeeID, date string) (bool, error)
}

// NewSource picks a reader by file extension.
func NewSource(path string) Source {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return csvSource{path: path}
	}
	return xlsxSource{path: path}
}

// xlsxSource reads a monthly raw table workbook
// (Employee ID, Name, Date, Entry_Time, Status).
type xlsxSource struct {
	path string
}

func (s xlsxSource) Name() string { return s.path }

func (s xlsxSource) Marked(employeeID, date string) (bool, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return false, nil
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return false, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return false, err
	}
	return scanRows(rows, employeeID, date), nil
}

// csvSource reads the sensor-side attendance_log.csv backup.
type csvSource struct {
	path string
}

func (s csvSource) Name() string { return s.path }

func (s csvSource) Marked(employeeID, date string) (bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Legacy backups accumulate malformed lines; skip them the way
			// the old tooling did.
			continue
		}
		rows = append(rows, row)
	}
	return scanRows(rows, employeeID, date), nil
}

// scanRows matches by header position when a header row is present, falling
// back to the conventional column order (Employee ID first, Date third).
func scanRows(rows [][]string, employeeID, date string) bool {
	if len(rows) == 0 {
		return false
	}
	idCol, dateCol := 0, 2
	start := 0
	for i, col := range rows[0] {
		switch strings.TrimSpace(col) {
		case "Employee ID":
			idCol = i
			start = 1
		case "Date":
			dateCol = i
			start = 1
		}
	}
	for _, row := range rows[start:] {
		if idCol >= len(row) || dateCol >= len(row) {
			continue
		}
		if strings.TrimSpace(row[idCol]) == employeeID && strings.TrimSpace(row[dateCol]) == date {
			return true
		}
	}
	return false
}
