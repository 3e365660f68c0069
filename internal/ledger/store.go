package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"attendance_engine/internal/attendance"
)

// ReasonAlreadyMarked is the rejection reason when an employee already has
// an entry for the day in any tracked copy of the ledger.
const ReasonAlreadyMarked = "already marked today"

// Store is the authoritative attendance ledger. SQLite is the primary copy;
// a bounded set of legacy read-only sources may be consulted during the
// duplicate check while old file-based ledgers are migrated away.
//
// The check-then-append inside Mark is the sole critical section of the
// engine: it is serialized by mu, with the UNIQUE index as a backstop for a
// second process sharing the database file.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	legacy []Source
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			employee_id TEXT NOT NULL,
			name TEXT NOT NULL,
			date TEXT NOT NULL,
			month TEXT NOT NULL,
			entry_time TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_day ON entries(employee_id, date);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_month ON entries(month);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddLegacySource registers a read-only fallback consulted during the
// duplicate check. The set is fixed at wiring time and intentionally small.
func (s *Store) AddLegacySource(src Source) {
	s.legacy = append(s.legacy, src)
}

// Mark appends an entry if, and only if, no entry exists for the same
// (employee, date) in the primary or any legacy source. Returns
// committed=false with ReasonAlreadyMarked when the day is taken. Exactly
// one of two racing calls for the same key can commit.
func (s *Store) Mark(ctx context.Context, e attendance.Entry) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked, err := s.isMarkedLocked(ctx, e.EmployeeID, e.Date)
	if err != nil {
		return false, "", err
	}
	if marked {
		return false, ReasonAlreadyMarked, nil
	}

	month, err := monthOf(e.Date)
	if err != nil {
		return false, "", fmt.Errorf("ledger: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries(employee_id, name, date, month, entry_time, status, created_at) VALUES(?,?,?,?,?,?,?)`,
		e.EmployeeID, e.Name, e.Date, month, e.EntryTime, string(e.Status), time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return false, ReasonAlreadyMarked, nil
		}
		return false, "", fmt.Errorf("ledger: insert entry: %w", err)
	}
	return true, "", nil
}

// IsMarked reports whether any tracked copy holds an entry for the employee
// on the given date.
func (s *Store) IsMarked(ctx context.Context, employeeID, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isMarkedLocked(ctx, employeeID, date)
}

func (s *Store) isMarkedLocked(ctx context.Context, employeeID, date string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM entries WHERE employee_id=? AND date=?`, employeeID, date).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("ledger: duplicate check: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	for _, src := range s.legacy {
		marked, err := src.Marked(employeeID, date)
		if err != nil {
			// A broken mirror must not block marking; the primary stays
			// authoritative.
			log.Printf("ledger: legacy source %s: %v", src.Name(), err)
			continue
		}
		if marked {
			return true, nil
		}
	}
	return false, nil
}

// ClearToday deletes all entries for the given date from the primary copy.
// Idempotent; legacy sources are read-only and untouched.
func (s *Store) ClearToday(ctx context.Context, date string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE date=?`, date)
	if err != nil {
		return 0, fmt.Errorf("ledger: clear %s: %w", date, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// EntriesFor returns the entries for one calendar date in insertion order.
func (s *Store) EntriesFor(ctx context.Context, date string) ([]attendance.Entry, error) {
	return s.query(ctx, `SELECT employee_id, name, date, entry_time, status FROM entries WHERE date=? ORDER BY rowid`, date)
}

// EntriesForMonth returns the entries in a month partition, e.g. "March_2026".
func (s *Store) EntriesForMonth(ctx context.Context, monthKey string) ([]attendance.Entry, error) {
	return s.query(ctx, `SELECT employee_id, name, date, entry_time, status FROM entries WHERE month=? ORDER BY rowid`, monthKey)
}

func (s *Store) query(ctx context.Context, stmt string, args ...any) ([]attendance.Entry, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: query entries: %w", err)
	}
	defer rows.Close()
	var entries []attendance.Entry
	for rows.Next() {
		var e attendance.Entry
		var status string
		if err := rows.Scan(&e.EmployeeID, &e.Name, &e.Date, &e.EntryTime, &status); err != nil {
			return nil, err
		}
		e.Status = attendance.Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary is today's headcount by status.
type Summary struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Total   int `json:"total"`
}

// SummaryFor counts the entries for one date by status.
func (s *Store) SummaryFor(ctx context.Context, date string) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM entries WHERE date=? GROUP BY status`, date)
	if err != nil {
		return Summary{}, fmt.Errorf("ledger: summary: %w", err)
	}
	defer rows.Close()
	var sum Summary
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Summary{}, err
		}
		switch attendance.Status(status) {
		case attendance.StatusPresent:
			sum.Present += n
		case attendance.StatusLate:
			sum.Late += n
		}
		sum.Total += n
	}
	return sum, rows.Err()
}

// Health returns an error if the database is not reachable.
func (s *Store) Health(ctx context.Context) error {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}

func monthOf(date string) (string, error) {
	t, err := attendance.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("bad date %q: %w", date, err)
	}
	return attendance.MonthKey(t), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
