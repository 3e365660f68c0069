package mailbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"attendance_engine/internal/attendance"
)

func newTestBox(t *testing.T) *Mailbox {
	return New(filepath.Join(t.TempDir(), "recognized_id.json"))
}

func TestReadBatchMissingFile(t *testing.T) {
	box := newTestBox(t)
	events, err := box.ReadBatch()
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if events != nil {
		t.Fatalf("expected no events, got %v", events)
	}
}

func TestReadBatchZeroByteFile(t *testing.T) {
	box := newTestBox(t)
	if err := os.WriteFile(box.Path(), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	events, err := box.ReadBatch()
	if err != nil {
		t.Fatalf("zero-byte file should not error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestReadBatchSingleObject(t *testing.T) {
	box := newTestBox(t)
	body := `{"employee_id":"MSN001","name":"Ramsha Tariq","timestamp":"2024-01-01T09:05:00","unique_id":"u1"}`
	if err := os.WriteFile(box.Path(), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	events, err := box.ReadBatch()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].EmployeeID != "MSN001" {
		t.Fatalf("unexpected batch %v", events)
	}
}

func TestReadBatchArray(t *testing.T) {
	box := newTestBox(t)
	body := `[{"employee_id":"E1","timestamp":"2024-01-01T09:05:00","unique_id":"u1"},
	          {"employee_id":"E2","timestamp":"2024-01-01T09:06:00","unique_id":"u2"}]`
	if err := os.WriteFile(box.Path(), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	events, err := box.ReadBatch()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].UniqueID != "u2" {
		t.Fatalf("unexpected batch %v", events)
	}
}

func TestReadBatchCorrupt(t *testing.T) {
	box := newTestBox(t)
	if err := os.WriteFile(box.Path(), []byte("not json at all {"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := box.ReadBatch()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestClearIdempotent(t *testing.T) {
	box := newTestBox(t)
	if err := os.WriteFile(box.Path(), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := box.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := box.Clear(); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}
	if st := box.Stat(); st.Exists {
		t.Fatal("mailbox should be gone after clear")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	box := newTestBox(t)
	batch := []attendance.Event{
		{EmployeeID: "E1", Timestamp: "2024-01-01T09:05:00", UniqueID: "u1"},
		{EmployeeID: "E2", Timestamp: "2024-01-01T09:06:00", UniqueID: "u2"},
	}
	if err := box.Write(batch); err != nil {
		t.Fatal(err)
	}
	got, err := box.ReadBatch()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].UniqueID != "u1" {
		t.Fatalf("round trip mismatch: %v", got)
	}

	// A one-event batch is written as a bare object and must still read back.
	if err := box.Write(batch[:1]); err != nil {
		t.Fatal(err)
	}
	got, err = box.ReadBatch()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].EmployeeID != "E1" {
		t.Fatalf("single-object round trip mismatch: %v", got)
	}
}
