package mailbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"attendance_engine/internal/attendance"
)

// ErrCorrupt marks a mailbox whose content is not valid JSON. The batch is
// unrecoverable and must be discarded whole.
var ErrCorrupt = errors.New("mailbox: corrupt batch")

// Mailbox is the shared file through which the sensor process hands off
// recognition events. The producer replaces it atomically; the consumer
// reads it and clears it after every processing pass.
type Mailbox struct {
	path string
}

func New(path string) *Mailbox { return &Mailbox{path: path} }

func (m *Mailbox) Path() string { return m.path }

// ReadBatch returns the pending events. A missing or zero-byte file means no
// pending events (nil, nil). The transport delivers either a single JSON
// object or a JSON array; both shapes are accepted. Anything else is
// ErrCorrupt.
func (m *Mailbox) ReadBatch() ([]attendance.Event, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mailbox: read %s: %w", m.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var batch []attendance.Event
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}
	var single attendance.Event
	if err := json.Unmarshal(data, &single); err == nil {
		return []attendance.Event{single}, nil
	}
	return nil, ErrCorrupt
}

// Clear removes the mailbox file. A missing file is not an error; Clear is
// called unconditionally after every processing pass.
func (m *Mailbox) Clear() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("mailbox: clear %s: %w", m.path, err)
	}
	return nil
}

// Write replaces the mailbox content atomically: the batch is written to a
// temp file in the same directory and renamed into place, so a racing reader
// sees either the prior state or the complete new one, never a torn write.
// A one-event batch is written as a bare object, matching the sensor's
// single-detection shape.
func (m *Mailbox) Write(events []attendance.Event) error {
	var payload any = events
	if len(events) == 1 {
		payload = events[0]
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("mailbox: encode batch: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mailbox: prepare %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".mailbox-*")
	if err != nil {
		return fmt.Errorf("mailbox: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("mailbox: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("mailbox: close temp: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("mailbox: replace %s: %w", m.path, err)
	}
	return nil
}

// State describes the mailbox file for status reporting.
type State struct {
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified,omitempty"`
}

func (m *Mailbox) Stat() State {
	info, err := os.Stat(m.path)
	if err != nil {
		return State{}
	}
	return State{Exists: true, Size: info.Size(), Modified: info.ModTime()}
}
