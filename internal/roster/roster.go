package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Roster maps employee ids to display names from an externally maintained
// CSV (columns "Employee ID" and "Name"). The file is read through a cache
// invalidated whenever its mtime or size changes. A missing or unreadable
// roster degrades to synthesized names; resolution never fails.
type Roster struct {
	path string

	mu    sync.Mutex
	names map[string]string
	mtime time.Time
	size  int64
}

func New(path string) *Roster {
	return &Roster{path: path, names: map[string]string{}}
}

// Resolve returns the display name for an employee. A non-empty hint from
// the sensor wins; otherwise the roster name; otherwise a synthesized
// "Employee <id>".
func (r *Roster) Resolve(employeeID, hint string) string {
	if hint != "" {
		return hint
	}
	if name, ok := r.lookup(employeeID); ok {
		return name
	}
	return fmt.Sprintf("Employee %s", employeeID)
}

// Names returns a copy of the full roster mapping.
func (r *Roster) Names() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()
	out := make(map[string]string, len(r.names))
	for id, name := range r.names {
		out[id] = name
	}
	return out
}

func (r *Roster) lookup(employeeID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshLocked()
	name, ok := r.names[employeeID]
	return name, ok
}

func (r *Roster) refreshLocked() {
	info, err := os.Stat(r.path)
	if err != nil {
		if len(r.names) > 0 {
			log.Printf("roster: %s unavailable, keeping cached copy: %v", r.path, err)
		}
		return
	}
	if info.ModTime().Equal(r.mtime) && info.Size() == r.size {
		return
	}
	names, err := load(r.path)
	if err != nil {
		log.Printf("roster: reload %s failed: %v", r.path, err)
		return
	}
	r.names = names
	r.mtime = info.ModTime()
	r.size = info.Size()
	log.Printf("roster: loaded %d employees from %s", len(names), r.path)
}

func load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idCol, nameCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Employee ID":
			idCol = i
		case "Name":
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("missing Employee ID or Name column in %v", header)
	}

	names := make(map[string]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if idCol >= len(row) || nameCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		name := strings.TrimSpace(row[nameCol])
		if id == "" {
			continue
		}
		if _, dup := names[id]; dup {
			continue
		}
		names[id] = name
	}
	return names, nil
}
