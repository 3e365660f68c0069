package leave

import (
	"sort"

	"attendance_engine/internal/attendance"
)

// DefaultLatesToLeave is the number of Late entries that equal one derived
// leave unit.
const DefaultLatesToLeave = 2

// Summary is the derived monthly leave accounting for one employee. It is
// recomputed from the ledger on demand, never persisted as ground truth.
type Summary struct {
	EmployeeID  string `json:"employee_id"`
	Name        string `json:"name"`
	TotalLates  int    `json:"total_lates"`
	TotalLeaves int    `json:"total_leaves"`
}

// Summarize folds a month of entries into one row per employee. Every roster
// employee gets a row, zero-filled when they have no Late entries; employees
// appearing only in entries are appended after the roster. Leaves are the
// floor of lates divided by the ratio.
func Summarize(entries []attendance.Entry, roster map[string]string, latesToLeave int) []Summary {
	if latesToLeave < 1 {
		latesToLeave = DefaultLatesToLeave
	}

	lates := make(map[string]int)
	names := make(map[string]string)
	var extraIDs []string
	for _, e := range entries {
		if _, known := roster[e.EmployeeID]; !known {
			if _, seen := names[e.EmployeeID]; !seen {
				extraIDs = append(extraIDs, e.EmployeeID)
			}
		}
		if _, seen := names[e.EmployeeID]; !seen {
			names[e.EmployeeID] = e.Name
		}
		if e.Status == attendance.StatusLate {
			lates[e.EmployeeID]++
		}
	}

	rosterIDs := make([]string, 0, len(roster))
	for id := range roster {
		rosterIDs = append(rosterIDs, id)
	}
	sort.Strings(rosterIDs)
	sort.Strings(extraIDs)

	out := make([]Summary, 0, len(rosterIDs)+len(extraIDs))
	for _, id := range rosterIDs {
		out = append(out, row(id, roster[id], lates[id], latesToLeave))
	}
	for _, id := range extraIDs {
		out = append(out, row(id, names[id], lates[id], latesToLeave))
	}
	return out
}

func row(id, name string, totalLates, latesToLeave int) Summary {
	return Summary{
		EmployeeID:  id,
		Name:        name,
		TotalLates:  totalLates,
		TotalLeaves: totalLates / latesToLeave,
	}
}
