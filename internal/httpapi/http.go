package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"attendance_engine/internal/attendance"
	"attendance_engine/internal/events"
	"attendance_engine/internal/leave"
	"attendance_engine/internal/ledger"
	"attendance_engine/internal/mailbox"
	"attendance_engine/internal/metrics"
	"attendance_engine/internal/recon"
	"attendance_engine/internal/roster"
)

// Router is the ops surface the reporting dashboard consumes. The engine
// core opens no ports; this surface only runs when a port is configured.
type Router struct {
	store  *ledger.Store
	engine *recon.Engine
	sched  *recon.Scheduler
	roster *roster.Roster
	box    *mailbox.Mailbox
	bus    *events.Bus
}

func NewRouter(store *ledger.Store, engine *recon.Engine, sched *recon.Scheduler, r *roster.Roster, box *mailbox.Mailbox, bus *events.Bus) *Router {
	return &Router{store: store, engine: engine, sched: sched, roster: r, box: box, bus: bus}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ops/health", r.health)
	mux.HandleFunc("/ops/status", r.status)
	mux.HandleFunc("/ops/process", r.process)
	mux.HandleFunc("/ops/clear-today", r.clearToday)
	mux.HandleFunc("/api/attendance/today", r.today)
	mux.HandleFunc("/api/attendance/month", r.month)
	mux.HandleFunc("/api/leave-summary", r.leaveSummary)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.store.Health(req.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	summary, err := r.store.SummaryFor(req.Context(), r.engine.Today())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{
		"date":         r.engine.Today(),
		"today":        summary,
		"mailbox":      r.box.Stat(),
		"last_outcome": r.bus.Latest(),
		"counters":     metrics.Snapshot(),
	})
}

func (r *Router) process(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	queued := r.sched.Kick()
	respondJSON(w, map[string]any{"queued": queued})
}

func (r *Router) clearToday(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	removed, files, err := r.engine.ClearToday(req.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, map[string]any{"removed_entries": removed, "removed_files": files})
}

func (r *Router) today(w http.ResponseWriter, req *http.Request) {
	entries, err := r.store.EntriesFor(req.Context(), r.engine.Today())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	respondJSON(w, entries)
}

func (r *Router) month(w http.ResponseWriter, req *http.Request) {
	key := req.URL.Query().Get("key")
	if key == "" {
		key = r.engine.CurrentMonth()
	}
	entries, err := r.store.EntriesForMonth(req.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	respondJSON(w, entries)
}

func (r *Router) leaveSummary(w http.ResponseWriter, req *http.Request) {
	key := req.URL.Query().Get("month")
	if key == "" {
		key = r.engine.CurrentMonth()
	}
	entries, err := r.store.EntriesForMonth(req.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, leave.Summarize(entries, r.roster.Names(), r.engine.LeaveRatio()))
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json: %v", err)
	}
}
