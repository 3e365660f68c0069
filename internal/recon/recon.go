package recon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"attendance_engine/internal/attendance"
	"attendance_engine/internal/classify"
	"attendance_engine/internal/events"
	"attendance_engine/internal/ledger"
	"attendance_engine/internal/mailbox"
	"attendance_engine/internal/metrics"
	"attendance_engine/internal/normalize"
	"attendance_engine/internal/report"
	"attendance_engine/internal/roster"
)

// Engine is the reconciliation coordinator: it drains the mailbox,
// normalizes the batch, resolves identities, classifies arrivals, commits
// marks through the ledger, and regenerates the derived monthly reports.
type Engine struct {
	box          *mailbox.Mailbox
	roster       *roster.Roster
	classifier   *classify.Classifier
	store        *ledger.Store
	bus          *events.Bus
	reportDir    string
	latesToLeave int
	staleness    time.Duration
	now          func() time.Time
}

// Options for constructing an Engine. Now defaults to minute-truncated wall
// time; Bus may be nil.
type Options struct {
	Mailbox      *mailbox.Mailbox
	Roster       *roster.Roster
	Classifier   *classify.Classifier
	Store        *ledger.Store
	Bus          *events.Bus
	ReportDir    string
	LatesToLeave int
	Staleness    time.Duration
	Now          func() time.Time
}

func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().Truncate(time.Minute) }
	}
	return &Engine{
		box:          opts.Mailbox,
		roster:       opts.Roster,
		classifier:   opts.Classifier,
		store:        opts.Store,
		bus:          opts.Bus,
		reportDir:    opts.ReportDir,
		latesToLeave: opts.LatesToLeave,
		staleness:    opts.Staleness,
		now:          now,
	}
}

// Outcome aggregates per-event results of one processing pass.
type Outcome struct {
	At            time.Time `json:"at"`
	Marked        int       `json:"marked"`
	AlreadyMarked int       `json:"already_marked"`
	Invalid       int       `json:"invalid"`
	Duplicate     int       `json:"duplicate"`
	Stale         int       `json:"stale"`
	Failed        int       `json:"failed"`
	Corrupt       bool      `json:"corrupt"`
	Messages      []string  `json:"messages,omitempty"`
}

// Empty reports whether the pass saw no events at all.
func (o Outcome) Empty() bool {
	return !o.Corrupt && o.Marked+o.AlreadyMarked+o.Invalid+o.Duplicate+o.Stale+o.Failed == 0
}

// Summary renders the outcome for the operator.
func (o Outcome) Summary() string {
	if o.Corrupt {
		return "corrupt mailbox data discarded"
	}
	if o.Empty() {
		return "no pending events"
	}
	s := fmt.Sprintf("%d marked, %d already marked, %d invalid", o.Marked, o.AlreadyMarked, o.Invalid+o.Duplicate+o.Stale)
	if o.Failed > 0 {
		s += fmt.Sprintf(", %d failed", o.Failed)
	}
	if len(o.Messages) > 0 {
		s += " - " + strings.Join(o.Messages, ", ")
	}
	return s
}

// ProcessBatch runs one reconciliation pass. The mailbox is cleared
// unconditionally after the attempt, including on corrupt input, so a
// poison batch can never loop. One bad event never aborts the rest.
func (e *Engine) ProcessBatch(ctx context.Context) Outcome {
	out := Outcome{At: e.now()}

	raw, err := e.box.ReadBatch()
	if err != nil {
		if clearErr := e.box.Clear(); clearErr != nil {
			log.Printf("recon: clear mailbox: %v", clearErr)
		}
		if errors.Is(err, mailbox.ErrCorrupt) {
			out.Corrupt = true
			metrics.IncCorrupt()
			log.Printf("recon: %s", out.Summary())
		} else {
			out.Failed++
			out.Messages = append(out.Messages, err.Error())
			log.Printf("recon: read mailbox: %v", err)
		}
		e.finish(out)
		return out
	}
	if len(raw) == 0 {
		return out
	}

	res := normalize.Batch(raw, normalize.Options{StalenessWindow: e.staleness, Now: e.now})
	out.Invalid = len(res.Invalid)
	out.Duplicate = len(res.Duplicates)
	out.Stale = len(res.Stale)
	out.Messages = append(out.Messages, res.Invalid...)

	date := attendance.FormatDate(out.At)
	for _, ev := range res.Events {
		e.processEvent(ctx, ev, date, &out)
	}

	if err := e.box.Clear(); err != nil {
		log.Printf("recon: clear mailbox: %v", err)
	}
	if out.Marked > 0 {
		e.regenerateReports(ctx, out.At)
	}
	e.finish(out)
	log.Printf("recon: %s", out.Summary())
	return out
}

func (e *Engine) processEvent(ctx context.Context, ev attendance.Event, date string, out *Outcome) {
	// Cheap existence check first: no point resolving and classifying an
	// event that cannot commit.
	already, err := e.store.IsMarked(ctx, ev.EmployeeID, date)
	if err != nil {
		out.Failed++
		out.Messages = append(out.Messages, fmt.Sprintf("%s: %v", ev.EmployeeID, err))
		return
	}
	if already {
		out.AlreadyMarked++
		out.Messages = append(out.Messages, fmt.Sprintf("%s: already marked today", ev.EmployeeID))
		return
	}

	name := e.roster.Resolve(ev.EmployeeID, ev.Name)
	arrival, err := ev.ObservedAt()
	if err != nil {
		// The live path tolerates bad timestamps; the mark carries the
		// processing time instead.
		arrival = out.At
	}
	status := e.classifier.Classify(arrival)

	committed, reason, err := e.store.Mark(ctx, attendance.Entry{
		EmployeeID: ev.EmployeeID,
		Name:       name,
		Date:       date,
		EntryTime:  arrival.Format(attendance.TimeLayout),
		Status:     status,
	})
	if err != nil {
		out.Failed++
		out.Messages = append(out.Messages, fmt.Sprintf("%s: %v", ev.EmployeeID, err))
		return
	}
	if !committed {
		out.AlreadyMarked++
		out.Messages = append(out.Messages, fmt.Sprintf("%s: %s", ev.EmployeeID, reason))
		return
	}
	out.Marked++
	out.Messages = append(out.Messages, fmt.Sprintf("%s (%s) marked %s at %s", name, ev.EmployeeID, status, arrival.Format(attendance.TimeLayout)))
}

// regenerateReports rebuilds the month's derived artifacts. Best effort: a
// report failure never revokes committed marks.
func (e *Engine) regenerateReports(ctx context.Context, at time.Time) {
	monthKey := attendance.MonthKey(at)
	entries, err := e.store.EntriesForMonth(ctx, monthKey)
	if err != nil {
		log.Printf("recon: load month %s: %v", monthKey, err)
		return
	}
	if err := report.WriteMonthly(e.reportDir, monthKey, entries, e.roster.Names(), e.latesToLeave); err != nil {
		log.Printf("recon: regenerate reports: %v", err)
	}
}

func (e *Engine) finish(out Outcome) {
	metrics.IncBatches()
	metrics.AddMarked(out.Marked)
	metrics.AddAlreadyMarked(out.AlreadyMarked)
	metrics.AddInvalid(out.Invalid + out.Duplicate + out.Stale)
	if e.bus != nil {
		e.bus.Publish(out)
	}
}

// ClearToday removes today's entries from the primary ledger copy and the
// month's derived report artifacts.
func (e *Engine) ClearToday(ctx context.Context) (int, []string, error) {
	at := e.now()
	removed, err := e.store.ClearToday(ctx, attendance.FormatDate(at))
	if err != nil {
		return 0, nil, err
	}
	files, err := report.RemoveArtifacts(e.reportDir, attendance.MonthKey(at))
	if err != nil {
		return removed, files, err
	}
	log.Printf("recon: cleared %d entries and %d report files", removed, len(files))
	return removed, files, nil
}

// LeaveRatio exposes the configured lates-to-leave ratio.
func (e *Engine) LeaveRatio() int { return e.latesToLeave }

// Today returns the current ledger date.
func (e *Engine) Today() string { return attendance.FormatDate(e.now()) }

// CurrentMonth returns the current month partition key.
func (e *Engine) CurrentMonth() string { return attendance.MonthKey(e.now()) }
