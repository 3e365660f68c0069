package main

import (
	"flag"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"attendance_engine/internal/attendance"
	"attendance_engine/internal/mailbox"
	"attendance_engine/internal/roster"
)

// sensor-sim stands in for the face-detection sensor: it picks employees
// from the roster and drops recognition events into the mailbox the same
// way the real sensor does, one atomic replace per batch.
func main() {
	mailboxPath := flag.String("mailbox", "shared/recognized_id.json", "mailbox file to write")
	rosterPath := flag.String("roster", "shared/employees_data.csv", "roster CSV to pick employees from")
	count := flag.Int("count", 1, "events per batch")
	batches := flag.Int("batches", 1, "number of batches to emit")
	interval := flag.Duration("interval", 2*time.Second, "pause between batches")
	skew := flag.Duration("skew", 0, "shift event timestamps into the past, e.g. 30m")
	flag.Parse()

	ids := rosterIDs(*rosterPath)
	if len(ids) == 0 {
		log.Fatalf("no employees in roster %s", *rosterPath)
	}

	box := mailbox.New(*mailboxPath)
	for b := 0; b < *batches; b++ {
		batch := makeBatch(ids, *count, *skew)
		if err := box.Write(batch); err != nil {
			log.Fatalf("write mailbox: %v", err)
		}
		log.Printf("batch %d: wrote %d events to %s", b+1, len(batch), *mailboxPath)
		if b+1 < *batches {
			time.Sleep(*interval)
		}
	}
}

func rosterIDs(path string) []string {
	names := roster.New(path).Names()
	ids := make([]string, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func makeBatch(ids []string, count int, skew time.Duration) []attendance.Event {
	if count < 1 {
		count = 1
	}
	at := time.Now().Add(-skew)
	events := make([]attendance.Event, 0, count)
	for i := 0; i < count; i++ {
		events = append(events, attendance.Event{
			EmployeeID: ids[rand.Intn(len(ids))],
			Timestamp:  at.Format("2006-01-02T15:04:05.999999"),
			UniqueID:   uuid.NewString(),
		})
	}
	return events
}
