package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"attendance_engine/internal/recon"
)

// Watcher monitors the mailbox file and kicks the scheduler when the sensor
// process replaces it, so detections land without waiting out a poll tick.
// The poll cadence remains the fallback; a missed notification only delays a
// batch, never loses it.
type Watcher struct {
	mailboxPath string
	sched       *recon.Scheduler
}

func New(mailboxPath string, sched *recon.Scheduler) *Watcher {
	return &Watcher{mailboxPath: mailboxPath, sched: sched}
}

// Start watches the mailbox directory (the file itself comes and goes with
// every atomic replace) until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.mailboxPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Clean(evt.Name) != filepath.Clean(w.mailboxPath) {
					continue
				}
				w.sched.Kick()
			case err := <-watcher.Errors:
				log.Printf("watch: %v", err)
			}
		}
	}()
	return watcher.Add(dir)
}
