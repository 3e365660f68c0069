package recon

import (
	"context"
	"log"
	"time"
)

// Scheduler invokes the engine on a fixed cadence and on demand. Passes run
// on a single goroutine, so the consumer is single-flight by construction;
// kicks arriving mid-pass coalesce into at most one queued follow-up.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	kick     chan struct{}
}

func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	return &Scheduler{
		engine:   engine,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
}

// Kick requests an immediate pass. Returns false when one is already
// pending; the queued pass will pick up whatever is in the mailbox anyway.
func (s *Scheduler) Kick() bool {
	select {
	case s.kick <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run polls until the context is cancelled. Blocking; callers run it on its
// own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Printf("scheduler: polling every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.engine.ProcessBatch(ctx)
		case <-s.kick:
			s.engine.ProcessBatch(ctx)
		}
	}
}
