package app

import (
	"context"
	"log"
	"net/http"

	"attendance_engine/internal/classify"
	"attendance_engine/internal/config"
	"attendance_engine/internal/events"
	"attendance_engine/internal/httpapi"
	"attendance_engine/internal/ledger"
	"attendance_engine/internal/mailbox"
	"attendance_engine/internal/recon"
	"attendance_engine/internal/roster"
	"attendance_engine/internal/watch"
)

// App wires the reconciliation components together.
type App struct {
	cfg     config.Config
	store   *ledger.Store
	engine  *recon.Engine
	sched   *recon.Scheduler
	watcher *watch.Watcher
	mux     *http.ServeMux
}

func New(cfg config.Config) (*App, error) {
	st, err := ledger.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	for _, p := range cfg.LegacyLedgers {
		st.AddLegacySource(ledger.NewSource(p))
	}

	policy, err := classify.ParsePolicy(cfg.OfficeStart, cfg.GraceDeadline)
	if err != nil {
		log.Printf("app: invalid grace policy (%v), using defaults", err)
		policy = classify.DefaultPolicy()
	}

	box := mailbox.New(cfg.MailboxPath)
	r := roster.New(cfg.RosterPath)
	bus := events.NewBus()
	engine := recon.New(recon.Options{
		Mailbox:      box,
		Roster:       r,
		Classifier:   classify.New(policy, cfg.ModelPath),
		Store:        st,
		Bus:          bus,
		ReportDir:    cfg.ReportDir,
		LatesToLeave: cfg.LatesToLeave,
		Staleness:    cfg.StalenessWindow(),
	})
	sched := recon.NewScheduler(engine, cfg.PollInterval())

	var watcher *watch.Watcher
	if cfg.EnableWatcher {
		watcher = watch.New(cfg.MailboxPath, sched)
	}

	var mux *http.ServeMux
	if cfg.HTTPPort != "" {
		mux = http.NewServeMux()
		httpapi.NewRouter(st, engine, sched, r, box, bus).Register(mux)
	}

	return &App{cfg: cfg, store: st, engine: engine, sched: sched, watcher: watcher, mux: mux}, nil
}

// Run starts the polling scheduler, the mailbox watcher, and the optional
// ops HTTP server, then blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.sched.Run(ctx)
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			log.Printf("app: watcher disabled: %v", err)
		}
	}
	a.sched.Kick()

	if a.mux == nil {
		<-ctx.Done()
		return a.store.Close()
	}

	srv := &http.Server{Addr: ":" + a.cfg.HTTPPort, Handler: a.mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	log.Printf("http listening on %s", a.cfg.HTTPPort)
	err := srv.ListenAndServe()
	if cerr := a.store.Close(); cerr != nil && (err == nil || err == http.ErrServerClosed) {
		err = cerr
	}
	if err == http.ErrServerClosed {
		err = nil
	}
	return err
}

func (a *App) Engine() *recon.Engine       { return a.engine }
func (a *App) Scheduler() *recon.Scheduler { return a.sched }
func (a *App) Store() *ledger.Store        { return a.store }
func (a *App) Mux() *http.ServeMux         { return a.mux }
