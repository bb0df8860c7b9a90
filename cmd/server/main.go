package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"task-tracker/internal/api"
	"task-tracker/internal/config"
	"task-tracker/internal/db"
	"task-tracker/pkg/journal"
	"task-tracker/pkg/snapshot"
	"task-tracker/pkg/tracker"
)

func main() {
	configPath := flag.String("config", os.Getenv("TRACKER_CONFIG"), "path to YAML config (created with defaults if missing)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []tracker.Option{tracker.WithSource("api")}
	if cfg.DataFile != "" {
		opts = append(opts, tracker.WithSnapshot(snapshot.NewFileStore(cfg.DataFile)))
	}

	var journalStore journal.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()

		mirror := snapshot.NewPgStore(pool)
		if err := mirror.EnsureTable(ctx); err != nil {
			log.Fatalf("ensure entities table: %v", err)
		}
		opts = append(opts, tracker.WithMirror(mirror))

		if cfg.Journal {
			events := journal.NewPgStore(pool)
			if err := events.EnsureTable(ctx); err != nil {
				log.Fatalf("ensure journal table: %v", err)
			}
			journalStore = events
		}
	} else if cfg.Journal {
		journalStore = journal.NewMemStore()
	}
	if journalStore != nil {
		opts = append(opts, tracker.WithJournal(journalStore))
	}

	tr, err := tracker.Open(ctx, opts...)
	if err != nil {
		log.Fatalf("open tracker: %v", err)
	}

	sched := cron.New()
	if cfg.DatabaseURL != "" {
		if _, err := sched.AddFunc(cfg.MirrorCron, func() { maintain(ctx, tr) }); err != nil {
			log.Fatalf("mirror_cron %q: %v", cfg.MirrorCron, err)
		}
	}
	sched.Start()

	srv := &http.Server{Addr: cfg.Listen, Handler: api.New(tr, cfg.WebDir)}
	go func() {
		log.Printf("task-tracker listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := tr.Save(shutdownCtx); err != nil {
		log.Printf("final save: %v", err)
	}
	if err := tr.Mirror(shutdownCtx); err != nil {
		log.Printf("final mirror: %v", err)
	}
}

// maintain mirrors the current state and checks the journal chain.
func maintain(ctx context.Context, tr *tracker.Tracker) {
	if err := tr.Mirror(ctx); err != nil {
		log.Printf("cron: %v", err)
	}
	if j := tr.Journal(); j != nil {
		if err := j.VerifyChain(ctx); err != nil {
			log.Printf("cron: journal chain broken: %v", err)
		}
	}
}
