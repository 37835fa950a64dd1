// Command history runs the audit-store service: it accepts task history
// records and serves per-task timelines.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"taskhub/internal/history"
	historyhandler "taskhub/internal/history/handler"
	historymetrics "taskhub/internal/history/metrics"
	"taskhub/internal/platform/config"
	"taskhub/internal/platform/httpserver"
	"taskhub/internal/platform/logger"
	"taskhub/pkg/platform/middleware/requestid"
)

func main() {
	cfg := config.HistoryFromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store history.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		store = history.NewPostgresStore(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory history store")
		store = history.NewInMemoryStore()
	}

	handler := historyhandler.New(store, log, historymetrics.New())

	router := chi.NewRouter()
	router.Use(requestid.RequestID)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler.Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting history service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("history service terminated", "error", err)
		os.Exit(1)
	}
	log.Info("history service stopped")
}
