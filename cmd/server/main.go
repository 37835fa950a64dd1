// Command server runs the task service: ticket CRUD behind authentication
// and the organization gate, publishing every committed mutation to the
// audit pipeline.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"taskhub/internal/audit"
	auditmetrics "taskhub/internal/audit/metrics"
	"taskhub/internal/audit/stream"
	"taskhub/internal/events"
	"taskhub/internal/history"
	"taskhub/internal/jwttoken"
	"taskhub/internal/membership"
	"taskhub/internal/orgauth"
	orgauthmetrics "taskhub/internal/orgauth/metrics"
	"taskhub/internal/platform/config"
	"taskhub/internal/platform/httpserver"
	"taskhub/internal/platform/logger"
	platformredis "taskhub/internal/platform/redis"
	"taskhub/internal/propagation"
	"taskhub/internal/ticket"
	tickethandler "taskhub/internal/ticket/handler"
	authmw "taskhub/pkg/platform/middleware/auth"
	"taskhub/pkg/platform/middleware/metadata"
	"taskhub/pkg/platform/middleware/requestid"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ticket storage: postgres when configured, in-memory for local dev.
	var store ticket.Store
	var pool *pgxpool.Pool
	if cfg.PostgresDSN != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = ticket.NewPostgresStore(pool)
	} else {
		log.Warn("no postgres DSN configured, using in-memory ticket store")
		store = ticket.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Membership verification: HTTP client behind a circuit breaker, fronted
	// by an optional redis-backed verdict cache.
	var verifier membership.Verifier = membership.NewClient(cfg.MembershipBaseURL, cfg.MembershipTimeout)
	verifier = membership.NewBreakerVerifier(verifier, log, 10*time.Second)
	verifier = membership.NewCachedVerifier(verifier, redisClient, cfg.MembershipCacheTTL, log)

	bus := events.NewBus(log)

	historyClient := history.NewClient(cfg.HistoryBaseURL, cfg.HistoryTimeout)
	recorder := audit.NewRecorder(historyClient, log, auditmetrics.New(), cfg.HistoryTimeout)
	bus.Subscribe(recorder)

	var mirror *stream.Mirror
	if len(cfg.KafkaBrokers) > 0 {
		mirror, err = stream.NewMirror(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		bus.Subscribe(mirror)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "taskhub")
	gate := orgauth.New(verifier, log, orgauthmetrics.New())
	allowList := propagation.NewAllowList(cfg.PropagatedHeaders)

	ticketService := ticket.NewService(store, bus, log)
	ticketHandler := tickethandler.New(ticketService, log)

	router := chi.NewRouter()
	router.Use(requestid.RequestID)
	router.Use(metadata.ClientMetadata)
	router.Use(propagation.Capture(allowList))

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(jwttoken.NewAdapter(jwtService), log))
		r.Use(gate.Require)
		ticketHandler.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting task service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		// Let in-flight audit writes drain before the process exits.
		recorder.Wait()
		if mirror != nil {
			return mirror.Close(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("task service terminated", "error", err)
		os.Exit(1)
	}
	log.Info("task service stopped")
}
