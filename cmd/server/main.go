package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caregate/internal/audit"
	"caregate/internal/identity"
	"caregate/internal/platform/config"
	"caregate/internal/platform/httpserver"
	"caregate/internal/platform/logger"
	"caregate/internal/platform/postgres"
	"caregate/internal/platform/redis"
	"caregate/internal/session"
	"caregate/internal/session/handler"
	"caregate/internal/session/metrics"
	sessionstore "caregate/internal/session/store"
	"caregate/internal/token"
	httptransport "caregate/internal/transport/http"
)

// main wires the gateway's dependencies and keeps the server lifecycle small.
// Session semantics live in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.AppEnv, cfg.Debug)

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}

	var sessions sessionstore.Store
	if redisClient != nil {
		sessions = sessionstore.NewRedisStore(redisClient.Client, cfg.Session.TTL)
		log.Info("session store: redis", "ttl", cfg.Session.TTL.String())
	} else {
		sessions = sessionstore.NewInMemoryStore()
		log.Warn("session store: in-memory, sessions will not survive a restart")
	}

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}

	var auditStore audit.Store
	if db != nil {
		auditStore = audit.NewPostgresStore(db)
		log.Info("audit store: postgres")
	} else {
		auditStore = audit.NewInMemoryStore()
		log.Warn("audit store: in-memory")
	}
	publisher := audit.NewPublisher(auditStore, log, audit.WithAsyncBuffer(256))

	m := metrics.New()
	identityClient := identity.NewClient(cfg.APIURL, cfg.Audience, log, identity.WithObserver(m))

	orchestrator := session.New(
		identity.NewDispatcher(identityClient),
		identityClient,
		token.NewCodec(),
		sessions,
		log,
		m,
		publisher,
		session.WithRefreshThreshold(cfg.Session.RefreshThreshold),
	)

	sessionHandler := handler.New(orchestrator, log, cfg.Cookie, cfg.OAuth)

	checks := []httptransport.Check{}
	if redisClient != nil {
		checks = append(checks, httptransport.Check{Name: "redis", Probe: redisClient.Health})
	}
	if db != nil {
		checks = append(checks, httptransport.Check{Name: "postgres", Probe: db.PingContext})
	}
	health := httptransport.NewHealthHandler(log, checks...)

	router := httptransport.NewRouter(sessionHandler, health, log)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting caregate", "addr", cfg.Addr, "audience", cfg.Audience)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}

	// Drain buffered audit events before releasing the stores.
	publisher.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
