package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"herdbook/internal/jwttoken"
	"herdbook/internal/platform/config"
	"herdbook/internal/platform/httpserver"
	"herdbook/internal/platform/logger"
	"herdbook/internal/platform/postgres"
	platformredis "herdbook/internal/platform/redis"
	"herdbook/internal/registry/audit"
	registryhandler "herdbook/internal/registry/handler"
	"herdbook/internal/registry/metrics"
	"herdbook/internal/registry/models"
	registryservice "herdbook/internal/registry/service"
	"herdbook/internal/registry/store"
	httptransport "herdbook/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the registry packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	admin := models.Account(cfg.Admin)

	// In-memory is the reference deployment; Postgres takes over both stores
	// and the transaction boundary when a DSN is configured.
	var (
		animals    store.AnimalStore
		state      store.StateStore
		auditStore audit.Store
		txRunner   registryservice.TxRunner
	)
	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		return
	}
	if db != nil {
		defer db.Close()
		pgStore, err := store.NewPostgresStore(ctx, db, admin)
		if err != nil {
			log.Error("postgres store init failed", "error", err)
			return
		}
		pgAudit, err := audit.NewPostgresStore(ctx, db)
		if err != nil {
			log.Error("audit store init failed", "error", err)
			return
		}
		animals, state, auditStore = pgStore, pgStore, pgAudit
		txRunner = registryservice.NewSQLTx(db)
	} else {
		memStore := store.NewInMemoryStore(admin)
		animals, state, auditStore = memStore, memStore, audit.NewInMemoryStore()
		txRunner = registryservice.NewSerialTx()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		return
	}
	if redisClient != nil {
		defer redisClient.Close()
		animals = store.NewCachedAnimalStore(animals, redisClient.Client, cfg.CacheTTL)
	}

	trail := audit.NewTrail(auditStore)

	group, groupCtx := errgroup.WithContext(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			return
		}
		defer publisher.Close()

		inbox := make(chan models.AuditEntry, 256)
		trail = trail.WithInbox(inbox)
		worker := audit.NewWorker(publisher, inbox, log)
		group.Go(func() error {
			err := worker.Run(groupCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	registry := registryservice.New(animals, state, trail, txRunner, metrics.New())

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, "herdbook")
	handler := registryhandler.New(registry, log, jwttoken.NewMiddlewareAdapter(jwtService))
	router := httptransport.NewRouter(handler)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting herdbook", "addr", cfg.Addr, "admin", cfg.Admin)

	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
	}
}
