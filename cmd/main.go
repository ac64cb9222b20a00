package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payesh/internal/app/registry"
	"payesh/internal/app/subscriber"
	"payesh/internal/config"
	"payesh/internal/core/contracts"
	"payesh/internal/core/domain"
	"payesh/internal/core/services"
	"payesh/internal/platform/logger"
	"payesh/internal/platform/telemetry"
	"payesh/internal/plugins/console"
	"payesh/internal/plugins/memory"
	"payesh/internal/plugins/postgres"
	redisPlugin "payesh/internal/plugins/redis"
	"payesh/internal/plugins/ws"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting notifier")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if otelShutdown != nil {
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error("telemetry shutdown failed", "err", err)
			}
		}
	}()

	// Infra (both optional)
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
			log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
			return
		}
		log.Info("redis connected")
	}
	var pdb *sql.DB
	if cfg.Postgres.DSN != "" {
		if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
			log.Error("postgres connection failed", "err", err)
			return
		}
		log.Info("postgres connected")
	}

	// Transport
	var transport contracts.Transport
	switch cfg.Broadcast.Driver {
	case "redis":
		if rdb == nil {
			log.Error("redis broadcast driver requires REDIS_URL")
			return
		}
		transport = redisPlugin.NewBroadcastTransport(log, rdb)
	default:
		transport = ws.NewTransport(log, *cfg.Broadcast)
	}

	// Collaborators
	var cache contracts.CacheInvalidator = memory.NewCacheInvalidator()
	if rdb != nil {
		cache = redisPlugin.NewCacheInvalidator(rdb)
	}
	var journal domain.NoticeJournal
	if pdb != nil {
		journal = postgres.NewNoticeJournal(pdb)
	}
	notifier := console.NewNotifier(log)

	// Core services
	reg := registry.NewConnRegistry(log, transport)
	lifecycle := services.NewLifecycleService(log, reg)
	tokenSvc := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// Feature subscribers mount before auth resolves; the registry's
	// readiness callback attaches them once the connection exists.
	deps := subscriber.Deps{
		Registry: reg,
		Notifier: notifier,
		Cache:    cache,
		Journal:  journal,
	}
	approval := subscriber.MountImageApproval(ctx, log, cfg.Subjects.UserID, deps, cfg.Dedup.Window)
	shifts := subscriber.MountShiftGeneration(ctx, log, cfg.Subjects.ShiftID, deps, cfg.Dedup.Window)

	// Auth watcher: re-verifies the token on an interval so expiry
	// tears the connection down the same way a logout would.
	go watchAuth(ctx, lifecycle, tokenSvc, *cfg.Auth)

	<-ctx.Done()
	log.Info("shutting down")
	approval.Close()
	shifts.Close()
	reg.Destroy()
}

func watchAuth(ctx context.Context, lifecycle *services.LifecycleService, tokenSvc *services.TokenService, cfg config.AuthConfig) {
	verify := func() {
		token := cfg.Token
		if token == "" {
			lifecycle.Apply(ctx, token, domain.VerificationIdle)
			return
		}
		lifecycle.Apply(ctx, token, domain.VerificationLoading)
		if _, err := tokenSvc.VerifyToken(token); err != nil {
			lifecycle.Apply(ctx, token, domain.VerificationFailed)
			return
		}
		lifecycle.Apply(ctx, token, domain.VerificationSucceeded)
	}
	verify()

	ticker := time.NewTicker(cfg.ReverifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			verify()
		}
	}
}
