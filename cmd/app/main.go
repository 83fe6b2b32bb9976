package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mines_wager/internal/config"
	"mines_wager/internal/db"
	httpServer "mines_wager/internal/http"
	"mines_wager/internal/http/handlers"
	"mines_wager/internal/logger"
	"mines_wager/internal/repository"
	"mines_wager/internal/repository/memory"
	"mines_wager/internal/service"
	"mines_wager/internal/settlement"
	"mines_wager/internal/ws"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := handlers.NewHealthHandler(version)
	deps := service.Deps{
		Tokens: service.NewGuestTokens(cfg.JWTSecret),
		Log:    logger.Component("engine"),
	}

	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database unavailable", "error", err)
		}
		defer pool.Close()

		deps.Players = repository.NewPlayerRepository(pool)
		deps.History = repository.NewHistoryRepository(pool)
		health.AddCheck("database", pool.Ping)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		deps.Players = memory.NewPlayerStore()
		deps.History = memory.NewHistoryStore()
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis ping failed, continuing", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		health.AddCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	workers, workersCtx := errgroup.WithContext(context.Background())
	stopWorkers := func() {}

	if cfg.PlatformEnabled() {
		client := settlement.NewClient(cfg.SettlementURL, cfg.SettlementAPIKey, cfg.SettlementTimeout)
		deps.Gateway = client

		if rdb != nil {
			deps.Outbox = repository.NewRedisOutbox(rdb, "")
		} else {
			deps.Outbox = service.NewMemoryOutbox(1024)
		}

		dispatcher := service.NewReportDispatcher(deps.Outbox, client, service.DispatcherConfig{
			Workers:     cfg.ReportWorkers,
			MaxAttempts: cfg.ReportMaxAttempts,
			RetryDelay:  cfg.ReportRetryDelay,
		}, logger.Component("reports"))

		dispatchCtx, cancel := context.WithCancel(workersCtx)
		stopWorkers = cancel
		workers.Go(func() error { return dispatcher.Run(dispatchCtx) })
	} else {
		log.Info("SETTLEMENT_URL not set, guest play only")
	}

	engine := service.NewEngine(deps, service.Options{
		GuestStartBalance: cfg.GuestStartBalance,
		MinBet:            cfg.MinBet,
		MaxBet:            cfg.MaxBet,
		SessionIdleTTL:    cfg.SessionIdleTTL,
	})

	janitorCtx, stopJanitor := context.WithCancel(workersCtx)
	defer stopJanitor()
	workers.Go(func() error { return engine.RunJanitor(janitorCtx, cfg.SessionSweepInterval) })

	hub := ws.NewHub(engine, logger.Component("ws"))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, cfg, httpServer.Deps{
		Engine: engine,
		Hub:    hub,
		Tokens: deps.Tokens,
		Health: health,
		Redis:  rdb,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	// connections close first so their refunds and reports still have workers
	if err := hub.Shutdown(shutdownCtx); err != nil {
		log.Error("websocket shutdown incomplete", "error", err)
	}

	stopJanitor()
	stopWorkers()
	if err := workers.Wait(); err != nil {
		log.Error("background worker failed", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}
