package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"croupier/internal/analytics"
	"croupier/internal/bot"
	"croupier/internal/casino"
	"croupier/internal/config"
	"croupier/internal/modules/audit"
	"croupier/internal/storage"
	"croupier/internal/storage/postgres"
)

// ledgerStore is what both storage backends provide.
type ledgerStore interface {
	casino.Ledger
	bot.Store
	ListGameLog(ctx context.Context, guildID string, since time.Time) ([]storage.GameRecord, error)
	Ping(ctx context.Context) error
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("storage init failed", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer store.Close()

	limiter, closeLimiter := buildLimiter(ctx, cfg, logger)
	defer closeLimiter()

	auditLogger := audit.NewLogger(store, logger)
	analyticsService := analytics.New(store)
	service := casino.NewService(store, casino.Options{
		Limits:     casino.Limits{MinBet: cfg.Casino.MinBet, MaxBet: cfg.Casino.MaxBet},
		Limiter:    limiter,
		Recorder:   auditLogger,
		Settings:   store,
		SessionTTL: time.Duration(cfg.Casino.SessionTTLSeconds) * time.Second,
		Logger:     logger,
	})
	go service.Sessions().Run(ctx, time.Duration(cfg.Casino.SweepIntervalSeconds)*time.Second)

	botSvc, err := bot.New(cfg, logger, store, service, auditLogger, analyticsService)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started", zap.String("driver", cfg.Database.Driver))

	var server *http.Server
	if cfg.Health.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(pingCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("storage unavailable"))
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		server = &http.Server{Addr: cfg.Health.Addr, Handler: mux}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested", zap.Int("open_sessions", service.Sessions().Len()))
	stop()
	if abandoned := service.Shutdown(); abandoned > 0 {
		logger.Info("open rounds abandoned", zap.Int("count", abandoned))
	}
	auditLogger.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	botSvc.Close(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (ledgerStore, error) {
	switch cfg.Database.Driver {
	case "", "sqlite":
		store, err := storage.New(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		store.WithStartingBalance(cfg.Casino.StartingBalance)
		return store, nil
	case "postgres":
		store, err := postgres.New(ctx, cfg.Database.DSN, int32(cfg.Database.MaxConns))
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		store.WithStartingBalance(cfg.Casino.StartingBalance)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// buildLimiter shares the bet rate limit through Redis when an address is configured and
// falls back to an in-process window otherwise.
func buildLimiter(ctx context.Context, cfg config.Config, logger *zap.Logger) (casino.Limiter, func()) {
	window := time.Duration(cfg.Casino.RateLimitWindowSeconds) * time.Second
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("redis bet limiter enabled", zap.String("addr", cfg.Redis.Addr))
			return casino.NewRedisLimiter(client, cfg.Casino.RateLimitBets, window), func() { _ = client.Close() }
		}
		logger.Warn("redis unreachable, using in-process limiter", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
	}

	limiter := casino.NewWindowLimiter(cfg.Casino.RateLimitBets, window)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep()
			}
		}
	}()
	return limiter, func() {}
}
