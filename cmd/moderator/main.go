package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taskbridge/chat-moderation/internal/adminapi"
	"github.com/taskbridge/chat-moderation/internal/escalate"
	"github.com/taskbridge/chat-moderation/internal/messaging"
	"github.com/taskbridge/chat-moderation/internal/metrics"
	"github.com/taskbridge/chat-moderation/internal/moderator"
	"github.com/taskbridge/chat-moderation/internal/ratelimit"
	"github.com/taskbridge/chat-moderation/internal/violation"
	"github.com/taskbridge/chat-moderation/pkg/config"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	configPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	// PostgreSQL: authoritative moderation log.
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer db.Close()

	store := violation.NewStore(db)
	if err := store.Ping(context.Background()); err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	if err := store.Migrate(); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis: short-TTL violation summary cache.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	cancel()
	cache := violation.NewRedisCache(rdb, cfg.Cache.TTL())
	flood := ratelimit.NewLimiter(rdb)

	// NATS: check request/result transport and admin alerts.
	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.URL = cfg.NATS.URL
	if cfg.NATS.Name != "" {
		natsConfig.Name = cfg.NATS.Name
	}
	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		logger.Fatal("failed to connect to nats", zap.Error(err))
	}

	policy := escalate.Config{
		MaxPerHour:          cfg.RateLimit.MaxPerHour,
		MaxPerDay:           cfg.RateLimit.MaxPerDay,
		Cooldown:            cfg.RateLimit.Cooldown(),
		EscalationThreshold: cfg.RateLimit.EscalationThreshold,
	}
	svc := moderator.NewService(store, cache, policy, moderator.NewNATSNotifier(natsClient), logger)

	err = natsClient.SubscribeCheck(func(data []byte) {
		var req moderator.CheckRequest
		if err := json.Unmarshal(data, &req); err != nil {
			logger.Warn("failed to unmarshal check request", zap.Error(err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Flood guard: scripted clients get dropped before detection runs.
		if ok, _ := flood.Allow(ctx, req.SenderID, ratelimit.RuleCheck); !ok {
			logger.Warn("check request flood", zap.String("sender_id", req.SenderID))
			resp := moderator.CheckResponse{
				MessageID:   req.MessageID,
				SenderID:    req.SenderID,
				Allowed:     false,
				RateLimited: true,
				Message:     "You are sending messages too quickly. Please slow down.",
			}
			if data, err := json.Marshal(resp); err == nil {
				natsClient.PublishResult(req.SenderID, data)
			}
			return
		}

		result := svc.ModerateMessage(ctx, req)

		if !result.Allowed {
			logger.Info("message blocked",
				zap.String("sender_id", req.SenderID),
				zap.String("severity", string(result.Result.Severity)),
				zap.Bool("rate_limited", result.RateLimited))
		}

		respData, err := json.Marshal(result.Response(req))
		if err != nil {
			logger.Error("failed to marshal check response", zap.Error(err))
			return
		}
		if err := natsClient.PublishResult(req.SenderID, respData); err != nil {
			logger.Error("failed to publish check response",
				zap.Error(err), zap.String("sender_id", req.SenderID))
		}
	})
	if err != nil {
		logger.Fatal("failed to subscribe to check requests", zap.Error(err))
	}

	metricsServer := &http.Server{Addr: cfg.HTTP.MetricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	adminHandler := adminapi.NewHandler(svc, logger)
	adminServer := &http.Server{Addr: cfg.HTTP.AdminAddr, Handler: adminHandler.Routes()}
	go func() {
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin server failed", zap.Error(err))
		}
	}()

	logger.Info("moderation service running",
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("nats_url", cfg.NATS.URL),
		zap.String("metrics_addr", cfg.HTTP.MetricsAddr),
		zap.String("admin_addr", cfg.HTTP.AdminAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("admin server shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", zap.Error(err))
	}
	natsClient.Close()
}
