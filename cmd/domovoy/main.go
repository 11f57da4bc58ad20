package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"domovoy/internal/api"
	"domovoy/internal/assist"
	"domovoy/internal/audit"
	"domovoy/internal/config"
	"domovoy/internal/engine"
	"domovoy/internal/events"
	"domovoy/internal/metrics"
	"domovoy/internal/notify"
	"domovoy/internal/store"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("DOMOVOY_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := openStore(cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Storage.Backup.Enabled {
		backup := store.NewBackupService(cfg.Storage.Path, cfg.Storage.Backup, &logger)
		go backup.Start(ctx)
	}

	bus := events.NewBus()

	trail := audit.NewTrail(audit.Config{RetentionDays: cfg.Audit.RetentionDays})
	trail.Attach(bus)

	notifier := buildNotifier(cfg, &logger)
	svc := notify.NewService(notifier, notify.DefaultConfig(), logger)
	svc.Attach(bus)
	go svc.Run(ctx)

	engineCfg := engine.DefaultConfig()
	engineCfg.FailsafeDelay = cfg.FailsafeDelay()
	engineCfg.FailsafeSnooze = cfg.FailsafeSnooze()
	eng := engine.New(db, bus, engineCfg, &logger)

	var parser api.Parser
	var rdb *redis.Client
	if cfg.Assist.Enabled {
		if cfg.Assist.APIKey == "" {
			logger.Fatal().Msg("set assist.api_key in config")
		}
		var cache *assist.Cache
		if cfg.Redis.Address != "" {
			rdb = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			cache = assist.NewCache(rdb, cfg.AssistCacheTTL())
		}
		parser = assist.New(cfg.Assist.APIKey, cfg.Assist.BaseURL, cfg.Assist.Model, cache)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewServer(db, eng, parser, trail, logger)
	httpSrv := &http.Server{Addr: cfg.Server.Address, Handler: server.Handler()}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctxShutdown)
	}()
	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("api server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("api server error")
		}
	}()

	logger.Info().Str("backend", cfg.Storage.Backend).Msg("domovoy started")
	eng.Start(ctx)
}

func openStore(cfg *config.Config, logger *zerolog.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "json":
		return store.OpenJSON(cfg.Storage.Path, logger)
	case "sqlite":
		return store.OpenSQLite(cfg.Storage.Path, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildNotifier(cfg *config.Config, logger *zerolog.Logger) notify.Sender {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		logger.Info().Msg("telegram notifications disabled")
		return notify.Nop{}
	}
	tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		logger.Error().Err(err).Msg("telegram unavailable, notifications disabled")
		return notify.Nop{}
	}
	return tg
}

func startHealthServer(ctx context.Context, port int, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
