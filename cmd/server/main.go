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

	"caredesk/internal/api"
	"caredesk/internal/config"
	"caredesk/internal/database"
	"caredesk/internal/events"
	"caredesk/internal/metrics"
	syncer "caredesk/internal/sync"
	"caredesk/internal/upstream"
	"caredesk/shared/audit"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	configPath := os.Getenv("CAREDESK_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.UpstreamTimeout())
	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.Upstream.CacheTTLSeconds > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.UpstreamCacheTTL())
	}
	if cfg.Upstream.RequestsPerSecond > 0 {
		client.UseRateLimit(cfg.Upstream.RequestsPerSecond)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit trail: API mutations land in sqlite via the event bus and
	// get exported monthly.
	bus := events.NewEventBus()
	recordEvent := func(e events.Event) error {
		// Not the signal context: mutations served while draining
		// still get their audit row.
		return db.InsertAuditEvent(context.Background(), database.AuditEvent{
			ID:            e.ID,
			EventType:     e.Type,
			AppointmentID: e.AppointmentID,
			Actor:         e.Actor,
			Detail:        e.Detail,
			CreatedAt:     e.CreatedAt,
		})
	}
	bus.Subscribe(events.TypeStatusChanged, recordEvent)
	bus.Subscribe(events.TypeRescheduled, recordEvent)

	auditLogger := &zerologAdapter{logger.With().Str("component", "audit").Logger()}
	notifier, err := audit.NewDirNotifier(cfg.Audit.ExportDir, auditLogger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare audit export directory")
	}
	auditSvc := audit.NewService(
		&audit.Config{
			DataRetentionDays: cfg.Audit.RetentionDays,
			ExportOnStart:     cfg.Audit.ExportOnStart,
			ServiceName:       "caredesk",
		},
		db,
		audit.NewExcelizeWriter,
		notifier,
		db,
		auditLogger,
	)
	auditSvc.Start()
	defer auditSvc.Stop()

	backupSvc := database.NewBackupService(db, cfg.Database.Backup, logger)
	go backupSvc.Start(ctx)

	refresher := syncer.NewRefresher(
		syncer.Config{Interval: cfg.SyncInterval(), Window: cfg.SyncWindow()},
		client,
		db,
		logger,
	)
	refresher.Start(ctx)
	defer refresher.Stop()

	server := api.NewServer(cfg.Server.Port, cfg.Server.APIKey, cfg.Calendar, db, client, bus, logger)

	// Grid parameters follow the config file without a restart.
	if err := config.WatchSettings(ctx, configPath, 30*time.Second, server.UpdateSettings); err != nil {
		logger.Error().Err(err).Msg("failed to start settings watch")
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	logger.Info().Msg("caredesk calendar service started")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
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

// zerologAdapter exposes zerolog through the audit Logger interface.
type zerologAdapter struct {
	log zerolog.Logger
}

func (a *zerologAdapter) Info(msg string, fields ...interface{}) {
	a.log.Info().Fields(fields).Msg(msg)
}

func (a *zerologAdapter) Error(msg string, fields ...interface{}) {
	a.log.Error().Fields(fields).Msg(msg)
}

func (a *zerologAdapter) Debug(msg string, fields ...interface{}) {
	a.log.Debug().Fields(fields).Msg(msg)
}
