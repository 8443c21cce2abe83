package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"creditgw/internal/audit"
	"creditgw/internal/config"
	"creditgw/internal/core/retention"
	httpx "creditgw/internal/http"
	"creditgw/internal/observability"
	"creditgw/internal/provider"
	"creditgw/internal/services/credit"
	"creditgw/internal/store/postgres"
	"creditgw/internal/store/redis"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Credit log sink: Postgres, then Redis, then the local JSONL file
	var sink audit.Sink
	switch {
	case cfg.DB.DSN != "":
		pool := postgres.MustOpen(ctx, cfg.DB.DSN)
		defer pool.Close()
		pg := postgres.NewCreditLog(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("credit_log schema failed")
		}
		sink = pg
		log.Info().Msg("credit log: postgres")
	case cfg.Redis.Addr != "":
		rs, err := redis.New(ctx, cfg.Redis.Addr, 30*time.Second,
			redis.WithPassword(cfg.Redis.Password),
			redis.WithDB(cfg.Redis.DB),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect fail")
		}
		defer rs.Close()
		sink = rs
		log.Info().Str("addr", cfg.Redis.Addr).Msg("credit log: redis")
	default:
		fs := audit.NewFileSink(cfg.App.CreditLogFile)
		sink = fs
		log.Info().Str("path", fs.Path()).Msg("credit log: file")
	}
	auditLog := audit.NewLogger(sink)

	// Providers are registered explicitly, once, before serving
	settings := config.NewProviderSettings(cfg.App.SettingsFile)
	credit.Bootstrap(provider.Default, credit.Deps{Settings: settings, Audit: auditLog})

	metrics := observability.NewMetrics()
	ctrl := credit.NewController(provider.Default, metrics)

	// Keep the credit log bounded
	go retention.NewWorker(sink).Run(ctx)

	r := httpx.NewRouter(httpx.RouterDependencies{
		Config:     cfg,
		Controller: ctrl,
		Settings:   settings,
		CreditLog:  sink,
		Audit:      auditLog,
		Metrics:    metrics,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second, // provider calls may take up to 30s
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Strs("providers", provider.Default.IDs()).Msgf("credit gateway listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}
