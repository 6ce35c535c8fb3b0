package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/api"
	"github.com/alwaisy/keyinsights-backend/internal/hub"
	"github.com/alwaisy/keyinsights-backend/internal/infra/config"
	"github.com/alwaisy/keyinsights-backend/internal/infra/openrouter"
	"github.com/alwaisy/keyinsights-backend/internal/infra/redisstore"
	"github.com/alwaisy/keyinsights-backend/internal/infra/tracing"
	"github.com/alwaisy/keyinsights-backend/internal/infra/youtube"
	"github.com/alwaisy/keyinsights-backend/internal/ratelimit"
	"github.com/alwaisy/keyinsights-backend/internal/tasks"
	"github.com/alwaisy/keyinsights-backend/internal/usecase"
	"github.com/alwaisy/keyinsights-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting keyinsights-backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(ctx)
		}
	}

	// Shared store handle, constructed once and injected everywhere.
	store := redisstore.NewStore(redisstore.StoreConfig{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		StatusTTL: cfg.StatusTTL,
	}, log)
	defer store.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	fatalOnErr(store.Ping(pingCtx), "connect to redis")
	pingCancel()

	// External collaborators
	transcripts := youtube.NewClient(log)
	insights := openrouter.NewClient(openrouter.ClientConfig{
		APIKey:   cfg.OpenRouterAPIKey,
		BaseURL:  cfg.OpenRouterBaseURL,
		SiteURL:  cfg.OpenRouterSiteURL,
		SiteName: cfg.OpenRouterSiteName,
		Timeout:  cfg.InsightsTimeout,
	}, log)

	// Fan-out and admission control
	statusHub := hub.NewHub(log)
	limiter := ratelimit.NewLimiter(store, cfg.RateLimitRequests, log)

	// Use case
	uc := usecase.NewProcessVideoUseCase(
		store, store, transcripts, insights, statusHub,
		log,
		usecase.ProcessVideoConfig{
			TranscriptLang:   cfg.TranscriptLang,
			PartialResultTTL: cfg.PartialResultTTL,
			FinalResultTTL:   cfg.FinalResultTTL,
			JobTimeout:       cfg.JobTimeout,
		},
	)

	// Hourly rate-limit counter sweep
	tasks.NewRateLimitSweeper(store, log).Start(ctx)

	// HTTP API
	srv := api.NewServer(uc, store, store, transcripts, insights, statusHub, limiter, log, api.ServerConfig{
		DefaultModel:   cfg.DefaultModel,
		TranscriptLang: cfg.TranscriptLang,
	})

	go func() {
		if err := srv.Start(cfg.Port); err != nil {
			log.Info("http server stopped", zap.Error(err))
		}
	}()

	log.Info("keyinsights-backend started", zap.Int("port", cfg.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", zap.Error(err))
	}

	log.Info("keyinsights-backend stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
