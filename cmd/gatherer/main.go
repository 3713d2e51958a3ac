// Package main wires together the signal gatherer binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/oculusre/signalharvest/internal/browser"
	"github.com/oculusre/signalharvest/internal/clock/system"
	"github.com/oculusre/signalharvest/internal/config"
	"github.com/oculusre/signalharvest/internal/feed"
	"github.com/oculusre/signalharvest/internal/gather"
	"github.com/oculusre/signalharvest/internal/id/uuid"
	"github.com/oculusre/signalharvest/internal/logging"
	"github.com/oculusre/signalharvest/internal/metrics"
	"github.com/oculusre/signalharvest/internal/ops"
	pubsubpublisher "github.com/oculusre/signalharvest/internal/publisher/pubsub"
	"github.com/oculusre/signalharvest/internal/scraper"
	sig "github.com/oculusre/signalharvest/internal/signal"
	"github.com/oculusre/signalharvest/internal/store/postgres"
	"github.com/oculusre/signalharvest/internal/transcribe"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gatherer run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	metrics.Init()

	store, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.ConnLifetime(),
	}, uuid.New())
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer store.Close()

	reader := feed.NewReader(cfg.Feeds, nil, logger)
	pages := feed.NewPageFetcher(cfg.Gather.UserAgent, 30*time.Second)

	var transcriber sig.Transcriber
	if cfg.Transcription.Endpoint != "" {
		transcriber = transcribe.NewClient(cfg.Transcription.Endpoint, cfg.Transcription.APIKey, logger)
	}

	registry := scraper.NewRegistry()
	registry.Register(scraper.NewMetroBiz(scraper.Credentials{
		Username: cfg.Credentials["metro-biz"].Username,
		Password: cfg.Credentials["metro-biz"].Password,
	}))
	registry.Register(scraper.NewCountyPermits())
	registry.Register(scraper.NewChamber())

	sessions := browser.Factory(browser.Config{
		NavTimeout: cfg.NavTimeout(),
		UserAgent:  cfg.Gather.UserAgent,
		Headless:   cfg.Browser.Headless,
	}, logger)

	var publisher sig.Publisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.Topic != "" {
		pub, perr := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID)
		if perr != nil {
			logger.Warn("briefing publisher unavailable", zap.Error(perr))
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	if cfg.Ops.Port > 0 {
		srv := ops.New(cfg.Ops.Port, logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Warn("ops server shutdown", zap.Error(err))
			}
		}()
	}

	g := gather.New(gather.Deps{
		Sources:     store,
		Signals:     store,
		Feeds:       reader,
		Transcriber: transcriber,
		Pages:       pages,
		Scrapers:    registry,
		NewSession:  sessions,
		Publisher:   publisher,
		Clock:       system.New(),
	}, gather.Config{
		MaxEpisodeAge: cfg.MaxEpisodeAge(),
		SessionPause:  cfg.SessionPause(),
		BriefingTopic: cfg.PubSub.Topic,
	}, logger)

	result, err := g.Run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	logger.Info("gatherer finished",
		zap.Int("sources_scraped", result.SourcesScraped),
		zap.Int("signals_collected", result.SignalsCollected),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return nil
}
