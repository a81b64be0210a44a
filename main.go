package main

import (
	"context"
	"os"
	"time"

	"cayman-scraper/cleanup"
	"cayman-scraper/config"
	"cayman-scraper/fetch"
	"cayman-scraper/models"
	"cayman-scraper/notify"
	"cayman-scraper/pipeline"
	"cayman-scraper/scraper/cireba"
	"cayman-scraper/scraper/ecaytrade"
	"cayman-scraper/services"
	"cayman-scraper/storage"
	"cayman-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Cayman listing ingestion starting ===")
	logger.Info("Config, page cap: %d | fetch batch: %d | rate: %dms | retries: %d",
		cfg.PageCap, cfg.FetchBatchSize, cfg.RateLimitMs, cfg.MaxRetries)

	store, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewWebhookNotifier(cfg.WebhookURL, logger)
	norm := services.NewNormalizer(cfg)

	// Each source gets its own run with an independent timeout; a failed
	// run does not stop the next source.
	failed := 0

	if res := runCireba(cfg, norm, store, notifier, logger); res.Status != models.StatusSuccess {
		failed++
	}
	if res := runEcayTrade(cfg, norm, store, notifier, logger); res.Status != models.StatusSuccess {
		failed++
	}

	// Housekeeping after both runs; never affects the exit outcome of the
	// scraping itself beyond its own logging.
	cleanup.Logs(cfg.LogDir, cleanup.DefaultLogPatterns, cfg.LogTTLDays, logger)

	cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if n, err := store.DeleteListingsOlderThan(cleanupCtx, cfg.ListingTTLDays); err != nil {
		logger.Error("Listing cleanup failed: %v", err)
	} else {
		logger.Info("Listing cleanup removed %d stale rows", n)
	}

	if failed > 0 {
		logger.Error("%d of 2 source runs failed", failed)
		os.Exit(1)
	}
	logger.Info("All source runs succeeded")
}

func runCireba(cfg *config.Config, norm *services.Normalizer, store storage.Store,
	notifier notify.Notifier, logger *utils.Logger) pipeline.Result {

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.CirebaTimeoutMin)*time.Minute)
	defer cancel()

	fetcher := fetch.NewBrowserFetcher(cfg, cireba.ContainerSelector, logger)
	defer fetcher.Close()

	coord := fetch.NewCoordinator(fetcher, cfg.FetchBatchSize, cfg.RateLimitMs, logger)
	source := cireba.New(cfg, norm)

	runner := pipeline.NewRunner(source, models.SourceCIREBA, coord, nil, store, notifier, logger)
	return runner.Run(ctx)
}

func runEcayTrade(cfg *config.Config, norm *services.Normalizer, store storage.Store,
	notifier notify.Notifier, logger *utils.Logger) pipeline.Result {

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.EcayTradeTimeoutMin)*time.Minute)
	defer cancel()

	fetcher := fetch.NewBrowserFetcher(cfg, ecaytrade.ContainerSelector, logger)
	defer fetcher.Close()

	coord := fetch.NewCoordinator(fetcher, cfg.FetchBatchSize, cfg.RateLimitMs, logger)
	source := ecaytrade.New(cfg, norm)

	// Detail pages render server-side; the filter fetches them without a
	// browser.
	detailFetcher, err := fetch.NewStaticFetcher(cfg, logger, ecaytrade.Domain)
	if err != nil {
		logger.Error("[%s] Failed to build detail fetcher: %v", ecaytrade.Name, err)
		return pipeline.Result{Status: models.StatusFailed, Err: err}
	}
	detailCoord := fetch.NewCoordinator(detailFetcher, cfg.FetchBatchSize, cfg.RateLimitMs, logger)
	filter := services.NewMLSFilter(detailCoord, logger)

	runner := pipeline.NewRunner(source, models.SourceEcayTrade, coord, filter, store, notifier, logger)
	return runner.Run(ctx)
}
