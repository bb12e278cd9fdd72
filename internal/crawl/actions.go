// Package crawl implements the crawl phase: scrape source listings,
// reconcile them with the Article Store, and fetch new bodies into the
// Content Cache.
package crawl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/news-clipper/internal/common"
	"github.com/dtnitsch/news-clipper/models"
	"github.com/dtnitsch/news-clipper/pkg/cache"
	dbpkg "github.com/dtnitsch/news-clipper/pkg/db"
	"github.com/dtnitsch/news-clipper/pkg/fetch"
	"github.com/dtnitsch/news-clipper/pkg/reconcile"
	"github.com/urfave/cli/v2"
)

// Summary is the per-run crawl outcome reported to the user. Partial
// source failure is a normal outcome, not an error.
type Summary struct {
	SourcesOK      int
	SourcesFailed  int
	NewArticles    int
	SeenArticles   int
	DroppedEntries int
	Duplicates     int
	BodiesFetched  int
	FetchFailures  int
	ContentChanged int
}

func Action(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("mode") {
		cfg.CrawlMode = models.CrawlMode(c.String("mode"))
	}
	runDate, err := common.RunDate(c)
	if err != nil {
		return err
	}

	database, err := dbpkg.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	summary, err := Run(c.Context, logger, cfg, database, runDate)
	if err != nil {
		return err
	}

	fmt.Printf("crawl: %d/%d sources ok, %d new, %d seen, %d dropped, %d duplicates, %d bodies fetched (%d failed, %d changed)\n",
		summary.SourcesOK, summary.SourcesOK+summary.SourcesFailed,
		summary.NewArticles, summary.SeenArticles, summary.DroppedEntries, summary.Duplicates,
		summary.BodiesFetched, summary.FetchFailures, summary.ContentChanged)
	return nil
}

// Run executes the crawl phase. A source that fails to scrape is logged
// and skipped; the rest of the run proceeds. A store load or save failure
// is fatal.
func Run(ctx context.Context, logger *slog.Logger, cfg *models.Config, database *dbpkg.DB, runDate string) (Summary, error) {
	var summary Summary

	st, err := database.LoadStore()
	if err != nil {
		return summary, fmt.Errorf("crawl aborted: %w", err)
	}

	contentCache, err := cache.New(cfg.CacheDir)
	if err != nil {
		return summary, err
	}

	fetcher := fetch.NewFetcher()
	logger.Info("starting crawl", "mode", cfg.CrawlMode, "sources", len(cfg.Sources), "run_date", runDate, "known_articles", st.Len())

	// Sources scrape in config order; reconcile relies on that order for
	// deterministic mirror tie-breaking.
	var batches []models.CrawlBatch
	for _, srcCfg := range cfg.Sources {
		src, err := fetch.New(srcCfg, fetcher)
		if err != nil {
			return summary, err
		}
		batch, err := src.Scrape(ctx, cfg.MaxArticlesPerSource)
		if err != nil {
			logger.Warn("source scrape failed", "source", srcCfg.ID, "error", err)
			summary.SourcesFailed++
			continue
		}
		logger.Info("source scraped", "source", srcCfg.ID, "entries", len(batch.Entries))
		summary.SourcesOK++
		batches = append(batches, batch)
	}

	plan := reconcile.Merge(st, batches, cfg.CrawlMode, runDate)
	summary.NewArticles = plan.Summary.NewArticles
	summary.SeenArticles = plan.Summary.SeenArticles
	summary.DroppedEntries = plan.Summary.DroppedEntries
	summary.Duplicates = plan.Summary.Duplicates
	if plan.Summary.DroppedEntries > 0 {
		logger.Warn("dropped malformed batch entries", "count", plan.Summary.DroppedEntries)
	}

	results := fetchBodies(ctx, logger, fetcher, contentCache, plan.Fetch, cfg.Workers)
	for _, r := range results {
		if r.err != nil {
			// The article row stays; incremental mode retries next run.
			summary.FetchFailures++
			continue
		}
		summary.BodiesFetched++
		if st.SetContent(r.key, r.cacheKey, r.contentHash) {
			logger.Info("content changed, match state invalidated", "source", r.key.SourceID, "url", r.key.URL)
			summary.ContentChanged++
		}
	}

	if err := st.Save(); err != nil {
		return summary, fmt.Errorf("crawl phase save failed: %w", err)
	}
	logger.Info("crawl finished", "new", summary.NewArticles, "fetched", summary.BodiesFetched, "fetch_failures", summary.FetchFailures)
	return summary, nil
}
