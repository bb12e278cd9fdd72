// Package pipeline implements the run command: all phases in order, each
// persisting its results before the next starts so a crash mid-phase
// only loses that phase's work.
package pipeline

import (
	"fmt"

	"github.com/dtnitsch/news-clipper/internal/common"
	"github.com/dtnitsch/news-clipper/internal/crawl"
	"github.com/dtnitsch/news-clipper/internal/extractcmd"
	"github.com/dtnitsch/news-clipper/internal/filter"
	"github.com/dtnitsch/news-clipper/internal/notify"
	"github.com/dtnitsch/news-clipper/internal/reportcmd"
	"github.com/dtnitsch/news-clipper/models"
	dbpkg "github.com/dtnitsch/news-clipper/pkg/db"
	"github.com/urfave/cli/v2"
)

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

	crawlSummary, err := crawl.Run(c.Context, logger, cfg, database, runDate)
	if err != nil {
		return err
	}
	extractSummary, err := extractcmd.Run(logger, cfg, database)
	if err != nil {
		return err
	}
	filterSummary, err := filter.Run(logger, cfg, database)
	if err != nil {
		return err
	}
	reportSummary, err := reportcmd.Run(logger, cfg, database, runDate)
	if err != nil {
		return err
	}
	notifySummary, err := notify.Run(logger, cfg, database, runDate)
	if err != nil {
		return err
	}

	fmt.Printf("run %s finished\n", runDate)
	fmt.Printf("  crawl:   %d/%d sources ok, %d new articles, %d bodies fetched (%d failed)\n",
		crawlSummary.SourcesOK, crawlSummary.SourcesOK+crawlSummary.SourcesFailed,
		crawlSummary.NewArticles, crawlSummary.BodiesFetched, crawlSummary.FetchFailures)
	fmt.Printf("  extract: %d extracted, %d failed, %d pending\n",
		extractSummary.Extracted, extractSummary.Failed, extractSummary.Pending)
	fmt.Printf("  filter:  %d pairs evaluated, %d matched\n",
		filterSummary.Evaluated, filterSummary.Matched)
	fmt.Printf("  report:  %d matched articles, %s\n", reportSummary.Matched, reportSummary.JSONPath)
	fmt.Printf("  notify:  %d sent, %d failed, %d skipped\n",
		notifySummary.Sent, notifySummary.Failed, notifySummary.Skipped)
	return nil
}
