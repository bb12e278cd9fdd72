// Package extractcmd implements the extract phase: turn cached raw HTML
// into title and body text, record the detected language, and mark
// articles as parsed.
package extractcmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/news-clipper/internal/common"
	"github.com/dtnitsch/news-clipper/models"
	"github.com/dtnitsch/news-clipper/pkg/cache"
	dbpkg "github.com/dtnitsch/news-clipper/pkg/db"
	"github.com/dtnitsch/news-clipper/pkg/extract"
	"github.com/dtnitsch/news-clipper/pkg/lang"
	"github.com/urfave/cli/v2"
)

type Summary struct {
	Extracted int
	Failed    int
	Pending   int // bodies not fetched yet, retried next run
}

func Action(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	database, err := dbpkg.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	summary, err := Run(logger, cfg, database)
	if err != nil {
		return err
	}
	fmt.Printf("extract: %d extracted, %d failed, %d pending\n", summary.Extracted, summary.Failed, summary.Pending)
	return nil
}

// Run extracts every fetched-but-unparsed article. Failures are isolated
// per article: one broken page never blocks the rest.
func Run(logger *slog.Logger, cfg *models.Config, database *dbpkg.DB) (Summary, error) {
	var summary Summary

	st, err := database.LoadStore()
	if err != nil {
		return summary, fmt.Errorf("extract aborted: %w", err)
	}

	contentCache, err := cache.New(cfg.CacheDir)
	if err != nil {
		return summary, err
	}
	detector := lang.NewDetector()

	for _, a := range st.All() {
		if a.Parsed {
			continue
		}
		if a.CacheKey == "" {
			summary.Pending++
			continue
		}

		raw, err := contentCache.Get(a.CacheKey)
		if errors.Is(err, cache.ErrNotFound) {
			summary.Pending++
			continue
		}
		if err != nil {
			logger.Warn("cache read failed", "url", a.URL, "error", err)
			summary.Failed++
			continue
		}

		res, err := extract.FromHTML(a.URL, raw)
		if err != nil {
			logger.Warn("extraction failed", "url", a.URL, "error", err)
			summary.Failed++
			continue
		}
		if err := contentCache.PutText(a.CacheKey, res.Text); err != nil {
			logger.Warn("failed to store extracted text", "url", a.URL, "error", err)
			summary.Failed++
			continue
		}

		st.SetParsed(a.Key(), res.Title, detector.Detect(res.Text))
		summary.Extracted++
	}

	if err := st.Save(); err != nil {
		return summary, fmt.Errorf("extract phase save failed: %w", err)
	}
	logger.Info("extract finished", "extracted", summary.Extracted, "failed", summary.Failed, "pending", summary.Pending)
	return summary, nil
}
