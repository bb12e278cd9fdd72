// Package filter implements the filter phase: classify every outstanding
// (article, subscriber) pair against the subscriber's keyword set.
package filter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/news-clipper/internal/common"
	"github.com/dtnitsch/news-clipper/models"
	"github.com/dtnitsch/news-clipper/pkg/cache"
	dbpkg "github.com/dtnitsch/news-clipper/pkg/db"
	"github.com/dtnitsch/news-clipper/pkg/match"
	"github.com/dtnitsch/news-clipper/pkg/reconcile"
	"github.com/urfave/cli/v2"
)

type Summary struct {
	Evaluated int
	Matched   int
	Pending   int // extracted text unavailable, retried next run
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
	fmt.Printf("filter: %d pairs evaluated, %d matched, %d pending\n", summary.Evaluated, summary.Matched, summary.Pending)
	return nil
}

// Run evaluates pending pairs. Pair selection is driven by missing
// match-state entries, so already-classified pairs are never re-evaluated
// and a newly added subscriber picks up their source's backlog exactly
// once against the cached text, without refetching anything.
func Run(logger *slog.Logger, cfg *models.Config, database *dbpkg.DB) (Summary, error) {
	var summary Summary

	st, err := database.LoadStore()
	if err != nil {
		return summary, fmt.Errorf("filter aborted: %w", err)
	}

	contentCache, err := cache.New(cfg.CacheDir)
	if err != nil {
		return summary, err
	}
	engine := match.NewEngine(cfg.Match)

	pairs := reconcile.PendingEvaluations(st, cfg.Subscribers)
	logger.Info("starting filter", "pending_pairs", len(pairs))

	// Extracted text is read once per article, not once per pair.
	texts := make(map[models.Key]string)

	for _, pair := range pairs {
		a, ok := st.Get(pair.Key)
		if !ok {
			continue
		}

		body, cached := texts[pair.Key]
		if !cached {
			body, err = contentCache.GetText(a.CacheKey)
			if errors.Is(err, cache.ErrNotFound) {
				summary.Pending++
				continue
			}
			if err != nil {
				logger.Warn("failed to read extracted text", "url", a.URL, "error", err)
				summary.Pending++
				continue
			}
			texts[pair.Key] = body
		}

		res, err := engine.Evaluate(a, body, pair.Subscriber)
		if err != nil {
			// ErrContentNotReady here means pair selection let an
			// unparsed article through; surface it as a defect.
			logger.Error("evaluation failed", "url", a.URL, "subscriber", pair.Subscriber.ID, "error", err)
			continue
		}

		st.SetMatch(pair.Key, pair.Subscriber.ID, res)
		summary.Evaluated++
		if res.Matched {
			summary.Matched++
			logger.Info("article matched", "subscriber", pair.Subscriber.ID, "url", a.URL, "keywords", res.KeywordsHit)
		}
	}

	if err := st.Save(); err != nil {
		return summary, fmt.Errorf("filter phase save failed: %w", err)
	}
	logger.Info("filter finished", "evaluated", summary.Evaluated, "matched", summary.Matched, "pending", summary.Pending)
	return summary, nil
}
