// Package notify implements the notify phase: email each subscriber their
// matched articles for the run date.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/dtnitsch/news-clipper/internal/common"
	"github.com/dtnitsch/news-clipper/models"
	dbpkg "github.com/dtnitsch/news-clipper/pkg/db"
	"github.com/dtnitsch/news-clipper/pkg/email"
	"github.com/dtnitsch/news-clipper/pkg/report"
	"github.com/urfave/cli/v2"
)

type Summary struct {
	Sent    int
	Failed  int
	Skipped int // subscribers with no matches today
}

func Action(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	if to := c.String("test"); to != "" {
		sender := email.NewSender(cfg.Email)
		if err := sender.SendTest(to); err != nil {
			return err
		}
		fmt.Printf("test email sent to %s\n", to)
		return nil
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

	summary, err := Run(logger, cfg, database, runDate)
	if err != nil {
		return err
	}
	fmt.Printf("notify: %d sent, %d failed, %d skipped\n", summary.Sent, summary.Failed, summary.Skipped)
	return nil
}

// Run sends digests. A delivery failure to one subscriber is logged and
// does not block the others.
func Run(logger *slog.Logger, cfg *models.Config, database *dbpkg.DB, runDate string) (Summary, error) {
	var summary Summary

	if !cfg.Email.Enabled {
		logger.Info("email notifications disabled, skipping notify phase")
		return summary, nil
	}

	st, err := database.LoadStore()
	if err != nil {
		return summary, fmt.Errorf("notify aborted: %w", err)
	}

	export := report.Build(st, cfg.Subscribers, runDate)
	sender := email.NewSender(cfg.Email)

	for _, rep := range export.Subscribers {
		if len(rep.Articles) == 0 {
			summary.Skipped++
			continue
		}
		if err := sender.SendDigest(rep, runDate); err != nil {
			logger.Warn("digest delivery failed", "subscriber", rep.SubscriberID, "error", err)
			summary.Failed++
			continue
		}
		logger.Info("digest sent", "subscriber", rep.SubscriberID, "articles", len(rep.Articles))
		summary.Sent++
	}
	return summary, nil
}
