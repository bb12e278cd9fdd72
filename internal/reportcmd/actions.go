// Package reportcmd implements the report phase: write the JSON export
// and the HTML report page for the run date.
package reportcmd

import (
	"fmt"
	"log/slog"

	"github.com/dtnitsch/news-clipper/internal/common"
	"github.com/dtnitsch/news-clipper/models"
	dbpkg "github.com/dtnitsch/news-clipper/pkg/db"
	"github.com/dtnitsch/news-clipper/pkg/report"
	"github.com/urfave/cli/v2"
)

type Summary struct {
	Matched  int
	JSONPath string
	HTMLPath string
}

func Action(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"))
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
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
	fmt.Printf("report: %d matched articles\n  json: %s\n  html: %s\n", summary.Matched, summary.JSONPath, summary.HTMLPath)
	return nil
}

func Run(logger *slog.Logger, cfg *models.Config, database *dbpkg.DB, runDate string) (Summary, error) {
	var summary Summary

	st, err := database.LoadStore()
	if err != nil {
		return summary, fmt.Errorf("report aborted: %w", err)
	}

	export := report.Build(st, cfg.Subscribers, runDate)
	for _, sub := range export.Subscribers {
		summary.Matched += len(sub.Articles)
	}

	summary.JSONPath, err = report.WriteJSON(cfg.OutputDir, cfg.OutputPrefix, export)
	if err != nil {
		return summary, err
	}
	summary.HTMLPath, err = report.WriteHTML(cfg.OutputDir, cfg.OutputPrefix, export)
	if err != nil {
		return summary, err
	}

	logger.Info("report written", "run_date", runDate, "matched", summary.Matched, "json", summary.JSONPath, "html", summary.HTMLPath)
	return summary, nil
}
