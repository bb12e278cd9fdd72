// Package common holds the small helpers shared by all CLI commands.
package common

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dtnitsch/news-clipper/models"
	"github.com/urfave/cli/v2"
)

// NewLogger builds the stderr JSON logger used by every command. Stdout
// stays clean for command output.
func NewLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// RunDate resolves the --date flag, defaulting to today. The flag exists
// so runs can be replayed for a specific day.
func RunDate(c *cli.Context) (string, error) {
	raw := c.String("date")
	if raw == "" {
		return time.Now().Format(models.DateFormat), nil
	}
	if _, err := time.Parse(models.DateFormat, raw); err != nil {
		return "", fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", raw, err)
	}
	return raw, nil
}

// LoadConfig resolves the --config flag and loads the run configuration.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	return cfg, nil
}
